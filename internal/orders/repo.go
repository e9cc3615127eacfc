package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tundeadepitan/swiftchow-backend/pkg/db/models"
	"github.com/tundeadepitan/swiftchow-backend/pkg/enums"
	"github.com/tundeadepitan/swiftchow-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("VendorGroups").
		Preload("ChildOrders").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByPaymentReference(ctx context.Context, reference string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("VendorGroups").
		Where("payment_reference = ?", reference).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListByCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) ([]models.Order, string, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, "", err
	}

	next := ""
	if len(orders) > limit {
		orders = orders[:limit]
		last := orders[len(orders)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return orders, next, nil
}

func (r *repository) MarkPaid(ctx context.Context, orderID uuid.UUID, paidAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND payment_status = ?", orderID, enums.PaymentStatusPending).
		Updates(map[string]any{
			"payment_status": enums.PaymentStatusPaid,
			"paid_at":        paidAt,
			"updated_at":     time.Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) MarkDistributed(ctx context.Context, orderID uuid.UUID, platformKobo, riderKobo int64, distributedAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND distribution_status = ?", orderID, enums.DistributionStatusPending).
		Updates(map[string]any{
			"distribution_status":  enums.DistributionStatusDistributed,
			"platform_amount_kobo": platformKobo,
			"rider_amount_kobo":    riderKobo,
			"distributed_at":       distributedAt,
			"updated_at":           time.Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) ListStuckDistributions(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("VendorGroups").
		Where("payment_status = ? AND distribution_status = ? AND paid_at < ?",
			enums.PaymentStatusPaid, enums.DistributionStatusPending, cutoff).
		Order("paid_at ASC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) UpdateVendorGroupSettlement(ctx context.Context, groupID uuid.UUID, rate string, commissionKobo, payoutKobo int64, paidAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.OrderVendorGroup{}).
		Where("id = ?", groupID).
		Updates(map[string]any{
			"commission_rate":        rate,
			"commission_amount_kobo": commissionKobo,
			"payout_amount_kobo":     payoutKobo,
			"paid":                   true,
			"paid_at":                paidAt,
			"updated_at":             time.Now().UTC(),
		}).Error
}

func (r *repository) UpdateChildOrderFinancials(ctx context.Context, orderID, vendorUserID uuid.UUID, commissionKobo, vendorKobo int64) error {
	return r.db.WithContext(ctx).
		Model(&models.ChildOrder{}).
		Where("order_id = ? AND vendor_user_id = ?", orderID, vendorUserID).
		Updates(map[string]any{
			"commission_amount_kobo": commissionKobo,
			"vendor_amount_kobo":     vendorKobo,
			"status":                 enums.ChildOrderStatusPaid,
			"updated_at":             time.Now().UTC(),
		}).Error
}

func (r *repository) ListVendorGroups(ctx context.Context, orderID uuid.UUID) ([]models.OrderVendorGroup, error) {
	var groups []models.OrderVendorGroup
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&groups).Error
	if err != nil {
		return nil, err
	}
	return groups, nil
}
