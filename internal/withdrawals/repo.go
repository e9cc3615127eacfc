package withdrawals

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tundeadepitan/swiftchow-backend/pkg/db/models"
	"github.com/tundeadepitan/swiftchow-backend/pkg/enums"
	"github.com/tundeadepitan/swiftchow-backend/pkg/pagination"
)

// Repository manages withdrawal rows. Status transitions are single-row
// compare-and-set updates on the current status, so two admins approving the
// same request cannot both win.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, withdrawal *models.Withdrawal) (*models.Withdrawal, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error)
	FindByTransferReference(ctx context.Context, reference string) (*models.Withdrawal, error)
	ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Withdrawal, string, error)
	ListByStatus(ctx context.Context, status enums.WithdrawalStatus, limit int) ([]models.Withdrawal, error)

	// Transition flips the status from one value to another and applies the
	// extra column updates. Returns false when the row was not in the
	// expected state.
	Transition(ctx context.Context, id uuid.UUID, from, to enums.WithdrawalStatus, updates map[string]any) (bool, error)

	SetRecipientCode(ctx context.Context, id uuid.UUID, code string) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a withdrawals repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, withdrawal *models.Withdrawal) (*models.Withdrawal, error) {
	if err := r.db.WithContext(ctx).Create(withdrawal).Error; err != nil {
		return nil, err
	}
	return withdrawal, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error) {
	var withdrawal models.Withdrawal
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&withdrawal).Error; err != nil {
		return nil, err
	}
	return &withdrawal, nil
}

func (r *repository) FindByTransferReference(ctx context.Context, reference string) (*models.Withdrawal, error) {
	var withdrawal models.Withdrawal
	if err := r.db.WithContext(ctx).Where("transfer_reference = ?", reference).First(&withdrawal).Error; err != nil {
		return nil, err
	}
	return &withdrawal, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Withdrawal, string, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
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

	var withdrawals []models.Withdrawal
	if err := query.Find(&withdrawals).Error; err != nil {
		return nil, "", err
	}

	next := ""
	if len(withdrawals) > limit {
		withdrawals = withdrawals[:limit]
		last := withdrawals[len(withdrawals)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return withdrawals, next, nil
}

func (r *repository) ListByStatus(ctx context.Context, status enums.WithdrawalStatus, limit int) ([]models.Withdrawal, error) {
	var withdrawals []models.Withdrawal
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Limit(limit).
		Find(&withdrawals).Error
	if err != nil {
		return nil, err
	}
	return withdrawals, nil
}

func (r *repository) Transition(ctx context.Context, id uuid.UUID, from, to enums.WithdrawalStatus, updates map[string]any) (bool, error) {
	if updates == nil {
		updates = map[string]any{}
	}
	updates["status"] = to
	updates["updated_at"] = time.Now().UTC()

	result := r.db.WithContext(ctx).
		Model(&models.Withdrawal{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) SetRecipientCode(ctx context.Context, id uuid.UUID, code string) error {
	return r.db.WithContext(ctx).
		Model(&models.Withdrawal{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"recipient_code": code,
			"updated_at":     time.Now().UTC(),
		}).Error
}
