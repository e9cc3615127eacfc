package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tundeadepitan/swiftchow-backend/pkg/db/models"
	"github.com/tundeadepitan/swiftchow-backend/pkg/pagination"
)

// Repository defines persistence operations for orders and their per-seller
// decomposition. Payment and distribution transitions are single-row
// compare-and-set updates; a transition that affected zero rows means some
// other worker already performed it.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByPaymentReference(ctx context.Context, reference string) (*models.Order, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) ([]models.Order, string, error)

	// MarkPaid flips payment_status pending -> paid. Returns false when the
	// order was already paid.
	MarkPaid(ctx context.Context, orderID uuid.UUID, paidAt time.Time) (bool, error)

	// MarkDistributed flips distribution_status pending -> distributed and
	// records the platform and rider cuts. Returns false when another
	// worker already distributed the order.
	MarkDistributed(ctx context.Context, orderID uuid.UUID, platformKobo, riderKobo int64, distributedAt time.Time) (bool, error)

	// ListStuckDistributions returns paid orders whose distribution never
	// completed before the cutoff. The reconciler re-drives these.
	ListStuckDistributions(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)

	UpdateVendorGroupSettlement(ctx context.Context, groupID uuid.UUID, rate string, commissionKobo, payoutKobo int64, paidAt time.Time) error
	UpdateChildOrderFinancials(ctx context.Context, orderID, vendorUserID uuid.UUID, commissionKobo, vendorKobo int64) error
	ListVendorGroups(ctx context.Context, orderID uuid.UUID) ([]models.OrderVendorGroup, error)
}
