package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tundeadepitan/swiftchow-backend/pkg/db"
	"github.com/tundeadepitan/swiftchow-backend/pkg/db/models"
	"github.com/tundeadepitan/swiftchow-backend/pkg/enums"
	pkgerrors "github.com/tundeadepitan/swiftchow-backend/pkg/errors"
	"github.com/tundeadepitan/swiftchow-backend/pkg/pagination"
)

// Service handles order persistence and the payment/distribution state
// transitions other components drive.
type Service struct {
	client *db.Client
	repo   Repository
}

// ServiceParams groups dependencies for the orders service.
type ServiceParams struct {
	Client *db.Client
	Repo   Repository
}

// NewService builds an orders service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders service requires a db client")
	}
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders service requires a repository")
	}
	return &Service{client: params.Client, repo: params.Repo}, nil
}

// Create persists an order with its vendor groups and per-seller child
// orders in one transaction. The order starts unpaid and undistributed.
func (s *Service) Create(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	if input.PaymentReference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment reference is required")
	}
	if len(input.Groups) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order needs at least one vendor group")
	}
	if input.DeliveryFeeKobo < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery fee cannot be negative")
	}
	seen := make(map[string]bool, len(input.Groups))
	for _, group := range input.Groups {
		if group.VendorUserID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor user id is required")
		}
		if !group.VendorRole.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid vendor role")
		}
		if group.SubtotalKobo <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor group subtotal must be positive")
		}
		key := group.VendorUserID.String() + "|" + string(group.VendorRole)
		if seen[key] {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "duplicate vendor group in order")
		}
		seen[key] = true
	}

	order := &models.Order{
		ID:               uuid.New(),
		OrderNumber:      input.OrderNumber,
		CustomerID:       input.CustomerID,
		PaymentProvider:  "paystack",
		PaymentStatus:    enums.PaymentStatusPending,
		PaymentReference: input.PaymentReference,

		DistributionStatus: enums.DistributionStatusPending,
		DeliveryFeeKobo:    input.DeliveryFeeKobo,
		RiderUserID:        input.RiderUserID,
		Currency:           enums.CurrencyNGN,
	}
	for _, group := range input.Groups {
		order.VendorGroups = append(order.VendorGroups, models.OrderVendorGroup{
			ID:           uuid.New(),
			OrderID:      order.ID,
			VendorUserID: group.VendorUserID,
			VendorRole:   group.VendorRole,
			SubtotalKobo: group.SubtotalKobo,
		})
		order.ChildOrders = append(order.ChildOrders, models.ChildOrder{
			ID:           uuid.New(),
			OrderID:      order.ID,
			VendorUserID: group.VendorUserID,
			VendorRole:   group.VendorRole,
			SubtotalKobo: group.SubtotalKobo,
			Status:       enums.ChildOrderStatusPending,
		})
	}

	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "payment reference already used")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Get loads an order with its vendor groups and child orders.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	return order, nil
}

// FindByPaymentReference resolves the order a gateway reference points at.
func (s *Service) FindByPaymentReference(ctx context.Context, reference string) (*models.Order, error) {
	order, err := s.repo.FindByPaymentReference(ctx, reference)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no order for payment reference")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order by reference")
	}
	return order, nil
}

// ListByCustomer pages through a customer's orders, newest first.
func (s *Service) ListByCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) ([]models.Order, string, error) {
	orders, next, err := s.repo.ListByCustomer(ctx, customerID, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing customer orders")
	}
	return orders, next, nil
}

// MarkPaid transitions the order to paid. Returns false when the order was
// already paid, which callers treat as a duplicate event.
func (s *Service) MarkPaid(ctx context.Context, orderID uuid.UUID, paidAt time.Time) (bool, error) {
	flipped, err := s.repo.MarkPaid(ctx, orderID, paidAt)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marking order paid")
	}
	return flipped, nil
}
