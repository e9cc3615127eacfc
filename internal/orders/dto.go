package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/tundeadepitan/swiftchow-backend/pkg/db/models"
	"github.com/tundeadepitan/swiftchow-backend/pkg/enums"
)

// VendorGroupInput is one seller's slice of a new order.
type VendorGroupInput struct {
	VendorUserID uuid.UUID        `json:"vendor_user_id"`
	VendorRole   enums.VendorRole `json:"vendor_role"`
	SubtotalKobo int64            `json:"subtotal_kobo"`
}

// CreateOrderInput captures everything needed to persist a new order
// awaiting payment.
type CreateOrderInput struct {
	OrderNumber      int64              `json:"order_number"`
	CustomerID       uuid.UUID          `json:"customer_id"`
	PaymentReference string             `json:"payment_reference"`
	DeliveryFeeKobo  int64              `json:"delivery_fee_kobo"`
	RiderUserID      *uuid.UUID         `json:"rider_user_id"`
	Groups           []VendorGroupInput `json:"groups"`
}

// VendorGroupView is one seller's slice of an order as returned by the API.
type VendorGroupView struct {
	ID                   uuid.UUID        `json:"id"`
	VendorUserID         uuid.UUID        `json:"vendor_user_id"`
	VendorRole           enums.VendorRole `json:"vendor_role"`
	SubtotalKobo         int64            `json:"subtotal_kobo"`
	CommissionRate       string           `json:"commission_rate,omitempty"`
	CommissionAmountKobo int64            `json:"commission_amount_kobo"`
	PayoutAmountKobo     int64            `json:"payout_amount_kobo"`
	Paid                 bool             `json:"paid"`
	PaidAt               *time.Time       `json:"paid_at,omitempty"`
}

// OrderView is the API shape of an order with its vendor split.
type OrderView struct {
	ID                 uuid.UUID                `json:"id"`
	OrderNumber        int64                    `json:"order_number"`
	CustomerID         uuid.UUID                `json:"customer_id"`
	PaymentProvider    string                   `json:"payment_provider"`
	PaymentStatus      enums.PaymentStatus      `json:"payment_status"`
	PaymentReference   string                   `json:"payment_reference"`
	PaidAt             *time.Time               `json:"paid_at,omitempty"`
	DistributionStatus enums.DistributionStatus `json:"distribution_status"`
	PlatformAmountKobo int64                    `json:"platform_amount_kobo"`
	RiderAmountKobo    int64                    `json:"rider_amount_kobo"`
	DistributedAt      *time.Time               `json:"distributed_at,omitempty"`
	DeliveryFeeKobo    int64                    `json:"delivery_fee_kobo"`
	RiderUserID        *uuid.UUID               `json:"rider_user_id,omitempty"`
	TotalSubtotalKobo  int64                    `json:"total_subtotal_kobo"`
	Currency           enums.Currency           `json:"currency"`
	Groups             []VendorGroupView        `json:"groups"`
	CreatedAt          time.Time                `json:"created_at"`
}

// OrderPage is one cursor page of orders, newest first.
type OrderPage struct {
	Orders     []OrderView `json:"orders"`
	NextCursor string      `json:"next_cursor,omitempty"`
}

func NewOrderView(order *models.Order) OrderView {
	view := OrderView{
		ID:                 order.ID,
		OrderNumber:        order.OrderNumber,
		CustomerID:         order.CustomerID,
		PaymentProvider:    order.PaymentProvider,
		PaymentStatus:      order.PaymentStatus,
		PaymentReference:   order.PaymentReference,
		PaidAt:             order.PaidAt,
		DistributionStatus: order.DistributionStatus,
		PlatformAmountKobo: order.PlatformAmountKobo,
		RiderAmountKobo:    order.RiderAmountKobo,
		DistributedAt:      order.DistributedAt,
		DeliveryFeeKobo:    order.DeliveryFeeKobo,
		RiderUserID:        order.RiderUserID,
		TotalSubtotalKobo:  order.TotalSubtotalKobo(),
		Currency:           order.Currency,
		Groups:             make([]VendorGroupView, 0, len(order.VendorGroups)),
		CreatedAt:          order.CreatedAt,
	}
	for _, group := range order.VendorGroups {
		view.Groups = append(view.Groups, VendorGroupView{
			ID:                   group.ID,
			VendorUserID:         group.VendorUserID,
			VendorRole:           group.VendorRole,
			SubtotalKobo:         group.SubtotalKobo,
			CommissionRate:       group.CommissionRate,
			CommissionAmountKobo: group.CommissionAmountKobo,
			PayoutAmountKobo:     group.PayoutAmountKobo,
			Paid:                 group.Paid,
			PaidAt:               group.PaidAt,
		})
	}
	return view
}

func NewOrderPage(orders []models.Order, nextCursor string) OrderPage {
	page := OrderPage{
		Orders:     make([]OrderView, 0, len(orders)),
		NextCursor: nextCursor,
	}
	for i := range orders {
		page.Orders = append(page.Orders, NewOrderView(&orders[i]))
	}
	return page
}
