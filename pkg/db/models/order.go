package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/tundeadepitan/swiftchow-backend/pkg/enums"
)

// Order is one customer purchase, possibly spanning several sellers. Payment
// and distribution state live on the order so the webhook and distribution
// paths can guard their transitions with single-row compare-and-set updates.
type Order struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber int64     `gorm:"column:order_number;not null"`
	CustomerID  uuid.UUID `gorm:"column:customer_id;type:uuid;not null"`

	PaymentProvider  string              `gorm:"column:payment_provider;not null;default:'paystack'"`
	PaymentStatus    enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'pending'"`
	PaymentReference string              `gorm:"column:payment_reference;not null;uniqueIndex"`
	PaidAt           *time.Time          `gorm:"column:paid_at"`

	DistributionStatus enums.DistributionStatus `gorm:"column:distribution_status;type:text;not null;default:'pending'"`
	PlatformAmountKobo int64                    `gorm:"column:platform_amount_kobo;not null;default:0"`
	RiderAmountKobo    int64                    `gorm:"column:rider_amount_kobo;not null;default:0"`
	DistributedAt      *time.Time               `gorm:"column:distributed_at"`

	DeliveryFeeKobo int64          `gorm:"column:delivery_fee_kobo;not null;default:0"`
	RiderUserID     *uuid.UUID     `gorm:"column:rider_user_id;type:uuid"`
	Currency        enums.Currency `gorm:"column:currency;type:text;not null;default:'NGN'"`

	VendorGroups []OrderVendorGroup `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	ChildOrders  []ChildOrder       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TotalSubtotalKobo sums the vendor group subtotals.
func (o *Order) TotalSubtotalKobo() int64 {
	var total int64
	for _, group := range o.VendorGroups {
		total += group.SubtotalKobo
	}
	return total
}
