package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/tundeadepitan/swiftchow-backend/pkg/enums"
)

// OrderVendorGroup is the slice of an order belonging to a single seller.
// Settlement fields stay zero until the distribution engine fills them in.
type OrderVendorGroup struct {
	ID           uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID      uuid.UUID        `gorm:"column:order_id;type:uuid;not null;uniqueIndex:idx_vendor_group_order_vendor_role"`
	VendorUserID uuid.UUID        `gorm:"column:vendor_user_id;type:uuid;not null;uniqueIndex:idx_vendor_group_order_vendor_role"`
	VendorRole   enums.VendorRole `gorm:"column:vendor_role;type:text;not null;uniqueIndex:idx_vendor_group_order_vendor_role"`
	SubtotalKobo int64            `gorm:"column:subtotal_kobo;not null"`

	CommissionRate       string     `gorm:"column:commission_rate"`
	CommissionAmountKobo int64      `gorm:"column:commission_amount_kobo;not null;default:0"`
	PayoutAmountKobo     int64      `gorm:"column:payout_amount_kobo;not null;default:0"`
	Paid                 bool       `gorm:"column:paid;not null;default:false"`
	PaidAt               *time.Time `gorm:"column:paid_at"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
