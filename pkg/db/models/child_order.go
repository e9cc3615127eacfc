package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/tundeadepitan/swiftchow-backend/pkg/enums"
)

// ChildOrder is the per-seller decomposition of an Order used by seller
// dashboards and earnings queries. It is created alongside the order;
// the financial columns are filled by distribution, not at creation.
type ChildOrder struct {
	ID           uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID      uuid.UUID              `gorm:"column:order_id;type:uuid;not null;index"`
	VendorUserID uuid.UUID              `gorm:"column:vendor_user_id;type:uuid;not null;index"`
	VendorRole   enums.VendorRole       `gorm:"column:vendor_role;type:text;not null"`
	SubtotalKobo int64                  `gorm:"column:subtotal_kobo;not null"`
	Status       enums.ChildOrderStatus `gorm:"column:status;type:text;not null;default:'pending'"`

	CommissionAmountKobo int64 `gorm:"column:commission_amount_kobo;not null;default:0"`
	VendorAmountKobo     int64 `gorm:"column:vendor_amount_kobo;not null;default:0"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
