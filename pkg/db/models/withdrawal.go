package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/tundeadepitan/swiftchow-backend/pkg/enums"
)

// Withdrawal is a payout request moving wallet funds to a bank account via
// the payment gateway. Fee and net amount are fixed at creation. Gateway
// handles are cached on the row so recipient creation is not repeated and a
// transfer is never initiated twice.
type Withdrawal struct {
	ID       uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	WalletID uuid.UUID        `gorm:"column:wallet_id;type:uuid;not null;index"`
	UserID   uuid.UUID        `gorm:"column:user_id;type:uuid;not null;index"`
	Role     enums.WalletRole `gorm:"column:role;type:text;not null"`

	AmountKobo    int64                  `gorm:"column:amount_kobo;not null"`
	FeeKobo       int64                  `gorm:"column:fee_kobo;not null"`
	NetAmountKobo int64                  `gorm:"column:net_amount_kobo;not null"`
	Status        enums.WithdrawalStatus `gorm:"column:status;type:text;not null;default:'pending'"`

	BankName      string `gorm:"column:bank_name;not null"`
	BankCode      string `gorm:"column:bank_code;not null"`
	AccountNumber string `gorm:"column:account_number;not null"`
	AccountName   string `gorm:"column:account_name;not null"`

	RecipientCode       *string    `gorm:"column:recipient_code"`
	TransferCode        *string    `gorm:"column:transfer_code"`
	TransferReference   *string    `gorm:"column:transfer_reference"`
	TransferInitiatedAt *time.Time `gorm:"column:transfer_initiated_at"`

	CompletedAt   *time.Time `gorm:"column:completed_at"`
	FailureReason *string    `gorm:"column:failure_reason"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
