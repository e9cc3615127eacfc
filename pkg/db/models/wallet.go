package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/tundeadepitan/swiftchow-backend/pkg/enums"
)

// Wallet is the running balance for one (user, role) pair. The platform
// wallet is synthetic: role "platform" with a nil user id. Wallets are
// created lazily on first credit; balances only move through the ledger's
// atomic increment operations, never load-modify-save.
type Wallet struct {
	ID     uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID *uuid.UUID       `gorm:"column:user_id;type:uuid;uniqueIndex:idx_wallet_user_role"`
	Role   enums.WalletRole `gorm:"column:role;type:text;not null;uniqueIndex:idx_wallet_user_role"`

	BalanceKobo        int64          `gorm:"column:balance_kobo;not null;default:0"`
	PendingBalanceKobo int64          `gorm:"column:pending_balance_kobo;not null;default:0"`
	TotalEarnedKobo    int64          `gorm:"column:total_earned_kobo;not null;default:0"`
	TotalWithdrawnKobo int64          `gorm:"column:total_withdrawn_kobo;not null;default:0"`
	Currency           enums.Currency `gorm:"column:currency;type:text;not null;default:'NGN'"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
