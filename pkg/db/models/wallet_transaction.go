package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/tundeadepitan/swiftchow-backend/pkg/enums"
)

// WalletTransaction is an append-only ledger entry. Rows are never mutated
// after creation except for the reversal marker on a refunded debit. The
// unique reference makes every ledger step exactly-once: a step that already
// wrote its row is skipped on re-run.
type WalletTransaction struct {
	ID       uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	WalletID uuid.UUID               `gorm:"column:wallet_id;type:uuid;not null;index"`
	UserID   *uuid.UUID              `gorm:"column:user_id;type:uuid"`
	Role     enums.WalletRole        `gorm:"column:role;type:text;not null"`
	Type     enums.TransactionType   `gorm:"column:type;type:text;not null"`
	Source   enums.TransactionSource `gorm:"column:source;type:text;not null"`
	Status   enums.TransactionStatus `gorm:"column:status;type:text;not null;default:'completed'"`

	AmountKobo  int64           `gorm:"column:amount_kobo;not null"`
	OrderID     *uuid.UUID      `gorm:"column:order_id;type:uuid;index"`
	Reference   string          `gorm:"column:reference;not null;uniqueIndex"`
	Description string          `gorm:"column:description"`
	Metadata    json.RawMessage `gorm:"column:metadata;type:jsonb"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
