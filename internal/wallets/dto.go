package wallets

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/tundeadepitan/swiftchow-backend/pkg/db/models"
	"github.com/tundeadepitan/swiftchow-backend/pkg/enums"
)

// WalletView is the API shape of a wallet.
type WalletView struct {
	ID                 uuid.UUID        `json:"id"`
	UserID             *uuid.UUID       `json:"user_id,omitempty"`
	Role               enums.WalletRole `json:"role"`
	BalanceKobo        int64            `json:"balance_kobo"`
	PendingBalanceKobo int64            `json:"pending_balance_kobo"`
	TotalEarnedKobo    int64            `json:"total_earned_kobo"`
	TotalWithdrawnKobo int64            `json:"total_withdrawn_kobo"`
	Currency           enums.Currency   `json:"currency"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

// TransactionView is the API shape of one ledger entry.
type TransactionView struct {
	ID          uuid.UUID               `json:"id"`
	WalletID    uuid.UUID               `json:"wallet_id"`
	Type        enums.TransactionType   `json:"type"`
	Source      enums.TransactionSource `json:"source"`
	Status      enums.TransactionStatus `json:"status"`
	AmountKobo  int64                   `json:"amount_kobo"`
	OrderID     *uuid.UUID              `json:"order_id,omitempty"`
	Reference   string                  `json:"reference"`
	Description string                  `json:"description,omitempty"`
	Metadata    json.RawMessage         `json:"metadata,omitempty"`
	CreatedAt   time.Time               `json:"created_at"`
}

// TransactionPage is one cursor page of ledger entries, newest first.
type TransactionPage struct {
	Transactions []TransactionView `json:"transactions"`
	NextCursor   string            `json:"next_cursor,omitempty"`
}

func NewWalletView(wallet *models.Wallet) WalletView {
	return WalletView{
		ID:                 wallet.ID,
		UserID:             wallet.UserID,
		Role:               wallet.Role,
		BalanceKobo:        wallet.BalanceKobo,
		PendingBalanceKobo: wallet.PendingBalanceKobo,
		TotalEarnedKobo:    wallet.TotalEarnedKobo,
		TotalWithdrawnKobo: wallet.TotalWithdrawnKobo,
		Currency:           wallet.Currency,
		CreatedAt:          wallet.CreatedAt,
		UpdatedAt:          wallet.UpdatedAt,
	}
}

func NewTransactionPage(txns []models.WalletTransaction, nextCursor string) TransactionPage {
	page := TransactionPage{
		Transactions: make([]TransactionView, 0, len(txns)),
		NextCursor:   nextCursor,
	}
	for _, txn := range txns {
		page.Transactions = append(page.Transactions, TransactionView{
			ID:          txn.ID,
			WalletID:    txn.WalletID,
			Type:        txn.Type,
			Source:      txn.Source,
			Status:      txn.Status,
			AmountKobo:  txn.AmountKobo,
			OrderID:     txn.OrderID,
			Reference:   txn.Reference,
			Description: txn.Description,
			Metadata:    txn.Metadata,
			CreatedAt:   txn.CreatedAt,
		})
	}
	return page
}
