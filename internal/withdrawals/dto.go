package withdrawals

import (
	"time"

	"github.com/google/uuid"

	"github.com/tundeadepitan/swiftchow-backend/pkg/db/models"
	"github.com/tundeadepitan/swiftchow-backend/pkg/enums"
)

// WithdrawalView is the API shape of a withdrawal. Gateway handles stay
// internal; only the masked account and lifecycle fields go out.
type WithdrawalView struct {
	ID            uuid.UUID              `json:"id"`
	UserID        uuid.UUID              `json:"user_id"`
	Role          enums.WalletRole       `json:"role"`
	AmountKobo    int64                  `json:"amount_kobo"`
	FeeKobo       int64                  `json:"fee_kobo"`
	NetAmountKobo int64                  `json:"net_amount_kobo"`
	Status        enums.WithdrawalStatus `json:"status"`
	BankName      string                 `json:"bank_name"`
	AccountNumber string                 `json:"account_number"`
	AccountName   string                 `json:"account_name"`
	CompletedAt   *time.Time             `json:"completed_at,omitempty"`
	FailureReason *string                `json:"failure_reason,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

// WithdrawalPage is one cursor page of withdrawals, newest first.
type WithdrawalPage struct {
	Withdrawals []WithdrawalView `json:"withdrawals"`
	NextCursor  string           `json:"next_cursor,omitempty"`
}

func NewWithdrawalView(withdrawal *models.Withdrawal) WithdrawalView {
	return WithdrawalView{
		ID:            withdrawal.ID,
		UserID:        withdrawal.UserID,
		Role:          withdrawal.Role,
		AmountKobo:    withdrawal.AmountKobo,
		FeeKobo:       withdrawal.FeeKobo,
		NetAmountKobo: withdrawal.NetAmountKobo,
		Status:        withdrawal.Status,
		BankName:      withdrawal.BankName,
		AccountNumber: maskAccountNumber(withdrawal.AccountNumber),
		AccountName:   withdrawal.AccountName,
		CompletedAt:   withdrawal.CompletedAt,
		FailureReason: withdrawal.FailureReason,
		CreatedAt:     withdrawal.CreatedAt,
		UpdatedAt:     withdrawal.UpdatedAt,
	}
}

func NewWithdrawalPage(withdrawals []models.Withdrawal, nextCursor string) WithdrawalPage {
	page := WithdrawalPage{
		Withdrawals: make([]WithdrawalView, 0, len(withdrawals)),
		NextCursor:  nextCursor,
	}
	for i := range withdrawals {
		page.Withdrawals = append(page.Withdrawals, NewWithdrawalView(&withdrawals[i]))
	}
	return page
}

func maskAccountNumber(accountNumber string) string {
	if len(accountNumber) <= 4 {
		return accountNumber
	}
	masked := make([]byte, len(accountNumber))
	for i := range masked {
		if i < len(accountNumber)-4 {
			masked[i] = '*'
		} else {
			masked[i] = accountNumber[i]
		}
	}
	return string(masked)
}
