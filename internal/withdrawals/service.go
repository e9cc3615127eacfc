package withdrawals

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tundeadepitan/swiftchow-backend/internal/wallets"
	"github.com/tundeadepitan/swiftchow-backend/pkg/config"
	"github.com/tundeadepitan/swiftchow-backend/pkg/db/models"
	"github.com/tundeadepitan/swiftchow-backend/pkg/enums"
	pkgerrors "github.com/tundeadepitan/swiftchow-backend/pkg/errors"
	"github.com/tundeadepitan/swiftchow-backend/pkg/logger"
	"github.com/tundeadepitan/swiftchow-backend/pkg/metrics"
	"github.com/tundeadepitan/swiftchow-backend/pkg/paystack"
	"github.com/tundeadepitan/swiftchow-backend/pkg/pagination"
)

// Gateway is the slice of the Paystack client the payout saga needs.
type Gateway interface {
	CreateTransferRecipient(ctx context.Context, params paystack.RecipientParams) (string, error)
	InitiateTransfer(ctx context.Context, params paystack.TransferParams) (string, error)
}

// Service runs the withdrawal lifecycle: request holds the money, approval
// gates it, processing sends it through the gateway, and completion settles
// it. A gateway failure rejects the request and puts the money back.
type Service struct {
	repo    Repository
	ledger  *wallets.Service
	gateway Gateway
	cfg     config.WithdrawalConfig
	metrics *metrics.SettlementMetrics
	logg    *logger.Logger
}

// ServiceParams groups dependencies for the withdrawals service.
type ServiceParams struct {
	Repo    Repository
	Ledger  *wallets.Service
	Gateway Gateway
	Config  config.WithdrawalConfig
	Metrics *metrics.SettlementMetrics
	Logger  *logger.Logger
}

// NewService builds the withdrawals service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "withdrawals service requires a repository")
	}
	if params.Ledger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "withdrawals service requires the wallet ledger")
	}
	if params.Gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "withdrawals service requires the payout gateway")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "withdrawals service requires a logger")
	}
	return &Service{
		repo:    params.Repo,
		ledger:  params.Ledger,
		gateway: params.Gateway,
		cfg:     params.Config,
		metrics: params.Metrics,
		logg:    params.Logger,
	}, nil
}

// RequestInput captures a new withdrawal request.
type RequestInput struct {
	UserID        uuid.UUID        `json:"user_id"`
	Role          enums.WalletRole `json:"role"`
	AmountKobo    int64            `json:"amount_kobo"`
	BankName      string           `json:"bank_name"`
	BankCode      string           `json:"bank_code"`
	AccountNumber string           `json:"account_number"`
	AccountName   string           `json:"account_name"`
}

// Request validates and records a pending withdrawal. No money moves yet:
// the balance is only checked, and the hold happens when processing starts.
// The flat fee comes out of the amount, so the user receives amount minus
// fee.
func (s *Service) Request(ctx context.Context, input RequestInput) (*models.Withdrawal, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if !input.Role.IsValid() || input.Role == enums.WalletRolePlatform {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid wallet role")
	}
	if input.AmountKobo < s.cfg.MinimumAmountKobo {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount is below the minimum withdrawal").
			WithDetails(map[string]any{"minimum_kobo": s.cfg.MinimumAmountKobo})
	}
	if input.AmountKobo <= s.cfg.FlatFeeKobo {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount does not cover the withdrawal fee")
	}
	if input.BankName == "" || input.BankCode == "" || input.AccountNumber == "" || input.AccountName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bank details are required")
	}

	wallet, err := s.ledger.GetWallet(ctx, &input.UserID, input.Role)
	if err != nil {
		return nil, err
	}

	if wallet.BalanceKobo < input.AmountKobo {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientFunds, "wallet balance does not cover this amount")
	}

	withdrawal := &models.Withdrawal{
		ID:       uuid.New(),
		WalletID: wallet.ID,
		UserID:   input.UserID,
		Role:     input.Role,

		AmountKobo:    input.AmountKobo,
		FeeKobo:       s.cfg.FlatFeeKobo,
		NetAmountKobo: input.AmountKobo - s.cfg.FlatFeeKobo,
		Status:        enums.WithdrawalStatusPending,

		BankName:      input.BankName,
		BankCode:      input.BankCode,
		AccountNumber: input.AccountNumber,
		AccountName:   input.AccountName,
	}
	if _, err := s.repo.Create(ctx, withdrawal); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating withdrawal")
	}

	s.countTransition(enums.WithdrawalStatusPending)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"withdrawal_id": withdrawal.ID.String(),
		"amount_kobo":   withdrawal.AmountKobo,
	}), "withdrawal requested")
	return withdrawal, nil
}

// Approve moves a pending withdrawal to approved.
func (s *Service) Approve(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error) {
	ok, err := s.repo.Transition(ctx, id, enums.WithdrawalStatusPending, enums.WithdrawalStatusApproved, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "approving withdrawal")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "withdrawal is not pending")
	}
	s.countTransition(enums.WithdrawalStatusApproved)
	return s.Get(ctx, id)
}

// Reject declines a pending withdrawal. Nothing was held yet, so the wallet
// is untouched.
func (s *Service) Reject(ctx context.Context, id uuid.UUID, reason string) (*models.Withdrawal, error) {
	ok, err := s.repo.Transition(ctx, id, enums.WithdrawalStatusPending, enums.WithdrawalStatusRejected, map[string]any{
		"failure_reason": reason,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rejecting withdrawal")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "withdrawal is not pending")
	}

	s.countTransition(enums.WithdrawalStatusRejected)
	return s.Get(ctx, id)
}

// Process drives an approved withdrawal through the gateway. Entering
// processing is what holds the amount out of the wallet; a rejected
// transfer compensates by marking the withdrawal rejected and refunding
// the hold.
func (s *Service) Process(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error) {
	withdrawal, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	ok, err := s.repo.Transition(ctx, id, enums.WithdrawalStatusApproved, enums.WithdrawalStatusProcessing, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "moving withdrawal to processing")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "withdrawal is not approved")
	}
	s.countTransition(enums.WithdrawalStatusProcessing)

	// The deterministic reference makes a reprocessed withdrawal skip the
	// hold instead of debiting twice.
	if _, err := s.ledger.Debit(ctx, wallets.DebitInput{
		WalletID:    withdrawal.WalletID,
		AmountKobo:  withdrawal.AmountKobo,
		Source:      enums.TransactionSourceWithdrawal,
		Reference:   debitReference(id),
		Description: "withdrawal to " + withdrawal.BankName,
	}); err != nil {
		// Nothing was held; reject without a compensating refund.
		if _, terr := s.repo.Transition(ctx, id, enums.WithdrawalStatusProcessing, enums.WithdrawalStatusRejected, map[string]any{
			"failure_reason": "holding withdrawal amount failed",
		}); terr != nil {
			s.logg.Error(ctx, "rejecting withdrawal after failed hold", terr)
		}
		s.countTransition(enums.WithdrawalStatusRejected)
		return nil, err
	}

	recipientCode := ""
	if withdrawal.RecipientCode != nil {
		recipientCode = *withdrawal.RecipientCode
	}
	if recipientCode == "" {
		recipientCode, err = s.gateway.CreateTransferRecipient(ctx, paystack.RecipientParams{
			Name:          withdrawal.AccountName,
			AccountNumber: withdrawal.AccountNumber,
			BankCode:      withdrawal.BankCode,
			Currency:      string(enums.CurrencyNGN),
		})
		if err != nil {
			return s.failTransfer(ctx, withdrawal, "creating transfer recipient failed: "+err.Error())
		}
		if err := s.repo.SetRecipientCode(ctx, id, recipientCode); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "storing recipient code")
		}
	}

	transferRef := transferReference(id, time.Now().UTC())
	transferCode, err := s.gateway.InitiateTransfer(ctx, paystack.TransferParams{
		AmountKobo:    withdrawal.NetAmountKobo,
		RecipientCode: recipientCode,
		Reason:        "wallet withdrawal",
		Reference:     transferRef,
	})
	if err != nil {
		return s.failTransfer(ctx, withdrawal, "transfer failed: "+err.Error())
	}

	now := time.Now().UTC()
	ok, err = s.repo.Transition(ctx, id, enums.WithdrawalStatusProcessing, enums.WithdrawalStatusProcessing, map[string]any{
		"transfer_code":         transferCode,
		"transfer_reference":    transferRef,
		"transfer_initiated_at": now,
	})
	if err != nil || !ok {
		// The money is with the gateway; keep processing and let completion
		// reconcile with the transfer webhook.
		s.logg.Error(ctx, "recording transfer handle failed", err)
	}

	return s.Get(ctx, id)
}

// Complete finishes a processing withdrawal after the transfer succeeds:
// the held amount is settled out of the wallet and the fee is credited to
// the platform.
func (s *Service) Complete(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error) {
	withdrawal, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	ok, err := s.repo.Transition(ctx, id, enums.WithdrawalStatusProcessing, enums.WithdrawalStatusCompleted, map[string]any{
		"completed_at": time.Now().UTC(),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "completing withdrawal")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "withdrawal is not processing")
	}

	if err := s.ledger.Settle(ctx, withdrawal.WalletID, withdrawal.AmountKobo); err != nil {
		return nil, err
	}
	if withdrawal.FeeKobo > 0 {
		if _, err := s.ledger.Credit(ctx, wallets.CreditInput{
			UserID:      nil,
			Role:        enums.WalletRolePlatform,
			AmountKobo:  withdrawal.FeeKobo,
			Source:      enums.TransactionSourceWithdrawal,
			Reference:   feeReference(id),
			Description: "withdrawal fee",
		}); err != nil {
			return nil, err
		}
	}

	s.countTransition(enums.WithdrawalStatusCompleted)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"withdrawal_id": id.String(),
		"net_kobo":      withdrawal.NetAmountKobo,
	}), "withdrawal completed")
	return s.Get(ctx, id)
}

// Fail rejects a processing withdrawal after the gateway reported the
// transfer failed or reversed, refunding the held amount.
func (s *Service) Fail(ctx context.Context, id uuid.UUID, reason string) (*models.Withdrawal, error) {
	withdrawal, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.failFrom(ctx, withdrawal, enums.WithdrawalStatusProcessing, reason)
}

// FindByTransferReference resolves a withdrawal from the reference assigned
// to its gateway transfer, for transfer webhook deliveries.
func (s *Service) FindByTransferReference(ctx context.Context, reference string) (*models.Withdrawal, error) {
	withdrawal, err := s.repo.FindByTransferReference(ctx, reference)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "withdrawal not found for transfer reference")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading withdrawal by transfer reference")
	}
	return withdrawal, nil
}

// Get loads one withdrawal.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error) {
	withdrawal, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "withdrawal not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading withdrawal")
	}
	return withdrawal, nil
}

// ListByUser pages through a user's withdrawals, newest first.
func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Withdrawal, string, error) {
	withdrawals, next, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing withdrawals")
	}
	return withdrawals, next, nil
}

func (s *Service) failTransfer(ctx context.Context, withdrawal *models.Withdrawal, reason string) (*models.Withdrawal, error) {
	return s.failFrom(ctx, withdrawal, enums.WithdrawalStatusProcessing, reason)
}

func (s *Service) failFrom(ctx context.Context, withdrawal *models.Withdrawal, from enums.WithdrawalStatus, reason string) (*models.Withdrawal, error) {
	ok, err := s.repo.Transition(ctx, withdrawal.ID, from, enums.WithdrawalStatusRejected, map[string]any{
		"failure_reason": reason,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rejecting failed withdrawal")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "withdrawal is not in a failable state")
	}

	s.refund(ctx, withdrawal.WalletID, withdrawal.AmountKobo, withdrawal.ID, reason)
	s.countTransition(enums.WithdrawalStatusRejected)
	s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
		"withdrawal_id": withdrawal.ID.String(),
		"reason":        reason,
	}), "withdrawal rejected, balance restored")
	return s.Get(ctx, withdrawal.ID)
}

func (s *Service) refund(ctx context.Context, walletID uuid.UUID, amountKobo int64, withdrawalID uuid.UUID, reason string) {
	if _, err := s.ledger.Refund(ctx, wallets.RefundInput{
		WalletID:          walletID,
		AmountKobo:        amountKobo,
		Reference:         refundReference(withdrawalID),
		OriginalReference: debitReference(withdrawalID),
		Description:       reason,
	}); err != nil {
		// The debit row still holds the money in pending; surfacing this in
		// logs is all we can do without losing the rejection itself.
		s.logg.Error(ctx, "refunding withdrawal hold failed", err)
	}
}

func (s *Service) countTransition(status enums.WithdrawalStatus) {
	if s.metrics != nil {
		s.metrics.IncWithdrawalTransition(string(status))
	}
}

func debitReference(withdrawalID uuid.UUID) string {
	return fmt.Sprintf("wd-%s", withdrawalID)
}

func refundReference(withdrawalID uuid.UUID) string {
	return fmt.Sprintf("wd-%s-refund", withdrawalID)
}

func feeReference(withdrawalID uuid.UUID) string {
	return fmt.Sprintf("wd-%s-fee", withdrawalID)
}

func transferReference(withdrawalID uuid.UUID, at time.Time) string {
	return fmt.Sprintf("wd-%s-tx-%d", withdrawalID, at.Unix())
}
