package wallets

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tundeadepitan/swiftchow-backend/pkg/db"
	"github.com/tundeadepitan/swiftchow-backend/pkg/db/models"
	"github.com/tundeadepitan/swiftchow-backend/pkg/enums"
	pkgerrors "github.com/tundeadepitan/swiftchow-backend/pkg/errors"
	"github.com/tundeadepitan/swiftchow-backend/pkg/logger"
	"github.com/tundeadepitan/swiftchow-backend/pkg/pagination"
)

// Service is the wallet ledger. Every balance movement runs in a database
// transaction that writes the ledger row before touching the balance: the
// row's unique reference claims the step, so a re-run of the same reference
// is detected as a duplicate and skipped without moving money twice.
type Service struct {
	client *db.Client
	repo   Repository
	logg   *logger.Logger
}

// ServiceParams groups dependencies for the wallet ledger service.
type ServiceParams struct {
	Client *db.Client
	Repo   Repository
	Logger *logger.Logger
}

// NewService builds the wallet ledger service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "wallets service requires a db client")
	}
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "wallets service requires a repository")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "wallets service requires a logger")
	}
	return &Service{client: params.Client, repo: params.Repo, logg: params.Logger}, nil
}

// CreditInput describes one credit ledger step.
type CreditInput struct {
	UserID      *uuid.UUID
	Role        enums.WalletRole
	AmountKobo  int64
	OrderID     *uuid.UUID
	Source      enums.TransactionSource
	Reference   string
	Description string
	Metadata    json.RawMessage
}

// Credit applies a credit to the (user, role) wallet, creating the wallet on
// first use. Returns false without error when the reference was already
// applied, so resumed settlements skip completed steps.
func (s *Service) Credit(ctx context.Context, input CreditInput) (bool, error) {
	if input.AmountKobo <= 0 {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "credit amount must be positive")
	}
	if input.Reference == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "credit reference is required")
	}
	if !input.Role.IsValid() {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "invalid wallet role")
	}
	if !input.Source.IsValid() {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "invalid transaction source")
	}

	applied := false
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		wallet, err := repo.EnsureWallet(ctx, input.UserID, input.Role)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "ensuring wallet")
		}

		txn := &models.WalletTransaction{
			ID:          uuid.New(),
			WalletID:    wallet.ID,
			UserID:      input.UserID,
			Role:        input.Role,
			Type:        enums.TransactionTypeCredit,
			Source:      input.Source,
			Status:      enums.TransactionStatusCompleted,
			AmountKobo:  input.AmountKobo,
			OrderID:     input.OrderID,
			Reference:   input.Reference,
			Description: input.Description,
			Metadata:    input.Metadata,
		}
		if err := repo.CreateTransaction(ctx, txn); err != nil {
			if db.IsUniqueViolation(err, "") {
				return errReferenceClaimed
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "writing credit ledger row")
		}

		if err := repo.ApplyCredit(ctx, wallet.ID, input.AmountKobo); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "applying credit")
		}

		applied = true
		return nil
	})
	if err == errReferenceClaimed {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{"reference": input.Reference}), "ledger step already applied, skipping")
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return applied, nil
}

func (s *Service) withWallet(ctx context.Context, walletID uuid.UUID) context.Context {
	return s.logg.WithWalletID(ctx, walletID.String())
}

// DebitInput describes one debit ledger step.
type DebitInput struct {
	WalletID    uuid.UUID
	AmountKobo  int64
	Source      enums.TransactionSource
	Reference   string
	Description string
}

// Debit moves the amount from available balance to pending balance. The
// ledger row is written first; if the balance guard then fails the enclosing
// transaction rolls back, removing the row again.
func (s *Service) Debit(ctx context.Context, input DebitInput) (bool, error) {
	if input.AmountKobo <= 0 {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "debit amount must be positive")
	}
	if input.Reference == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "debit reference is required")
	}

	applied := false
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		wallet, err := repo.FindWalletByID(ctx, input.WalletID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "wallet not found")
		}

		txn := &models.WalletTransaction{
			ID:          uuid.New(),
			WalletID:    wallet.ID,
			UserID:      wallet.UserID,
			Role:        wallet.Role,
			Type:        enums.TransactionTypeDebit,
			Source:      input.Source,
			Status:      enums.TransactionStatusCompleted,
			AmountKobo:  input.AmountKobo,
			Reference:   input.Reference,
			Description: input.Description,
		}
		if err := repo.CreateTransaction(ctx, txn); err != nil {
			if db.IsUniqueViolation(err, "") {
				return errReferenceClaimed
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "writing debit ledger row")
		}

		ok, err := repo.DebitIfSufficient(ctx, wallet.ID, input.AmountKobo)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "applying debit")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeInsufficientFunds, "wallet balance does not cover this amount")
		}

		applied = true
		return nil
	})
	if err == errReferenceClaimed {
		s.logg.Info(s.logg.WithFields(s.withWallet(ctx, input.WalletID), map[string]any{"reference": input.Reference}), "debit already applied, skipping")
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return applied, nil
}

// RefundInput describes the compensating credit for a failed debit.
type RefundInput struct {
	WalletID          uuid.UUID
	AmountKobo        int64
	Reference         string
	OriginalReference string
	Description       string
}

// Refund returns a pending debit to the available balance and marks the
// original debit row reversed. Idempotent per reference.
func (s *Service) Refund(ctx context.Context, input RefundInput) (bool, error) {
	if input.AmountKobo <= 0 {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "refund amount must be positive")
	}
	if input.Reference == "" || input.OriginalReference == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "refund references are required")
	}

	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		wallet, err := repo.FindWalletByID(ctx, input.WalletID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "wallet not found")
		}

		txn := &models.WalletTransaction{
			ID:          uuid.New(),
			WalletID:    wallet.ID,
			UserID:      wallet.UserID,
			Role:        wallet.Role,
			Type:        enums.TransactionTypeCredit,
			Source:      enums.TransactionSourceRefund,
			Status:      enums.TransactionStatusCompleted,
			AmountKobo:  input.AmountKobo,
			Reference:   input.Reference,
			Description: input.Description,
		}
		if err := repo.CreateTransaction(ctx, txn); err != nil {
			if db.IsUniqueViolation(err, "") {
				return errReferenceClaimed
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "writing refund ledger row")
		}

		if err := repo.ReleasePending(ctx, wallet.ID, input.AmountKobo); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "releasing pending balance")
		}
		if err := repo.MarkTransactionReversed(ctx, input.OriginalReference); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marking original debit reversed")
		}
		return nil
	})
	if err == errReferenceClaimed {
		s.logg.Info(s.logg.WithFields(s.withWallet(ctx, input.WalletID), map[string]any{"reference": input.Reference}), "refund already applied, skipping")
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Settle clears the amount out of pending balance into total withdrawn once
// a payout completes. The withdrawal's debit row already recorded the move.
func (s *Service) Settle(ctx context.Context, walletID uuid.UUID, amountKobo int64) error {
	if amountKobo <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "settle amount must be positive")
	}
	return s.client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).SettlePending(ctx, walletID, amountKobo); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "settling pending balance")
		}
		return nil
	})
}

// GetWallet fetches the wallet for a (user, role) pair.
func (s *Service) GetWallet(ctx context.Context, userID *uuid.UUID, role enums.WalletRole) (*models.Wallet, error) {
	wallet, err := s.repo.FindWallet(ctx, userID, role)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "wallet not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading wallet")
	}
	return wallet, nil
}

// PlatformWallet fetches or creates the synthetic platform wallet.
func (s *Service) PlatformWallet(ctx context.Context) (*models.Wallet, error) {
	wallet, err := s.repo.EnsureWallet(ctx, nil, enums.WalletRolePlatform)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "ensuring platform wallet")
	}
	return wallet, nil
}

// ListTransactions pages through a wallet's ledger, newest first.
func (s *Service) ListTransactions(ctx context.Context, walletID uuid.UUID, params pagination.Params) ([]models.WalletTransaction, string, error) {
	txns, next, err := s.repo.ListTransactions(ctx, walletID, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing wallet transactions")
	}
	return txns, next, nil
}

// errReferenceClaimed signals that the ledger row for a reference already
// exists; it never escapes the service.
var errReferenceClaimed = pkgerrors.New(pkgerrors.CodeConflict, "ledger reference already applied")
