package wallets

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tundeadepitan/swiftchow-backend/pkg/db"
	"github.com/tundeadepitan/swiftchow-backend/pkg/db/models"
	"github.com/tundeadepitan/swiftchow-backend/pkg/enums"
	"github.com/tundeadepitan/swiftchow-backend/pkg/pagination"
)

// Repository manages wallet rows and the wallet transaction ledger. Balance
// mutations are expressed as single-statement atomic updates so concurrent
// settlements never read-modify-write each other's money.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	FindWallet(ctx context.Context, userID *uuid.UUID, role enums.WalletRole) (*models.Wallet, error)
	FindWalletByID(ctx context.Context, id uuid.UUID) (*models.Wallet, error)

	// EnsureWallet creates the wallet row on first use and returns it.
	// Concurrent callers race on the (user_id, role) unique index; the
	// loser reads the winner's row.
	EnsureWallet(ctx context.Context, userID *uuid.UUID, role enums.WalletRole) (*models.Wallet, error)

	// ApplyCredit atomically adds the amount to balance and total earned.
	ApplyCredit(ctx context.Context, walletID uuid.UUID, amountKobo int64) error

	// DebitIfSufficient moves amount from balance to pending balance only if
	// the balance covers it. Returns gorm.ErrRecordNotFound semantics via
	// (false, nil) when the guard fails.
	DebitIfSufficient(ctx context.Context, walletID uuid.UUID, amountKobo int64) (bool, error)

	// ReleasePending returns amount from pending balance to balance.
	ReleasePending(ctx context.Context, walletID uuid.UUID, amountKobo int64) error

	// SettlePending clears amount from pending balance into total withdrawn.
	SettlePending(ctx context.Context, walletID uuid.UUID, amountKobo int64) error

	CreateTransaction(ctx context.Context, txn *models.WalletTransaction) error
	FindTransactionByReference(ctx context.Context, reference string) (*models.WalletTransaction, error)
	MarkTransactionReversed(ctx context.Context, reference string) error
	ListTransactions(ctx context.Context, walletID uuid.UUID, params pagination.Params) ([]models.WalletTransaction, string, error)
	ListTransactionsByOrder(ctx context.Context, orderID uuid.UUID) ([]models.WalletTransaction, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a wallets repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindWallet(ctx context.Context, userID *uuid.UUID, role enums.WalletRole) (*models.Wallet, error) {
	query := r.db.WithContext(ctx).Where("role = ?", role)
	if userID == nil {
		query = query.Where("user_id IS NULL")
	} else {
		query = query.Where("user_id = ?", *userID)
	}

	var wallet models.Wallet
	if err := query.First(&wallet).Error; err != nil {
		return nil, err
	}
	return &wallet, nil
}

func (r *repository) FindWalletByID(ctx context.Context, id uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&wallet).Error; err != nil {
		return nil, err
	}
	return &wallet, nil
}

func (r *repository) EnsureWallet(ctx context.Context, userID *uuid.UUID, role enums.WalletRole) (*models.Wallet, error) {
	// Find first: ON CONFLICT cannot dedupe the NULL-user platform wallet
	// on backends where NULLs are distinct in unique indexes.
	wallet, err := r.FindWallet(ctx, userID, role)
	if err == nil {
		return wallet, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	fresh := models.Wallet{
		ID:       uuid.New(),
		UserID:   userID,
		Role:     role,
		Currency: enums.CurrencyNGN,
	}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "role"}},
			DoNothing: true,
		}).
		Create(&fresh).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return r.FindWallet(ctx, userID, role)
		}
		return nil, err
	}

	return r.FindWallet(ctx, userID, role)
}

func (r *repository) ApplyCredit(ctx context.Context, walletID uuid.UUID, amountKobo int64) error {
	return r.db.WithContext(ctx).
		Model(&models.Wallet{}).
		Where("id = ?", walletID).
		Updates(map[string]any{
			"balance_kobo":      gorm.Expr("balance_kobo + ?", amountKobo),
			"total_earned_kobo": gorm.Expr("total_earned_kobo + ?", amountKobo),
			"updated_at":        time.Now().UTC(),
		}).Error
}

func (r *repository) DebitIfSufficient(ctx context.Context, walletID uuid.UUID, amountKobo int64) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Wallet{}).
		Where("id = ? AND balance_kobo >= ?", walletID, amountKobo).
		Updates(map[string]any{
			"balance_kobo":         gorm.Expr("balance_kobo - ?", amountKobo),
			"pending_balance_kobo": gorm.Expr("pending_balance_kobo + ?", amountKobo),
			"updated_at":           time.Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) ReleasePending(ctx context.Context, walletID uuid.UUID, amountKobo int64) error {
	return r.db.WithContext(ctx).
		Model(&models.Wallet{}).
		Where("id = ?", walletID).
		Updates(map[string]any{
			"balance_kobo":         gorm.Expr("balance_kobo + ?", amountKobo),
			"pending_balance_kobo": gorm.Expr("pending_balance_kobo - ?", amountKobo),
			"updated_at":           time.Now().UTC(),
		}).Error
}

func (r *repository) SettlePending(ctx context.Context, walletID uuid.UUID, amountKobo int64) error {
	return r.db.WithContext(ctx).
		Model(&models.Wallet{}).
		Where("id = ?", walletID).
		Updates(map[string]any{
			"pending_balance_kobo": gorm.Expr("pending_balance_kobo - ?", amountKobo),
			"total_withdrawn_kobo": gorm.Expr("total_withdrawn_kobo + ?", amountKobo),
			"updated_at":           time.Now().UTC(),
		}).Error
}

func (r *repository) CreateTransaction(ctx context.Context, txn *models.WalletTransaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *repository) FindTransactionByReference(ctx context.Context, reference string) (*models.WalletTransaction, error) {
	var txn models.WalletTransaction
	if err := r.db.WithContext(ctx).Where("reference = ?", reference).First(&txn).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *repository) MarkTransactionReversed(ctx context.Context, reference string) error {
	return r.db.WithContext(ctx).
		Model(&models.WalletTransaction{}).
		Where("reference = ?", reference).
		Update("status", enums.TransactionStatusReversed).Error
}

func (r *repository) ListTransactions(ctx context.Context, walletID uuid.UUID, params pagination.Params) ([]models.WalletTransaction, string, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).
		Where("wallet_id = ?", walletID).
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var txns []models.WalletTransaction
	if err := query.Find(&txns).Error; err != nil {
		return nil, "", err
	}

	next := ""
	if len(txns) > limit {
		txns = txns[:limit]
		last := txns[len(txns)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return txns, next, nil
}

func (r *repository) ListTransactionsByOrder(ctx context.Context, orderID uuid.UUID) ([]models.WalletTransaction, error) {
	var txns []models.WalletTransaction
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}
