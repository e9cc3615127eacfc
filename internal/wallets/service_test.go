package wallets

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tundeadepitan/swiftchow-backend/pkg/db"
	"github.com/tundeadepitan/swiftchow-backend/pkg/db/models"
	"github.com/tundeadepitan/swiftchow-backend/pkg/enums"
	pkgerrors "github.com/tundeadepitan/swiftchow-backend/pkg/errors"
	"github.com/tundeadepitan/swiftchow-backend/pkg/logger"
)

func setupLedgerService(t *testing.T) (*Service, Repository) {
	t.Helper()

	conn := setupWalletsTestDB(t)
	repo := NewRepository(conn)
	logg := logger.NewNop()

	svc, err := NewService(ServiceParams{
		Client: db.NewFromConn(conn),
		Repo:   repo,
		Logger: logg,
	})
	require.NoError(t, err)
	return svc, repo
}

func TestCreditIsExactlyOncePerReference(t *testing.T) {
	svc, _ := setupLedgerService(t)
	ctx := context.Background()

	userID := uuid.New()
	orderID := uuid.New()
	input := CreditInput{
		UserID:      &userID,
		Role:        enums.WalletRoleChef,
		AmountKobo:  8_500_00,
		OrderID:     &orderID,
		Source:      enums.TransactionSourceOrderPayment,
		Reference:   "dist-" + orderID.String() + "-" + userID.String() + "-chef",
		Description: "order payout",
	}

	applied, err := svc.Credit(ctx, input)
	require.NoError(t, err)
	assert.True(t, applied)

	// Same reference again: skipped, balance unchanged.
	applied, err = svc.Credit(ctx, input)
	require.NoError(t, err)
	assert.False(t, applied)

	wallet, err := svc.GetWallet(ctx, &userID, enums.WalletRoleChef)
	require.NoError(t, err)
	assert.Equal(t, int64(8_500_00), wallet.BalanceKobo)
	assert.Equal(t, int64(8_500_00), wallet.TotalEarnedKobo)
}

func TestCreditValidation(t *testing.T) {
	svc, _ := setupLedgerService(t)
	ctx := context.Background()
	userID := uuid.New()

	_, err := svc.Credit(ctx, CreditInput{UserID: &userID, Role: enums.WalletRoleChef, AmountKobo: 0, Source: enums.TransactionSourceOrderPayment, Reference: "r"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Credit(ctx, CreditInput{UserID: &userID, Role: enums.WalletRoleChef, AmountKobo: 100, Source: enums.TransactionSourceOrderPayment})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Credit(ctx, CreditInput{UserID: &userID, Role: enums.WalletRole("ghost"), AmountKobo: 100, Source: enums.TransactionSourceOrderPayment, Reference: "r"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestDebitInsufficientFundsRollsBackLedgerRow(t *testing.T) {
	svc, repo := setupLedgerService(t)
	ctx := context.Background()

	userID := uuid.New()
	applied, err := svc.Credit(ctx, CreditInput{
		UserID:     &userID,
		Role:       enums.WalletRoleVendor,
		AmountKobo: 1_000_00,
		Source:     enums.TransactionSourceOrderPayment,
		Reference:  "fund",
	})
	require.NoError(t, err)
	require.True(t, applied)

	wallet, err := svc.GetWallet(ctx, &userID, enums.WalletRoleVendor)
	require.NoError(t, err)

	_, err = svc.Debit(ctx, DebitInput{
		WalletID:   wallet.ID,
		AmountKobo: 2_000_00,
		Source:     enums.TransactionSourceWithdrawal,
		Reference:  "wd-too-big",
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientFunds))

	// The rolled-back debit must not have claimed its reference.
	_, err = repo.FindTransactionByReference(ctx, "wd-too-big")
	require.Error(t, err)

	wallet, err = svc.GetWallet(ctx, &userID, enums.WalletRoleVendor)
	require.NoError(t, err)
	assert.Equal(t, int64(1_000_00), wallet.BalanceKobo)
	assert.Equal(t, int64(0), wallet.PendingBalanceKobo)
}

func TestDebitThenRefundRestoresBalance(t *testing.T) {
	svc, repo := setupLedgerService(t)
	ctx := context.Background()

	userID := uuid.New()
	_, err := svc.Credit(ctx, CreditInput{
		UserID:     &userID,
		Role:       enums.WalletRoleChef,
		AmountKobo: 5_000_00,
		Source:     enums.TransactionSourceOrderPayment,
		Reference:  "fund",
	})
	require.NoError(t, err)

	wallet, err := svc.GetWallet(ctx, &userID, enums.WalletRoleChef)
	require.NoError(t, err)

	applied, err := svc.Debit(ctx, DebitInput{
		WalletID:   wallet.ID,
		AmountKobo: 5_000_00,
		Source:     enums.TransactionSourceWithdrawal,
		Reference:  "wd-1",
	})
	require.NoError(t, err)
	require.True(t, applied)

	// Replay of the same debit reference is a no-op.
	applied, err = svc.Debit(ctx, DebitInput{
		WalletID:   wallet.ID,
		AmountKobo: 5_000_00,
		Source:     enums.TransactionSourceWithdrawal,
		Reference:  "wd-1",
	})
	require.NoError(t, err)
	assert.False(t, applied)

	refunded, err := svc.Refund(ctx, RefundInput{
		WalletID:          wallet.ID,
		AmountKobo:        5_000_00,
		Reference:         "wd-1-refund",
		OriginalReference: "wd-1",
		Description:       "transfer failed",
	})
	require.NoError(t, err)
	assert.True(t, refunded)

	wallet, err = svc.GetWallet(ctx, &userID, enums.WalletRoleChef)
	require.NoError(t, err)
	assert.Equal(t, int64(5_000_00), wallet.BalanceKobo)
	assert.Equal(t, int64(0), wallet.PendingBalanceKobo)

	original, err := repo.FindTransactionByReference(ctx, "wd-1")
	require.NoError(t, err)
	assert.Equal(t, enums.TransactionStatusReversed, original.Status)

	refund, err := repo.FindTransactionByReference(ctx, "wd-1-refund")
	require.NoError(t, err)
	assert.Equal(t, enums.TransactionTypeCredit, refund.Type)
	assert.Equal(t, enums.TransactionSourceRefund, refund.Source)
}

func TestSettleClearsPending(t *testing.T) {
	svc, _ := setupLedgerService(t)
	ctx := context.Background()

	userID := uuid.New()
	_, err := svc.Credit(ctx, CreditInput{
		UserID:     &userID,
		Role:       enums.WalletRoleRider,
		AmountKobo: 2_000_00,
		Source:     enums.TransactionSourceDeliveryFee,
		Reference:  "fund",
	})
	require.NoError(t, err)

	wallet, err := svc.GetWallet(ctx, &userID, enums.WalletRoleRider)
	require.NoError(t, err)

	_, err = svc.Debit(ctx, DebitInput{
		WalletID:   wallet.ID,
		AmountKobo: 2_000_00,
		Source:     enums.TransactionSourceWithdrawal,
		Reference:  "wd-settle",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Settle(ctx, wallet.ID, 2_000_00))

	wallet, err = svc.GetWallet(ctx, &userID, enums.WalletRoleRider)
	require.NoError(t, err)
	assert.Equal(t, int64(0), wallet.PendingBalanceKobo)
	assert.Equal(t, int64(2_000_00), wallet.TotalWithdrawnKobo)
}

func TestPlatformWalletIsSingleton(t *testing.T) {
	conn := setupWalletsTestDB(t)
	svc, err := NewService(ServiceParams{
		Client: db.NewFromConn(conn),
		Repo:   NewRepository(conn),
		Logger: logger.NewNop(),
	})
	require.NoError(t, err)
	ctx := context.Background()

	first, err := svc.PlatformWallet(ctx)
	require.NoError(t, err)
	assert.Nil(t, first.UserID)
	assert.Equal(t, enums.WalletRolePlatform, first.Role)

	second, err := svc.PlatformWallet(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	// Crediting the platform wallet must reuse the same row, and the
	// balance must land where every reader looks.
	_, err = svc.Credit(ctx, CreditInput{
		Role:       enums.WalletRolePlatform,
		AmountKobo: 1_000_00,
		Source:     enums.TransactionSourceCommission,
		Reference:  "platform-credit",
	})
	require.NoError(t, err)
	_, err = svc.Credit(ctx, CreditInput{
		Role:       enums.WalletRolePlatform,
		AmountKobo: 500_00,
		Source:     enums.TransactionSourceCommission,
		Reference:  "platform-credit-2",
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, conn.Model(&models.Wallet{}).Where("role = ?", enums.WalletRolePlatform).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	got, err := svc.PlatformWallet(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, int64(1_500_00), got.BalanceKobo)
}
