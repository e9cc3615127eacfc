package distribution

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tundeadepitan/swiftchow-backend/internal/commission"
	"github.com/tundeadepitan/swiftchow-backend/internal/orders"
	"github.com/tundeadepitan/swiftchow-backend/internal/wallets"
	"github.com/tundeadepitan/swiftchow-backend/pkg/config"
	"github.com/tundeadepitan/swiftchow-backend/pkg/db"
	"github.com/tundeadepitan/swiftchow-backend/pkg/db/models"
	"github.com/tundeadepitan/swiftchow-backend/pkg/enums"
	pkgerrors "github.com/tundeadepitan/swiftchow-backend/pkg/errors"
	"github.com/tundeadepitan/swiftchow-backend/pkg/logger"
)

type engineFixture struct {
	engine      *Engine
	ordersRepo  orders.Repository
	walletsRepo wallets.Repository
	ledger      *wallets.Service
}

func setupEngine(t *testing.T) *engineFixture {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	for _, ddl := range []string{
		`CREATE TABLE orders (
  id TEXT PRIMARY KEY,
  order_number INTEGER NOT NULL,
  customer_id TEXT NOT NULL,
  payment_provider TEXT NOT NULL DEFAULT 'paystack',
  payment_status TEXT NOT NULL DEFAULT 'pending',
  payment_reference TEXT NOT NULL UNIQUE,
  paid_at DATETIME,
  distribution_status TEXT NOT NULL DEFAULT 'pending',
  platform_amount_kobo INTEGER NOT NULL DEFAULT 0,
  rider_amount_kobo INTEGER NOT NULL DEFAULT 0,
  distributed_at DATETIME,
  delivery_fee_kobo INTEGER NOT NULL DEFAULT 0,
  rider_user_id TEXT,
  currency TEXT NOT NULL DEFAULT 'NGN',
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE order_vendor_groups (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  vendor_user_id TEXT NOT NULL,
  vendor_role TEXT NOT NULL,
  subtotal_kobo INTEGER NOT NULL,
  commission_rate TEXT,
  commission_amount_kobo INTEGER NOT NULL DEFAULT 0,
  payout_amount_kobo INTEGER NOT NULL DEFAULT 0,
  paid INTEGER NOT NULL DEFAULT 0,
  paid_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE(order_id, vendor_user_id, vendor_role)
);`,
		`CREATE TABLE child_orders (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  vendor_user_id TEXT NOT NULL,
  vendor_role TEXT NOT NULL,
  subtotal_kobo INTEGER NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  commission_amount_kobo INTEGER NOT NULL DEFAULT 0,
  vendor_amount_kobo INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE wallets (
  id TEXT PRIMARY KEY,
  user_id TEXT,
  role TEXT NOT NULL,
  balance_kobo INTEGER NOT NULL DEFAULT 0,
  pending_balance_kobo INTEGER NOT NULL DEFAULT 0,
  total_earned_kobo INTEGER NOT NULL DEFAULT 0,
  total_withdrawn_kobo INTEGER NOT NULL DEFAULT 0,
  currency TEXT NOT NULL DEFAULT 'NGN',
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE(user_id, role)
);`,
		`CREATE TABLE wallet_transactions (
  id TEXT PRIMARY KEY,
  wallet_id TEXT NOT NULL,
  user_id TEXT,
  role TEXT NOT NULL,
  type TEXT NOT NULL,
  source TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'completed',
  amount_kobo INTEGER NOT NULL,
  order_id TEXT,
  reference TEXT NOT NULL UNIQUE,
  description TEXT,
  metadata TEXT,
  created_at DATETIME
);`,
	} {
		require.NoError(t, conn.Exec(ddl).Error)
	}

	client := db.NewFromConn(conn)
	logg := logger.NewNop()
	walletsRepo := wallets.NewRepository(conn)

	ledger, err := wallets.NewService(wallets.ServiceParams{Client: client, Repo: walletsRepo, Logger: logg})
	require.NoError(t, err)

	table, err := commission.NewTable(config.CommissionConfig{
		Chef: "0.15", Pharmacy: "0.12", Vendor: "0.10", TopVendor: "0.08", Default: "0.10",
	})
	require.NoError(t, err)

	ordersRepo := orders.NewRepository(conn)
	engine, err := NewEngine(EngineParams{
		OrdersRepo: ordersRepo,
		Ledger:     ledger,
		Table:      table,
		Logger:     logg,
	})
	require.NoError(t, err)

	return &engineFixture{
		engine:      engine,
		ordersRepo:  ordersRepo,
		walletsRepo: walletsRepo,
		ledger:      ledger,
	}
}

func (f *engineFixture) seedPaidOrder(t *testing.T, riderID *uuid.UUID, deliveryFeeKobo int64, groups ...models.OrderVendorGroup) *models.Order {
	t.Helper()

	order := &models.Order{
		ID:               uuid.New(),
		OrderNumber:      7001,
		CustomerID:       uuid.New(),
		PaymentStatus:    enums.PaymentStatusPending,
		PaymentReference: "ps-" + uuid.NewString(),

		DistributionStatus: enums.DistributionStatusPending,
		DeliveryFeeKobo:    deliveryFeeKobo,
		RiderUserID:        riderID,
		Currency:           enums.CurrencyNGN,
	}
	for i := range groups {
		groups[i].ID = uuid.New()
		groups[i].OrderID = order.ID
		order.ChildOrders = append(order.ChildOrders, models.ChildOrder{
			ID:           uuid.New(),
			OrderID:      order.ID,
			VendorUserID: groups[i].VendorUserID,
			VendorRole:   groups[i].VendorRole,
			SubtotalKobo: groups[i].SubtotalKobo,
			Status:       enums.ChildOrderStatusPending,
		})
	}
	order.VendorGroups = groups

	ctx := context.Background()
	_, err := f.ordersRepo.Create(ctx, order)
	require.NoError(t, err)
	_, err = f.ordersRepo.MarkPaid(ctx, order.ID, time.Now().UTC())
	require.NoError(t, err)
	return order
}

func (f *engineFixture) walletBalance(t *testing.T, userID *uuid.UUID, role enums.WalletRole) int64 {
	t.Helper()
	wallet, err := f.walletsRepo.FindWallet(context.Background(), userID, role)
	require.NoError(t, err)
	return wallet.BalanceKobo
}

func TestDistributeTwoVendorOrder(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()

	chefID := uuid.New()
	pharmacyID := uuid.New()
	riderID := uuid.New()

	order := f.seedPaidOrder(t, &riderID, 500_00,
		models.OrderVendorGroup{VendorUserID: chefID, VendorRole: enums.VendorRoleChef, SubtotalKobo: 10_000_00},
		models.OrderVendorGroup{VendorUserID: pharmacyID, VendorRole: enums.VendorRolePharmacy, SubtotalKobo: 4_000_00},
	)

	require.NoError(t, f.engine.Distribute(ctx, order.ID))

	// chef: 10,000 at 15% -> 8,500 payout; pharmacy: 4,000 at 12% -> 3,520.
	assert.Equal(t, int64(8_500_00), f.walletBalance(t, &chefID, enums.WalletRoleChef))
	assert.Equal(t, int64(3_520_00), f.walletBalance(t, &pharmacyID, enums.WalletRolePharmacy))
	assert.Equal(t, int64(1_980_00), f.walletBalance(t, nil, enums.WalletRolePlatform))
	assert.Equal(t, int64(500_00), f.walletBalance(t, &riderID, enums.WalletRoleRider))

	got, err := f.ordersRepo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.DistributionStatusDistributed, got.DistributionStatus)
	assert.Equal(t, int64(1_980_00), got.PlatformAmountKobo)
	assert.Equal(t, int64(500_00), got.RiderAmountKobo)

	// Conservation: everything paid in came back out.
	var sellerTotal int64
	for _, group := range got.VendorGroups {
		assert.True(t, group.Paid)
		sellerTotal += group.PayoutAmountKobo
	}
	assert.Equal(t, got.TotalSubtotalKobo()+got.DeliveryFeeKobo,
		sellerTotal+got.PlatformAmountKobo+got.RiderAmountKobo)

	for _, child := range got.ChildOrders {
		assert.Equal(t, enums.ChildOrderStatusPaid, child.Status)
		assert.Equal(t, child.SubtotalKobo, child.CommissionAmountKobo+child.VendorAmountKobo)
	}
}

func TestDistributeIsIdempotent(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()

	chefID := uuid.New()
	order := f.seedPaidOrder(t, nil, 0,
		models.OrderVendorGroup{VendorUserID: chefID, VendorRole: enums.VendorRoleChef, SubtotalKobo: 10_000_00},
	)

	require.NoError(t, f.engine.Distribute(ctx, order.ID))
	require.NoError(t, f.engine.Distribute(ctx, order.ID))
	require.NoError(t, f.engine.Distribute(ctx, order.ID))

	assert.Equal(t, int64(8_500_00), f.walletBalance(t, &chefID, enums.WalletRoleChef))
	assert.Equal(t, int64(1_500_00), f.walletBalance(t, nil, enums.WalletRolePlatform))
}

func TestDistributeResumesAfterPartialRun(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()

	chefID := uuid.New()
	pharmacyID := uuid.New()
	order := f.seedPaidOrder(t, nil, 0,
		models.OrderVendorGroup{VendorUserID: chefID, VendorRole: enums.VendorRoleChef, SubtotalKobo: 10_000_00},
		models.OrderVendorGroup{VendorUserID: pharmacyID, VendorRole: enums.VendorRolePharmacy, SubtotalKobo: 4_000_00},
	)

	// Simulate a crashed run that already paid the chef before dying.
	applied, err := f.ledger.Credit(ctx, wallets.CreditInput{
		UserID:     &chefID,
		Role:       enums.WalletRoleChef,
		AmountKobo: 8_500_00,
		OrderID:    &order.ID,
		Source:     enums.TransactionSourceOrderPayment,
		Reference:  VendorReference(order.ID, chefID, enums.VendorRoleChef),
	})
	require.NoError(t, err)
	require.True(t, applied)

	require.NoError(t, f.engine.Distribute(ctx, order.ID))

	// The chef's step was skipped; everyone else was paid once.
	assert.Equal(t, int64(8_500_00), f.walletBalance(t, &chefID, enums.WalletRoleChef))
	assert.Equal(t, int64(3_520_00), f.walletBalance(t, &pharmacyID, enums.WalletRolePharmacy))
	assert.Equal(t, int64(1_980_00), f.walletBalance(t, nil, enums.WalletRolePlatform))

	got, err := f.ordersRepo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.DistributionStatusDistributed, got.DistributionStatus)
}

func TestDistributeRejectsUnpaidOrder(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()

	order := &models.Order{
		ID:               uuid.New(),
		OrderNumber:      7002,
		CustomerID:       uuid.New(),
		PaymentStatus:    enums.PaymentStatusPending,
		PaymentReference: "ps-" + uuid.NewString(),

		DistributionStatus: enums.DistributionStatusPending,
		Currency:           enums.CurrencyNGN,
		VendorGroups: []models.OrderVendorGroup{{
			ID:           uuid.New(),
			VendorUserID: uuid.New(),
			VendorRole:   enums.VendorRoleChef,
			SubtotalKobo: 1_000_00,
		}},
	}
	order.VendorGroups[0].OrderID = order.ID
	_, err := f.ordersRepo.Create(ctx, order)
	require.NoError(t, err)

	err = f.engine.Distribute(ctx, order.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestDistributeRejectsOrderWithoutVendorGroups(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()

	order := f.seedPaidOrder(t, nil, 0)

	err := f.engine.Distribute(ctx, order.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestDistributeSkipsRiderWithoutAssignment(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()

	chefID := uuid.New()
	order := f.seedPaidOrder(t, nil, 500_00,
		models.OrderVendorGroup{VendorUserID: chefID, VendorRole: enums.VendorRoleChef, SubtotalKobo: 1_000_00},
	)

	require.NoError(t, f.engine.Distribute(ctx, order.ID))

	got, err := f.ordersRepo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.RiderAmountKobo, "no rider assigned, fee stays with the order")
}
