package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tundeadepitan/swiftchow-backend/pkg/db/models"
	"github.com/tundeadepitan/swiftchow-backend/pkg/enums"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	orders := `
CREATE TABLE IF NOT EXISTS orders (
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
);`
	vendorGroups := `
CREATE TABLE IF NOT EXISTS order_vendor_groups (
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
);`
	childOrders := `
CREATE TABLE IF NOT EXISTS child_orders (
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
);`

	require.NoError(t, conn.Exec(orders).Error)
	require.NoError(t, conn.Exec(vendorGroups).Error)
	require.NoError(t, conn.Exec(childOrders).Error)
	return conn
}

func seedOrder(t *testing.T, repo Repository, groups ...models.OrderVendorGroup) *models.Order {
	t.Helper()

	order := &models.Order{
		ID:               uuid.New(),
		OrderNumber:      1001,
		CustomerID:       uuid.New(),
		PaymentStatus:    enums.PaymentStatusPending,
		PaymentReference: "ps-" + uuid.NewString(),

		DistributionStatus: enums.DistributionStatusPending,
		DeliveryFeeKobo:    500_00,
		Currency:           enums.CurrencyNGN,
	}
	for i := range groups {
		groups[i].ID = uuid.New()
		groups[i].OrderID = order.ID
	}
	order.VendorGroups = groups

	created, err := repo.Create(context.Background(), order)
	require.NoError(t, err)
	return created
}

func TestMarkPaidIsCompareAndSet(t *testing.T) {
	conn := setupOrdersTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	order := seedOrder(t, repo, models.OrderVendorGroup{
		VendorUserID: uuid.New(),
		VendorRole:   enums.VendorRoleChef,
		SubtotalKobo: 10_000_00,
	})

	now := time.Now().UTC()
	flipped, err := repo.MarkPaid(ctx, order.ID, now)
	require.NoError(t, err)
	assert.True(t, flipped)

	// Duplicate webhook delivery: the second flip must lose.
	flipped, err = repo.MarkPaid(ctx, order.ID, now.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, flipped)

	got, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPaid, got.PaymentStatus)
	require.NotNil(t, got.PaidAt)
}

func TestMarkDistributedIsCompareAndSet(t *testing.T) {
	conn := setupOrdersTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	order := seedOrder(t, repo, models.OrderVendorGroup{
		VendorUserID: uuid.New(),
		VendorRole:   enums.VendorRoleChef,
		SubtotalKobo: 10_000_00,
	})

	now := time.Now().UTC()
	flipped, err := repo.MarkDistributed(ctx, order.ID, 1_980_00, 500_00, now)
	require.NoError(t, err)
	assert.True(t, flipped)

	flipped, err = repo.MarkDistributed(ctx, order.ID, 9_999_99, 1, now)
	require.NoError(t, err)
	assert.False(t, flipped, "second distribution must not win")

	got, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.DistributionStatusDistributed, got.DistributionStatus)
	assert.Equal(t, int64(1_980_00), got.PlatformAmountKobo)
	assert.Equal(t, int64(500_00), got.RiderAmountKobo)
}

func TestListStuckDistributions(t *testing.T) {
	conn := setupOrdersTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	stale := seedOrder(t, repo, models.OrderVendorGroup{
		VendorUserID: uuid.New(),
		VendorRole:   enums.VendorRoleChef,
		SubtotalKobo: 1_000_00,
	})
	fresh := seedOrder(t, repo, models.OrderVendorGroup{
		VendorUserID: uuid.New(),
		VendorRole:   enums.VendorRoleChef,
		SubtotalKobo: 1_000_00,
	})
	unpaid := seedOrder(t, repo, models.OrderVendorGroup{
		VendorUserID: uuid.New(),
		VendorRole:   enums.VendorRoleChef,
		SubtotalKobo: 1_000_00,
	})
	_ = unpaid

	now := time.Now().UTC()
	_, err := repo.MarkPaid(ctx, stale.ID, now.Add(-time.Hour))
	require.NoError(t, err)
	_, err = repo.MarkPaid(ctx, fresh.ID, now)
	require.NoError(t, err)

	stuck, err := repo.ListStuckDistributions(ctx, now.Add(-15*time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, stuck, 1)
	assert.Equal(t, stale.ID, stuck[0].ID)
	assert.NotEmpty(t, stuck[0].VendorGroups, "reconciler needs the groups preloaded")
}

func TestUpdateVendorGroupSettlement(t *testing.T) {
	conn := setupOrdersTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	vendorID := uuid.New()
	order := seedOrder(t, repo, models.OrderVendorGroup{
		VendorUserID: vendorID,
		VendorRole:   enums.VendorRolePharmacy,
		SubtotalKobo: 4_000_00,
	})

	group := order.VendorGroups[0]
	now := time.Now().UTC()
	require.NoError(t, repo.UpdateVendorGroupSettlement(ctx, group.ID, "0.12", 480_00, 3_520_00, now))

	groups, err := repo.ListVendorGroups(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "0.12", groups[0].CommissionRate)
	assert.Equal(t, int64(480_00), groups[0].CommissionAmountKobo)
	assert.Equal(t, int64(3_520_00), groups[0].PayoutAmountKobo)
	assert.True(t, groups[0].Paid)
}

func TestFindByPaymentReference(t *testing.T) {
	conn := setupOrdersTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	order := seedOrder(t, repo, models.OrderVendorGroup{
		VendorUserID: uuid.New(),
		VendorRole:   enums.VendorRoleChef,
		SubtotalKobo: 2_000_00,
	})

	got, err := repo.FindByPaymentReference(ctx, order.PaymentReference)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)
	assert.Len(t, got.VendorGroups, 1)

	_, err = repo.FindByPaymentReference(ctx, "ps-unknown")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
