package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tundeadepitan/swiftchow-backend/pkg/db"
	"github.com/tundeadepitan/swiftchow-backend/pkg/enums"
	pkgerrors "github.com/tundeadepitan/swiftchow-backend/pkg/errors"
	"github.com/tundeadepitan/swiftchow-backend/pkg/pagination"
)

func setupOrdersService(t *testing.T) *Service {
	t.Helper()
	conn := setupOrdersTestDB(t)
	svc, err := NewService(ServiceParams{
		Client: db.NewFromConn(conn),
		Repo:   NewRepository(conn),
	})
	require.NoError(t, err)
	return svc
}

func validCreateInput() CreateOrderInput {
	return CreateOrderInput{
		OrderNumber:      1042,
		CustomerID:       uuid.New(),
		PaymentReference: "ps-" + uuid.NewString(),
		DeliveryFeeKobo:  500_00,
		Groups: []VendorGroupInput{
			{VendorUserID: uuid.New(), VendorRole: enums.VendorRoleChef, SubtotalKobo: 10_000_00},
		},
	}
}

func TestCreateOrderPersistsGroupsAndChildOrders(t *testing.T) {
	svc := setupOrdersService(t)
	ctx := context.Background()

	input := validCreateInput()
	input.Groups = append(input.Groups, VendorGroupInput{
		VendorUserID: uuid.New(),
		VendorRole:   enums.VendorRolePharmacy,
		SubtotalKobo: 4_400_00,
	})

	order, err := svc.Create(ctx, input)
	require.NoError(t, err)

	loaded, err := svc.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPending, loaded.PaymentStatus)
	assert.Equal(t, enums.DistributionStatusPending, loaded.DistributionStatus)
	assert.Len(t, loaded.VendorGroups, 2)
	assert.Len(t, loaded.ChildOrders, 2)
	assert.Equal(t, int64(14_400_00), loaded.TotalSubtotalKobo())
}

func TestCreateOrderValidation(t *testing.T) {
	svc := setupOrdersService(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*CreateOrderInput)
	}{
		{"missing customer", func(in *CreateOrderInput) { in.CustomerID = uuid.Nil }},
		{"missing reference", func(in *CreateOrderInput) { in.PaymentReference = "" }},
		{"no groups", func(in *CreateOrderInput) { in.Groups = nil }},
		{"negative delivery fee", func(in *CreateOrderInput) { in.DeliveryFeeKobo = -1 }},
		{"zero subtotal", func(in *CreateOrderInput) { in.Groups[0].SubtotalKobo = 0 }},
		{"duplicate vendor group", func(in *CreateOrderInput) {
			in.Groups = append(in.Groups, in.Groups[0])
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := validCreateInput()
			tc.mutate(&input)
			_, err := svc.Create(ctx, input)
			require.Error(t, err)
			typed := pkgerrors.As(err)
			require.NotNil(t, typed)
			assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
		})
	}
}

func TestCreateOrderRejectsReusedPaymentReference(t *testing.T) {
	svc := setupOrdersService(t)
	ctx := context.Background()

	input := validCreateInput()
	_, err := svc.Create(ctx, input)
	require.NoError(t, err)

	dup := validCreateInput()
	dup.PaymentReference = input.PaymentReference
	_, err = svc.Create(ctx, dup)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestServiceFindByPaymentReference(t *testing.T) {
	svc := setupOrdersService(t)
	ctx := context.Background()

	input := validCreateInput()
	created, err := svc.Create(ctx, input)
	require.NoError(t, err)

	found, err := svc.FindByPaymentReference(ctx, input.PaymentReference)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = svc.FindByPaymentReference(ctx, "ps-unknown")
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestMarkPaidIsIdempotent(t *testing.T) {
	svc := setupOrdersService(t)
	ctx := context.Background()

	order, err := svc.Create(ctx, validCreateInput())
	require.NoError(t, err)

	flipped, err := svc.MarkPaid(ctx, order.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, flipped)

	again, err := svc.MarkPaid(ctx, order.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, again)
}

func TestListByCustomerPages(t *testing.T) {
	svc := setupOrdersService(t)
	ctx := context.Background()

	customerID := uuid.New()
	for i := 0; i < 3; i++ {
		input := validCreateInput()
		input.CustomerID = customerID
		_, err := svc.Create(ctx, input)
		require.NoError(t, err)
	}

	first, cursor, err := svc.ListByCustomer(ctx, customerID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, first, 2)
	require.NotEmpty(t, cursor)

	rest, _, err := svc.ListByCustomer(ctx, customerID, pagination.Params{Limit: 2, Cursor: cursor})
	require.NoError(t, err)
	assert.Len(t, rest, 1)
}
