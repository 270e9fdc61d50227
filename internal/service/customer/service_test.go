package customer

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/kimo123-321/autoglow-backend/internal/database/dbtest"
	"github.com/kimo123-321/autoglow-backend/internal/entity"
	customerrepo "github.com/kimo123-321/autoglow-backend/internal/repository/customer"
	orderrepo "github.com/kimo123-321/autoglow-backend/internal/repository/order"
	"github.com/kimo123-321/autoglow-backend/pkg/errorbank"
)

func newTestService(t *testing.T, store *dbtest.Store) *Service {
	t.Helper()
	return NewService(Params{
		Pool:      store.Pool,
		Customers: customerrepo.NewRepository(),
		Orders:    orderrepo.NewRepository(),
		Logger:    zaptest.NewLogger(t),
	})
}

func placeOrder(t *testing.T, store *dbtest.Store, phone string, lines ...string) int64 {
	t.Helper()
	ctx := context.Background()
	orders := orderrepo.NewRepository()

	order := &entity.Order{
		UserPhone:       phone,
		TotalAmount:     decimal.NewFromInt(int64(len(lines))),
		Status:          entity.OrderStatusProcessing,
		PaymentMethod:   "cash",
		ShippingAddress: "Lisbon",
	}
	require.NoError(t, orders.Insert(ctx, store.DB, order))

	if len(lines) > 0 {
		items := make([]entity.OrderItem, 0, len(lines))
		for _, name := range lines {
			items = append(items, entity.OrderItem{OrderID: order.ID, ProductName: name, Price: decimal.NewFromInt(1), Quantity: 1})
		}
		require.NoError(t, orders.InsertItems(ctx, store.DB, items))
	}
	return order.ID
}

func TestGetCustomerWithOrders(t *testing.T) {
	store := dbtest.New(t, 1)
	ctx := context.Background()
	customers := customerrepo.NewRepository()
	require.NoError(t, customers.Upsert(ctx, store.DB, &entity.Customer{Phone: "555-0200", Name: "Rui", City: "Braga"}))
	require.NoError(t, customers.Upsert(ctx, store.DB, &entity.Customer{Phone: "555-0299", Name: "Eva", City: "Porto"}))

	older := placeOrder(t, store, "555-0200", "Wax")
	newer := placeOrder(t, store, "555-0200", "Cloth", "Polish")
	placeOrder(t, store, "555-0299", "Other")

	history, err := newTestService(t, store).GetCustomerWithOrders(ctx, "555-0200")
	require.NoError(t, err)

	assert.Equal(t, "Rui", history.User.Name)
	require.Len(t, history.Orders, 2)
	assert.Equal(t, newer, history.Orders[0].ID)
	assert.Equal(t, older, history.Orders[1].ID)
	require.Len(t, history.Orders[0].Items, 2)
	assert.Equal(t, "Cloth", history.Orders[0].Items[0].ProductName)
	assert.Equal(t, "Wax", history.Orders[1].Items[0].ProductName)
	assert.Equal(t, 0, store.Pool.Stats().InUse)
}

func TestGetCustomerWithoutOrders(t *testing.T) {
	store := dbtest.New(t, 1)
	ctx := context.Background()
	require.NoError(t, customerrepo.NewRepository().Upsert(ctx, store.DB,
		&entity.Customer{Phone: "555-0201", Name: "Ines", City: "Faro"}))

	history, err := newTestService(t, store).GetCustomerWithOrders(ctx, "555-0201")
	require.NoError(t, err)
	assert.NotNil(t, history.Orders)
	assert.Empty(t, history.Orders)
}

func TestGetCustomerNotFound(t *testing.T) {
	store := dbtest.New(t, 1)

	_, err := newTestService(t, store).GetCustomerWithOrders(context.Background(), "555-0000")
	require.Error(t, err)
	assert.True(t, errorbank.Is(err, errorbank.KindNotFound))
	assert.Equal(t, MsgUserNotFound, errorbank.From(err).Message())
	assert.Equal(t, 0, store.Pool.Stats().InUse)
}
