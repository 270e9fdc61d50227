package order

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/kimo123-321/autoglow-backend/internal/config"
	"github.com/kimo123-321/autoglow-backend/internal/database"
	"github.com/kimo123-321/autoglow-backend/internal/database/dbtest"
	"github.com/kimo123-321/autoglow-backend/internal/entity"
	"github.com/kimo123-321/autoglow-backend/internal/messaging"
	customerrepo "github.com/kimo123-321/autoglow-backend/internal/repository/customer"
	orderrepo "github.com/kimo123-321/autoglow-backend/internal/repository/order"
	"github.com/kimo123-321/autoglow-backend/pkg/errorbank"
)

type recordingPublisher struct {
	mu   sync.Mutex
	sent []messaging.Message
}

func (r *recordingPublisher) Publish(_ context.Context, msg messaging.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return nil
}

func (r *recordingPublisher) Consume(ctx context.Context, _ messaging.Handler) error {
	<-ctx.Done()
	return ctx.Err()
}

func (r *recordingPublisher) Topic() string { return "orders.placed" }

func newTestService(t *testing.T, pool *database.Pool, cfg config.Config, pub messaging.Client) *Service {
	t.Helper()
	svc, err := NewService(Params{
		Pool:      pool,
		Customers: customerrepo.NewRepository(),
		Orders:    orderrepo.NewRepository(),
		Config:    cfg,
		Logger:    zaptest.NewLogger(t),
		Publisher: pub,
	})
	require.NoError(t, err)
	return svc
}

func sampleRequest(phone string) *PlaceOrderRequest {
	return &PlaceOrderRequest{
		Customer: &CustomerInput{Phone: phone, Name: "Ana", Address: "Lisbon"},
		Items: []ItemInput{
			{Name: "Wax", Price: decimal.RequireFromString("12.50"), Quantity: 2},
			{Name: "Cloth", Price: decimal.RequireFromString("5.00")},
		},
		Total:         decimal.RequireFromString("30.00"),
		PaymentMethod: "card",
	}
}

func TestPlaceOrderCommitsAllRows(t *testing.T) {
	store := dbtest.New(t, 2)
	svc := newTestService(t, store.Pool, config.Config{}, nil)
	ctx := context.Background()

	placement, err := svc.PlaceOrder(ctx, sampleRequest("555-0100"))
	require.NoError(t, err)
	assert.Positive(t, placement.OrderID)

	customer, err := customerrepo.NewRepository().GetByPhone(ctx, store.DB, "555-0100")
	require.NoError(t, err)
	assert.Equal(t, entity.Customer{Phone: "555-0100", Name: "Ana", City: "Lisbon"}, *customer)

	orders, err := orderrepo.NewRepository().ListByPhone(ctx, store.DB, "555-0100")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, placement.OrderID, orders[0].ID)
	assert.Equal(t, entity.OrderStatusProcessing, orders[0].Status)
	assert.Equal(t, "Lisbon", orders[0].ShippingAddress)
	assert.Equal(t, "card", orders[0].PaymentMethod)
	assert.True(t, orders[0].TotalAmount.Equal(decimal.RequireFromString("30")))

	items, err := orderrepo.NewRepository().ListItems(ctx, store.DB, []int64{placement.OrderID})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Wax", items[0].ProductName)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, "Cloth", items[1].ProductName)
	assert.Equal(t, 1, items[1].Quantity)

	assert.Equal(t, 0, store.Pool.Stats().InUse)
}

func TestPlaceOrderRollsBackWhenItemsFail(t *testing.T) {
	store := dbtest.New(t, 2)
	svc := newTestService(t, store.Pool, config.Config{}, nil)

	req := sampleRequest("555-0101")
	req.Items[1].Price = decimal.RequireFromString("-1")

	_, err := svc.PlaceOrder(context.Background(), req)
	require.Error(t, err)
	assert.True(t, errorbank.Is(err, errorbank.KindTransactional))

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, StepInsertItems, stepErr.Step)

	assert.Zero(t, store.Count(t, "users"))
	assert.Zero(t, store.Count(t, "orders"))
	assert.Zero(t, store.Count(t, "order_items"))
	assert.Equal(t, 0, store.Pool.Stats().InUse)
}

func TestPlaceOrderFailureKeepsExistingCustomer(t *testing.T) {
	store := dbtest.New(t, 2)
	svc := newTestService(t, store.Pool, config.Config{}, nil)
	ctx := context.Background()

	_, err := svc.PlaceOrder(ctx, sampleRequest("555-0110"))
	require.NoError(t, err)

	req := sampleRequest("555-0110")
	req.Customer.Name = "Ana Maria"
	req.Customer.Address = "Porto"
	req.Items[0].Price = decimal.RequireFromString("-3")

	_, err = svc.PlaceOrder(ctx, req)
	require.Error(t, err)
	assert.True(t, errorbank.Is(err, errorbank.KindTransactional))

	customer, err := customerrepo.NewRepository().GetByPhone(ctx, store.DB, "555-0110")
	require.NoError(t, err)
	assert.Equal(t, entity.Customer{Phone: "555-0110", Name: "Ana", City: "Lisbon"}, *customer)
	assert.Equal(t, 1, store.Count(t, "users"))
	assert.Equal(t, 1, store.Count(t, "orders"))
	assert.Equal(t, 2, store.Count(t, "order_items"))
	assert.Equal(t, 0, store.Pool.Stats().InUse)
}

func TestPlaceOrderRepeatCustomerUpdatesProfile(t *testing.T) {
	store := dbtest.New(t, 2)
	svc := newTestService(t, store.Pool, config.Config{}, nil)
	ctx := context.Background()

	first, err := svc.PlaceOrder(ctx, sampleRequest("555-0102"))
	require.NoError(t, err)

	again := sampleRequest("555-0102")
	again.Customer.Name = "Ana Maria"
	again.Customer.Address = "Porto"
	second, err := svc.PlaceOrder(ctx, again)
	require.NoError(t, err)

	assert.NotEqual(t, first.OrderID, second.OrderID)
	assert.Equal(t, 1, store.Count(t, "users"))
	assert.Equal(t, 2, store.Count(t, "orders"))

	customer, err := customerrepo.NewRepository().GetByPhone(ctx, store.DB, "555-0102")
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", customer.Name)
	assert.Equal(t, "Porto", customer.City)
}

func TestPlaceOrderRejectsIncompleteRequests(t *testing.T) {
	store := dbtest.New(t, 1)
	svc := newTestService(t, store.Pool, config.Config{}, nil)

	tests := []struct {
		name string
		req  *PlaceOrderRequest
	}{
		{name: "nil request", req: nil},
		{name: "missing customer", req: &PlaceOrderRequest{Items: sampleRequest("x").Items}},
		{name: "no items", req: &PlaceOrderRequest{Customer: &CustomerInput{Phone: "555-0103"}}},
		{name: "empty items", req: &PlaceOrderRequest{Customer: &CustomerInput{Phone: "555-0103"}, Items: []ItemInput{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.PlaceOrder(context.Background(), tt.req)
			require.Error(t, err)
			assert.True(t, errorbank.Is(err, errorbank.KindBadRequest))
			assert.Equal(t, MsgMissingOrderDetails, errorbank.From(err).Message())
		})
	}

	assert.Zero(t, store.Count(t, "users"))
	assert.Zero(t, store.Count(t, "orders"))
}

func TestPlaceOrderConcurrentCallersShareBoundedPool(t *testing.T) {
	const poolSize, callers = 3, 12

	store := dbtest.New(t, poolSize)
	svc := newTestService(t, store.Pool, config.Config{}, nil)

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids = make(map[int64]struct{})
	)
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			placement, err := svc.PlaceOrder(context.Background(), sampleRequest(fmt.Sprintf("555-1%03d", i)))
			if err != nil {
				errs <- err
				return
			}
			mu.Lock()
			ids[placement.OrderID] = struct{}{}
			mu.Unlock()
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("place order: %v", err)
	}
	assert.Len(t, ids, callers)
	assert.Equal(t, callers, store.Count(t, "orders"))
	assert.Equal(t, 2*callers, store.Count(t, "order_items"))
	assert.Equal(t, database.PoolStats{Size: poolSize}, store.Pool.Stats())
}

func TestPlaceOrderReportsExhaustedPool(t *testing.T) {
	store := dbtest.New(t, 1)
	cfg := dbtest.Config(t, 1)
	cfg.AcquireTimeout = 20 * time.Millisecond
	pool := database.NewPool(store.DB, cfg, zaptest.NewLogger(t))
	svc := newTestService(t, pool, config.Config{}, nil)

	held, err := pool.Acquire(context.Background())
	require.NoError(t, err)

	_, err = svc.PlaceOrder(context.Background(), sampleRequest("555-0104"))
	held.Release()
	require.Error(t, err)
	assert.True(t, errorbank.Is(err, errorbank.KindConnectivity))
	assert.ErrorIs(t, err, database.ErrPoolExhausted)
	assert.Zero(t, store.Count(t, "orders"))
}

func TestPlaceOrderCancelledCallerIsNotConnectivity(t *testing.T) {
	store := dbtest.New(t, 1)
	svc := newTestService(t, store.Pool, config.Config{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.PlaceOrder(ctx, sampleRequest("555-0106"))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, errorbank.Is(err, errorbank.KindTransactional))
	assert.NotErrorIs(t, err, database.ErrUnavailable)
	assert.Zero(t, store.Count(t, "users"))
}

func TestPlaceOrderPublishesEventAfterCommit(t *testing.T) {
	store := dbtest.New(t, 1)
	pub := &recordingPublisher{}
	cfg := config.Config{}
	cfg.Messaging.Enabled = true
	cfg.Messaging.Kafka.Topic = "orders.placed"
	svc := newTestService(t, store.Pool, cfg, pub)

	placement, err := svc.PlaceOrder(context.Background(), sampleRequest("555-0110"))
	require.NoError(t, err)

	require.Len(t, pub.sent, 1)
	msg := pub.sent[0]
	assert.Equal(t, "orders.placed", msg.Topic)
	assert.Equal(t, fmt.Sprintf("order-%d", placement.OrderID), string(msg.Key))
	assert.Equal(t, OrderPlacedEventName, msg.Headers["event"])

	var event OrderPlacedEvent
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, placement.OrderID, event.ID)
	assert.Equal(t, "555-0110", event.UserPhone)
	assert.Equal(t, 2, event.Items)
	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, event.EventID, msg.Headers["event_id"])

	req := sampleRequest("555-0106")
	req.Items[0].Price = decimal.RequireFromString("-3")
	_, err = svc.PlaceOrder(context.Background(), req)
	require.Error(t, err)
	assert.Len(t, pub.sent, 1)
}
