package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/kimo123-321/autoglow-backend/internal/config"
	"github.com/kimo123-321/autoglow-backend/internal/database"
	"github.com/kimo123-321/autoglow-backend/internal/entity"
	"github.com/kimo123-321/autoglow-backend/internal/messaging"
	customerrepo "github.com/kimo123-321/autoglow-backend/internal/repository/customer"
	orderrepo "github.com/kimo123-321/autoglow-backend/internal/repository/order"
	"github.com/kimo123-321/autoglow-backend/pkg/errorbank"
)

var (
	serviceTracer = otel.Tracer("github.com/kimo123-321/autoglow-backend/service/order")
	serviceMeter  = otel.Meter("github.com/kimo123-321/autoglow-backend/service/order")
)

// Service places orders as one atomic unit against a pooled connection.
type Service struct {
	pool      *database.Pool
	customers *customerrepo.Repository
	orders    *orderrepo.Repository
	logger    *zap.Logger
	publisher messaging.Client
	messaging messagingConfig
	now       func() time.Time

	placed metric.Int64Counter
	failed metric.Int64Counter
}

// messagingConfig contains messaging specific knobs we care about.
type messagingConfig struct {
	enabled bool
	topic   string
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Pool      *database.Pool
	Customers *customerrepo.Repository
	Orders    *orderrepo.Repository
	Config    config.Config
	Logger    *zap.Logger
	Publisher messaging.Client `optional:"true"`
}

// NewService wires a new Service instance.
func NewService(p Params) (*Service, error) {
	placed, err := serviceMeter.Int64Counter("orders.placed",
		metric.WithDescription("Orders committed"))
	if err != nil {
		return nil, err
	}
	failed, err := serviceMeter.Int64Counter("orders.failed",
		metric.WithDescription("Order placements rolled back or never started, by step"))
	if err != nil {
		return nil, err
	}

	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		pool:      p.Pool,
		customers: p.Customers,
		orders:    p.Orders,
		logger:    logger,
		publisher: p.Publisher,
		messaging: messagingConfig{
			enabled: p.Config.Messaging.Enabled,
			topic:   p.Config.Messaging.Kafka.Topic,
		},
		now:    func() time.Time { return time.Now().UTC() },
		placed: placed,
		failed: failed,
	}, nil
}

// PlaceOrder upserts the customer, inserts the order and inserts its items in
// one transaction. Either everything commits or nothing is visible.
//
// The caller's context bounds only the wait for a connection. Once a
// connection is leased the transaction runs to commit or rollback even if the
// caller goes away.
func (s *Service) PlaceOrder(ctx context.Context, req *PlaceOrderRequest) (Placement, error) {
	if err := req.Validate(); err != nil {
		return Placement{}, err
	}

	ctx, span := serviceTracer.Start(ctx, "OrderService.PlaceOrder", trace.WithAttributes(
		attribute.Int("order.items", len(req.Items)),
		attribute.String("order.payment_method", req.PaymentMethod),
	))
	defer span.End()

	var placed *entity.Order
	err := s.pool.WithConn(ctx, func(ctx context.Context, conn bun.Conn) error {
		var err error
		placed, err = s.persist(context.WithoutCancel(ctx), conn, req)
		return err
	})
	if err != nil {
		appErr := classify(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, string(appErr.Kind()))
		s.failed.Add(ctx, 1, metric.WithAttributes(attribute.String("step", string(stepOf(err)))))
		s.logger.Error("place order failed",
			zap.String("phone", req.Customer.Phone),
			zap.String("step", string(stepOf(err))),
			zap.Error(err),
		)
		return Placement{}, appErr
	}

	span.SetAttributes(attribute.Int64("order.id", placed.ID))
	s.placed.Add(ctx, 1)
	s.logger.Info("order placed",
		zap.Int64("order_id", placed.ID),
		zap.String("phone", placed.UserPhone),
		zap.Int("items", len(req.Items)),
	)

	s.publishOrderPlaced(ctx, placed, len(req.Items))

	return Placement{OrderID: placed.ID, CreatedAt: placed.CreatedAt}, nil
}

// persist runs the write sequence on conn. Any failure rolls back before
// returning.
func (s *Service) persist(ctx context.Context, conn bun.Conn, req *PlaceOrderRequest) (_ *entity.Order, err error) {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, &StepError{Step: StepBegin, Err: err}
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			s.logger.Error("rollback failed", zap.Error(rbErr))
			err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
	}()

	if err := s.customers.Upsert(ctx, tx, req.customer()); err != nil {
		return nil, &StepError{Step: StepUpsertCustomer, Err: err}
	}

	order := req.order(s.now())
	if err := s.orders.Insert(ctx, tx, order); err != nil {
		return nil, &StepError{Step: StepInsertOrder, Err: err}
	}

	if err := s.orders.InsertItems(ctx, tx, req.lines(order.ID)); err != nil {
		return nil, &StepError{Step: StepInsertItems, Err: err}
	}

	if err := tx.Commit(); err != nil {
		return nil, &StepError{Step: StepCommit, Err: err}
	}
	committed = true

	return order, nil
}

func (s *Service) publishOrderPlaced(ctx context.Context, order *entity.Order, items int) {
	if !s.messaging.enabled || s.publisher == nil {
		return
	}
	event := OrderPlacedEvent{
		EventID:       uuid.NewString(),
		ID:            order.ID,
		UserPhone:     order.UserPhone,
		TotalAmount:   order.TotalAmount,
		PaymentMethod: order.PaymentMethod,
		Items:         items,
		CreatedAt:     order.CreatedAt,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("marshal order placed", zap.Error(err))
		return
	}
	msg := messaging.Message{
		Topic:   s.messaging.topic,
		Key:     []byte(fmt.Sprintf("order-%d", order.ID)),
		Value:   payload,
		Headers: map[string]string{"event": OrderPlacedEventName, "event_id": event.EventID},
	}
	if err := s.publisher.Publish(ctx, msg); err != nil {
		s.logger.Error("publish order placed", zap.Int64("order_id", order.ID), zap.Error(err))
	}
}

func classify(err error) *errorbank.AppError {
	var stepErr *StepError
	if !errors.As(err, &stepErr) && database.IsConnectivity(err) {
		return errorbank.Connectivity("failed to place order", errorbank.WithCause(err))
	}
	// Failed writes, and a caller that gave up while waiting for a connection.
	return errorbank.Transactional("failed to place order", errorbank.WithCause(err))
}

func stepOf(err error) Step {
	var stepErr *StepError
	if errors.As(err, &stepErr) {
		return stepErr.Step
	}
	return StepAcquire
}

// OrderPlacedEventName labels order placed messages.
const OrderPlacedEventName = "order.placed"

// OrderPlacedEvent is emitted after an order commits.
type OrderPlacedEvent struct {
	EventID       string          `json:"event_id"`
	ID            int64           `json:"id"`
	UserPhone     string          `json:"user_phone"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaymentMethod string          `json:"payment_method"`
	Items         int             `json:"items"`
	CreatedAt     time.Time       `json:"created_at"`
}
