package customer

import (
	"context"
	"errors"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/kimo123-321/autoglow-backend/internal/database"
	"github.com/kimo123-321/autoglow-backend/internal/entity"
	customerrepo "github.com/kimo123-321/autoglow-backend/internal/repository/customer"
	orderrepo "github.com/kimo123-321/autoglow-backend/internal/repository/order"
	"github.com/kimo123-321/autoglow-backend/pkg/errorbank"
)

// MsgUserNotFound is returned when the phone has no customer record.
const MsgUserNotFound = "User not found"

var serviceTracer = otel.Tracer("github.com/kimo123-321/autoglow-backend/service/customer")

// OrderWithItems is an order together with its lines.
type OrderWithItems struct {
	entity.Order
	Items []entity.OrderItem `json:"items"`
}

// History is a customer's profile and orders, newest first.
type History struct {
	User   entity.Customer  `json:"user"`
	Orders []OrderWithItems `json:"orders"`
}

// Service reads customer profiles and their order history.
type Service struct {
	pool      *database.Pool
	customers *customerrepo.Repository
	orders    *orderrepo.Repository
	logger    *zap.Logger
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Pool      *database.Pool
	Customers *customerrepo.Repository
	Orders    *orderrepo.Repository
	Logger    *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{pool: p.Pool, customers: p.Customers, orders: p.Orders, logger: logger}
}

// GetCustomerWithOrders returns the customer and every order they placed.
// The reads share one connection but no transaction.
func (s *Service) GetCustomerWithOrders(ctx context.Context, phone string) (*History, error) {
	ctx, span := serviceTracer.Start(ctx, "CustomerService.GetCustomerWithOrders")
	defer span.End()

	var history *History
	err := s.pool.WithConn(ctx, func(ctx context.Context, conn bun.Conn) error {
		var err error
		history, err = s.read(ctx, conn, phone)
		return err
	})
	if errors.Is(err, customerrepo.ErrNotFound) {
		return nil, errorbank.NotFound(MsgUserNotFound, errorbank.WithCause(err))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read history failed")
		s.logger.Error("read customer history failed", zap.String("phone", phone), zap.Error(err))
		if database.IsConnectivity(err) {
			return nil, errorbank.Connectivity("failed to load user", errorbank.WithCause(err))
		}
		return nil, errorbank.Internal("failed to load user", errorbank.WithCause(err))
	}

	span.SetAttributes(attribute.Int("order.count", len(history.Orders)))
	return history, nil
}

func (s *Service) read(ctx context.Context, db bun.IDB, phone string) (*History, error) {
	customer, err := s.customers.GetByPhone(ctx, db, phone)
	if err != nil {
		return nil, err
	}

	orders, err := s.orders.ListByPhone(ctx, db, phone)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	items, err := s.orders.ListItems(ctx, db, ids)
	if err != nil {
		return nil, err
	}

	byOrder := make(map[int64][]entity.OrderItem, len(orders))
	for _, item := range items {
		byOrder[item.OrderID] = append(byOrder[item.OrderID], item)
	}

	history := &History{User: *customer, Orders: make([]OrderWithItems, 0, len(orders))}
	for _, o := range orders {
		lines := byOrder[o.ID]
		if lines == nil {
			lines = []entity.OrderItem{}
		}
		history.Orders = append(history.Orders, OrderWithItems{Order: o, Items: lines})
	}
	return history, nil
}
