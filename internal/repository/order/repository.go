package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kimo123-321/autoglow-backend/internal/entity"
)

var repoTracer = otel.Tracer("github.com/kimo123-321/autoglow-backend/repository/order")

// Repository encapsulates order and order item queries. Every method runs on
// the connection or transaction it is given.
type Repository struct{}

// NewRepository constructs an order Repository.
func NewRepository() *Repository {
	return &Repository{}
}

// Insert writes one order row and sets its generated ID.
func (r *Repository) Insert(ctx context.Context, db bun.IDB, order *entity.Order) error {
	if order == nil {
		return errors.New("nil order")
	}
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Insert", trace.WithAttributes(attribute.String("order.user_phone", order.UserPhone)))
	defer span.End()

	if _, err := db.NewInsert().Model(order).Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return err
	}
	if order.ID == 0 {
		err := errors.New("insert order: no generated id")
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetAttributes(attribute.Int64("order.id", order.ID))
	return nil
}

// InsertItems writes all items in a single bulk statement.
func (r *Repository) InsertItems(ctx context.Context, db bun.IDB, items []entity.OrderItem) error {
	if len(items) == 0 {
		return errors.New("no order items")
	}
	ctx, span := repoTracer.Start(ctx, "OrderRepository.InsertItems", trace.WithAttributes(
		attribute.Int64("order.id", items[0].OrderID),
		attribute.Int("order.items", len(items)),
	))
	defer span.End()

	if _, err := db.NewInsert().Model(&items).Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return err
	}
	return nil
}

// ListByPhone returns a customer's orders, newest first.
func (r *Repository) ListByPhone(ctx context.Context, db bun.IDB, phone string) ([]entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.ListByPhone")
	defer span.End()

	orders := make([]entity.Order, 0)
	err := db.NewSelect().
		Model(&orders).
		Where("user_phone = ?", phone).
		OrderExpr("created_at DESC, id DESC").
		Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, fmt.Errorf("select orders: %w", err)
	}
	span.SetAttributes(attribute.Int("order.count", len(orders)))
	return orders, nil
}

// ListItems returns the items of the given orders in insertion order.
func (r *Repository) ListItems(ctx context.Context, db bun.IDB, orderIDs []int64) ([]entity.OrderItem, error) {
	items := make([]entity.OrderItem, 0)
	if len(orderIDs) == 0 {
		return items, nil
	}
	ctx, span := repoTracer.Start(ctx, "OrderRepository.ListItems", trace.WithAttributes(attribute.Int("order.count", len(orderIDs))))
	defer span.End()

	err := db.NewSelect().
		Model(&items).
		Where("order_id IN (?)", bun.In(orderIDs)).
		OrderExpr("order_id ASC, id ASC").
		Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, fmt.Errorf("select order items: %w", err)
	}
	return items, nil
}
