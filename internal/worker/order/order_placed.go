package order

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/kimo123-321/autoglow-backend/internal/messaging"
	ordersvc "github.com/kimo123-321/autoglow-backend/internal/service/order"
	"github.com/kimo123-321/autoglow-backend/internal/worker"
)

var workerTracer = otel.Tracer("github.com/kimo123-321/autoglow-backend/worker/order")

// Module registers order-related worker handlers.
var Module = fx.Module("worker_order",
	fx.Provide(
		fx.Annotate(
			NewOrderPlacedHandler,
			fx.ResultTags(`group:"worker.handlers"`),
		),
	),
)

// NewOrderPlacedHandler logs every committed order. It is the hook point for
// fulfilment notifications.
func NewOrderPlacedHandler(logger *zap.Logger) worker.HandlerRegistration {
	handler := func(ctx context.Context, msg messaging.Message) error {
		_, span := workerTracer.Start(ctx, "worker.orders.placed", trace.WithAttributes(
			attribute.String("messaging.topic", msg.Topic),
			attribute.Int64("messaging.offset", msg.Offset),
		))
		defer span.End()

		var event ordersvc.OrderPlacedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			logger.Error("failed to decode order placed event", zap.Int64("offset", msg.Offset), zap.Error(err))
			return fmt.Errorf("decode order placed: %w", err)
		}
		span.SetAttributes(attribute.Int64("order.id", event.ID))

		logger.Info("order placed event processed",
			zap.String("event_id", event.EventID),
			zap.Int64("order_id", event.ID),
			zap.String("phone", event.UserPhone),
			zap.String("total", event.TotalAmount.StringFixed(2)),
			zap.String("payment_method", event.PaymentMethod),
			zap.Int("items", event.Items),
		)
		return nil
	}

	return worker.HandlerRegistration{
		Event:   ordersvc.OrderPlacedEventName,
		Handler: handler,
	}
}
