package customer

import (
	"context"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"

	"github.com/kimo123-321/autoglow-backend/internal/presentation/http/response"
	service "github.com/kimo123-321/autoglow-backend/internal/service/customer"
)

var httpTracer = otel.Tracer("github.com/kimo123-321/autoglow-backend/transport/http/customer")

// Module wires HTTP customer handlers.
var Module = fx.Options(
	fx.Provide(func(svc *service.Service, r *response.Renderer) *Handler {
		return NewHandler(svc, r)
	}),
	fx.Invoke(func(g *echo.Group, h *Handler) {
		Register(g, h)
	}),
)

// HistoryReader loads a customer with their orders.
type HistoryReader interface {
	GetCustomerWithOrders(ctx context.Context, phone string) (*service.History, error)
}

// Handler exposes customer history over HTTP.
type Handler struct {
	svc      HistoryReader
	renderer *response.Renderer
}

// NewHandler constructs a customer Handler.
func NewHandler(svc HistoryReader, renderer *response.Renderer) *Handler {
	return &Handler{svc: svc, renderer: renderer}
}

// Register routes with provided Echo group.
func Register(g *echo.Group, h *Handler) {
	g.GET("/user/:phone", h.history)
}

func (h *Handler) history(c echo.Context) error {
	b := h.renderer.For(c)
	phone := c.Param("phone")

	ctx, span := httpTracer.Start(c.Request().Context(), "user.history", trace.WithAttributes(attribute.String("user.phone", phone)))
	defer span.End()

	history, err := h.svc.GetCustomerWithOrders(ctx, phone)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(history).Build()
}
