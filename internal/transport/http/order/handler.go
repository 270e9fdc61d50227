package order

import (
	"context"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kimo123-321/autoglow-backend/internal/dto"
	"github.com/kimo123-321/autoglow-backend/internal/presentation/http/response"
	service "github.com/kimo123-321/autoglow-backend/internal/service/order"
	"github.com/kimo123-321/autoglow-backend/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/kimo123-321/autoglow-backend/transport/http/order")

// Placer places orders.
type Placer interface {
	PlaceOrder(ctx context.Context, req *service.PlaceOrderRequest) (service.Placement, error)
}

// Handler exposes order endpoints over HTTP.
type Handler struct {
	svc      Placer
	renderer *response.Renderer
}

// NewHandler constructs an order Handler.
func NewHandler(svc Placer, renderer *response.Renderer) *Handler {
	return &Handler{svc: svc, renderer: renderer}
}

// Register routes with provided Echo group.
func Register(g *echo.Group, h *Handler) {
	g.POST("/orders", h.place)
}

func (h *Handler) place(c echo.Context) error {
	b := h.renderer.For(c)

	var req service.PlaceOrderRequest
	if err := c.Bind(&req); err != nil {
		return b.WithError(errorbank.BadRequest(service.MsgMissingOrderDetails, errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.place")
	defer span.End()

	placement, err := h.svc.PlaceOrder(ctx, &req)
	if err != nil {
		return b.WithError(err).Build()
	}
	span.SetAttributes(attribute.Int64("order.id", placement.OrderID))

	return b.WithData(dto.NewOrderPlacedResponse(placement.OrderID)).Build()
}
