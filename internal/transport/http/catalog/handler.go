package catalog

import (
	"context"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.uber.org/fx"

	"github.com/kimo123-321/autoglow-backend/internal/entity"
	"github.com/kimo123-321/autoglow-backend/internal/presentation/http/response"
	service "github.com/kimo123-321/autoglow-backend/internal/service/catalog"
)

var httpTracer = otel.Tracer("github.com/kimo123-321/autoglow-backend/transport/http/catalog")

// Module wires HTTP catalog handlers.
var Module = fx.Options(
	fx.Provide(func(svc *service.Service, r *response.Renderer) *Handler {
		return NewHandler(svc, r)
	}),
	fx.Invoke(func(g *echo.Group, h *Handler) {
		Register(g, h)
	}),
)

// Lister lists catalog products.
type Lister interface {
	ListProducts(ctx context.Context) ([]entity.Product, error)
}

// Handler exposes the product catalog over HTTP.
type Handler struct {
	svc      Lister
	renderer *response.Renderer
}

// NewHandler constructs a catalog Handler.
func NewHandler(svc Lister, renderer *response.Renderer) *Handler {
	return &Handler{svc: svc, renderer: renderer}
}

// Register routes with provided Echo group.
func Register(g *echo.Group, h *Handler) {
	g.GET("/products", h.list)
}

func (h *Handler) list(c echo.Context) error {
	b := h.renderer.For(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "products.list")
	defer span.End()

	products, err := h.svc.ListProducts(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(products).Build()
}
