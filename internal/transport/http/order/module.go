package order

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"

	"github.com/kimo123-321/autoglow-backend/internal/presentation/http/response"
	service "github.com/kimo123-321/autoglow-backend/internal/service/order"
)

// Module wires HTTP order handlers.
var Module = fx.Options(
	fx.Provide(func(svc *service.Service, r *response.Renderer) *Handler {
		return NewHandler(svc, r)
	}),
	fx.Invoke(func(g *echo.Group, h *Handler) {
		Register(g, h)
	}),
)
