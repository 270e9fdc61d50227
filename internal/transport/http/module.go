package http

import (
	"go.uber.org/fx"

	"github.com/kimo123-321/autoglow-backend/internal/presentation/http/response"
	catalogtransport "github.com/kimo123-321/autoglow-backend/internal/transport/http/catalog"
	customertransport "github.com/kimo123-321/autoglow-backend/internal/transport/http/customer"
	ordertransport "github.com/kimo123-321/autoglow-backend/internal/transport/http/order"
)

// Module aggregates all HTTP transport handlers.
var Module = fx.Options(
	response.Module,
	catalogtransport.Module,
	ordertransport.Module,
	customertransport.Module,
)
