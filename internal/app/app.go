package app

import (
	"go.uber.org/fx"

	"github.com/kimo123-321/autoglow-backend/internal/cache"
	"github.com/kimo123-321/autoglow-backend/internal/config"
	"github.com/kimo123-321/autoglow-backend/internal/database"
	"github.com/kimo123-321/autoglow-backend/internal/logger"
	"github.com/kimo123-321/autoglow-backend/internal/messaging"
	"github.com/kimo123-321/autoglow-backend/internal/observability"
	repositorycatalog "github.com/kimo123-321/autoglow-backend/internal/repository/catalog"
	repositorycustomer "github.com/kimo123-321/autoglow-backend/internal/repository/customer"
	repositoryorder "github.com/kimo123-321/autoglow-backend/internal/repository/order"
	grpcserver "github.com/kimo123-321/autoglow-backend/internal/server/grpc"
	httpserver "github.com/kimo123-321/autoglow-backend/internal/server/http"
	servicecatalog "github.com/kimo123-321/autoglow-backend/internal/service/catalog"
	servicecustomer "github.com/kimo123-321/autoglow-backend/internal/service/customer"
	serviceorder "github.com/kimo123-321/autoglow-backend/internal/service/order"
	transporthttp "github.com/kimo123-321/autoglow-backend/internal/transport/http"
	"github.com/kimo123-321/autoglow-backend/internal/worker"
	workerorder "github.com/kimo123-321/autoglow-backend/internal/worker/order"
)

// Infra provides configuration, logging, telemetry and the data store.
var Infra = fx.Options(
	config.Module,
	logger.Module,
	observability.Module,
	// Telemetry providers are installed before anything registers instruments.
	fx.Invoke(func(*observability.Manager) {}),
	database.Module,
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	Infra,
	cache.Module,
	messaging.Module,
	repositorycatalog.Module,
	repositorycustomer.Module,
	repositoryorder.Module,
	servicecatalog.Module,
	servicecustomer.Module,
	serviceorder.Module,
)

// HTTP wires the HTTP and gRPC health transports on top of the core modules.
var HTTP = fx.Options(
	Core,
	httpserver.Module,
	grpcserver.Module,
	transporthttp.Module,
)

// Worker exposes background worker processing.
var Worker = fx.Options(
	Core,
	worker.Module,
	workerorder.Module,
)

// Module is the default application wiring.
var Module = HTTP
