package catalog

import (
	"context"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/kimo123-321/autoglow-backend/internal/cache"
	"github.com/kimo123-321/autoglow-backend/internal/config"
	"github.com/kimo123-321/autoglow-backend/internal/database"
	"github.com/kimo123-321/autoglow-backend/internal/entity"
	catalogrepo "github.com/kimo123-321/autoglow-backend/internal/repository/catalog"
	"github.com/kimo123-321/autoglow-backend/pkg/errorbank"
)

const productsCacheKey = "catalog:products"

var serviceTracer = otel.Tracer("github.com/kimo123-321/autoglow-backend/service/catalog")

// Service serves the product catalog.
type Service struct {
	pool     *database.Pool
	products *catalogrepo.Repository
	cache    cache.Store
	cacheTTL time.Duration
	logger   *zap.Logger
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Pool     *database.Pool
	Products *catalogrepo.Repository
	Config   config.Config
	Logger   *zap.Logger
	Cache    cache.Store `optional:"true"`
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	store := p.Cache
	if !p.Config.Cache.Enabled || store == nil {
		store = cache.Noop()
	}
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		pool:     p.Pool,
		products: p.Products,
		cache:    store,
		cacheTTL: p.Config.Cache.DefaultTTL,
		logger:   logger,
	}
}

// ListProducts returns the full catalog, newest first. An empty catalog is an
// empty, non-nil slice.
func (s *Service) ListProducts(ctx context.Context) ([]entity.Product, error) {
	ctx, span := serviceTracer.Start(ctx, "CatalogService.ListProducts")
	defer span.End()

	products, err := cache.Remember(ctx, s.cache, s.logger, productsCacheKey, s.cacheTTL, s.load)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list products failed")
		s.logger.Error("list products failed", zap.Error(err))
		return nil, classify("failed to list products", err)
	}
	if products == nil {
		products = []entity.Product{}
	}
	return products, nil
}

func (s *Service) load(ctx context.Context) ([]entity.Product, error) {
	var products []entity.Product
	err := s.pool.WithConn(ctx, func(ctx context.Context, conn bun.Conn) error {
		var err error
		products, err = s.products.List(ctx, conn)
		return err
	})
	return products, err
}

// classify maps pool failures to connectivity errors and everything else to
// internal errors.
func classify(message string, err error) *errorbank.AppError {
	if database.IsConnectivity(err) {
		return errorbank.Connectivity(message, errorbank.WithCause(err))
	}
	return errorbank.Internal(message, errorbank.WithCause(err))
}
