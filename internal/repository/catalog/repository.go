package catalog

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/kimo123-321/autoglow-backend/internal/entity"
)

var repoTracer = otel.Tracer("github.com/kimo123-321/autoglow-backend/repository/catalog")

// Repository reads the product catalog.
type Repository struct{}

// NewRepository constructs a catalog Repository.
func NewRepository() *Repository {
	return &Repository{}
}

// List returns every product, most recently added first.
func (r *Repository) List(ctx context.Context, db bun.IDB) ([]entity.Product, error) {
	ctx, span := repoTracer.Start(ctx, "CatalogRepository.List")
	defer span.End()

	products := make([]entity.Product, 0)
	if err := db.NewSelect().Model(&products).OrderExpr("id DESC").Scan(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, fmt.Errorf("select products: %w", err)
	}
	span.SetAttributes(attribute.Int("product.count", len(products)))
	return products, nil
}

// InsertIgnore writes products, skipping ids that already exist.
func (r *Repository) InsertIgnore(ctx context.Context, db bun.IDB, products []entity.Product) error {
	if len(products) == 0 {
		return nil
	}
	_, err := db.NewInsert().Model(&products).Ignore().Exec(ctx)
	return err
}
