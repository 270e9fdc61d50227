package seeder

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/kimo123-321/autoglow-backend/internal/entity"
	catalogrepo "github.com/kimo123-321/autoglow-backend/internal/repository/catalog"
)

// Module provides the Seeder to Fx.
var Module = fx.Provide(New)

// Seeder loads demo data for local and dev setups.
type Seeder struct {
	db       *bun.DB
	products *catalogrepo.Repository
	logger   *zap.Logger
}

// New constructs a Seeder on the primary database handle.
func New(db *bun.DB, products *catalogrepo.Repository, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{db: db, products: products, logger: logger}
}

// Products inserts the demo catalog. Rows whose id already exists are left
// untouched, so seeding twice is harmless.
func (s *Seeder) Products(ctx context.Context) error {
	products := DemoCatalog()
	if err := s.products.InsertIgnore(ctx, s.db, products); err != nil {
		return fmt.Errorf("seed products: %w", err)
	}
	s.logger.Info("seeded products", zap.Int("count", len(products)))
	return nil
}

// DemoCatalog is the product set loaded by Products.
func DemoCatalog() []entity.Product {
	return []entity.Product{
		{ID: 1, Name: "Ceramic Coating Kit", Price: decimal.RequireFromString("89.99"), Category: "Protection",
			Description: "Nine-month hydrophobic paint protection.", ImageURL: "/images/ceramic-kit.jpg"},
		{ID: 2, Name: "Carnauba Paste Wax", Price: decimal.RequireFromString("24.50"), Category: "Protection",
			Description: "Warm gloss finish for dark paint.", ImageURL: "/images/paste-wax.jpg"},
		{ID: 3, Name: "pH Neutral Shampoo", Price: decimal.RequireFromString("12.00"), Category: "Wash",
			Description: "Safe on existing wax and sealants.", ImageURL: "/images/shampoo.jpg"},
		{ID: 4, Name: "Microfiber Drying Towel", Price: decimal.RequireFromString("15.75"), Category: "Accessories",
			Description: "Twisted loop, 1200 GSM.", ImageURL: "/images/towel.jpg"},
		{ID: 5, Name: "Interior Detailer", Price: decimal.RequireFromString("9.95"), Category: "Interior",
			Description: "Matte finish for dashboards and trim.", ImageURL: "/images/interior.jpg"},
	}
}
