package entity

import (
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// Product is a catalog row. It is read-only to the order workflow.
type Product struct {
	bun.BaseModel `bun:"table:products"`

	ID          int64           `bun:"id,pk,autoincrement" json:"id"`
	Name        string          `bun:"name" json:"name"`
	Price       decimal.Decimal `bun:"price,type:decimal(10,2)" json:"price"`
	Description string          `bun:"description" json:"description"`
	Category    string          `bun:"category" json:"category"`
	ImageURL    string          `bun:"image_url" json:"image_url"`
}
