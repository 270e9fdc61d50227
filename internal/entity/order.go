package entity

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// OrderStatusProcessing is the status every order is created with.
const OrderStatusProcessing = "Processing"

// Order is a placed order. ShippingAddress is a snapshot of the customer
// address at placement time.
type Order struct {
	bun.BaseModel `bun:"table:orders"`

	ID              int64           `bun:"id,pk,autoincrement" json:"id"`
	UserPhone       string          `bun:"user_phone" json:"user_phone"`
	TotalAmount     decimal.Decimal `bun:"total_amount,type:decimal(10,2)" json:"total_amount"`
	Status          string          `bun:"status" json:"status"`
	PaymentMethod   string          `bun:"payment_method" json:"payment_method"`
	ShippingAddress string          `bun:"shipping_address" json:"shipping_address"`
	CreatedAt       time.Time       `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP" json:"created_at"`
}

// OrderItem is an immutable line of an order. ProductName and Price are
// copied from the request, not referenced from the catalog.
type OrderItem struct {
	bun.BaseModel `bun:"table:order_items"`

	ID          int64           `bun:"id,pk,autoincrement" json:"id"`
	OrderID     int64           `bun:"order_id" json:"order_id"`
	ProductName string          `bun:"product_name" json:"product_name"`
	Price       decimal.Decimal `bun:"price,type:decimal(10,2)" json:"price"`
	Quantity    int             `bun:"quantity" json:"quantity"`
}
