package order

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kimo123-321/autoglow-backend/internal/entity"
	"github.com/kimo123-321/autoglow-backend/pkg/errorbank"
)

// MsgMissingOrderDetails is the validation message for incomplete requests.
const MsgMissingOrderDetails = "Missing order details"

// CustomerInput identifies the ordering customer. Address doubles as the
// customer's city and the order's shipping address.
type CustomerInput struct {
	Phone   string `json:"phone"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

// ItemInput is one requested line. Quantity defaults to 1.
type ItemInput struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity,omitempty"`
}

// PlaceOrderRequest is a validated-on-entry order submission.
type PlaceOrderRequest struct {
	Customer      *CustomerInput  `json:"customer"`
	Items         []ItemInput     `json:"items"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod string          `json:"paymentMethod"`
}

// Validate rejects requests without a customer or without items.
func (r *PlaceOrderRequest) Validate() error {
	if r == nil || r.Customer == nil || len(r.Items) == 0 {
		return errorbank.BadRequest(MsgMissingOrderDetails)
	}
	return nil
}

// Placement is the outcome of a committed order.
type Placement struct {
	OrderID   int64
	CreatedAt time.Time
}

// Step names a stage of order placement.
type Step string

const (
	StepAcquire        Step = "acquire"
	StepBegin          Step = "begin"
	StepUpsertCustomer Step = "upsert_customer"
	StepInsertOrder    Step = "insert_order"
	StepInsertItems    Step = "insert_items"
	StepCommit         Step = "commit"
)

// StepError records the stage at which placement failed.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

func (r *PlaceOrderRequest) customer() *entity.Customer {
	return &entity.Customer{
		Phone: r.Customer.Phone,
		Name:  r.Customer.Name,
		City:  r.Customer.Address,
	}
}

func (r *PlaceOrderRequest) order(createdAt time.Time) *entity.Order {
	return &entity.Order{
		UserPhone:       r.Customer.Phone,
		TotalAmount:     r.Total,
		Status:          entity.OrderStatusProcessing,
		PaymentMethod:   r.PaymentMethod,
		ShippingAddress: r.Customer.Address,
		CreatedAt:       createdAt,
	}
}

func (r *PlaceOrderRequest) lines(orderID int64) []entity.OrderItem {
	items := make([]entity.OrderItem, 0, len(r.Items))
	for _, in := range r.Items {
		qty := in.Quantity
		if qty <= 0 {
			qty = 1
		}
		items = append(items, entity.OrderItem{
			OrderID:     orderID,
			ProductName: in.Name,
			Price:       in.Price,
			Quantity:    qty,
		})
	}
	return items
}
