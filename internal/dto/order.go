package dto

// MsgOrderPlaced is returned for every committed order.
const MsgOrderPlaced = "Order placed successfully!"

// OrderPlacedResponse acknowledges a committed order.
type OrderPlacedResponse struct {
	Message string `json:"message"`
	OrderID int64  `json:"orderId"`
}

// NewOrderPlacedResponse builds the acknowledgement for orderID.
func NewOrderPlacedResponse(orderID int64) OrderPlacedResponse {
	return OrderPlacedResponse{Message: MsgOrderPlaced, OrderID: orderID}
}
