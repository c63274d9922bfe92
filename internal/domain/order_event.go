package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOrderCreated         = "order.created"
	EventOrderItemAdded       = "order.item_added"
	EventOrderPaid            = "order.paid"
	EventOrderPaymentDeclined = "order.payment_declined"
	EventOrderStatusChanged   = "order.status_changed"
)

type OrderCreatedEvent struct {
	OrderID      string    `json:"orderId"`
	CustomerID   string    `json:"customerId"`
	CustomerName string    `json:"customerName"`
	CreatedAt    time.Time `json:"createdAt"`
}

type OrderItemAddedEvent struct {
	OrderID   string          `json:"orderId"`
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Total     decimal.Decimal `json:"total"`
}

type OrderPaymentEvent struct {
	OrderID       string          `json:"orderId"`
	PaymentMethod string          `json:"paymentMethod"`
	Amount        decimal.Decimal `json:"amount"`
	Reason        string          `json:"reason,omitempty"`
}

type OrderStatusChangedEvent struct {
	OrderID string      `json:"orderId"`
	From    OrderStatus `json:"from"`
	To      OrderStatus `json:"to"`
}

func (e OrderCreatedEvent) PartitionKey() string       { return e.OrderID }
func (e OrderItemAddedEvent) PartitionKey() string     { return e.OrderID }
func (e OrderPaymentEvent) PartitionKey() string       { return e.OrderID }
func (e OrderStatusChangedEvent) PartitionKey() string { return e.OrderID }
