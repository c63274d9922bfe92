package http

import (
	"time"

	"checkout-service/internal/domain"
	"checkout-service/internal/services"

	"github.com/shopspring/decimal"
)

type CreateOrderRequest struct {
	CustomerID   string `json:"customerId" binding:"required"`
	CustomerName string `json:"customerName" binding:"required"`
}

type AddItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
}

type CommitPaymentRequest struct {
	Method    string            `json:"method" binding:"required"`
	Details   map[string]string `json:"details"`
	TimeoutMs int               `json:"timeoutMs" binding:"min=0"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type CreateProductRequest struct {
	ID         string            `json:"id" binding:"required"`
	Name       string            `json:"name" binding:"required"`
	Price      decimal.Decimal   `json:"price"`
	Stock      int               `json:"stock" binding:"min=0"`
	Category   string            `json:"category"`
	Attributes map[string]string `json:"attributes"`
}

func (r CreateProductRequest) toDomain() *domain.Product {
	return &domain.Product{
		ID:         r.ID,
		Name:       r.Name,
		Price:      r.Price,
		Stock:      r.Stock,
		Category:   r.Category,
		Attributes: r.Attributes,
	}
}

type LineItemResponse struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	UnitPrice   string `json:"unitPrice"`
	Quantity    int    `json:"quantity"`
	Subtotal    string `json:"subtotal"`
}

// OrderResponse renders money with two decimals, as strings.
type OrderResponse struct {
	ID            string             `json:"id"`
	CustomerID    string             `json:"customerId"`
	CustomerName  string             `json:"customerName"`
	Items         []LineItemResponse `json:"items"`
	Total         string             `json:"total"`
	Status        string             `json:"status"`
	PaymentMethod string             `json:"paymentMethod,omitempty"`
	CreatedAt     time.Time          `json:"createdAt"`
}

type PaymentResponse struct {
	OrderID  string         `json:"orderId"`
	Approved bool           `json:"approved"`
	Method   string         `json:"method"`
	Amount   string         `json:"amount"`
	Outcome  string         `json:"outcome"`
	Order    *OrderResponse `json:"order,omitempty"`
}

type ProductResponse struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Price      string            `json:"price"`
	Stock      int               `json:"stock"`
	Category   string            `json:"category,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

type PaymentMethodResponse struct {
	Key         string `json:"key"`
	DisplayName string `json:"displayName"`
}

func toOrderResponse(o *domain.Order) OrderResponse {
	items := make([]LineItemResponse, 0, len(o.Items))
	for _, li := range o.Items {
		items = append(items, LineItemResponse{
			ProductID:   li.ProductID,
			ProductName: li.ProductName,
			UnitPrice:   li.UnitPrice.StringFixed(2),
			Quantity:    li.Quantity,
			Subtotal:    li.Subtotal().StringFixed(2),
		})
	}
	return OrderResponse{
		ID:            o.ID,
		CustomerID:    o.CustomerID,
		CustomerName:  o.CustomerName,
		Items:         items,
		Total:         o.Total.StringFixed(2),
		Status:        string(o.Status),
		PaymentMethod: o.PaymentMethod,
		CreatedAt:     o.CreatedAt,
	}
}

func toOrderResponses(orders []domain.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, toOrderResponse(&orders[i]))
	}
	return out
}

func toPaymentResponse(p *services.PaymentOutcome) PaymentResponse {
	resp := PaymentResponse{
		OrderID:  p.OrderID,
		Approved: p.Approved,
		Method:   p.Method,
		Amount:   p.Amount.StringFixed(2),
		Outcome:  p.Reason,
	}
	if p.Order != nil {
		o := toOrderResponse(p.Order)
		resp.Order = &o
	}
	return resp
}

func toProductResponse(p *domain.Product) ProductResponse {
	return ProductResponse{
		ID:         p.ID,
		Name:       p.Name,
		Price:      p.Price.StringFixed(2),
		Stock:      p.Stock,
		Category:   p.Category,
		Attributes: p.Attributes,
	}
}

func toProductResponses(products []domain.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(products))
	for i := range products {
		out = append(out, toProductResponse(&products[i]))
	}
	return out
}
