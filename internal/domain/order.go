package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending    OrderStatus = "Pending"
	StatusProcessing OrderStatus = "Processing"
	StatusShipped    OrderStatus = "Shipped"
	StatusDelivered  OrderStatus = "Delivered"
	StatusCancelled  OrderStatus = "Cancelled"
)

var transitions = map[OrderStatus][]OrderStatus{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered, StatusCancelled},
}

// ParseOrderStatus accepts a status name in any letter case.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	for _, st := range []OrderStatus{StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled} {
		if equalFold(string(st), s) {
			return st, true
		}
	}
	return "", false
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type LineItem struct {
	OrderID     string          `json:"-" gorm:"primaryKey;size:36"`
	ProductID   string          `json:"productId" gorm:"primaryKey;size:64"`
	ProductName string          `json:"productName" gorm:"not null"`
	UnitPrice   decimal.Decimal `json:"unitPrice" gorm:"type:decimal(12,2);not null"`
	Quantity    int             `json:"quantity" gorm:"not null"`
}

func (li LineItem) Subtotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

type Order struct {
	ID            string          `json:"id" gorm:"primaryKey;size:36"`
	CustomerID    string          `json:"customerId" gorm:"not null;index;size:64"`
	CustomerName  string          `json:"customerName" gorm:"not null"`
	Items         []LineItem      `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Total         decimal.Decimal `json:"total" gorm:"type:decimal(12,2);not null"`
	Status        OrderStatus     `json:"status" gorm:"type:varchar(16);index;default:'Pending'"`
	PaymentMethod string          `json:"paymentMethod,omitempty"`
	CreatedAt     time.Time       `json:"createdAt" gorm:"index"`
}

func NewOrder(id, customerID, customerName string, now time.Time) *Order {
	return &Order{
		ID:           id,
		CustomerID:   customerID,
		CustomerName: customerName,
		Items:        []LineItem{},
		Total:        decimal.Zero,
		Status:       StatusPending,
		CreatedAt:    now,
	}
}

// AddItem attaches quantity units of p, merging into an existing line for the
// same product. The price and name captured on first attach are kept.
func (o *Order) AddItem(p *Product, quantity int) {
	for i := range o.Items {
		if o.Items[i].ProductID == p.ID {
			o.Items[i].Quantity += quantity
			o.Recalculate()
			return
		}
	}
	o.Items = append(o.Items, LineItem{
		OrderID:     o.ID,
		ProductID:   p.ID,
		ProductName: p.Name,
		UnitPrice:   p.Price,
		Quantity:    quantity,
	})
	o.Recalculate()
}

func (o *Order) HasLine(productID string) bool {
	for _, li := range o.Items {
		if li.ProductID == productID {
			return true
		}
	}
	return false
}

func (o *Order) Recalculate() {
	total := decimal.Zero
	for _, li := range o.Items {
		total = total.Add(li.Subtotal())
	}
	o.Total = total
}

// Clone returns a deep copy safe to hand to callers.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	c.Items = make([]LineItem, len(o.Items))
	copy(c.Items, o.Items)
	return &c
}
