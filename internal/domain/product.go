package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID         string            `json:"id" gorm:"primaryKey;size:64"`
	Name       string            `json:"name" gorm:"not null"`
	Price      decimal.Decimal   `json:"price" gorm:"type:decimal(12,2);not null"`
	Stock      int               `json:"stock" gorm:"not null"`
	Category   string            `json:"category,omitempty" gorm:"index;size:32"`
	Attributes map[string]string `json:"attributes,omitempty" gorm:"serializer:json"`
	CreatedAt  time.Time         `json:"createdAt"`
}

func (p *Product) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return Validationf("product id is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return Validationf("product name is required")
	}
	if p.Price.IsNegative() {
		return Validationf("product %s price must not be negative", p.ID)
	}
	if p.Stock < 0 {
		return Validationf("product %s stock must not be negative", p.ID)
	}
	return nil
}

func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	c := *p
	if p.Attributes != nil {
		c.Attributes = make(map[string]string, len(p.Attributes))
		for k, v := range p.Attributes {
			c.Attributes[k] = v
		}
	}
	return &c
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
