package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"checkout-service/internal/domain"
	"checkout-service/internal/repository"
)

type ProductCatalog struct {
	mu       sync.RWMutex
	products map[string]*domain.Product
}

var _ repository.ProductRepository = (*ProductCatalog)(nil)

func NewProductCatalog() *ProductCatalog {
	return &ProductCatalog{products: make(map[string]*domain.Product)}
}

func (c *ProductCatalog) Add(ctx context.Context, p *domain.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.products[p.ID]; ok {
		return domain.Conflictf("product %s already exists", p.ID)
	}
	c.products[p.ID] = p.Clone()
	return nil
}

func (c *ProductCatalog) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.products[id]
	if !ok {
		return nil, nil
	}
	return p.Clone(), nil
}

func (c *ProductCatalog) AdjustStock(ctx context.Context, id string, delta int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[id]
	if !ok {
		return domain.NotFoundf("product %s", id)
	}
	if p.Stock+delta < 0 {
		return &domain.InsufficientStockError{ProductID: id, Available: p.Stock, Requested: -delta}
	}
	p.Stock += delta
	return nil
}

func (c *ProductCatalog) FindAll(ctx context.Context) ([]domain.Product, error) {
	return c.filter(ctx, func(*domain.Product) bool { return true })
}

func (c *ProductCatalog) FindLowStock(ctx context.Context, threshold int) ([]domain.Product, error) {
	return c.filter(ctx, func(p *domain.Product) bool { return p.Stock <= threshold })
}

// FindByCategory matches the category name in any letter case.
func (c *ProductCatalog) FindByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	category = strings.TrimSpace(category)
	return c.filter(ctx, func(p *domain.Product) bool { return strings.EqualFold(p.Category, category) })
}

func (c *ProductCatalog) filter(ctx context.Context, keep func(*domain.Product) bool) ([]domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	out := make([]domain.Product, 0, len(c.products))
	for _, p := range c.products {
		if keep(p) {
			out = append(out, *p.Clone())
		}
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
