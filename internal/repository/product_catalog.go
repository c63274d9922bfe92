package repository

import (
	"context"

	"checkout-service/internal/domain"
)

// ProductCatalog is the part of the catalog the order flow depends on.
// FindByID returns (nil, nil) for unknown products. AdjustStock applies delta
// atomically and fails with *domain.InsufficientStockError instead of letting
// stock go negative.
type ProductCatalog interface {
	FindByID(ctx context.Context, id string) (*domain.Product, error)
	AdjustStock(ctx context.Context, id string, delta int) error
}

type ProductRepository interface {
	ProductCatalog
	Add(ctx context.Context, p *domain.Product) error
	FindAll(ctx context.Context) ([]domain.Product, error)
	FindLowStock(ctx context.Context, threshold int) ([]domain.Product, error)
	FindByCategory(ctx context.Context, category string) ([]domain.Product, error)
}
