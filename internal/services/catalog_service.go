package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"checkout-service/internal/domain"
	"checkout-service/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type CatalogService struct {
	products repository.ProductRepository
	log      *zap.Logger
}

func NewCatalogService(products repository.ProductRepository, log *zap.Logger) *CatalogService {
	return &CatalogService{products: products, log: log}
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.NotFoundf("product %s", id)
	}
	return p, nil
}

func (s *CatalogService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.products.FindAll(ctx)
}

func (s *CatalogService) ListByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	if strings.TrimSpace(category) == "" {
		return nil, domain.Validationf("category is required")
	}
	return s.products.FindByCategory(ctx, category)
}

// CreateProduct adds a single product to the catalog.
func (s *CatalogService) CreateProduct(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	if p == nil {
		return nil, domain.Validationf("product is required")
	}
	created := p.Clone()
	created.ID = strings.TrimSpace(created.ID)
	created.Name = strings.TrimSpace(created.Name)
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}
	if err := s.products.Add(ctx, created); err != nil {
		s.log.Warn("failed to create product", zap.String("product_id", created.ID), zap.Error(err))
		return nil, err
	}

	s.log.Info("product created",
		zap.String("product_id", created.ID),
		zap.String("category", created.Category),
		zap.String("price", created.Price.StringFixed(2)),
		zap.Int("stock", created.Stock))
	return created.Clone(), nil
}

func (s *CatalogService) ListLowStock(ctx context.Context, threshold int) ([]domain.Product, error) {
	if threshold < 0 {
		return nil, domain.Validationf("threshold must not be negative, got %d", threshold)
	}
	return s.products.FindLowStock(ctx, threshold)
}

// Seed adds products that are not in the catalog yet and returns how many
// were added.
func (s *CatalogService) Seed(ctx context.Context, products []domain.Product) (int, error) {
	added := 0
	for i := range products {
		if products[i].CreatedAt.IsZero() {
			products[i].CreatedAt = time.Now().UTC()
		}
		err := s.products.Add(ctx, &products[i])
		if errors.Is(err, domain.ErrConflict) {
			continue
		}
		if err != nil {
			return added, err
		}
		added++
	}
	s.log.Info("catalog seeded", zap.Int("added", added), zap.Int("requested", len(products)))
	return added, nil
}

func DemoCatalog() []domain.Product {
	return []domain.Product{
		{
			ID: "ELEC001", Name: "Gaming Laptop", Price: decimal.RequireFromString("1299.99"), Stock: 10,
			Category:   "Electronics",
			Attributes: map[string]string{"brand": "TechBrand", "model": "GX-2024", "warrantyMonths": "24"},
		},
		{
			ID: "CLOTH001", Name: "Premium T-Shirt", Price: decimal.RequireFromString("29.99"), Stock: 50,
			Category:   "Clothing",
			Attributes: map[string]string{"size": "L", "color": "Blue", "material": "100% Cotton"},
		},
		{
			ID: "BOOK001", Name: "Design Patterns Book", Price: decimal.RequireFromString("49.99"), Stock: 25,
			Category:   "Books",
			Attributes: map[string]string{"isbn": "978-0201633610", "author": "Gang of Four", "publisher": "Addison-Wesley"},
		},
		{
			ID: "HOME001", Name: "Indoor Plant Pot", Price: decimal.RequireFromString("19.99"), Stock: 30,
			Category:   "HomeGarden",
			Attributes: map[string]string{"category": "Decorative", "indoor": "true", "dimensions": "8x8x10 inches"},
		},
	}
}

// DemoProductIDs lists the ids of DemoCatalog, used for cache warmup.
func DemoProductIDs() []string {
	demo := DemoCatalog()
	ids := make([]string, len(demo))
	for i, p := range demo {
		ids[i] = p.ID
	}
	return ids
}
