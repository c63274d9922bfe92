package repository

import (
	"context"
	"time"

	"checkout-service/internal/domain"
)

// OrderRepository stores orders. FindByID returns (nil, nil) when the order
// does not exist. Implementations must hand out copies, never shared state.
type OrderRepository interface {
	Insert(ctx context.Context, order *domain.Order) error
	Replace(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	FindAll(ctx context.Context) ([]domain.Order, error)
	FindByCustomer(ctx context.Context, customerID string) ([]domain.Order, error)
	FindByStatus(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error)
	// FindByDateRange matches orders created within [start, end].
	FindByDateRange(ctx context.Context, start, end time.Time) ([]domain.Order, error)
}
