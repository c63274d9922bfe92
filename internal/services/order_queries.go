package services

import (
	"context"
	"time"

	"checkout-service/internal/domain"
)

// Read side of the coordinator. Repositories hand out copies, so callers can
// never reach the stored orders through these results.

func (c *OrderCoordinator) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	o, err := c.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, domain.NotFoundf("order %s", id)
	}
	return o, nil
}

func (c *OrderCoordinator) ListOrders(ctx context.Context) ([]domain.Order, error) {
	return c.orders.FindAll(ctx)
}

func (c *OrderCoordinator) ListOrdersByCustomer(ctx context.Context, customerID string) ([]domain.Order, error) {
	if customerID == "" {
		return nil, domain.Validationf("customer id is required")
	}
	return c.orders.FindByCustomer(ctx, customerID)
}

func (c *OrderCoordinator) ListOrdersByStatus(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	parsed, ok := domain.ParseOrderStatus(string(status))
	if !ok {
		return nil, domain.Validationf("unknown order status %q", status)
	}
	return c.orders.FindByStatus(ctx, parsed)
}

// ListOrdersByDateRange returns orders created within [start, end].
func (c *OrderCoordinator) ListOrdersByDateRange(ctx context.Context, start, end time.Time) ([]domain.Order, error) {
	if end.Before(start) {
		return nil, domain.Validationf("date range end %s is before start %s", end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	return c.orders.FindByDateRange(ctx, start, end)
}
