// Package memory keeps orders and products in process memory.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"checkout-service/internal/domain"
	"checkout-service/internal/repository"
)

type OrderStore struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
}

var _ repository.OrderRepository = (*OrderStore)(nil)

func NewOrderStore() *OrderStore {
	return &OrderStore{orders: make(map[string]*domain.Order)}
}

func (s *OrderStore) Insert(ctx context.Context, order *domain.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[order.ID]; ok {
		return domain.Conflictf("order %s already exists", order.ID)
	}
	s.orders[order.ID] = order.Clone()
	return nil
}

func (s *OrderStore) Replace(ctx context.Context, order *domain.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[order.ID]; !ok {
		return domain.NotFoundf("order %s", order.ID)
	}
	s.orders[order.ID] = order.Clone()
	return nil
}

func (s *OrderStore) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, nil
	}
	return o.Clone(), nil
}

func (s *OrderStore) FindAll(ctx context.Context) ([]domain.Order, error) {
	return s.filter(ctx, func(*domain.Order) bool { return true })
}

func (s *OrderStore) FindByCustomer(ctx context.Context, customerID string) ([]domain.Order, error) {
	return s.filter(ctx, func(o *domain.Order) bool { return o.CustomerID == customerID })
}

func (s *OrderStore) FindByStatus(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	return s.filter(ctx, func(o *domain.Order) bool { return o.Status == status })
}

func (s *OrderStore) FindByDateRange(ctx context.Context, start, end time.Time) ([]domain.Order, error) {
	return s.filter(ctx, func(o *domain.Order) bool {
		return !o.CreatedAt.Before(start) && !o.CreatedAt.After(end)
	})
}

func (s *OrderStore) filter(ctx context.Context, keep func(*domain.Order) bool) ([]domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]domain.Order, 0, len(s.orders))
	for _, o := range s.orders {
		if keep(o) {
			out = append(out, *o.Clone())
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
