package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"checkout-service/internal/domain"
	"checkout-service/internal/repository/memory"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const (
	TestCustomerID   = "C1"
	TestCustomerName = "Alice"
	TestProductID    = "P1"
	TestProductName  = "Test Product"
	TestProductPrice = "10.00"
	TestProductStock = 5
)

var testNow = time.Date(2026, time.May, 4, 9, 30, 0, 0, time.UTC)

func CreateMockOrder(id string, status domain.OrderStatus, items ...domain.LineItem) *domain.Order {
	o := domain.NewOrder(id, TestCustomerID, TestCustomerName, testNow)
	o.Status = status
	o.Items = append(o.Items, items...)
	o.Recalculate()
	return o
}

func CreateMockProduct(id, name, price string, stock int) *domain.Product {
	return &domain.Product{
		ID:    id,
		Name:  name,
		Price: decimal.RequireFromString(price),
		Stock: stock,
	}
}

func sequentialIDs() func() string {
	var n int64
	return func() string {
		return fmt.Sprintf("order-%d", atomic.AddInt64(&n, 1))
	}
}

type fixture struct {
	coordinator *OrderCoordinator
	orders      *memory.OrderStore
	catalog     *memory.ProductCatalog
}

func newFixture(t *testing.T, products []*domain.Product, opts ...Option) *fixture {
	t.Helper()
	orders := memory.NewOrderStore()
	catalog := memory.NewProductCatalog()
	for _, p := range products {
		require.NoError(t, catalog.Add(context.Background(), p))
	}
	opts = append([]Option{WithIDGenerator(sequentialIDs()), WithClock(func() time.Time { return testNow })}, opts...)
	return &fixture{
		coordinator: NewOrderCoordinator(orders, catalog, zaptest.NewLogger(t), opts...),
		orders:      orders,
		catalog:     catalog,
	}
}

func (f *fixture) stock(t *testing.T, productID string) int {
	t.Helper()
	p, err := f.catalog.FindByID(context.Background(), productID)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p.Stock
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
