package mocks

import (
	"context"
	"time"

	"checkout-service/internal/domain"
	"checkout-service/internal/payment"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockOrderRepository struct {
	mock.Mock
}

type MockProductCatalog struct {
	mock.Mock
}

type MockPublisher struct {
	mock.Mock
}

type MockPaymentMethod struct {
	mock.Mock
}

type MockGateway struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, message interface{}) error {
	args := m.Called(ctx, topic, message)
	return args.Error(0)
}

func (m *MockProductCatalog) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductCatalog) AdjustStock(ctx context.Context, id string, delta int) error {
	args := m.Called(ctx, id, delta)
	return args.Error(0)
}

func (m *MockOrderRepository) Insert(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) Replace(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order).Clone(), args.Error(1)
}

func (m *MockOrderRepository) FindAll(ctx context.Context) ([]domain.Order, error) {
	args := m.Called(ctx)
	return orders(args)
}

func (m *MockOrderRepository) FindByCustomer(ctx context.Context, customerID string) ([]domain.Order, error) {
	args := m.Called(ctx, customerID)
	return orders(args)
}

func (m *MockOrderRepository) FindByStatus(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	args := m.Called(ctx, status)
	return orders(args)
}

func (m *MockOrderRepository) FindByDateRange(ctx context.Context, start, end time.Time) ([]domain.Order, error) {
	args := m.Called(ctx, start, end)
	return orders(args)
}

func orders(args mock.Arguments) ([]domain.Order, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *MockPaymentMethod) ValidateDetails(details payment.Details) bool {
	args := m.Called(details)
	return args.Bool(0)
}

func (m *MockPaymentMethod) Charge(ctx context.Context, amount decimal.Decimal, details payment.Details) (bool, error) {
	args := m.Called(ctx, amount, details)
	return args.Bool(0), args.Error(1)
}

func (m *MockPaymentMethod) DisplayName() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockGateway) Authorize(ctx context.Context, req payment.ChargeRequest) (bool, error) {
	args := m.Called(ctx, req)
	return args.Bool(0), args.Error(1)
}
