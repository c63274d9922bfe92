package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"checkout-service/internal/domain"
	"checkout-service/internal/infra"
	"checkout-service/internal/lock"
	"checkout-service/internal/metrics"
	"checkout-service/internal/payment"
	"checkout-service/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	OutcomeApproved = "approved"
	OutcomeDeclined = "declined"
	OutcomeTimeout  = "timeout"

	publishTimeout = 2 * time.Second
	// bound for writes that must outlive the caller's request
	detachedWriteTimeout = 5 * time.Second
)

// PaymentOutcome is the result of a payment attempt that reached the
// payment method. A decline is an outcome, not an error.
type PaymentOutcome struct {
	OrderID  string          `json:"orderId"`
	Approved bool            `json:"approved"`
	Method   string          `json:"method"`
	Amount   decimal.Decimal `json:"amount"`
	Reason   string          `json:"reason"`
	Order    *domain.Order   `json:"order"`
}

// OrderCoordinator is the only writer of orders. Every mutation of an order
// runs inside that order's lock; stock check and reservation for a product
// additionally run inside the product's lock, always taken after the order's.
type OrderCoordinator struct {
	orders    repository.OrderRepository
	catalog   repository.ProductCatalog
	publisher infra.PublisherInterface
	log       *zap.Logger
	metrics   *metrics.Metrics

	orderLocks   *lock.Keyed
	productLocks *lock.Keyed

	newID          func() string
	now            func() time.Time
	paymentTimeout time.Duration
	maxOrderItems  int
}

type Option func(*OrderCoordinator)

func WithPublisher(p infra.PublisherInterface) Option {
	return func(c *OrderCoordinator) { c.publisher = p }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *OrderCoordinator) { c.metrics = m }
}

func WithIDGenerator(f func() string) Option {
	return func(c *OrderCoordinator) { c.newID = f }
}

func WithClock(f func() time.Time) Option {
	return func(c *OrderCoordinator) { c.now = f }
}

// WithPaymentTimeout bounds Charge when the caller's context has no deadline.
func WithPaymentTimeout(d time.Duration) Option {
	return func(c *OrderCoordinator) { c.paymentTimeout = d }
}

func WithMaxOrderItems(n int) Option {
	return func(c *OrderCoordinator) { c.maxOrderItems = n }
}

func NewOrderCoordinator(orders repository.OrderRepository, catalog repository.ProductCatalog, log *zap.Logger, opts ...Option) *OrderCoordinator {
	c := &OrderCoordinator{
		orders:         orders,
		catalog:        catalog,
		publisher:      infra.NopPublisher{},
		log:            log,
		orderLocks:     lock.NewKeyed(),
		productLocks:   lock.NewKeyed(),
		newID:          uuid.NewString,
		now:            time.Now,
		paymentTimeout: 30 * time.Second,
		maxOrderItems:  50,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *OrderCoordinator) CreateOrder(ctx context.Context, customerID, customerName string) (*domain.Order, error) {
	customerID = strings.TrimSpace(customerID)
	customerName = strings.TrimSpace(customerName)
	if customerID == "" {
		return nil, domain.Validationf("customer id is required")
	}
	if customerName == "" {
		return nil, domain.Validationf("customer name is required")
	}

	order := domain.NewOrder(c.newID(), customerID, customerName, c.now().UTC())
	if err := c.orders.Insert(ctx, order); err != nil {
		c.log.Error("failed to create order", zap.String("customer_id", customerID), zap.Error(err))
		return nil, err
	}

	c.log.Info("order created",
		zap.String("order_id", order.ID),
		zap.String("customer_id", customerID),
		zap.String("customer_name", customerName))
	if c.metrics != nil {
		c.metrics.OrdersCreated.Inc()
	}
	c.publish(ctx, domain.EventOrderCreated, domain.OrderCreatedEvent{
		OrderID:      order.ID,
		CustomerID:   order.CustomerID,
		CustomerName: order.CustomerName,
		CreatedAt:    order.CreatedAt,
	})
	return order.Clone(), nil
}

// AddItem reserves quantity units of productID and attaches them to the
// order. Returns the updated order snapshot.
func (c *OrderCoordinator) AddItem(ctx context.Context, orderID, productID string, quantity int) (*domain.Order, error) {
	if quantity <= 0 {
		return nil, domain.Validationf("quantity must be positive, got %d", quantity)
	}
	if strings.TrimSpace(productID) == "" {
		return nil, domain.Validationf("product id is required")
	}

	order, err := c.addItem(ctx, orderID, productID, quantity)
	if err != nil {
		c.log.Warn("failed to add item",
			zap.String("order_id", orderID),
			zap.String("product_id", productID),
			zap.Int("quantity", quantity),
			zap.Error(err))
		return nil, err
	}

	c.log.Info("item added",
		zap.String("order_id", orderID),
		zap.String("product_id", productID),
		zap.Int("quantity", quantity),
		zap.String("total", order.Total.StringFixed(2)))
	if c.metrics != nil {
		c.metrics.ItemsAdded.Inc()
	}
	c.publish(ctx, domain.EventOrderItemAdded, domain.OrderItemAddedEvent{
		OrderID:   orderID,
		ProductID: productID,
		Quantity:  quantity,
		Total:     order.Total,
	})
	return order, nil
}

func (c *OrderCoordinator) addItem(ctx context.Context, orderID, productID string, quantity int) (*domain.Order, error) {
	unlock := c.orderLocks.Lock(orderID)
	defer unlock()

	order, err := c.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.NotFoundf("order %s", orderID)
	}
	if order.Status != domain.StatusPending {
		return nil, domain.InvalidStatef("cannot add items to order %s in status %s", orderID, order.Status)
	}
	if !order.HasLine(productID) && len(order.Items) >= c.maxOrderItems {
		return nil, domain.Validationf("order %s already has the maximum of %d line items", orderID, c.maxOrderItems)
	}

	unlockProduct := c.productLocks.Lock(productID)
	defer unlockProduct()

	product, err := c.catalog.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.NotFoundf("product %s", productID)
	}
	if product.Stock < quantity {
		return nil, &domain.InsufficientStockError{ProductID: productID, Available: product.Stock, Requested: quantity}
	}

	if err := c.catalog.AdjustStock(ctx, productID, -quantity); err != nil {
		return nil, err
	}

	order.AddItem(product, quantity)
	if err := c.orders.Replace(ctx, order); err != nil {
		return nil, c.rollbackStock(ctx, orderID, productID, quantity, err)
	}
	return order.Clone(), nil
}

// rollbackStock returns reserved units after the order write failed. The
// rollback ignores caller cancellation so it is not lost to a closed request.
func (c *OrderCoordinator) rollbackStock(ctx context.Context, orderID, productID string, quantity int, cause error) error {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), detachedWriteTimeout)
	defer cancel()

	if err := c.catalog.AdjustStock(rctx, productID, quantity); err != nil {
		c.log.Error("stock rollback failed; catalog and order are out of sync",
			zap.String("order_id", orderID),
			zap.String("product_id", productID),
			zap.Int("quantity", quantity),
			zap.NamedError("cause", cause),
			zap.Error(err))
		return errors.Join(cause, fmt.Errorf("stock rollback for product %s: %w", productID, err))
	}

	c.log.Warn("order write failed; stock rolled back",
		zap.String("order_id", orderID),
		zap.String("product_id", productID),
		zap.Int("quantity", quantity),
		zap.Error(cause))
	if c.metrics != nil {
		c.metrics.StockRollbacks.Inc()
	}
	return cause
}

// CommitPayment charges the order total through method. Only a Pending order
// with at least one item can be charged, and only one charge ever succeeds.
func (c *OrderCoordinator) CommitPayment(ctx context.Context, orderID string, method payment.Method, details payment.Details) (*PaymentOutcome, error) {
	if method == nil {
		return nil, domain.Validationf("payment method is required")
	}

	outcome, err := c.commitPayment(ctx, orderID, method, details)
	if err != nil {
		c.log.Warn("payment not attempted",
			zap.String("order_id", orderID),
			zap.String("method", method.DisplayName()),
			zap.Error(err))
		return nil, err
	}

	fields := []zap.Field{
		zap.String("order_id", orderID),
		zap.String("method", outcome.Method),
		zap.String("amount", outcome.Amount.StringFixed(2)),
		zap.String("outcome", outcome.Reason),
	}
	if outcome.Approved {
		c.log.Info("payment approved", fields...)
		c.publish(ctx, domain.EventOrderPaid, domain.OrderPaymentEvent{
			OrderID: orderID, PaymentMethod: outcome.Method, Amount: outcome.Amount,
		})
	} else {
		c.log.Warn("payment failed", fields...)
		c.publish(ctx, domain.EventOrderPaymentDeclined, domain.OrderPaymentEvent{
			OrderID: orderID, PaymentMethod: outcome.Method, Amount: outcome.Amount, Reason: outcome.Reason,
		})
	}
	return outcome, nil
}

func (c *OrderCoordinator) commitPayment(ctx context.Context, orderID string, method payment.Method, details payment.Details) (*PaymentOutcome, error) {
	unlock := c.orderLocks.Lock(orderID)
	defer unlock()

	order, err := c.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.NotFoundf("order %s", orderID)
	}
	if order.Status != domain.StatusPending {
		return nil, domain.InvalidStatef("order %s is %s; payment already committed or order closed", orderID, order.Status)
	}
	if len(order.Items) == 0 {
		return nil, domain.InvalidStatef("order %s has no items", orderID)
	}
	if !method.ValidateDetails(details) {
		return nil, domain.Validationf("invalid %s payment details", method.DisplayName())
	}

	name := method.DisplayName()
	approved, reason, err := c.charge(ctx, method, order.Total, details)
	if c.metrics != nil {
		c.metrics.Payments.WithLabelValues(name, reason).Inc()
	}
	if err != nil {
		return nil, err
	}

	outcome := &PaymentOutcome{
		OrderID:  orderID,
		Approved: approved,
		Method:   name,
		Amount:   order.Total,
		Reason:   reason,
	}
	if !approved {
		outcome.Order = order.Clone()
		return outcome, nil
	}

	// The money has moved; recording it must not depend on the caller
	// still waiting.
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), detachedWriteTimeout)
	defer cancel()

	order.Status = domain.StatusProcessing
	order.PaymentMethod = name
	if err := c.orders.Replace(wctx, order); err != nil {
		c.log.Error("payment approved but order write failed",
			zap.String("order_id", orderID),
			zap.String("method", name),
			zap.String("amount", order.Total.StringFixed(2)),
			zap.Error(err))
		return nil, err
	}
	outcome.Order = order.Clone()
	return outcome, nil
}

type chargeResult struct {
	approved bool
	err      error
}

// charge runs Charge bounded by ctx, or by the payment timeout when ctx has
// no deadline. Running out of time counts as a failed payment.
func (c *OrderCoordinator) charge(ctx context.Context, method payment.Method, amount decimal.Decimal, details payment.Details) (bool, string, error) {
	chargeCtx := ctx
	if _, ok := ctx.Deadline(); !ok && c.paymentTimeout > 0 {
		var cancel context.CancelFunc
		chargeCtx, cancel = context.WithTimeout(ctx, c.paymentTimeout)
		defer cancel()
	}

	start := time.Now()
	done := make(chan chargeResult, 1)
	go func() {
		ok, err := method.Charge(chargeCtx, amount, details)
		done <- chargeResult{approved: ok, err: err}
	}()

	var res chargeResult
	select {
	case res = <-done:
	case <-chargeCtx.Done():
		res = chargeResult{err: chargeCtx.Err()}
	}
	if c.metrics != nil {
		c.metrics.ChargeDuration.Observe(time.Since(start).Seconds())
	}

	switch {
	case res.err != nil && (errors.Is(res.err, context.DeadlineExceeded) || errors.Is(res.err, context.Canceled)):
		return false, OutcomeTimeout, nil
	case res.err != nil:
		return false, "error", res.err
	case res.approved:
		return true, OutcomeApproved, nil
	default:
		return false, OutcomeDeclined, nil
	}
}

// UpdateStatus moves the order along Pending→Processing→Shipped→Delivered,
// or to Cancelled from any state before Delivered.
func (c *OrderCoordinator) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) (*domain.Order, error) {
	parsed, ok := domain.ParseOrderStatus(string(status))
	if !ok {
		return nil, domain.Validationf("unknown order status %q", status)
	}
	status = parsed

	unlock := c.orderLocks.Lock(orderID)
	order, err := c.orders.FindByID(ctx, orderID)
	if err != nil {
		unlock()
		return nil, err
	}
	if order == nil {
		unlock()
		return nil, domain.NotFoundf("order %s", orderID)
	}
	from := order.Status
	if !from.CanTransitionTo(status) {
		unlock()
		return nil, &domain.InvalidTransitionError{From: from, To: status}
	}
	order.Status = status
	err = c.orders.Replace(ctx, order)
	unlock()
	if err != nil {
		c.log.Error("failed to update order status", zap.String("order_id", orderID), zap.Error(err))
		return nil, err
	}

	c.log.Info("order status updated",
		zap.String("order_id", orderID),
		zap.String("from", string(from)),
		zap.String("to", string(status)))
	if c.metrics != nil {
		c.metrics.StatusTransitions.WithLabelValues(string(status)).Inc()
	}
	c.publish(ctx, domain.EventOrderStatusChanged, domain.OrderStatusChangedEvent{OrderID: orderID, From: from, To: status})
	return order.Clone(), nil
}

func (c *OrderCoordinator) publish(ctx context.Context, routingKey string, evt any) {
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := c.publisher.Publish(pctx, routingKey, evt); err != nil {
		c.log.Error("failed to publish event", zap.String("event", routingKey), zap.Error(err))
	}
}
