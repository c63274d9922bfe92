package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"checkout-service/internal/domain"
	"checkout-service/internal/infra/idempotency"
	"checkout-service/internal/metrics"
	"checkout-service/internal/payment"
	"checkout-service/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	IdempotencyHeader = "Idempotency-Key"

	defaultLowStockThreshold = 10
)

type Handler struct {
	orders   *services.OrderCoordinator
	catalog  *services.CatalogService
	payments *payment.Registry
	idem     *idempotency.Store
	metrics  *metrics.Metrics
	log      *zap.Logger
}

// NewHandler wires the HTTP boundary. idem and m may be nil.
func NewHandler(orders *services.OrderCoordinator, catalog *services.CatalogService, payments *payment.Registry, idem *idempotency.Store, m *metrics.Metrics, log *zap.Logger) *Handler {
	return &Handler{orders: orders, catalog: catalog, payments: payments, idem: idem, metrics: m, log: log}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	if h.metrics != nil {
		r.Use(h.observe())
	}

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	orders := r.Group("/orders")
	orders.POST("", h.CreateOrder)
	orders.GET("", h.ListOrders)
	orders.GET("/:id", h.GetOrder)
	orders.POST("/:id/items", h.AddItem)
	orders.POST("/:id/payment", h.CommitPayment)
	orders.PATCH("/:id/status", h.UpdateStatus)

	products := r.Group("/products")
	products.GET("", h.ListProducts)
	products.POST("", h.CreateProduct)
	products.GET("/low-stock", h.ListLowStock)
	products.GET("/:id", h.GetProduct)

	r.GET("/payment-methods", h.ListPaymentMethods)
}

func (h *Handler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.orders.CreateOrder(c.Request.Context(), req.CustomerID, req.CustomerName)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toOrderResponse(order))
}

func (h *Handler) GetOrder(c *gin.Context) {
	order, err := h.orders.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}

// ListOrders narrows by customerId, then status, then the from/to window.
// Filters combine.
func (h *Handler) ListOrders(c *gin.Context) {
	ctx := c.Request.Context()
	customerID := c.Query("customerId")
	status := c.Query("status")
	fromStr, toStr := c.Query("from"), c.Query("to")

	var (
		from, to  time.Time
		hasWindow = fromStr != "" || toStr != ""
		err       error
	)
	if hasWindow {
		if from, to, err = parseWindow(fromStr, toStr); err != nil {
			h.writeError(c, err)
			return
		}
	}

	var orders []domain.Order
	switch {
	case customerID != "":
		orders, err = h.orders.ListOrdersByCustomer(ctx, customerID)
	case status != "":
		orders, err = h.orders.ListOrdersByStatus(ctx, domain.OrderStatus(status))
	case hasWindow:
		orders, err = h.orders.ListOrdersByDateRange(ctx, from, to)
	default:
		orders, err = h.orders.ListOrders(ctx)
	}
	if err != nil {
		h.writeError(c, err)
		return
	}

	if status != "" {
		st, ok := domain.ParseOrderStatus(status)
		if !ok {
			h.writeError(c, domain.Validationf("unknown order status %q", status))
			return
		}
		orders = filterOrders(orders, func(o *domain.Order) bool { return o.Status == st })
	}
	if hasWindow {
		if to.Before(from) {
			h.writeError(c, domain.Validationf("date range end is before start"))
			return
		}
		orders = filterOrders(orders, func(o *domain.Order) bool {
			return !o.CreatedAt.Before(from) && !o.CreatedAt.After(to)
		})
	}
	c.JSON(http.StatusOK, toOrderResponses(orders))
}

func (h *Handler) AddItem(c *gin.Context) {
	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.orders.AddItem(c.Request.Context(), c.Param("id"), req.ProductID, req.Quantity)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}

// CommitPayment charges the order. A repeated Idempotency-Key is rejected
// with 409; the key is released again unless the payment was approved.
func (h *Handler) CommitPayment(c *gin.Context) {
	var req CommitPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	method, ok := h.payments.Lookup(req.Method)
	if !ok {
		h.writeError(c, domain.Validationf("unknown payment method %q", req.Method))
		return
	}

	orderID := c.Param("id")
	claimed := ""
	if key := c.GetHeader(IdempotencyHeader); key != "" && h.idem != nil {
		idemKey := h.idem.Key("payment:"+orderID, key)
		seen, err := h.idem.Seen(c.Request.Context(), idemKey)
		switch {
		case err != nil:
			h.log.Warn("idempotency store unavailable; continuing without it",
				zap.String("order_id", orderID), zap.Error(err))
		case seen:
			h.writeError(c, domain.Conflictf("payment request %s already submitted", key))
			return
		default:
			claimed = idemKey
		}
	}

	ctx := c.Request.Context()
	if req.TimeoutMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(req.TimeoutMs)*time.Millisecond)
		defer cancel()
	}

	outcome, err := h.orders.CommitPayment(ctx, orderID, method, payment.Details(req.Details))
	if claimed != "" && (err != nil || !outcome.Approved) {
		if rerr := h.idem.Release(context.WithoutCancel(c.Request.Context()), claimed); rerr != nil {
			h.log.Warn("failed to release idempotency key", zap.String("key", claimed), zap.Error(rerr))
		}
	}
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPaymentResponse(outcome))
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.orders.UpdateStatus(c.Request.Context(), c.Param("id"), domain.OrderStatus(req.Status))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}

// ListProducts lists the whole catalog, or one category when ?category= is set.
func (h *Handler) ListProducts(c *gin.Context) {
	var (
		products []domain.Product
		err      error
	)
	if category, ok := c.GetQuery("category"); ok {
		products, err = h.catalog.ListByCategory(c.Request.Context(), category)
	} else {
		products, err = h.catalog.ListProducts(c.Request.Context())
	}
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProductResponses(products))
}

func (h *Handler) CreateProduct(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := h.catalog.CreateProduct(c.Request.Context(), req.toDomain())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toProductResponse(p))
}

func (h *Handler) GetProduct(c *gin.Context) {
	p, err := h.catalog.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProductResponse(p))
}

func (h *Handler) ListLowStock(c *gin.Context) {
	threshold := defaultLowStockThreshold
	if s := c.Query("threshold"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			h.writeError(c, domain.Validationf("threshold must be an integer, got %q", s))
			return
		}
		threshold = n
	}

	products, err := h.catalog.ListLowStock(c.Request.Context(), threshold)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProductResponses(products))
}

func (h *Handler) ListPaymentMethods(c *gin.Context) {
	names := h.payments.Names()
	out := make([]PaymentMethodResponse, 0, len(names))
	for _, k := range h.payments.Keys() {
		out = append(out, PaymentMethodResponse{Key: k, DisplayName: names[k]})
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	var stockErr *domain.InsufficientStockError
	if errors.As(err, &stockErr) {
		c.JSON(http.StatusConflict, gin.H{
			"error":     err.Error(),
			"available": stockErr.Available,
			"requested": stockErr.Requested,
		})
		return
	}

	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrInvalidState),
		errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		h.metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
		h.metrics.HTTPLatency.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func parseWindow(fromStr, toStr string) (time.Time, time.Time, error) {
	if fromStr == "" || toStr == "" {
		return time.Time{}, time.Time{}, domain.Validationf("both from and to are required for a date range")
	}
	from, err := time.Parse(time.RFC3339, fromStr)
	if err != nil {
		return time.Time{}, time.Time{}, domain.Validationf("invalid from %q: expected RFC3339", fromStr)
	}
	to, err := time.Parse(time.RFC3339, toStr)
	if err != nil {
		return time.Time{}, time.Time{}, domain.Validationf("invalid to %q: expected RFC3339", toStr)
	}
	return from, to, nil
}

func filterOrders(orders []domain.Order, keep func(*domain.Order) bool) []domain.Order {
	out := orders[:0]
	for i := range orders {
		if keep(&orders[i]) {
			out = append(out, orders[i])
		}
	}
	return out
}
