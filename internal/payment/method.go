// Package payment holds the interchangeable payment methods an order can be
// charged through. A Method validates its own detail fields and delegates the
// approve/decline decision to a Gateway.
package payment

import (
	"context"
	"errors"
	"fmt"

	"checkout-service/internal/domain"

	"github.com/shopspring/decimal"
)

// Details carries method specific fields such as cardNumber or email.
type Details map[string]string

// ErrInvalidDetails is returned by Charge when called with details that fail
// ValidateDetails. Callers are expected to validate first.
var ErrInvalidDetails = fmt.Errorf("%w: invalid payment details", domain.ErrValidation)

type Method interface {
	ValidateDetails(details Details) bool
	Charge(ctx context.Context, amount decimal.Decimal, details Details) (bool, error)
	DisplayName() string
}

// ChargeRequest is what a Gateway sees. Reference is always masked.
type ChargeRequest struct {
	Method    string
	Amount    decimal.Decimal
	Reference string
}

type Gateway interface {
	Authorize(ctx context.Context, req ChargeRequest) (bool, error)
}

// GatewayFunc adapts a function to Gateway.
type GatewayFunc func(ctx context.Context, req ChargeRequest) (bool, error)

func (f GatewayFunc) Authorize(ctx context.Context, req ChargeRequest) (bool, error) {
	return f(ctx, req)
}

// ApproveAll approves every charge that arrives before ctx is done.
var ApproveAll Gateway = GatewayFunc(func(ctx context.Context, _ ChargeRequest) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return true, nil
})

func (d Details) get(key string) string {
	if d == nil {
		return ""
	}
	return d[key]
}

func authorize(ctx context.Context, g Gateway, req ChargeRequest) (bool, error) {
	ok, err := g.Authorize(ctx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return false, err
		}
		return false, fmt.Errorf("gateway authorize %s: %w", req.Method, err)
	}
	return ok, nil
}
