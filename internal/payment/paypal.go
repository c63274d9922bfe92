package payment

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type payPalDetails struct {
	Email    string `validate:"required,contains=@,contains=."`
	Password string `validate:"required,min=6"`
}

type PayPal struct {
	gateway Gateway
	log     *zap.Logger
}

func NewPayPal(g Gateway, log *zap.Logger) *PayPal {
	return &PayPal{gateway: g, log: log}
}

func (p *PayPal) DisplayName() string { return "PayPal" }

func (p *PayPal) ValidateDetails(details Details) bool {
	return validate.Struct(payPalDetails{
		Email:    details.get("email"),
		Password: details.get("password"),
	}) == nil
}

func (p *PayPal) Charge(ctx context.Context, amount decimal.Decimal, details Details) (bool, error) {
	if !p.ValidateDetails(details) {
		return false, ErrInvalidDetails
	}
	p.log.Info("processing paypal payment",
		zap.String("amount", amount.StringFixed(2)),
		zap.String("email", details["email"]))

	return authorize(ctx, p.gateway, ChargeRequest{Method: p.DisplayName(), Amount: amount, Reference: details["email"]})
}
