package payment

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type creditCardDetails struct {
	CardNumber     string `validate:"required,len=16,digits"`
	ExpiryDate     string `validate:"required,mmyy"`
	CVV            string `validate:"required,len=3,digits"`
	CardHolderName string `validate:"required"`
}

type CreditCard struct {
	gateway Gateway
	log     *zap.Logger
	now     func() time.Time
}

func NewCreditCard(g Gateway, log *zap.Logger) *CreditCard {
	return &CreditCard{gateway: g, log: log, now: time.Now}
}

func (c *CreditCard) DisplayName() string { return "Credit Card" }

func (c *CreditCard) ValidateDetails(details Details) bool {
	d := creditCardDetails{
		CardNumber:     details.get("cardNumber"),
		ExpiryDate:     details.get("expiryDate"),
		CVV:            details.get("cvv"),
		CardHolderName: details.get("cardHolderName"),
	}
	if err := validate.Struct(d); err != nil {
		return false
	}
	end, ok := expiryEnd(d.ExpiryDate)
	if !ok {
		return false
	}
	return c.now().Before(end)
}

func (c *CreditCard) Charge(ctx context.Context, amount decimal.Decimal, details Details) (bool, error) {
	if !c.ValidateDetails(details) {
		return false, ErrInvalidDetails
	}
	ref := "****-****-****-" + details["cardNumber"][12:]
	c.log.Info("processing credit card payment",
		zap.String("amount", amount.StringFixed(2)),
		zap.String("card", ref))

	return authorize(ctx, c.gateway, ChargeRequest{Method: c.DisplayName(), Amount: amount, Reference: ref})
}
