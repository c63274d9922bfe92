package payment

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type bankTransferDetails struct {
	RoutingNumber     string `validate:"required,len=9,digits"`
	AccountNumber     string `validate:"required,min=8,max=17,digits"`
	AccountHolderName string `validate:"required,min=2"`
}

type BankTransfer struct {
	gateway Gateway
	log     *zap.Logger
}

func NewBankTransfer(g Gateway, log *zap.Logger) *BankTransfer {
	return &BankTransfer{gateway: g, log: log}
}

func (b *BankTransfer) DisplayName() string { return "Bank Transfer" }

func (b *BankTransfer) ValidateDetails(details Details) bool {
	return validate.Struct(bankTransferDetails{
		RoutingNumber:     details.get("routingNumber"),
		AccountNumber:     details.get("accountNumber"),
		AccountHolderName: details.get("accountHolderName"),
	}) == nil
}

func (b *BankTransfer) Charge(ctx context.Context, amount decimal.Decimal, details Details) (bool, error) {
	if !b.ValidateDetails(details) {
		return false, ErrInvalidDetails
	}
	ref := maskTail(details["accountNumber"], 4)
	b.log.Info("processing bank transfer payment",
		zap.String("amount", amount.StringFixed(2)),
		zap.String("account", ref))

	return authorize(ctx, b.gateway, ChargeRequest{Method: b.DisplayName(), Amount: amount, Reference: ref})
}
