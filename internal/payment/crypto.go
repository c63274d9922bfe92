package payment

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type cryptoDetails struct {
	WalletAddress string `validate:"required,min=26,max=62"`
	CryptoType    string `validate:"required,cryptotype"`
}

type Cryptocurrency struct {
	gateway Gateway
	log     *zap.Logger
}

func NewCryptocurrency(g Gateway, log *zap.Logger) *Cryptocurrency {
	return &Cryptocurrency{gateway: g, log: log}
}

func (c *Cryptocurrency) DisplayName() string { return "Cryptocurrency" }

func (c *Cryptocurrency) ValidateDetails(details Details) bool {
	return validate.Struct(cryptoDetails{
		WalletAddress: details.get("walletAddress"),
		CryptoType:    details.get("cryptoType"),
	}) == nil
}

func (c *Cryptocurrency) Charge(ctx context.Context, amount decimal.Decimal, details Details) (bool, error) {
	if !c.ValidateDetails(details) {
		return false, ErrInvalidDetails
	}
	w := details["walletAddress"]
	ref := w[:6] + "..." + w[len(w)-6:]
	c.log.Info("processing cryptocurrency payment",
		zap.String("amount", amount.StringFixed(2)),
		zap.String("crypto_type", details["cryptoType"]),
		zap.String("wallet", ref))

	return authorize(ctx, c.gateway, ChargeRequest{Method: c.DisplayName(), Amount: amount, Reference: ref})
}
