package payment

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"checkout-service/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func fixedNow() time.Time {
	return time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)
}

func validCard() Details {
	return Details{
		"cardNumber":     "4111111111111111",
		"expiryDate":     "12/27",
		"cvv":            "123",
		"cardHolderName": "Alice Doe",
	}
}

func with(d Details, key, value string) Details {
	out := Details{}
	for k, v := range d {
		out[k] = v
	}
	out[key] = value
	return out
}

func without(d Details, key string) Details {
	out := Details{}
	for k, v := range d {
		out[k] = v
	}
	delete(out, key)
	return out
}

func TestCreditCard_ValidateDetails(t *testing.T) {
	tests := []struct {
		name    string
		details Details
		want    bool
	}{
		{"valid card", validCard(), true},
		{"15 digit card number", with(validCard(), "cardNumber", "411111111111111"), false},
		{"17 digit card number", with(validCard(), "cardNumber", "41111111111111112"), false},
		{"non digit card number", with(validCard(), "cardNumber", "4111-1111-1111-11"), false},
		{"4 digit cvv", with(validCard(), "cvv", "1234"), false},
		{"non digit cvv", with(validCard(), "cvv", "12a"), false},
		{"expired last year", with(validCard(), "expiryDate", "12/25"), false},
		{"expires this month", with(validCard(), "expiryDate", "03/26"), true},
		{"expired last month", with(validCard(), "expiryDate", "02/26"), false},
		{"malformed expiry", with(validCard(), "expiryDate", "2027-12"), false},
		{"invalid month", with(validCard(), "expiryDate", "13/27"), false},
		{"missing holder", without(validCard(), "cardHolderName"), false},
		{"missing cvv", without(validCard(), "cvv"), false},
		{"nil details", nil, false},
	}

	cc := NewCreditCard(ApproveAll, zap.NewNop())
	cc.now = fixedNow

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cc.ValidateDetails(tt.details))
		})
	}
}

func TestPayPal_ValidateDetails(t *testing.T) {
	valid := Details{"email": "alice@example.com", "password": "secret1"}
	tests := []struct {
		name    string
		details Details
		want    bool
	}{
		{"valid", valid, true},
		{"email without at", with(valid, "email", "alice.example.com"), false},
		{"email without dot", with(valid, "email", "alice@example"), false},
		{"short password", with(valid, "password", "12345"), false},
		{"six char password", with(valid, "password", "123456"), true},
		{"missing password", without(valid, "password"), false},
	}

	pp := NewPayPal(ApproveAll, zap.NewNop())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pp.ValidateDetails(tt.details))
		})
	}
}

func TestBankTransfer_ValidateDetails(t *testing.T) {
	valid := Details{"routingNumber": "021000021", "accountNumber": "12345678", "accountHolderName": "Al"}
	tests := []struct {
		name    string
		details Details
		want    bool
	}{
		{"valid", valid, true},
		{"routing 8 digits", with(valid, "routingNumber", "02100002"), false},
		{"routing with letter", with(valid, "routingNumber", "02100002x"), false},
		{"account 7 digits", with(valid, "accountNumber", "1234567"), false},
		{"account 17 digits", with(valid, "accountNumber", "12345678901234567"), true},
		{"account 18 digits", with(valid, "accountNumber", "123456789012345678"), false},
		{"holder single char", with(valid, "accountHolderName", "A"), false},
		{"missing holder", without(valid, "accountHolderName"), false},
	}

	bt := NewBankTransfer(ApproveAll, zap.NewNop())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, bt.ValidateDetails(tt.details))
		})
	}
}

func TestCryptocurrency_ValidateDetails(t *testing.T) {
	valid := Details{"walletAddress": "1BvBMSEYstWetqTFn5Au4m4GFg7xJaNVN2", "cryptoType": "Bitcoin"}
	tests := []struct {
		name    string
		details Details
		want    bool
	}{
		{"valid", valid, true},
		{"type case insensitive", with(valid, "cryptoType", "eThErEuM"), true},
		{"unknown type", with(valid, "cryptoType", "Monero"), false},
		{"wallet too short", with(valid, "walletAddress", "1BvBMSEYstWetqTFn5Au4m4GF"), false},
		{"wallet 62 chars", with(valid, "walletAddress", "bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdqbc1qar0srrr7xfkvy5l6"), true},
		{"missing type", without(valid, "cryptoType"), false},
	}

	cr := NewCryptocurrency(ApproveAll, zap.NewNop())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cr.ValidateDetails(tt.details))
		})
	}
}

func TestCharge_DelegatesMaskedRequestToGateway(t *testing.T) {
	var got ChargeRequest
	g := GatewayFunc(func(ctx context.Context, req ChargeRequest) (bool, error) {
		got = req
		return false, nil
	})

	cc := NewCreditCard(g, zap.NewNop())
	cc.now = fixedNow

	ok, err := cc.Charge(context.Background(), decimal.RequireFromString("20.00"), validCard())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "Credit Card", got.Method)
	assert.Equal(t, "****-****-****-1111", got.Reference)
	assert.True(t, decimal.RequireFromString("20").Equal(got.Amount))
}

func TestCharge_RejectsInvalidDetailsWithoutCallingGateway(t *testing.T) {
	calls := 0
	g := GatewayFunc(func(ctx context.Context, req ChargeRequest) (bool, error) {
		calls++
		return true, nil
	})

	methods := []Method{
		NewCreditCard(g, zap.NewNop()),
		NewPayPal(g, zap.NewNop()),
		NewBankTransfer(g, zap.NewNop()),
		NewCryptocurrency(g, zap.NewNop()),
	}
	for _, m := range methods {
		t.Run(m.DisplayName(), func(t *testing.T) {
			ok, err := m.Charge(context.Background(), decimal.NewFromInt(1), Details{})
			assert.False(t, ok)
			assert.ErrorIs(t, err, ErrInvalidDetails)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
	assert.Zero(t, calls)
}

func TestCharge_WrapsGatewayFailure(t *testing.T) {
	g := GatewayFunc(func(ctx context.Context, req ChargeRequest) (bool, error) {
		return false, errors.New("connection reset")
	})
	pp := NewPayPal(g, zap.NewNop())

	ok, err := pp.Charge(context.Background(), decimal.NewFromInt(5), Details{"email": "a@b.io", "password": "hunter22"})
	assert.False(t, ok)
	assert.EqualError(t, err, "gateway authorize PayPal: connection reset")
}

func TestSimulatedGateway_Authorize(t *testing.T) {
	ctx := context.Background()
	rnd := rand.New(rand.NewSource(1))

	always := NewSimulatedGateway(rnd, nil, 1)
	never := NewSimulatedGateway(rnd, map[string]float64{"PayPal": 0}, 1)

	for i := 0; i < 20; i++ {
		ok, err := always.Authorize(ctx, ChargeRequest{Method: "PayPal"})
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = never.Authorize(ctx, ChargeRequest{Method: "PayPal"})
		require.NoError(t, err)
		assert.False(t, ok)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	ok, err := always.Authorize(cancelled, ChargeRequest{Method: "PayPal"})
	assert.False(t, ok)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSimulatedGateway_PerMethodRates(t *testing.T) {
	g := NewSimulatedGateway(rand.New(rand.NewSource(1)), SimulationRates(0), 0.5)

	assert.Equal(t, 0.80, g.Rate("Credit Card"))
	assert.Equal(t, 0.85, g.Rate("PayPal"))
	assert.Equal(t, 0.75, g.Rate("Bank Transfer"))
	assert.Equal(t, 0.70, g.Rate("Cryptocurrency"))
	assert.Equal(t, 0.5, g.Rate("Gift Card"))

	// every registered method has a rate under its display name
	for _, name := range NewDefaultRegistry(ApproveAll, zap.NewNop()).Names() {
		_, ok := DefaultRates[name]
		assert.True(t, ok, name)
	}

	overridden := NewSimulatedGateway(rand.New(rand.NewSource(1)), SimulationRates(0.25), 0.5)
	assert.Equal(t, 0.25, overridden.Rate("PayPal"))
	assert.Equal(t, 0.25, overridden.Rate("Cryptocurrency"))
	assert.Equal(t, 0.80, DefaultRates["Credit Card"], "override must not mutate the defaults")
}

func TestSimulatedGateway_ApprovalFrequencyFollowsRate(t *testing.T) {
	g := NewSimulatedGateway(rand.New(rand.NewSource(42)), SimulationRates(0), 0)

	approved := 0
	const n = 4000
	for i := 0; i < n; i++ {
		ok, err := g.Authorize(context.Background(), ChargeRequest{Method: "Cryptocurrency"})
		require.NoError(t, err)
		if ok {
			approved++
		}
	}
	assert.InDelta(t, 0.70, float64(approved)/n, 0.05)
}

func TestRegistry_Lookup(t *testing.T) {
	r := NewDefaultRegistry(ApproveAll, zap.NewNop())

	m, ok := r.Lookup(" Credit_Card ")
	require.True(t, ok)
	assert.Equal(t, "Credit Card", m.DisplayName())

	_, ok = r.Lookup("cheque")
	assert.False(t, ok)

	assert.Equal(t, []string{KeyBankTransfer, KeyCreditCard, KeyCryptocurrency, KeyPayPal}, r.Keys())
	assert.Equal(t, "Cryptocurrency", r.Names()[KeyCryptocurrency])
}
