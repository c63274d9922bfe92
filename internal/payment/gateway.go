package payment

import (
	"context"
	"math/rand"
	"sync"
)

// DefaultRates are the per-method approval rates of the demo gateway, keyed
// by display name.
var DefaultRates = map[string]float64{
	"Credit Card":    0.80,
	"PayPal":         0.85,
	"Bank Transfer":  0.75,
	"Cryptocurrency": 0.70,
}

// SimulationRates returns the rates for a simulated gateway. A positive
// override applies to every method; otherwise DefaultRates are used.
func SimulationRates(override float64) map[string]float64 {
	rates := make(map[string]float64, len(DefaultRates))
	for m, r := range DefaultRates {
		if override > 0 {
			r = override
		}
		rates[m] = r
	}
	return rates
}

// SimulatedGateway approves a charge with a fixed probability per method.
// Methods missing from rates use fallback.
type SimulatedGateway struct {
	mu       sync.Mutex
	rnd      *rand.Rand
	rates    map[string]float64
	fallback float64
}

func NewSimulatedGateway(rnd *rand.Rand, rates map[string]float64, fallback float64) *SimulatedGateway {
	return &SimulatedGateway{rnd: rnd, rates: rates, fallback: fallback}
}

func (g *SimulatedGateway) Authorize(ctx context.Context, req ChargeRequest) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	rate := g.Rate(req.Method)

	g.mu.Lock()
	roll := g.rnd.Float64()
	g.mu.Unlock()

	return roll < rate, nil
}

func (g *SimulatedGateway) Rate(method string) float64 {
	if rate, ok := g.rates[method]; ok {
		return rate
	}
	return g.fallback
}
