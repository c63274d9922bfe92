package payment

import (
	"sort"
	"strings"

	"go.uber.org/zap"
)

const (
	KeyCreditCard     = "credit_card"
	KeyPayPal         = "paypal"
	KeyBankTransfer   = "bank_transfer"
	KeyCryptocurrency = "crypto"
)

// Registry resolves the method a caller names to its implementation.
type Registry struct {
	methods map[string]Method
}

func NewRegistry() *Registry {
	return &Registry{methods: make(map[string]Method)}
}

// NewDefaultRegistry registers the four built-in methods against g.
func NewDefaultRegistry(g Gateway, log *zap.Logger) *Registry {
	r := NewRegistry()
	r.Register(KeyCreditCard, NewCreditCard(g, log))
	r.Register(KeyPayPal, NewPayPal(g, log))
	r.Register(KeyBankTransfer, NewBankTransfer(g, log))
	r.Register(KeyCryptocurrency, NewCryptocurrency(g, log))
	return r
}

func (r *Registry) Register(key string, m Method) {
	r.methods[strings.ToLower(key)] = m
}

func (r *Registry) Lookup(key string) (Method, bool) {
	m, ok := r.methods[strings.ToLower(strings.TrimSpace(key))]
	return m, ok
}

// Names maps every registered key to its display name.
func (r *Registry) Names() map[string]string {
	out := make(map[string]string, len(r.methods))
	for k, m := range r.methods {
		out[k] = m.DisplayName()
	}
	return out
}

func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.methods))
	for k := range r.methods {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
