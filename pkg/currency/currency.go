package currency

import (
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

// Code represents an ISO 4217 currency code (e.g., "MXN", "USD").
type Code string

const (
	// MXN represents the Mexican Peso.
	MXN Code = "MXN"
	// USD represents the US Dollar.
	USD Code = "USD"

	// DefaultCurrency is used when a request omits the currency.
	DefaultCurrency = MXN
	// DefaultDecimals is the number of decimal places shown for a currency.
	DefaultDecimals = 2
)

// String returns the currency code as a string.
func (c Code) String() string {
	return string(c)
}

// Meta holds currency-specific metadata
type Meta struct {
	Decimals int
	Symbol   string
}

// Registry keeps the set of currencies the ledger accepts.
type Registry struct {
	mu         sync.RWMutex
	currencies map[Code]Meta
}

// NewRegistry creates a new registry seeded with the ledger currencies.
func NewRegistry() *Registry {
	r := &Registry{currencies: make(map[Code]Meta)}
	r.Register(MXN, Meta{Decimals: 2, Symbol: "$"})
	r.Register(USD, Meta{Decimals: 2, Symbol: "US$"})
	return r
}

// Register adds or updates a currency in the registry
func (r *Registry) Register(code Code, meta Meta) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.currencies[code] = meta
}

// Get returns metadata for the given code, falling back to defaults.
func (r *Registry) Get(code Code) Meta {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if meta, ok := r.currencies[code]; ok {
		return meta
	}
	return Meta{Decimals: DefaultDecimals, Symbol: code.String()}
}

// IsSupported checks if a currency code is registered
func (r *Registry) IsSupported(code Code) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.currencies[code]
	return ok
}

// FitsPrecision reports whether amount has no more fractional digits than
// the currency allows. Trailing zeros do not count.
func (r *Registry) FitsPrecision(code Code, amount decimal.Decimal) bool {
	places := int32(r.Get(code).Decimals)
	if amount.Exponent() >= -places {
		return true
	}
	return amount.Equal(amount.Truncate(places))
}

// ListSupported returns all supported codes in lexical order.
func (r *Registry) ListSupported() []Code {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Code, 0, len(r.currencies))
	for code := range r.currencies {
		out = append(out, code)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

var global = NewRegistry()

// Normalize upper-cases a code and applies the default when empty.
func Normalize(code string) Code {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return DefaultCurrency
	}
	return Code(code)
}

func Register(code Code, meta Meta) {
	global.Register(code, meta)
}

func Get(code Code) Meta {
	return global.Get(code)
}

func IsSupported(code Code) bool {
	return global.IsSupported(code)
}

func FitsPrecision(code Code, amount decimal.Decimal) bool {
	return global.FitsPrecision(code, amount)
}

func ListSupported() []Code {
	return global.ListSupported()
}
