package currency

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Code
	}{
		{"empty defaults to MXN", "", MXN},
		{"blank defaults to MXN", "   ", MXN},
		{"lower case", "usd", USD},
		{"unknown stays as given", "eur", Code("EUR")},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalize(tc.in))
		})
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	assert.True(t, r.IsSupported(MXN))
	assert.True(t, r.IsSupported(USD))
	assert.False(t, r.IsSupported("EUR"))
	assert.Equal(t, []Code{MXN, USD}, r.ListSupported())

	r.Register("EUR", Meta{Decimals: 2, Symbol: "€"})
	assert.True(t, r.IsSupported("EUR"))
	assert.Equal(t, "€", r.Get("EUR").Symbol)
	assert.Equal(t, Meta{Decimals: DefaultDecimals, Symbol: "JPY"}, r.Get("JPY"))
}

func TestFitsPrecision(t *testing.T) {
	r := NewRegistry()
	r.Register("JPY", Meta{Decimals: 0, Symbol: "¥"})
	tests := []struct {
		code   Code
		amount string
		want   bool
	}{
		{MXN, "100", true},
		{MXN, "100.5", true},
		{MXN, "100.55", true},
		{MXN, "100.550", true},
		{MXN, "100.555", false},
		{MXN, "0.1234567890123456789", false},
		{USD, "-0.001", false},
		{"JPY", "500", true},
		{"JPY", "500.5", false},
	}
	for _, tc := range tests {
		t.Run(string(tc.code)+" "+tc.amount, func(t *testing.T) {
			assert.Equal(t, tc.want, r.FitsPrecision(tc.code, decimal.RequireFromString(tc.amount)))
		})
	}
}
