package purchase

import (
	"fmt"
	"time"

	"github.com/amirasaad/ledgercore/pkg/currency"
	"github.com/amirasaad/ledgercore/pkg/domain"
	"github.com/shopspring/decimal"
)

// Product is a sellable catalog item with reservable inventory.
//
// Invariants:
// - Stock and Reserved are never negative.
// - Version strictly increases on every committed mutation.
type Product struct {
	ProductID   string
	RetailerID  string
	Name        string
	Description string
	Category    string
	ImageURL    string
	Benefits    []string
	Stock       int
	Reserved    int
	Price       decimal.Decimal
	Currency    currency.Code
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks the catalog fields a product must carry before it is
// stored. The price must be positive and fit the currency's precision.
func (p *Product) Validate() error {
	if p.ProductID == "" {
		return domain.NewValidationError("product_id is required")
	}
	if !currency.IsSupported(p.Currency) {
		return domain.NewValidationError(fmt.Sprintf("Unsupported currency: %s", p.Currency))
	}
	if !p.Price.IsPositive() {
		return domain.NewValidationError("Price must be positive")
	}
	if !currency.FitsPrecision(p.Currency, p.Price) {
		return domain.NewValidationError(fmt.Sprintf(
			"Price has more than %d decimal places for %s", currency.Get(p.Currency).Decimals, p.Currency))
	}
	if p.Stock < 0 || p.Reserved < 0 {
		return domain.NewValidationError("Inventory cannot be negative")
	}
	return nil
}

// Offers reports whether the product advertises the given benefit.
func (p *Product) Offers(benefit string) bool {
	for _, b := range p.Benefits {
		if b == benefit {
			return true
		}
	}
	return false
}

// Reserve moves quantity units from stock to reserved.
func (p *Product) Reserve(quantity int) error {
	if quantity <= 0 {
		return domain.NewValidationError("quantity must be positive")
	}
	if p.Stock < quantity {
		return domain.NewInsufficientStockError(p.ProductID, p.Stock, quantity)
	}
	p.Stock -= quantity
	p.Reserved += quantity
	return nil
}

// Release returns quantity units from reserved back to stock.
// Reserved is floored at zero so a release never drives it negative.
func (p *Product) Release(quantity int) {
	p.Stock += quantity
	p.Reserved -= quantity
	if p.Reserved < 0 {
		p.Reserved = 0
	}
}

// Total returns price times quantity.
func (p *Product) Total(quantity int) decimal.Decimal {
	return p.Price.Mul(decimal.NewFromInt(int64(quantity)))
}
