package purchase

import (
	"time"

	"github.com/amirasaad/ledgercore/pkg/currency"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the saga state of a purchase.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Purchase tracks one buy through reservation, payment and settlement.
// Status moves pending -> completed or pending -> failed, never back.
type Purchase struct {
	PurchaseID     string
	UserID         string
	ProductID      string
	RetailerID     string
	Quantity       int
	UnitPrice      decimal.Decimal
	TotalAmount    decimal.Decimal
	Currency       currency.Code
	BenefitApplied string
	Status         Status
	TransactionID  string
	ErrorMessage   string
	CorrelationID  string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewPending creates the pending purchase for a reserved product.
func NewPending(userID string, product *Product, quantity int, benefit, correlationID string) *Purchase {
	now := time.Now().UTC()
	return &Purchase{
		PurchaseID:     uuid.NewString(),
		UserID:         userID,
		ProductID:      product.ProductID,
		RetailerID:     product.RetailerID,
		Quantity:       quantity,
		UnitPrice:      product.Price,
		TotalAmount:    product.Total(quantity),
		Currency:       product.Currency,
		BenefitApplied: benefit,
		Status:         StatusPending,
		CorrelationID:  correlationID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// IsTerminal reports whether the purchase has left the pending state.
func (p *Purchase) IsTerminal() bool {
	return p.Status == StatusCompleted || p.Status == StatusFailed
}
