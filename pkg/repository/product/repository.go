package product

import (
	"context"

	"github.com/amirasaad/ledgercore/pkg/domain/purchase"
)

// DefaultLimit caps catalog queries that do not set one.
const DefaultLimit = 20

// Query filters the catalog.
type Query struct {
	RetailerID string
	Category   string
	Limit      int
}

// Repository defines data access for products with optimistic locking.
type Repository interface {
	Get(ctx context.Context, productID string, consistent bool) (*purchase.Product, error)
	Create(ctx context.Context, p *purchase.Product) error
	// ConditionalUpdate persists stock and reserved only if the stored version
	// equals expectedVersion. Returns domain.ErrVersionConflict otherwise.
	ConditionalUpdate(ctx context.Context, p *purchase.Product, expectedVersion int64) error
	Query(ctx context.Context, q Query) ([]*purchase.Product, error)
}
