package transaction

import (
	"context"

	"github.com/amirasaad/ledgercore/pkg/domain/account"
)

// DefaultLimit caps history queries that do not set one.
const DefaultLimit = 20

// Query filters transaction history. AccountID takes precedence over UserID.
type Query struct {
	UserID    string
	AccountID string
	Limit     int
}

// Repository defines data access for the immutable transaction log.
type Repository interface {
	Create(ctx context.Context, tx *account.Transaction) error
	Get(ctx context.Context, transactionID string) (*account.Transaction, error)
	// Query returns matching transactions newest first.
	Query(ctx context.Context, q Query) ([]*account.Transaction, error)
}
