package account

import (
	"context"

	"github.com/amirasaad/ledgercore/pkg/domain/account"
)

// Repository defines data access for accounts with optimistic locking.
type Repository interface {
	// Get loads an account. consistent=true forces a primary read.
	// Returns domain.ErrNotFound when absent.
	Get(ctx context.Context, accountID string, consistent bool) (*account.Account, error)

	// Create inserts a new account at its current version.
	Create(ctx context.Context, acc *account.Account) error

	// ConditionalUpdate persists acc only if the stored version equals
	// expectedVersion, writing expectedVersion+1. Returns
	// domain.ErrVersionConflict otherwise. On success acc.Version is bumped.
	ConditionalUpdate(ctx context.Context, acc *account.Account, expectedVersion int64) error

	// ListByUser lists a user's accounts ordered by creation time.
	ListByUser(ctx context.Context, userID string) ([]*account.Account, error)
}
