package purchase

import (
	"context"

	"github.com/amirasaad/ledgercore/pkg/domain/purchase"
)

// Repository defines data access for purchases.
type Repository interface {
	Create(ctx context.Context, p *purchase.Purchase) error
	Get(ctx context.Context, purchaseID string) (*purchase.Purchase, error)
	// TransitionFromPending writes p's status, transaction id and error
	// message only while the stored purchase is still pending.
	// Returns domain.ErrVersionConflict if it already left pending.
	TransitionFromPending(ctx context.Context, p *purchase.Purchase) error
}
