package beneficiary

import (
	"context"

	"github.com/amirasaad/ledgercore/pkg/domain/beneficiary"
)

// Repository defines data access for saved beneficiaries.
type Repository interface {
	// Create returns domain.ErrAlreadyExists when (user, alias) is taken.
	Create(ctx context.Context, b *beneficiary.Beneficiary) error
	// FindByAlias looks up the alias index with an already normalized alias.
	FindByAlias(ctx context.Context, userID, aliasLower string) (*beneficiary.Beneficiary, error)
	// ListByUser returns beneficiaries in stable enumeration order.
	ListByUser(ctx context.Context, userID string) ([]*beneficiary.Beneficiary, error)
}
