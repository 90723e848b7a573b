package beneficiary

import (
	"context"

	"github.com/amirasaad/ledgercore/infra/repository/common"
	"github.com/amirasaad/ledgercore/pkg/domain/beneficiary"
	repo "github.com/amirasaad/ledgercore/pkg/repository/beneficiary"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

// New creates a beneficiary repository bound to db.
func New(db *gorm.DB) repo.Repository {
	return &repository{db: db}
}

// Create implements beneficiary.Repository.
func (r *repository) Create(ctx context.Context, b *beneficiary.Beneficiary) error {
	return common.WrapError(func() error {
		return r.db.WithContext(ctx).Create(fromDomain(b)).Error
	})
}

// FindByAlias implements beneficiary.Repository.
func (r *repository) FindByAlias(ctx context.Context, userID, aliasLower string) (*beneficiary.Beneficiary, error) {
	var m Beneficiary
	if err := common.WrapError(func() error {
		return r.db.WithContext(ctx).
			Where("user_id = ? AND alias_lower = ?", userID, aliasLower).
			Take(&m).Error
	}); err != nil {
		return nil, err
	}
	return toDomain(&m), nil
}

// ListByUser implements beneficiary.Repository.
func (r *repository) ListByUser(ctx context.Context, userID string) ([]*beneficiary.Beneficiary, error) {
	var ms []Beneficiary
	if err := common.WrapError(func() error {
		return r.db.WithContext(ctx).
			Where("user_id = ?", userID).
			Order("created_at asc, beneficiary_id asc").
			Find(&ms).Error
	}); err != nil {
		return nil, err
	}
	out := make([]*beneficiary.Beneficiary, 0, len(ms))
	for i := range ms {
		out = append(out, toDomain(&ms[i]))
	}
	return out, nil
}

func fromDomain(b *beneficiary.Beneficiary) *Beneficiary {
	return &Beneficiary{
		BeneficiaryID: b.BeneficiaryID,
		UserID:        b.UserID,
		Name:          b.Name,
		Alias:         b.Alias,
		AliasLower:    b.AliasLower,
		AccountID:     b.AccountID,
		Relationship:  b.Relationship,
		CreatedAt:     b.CreatedAt,
	}
}

func toDomain(m *Beneficiary) *beneficiary.Beneficiary {
	return &beneficiary.Beneficiary{
		BeneficiaryID: m.BeneficiaryID,
		UserID:        m.UserID,
		Name:          m.Name,
		Alias:         m.Alias,
		AliasLower:    m.AliasLower,
		AccountID:     m.AccountID,
		Relationship:  m.Relationship,
		CreatedAt:     m.CreatedAt,
	}
}
