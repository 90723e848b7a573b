package account

import (
	"context"
	"errors"
	"time"

	"github.com/amirasaad/ledgercore/infra/repository/common"
	"github.com/amirasaad/ledgercore/pkg/currency"
	"github.com/amirasaad/ledgercore/pkg/domain"
	"github.com/amirasaad/ledgercore/pkg/domain/account"
	repo "github.com/amirasaad/ledgercore/pkg/repository/account"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"
)

type repository struct {
	db *gorm.DB
}

// New creates an account repository bound to db, which may be a transaction.
func New(db *gorm.DB) repo.Repository {
	return &repository{db: db}
}

// Get implements account.Repository.
func (r *repository) Get(ctx context.Context, accountID string, consistent bool) (*account.Account, error) {
	q := r.db.WithContext(ctx)
	if consistent {
		q = q.Clauses(dbresolver.Write)
	}
	var m Account
	if err := common.WrapError(func() error {
		return q.Where("account_id = ?", accountID).Take(&m).Error
	}); err != nil {
		return nil, err
	}
	return toDomain(&m), nil
}

// Create implements account.Repository.
func (r *repository) Create(ctx context.Context, acc *account.Account) error {
	m := fromDomain(acc)
	return common.WrapError(func() error {
		return r.db.WithContext(ctx).Create(m).Error
	})
}

// ConditionalUpdate implements account.Repository.
func (r *repository) ConditionalUpdate(ctx context.Context, acc *account.Account, expectedVersion int64) error {
	if acc.Balance.IsNegative() {
		return errors.New("refusing to persist negative balance")
	}
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&Account{}).
		Where("account_id = ? AND version = ?", acc.AccountID, expectedVersion).
		Updates(map[string]any{
			"balance":    acc.Balance,
			"status":     string(acc.Status),
			"version":    expectedVersion + 1,
			"updated_at": now,
		})
	if res.Error != nil {
		return common.MapGormErrorToDomain(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrVersionConflict
	}
	acc.Version = expectedVersion + 1
	acc.UpdatedAt = now
	return nil
}

// ListByUser implements account.Repository.
func (r *repository) ListByUser(ctx context.Context, userID string) ([]*account.Account, error) {
	var ms []Account
	if err := common.WrapError(func() error {
		return r.db.WithContext(ctx).
			Where("user_id = ?", userID).
			Order("created_at asc, account_id asc").
			Find(&ms).Error
	}); err != nil {
		return nil, err
	}
	out := make([]*account.Account, 0, len(ms))
	for i := range ms {
		out = append(out, toDomain(&ms[i]))
	}
	return out, nil
}

func fromDomain(a *account.Account) *Account {
	return &Account{
		AccountID:   a.AccountID,
		UserID:      a.UserID,
		AccountType: a.AccountType,
		Balance:     a.Balance,
		Currency:    a.Currency.String(),
		Status:      string(a.Status),
		Version:     a.Version,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

func toDomain(m *Account) *account.Account {
	return &account.Account{
		AccountID:   m.AccountID,
		UserID:      m.UserID,
		AccountType: m.AccountType,
		Balance:     m.Balance,
		Currency:    currency.Code(m.Currency),
		Status:      account.Status(m.Status),
		Version:     m.Version,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
