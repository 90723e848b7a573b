package transaction

import (
	"context"

	"github.com/amirasaad/ledgercore/infra/repository/common"
	"github.com/amirasaad/ledgercore/pkg/currency"
	"github.com/amirasaad/ledgercore/pkg/domain/account"
	repo "github.com/amirasaad/ledgercore/pkg/repository/transaction"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

// New creates a transaction repository bound to db.
func New(db *gorm.DB) repo.Repository {
	return &repository{db: db}
}

// Create implements transaction.Repository.
func (r *repository) Create(ctx context.Context, tx *account.Transaction) error {
	return common.WrapError(func() error {
		return r.db.WithContext(ctx).Create(fromDomain(tx)).Error
	})
}

// Get implements transaction.Repository.
func (r *repository) Get(ctx context.Context, transactionID string) (*account.Transaction, error) {
	var m Transaction
	if err := common.WrapError(func() error {
		return r.db.WithContext(ctx).Where("transaction_id = ?", transactionID).Take(&m).Error
	}); err != nil {
		return nil, err
	}
	return toDomain(&m), nil
}

// Query implements transaction.Repository.
func (r *repository) Query(ctx context.Context, q repo.Query) ([]*account.Transaction, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = repo.DefaultLimit
	}
	db := r.db.WithContext(ctx)
	switch {
	case q.AccountID != "":
		db = db.Where("from_account = ? OR to_account = ?", q.AccountID, q.AccountID)
	case q.UserID != "":
		db = db.Where("user_id = ?", q.UserID)
	}
	var ms []Transaction
	if err := common.WrapError(func() error {
		return db.Order("created_at desc, transaction_id desc").Limit(limit).Find(&ms).Error
	}); err != nil {
		return nil, err
	}
	out := make([]*account.Transaction, 0, len(ms))
	for i := range ms {
		out = append(out, toDomain(&ms[i]))
	}
	return out, nil
}

func fromDomain(t *account.Transaction) *Transaction {
	return &Transaction{
		TransactionID: t.TransactionID,
		UserID:        t.UserID,
		Type:          t.Type,
		FromAccount:   t.FromAccount,
		ToAccount:     t.ToAccount,
		Amount:        t.Amount,
		Currency:      t.Currency.String(),
		Status:        t.Status,
		Description:   t.Description,
		CorrelationID: t.CorrelationID,
		CreatedAt:     t.CreatedAt,
	}
}

func toDomain(m *Transaction) *account.Transaction {
	return &account.Transaction{
		TransactionID: m.TransactionID,
		UserID:        m.UserID,
		Type:          m.Type,
		FromAccount:   m.FromAccount,
		ToAccount:     m.ToAccount,
		Amount:        m.Amount,
		Currency:      currency.Code(m.Currency),
		Status:        m.Status,
		Description:   m.Description,
		CorrelationID: m.CorrelationID,
		CreatedAt:     m.CreatedAt,
	}
}
