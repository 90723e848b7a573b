package repository

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"

	accountrepo "github.com/amirasaad/ledgercore/infra/repository/account"
	beneficiaryrepo "github.com/amirasaad/ledgercore/infra/repository/beneficiary"
	idempotencyrepo "github.com/amirasaad/ledgercore/infra/repository/idempotency"
	productrepo "github.com/amirasaad/ledgercore/infra/repository/product"
	purchaserepo "github.com/amirasaad/ledgercore/infra/repository/purchase"
	transactionrepo "github.com/amirasaad/ledgercore/infra/repository/transaction"
	"github.com/amirasaad/ledgercore/pkg/repository"
	"github.com/amirasaad/ledgercore/pkg/repository/account"
	"github.com/amirasaad/ledgercore/pkg/repository/beneficiary"
	"github.com/amirasaad/ledgercore/pkg/repository/idempotency"
	"github.com/amirasaad/ledgercore/pkg/repository/product"
	"github.com/amirasaad/ledgercore/pkg/repository/purchase"
	"github.com/amirasaad/ledgercore/pkg/repository/transaction"
	"gorm.io/gorm"
)

// UoW provides transaction boundary and repository access in one abstraction.
// Repositories handed out inside Do share the same *gorm.DB transaction.
type UoW struct {
	db           *gorm.DB
	tx           *gorm.DB
	retry        RetryPolicy
	logger       *slog.Logger
	repoRegistry map[reflect.Type]func(*gorm.DB) any
}

// Option configures a UoW.
type Option func(*UoW)

// WithRetryPolicy overrides the transient-error retry policy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(u *UoW) { u.retry = p }
}

// WithLogger sets the logger used for retry diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(u *UoW) { u.logger = l }
}

// NewUoW creates a new UoW for the given *gorm.DB.
func NewUoW(db *gorm.DB, opts ...Option) *UoW {
	u := &UoW{
		db:     db,
		retry:  DefaultRetryPolicy(),
		logger: slog.Default(),
		repoRegistry: map[reflect.Type]func(*gorm.DB) any{
			repository.TypeOf[account.Repository]():     func(db *gorm.DB) any { return accountrepo.New(db) },
			repository.TypeOf[transaction.Repository](): func(db *gorm.DB) any { return transactionrepo.New(db) },
			repository.TypeOf[product.Repository]():     func(db *gorm.DB) any { return productrepo.New(db) },
			repository.TypeOf[purchase.Repository]():    func(db *gorm.DB) any { return purchaserepo.New(db) },
			repository.TypeOf[beneficiary.Repository](): func(db *gorm.DB) any { return beneficiaryrepo.New(db) },
			repository.TypeOf[idempotency.Repository](): func(db *gorm.DB) any { return idempotencyrepo.New(db) },
		},
	}
	for _, opt := range opts {
		opt(u)
	}
	u.logger = u.logger.With("component", "uow")
	return u
}

// Do runs fn in a transaction. Transient store failures roll the whole
// transaction back and run fn again on a fresh one. Calling Do on a UoW
// that is already inside a transaction joins it.
func (u *UoW) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	if u.tx != nil {
		return fn(u)
	}
	return Retry(ctx, u.retry, u.logger, func() error {
		return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			txnUow := &UoW{db: u.db, tx: tx, retry: u.retry, logger: u.logger, repoRegistry: u.repoRegistry}
			return fn(txnUow)
		})
	})
}

// GetRepository provides access to repositories bound to the transaction,
// or to the base session outside Do.
func (u *UoW) GetRepository(repoType reflect.Type) (any, error) {
	constructor, ok := u.repoRegistry[repoType]
	if !ok {
		return nil, fmt.Errorf("unsupported repository type: %v", repoType)
	}
	return constructor(u.session()), nil
}

func (u *UoW) session() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

func get[T any](u *UoW) (T, error) {
	var zero T
	repoAny, err := u.GetRepository(repository.TypeOf[T]())
	if err != nil {
		return zero, err
	}
	r, ok := repoAny.(T)
	if !ok {
		return zero, fmt.Errorf("repository type mismatch: %T", repoAny)
	}
	return r, nil
}

func (u *UoW) AccountRepository() (account.Repository, error) {
	return get[account.Repository](u)
}

func (u *UoW) TransactionRepository() (transaction.Repository, error) {
	return get[transaction.Repository](u)
}

func (u *UoW) ProductRepository() (product.Repository, error) {
	return get[product.Repository](u)
}

func (u *UoW) PurchaseRepository() (purchase.Repository, error) {
	return get[purchase.Repository](u)
}

func (u *UoW) BeneficiaryRepository() (beneficiary.Repository, error) {
	return get[beneficiary.Repository](u)
}

func (u *UoW) IdempotencyRepository() (idempotency.Repository, error) {
	return get[idempotency.Repository](u)
}

var _ repository.UnitOfWork = (*UoW)(nil)
