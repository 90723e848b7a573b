package repository

import (
	"context"
	"reflect"

	"github.com/amirasaad/ledgercore/pkg/repository/account"
	"github.com/amirasaad/ledgercore/pkg/repository/beneficiary"
	"github.com/amirasaad/ledgercore/pkg/repository/idempotency"
	"github.com/amirasaad/ledgercore/pkg/repository/product"
	"github.com/amirasaad/ledgercore/pkg/repository/purchase"
	"github.com/amirasaad/ledgercore/pkg/repository/transaction"
)

// UnitOfWork defines the contract for transactional work and repository access.
//
// Repositories obtained from the UnitOfWork passed to Do's callback share one
// transaction: either every write inside fn commits or none does.
//
// Example usage:
//
//	err := uow.Do(ctx, func(uow repository.UnitOfWork) error {
//	    accounts, err := uow.AccountRepository()
//	    ...
//	})
type UnitOfWork interface {
	// Do executes fn within a transaction boundary.
	// If fn returns an error, the transaction is rolled back.
	Do(ctx context.Context, fn func(uow UnitOfWork) error) error

	// GetRepository returns a repository of the requested interface type,
	// bound to the current transaction or session.
	GetRepository(repoType reflect.Type) (any, error)

	AccountRepository() (account.Repository, error)
	TransactionRepository() (transaction.Repository, error)
	ProductRepository() (product.Repository, error)
	PurchaseRepository() (purchase.Repository, error)
	BeneficiaryRepository() (beneficiary.Repository, error)
	IdempotencyRepository() (idempotency.Repository, error)
}

// TypeOf returns the interface type used as a GetRepository key.
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
