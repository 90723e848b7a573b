package repository

import (
	"github.com/amirasaad/ledgercore/infra/repository/account"
	"github.com/amirasaad/ledgercore/infra/repository/beneficiary"
	"github.com/amirasaad/ledgercore/infra/repository/idempotency"
	"github.com/amirasaad/ledgercore/infra/repository/product"
	"github.com/amirasaad/ledgercore/infra/repository/purchase"
	"github.com/amirasaad/ledgercore/infra/repository/transaction"
	"gorm.io/gorm"
)

// Models lists every persisted model.
func Models() []any {
	return []any{
		&account.Account{},
		&transaction.Transaction{},
		&product.Product{},
		&purchase.Purchase{},
		&beneficiary.Beneficiary{},
		&idempotency.Record{},
	}
}

// AutoMigrate creates or updates the schema from the models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
