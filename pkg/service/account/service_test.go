package account_test

import (
	"context"
	"testing"
	"time"

	"github.com/amirasaad/ledgercore/pkg/config"
	"github.com/amirasaad/ledgercore/pkg/currency"
	"github.com/amirasaad/ledgercore/pkg/domain"
	domainaccount "github.com/amirasaad/ledgercore/pkg/domain/account"
	"github.com/amirasaad/ledgercore/pkg/service/account"
	"github.com/amirasaad/ledgercore/pkg/testutils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetBalance(t *testing.T) {
	uow := testutils.NewTestUoW(t)
	testutils.SeedAccount(t, uow, "user-1", "acc-1", "1234.56", currency.MXN)
	svc := account.NewService(config.Deps{Uow: uow, Logger: testutils.DiscardLogger()})
	ctx := context.Background()

	bal, err := svc.GetBalance(ctx, "user-1", "acc-1")
	require.NoError(t, err)
	assert.True(t, bal.Balance.Equal(decimal.RequireFromString("1234.56")))
	assert.Equal(t, currency.MXN, bal.Currency)
	assert.Equal(t, domainaccount.DefaultType, bal.AccountType)
	assert.Equal(t, domainaccount.StatusActive, bal.Status)

	_, err = svc.GetBalance(ctx, "user-2", "acc-1")
	assert.True(t, domain.IsKind(err, domain.KindNotFound), "foreign accounts are hidden")

	_, err = svc.GetBalance(ctx, "user-1", "acc-404")
	assert.True(t, domain.IsKind(err, domain.KindNotFound))

	_, err = svc.GetBalance(ctx, "user-1", "")
	assert.True(t, domain.IsKind(err, domain.KindValidation))
}

func TestListTransactions(t *testing.T) {
	uow := testutils.NewTestUoW(t)
	testutils.SeedAccount(t, uow, "user-1", "acc-1", "0", currency.MXN)
	testutils.SeedAccount(t, uow, "user-2", "acc-2", "0", currency.MXN)
	repo, err := uow.TransactionRepository()
	require.NoError(t, err)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		tx := domainaccount.NewTransfer("user-1", "acc-1", "acc-2", decimal.NewFromInt(int64(i+1)), currency.MXN, "t", "c")
		tx.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.Create(ctx, tx))
	}

	svc := account.NewService(config.Deps{Uow: uow, Logger: testutils.DiscardLogger()})

	h, err := svc.ListTransactions(ctx, "user-1", "", 0)
	require.NoError(t, err)
	require.Equal(t, 3, h.Count)
	assert.True(t, h.Transactions[0].Amount.Equal(decimal.NewFromInt(3)), "newest first")

	h, err = svc.ListTransactions(ctx, "user-1", "acc-1", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, h.Count)

	h, err = svc.ListTransactions(ctx, "user-2", "", 0)
	require.NoError(t, err)
	assert.Zero(t, h.Count)
	assert.NotNil(t, h.Transactions)

	_, err = svc.ListTransactions(ctx, "user-2", "acc-1", 0)
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}
