package testutils

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	infrarepo "github.com/amirasaad/ledgercore/infra/repository"
	"github.com/amirasaad/ledgercore/pkg/currency"
	"github.com/amirasaad/ledgercore/pkg/domain/account"
	"github.com/amirasaad/ledgercore/pkg/domain/beneficiary"
	"github.com/amirasaad/ledgercore/pkg/domain/purchase"
	"github.com/amirasaad/ledgercore/pkg/repository"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewTestDB opens a private in-memory SQLite database with the schema migrated.
// A single connection is used so every statement sees the same memory database;
// callers must not issue non-transactional queries while inside UoW.Do.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name()) + "_" + uuid.NewString()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=busy_timeout(5000)", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, infrarepo.AutoMigrate(db))
	return db
}

// FastRetryPolicy keeps transient retries quick in tests.
func FastRetryPolicy() infrarepo.RetryPolicy {
	return infrarepo.RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

// NewTestUoW returns a UoW over a fresh test database.
func NewTestUoW(t testing.TB) *infrarepo.UoW {
	t.Helper()
	return infrarepo.NewUoW(NewTestDB(t),
		infrarepo.WithRetryPolicy(FastRetryPolicy()),
		infrarepo.WithLogger(DiscardLogger()),
	)
}

// SeedAccount stores an active account with the given balance.
func SeedAccount(t testing.TB, uow repository.UnitOfWork, userID, accountID, balance string, code currency.Code) *account.Account {
	t.Helper()
	acc, err := account.New().
		WithID(accountID).
		WithUserID(userID).
		WithBalance(decimal.RequireFromString(balance)).
		WithCurrency(code).
		Build()
	require.NoError(t, err)
	repo, err := uow.AccountRepository()
	require.NoError(t, err)
	require.NoError(t, repo.Create(t.Context(), acc))
	return acc
}

// SeedProduct stores a product with the given stock and price.
func SeedProduct(t testing.TB, uow repository.UnitOfWork, productID string, stock int, price string, benefits ...string) *purchase.Product {
	t.Helper()
	now := time.Now().UTC()
	p := &purchase.Product{
		ProductID:   productID,
		RetailerID:  "retailer-1",
		Name:        "Product " + productID,
		Description: "test product",
		Category:    "electronics",
		Benefits:    benefits,
		Stock:       stock,
		Price:       decimal.RequireFromString(price),
		Currency:    currency.MXN,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	repo, err := uow.ProductRepository()
	require.NoError(t, err)
	require.NoError(t, repo.Create(t.Context(), p))
	return p
}

// SeedBeneficiary stores a beneficiary created at the given time, which fixes
// its enumeration order.
func SeedBeneficiary(t testing.TB, uow repository.UnitOfWork, userID, name, alias, accountID string, createdAt time.Time) *beneficiary.Beneficiary {
	t.Helper()
	b, err := beneficiary.New(userID, name, alias, accountID, "")
	require.NoError(t, err)
	b.CreatedAt = createdAt
	repo, err := uow.BeneficiaryRepository()
	require.NoError(t, err)
	require.NoError(t, repo.Create(t.Context(), b))
	return b
}

// MakeRequestWithApp is a helper for making HTTP requests against a fiber app.
func MakeRequestWithApp(app *fiber.App, method, path, body string, headers map[string]string) *http.Response {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		panic(err)
	}
	return resp
}
