package account

import (
	"errors"
	"fmt"
	"time"

	"github.com/amirasaad/ledgercore/pkg/currency"
	"github.com/amirasaad/ledgercore/pkg/domain"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of an account.
type Status string

const (
	StatusActive Status = "active"
	StatusFrozen Status = "frozen"
	StatusClosed Status = "closed"
)

// DefaultType is the account type used when none is given.
const DefaultType = "checking"

// Account is a user's balance holder. It is the unit of optimistic locking:
// every committed mutation bumps Version by exactly one.
//
// Invariants:
// - Balance is never negative after a committed write.
// - Version strictly increases.
type Account struct {
	AccountID   string
	UserID      string
	AccountType string
	Balance     decimal.Decimal
	Currency    currency.Code
	Status      Status
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Builder provides a fluent API for constructing Account instances.
type Builder struct {
	accountID   string
	userID      string
	accountType string
	balance     decimal.Decimal
	currency    currency.Code
	status      Status
}

// New returns a Builder with ledger defaults.
func New() *Builder {
	return &Builder{
		accountType: DefaultType,
		balance:     decimal.Zero,
		currency:    currency.DefaultCurrency,
		status:      StatusActive,
	}
}

func (b *Builder) WithID(id string) *Builder {
	b.accountID = id
	return b
}

func (b *Builder) WithUserID(userID string) *Builder {
	b.userID = userID
	return b
}

func (b *Builder) WithType(accountType string) *Builder {
	b.accountType = accountType
	return b
}

func (b *Builder) WithBalance(balance decimal.Decimal) *Builder {
	b.balance = balance
	return b
}

func (b *Builder) WithCurrency(code currency.Code) *Builder {
	b.currency = code
	return b
}

func (b *Builder) WithStatus(status Status) *Builder {
	b.status = status
	return b
}

// Build validates the collected fields and returns a version-0 account.
func (b *Builder) Build() (*Account, error) {
	if b.accountID == "" {
		return nil, errors.New("account id is required")
	}
	if b.userID == "" {
		return nil, errors.New("user id is required")
	}
	if !currency.IsSupported(b.currency) {
		return nil, fmt.Errorf("unsupported currency: %s", b.currency)
	}
	if b.balance.IsNegative() {
		return nil, errors.New("initial balance cannot be negative")
	}
	if !currency.FitsPrecision(b.currency, b.balance) {
		return nil, fmt.Errorf("initial balance has more than %d decimal places", currency.Get(b.currency).Decimals)
	}
	now := time.Now().UTC()
	return &Account{
		AccountID:   b.accountID,
		UserID:      b.userID,
		AccountType: b.accountType,
		Balance:     b.balance,
		Currency:    b.currency,
		Status:      b.status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// IsActive reports whether the account may move money.
func (a *Account) IsActive() bool {
	return a.Status == StatusActive
}

// Debit removes amount from the balance. The account is left untouched on error.
func (a *Account) Debit(amount decimal.Decimal) error {
	if err := a.checkMovable(amount); err != nil {
		return err
	}
	if a.Balance.LessThan(amount) {
		return domain.NewInsufficientFundsError(fmt.Sprintf(
			"Insufficient funds in account %s: available=%s, requested=%s",
			a.AccountID, a.Balance.StringFixed(2), amount.StringFixed(2),
		))
	}
	a.Balance = a.Balance.Sub(amount)
	return nil
}

// Credit adds amount to the balance.
func (a *Account) Credit(amount decimal.Decimal) error {
	if err := a.checkMovable(amount); err != nil {
		return err
	}
	a.Balance = a.Balance.Add(amount)
	return nil
}

func (a *Account) checkMovable(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return domain.NewValidationError("amount must be positive")
	}
	if !a.IsActive() {
		return domain.NewValidationError(fmt.Sprintf("account %s is %s", a.AccountID, a.Status))
	}
	return nil
}
