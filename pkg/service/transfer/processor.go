// Package transfer moves funds between two accounts under optimistic
// concurrency control.
//
// Each attempt reads both accounts from the primary, applies the debit and
// credit as version-checked updates and appends the ledger Transaction, all
// inside one unit of work. A version conflict rolls the attempt back and the
// whole attempt is retried from fresh reads, so a stale balance is never
// reused and a partial transfer is never committed.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/amirasaad/ledgercore/pkg/config"
	"github.com/amirasaad/ledgercore/pkg/currency"
	"github.com/amirasaad/ledgercore/pkg/domain"
	"github.com/amirasaad/ledgercore/pkg/domain/account"
	"github.com/amirasaad/ledgercore/pkg/repository"
	accountrepo "github.com/amirasaad/ledgercore/pkg/repository/account"
	"github.com/amirasaad/ledgercore/pkg/utils"
	"github.com/shopspring/decimal"
)

const (
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = 100 * time.Millisecond
	defaultDescription = "Transfer"
)

// Input is a transfer request.
type Input struct {
	UserID        string
	FromAccount   string
	ToAccount     string
	Amount        decimal.Decimal
	Currency      string
	Description   string
	CorrelationID string
}

// Result describes a committed transfer.
type Result struct {
	TransactionID string          `json:"transaction_id"`
	FromAccount   string          `json:"from_account"`
	ToAccount     string          `json:"to_account"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      currency.Code   `json:"currency"`
	Status        string          `json:"status"`
	Attempts      int             `json:"-"`
}

// Processor executes transfers.
type Processor struct {
	uow         repository.UnitOfWork
	maxAttempts int
	retryDelay  time.Duration
	logger      *slog.Logger
}

// Option configures a Processor.
type Option func(*Processor)

// WithRetry overrides the conflict retry budget.
func WithRetry(maxAttempts int, delay time.Duration) Option {
	return func(p *Processor) {
		if maxAttempts > 0 {
			p.maxAttempts = maxAttempts
		}
		if delay >= 0 {
			p.retryDelay = delay
		}
	}
}

// NewProcessor creates a Processor. Retry settings come from the ledger
// config when present and can be overridden with options.
func NewProcessor(deps config.Deps, opts ...Option) *Processor {
	p := &Processor{
		uow:         deps.Uow,
		maxAttempts: DefaultMaxAttempts,
		retryDelay:  DefaultRetryDelay,
		logger:      deps.Logger.With("service", "transfer"),
	}
	if deps.Config != nil && deps.Config.Ledger != nil {
		WithRetry(deps.Config.Ledger.MaxAttempts, deps.Config.Ledger.RetryDelay)(p)
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (in *Input) validate() (currency.Code, error) {
	if err := utils.ValidateID("user_id", in.UserID); err != nil {
		return "", err
	}
	if err := utils.ValidateID("from_account", in.FromAccount); err != nil {
		return "", err
	}
	if err := utils.ValidateID("to_account", in.ToAccount); err != nil {
		return "", err
	}
	if in.FromAccount == in.ToAccount {
		return "", domain.NewValidationError("Cannot transfer to same account")
	}
	if !in.Amount.IsPositive() {
		return "", domain.NewValidationError("Amount must be positive")
	}
	code := currency.Normalize(in.Currency)
	if !currency.IsSupported(code) {
		return "", domain.NewValidationError(fmt.Sprintf("Unsupported currency: %s", code))
	}
	if !currency.FitsPrecision(code, in.Amount) {
		return "", domain.NewValidationError(fmt.Sprintf(
			"Amount has more than %d decimal places for %s", currency.Get(code).Decimals, code))
	}
	return code, nil
}

// Transfer moves in.Amount from in.FromAccount (owned by in.UserID) to
// in.ToAccount. It returns ResourceNotFound, InsufficientFunds,
// ValidationError, or ConcurrentUpdate once the retry budget is spent.
func (p *Processor) Transfer(ctx context.Context, in Input) (*Result, error) {
	code, err := in.validate()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Description) == "" {
		in.Description = defaultDescription
	}
	log := p.logger.With(
		"user_id", in.UserID,
		"from_account", in.FromAccount,
		"to_account", in.ToAccount,
		"amount", in.Amount.String(),
		"correlation_id", in.CorrelationID,
	)

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		res, err := p.attempt(ctx, in, code)
		if err == nil {
			res.Attempts = attempt
			log.Info("✅ transfer completed", "transaction_id", res.TransactionID, "attempt", attempt)
			return res, nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) {
			return nil, err
		}
		log.Warn("⚠️ concurrent update on account, retrying", "attempt", attempt, "max_attempts", p.maxAttempts)
		if attempt == p.maxAttempts {
			break
		}
		if err := utils.Sleep(ctx, p.retryDelay); err != nil {
			return nil, err
		}
	}
	log.Error("❌ transfer retries exhausted", "max_attempts", p.maxAttempts)
	return nil, domain.NewConcurrentUpdateError("Max retries exceeded for concurrent update")
}

func (p *Processor) attempt(ctx context.Context, in Input, code currency.Code) (*Result, error) {
	var res *Result
	err := p.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		accounts, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		txs, err := uow.TransactionRepository()
		if err != nil {
			return err
		}

		from, err := loadAccount(ctx, accounts, in.FromAccount)
		if err != nil {
			return err
		}
		if from.UserID != in.UserID {
			return domain.NewNotFoundError("Account", in.FromAccount)
		}
		if err := checkTransferable(from, code); err != nil {
			return err
		}
		fromVersion := from.Version
		if err := from.Debit(in.Amount); err != nil {
			return err
		}

		to, err := loadAccount(ctx, accounts, in.ToAccount)
		if err != nil {
			return err
		}
		if err := checkTransferable(to, code); err != nil {
			return err
		}
		toVersion := to.Version
		if err := to.Credit(in.Amount); err != nil {
			return err
		}

		if err := accounts.ConditionalUpdate(ctx, from, fromVersion); err != nil {
			return err
		}
		if err := accounts.ConditionalUpdate(ctx, to, toVersion); err != nil {
			return err
		}

		tx := account.NewTransfer(in.UserID, from.AccountID, to.AccountID, in.Amount, code, in.Description, in.CorrelationID)
		if err := txs.Create(ctx, tx); err != nil {
			return err
		}
		res = &Result{
			TransactionID: tx.TransactionID,
			FromAccount:   tx.FromAccount,
			ToAccount:     tx.ToAccount,
			Amount:        tx.Amount,
			Currency:      tx.Currency,
			Status:        tx.Status,
		}
		return nil
	})
	return res, err
}

func loadAccount(ctx context.Context, repo accountrepo.Repository, id string) (*account.Account, error) {
	acc, err := repo.Get(ctx, id, true)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NewNotFoundError("Account", id)
	}
	return acc, err
}

func checkTransferable(acc *account.Account, code currency.Code) error {
	if !acc.IsActive() {
		return domain.NewValidationError(fmt.Sprintf("Account %s is not active", utils.MaskAccountID(acc.AccountID)))
	}
	if acc.Currency != code {
		return domain.NewValidationError(fmt.Sprintf(
			"Currency mismatch: account %s holds %s, transfer is %s",
			utils.MaskAccountID(acc.AccountID), acc.Currency, code,
		))
	}
	return nil
}
