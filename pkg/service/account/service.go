// Package account answers balance and transaction-history queries.
package account

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/amirasaad/ledgercore/pkg/config"
	"github.com/amirasaad/ledgercore/pkg/currency"
	"github.com/amirasaad/ledgercore/pkg/domain"
	"github.com/amirasaad/ledgercore/pkg/domain/account"
	"github.com/amirasaad/ledgercore/pkg/repository"
	"github.com/amirasaad/ledgercore/pkg/repository/transaction"
	"github.com/amirasaad/ledgercore/pkg/utils"
	"github.com/shopspring/decimal"
)

// Balance is the current state of one account.
type Balance struct {
	AccountID   string          `json:"account_id"`
	AccountType string          `json:"account_type"`
	Balance     decimal.Decimal `json:"balance"`
	Currency    currency.Code   `json:"currency"`
	Status      account.Status  `json:"status"`
}

// TransactionView is a ledger entry as returned to callers.
type TransactionView struct {
	TransactionID string          `json:"transaction_id"`
	Type          string          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      currency.Code   `json:"currency"`
	FromAccount   string          `json:"from_account"`
	ToAccount     string          `json:"to_account"`
	Status        string          `json:"status"`
	Description   string          `json:"description"`
	CreatedAt     time.Time       `json:"created_at"`
}

// History is a page of transactions, newest first.
type History struct {
	UserID       string            `json:"user_id"`
	AccountID    string            `json:"account_id,omitempty"`
	Transactions []TransactionView `json:"transactions"`
	Count        int               `json:"count"`
}

// Service provides read-only account queries.
type Service struct {
	uow    repository.UnitOfWork
	logger *slog.Logger
}

// NewService creates a new Service with the provided dependencies.
func NewService(deps config.Deps) *Service {
	return &Service{uow: deps.Uow, logger: deps.Logger.With("service", "account")}
}

// GetBalance returns the balance of accountID with a primary read. Accounts
// owned by someone else are reported as not found.
func (s *Service) GetBalance(ctx context.Context, userID, accountID string) (*Balance, error) {
	if err := utils.ValidateID("user_id", userID); err != nil {
		return nil, err
	}
	if err := utils.ValidateID("account_id", accountID); err != nil {
		return nil, err
	}
	var out *Balance
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		acc, err := ownedAccount(ctx, uow, userID, accountID)
		if err != nil {
			return err
		}
		out = &Balance{
			AccountID:   acc.AccountID,
			AccountType: acc.AccountType,
			Balance:     acc.Balance,
			Currency:    acc.Currency,
			Status:      acc.Status,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListTransactions returns up to limit transactions of the user, or of one
// of the user's accounts when accountID is set. limit <= 0 means
// transaction.DefaultLimit.
func (s *Service) ListTransactions(ctx context.Context, userID, accountID string, limit int) (*History, error) {
	if err := utils.ValidateID("user_id", userID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = transaction.DefaultLimit
	}
	h := &History{UserID: userID, AccountID: accountID, Transactions: []TransactionView{}}
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		q := transaction.Query{UserID: userID, Limit: limit}
		if accountID != "" {
			if _, err := ownedAccount(ctx, uow, userID, accountID); err != nil {
				return err
			}
			q = transaction.Query{AccountID: accountID, Limit: limit}
		}
		repo, err := uow.TransactionRepository()
		if err != nil {
			return err
		}
		txs, err := repo.Query(ctx, q)
		if err != nil {
			return err
		}
		for _, tx := range txs {
			h.Transactions = append(h.Transactions, TransactionView{
				TransactionID: tx.TransactionID,
				Type:          tx.Type,
				Amount:        tx.Amount,
				Currency:      tx.Currency,
				FromAccount:   tx.FromAccount,
				ToAccount:     tx.ToAccount,
				Status:        tx.Status,
				Description:   tx.Description,
				CreatedAt:     tx.CreatedAt,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	h.Count = len(h.Transactions)
	s.logger.Debug("transactions listed", "user_id", userID, "count", h.Count)
	return h, nil
}

func ownedAccount(ctx context.Context, uow repository.UnitOfWork, userID, accountID string) (*account.Account, error) {
	repo, err := uow.AccountRepository()
	if err != nil {
		return nil, err
	}
	acc, err := repo.Get(ctx, accountID, true)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && acc.UserID != userID) {
		return nil, domain.NewNotFoundError("Account", accountID)
	}
	return acc, err
}
