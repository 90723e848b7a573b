package dto

import "github.com/shopspring/decimal"

// TransferRequest moves funds from one of the caller's accounts to another
// account. RequestID enables idempotent retries.
type TransferRequest struct {
	UserID        string          `json:"user_id" validate:"required,min=3"`
	RequestID     string          `json:"request_id,omitempty" validate:"omitempty,max=128"`
	FromAccount   string          `json:"from_account" validate:"required,min=3"`
	ToAccount     string          `json:"to_account" validate:"required,min=3,nefield=FromAccount"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency,omitempty" validate:"omitempty,len=3"`
	Description   string          `json:"description,omitempty" validate:"max=255"`
	CorrelationID string          `json:"-"`
}

// TransactionsQuery pages through a user's ledger entries, newest first.
// An empty AccountID covers every account of the user.
type TransactionsQuery struct {
	UserID        string `json:"user_id" validate:"required,min=3"`
	AccountID     string `json:"account_id,omitempty" query:"account_id" validate:"omitempty,min=3"`
	Limit         int    `json:"limit,omitempty" query:"limit" validate:"gte=0,lte=100"`
	CorrelationID string `json:"-"`
}
