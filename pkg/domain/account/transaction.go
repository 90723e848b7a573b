package account

import (
	"time"

	"github.com/amirasaad/ledgercore/pkg/currency"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	// TransactionTypeTransfer marks a funds movement between two accounts.
	TransactionTypeTransfer = "transfer"
	// TransactionStatusCompleted is the only status a persisted transaction carries.
	TransactionStatusCompleted = "completed"
)

// Transaction is the immutable record of a committed transfer.
type Transaction struct {
	TransactionID string
	UserID        string
	Type          string
	FromAccount   string
	ToAccount     string
	Amount        decimal.Decimal
	Currency      currency.Code
	Status        string
	Description   string
	CorrelationID string
	CreatedAt     time.Time
}

// NewTransfer builds the completed transfer record for a from->to movement.
func NewTransfer(
	userID, from, to string,
	amount decimal.Decimal,
	code currency.Code,
	description, correlationID string,
) *Transaction {
	return &Transaction{
		TransactionID: uuid.NewString(),
		UserID:        userID,
		Type:          TransactionTypeTransfer,
		FromAccount:   from,
		ToAccount:     to,
		Amount:        amount,
		Currency:      code,
		Status:        TransactionStatusCompleted,
		Description:   description,
		CorrelationID: correlationID,
		CreatedAt:     time.Now().UTC(),
	}
}
