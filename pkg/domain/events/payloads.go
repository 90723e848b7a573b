package events

import "github.com/shopspring/decimal"

// Inbound payloads. Each one is the Data of the matching request event.
// UserID may be carried in the data or on the envelope.

type TransferRequest struct {
	UserID      string          `json:"user_id"`
	RequestID   string          `json:"request_id"`
	FromAccount string          `json:"from_account"`
	ToAccount   string          `json:"to_account"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Description string          `json:"description"`
}

type AliasResolutionRequest struct {
	UserID string `json:"user_id"`
	Alias  string `json:"alias"`
}

type PurchaseRequest struct {
	UserID      string `json:"user_id"`
	RequestID   string `json:"request_id"`
	ProductID   string `json:"product_id"`
	Quantity    int    `json:"quantity"`
	BenefitType string `json:"benefit_type"`
}

type PaymentRequest struct {
	UserID      string          `json:"user_id"`
	PurchaseID  string          `json:"purchase_id"`
	ProductID   string          `json:"product_id"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Description string          `json:"description"`
}

type PaymentCompleted struct {
	UserID        string `json:"user_id"`
	PurchaseID    string `json:"purchase_id"`
	TransactionID string `json:"transaction_id"`
}

type PaymentFailed struct {
	UserID     string        `json:"user_id"`
	PurchaseID string        `json:"purchase_id"`
	Error      *ErrorPayload `json:"error"`
}

// Message returns the failure message, defaulting to "Payment failed".
func (p PaymentFailed) Message() string {
	if p.Error == nil || p.Error.Message == "" {
		return "Payment failed"
	}
	return p.Error.Message
}
