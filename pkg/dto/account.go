package dto

// BalanceQuery asks for the balance of one of the caller's accounts.
type BalanceQuery struct {
	UserID        string `json:"user_id" validate:"required,min=3"`
	AccountID     string `json:"account_id" validate:"required,min=3"`
	CorrelationID string `json:"-"`
}
