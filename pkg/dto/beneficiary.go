package dto

import "time"

// ResolveAliasRequest looks up a saved beneficiary by a spoken alias.
type ResolveAliasRequest struct {
	UserID        string `json:"user_id" validate:"required,min=3"`
	Alias         string `json:"alias" validate:"required,max=100"`
	CorrelationID string `json:"-"`
}

// AddBeneficiaryRequest saves a new transfer destination under an alias.
type AddBeneficiaryRequest struct {
	UserID        string `json:"user_id" validate:"required,min=3"`
	RequestID     string `json:"request_id,omitempty" validate:"omitempty,max=128"`
	Name          string `json:"name" validate:"required,max=100"`
	Alias         string `json:"alias" validate:"required,max=100"`
	AccountID     string `json:"account_id" validate:"required,min=3"`
	Relationship  string `json:"relationship,omitempty" validate:"max=50"`
	CorrelationID string `json:"-"`
}

// BeneficiariesQuery lists the caller's beneficiaries.
type BeneficiariesQuery struct {
	UserID        string `json:"user_id" validate:"required,min=3"`
	CorrelationID string `json:"-"`
}

// BeneficiaryRead is a beneficiary as returned to callers.
type BeneficiaryRead struct {
	BeneficiaryID string    `json:"beneficiary_id"`
	Name          string    `json:"name"`
	Alias         string    `json:"alias"`
	AccountID     string    `json:"account_id"`
	Relationship  string    `json:"relationship"`
	CreatedAt     time.Time `json:"created_at"`
}

// BeneficiaryList wraps a beneficiary listing.
type BeneficiaryList struct {
	Beneficiaries []BeneficiaryRead `json:"beneficiaries"`
	Count         int               `json:"count"`
}
