package mapper

import (
	"github.com/amirasaad/ledgercore/pkg/domain/beneficiary"
	"github.com/amirasaad/ledgercore/pkg/domain/events"
	"github.com/amirasaad/ledgercore/pkg/dto"
)

// MapBeneficiaryToRead maps a domain beneficiary to its read DTO.
func MapBeneficiaryToRead(b *beneficiary.Beneficiary) dto.BeneficiaryRead {
	return dto.BeneficiaryRead{
		BeneficiaryID: b.BeneficiaryID,
		Name:          b.Name,
		Alias:         b.Alias,
		AccountID:     b.AccountID,
		Relationship:  b.Relationship,
		CreatedAt:     b.CreatedAt,
	}
}

// MapBeneficiariesToList maps domain beneficiaries to a listing, keeping order.
func MapBeneficiariesToList(bs []*beneficiary.Beneficiary) dto.BeneficiaryList {
	out := dto.BeneficiaryList{Beneficiaries: make([]dto.BeneficiaryRead, 0, len(bs))}
	for _, b := range bs {
		out.Beneficiaries = append(out.Beneficiaries, MapBeneficiaryToRead(b))
	}
	out.Count = len(out.Beneficiaries)
	return out
}

// userOf prefers the user stamped on the envelope over one carried in data.
func userOf(env *events.Envelope, fromData string) string {
	if env.UserID != "" {
		return env.UserID
	}
	return fromData
}

// MapTransferRequestEvent decodes a TRANSFER_REQUEST envelope.
func MapTransferRequestEvent(env *events.Envelope) (dto.TransferRequest, error) {
	var p events.TransferRequest
	if err := env.Decode(&p); err != nil {
		return dto.TransferRequest{}, err
	}
	return dto.TransferRequest{
		UserID:        userOf(env, p.UserID),
		RequestID:     p.RequestID,
		FromAccount:   p.FromAccount,
		ToAccount:     p.ToAccount,
		Amount:        p.Amount,
		Currency:      p.Currency,
		Description:   p.Description,
		CorrelationID: env.CorrelationID,
	}, nil
}

// MapAliasResolutionEvent decodes an ALIAS_RESOLUTION_REQUEST envelope.
func MapAliasResolutionEvent(env *events.Envelope) (dto.ResolveAliasRequest, error) {
	var p events.AliasResolutionRequest
	if err := env.Decode(&p); err != nil {
		return dto.ResolveAliasRequest{}, err
	}
	return dto.ResolveAliasRequest{
		UserID:        userOf(env, p.UserID),
		Alias:         p.Alias,
		CorrelationID: env.CorrelationID,
	}, nil
}

// MapPurchaseRequestEvent decodes a PURCHASE_REQUEST envelope.
func MapPurchaseRequestEvent(env *events.Envelope) (dto.PurchaseRequest, error) {
	var p events.PurchaseRequest
	if err := env.Decode(&p); err != nil {
		return dto.PurchaseRequest{}, err
	}
	return dto.PurchaseRequest{
		UserID:        userOf(env, p.UserID),
		RequestID:     p.RequestID,
		ProductID:     p.ProductID,
		Quantity:      p.Quantity,
		BenefitType:   p.BenefitType,
		CorrelationID: env.CorrelationID,
	}, nil
}

// MapPaymentCompletedEvent decodes a PAYMENT_COMPLETED envelope.
func MapPaymentCompletedEvent(env *events.Envelope) (dto.CompletePurchaseRequest, error) {
	var p events.PaymentCompleted
	if err := env.Decode(&p); err != nil {
		return dto.CompletePurchaseRequest{}, err
	}
	return dto.CompletePurchaseRequest{
		UserID:        userOf(env, p.UserID),
		PurchaseID:    p.PurchaseID,
		TransactionID: p.TransactionID,
		CorrelationID: env.CorrelationID,
	}, nil
}

// MapPaymentFailedEvent decodes a PAYMENT_FAILED envelope.
func MapPaymentFailedEvent(env *events.Envelope) (dto.FailPurchaseRequest, error) {
	var p events.PaymentFailed
	if err := env.Decode(&p); err != nil {
		return dto.FailPurchaseRequest{}, err
	}
	return dto.FailPurchaseRequest{
		UserID:        userOf(env, p.UserID),
		PurchaseID:    p.PurchaseID,
		ErrorMessage:  p.Message(),
		CorrelationID: env.CorrelationID,
	}, nil
}
