package mapper

import (
	"testing"
	"time"

	"github.com/amirasaad/ledgercore/pkg/domain/beneficiary"
	"github.com/amirasaad/ledgercore/pkg/domain/events"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapBeneficiariesToList(t *testing.T) {
	now := time.Now().UTC()
	list := MapBeneficiariesToList([]*beneficiary.Beneficiary{
		{BeneficiaryID: "b1", Name: "María", Alias: "mamá", AccountID: "acc-1", CreatedAt: now},
		{BeneficiaryID: "b2", Name: "Juan", Alias: "juanito", AccountID: "acc-2", Relationship: "friend"},
	})
	require.Equal(t, 2, list.Count)
	assert.Equal(t, "mamá", list.Beneficiaries[0].Alias)
	assert.Equal(t, now, list.Beneficiaries[0].CreatedAt)
	assert.Equal(t, "friend", list.Beneficiaries[1].Relationship)

	empty := MapBeneficiariesToList(nil)
	assert.NotNil(t, empty.Beneficiaries)
	assert.Zero(t, empty.Count)
}

func TestMapTransferRequestEvent(t *testing.T) {
	env := events.New(events.EventTypeTransferRequest, "agent", "corr-1", "", map[string]any{
		"user_id":      "user-1",
		"request_id":   "req-1",
		"from_account": "acc-1",
		"to_account":   "acc-2",
		"amount":       "12.50",
	})
	req, err := MapTransferRequestEvent(env)
	require.NoError(t, err)
	assert.Equal(t, "user-1", req.UserID)
	assert.Equal(t, "req-1", req.RequestID)
	assert.Equal(t, "corr-1", req.CorrelationID)
	assert.True(t, req.Amount.Equal(decimal.RequireFromString("12.5")))

	env.UserID = "user-9"
	req, err = MapTransferRequestEvent(env)
	require.NoError(t, err)
	assert.Equal(t, "user-9", req.UserID, "envelope user wins")

	env.Data["amount"] = "twelve"
	_, err = MapTransferRequestEvent(env)
	assert.Error(t, err)
}

func TestMapPaymentEvents(t *testing.T) {
	failed := events.NewFailure(events.EventTypePaymentFailed, events.SourcePayments, "corr-2", "user-1",
		"INSUFFICIENT_FUNDS", "Insufficient funds", map[string]any{"purchase_id": "pur-1"})
	req, err := MapPaymentFailedEvent(failed)
	require.NoError(t, err)
	assert.Equal(t, "pur-1", req.PurchaseID)
	assert.Equal(t, "Insufficient funds", req.ErrorMessage)
	assert.Equal(t, "user-1", req.UserID)

	bare := events.New(events.EventTypePaymentFailed, events.SourcePayments, "corr-3", "user-1",
		map[string]any{"purchase_id": "pur-2"})
	req, err = MapPaymentFailedEvent(bare)
	require.NoError(t, err)
	assert.Equal(t, "Payment failed", req.ErrorMessage)

	done := events.New(events.EventTypePaymentCompleted, events.SourcePayments, "corr-4", "user-1",
		map[string]any{"purchase_id": "pur-3", "transaction_id": "txn-3"})
	creq, err := MapPaymentCompletedEvent(done)
	require.NoError(t, err)
	assert.Equal(t, "txn-3", creq.TransactionID)
	assert.Equal(t, "corr-4", creq.CorrelationID)

	pr := events.New(events.EventTypePurchaseRequest, "agent", "corr-5", "user-1",
		map[string]any{"product_id": "prod-1", "quantity": 2, "benefit_type": "MSI_6"})
	preq, err := MapPurchaseRequestEvent(pr)
	require.NoError(t, err)
	assert.Equal(t, 2, preq.Quantity)
	assert.Equal(t, "MSI_6", preq.BenefitType)

	ar := events.New(events.EventTypeAliasResolutionRequest, "agent", "corr-6", "user-1",
		map[string]any{"alias": "mamá"})
	areq, err := MapAliasResolutionEvent(ar)
	require.NoError(t, err)
	assert.Equal(t, "mamá", areq.Alias)
}
