package events

// EventType represents the type of an event in the system.
type EventType string

// Event type constants
const (
	// Transfer events
	EventTypeTransferRequest   EventType = "TRANSFER_REQUEST"
	EventTypeTransferCompleted EventType = "TRANSFER_COMPLETED"
	EventTypeTransferFailed    EventType = "TRANSFER_FAILED"

	// Alias resolution events
	EventTypeAliasResolutionRequest  EventType = "ALIAS_RESOLUTION_REQUEST"
	EventTypeAliasResolutionResponse EventType = "ALIAS_RESOLUTION_RESPONSE"
	EventTypeAliasResolutionFailed   EventType = "ALIAS_RESOLUTION_FAILED"

	// Purchase saga events
	EventTypePurchaseRequest   EventType = "PURCHASE_REQUEST"
	EventTypePaymentRequest    EventType = "PAYMENT_REQUEST"
	EventTypePaymentCompleted  EventType = "PAYMENT_COMPLETED"
	EventTypePaymentFailed     EventType = "PAYMENT_FAILED"
	EventTypePurchaseConfirmed EventType = "PURCHASE_CONFIRMED"
	EventTypePurchaseFailed    EventType = "PURCHASE_FAILED"

	// Query responses
	EventTypeBalanceResponse          EventType = "BALANCE_RESPONSE"
	EventTypeBalanceQueryFailed       EventType = "BALANCE_QUERY_FAILED"
	EventTypeTransactionsResponse     EventType = "TRANSACTIONS_RESPONSE"
	EventTypeTransactionsQueryFailed  EventType = "TRANSACTIONS_QUERY_FAILED"
	EventTypeBeneficiariesResponse    EventType = "BENEFICIARIES_RESPONSE"
	EventTypeBeneficiariesQueryFailed EventType = "BENEFICIARIES_QUERY_FAILED"
	EventTypeCatalogResponse          EventType = "CATALOG_RESPONSE"
	EventTypeCatalogQueryFailed       EventType = "CATALOG_QUERY_FAILED"
	EventTypeBenefitsResponse         EventType = "BENEFITS_RESPONSE"
	EventTypeBenefitsQueryFailed      EventType = "BENEFITS_QUERY_FAILED"

	// Beneficiary management
	EventTypeBeneficiaryAdded     EventType = "BENEFICIARY_ADDED"
	EventTypeAddBeneficiaryFailed EventType = "ADD_BENEFICIARY_FAILED"
)

// String returns the string representation of the event type.
func (et EventType) String() string {
	return string(et)
}

// Sources stamped on envelopes.
const (
	SourceCoreBanking = "core-banking"
	SourceCRM         = "crm"
	SourceMarketplace = "marketplace"
	SourcePayments    = "payments"
)
