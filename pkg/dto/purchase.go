package dto

// PurchaseRequest starts the purchase saga for a product.
type PurchaseRequest struct {
	UserID        string `json:"user_id" validate:"required,min=3"`
	RequestID     string `json:"request_id,omitempty" validate:"omitempty,max=128"`
	ProductID     string `json:"product_id" validate:"required"`
	Quantity      int    `json:"quantity" validate:"required,gt=0"`
	BenefitType   string `json:"benefit_type,omitempty" validate:"omitempty,oneof=MSI_3 MSI_6 MSI_12 CASHBACK_5 POINTS_2X"`
	CorrelationID string `json:"-"`
}

// CompletePurchaseRequest reports a successful payment for a purchase.
type CompletePurchaseRequest struct {
	UserID        string `json:"user_id"`
	PurchaseID    string `json:"purchase_id" validate:"required"`
	TransactionID string `json:"transaction_id,omitempty"`
	CorrelationID string `json:"-"`
}

// FailPurchaseRequest reports a failed payment for a purchase.
type FailPurchaseRequest struct {
	UserID        string `json:"user_id"`
	PurchaseID    string `json:"purchase_id" validate:"required"`
	ErrorMessage  string `json:"error_message,omitempty" validate:"max=255"`
	CorrelationID string `json:"-"`
}

// CatalogQuery filters the product catalog.
type CatalogQuery struct {
	UserID        string `json:"user_id"`
	RetailerID    string `json:"retailer_id,omitempty" query:"retailer_id"`
	Category      string `json:"category,omitempty" query:"category"`
	Limit         int    `json:"limit,omitempty" query:"limit" validate:"gte=0,lte=100"`
	CorrelationID string `json:"-"`
}

// BenefitsQuery asks for the priced benefit options of a product.
type BenefitsQuery struct {
	UserID        string `json:"user_id"`
	ProductID     string `json:"product_id" validate:"required"`
	CorrelationID string `json:"-"`
}
