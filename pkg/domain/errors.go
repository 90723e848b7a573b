package domain

import (
	"errors"
	"fmt"
)

// Repository-level errors. Services translate these into *Error values.
var (
	// ErrNotFound is returned when a requested record does not exist
	ErrNotFound = errors.New("resource not found")
	// ErrAlreadyExists is returned when a unique key is already taken
	ErrAlreadyExists = errors.New("resource already exists")
	// ErrVersionConflict is returned when a conditional write finds a different version or status
	ErrVersionConflict = errors.New("version conflict")
)

// Kind classifies an Error so callers can branch without string matching.
type Kind string

const (
	KindValidation        Kind = "validation"
	KindNotFound          Kind = "not_found"
	KindInsufficientFunds Kind = "insufficient_funds"
	KindInsufficientStock Kind = "insufficient_stock"
	KindConcurrentUpdate  Kind = "concurrent_update"
	KindAliasNotFound     Kind = "alias_not_found"
	KindDuplicateRequest  Kind = "duplicate_request"
	KindConflict          Kind = "conflict"
	KindInternal          Kind = "internal"
)

// Machine-readable error codes carried on failure events and responses.
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeResourceNotFound   = "RESOURCE_NOT_FOUND"
	CodeProductNotFound    = "PRODUCT_NOT_FOUND"
	CodePurchaseNotFound   = "PURCHASE_NOT_FOUND"
	CodeInsufficientFunds  = "INSUFFICIENT_FUNDS"
	CodeInsufficientStock  = "INSUFFICIENT_STOCK"
	CodeConcurrentUpdate   = "CONCURRENT_UPDATE"
	CodeAliasNotFound      = "ALIAS_NOT_FOUND"
	CodeDuplicateRequest   = "DUPLICATE_REQUEST"
	CodeAliasAlreadyExists = "ALIAS_ALREADY_EXISTS"
	CodeInternal           = "INTERNAL_ERROR"
	CodeEventPublishFailed = "EVENT_PUBLISH_FAILED"
	CodePaymentFailed      = "PAYMENT_FAILED"
)

// Error is a business error with a stable code.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Details map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports a match when target is an *Error of the same kind and,
// if target sets one, the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Code == "" || t.Code == e.Code
}

// AsError extracts the *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// IsKind reports whether err carries an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	de, ok := AsError(err)
	return ok && de.Kind == kind
}

func NewValidationError(message string) *Error {
	return &Error{Kind: KindValidation, Code: CodeValidation, Message: message}
}

// NewNotFoundError reports a missing resource, e.g. ("Account", "acc-1").
func NewNotFoundError(resourceType, resourceID string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Code:    CodeResourceNotFound,
		Message: fmt.Sprintf("%s not found: %s", resourceType, resourceID),
		Details: map[string]any{"resource_type": resourceType, "resource_id": resourceID},
	}
}

func NewProductNotFoundError(productID string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Code:    CodeProductNotFound,
		Message: fmt.Sprintf("Product not found: %s", productID),
		Details: map[string]any{"product_id": productID},
	}
}

func NewPurchaseNotFoundError(purchaseID string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Code:    CodePurchaseNotFound,
		Message: fmt.Sprintf("Purchase not found: %s", purchaseID),
		Details: map[string]any{"purchase_id": purchaseID},
	}
}

func NewInsufficientFundsError(message string) *Error {
	if message == "" {
		message = "Insufficient funds"
	}
	return &Error{Kind: KindInsufficientFunds, Code: CodeInsufficientFunds, Message: message}
}

func NewInsufficientStockError(productID string, available, requested int) *Error {
	return &Error{
		Kind: KindInsufficientStock,
		Code: CodeInsufficientStock,
		Message: fmt.Sprintf(
			"Insufficient stock for product %s: available=%d, requested=%d",
			productID, available, requested,
		),
		Details: map[string]any{"product_id": productID, "available": available, "requested": requested},
	}
}

func NewConcurrentUpdateError(message string) *Error {
	if message == "" {
		message = "Concurrent update detected"
	}
	return &Error{Kind: KindConcurrentUpdate, Code: CodeConcurrentUpdate, Message: message}
}

func NewAliasNotFoundError(alias string) *Error {
	return &Error{
		Kind:    KindAliasNotFound,
		Code:    CodeAliasNotFound,
		Message: fmt.Sprintf("Alias not found: %s", alias),
		Details: map[string]any{"alias": alias},
	}
}

// NewDuplicateRequestError carries the result stored for the original request.
func NewDuplicateRequestError(requestID string, result any) *Error {
	return &Error{
		Kind:    KindDuplicateRequest,
		Code:    CodeDuplicateRequest,
		Message: fmt.Sprintf("Duplicate request: %s", requestID),
		Details: map[string]any{"request_id": requestID, "result": result},
	}
}

func NewAliasAlreadyExistsError(alias string) *Error {
	return &Error{
		Kind:    KindConflict,
		Code:    CodeAliasAlreadyExists,
		Message: fmt.Sprintf("Alias already exists: %s", alias),
		Details: map[string]any{"alias": alias},
	}
}

func NewInternalError(code, message string, err error) *Error {
	if code == "" {
		code = CodeInternal
	}
	return &Error{Kind: KindInternal, Code: code, Message: message, Err: err}
}
