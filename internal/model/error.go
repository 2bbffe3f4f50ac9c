package model

import "fmt"

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON      = "INVALID_JSON"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeOutOfStock       = "OUT_OF_STOCK"
	ErrCodeEmptyCart        = "EMPTY_CART"
	ErrCodeInvalidQuantity  = "INVALID_QUANTITY"
	ErrCodeInvalidPromoCode = "INVALID_PROMO_CODE"
	ErrCodeDuplicateCode    = "DUPLICATE_CODE"
	ErrCodeCartCommitted    = "CART_COMMITTED"
	ErrCodeUnauthorised     = "UNAUTHORIZED"
	ErrCodeForbidden        = "FORBIDDEN"
	ErrCodePersistence      = "PERSISTENCE_FAILURE"
	ErrCodeInternalError    = "INTERNAL_ERROR"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrProductNotFound   = NewDomainError(ErrCodeNotFound, "Product not found")
	ErrPromotionNotFound = NewDomainError(ErrCodeInvalidPromoCode, "Promotion code is not valid or has no uses left")
	ErrOutOfStock        = NewDomainError(ErrCodeOutOfStock, "Requested quantity exceeds available stock")
	ErrEmptyCart         = NewDomainError(ErrCodeEmptyCart, "Cannot finalise a sale with an empty cart")
	ErrInvalidQuantity   = NewDomainError(ErrCodeInvalidQuantity, "Quantity must be greater than zero")
	ErrDuplicateCode     = NewDomainError(ErrCodeDuplicateCode, "A record with this code already exists")
	ErrCartCommitted     = NewDomainError(ErrCodeCartCommitted, "Cart has already been committed")
	ErrUnauthorised      = NewDomainError(ErrCodeUnauthorised, "Invalid username or password")
	ErrForbidden         = NewDomainError(ErrCodeForbidden, "Insufficient privileges for this operation")
)

// PersistenceError wraps an underlying store read/write failure. A commit that
// fails with a PersistenceError before the sales ledger write leaves all state
// untouched; one that fails after it means the sale is recorded but inventory
// may need reconciliation, and must be surfaced loudly.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// NewPersistenceError wraps err as a persistence failure for operation op.
func NewPersistenceError(op string, err error) *PersistenceError {
	return &PersistenceError{Op: op, Err: err}
}
