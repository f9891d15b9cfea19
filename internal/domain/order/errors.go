package order

import (
	"errors"
	"fmt"
)

// Error taxonomy of the order engine. Detailed error types below unwrap to
// one of these so callers classify with errors.Is.
var (
	ErrProductNotFound          = errors.New("product not found")
	ErrInsufficientStock        = errors.New("insufficient stock")
	ErrStockConflict            = errors.New("stock conflict")
	ErrInvalidCustomerInfo      = errors.New("invalid customer info")
	ErrIllegalTransition        = errors.New("illegal status transition")
	ErrIdentityGenerationFailed = errors.New("order identity generation failed")
	ErrPersistenceFailure       = errors.New("persistence failure")

	ErrOrderNotFound     = errors.New("order not found")
	ErrDuplicateIdentity = errors.New("duplicate order identity")
	ErrEmptyCart         = errors.New("order must have at least one item")
	ErrInvalidQuantity   = errors.New("quantity must be greater than zero")
	ErrInvalidOrder      = errors.New("invalid order")
	ErrMissingField      = errors.New("required field is missing")
)

// StockError carries the product details of a stock failure. Kind is
// ErrInsufficientStock (detected at validation) or ErrStockConflict (race
// lost at reservation time).
type StockError struct {
	Kind        error
	ProductID   string
	ProductName string
	Requested   int
	Available   int
}

func (e *StockError) Error() string {
	if errors.Is(e.Kind, ErrStockConflict) {
		return fmt.Sprintf("stock conflict for product %s: requested %d, available %d", e.ProductName, e.Requested, e.Available)
	}
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d", e.ProductName, e.Requested, e.Available)
}

func (e *StockError) Unwrap() error {
	return e.Kind
}

// ProductError reports a cart line referencing a missing or inactive product.
type ProductError struct {
	ProductID string
}

func (e *ProductError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

func (e *ProductError) Unwrap() error {
	return ErrProductNotFound
}

// ValidationError reports the offending input field.
type ValidationError struct {
	Kind   error
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %s", e.Kind, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Kind
}

func invalidCustomer(field, reason string) *ValidationError {
	return &ValidationError{Kind: ErrInvalidCustomerInfo, Field: field, Reason: reason}
}

func invalidOrder(field, reason string) *ValidationError {
	return &ValidationError{Kind: ErrInvalidOrder, Field: field, Reason: reason}
}

// TransitionError is returned when From -> To is not in the transition table.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot change status from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrIllegalTransition
}

// StatusConflictError is returned when the persisted status moved away from
// Expected between the legality check and the write. Nothing is modified.
type StatusConflictError struct {
	Expected Status
	Actual   Status
	To       Status
}

func (e *StatusConflictError) Error() string {
	return fmt.Sprintf("cannot change status to %s: expected %s but order is %s", e.To, e.Expected, e.Actual)
}

func (e *StatusConflictError) Unwrap() error {
	return ErrIllegalTransition
}
