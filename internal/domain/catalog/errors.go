package catalog

import "errors"

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidCategory   = errors.New("invalid category")
	ErrInvalidPrice      = errors.New("price cannot be negative")
	ErrInvalidStock      = errors.New("stock cannot be negative")
	ErrInvalidQuantity   = errors.New("quantity must be greater than zero")
	ErrMissingName       = errors.New("product name is required")
	ErrNameTooLong       = errors.New("product name cannot exceed 100 characters")
)
