package catalog

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const maxNameLength = 100

// Product is a catalog record. Products are never deleted: Active=false
// hides them from the storefront while historical order lines keep their
// snapshot of name and price.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	Category    Category
	ImageURL    string
	Stock       int
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func NewProduct(id, name, description string, price decimal.Decimal, category Category, stock int) (*Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrMissingName
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return nil, ErrNameTooLong
	}
	if price.IsNegative() {
		return nil, ErrInvalidPrice
	}
	if stock < 0 {
		return nil, ErrInvalidStock
	}
	if !category.Valid() {
		return nil, ErrInvalidCategory
	}

	now := time.Now().UTC()
	return &Product{
		ID:          id,
		Name:        name,
		Description: description,
		Price:       RoundCents(price),
		Category:    category,
		Stock:       stock,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// IsAvailable reports whether the product can be shown as purchasable.
func (p *Product) IsAvailable() bool {
	return p.Active && p.Stock > 0
}

// CanSupply reports whether quantity units can be sold from current stock.
func (p *Product) CanSupply(quantity int) bool {
	return p.Active && quantity > 0 && p.Stock >= quantity
}

// RoundCents rounds an amount to 2 decimal places, half away from zero.
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
