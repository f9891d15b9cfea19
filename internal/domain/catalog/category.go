package catalog

import "fmt"

// Category is the fixed set of product categories sold by the outlet.
type Category string

const (
	CategoryBeers     Category = "beers"
	CategoryCocktails Category = "cocktails"
	CategorySpirits   Category = "spirits"
	CategorySnacks    Category = "snacks"
	CategoryOther     Category = "other"
)

var categories = []Category{
	CategoryBeers,
	CategoryCocktails,
	CategorySpirits,
	CategorySnacks,
	CategoryOther,
}

// Categories returns every known category in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

func (c Category) Valid() bool {
	for _, known := range categories {
		if c == known {
			return true
		}
	}
	return false
}

func (c Category) String() string {
	return string(c)
}

// ParseCategory converts raw input into a Category. Empty input maps to
// CategoryOther, matching how the admin flow defaults new products.
func ParseCategory(raw string) (Category, error) {
	if raw == "" {
		return CategoryOther, nil
	}
	c := Category(raw)
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, raw)
	}
	return c, nil
}
