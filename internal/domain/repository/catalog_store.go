package repository

import (
	"context"

	"storefront/internal/domain/catalog"
)

// ProductFilter narrows ListActive. Zero value lists every active product.
type ProductFilter struct {
	Category      catalog.Category
	AvailableOnly bool
}

// CatalogStore is the order engine's view of the product catalog.
type CatalogStore interface {
	// GetProduct returns catalog.ErrProductNotFound when id is unknown.
	// Inactive products are returned; callers decide what inactive means.
	GetProduct(ctx context.Context, id string) (*catalog.Product, error)

	// TryReserve atomically decrements stock by quantity if, and only if,
	// the product is active and has at least quantity units. It returns the
	// new stock, catalog.ErrInsufficientStock or catalog.ErrProductNotFound.
	TryReserve(ctx context.Context, id string, quantity int) (int, error)

	// ReleaseReservation gives back quantity units taken by TryReserve.
	ReleaseReservation(ctx context.Context, id string, quantity int) error

	// ListActive returns active products, newest first.
	ListActive(ctx context.Context, filter ProductFilter) ([]catalog.Product, error)
}

// CatalogWriter is used by the admin/seed flow.
type CatalogWriter interface {
	UpsertProduct(ctx context.Context, p *catalog.Product) error
}
