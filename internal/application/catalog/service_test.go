package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "storefront/internal/domain/catalog"
	"storefront/internal/domain/repository"
	"storefront/internal/infrastructure/persistence/memory"
)

type fixedCounter struct {
	all, today int
	err        error
}

func (c fixedCounter) CountAll(context.Context) (int, error)   { return c.all, c.err }
func (c fixedCounter) CountToday(context.Context) (int, error) { return c.today, c.err }

func testProduct(id string, category domain.Category, stock int, active bool) domain.Product {
	return domain.Product{
		ID:        id,
		Name:      "Product " + id,
		Price:     decimal.RequireFromString("5.00"),
		Category:  category,
		Stock:     stock,
		Active:    active,
		CreatedAt: time.Now(),
	}
}

func TestService_Categories(t *testing.T) {
	store := memory.NewCatalogStore(
		testProduct("a", domain.CategorySnacks, 1, true),
		testProduct("b", domain.CategoryBeers, 0, true),
		testProduct("c", domain.CategorySnacks, 4, true),
		testProduct("d", domain.CategorySpirits, 4, false),
	)
	svc := NewService(store, fixedCounter{}, 10, time.Second)

	categories, err := svc.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.Category{domain.CategoryBeers, domain.CategorySnacks}, categories)
}

func TestService_ListProducts(t *testing.T) {
	store := memory.NewCatalogStore(
		testProduct("a", domain.CategorySnacks, 1, true),
		testProduct("b", domain.CategoryBeers, 0, true),
		testProduct("c", domain.CategoryBeers, 4, false),
	)
	svc := NewService(store, fixedCounter{}, 10, time.Second)

	products, err := svc.ListProducts(context.Background(), repository.ProductFilter{AvailableOnly: true})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "a", products[0].ID)
}

func TestService_Stats(t *testing.T) {
	store := memory.NewCatalogStore(
		testProduct("a", domain.CategorySnacks, 3, true),
		testProduct("b", domain.CategoryBeers, 40, true),
		testProduct("c", domain.CategoryBeers, 1, false),
	)
	svc := NewService(store, fixedCounter{all: 12, today: 4}, 10, time.Second)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalProducts)
	assert.Equal(t, 12, stats.TotalOrders)
	assert.Equal(t, 4, stats.TodayOrders)
	assert.Equal(t, []LowStockProduct{{ID: "a", Name: "Product a", Stock: 3}}, stats.LowStockProducts)

	failing := NewService(store, fixedCounter{err: errors.New("db down")}, 10, time.Second)
	_, err = failing.Stats(context.Background())
	assert.Error(t, err)
}

func TestService_GetProduct(t *testing.T) {
	store := memory.NewCatalogStore(
		testProduct("a", domain.CategorySnacks, 3, true),
		testProduct("b", domain.CategoryBeers, 40, false),
	)
	svc := NewService(store, fixedCounter{}, 10, time.Second)

	p, err := svc.GetProduct(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "Product a", p.Name)

	_, err = svc.GetProduct(context.Background(), "b")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	_, err = svc.GetProduct(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}
