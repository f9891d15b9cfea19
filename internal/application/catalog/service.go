package catalog

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	domain "storefront/internal/domain/catalog"
	"storefront/internal/domain/repository"
)

// OrderCounter is the slice of the order service the dashboard needs.
type OrderCounter interface {
	CountAll(ctx context.Context) (int, error)
	CountToday(ctx context.Context) (int, error)
}

type LowStockProduct struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Stock int    `json:"stock"`
}

type Stats struct {
	TotalProducts    int               `json:"totalProducts"`
	TotalOrders      int               `json:"totalOrders"`
	TodayOrders      int               `json:"todayOrders"`
	LowStockProducts []LowStockProduct `json:"lowStockProducts"`
}

type Service struct {
	store             repository.CatalogStore
	orders            OrderCounter
	lowStockThreshold int
	timeout           time.Duration
}

func NewService(store repository.CatalogStore, orders OrderCounter, lowStockThreshold int, timeout time.Duration) *Service {
	return &Service{
		store:             store,
		orders:            orders,
		lowStockThreshold: lowStockThreshold,
		timeout:           timeout,
	}
}

func (s *Service) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	products, err := s.store.ListActive(callCtx, filter)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// GetProduct hides inactive products behind ErrProductNotFound.
func (s *Service) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	p, err := s.store.GetProduct(callCtx, id)
	if err != nil {
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	if !p.Active {
		return nil, fmt.Errorf("get product %s: %w", id, domain.ErrProductNotFound)
	}
	return p, nil
}

// Categories returns the categories that have at least one active product,
// in display order.
func (s *Service) Categories(ctx context.Context) ([]domain.Category, error) {
	products, err := s.ListProducts(ctx, repository.ProductFilter{})
	if err != nil {
		return nil, err
	}

	present := make(map[domain.Category]bool, len(products))
	for _, p := range products {
		present[p.Category] = true
	}
	out := make([]domain.Category, 0, len(present))
	for _, c := range domain.Categories() {
		if present[c] {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	var (
		stats    Stats
		products []domain.Product
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = s.ListProducts(gctx, repository.ProductFilter{})
		return err
	})
	g.Go(func() error {
		var err error
		stats.TotalOrders, err = s.orders.CountAll(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		stats.TodayOrders, err = s.orders.CountToday(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}

	stats.TotalProducts = len(products)
	stats.LowStockProducts = make([]LowStockProduct, 0)
	for _, p := range products {
		if p.Stock < s.lowStockThreshold {
			stats.LowStockProducts = append(stats.LowStockProducts, LowStockProduct{ID: p.ID, Name: p.Name, Stock: p.Stock})
		}
	}
	return stats, nil
}
