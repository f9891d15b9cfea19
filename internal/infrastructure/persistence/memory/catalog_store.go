package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"storefront/internal/domain/catalog"
	"storefront/internal/domain/repository"
)

// productEntry owns the lock for a single product, so reservations on
// different products never wait on each other.
type productEntry struct {
	mu      sync.Mutex
	product catalog.Product
}

// CatalogStore is an in-process catalog. The map lock only guards the set
// of entries; stock changes take the entry lock.
type CatalogStore struct {
	mu       sync.RWMutex
	products map[string]*productEntry
}

func NewCatalogStore(products ...catalog.Product) *CatalogStore {
	s := &CatalogStore{products: make(map[string]*productEntry, len(products))}
	for _, p := range products {
		s.products[p.ID] = &productEntry{product: p}
	}
	return s
}

func (s *CatalogStore) entry(id string) (*productEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.products[id]
	return e, ok
}

func (s *CatalogStore) GetProduct(ctx context.Context, id string) (*catalog.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e, ok := s.entry(id)
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	e.mu.Lock()
	p := e.product
	e.mu.Unlock()
	return &p, nil
}

func (s *CatalogStore) TryReserve(ctx context.Context, id string, quantity int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if quantity <= 0 {
		return 0, catalog.ErrInvalidQuantity
	}
	e, ok := s.entry(id)
	if !ok {
		return 0, catalog.ErrProductNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.product.Active {
		return 0, catalog.ErrProductNotFound
	}
	if e.product.Stock < quantity {
		return e.product.Stock, catalog.ErrInsufficientStock
	}
	e.product.Stock -= quantity
	e.product.UpdatedAt = time.Now().UTC()
	return e.product.Stock, nil
}

func (s *CatalogStore) ReleaseReservation(ctx context.Context, id string, quantity int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if quantity <= 0 {
		return catalog.ErrInvalidQuantity
	}
	e, ok := s.entry(id)
	if !ok {
		return catalog.ErrProductNotFound
	}

	e.mu.Lock()
	e.product.Stock += quantity
	e.product.UpdatedAt = time.Now().UTC()
	e.mu.Unlock()
	return nil
}

func (s *CatalogStore) ListActive(ctx context.Context, filter repository.ProductFilter) ([]catalog.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	entries := make([]*productEntry, 0, len(s.products))
	for _, e := range s.products {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	out := make([]catalog.Product, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		p := e.product
		e.mu.Unlock()

		if !p.Active {
			continue
		}
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if filter.AvailableOnly && p.Stock <= 0 {
			continue
		}
		out = append(out, p)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *CatalogStore) UpsertProduct(ctx context.Context, p *catalog.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.Stock < 0 {
		return catalog.ErrInvalidStock
	}
	stored := *p
	stored.Price = catalog.RoundCents(stored.Price)

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.products[p.ID]; ok {
		e.mu.Lock()
		stored.CreatedAt = e.product.CreatedAt
		e.product = stored
		e.mu.Unlock()
		return nil
	}
	s.products[p.ID] = &productEntry{product: stored}
	return nil
}
