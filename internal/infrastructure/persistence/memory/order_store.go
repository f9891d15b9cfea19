package memory

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"storefront/internal/domain/order"
)

type orderEntry struct {
	mu    sync.Mutex
	order *order.Order
}

// OrderStore keeps orders in process. The sequence is a lock-free counter
// and status updates serialize on the per-order lock.
type OrderStore struct {
	seq atomic.Int64

	mu      sync.RWMutex
	orders  map[string]*orderEntry
	numbers map[string]string
}

func NewOrderStore() *OrderStore {
	return &OrderStore{
		orders:  make(map[string]*orderEntry),
		numbers: make(map[string]string),
	}
}

func (s *OrderStore) NextOrderSequence(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.seq.Add(1), nil
}

func (s *OrderStore) Save(ctx context.Context, o *order.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.orders[o.ID]; exists {
		return order.ErrDuplicateIdentity
	}
	if _, exists := s.numbers[o.Number]; exists {
		return order.ErrDuplicateIdentity
	}
	s.orders[o.ID] = &orderEntry{order: o.Clone()}
	s.numbers[o.Number] = o.ID
	return nil
}

func (s *OrderStore) FindByID(ctx context.Context, id string) (*order.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	e, ok := s.orders[id]
	s.mu.RUnlock()
	if !ok {
		return nil, order.ErrOrderNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.order.Clone(), nil
}

func (s *OrderStore) FindAll(ctx context.Context) ([]*order.Order, error) {
	return s.filter(ctx, func(*order.Order) bool { return true })
}

func (s *OrderStore) FindByStatus(ctx context.Context, status order.Status) ([]*order.Order, error) {
	return s.filter(ctx, func(o *order.Order) bool { return o.Status == status })
}

func (s *OrderStore) FindCreatedBetween(ctx context.Context, start, end time.Time) ([]*order.Order, error) {
	return s.filter(ctx, func(o *order.Order) bool {
		return !o.CreatedAt.Before(start) && o.CreatedAt.Before(end)
	})
}

func (s *OrderStore) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orders), nil
}

func (s *OrderStore) MaxOrderSequence(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	highest := s.seq.Load()
	s.mu.RLock()
	defer s.mu.RUnlock()
	for number := range s.numbers {
		if seq, ok := order.NumberSequence(number); ok && seq > highest {
			highest = seq
		}
	}
	return highest, nil
}

func (s *OrderStore) UpdateStatus(ctx context.Context, id string, from, to order.Status, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	e, ok := s.orders[id]
	s.mu.RUnlock()
	if !ok {
		return order.ErrOrderNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.order.Status != from {
		return &order.StatusConflictError{Expected: from, Actual: e.order.Status, To: to}
	}
	e.order.Status = to
	e.order.UpdatedAt = at.UTC()
	return nil
}

func (s *OrderStore) filter(ctx context.Context, keep func(*order.Order) bool) ([]*order.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	entries := make([]*orderEntry, 0, len(s.orders))
	for _, e := range s.orders {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	out := make([]*order.Order, 0)
	for _, e := range entries {
		e.mu.Lock()
		if keep(e.order) {
			out = append(out, e.order.Clone())
		}
		e.mu.Unlock()
	}
	sortNewestFirst(out)
	return out, nil
}

func sortNewestFirst(orders []*order.Order) {
	sort.Slice(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].Number > orders[j].Number
		}
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}
