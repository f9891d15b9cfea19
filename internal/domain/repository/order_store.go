package repository

import (
	"context"
	"time"

	"storefront/internal/domain/order"
)

// Sequence hands out the global order count.
type Sequence interface {
	// NextOrderSequence atomically increments and returns the counter.
	NextOrderSequence(ctx context.Context) (int64, error)
}

// OrderStore persists orders.
type OrderStore interface {
	Sequence

	// Save inserts a new order; order.ErrDuplicateIdentity when the id or
	// number already exists.
	Save(ctx context.Context, o *order.Order) error

	// FindByID returns order.ErrOrderNotFound when missing.
	FindByID(ctx context.Context, id string) (*order.Order, error)

	// FindAll returns every order, newest first.
	FindAll(ctx context.Context) ([]*order.Order, error)

	// FindByStatus returns matching orders, newest first.
	FindByStatus(ctx context.Context, status order.Status) ([]*order.Order, error)

	// Count returns the number of persisted orders.
	Count(ctx context.Context) (int, error)

	// MaxOrderSequence returns the highest sequence ever issued or stored,
	// including values burned by failed saves. Zero when none exist.
	MaxOrderSequence(ctx context.Context) (int64, error)

	// FindCreatedBetween returns orders with start <= createdAt < end, newest first.
	FindCreatedBetween(ctx context.Context, start, end time.Time) ([]*order.Order, error)

	// UpdateStatus sets status to `to` only while the persisted status is
	// still `from`; otherwise it returns a *order.StatusConflictError and
	// writes nothing.
	UpdateStatus(ctx context.Context, id string, from, to order.Status, at time.Time) error
}

// EventLog stores the order event history.
type EventLog interface {
	// Append is idempotent on event id.
	Append(ctx context.Context, evt order.Event) error
	ListByOrder(ctx context.Context, orderID string) ([]order.Event, error)
}
