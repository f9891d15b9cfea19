package inventory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"storefront/internal/domain/catalog"
	"storefront/internal/domain/order"
	"storefront/internal/domain/repository"
	"storefront/pkg/logger"
)

// Coordinator turns priced order lines into stock decrements. A reservation
// is all or nothing: any failure gives back every unit already taken.
type Coordinator struct {
	catalog repository.CatalogStore
	logger  logger.Logger
	timeout time.Duration
}

func NewCoordinator(store repository.CatalogStore, log logger.Logger, timeout time.Duration) *Coordinator {
	return &Coordinator{catalog: store, logger: log, timeout: timeout}
}

// Reservation holds the decrements applied for one order until the order is
// persisted. Release gives them back; it is safe to call more than once.
type Reservation struct {
	Lines []order.OrderLine

	held []order.Demand
	c    *Coordinator
	once sync.Once
	err  error
}

// Reserve decrements stock for lines. Lines repeating a product are merged
// so each product sees exactly one decrement attempt.
func (c *Coordinator) Reserve(ctx context.Context, lines []order.OrderLine) (*Reservation, error) {
	if len(lines) == 0 {
		return nil, order.ErrEmptyCart
	}

	demand := order.AggregateDemand(lines)
	held := make([]order.Demand, 0, len(demand))

	for _, d := range demand {
		if err := c.reserveOne(ctx, d); err != nil {
			c.compensate(ctx, held)
			return nil, err
		}
		held = append(held, d)
	}

	owned := make([]order.OrderLine, len(lines))
	copy(owned, lines)
	return &Reservation{Lines: owned, held: held, c: c}, nil
}

func (c *Coordinator) reserveOne(ctx context.Context, d order.Demand) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("reserve %s: %w: %w", d.ProductID, order.ErrPersistenceFailure, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	p, err := c.catalog.GetProduct(callCtx, d.ProductID)
	switch {
	case errors.Is(err, catalog.ErrProductNotFound):
		return &order.ProductError{ProductID: d.ProductID}
	case err != nil:
		return fmt.Errorf("read product %s: %w: %w", d.ProductID, order.ErrPersistenceFailure, err)
	case !p.Active:
		return &order.ProductError{ProductID: d.ProductID}
	case p.Stock < d.Quantity:
		return &order.StockError{
			Kind:        order.ErrStockConflict,
			ProductID:   p.ID,
			ProductName: p.Name,
			Requested:   d.Quantity,
			Available:   p.Stock,
		}
	}

	available, err := c.catalog.TryReserve(callCtx, d.ProductID, d.Quantity)
	switch {
	case errors.Is(err, catalog.ErrInsufficientStock):
		return &order.StockError{
			Kind:        order.ErrStockConflict,
			ProductID:   p.ID,
			ProductName: p.Name,
			Requested:   d.Quantity,
			Available:   available,
		}
	case errors.Is(err, catalog.ErrProductNotFound):
		return &order.ProductError{ProductID: d.ProductID}
	case err != nil:
		return fmt.Errorf("reserve %s: %w: %w", d.ProductID, order.ErrPersistenceFailure, err)
	}

	c.logger.Debug("stock reserved",
		logger.String("product_id", d.ProductID),
		logger.Int("quantity", d.Quantity),
		logger.Int("stock_left", available),
	)
	return nil
}

// compensate releases held in reverse order. It ignores caller cancellation
// so a canceled request still gives its stock back.
func (c *Coordinator) compensate(ctx context.Context, held []order.Demand) error {
	base := context.WithoutCancel(ctx)
	var errs []error
	for i := len(held) - 1; i >= 0; i-- {
		d := held[i]
		callCtx, cancel := context.WithTimeout(base, c.timeout)
		err := c.catalog.ReleaseReservation(callCtx, d.ProductID, d.Quantity)
		cancel()
		if err != nil {
			c.logger.WithContext(ctx).Error("release reservation failed",
				logger.String("product_id", d.ProductID),
				logger.Int("quantity", d.Quantity),
				logger.Error(err),
			)
			errs = append(errs, fmt.Errorf("release %s: %w", d.ProductID, err))
		}
	}
	return errors.Join(errs...)
}

// Release gives back every decrement of the reservation.
func (r *Reservation) Release(ctx context.Context) error {
	r.once.Do(func() {
		r.err = r.c.compensate(ctx, r.held)
	})
	return r.err
}

// Held returns the merged per-product quantities taken by the reservation.
func (r *Reservation) Held() []order.Demand {
	out := make([]order.Demand, len(r.held))
	copy(out, r.held)
	return out
}
