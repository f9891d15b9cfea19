package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"storefront/internal/application/inventory"
	"storefront/internal/domain/catalog"
	domain "storefront/internal/domain/order"
	"storefront/internal/domain/repository"
	"storefront/pkg/logger"
)

// EventPublisher ships order events to downstream consumers.
type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, evt domain.Event) error
}

type Service struct {
	catalog     repository.CatalogStore
	orders      repository.OrderStore
	coordinator *inventory.Coordinator
	numbers     *NumberGenerator
	publisher   EventPublisher
	logger      logger.Logger
	timeout     time.Duration

	now      func() time.Time
	location *time.Location
}

type Option func(*Service)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the time zone that defines "today" for ListOrders.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.location = loc }
}

// NewService wires the order engine. publisher may be nil when events are
// disabled.
func NewService(
	catalogStore repository.CatalogStore,
	orders repository.OrderStore,
	coordinator *inventory.Coordinator,
	numbers *NumberGenerator,
	publisher EventPublisher,
	log logger.Logger,
	timeout time.Duration,
	opts ...Option,
) *Service {
	s := &Service{
		catalog:     catalogStore,
		orders:      orders,
		coordinator: coordinator,
		numbers:     numbers,
		publisher:   publisher,
		logger:      log,
		timeout:     timeout,
		now:         time.Now,
		location:    time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type SubmitOrderCommand struct {
	Items         []domain.LineRequest
	Customer      domain.CustomerInfo
	DeliveryType  string
	PaymentMethod string
	Notes         string
}

type ListOrdersQuery struct {
	Status domain.Status
	Today  bool
}

// SubmitOrder validates, prices and reserves the cart, then persists a
// pending order. Once stock has been taken, every failure gives it back.
func (s *Service) SubmitOrder(ctx context.Context, cmd SubmitOrderCommand) (*domain.Order, error) {
	if len(cmd.Items) == 0 {
		return nil, domain.ErrEmptyCart
	}
	customer, err := domain.ValidateCustomer(cmd.Customer)
	if err != nil {
		return nil, err
	}
	notes, err := domain.ValidateNotes(cmd.Notes)
	if err != nil {
		return nil, err
	}
	payment, err := domain.ParsePaymentMethod(cmd.PaymentMethod)
	if err != nil {
		return nil, err
	}
	delivery, err := domain.ParseDeliveryType(cmd.DeliveryType)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.loadSnapshot(ctx, cmd.Items)
	if err != nil {
		return nil, err
	}
	quote, err := domain.PriceCart(cmd.Items, snapshot)
	if err != nil {
		return nil, err
	}

	reservation, err := s.coordinator.Reserve(ctx, quote.Lines)
	if err != nil {
		s.logger.WithContext(ctx).Warn("stock reservation failed", logger.Error(err))
		return nil, err
	}

	o, err := s.persist(ctx, reservation, customer, payment, delivery, notes)
	if err != nil {
		if relErr := reservation.Release(ctx); relErr != nil {
			err = errors.Join(err, relErr)
		}
		s.logger.WithContext(ctx).Error("order submission rolled back", logger.Error(err))
		return nil, err
	}

	s.logger.WithContext(ctx).Info("order submitted",
		logger.String("order_id", o.ID),
		logger.String("order_number", o.Number),
		logger.String("total", o.TotalAmount.StringFixed(2)),
		logger.Int("lines", len(o.Lines)),
	)
	s.publish(ctx, domain.NewCreatedEvent(uuid.NewString(), o))
	return o, nil
}

func (s *Service) persist(
	ctx context.Context,
	reservation *inventory.Reservation,
	customer domain.CustomerInfo,
	payment domain.PaymentMethod,
	delivery domain.DeliveryType,
	notes string,
) (*domain.Order, error) {
	number, err := s.numbers.Next(ctx)
	if err != nil {
		return nil, err
	}

	o, err := domain.NewOrder(uuid.NewString(), number, reservation.Lines, customer, payment, delivery, notes, s.now())
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("submit order %s: %w", number, err)
	}

	// The caller may not abort the write half way; the store timeout still applies.
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()
	err = s.orders.Save(saveCtx, o)
	switch {
	case errors.Is(err, domain.ErrDuplicateIdentity):
		return nil, fmt.Errorf("save order %s: %w: %w", number, domain.ErrIdentityGenerationFailed, err)
	case err != nil:
		return nil, fmt.Errorf("save order %s: %w: %w", number, domain.ErrPersistenceFailure, err)
	}
	return o, nil
}

// loadSnapshot reads every distinct product of the cart concurrently.
// Unknown products are left out of the snapshot.
func (s *Service) loadSnapshot(ctx context.Context, items []domain.LineRequest) (domain.Snapshot, error) {
	ids := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}

	products := make([]*catalog.Product, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(gctx, s.timeout)
			defer cancel()

			p, err := s.catalog.GetProduct(callCtx, id)
			if errors.Is(err, catalog.ErrProductNotFound) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("read product %s: %w: %w", id, domain.ErrPersistenceFailure, err)
			}
			products[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snapshot := make(domain.Snapshot, len(products))
	for _, p := range products {
		if p != nil {
			snapshot[p.ID] = *p
		}
	}
	return snapshot, nil
}

// ChangeOrderStatus moves an order along its lifecycle. The write only lands
// if nobody changed the status since it was read.
func (s *Service) ChangeOrderStatus(ctx context.Context, id string, to domain.Status) (*domain.Order, error) {
	o, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	from := o.Status
	if err := o.TransitionTo(to, s.now()); err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	err = s.orders.UpdateStatus(callCtx, id, from, to, o.UpdatedAt)
	switch {
	case errors.Is(err, domain.ErrIllegalTransition), errors.Is(err, domain.ErrOrderNotFound):
		return nil, err
	case err != nil:
		return nil, fmt.Errorf("update order %s status: %w: %w", id, domain.ErrPersistenceFailure, err)
	}

	s.logger.WithContext(ctx).Info("order status changed",
		logger.String("order_id", o.ID),
		logger.String("from", from.String()),
		logger.String("to", to.String()),
	)
	s.publish(ctx, domain.NewStatusChangedEvent(uuid.NewString(), o, from))
	return o, nil
}

func (s *Service) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	o, err := s.orders.FindByID(callCtx, id)
	switch {
	case errors.Is(err, domain.ErrOrderNotFound):
		return nil, err
	case err != nil:
		return nil, fmt.Errorf("find order %s: %w: %w", id, domain.ErrPersistenceFailure, err)
	}
	return o, nil
}

// ListOrders returns orders newest first. Status and Today combine.
func (s *Service) ListOrders(ctx context.Context, q ListOrdersQuery) ([]*domain.Order, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var (
		orders []*domain.Order
		err    error
	)
	switch {
	case q.Today:
		start, end := s.today()
		orders, err = s.orders.FindCreatedBetween(callCtx, start, end)
	case q.Status != "":
		orders, err = s.orders.FindByStatus(callCtx, q.Status)
	default:
		orders, err = s.orders.FindAll(callCtx)
	}
	if err != nil {
		return nil, fmt.Errorf("list orders: %w: %w", domain.ErrPersistenceFailure, err)
	}

	if q.Today && q.Status != "" {
		filtered := orders[:0]
		for _, o := range orders {
			if o.Status == q.Status {
				filtered = append(filtered, o)
			}
		}
		orders = filtered
	}
	return orders, nil
}

// CountToday returns the number of orders created since local midnight.
func (s *Service) CountToday(ctx context.Context) (int, error) {
	orders, err := s.ListOrders(ctx, ListOrdersQuery{Today: true})
	if err != nil {
		return 0, err
	}
	return len(orders), nil
}

func (s *Service) CountAll(ctx context.Context) (int, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.orders.Count(callCtx)
	if err != nil {
		return 0, fmt.Errorf("count orders: %w: %w", domain.ErrPersistenceFailure, err)
	}
	return n, nil
}

// EstimatedPreparation is advisory only.
func (s *Service) EstimatedPreparation(ctx context.Context, id string) (time.Duration, error) {
	o, err := s.GetOrder(ctx, id)
	if err != nil {
		return 0, err
	}
	return o.EstimatedPreparation(), nil
}

func (s *Service) today() (time.Time, time.Time) {
	now := s.now().In(s.location)
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.location)
	return start, start.AddDate(0, 0, 1)
}

// publish is best effort: a lost event never undoes a persisted order.
func (s *Service) publish(ctx context.Context, evt domain.Event) {
	if s.publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	if err := s.publisher.PublishOrderEvent(pubCtx, evt); err != nil {
		s.logger.WithContext(ctx).Warn("publish order event failed",
			logger.String("event_type", string(evt.Type)),
			logger.String("order_id", evt.OrderID),
			logger.Error(err),
		)
	}
}
