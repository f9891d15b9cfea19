package order

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"storefront/internal/application/inventory"
	"storefront/internal/domain/catalog"
	domain "storefront/internal/domain/order"
	"storefront/internal/domain/repository"
	"storefront/internal/infrastructure/persistence/memory"
	"storefront/pkg/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// MockPublisher mocks EventPublisher.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishOrderEvent(ctx context.Context, evt domain.Event) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (p *recordingPublisher) PublishOrderEvent(_ context.Context, evt domain.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

// failingSequence fails every call, or runs hook before succeeding.
type failingSequence struct {
	repository.OrderStore
	err  error
	hook func()
}

func (f *failingSequence) NextOrderSequence(ctx context.Context) (int64, error) {
	if f.hook != nil {
		f.hook()
	}
	if f.err != nil {
		return 0, f.err
	}
	return f.OrderStore.NextOrderSequence(ctx)
}

type failingSave struct {
	repository.OrderStore
}

func (f *failingSave) Save(context.Context, *domain.Order) error {
	return errors.New("disk full")
}

type fixture struct {
	catalog *memory.CatalogStore
	orders  repository.OrderStore
	events  *recordingPublisher
	service *Service
}

func newFixture(t *testing.T, products ...catalog.Product) *fixture {
	t.Helper()
	return newFixtureWith(t, memory.NewOrderStore(), nil, products...)
}

func newFixtureWith(t *testing.T, orders repository.OrderStore, seq repository.Sequence, products ...catalog.Product) *fixture {
	t.Helper()
	if seq == nil {
		seq = orders
	}
	store := memory.NewCatalogStore(products...)
	events := &recordingPublisher{}
	log := logger.NewNop()
	svc := NewService(
		store,
		orders,
		inventory.NewCoordinator(store, log, time.Second),
		NewNumberGenerator(seq, "BAR", time.Second),
		events,
		log,
		time.Second,
	)
	return &fixture{catalog: store, orders: orders, events: events, service: svc}
}

func (f *fixture) stock(t *testing.T, id string) int {
	t.Helper()
	p, err := f.catalog.GetProduct(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func product(id, name, price string, category catalog.Category, stock int) catalog.Product {
	return catalog.Product{
		ID:       id,
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Category: category,
		Stock:    stock,
		Active:   true,
	}
}

func validCustomer() domain.CustomerInfo {
	return domain.CustomerInfo{Name: "Ana Souza", Phone: "(11) 98765-4321", Email: "ana@example.com"}
}

func submit(items ...domain.LineRequest) SubmitOrderCommand {
	return SubmitOrderCommand{Items: items, Customer: validCustomer()}
}

func TestService_SubmitOrder_Success(t *testing.T) {
	f := newFixture(t, product("p1", "Heineken", "12.50", catalog.CategoryBeers, 2))
	ctx := context.Background()

	o, err := f.service.SubmitOrder(ctx, submit(domain.LineRequest{ProductID: "p1", Quantity: 2}))
	require.NoError(t, err)

	assert.Equal(t, "BAR000001", o.Number)
	assert.Equal(t, domain.StatusPending, o.Status)
	assert.Equal(t, domain.PaymentCash, o.PaymentMethod)
	assert.Equal(t, domain.DeliveryPickup, o.DeliveryType)
	assert.Equal(t, "25.00", o.TotalAmount.StringFixed(2))
	require.Len(t, o.Lines, 1)
	assert.Equal(t, "Heineken", o.Lines[0].ProductName)
	assert.Equal(t, 0, f.stock(t, "p1"))

	saved, err := f.orders.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.Number, saved.Number)

	require.Len(t, f.events.events, 1)
	assert.Equal(t, domain.EventOrderCreated, f.events.events[0].Type)
	assert.Equal(t, o.ID, f.events.events[0].OrderID)

	_, err = f.service.SubmitOrder(ctx, submit(domain.LineRequest{ProductID: "p1", Quantity: 1}))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

func TestService_SubmitOrder_RoundsEachSubtotal(t *testing.T) {
	f := newFixture(t,
		product("a", "Caipirinha", "10.005", catalog.CategoryCocktails, 10),
		product("b", "Fries", "3.333", catalog.CategorySnacks, 10),
	)

	o, err := f.service.SubmitOrder(context.Background(), submit(
		domain.LineRequest{ProductID: "a", Quantity: 1},
		domain.LineRequest{ProductID: "b", Quantity: 3},
	))
	require.NoError(t, err)
	// 10.01 + 3 x 3.33
	assert.Equal(t, "20.00", o.TotalAmount.StringFixed(2))
}

func TestService_SubmitOrder_ValidationHasNoSideEffects(t *testing.T) {
	tests := []struct {
		name    string
		cmd     SubmitOrderCommand
		wantErr error
	}{
		{
			name:    "empty cart",
			cmd:     SubmitOrderCommand{Customer: validCustomer()},
			wantErr: domain.ErrEmptyCart,
		},
		{
			name: "missing phone",
			cmd: SubmitOrderCommand{
				Items:    []domain.LineRequest{{ProductID: "p1", Quantity: 1}},
				Customer: domain.CustomerInfo{Name: "Ana"},
			},
			wantErr: domain.ErrInvalidCustomerInfo,
		},
		{
			name: "bad email",
			cmd: SubmitOrderCommand{
				Items:    []domain.LineRequest{{ProductID: "p1", Quantity: 1}},
				Customer: domain.CustomerInfo{Name: "Ana", Phone: "(11) 98765-4321", Email: "nope"},
			},
			wantErr: domain.ErrInvalidCustomerInfo,
		},
		{
			name:    "unknown product",
			cmd:     submit(domain.LineRequest{ProductID: "ghost", Quantity: 1}),
			wantErr: domain.ErrProductNotFound,
		},
		{
			name:    "zero quantity",
			cmd:     submit(domain.LineRequest{ProductID: "p1", Quantity: 0}),
			wantErr: domain.ErrInvalidQuantity,
		},
		{
			name: "repeated lines exceed stock",
			cmd: submit(
				domain.LineRequest{ProductID: "p1", Quantity: 2},
				domain.LineRequest{ProductID: "p1", Quantity: 2},
			),
			wantErr: domain.ErrInsufficientStock,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, product("p1", "Heineken", "12.50", catalog.CategoryBeers, 3))

			_, err := f.service.SubmitOrder(context.Background(), tt.cmd)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, 3, f.stock(t, "p1"))
			assert.Empty(t, f.events.events)

			n, err := f.orders.Count(context.Background())
			require.NoError(t, err)
			assert.Zero(t, n)
		})
	}
}

func TestService_SubmitOrder_LastUnit(t *testing.T) {
	f := newFixture(t, product("p1", "Heineken", "12.50", catalog.CategoryBeers, 1))
	ctx := context.Background()

	const buyers = 16
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
		errs []error
	)
	wg.Add(buyers)
	for i := 0; i < buyers; i++ {
		go func() {
			defer wg.Done()
			_, err := f.service.SubmitOrder(ctx, submit(domain.LineRequest{ProductID: "p1", Quantity: 1}))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				wins++
				return
			}
			errs = append(errs, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	for _, err := range errs {
		assert.True(t,
			errors.Is(err, domain.ErrInsufficientStock) || errors.Is(err, domain.ErrStockConflict),
			"unexpected error: %v", err)
	}
	assert.Equal(t, 0, f.stock(t, "p1"))
}

func TestService_SubmitOrder_NumbersAreDense(t *testing.T) {
	const n = 25
	f := newFixture(t, product("p1", "Heineken", "12.50", catalog.CategoryBeers, n))
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers = make(map[string]struct{}, n)
	)
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			o, err := f.service.SubmitOrder(ctx, submit(domain.LineRequest{ProductID: "p1", Quantity: 1}))
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			numbers[o.Number] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, numbers, n)
	for i := int64(1); i <= n; i++ {
		want, err := domain.FormatNumber("BAR", i)
		require.NoError(t, err)
		assert.Contains(t, numbers, want)
	}
	assert.Equal(t, 0, f.stock(t, "p1"))
}

func TestService_SubmitOrder_IdentityFailureReleasesStock(t *testing.T) {
	orders := memory.NewOrderStore()
	seq := &failingSequence{OrderStore: orders, err: errors.New("sequence unavailable")}
	f := newFixtureWith(t, orders, seq, product("p1", "Heineken", "12.50", catalog.CategoryBeers, 2))

	_, err := f.service.SubmitOrder(context.Background(), submit(domain.LineRequest{ProductID: "p1", Quantity: 2}))
	assert.ErrorIs(t, err, domain.ErrIdentityGenerationFailed)
	assert.Equal(t, 2, f.stock(t, "p1"))
	assert.Empty(t, f.events.events)
}

func TestService_SubmitOrder_PersistenceFailureReleasesStock(t *testing.T) {
	orders := &failingSave{OrderStore: memory.NewOrderStore()}
	f := newFixtureWith(t, orders, nil, product("p1", "Heineken", "12.50", catalog.CategoryBeers, 2))

	_, err := f.service.SubmitOrder(context.Background(), submit(domain.LineRequest{ProductID: "p1", Quantity: 1}))
	assert.ErrorIs(t, err, domain.ErrPersistenceFailure)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, 2, f.stock(t, "p1"))
}

// stuckSequence always hands out the same value.
type stuckSequence struct{}

func (stuckSequence) NextOrderSequence(context.Context) (int64, error) {
	return 1, nil
}

func TestService_SubmitOrder_DuplicateNumberIsIdentityFailure(t *testing.T) {
	f := newFixtureWith(t, memory.NewOrderStore(), stuckSequence{}, product("p1", "Heineken", "12.50", catalog.CategoryBeers, 5))
	ctx := context.Background()

	first, err := f.service.SubmitOrder(ctx, submit(domain.LineRequest{ProductID: "p1", Quantity: 1}))
	require.NoError(t, err)
	assert.Equal(t, "BAR000001", first.Number)

	_, err = f.service.SubmitOrder(ctx, submit(domain.LineRequest{ProductID: "p1", Quantity: 1}))
	assert.ErrorIs(t, err, domain.ErrIdentityGenerationFailed)
	assert.ErrorIs(t, err, domain.ErrDuplicateIdentity)
	assert.NotErrorIs(t, err, domain.ErrPersistenceFailure)
	assert.Equal(t, 4, f.stock(t, "p1"))
}

func TestService_SubmitOrder_HugeQuantityRejectedBeforeReserve(t *testing.T) {
	f := newFixture(t, product("p1", "Heineken", "12.50", catalog.CategoryBeers, 5))

	_, err := f.service.SubmitOrder(context.Background(), submit(
		domain.LineRequest{ProductID: "p1", Quantity: 1},
		domain.LineRequest{ProductID: "p1", Quantity: math.MaxInt},
	))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.NotErrorIs(t, err, domain.ErrPersistenceFailure)
	assert.Equal(t, 5, f.stock(t, "p1"))
}

func TestService_SubmitOrder_CanceledAfterReservation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	orders := memory.NewOrderStore()
	seq := &failingSequence{OrderStore: orders, hook: cancel}
	f := newFixtureWith(t, orders, seq, product("p1", "Heineken", "12.50", catalog.CategoryBeers, 2))

	_, err := f.service.SubmitOrder(ctx, submit(domain.LineRequest{ProductID: "p1", Quantity: 2}))
	require.Error(t, err)
	assert.Equal(t, 2, f.stock(t, "p1"))

	n, err := orders.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestService_SubmitOrder_PublishFailureKeepsOrder(t *testing.T) {
	store := memory.NewCatalogStore(product("p1", "Heineken", "12.50", catalog.CategoryBeers, 2))
	orders := memory.NewOrderStore()
	publisher := new(MockPublisher)
	log := logger.NewNop()
	svc := NewService(store, orders,
		inventory.NewCoordinator(store, log, time.Second),
		NewNumberGenerator(orders, "BAR", time.Second),
		publisher, log, time.Second)

	publisher.On("PublishOrderEvent", mock.Anything, mock.MatchedBy(func(evt domain.Event) bool {
		return evt.Type == domain.EventOrderCreated
	})).Return(errors.New("broker down")).Once()

	o, err := svc.SubmitOrder(context.Background(), submit(domain.LineRequest{ProductID: "p1", Quantity: 1}))
	require.NoError(t, err)

	_, err = orders.FindByID(context.Background(), o.ID)
	assert.NoError(t, err)
	publisher.AssertExpectations(t)
}

func TestService_ChangeOrderStatus(t *testing.T) {
	f := newFixture(t, product("p1", "Heineken", "12.50", catalog.CategoryBeers, 5))
	ctx := context.Background()

	o, err := f.service.SubmitOrder(ctx, submit(domain.LineRequest{ProductID: "p1", Quantity: 1}))
	require.NoError(t, err)

	updated, err := f.service.ChangeOrderStatus(ctx, o.ID, domain.StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, updated.Status)

	_, err = f.service.ChangeOrderStatus(ctx, o.ID, domain.StatusDelivered)
	var transitionErr *domain.TransitionError
	require.True(t, errors.As(err, &transitionErr))
	assert.Equal(t, domain.StatusConfirmed, transitionErr.From)
	assert.Equal(t, domain.StatusDelivered, transitionErr.To)
	assert.ErrorIs(t, err, domain.ErrIllegalTransition)

	stored, err := f.service.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, stored.Status)

	for _, next := range []domain.Status{domain.StatusPreparing, domain.StatusReady, domain.StatusDelivered} {
		_, err = f.service.ChangeOrderStatus(ctx, o.ID, next)
		require.NoError(t, err)
	}
	_, err = f.service.ChangeOrderStatus(ctx, o.ID, domain.StatusCancelled)
	assert.ErrorIs(t, err, domain.ErrIllegalTransition)

	// created + four status changes
	require.Len(t, f.events.events, 5)
	last := f.events.events[4]
	assert.Equal(t, domain.EventStatusChanged, last.Type)
	assert.Equal(t, domain.StatusReady, last.PreviousStatus)
	assert.Equal(t, domain.StatusDelivered, last.Status)

	_, err = f.service.ChangeOrderStatus(ctx, "missing", domain.StatusConfirmed)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestService_ChangeOrderStatus_CancelDoesNotRestock(t *testing.T) {
	f := newFixture(t, product("p1", "Heineken", "12.50", catalog.CategoryBeers, 5))
	ctx := context.Background()

	o, err := f.service.SubmitOrder(ctx, submit(domain.LineRequest{ProductID: "p1", Quantity: 2}))
	require.NoError(t, err)

	_, err = f.service.ChangeOrderStatus(ctx, o.ID, domain.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, 3, f.stock(t, "p1"))
}

func TestService_ListOrders(t *testing.T) {
	loc := time.UTC
	now := time.Date(2024, 5, 10, 15, 0, 0, 0, loc)
	clock := now

	store := memory.NewCatalogStore(product("p1", "Heineken", "12.50", catalog.CategoryBeers, 10))
	orders := memory.NewOrderStore()
	log := logger.NewNop()
	svc := NewService(store, orders,
		inventory.NewCoordinator(store, log, time.Second),
		NewNumberGenerator(orders, "BAR", time.Second),
		nil, log, time.Second,
		WithClock(func() time.Time { return clock }),
		WithLocation(loc),
	)
	ctx := context.Background()
	cmd := submit(domain.LineRequest{ProductID: "p1", Quantity: 1})

	clock = now.AddDate(0, 0, -1)
	old, err := svc.SubmitOrder(ctx, cmd)
	require.NoError(t, err)

	clock = now.Add(-2 * time.Hour)
	first, err := svc.SubmitOrder(ctx, cmd)
	require.NoError(t, err)

	clock = now
	second, err := svc.SubmitOrder(ctx, cmd)
	require.NoError(t, err)
	_, err = svc.ChangeOrderStatus(ctx, second.ID, domain.StatusConfirmed)
	require.NoError(t, err)

	all, err := svc.ListOrders(ctx, ListOrdersQuery{})
	require.NoError(t, err)
	assert.Equal(t, []string{second.ID, first.ID, old.ID}, idsOf(all))

	today, err := svc.ListOrders(ctx, ListOrdersQuery{Today: true})
	require.NoError(t, err)
	assert.Equal(t, []string{second.ID, first.ID}, idsOf(today))

	pendingToday, err := svc.ListOrders(ctx, ListOrdersQuery{Today: true, Status: domain.StatusPending})
	require.NoError(t, err)
	assert.Equal(t, []string{first.ID}, idsOf(pendingToday))

	pending, err := svc.ListOrders(ctx, ListOrdersQuery{Status: domain.StatusPending})
	require.NoError(t, err)
	assert.Equal(t, []string{first.ID, old.ID}, idsOf(pending))

	count, err := svc.CountToday(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	total, err := svc.CountAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}

func TestService_EstimatedPreparation(t *testing.T) {
	f := newFixture(t,
		product("beer", "Heineken", "12.50", catalog.CategoryBeers, 10),
		product("fries", "Fries", "20.00", catalog.CategorySnacks, 10),
	)
	ctx := context.Background()

	o, err := f.service.SubmitOrder(ctx, submit(
		domain.LineRequest{ProductID: "beer", Quantity: 2},
		domain.LineRequest{ProductID: "fries", Quantity: 1},
	))
	require.NoError(t, err)

	eta, err := f.service.EstimatedPreparation(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, 29*time.Minute, eta)

	_, err = f.service.EstimatedPreparation(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func idsOf(orders []*domain.Order) []string {
	out := make([]string, 0, len(orders))
	for _, o := range orders {
		out = append(out, o.ID)
	}
	return out
}
