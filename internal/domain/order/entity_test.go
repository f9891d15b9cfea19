package order

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain/catalog"
)

func newTestOrder(t *testing.T) *Order {
	t.Helper()
	line, err := NewOrderLine(product("a", "IPA", "12.50", 10), 2)
	require.NoError(t, err)

	o, err := NewOrder("id-1", "BAR000001", []OrderLine{line}, CustomerInfo{Name: "Ana", Phone: "(11) 99999-9999"}, "", "", "", time.Now())
	require.NoError(t, err)
	return o
}

func TestNewOrder_Defaults(t *testing.T) {
	o := newTestOrder(t)

	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, PaymentCash, o.PaymentMethod)
	assert.Equal(t, PaymentPending, o.PaymentStatus)
	assert.Equal(t, DeliveryPickup, o.DeliveryType)
	assert.Equal(t, "25.00", o.TotalAmount.StringFixed(2))
}

func TestNewOrder_RejectsForgedLine(t *testing.T) {
	forged := OrderLine{
		ProductID: "a",
		Price:     decimal.RequireFromString("12.50"),
		Quantity:  2,
		Subtotal:  decimal.RequireFromString("1.00"),
	}

	_, err := NewOrder("id", "BAR000001", []OrderLine{forged}, CustomerInfo{}, "", "", "", time.Now())
	assert.ErrorIs(t, err, ErrInvalidOrder)
}

func TestNewOrder_MissingIdentity(t *testing.T) {
	line, err := NewOrderLine(product("a", "IPA", "1.00", 1), 1)
	require.NoError(t, err)

	_, err = NewOrder("", "BAR000001", []OrderLine{line}, CustomerInfo{}, "", "", "", time.Now())
	assert.ErrorIs(t, err, ErrMissingField)

	_, err = NewOrder("id", "BAR000001", nil, CustomerInfo{}, "", "", "", time.Now())
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestOrder_TransitionTo(t *testing.T) {
	o := newTestOrder(t)
	later := o.UpdatedAt.Add(time.Minute)

	require.NoError(t, o.TransitionTo(StatusConfirmed, later))
	assert.Equal(t, StatusConfirmed, o.Status)
	assert.Equal(t, later.UTC(), o.UpdatedAt)

	err := o.TransitionTo(StatusDelivered, later.Add(time.Minute))
	assert.ErrorIs(t, err, ErrIllegalTransition)
	assert.Equal(t, StatusConfirmed, o.Status)
	assert.Equal(t, later.UTC(), o.UpdatedAt)
}

func TestOrder_Clone(t *testing.T) {
	o := newTestOrder(t)
	o.Customer.Address = &Address{City: "Recife"}

	c := o.Clone()
	c.Lines[0].Quantity = 99
	c.Customer.Address.City = "Natal"

	assert.Equal(t, 2, o.Lines[0].Quantity)
	assert.Equal(t, "Recife", o.Customer.Address.City)
}

func TestFormatNumber(t *testing.T) {
	n, err := FormatNumber("BAR", 42)
	require.NoError(t, err)
	assert.Equal(t, "BAR000042", n)

	_, err = FormatNumber("BAR", 0)
	assert.ErrorIs(t, err, ErrIdentityGenerationFailed)
}

func TestNumberSequence(t *testing.T) {
	seq, ok := NumberSequence("BAR000042")
	assert.True(t, ok)
	assert.Equal(t, int64(42), seq)

	seq, ok = NumberSequence("BAR1234567")
	assert.True(t, ok)
	assert.Equal(t, int64(1234567), seq)

	_, ok = NumberSequence("BAR")
	assert.False(t, ok)
	_, ok = NumberSequence("BAR000000")
	assert.False(t, ok)
}

func TestEstimatePreparation(t *testing.T) {
	lines := []OrderLine{
		{Category: catalog.CategoryBeers, Quantity: 2},
		{Category: catalog.CategoryCocktails, Quantity: 1},
		{Category: catalog.CategorySnacks, Quantity: 1},
		{Category: catalog.CategoryOther, Quantity: 2},
	}

	// 15 + 2*2 + 5 + 10 + 3*2
	assert.Equal(t, 40*time.Minute, EstimatePreparation(lines))
	assert.Equal(t, 15*time.Minute, EstimatePreparation(nil))
}
