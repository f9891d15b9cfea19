package order

import (
	"time"

	"github.com/shopspring/decimal"

	"storefront/internal/domain/catalog"
)

// OrderLine is an immutable snapshot of a product at order time.
type OrderLine struct {
	ProductID   string           `json:"productId"`
	ProductName string           `json:"productName"`
	Category    catalog.Category `json:"category"`
	Price       decimal.Decimal  `json:"price"`
	Quantity    int              `json:"quantity"`
	Subtotal    decimal.Decimal  `json:"subtotal"`
}

func NewOrderLine(p catalog.Product, quantity int) (OrderLine, error) {
	if quantity < 1 {
		return OrderLine{}, ErrInvalidQuantity
	}
	price := catalog.RoundCents(p.Price)
	return OrderLine{
		ProductID:   p.ID,
		ProductName: p.Name,
		Category:    p.Category,
		Price:       price,
		Quantity:    quantity,
		Subtotal:    catalog.RoundCents(price.Mul(decimal.NewFromInt(int64(quantity)))),
	}, nil
}

// Consistent reports whether Subtotal still equals Price x Quantity.
func (l OrderLine) Consistent() bool {
	want := catalog.RoundCents(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	return l.Quantity >= 1 && l.Subtotal.Equal(want)
}

type Order struct {
	ID            string
	Number        string
	Lines         []OrderLine
	TotalAmount   decimal.Decimal
	Customer      CustomerInfo
	Status        Status
	PaymentMethod PaymentMethod
	PaymentStatus PaymentStatus
	DeliveryType  DeliveryType
	Notes         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewOrder assembles a pending order. TotalAmount is always derived from
// lines, never taken from the caller.
func NewOrder(
	id, number string,
	lines []OrderLine,
	customer CustomerInfo,
	payment PaymentMethod,
	delivery DeliveryType,
	notes string,
	now time.Time,
) (*Order, error) {
	if id == "" || number == "" {
		return nil, ErrMissingField
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}
	for _, line := range lines {
		if !line.Consistent() {
			return nil, invalidOrder("items", "line subtotal does not match price x quantity")
		}
	}
	if payment == "" {
		payment = PaymentCash
	}
	if delivery == "" {
		delivery = DeliveryPickup
	}

	owned := make([]OrderLine, len(lines))
	copy(owned, lines)

	now = now.UTC()
	return &Order{
		ID:            id,
		Number:        number,
		Lines:         owned,
		TotalAmount:   SumLines(owned),
		Customer:      customer,
		Status:        StatusPending,
		PaymentMethod: payment,
		PaymentStatus: PaymentPending,
		DeliveryType:  delivery,
		Notes:         notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// TransitionTo moves the order to status to. The order is left untouched
// when the move is illegal.
func (o *Order) TransitionTo(to Status, now time.Time) error {
	if err := CheckTransition(o.Status, to); err != nil {
		return err
	}
	o.Status = to
	o.UpdatedAt = now.UTC()
	return nil
}

// Clone returns a deep copy so stores never share line slices with callers.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	c.Lines = make([]OrderLine, len(o.Lines))
	copy(c.Lines, o.Lines)
	if o.Customer.Address != nil {
		addr := *o.Customer.Address
		c.Customer.Address = &addr
	}
	return &c
}
