package order

import (
	"time"

	"github.com/shopspring/decimal"
)

type EventType string

const (
	EventOrderCreated  EventType = "order.created"
	EventStatusChanged EventType = "order.status_changed"
)

// Event is a fact about an order published after it has been persisted.
type Event struct {
	ID             string
	Type           EventType
	OrderID        string
	OrderNumber    string
	Status         Status
	PreviousStatus Status
	TotalAmount    decimal.Decimal
	OccurredAt     time.Time
}

func NewCreatedEvent(id string, o *Order) Event {
	return Event{
		ID:          id,
		Type:        EventOrderCreated,
		OrderID:     o.ID,
		OrderNumber: o.Number,
		Status:      o.Status,
		TotalAmount: o.TotalAmount,
		OccurredAt:  o.CreatedAt,
	}
}

func NewStatusChangedEvent(id string, o *Order, from Status) Event {
	return Event{
		ID:             id,
		Type:           EventStatusChanged,
		OrderID:        o.ID,
		OrderNumber:    o.Number,
		Status:         o.Status,
		PreviousStatus: from,
		TotalAmount:    o.TotalAmount,
		OccurredAt:     o.UpdatedAt,
	}
}
