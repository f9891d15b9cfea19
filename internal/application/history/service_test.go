package history

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain/order"
	"storefront/internal/infrastructure/persistence/memory"
	"storefront/pkg/logger"
)

func TestService_RecordAndHistory(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.NewEventLog(), logger.NewNop(), time.Second)
	at := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	created := order.Event{
		ID:          "e1",
		Type:        order.EventOrderCreated,
		OrderID:     "o1",
		OrderNumber: "BAR000001",
		Status:      order.StatusPending,
		TotalAmount: decimal.RequireFromString("25.00"),
		OccurredAt:  at,
	}
	confirmed := order.Event{
		ID:             "e2",
		Type:           order.EventStatusChanged,
		OrderID:        "o1",
		OrderNumber:    "BAR000001",
		Status:         order.StatusConfirmed,
		PreviousStatus: order.StatusPending,
		TotalAmount:    decimal.RequireFromString("25.00"),
		OccurredAt:     at.Add(time.Minute),
	}

	require.NoError(t, svc.Record(ctx, confirmed))
	require.NoError(t, svc.PublishOrderEvent(ctx, created))
	require.NoError(t, svc.Record(ctx, created))

	events, err := svc.History(ctx, "o1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, order.EventOrderCreated, events[0].Type)
	assert.Equal(t, order.StatusConfirmed, events[1].Status)
}

func TestService_Record_MissingIDs(t *testing.T) {
	svc := NewService(memory.NewEventLog(), logger.NewNop(), time.Second)

	err := svc.Record(context.Background(), order.Event{OrderID: "o1"})
	assert.ErrorIs(t, err, order.ErrMissingField)

	err = svc.Record(context.Background(), order.Event{ID: "e1"})
	assert.ErrorIs(t, err, order.ErrMissingField)
}
