package memory

import (
	"context"
	"sort"
	"sync"

	"storefront/internal/domain/order"
)

type EventLog struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	byOrder map[string][]order.Event
}

func NewEventLog() *EventLog {
	return &EventLog{
		seen:    make(map[string]struct{}),
		byOrder: make(map[string][]order.Event),
	}
}

func (l *EventLog) Append(ctx context.Context, evt order.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, dup := l.seen[evt.ID]; dup {
		return nil
	}
	l.seen[evt.ID] = struct{}{}
	l.byOrder[evt.OrderID] = append(l.byOrder[evt.OrderID], evt)
	return nil
}

func (l *EventLog) ListByOrder(ctx context.Context, orderID string) ([]order.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	events := make([]order.Event, len(l.byOrder[orderID]))
	copy(events, l.byOrder[orderID])
	l.mu.Unlock()

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].OccurredAt.Before(events[j].OccurredAt)
	})
	return events, nil
}
