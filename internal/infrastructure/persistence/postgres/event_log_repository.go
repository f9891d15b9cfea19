package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	domain "storefront/internal/domain/order"
)

type EventLogRepository struct {
	pool *pgxpool.Pool
}

func NewEventLogRepository(pool *pgxpool.Pool) *EventLogRepository {
	return &EventLogRepository{pool: pool}
}

// Append ignores an event whose id is already stored, which makes consumer
// redelivery harmless.
func (r *EventLogRepository) Append(ctx context.Context, evt domain.Event) error {
	const query = `
		INSERT INTO order_events (id, order_id, order_number, type, status, previous_status, total_amount, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7::numeric, $8)
		ON CONFLICT (id) DO NOTHING;
	`
	_, err := r.pool.Exec(ctx, query,
		evt.ID,
		evt.OrderID,
		evt.OrderNumber,
		string(evt.Type),
		string(evt.Status),
		string(evt.PreviousStatus),
		evt.TotalAmount.StringFixed(2),
		evt.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("append event %s: %w", evt.ID, err)
	}
	return nil
}

func (r *EventLogRepository) ListByOrder(ctx context.Context, orderID string) ([]domain.Event, error) {
	const query = `
		SELECT id, order_id, order_number, type, status, previous_status, total_amount::text, occurred_at
		FROM order_events
		WHERE order_id = $1
		ORDER BY occurred_at, id;
	`
	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Event, 0)
	for rows.Next() {
		var (
			evt      domain.Event
			typ      string
			status   string
			previous string
			total    string
		)
		if err := rows.Scan(&evt.ID, &evt.OrderID, &evt.OrderNumber, &typ, &status, &previous, &total, &evt.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if evt.TotalAmount, err = decimal.NewFromString(total); err != nil {
			return nil, fmt.Errorf("parse total %q: %w", total, err)
		}
		evt.Type = domain.EventType(typ)
		evt.Status = domain.Status(status)
		evt.PreviousStatus = domain.Status(previous)
		evt.OccurredAt = evt.OccurredAt.UTC()
		out = append(out, evt)
	}
	return out, rows.Err()
}
