package history

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/domain/order"
	"storefront/internal/domain/repository"
	"storefront/pkg/logger"
)

// Service records order events coming off the event stream and serves the
// per-order timeline.
type Service struct {
	log     repository.EventLog
	logger  logger.Logger
	timeout time.Duration
}

func NewService(log repository.EventLog, l logger.Logger, timeout time.Duration) *Service {
	return &Service{log: log, logger: l, timeout: timeout}
}

// Record appends evt. Redelivered events are absorbed by the log.
func (s *Service) Record(ctx context.Context, evt order.Event) error {
	if evt.ID == "" || evt.OrderID == "" {
		return fmt.Errorf("record event: %w", order.ErrMissingField)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.log.Append(callCtx, evt); err != nil {
		return fmt.Errorf("append event %s: %w", evt.ID, err)
	}

	s.logger.Debug("order event recorded",
		logger.String("event_id", evt.ID),
		logger.String("event_type", string(evt.Type)),
		logger.String("order_id", evt.OrderID),
	)
	return nil
}

// History returns the events of an order, oldest first.
func (s *Service) History(ctx context.Context, orderID string) ([]order.Event, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	events, err := s.log.ListByOrder(callCtx, orderID)
	if err != nil {
		return nil, fmt.Errorf("list events of order %s: %w", orderID, err)
	}
	return events, nil
}

// PublishOrderEvent records evt directly. It lets the order service feed the
// timeline when no broker is configured.
func (s *Service) PublishOrderEvent(ctx context.Context, evt order.Event) error {
	return s.Record(ctx, evt)
}
