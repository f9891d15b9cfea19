package avro

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"storefront/internal/domain/order"
)

// OrderEventCodec converts order events to and from Avro binary.
type OrderEventCodec struct {
	enc *Encoder
}

func NewOrderEventCodec() (*OrderEventCodec, error) {
	enc, err := NewEncoder(OrderEventSchema)
	if err != nil {
		return nil, err
	}
	return &OrderEventCodec{enc: enc}, nil
}

func (c *OrderEventCodec) Encode(evt order.Event) ([]byte, error) {
	return c.enc.EncodeNative(ToOrderEventNative(evt))
}

func (c *OrderEventCodec) Decode(binary []byte) (order.Event, error) {
	native, err := c.enc.DecodeNative(binary)
	if err != nil {
		return order.Event{}, err
	}
	record, ok := native.(map[string]interface{})
	if !ok {
		return order.Event{}, fmt.Errorf("order event: unexpected native type %T", native)
	}
	return FromOrderEventNative(record)
}

// ToOrderEventNative builds the goavro native form. Unions are wrapped as
// map[string]interface{}{"type": value}.
func ToOrderEventNative(evt order.Event) map[string]interface{} {
	var previous interface{}
	if evt.PreviousStatus != "" {
		previous = map[string]interface{}{"string": string(evt.PreviousStatus)}
	}
	return map[string]interface{}{
		"id":              evt.ID,
		"type":            string(evt.Type),
		"order_id":        evt.OrderID,
		"order_number":    evt.OrderNumber,
		"status":          string(evt.Status),
		"previous_status": previous,
		"total_amount":    evt.TotalAmount.StringFixed(2),
		"occurred_at":     evt.OccurredAt.UTC(),
	}
}

func FromOrderEventNative(record map[string]interface{}) (order.Event, error) {
	var evt order.Event

	str := func(key string) (string, error) {
		v, ok := record[key].(string)
		if !ok {
			return "", fmt.Errorf("order event: field %s is %T, want string", key, record[key])
		}
		return v, nil
	}

	var err error
	if evt.ID, err = str("id"); err != nil {
		return order.Event{}, err
	}
	typ, err := str("type")
	if err != nil {
		return order.Event{}, err
	}
	evt.Type = order.EventType(typ)
	if evt.OrderID, err = str("order_id"); err != nil {
		return order.Event{}, err
	}
	if evt.OrderNumber, err = str("order_number"); err != nil {
		return order.Event{}, err
	}
	status, err := str("status")
	if err != nil {
		return order.Event{}, err
	}
	evt.Status = order.Status(status)

	if union, ok := record["previous_status"].(map[string]interface{}); ok {
		if v, ok := union["string"].(string); ok {
			evt.PreviousStatus = order.Status(v)
		}
	}

	amount, err := str("total_amount")
	if err != nil {
		return order.Event{}, err
	}
	if evt.TotalAmount, err = decimal.NewFromString(amount); err != nil {
		return order.Event{}, fmt.Errorf("order event: total_amount: %w", err)
	}

	at, ok := record["occurred_at"].(time.Time)
	if !ok {
		return order.Event{}, fmt.Errorf("order event: field occurred_at is %T, want time", record["occurred_at"])
	}
	evt.OccurredAt = at.UTC()
	return evt, nil
}
