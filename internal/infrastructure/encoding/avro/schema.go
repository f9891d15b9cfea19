package avro

// OrderEventSchema is the Avro schema of order lifecycle events.
// Amounts travel as decimal strings so no precision is lost on the wire.
const OrderEventSchema = `{
	"type": "record",
	"name": "OrderEvent",
	"namespace": "storefront.order",
	"fields": [
		{"name": "id", "type": "string"},
		{"name": "type", "type": "string"},
		{"name": "order_id", "type": "string"},
		{"name": "order_number", "type": "string"},
		{"name": "status", "type": "string"},
		{"name": "previous_status", "type": ["null", "string"], "default": null},
		{"name": "total_amount", "type": "string"},
		{"name": "occurred_at", "type": {"type": "long", "logicalType": "timestamp-millis"}}
	]
}`
