package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Type names an engine event. Values double as routing keys and Kafka keys.
type Type string

const (
	OrderCreated            Type = "order.created"
	OrderStatusChanged      Type = "order.status_changed"
	OrderItemStatusChanged  Type = "order.item_status_changed"
	InventoryChanged        Type = "inventory.changed"
	MenuAvailabilityChanged Type = "menu.availability_changed"
	InventoryLowStock       Type = "inventory.low_stock"
	TableStatusChanged      Type = "table.status_changed"
)

// Reasons carried by inventory.changed and menu.availability_changed.
const (
	ReasonOrderCreated   = "order_created"
	ReasonOrderCancelled = "order_cancelled"
	ReasonStockAdjusted  = "stock_adjusted"
)

// Event is a notification emitted after a unit of work commits.
type Event struct {
	ID         string                 `json:"id"`
	Type       Type                   `json:"type"`
	Payload    map[string]interface{} `json:"payload"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// New creates an event with a fresh id.
func New(t Type, payload map[string]interface{}) Event {
	if payload == nil {
		payload = map[string]interface{}{}
	}
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		Payload:    payload,
		OccurredAt: time.Now().UTC(),
	}
}

// Sink delivers events to an external bus.
type Sink interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}
