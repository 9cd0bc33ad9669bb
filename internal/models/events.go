package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	EventTypeIdentityCreated = "IDENTITY_CREATED"
	EventTypeCustomerCreated = "CUSTOMER_CREATED"
	EventTypeOrderPlaced     = "ORDER_PLACED"
	EventTypeOrderUpdated    = "ORDER_UPDATED"
	EventTypeObjectDeleted   = "OBJECT_DELETED"
)

// Event is anything that can travel over the event bus and the broker
type Event interface {
	Type() string
	Key() string
}

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// NewBaseEvent stamps a fresh event id and time
func NewBaseEvent(eventType string) BaseEvent {
	return BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now().UTC(),
	}
}

func (e BaseEvent) Type() string { return e.EventType }

// IdentityCreatedEvent is fired after a user row commits
type IdentityCreatedEvent struct {
	BaseEvent
	User User `json:"user"`
}

func (e *IdentityCreatedEvent) Key() string { return keyFor("user", e.User.ID) }

// CustomerCreatedEvent is fired after a customer profile is provisioned
type CustomerCreatedEvent struct {
	BaseEvent
	Customer Customer `json:"customer"`
}

func (e *CustomerCreatedEvent) Key() string { return keyFor("customer", e.Customer.ID) }

// OrderPlacedEvent is fired after a cart is converted into an order
type OrderPlacedEvent struct {
	BaseEvent
	Order  Order       `json:"order"`
	CartID uuid.UUID   `json:"cart_id"`
	Items  []OrderItem `json:"items"`
}

func (e *OrderPlacedEvent) Key() string { return keyFor("order", e.Order.ID) }

// OrderUpdatedEvent is fired after an order's payment status changes
type OrderUpdatedEvent struct {
	BaseEvent
	Order          Order  `json:"order"`
	PreviousStatus string `json:"previous_status"`
}

func (e *OrderUpdatedEvent) Key() string { return keyFor("order", e.Order.ID) }

// ObjectDeletedEvent is fired after a catalog object is removed
type ObjectDeletedEvent struct {
	BaseEvent
	Kind     TaggableKind `json:"kind"`
	ObjectID int64        `json:"object_id"`
}

func (e *ObjectDeletedEvent) Key() string { return keyFor(string(e.Kind), e.ObjectID) }

func keyFor(kind string, id int64) string {
	return fmt.Sprintf("%s-%d", kind, id)
}
