// Package pubsub provides a generic publish/subscribe event system.
package pubsub

import (
	"context"
	"time"
)

// EventType represents the type of event being published.
type EventType string

const (
	// RegisteredEvent fires when a component is registered.
	RegisteredEvent EventType = "registered"
	// UpdatedEvent fires when a registration's relationships change.
	UpdatedEvent EventType = "updated"
	// UnregisteredEvent fires when a component is unregistered.
	UnregisteredEvent EventType = "unregistered"
	// BoundEvent fires when a property binding is attached.
	BoundEvent EventType = "bound"
	// UnboundEvent fires when a property binding is detached.
	UnboundEvent EventType = "unbound"
	// EntryEvent carries a log entry.
	EntryEvent EventType = "entry"
)

// Event represents a published event with a typed payload.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// Subscriber provides a subscription channel for events.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

// Publisher allows publishing events with a typed payload.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T)
}
