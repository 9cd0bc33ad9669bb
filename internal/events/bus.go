// Package events dispatches domain events to in-process handlers once the
// triggering write has committed.
package events

import (
	"context"
	"fmt"
	"sync"

	"marketnet/internal/models"
	"marketnet/internal/util"

	"go.uber.org/zap"
)

// Handler reacts to one published event
type Handler func(ctx context.Context, event models.Event) error

type subscription struct {
	name    string
	handler Handler
}

// Bus is a synchronous observer list keyed by event type. Handlers run in
// subscription order; a failing or panicking handler is logged and skipped
// and never affects the publisher or the handlers after it.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]subscription
	logger   *zap.Logger
}

// NewBus creates an empty bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[string][]subscription),
		logger:   util.GetLogger(),
	}
}

// Subscribe registers a named handler for an event type
func (b *Bus) Subscribe(eventType, name string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], subscription{name: name, handler: handler})
}

// Publish delivers the event to every handler subscribed to its type and
// returns the number of handlers that failed.
func (b *Bus) Publish(ctx context.Context, event models.Event) int {
	b.mu.RLock()
	subs := append([]subscription(nil), b.handlers[event.Type()]...)
	b.mu.RUnlock()

	failed := 0
	for _, sub := range subs {
		if err := b.dispatch(ctx, sub, event); err != nil {
			failed++
			util.EventHandlerFailuresTotal.WithLabelValues(event.Type()).Inc()
			b.logger.Error("Event handler failed",
				zap.String("event_type", event.Type()),
				zap.String("handler", sub.name),
				zap.String("key", event.Key()),
				zap.Error(err))
		}
	}
	return failed
}

func (b *Bus) dispatch(ctx context.Context, sub subscription, event models.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()

	ctx, span := util.StartSpan(ctx, "events."+sub.name)
	defer span.End()

	err = sub.handler(ctx, event)
	util.RecordError(span, err)
	return err
}
