package events

import (
	"context"
	"errors"
	"sync"

	"inmueble_backend/platform/logger"
)

// InMemoryBus is a process-local Bus implementation. Subscriptions are
// expected to happen during startup wiring; Publish may run concurrently.
type InMemoryBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	log      *logger.Logger
}

// NewInMemoryBus creates a new in-memory event bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return &InMemoryBus{
		handlers: make(map[string][]Handler),
		log:      log,
	}
}

// Subscribe registers a handler for the given event name.
func (b *InMemoryBus) Subscribe(eventName string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventName] = append(b.handlers[eventName], handler)
}

// Publish dispatches the event to each subscribed handler in its own
// goroutine. Handler errors are logged, never returned: publishers must not
// depend on subscriber outcomes.
func (b *InMemoryBus) Publish(ctx context.Context, event Event) {
	for _, handler := range b.subscribers(event.EventName()) {
		go func(h Handler) {
			if err := h.Handle(ctx, event); err != nil && b.log != nil {
				b.log.Warn("event handler failed", "event", event.EventName(), "error", err)
			}
		}(handler)
	}
}

// PublishSync dispatches the event and waits for all handlers, joining their errors.
func (b *InMemoryBus) PublishSync(ctx context.Context, event Event) error {
	var errs []error
	for _, handler := range b.subscribers(event.EventName()) {
		if err := handler.Handle(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (b *InMemoryBus) subscribers(eventName string) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	handlers := make([]Handler, len(b.handlers[eventName]))
	copy(handlers, b.handlers[eventName])
	return handlers
}
