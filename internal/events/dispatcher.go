package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// EventHandler reacts to a published account event.
type EventHandler func(context.Context, Event) error

// Dispatcher fans account events out to subscribers.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler EventHandler)
}

type syncDispatcher struct {
	mu          sync.RWMutex
	subscribers map[EventType][]EventHandler
}

// NewInMemoryDispatcher returns a Dispatcher that runs handlers on the publishing goroutine.
func NewInMemoryDispatcher() Dispatcher {
	return &syncDispatcher{subscribers: map[EventType][]EventHandler{}}
}

// Publish runs every subscriber of event.Type in registration order. Failures,
// including panics, are collected and joined; later subscribers still run.
func (d *syncDispatcher) Publish(ctx context.Context, event Event) error {
	d.mu.RLock()
	subs := make([]EventHandler, len(d.subscribers[event.Type]))
	copy(subs, d.subscribers[event.Type])
	d.mu.RUnlock()

	var errs []error
	for i, handle := range subs {
		if err := invoke(ctx, handle, event); err != nil {
			errs = append(errs, fmt.Errorf("%s subscriber %d: %w", event.Type, i, err))
		}
	}
	return errors.Join(errs...)
}

func invoke(ctx context.Context, handle EventHandler, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return handle(ctx, event)
}

// Subscribe appends handler to the subscribers of eventType.
func (d *syncDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.mu.Lock()
	d.subscribers[eventType] = append(d.subscribers[eventType], handler)
	d.mu.Unlock()
}
