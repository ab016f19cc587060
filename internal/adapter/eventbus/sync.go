// Package eventbus provides the in-process event bus that carries pipeline
// lifecycle events from the capture worker to the presenter and services.
package eventbus

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/tejashwikalptaru/goscope/internal/domain"
	"github.com/tejashwikalptaru/goscope/internal/ports"
)

// ErrClosed is returned by Close when the bus was already closed.
var ErrClosed = errors.New("event bus closed")

// anyEvent marks a subscription that matches every event type.
const anyEvent domain.EventType = ""

// SyncEventBus delivers events synchronously on the publishing goroutine.
//
// The subscriber table is copy-on-write: Subscribe and Unsubscribe replace
// it under a mutex, Publish reads the current table without locking. The
// capture worker publishes from its hot loop and never waits on a subscriber
// being added from the UI goroutine.
//
// Typed subscribers run before wildcard subscribers, each group in
// subscription order. A panicking handler or filter is logged and skipped.
type SyncEventBus struct {
	logger atomic.Pointer[slog.Logger]

	// writeMu serializes table replacement
	writeMu sync.Mutex
	table   atomic.Pointer[[]subscription]

	nextID atomic.Uint64
	closed atomic.Bool

	published atomic.Uint64
	delivered atomic.Uint64
	panics    atomic.Uint64
}

type subscription struct {
	id        domain.SubscriptionID
	eventType domain.EventType
	filter    ports.EventFilter
	handler   domain.EventHandler
}

// Stats counts bus traffic since creation.
type Stats struct {
	Published uint64
	Delivered uint64
	Panics    uint64
}

// NewSyncEventBus creates an empty bus.
func NewSyncEventBus() *SyncEventBus {
	bus := &SyncEventBus{}
	bus.table.Store(&[]subscription{})
	return bus
}

// SetLogger sets the logger used for handler failures and debug tracing.
func (bus *SyncEventBus) SetLogger(logger *slog.Logger) {
	bus.logger.Store(logger)
}

func (bus *SyncEventBus) subs() []subscription {
	return *bus.table.Load()
}

// Publish delivers event to every matching subscriber. Nil events and
// events published after Close are dropped.
func (bus *SyncEventBus) Publish(event domain.Event) {
	if event == nil || bus.closed.Load() {
		return
	}
	bus.published.Add(1)

	eventType := event.Type()
	subs := bus.subs()

	if log := bus.logger.Load(); log != nil {
		log.Debug("event published",
			slog.String("event_type", string(eventType)),
			slog.Int("subscribers", len(subs)))
	}

	for _, sub := range subs {
		if sub.eventType == eventType {
			bus.deliver(sub, event)
		}
	}
	for _, sub := range subs {
		if sub.eventType == anyEvent {
			bus.deliver(sub, event)
		}
	}
}

func (bus *SyncEventBus) deliver(sub subscription, event domain.Event) {
	defer func() {
		if r := recover(); r != nil {
			bus.panics.Add(1)
			if log := bus.logger.Load(); log != nil {
				log.Error("event subscriber panicked",
					slog.Any("panic", r),
					slog.String("event_type", string(event.Type())),
					slog.String("subscription", string(sub.id)))
			}
		}
	}()

	if sub.filter != nil && !sub.filter(event) {
		return
	}
	sub.handler(event)
	bus.delivered.Add(1)
}

// Subscribe registers handler for events of eventType.
func (bus *SyncEventBus) Subscribe(eventType domain.EventType, handler domain.EventHandler) domain.SubscriptionID {
	return bus.SubscribeFiltered(eventType, nil, handler)
}

// SubscribeFiltered registers handler for events of eventType accepted by
// filter. A nil filter accepts every event.
func (bus *SyncEventBus) SubscribeFiltered(eventType domain.EventType, filter ports.EventFilter, handler domain.EventHandler) domain.SubscriptionID {
	if eventType == anyEvent {
		panic("event type cannot be empty, use SubscribeAll")
	}
	return bus.add(eventType, filter, handler, "sub")
}

// SubscribeAll registers handler for every event.
func (bus *SyncEventBus) SubscribeAll(handler domain.EventHandler) domain.SubscriptionID {
	return bus.add(anyEvent, nil, handler, "sub-all")
}

func (bus *SyncEventBus) add(eventType domain.EventType, filter ports.EventFilter, handler domain.EventHandler, prefix string) domain.SubscriptionID {
	if handler == nil {
		panic("event handler cannot be nil")
	}

	bus.writeMu.Lock()
	defer bus.writeMu.Unlock()

	if bus.closed.Load() {
		panic("cannot subscribe to closed event bus")
	}

	id := domain.SubscriptionID(fmt.Sprintf("%s-%d", prefix, bus.nextID.Add(1)))

	old := bus.subs()
	next := make([]subscription, len(old), len(old)+1)
	copy(next, old)
	next = append(next, subscription{id: id, eventType: eventType, filter: filter, handler: handler})
	bus.table.Store(&next)

	return id
}

// Unsubscribe removes a subscription. Unknown IDs are ignored.
func (bus *SyncEventBus) Unsubscribe(id domain.SubscriptionID) {
	bus.writeMu.Lock()
	defer bus.writeMu.Unlock()

	old := bus.subs()
	for i, sub := range old {
		if sub.id != id {
			continue
		}
		next := make([]subscription, 0, len(old)-1)
		next = append(next, old[:i]...)
		next = append(next, old[i+1:]...)
		bus.table.Store(&next)
		return
	}
}

// HasSubscribers reports whether an event of eventType would reach anyone.
func (bus *SyncEventBus) HasSubscribers(eventType domain.EventType) bool {
	for _, sub := range bus.subs() {
		if sub.eventType == eventType || sub.eventType == anyEvent {
			return true
		}
	}
	return false
}

// SubscriberCount returns the number of active subscriptions.
func (bus *SyncEventBus) SubscriberCount() int {
	return len(bus.subs())
}

// Stats returns the traffic counters.
func (bus *SyncEventBus) Stats() Stats {
	return Stats{
		Published: bus.published.Load(),
		Delivered: bus.delivered.Load(),
		Panics:    bus.panics.Load(),
	}
}

// Close drops every subscription. Later publishes are ignored.
func (bus *SyncEventBus) Close() error {
	bus.writeMu.Lock()
	defer bus.writeMu.Unlock()

	if !bus.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	bus.table.Store(&[]subscription{})

	if log := bus.logger.Load(); log != nil {
		stats := bus.Stats()
		log.Debug("event bus closed",
			slog.Uint64("published", stats.Published),
			slog.Uint64("delivered", stats.Delivered),
			slog.Uint64("panics", stats.Panics))
	}
	return nil
}

var _ ports.FilteringEventBus = (*SyncEventBus)(nil)
