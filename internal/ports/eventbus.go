package ports

import (
	"github.com/tejashwikalptaru/goscope/internal/domain"
)

// EventBus carries pipeline lifecycle events (state changes, device
// resolution, capture start/stop/failure, preference changes) to observers.
// Snapshots never travel on the bus; they are polled from the pipeline.
//
// Implementations must be safe for concurrent use. Publish is called from the
// capture worker, so handlers must return quickly:
//
//	id := bus.Subscribe(domain.EventDeviceResolved, func(event domain.Event) {
//	    view.SetDevice(event.(domain.DeviceResolvedEvent).Device.Name)
//	})
//	defer bus.Unsubscribe(id)
type EventBus interface {
	// Publish delivers event to the subscribers of its type.
	Publish(event domain.Event)

	// Subscribe registers handler for one event type. Each call gets its own ID.
	Subscribe(eventType domain.EventType, handler domain.EventHandler) domain.SubscriptionID

	// Unsubscribe removes a subscription. Unknown IDs are ignored.
	Unsubscribe(id domain.SubscriptionID)

	// SubscribeAll registers handler for every event type.
	SubscribeAll(handler domain.EventHandler) domain.SubscriptionID

	// HasSubscribers reports whether an event of eventType has any recipient.
	HasSubscribers(eventType domain.EventType) bool

	// Close drops all subscriptions. Later publishes are ignored.
	Close() error
}

// EventFilter decides whether a subscriber sees an event.
type EventFilter func(event domain.Event) bool

// FilteringEventBus adds filtered subscriptions, used by the presenter to
// react only to clean stops:
//
//	bus.SubscribeFiltered(domain.EventStateChanged, func(e domain.Event) bool {
//	    return e.(domain.StateChangedEvent).To == domain.StateStopped
//	}, handleStopped)
type FilteringEventBus interface {
	EventBus

	SubscribeFiltered(eventType domain.EventType, filter EventFilter, handler domain.EventHandler) domain.SubscriptionID
}
