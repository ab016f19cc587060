// Package domain defines events for the event-driven architecture.
// Events decouple the capture pipeline from its observers (UI, logging, stream).
package domain

import (
	"time"
)

// Event is the base interface for all events in the system.
// All events must implement this interface to be published via the event bus.
type Event interface {
	// Type returns the event type identifier
	Type() EventType

	// Timestamp returns when the event occurred
	Timestamp() time.Time
}

// EventType is a string identifier for different event types.
type EventType string

// Event type constants define all possible events in the system.
const (
	// Pipeline lifecycle events
	EventStateChanged   EventType = "pipeline.state_changed"
	EventDeviceResolved EventType = "capture.device_resolved"
	EventCaptureStarted EventType = "capture.started"
	EventCaptureStopped EventType = "capture.stopped"
	EventCaptureFailed  EventType = "capture.failed"

	// Preference events
	EventPreferencesChanged EventType = "preferences.changed"
)

// EventHandler is a function that handles events.
type EventHandler func(event Event)

// SubscriptionID uniquely identifies an event subscription.
type SubscriptionID string

// baseEvent provides common event functionality.
// All concrete events should embed this struct.
type baseEvent struct {
	timestamp time.Time
}

// Timestamp returns when the event occurred.
func (e baseEvent) Timestamp() time.Time {
	return e.timestamp
}

// newBaseEvent creates a new base event with the current timestamp.
func newBaseEvent() baseEvent {
	return baseEvent{timestamp: time.Now()}
}

// StateChangedEvent is published on every pipeline state transition.
type StateChangedEvent struct {
	baseEvent
	From PipelineState
	To   PipelineState
}

// Type returns the event type.
func (e StateChangedEvent) Type() EventType {
	return EventStateChanged
}

// NewStateChangedEvent creates a new StateChangedEvent.
func NewStateChangedEvent(from, to PipelineState) StateChangedEvent {
	return StateChangedEvent{
		baseEvent: newBaseEvent(),
		From:      from,
		To:        to,
	}
}

// DeviceResolvedEvent is published when a resolver selected a device.
type DeviceResolvedEvent struct {
	baseEvent
	Mode   CaptureMode
	Device DeviceInfo
}

// Type returns the event type.
func (e DeviceResolvedEvent) Type() EventType {
	return EventDeviceResolved
}

// NewDeviceResolvedEvent creates a new DeviceResolvedEvent.
func NewDeviceResolvedEvent(mode CaptureMode, device DeviceInfo) DeviceResolvedEvent {
	return DeviceResolvedEvent{
		baseEvent: newBaseEvent(),
		Mode:      mode,
		Device:    device,
	}
}

// CaptureStartedEvent is published when a stream opened and the worker is running.
type CaptureStartedEvent struct {
	baseEvent
	SessionID  string
	Device     DeviceInfo
	SampleRate int
	Channels   int
}

// Type returns the event type.
func (e CaptureStartedEvent) Type() EventType {
	return EventCaptureStarted
}

// NewCaptureStartedEvent creates a new CaptureStartedEvent.
func NewCaptureStartedEvent(sessionID string, device DeviceInfo, sampleRate, channels int) CaptureStartedEvent {
	return CaptureStartedEvent{
		baseEvent:  newBaseEvent(),
		SessionID:  sessionID,
		Device:     device,
		SampleRate: sampleRate,
		Channels:   channels,
	}
}

// CaptureStoppedEvent is published when a session ends because Stop was requested.
type CaptureStoppedEvent struct {
	baseEvent
	SessionID string
	Cycles    uint64
}

// Type returns the event type.
func (e CaptureStoppedEvent) Type() EventType {
	return EventCaptureStopped
}

// NewCaptureStoppedEvent creates a new CaptureStoppedEvent.
func NewCaptureStoppedEvent(sessionID string, cycles uint64) CaptureStoppedEvent {
	return CaptureStoppedEvent{
		baseEvent: newBaseEvent(),
		SessionID: sessionID,
		Cycles:    cycles,
	}
}

// CaptureFailedEvent is published when resolution, open or a read fails.
type CaptureFailedEvent struct {
	baseEvent
	SessionID string
	Error     error
}

// Type returns the event type.
func (e CaptureFailedEvent) Type() EventType {
	return EventCaptureFailed
}

// NewCaptureFailedEvent creates a new CaptureFailedEvent.
func NewCaptureFailedEvent(sessionID string, err error) CaptureFailedEvent {
	return CaptureFailedEvent{
		baseEvent: newBaseEvent(),
		SessionID: sessionID,
		Error:     err,
	}
}

// PreferencesChangedEvent is published when a persisted preference changes.
type PreferencesChangedEvent struct {
	baseEvent
	Key   string
	Value interface{}
}

// Type returns the event type.
func (e PreferencesChangedEvent) Type() EventType {
	return EventPreferencesChanged
}

// NewPreferencesChangedEvent creates a new PreferencesChangedEvent.
func NewPreferencesChangedEvent(key string, value interface{}) PreferencesChangedEvent {
	return PreferencesChangedEvent{
		baseEvent: newBaseEvent(),
		Key:       key,
		Value:     value,
	}
}
