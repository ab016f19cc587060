// Package ports define interfaces for dependency inversion.
// These interfaces allow the capture pipeline to remain independent of external frameworks.
package ports

import (
	"context"

	"github.com/tejashwikalptaru/goscope/internal/domain"
)

// AudioSource is the interface for audio capture backends.
// This abstracts the underlying audio library (PortAudio) and allows for testing with mocks.
//
// Implementations must be thread-safe as they may be called from multiple goroutines.
type AudioSource interface {
	// Lifecycle methods

	// Initialize sets up the audio library.
	//
	// Returns domain.ErrAlreadyInitialized if called twice.
	Initialize() error

	// Shutdown releases all audio library resources.
	// Streams opened from this source must be closed first.
	Shutdown() error

	// IsInitialized returns true if the source has been successfully initialized.
	IsInitialized() bool

	// Device enumeration methods

	// Devices lists every device the backend knows about, in enumeration order.
	// Loopback-capable devices have IsLoopback set.
	Devices() ([]domain.DeviceInfo, error)

	// DefaultInputDevice returns the platform default capture device.
	DefaultInputDevice() (domain.DeviceInfo, error)

	// DefaultOutputDevice returns the platform default playback device.
	DefaultOutputDevice() (domain.DeviceInfo, error)

	// Stream methods

	// Open opens a capture stream on device. The stream is a scoped resource:
	// the caller must Close it when capture ends.
	//
	// Returns domain.ErrUnknownDevice if the device did not come from this source.
	Open(device domain.DeviceInfo, params domain.StreamParams) (Stream, error)
}

// Stream is an open, blocking capture stream.
//
// Read is called from a single goroutine; Close may be called from another one
// only after the reader has returned.
type Stream interface {
	// Channels returns the number of channels every block carries.
	Channels() int

	// Read blocks until FramesPerBuffer frames are available and returns them as
	// one slice per channel. The returned slices are only valid until the next Read.
	//
	// Implementations that can abort a pending read do so when ctx is done;
	// others check ctx before blocking.
	Read(ctx context.Context) ([][]float32, error)

	// Close stops the stream and releases the device.
	Close() error
}

// DeviceResolver selects exactly one capture device.
// Resolvers never open streams.
type DeviceResolver interface {
	// Mode reports which capture mode the resolver implements.
	Mode() domain.CaptureMode

	// Resolve picks a device, or returns a *domain.DeviceResolutionError.
	Resolve(ctx context.Context) (domain.DeviceInfo, error)
}
