// Package domain defines domain-specific errors.
// These errors represent capture failures and are independent of infrastructure.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors that services can return.
var (
	// ErrNoDevice is returned when no suitable capture device can be resolved.
	ErrNoDevice = errors.New("no suitable capture device")

	// ErrAlreadyRunning is returned when starting a pipeline that is resolving or streaming.
	ErrAlreadyRunning = errors.New("capture pipeline already running")

	// ErrNotRunning is returned when an operation needs an active pipeline.
	ErrNotRunning = errors.New("capture pipeline not running")

	// ErrNotInitialized is returned when an operation is attempted on an uninitialized component.
	ErrNotInitialized = errors.New("component not initialized")

	// ErrAlreadyInitialized is returned when attempting to initialize an already initialized component.
	ErrAlreadyInitialized = errors.New("component already initialized")

	// ErrStreamClosed is returned when reading from a closed stream.
	ErrStreamClosed = errors.New("stream closed")

	// ErrInvalidConfig is wrapped by configuration validation failures.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUnknownDevice is returned when a device handle does not belong to the source.
	ErrUnknownDevice = errors.New("unknown device")
)

// DeviceResolutionError reports that no device could be selected.
// Available lists every device the source enumerated, for diagnostics.
type DeviceResolutionError struct {
	Mode      CaptureMode
	Available []DeviceInfo
	Err       error
}

// Error implements the error interface.
func (e *DeviceResolutionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "resolve %s device: %v", e.Mode, e.Err)
	if len(e.Available) == 0 {
		b.WriteString("; no devices available")
		return b.String()
	}
	b.WriteString("; available devices:")
	for _, d := range e.Available {
		b.WriteString("\n  - ")
		b.WriteString(d.String())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *DeviceResolutionError) Unwrap() error {
	return e.Err
}

// NewDeviceResolutionError creates a new DeviceResolutionError.
func NewDeviceResolutionError(mode CaptureMode, available []DeviceInfo, err error) *DeviceResolutionError {
	if err == nil {
		err = ErrNoDevice
	}
	return &DeviceResolutionError{
		Mode:      mode,
		Available: available,
		Err:       err,
	}
}

// StreamError represents a failure opening or reading a capture stream.
type StreamError struct {
	Op     string // "open" or "read"
	Device string // Device name
	Err    error  // Underlying error
}

// Error implements the error interface.
func (e *StreamError) Error() string {
	return fmt.Sprintf("stream %s failed for '%s': %v", e.Op, e.Device, e.Err)
}

// Unwrap returns the underlying error.
func (e *StreamError) Unwrap() error {
	return e.Err
}

// NewStreamError creates a new StreamError.
func NewStreamError(op, device string, err error) *StreamError {
	return &StreamError{
		Op:     op,
		Device: device,
		Err:    err,
	}
}

// AudioSourceError wraps low-level audio library errors with additional context.
type AudioSourceError struct {
	Op      string // Operation that failed (e.g., "initialize", "devices")
	Message string // Error message
	Err     error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *AudioSourceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("audio source %s failed: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("audio source %s failed: %s", e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *AudioSourceError) Unwrap() error {
	return e.Err
}

// NewAudioSourceError creates a new AudioSourceError.
func NewAudioSourceError(op, message string, err error) *AudioSourceError {
	return &AudioSourceError{
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// RepositoryError represents an error from a repository.
type RepositoryError struct {
	Op      string // Operation that failed (e.g., "save", "load")
	Type    string // Repository type (e.g., "preferences")
	Message string // Error message
	Err     error  // Underlying error
}

// Error implements the error interface.
func (e *RepositoryError) Error() string {
	return fmt.Sprintf("repository %s.%s failed: %s", e.Type, e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *RepositoryError) Unwrap() error {
	return e.Err
}

// NewRepositoryError creates a new RepositoryError.
func NewRepositoryError(op, repoType, message string, err error) *RepositoryError {
	return &RepositoryError{
		Op:      op,
		Type:    repoType,
		Message: message,
		Err:     err,
	}
}

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string      // Field that failed validation
	Value   interface{} // Value that failed validation
	Message string      // Error message
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s (value: %v)", e.Field, e.Message, e.Value)
}

// Unwrap makes every validation error match ErrInvalidConfig.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfig
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// ServiceError represents an error from a service layer operation.
type ServiceError struct {
	Service string // Service name (e.g., "CaptureService")
	Op      string // Operation that failed
	Message string // Error message
	Err     error  // Underlying error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	return fmt.Sprintf("service %s.%s failed: %s", e.Service, e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(service, op, message string, err error) *ServiceError {
	return &ServiceError{
		Service: service,
		Op:      op,
		Message: message,
		Err:     err,
	}
}
