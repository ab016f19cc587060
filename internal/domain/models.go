// Package domain contains core models and logic with no external dependencies.
// This package defines the fundamental entities of the GoScope capture pipeline.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// CaptureMode selects which kind of device the pipeline listens to.
type CaptureMode string

const (
	// ModeMicrophone captures from the platform default input device.
	ModeMicrophone CaptureMode = "microphone"

	// ModeLoopback captures what the active output device is playing.
	ModeLoopback CaptureMode = "loopback"
)

// ParseCaptureMode converts user input ("mic", "loopback", ...) into a CaptureMode.
func ParseCaptureMode(s string) (CaptureMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "microphone", "mic", "input":
		return ModeMicrophone, nil
	case "loopback", "desktop", "output":
		return ModeLoopback, nil
	}
	return "", NewValidationError("mode", s, "must be one of microphone, loopback")
}

// String returns the mode identifier.
func (m CaptureMode) String() string {
	return string(m)
}

// Description returns a human-readable subtitle for the mode.
func (m CaptureMode) Description() string {
	if m == ModeLoopback {
		return "Desktop Audio Analysis"
	}
	return "Microphone Input Analysis"
}

// DeviceInfo describes one audio device as reported by an audio source.
type DeviceInfo struct {
	// ID is the source-specific device index
	ID int

	// Name is the display name of the device
	Name string

	// HostAPI is the backend the device belongs to (WASAPI, CoreAudio, ALSA, ...)
	HostAPI string

	// InputChannels is the maximum number of capture channels
	InputChannels int

	// OutputChannels is the maximum number of playback channels
	OutputChannels int

	// DefaultSampleRate is the device's native rate in Hz
	DefaultSampleRate float64

	// IsLoopback is true when the device captures what an output is playing
	IsLoopback bool
}

// CanCapture reports whether frames can be read from the device.
func (d DeviceInfo) CanCapture() bool {
	return d.InputChannels > 0
}

// String formats the device for diagnostics.
func (d DeviceInfo) String() string {
	return fmt.Sprintf("%s (loopback: %t)", d.Name, d.IsLoopback)
}

// StreamParams holds the parameters used to open a capture stream.
type StreamParams struct {
	SampleRate      int
	FramesPerBuffer int
}

// PipelineState is the lifecycle state of the capture pipeline.
type PipelineState int

const (
	StateIdle PipelineState = iota
	StateResolving
	StateStreaming
	StateStopped
)

// String returns the state name.
func (s PipelineState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateResolving:
		return "resolving"
	case StateStreaming:
		return "streaming"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// IsActive is true while a session holds (or is acquiring) a device.
func (s PipelineState) IsActive() bool {
	return s == StateResolving || s == StateStreaming
}

// PipelineConfig carries every option of the capture and analysis pipeline.
// Values are fixed for the lifetime of a CaptureService.
type PipelineConfig struct {
	// SampleRate is the capture rate in Hz
	SampleRate int

	// BufferSize is the number of frames read per cycle and the FFT length
	BufferSize int

	// DisplayLength is the capacity of the waveform ring buffer
	DisplayLength int

	// Gain multiplies the samples published to the waveform (not the spectrum)
	Gain float64

	// NoiseGateThreshold is the peak amplitude (on a [-1,1] scale) below which the
	// spectrum is replaced by a flat floor. Zero disables the gate.
	NoiseGateThreshold float64

	// FloorDB is the flat value used by the noise gate and the initial spectrum
	FloorDB float64

	// MinFrequency and MaxFrequency bound the log-scale display axis in Hz
	MinFrequency float64
	MaxFrequency float64
}

// DefaultPipelineConfig returns the stock pipeline configuration.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		SampleRate:         44100,
		BufferSize:         2048,
		DisplayLength:      2048,
		Gain:               1.0,
		NoiseGateThreshold: 0.001,
		FloorDB:            -100,
		MinFrequency:       20,
		MaxFrequency:       20000,
	}
}

// SpectrumLength is the number of bins of a real-input FFT of BufferSize.
func (c PipelineConfig) SpectrumLength() int {
	return c.BufferSize/2 + 1
}

// CycleDuration is how long one capture read takes at the configured rate.
func (c PipelineConfig) CycleDuration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(c.BufferSize) / float64(c.SampleRate) * float64(time.Second))
}

// Validate checks the configuration for values the pipeline cannot run with.
func (c PipelineConfig) Validate() error {
	switch {
	case c.SampleRate <= 0:
		return NewValidationError("sample_rate", c.SampleRate, "must be positive")
	case c.BufferSize < 2 || c.BufferSize%2 != 0:
		return NewValidationError("buffer_size", c.BufferSize, "must be an even number >= 2")
	case c.DisplayLength <= 0:
		return NewValidationError("display_length", c.DisplayLength, "must be positive")
	case c.Gain <= 0:
		return NewValidationError("gain", c.Gain, "must be positive")
	case c.NoiseGateThreshold < 0:
		return NewValidationError("noise_gate", c.NoiseGateThreshold, "must not be negative")
	case c.FloorDB > 0:
		return NewValidationError("floor_db", c.FloorDB, "must not be above 0 dB")
	case c.MinFrequency <= 0 || c.MaxFrequency <= c.MinFrequency:
		return NewValidationError("frequency_range", fmt.Sprintf("%g-%g", c.MinFrequency, c.MaxFrequency), "must satisfy 0 < min < max")
	}
	return nil
}

// Snapshot is one published result of the capture pipeline.
// A snapshot is immutable once published; readers must not modify its slices.
type Snapshot struct {
	// Sequence increments with every published capture cycle (0 = initial state)
	Sequence uint64

	// CapturedAt is when the block was analyzed
	CapturedAt time.Time

	// Waveform holds DisplayLength samples, index 0 is the oldest
	Waveform []float64

	// Spectrum holds BufferSize/2+1 decibel values in ascending bin order
	Spectrum []float64

	// Gated is true when the noise gate replaced the spectrum
	Gated bool

	// Peak is the peak absolute amplitude of the block before gain
	Peak float64
}
