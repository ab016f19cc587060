// Package mock provides a mock implementation of the AudioSource interface.
// This is used for testing the capture pipeline without real audio hardware,
// and by the --mock flag to run GoScope on machines without a capture device.
package mock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tejashwikalptaru/goscope/internal/domain"
	"github.com/tejashwikalptaru/goscope/internal/ports"
)

// Source is a mock implementation of the AudioSource interface.
// It serves a scripted device list and synthesizes frames from a Generator.
//
// Thread-safety: This implementation is thread-safe.
type Source struct {
	// Dependencies
	logger *slog.Logger

	mu          sync.RWMutex
	initialized bool

	// Device table
	devices       []domain.DeviceInfo
	defaultInput  int // index into devices, -1 for none
	defaultOutput int // index into devices, -1 for none

	// Frame synthesis
	generator Generator
	readDelay time.Duration

	// Behavior configuration (for testing error scenarios)
	failInitialize bool
	failOpen       bool
	failReadAfter  int // successful reads before Read fails, -1 never
	stall          bool

	// Counters
	opened atomic.Int64
	reads  atomic.Int64
	closed atomic.Int64
}

// DefaultDevices returns a device table resembling a typical desktop:
// a microphone, speakers, and two loopback captures of those speakers.
func DefaultDevices() []domain.DeviceInfo {
	return []domain.DeviceInfo{
		{ID: 0, Name: "Microphone Array (Realtek)", HostAPI: "Mock", InputChannels: 2, DefaultSampleRate: 44100},
		{ID: 1, Name: "Speakers (Realtek)", HostAPI: "Mock", OutputChannels: 2, DefaultSampleRate: 44100},
		{ID: 2, Name: "Speakers (Realtek) [Loopback]", HostAPI: "Mock", InputChannels: 2, DefaultSampleRate: 44100, IsLoopback: true},
		{ID: 3, Name: "Stereo Mix (Realtek)", HostAPI: "Mock", InputChannels: 2, DefaultSampleRate: 44100, IsLoopback: true},
	}
}

// NewSource creates a mock source with DefaultDevices and a 440 Hz test tone.
func NewSource() *Source {
	return &Source{
		devices:       DefaultDevices(),
		defaultInput:  0,
		defaultOutput: 1,
		generator:     SineGenerator(440, 0.5, 44100),
		failReadAfter: -1,
	}
}

// SetLogger sets the logger for this source.
// This should be called after construction before using the source.
func (m *Source) SetLogger(logger *slog.Logger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logger = logger
}

// SetDevices replaces the device table. defaultInput and defaultOutput index
// into devices; -1 means the platform has no such default.
func (m *Source) SetDevices(devices []domain.DeviceInfo, defaultInput, defaultOutput int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.devices = append([]domain.DeviceInfo(nil), devices...)
	m.defaultInput = defaultInput
	m.defaultOutput = defaultOutput
}

// SetGenerator sets the signal synthesized by streams opened afterwards.
func (m *Source) SetGenerator(g Generator) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generator = g
}

// SetReadDelay makes every Read sleep before returning, emulating a device
// that delivers one block per buffer duration.
func (m *Source) SetReadDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readDelay = d
}

// SetFailInitialize configures the mock to fail initialization (for testing).
func (m *Source) SetFailInitialize(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failInitialize = fail
}

// SetFailOpen configures the mock to fail opening streams (for testing).
func (m *Source) SetFailOpen(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failOpen = fail
}

// SetFailReadAfter makes reads fail once a stream delivered n blocks.
// A negative n disables the failure.
func (m *Source) SetFailReadAfter(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failReadAfter = n
}

// SetStall makes reads block until their context is cancelled, emulating a
// device that stopped producing frames.
func (m *Source) SetStall(stall bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stall = stall
}

// Initialize initializes the mock audio source.
func (m *Source) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failInitialize {
		return domain.NewAudioSourceError("initialize", "mock initialization failed", nil)
	}

	if m.initialized {
		return domain.ErrAlreadyInitialized
	}

	m.initialized = true
	return nil
}

// Shutdown shuts down the mock audio source.
func (m *Source) Shutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return domain.ErrNotInitialized
	}

	m.initialized = false
	return nil
}

// IsInitialized returns true if the source has been initialized.
func (m *Source) IsInitialized() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.initialized
}

// Devices returns a copy of the device table.
func (m *Source) Devices() ([]domain.DeviceInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.initialized {
		return nil, domain.ErrNotInitialized
	}

	return append([]domain.DeviceInfo(nil), m.devices...), nil
}

// DefaultInputDevice returns the scripted default input.
func (m *Source) DefaultInputDevice() (domain.DeviceInfo, error) {
	return m.defaultDevice("default input", func() int { return m.defaultInput })
}

// DefaultOutputDevice returns the scripted default output.
func (m *Source) DefaultOutputDevice() (domain.DeviceInfo, error) {
	return m.defaultDevice("default output", func() int { return m.defaultOutput })
}

func (m *Source) defaultDevice(op string, index func() int) (domain.DeviceInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.initialized {
		return domain.DeviceInfo{}, domain.ErrNotInitialized
	}

	i := index()
	if i < 0 || i >= len(m.devices) {
		return domain.DeviceInfo{}, domain.NewAudioSourceError(op, "no device", domain.ErrNoDevice)
	}
	return m.devices[i], nil
}

// Open opens a synthetic capture stream on device.
func (m *Source) Open(device domain.DeviceInfo, params domain.StreamParams) (ports.Stream, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.initialized {
		return nil, domain.ErrNotInitialized
	}

	if m.failOpen {
		return nil, domain.NewAudioSourceError("open", "mock open failed", nil)
	}

	known := false
	for _, d := range m.devices {
		if d.ID == device.ID && d.Name == device.Name {
			known = true
			break
		}
	}
	if !known {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownDevice, device.Name)
	}

	if !device.CanCapture() {
		return nil, domain.NewAudioSourceError("open", fmt.Sprintf("device '%s' has no input channels", device.Name), nil)
	}

	if params.FramesPerBuffer <= 0 {
		return nil, domain.NewValidationError("frames_per_buffer", params.FramesPerBuffer, "must be positive")
	}

	channels := device.InputChannels
	if channels > 2 {
		channels = 2
	}

	m.opened.Add(1)
	if m.logger != nil {
		m.logger.Debug("mock stream opened",
			slog.String("device", device.Name),
			slog.Int("channels", channels),
			slog.Int("frames", params.FramesPerBuffer))
	}

	return &Stream{
		source:    m,
		channels:  channels,
		generator: m.generator,
		delay:     m.readDelay,
		failAfter: m.failReadAfter,
		stall:     m.stall,
		buf:       makeBuffers(channels, params.FramesPerBuffer),
	}, nil
}

// OpenCount returns how many streams were opened.
func (m *Source) OpenCount() int {
	return int(m.opened.Load())
}

// ReadCount returns how many blocks all streams delivered.
func (m *Source) ReadCount() int {
	return int(m.reads.Load())
}

// CloseCount returns how many streams were closed.
func (m *Source) CloseCount() int {
	return int(m.closed.Load())
}

func makeBuffers(channels, frames int) [][]float32 {
	buf := make([][]float32, channels)
	for i := range buf {
		buf[i] = make([]float32, frames)
	}
	return buf
}

// Stream is a synthetic capture stream created by Source.Open.
type Stream struct {
	source    *Source
	channels  int
	generator Generator
	delay     time.Duration
	failAfter int
	stall     bool

	mu     sync.Mutex
	buf    [][]float32
	frame  int64
	blocks int
	closed bool
}

// Channels returns the number of channels per block.
func (s *Stream) Channels() int {
	return s.channels
}

// Read synthesizes the next block. It honors ctx while stalled or delayed.
func (s *Stream) Read(ctx context.Context) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, domain.ErrStreamClosed
	}

	if s.stall {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, domain.ErrStreamClosed
	}

	if s.failAfter >= 0 && s.blocks >= s.failAfter {
		return nil, domain.NewAudioSourceError("read", "mock device unplugged", nil)
	}

	for f := range s.buf[0] {
		for ch := range s.buf {
			s.buf[ch][f] = s.generator(s.frame, ch)
		}
		s.frame++
	}
	s.blocks++
	s.source.reads.Add(1)

	return s.buf, nil
}

// Close releases the stream. Closing twice returns ErrStreamClosed.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.ErrStreamClosed
	}
	s.closed = true
	s.source.closed.Add(1)
	return nil
}

// Verify that Source implements the AudioSource interface
var _ ports.AudioSource = (*Source)(nil)
