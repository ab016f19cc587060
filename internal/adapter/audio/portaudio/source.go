// Package portaudio provides a PortAudio adapter implementing the AudioSource interface.
package portaudio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/tejashwikalptaru/goscope/internal/domain"
	"github.com/tejashwikalptaru/goscope/internal/ports"
)

// maxChannels caps the channels opened per stream; the pipeline downmixes anyway.
const maxChannels = 2

// Source is the PortAudio implementation of the AudioSource interface.
// It enumerates host devices, flags loopback captures by name and opens
// blocking input streams.
//
// Thread-safety: This implementation is thread-safe via sync.RWMutex.
type Source struct {
	logger *slog.Logger

	initialized bool
	mu          sync.RWMutex
}

// NewSource creates a new PortAudio source.
func NewSource() *Source {
	return &Source{}
}

// SetLogger sets the logger for this source.
// This should be called after construction before using the source.
func (s *Source) SetLogger(logger *slog.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger = logger
}

// Initialize loads the PortAudio host APIs.
func (s *Source) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return domain.ErrAlreadyInitialized
	}

	if err := portaudio.Initialize(); err != nil {
		return domain.NewAudioSourceError("initialize", "portaudio initialization failed", err)
	}

	s.initialized = true
	if s.logger != nil {
		s.logger.Info("portaudio initialized", slog.String("version", portaudio.VersionText()))
	}
	return nil
}

// Shutdown terminates PortAudio. Open streams must be closed first.
func (s *Source) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return domain.ErrNotInitialized
	}

	s.initialized = false
	if err := portaudio.Terminate(); err != nil {
		return domain.NewAudioSourceError("shutdown", "portaudio termination failed", err)
	}
	return nil
}

// IsInitialized returns true if PortAudio has been initialized.
func (s *Source) IsInitialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized
}

// Devices lists every host device in PortAudio enumeration order.
func (s *Source) Devices() ([]domain.DeviceInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, domain.ErrNotInitialized
	}

	raw, err := portaudio.Devices()
	if err != nil {
		return nil, domain.NewAudioSourceError("devices", "device enumeration failed", err)
	}

	devices := make([]domain.DeviceInfo, 0, len(raw))
	for _, d := range raw {
		devices = append(devices, toDeviceInfo(d))
	}
	return devices, nil
}

// DefaultInputDevice returns the host's default capture device.
func (s *Source) DefaultInputDevice() (domain.DeviceInfo, error) {
	return s.defaultDevice("default input", portaudio.DefaultInputDevice)
}

// DefaultOutputDevice returns the host's default playback device.
func (s *Source) DefaultOutputDevice() (domain.DeviceInfo, error) {
	return s.defaultDevice("default output", portaudio.DefaultOutputDevice)
}

func (s *Source) defaultDevice(op string, query func() (*portaudio.DeviceInfo, error)) (domain.DeviceInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return domain.DeviceInfo{}, domain.ErrNotInitialized
	}

	d, err := query()
	if err != nil {
		return domain.DeviceInfo{}, domain.NewAudioSourceError(op, "no default device", errors.Join(domain.ErrNoDevice, err))
	}
	return toDeviceInfo(d), nil
}

// Open opens a blocking, non-interleaved float32 input stream on device.
func (s *Source) Open(device domain.DeviceInfo, params domain.StreamParams) (ports.Stream, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, domain.ErrNotInitialized
	}

	info, err := lookupDevice(device)
	if err != nil {
		return nil, err
	}

	channels := streamChannels(info.MaxInputChannels)
	if channels == 0 {
		return nil, domain.NewAudioSourceError("open", fmt.Sprintf("device '%s' has no input channels", info.Name), nil)
	}

	p := portaudio.HighLatencyParameters(info, nil)
	p.Input.Channels = channels
	p.Output.Channels = 0
	p.SampleRate = float64(params.SampleRate)
	p.FramesPerBuffer = params.FramesPerBuffer

	buf := make([][]float32, channels)
	for i := range buf {
		buf[i] = make([]float32, params.FramesPerBuffer)
	}

	stream, err := portaudio.OpenStream(p, buf)
	if err != nil {
		return nil, domain.NewAudioSourceError("open", fmt.Sprintf("open input on '%s'", info.Name), err)
	}

	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return nil, domain.NewAudioSourceError("open", fmt.Sprintf("start input on '%s'", info.Name), err)
	}

	if s.logger != nil {
		s.logger.Info("input stream opened",
			slog.String("device", info.Name),
			slog.Int("channels", channels),
			slog.Int("sample_rate", params.SampleRate),
			slog.Int("frames", params.FramesPerBuffer))
	}

	return &Stream{
		logger: s.logger,
		stream: stream,
		buf:    buf,
		device: info.Name,
	}, nil
}

// lookupDevice maps a DeviceInfo back to the PortAudio handle it came from.
func lookupDevice(device domain.DeviceInfo) (*portaudio.DeviceInfo, error) {
	raw, err := portaudio.Devices()
	if err != nil {
		return nil, domain.NewAudioSourceError("open", "device enumeration failed", err)
	}
	for _, d := range raw {
		if d.Index == device.ID && d.Name == device.Name {
			return d, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrUnknownDevice, device.Name)
}

// Stream wraps a started PortAudio input stream.
type Stream struct {
	logger *slog.Logger
	stream *portaudio.Stream
	buf    [][]float32
	device string

	mu     sync.Mutex
	closed bool
}

// Channels returns the number of channels per block.
func (s *Stream) Channels() int {
	return len(s.buf)
}

// Read blocks until one buffer of frames was captured. PortAudio cannot
// abort a pending blocking read, so ctx is only checked before blocking.
// Input overflows are logged and the (complete) block is returned.
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

	if err := s.stream.Read(); err != nil {
		if !errors.Is(err, portaudio.InputOverflowed) {
			return nil, err
		}
		if s.logger != nil {
			s.logger.Warn("input overflowed", slog.String("device", s.device))
		}
	}
	return s.buf, nil
}

// Close stops and closes the stream.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.ErrStreamClosed
	}
	s.closed = true

	stopErr := s.stream.Stop()
	closeErr := s.stream.Close()
	return errors.Join(stopErr, closeErr)
}

// Verify that Source implements the AudioSource interface
var _ ports.AudioSource = (*Source)(nil)
