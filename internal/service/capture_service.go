// Package service provides the capture pipeline and supporting services for GoScope.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/tejashwikalptaru/goscope/internal/domain"
	"github.com/tejashwikalptaru/goscope/internal/dsp"
	"github.com/tejashwikalptaru/goscope/internal/ports"
)

// DefaultShutdownTimeout bounds how long Shutdown waits for the worker.
const DefaultShutdownTimeout = 2 * time.Second

// CaptureService owns the capture pipeline: it resolves a device, opens a
// stream and runs one worker goroutine that turns blocks into snapshots.
//
// Snapshots are published through an atomic pointer, so readers on any
// goroutine see either the previous or the complete new waveform/spectrum pair.
// Lifecycle state is guarded by a mutex; the run flag is atomic because the
// worker polls it once per cycle.
type CaptureService struct {
	// Dependencies (injected)
	logger *slog.Logger
	source ports.AudioSource
	bus    ports.EventBus
	cfg    domain.PipelineConfig

	// Worker-owned analysis state. Sessions never overlap, so these are only
	// touched by one goroutine at a time.
	ring     *dsp.Ring
	analyzer *dsp.Analyzer

	// Published output
	snapshot atomic.Pointer[domain.Snapshot]
	running  atomic.Bool

	// Lifecycle, guarded by mu
	mu              sync.Mutex
	resolver        ports.DeviceResolver
	state           domain.PipelineState
	device          domain.DeviceInfo
	hasDevice       bool
	lastErr         error
	sessionID       string
	cancel          context.CancelFunc
	done            chan struct{}
	shutdownTimeout time.Duration
}

// NewCaptureService creates a capture service in the Idle state with a zero
// waveform and a floor spectrum already published.
func NewCaptureService(
	logger *slog.Logger,
	source ports.AudioSource,
	resolver ports.DeviceResolver,
	bus ports.EventBus,
	cfg domain.PipelineConfig,
) (*CaptureService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if source == nil || resolver == nil {
		return nil, domain.NewServiceError("CaptureService", "new", "audio source and resolver are required", domain.ErrNotInitialized)
	}

	s := &CaptureService{
		logger:   logger,
		source:   source,
		bus:      bus,
		cfg:      cfg,
		resolver: resolver,
		ring:     dsp.NewRing(cfg.DisplayLength),
		analyzer: dsp.NewAnalyzer(dsp.AnalyzerConfig{
			Size:          cfg.BufferSize,
			GateThreshold: cfg.NoiseGateThreshold,
			FloorDB:       cfg.FloorDB,
		}),
		state:           domain.StateIdle,
		shutdownTimeout: DefaultShutdownTimeout,
	}

	s.snapshot.Store(&domain.Snapshot{
		Waveform: s.ring.Snapshot(),
		Spectrum: s.analyzer.Floor(),
	})

	logger.Debug("capture service initialized",
		slog.Int("sample_rate", cfg.SampleRate),
		slog.Int("buffer_size", cfg.BufferSize),
		slog.Int("display_length", cfg.DisplayLength),
		slog.String("mode", resolver.Mode().String()))

	return s, nil
}

// SetShutdownTimeout changes how long Shutdown waits for a stalled worker.
func (s *CaptureService) SetShutdownTimeout(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shutdownTimeout = d
}

// SetResolver replaces the device resolver used by the next Start.
func (s *CaptureService) SetResolver(r ports.DeviceResolver) error {
	if r == nil {
		return domain.NewValidationError("resolver", nil, "must not be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.IsActive() {
		return domain.ErrAlreadyRunning
	}
	s.resolver = r
	return nil
}

// Mode returns the capture mode of the current resolver.
func (s *CaptureService) Mode() domain.CaptureMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolver.Mode()
}

// Config returns the pipeline configuration.
func (s *CaptureService) Config() domain.PipelineConfig {
	return s.cfg
}

// Start resolves a device, opens a stream and launches the worker.
// It returns once the stream is open; resolution and open failures leave the
// pipeline Stopped and are returned as *domain.DeviceResolutionError and
// *domain.StreamError respectively.
func (s *CaptureService) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state.IsActive() {
		s.mu.Unlock()
		return domain.ErrAlreadyRunning
	}

	sessionID := uuid.NewString()
	sessionCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	from := s.state
	s.state = domain.StateResolving
	s.sessionID = sessionID
	s.cancel = cancel
	s.lastErr = nil
	s.hasDevice = false
	resolver := s.resolver
	s.mu.Unlock()

	log := s.logger.With(slog.String("session", sessionID))
	s.publish(domain.NewStateChangedEvent(from, domain.StateResolving))

	device, err := resolver.Resolve(ctx)
	if err != nil {
		log.Error("device resolution failed", slog.String("mode", resolver.Mode().String()), slog.Any("error", err))
		s.abortStart(sessionID, err)
		return err
	}

	log.Info("device resolved",
		slog.String("mode", resolver.Mode().String()),
		slog.String("device", device.Name),
		slog.Bool("loopback", device.IsLoopback))
	s.publish(domain.NewDeviceResolvedEvent(resolver.Mode(), device))

	stream, err := s.source.Open(device, domain.StreamParams{
		SampleRate:      s.cfg.SampleRate,
		FramesPerBuffer: s.cfg.BufferSize,
	})
	if err != nil {
		openErr := domain.NewStreamError("open", device.Name, err)
		log.Error("failed to open stream", slog.Any("error", openErr))
		s.abortStart(sessionID, openErr)
		return openErr
	}

	s.mu.Lock()
	if sessionCtx.Err() != nil {
		// Stop was called while resolving
		s.mu.Unlock()
		if cerr := stream.Close(); cerr != nil {
			log.Warn("failed to close stream", slog.Any("error", cerr))
		}
		s.abortStart(sessionID, nil)
		return context.Canceled
	}
	done := make(chan struct{})
	s.state = domain.StateStreaming
	s.device = device
	s.hasDevice = true
	s.done = done
	s.running.Store(true)
	s.mu.Unlock()

	s.publish(domain.NewStateChangedEvent(domain.StateResolving, domain.StateStreaming))
	s.publish(domain.NewCaptureStartedEvent(sessionID, device, s.cfg.SampleRate, stream.Channels()))
	log.Info("capture started", slog.String("device", device.Name), slog.Int("channels", stream.Channels()))

	go s.run(sessionCtx, log, sessionID, device, stream, done)
	return nil
}

// abortStart moves a session that never streamed to Stopped.
func (s *CaptureService) abortStart(sessionID string, err error) {
	s.mu.Lock()
	from := s.state
	s.state = domain.StateStopped
	if err != nil {
		s.lastErr = err
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()

	if err != nil {
		s.publish(domain.NewCaptureFailedEvent(sessionID, err))
	}
	s.publish(domain.NewStateChangedEvent(from, domain.StateStopped))
}

// run is the capture worker. The stream read is its only suspension point.
func (s *CaptureService) run(
	ctx context.Context,
	log *slog.Logger,
	sessionID string,
	device domain.DeviceInfo,
	stream ports.Stream,
	done chan struct{},
) {
	var (
		cycles  uint64
		failure error
	)

	defer close(done)
	defer func() {
		if err := stream.Close(); err != nil {
			log.Warn("failed to close stream", slog.Any("error", err))
		}
		s.finish(log, sessionID, cycles, failure)
	}()

	for {
		block, err := stream.Read(ctx)

		// Stop requested while blocked: drop the block
		if !s.running.Load() {
			return
		}

		if err != nil {
			failure = domain.NewStreamError("read", device.Name, err)
			return
		}

		if err := s.process(block); err != nil {
			failure = domain.NewStreamError("read", device.Name, err)
			return
		}
		cycles++
	}
}

// process runs one analysis cycle and publishes the snapshot.
// Empty blocks are skipped.
func (s *CaptureService) process(block [][]float32) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("capture processing panicked: %v", r)
		}
	}()

	mono := dsp.Downmix(block)
	if len(mono) == 0 {
		return nil
	}

	s.ring.Push(dsp.ApplyGain(mono, s.cfg.Gain))
	result := s.analyzer.Analyze(mono)

	prev := s.snapshot.Load()
	s.snapshot.Store(&domain.Snapshot{
		Sequence:   prev.Sequence + 1,
		CapturedAt: time.Now(),
		Waveform:   s.ring.Snapshot(),
		Spectrum:   result.Spectrum,
		Gated:      result.Gated,
		Peak:       result.Peak,
	})
	return nil
}

// finish moves the pipeline to Stopped when the worker exits.
func (s *CaptureService) finish(log *slog.Logger, sessionID string, cycles uint64, failure error) {
	s.running.Store(false)

	s.mu.Lock()
	from := s.state
	s.state = domain.StateStopped
	if failure != nil {
		s.lastErr = failure
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()

	if failure != nil {
		log.Error("capture failed", slog.Any("error", failure), slog.Uint64("cycles", cycles))
		s.publish(domain.NewCaptureFailedEvent(sessionID, failure))
	} else {
		log.Info("capture stopped", slog.Uint64("cycles", cycles))
		s.publish(domain.NewCaptureStoppedEvent(sessionID, cycles))
	}
	s.publish(domain.NewStateChangedEvent(from, domain.StateStopped))
}

// Stop asks the worker to exit after its current read. It never blocks;
// use Wait to join the worker. Calling Stop when nothing runs is a no-op.
func (s *CaptureService) Stop() {
	s.running.Store(false)

	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Wait blocks until the current worker has exited or ctx is done.
func (s *CaptureService) Wait(ctx context.Context) error {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	if done == nil {
		return nil
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Restart stops the current session, waits for the worker and starts a new
// session with the current resolver.
func (s *CaptureService) Restart(ctx context.Context) error {
	s.Stop()
	if err := s.Wait(ctx); err != nil {
		return fmt.Errorf("waiting for capture worker: %w", err)
	}
	return s.Start(ctx)
}

// Snapshot returns the latest published snapshot. The snapshot is shared and
// must not be modified.
func (s *CaptureService) Snapshot() *domain.Snapshot {
	return s.snapshot.Load()
}

// Waveform returns a copy of the latest waveform, oldest sample first.
func (s *CaptureService) Waveform() []float64 {
	return append([]float64(nil), s.snapshot.Load().Waveform...)
}

// Spectrum returns a copy of the latest decibel spectrum in ascending bin order.
func (s *CaptureService) Spectrum() []float64 {
	return append([]float64(nil), s.snapshot.Load().Spectrum...)
}

// State returns the pipeline state.
func (s *CaptureService) State() domain.PipelineState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Device returns the device of the current or last session.
func (s *CaptureService) Device() (domain.DeviceInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.device, s.hasDevice
}

// SessionID returns the ID of the current or last session.
func (s *CaptureService) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// LastError returns the error that ended the last session, if any.
func (s *CaptureService) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Shutdown stops capture and waits a bounded time for the worker. A worker
// stuck in a device read is abandoned with a warning.
func (s *CaptureService) Shutdown() error {
	s.Stop()

	s.mu.Lock()
	timeout := s.shutdownTimeout
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.Wait(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			s.logger.Warn("capture worker did not exit, abandoning it", slog.Duration("timeout", timeout))
		}
		return domain.NewServiceError("CaptureService", "shutdown", "worker did not exit", err)
	}
	return nil
}

func (s *CaptureService) publish(event domain.Event) {
	if s.bus != nil {
		s.bus.Publish(event)
	}
}
