// Package fyne provides Fyne UI adapter implementations.
// This package implements the UI layer using the Fyne toolkit.
package fyne

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tejashwikalptaru/goscope/internal/domain"
	"github.com/tejashwikalptaru/goscope/internal/ports"
	"github.com/tejashwikalptaru/goscope/internal/service"
)

// DefaultRefreshRate is the render loop frequency in Hz.
const DefaultRefreshRate = 30

// modeSwitchTimeout bounds how long a mode switch waits for the old worker.
const modeSwitchTimeout = 2 * time.Second

// UIView defines the interface for UI updates.
// The actual UI implementation (MainWindow) must implement this interface.
// Methods may be called from any goroutine.
type UIView interface {
	// Plot updates
	UpdateWaveform(samples []float64)
	UpdateSpectrum(db []float64)

	// Status updates
	SetMode(mode domain.CaptureMode)
	SetDevice(name string)
	SetStatus(text string)
	SetRunning(running bool)

	// Notifications
	ShowError(title string, err error)
}

// Presenter implements the Presenter pattern (MVP architecture).
// It runs the render loop that pulls snapshots from the capture pipeline and
// maps lifecycle events to status updates.
//
// Thread-safety: All operations are thread-safe via sync.Mutex.
type Presenter struct {
	// Dependencies
	logger *slog.Logger

	// Services (injected)
	captureService    *service.CaptureService
	preferenceService *service.PreferenceService
	devices           service.DeviceLister

	bus  ports.FilteringEventBus
	view UIView

	// Render loop
	interval time.Duration
	lastSeq  uint64
	rendered bool
	stop     chan struct{}
	done     chan struct{}

	subscriptions []domain.SubscriptionID

	// Concurrency control
	mu           sync.Mutex
	startOnce    sync.Once
	shutdownOnce sync.Once
}

// NewPresenter creates a new presenter. A non-positive refreshRate uses
// DefaultRefreshRate.
func NewPresenter(
	logger *slog.Logger,
	captureService *service.CaptureService,
	preferenceService *service.PreferenceService,
	devices service.DeviceLister,
	bus ports.FilteringEventBus,
	view UIView,
	refreshRate int,
) *Presenter {
	if refreshRate <= 0 {
		refreshRate = DefaultRefreshRate
	}

	p := &Presenter{
		logger:            logger,
		captureService:    captureService,
		preferenceService: preferenceService,
		devices:           devices,
		bus:               bus,
		view:              view,
		interval:          time.Second / time.Duration(refreshRate),
		stop:              make(chan struct{}),
		done:              make(chan struct{}),
	}

	p.subscribeToEvents()
	p.syncInitialState()

	return p
}

// subscribeToEvents subscribes to the pipeline lifecycle events.
func (p *Presenter) subscribeToEvents() {
	p.subscriptions = append(p.subscriptions,
		p.bus.Subscribe(domain.EventStateChanged, p.onStateChanged),
		p.bus.Subscribe(domain.EventDeviceResolved, p.onDeviceResolved),
		p.bus.Subscribe(domain.EventCaptureFailed, p.onCaptureFailed),
		// A failed session keeps the error on the status line
		p.bus.SubscribeFiltered(domain.EventStateChanged, p.isCleanStop, p.onStopped),
	)
}

// isCleanStop passes transitions to Stopped of sessions that did not fail.
func (p *Presenter) isCleanStop(event domain.Event) bool {
	e, ok := event.(domain.StateChangedEvent)
	return ok && e.To == domain.StateStopped && p.captureService.LastError() == nil
}

// syncInitialState pushes the current mode, state and buffers to the view.
func (p *Presenter) syncInitialState() {
	p.view.SetMode(p.captureService.Mode())
	state := p.captureService.State()
	p.view.SetRunning(state.IsActive())
	p.view.SetStatus(statusText(state))
	if device, ok := p.captureService.Device(); ok {
		p.view.SetDevice(device.Name)
	}
	p.render()
}

// Start launches the render loop. Calling it more than once has no effect.
func (p *Presenter) Start() {
	p.startOnce.Do(func() {
		go p.renderLoop()
	})
}

// renderLoop reads the latest snapshot on every tick.
func (p *Presenter) renderLoop() {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.render()
		case <-p.stop:
			return
		}
	}
}

// render pushes the snapshot to the view when it changed since the last call.
func (p *Presenter) render() {
	snap := p.captureService.Snapshot()
	if snap == nil {
		return
	}

	p.mu.Lock()
	if p.rendered && snap.Sequence == p.lastSeq {
		p.mu.Unlock()
		return
	}
	p.lastSeq = snap.Sequence
	p.rendered = true
	p.mu.Unlock()

	p.view.UpdateWaveform(snap.Waveform)
	p.view.UpdateSpectrum(snap.Spectrum)
}

// Event handlers

func (p *Presenter) onStateChanged(event domain.Event) {
	e, ok := event.(domain.StateChangedEvent)
	if !ok {
		return
	}

	p.view.SetRunning(e.To.IsActive())
	if e.To != domain.StateStopped {
		p.view.SetStatus(statusText(e.To))
	}
}

func (p *Presenter) onDeviceResolved(event domain.Event) {
	e, ok := event.(domain.DeviceResolvedEvent)
	if !ok {
		return
	}

	p.view.SetDevice(e.Device.Name)
}

func (p *Presenter) onCaptureFailed(event domain.Event) {
	e, ok := event.(domain.CaptureFailedEvent)
	if !ok {
		return
	}

	p.view.SetStatus(fmt.Sprintf("Error: %v", e.Error))
}

func (p *Presenter) onStopped(domain.Event) {
	p.view.SetStatus(statusText(domain.StateStopped))
}

func statusText(state domain.PipelineState) string {
	switch state {
	case domain.StateIdle:
		return "Ready"
	case domain.StateResolving:
		return "Finding device..."
	case domain.StateStreaming:
		return "Capturing"
	case domain.StateStopped:
		return "Stopped"
	default:
		return state.String()
	}
}

// UI Command handlers (called by UI)

// OnStartClicked starts capture with the current mode.
func (p *Presenter) OnStartClicked() {
	err := p.captureService.Start(context.Background())
	if err == nil || errors.Is(err, domain.ErrAlreadyRunning) {
		return
	}

	p.logger.Error("start capture failed", slog.Any("error", err))
	p.view.ShowError("Capture Error", err)
}

// OnStopClicked stops capture. The worker exits after its current read.
func (p *Presenter) OnStopClicked() {
	p.captureService.Stop()
}

// OnModeSelected switches the capture mode, saves it and restarts capture
// when it was running.
func (p *Presenter) OnModeSelected(mode domain.CaptureMode) {
	if mode == p.captureService.Mode() {
		return
	}

	if err := p.preferenceService.SetCaptureMode(mode); err != nil {
		p.logger.Warn("failed to save capture mode", slog.Any("error", err))
	}

	wasActive := p.captureService.State().IsActive()
	if wasActive {
		p.captureService.Stop()
		ctx, cancel := context.WithTimeout(context.Background(), modeSwitchTimeout)
		err := p.captureService.Wait(ctx)
		cancel()
		if err != nil {
			p.logger.Error("capture worker did not stop", slog.Any("error", err))
			p.view.ShowError("Capture Error", err)
			return
		}
	}

	resolver := service.NewDeviceResolver(mode, p.preferenceService.DeviceName(), p.devices)
	if err := p.captureService.SetResolver(resolver); err != nil {
		p.logger.Error("failed to switch capture mode", slog.Any("error", err))
		p.view.ShowError("Capture Error", err)
		return
	}

	p.logger.Info("capture mode changed", slog.String("mode", mode.String()))
	p.view.SetMode(mode)

	if wasActive {
		p.OnStartClicked()
	}
}

// Shutdown stops the render loop and removes the event subscriptions.
// It's safe to call multiple times (idempotent).
func (p *Presenter) Shutdown() {
	p.shutdownOnce.Do(func() {
		for _, id := range p.subscriptions {
			p.bus.Unsubscribe(id)
		}

		close(p.stop)

		// Join the loop only if it was started
		started := true
		p.startOnce.Do(func() { started = false })
		if started {
			<-p.done
		}
	})
}
