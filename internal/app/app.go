// Package app provides application-level orchestration and dependency injection.
// This package wires together all components and manages the application lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"

	"github.com/tejashwikalptaru/goscope/internal/adapter/audio/mock"
	"github.com/tejashwikalptaru/goscope/internal/adapter/audio/portaudio"
	"github.com/tejashwikalptaru/goscope/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/goscope/internal/adapter/repository/memory"
	"github.com/tejashwikalptaru/goscope/internal/adapter/stream"
	fyneui "github.com/tejashwikalptaru/goscope/internal/adapter/ui/fyne"
	"github.com/tejashwikalptaru/goscope/internal/adapter/ui/fyne/widgets/visualizer"
	"github.com/tejashwikalptaru/goscope/internal/domain"
	"github.com/tejashwikalptaru/goscope/internal/logger"
	"github.com/tejashwikalptaru/goscope/internal/ports"
	"github.com/tejashwikalptaru/goscope/internal/service"
)

// streamStopTimeout bounds how long Shutdown waits for the stream server.
const streamStopTimeout = 5 * time.Second

// Application is the root application structure that holds all dependencies.
// It follows the Dependency Injection pattern with constructor-based injection.
//
// The Application struct is responsible for:
// - Creating and wiring all dependencies
// - Managing the application lifecycle (startup, shutdown)
// - Providing a clean entry point for main.go
type Application struct {
	config Config

	// Core dependencies
	logger    *slog.Logger
	logCloser io.Closer
	fyneApp   fyne.App

	// Infrastructure
	eventBus    *eventbus.SyncEventBus
	audioSource ports.AudioSource

	// Repositories
	preferencesRepo ports.PreferencesRepository

	// Services
	preferenceService *service.PreferenceService
	captureService    *service.CaptureService

	// Snapshot stream (nil unless StreamAddr is set)
	streamServer *stream.Server
	streamCancel context.CancelFunc
	streamDone   chan error

	// UI
	presenter  *fyneui.Presenter
	mainWindow *fyneui.MainWindow

	// Closed when the automatic capture start returned
	autoStartDone chan struct{}

	shutdownOnce sync.Once
	shutdownErr  error
}

// NewAudioSource creates and initializes the audio source selected by config.
func NewAudioSource(config Config, log *slog.Logger) (ports.AudioSource, error) {
	var source ports.AudioSource
	if config.UseMockAudio {
		m := mock.NewSource()
		m.SetLogger(log.With(slog.String("adapter", "mock")))
		source = m
	} else {
		pa := portaudio.NewSource()
		pa.SetLogger(log.With(slog.String("adapter", "portaudio")))
		source = pa
	}

	if err := source.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize audio source: %w", err)
	}
	return source, nil
}

// NewApplication creates a new application with all dependencies wired.
// This is the main dependency injection function.
func NewApplication(config Config) (*Application, error) {
	app := &Application{config: config}

	// Step 1: Create logger
	app.logger, app.logCloser = logger.New(config.Log)
	app.logger.Info("initializing application",
		slog.String("app_id", config.AppID),
		slog.String("version", GetVersionInfo().FullString()))

	// Step 2: Create Fyne application
	if config.TestFyneApp != nil {
		app.fyneApp = config.TestFyneApp
	} else {
		app.fyneApp = fyneapp.NewWithID(config.AppID)
	}

	// Step 3: Create an event bus
	app.eventBus = eventbus.NewSyncEventBus()
	app.eventBus.SetLogger(app.logger.With(slog.String("component", "eventbus")))

	// Step 4: Create an audio source
	source, err := NewAudioSource(config, app.logger)
	if err != nil {
		app.closeLog()
		return nil, err
	}
	app.audioSource = source

	// Step 5: Create repositories and preference service
	app.preferencesRepo = memory.NewPreferencesRepository(app.fyneApp.Preferences())
	app.preferenceService = service.NewPreferenceService(
		app.logger.With(slog.String("service", "preference")),
		app.preferencesRepo,
		app.eventBus,
	)

	// Step 6: Create the capture pipeline
	mode := app.captureMode()
	deviceName := app.deviceName()
	pipeline := config.Pipeline
	pipeline.Gain = app.gain()

	app.captureService, err = service.NewCaptureService(
		app.logger.With(slog.String("service", "capture")),
		app.audioSource,
		service.NewDeviceResolver(mode, deviceName, app.audioSource),
		app.eventBus,
		pipeline,
	)
	if err != nil {
		app.shutdownSource()
		app.closeLog()
		return nil, fmt.Errorf("failed to create capture service: %w", err)
	}
	app.logger.Info("capture configured",
		slog.String("mode", mode.String()),
		slog.String("device", deviceName),
		slog.Float64("gain", pipeline.Gain))

	// Step 7: Create the snapshot stream
	if config.StreamAddr != "" {
		app.streamServer = stream.NewServer(
			app.logger.With(slog.String("component", "stream")),
			app.captureService,
			stream.Config{Addr: config.StreamAddr, Rate: config.StreamRate},
		)
	}

	// Step 8: Create UI
	app.mainWindow = fyneui.NewMainWindow(app.fyneApp, fyneui.WindowConfig{
		Spectrum: visualizer.SpectrumConfig{
			SampleRate: pipeline.SampleRate,
			MinHz:      pipeline.MinFrequency,
			MaxHz:      pipeline.MaxFrequency,
			FloorDB:    pipeline.FloorDB,
		},
		Version: GetVersionInfo().FullString(),
	})

	// Step 9: Create Presenter and wire with UI
	app.presenter = fyneui.NewPresenter(
		app.logger.With(slog.String("component", "presenter")),
		app.captureService,
		app.preferenceService,
		app.audioSource,
		app.eventBus,
		app.mainWindow,
		config.RefreshRate,
	)
	app.mainWindow.SetPresenter(app.presenter)

	return app, nil
}

// captureMode applies the precedence explicit setting > saved preference > OS default.
func (a *Application) captureMode() domain.CaptureMode {
	if a.config.CaptureMode != "" {
		return a.config.CaptureMode
	}
	if mode := a.preferenceService.CaptureMode(); mode != "" {
		return mode
	}
	return DefaultCaptureMode()
}

func (a *Application) deviceName() string {
	if a.config.DeviceName != "" {
		return a.config.DeviceName
	}
	return a.preferenceService.DeviceName()
}

func (a *Application) gain() float64 {
	if a.config.Gain > 0 {
		return a.config.Gain
	}
	return a.preferenceService.Gain()
}

// Start launches the background parts: the render loop, the snapshot stream
// and, with AutoStart, capture itself. A capture start failure is reported
// on the window and does not fail Start.
func (a *Application) Start() error {
	a.presenter.Start()

	if a.streamServer != nil {
		ctx, cancel := context.WithCancel(context.Background())
		a.streamCancel = cancel
		a.streamDone = make(chan error, 1)
		go func() {
			a.streamDone <- a.streamServer.Run(ctx)
		}()
	}

	if a.config.AutoStart {
		a.autoStartDone = make(chan struct{})
		go func() {
			defer close(a.autoStartDone)
			a.presenter.OnStartClicked()
		}()
	}
	return nil
}

// Run starts the application and blocks until the window is closed.
func (a *Application) Run() error {
	if err := a.Start(); err != nil {
		return err
	}

	a.logger.Info("GoScope started")

	// Show and run UI (blocks until the window is closed)
	a.mainWindow.ShowAndRun()
	return nil
}

// Quit closes the main window, which makes Run return. Safe to call from any goroutine.
func (a *Application) Quit() {
	a.mainWindow.Close()
}

// CaptureService returns the capture pipeline.
func (a *Application) CaptureService() *service.CaptureService {
	return a.captureService
}

// PreferenceService returns the preference service.
func (a *Application) PreferenceService() *service.PreferenceService {
	return a.preferenceService
}

// GetEventBus returns the event bus.
func (a *Application) GetEventBus() ports.EventBus {
	return a.eventBus
}

// GetFyneApp returns the Fyne application.
func (a *Application) GetFyneApp() fyne.App {
	return a.fyneApp
}

// StreamServer returns the snapshot stream server, or nil when disabled.
func (a *Application) StreamServer() *stream.Server {
	return a.streamServer
}

// Shutdown gracefully shuts down the application.
// This should be called via deferring in main.go. It's safe to call multiple times.
func (a *Application) Shutdown() error {
	a.shutdownOnce.Do(func() {
		a.shutdownErr = a.shutdown()
	})
	return a.shutdownErr
}

func (a *Application) shutdown() error {
	a.logger.Info("shutting down application")

	var errs []error

	// Shutdown UI and presenter
	if a.presenter != nil {
		a.presenter.Shutdown()
	}

	// A capture start still resolving would outlive the pipeline shutdown
	if a.autoStartDone != nil {
		select {
		case <-a.autoStartDone:
		case <-time.After(streamStopTimeout):
			a.logger.Warn("capture start did not return in time")
		}
	}

	// Stop the stream before the pipeline it reads from
	if a.streamCancel != nil {
		a.streamCancel()
		select {
		case err := <-a.streamDone:
			if err != nil {
				errs = append(errs, fmt.Errorf("stream server: %w", err))
			}
		case <-time.After(streamStopTimeout):
			a.logger.Warn("stream server did not stop in time")
		}
	}

	// Shutdown services (in reverse order of creation)
	if a.captureService != nil {
		if err := a.captureService.Shutdown(); err != nil {
			a.logger.Warn("failed to shutdown capture service", slog.Any("error", err))
			errs = append(errs, err)
		}
	}

	if a.preferenceService != nil {
		if err := a.preferenceService.Shutdown(); err != nil {
			a.logger.Warn("failed to shutdown preference service", slog.Any("error", err))
			errs = append(errs, err)
		}
	}

	a.shutdownSource()

	if err := a.eventBus.Close(); err != nil {
		errs = append(errs, err)
	}

	a.logger.Info("application shutdown complete")
	a.closeLog()

	return errors.Join(errs...)
}

func (a *Application) shutdownSource() {
	if a.audioSource == nil {
		return
	}
	if err := a.audioSource.Shutdown(); err != nil {
		a.logger.Warn("failed to shutdown audio source", slog.Any("error", err))
	}
}

func (a *Application) closeLog() {
	if a.logCloser != nil {
		_ = a.logCloser.Close()
	}
}
