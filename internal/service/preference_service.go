package service

import (
	"log/slog"
	"sync"

	"github.com/tejashwikalptaru/goscope/internal/domain"
	"github.com/tejashwikalptaru/goscope/internal/ports"
)

// Preference keys carried by PreferencesChangedEvent.
const (
	PrefCaptureMode = "capture_mode"
	PrefDeviceName  = "device_name"
	PrefGain        = "gain"
)

// PreferenceService manages the capture settings remembered between runs.
// All operations are thread-safe via sync.RWMutex.
type PreferenceService struct {
	// Dependencies (injected)
	logger     *slog.Logger
	repository ports.PreferencesRepository
	bus        ports.EventBus

	// Cached preferences
	mode       domain.CaptureMode
	deviceName string
	gain       float64

	// Concurrency control
	mu sync.RWMutex
}

// NewPreferenceService creates a new preference service and loads the saved values.
func NewPreferenceService(
	logger *slog.Logger,
	repository ports.PreferencesRepository,
	bus ports.EventBus,
) *PreferenceService {
	service := &PreferenceService{
		logger:     logger,
		repository: repository,
		bus:        bus,
		gain:       1.0,
	}

	logger.Debug("preference service initialized")

	service.loadPreferences()

	return service
}

// loadPreferences loads all preferences from the repository into the cache.
// Unreadable values are logged and left at their defaults.
func (s *PreferenceService) loadPreferences() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if mode, err := s.repository.LoadCaptureMode(); err == nil {
		s.mode = mode
	} else {
		s.logger.Warn("ignoring saved capture mode", slog.Any("error", err))
	}

	if name, err := s.repository.LoadDeviceName(); err == nil {
		s.deviceName = name
	}

	if gain, err := s.repository.LoadGain(); err == nil && gain > 0 {
		s.gain = gain
	}
}

// CaptureMode returns the saved capture mode, or "" when none was saved.
func (s *PreferenceService) CaptureMode() domain.CaptureMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// SetCaptureMode saves the capture mode.
func (s *PreferenceService) SetCaptureMode(mode domain.CaptureMode) error {
	if _, err := domain.ParseCaptureMode(string(mode)); err != nil {
		return err
	}

	if err := s.repository.SaveCaptureMode(mode); err != nil {
		return err
	}

	s.mu.Lock()
	s.mode = mode
	s.mu.Unlock()

	s.publish(PrefCaptureMode, mode)
	return nil
}

// DeviceName returns the preferred device name ("" for automatic selection).
func (s *PreferenceService) DeviceName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deviceName
}

// SetDeviceName saves the preferred device name. An empty name restores
// automatic selection.
func (s *PreferenceService) SetDeviceName(name string) error {
	if err := s.repository.SaveDeviceName(name); err != nil {
		return err
	}

	s.mu.Lock()
	s.deviceName = name
	s.mu.Unlock()

	s.publish(PrefDeviceName, name)
	return nil
}

// Gain returns the saved waveform gain.
func (s *PreferenceService) Gain() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gain
}

// SetGain saves the waveform gain. The gain must be positive.
func (s *PreferenceService) SetGain(gain float64) error {
	if gain <= 0 {
		return domain.NewValidationError("gain", gain, "must be positive")
	}

	if err := s.repository.SaveGain(gain); err != nil {
		return err
	}

	s.mu.Lock()
	s.gain = gain
	s.mu.Unlock()

	s.publish(PrefGain, gain)
	return nil
}

// ResetToDefaults clears every saved preference.
func (s *PreferenceService) ResetToDefaults() error {
	if err := s.repository.Clear(); err != nil {
		return err
	}

	s.mu.Lock()
	s.mode = ""
	s.deviceName = ""
	s.gain = 1.0
	s.mu.Unlock()

	return nil
}

// GetAllPreferences returns all preferences as a map.
func (s *PreferenceService) GetAllPreferences() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]interface{}{
		PrefCaptureMode: s.mode,
		PrefDeviceName:  s.deviceName,
		PrefGain:        s.gain,
	}
}

func (s *PreferenceService) publish(key string, value interface{}) {
	if s.bus != nil {
		s.bus.Publish(domain.NewPreferencesChangedEvent(key, value))
	}
}

// Shutdown cleans up resources.
func (s *PreferenceService) Shutdown() error {
	// No cleanup needed for preference service
	return nil
}
