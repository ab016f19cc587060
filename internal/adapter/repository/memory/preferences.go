// Package memory provides repositories backed by the Fyne preferences store.
package memory

import (
	"sync"

	"fyne.io/fyne/v2"

	"github.com/tejashwikalptaru/goscope/internal/domain"
	"github.com/tejashwikalptaru/goscope/internal/ports"
)

const (
	keyCaptureMode = "preferences.capture_mode"
	keyDeviceName  = "preferences.device_name"
	keyGain        = "preferences.gain"
)

// PreferencesRepository implements ports.PreferencesRepository using Fyne preferences.
// This provides a thin wrapper around Fyne's preferences system with proper error handling.
//
// Thread-safe: All operations protected by sync.RWMutex.
type PreferencesRepository struct {
	prefs fyne.Preferences
	mu    sync.RWMutex
}

// NewPreferencesRepository creates a new preferences' repository.
// The preferences parameter should be obtained from fyne.CurrentApp().Preferences().
func NewPreferencesRepository(prefs fyne.Preferences) *PreferencesRepository {
	return &PreferencesRepository{
		prefs: prefs,
	}
}

// SaveCaptureMode persists the capture mode.
func (r *PreferencesRepository) SaveCaptureMode(mode domain.CaptureMode) error {
	if _, err := domain.ParseCaptureMode(string(mode)); err != nil {
		return domain.NewRepositoryError("save", "preferences", "invalid capture mode", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.prefs.SetString(keyCaptureMode, string(mode))
	return nil
}

// LoadCaptureMode retrieves the saved capture mode, or "" if none was saved.
func (r *PreferencesRepository) LoadCaptureMode() (domain.CaptureMode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	raw := r.prefs.String(keyCaptureMode)
	if raw == "" {
		return "", nil
	}

	mode, err := domain.ParseCaptureMode(raw)
	if err != nil {
		return "", domain.NewRepositoryError("load", "preferences", "stored capture mode is invalid", err)
	}
	return mode, nil
}

// SaveDeviceName persists the preferred device name. An empty name removes it.
func (r *PreferencesRepository) SaveDeviceName(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if name == "" {
		r.prefs.RemoveValue(keyDeviceName)
		return nil
	}
	r.prefs.SetString(keyDeviceName, name)
	return nil
}

// LoadDeviceName retrieves the preferred device name.
func (r *PreferencesRepository) LoadDeviceName() (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.prefs.String(keyDeviceName), nil
}

// SaveGain persists the waveform gain.
func (r *PreferencesRepository) SaveGain(gain float64) error {
	if gain <= 0 {
		return domain.NewRepositoryError("save", "preferences", "gain must be positive",
			domain.NewValidationError("gain", gain, "must be positive"))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.prefs.SetFloat(keyGain, gain)
	return nil
}

// LoadGain retrieves the saved gain, 1.0 if none was saved.
func (r *PreferencesRepository) LoadGain() (float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.prefs.FloatWithFallback(keyGain, 1.0), nil
}

// Clear removes all saved preferences.
func (r *PreferencesRepository) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prefs.RemoveValue(keyCaptureMode)
	r.prefs.RemoveValue(keyDeviceName)
	r.prefs.RemoveValue(keyGain)

	return nil
}

// Verify interface implementation
var _ ports.PreferencesRepository = (*PreferencesRepository)(nil)
