// Package ports define repository interfaces for data persistence abstraction.
// These interfaces enable the repository pattern and allow swapping persistence mechanisms.
package ports

import (
	"github.com/tejashwikalptaru/goscope/internal/domain"
)

// PreferencesRepository handles the persistence of user preferences.
// This abstracts the Fyne preferences storage.
//
// Thread-safety: Implementations must be thread-safe.
type PreferencesRepository interface {
	// Capture mode preferences

	// SaveCaptureMode persists the selected capture mode.
	//
	// Returns an error if saving fails.
	SaveCaptureMode(mode domain.CaptureMode) error

	// LoadCaptureMode retrieves the saved capture mode.
	// If nothing was saved, returns ("", nil) so callers can apply their own default.
	//
	// Returns the mode or an error if the stored value is not a valid mode.
	LoadCaptureMode() (domain.CaptureMode, error)

	// Device preferences

	// SaveDeviceName persists the preferred capture device name ("" clears it).
	SaveDeviceName(name string) error

	// LoadDeviceName retrieves the preferred device name ("" if none).
	LoadDeviceName() (string, error)

	// Gain preferences

	// SaveGain persists the waveform gain multiplier.
	SaveGain(gain float64) error

	// LoadGain retrieves the saved gain. If nothing was saved, returns 1.0.
	LoadGain() (float64, error)

	// Utility methods

	// Clear removes all saved preferences.
	Clear() error
}
