package memory

import (
	"errors"
	"testing"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/goscope/internal/domain"
)

// Helper to create a test preferences repository
func newTestPreferencesRepository() *PreferencesRepository {
	app := test.NewApp()
	prefs := app.Preferences()

	return NewPreferencesRepository(prefs)
}

func TestPreferencesRepository_CaptureMode(t *testing.T) {
	repo := newTestPreferencesRepository()

	mode, err := repo.LoadCaptureMode()
	require.NoError(t, err)
	assert.Equal(t, domain.CaptureMode(""), mode, "unset mode lets callers apply their default")

	require.NoError(t, repo.SaveCaptureMode(domain.ModeLoopback))

	mode, err = repo.LoadCaptureMode()
	require.NoError(t, err)
	assert.Equal(t, domain.ModeLoopback, mode)
}

func TestPreferencesRepository_SaveCaptureMode_Invalid(t *testing.T) {
	repo := newTestPreferencesRepository()

	err := repo.SaveCaptureMode("speaker")

	var repoErr *domain.RepositoryError
	require.True(t, errors.As(err, &repoErr))
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestPreferencesRepository_LoadCaptureMode_Corrupt(t *testing.T) {
	app := test.NewApp()
	app.Preferences().SetString(keyCaptureMode, "speaker")
	repo := NewPreferencesRepository(app.Preferences())

	_, err := repo.LoadCaptureMode()

	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestPreferencesRepository_DeviceName(t *testing.T) {
	repo := newTestPreferencesRepository()

	name, err := repo.LoadDeviceName()
	require.NoError(t, err)
	assert.Empty(t, name)

	require.NoError(t, repo.SaveDeviceName("BlackHole 2ch"))
	name, err = repo.LoadDeviceName()
	require.NoError(t, err)
	assert.Equal(t, "BlackHole 2ch", name)

	require.NoError(t, repo.SaveDeviceName(""))
	name, err = repo.LoadDeviceName()
	require.NoError(t, err)
	assert.Empty(t, name)
}

func TestPreferencesRepository_Gain(t *testing.T) {
	repo := newTestPreferencesRepository()

	gain, err := repo.LoadGain()
	require.NoError(t, err)
	assert.Equal(t, 1.0, gain)

	require.NoError(t, repo.SaveGain(3.5))
	gain, err = repo.LoadGain()
	require.NoError(t, err)
	assert.Equal(t, 3.5, gain)

	assert.ErrorIs(t, repo.SaveGain(0), domain.ErrInvalidConfig)
	gain, _ = repo.LoadGain()
	assert.Equal(t, 3.5, gain)
}

func TestPreferencesRepository_Clear(t *testing.T) {
	repo := newTestPreferencesRepository()

	require.NoError(t, repo.SaveCaptureMode(domain.ModeMicrophone))
	require.NoError(t, repo.SaveDeviceName("USB Mic"))
	require.NoError(t, repo.SaveGain(2))

	require.NoError(t, repo.Clear())

	mode, _ := repo.LoadCaptureMode()
	name, _ := repo.LoadDeviceName()
	gain, _ := repo.LoadGain()
	assert.Equal(t, domain.CaptureMode(""), mode)
	assert.Empty(t, name)
	assert.Equal(t, 1.0, gain)
}

func TestPreferencesRepository_ConcurrentAccess(t *testing.T) {
	repo := newTestPreferencesRepository()

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func(i int) {
			_ = repo.SaveGain(float64(i + 1))
			_, _ = repo.LoadGain()
			_, _ = repo.LoadCaptureMode()
			done <- true
		}(i)
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	gain, err := repo.LoadGain()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, gain, 1.0)
}
