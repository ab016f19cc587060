package fyne

import (
	"context"
	"sync"
	"testing"
	"time"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/goscope/internal/adapter/audio/mock"
	"github.com/tejashwikalptaru/goscope/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/goscope/internal/adapter/repository/memory"
	"github.com/tejashwikalptaru/goscope/internal/domain"
	"github.com/tejashwikalptaru/goscope/internal/logger"
	"github.com/tejashwikalptaru/goscope/internal/service"
	"github.com/tejashwikalptaru/goscope/internal/testutil"
)

func TestMain(m *testing.M) {
	testutil.VerifyTestMain(m, testutil.IgnoreFyneGoroutines()...)
}

const testTimeout = 2 * time.Second

// fakeView records everything the presenter pushes.
type fakeView struct {
	mu        sync.Mutex
	waveforms int
	spectra   int
	lastWave  []float64
	mode      domain.CaptureMode
	device    string
	status    string
	running   bool
	errors    []error
}

func (v *fakeView) UpdateWaveform(samples []float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.waveforms++
	v.lastWave = samples
}

func (v *fakeView) UpdateSpectrum([]float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.spectra++
}

func (v *fakeView) SetMode(mode domain.CaptureMode) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.mode = mode
}

func (v *fakeView) SetDevice(name string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.device = name
}

func (v *fakeView) SetStatus(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.status = text
}

func (v *fakeView) SetRunning(running bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.running = running
}

func (v *fakeView) ShowError(_ string, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.errors = append(v.errors, err)
}

func (v *fakeView) get() fakeView {
	v.mu.Lock()
	defer v.mu.Unlock()
	return fakeView{
		waveforms: v.waveforms,
		spectra:   v.spectra,
		lastWave:  v.lastWave,
		mode:      v.mode,
		device:    v.device,
		status:    v.status,
		running:   v.running,
		errors:    append([]error(nil), v.errors...),
	}
}

type presenterFixture struct {
	presenter *Presenter
	capture   *service.CaptureService
	prefs     *service.PreferenceService
	source    *mock.Source
	view      *fakeView
}

func newPresenterFixture(t *testing.T, mode domain.CaptureMode) *presenterFixture {
	t.Helper()

	log := logger.NewTestLogger()

	source := mock.NewSource()
	source.SetReadDelay(time.Millisecond)
	require.NoError(t, source.Initialize())

	bus := eventbus.NewSyncEventBus()

	cfg := domain.DefaultPipelineConfig()
	cfg.BufferSize = 256
	cfg.DisplayLength = 256

	capture, err := service.NewCaptureService(log, source, service.NewDeviceResolver(mode, "", source), bus, cfg)
	require.NoError(t, err)

	app := test.NewTempApp(t)
	prefs := service.NewPreferenceService(log, memory.NewPreferencesRepository(app.Preferences()), bus)

	view := &fakeView{}
	presenter := NewPresenter(log, capture, prefs, source, bus, view, 200)

	t.Cleanup(func() {
		presenter.Shutdown()
		assert.NoError(t, capture.Shutdown())
		_ = bus.Close()
	})

	return &presenterFixture{presenter: presenter, capture: capture, prefs: prefs, source: source, view: view}
}

func TestPresenter_SyncsInitialState(t *testing.T) {
	f := newPresenterFixture(t, domain.ModeLoopback)

	v := f.view.get()
	assert.Equal(t, domain.ModeLoopback, v.mode)
	assert.Equal(t, "Ready", v.status)
	assert.False(t, v.running)
	assert.Equal(t, 1, v.waveforms, "initial zero snapshot is rendered once")
	assert.Equal(t, 1, v.spectra)
	assert.Len(t, v.lastWave, 256)
}

func TestPresenter_RendersNewSnapshots(t *testing.T) {
	f := newPresenterFixture(t, domain.ModeMicrophone)
	f.presenter.Start()

	f.presenter.OnStartClicked()

	require.Eventually(t, func() bool {
		return f.view.get().waveforms >= 3
	}, testTimeout, time.Millisecond)

	v := f.view.get()
	assert.True(t, v.running)
	assert.Equal(t, "Capturing", v.status)
	assert.Equal(t, "Microphone Array (Realtek)", v.device)
	assert.Equal(t, v.waveforms, v.spectra)
	assert.Empty(t, v.errors)
}

func TestPresenter_SkipsUnchangedSnapshots(t *testing.T) {
	f := newPresenterFixture(t, domain.ModeMicrophone)

	f.presenter.render()
	f.presenter.render()

	assert.Equal(t, 1, f.view.get().waveforms)
}

func TestPresenter_StopUpdatesStatus(t *testing.T) {
	f := newPresenterFixture(t, domain.ModeMicrophone)

	f.presenter.OnStartClicked()
	f.presenter.OnStopClicked()

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()
	require.NoError(t, f.capture.Wait(ctx))

	v := f.view.get()
	assert.False(t, v.running)
	assert.Equal(t, "Stopped", v.status)
}

func TestPresenter_FailureKeepsErrorStatus(t *testing.T) {
	f := newPresenterFixture(t, domain.ModeLoopback)
	f.source.SetDevices([]domain.DeviceInfo{
		{ID: 0, Name: "Built-in Microphone", InputChannels: 1, DefaultSampleRate: 44100},
	}, 0, -1)

	f.presenter.OnStartClicked()

	v := f.view.get()
	require.Len(t, v.errors, 1)
	assert.ErrorIs(t, v.errors[0], domain.ErrNoDevice)
	assert.Contains(t, v.status, "Error:")
	assert.False(t, v.running)
}

func TestPresenter_ModeSwitchRestartsCapture(t *testing.T) {
	f := newPresenterFixture(t, domain.ModeMicrophone)

	f.presenter.OnStartClicked()
	require.Equal(t, domain.StateStreaming, f.capture.State())

	f.presenter.OnModeSelected(domain.ModeLoopback)

	assert.Equal(t, domain.ModeLoopback, f.capture.Mode())
	assert.Equal(t, domain.StateStreaming, f.capture.State())
	assert.Equal(t, domain.ModeLoopback, f.prefs.CaptureMode(), "mode is remembered")

	device, ok := f.capture.Device()
	require.True(t, ok)
	assert.True(t, device.IsLoopback)

	v := f.view.get()
	assert.Equal(t, domain.ModeLoopback, v.mode)
	assert.Equal(t, device.Name, v.device)
}

func TestPresenter_ModeSwitchWhileStopped(t *testing.T) {
	f := newPresenterFixture(t, domain.ModeMicrophone)

	f.presenter.OnModeSelected(domain.ModeLoopback)

	assert.Equal(t, domain.ModeLoopback, f.capture.Mode())
	assert.Equal(t, domain.StateIdle, f.capture.State(), "a stopped pipeline stays stopped")
	assert.Equal(t, domain.ModeLoopback, f.view.get().mode)
}

func TestPresenter_SameModeIsNoop(t *testing.T) {
	f := newPresenterFixture(t, domain.ModeMicrophone)

	f.presenter.OnModeSelected(domain.ModeMicrophone)

	assert.Equal(t, domain.CaptureMode(""), f.prefs.CaptureMode())
}

func TestPresenter_ShutdownIsIdempotent(t *testing.T) {
	f := newPresenterFixture(t, domain.ModeMicrophone)
	f.presenter.Start()

	f.presenter.Shutdown()
	f.presenter.Shutdown()

	// Events after shutdown no longer reach the view
	f.presenter.OnStartClicked()
	assert.NotEqual(t, "Capturing", f.view.get().status)
}

func TestPresenter_ShutdownWithoutStart(t *testing.T) {
	f := newPresenterFixture(t, domain.ModeMicrophone)

	done := make(chan struct{})
	go func() {
		f.presenter.Shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(testTimeout):
		t.Fatal("Shutdown blocked on a render loop that never started")
	}
}

func TestErrorMessage(t *testing.T) {
	resErr := domain.NewDeviceResolutionError(domain.ModeLoopback,
		[]domain.DeviceInfo{{Name: "Mic", InputChannels: 1}}, domain.ErrNoDevice)

	assert.Contains(t, ErrorMessage(resErr), "Mic (loopback: false)")
	assert.Contains(t, ErrorMessage(resErr), "--device")
	assert.Equal(t, "Capture is already running.", ErrorMessage(domain.ErrAlreadyRunning))
	assert.Equal(t, "", ErrorMessage(nil))
}
