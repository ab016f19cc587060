package fyne

import (
	"fmt"
	"sync"

	fyneapp "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/tejashwikalptaru/goscope/internal/adapter/ui/fyne/widgets/visualizer"
	"github.com/tejashwikalptaru/goscope/internal/domain"
)

// Window properties.
const (
	APPNAME = "AUDIO VISUALIZER"
	WIDTH   = 1000
	HEIGHT  = 640
)

// Labels shown in the mode selector.
var modeLabels = map[domain.CaptureMode]string{
	domain.ModeMicrophone: "Microphone",
	domain.ModeLoopback:   "Desktop Audio",
}

// WindowConfig configures a MainWindow.
type WindowConfig struct {
	Spectrum visualizer.SpectrumConfig

	// Version is shown in the About dialog
	Version string
}

// MainWindow is the main UI window implementing the UIView interface.
// It is a "dumb view": it displays what the Presenter pushes and forwards
// user interactions to it. Every UIView method hops onto the Fyne thread.
type MainWindow struct {
	app     fyneapp.App
	window  fyneapp.Window
	version string

	// UI components
	subtitle    *widget.Label
	deviceLabel *widget.Label
	statusLabel *widget.Label
	startButton *widget.Button
	stopButton  *widget.Button
	modeSelect  *widget.Select
	waveform    *visualizer.Waveform
	spectrum    *visualizer.Spectrum

	// Lifecycle management
	closeOnce sync.Once

	// Presenter (set after construction)
	presenter *Presenter
}

// NewMainWindow creates a new main window.
func NewMainWindow(app fyneapp.App, cfg WindowConfig) *MainWindow {
	w := &MainWindow{
		app:     app,
		version: cfg.Version,
	}

	w.window = app.NewWindow(APPNAME)
	w.window.SetMaster()
	w.buildUI(cfg.Spectrum)

	w.window.Resize(fyneapp.NewSize(WIDTH, HEIGHT))

	return w
}

// SetPresenter connects the presenter to this view.
// This must be called before showing the window.
func (w *MainWindow) SetPresenter(presenter *Presenter) {
	w.presenter = presenter
	w.wirePresenterHandlers()
}

// buildUI constructs the UI components.
func (w *MainWindow) buildUI(spectrumCfg visualizer.SpectrumConfig) {
	title := widget.NewLabelWithStyle(APPNAME, fyneapp.TextAlignLeading, fyneapp.TextStyle{Bold: true})
	w.subtitle = widget.NewLabel("")
	w.subtitle.TextStyle = fyneapp.TextStyle{Italic: true}

	w.deviceLabel = widget.NewLabel("No device")
	w.deviceLabel.Truncation = fyneapp.TextTruncateEllipsis
	w.statusLabel = widget.NewLabel("Ready")
	w.statusLabel.Truncation = fyneapp.TextTruncateEllipsis

	w.startButton = widget.NewButtonWithIcon("Start", theme.MediaPlayIcon(), nil)
	w.stopButton = widget.NewButtonWithIcon("Stop", theme.MediaStopIcon(), nil)
	w.stopButton.Disable()

	w.modeSelect = widget.NewSelect([]string{
		modeLabels[domain.ModeMicrophone],
		modeLabels[domain.ModeLoopback],
	}, nil)

	w.waveform = visualizer.NewWaveform()
	w.spectrum = visualizer.NewSpectrum(spectrumCfg)

	header := container.NewBorder(nil, nil,
		container.NewVBox(title, w.subtitle),
		container.NewHBox(w.modeSelect, w.startButton, w.stopButton),
	)
	footer := container.NewBorder(nil, nil, w.deviceLabel, nil, w.statusLabel)
	plots := container.NewGridWithRows(2, w.waveform, w.spectrum)

	w.window.SetContent(container.NewPadded(container.NewBorder(header, footer, nil, nil, plots)))
	w.window.SetMainMenu(fyneapp.NewMainMenu(w.createMenu()...))
}

// wirePresenterHandlers connects UI events to presenter handlers.
// Commands that may block on a device run off the Fyne thread.
func (w *MainWindow) wirePresenterHandlers() {
	if w.presenter == nil {
		return
	}

	w.startButton.OnTapped = func() {
		go w.presenter.OnStartClicked()
	}

	w.stopButton.OnTapped = func() {
		w.presenter.OnStopClicked()
	}

	w.modeSelect.OnChanged = func(label string) {
		for mode, l := range modeLabels {
			if l == label {
				go w.presenter.OnModeSelected(mode)
				return
			}
		}
	}
}

// createMenu creates the application menu.
func (w *MainWindow) createMenu() []*fyneapp.Menu {
	about := fyneapp.NewMenuItem("About", func() {
		ShowAboutDialog(w.window, w.version)
	})

	return []*fyneapp.Menu{
		fyneapp.NewMenu("Help", about),
	}
}

// ShowAndRun shows the window and runs the application.
func (w *MainWindow) ShowAndRun() {
	w.window.ShowAndRun()
}

// Close closes the window.
// It's safe to call multiple times (idempotent).
func (w *MainWindow) Close() {
	w.closeOnce.Do(func() {
		fyneapp.Do(w.window.Close)
	})
}

// GetWindow returns the underlying Fyne window.
func (w *MainWindow) GetWindow() fyneapp.Window {
	return w.window
}

// UIView interface implementation

// UpdateWaveform redraws the waveform plot.
func (w *MainWindow) UpdateWaveform(samples []float64) {
	fyneapp.Do(func() {
		w.waveform.Update(samples)
	})
}

// UpdateSpectrum redraws the spectrum plot.
func (w *MainWindow) UpdateSpectrum(db []float64) {
	fyneapp.Do(func() {
		w.spectrum.Update(db)
	})
}

// SetMode shows the selected capture mode.
func (w *MainWindow) SetMode(mode domain.CaptureMode) {
	fyneapp.Do(func() {
		w.subtitle.SetText(mode.Description())
		w.modeSelect.SetSelected(modeLabels[mode])
	})
}

// SetDevice shows the name of the capture device.
func (w *MainWindow) SetDevice(name string) {
	fyneapp.Do(func() {
		w.deviceLabel.SetText(fmt.Sprintf("Device: %s", name))
	})
}

// SetStatus updates the status line.
func (w *MainWindow) SetStatus(text string) {
	fyneapp.Do(func() {
		w.statusLabel.SetText(text)
	})
}

// SetRunning toggles the start and stop buttons.
func (w *MainWindow) SetRunning(running bool) {
	fyneapp.Do(func() {
		if running {
			w.startButton.Disable()
			w.stopButton.Enable()
		} else {
			w.startButton.Enable()
			w.stopButton.Disable()
		}
	})
}

// ShowError displays an error dialog.
func (w *MainWindow) ShowError(title string, err error) {
	fyneapp.Do(func() {
		ShowErrorDialog(w.window, title, err)
	})
}

// Verify UIView implementation
var _ UIView = (*MainWindow)(nil)
