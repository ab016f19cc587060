package visualizer

import (
	"fyne.io/fyne/v2"
)

// Plot defines the interface implemented by the waveform and spectrum widgets.
type Plot interface {
	fyne.CanvasObject

	// Update replaces the plotted data.
	// This is called at the refresh rate from the presenter.
	Update(data []float64)

	// Reset clears the plot.
	Reset()
}
