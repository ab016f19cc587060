// Package visualizer provides the plot widgets of the GoScope window.
package visualizer

import (
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
)

// BasePlot provides common functionality for the plot widgets.
// It is designed to be embedded in concrete plot implementations.
type BasePlot struct {
	widget.BaseWidget

	Raster *canvas.Raster
	Data   []float64
	Mu     sync.RWMutex
}

// CreateRenderer implements fyne.Widget.
func (p *BasePlot) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(p.Raster)
}

// MinSize returns a minimal size so the plot expands to fill available space.
func (p *BasePlot) MinSize() fyne.Size {
	return fyne.NewSize(0, 0)
}

// Update replaces the plotted data and requests a redraw. The slice is kept
// by reference and must not be modified afterwards.
func (p *BasePlot) Update(data []float64) {
	p.Mu.Lock()
	p.Data = data
	p.Mu.Unlock()

	p.Raster.Refresh()
}

// Reset clears the plot.
func (p *BasePlot) Reset() {
	p.Update(nil)
}

// GetData returns the plotted data.
func (p *BasePlot) GetData() []float64 {
	p.Mu.RLock()
	defer p.Mu.RUnlock()
	return p.Data
}
