package visualizer

import (
	"image"

	"fyne.io/fyne/v2/canvas"
)

const (
	waveformPadding   = 4
	waveformLineWidth = 1
)

// Waveform plots time-domain samples, oldest on the left, with a fixed
// [-1, 1] vertical range.
type Waveform struct {
	BasePlot

	draw DrawingUtils
}

// NewWaveform creates a new waveform plot widget.
func NewWaveform() *Waveform {
	v := &Waveform{}

	v.Raster = canvas.NewRaster(v.render)
	v.ExtendBaseWidget(v)

	return v
}

// render draws the waveform.
func (v *Waveform) render(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	v.draw.FillBackground(img, backgroundColor)

	if w == 0 || h == 0 {
		return img
	}

	top := float64(waveformPadding)
	bottom := float64(h - 1 - waveformPadding)
	if bottom <= top {
		return img
	}

	// Zero line
	v.draw.DrawHLine(img, int((top+bottom)/2), gridColor)

	samples := v.GetData()
	points := waveformPoints(samples, w, top, bottom)
	v.draw.DrawPolyline(img, points, waveformLineWidth, waveColor)

	return img
}

// waveformPoints maps samples onto at most w columns. When there are more
// samples than columns, each column shows the sample of largest magnitude in
// its slice so transients stay visible.
func waveformPoints(samples []float64, w int, top, bottom float64) []point {
	n := len(samples)
	if n < 2 || w < 2 {
		return nil
	}

	cols := w
	if n < cols {
		cols = n
	}

	points := make([]point, cols)
	for c := 0; c < cols; c++ {
		lo := c * n / cols
		hi := (c + 1) * n / cols
		if hi <= lo {
			hi = lo + 1
		}

		pick := samples[lo]
		for _, s := range samples[lo:hi] {
			if abs(s) > abs(pick) {
				pick = s
			}
		}

		x := float64(c) * float64(w-1) / float64(cols-1)
		y := scale(pick, 1, -1, top, bottom)
		points[c] = point{x, y}
	}
	return points
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// Verify interface implementation at compile time.
var _ Plot = (*Waveform)(nil)
