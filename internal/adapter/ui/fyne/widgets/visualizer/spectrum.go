package visualizer

import (
	"image"
	"image/color"

	"fyne.io/fyne/v2/canvas"

	"github.com/tejashwikalptaru/goscope/internal/dsp"
)

const (
	spectrumPadding   = 4
	spectrumLineWidth = 1
	spectrumFillAlpha = 0.6
)

// Decade gridlines drawn on the frequency axis.
var spectrumGridHz = []float64{100, 1000, 10000}

// SpectrumConfig describes the axes of a Spectrum plot.
type SpectrumConfig struct {
	SampleRate int
	MinHz      float64
	MaxHz      float64
	FloorDB    float64
}

// Spectrum plots a decibel spectrum on a logarithmic frequency axis. The area
// under the curve is colored by amplitude.
type Spectrum struct {
	BasePlot

	cfg  SpectrumConfig
	draw DrawingUtils
}

// NewSpectrum creates a new spectrum plot widget.
func NewSpectrum(cfg SpectrumConfig) *Spectrum {
	if cfg.FloorDB >= 0 {
		cfg.FloorDB = dsp.ColorMinDB
	}

	v := &Spectrum{cfg: cfg}

	v.Raster = canvas.NewRaster(v.render)
	v.ExtendBaseWidget(v)

	return v
}

// render draws the spectrum.
func (v *Spectrum) render(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	v.draw.FillBackground(img, backgroundColor)

	if w < 2 || h == 0 {
		return img
	}

	top := float64(spectrumPadding)
	bottom := float64(h - 1)
	if bottom <= top {
		return img
	}

	for _, hz := range spectrumGridHz {
		if hz > v.cfg.MinHz && hz < v.cfg.MaxHz {
			x := dsp.LogPosition(hz, v.cfg.MinHz, v.cfg.MaxHz) * float64(w-1)
			v.draw.DrawVLine(img, int(x), gridColor)
		}
	}

	spectrum := v.GetData()
	levels := v.columnLevels(spectrum, w)
	if levels == nil {
		return img
	}

	points := make([]point, w)
	for x, db := range levels {
		y := scale(db, 0, v.cfg.FloorDB, top, bottom)
		points[x] = point{float64(x), y}

		fill := dsp.AmplitudeToColor(db)
		fill.A = uint8(255 * spectrumFillAlpha)
		for py := int(y); py <= int(bottom); py++ {
			blend(img, x, py, fill)
		}
	}

	v.draw.DrawPolyline(img, points, spectrumLineWidth, curveColor)
	return img
}

// columnLevels samples the spectrum at the frequency of each pixel column.
func (v *Spectrum) columnLevels(spectrum []float64, w int) []float64 {
	if len(spectrum) < 2 || v.cfg.SampleRate <= 0 {
		return nil
	}

	size := (len(spectrum) - 1) * 2
	levels := make([]float64, w)
	for x := range levels {
		pos := float64(x) / float64(w-1)
		hz := dsp.LogFrequencyAt(pos, v.cfg.MinHz, v.cfg.MaxHz)
		levels[x] = spectrum[dsp.FrequencyToBin(hz, v.cfg.SampleRate, size)]
	}
	return levels
}

// blend draws col over the pixel at (x, y) using its alpha.
func blend(img *image.RGBA, x, y int, col color.RGBA) {
	if !(image.Point{X: x, Y: y}.In(img.Bounds())) {
		return
	}
	dst := img.RGBAAt(x, y)
	a := float64(col.A) / 255
	mix := func(s, d uint8) uint8 {
		return uint8(float64(s)*a + float64(d)*(1-a))
	}
	img.SetRGBA(x, y, color.RGBA{R: mix(col.R, dst.R), G: mix(col.G, dst.G), B: mix(col.B, dst.B), A: 255})
}

// Verify interface implementation at compile time.
var _ Plot = (*Spectrum)(nil)
