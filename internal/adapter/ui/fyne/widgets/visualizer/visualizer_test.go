package visualizer

import (
	"image"
	"testing"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/goscope/internal/dsp"
)

func testSpectrumConfig() SpectrumConfig {
	return SpectrumConfig{SampleRate: 44100, MinHz: 20, MaxHz: 20000, FloorDB: -100}
}

func TestWaveformPoints_OnePointPerColumn(t *testing.T) {
	samples := make([]float64, 2048)
	samples[100] = 0.9

	points := waveformPoints(samples, 200, 0, 100)

	require.Len(t, points, 200)
	assert.Equal(t, 0.0, points[0].x)
	assert.Equal(t, 199.0, points[199].x)

	// The column holding sample 100 shows the transient
	col := 100 * 200 / 2048
	assert.InDelta(t, 5.0, points[col].y, 1e-9)
	assert.InDelta(t, 50.0, points[0].y, 1e-9, "silence sits on the zero line")
}

func TestWaveformPoints_FewerSamplesThanColumns(t *testing.T) {
	points := waveformPoints([]float64{1, -1, 0}, 100, 0, 10)

	require.Len(t, points, 3)
	assert.InDelta(t, 0.0, points[0].y, 1e-9)
	assert.InDelta(t, 10.0, points[1].y, 1e-9)
	assert.InDelta(t, 5.0, points[2].y, 1e-9)
	assert.InDelta(t, 99.0, points[2].x, 1e-9)
}

func TestWaveformPoints_ClampsOutOfRange(t *testing.T) {
	points := waveformPoints([]float64{4, -4}, 10, 0, 10)

	require.Len(t, points, 2)
	assert.InDelta(t, 0.0, points[0].y, 1e-9)
	assert.InDelta(t, 10.0, points[1].y, 1e-9)
}

func TestWaveformPoints_Degenerate(t *testing.T) {
	assert.Nil(t, waveformPoints(nil, 100, 0, 10))
	assert.Nil(t, waveformPoints([]float64{0.5}, 100, 0, 10))
	assert.Nil(t, waveformPoints([]float64{0, 1}, 1, 0, 10))
}

func TestSpectrumColumnLevels_LogAxis(t *testing.T) {
	v := NewSpectrum(testSpectrumConfig())

	spectrum := dsp.Flat(1025, -100)
	bin1k := dsp.FrequencyToBin(1000, 44100, 2048)
	spectrum[bin1k] = 0

	w := 500
	levels := v.columnLevels(spectrum, w)
	require.Len(t, levels, w)

	x := int(dsp.LogPosition(dsp.BinFrequency(bin1k, 44100, 2048), 20, 20000)*float64(w-1) + 0.5)
	assert.Equal(t, 0.0, levels[x])
	assert.Equal(t, -100.0, levels[0])
	assert.Equal(t, -100.0, levels[w-1])
}

func TestSpectrumColumnLevels_NoData(t *testing.T) {
	v := NewSpectrum(testSpectrumConfig())
	assert.Nil(t, v.columnLevels(nil, 100))

	v = NewSpectrum(SpectrumConfig{MinHz: 20, MaxHz: 20000})
	assert.Nil(t, v.columnLevels(dsp.Flat(1025, -100), 100))
}

func TestNewSpectrum_DefaultFloor(t *testing.T) {
	v := NewSpectrum(SpectrumConfig{SampleRate: 44100, MinHz: 20, MaxHz: 20000})
	assert.Equal(t, dsp.ColorMinDB, v.cfg.FloorDB)
}

func TestPlots_Render(t *testing.T) {
	test.NewTempApp(t)

	wave := NewWaveform()
	spectrumPlot := NewSpectrum(testSpectrumConfig())

	wave.Update([]float64{0, 0.5, -0.5, 1})
	spectrum := dsp.Flat(1025, -100)
	spectrum[46] = 0
	spectrumPlot.Update(spectrum)

	for _, img := range []image.Image{wave.render(120, 60), spectrumPlot.render(120, 60)} {
		require.NotNil(t, img)
		assert.Equal(t, image.Rect(0, 0, 120, 60), img.Bounds())
	}

	// Empty and zero-sized rasters must not panic
	wave.Reset()
	spectrumPlot.Reset()
	assert.Nil(t, wave.GetData())
	assert.NotNil(t, wave.render(0, 0))
	assert.NotNil(t, spectrumPlot.render(1, 1))
}

func TestSpectrum_FillUsesAmplitudeColor(t *testing.T) {
	test.NewTempApp(t)

	spectrumPlot := NewSpectrum(testSpectrumConfig())
	spectrumPlot.Update(dsp.Flat(1025, 0))

	img := spectrumPlot.render(50, 50).(*image.RGBA)

	// A full-scale spectrum fills the plot with the top color of the map
	px := img.RGBAAt(25, 40)
	top := dsp.AmplitudeToColor(0)
	assert.Greater(t, px.R, backgroundColor.R)
	assert.InDelta(t, int(top.R), int(px.R), 110)
}

func TestScale(t *testing.T) {
	assert.Equal(t, 5.0, scale(0.5, 0, 1, 0, 10))
	assert.Equal(t, 10.0, scale(2, 0, 1, 0, 10))
	assert.Equal(t, 0.0, scale(-1, 0, 1, 0, 10))
	assert.Equal(t, 3.0, scale(1, 1, 1, 3, 10))
}
