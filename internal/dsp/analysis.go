// Package dsp contains the numeric steps of the capture pipeline: downmixing,
// windowing, the magnitude spectrum and its decibel normalization.
//
// Every function is pure. The Analyzer type strings them together for one
// capture cycle and reuses its scratch buffers between cycles.
package dsp

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

// Epsilon guards the logarithm against zero magnitudes.
const Epsilon = 1e-10

// Downmix averages channels sample-wise into one mono signal.
// A single channel is converted as-is. The result has the length of the
// shortest channel; no channels yields nil.
func Downmix(channels [][]float32) []float64 {
	if len(channels) == 0 {
		return nil
	}

	frames := len(channels[0])
	for _, ch := range channels[1:] {
		if len(ch) < frames {
			frames = len(ch)
		}
	}

	mono := make([]float64, frames)
	if len(channels) == 1 {
		for i, s := range channels[0][:frames] {
			mono[i] = float64(s)
		}
		return mono
	}

	scale := 1 / float64(len(channels))
	for i := 0; i < frames; i++ {
		var sum float64
		for _, ch := range channels {
			sum += float64(ch[i])
		}
		mono[i] = sum * scale
	}
	return mono
}

// ApplyGain returns a copy of x multiplied by gain.
func ApplyGain(x []float64, gain float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = v * gain
	}
	return out
}

// PeakAmplitude returns the largest absolute sample value.
func PeakAmplitude(x []float64) float64 {
	var peak float64
	for _, v := range x {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	return peak
}

// Hann returns a Hann-windowed copy of x. The window spans len(x) samples
// and tapers to zero at both ends.
func Hann(x []float64) []float64 {
	out := make([]float64, len(x))
	copy(out, x)
	window.Apply(out, window.Hann)
	return out
}

// MagnitudeSpectrum returns the len(x)/2+1 magnitudes of the real-input DFT of x.
func MagnitudeSpectrum(x []float64) []float64 {
	if len(x) == 0 {
		return nil
	}
	coeffs := fft.FFTReal(x)
	mags := make([]float64, len(x)/2+1)
	for i := range mags {
		mags[i] = cmplx.Abs(coeffs[i])
	}
	return mags
}

// ToDecibels converts magnitudes to decibels in place using 20*log10(m+Epsilon)
// and returns the same slice.
func ToDecibels(mags []float64) []float64 {
	for i, m := range mags {
		mags[i] = 20 * math.Log10(m+Epsilon)
	}
	return mags
}

// NormalizeToPeak subtracts the largest value from every element in place so
// the loudest bin reads 0 dB. It returns the same slice.
func NormalizeToPeak(db []float64) []float64 {
	if len(db) == 0 {
		return db
	}
	peak := db[0]
	for _, v := range db[1:] {
		if v > peak {
			peak = v
		}
	}
	for i := range db {
		db[i] -= peak
	}
	return db
}

// Flat returns n copies of value.
func Flat(n int, value float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = value
	}
	return out
}
