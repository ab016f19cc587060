package dsp

import (
	"github.com/mjibson/go-dsp/window"
)

// Result is the outcome of analyzing one mono block.
type Result struct {
	// Spectrum holds Size/2+1 values in dB relative to the loudest bin,
	// or a flat floor when the gate closed
	Spectrum []float64

	// Peak is the largest absolute amplitude of the block
	Peak float64

	// Gated is true when the noise gate replaced the spectrum
	Gated bool
}

// AnalyzerConfig configures an Analyzer.
type AnalyzerConfig struct {
	// Size is the FFT length; shorter blocks are zero-padded to it
	Size int

	// GateThreshold is the peak amplitude below which the spectrum is gated.
	// Zero disables the gate.
	GateThreshold float64

	// FloorDB is the flat value of a gated spectrum
	FloorDB float64
}

// Analyzer turns mono blocks into normalized decibel spectra.
//
// An Analyzer is not safe for concurrent use; the capture worker owns it.
type Analyzer struct {
	cfg    AnalyzerConfig
	coeffs []float64
	frame  []float64
}

// NewAnalyzer creates an analyzer with precomputed Hann coefficients.
func NewAnalyzer(cfg AnalyzerConfig) *Analyzer {
	return &Analyzer{
		cfg:    cfg,
		coeffs: window.Hann(cfg.Size),
		frame:  make([]float64, cfg.Size),
	}
}

// SpectrumLength returns the number of bins every Result carries.
func (a *Analyzer) SpectrumLength() int {
	return a.cfg.Size/2 + 1
}

// Floor returns the spectrum published before any block was analyzed.
func (a *Analyzer) Floor() []float64 {
	return Flat(a.SpectrumLength(), a.cfg.FloorDB)
}

// Analyze windows mono, transforms it and normalizes the decibel spectrum.
// Blocks longer than Size are truncated to their most recent Size samples.
// The returned spectrum is freshly allocated and may be published as-is.
func (a *Analyzer) Analyze(mono []float64) Result {
	if len(mono) > a.cfg.Size {
		mono = mono[len(mono)-a.cfg.Size:]
	}

	peak := PeakAmplitude(mono)
	if a.cfg.GateThreshold > 0 && peak < a.cfg.GateThreshold {
		return Result{Spectrum: a.Floor(), Peak: peak, Gated: true}
	}

	n := copy(a.frame, mono)
	for i := n; i < len(a.frame); i++ {
		a.frame[i] = 0
	}
	for i, c := range a.coeffs {
		a.frame[i] *= c
	}

	spectrum := NormalizeToPeak(ToDecibels(MagnitudeSpectrum(a.frame)))
	return Result{Spectrum: spectrum, Peak: peak}
}
