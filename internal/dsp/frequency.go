package dsp

import (
	"math"
)

// BinFrequency returns the center frequency in Hz of an FFT bin.
func BinFrequency(bin, sampleRate, size int) float64 {
	if size <= 0 {
		return 0
	}
	return float64(bin) * float64(sampleRate) / float64(size)
}

// FrequencyToBin returns the nearest bin for freq, clamped to [0, size/2].
func FrequencyToBin(freq float64, sampleRate, size int) int {
	if sampleRate <= 0 || size <= 0 {
		return 0
	}
	bin := int(math.Round(freq * float64(size) / float64(sampleRate)))
	if bin < 0 {
		return 0
	}
	if bin > size/2 {
		return size / 2
	}
	return bin
}

// LogFrequencyAt maps pos in [0,1] onto a logarithmic axis from minHz to maxHz.
func LogFrequencyAt(pos, minHz, maxHz float64) float64 {
	if pos <= 0 {
		return minHz
	}
	if pos >= 1 {
		return maxHz
	}
	return minHz * math.Pow(maxHz/minHz, pos)
}

// LogPosition is the inverse of LogFrequencyAt, clamped to [0,1].
func LogPosition(freq, minHz, maxHz float64) float64 {
	if freq <= minHz {
		return 0
	}
	if freq >= maxHz {
		return 1
	}
	return math.Log(freq/minHz) / math.Log(maxHz/minHz)
}
