package mock

import (
	"math"
)

// Generator returns the sample for a frame index and channel.
type Generator func(frame int64, channel int) float32

// SilenceGenerator produces digital silence.
func SilenceGenerator() Generator {
	return func(int64, int) float32 { return 0 }
}

// ConstantGenerator produces the same value on every channel.
func ConstantGenerator(v float32) Generator {
	return func(int64, int) float32 { return v }
}

// SineGenerator produces a sine tone on every channel.
func SineGenerator(freq, amplitude float64, sampleRate int) Generator {
	step := 2 * math.Pi * freq / float64(sampleRate)
	return func(frame int64, _ int) float32 {
		return float32(amplitude * math.Sin(step*float64(frame)))
	}
}

// StereoGenerator produces left on channel 0 and right on every other channel.
func StereoGenerator(left, right Generator) Generator {
	return func(frame int64, channel int) float32 {
		if channel == 0 {
			return left(frame, channel)
		}
		return right(frame, channel)
	}
}

// RampGenerator produces frame*step, wrapping at 1, so consecutive frames are
// distinguishable in ordering tests.
func RampGenerator(step float64) Generator {
	return func(frame int64, _ int) float32 {
		v := math.Mod(float64(frame)*step, 1)
		return float32(v)
	}
}
