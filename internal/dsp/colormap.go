package dsp

import (
	"image/color"
)

// Color map range in dB.
const (
	ColorMinDB = -100.0
	ColorMaxDB = 0.0
)

// colorAnchors run from quiet to loud at evenly spaced positions.
var colorAnchors = [...]color.RGBA{
	{R: 0, G: 50, B: 100, A: 255},   // dark blue
	{R: 0, G: 150, B: 255, A: 255},  // cyan
	{R: 50, G: 255, B: 100, A: 255}, // green
	{R: 255, G: 255, B: 0, A: 255},  // yellow
	{R: 255, G: 100, B: 0, A: 255},  // red
}

// AmplitudeToColor maps a decibel value to a color. Values are clamped to
// [ColorMinDB, ColorMaxDB] and interpolated linearly between the anchors.
func AmplitudeToColor(db float64) color.RGBA {
	if db != db { // NaN
		db = ColorMinDB
	}
	if db < ColorMinDB {
		db = ColorMinDB
	}
	if db > ColorMaxDB {
		db = ColorMaxDB
	}

	pos := (db - ColorMinDB) / (ColorMaxDB - ColorMinDB)
	segments := float64(len(colorAnchors) - 1)

	idx := int(pos * segments)
	if idx >= len(colorAnchors)-1 {
		return colorAnchors[len(colorAnchors)-1]
	}
	t := pos*segments - float64(idx)

	from, to := colorAnchors[idx], colorAnchors[idx+1]
	return color.RGBA{
		R: lerp8(from.R, to.R, t),
		G: lerp8(from.G, to.G, t),
		B: lerp8(from.B, to.B, t),
		A: 255,
	}
}

func lerp8(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t)
}
