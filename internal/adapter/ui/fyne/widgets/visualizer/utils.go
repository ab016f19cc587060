package visualizer

import (
	"image"
	"image/color"
	"math"
)

// Colors shared by the plots.
var (
	backgroundColor = color.RGBA{R: 10, G: 10, B: 20, A: 255}
	gridColor       = color.RGBA{R: 45, G: 45, B: 60, A: 255}
	waveColor       = color.RGBA{R: 0, G: 255, B: 100, A: 255}
	curveColor      = color.RGBA{R: 255, G: 255, B: 255, A: 220}
)

// DrawingUtils provides common drawing operations.
type DrawingUtils struct{}

// FillBackground fills the image with a solid color.
func (DrawingUtils) FillBackground(img *image.RGBA, col color.RGBA) {
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			img.SetRGBA(x, y, col)
		}
	}
}

// DrawHLine draws a one pixel horizontal line across the image.
func (DrawingUtils) DrawHLine(img *image.RGBA, y int, col color.RGBA) {
	bounds := img.Bounds()
	if y < bounds.Min.Y || y >= bounds.Max.Y {
		return
	}
	for x := bounds.Min.X; x < bounds.Max.X; x++ {
		img.SetRGBA(x, y, col)
	}
}

// DrawVLine draws a one pixel vertical line across the image.
func (DrawingUtils) DrawVLine(img *image.RGBA, x int, col color.RGBA) {
	bounds := img.Bounds()
	if x < bounds.Min.X || x >= bounds.Max.X {
		return
	}
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		img.SetRGBA(x, y, col)
	}
}

// DrawThickLine draws a line with the specified thickness.
func (DrawingUtils) DrawThickLine(img *image.RGBA, x1, y1, x2, y2 float64, thickness int, col color.RGBA) {
	bounds := img.Bounds()

	dx := x2 - x1
	dy := y2 - y1
	length := math.Sqrt(dx*dx + dy*dy)

	if length == 0 {
		return
	}

	// Perpendicular unit vector for thickness
	perpX := -dy / length
	perpY := dx / length

	steps := int(length) + 1

	for t := -thickness / 2; t <= thickness/2; t++ {
		offsetX := float64(t) * perpX
		offsetY := float64(t) * perpY

		for i := 0; i <= steps; i++ {
			progress := float64(i) / float64(steps)
			px := int(x1 + dx*progress + offsetX)
			py := int(y1 + dy*progress + offsetY)

			if px >= bounds.Min.X && px < bounds.Max.X && py >= bounds.Min.Y && py < bounds.Max.Y {
				img.SetRGBA(px, py, col)
			}
		}
	}
}

// DrawPolyline connects consecutive points.
func (d DrawingUtils) DrawPolyline(img *image.RGBA, points []point, thickness int, col color.RGBA) {
	for i := 0; i+1 < len(points); i++ {
		d.DrawThickLine(img, points[i].x, points[i].y, points[i+1].x, points[i+1].y, thickness, col)
	}
}

// point represents a 2D coordinate.
type point struct {
	x, y float64
}

// scale maps v from [inMin, inMax] onto [outMin, outMax], clamping to the output range.
func scale(v, inMin, inMax, outMin, outMax float64) float64 {
	if inMax == inMin || math.IsNaN(v) {
		return outMin
	}
	t := (v - inMin) / (inMax - inMin)
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return outMin + t*(outMax-outMin)
}
