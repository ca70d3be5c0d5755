package render

import (
	"image"
	"image/color"
	"math"
)

// BWR maps v in [0,1] onto a blue-white-red ramp. Out-of-range values are
// clamped.
func BWR(v float64) color.NRGBA {
	if math.IsNaN(v) {
		return color.NRGBA{}
	}
	v = math.Max(0, math.Min(1, v))
	if v < 0.5 {
		t := v * 2
		g := uint8(255*t + 0.5)
		return color.NRGBA{R: g, G: g, B: 255, A: 255}
	}
	t := (v - 0.5) * 2
	g := uint8(255*(1-t) + 0.5)
	return color.NRGBA{R: 255, G: g, B: g, A: 255}
}

// heatImage lays the grid out as an image whose top row is the largest y and
// whose left column is the smallest x, whatever the axis directions.
func heatImage(values [][]float64, xDesc, yDesc bool) *image.NRGBA {
	rows := len(values)
	cols := 0
	if rows > 0 {
		cols = len(values[0])
	}
	img := image.NewNRGBA(image.Rect(0, 0, cols, rows))
	for py := 0; py < rows; py++ {
		r := rows - 1 - py
		if yDesc {
			r = py
		}
		for px := 0; px < cols; px++ {
			c := px
			if xDesc {
				c = cols - 1 - px
			}
			img.SetNRGBA(px, py, BWR(values[r][c]))
		}
	}
	return img
}
