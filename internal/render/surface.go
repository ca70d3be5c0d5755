package render

import (
	"image"
	"image/color"

	"github.com/okian/pitchmap/internal/domain/field"
	"github.com/paulmach/orb"
)

// Surface is a drawing backend. Every coordinate is in the normalized pitch
// frame with y pointing up; the backend owns the mapping to device space.
// Widths are in device pixels.
type Surface interface {
	// Clear paints the whole surface.
	Clear(c color.Color)
	FillPolygon(ring orb.Ring, c color.Color)
	// StrokePath draws a polyline; a path whose ends coincide is closed.
	StrokePath(path []orb.Point, c color.Color, width float64)
	FillEllipse(e field.Ellipse, c color.Color)
	StrokeEllipse(e field.Ellipse, c color.Color, width float64)
	// Text draws s centred on at, surrounded by a one-pixel outline.
	Text(at orb.Point, s string, c, outline color.Color)
	// DrawImage stretches img over the rectangle b with the given opacity.
	DrawImage(img image.Image, b orb.Bound, alpha float64)
}

// Viewport is the visible window of the normalized frame.
type Viewport struct {
	Min, Max orb.Point
}

// ClassicViewport leaves room around the pitch for the goals and labels.
var ClassicViewport = Viewport{
	Min: orb.Point{-13.32, -5},
	Max: orb.Point{113.32, 105},
}

// BorderViewport surrounds the pitch with a border of the given real width.
func BorderViewport(f *field.Model, border float64) Viewport {
	bx, by := f.XLen(border), f.YLen(border)
	return Viewport{
		Min: orb.Point{-bx, -by},
		Max: orb.Point{field.Extent + bx, field.Extent + by},
	}
}

// Width of the viewport in normalized units.
func (v Viewport) Width() float64 { return v.Max[0] - v.Min[0] }

// Height of the viewport in normalized units.
func (v Viewport) Height() float64 { return v.Max[1] - v.Min[1] }
