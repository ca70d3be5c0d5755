package render

import (
	"github.com/okian/pitchmap/internal/domain/field"
	"github.com/okian/pitchmap/internal/domain/model"
	"github.com/paulmach/orb"
)

const defaultOverlayAlpha = 0.5

// GridBound returns the normalized rectangle spanned by the grid's axes.
// Centred axes are measured in real units from the centre spot.
func GridBound(f *field.Model, g model.ProbabilityGrid) orb.Bound {
	xmin, xmax, ymin, ymax := g.Extent()
	lo, hi := orb.Point{xmin, ymin}, orb.Point{xmax, ymax}
	if g.Space == model.SpaceCentered {
		lo, hi = f.FromCentered(lo), f.FromCentered(hi)
	}
	return orb.Bound{Min: lo, Max: hi}
}

// Overlay composites a probability surface onto an already rendered
// surface. Values are expected in [0,1]; values outside are clamped by the
// colour map, not rejected. The grid is never modified.
func Overlay(s Surface, f *field.Model, g model.ProbabilityGrid, alpha float64) error {
	o, err := overlayOp(f, g, alpha)
	if err != nil {
		return err
	}
	o.draw(s)
	return nil
}

func overlayOp(f *field.Model, g model.ProbabilityGrid, alpha float64) (op, error) {
	if err := g.Validate(); err != nil {
		return op{}, err
	}
	img := heatImage(g.Values, g.XDescending(), g.YDescending())
	b := GridBound(f, g)
	return op{z: zOverlay, draw: func(s Surface) { s.DrawImage(img, b, alpha) }}, nil
}
