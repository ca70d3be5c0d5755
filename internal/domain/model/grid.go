package model

import (
	"fmt"
	"math"
)

// AxisSpace names the coordinate frame of a ProbabilityGrid's axes.
type AxisSpace string

// Axis spaces.
const (
	// SpaceNormalized axes are already in 0–100 pitch coordinates.
	SpaceNormalized AxisSpace = "normalized"
	// SpaceCentered axes are real units measured from the centre spot.
	SpaceCentered AxisSpace = "centered"
)

// ProbabilityGrid is a control-probability surface produced elsewhere.
// Values[r][c] is the value at (X[c], Y[r]). Values are expected in [0,1];
// that is the producer's contract and is not checked here.
type ProbabilityGrid struct {
	Values [][]float64 `json:"values"`
	X      []float64   `json:"x"`
	Y      []float64   `json:"y"`
	Space  AxisSpace   `json:"space,omitempty"`
}

// Validate checks the grid shape and axis monotonicity.
func (g ProbabilityGrid) Validate() error {
	if len(g.X) == 0 || len(g.Y) == 0 {
		return fmt.Errorf("%w: empty axis", ErrInvalidGrid)
	}
	if len(g.Values) != len(g.Y) {
		return fmt.Errorf("%w: %d rows for %d y coordinates", ErrInvalidGrid, len(g.Values), len(g.Y))
	}
	for i, row := range g.Values {
		if len(row) != len(g.X) {
			return fmt.Errorf("%w: row %d has %d values for %d x coordinates", ErrInvalidGrid, i, len(row), len(g.X))
		}
	}
	if !monotonic(g.X) {
		return fmt.Errorf("%w: x axis is not strictly monotonic", ErrInvalidGrid)
	}
	if !monotonic(g.Y) {
		return fmt.Errorf("%w: y axis is not strictly monotonic", ErrInvalidGrid)
	}
	switch g.Space {
	case "", SpaceNormalized, SpaceCentered:
	default:
		return fmt.Errorf("%w: unknown axis space %q", ErrInvalidGrid, g.Space)
	}
	return nil
}

// Size returns the number of rows and columns.
func (g ProbabilityGrid) Size() (rows, cols int) { return len(g.Y), len(g.X) }

// Extent returns the axis bounds in the grid's own space.
func (g ProbabilityGrid) Extent() (xmin, xmax, ymin, ymax float64) {
	xmin, xmax = bounds(g.X)
	ymin, ymax = bounds(g.Y)
	return
}

// XDescending reports whether the x axis runs from high to low.
func (g ProbabilityGrid) XDescending() bool { return len(g.X) > 1 && g.X[0] > g.X[len(g.X)-1] }

// YDescending reports whether the y axis runs from high to low.
func (g ProbabilityGrid) YDescending() bool { return len(g.Y) > 1 && g.Y[0] > g.Y[len(g.Y)-1] }

func monotonic(v []float64) bool {
	if len(v) < 2 {
		return len(v) == 1 && !math.IsNaN(v[0])
	}
	up := v[1] > v[0]
	for i := 1; i < len(v); i++ {
		if up && !(v[i] > v[i-1]) || !up && !(v[i] < v[i-1]) {
			return false
		}
	}
	return true
}

func bounds(v []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, x := range v {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	return lo, hi
}
