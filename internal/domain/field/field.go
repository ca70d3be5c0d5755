// Package field defines the normalized pitch coordinate frame.
//
// Every position, landmark and dominance region lives in a 0–100 × 0–100
// frame whatever the pitch's real aspect ratio. A Model carries the per-axis
// scale factors that map that frame to real units and back, plus the pitch
// markings derived from standard dimensions.
package field

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// Extent is the size of the normalized frame on both axes.
const Extent = 100.0

// Default pitch sizes in metres.
const (
	DefaultLength             = 105.0
	DefaultWidth              = 68.0
	DefaultPitchControlLength = 106.0
)

// Standard marking dimensions in metres.
const (
	penaltyBoxDepth    = 16.5
	goalWidth          = 7.32
	goalAreaDepth      = 5.4864
	centreCircleRadius = 9.15
	penaltySpotDist    = 11.0
	penaltyArcRadius   = 9.15
	cornerArcRadius    = 1.0
)

// arcSegments is how many chords approximate one marking arc.
const arcSegments = 32

// Rect is an axis-aligned rectangle in normalized coordinates.
type Rect struct {
	Min, Max orb.Point
}

// Width returns the rectangle extent along x.
func (r Rect) Width() float64 { return r.Max[0] - r.Min[0] }

// Height returns the rectangle extent along y.
func (r Rect) Height() float64 { return r.Max[1] - r.Min[1] }

// Ring returns the closed counter-clockwise ring of r.
func (r Rect) Ring() orb.Ring {
	return orb.Ring{
		{r.Min[0], r.Min[1]},
		{r.Max[0], r.Min[1]},
		{r.Max[0], r.Max[1]},
		{r.Min[0], r.Max[1]},
		{r.Min[0], r.Min[1]},
	}
}

// Ellipse is an axis-aligned ellipse in normalized coordinates. A circle on a
// real pitch becomes an ellipse once each axis is scaled independently.
type Ellipse struct {
	Center orb.Point
	RX, RY float64
}

// Bound returns the bounding rectangle of e.
func (e Ellipse) Bound() Rect {
	return Rect{
		Min: orb.Point{e.Center[0] - e.RX, e.Center[1] - e.RY},
		Max: orb.Point{e.Center[0] + e.RX, e.Center[1] + e.RY},
	}
}

// Segment is a straight pitch line.
type Segment struct {
	A, B orb.Point
}

// Landmarks holds the pitch markings. Left and right follow the x axis.
type Landmarks struct {
	Boundary     Rect
	HalfwayLine  Segment
	CentreCircle Ellipse
	CentreSpot   orb.Point

	LeftPenaltyBox, RightPenaltyBox   Rect
	LeftGoalArea, RightGoalArea       Rect
	LeftPenaltySpot, RightPenaltySpot orb.Point

	// Goal mouths are zero-depth rectangles on the goal lines.
	LeftGoalMouth, RightGoalMouth Rect

	// Penalty arcs are the part of the circle about each penalty spot
	// outside its box. They are nil when the circle fits inside the box.
	LeftPenaltyArc, RightPenaltyArc []orb.Point
	// CornerArcs start at (0,0) and go anticlockwise round the pitch.
	CornerArcs [4][]orb.Point
}

// Model is immutable after New and safe to share across goroutines.
type Model struct {
	length, width float64
	sx, sy        float64
	landmarks     Landmarks
}

// New builds the field model for a pitch of the given real length and width.
// Non-positive or non-finite dimensions fail with ErrConfiguration.
func New(length, width float64) (*Model, error) {
	if !(length > 0) || math.IsInf(length, 0) {
		return nil, fmt.Errorf("%w: length must be positive, got %v", ErrConfiguration, length)
	}
	if !(width > 0) || math.IsInf(width, 0) {
		return nil, fmt.Errorf("%w: width must be positive, got %v", ErrConfiguration, width)
	}
	m := &Model{
		length: length,
		width:  width,
		sx:     length / Extent,
		sy:     width / Extent,
	}
	m.landmarks = m.buildLandmarks()
	return m, nil
}

// MustNew is New for constant dimensions known to be valid.
func MustNew(length, width float64) *Model {
	m, err := New(length, width)
	if err != nil {
		panic(err)
	}
	return m
}

// Length returns the real pitch length.
func (m *Model) Length() float64 { return m.length }

// Width returns the real pitch width.
func (m *Model) Width() float64 { return m.width }

// Scale returns (sx, sy): real units per normalized unit on each axis.
func (m *Model) Scale() (sx, sy float64) { return m.sx, m.sy }

// ToReal maps a normalized point to real units measured from the pitch corner.
func (m *Model) ToReal(p orb.Point) orb.Point {
	return orb.Point{p[0] * m.sx, p[1] * m.sy}
}

// ToNormalized is the inverse of ToReal.
func (m *Model) ToNormalized(p orb.Point) orb.Point {
	return orb.Point{p[0] / m.sx, p[1] / m.sy}
}

// FromCentered maps real units measured from the centre spot (the frame used
// by control-probability models) to normalized coordinates.
func (m *Model) FromCentered(p orb.Point) orb.Point {
	return orb.Point{(p[0] + m.length/2) / m.sx, (p[1] + m.width/2) / m.sy}
}

// XLen converts a real distance along x into normalized units.
func (m *Model) XLen(d float64) float64 { return d / m.sx }

// YLen converts a real distance along y into normalized units.
func (m *Model) YLen(d float64) float64 { return d / m.sy }

// Boundary returns the normalized pitch rectangle.
func (m *Model) Boundary() Rect { return m.landmarks.Boundary }

// RealBoundary returns the pitch rectangle in real units.
func (m *Model) RealBoundary() orb.Bound {
	return orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{m.length, m.width}}
}

// Landmarks returns the pitch markings.
func (m *Model) Landmarks() Landmarks { return m.landmarks }

func (m *Model) buildLandmarks() Landmarks {
	const mid = Extent / 2

	// Markings are clamped so pitches smaller than the standard markings
	// still keep every landmark inside the frame.
	boxDepth := clamp(m.XLen(penaltyBoxDepth), mid)
	boxSpan := clamp(m.YLen(2*penaltyBoxDepth+goalWidth), Extent)
	areaDepth := clamp(m.XLen(goalAreaDepth), mid)
	areaSpan := clamp(m.YLen(2*goalAreaDepth+goalWidth), Extent)
	goal := clamp(m.YLen(goalWidth), Extent)
	spot := clamp(m.XLen(penaltySpotDist), mid)

	cornerRX, cornerRY := m.XLen(cornerArcRadius), m.YLen(cornerArcRadius)
	corner := func(x, y, from float64) []orb.Point {
		return arc(Ellipse{Center: orb.Point{x, y}, RX: cornerRX, RY: cornerRY}, from, from+math.Pi/2)
	}

	band := func(x0, x1, span float64) Rect {
		return Rect{
			Min: orb.Point{x0, (Extent - span) / 2},
			Max: orb.Point{x1, (Extent + span) / 2},
		}
	}

	return Landmarks{
		Boundary:     Rect{Min: orb.Point{0, 0}, Max: orb.Point{Extent, Extent}},
		HalfwayLine:  Segment{A: orb.Point{mid, 0}, B: orb.Point{mid, Extent}},
		CentreCircle: Ellipse{Center: orb.Point{mid, mid}, RX: clamp(m.XLen(centreCircleRadius), mid), RY: clamp(m.YLen(centreCircleRadius), mid)},
		CentreSpot:   orb.Point{mid, mid},

		LeftPenaltyBox:  band(0, boxDepth, boxSpan),
		RightPenaltyBox: band(Extent-boxDepth, Extent, boxSpan),
		LeftGoalArea:    band(0, areaDepth, areaSpan),
		RightGoalArea:   band(Extent-areaDepth, Extent, areaSpan),

		LeftPenaltySpot:  orb.Point{spot, mid},
		RightPenaltySpot: orb.Point{Extent - spot, mid},

		LeftGoalMouth:  band(0, 0, goal),
		RightGoalMouth: band(Extent, Extent, goal),

		LeftPenaltyArc:  m.penaltyArc(orb.Point{spot, mid}, (boxDepth-spot)*m.sx, 0),
		RightPenaltyArc: m.penaltyArc(orb.Point{Extent - spot, mid}, (boxDepth-spot)*m.sx, math.Pi),
		CornerArcs: [4][]orb.Point{
			corner(0, 0, 0),
			corner(Extent, 0, math.Pi/2),
			corner(Extent, Extent, math.Pi),
			corner(0, Extent, 3*math.Pi/2),
		},
	}
}

// penaltyArc returns the arc about spot that lies beyond the box edge, gap
// real units from the spot. facing is the direction of the arc's middle.
func (m *Model) penaltyArc(spot orb.Point, gap, facing float64) []orb.Point {
	if gap >= penaltyArcRadius {
		return nil
	}
	half := math.Acos(math.Max(gap, 0) / penaltyArcRadius)
	e := Ellipse{Center: spot, RX: m.XLen(penaltyArcRadius), RY: m.YLen(penaltyArcRadius)}
	return arc(e, facing-half, facing+half)
}

// arc samples e from angle a0 to a1, clamping points to the frame.
func arc(e Ellipse, a0, a1 float64) []orb.Point {
	pts := make([]orb.Point, arcSegments+1)
	for i := range pts {
		a := a0 + (a1-a0)*float64(i)/arcSegments
		pts[i] = orb.Point{
			math.Max(0, clamp(e.Center[0]+e.RX*math.Cos(a), Extent)),
			math.Max(0, clamp(e.Center[1]+e.RY*math.Sin(a), Extent)),
		}
	}
	return pts
}

func clamp(v, limit float64) float64 {
	return math.Min(v, limit)
}
