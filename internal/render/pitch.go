package render

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/okian/pitchmap/internal/domain/field"
	"github.com/paulmach/orb"
)

// Pitch style names.
const (
	StyleClassic = "classic"
	StyleGreen   = "green"
	StyleWhite   = "white"
)

// pitchBorder is the real-unit margin drawn around the pitch by the
// bordered styles.
const pitchBorder = 3.0

// netDepth is how far behind each goal line the net is drawn, in normalized
// units.
const netDepth = 1.0

const spotRadius = 0.3

// postSize is the side of a goal-post marker in real units.
const postSize = 0.6

// PitchStyle controls how the base pitch is painted.
type PitchStyle struct {
	Name       string
	Background color.NRGBA
	Lines      color.NRGBA
	LineWidth  float64
	// Bordered styles use a fixed real-unit border instead of the classic
	// viewport.
	Bordered bool
}

// ParseStyle returns the named pitch style.
func ParseStyle(name string) (PitchStyle, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", StyleClassic:
		return PitchStyle{Name: StyleClassic, Background: MustParseColor("#a8bc95"), Lines: MustParseColor("white"), LineWidth: 1}, nil
	case StyleGreen:
		return PitchStyle{Name: StyleGreen, Background: MustParseColor("mediumseagreen"), Lines: MustParseColor("whitesmoke"), LineWidth: 2, Bordered: true}, nil
	case StyleWhite:
		return PitchStyle{Name: StyleWhite, Background: MustParseColor("white"), Lines: MustParseColor("k"), LineWidth: 2, Bordered: true}, nil
	default:
		return PitchStyle{}, fmt.Errorf("%w: %q", ErrUnknownStyle, name)
	}
}

// Viewport returns the window this style shows for the given field.
func (s PitchStyle) Viewport(f *field.Model) Viewport {
	if s.Bordered {
		return BorderViewport(f, pitchBorder)
	}
	return ClassicViewport
}

func closedRect(r field.Rect) []orb.Point {
	return []orb.Point(r.Ring())
}

// pitchOps paints the background then the markings. Bordered styles mark
// the goals with posts and add the penalty and corner arcs; the classic
// style draws nets.
func pitchOps(f *field.Model, st PitchStyle) []op {
	lm := f.Landmarks()
	lc, w := st.Lines, st.LineWidth

	ops := []op{{z: zBackground, draw: func(s Surface) { s.Clear(st.Background) }}}
	line := func(path []orb.Point) {
		if len(path) < 2 {
			return
		}
		ops = append(ops, op{z: zPitchLines, draw: func(s Surface) { s.StrokePath(path, lc, w) }})
	}
	post := func(p orb.Point) {
		hx, hy := f.XLen(postSize)/2, f.YLen(postSize)/2
		sq := field.Rect{Min: orb.Point{p[0] - hx, p[1] - hy}, Max: orb.Point{p[0] + hx, p[1] + hy}}.Ring()
		ops = append(ops, op{z: zPitchLines, draw: func(s Surface) { s.FillPolygon(sq, lc) }})
	}
	spot := func(p orb.Point) {
		e := field.Ellipse{Center: p, RX: f.XLen(spotRadius), RY: f.YLen(spotRadius)}
		ops = append(ops, op{z: zPitchLines, draw: func(s Surface) { s.FillEllipse(e, lc) }})
	}

	line(closedRect(lm.Boundary))
	line([]orb.Point{lm.HalfwayLine.A, lm.HalfwayLine.B})
	line(closedRect(lm.LeftPenaltyBox))
	line(closedRect(lm.RightPenaltyBox))
	line(closedRect(lm.LeftGoalArea))
	line(closedRect(lm.RightGoalArea))

	if st.Bordered {
		line(lm.LeftPenaltyArc)
		line(lm.RightPenaltyArc)
		for _, c := range lm.CornerArcs {
			line(c)
		}
		for _, g := range []field.Rect{lm.LeftGoalMouth, lm.RightGoalMouth} {
			post(orb.Point{g.Min[0], g.Min[1]})
			post(orb.Point{g.Max[0], g.Max[1]})
		}
	} else {
		left, right := lm.LeftGoalMouth, lm.RightGoalMouth
		left.Min[0] -= netDepth
		right.Max[0] += netDepth
		line(closedRect(left))
		line(closedRect(right))
	}

	circle := lm.CentreCircle
	ops = append(ops, op{z: zPitchLines, draw: func(s Surface) { s.StrokeEllipse(circle, lc, w) }})
	spot(lm.CentreSpot)
	spot(lm.LeftPenaltySpot)
	spot(lm.RightPenaltySpot)
	return ops
}
