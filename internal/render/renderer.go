// Package render composes pitch frames onto a Surface.
//
// A render is planned as a list of draw operations tagged with a depth and
// then executed in depth order, so the stacking rules (ball above players,
// attackers above defenders, overlays beneath markers) hold regardless of
// the order entities are visited in.
package render

import (
	"fmt"
	"image/color"
	"math"
	"sort"

	"github.com/okian/pitchmap/internal/domain/field"
	"github.com/okian/pitchmap/internal/domain/model"
	"github.com/paulmach/orb"
)

// Draw depths. Higher values are painted later.
const (
	zBackground    = 0
	zOverlay       = 1
	zPitchLines    = 2
	zRegions       = 3
	zRegionDots    = 4
	zArrows        = 10
	zDefense       = 20
	zAttack        = 21
	zLabels        = 22
	zBall          = 100
	zTimestamp     = 200
	zHighlightBump = 0.5
)

// Marker geometry in real units, converted per axis.
const (
	playerMarkerSize = 3.0
	ballMarkerSize   = 1.2
	regionDotSize    = 1.5

	markerAlpha = 0.8
	regionAlpha = 0.30
	dotAlpha    = 0.2
	labelAlpha  = 0.8

	playerEdgeWidth = 2.0
	ballEdgeWidth   = 0.9

	vectorScale    = 20.0
	arrowHeadWidth = 1.0
	arrowShaft     = 1.5
)

type op struct {
	z    float64
	draw func(Surface)
}

// Options are per-render switches.
type Options struct {
	Vectors   bool
	Numbers   bool
	Dominance bool
	Time      bool
	// HidePlayers draws the pitch and overlays only.
	HidePlayers bool
	// Highlight, when set, paints that player in the highlight colour.
	Highlight *int
}

// Scene is everything one render draws.
type Scene struct {
	Frame model.Frame
	// Regions are dominance regions in normalized coordinates, drawn when
	// Options.Dominance is set.
	Regions map[int]orb.Polygon
	// Grid is an optional probability surface drawn beneath the markers.
	Grid *model.ProbabilityGrid
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithStyle sets the pitch style.
func WithStyle(s PitchStyle) Option {
	return func(r *Renderer) { r.style = s }
}

// WithTextColor sets the jersey and timestamp text colour.
func WithTextColor(c color.NRGBA) Option {
	return func(r *Renderer) { r.text = c }
}

// WithHighlightColor sets the colour used for a highlighted player.
func WithHighlightColor(c color.NRGBA) Option {
	return func(r *Renderer) { r.highlight = c }
}

// WithOverlayAlpha sets the probability surface opacity.
func WithOverlayAlpha(a float64) Option {
	return func(r *Renderer) { r.overlayAlpha = a }
}

// Renderer draws frames for one field. It is immutable and safe for
// concurrent use with distinct surfaces.
type Renderer struct {
	field        *field.Model
	style        PitchStyle
	text         color.NRGBA
	highlight    color.NRGBA
	overlayAlpha float64
}

// NewRenderer returns a Renderer with the classic style.
func NewRenderer(f *field.Model, opts ...Option) *Renderer {
	classic, _ := ParseStyle(StyleClassic)
	r := &Renderer{
		field:        f,
		style:        classic,
		text:         MustParseColor("white"),
		highlight:    MustParseColor("yellow"),
		overlayAlpha: defaultOverlayAlpha,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Field returns the renderer's field model.
func (r *Renderer) Field() *field.Model { return r.field }

// Viewport returns the window the renderer's style shows.
func (r *Renderer) Viewport() Viewport { return r.style.Viewport(r.field) }

// Render paints the scene onto s.
func (r *Renderer) Render(s Surface, sc Scene, o Options) error {
	ops, err := r.plan(sc, o)
	if err != nil {
		return err
	}
	for _, d := range ops {
		d.draw(s)
	}
	return nil
}

func (r *Renderer) plan(sc Scene, o Options) ([]op, error) {
	ops := pitchOps(r.field, r.style)

	if sc.Grid != nil {
		gop, err := overlayOp(r.field, *sc.Grid, r.overlayAlpha)
		if err != nil {
			return nil, err
		}
		ops = append(ops, gop)
	}

	if o.Dominance {
		ops = append(ops, r.regionOps(sc)...)
	}

	if !o.HidePlayers {
		for _, id := range sc.Frame.IDs() {
			ops = append(ops, r.entityOps(sc.Frame.Entities[id], o)...)
		}
	}

	if o.Time {
		label := fmt.Sprintf("t = %.2f s", sc.Frame.Timestamp)
		at := orb.Point{field.Extent / 2, field.Extent + 2.5}
		text, outline := r.text, Contrast(r.text)
		ops = append(ops, op{z: zTimestamp, draw: func(s Surface) { s.Text(at, label, text, outline) }})
	}

	sort.SliceStable(ops, func(i, j int) bool { return ops[i].z < ops[j].z })
	return ops, nil
}

func (r *Renderer) regionOps(sc Scene) []op {
	ids := make([]int, 0, len(sc.Regions))
	for id := range sc.Regions {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	var ops []op
	for _, id := range ids {
		e, ok := sc.Frame.Entity(id)
		if !ok || e.IsBall() {
			continue
		}
		c := r.fillColor(e)
		fill := WithAlpha(c, regionAlpha)
		for _, ring := range sc.Regions[id] {
			ops = append(ops, op{z: zRegions, draw: func(s Surface) { s.FillPolygon(ring, fill) }})
		}
		dot := field.Ellipse{
			Center: e.Position,
			RX:     r.field.XLen(regionDotSize) / 2,
			RY:     r.field.YLen(regionDotSize) / 2,
		}
		dc := WithAlpha(c, dotAlpha)
		ops = append(ops, op{z: zRegionDots, draw: func(s Surface) { s.FillEllipse(dot, dc) }})
	}
	return ops
}

func (r *Renderer) entityOps(e model.Entity, o Options) []op {
	var (
		size, lw   float64
		fill, edge color.NRGBA
		z          float64
	)
	if e.IsBall() {
		size = ballMarkerSize + e.Height()
		lw = ballEdgeWidth
		fill, edge = MustParseColor("black"), MustParseColor("white")
		z = zBall
	} else {
		size = playerMarkerSize
		lw = playerEdgeWidth
		fill = r.fillColor(e)
		edge = colorOr(e.Style.Edge, MustParseColor("white"))
		z = zDefense
		if e.Team() == model.TeamAttack {
			z = zAttack
		}
		if o.Highlight != nil && *o.Highlight == e.ID {
			fill = r.highlight
			z += zHighlightBump
		}
	}

	marker := field.Ellipse{
		Center: e.Position,
		RX:     r.field.XLen(size) / 2,
		RY:     r.field.YLen(size) / 2,
	}
	mf, me := WithAlpha(fill, markerAlpha), WithAlpha(edge, markerAlpha)
	ops := []op{{z: z, draw: func(s Surface) {
		s.FillEllipse(marker, mf)
		s.StrokeEllipse(marker, me, lw)
	}}}

	if o.Vectors && e.Velocity != nil {
		arrowColor := fill
		if e.IsBall() {
			arrowColor = MustParseColor("white")
		}
		if head, shaft, ok := arrow(e.Position, *e.Velocity); ok {
			ops = append(ops, op{z: zArrows, draw: func(s Surface) {
				s.StrokePath(shaft, arrowColor, arrowShaft)
				s.FillPolygon(head, arrowColor)
			}})
		}
	}

	if o.Numbers && !e.IsBall() {
		if label := e.JerseyNumber(); label != "" {
			at := e.Position
			tc := WithAlpha(r.text, labelAlpha)
			oc := WithAlpha(Contrast(r.text), labelAlpha)
			ops = append(ops, op{z: zLabels, draw: func(s Surface) { s.Text(at, label, tc, oc) }})
		}
	}
	return ops
}

func (r *Renderer) fillColor(e model.Entity) color.NRGBA {
	fallback := MustParseColor("blue")
	if e.Team() == model.TeamAttack {
		fallback = MustParseColor("red")
	}
	return colorOr(e.Style.Fill, fallback)
}

// arrow returns the head triangle and shaft of a velocity arrow scaled by
// vectorScale. The head is a quarter of the arrow and is included in its
// length. Zero vectors have no arrow.
func arrow(from orb.Point, v model.Vector) (head orb.Ring, shaft []orb.Point, ok bool) {
	dx, dy := v.DX*vectorScale, v.DY*vectorScale
	length := math.Hypot(dx, dy)
	if length == 0 || math.IsNaN(length) || math.IsInf(length, 0) {
		return nil, nil, false
	}
	ux, uy := dx/length, dy/length
	headLen := length / 4
	tip := orb.Point{from[0] + dx, from[1] + dy}
	base := orb.Point{tip[0] - ux*headLen, tip[1] - uy*headLen}
	hw := arrowHeadWidth / 2
	head = orb.Ring{
		tip,
		{base[0] - uy*hw, base[1] + ux*hw},
		{base[0] + uy*hw, base[1] - ux*hw},
		tip,
	}
	return head, []orb.Point{from, base}, true
}
