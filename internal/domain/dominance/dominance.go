// Package dominance partitions the pitch into per-player dominance regions.
//
// Player positions are scaled into real distances, four far-field anchors are
// appended so that every real cell is bounded, and a Voronoi diagram is
// computed over the lot. Cells owned by real players are clipped to the pitch
// in real units and rescaled back to the normalized frame.
package dominance

import (
	"math"
	"sort"

	"github.com/okian/pitchmap/internal/domain/field"
	"github.com/okian/pitchmap/internal/domain/model"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/clip"
	"github.com/paulmach/orb/planar"
	"github.com/pzsz/voronoi"
)

// DropReason explains why a player or cell produced no region.
type DropReason string

// Drop reasons.
const (
	DropAnchor          DropReason = "anchor"
	DropUnbounded       DropReason = "unbounded"
	DropTooFewVertices  DropReason = "too_few_vertices"
	DropEmptyClip       DropReason = "empty_clip"
	DropCoincident      DropReason = "coincident"
	DropInvalidPosition DropReason = "invalid_position"
	// DropDegenerateDiagram counts players of a frame the tessellation
	// could not be computed for.
	DropDegenerateDiagram DropReason = "degenerate_diagram"
)

const (
	anchorCount = 4

	// minAnchorReach mirrors the usual ±1000 m anchors; larger pitches push
	// the anchors further out.
	minAnchorReach   = 1000.0
	anchorPitchRatio = 10.0
	// Anchors must not share an x or a y coordinate: ties between sweep
	// events break the tessellation. Corner k sits reach+k*anchorStaggerX
	// out along x and reach+(3-k)*anchorStaggerY along y.
	anchorStaggerX = 1.0
	anchorStaggerY = 0.5
	// boxRatio sizes the diagram's bounding box relative to the anchor reach.
	boxRatio = 100.0

	minRegionArea = 1e-9
)

// Result is the outcome of one Build call.
type Result struct {
	// Regions maps player id to its clipped region in normalized coordinates.
	// A missing id means the player has no visible region.
	Regions map[int]orb.Polygon
	// Dropped counts cells and players that yielded no region, by reason.
	Dropped map[DropReason]int
}

// Area returns the normalized area of a player's region, or 0.
func (r Result) Area(id int) float64 {
	p, ok := r.Regions[id]
	if !ok {
		return 0
	}
	return math.Abs(planar.Area(p))
}

// TotalArea sums the area of every region.
func (r Result) TotalArea() float64 {
	var total float64
	for id := range r.Regions {
		total += r.Area(id)
	}
	return total
}

// Option configures a Builder.
type Option func(*Builder)

// WithAnchorReach sets the distance in real units from the pitch centre to
// each anchor along both axes.
func WithAnchorReach(reach float64) Option {
	return func(b *Builder) {
		if reach > 0 {
			b.reach = reach
		}
	}
}

// Builder computes dominance regions for one field. It holds no per-call
// state and is safe for concurrent use.
type Builder struct {
	field *field.Model
	reach float64
}

// NewBuilder returns a Builder for the given field.
func NewBuilder(f *field.Model, opts ...Option) *Builder {
	b := &Builder{
		field: f,
		reach: math.Max(minAnchorReach, anchorPitchRatio*math.Max(f.Length(), f.Width())),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build computes regions for the frame's players. The ball is ignored.
func (b *Builder) Build(f model.Frame) Result {
	return b.BuildPositions(positions(f))
}

// BuildPositions computes regions for an id → normalized position mapping.
// Ids are expected to be players only.
func (b *Builder) BuildPositions(players map[int]orb.Point) Result {
	res := Result{
		Regions: make(map[int]orb.Polygon, len(players)),
		Dropped: make(map[DropReason]int),
	}
	if len(players) == 0 {
		return res
	}

	sx, sy := b.field.Scale()

	// Real sites occupy indices [0, n); anchors occupy [n, n+anchorCount).
	sites := make([]voronoi.Vertex, 0, len(players)+anchorCount)
	owners := make([][]int, 0, len(players))
	index := make(map[voronoi.Vertex]int, len(players)+anchorCount)

	for _, id := range sortedIDs(players) {
		p := players[id]
		if !finite(p[0]) || !finite(p[1]) {
			res.Dropped[DropInvalidPosition]++
			continue
		}
		v := voronoi.Vertex{X: p[0] * sx, Y: p[1] * sy}
		if i, ok := index[v]; ok {
			owners[i] = append(owners[i], id)
			continue
		}
		index[v] = len(sites)
		sites = append(sites, v)
		owners = append(owners, []int{id})
	}
	n := len(sites)
	if n == 0 {
		return res
	}

	cx, cy := b.field.Length()/2, b.field.Width()/2
	for _, v := range b.anchors(cx, cy) {
		index[v] = len(sites)
		sites = append(sites, v)
	}

	box := b.reach * boxRatio
	bbox := voronoi.BBox{Xl: cx - box, Xr: cx + box, Yt: cy - box, Yb: cy + box}
	diagram, ok := computeDiagram(sites, bbox)
	if !ok {
		for _, ids := range owners {
			res.Dropped[DropDegenerateDiagram] += len(ids)
		}
		return res
	}

	pitch := b.field.RealBoundary()
	for _, cell := range diagram.Cells {
		i, ok := index[cell.Site]
		if !ok {
			continue
		}
		if i >= n {
			res.Dropped[DropAnchor]++
			continue
		}
		if len(owners[i]) > 1 {
			res.Dropped[DropCoincident] += len(owners[i])
			continue
		}
		id := owners[i][0]

		ring := cellRing(cell)
		if len(ring) < 3 {
			res.Dropped[DropTooFewVertices]++
			continue
		}
		if touchesBox(ring, bbox) {
			res.Dropped[DropUnbounded]++
			continue
		}

		poly, ok := clipToPitch(ring, pitch)
		if !ok {
			res.Dropped[DropEmptyClip]++
			continue
		}
		res.Regions[id] = b.normalize(poly)
	}
	return res
}

// anchors returns the far-field sites around (cx, cy), one per quadrant,
// with pairwise distinct x and y coordinates.
func (b *Builder) anchors(cx, cy float64) [anchorCount]voronoi.Vertex {
	var out [anchorCount]voronoi.Vertex
	for k, q := range [anchorCount][2]float64{{-1, -1}, {1, 1}, {1, -1}, {-1, 1}} {
		rx := b.reach + float64(k)*anchorStaggerX
		ry := b.reach + float64(anchorCount-1-k)*anchorStaggerY
		out[k] = voronoi.Vertex{X: cx + q[0]*rx, Y: cy + q[1]*ry}
	}
	return out
}

// computeDiagram runs the sweep and reports false if it failed on the
// input instead of returning a diagram.
func computeDiagram(sites []voronoi.Vertex, bbox voronoi.BBox) (d *voronoi.Diagram, ok bool) {
	defer func() {
		if recover() != nil {
			d, ok = nil, false
		}
	}()
	return voronoi.ComputeDiagram(sites, bbox, true), true
}

// cellRing returns the open ring of a cell's vertices in halfedge order.
func cellRing(cell *voronoi.Cell) orb.Ring {
	ring := make(orb.Ring, 0, len(cell.Halfedges)+1)
	for _, he := range cell.Halfedges {
		v := he.GetStartpoint()
		p := orb.Point{v.X, v.Y}
		if len(ring) > 0 && ring[len(ring)-1].Equal(p) {
			continue
		}
		ring = append(ring, p)
	}
	if len(ring) > 1 && ring[0].Equal(ring[len(ring)-1]) {
		ring = ring[:len(ring)-1]
	}
	return ring
}

func touchesBox(ring orb.Ring, bbox voronoi.BBox) bool {
	eps := 1e-9 * math.Max(math.Abs(bbox.Xr-bbox.Xl), math.Abs(bbox.Yb-bbox.Yt))
	on := func(a, b float64) bool { return math.Abs(a-b) <= eps }
	for _, p := range ring {
		if on(p[0], bbox.Xl) || on(p[0], bbox.Xr) || on(p[1], bbox.Yt) || on(p[1], bbox.Yb) {
			return true
		}
	}
	return false
}

// clipToPitch intersects an open cell ring with the pitch rectangle. Both are
// in real units.
func clipToPitch(ring orb.Ring, pitch orb.Bound) (orb.Polygon, bool) {
	closed := append(orb.Ring{}, ring...)
	closed = append(closed, ring[0])

	clipped := clip.Polygon(pitch, orb.Polygon{closed})
	if len(clipped) == 0 || len(clipped[0]) < 3 {
		return nil, false
	}
	if math.Abs(planar.Area(clipped)) <= minRegionArea {
		return nil, false
	}
	return clipped, true
}

func (b *Builder) normalize(p orb.Polygon) orb.Polygon {
	out := make(orb.Polygon, len(p))
	for i, r := range p {
		nr := make(orb.Ring, len(r))
		for j, pt := range r {
			nr[j] = b.field.ToNormalized(pt)
		}
		if len(nr) > 0 && !nr[0].Equal(nr[len(nr)-1]) {
			nr = append(nr, nr[0])
		}
		if nr.Orientation() == orb.CW {
			nr.Reverse()
		}
		out[i] = nr
	}
	return out
}

func positions(f model.Frame) map[int]orb.Point {
	out := make(map[int]orb.Point, len(f.Entities))
	for _, e := range f.Players() {
		out[e.ID] = e.Position
	}
	return out
}

func sortedIDs(m map[int]orb.Point) []int {
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
