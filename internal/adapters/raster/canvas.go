// Package raster implements render.Surface on an in-memory RGBA image.
package raster

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"github.com/okian/pitchmap/internal/domain/field"
	"github.com/okian/pitchmap/internal/render"
	"github.com/paulmach/orb"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// Default canvas size: 12.8 x 7.2 inches at 100 dpi.
const (
	DefaultWidth  = 1280
	DefaultHeight = 720
)

const ellipseSegments = 72

// Canvas is a raster drawing surface. It is not safe for concurrent use.
type Canvas struct {
	img  *image.RGBA
	vp   render.Viewport
	z    *vector.Rasterizer
	face font.Face
}

// New returns a transparent canvas showing vp.
func New(width, height int, vp render.Viewport) *Canvas {
	return &Canvas{
		img:  image.NewRGBA(image.Rect(0, 0, width, height)),
		vp:   vp,
		z:    vector.NewRasterizer(width, height),
		face: basicfont.Face7x13,
	}
}

// Image returns the backing image.
func (c *Canvas) Image() *image.RGBA { return c.img }

// EncodePNG writes the canvas as PNG.
func (c *Canvas) EncodePNG(w io.Writer) error {
	return png.Encode(w, c.img)
}

// Project maps a normalized point to pixel coordinates.
func (c *Canvas) Project(p orb.Point) (float32, float32) {
	b := c.img.Bounds()
	x := (p[0] - c.vp.Min[0]) / c.vp.Width() * float64(b.Dx())
	y := (c.vp.Max[1] - p[1]) / c.vp.Height() * float64(b.Dy())
	return float32(x), float32(y)
}

// Clear implements render.Surface.
func (c *Canvas) Clear(col color.Color) {
	draw.Draw(c.img, c.img.Bounds(), image.NewUniform(col), image.Point{}, draw.Src)
}

// FillPolygon implements render.Surface.
func (c *Canvas) FillPolygon(ring orb.Ring, col color.Color) {
	if len(ring) < 3 {
		return
	}
	c.reset()
	c.subpath(c.projectAll(ring), false)
	c.paint(col)
}

// StrokePath implements render.Surface.
func (c *Canvas) StrokePath(path []orb.Point, col color.Color, width float64) {
	if len(path) < 2 {
		return
	}
	c.reset()
	pts := c.projectAll(path)
	hw := float32(math.Max(width, 1)) / 2
	for i := 1; i < len(pts); i++ {
		c.segment(pts[i-1], pts[i], hw)
	}
	c.paint(col)
}

// FillEllipse implements render.Surface.
func (c *Canvas) FillEllipse(e field.Ellipse, col color.Color) {
	c.reset()
	c.subpath(c.ellipse(e, 0), false)
	c.paint(col)
}

// StrokeEllipse implements render.Surface.
func (c *Canvas) StrokeEllipse(e field.Ellipse, col color.Color, width float64) {
	hw := float32(math.Max(width, 1)) / 2
	c.reset()
	c.subpath(c.ellipse(e, hw), false)
	c.subpath(c.ellipse(e, -hw), true)
	c.paint(col)
}

// Text implements render.Surface.
func (c *Canvas) Text(at orb.Point, s string, col, outline color.Color) {
	if s == "" {
		return
	}
	x, y := c.Project(at)
	m := c.face.Metrics()
	width := font.MeasureString(c.face, s)
	dot := fixed.Point26_6{
		X: fixed.I(int(x)) - width/2,
		Y: fixed.I(int(y)) + (m.Ascent-m.Descent)/2,
	}
	d := &font.Drawer{Dst: c.img, Face: c.face}
	if outline != nil {
		d.Src = image.NewUniform(outline)
		for dx := -1; dx <= 1; dx++ {
			for dy := -1; dy <= 1; dy++ {
				if dx == 0 && dy == 0 {
					continue
				}
				d.Dot = fixed.Point26_6{X: dot.X + fixed.I(dx), Y: dot.Y + fixed.I(dy)}
				d.DrawString(s)
			}
		}
	}
	d.Src = image.NewUniform(col)
	d.Dot = dot
	d.DrawString(s)
}

// DrawImage implements render.Surface. The image is smoothed bilinearly.
func (c *Canvas) DrawImage(src image.Image, b orb.Bound, alpha float64) {
	x0, y0 := c.Project(orb.Point{b.Min[0], b.Max[1]})
	x1, y1 := c.Project(orb.Point{b.Max[0], b.Min[1]})
	dr := image.Rect(int(math.Round(float64(x0))), int(math.Round(float64(y0))), int(math.Round(float64(x1))), int(math.Round(float64(y1))))
	if dr.Empty() {
		return
	}
	scaled := image.NewRGBA(image.Rect(0, 0, dr.Dx(), dr.Dy()))
	draw.BiLinear.Scale(scaled, scaled.Bounds(), src, src.Bounds(), draw.Src, nil)

	a := uint8(math.Round(math.Max(0, math.Min(1, alpha)) * 255))
	mask := image.NewUniform(color.Alpha{A: a})
	draw.DrawMask(c.img, dr, scaled, image.Point{}, mask, image.Point{}, draw.Over)
}

func (c *Canvas) reset() {
	b := c.img.Bounds()
	c.z.Reset(b.Dx(), b.Dy())
}

func (c *Canvas) paint(col color.Color) {
	c.z.Draw(c.img, c.img.Bounds(), image.NewUniform(col), image.Point{})
}

type pt struct{ x, y float32 }

func (c *Canvas) projectAll(ps []orb.Point) []pt {
	out := make([]pt, len(ps))
	for i, p := range ps {
		out[i].x, out[i].y = c.Project(p)
	}
	return out
}

func (c *Canvas) subpath(ps []pt, reverse bool) {
	if len(ps) == 0 {
		return
	}
	if reverse {
		rev := make([]pt, len(ps))
		for i := range ps {
			rev[i] = ps[len(ps)-1-i]
		}
		ps = rev
	}
	c.z.MoveTo(ps[0].x, ps[0].y)
	for _, p := range ps[1:] {
		c.z.LineTo(p.x, p.y)
	}
	c.z.ClosePath()
}

// segment adds a rectangle around a-b, extended by hw at each end so joins
// are covered.
func (c *Canvas) segment(a, b pt, hw float32) {
	dx, dy := b.x-a.x, b.y-a.y
	l := float32(math.Hypot(float64(dx), float64(dy)))
	if l == 0 {
		return
	}
	ux, uy := dx/l*hw, dy/l*hw
	a = pt{a.x - ux, a.y - uy}
	b = pt{b.x + ux, b.y + uy}
	c.subpath([]pt{
		{a.x - uy, a.y + ux},
		{b.x - uy, b.y + ux},
		{b.x + uy, b.y - ux},
		{a.x + uy, a.y - ux},
	}, false)
}

// ellipse returns the device-space outline of e grown by grow pixels.
func (c *Canvas) ellipse(e field.Ellipse, grow float32) []pt {
	cx, cy := c.Project(e.Center)
	ex, _ := c.Project(orb.Point{e.Center[0] + e.RX, e.Center[1]})
	_, ey := c.Project(orb.Point{e.Center[0], e.Center[1] - e.RY})
	rx := float64(ex-cx) + float64(grow)
	ry := float64(ey-cy) + float64(grow)
	if rx <= 0 || ry <= 0 {
		return nil
	}
	out := make([]pt, ellipseSegments)
	for i := range out {
		a := 2 * math.Pi * float64(i) / ellipseSegments
		out[i] = pt{cx + float32(rx*math.Cos(a)), cy + float32(ry*math.Sin(a))}
	}
	return out
}
