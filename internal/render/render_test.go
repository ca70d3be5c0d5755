package render_test

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/okian/pitchmap/internal/domain/field"
	"github.com/okian/pitchmap/internal/domain/model"
	"github.com/okian/pitchmap/internal/render"
	"github.com/paulmach/orb"
	. "github.com/smartystreets/goconvey/convey"
)

type call struct {
	kind    string
	ellipse field.Ellipse
	ring    orb.Ring
	path    []orb.Point
	color   color.NRGBA
	width   float64
	text    string
	img     image.Image
	bound   orb.Bound
	alpha   float64
}

type recorder struct{ calls []call }

func nrgba(c color.Color) color.NRGBA { return color.NRGBAModel.Convert(c).(color.NRGBA) }

func (r *recorder) Clear(c color.Color) { r.calls = append(r.calls, call{kind: "clear", color: nrgba(c)}) }
func (r *recorder) FillPolygon(ring orb.Ring, c color.Color) {
	r.calls = append(r.calls, call{kind: "polygon", ring: ring, color: nrgba(c)})
}
func (r *recorder) StrokePath(p []orb.Point, c color.Color, w float64) {
	r.calls = append(r.calls, call{kind: "path", path: p, color: nrgba(c), width: w})
}
func (r *recorder) FillEllipse(e field.Ellipse, c color.Color) {
	r.calls = append(r.calls, call{kind: "fill", ellipse: e, color: nrgba(c)})
}
func (r *recorder) StrokeEllipse(e field.Ellipse, c color.Color, w float64) {
	r.calls = append(r.calls, call{kind: "stroke", ellipse: e, color: nrgba(c), width: w})
}
func (r *recorder) Text(at orb.Point, s string, c, _ color.Color) {
	r.calls = append(r.calls, call{kind: "text", path: []orb.Point{at}, text: s, color: nrgba(c)})
}
func (r *recorder) DrawImage(img image.Image, b orb.Bound, a float64) {
	r.calls = append(r.calls, call{kind: "image", img: img, bound: b, alpha: a})
}

// markerAt returns the index of the first fill with the given centre and x radius.
func (r *recorder) markerAt(p orb.Point, radiusX float64) int {
	for i, c := range r.calls {
		if c.kind == "fill" && c.ellipse.Center == p && c.ellipse.RX == radiusX {
			return i
		}
	}
	return -1
}

func (r *recorder) count(kind string) int {
	n := 0
	for _, c := range r.calls {
		if c.kind == kind {
			n++
		}
	}
	return n
}

func (r *recorder) first(kind string) int {
	for i, c := range r.calls {
		if c.kind == kind {
			return i
		}
	}
	return -1
}

func scene(es ...model.Entity) render.Scene {
	f := model.Frame{Timestamp: 12.5, Entities: map[int]model.Entity{}}
	for _, e := range es {
		f.Entities[e.ID] = e
	}
	return render.Scene{Frame: f}
}

func TestRenderer(t *testing.T) {
	Convey("Given a renderer for a 105x68 field", t, func() {
		fm := field.MustNew(105, 68)
		r := render.NewRenderer(fm)
		playerRX := fm.XLen(3) / 2
		point := orb.Point{40, 40}

		Convey("When the ball, an attacker and a defender share a point", func() {
			ball := model.NewBall(point, nil, 0, model.Style{})
			att := model.NewPlayer(9, point, nil, model.Style{Fill: "red"}, model.TeamAttack, "9")
			def := model.NewPlayer(1, point, nil, model.Style{Fill: "blue"}, model.TeamDefense, "3")

			rec := &recorder{}
			So(r.Render(rec, scene(def, att, ball), render.Options{}), ShouldBeNil)

			Convey("Then the defender is drawn first and the ball last", func() {
				var order []color.NRGBA
				for _, c := range rec.calls {
					if c.kind == "fill" && c.ellipse.Center == point {
						order = append(order, c.color)
					}
				}
				So(len(order), ShouldEqual, 3)
				So(order[0], ShouldResemble, render.WithAlpha(render.MustParseColor("blue"), 0.8))
				So(order[1], ShouldResemble, render.WithAlpha(render.MustParseColor("red"), 0.8))
				So(order[2], ShouldResemble, render.WithAlpha(render.MustParseColor("black"), 0.8))
			})

			Convey("Then the pitch is painted before any marker", func() {
				So(rec.first("clear"), ShouldEqual, 0)
				So(rec.count("clear"), ShouldEqual, 1)
			})
		})

		Convey("When a defender is highlighted", func() {
			def := model.NewPlayer(4, point, nil, model.Style{Fill: "blue"}, model.TeamDefense, "")
			id := 4
			rec := &recorder{}
			So(r.Render(rec, scene(def), render.Options{Highlight: &id}), ShouldBeNil)

			Convey("Then it uses the highlight colour", func() {
				i := rec.markerAt(point, playerRX)
				So(i, ShouldBeGreaterThan, 0)
				So(rec.calls[i].color, ShouldResemble, render.WithAlpha(render.MustParseColor("yellow"), 0.8))
			})
		})

		Convey("When the ball is in the air", func() {
			rec := &recorder{}
			So(r.Render(rec, scene(model.NewBall(point, nil, 2, model.Style{})), render.Options{}), ShouldBeNil)

			Convey("Then its marker grows with its height", func() {
				So(rec.markerAt(point, fm.XLen(1.2+2)/2), ShouldBeGreaterThan, 0)
			})
		})

		Convey("When velocity arrows are requested", func() {
			moving := model.NewPlayer(2, orb.Point{10, 10}, &model.Vector{DX: 1, DY: 0}, model.Style{Fill: "red"}, model.TeamAttack, "")
			still := model.NewPlayer(3, orb.Point{20, 20}, &model.Vector{}, model.Style{Fill: "blue"}, model.TeamDefense, "")
			rec := &recorder{}
			So(r.Render(rec, scene(moving, still), render.Options{Vectors: true}), ShouldBeNil)

			Convey("Then only the moving player gets an arrow, beneath the markers", func() {
				So(rec.count("polygon"), ShouldEqual, 1)
				arrow := rec.first("polygon")
				head := rec.calls[arrow].ring
				So(head[0], ShouldResemble, orb.Point{30, 10})
				So(arrow, ShouldBeLessThan, rec.markerAt(orb.Point{10, 10}, playerRX))
				So(arrow, ShouldBeLessThan, rec.markerAt(orb.Point{20, 20}, playerRX))
			})
		})

		Convey("When jersey numbers and time are requested", func() {
			p := model.NewPlayer(7, point, nil, model.Style{}, model.TeamAttack, "10")
			rec := &recorder{}
			So(r.Render(rec, scene(p, model.NewBall(orb.Point{1, 1}, nil, 0, model.Style{})), render.Options{Numbers: true, Time: true}), ShouldBeNil)

			Convey("Then labels are drawn above the player", func() {
				var texts []string
				for _, c := range rec.calls {
					if c.kind == "text" {
						texts = append(texts, c.text)
					}
				}
				So(texts, ShouldResemble, []string{"10", "t = 12.50 s"})
			})
		})

		Convey("When dominance regions are supplied", func() {
			a := model.NewPlayer(1, orb.Point{25, 50}, nil, model.Style{Fill: "red"}, model.TeamAttack, "")
			b := model.NewPlayer(2, orb.Point{75, 50}, nil, model.Style{Fill: "blue"}, model.TeamDefense, "")
			sc := scene(a, b)
			sc.Regions = map[int]orb.Polygon{
				1: {field.Rect{Min: orb.Point{0, 0}, Max: orb.Point{50, 100}}.Ring()},
				2: {field.Rect{Min: orb.Point{50, 0}, Max: orb.Point{100, 100}}.Ring()},
			}

			Convey("And dominance is enabled", func() {
				rec := &recorder{}
				So(r.Render(rec, sc, render.Options{Dominance: true}), ShouldBeNil)

				Convey("Then each region is filled once beneath the markers", func() {
					So(rec.count("polygon"), ShouldEqual, 2)
					last := -1
					for i, c := range rec.calls {
						if c.kind == "polygon" {
							last = i
						}
					}
					So(last, ShouldBeLessThan, rec.markerAt(orb.Point{25, 50}, playerRX))
					So(rec.calls[rec.first("polygon")].color, ShouldResemble, render.WithAlpha(render.MustParseColor("red"), 0.3))
				})
			})

			Convey("And dominance is disabled", func() {
				rec := &recorder{}
				So(r.Render(rec, sc, render.Options{}), ShouldBeNil)
				So(rec.count("polygon"), ShouldEqual, 0)
			})
		})

		Convey("When players are hidden", func() {
			rec := &recorder{}
			p := model.NewPlayer(7, point, nil, model.Style{}, model.TeamAttack, "10")
			So(r.Render(rec, scene(p), render.Options{HidePlayers: true, Numbers: true}), ShouldBeNil)

			Convey("Then only the pitch is drawn", func() {
				So(rec.markerAt(point, playerRX), ShouldEqual, -1)
				So(rec.count("text"), ShouldEqual, 0)
			})
		})
	})
}

func TestOverlay(t *testing.T) {
	Convey("Given a 106x68 field and a centred probability grid", t, func() {
		fm := field.MustNew(106, 68)
		grid := model.ProbabilityGrid{
			Values: [][]float64{
				{0, 0.25},
				{0.75, 1},
			},
			X:     []float64{-53, 53},
			Y:     []float64{-34, 34},
			Space: model.SpaceCentered,
		}

		Convey("When compositing it onto a surface", func() {
			rec := &recorder{}
			So(render.Overlay(rec, fm, grid, 0.5), ShouldBeNil)

			Convey("Then it spans the whole pitch", func() {
				So(rec.count("image"), ShouldEqual, 1)
				c := rec.calls[0]
				So(c.alpha, ShouldEqual, 0.5)
				So(c.bound.Min[0], ShouldAlmostEqual, 0, 1e-9)
				So(c.bound.Max[0], ShouldAlmostEqual, 100, 1e-9)
				So(c.bound.Max[1], ShouldAlmostEqual, 100, 1e-9)
			})

			Convey("Then the top image row holds the largest y", func() {
				img := rec.calls[0].img
				So(nrgba(img.At(0, 0)), ShouldResemble, render.BWR(0.75))
				So(nrgba(img.At(1, 0)), ShouldResemble, render.BWR(1))
				So(nrgba(img.At(0, 1)), ShouldResemble, render.BWR(0))
			})

			Convey("Then the grid is not modified", func() {
				So(grid.Values[0][0], ShouldEqual, 0)
				So(grid.Values[1][1], ShouldEqual, 1)
			})
		})

		Convey("When the y axis runs downwards", func() {
			grid.Y = []float64{34, -34}
			rec := &recorder{}
			So(render.Overlay(rec, fm, grid, 0.5), ShouldBeNil)

			Convey("Then row 0 is drawn at the top", func() {
				So(nrgba(rec.calls[0].img.At(0, 0)), ShouldResemble, render.BWR(0))
			})
		})

		Convey("When the grid is part of a render", func() {
			r := render.NewRenderer(fm)
			sc := scene(model.NewPlayer(1, orb.Point{50, 50}, nil, model.Style{}, model.TeamAttack, ""))
			sc.Grid = &grid
			rec := &recorder{}
			So(r.Render(rec, sc, render.Options{}), ShouldBeNil)

			Convey("Then it sits beneath the markers", func() {
				So(rec.first("image"), ShouldBeLessThan, rec.markerAt(orb.Point{50, 50}, fm.XLen(3)/2))
			})
		})

		Convey("When the grid is ragged", func() {
			grid.Values = [][]float64{{0}}
			err := render.Overlay(&recorder{}, fm, grid, 0.5)
			So(errors.Is(err, render.ErrInvalidGrid), ShouldBeTrue)
		})
	})
}

func TestColors(t *testing.T) {
	Convey("Given colour strings", t, func() {
		So(render.MustParseColor("#a8bc95"), ShouldResemble, color.NRGBA{0xa8, 0xbc, 0x95, 0xff})
		So(render.MustParseColor("#fff"), ShouldResemble, color.NRGBA{255, 255, 255, 255})
		So(render.MustParseColor("#00000080").A, ShouldEqual, 0x80)
		So(render.MustParseColor("k"), ShouldResemble, color.NRGBA{0, 0, 0, 255})
		So(render.MustParseColor("MediumSeaGreen"), ShouldResemble, color.NRGBA{60, 179, 113, 255})

		_, err := render.ParseColor("not-a-colour")
		So(errors.Is(err, render.ErrUnknownColor), ShouldBeTrue)
		_, err = render.ParseColor("#12345")
		So(errors.Is(err, render.ErrUnknownColor), ShouldBeTrue)
	})

	Convey("Given the blue-white-red map", t, func() {
		So(render.BWR(0), ShouldResemble, color.NRGBA{0, 0, 255, 255})
		So(render.BWR(0.5), ShouldResemble, color.NRGBA{255, 255, 255, 255})
		So(render.BWR(1), ShouldResemble, color.NRGBA{255, 0, 0, 255})
		So(render.BWR(3), ShouldResemble, render.BWR(1))
	})

	Convey("Given a bordered pitch style", t, func() {
		fm := field.MustNew(106, 68)
		lm := fm.Landmarks()
		green, err := render.ParseStyle("green")
		So(err, ShouldBeNil)
		rec := &recorder{}
		So(render.NewRenderer(fm, render.WithStyle(green)).Render(rec, scene(), render.Options{}), ShouldBeNil)

		hasPath := func(want []orb.Point) bool {
			for _, c := range rec.calls {
				if c.kind == "path" && len(c.path) == len(want) && c.path[0] == want[0] && c.path[len(want)-1] == want[len(want)-1] {
					return true
				}
			}
			return false
		}

		Convey("Then the penalty and corner arcs are stroked", func() {
			So(hasPath(lm.LeftPenaltyArc), ShouldBeTrue)
			So(hasPath(lm.RightPenaltyArc), ShouldBeTrue)
			for _, c := range lm.CornerArcs {
				So(hasPath(c), ShouldBeTrue)
			}
		})

		Convey("Then all four goal posts are marked in the line colour", func() {
			So(rec.count("polygon"), ShouldEqual, 4)
			for _, c := range rec.calls {
				if c.kind == "polygon" {
					So(c.color, ShouldResemble, green.Lines)
				}
			}
		})

		Convey("Then the classic style keeps nets and no arcs", func() {
			classic := &recorder{}
			So(render.NewRenderer(fm).Render(classic, scene(), render.Options{}), ShouldBeNil)
			So(classic.count("polygon"), ShouldEqual, 0)
			So(classic.count("path"), ShouldEqual, rec.count("path")-6+2)
		})
	})

	Convey("Given pitch style names", t, func() {
		st, err := render.ParseStyle("green")
		So(err, ShouldBeNil)
		So(st.Bordered, ShouldBeTrue)
		fm := field.MustNew(106, 68)
		vp := st.Viewport(fm)
		So(vp.Min[0], ShouldAlmostEqual, -fm.XLen(3), 1e-9)

		classic, _ := render.ParseStyle("")
		So(classic.Viewport(fm), ShouldResemble, render.ClassicViewport)

		_, err = render.ParseStyle("neon")
		So(errors.Is(err, render.ErrUnknownStyle), ShouldBeTrue)
	})
}
