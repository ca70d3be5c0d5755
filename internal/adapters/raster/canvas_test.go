package raster_test

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/okian/pitchmap/internal/adapters/raster"
	"github.com/okian/pitchmap/internal/domain/field"
	"github.com/okian/pitchmap/internal/domain/model"
	"github.com/okian/pitchmap/internal/render"
	"github.com/paulmach/orb"
	. "github.com/smartystreets/goconvey/convey"
)

var (
	white = color.RGBA{255, 255, 255, 255}
	red   = color.RGBA{255, 0, 0, 255}
	unit  = render.Viewport{Min: orb.Point{0, 0}, Max: orb.Point{100, 100}}
)

func TestCanvas(t *testing.T) {
	Convey("Given a 100x100 canvas over the unit viewport", t, func() {
		c := raster.New(100, 100, unit)
		c.Clear(white)

		Convey("Then points project with y pointing up", func() {
			x, y := c.Project(orb.Point{0, 0})
			So(x, ShouldEqual, float32(0))
			So(y, ShouldEqual, float32(100))
			x, y = c.Project(orb.Point{25, 75})
			So(x, ShouldEqual, float32(25))
			So(y, ShouldEqual, float32(25))
		})

		Convey("When filling a polygon", func() {
			c.FillPolygon(field.Rect{Min: orb.Point{10, 10}, Max: orb.Point{40, 40}}.Ring(), red)

			Convey("Then pixels inside are painted and outside are not", func() {
				So(c.Image().RGBAAt(25, 75), ShouldResemble, red)
				So(c.Image().RGBAAt(75, 25), ShouldResemble, white)
			})
		})

		Convey("When filling an ellipse", func() {
			c.FillEllipse(field.Ellipse{Center: orb.Point{50, 50}, RX: 10, RY: 5}, red)

			Convey("Then it covers its centre but not beyond its radii", func() {
				So(c.Image().RGBAAt(50, 50), ShouldResemble, red)
				So(c.Image().RGBAAt(50, 40), ShouldResemble, white)
				So(c.Image().RGBAAt(58, 50), ShouldResemble, red)
			})
		})

		Convey("When stroking an ellipse", func() {
			c.StrokeEllipse(field.Ellipse{Center: orb.Point{50, 50}, RX: 20, RY: 20}, red, 4)

			Convey("Then only the ring is painted", func() {
				So(c.Image().RGBAAt(50, 50), ShouldResemble, white)
				So(c.Image().RGBAAt(70, 50), ShouldResemble, red)
			})
		})

		Convey("When stroking a path", func() {
			c.StrokePath([]orb.Point{{10, 50}, {90, 50}}, red, 4)

			Convey("Then the line is painted", func() {
				So(c.Image().RGBAAt(50, 50), ShouldResemble, red)
				So(c.Image().RGBAAt(50, 60), ShouldResemble, white)
			})
		})

		Convey("When drawing an image at full opacity", func() {
			src := image.NewRGBA(image.Rect(0, 0, 2, 2))
			for x := 0; x < 2; x++ {
				for y := 0; y < 2; y++ {
					src.SetRGBA(x, y, red)
				}
			}
			c.DrawImage(src, orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{50, 50}}, 1)

			Convey("Then it fills the projected rectangle", func() {
				So(c.Image().RGBAAt(25, 75), ShouldResemble, red)
				So(c.Image().RGBAAt(75, 25), ShouldResemble, white)
			})
		})

		Convey("When drawing text", func() {
			c.Text(orb.Point{50, 50}, "10", color.Black, white)

			Convey("Then some pixels near the anchor change", func() {
				changed := false
				for x := 40; x < 60; x++ {
					for y := 40; y < 60; y++ {
						if c.Image().RGBAAt(x, y) != white {
							changed = true
						}
					}
				}
				So(changed, ShouldBeTrue)
			})
		})

		Convey("When encoding", func() {
			var buf bytes.Buffer
			So(c.EncodePNG(&buf), ShouldBeNil)

			Convey("Then a PNG of the same size is produced", func() {
				img, err := png.Decode(&buf)
				So(err, ShouldBeNil)
				So(img.Bounds().Dx(), ShouldEqual, 100)
			})
		})
	})
}

func TestRenderToCanvas(t *testing.T) {
	Convey("Given a full render on the default canvas", t, func() {
		fm := field.MustNew(105, 68)
		r := render.NewRenderer(fm)
		c := raster.New(raster.DefaultWidth, raster.DefaultHeight, r.Viewport())
		f := model.Frame{Entities: map[int]model.Entity{
			1: model.NewPlayer(1, orb.Point{25, 50}, nil, model.Style{Fill: "red"}, model.TeamAttack, "7"),
		}}
		So(r.Render(c, render.Scene{Frame: f}, render.Options{Numbers: true}), ShouldBeNil)

		Convey("Then the background takes the classic pitch colour", func() {
			So(c.Image().RGBAAt(2, 2), ShouldResemble, color.RGBA{0xa8, 0xbc, 0x95, 0xff})
		})
	})
}
