package frame_test

import (
	"errors"
	"testing"

	"github.com/okian/pitchmap/internal/domain/frame"
	"github.com/okian/pitchmap/internal/domain/model"
	"github.com/paulmach/orb"
	. "github.com/smartystreets/goconvey/convey"
)

func f64(v float64) *float64 { return &v }

func sampleTable() *model.Table {
	return model.NewTable([]model.Row{
		{Sample: 40, Entity: 0, X: 50, Y: 50, DX: f64(0.1), DY: f64(0), Z: f64(0.8)},
		{Sample: 40, Entity: 1, X: 30, Y: 50, Team: "attack", Fill: "red", Edge: "white", Number: "9"},
		{Sample: 40, Entity: 2, X: 70, Y: 50, Team: "defense", Fill: "blue", Number: "4.0"},
		{Sample: 41, Entity: 1, X: 31, Y: 50, Team: "attack"},
	})
}

func TestExtract(t *testing.T) {
	Convey("Given a tracking table sampled at 20 Hz", t, func() {
		table := sampleTable()

		Convey("When extracting t=2.0", func() {
			f, err := frame.Extract(table, 2.0, 20)
			So(err, ShouldBeNil)

			Convey("Then the frame is keyed by entity id", func() {
				So(f.Sample, ShouldEqual, 40)
				So(f.Timestamp, ShouldEqual, 2.0)
				So(len(f.Entities), ShouldEqual, 3)
				So(f.Entities[1].Position, ShouldResemble, orb.Point{30, 50})
				So(f.Entities[1].Style.Fill, ShouldEqual, "red")
			})

			Convey("Then the ball is resolved as the ball variant", func() {
				ball, ok := f.Ball()
				So(ok, ShouldBeTrue)
				So(ball.Kind, ShouldEqual, model.KindBall)
				So(ball.Height(), ShouldEqual, 0.8)
				So(ball.Velocity, ShouldResemble, &model.Vector{DX: 0.1, DY: 0})
				So(ball.Player, ShouldBeNil)
			})

			Convey("Then players carry team and normalized jersey", func() {
				So(f.Entities[2].Team(), ShouldEqual, model.TeamDefense)
				So(f.Entities[2].JerseyNumber(), ShouldEqual, "4")
				So(f.Entities[1].Velocity, ShouldBeNil)
			})
		})

		Convey("When extracting the same instant twice", func() {
			a, errA := frame.Extract(table, 2.0, 20)
			b, errB := frame.Extract(table, 2.0, 20)

			Convey("Then both frames are equal", func() {
				So(errA, ShouldBeNil)
				So(errB, ShouldBeNil)
				So(a, ShouldResemble, b)
			})
		})

		Convey("When t falls between samples", func() {
			f, err := frame.Extract(table, 2.049, 20)

			Convey("Then the earlier sample is used", func() {
				So(err, ShouldBeNil)
				So(f.Sample, ShouldEqual, 40)
			})
		})

		Convey("When t=10 and fps=20 has no rows", func() {
			_, err := frame.Extract(table, 10, 20)

			Convey("Then it fails out of range", func() {
				So(errors.Is(err, frame.ErrOutOfRange), ShouldBeTrue)
			})
		})

		Convey("When t is negative", func() {
			_, err := frame.Extract(table, -1, 20)
			So(errors.Is(err, frame.ErrOutOfRange), ShouldBeTrue)
		})

		Convey("When the sample rate is not positive", func() {
			_, err := frame.Extract(table, 2, 0)
			So(errors.Is(err, frame.ErrInvalidSampleRate), ShouldBeTrue)
		})
	})

	Convey("Given a sample with a duplicated entity id", t, func() {
		table := model.NewTable([]model.Row{
			{Sample: 5, Entity: 3, X: 1, Y: 1, Team: "attack"},
			{Sample: 5, Entity: 3, X: 2, Y: 2, Team: "attack"},
		})

		Convey("Then extraction fails with a data integrity error", func() {
			_, err := frame.Extract(table, 0.25, 20)
			So(errors.Is(err, frame.ErrDataIntegrity), ShouldBeTrue)
		})
	})

	Convey("Given a player without a known team", t, func() {
		table := model.NewTable([]model.Row{{Sample: 0, Entity: 3, X: 1, Y: 1, Team: "coach"}})

		Convey("Then extraction fails with a data integrity error", func() {
			_, err := frame.Extract(table, 0, 25)
			So(errors.Is(err, frame.ErrDataIntegrity), ShouldBeTrue)
		})
	})
}

func TestSampleIndex(t *testing.T) {
	Convey("Given timestamps that are not exact in binary", t, func() {
		for _, tc := range []struct {
			t, rate float64
			want    int
		}{
			{10, 20, 200},
			{0.1 * 3, 10, 3},
			{1.15, 20, 23},
			{0, 25, 0},
		} {
			got, err := frame.SampleIndex(tc.t, tc.rate)
			So(err, ShouldBeNil)
			So(got, ShouldEqual, tc.want)
		}
		So(frame.Timestamp(200, 20), ShouldEqual, 10)
	})
}
