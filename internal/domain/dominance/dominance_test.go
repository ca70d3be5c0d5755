package dominance_test

import (
	"encoding/json"
	"math"
	"math/rand"
	"testing"

	"github.com/okian/pitchmap/internal/domain/dominance"
	"github.com/okian/pitchmap/internal/domain/field"
	"github.com/okian/pitchmap/internal/domain/model"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	. "github.com/smartystreets/goconvey/convey"
)

const areaTolerance = 1e-6

func player(id int, x, y float64, team model.Team) model.Entity {
	return model.NewPlayer(id, orb.Point{x, y}, nil, model.Style{Fill: "red"}, team, "")
}

func frameOf(es ...model.Entity) model.Frame {
	f := model.Frame{Entities: make(map[int]model.Entity, len(es))}
	for _, e := range es {
		f.Entities[e.ID] = e
	}
	return f
}

func withinPitch(p orb.Polygon) bool {
	const eps = 1e-6
	for _, r := range p {
		for _, pt := range r {
			if pt[0] < -eps || pt[0] > field.Extent+eps || pt[1] < -eps || pt[1] > field.Extent+eps {
				return false
			}
		}
	}
	return true
}

func TestBuilder(t *testing.T) {
	Convey("Given a standard 105x68 field", t, func() {
		fm := field.MustNew(field.DefaultLength, field.DefaultWidth)
		b := dominance.NewBuilder(fm)

		Convey("When a single player is on the pitch", func() {
			res := b.Build(frameOf(player(3, 20, 80, model.TeamAttack)))

			Convey("Then one region covers the whole field", func() {
				So(len(res.Regions), ShouldEqual, 1)
				So(res.Area(3), ShouldAlmostEqual, field.Extent*field.Extent, areaTolerance)
				So(res.Dropped[dominance.DropAnchor], ShouldEqual, 4)
			})
		})

		Convey("When the ball and two players face each other across the centre", func() {
			f := frameOf(
				model.NewBall(orb.Point{50, 50}, nil, 0, model.Style{}),
				player(1, 30, 50, model.TeamAttack),
				player(2, 70, 50, model.TeamDefense),
			)
			res := b.Build(f)

			Convey("Then each player owns one half", func() {
				So(len(res.Regions), ShouldEqual, 2)
				_, hasBall := res.Regions[model.BallID]
				So(hasBall, ShouldBeFalse)

				left := res.Regions[1].Bound()
				right := res.Regions[2].Bound()
				So(left.Max[0], ShouldAlmostEqual, 50, 1e-6)
				So(right.Min[0], ShouldAlmostEqual, 50, 1e-6)
				So(res.Area(1), ShouldAlmostEqual, 5000, areaTolerance)
				So(res.TotalArea(), ShouldAlmostEqual, 10000, areaTolerance)
			})

			Convey("Then each region contains its owner", func() {
				So(planar.PolygonContains(res.Regions[1], orb.Point{30, 50}), ShouldBeTrue)
				So(planar.PolygonContains(res.Regions[2], orb.Point{70, 50}), ShouldBeTrue)
			})
		})

		Convey("When the pitch is anisotropic", func() {
			res := b.BuildPositions(map[int]orb.Point{1: {0, 50}, 2: {50, 0}})

			Convey("Then the split follows real distances, not the normalized diagonal", func() {
				// (20,20) and (30,30) are equidistant from both players in
				// normalized units but not in metres.
				So(planar.PolygonContains(res.Regions[1], orb.Point{20, 20}), ShouldBeTrue)
				So(planar.PolygonContains(res.Regions[2], orb.Point{30, 30}), ShouldBeTrue)
				So(res.TotalArea(), ShouldAlmostEqual, 10000, areaTolerance)
			})
		})

		Convey("When two players split the pitch near one goal line", func() {
			res := b.BuildPositions(map[int]orb.Point{1: {0, 50}, 2: {10, 50}})

			Convey("Then the boundary sits halfway between them", func() {
				So(res.Regions[1].Bound().Max[0], ShouldAlmostEqual, 5, 1e-6)
				So(res.Area(1), ShouldAlmostEqual, 500, areaTolerance)
			})
		})

		Convey("When twenty-two players are placed at random", func() {
			rng := rand.New(rand.NewSource(7))
			var es []model.Entity
			for id := 1; id <= 22; id++ {
				team := model.TeamAttack
				if id > 11 {
					team = model.TeamDefense
				}
				es = append(es, player(id, 1+98*rng.Float64(), 1+98*rng.Float64(), team))
			}
			f := frameOf(es...)
			res := b.Build(f)

			Convey("Then every player has a region inside the field containing it", func() {
				So(len(res.Regions), ShouldEqual, 22)
				for _, e := range es {
					poly := res.Regions[e.ID]
					So(withinPitch(poly), ShouldBeTrue)
					So(planar.PolygonContains(poly, e.Position), ShouldBeTrue)
				}
			})

			Convey("Then the regions tile the field", func() {
				So(res.TotalArea(), ShouldAlmostEqual, 10000, 1e-4)
			})

			Convey("Then repeated builds agree", func() {
				again := b.Build(f)
				for _, e := range es {
					So(again.Area(e.ID), ShouldAlmostEqual, res.Area(e.ID), 1e-9)
				}
			})
		})

		Convey("When squads of every size are placed at random across many seeds", func() {
			var panics, untiled, missing int
			for seed := int64(0); seed < 200; seed++ {
				rng := rand.New(rand.NewSource(seed))
				for n := 1; n <= 22; n++ {
					players := make(map[int]orb.Point, n)
					for id := 1; id <= n; id++ {
						players[id] = orb.Point{100 * rng.Float64(), 100 * rng.Float64()}
					}
					func() {
						defer func() {
							if recover() != nil {
								panics++
							}
						}()
						res := b.BuildPositions(players)
						if len(res.Regions) != n {
							missing++
						}
						if math.Abs(res.TotalArea()-10000) > 1e-4 {
							untiled++
						}
					}()
				}
			}

			Convey("Then no build panics and the regions always tile the field", func() {
				So(panics, ShouldEqual, 0)
				So(missing, ShouldEqual, 0)
				So(untiled, ShouldEqual, 0)
			})
		})

		Convey("When players stand on whole-number positions sharing rows and columns", func() {
			var panics, degenerate int
			for seed := int64(0); seed < 50; seed++ {
				rng := rand.New(rand.NewSource(seed))
				players := map[int]orb.Point{}
				taken := map[orb.Point]bool{}
				for id := 1; id <= 22; {
					p := orb.Point{float64(1 + rng.Intn(99)), float64(1 + rng.Intn(99))}
					if taken[p] {
						continue
					}
					taken[p] = true
					players[id] = p
					id++
				}
				func() {
					defer func() {
						if recover() != nil {
							panics++
						}
					}()
					res := b.BuildPositions(players)
					degenerate += res.Dropped[dominance.DropDegenerateDiagram]
				}()
			}

			Convey("Then every diagram is computed", func() {
				So(panics, ShouldEqual, 0)
				So(degenerate, ShouldEqual, 0)
			})
		})

		Convey("When two players share a position", func() {
			var res dominance.Result
			So(func() {
				res = b.Build(frameOf(
					player(1, 40, 40, model.TeamAttack),
					player(2, 40, 40, model.TeamDefense),
					player(3, 80, 60, model.TeamDefense),
				))
			}, ShouldNotPanic)

			Convey("Then neither has a region and the drop is counted", func() {
				_, ok1 := res.Regions[1]
				_, ok2 := res.Regions[2]
				So(ok1, ShouldBeFalse)
				So(ok2, ShouldBeFalse)
				So(res.Area(1), ShouldEqual, 0)
				So(res.Dropped[dominance.DropCoincident], ShouldEqual, 2)
				So(res.Regions[3], ShouldNotBeNil)
			})
		})

		Convey("When a player stands far outside the field", func() {
			res := b.BuildPositions(map[int]orb.Point{
				1: {30, 50},
				2: {70, 50},
				3: {400, 50},
			})

			Convey("Then it has no region", func() {
				_, ok := res.Regions[3]
				So(ok, ShouldBeFalse)
				So(res.Dropped[dominance.DropEmptyClip], ShouldEqual, 1)
				So(res.TotalArea(), ShouldAlmostEqual, 10000, areaTolerance)
			})
		})

		Convey("When a position is not finite", func() {
			res := b.BuildPositions(map[int]orb.Point{1: {math.NaN(), 10}, 2: {50, 50}})

			Convey("Then it is skipped", func() {
				So(res.Dropped[dominance.DropInvalidPosition], ShouldEqual, 1)
				So(res.Area(2), ShouldAlmostEqual, 10000, areaTolerance)
			})
		})

		Convey("When the frame has no players", func() {
			res := b.Build(frameOf(model.NewBall(orb.Point{1, 1}, nil, 0, model.Style{})))
			So(len(res.Regions), ShouldEqual, 0)
		})
	})
}

func TestFeatureCollection(t *testing.T) {
	Convey("Given regions for two players", t, func() {
		fm := field.MustNew(105, 68)
		f := frameOf(
			model.NewPlayer(1, orb.Point{30, 50}, nil, model.Style{Fill: "red"}, model.TeamAttack, "9"),
			player(2, 70, 50, model.TeamDefense),
		)
		res := dominance.NewBuilder(fm).Build(f)

		Convey("When exporting GeoJSON", func() {
			fc := dominance.FeatureCollection(f, res)
			b, err := json.Marshal(fc)
			So(err, ShouldBeNil)

			Convey("Then one polygon feature per region is written", func() {
				So(len(fc.Features), ShouldEqual, 2)
				So(fc.Features[0].Properties["team"], ShouldEqual, "attack")
				So(fc.Features[0].Properties["jersey_number"], ShouldEqual, "9")
				So(string(b), ShouldContainSubstring, `"type":"Polygon"`)
			})
		})
	})
}
