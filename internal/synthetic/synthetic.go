// Package synthetic generates deterministic tracking data for demos and tests.
package synthetic

import (
	"math"
	"math/rand/v2"
	"strconv"

	"github.com/okian/pitchmap/internal/domain/model"
)

// Defaults for Generate.
const (
	DefaultSamples        = 200
	DefaultSampleRate     = 20.0
	DefaultPlayersPerTeam = 11
	MaxPlayersPerTeam     = 16
)

const (
	// formation spacing in normalized units
	columnSpacing = 11.0
	rowSpacing    = 22.0
	drift         = 3.0
	ballSpeed     = 0.6
	ballMaxHeight = 2.0
)

// Config controls the generated play.
type Config struct {
	Seed           uint64
	Samples        int
	SampleRate     float64
	PlayersPerTeam int
	Ball           bool
}

// Option configures Generate.
type Option func(*Config)

// WithSeed fixes the random source. Equal seeds produce equal rows.
func WithSeed(seed uint64) Option {
	return func(c *Config) { c.Seed = seed }
}

// WithSamples sets the number of samples.
func WithSamples(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.Samples = n
		}
	}
}

// WithSampleRate sets samples per second, used to scale velocities.
func WithSampleRate(rate float64) Option {
	return func(c *Config) {
		if rate > 0 {
			c.SampleRate = rate
		}
	}
}

// WithPlayersPerTeam sets the squad size, capped at MaxPlayersPerTeam.
func WithPlayersPerTeam(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.PlayersPerTeam = min(n, MaxPlayersPerTeam)
		}
	}
}

// WithoutBall omits the ball.
func WithoutBall() Option {
	return func(c *Config) { c.Ball = false }
}

// NewConfig returns the defaults with opts applied.
func NewConfig(opts ...Option) Config {
	c := Config{
		Seed:           1,
		Samples:        DefaultSamples,
		SampleRate:     DefaultSampleRate,
		PlayersPerTeam: DefaultPlayersPerTeam,
		Ball:           true,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

type mover struct {
	id      int
	team    model.Team
	homeX   float64
	homeY   float64
	phaseX  float64
	phaseY  float64
	periodX float64
	periodY float64
}

// position at time t in seconds.
func (m mover) at(t float64) (float64, float64) {
	x := m.homeX + drift*math.Sin(2*math.Pi*t/m.periodX+m.phaseX)
	y := m.homeY + drift*math.Sin(2*math.Pi*t/m.periodY+m.phaseY)
	return x, y
}

// Generate returns rows for every sample in sample order. Players keep to
// formation slots at least 2*drift apart so positions never coincide. The
// attacking side occupies the left half. Velocities are per-sample
// displacements.
func Generate(opts ...Option) []model.Row {
	cfg := NewConfig(opts...)
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))

	movers := make([]mover, 0, 2*cfg.PlayersPerTeam)
	for i := 0; i < cfg.PlayersPerTeam; i++ {
		col, row := float64(i/4), float64(i%4)
		y := 17 + row*rowSpacing + math.Mod(col, 2)*5
		movers = append(movers,
			newMover(rng, 1+i, model.TeamAttack, 8+col*columnSpacing, y),
			newMover(rng, 1+cfg.PlayersPerTeam+i, model.TeamDefense, 92-col*columnSpacing, y),
		)
	}

	perSample := len(movers)
	if cfg.Ball {
		perSample++
	}
	rows := make([]model.Row, 0, cfg.Samples*perSample)

	bx, by := 50.0, 50.0
	heading := rng.Float64() * 2 * math.Pi
	for s := 0; s < cfg.Samples; s++ {
		t := float64(s) / cfg.SampleRate
		next := float64(s+1) / cfg.SampleRate

		if cfg.Ball {
			heading += (rng.Float64() - 0.5) * 0.5
			dx, dy := ballSpeed*math.Cos(heading), ballSpeed*math.Sin(heading)
			if bx+dx < 2 || bx+dx > 98 {
				dx = -dx
				heading = math.Pi - heading
			}
			if by+dy < 2 || by+dy > 98 {
				dy = -dy
				heading = -heading
			}
			z := ballMaxHeight * math.Abs(math.Sin(float64(s)/15))
			rows = append(rows, model.Row{
				Sample: s, Entity: model.BallID,
				X: bx, Y: by, DX: ptr(dx), DY: ptr(dy), Z: ptr(z),
			})
			bx, by = bx+dx, by+dy
		}

		for _, m := range movers {
			x, y := m.at(t)
			nx, ny := m.at(next)
			rows = append(rows, model.Row{
				Sample: s, Entity: m.id,
				X: x, Y: y, DX: ptr(nx - x), DY: ptr(ny - y),
				Team:   string(m.team),
				Fill:   fill(m.team),
				Edge:   "white",
				Number: model.Label(strconv.Itoa(jersey(m, cfg.PlayersPerTeam))),
			})
		}
	}
	return rows
}

func newMover(rng *rand.Rand, id int, team model.Team, x, y float64) mover {
	return mover{
		id:      id,
		team:    team,
		homeX:   x,
		homeY:   y,
		phaseX:  rng.Float64() * 2 * math.Pi,
		phaseY:  rng.Float64() * 2 * math.Pi,
		periodX: 4 + rng.Float64()*6,
		periodY: 4 + rng.Float64()*6,
	}
}

func jersey(m mover, perTeam int) int {
	if m.team == model.TeamDefense {
		return m.id - perTeam
	}
	return m.id
}

func fill(team model.Team) string {
	if team == model.TeamAttack {
		return "red"
	}
	return "blue"
}

func ptr(v float64) *float64 { return &v }
