// Package frame selects the cross-section of a tracking table valid at one
// timestamp.
package frame

import (
	"fmt"
	"math"

	"github.com/okian/pitchmap/internal/domain/model"
	"github.com/paulmach/orb"
)

// sampleEpsilon absorbs float error in t*rate so 10.0*20 lands on 200 and
// not 199.
const sampleEpsilon = 1e-9

// SampleIndex returns floor(t * rate).
func SampleIndex(t, rate float64) (int, error) {
	if !(rate > 0) || math.IsInf(rate, 0) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidSampleRate, rate)
	}
	if math.IsNaN(t) || math.IsInf(t, 0) || t < 0 {
		return 0, fmt.Errorf("%w: t=%v", ErrOutOfRange, t)
	}
	return int(math.Floor(t*rate + sampleEpsilon)), nil
}

// Timestamp returns the time of a sample at the given rate.
func Timestamp(sample int, rate float64) float64 { return float64(sample) / rate }

// Extract returns the frame at floor(t * rate). It never interpolates:
// a sample without rows fails with ErrOutOfRange. Repeated calls with the
// same arguments return equal, independent frames.
func Extract(table *model.Table, t, rate float64) (model.Frame, error) {
	sample, err := SampleIndex(t, rate)
	if err != nil {
		return model.Frame{}, err
	}
	return ExtractSample(table, sample, t)
}

// ExtractSample builds the frame for an exact sample index.
func ExtractSample(table *model.Table, sample int, t float64) (model.Frame, error) {
	rows := table.Rows(sample)
	if len(rows) == 0 {
		return model.Frame{}, fmt.Errorf("%w: no rows at sample %d", ErrOutOfRange, sample)
	}

	f := model.Frame{
		Sample:    sample,
		Timestamp: t,
		Entities:  make(map[int]model.Entity, len(rows)),
	}
	for _, r := range rows {
		if _, dup := f.Entities[r.Entity]; dup {
			return model.Frame{}, fmt.Errorf("%w: entity %d appears twice at sample %d", ErrDataIntegrity, r.Entity, sample)
		}
		e, err := entityFromRow(r)
		if err != nil {
			return model.Frame{}, fmt.Errorf("%w: sample %d: %v", ErrDataIntegrity, sample, err)
		}
		f.Entities[r.Entity] = e
	}
	return f, nil
}

func entityFromRow(r model.Row) (model.Entity, error) {
	pos := orb.Point{r.X, r.Y}
	style := model.Style{Fill: r.Fill, Edge: r.Edge}

	var vel *model.Vector
	if r.DX != nil && r.DY != nil {
		vel = &model.Vector{DX: *r.DX, DY: *r.DY}
	}

	if r.Entity == model.BallID {
		var z float64
		if r.Z != nil && !math.IsNaN(*r.Z) {
			z = *r.Z
		}
		return model.NewBall(pos, vel, z, style), nil
	}

	team, err := model.ParseTeam(r.Team)
	if err != nil {
		return model.Entity{}, fmt.Errorf("entity %d: %w", r.Entity, err)
	}
	return model.NewPlayer(r.Entity, pos, vel, style, team, model.NormalizeLabel(string(r.Number))), nil
}
