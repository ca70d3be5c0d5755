package service

import (
	"context"
	"fmt"
	"math"

	"github.com/okian/pitchmap/internal/adapters/repository"
	"github.com/okian/pitchmap/internal/domain/dominance"
	"github.com/okian/pitchmap/internal/domain/frame"
	"github.com/okian/pitchmap/internal/domain/model"
)

// Reader serves many frames of one session fetched once from the store.
// It is safe for concurrent use.
type Reader struct {
	svc     *Service
	sess    *repository.Session
	summary repository.Summary
}

// Reader fetches session id and indexes its rows.
func (s *Service) Reader(ctx context.Context, id string) (*Reader, error) {
	sess, err := s.session(ctx, id)
	if err != nil {
		return nil, err
	}
	sess.Table()
	return &Reader{svc: s, sess: sess, summary: repository.Summarize(sess)}, nil
}

// Summary describes the session.
func (r *Reader) Summary() repository.Summary { return r.summary }

// Frame extracts the frame at t seconds.
func (r *Reader) Frame(t float64) (model.Frame, error) {
	return r.svc.extract(r.sess, t)
}

// Dominance extracts the frame at t and builds its dominance regions.
func (r *Reader) Dominance(ctx context.Context, t float64) (model.Frame, dominance.Result, error) {
	f, err := r.svc.extract(r.sess, t)
	if err != nil {
		return model.Frame{}, dominance.Result{}, err
	}
	return f, r.svc.regions(ctx, f), nil
}

// Timestamps lists the times from from to to stepping by step, with to
// clamped to the last sample. A zero step means one sample. Ranges longer
// than the playback limit fail with ErrBatchTooLarge.
func (r *Reader) Timestamps(from, to, step float64) ([]float64, error) {
	rate := r.summary.SampleRate
	if step == 0 {
		step = 1 / rate
	}
	if last := frame.Timestamp(r.summary.LastSample, rate); !math.IsNaN(to) && to > last {
		to = last
	}
	if from > to {
		return nil, fmt.Errorf("%w: from %v is past the end of the session (%v)", ErrInvalidRange, from, to)
	}
	return Timestamps(from, to, step, r.svc.maxPlayback)
}
