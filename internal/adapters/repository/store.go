// Package repository stores uploaded tracking sessions.
package repository

import (
	"context"
	"time"

	"github.com/okian/pitchmap/internal/domain/model"
)

// Session is one uploaded tracking dataset.
type Session struct {
	ID         string      `json:"id"`
	SampleRate float64     `json:"sample_rate"`
	Rows       []model.Row `json:"rows"`
	CreatedAt  time.Time   `json:"created_at"`

	table *model.Table
}

// Table returns the session rows indexed by sample. Stores that keep
// sessions in memory index once at save time.
func (s *Session) Table() *model.Table {
	if s.table == nil {
		s.table = model.NewTable(s.Rows)
	}
	return s.table
}

// Summary describes a session without its rows.
type Summary struct {
	ID          string    `json:"id"`
	SampleRate  float64   `json:"sample_rate"`
	Rows        int       `json:"rows"`
	FirstSample int       `json:"first_sample"`
	LastSample  int       `json:"last_sample"`
	Duration    float64   `json:"duration_seconds"`
	CreatedAt   time.Time `json:"created_at"`
}

// Summarize builds the summary of s.
func Summarize(s *Session) Summary {
	sum := Summary{ID: s.ID, SampleRate: s.SampleRate, Rows: len(s.Rows), CreatedAt: s.CreatedAt}
	if first, last, ok := s.Table().Span(); ok {
		sum.FirstSample, sum.LastSample = first, last
		if s.SampleRate > 0 {
			sum.Duration = float64(last-first+1) / s.SampleRate
		}
	}
	return sum
}

// Store provides read/write access to sessions.
type Store interface {
	// Save stores or replaces a session.
	Save(ctx context.Context, s *Session) error
	// Get returns ErrNotFound for unknown or expired sessions.
	Get(ctx context.Context, id string) (*Session, error)
	// Delete returns ErrNotFound for unknown sessions.
	Delete(ctx context.Context, id string) error
	// Count returns the number of live sessions.
	Count(ctx context.Context) int
	Close() error
}
