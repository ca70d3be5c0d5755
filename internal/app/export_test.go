package service

import (
	"context"

	"github.com/okian/pitchmap/internal/adapters/repository"
	"github.com/okian/pitchmap/internal/render"
)

// WithFrameRenderer replaces how sequence jobs render one frame.
func WithFrameRenderer(f func(ctx context.Context, t float64) ([]byte, error)) Option {
	return func(s *Service) {
		s.frameRenderer = func(ctx context.Context, _ *repository.Session, t float64, _ render.Options) ([]byte, error) {
			return f(ctx, t)
		}
	}
}
