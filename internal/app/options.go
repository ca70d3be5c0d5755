package service

import (
	"time"

	"github.com/okian/pitchmap/internal/adapters/repository"
	"github.com/okian/pitchmap/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithField sets the real pitch dimensions.
func WithField(length, width float64) Option {
	return func(s *Service) {
		s.fieldLength, s.fieldWidth = length, width
	}
}

// WithDefaultSampleRate sets the rate used when an upload omits one.
func WithDefaultSampleRate(rate float64) Option {
	return func(s *Service) {
		if rate > 0 {
			s.defaultRate = rate
		}
	}
}

// WithImageSize sets the PNG dimensions in pixels.
func WithImageSize(width, height int) Option {
	return func(s *Service) {
		if width > 0 && height > 0 {
			s.imageWidth, s.imageHeight = width, height
		}
	}
}

// WithPitchStyle selects the pitch style by name.
func WithPitchStyle(name string) Option {
	return func(s *Service) { s.pitchStyle = name }
}

// WithTextColor sets the jersey and time label colour.
func WithTextColor(c string) Option {
	return func(s *Service) { s.textColor = c }
}

// WithHighlightColor sets the colour of a highlighted player.
func WithHighlightColor(c string) Option {
	return func(s *Service) { s.highlightColor = c }
}

// WithStore replaces the default in-memory session store. The service
// closes it on Stop.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithSessionTTL sets how long the default in-memory store keeps sessions.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.sessionTTL = ttl
		}
	}
}

// WithRenderWorkers sets how many frames a sequence renders in parallel.
func WithRenderWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workerCount = n
		}
	}
}

// WithRenderQueueSize bounds the jobs queued by one sequence.
func WithRenderQueueSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.queueSize = n
		}
	}
}

// WithMaxBatchFrames caps the number of frames per sequence.
func WithMaxBatchFrames(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxBatchFrames = n
		}
	}
}

// WithMaxPlaybackFrames caps the frames of one playback or batch range.
func WithMaxPlaybackFrames(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxPlayback = n
		}
	}
}

// WithDedupeSize sets how many idempotency keys are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
