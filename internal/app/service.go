// Package service wires the session store, frame extraction, dominance
// regions and rendering behind the operations the HTTP API and CLIs use.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/pitchmap/internal/adapters/mq/queue"
	"github.com/okian/pitchmap/internal/adapters/mq/worker"
	"github.com/okian/pitchmap/internal/adapters/raster"
	"github.com/okian/pitchmap/internal/adapters/repository"
	"github.com/okian/pitchmap/internal/domain/dedupe"
	"github.com/okian/pitchmap/internal/domain/dominance"
	"github.com/okian/pitchmap/internal/domain/field"
	"github.com/okian/pitchmap/internal/domain/frame"
	"github.com/okian/pitchmap/internal/domain/model"
	"github.com/okian/pitchmap/internal/render"
	"github.com/okian/pitchmap/pkg/logger"
	"github.com/okian/pitchmap/pkg/metrics"
)

const enqueueBackoff = 2 * time.Millisecond

// DefaultMaxPlaybackFrames bounds one playback: 90 minutes at 25 Hz plus
// extra time.
const DefaultMaxPlaybackFrames = 200_000

// maxTimestamps caps uncapped Timestamps calls.
const maxTimestamps = 1 << 26

// Upload is a tracking dataset submitted to CreateSession.
type Upload struct {
	SampleRate float64     `json:"sample_rate"`
	Rows       []model.Row `json:"rows"`
}

// Service implements the dependencies of the HTTP API.
type Service struct {
	mu sync.RWMutex

	// Core components
	store    repository.Store
	deduper  dedupe.Deduper
	field    *field.Model
	builder  *dominance.Builder
	renderer *render.Renderer
	// control renders pitch-control overlays on the plain white pitch.
	control *render.Renderer

	// Configuration
	fieldLength    float64
	fieldWidth     float64
	defaultRate    float64
	imageWidth     int
	imageHeight    int
	pitchStyle     string
	textColor      string
	highlightColor string
	sessionTTL     time.Duration
	workerCount    int
	queueSize      int
	maxBatchFrames int
	maxPlayback    int
	dedupeSize     int

	// frameRenderer replaces renderAt for sequence jobs, for tests.
	frameRenderer func(ctx context.Context, sess *repository.Session, t float64, o render.Options) ([]byte, error)

	// State
	started bool
	now     func() time.Time

	logger logger.Logger
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		fieldLength:    105,
		fieldWidth:     68,
		defaultRate:    20,
		imageWidth:     raster.DefaultWidth,
		imageHeight:    raster.DefaultHeight,
		pitchStyle:     render.StyleClassic,
		textColor:      "white",
		highlightColor: "yellow",
		sessionTTL:     2 * time.Hour,
		workerCount:    runtime.NumCPU(),
		queueSize:      1024,
		maxBatchFrames: 2000,
		maxPlayback:    DefaultMaxPlaybackFrames,
		dedupeSize:     10000,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start validates the configuration and builds the components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	fm, err := field.New(s.fieldLength, s.fieldWidth)
	if err != nil {
		return err
	}
	style, err := render.ParseStyle(s.pitchStyle)
	if err != nil {
		return err
	}
	text, err := render.ParseColor(s.textColor)
	if err != nil {
		return fmt.Errorf("text colour: %w", err)
	}
	highlight, err := render.ParseColor(s.highlightColor)
	if err != nil {
		return fmt.Errorf("highlight colour: %w", err)
	}
	white, _ := render.ParseStyle(render.StyleWhite)

	s.field = fm
	s.builder = dominance.NewBuilder(fm)
	s.renderer = render.NewRenderer(fm,
		render.WithStyle(style),
		render.WithTextColor(text),
		render.WithHighlightColor(highlight),
	)
	s.control = render.NewRenderer(fm,
		render.WithStyle(white),
		render.WithTextColor(text),
		render.WithHighlightColor(highlight),
	)
	if s.store == nil {
		s.store = repository.NewMemoryStore(ctx, repository.WithTTL(s.sessionTTL))
		s.logger.Info(ctx, "using memory session store", logger.Duration("ttl", s.sessionTTL))
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))

	s.started = true
	s.logger.Info(ctx, "pitchmap service started",
		logger.Float64("fieldLength", s.fieldLength),
		logger.Float64("fieldWidth", s.fieldWidth),
		logger.String("style", style.Name),
		logger.Int("workers", s.workerCount),
		logger.Int("maxBatchFrames", s.maxBatchFrames),
	)
	return nil
}

// Stop closes the session store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	if err := s.store.Close(); err != nil {
		s.logger.Warn(ctx, "closing session store", logger.Error(err))
	}
	s.started = false
	s.logger.Info(ctx, "pitchmap service stopped")
}

// Field returns the field model, or nil before Start.
func (s *Service) Field() *field.Model {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.field
}

func (s *Service) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// CreateSession stores an upload. A non-empty key makes the call
// idempotent: repeating it returns the first session with created=false.
func (s *Service) CreateSession(ctx context.Context, key string, up Upload) (repository.Summary, bool, error) {
	if err := s.ready(); err != nil {
		return repository.Summary{}, false, err
	}

	rate := up.SampleRate
	if rate == 0 {
		rate = s.defaultRate
	}
	if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return repository.Summary{}, false, fmt.Errorf("%w: %v", frame.ErrInvalidSampleRate, up.SampleRate)
	}
	if len(up.Rows) == 0 {
		return repository.Summary{}, false, fmt.Errorf("%w: no rows", repository.ErrInvalidSession)
	}

	id := uuid.NewString()
	if key != "" {
		bound, seen := s.deduper.Claim(ctx, key, id)
		if seen {
			sess, err := s.store.Get(ctx, bound)
			switch {
			case err == nil:
				metrics.RecordUploadDuplicate()
				s.logger.Debug(ctx, "duplicate upload", logger.String("key", key), logger.String("id", bound))
				return repository.Summarize(sess), false, nil
			case errors.Is(err, repository.ErrNotFound):
				// The first session expired; bind the key to the new one.
				s.deduper.Release(ctx, key)
				s.deduper.Claim(ctx, key, id)
			default:
				return repository.Summary{}, false, err
			}
		}
	}

	sess := &repository.Session{
		ID:         id,
		SampleRate: rate,
		Rows:       up.Rows,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.store.Save(ctx, sess); err != nil {
		if key != "" {
			s.deduper.Release(ctx, key)
		}
		metrics.RecordErrorByComponent("service", "session_save")
		return repository.Summary{}, false, err
	}

	sum := repository.Summarize(sess)
	s.logger.Info(ctx, "session created",
		logger.String("id", id),
		logger.Int("rows", sum.Rows),
		logger.Float64("duration", sum.Duration),
	)
	return sum, true, nil
}

// Session describes a stored session.
func (s *Service) Session(ctx context.Context, id string) (repository.Summary, error) {
	sess, err := s.session(ctx, id)
	if err != nil {
		return repository.Summary{}, err
	}
	return repository.Summarize(sess), nil
}

// DeleteSession removes a session.
func (s *Service) DeleteSession(ctx context.Context, id string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info(ctx, "session deleted", logger.String("id", id))
	return nil
}

func (s *Service) session(ctx context.Context, id string) (*repository.Session, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, id)
}

// Frame extracts the frame at t seconds.
func (s *Service) Frame(ctx context.Context, id string, t float64) (model.Frame, error) {
	sess, err := s.session(ctx, id)
	if err != nil {
		return model.Frame{}, err
	}
	return s.extract(sess, t)
}

// Dominance extracts the frame at t and builds its dominance regions.
func (s *Service) Dominance(ctx context.Context, id string, t float64) (model.Frame, dominance.Result, error) {
	sess, err := s.session(ctx, id)
	if err != nil {
		return model.Frame{}, dominance.Result{}, err
	}
	f, err := s.extract(sess, t)
	if err != nil {
		return model.Frame{}, dominance.Result{}, err
	}
	return f, s.regions(ctx, f), nil
}

// Render draws the frame at t as PNG.
func (s *Service) Render(ctx context.Context, id string, t float64, o render.Options) ([]byte, error) {
	sess, err := s.session(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.renderAt(ctx, sess, t, o, nil)
}

// PitchControl draws the frame at t over the probability surface g. The
// grid is validated for shape only; values are expected in [0, 1].
func (s *Service) PitchControl(ctx context.Context, id string, t float64, g model.ProbabilityGrid, o render.Options) ([]byte, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	sess, err := s.session(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.renderAt(ctx, sess, t, o, &g)
}

// RenderSequence renders every timestamp in times on the render worker
// pool. Frames come back in the order of times. Any failed frame fails the
// whole sequence.
func (s *Service) RenderSequence(ctx context.Context, id string, times []float64, o render.Options) ([][]byte, error) {
	sess, err := s.session(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(times) > s.maxBatchFrames {
		return nil, fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, len(times), s.maxBatchFrames)
	}
	if len(times) == 0 {
		return nil, nil
	}

	// index before the workers share the session
	sess.Table()

	renderFrame := s.frameRenderer
	if renderFrame == nil {
		renderFrame = func(ctx context.Context, sess *repository.Session, t float64, o render.Options) ([]byte, error) {
			return s.renderAt(ctx, sess, t, o, nil)
		}
	}

	out := make([][]byte, len(times))
	errs := make([]error, len(times))
	handler := worker.HandlerFunc(func(ctx context.Context, j queue.Job) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%w: %v", ErrRenderPanic, r)
			}
			errs[j.Seq] = err
		}()
		out[j.Seq], err = renderFrame(ctx, sess, j.Timestamp, o)
		return err
	})

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	q := queue.NewInMemoryQueue(queue.WithCapacity(min(s.queueSize, len(times))))
	pool := worker.NewPool(min(s.workerCount, len(times)), q, handler,
		worker.WithLogger(s.logger.Named("render")))
	pool.Start(runCtx)

	for i, t := range times {
		for !q.Enqueue(runCtx, queue.Job{Seq: i, Timestamp: t}) {
			select {
			case <-runCtx.Done():
				if err := pool.Shutdown(context.WithoutCancel(ctx)); err != nil {
					s.logger.Warn(ctx, "render pool shutdown", logger.Error(err))
				}
				return nil, ctx.Err()
			case <-time.After(enqueueBackoff):
			}
		}
	}
	_ = q.Close()
	pool.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for i, err := range errs {
		if err == nil && out[i] == nil {
			err = ErrFrameMissing
		}
		if err != nil {
			return nil, fmt.Errorf("frame %d (t=%.3f): %w", i, times[i], err)
		}
	}
	return out, nil
}

// Timestamps lists from, from+step, ... up to and including to. A list
// longer than limit fails with ErrBatchTooLarge before anything is
// allocated; limit < 1 means no cap.
func Timestamps(from, to, step float64, limit int) ([]float64, error) {
	switch {
	case math.IsNaN(from) || math.IsNaN(to) || math.IsInf(to, 0):
		return nil, fmt.Errorf("%w: non-finite bounds", ErrInvalidRange)
	case from < 0 || to < from:
		return nil, fmt.Errorf("%w: from %v to %v", ErrInvalidRange, from, to)
	case step <= 0 || math.IsNaN(step) || math.IsInf(step, 0):
		return nil, fmt.Errorf("%w: step %v", ErrInvalidRange, step)
	}
	count := math.Floor((to-from)/step+1e-6) + 1
	if limit > 0 && count > float64(limit) {
		return nil, fmt.Errorf("%w: %.0f > %d", ErrBatchTooLarge, count, limit)
	}
	if count > maxTimestamps {
		return nil, fmt.Errorf("%w: %.0f timestamps", ErrBatchTooLarge, count)
	}
	out := make([]float64, int(count))
	for i := range out {
		out[i] = from + float64(i)*step
	}
	return out, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":        s.started,
		"fieldLength":    s.fieldLength,
		"fieldWidth":     s.fieldWidth,
		"pitchStyle":     s.pitchStyle,
		"workerCount":    s.workerCount,
		"queueSize":      s.queueSize,
		"maxBatchFrames": s.maxBatchFrames,
		"maxPlayback":    s.maxPlayback,
		"dedupeSize":     s.dedupeSize,
	}
	if s.started {
		n := s.store.Count(context.Background())
		stats["sessions"] = n
		stats["idempotencyKeys"] = s.deduper.Size()
		metrics.UpdateSessionsStored(n)
	}
	return stats
}

func (s *Service) extract(sess *repository.Session, t float64) (model.Frame, error) {
	f, err := frame.Extract(sess.Table(), t, sess.SampleRate)
	if err != nil {
		metrics.RecordExtractionError(extractionKind(err))
		return model.Frame{}, err
	}
	metrics.RecordFrameExtracted()
	return f, nil
}

func extractionKind(err error) string {
	switch {
	case errors.Is(err, frame.ErrOutOfRange):
		return "out_of_range"
	case errors.Is(err, frame.ErrDataIntegrity):
		return "data_integrity"
	case errors.Is(err, frame.ErrInvalidSampleRate):
		return "invalid_sample_rate"
	default:
		return "other"
	}
}

func (s *Service) regions(ctx context.Context, f model.Frame) dominance.Result {
	start := time.Now()
	res := s.builder.Build(f)
	metrics.RecordTessellationLatency(float64(time.Since(start).Microseconds()) / 1000)
	metrics.RecordRegionsBuilt(len(res.Regions))
	for reason, n := range res.Dropped {
		metrics.RecordCellsDropped(string(reason), n)
	}
	if n := res.Dropped[dominance.DropCoincident]; n > 0 {
		s.logger.Debug(ctx, "players share a position", logger.Int("sample", f.Sample), logger.Int("players", n))
	}
	return res
}

func (s *Service) renderAt(ctx context.Context, sess *repository.Session, t float64, o render.Options, g *model.ProbabilityGrid) ([]byte, error) {
	f, err := s.extract(sess, t)
	if err != nil {
		return nil, err
	}

	sc := render.Scene{Frame: f, Grid: g}
	if o.Dominance {
		sc.Regions = s.regions(ctx, f).Regions
	}
	r, kind := s.renderer, "frame"
	if g != nil {
		r, kind = s.control, "pitch_control"
	}

	start := time.Now()
	c := raster.New(s.imageWidth, s.imageHeight, r.Viewport())
	if err := r.Render(c, sc, o); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := c.EncodePNG(&buf); err != nil {
		metrics.RecordErrorByComponent("service", "png_encode")
		return nil, fmt.Errorf("encoding frame: %w", err)
	}
	metrics.RecordFrameRendered(kind)
	metrics.RecordRenderLatency(float64(time.Since(start).Microseconds()) / 1000)
	return buf.Bytes(), nil
}
