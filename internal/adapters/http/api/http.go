// Package api exposes tracking sessions, frames, dominance regions and
// rendered images over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/okian/pitchmap/internal/adapters/repository"
	service "github.com/okian/pitchmap/internal/app"
	"github.com/okian/pitchmap/internal/domain/dominance"
	"github.com/okian/pitchmap/internal/domain/field"
	"github.com/okian/pitchmap/internal/domain/frame"
	"github.com/okian/pitchmap/internal/domain/model"
	"github.com/okian/pitchmap/internal/render"
	"github.com/okian/pitchmap/pkg/logger"
)

const defaultMaxUploadBytes = 64 << 20

// Dependencies required by HTTP handlers. *service.Service implements it.
type Dependencies interface {
	CreateSession(ctx context.Context, key string, up service.Upload) (repository.Summary, bool, error)
	Session(ctx context.Context, id string) (repository.Summary, error)
	DeleteSession(ctx context.Context, id string) error

	Frame(ctx context.Context, id string, t float64) (model.Frame, error)
	Dominance(ctx context.Context, id string, t float64) (model.Frame, dominance.Result, error)
	Render(ctx context.Context, id string, t float64, o render.Options) ([]byte, error)
	PitchControl(ctx context.Context, id string, t float64, g model.ProbabilityGrid, o render.Options) ([]byte, error)
	// Reader fetches a session once for streaming many frames.
	Reader(ctx context.Context, id string) (*service.Reader, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	sessionsHandler *SessionsHandler
	framesHandler   *FramesHandler
	playHandler     *PlayHandler

	corsOrigins []string
	logger      logger.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithCORSOrigins sets the origins allowed by CORS.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.corsOrigins = origins
		}
	}
}

// WithLogger sets the logger used by the handlers.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{corsOrigins: []string{"*"}}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("api")
	}
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.sessionsHandler = NewSessionsHandler(deps, defaultMaxUploadBytes)
	s.framesHandler = NewFramesHandler(deps, defaultMaxUploadBytes)
	s.playHandler = NewPlayHandler(deps, s.logger)
	return s
}

// Register attaches all API routes to r.
func (s *Server) Register(_ context.Context, r chi.Router) {
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Idempotency-Key"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.instrument(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/stats", s.instrument(s.statsHandler.HandleStats, "stats"))

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.instrument(s.sessionsHandler.HandleCreate, "sessions"))
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.instrument(s.sessionsHandler.HandleGet, "session"))
			r.Delete("/", s.instrument(s.sessionsHandler.HandleDelete, "session"))
			r.Get("/frame", s.instrument(s.framesHandler.HandleFrame, "frame"))
			r.Get("/dominance", s.instrument(s.framesHandler.HandleDominance, "dominance"))
			r.Get("/render", s.instrument(s.framesHandler.HandleRender, "render"))
			r.Post("/pitchcontrol", s.instrument(s.framesHandler.HandlePitchControl, "pitchcontrol"))
			r.Get("/play", s.instrument(s.playHandler.HandlePlay, "play"))
		})
	})
}

// Handler returns a router with every API route registered.
func (s *Server) Handler(ctx context.Context) http.Handler {
	r := chi.NewRouter()
	s.Register(ctx, r)
	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writePNG(w http.ResponseWriter, b []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// statusFor maps service errors to an HTTP status and error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, frame.ErrOutOfRange):
		return http.StatusNotFound, "out_of_range"
	case errors.Is(err, frame.ErrDataIntegrity):
		return http.StatusUnprocessableEntity, "data_integrity"
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, frame.ErrInvalidSampleRate),
		errors.Is(err, repository.ErrInvalidSession),
		errors.Is(err, model.ErrInvalidGrid),
		errors.Is(err, field.ErrConfiguration),
		errors.Is(err, service.ErrInvalidRange),
		errors.Is(err, service.ErrBatchTooLarge):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	writeError(w, status, code, err)
}
