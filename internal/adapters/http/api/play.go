package api

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	service "github.com/okian/pitchmap/internal/app"
	"github.com/okian/pitchmap/internal/domain/dominance"
	"github.com/okian/pitchmap/internal/domain/frame"
	"github.com/okian/pitchmap/internal/domain/model"
	"github.com/okian/pitchmap/pkg/logger"
	"github.com/paulmach/orb/geojson"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	maxSpeed = 100.0
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024 * 16,
	// Origins are governed by the CORS configuration of the HTTP routes.
	CheckOrigin: func(*http.Request) bool { return true },
}

// PlayHandler streams a session as a sequence of frames over a WebSocket.
type PlayHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewPlayHandler creates a playback handler.
func NewPlayHandler(deps Dependencies, l logger.Logger) *PlayHandler {
	return &PlayHandler{deps: deps, logger: l.Named("play")}
}

// playMessage is one streamed frame. Error is set on the final message when
// playback stops early.
type playMessage struct {
	T       float64                    `json:"t"`
	Frame   *model.Frame               `json:"frame,omitempty"`
	Regions *geojson.FeatureCollection `json:"regions,omitempty"`
	Error   *errorResponse             `json:"error,omitempty"`
}

// HandlePlay handles GET /sessions/{id}/play?from=&to=&step=&speed=.
// The defaults play the whole session at one message per sample in real
// time; speed scales the pacing.
func (h *PlayHandler) HandlePlay(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	rd, err := h.deps.Reader(ctx, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	times, speed, err := playRange(r, rd)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	regions, err := boolParam(r, "dominance", true)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn(ctx, "websocket upgrade failed", logger.Error(err))
		return
	}
	defer func() { _ = conn.Close() }()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go drain(conn, cancel)

	h.logger.Debug(ctx, "playback started", logger.String("session", id), logger.Int("frames", len(times)))
	if err := h.stream(ctx, conn, rd, times, speed, regions); err != nil {
		h.logger.Debug(ctx, "playback stopped", logger.String("session", id), logger.Error(err))
		return
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "end of session"))
}

func (h *PlayHandler) stream(ctx context.Context, conn *websocket.Conn, rd *service.Reader, times []float64, speed float64, regions bool) error {
	if len(times) == 0 {
		return nil
	}
	pace := time.Duration(float64(time.Second) * interval(times) / speed)
	if pace <= 0 {
		pace = time.Millisecond
	}
	ticker := time.NewTicker(pace)
	defer ticker.Stop()

	for i, t := range times {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		}
		msg := message(ctx, rd, t, regions)
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(msg); err != nil {
			return err
		}
		if msg.Error != nil {
			return nil
		}
	}
	return nil
}

func message(ctx context.Context, rd *service.Reader, t float64, regions bool) playMessage {
	var (
		f   model.Frame
		res dominance.Result
		err error
	)
	if regions {
		f, res, err = rd.Dominance(ctx, t)
	} else {
		f, err = rd.Frame(t)
	}
	if err != nil {
		_, code := statusFor(err)
		return playMessage{T: t, Error: &errorResponse{Code: code, Message: err.Error()}}
	}
	msg := playMessage{T: t, Frame: &f}
	if regions {
		msg.Regions = dominance.FeatureCollection(f, res)
	}
	return msg
}

// drain reads and discards client messages so control frames are handled,
// cancelling playback once the client goes away.
func drain(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}

// playRange reads from, to, step and speed. The range defaults to the whole
// session at one frame per sample and never runs past its last sample.
func playRange(r *http.Request, rd *service.Reader) ([]float64, float64, error) {
	sum := rd.Summary()
	from, err := floatParam(r, "from", frame.Timestamp(sum.FirstSample, sum.SampleRate), false)
	if err != nil {
		return nil, 0, err
	}
	to, err := floatParam(r, "to", math.Inf(1), false)
	if err != nil {
		return nil, 0, err
	}
	step, err := floatParam(r, "step", 0, false)
	if err != nil {
		return nil, 0, err
	}
	if r.URL.Query().Get("step") != "" && step <= 0 {
		return nil, 0, fmt.Errorf("%w: step %v", ErrBadRequest, step)
	}
	speed, err := floatParam(r, "speed", 1, false)
	if err != nil {
		return nil, 0, err
	}
	speed = math.Min(math.Max(speed, 1e-3), maxSpeed)
	times, err := rd.Timestamps(from, to, step)
	if err != nil {
		return nil, 0, err
	}
	return times, speed, nil
}

func interval(times []float64) float64 {
	if len(times) < 2 {
		return 0
	}
	return times[1] - times[0]
}
