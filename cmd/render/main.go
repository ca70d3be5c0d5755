// Command render writes one PNG per timestamp of a tracking session.
//
//	render -demo -from 0 -to 5 -out frames
//	render -input rows.json -rate 25 -dominance -vectors -out frames
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	app "github.com/okian/pitchmap/internal/app"
	"github.com/okian/pitchmap/internal/domain/model"
	"github.com/okian/pitchmap/internal/render"
	"github.com/okian/pitchmap/internal/synthetic"
	"github.com/okian/pitchmap/pkg/logger"
)

// frames rendered per RenderSequence call
const chunkSize = 256

type options struct {
	input     string
	demo      bool
	seed      uint64
	rate      float64
	from      float64
	to        float64
	step      float64
	out       string
	vectors   bool
	numbers   bool
	dominance bool
	timeLabel bool
	style     string
	width     int
	height    int
	workers   int
	logLevel  string
}

func main() {
	var o options
	flag.StringVar(&o.input, "input", "", "tracking rows as JSON: an array of rows or {\"sample_rate\", \"rows\"}")
	flag.BoolVar(&o.demo, "demo", false, "render generated demo play instead of -input")
	flag.Uint64Var(&o.seed, "seed", 1, "seed for -demo")
	flag.Float64Var(&o.rate, "rate", synthetic.DefaultSampleRate, "samples per second when the input does not state one")
	flag.Float64Var(&o.from, "from", 0, "first timestamp in seconds")
	flag.Float64Var(&o.to, "to", -1, "last timestamp in seconds, clamped to the end of data (default: end of data)")
	flag.Float64Var(&o.step, "step", 0, "seconds between frames (default: one sample)")
	flag.StringVar(&o.out, "out", "frames", "output directory")
	flag.BoolVar(&o.vectors, "vectors", false, "draw velocity arrows")
	flag.BoolVar(&o.numbers, "numbers", true, "draw jersey numbers")
	flag.BoolVar(&o.dominance, "dominance", false, "fill dominance regions")
	flag.BoolVar(&o.timeLabel, "time", false, "draw the time label")
	flag.StringVar(&o.style, "style", "classic", "pitch style: classic, green or white")
	flag.IntVar(&o.width, "width", 1280, "image width in pixels")
	flag.IntVar(&o.height, "height", 720, "image height in pixels")
	flag.IntVar(&o.workers, "workers", runtime.NumCPU(), "frames rendered in parallel")
	flag.StringVar(&o.logLevel, "log-level", "info", "log level")
	flag.Parse()

	if err := logger.Init(logger.WithWriter(os.Stderr), logger.WithLevel(o.logLevel)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	n, err := run(ctx, o, logger.Get())
	if err != nil {
		logger.Get().Error(ctx, "render failed", logger.Error(err))
		stop()
		os.Exit(1)
	}
	logger.Get().Info(ctx, "frames written", logger.Int("count", n), logger.String("dir", o.out))
}

func run(ctx context.Context, o options, log logger.Logger) (int, error) {
	up, err := loadUpload(o)
	if err != nil {
		return 0, err
	}

	svc := app.New(
		app.WithLogger(log),
		app.WithDefaultSampleRate(o.rate),
		app.WithImageSize(o.width, o.height),
		app.WithPitchStyle(o.style),
		app.WithRenderWorkers(o.workers),
		app.WithMaxBatchFrames(chunkSize),
	)
	if err := svc.Start(ctx); err != nil {
		return 0, err
	}
	defer svc.Stop()

	sum, _, err := svc.CreateSession(ctx, "", up)
	if err != nil {
		return 0, fmt.Errorf("loading session: %w", err)
	}

	rd, err := svc.Reader(ctx, sum.ID)
	if err != nil {
		return 0, err
	}
	to := o.to
	if to < 0 {
		to = math.Inf(1)
	}
	times, err := rd.Timestamps(o.from, to, math.Max(o.step, 0))
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(o.out, 0o755); err != nil {
		return 0, fmt.Errorf("creating %s: %w", o.out, err)
	}

	ro := render.Options{Vectors: o.vectors, Numbers: o.numbers, Dominance: o.dominance, Time: o.timeLabel}
	log.Info(ctx, "rendering",
		logger.String("session", sum.ID),
		logger.Int("frames", len(times)),
		logger.Float64("from", o.from),
		logger.Float64("to", times[len(times)-1]),
		logger.Int("workers", o.workers))

	start := time.Now()
	written := 0
	for lo := 0; lo < len(times); lo += chunkSize {
		hi := min(lo+chunkSize, len(times))
		images, err := svc.RenderSequence(ctx, sum.ID, times[lo:hi], ro)
		if err != nil {
			return written, err
		}
		for i, b := range images {
			name := filepath.Join(o.out, fmt.Sprintf("frame_%05d.png", lo+i))
			if err := os.WriteFile(name, b, 0o644); err != nil {
				return written, fmt.Errorf("writing %s: %w", name, err)
			}
			written++
		}
		log.Debug(ctx, "chunk written", logger.Int("frames", written), logger.Duration("elapsed", time.Since(start)))
	}
	return written, nil
}

func loadUpload(o options) (app.Upload, error) {
	if o.demo {
		rows := synthetic.Generate(synthetic.WithSeed(o.seed), synthetic.WithSampleRate(o.rate))
		return app.Upload{SampleRate: o.rate, Rows: rows}, nil
	}
	if o.input == "" {
		return app.Upload{}, errors.New("one of -input or -demo is required")
	}
	raw, err := os.ReadFile(o.input)
	if err != nil {
		return app.Upload{}, fmt.Errorf("reading %s: %w", o.input, err)
	}
	return decodeUpload(raw)
}

// decodeUpload accepts either a bare row array or an upload object.
func decodeUpload(raw []byte) (app.Upload, error) {
	var rows []model.Row
	if err := json.Unmarshal(raw, &rows); err == nil {
		return app.Upload{Rows: rows}, nil
	}
	var up app.Upload
	if err := json.Unmarshal(raw, &up); err != nil {
		return app.Upload{}, fmt.Errorf("decoding tracking rows: %w", err)
	}
	return up, nil
}
