// Package config defines service configuration and how it is loaded.
package config

import (
	"runtime"
)

// Session store backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// FieldLength and FieldWidth are the real pitch dimensions in metres.
	FieldLength float64 `koanf:"field_length"`
	FieldWidth  float64 `koanf:"field_width"`

	// SampleRate is used for uploads that do not state one.
	SampleRate float64 `koanf:"sample_rate"`

	ImageWidth     int    `koanf:"image_width"`
	ImageHeight    int    `koanf:"image_height"`
	PitchStyle     string `koanf:"pitch_style"`
	TextColor      string `koanf:"text_color"`
	HighlightColor string `koanf:"highlight_color"`

	// StoreBackend selects where sessions live: memory or redis.
	StoreBackend      string `koanf:"store_backend"`
	RedisAddr         string `koanf:"redis_addr"`
	RedisPassword     string `koanf:"redis_password"`
	RedisDB           int    `koanf:"redis_db"`
	SessionTTLMinutes int    `koanf:"session_ttl_minutes"`

	// RenderWorkers bounds how many frames of one sequence render at once.
	RenderWorkers   int `koanf:"render_workers"`
	RenderQueueSize int `koanf:"render_queue_size"`
	MaxBatchFrames  int `koanf:"max_batch_frames"`

	// MaxPlaybackFrames caps the frames one WebSocket playback streams.
	MaxPlaybackFrames int `koanf:"max_playback_frames"`

	// DedupeSize sets how many upload idempotency keys are remembered.
	DedupeSize int `koanf:"dedupe_size"`

	CORSOrigins []string `koanf:"cors_origins"`
}

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":9080",
		FieldLength:       105,
		FieldWidth:        68,
		SampleRate:        20,
		ImageWidth:        1280,
		ImageHeight:       720,
		PitchStyle:        "classic",
		TextColor:         "white",
		HighlightColor:    "yellow",
		StoreBackend:      BackendMemory,
		RedisAddr:         "localhost:6379",
		SessionTTLMinutes: 120,
		RenderWorkers:     runtime.NumCPU(),
		RenderQueueSize:   1024,
		MaxBatchFrames:    2000,
		MaxPlaybackFrames: 200_000,
		DedupeSize:        10_000,
		CORSOrigins:       []string{"*"},
	}
}
