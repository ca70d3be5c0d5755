package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/pitchmap/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

var configEnvVars = []string{
	"PITCHMAP_CONFIG",
	"PITCHMAP_ADDR",
	"PITCHMAP_FIELD_LENGTH",
	"PITCHMAP_FIELD_WIDTH",
	"PITCHMAP_SAMPLE_RATE",
	"PITCHMAP_PITCH_STYLE",
	"PITCHMAP_STORE_BACKEND",
	"PITCHMAP_REDIS_ADDR",
	"PITCHMAP_RENDER_WORKERS",
	"PITCHMAP_IMAGE_WIDTH",
	"PITCHMAP_CORS_ORIGINS",
}

func clearConfigEnvVars() {
	for _, k := range configEnvVars {
		_ = os.Unsetenv(k)
	}
}

func createTempConfigFile(content string) string {
	f, err := os.CreateTemp("", "pitchmap-config-*.yaml")
	if err != nil {
		panic(err)
	}
	defer func() { _ = f.Close() }()
	if _, err := f.WriteString(content); err != nil {
		panic(err)
	}
	return f.Name()
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.FieldLength, convey.ShouldEqual, 105)
				convey.So(cfg.SampleRate, convey.ShouldEqual, 20)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("PITCHMAP_ADDR", ":8080")
			_ = os.Setenv("PITCHMAP_FIELD_LENGTH", "106")
			_ = os.Setenv("PITCHMAP_SAMPLE_RATE", "25")
			_ = os.Setenv("PITCHMAP_PITCH_STYLE", "white")
			_ = os.Setenv("PITCHMAP_RENDER_WORKERS", "3")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.FieldLength, convey.ShouldEqual, 106)
				convey.So(cfg.FieldWidth, convey.ShouldEqual, 68)
				convey.So(cfg.SampleRate, convey.ShouldEqual, 25)
				convey.So(cfg.PitchStyle, convey.ShouldEqual, "white")
				convey.So(cfg.RenderWorkers, convey.ShouldEqual, 3)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			tmpFile := createTempConfigFile(`
addr: ":9090"
field_length: 100
field_width: 64
store_backend: redis
redis_addr: "redis:6379"
cors_origins:
  - "https://example.org"
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("PITCHMAP_CONFIG", tmpFile)

			convey.Convey("Then it should load from the file", func() {
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.FieldLength, convey.ShouldEqual, 100)
				convey.So(cfg.FieldWidth, convey.ShouldEqual, 64)
				convey.So(cfg.StoreBackend, convey.ShouldEqual, config.BackendRedis)
				convey.So(cfg.RedisAddr, convey.ShouldEqual, "redis:6379")
				convey.So(cfg.CORSOrigins, convey.ShouldResemble, []string{"https://example.org"})
			})

			convey.Convey("Then env vars override the file", func() {
				_ = os.Setenv("PITCHMAP_ADDR", ":7070")
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.FieldLength, convey.ShouldEqual, 100)
			})
		})

		convey.Convey("When the config file does not exist", func() {
			_ = os.Setenv("PITCHMAP_CONFIG", "/non/existent/file.yaml")
			cfg, err := config.Load(ctx)

			convey.Convey("Then a load error is returned", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a numeric value does not parse", func() {
			_ = os.Setenv("PITCHMAP_IMAGE_WIDTH", "wide")
			cfg, err := config.Load(ctx)

			convey.Convey("Then a load error is returned", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When values fail validation", func() {
			cases := map[string]string{
				"PITCHMAP_ADDR":          "",
				"PITCHMAP_FIELD_WIDTH":   "-68",
				"PITCHMAP_SAMPLE_RATE":   "0",
				"PITCHMAP_PITCH_STYLE":   "neon",
				"PITCHMAP_STORE_BACKEND": "etcd",
			}
			for k, v := range cases {
				clearConfigEnvVars()
				_ = os.Setenv(k, v)
				cfg, err := config.Load(ctx)
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			}
		})
	})
}

func TestValidate(t *testing.T) {
	convey.Convey("The redis backend needs an address", t, func() {
		cfg := config.New()
		cfg.StoreBackend = config.BackendRedis
		cfg.RedisAddr = ""
		convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
	})

	convey.Convey("Image size must be positive", t, func() {
		cfg := config.New()
		cfg.ImageHeight = 0
		convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
	})
}
