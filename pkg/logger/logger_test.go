package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given the global logger", t, func() {
		Convey("When initialized with defaults", func() {
			So(Init(), ShouldBeNil)

			Convey("Then Get returns a usable logger", func() {
				So(Get(), ShouldNotBeNil)
				So(Sync(), ShouldBeNil)
			})
		})

		Convey("When initialized with an unknown format", func() {
			err := Init(WithFormat("xml"))

			Convey("Then it reports an error", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "unknown log format")
			})
		})

		Convey("When initialized with an unknown level", func() {
			err := Init(WithLevel("loud"))

			Convey("Then it reports an error", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestLoggerOutput(t *testing.T) {
	Convey("Given a JSON logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(Init(WithWriter(&buf), WithFormat("json"), WithLevel("debug")), ShouldBeNil)
		ctx := context.Background()

		Convey("When logging with fields", func() {
			Named("render").Info(ctx, "frame rendered", String("session", "abc"), Int("sample", 200), Error(errors.New("boom")))

			Convey("Then the record carries message, group, fields and source", func() {
				var rec map[string]any
				So(json.Unmarshal(buf.Bytes(), &rec), ShouldBeNil)
				So(rec["msg"], ShouldEqual, "frame rendered")
				group, ok := rec["render"].(map[string]any)
				So(ok, ShouldBeTrue)
				So(group["session"], ShouldEqual, "abc")
				So(group["sample"], ShouldEqual, 200.0)
				So(group["source"], ShouldContainSubstring, "logger_test.go")
			})
		})

		Convey("When the level is raised above the message level", func() {
			So(SetLevelString("error"), ShouldBeNil)
			Get().Info(ctx, "hidden")
			Get().Warn(ctx, "hidden too")

			Convey("Then nothing is written", func() {
				So(strings.TrimSpace(buf.String()), ShouldBeEmpty)
			})
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given level names", t, func() {
		for _, lvl := range []string{"debug", "info", "", "warn", "WARNING", " error "} {
			So(SetLevelString(lvl), ShouldBeNil)
		}
		So(SetLevelString("verbose"), ShouldNotBeNil)
	})
}

func TestNop(t *testing.T) {
	Convey("Given the nop logger", t, func() {
		l := Nop()

		Convey("Then all methods are safe to call", func() {
			So(func() {
				ctx := context.Background()
				l.Info(ctx, "x")
				l.Debug(ctx, "x")
				l.Warn(ctx, "x")
				l.Error(ctx, "x")
				l.Named("child").Info(ctx, "y")
			}, ShouldNotPanic)
		})
	})
}
