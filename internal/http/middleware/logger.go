package middleware

import (
	"io"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	hlog "historicalmap/internal/log"
)

// Logger writes one JSON line per request to stdout and the log sink.
func Logger() fiber.Handler {
	var w io.Writer = os.Stdout
	if sink := hlog.CurrentSink(); sink != nil {
		w = zerolog.MultiLevelWriter(os.Stdout, sink)
	}
	return LoggerWithWriter(w, time.Local)
}

// LoggerWithWriter logs request_id, method, path, status and latency (ms) to w.
// ts is rendered in loc.
func LoggerWithWriter(w io.Writer, loc *time.Location) fiber.Handler {
	if loc == nil {
		loc = time.UTC
	}
	logger := zerolog.New(w).With().Str("component", "http").Logger()

	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		rid, _ := c.Locals(RequestIDLocalKey).(string)
		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}

		ev := logger.Info()
		if status >= fiber.StatusInternalServerError {
			ev = logger.Error()
		}
		ev.Str("ts", start.In(loc).Format(time.RFC3339Nano)).
			Str("request_id", rid).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Float64("latency", float64(time.Since(start).Microseconds())/1000).
			Msg("request")

		return err
	}
}
