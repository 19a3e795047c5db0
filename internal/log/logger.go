package log

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config captures options for configuring the process logger.
type Config struct {
	Level   string    // optional log level ("debug", "info", etc.)
	Output  io.Writer // optional writer (defaults to os.Stdout)
	Service string    // optional service name attached to every log entry
	Sink    *Sink     // optional in-memory buffer that also receives every entry
}

var (
	mu   sync.RWMutex
	base zerolog.Logger
	sink *Sink
)

// Configure (re)initialises the base logger. Module loggers derived afterwards use the new output;
// the level is process wide and also applies to loggers derived earlier.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()

	level := zerolog.InfoLevel
	if cfg.Level != "" {
		if parsed, err := zerolog.ParseLevel(cfg.Level); err == nil {
			level = parsed
		}
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	writer := cfg.Output
	if writer == nil {
		writer = os.Stdout
	}
	sink = cfg.Sink
	if sink != nil {
		writer = zerolog.MultiLevelWriter(writer, sink)
	}

	service := cfg.Service
	if service == "" {
		service = "historicalmap"
	}

	base = zerolog.New(writer).With().
		Timestamp().
		Str("service", service).
		Logger()
}

// Base returns the configured base logger instance.
func Base() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// WithComponent returns a module logger annotated with the given component name.
func WithComponent(component string) zerolog.Logger {
	return Base().With().Str("component", component).Logger()
}

// SetLevel changes the level shared by every module logger.
func SetLevel(level string) error {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(parsed)
	return nil
}

// Level returns the current process-wide level.
func Level() string {
	return zerolog.GlobalLevel().String()
}

// CurrentSink returns the buffer configured with Configure, if any.
func CurrentSink() *Sink {
	mu.RLock()
	defer mu.RUnlock()
	return sink
}

func init() {
	Configure(Config{})
}
