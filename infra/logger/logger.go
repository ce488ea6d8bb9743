package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	corelogger "github.com/kilianp07/flexbid/core/logger"
)

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// Options control the process-wide log output.
type Options struct {
	// Level is a zerolog level name; empty means info.
	Level string
	// Console selects human readable output. APP_ENV=dev forces it.
	Console bool
	// Out defaults to stdout.
	Out io.Writer
}

var (
	mu   sync.RWMutex
	root = build(Options{})
)

func build(opts Options) zerolog.Logger {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	if opts.Console || strings.ToLower(os.Getenv("APP_ENV")) == "dev" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).With().Timestamp().Logger()
}

// Configure replaces the output used by loggers created afterwards.
func Configure(opts Options) error {
	level := zerolog.InfoLevel
	if opts.Level != "" {
		l, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return err
		}
		level = l
	}
	z := build(opts).Level(level)
	mu.Lock()
	root = z
	mu.Unlock()
	return nil
}

// New returns a Logger for the given component.
func New(component string) Logger {
	mu.RLock()
	defer mu.RUnlock()
	return &ZerologLogger{log: root.With().Str("component", component).Logger()}
}
