package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New creates a configured zerolog.Logger.
// level: debug, info, warn, error. pretty: human-readable console output.
func New(level string, pretty bool) zerolog.Logger {
	var w io.Writer = os.Stdout

	if pretty {
		w = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
	}

	return zerolog.New(w).
		Level(ParseLevel(level)).
		With().
		Timestamp().
		Str("service", "payment-failure-monitor").
		Caller().
		Logger()
}

// NewWithWriter creates a logger writing to a custom writer (useful for testing).
func NewWithWriter(level string, w io.Writer) zerolog.Logger {
	return zerolog.New(w).
		Level(ParseLevel(level)).
		With().
		Timestamp().
		Logger()
}

// Activity derives the logger used by the webhook pipeline. Every event it
// emits is handed to hook regardless of base's level; base's level still
// decides what reaches base's output.
func Activity(base zerolog.Logger, hook zerolog.Hook) zerolog.Logger {
	return base.Level(zerolog.TraceLevel).
		With().
		Str("component", "pipeline").
		Logger().
		Hook(hook, outputGate(base.GetLevel()))
}

// outputGate drops events below its level from the output once the hooks
// ahead of it have run.
type outputGate zerolog.Level

func (g outputGate) Run(e *zerolog.Event, level zerolog.Level, _ string) {
	if level < zerolog.Level(g) {
		e.Discard()
	}
}

// ParseLevel maps a config string to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
