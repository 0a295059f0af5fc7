package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Options selects the handler the service logs through. Zero values mean
// info-level JSON.
type Options struct {
	Level  string // debug | info | warn | error
	Format string // json | text
}

// NewLogger builds the process-wide logger and installs it as the slog
// default so code without an injected logger still lands in the same sink.
func NewLogger(service string, opts Options) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{
		Level:     parseLevel(opts.Level),
		AddSource: true, // critical for incident debugging
	}
	var handler slog.Handler
	if strings.EqualFold(opts.Format, "text") {
		handler = slog.NewTextHandler(os.Stdout, handlerOpts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, handlerOpts)
	}

	logger := slog.New(handler).With(
		slog.String("service", service),
		slog.Int("pid", os.Getpid()),
	)
	slog.SetDefault(logger)
	return logger
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
