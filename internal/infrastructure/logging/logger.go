package logging

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/nerrad567/gray-logic-controller/internal/infrastructure/config"
)

// Logger wraps slog.Logger and remembers the in-memory Buffer it feeds.
//
// Thread Safety: all methods are safe for concurrent use.
type Logger struct {
	*slog.Logger
	buffer *Buffer
}

// New creates a Logger writing to the sink named by cfg.Output.
func New(cfg config.LoggingConfig, version string) *Logger {
	var output io.Writer = os.Stdout
	if strings.EqualFold(cfg.Output, "stderr") {
		output = os.Stderr
	}
	return NewWithWriter(cfg, version, output)
}

// NewWithWriter creates a Logger writing to w instead of the configured
// output.
func NewWithWriter(cfg config.LoggingConfig, version string, w io.Writer) *Logger {
	level := ParseLevel(cfg.Level)
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	var buffer *Buffer
	if cfg.BufferSize > 0 {
		buffer = NewBuffer(cfg.BufferSize, level)
		handler = teeHandler{handler, buffer}
	}

	handler = handler.WithAttrs([]slog.Attr{
		slog.String("service", "graylogic"),
		slog.String("version", version),
	})

	return &Logger{Logger: slog.New(handler), buffer: buffer}
}

// ParseLevel converts debug, info, warn or error to a slog.Level.
// Unknown names yield info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// With returns a Logger with additional default attributes, sharing the
// same buffer.
//
//	rfLogger := logger.With("component", "rfsocket")
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...), buffer: l.buffer}
}

// Buffer returns the in-memory record buffer, or nil when disabled.
func (l *Logger) Buffer() *Buffer {
	return l.buffer
}

// Default creates a logger for use before configuration is loaded.
func Default() *Logger {
	return New(config.LoggingConfig{
		Level:      "info",
		Format:     "json",
		Output:     "stdout",
		BufferSize: 100,
	}, "dev")
}

// teeHandler sends each record to every handler that accepts its level.
type teeHandler []slog.Handler

func (t teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (t teeHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range t {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r.Clone()); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (t teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(teeHandler, len(t))
	for i, h := range t {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (t teeHandler) WithGroup(name string) slog.Handler {
	out := make(teeHandler, len(t))
	for i, h := range t {
		out[i] = h.WithGroup(name)
	}
	return out
}
