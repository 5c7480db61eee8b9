// Package log provides helpers for creating a configured slog.Logger.
//
// Console output always goes to the given writer, normally stderr, so that
// diagnostics never interleave with generated code written to stdout. When a
// log file is provided records are written to both.
package log

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
)

// LevelTrace defines a custom slog level below Debug for very verbose output.
const LevelTrace slog.Level = -8

func ParseLevel(s string) slog.Level {
	switch s {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// Config selects log level, format and destination.
type Config struct {
	Level  string `help:"Log level" enum:"trace,debug,info,warn,error" default:"warn" env:"AUTOEXPR_LOG_LEVEL"`
	Format string `help:"Console log format" enum:"text,json" default:"text" env:"AUTOEXPR_LOG_FORMAT"`
	File   string `help:"Also write logs to this file" type:"path" env:"AUTOEXPR_LOG_FILE"`
}

// MultiHandler fans out records to multiple handlers.
type MultiHandler struct{ hs []slog.Handler }

func (m MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.hs {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m MultiHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range m.hs {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make([]slog.Handler, len(m.hs))
	for i, h := range m.hs {
		out[i] = h.WithAttrs(attrs)
	}
	return MultiHandler{hs: out}
}

func (m MultiHandler) WithGroup(name string) slog.Handler {
	out := make([]slog.Handler, len(m.hs))
	for i, h := range m.hs {
		out[i] = h.WithGroup(name)
	}
	return MultiHandler{hs: out}
}

func newHandler(w io.Writer, format string, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// SetupLogger builds a slog.Logger writing to console and, if cfg.File is
// set, to that file. The returned closers must be closed on exit.
func SetupLogger(cfg Config, console io.Writer) (*slog.Logger, []io.Closer, error) {
	level := ParseLevel(cfg.Level)
	handlers := []slog.Handler{newHandler(console, cfg.Format, level)}
	var closeFiles []io.Closer
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, err
		}
		closeFiles = append(closeFiles, f)
		// Files always get the text format, it is easier to grep.
		handlers = append(handlers, newHandler(f, "text", level))
	}
	if len(handlers) == 1 {
		return slog.New(handlers[0]), closeFiles, nil
	}
	return slog.New(MultiHandler{hs: handlers}), closeFiles, nil
}
