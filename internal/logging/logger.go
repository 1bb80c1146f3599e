// Package logging defines the structured-logging interface used across
// QuickCollab and its slog and logrus backends.
package logging

import (
	"context"
	"io"
	"log/slog"

	"github.com/sirupsen/logrus"
)

// Logger is a context-aware, structured logger.
//
// The variadic args are key-value pairs:
//
//	log.Info(ctx, "board opened", "board_id", id, "tasks", n)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given pairs.
	With(args ...any) Logger
}

// Backend names accepted by New.
const (
	FormatText   = "text"
	FormatJSON   = "json"
	FormatLogrus = "logrus"
)

// New builds a Logger writing to w. Unknown formats fall back to text.
func New(format string, w io.Writer, debug bool) Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	switch format {
	case FormatJSON:
		return NewSlogLogger(slog.New(slog.NewJSONHandler(w, opts)))
	case FormatLogrus:
		l := logrus.New()
		l.SetOutput(w)
		l.SetFormatter(&logrus.JSONFormatter{})
		if debug {
			l.SetLevel(logrus.DebugLevel)
		}
		return NewLogrusLogger(l)
	default:
		return NewSlogLogger(slog.New(slog.NewTextHandler(w, opts)))
	}
}

type fieldsKey struct{}

// ContextWith returns a copy of ctx carrying key-value pairs that every
// backend adds to the records logged with it.
func ContextWith(ctx context.Context, args ...any) context.Context {
	prev := contextFields(ctx)
	merged := make([]any, 0, len(prev)+len(args))
	merged = append(append(merged, prev...), args...)
	return context.WithValue(ctx, fieldsKey{}, merged)
}

func contextFields(ctx context.Context) []any {
	if ctx == nil {
		return nil
	}
	f, _ := ctx.Value(fieldsKey{}).([]any)
	return f
}

// withContextFields puts the pairs carried by ctx in front of args.
func withContextFields(ctx context.Context, args []any) []any {
	f := contextFields(ctx)
	if len(f) == 0 {
		return args
	}
	out := make([]any, 0, len(f)+len(args))
	return append(append(out, f...), args...)
}

// Discard returns a Logger that drops everything.
func Discard() Logger {
	return NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}
