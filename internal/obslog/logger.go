// Package obslog provides the structured logger shared by the config
// loader, the engine, and the HTTP façade.
//
// It wraps log/slog with the layered output Chorus's teacher lineage
// uses elsewhere in the stack: stderr by default, an optional JSON log
// file for operators who want one, and a consistent "service" field on
// every record so multi-process deployments can be filtered in
// aggregate log viewers.
//
// # Redaction
//
// This package does not redact anything automatically. Callers that log
// upstream request/response payloads must call Redact on credentials
// and TruncatePrompt on prompt/message bodies first.
package obslog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Level is Chorus's log severity, ordered Debug < Info < Warn < Error.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) toSlog() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Config configures a Logger. The zero value logs Debug+ (the zero
// Level is LevelDebug) to stderr as text, tagged with service "chorus".
type Config struct {
	Level   Level
	LogDir  string // when set, also write JSON logs to {LogDir}/{Service}_{date}.log
	Service string
	JSON    bool
	Quiet   bool // suppress stderr; only meaningful with LogDir set
}

// Logger is a thin, concurrency-safe wrapper around *slog.Logger.
type Logger struct {
	slog *slog.Logger
	file *os.File
}

// New builds a Logger from cfg.
func New(cfg Config) *Logger {
	opts := &slog.HandlerOptions{Level: cfg.Level.toSlog()}

	var handlers []slog.Handler
	if !cfg.Quiet {
		if cfg.JSON {
			handlers = append(handlers, slog.NewJSONHandler(os.Stderr, opts))
		} else {
			handlers = append(handlers, slog.NewTextHandler(os.Stderr, opts))
		}
	}

	logger := &Logger{}

	if cfg.LogDir != "" {
		dir := expandHome(cfg.LogDir)
		if err := os.MkdirAll(dir, 0o750); err == nil {
			service := cfg.Service
			if service == "" {
				service = "chorus"
			}
			name := fmt.Sprintf("%s_%s.log", service, time.Now().Format("2006-01-02"))
			if f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640); err == nil {
				logger.file = f
				handlers = append(handlers, slog.NewJSONHandler(f, opts))
			}
		}
	}

	var handler slog.Handler
	switch len(handlers) {
	case 0:
		handler = slog.NewTextHandler(os.Stderr, opts)
	case 1:
		handler = handlers[0]
	default:
		handler = &fanoutHandler{handlers: handlers}
	}

	service := cfg.Service
	if service == "" {
		service = "chorus"
	}
	handler = handler.WithAttrs([]slog.Attr{slog.String("service", service)})

	logger.slog = slog.New(handler)
	return logger
}

// Default returns an Info-level, text-to-stderr logger tagged "chorus".
func Default() *Logger {
	return New(Config{Level: LevelInfo, Service: "chorus"})
}

func (l *Logger) Debug(msg string, args ...any) { l.slog.Debug(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.slog.Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.slog.Warn(msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.slog.Error(msg, args...) }

// With returns a child logger carrying the given attributes on every
// subsequent record, e.g. logger.With("request_id", id).
func (l *Logger) With(args ...any) *Logger {
	return &Logger{slog: l.slog.With(args...), file: l.file}
}

// WithStage is shorthand for With("stage", stage) used throughout the
// engine so every log line names the pipeline stage that emitted it.
func (l *Logger) WithStage(stage string) *Logger { return l.With("stage", stage) }

// Slog exposes the underlying *slog.Logger for callers that need direct
// access to slog features (LogAttrs, groups).
func (l *Logger) Slog() *slog.Logger { return l.slog }

// Close releases the log file, if one was opened.
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// fanoutHandler fans a record out to every wrapped handler that accepts it.
type fanoutHandler struct {
	handlers []slog.Handler
}

func (h *fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *fanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, r.Level) {
			if err := handler.Handle(ctx, r.Clone()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		next[i] = handler.WithAttrs(attrs)
	}
	return &fanoutHandler{handlers: next}
}

func (h *fanoutHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		next[i] = handler.WithGroup(name)
	}
	return &fanoutHandler{handlers: next}
}

var _ slog.Handler = (*fanoutHandler)(nil)

// expandHome expands a leading "~" to the user's home directory.
func expandHome(path string) string {
	if strings.HasPrefix(path, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
