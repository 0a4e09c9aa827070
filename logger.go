package deepzoom

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// The Enabled method returns false so the caller skips message formatting
// entirely, making disabled logging effectively zero-cost.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	l := newNopLogger()
	loggerPtr.Store(l)
}

// SetLogger configures the logger for deepzoom and its sub-packages.
// By default deepzoom produces no log output. Pass nil to restore the
// silent default.
//
// SetLogger is safe for concurrent use: it stores the new logger
// atomically. Engines created after the call pick up the new logger;
// existing engines keep the one they were built with.
//
// Log levels used:
//   - [slog.LevelDebug]: per-frame decisions (mode, drift, skip counts)
//   - [slog.LevelInfo]: reference recomputation and re-referencing events
//   - [slog.LevelWarn]: quality degradation (stale orbit reuse, frozen series)
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the current package logger. Sub-packages receive it via
// engine construction rather than reading it directly, to keep them free
// of import cycles.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
