package framegraph

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// silentHandler drops every record. Enabled reports false for all levels so
// callers never build the attributes of a disabled record.
type silentHandler struct{}

func (silentHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (silentHandler) Handle(context.Context, slog.Record) error { return nil }
func (h silentHandler) WithAttrs([]slog.Attr) slog.Handler      { return h }
func (h silentHandler) WithGroup(string) slog.Handler           { return h }

var silent = slog.New(silentHandler{})

// current is read by every package on the render thread and may be replaced
// from any goroutine.
var current atomic.Pointer[slog.Logger]

func init() { current.Store(silent) }

// SetLogger routes the log output of framegraph and every sub-package to l.
// framegraph logs nothing until SetLogger is called; nil restores that.
//
// Levels:
//   - [slog.LevelDebug]: slot negotiation, image allocation, GPU pipeline creation
//   - [slog.LevelInfo]: lifecycle events (world built, upscaler backend initialized)
//   - [slog.LevelWarn]: non-fatal issues (upscaler fallback, ignored attribute values)
//
// Example:
//
//	framegraph.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = silent
	}
	current.Store(l)
}

// Logger returns the logger installed by SetLogger. resource, pipeline and
// the modules packages read it through a local slogger helper.
func Logger() *slog.Logger { return current.Load() }
