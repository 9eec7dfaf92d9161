package coroutines

import (
	"context"
	"log/slog"
)

// discardHandler is a [slog.Handler] that drops every record, the
// substitute for a `CORO_LOGGING`-gated macro that compiles to nothing:
// here the call sites are always compiled, but cost is a no-op level
// check.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (h discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return h }
func (h discardHandler) WithGroup(string) slog.Handler           { return h }
