package logging

import (
	"context"
	"log/slog"
	"time"
)

// Run identifies the roster run a record belongs to.
type Run struct {
	ID    string
	Start time.Time
}

// runHandler stamps every record with run_id and elapsed_ms before passing it on.
type runHandler struct {
	inner slog.Handler
	run   Run
	now   func() time.Time
}

func newRunHandler(inner slog.Handler, run Run) *runHandler {
	return &runHandler{inner: inner, run: run, now: time.Now}
}

func (h *runHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *runHandler) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(
		slog.String("run_id", h.run.ID),
		slog.Int64("elapsed_ms", h.now().Sub(h.run.Start).Milliseconds()),
	)
	return h.inner.Handle(ctx, r)
}

func (h *runHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &runHandler{inner: h.inner.WithAttrs(attrs), run: h.run, now: h.now}
}

func (h *runHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &runHandler{inner: h.inner.WithGroup(name), run: h.run, now: h.now}
}
