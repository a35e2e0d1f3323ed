// Package skribe defines editcore-wide logging types and functions.
//
// Logging happens via slog. Every engine call threads its path and
// operation kind through the context as structured attrs so that a single
// JSON handler at the edge of the process can see "which file, which op"
// without each call site repeating itself.
package skribe

import (
	"context"
	"log/slog"
	"slices"
)

type attrsKey struct{}

// ContextWithAttr returns a context carrying add in addition to any attrs
// already attached to ctx.
func ContextWithAttr(ctx context.Context, add ...slog.Attr) context.Context {
	attrs := slices.Clone(Attrs(ctx))
	attrs = append(attrs, add...)
	return context.WithValue(ctx, attrsKey{}, attrs)
}

// Attrs returns the slog.Attrs attached to ctx via ContextWithAttr, if any.
func Attrs(ctx context.Context) []slog.Attr {
	attrs, _ := ctx.Value(attrsKey{}).([]slog.Attr)
	return attrs
}

// AttrsWrap wraps h so that every record it handles is augmented with the
// attrs found on the record's context.
func AttrsWrap(h slog.Handler) slog.Handler {
	return &augmentHandler{Handler: h}
}

type augmentHandler struct {
	slog.Handler
}

func (h *augmentHandler) Handle(ctx context.Context, r slog.Record) error {
	attrs := Attrs(ctx)
	r.AddAttrs(attrs...)
	return h.Handler.Handle(ctx, r)
}
