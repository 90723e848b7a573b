package initializer

import (
	"context"
	"log/slog"

	"github.com/amirasaad/ledgercore/pkg/utils"
)

// Attribute keys whose values never reach the log output in clear.
var (
	redactedKeys = map[string]bool{
		"amount":       true,
		"balance":      true,
		"total_amount": true,
	}
	accountKeys = map[string]bool{
		"account_id":       true,
		"from_account":     true,
		"to_account":       true,
		"merchant_account": true,
	}
)

// maskingHandler redacts money amounts and truncates account ids before
// handing records to next.
type maskingHandler struct {
	next slog.Handler
}

func newMaskingHandler(next slog.Handler) slog.Handler {
	return &maskingHandler{next: next}
}

func (h *maskingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *maskingHandler) Handle(ctx context.Context, r slog.Record) error {
	masked := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		masked.AddAttrs(maskAttr(a))
		return true
	})
	return h.next.Handle(ctx, masked)
}

func (h *maskingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		out[i] = maskAttr(a)
	}
	return &maskingHandler{next: h.next.WithAttrs(out)}
}

func (h *maskingHandler) WithGroup(name string) slog.Handler {
	return &maskingHandler{next: h.next.WithGroup(name)}
}

func maskAttr(a slog.Attr) slog.Attr {
	switch {
	case a.Value.Kind() == slog.KindGroup:
		group := a.Value.Group()
		out := make([]any, len(group))
		for i, g := range group {
			out[i] = maskAttr(g)
		}
		return slog.Group(a.Key, out...)
	case redactedKeys[a.Key]:
		return slog.String(a.Key, "***")
	case accountKeys[a.Key]:
		return slog.String(a.Key, utils.MaskAccountID(a.Value.Resolve().String()))
	}
	return a
}
