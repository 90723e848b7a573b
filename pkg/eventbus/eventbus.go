package eventbus

import (
	"context"

	"github.com/amirasaad/ledgercore/pkg/domain/events"
)

// HandlerFunc processes a single delivered event.
type HandlerFunc func(ctx context.Context, e *events.Envelope) error

// Bus publishes envelopes and routes them to handlers registered by type.
type Bus interface {
	Emit(ctx context.Context, e *events.Envelope) error
	Register(eventType events.EventType, handler HandlerFunc)
}
