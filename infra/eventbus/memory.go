package eventbus

import (
	"context"
	"log/slog"
	"sync"

	"github.com/amirasaad/ledgercore/pkg/domain/events"
	"github.com/amirasaad/ledgercore/pkg/eventbus"
)

// MemoryEventBus dispatches synchronously to in-process handlers and keeps a
// copy of everything emitted.
type MemoryEventBus struct {
	handlers  map[events.EventType][]eventbus.HandlerFunc
	mu        sync.RWMutex
	logger    *slog.Logger
	published []*events.Envelope
}

// NewWithMemory creates a new in-memory event bus.
func NewWithMemory(logger *slog.Logger) *MemoryEventBus {
	return &MemoryEventBus{
		handlers:  make(map[events.EventType][]eventbus.HandlerFunc),
		logger:    logger.With("bus", "memory"),
		published: make([]*events.Envelope, 0),
	}
}

// Register adds a handler for a specific event type.
func (b *MemoryEventBus) Register(eventType events.EventType, handler eventbus.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Emit records the envelope and runs every handler registered for its type.
// Handler errors are logged, never returned to the emitter.
func (b *MemoryEventBus) Emit(ctx context.Context, e *events.Envelope) error {
	b.mu.Lock()
	b.published = append(b.published, e)
	handlers := append([]eventbus.HandlerFunc{}, b.handlers[e.EventType]...)
	b.mu.Unlock()

	for _, handler := range handlers {
		if err := handler(ctx, e); err != nil {
			b.logger.Error("handler error", "event_type", e.EventType, "correlation_id", e.CorrelationID, "error", err)
		}
	}
	return nil
}

// ClearPublished drops the recorded envelopes.
func (b *MemoryEventBus) ClearPublished() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = make([]*events.Envelope, 0)
}

// Published returns a snapshot of the recorded envelopes.
func (b *MemoryEventBus) Published() []*events.Envelope {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]*events.Envelope{}, b.published...)
}

// PublishedOf filters the recorded envelopes by type.
func (b *MemoryEventBus) PublishedOf(eventType events.EventType) []*events.Envelope {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var out []*events.Envelope
	for _, e := range b.published {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

var _ eventbus.Bus = (*MemoryEventBus)(nil)

type delivery struct {
	ctx context.Context
	env *events.Envelope
}

// MemoryAsyncEventBus queues envelopes and runs handlers on background
// goroutines.
type MemoryAsyncEventBus struct {
	handlers map[events.EventType][]eventbus.HandlerFunc
	mu       sync.RWMutex
	eventCh  chan delivery
	wg       sync.WaitGroup
	once     sync.Once
	log      *slog.Logger
}

// NewWithMemoryAsync creates an asynchronous in-memory bus with the given
// queue size.
func NewWithMemoryAsync(logger *slog.Logger, queueSize int) *MemoryAsyncEventBus {
	if queueSize <= 0 {
		queueSize = 100
	}
	b := &MemoryAsyncEventBus{
		handlers: make(map[events.EventType][]eventbus.HandlerFunc),
		eventCh:  make(chan delivery, queueSize),
		log:      logger.With("bus", "memory-async"),
	}
	go b.process()
	return b
}

func (b *MemoryAsyncEventBus) Register(eventType events.EventType, handler eventbus.HandlerFunc) {
	b.mu.Lock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	b.mu.Unlock()
}

// Emit enqueues the envelope. It blocks while the queue is full unless ctx
// is done first.
func (b *MemoryAsyncEventBus) Emit(ctx context.Context, e *events.Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.wg.Add(1)
	select {
	case b.eventCh <- delivery{ctx: context.WithoutCancel(ctx), env: e}:
		return nil
	case <-ctx.Done():
		b.wg.Done()
		return ctx.Err()
	}
}

// Wait blocks until every queued envelope has been handled.
func (b *MemoryAsyncEventBus) Wait() {
	b.wg.Wait()
}

// Close stops accepting work once the queue drains.
func (b *MemoryAsyncEventBus) Close() error {
	b.once.Do(func() {
		b.wg.Wait()
		close(b.eventCh)
	})
	return nil
}

func (b *MemoryAsyncEventBus) process() {
	for d := range b.eventCh {
		go func(d delivery) {
			defer b.wg.Done()
			b.mu.RLock()
			handlers := append([]eventbus.HandlerFunc{}, b.handlers[d.env.EventType]...)
			b.mu.RUnlock()
			for _, handler := range handlers {
				func() {
					defer func() {
						if r := recover(); r != nil {
							b.log.Error("panic recovered in event handler", "type", d.env.EventType, "panic", r)
						}
					}()
					if err := handler(d.ctx, d.env); err != nil {
						b.log.Error("failed to process event", "type", d.env.EventType, "correlation_id", d.env.CorrelationID, "error", err)
					}
				}()
			}
		}(d)
	}
}

var _ eventbus.Bus = (*MemoryAsyncEventBus)(nil)
