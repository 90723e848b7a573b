// Package publisher stamps domain envelopes and hands them to the bus. It
// never fails the caller: transport trouble is logged and reported as false.
package publisher

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/amirasaad/ledgercore/pkg/domain/events"
	"github.com/amirasaad/ledgercore/pkg/eventbus"
	"github.com/sony/gobreaker"
)

// BreakerConfig trips the publisher's circuit after ConsecutiveFailures
// failed emits and keeps it open for Timeout.
type BreakerConfig struct {
	ConsecutiveFailures uint32
	Timeout             time.Duration
	MaxRequests         uint32
}

// DefaultBreakerConfig returns the breaker settings used when none are given.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{ConsecutiveFailures: 5, Timeout: 30 * time.Second, MaxRequests: 1}
}

// Publisher emits success and failure envelopes.
type Publisher struct {
	bus     eventbus.Bus
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

// New wraps bus with a circuit breaker.
func New(bus eventbus.Bus, logger *slog.Logger, cfg BreakerConfig) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	defaults := DefaultBreakerConfig()
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = defaults.ConsecutiveFailures
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = defaults.MaxRequests
	}
	log := logger.With("component", "publisher")
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "event-publisher",
		MaxRequests: cfg.MaxRequests,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("🔌 publisher circuit state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return &Publisher{bus: bus, breaker: breaker, logger: log}
}

// PublishSuccess emits eventType with data and reports whether the bus
// accepted it.
func (p *Publisher) PublishSuccess(
	ctx context.Context,
	eventType events.EventType,
	data map[string]any,
	correlationID, source, userID string,
) bool {
	return p.emit(ctx, events.New(eventType, source, correlationID, userID, data))
}

// PublishFailure emits a failure envelope whose data carries
// {"error": {code, message, correlation_id}} merged with extra.
func (p *Publisher) PublishFailure(
	ctx context.Context,
	eventType events.EventType,
	errorCode, errorMessage, correlationID, source, userID string,
	extra map[string]any,
) bool {
	return p.emit(ctx, events.NewFailure(eventType, source, correlationID, userID, errorCode, errorMessage, extra))
}

// State exposes the breaker state for health reporting.
func (p *Publisher) State() gobreaker.State {
	return p.breaker.State()
}

func (p *Publisher) emit(ctx context.Context, env *events.Envelope) bool {
	_, err := p.breaker.Execute(func() (any, error) {
		return nil, p.bus.Emit(ctx, env)
	})
	if err == nil {
		p.logger.Debug("📤 event published", "event_type", env.EventType, "correlation_id", env.CorrelationID)
		return true
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		p.logger.Error("❌ publisher circuit open, event dropped", "event_type", env.EventType, "correlation_id", env.CorrelationID)
		return false
	}
	p.logger.Error("❌ failed to publish event", "event_type", env.EventType, "correlation_id", env.CorrelationID, "error", err)
	return false
}
