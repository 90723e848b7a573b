// Command kafka_smoketest round-trips an envelope through the Kafka event bus
// to verify a local cluster.
package main

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	infrabus "github.com/amirasaad/ledgercore/infra/eventbus"
	"github.com/amirasaad/ledgercore/pkg/domain/events"
	"github.com/google/uuid"
)

// RunSmokeTest emits an ALIAS_RESOLUTION_REQUEST on an isolated topic prefix
// and waits for the bus to deliver it back.
func RunSmokeTest() error {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	brokers := strings.TrimSpace(os.Getenv("BROKERS"))
	if brokers == "" {
		brokers = "localhost:9093,localhost:9092"
	}
	cfg := infrabus.DefaultKafkaEventBusConfig()
	cfg.GroupID = "ledgercore-smoketest"
	cfg.TopicPrefix = "ledgercore.smoketest"
	if groupID := strings.TrimSpace(os.Getenv("GROUP_ID")); groupID != "" {
		cfg.GroupID = groupID
	}

	bus, err := infrabus.NewWithKafka(brokers, logger, cfg)
	if err != nil {
		logger.Error("connect failed", "error", err)
		return err
	}
	defer func() { _ = bus.Close() }()

	correlationID := uuid.NewString()
	received := make(chan *events.Envelope, 1)
	bus.Register(events.EventTypeAliasResolutionRequest, func(_ context.Context, e *events.Envelope) error {
		if e.CorrelationID == correlationID {
			select {
			case received <- e:
			default:
			}
		}
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	env := events.New(events.EventTypeAliasResolutionRequest, events.SourceCRM, correlationID, "smoke-user",
		map[string]any{"alias": "smoketest"})
	if err := bus.Emit(ctx, env); err != nil {
		logger.Error("emit failed", "error", err)
		return err
	}
	logger.Info("produced", "event_type", env.Type(), "correlation_id", correlationID)

	select {
	case e := <-received:
		logger.Info("consumed", "event_type", e.Type(), "timestamp", e.Timestamp)
		return nil
	case <-ctx.Done():
		logger.Error("no message received", "error", ctx.Err())
		return ctx.Err()
	}
}

func main() {
	if err := RunSmokeTest(); err != nil {
		os.Exit(1)
	}
}
