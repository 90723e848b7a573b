package publisher_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/amirasaad/ledgercore/infra/eventbus"
	"github.com/amirasaad/ledgercore/internal/fixtures/mocks"
	"github.com/amirasaad/ledgercore/pkg/domain/events"
	"github.com/amirasaad/ledgercore/pkg/publisher"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPublishSuccess(t *testing.T) {
	bus := eventbus.NewWithMemory(logger())
	pub := publisher.New(bus, logger(), publisher.DefaultBreakerConfig())

	ok := pub.PublishSuccess(context.Background(), events.EventTypeTransferCompleted,
		map[string]any{"transaction_id": "txn-1"}, "corr-1", events.SourceCoreBanking, "user-1")
	require.True(t, ok)

	published := bus.Published()
	require.Len(t, published, 1)
	env := published[0]
	assert.Equal(t, events.EnvelopeVersion, env.Version)
	assert.Equal(t, events.EventTypeTransferCompleted, env.EventType)
	assert.Equal(t, "corr-1", env.CorrelationID)
	assert.Equal(t, events.SourceCoreBanking, env.Source)
	assert.Equal(t, "user-1", env.UserID)
	assert.Equal(t, "txn-1", env.Data["transaction_id"])
	assert.WithinDuration(t, time.Now().UTC(), env.Timestamp, time.Minute)
}

func TestPublishFailure(t *testing.T) {
	bus := eventbus.NewWithMemory(logger())
	pub := publisher.New(bus, logger(), publisher.DefaultBreakerConfig())

	ok := pub.PublishFailure(context.Background(), events.EventTypeTransferFailed,
		"INSUFFICIENT_FUNDS", "Insufficient funds", "corr-2", events.SourceCoreBanking, "user-1",
		map[string]any{"request_id": "req-1"})
	require.True(t, ok)

	env := bus.Published()[0]
	assert.Equal(t, "req-1", env.Data["request_id"])
	payload, isPayload := env.Data["error"].(events.ErrorPayload)
	require.True(t, isPayload)
	assert.Equal(t, "INSUFFICIENT_FUNDS", payload.Code)
	assert.Equal(t, "Insufficient funds", payload.Message)
	assert.Equal(t, "corr-2", payload.CorrelationID)
}

func TestPublish_TransportErrorReturnsFalse(t *testing.T) {
	bus := mocks.NewMockBus(t)
	bus.EXPECT().Emit(mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()
	pub := publisher.New(bus, logger(), publisher.DefaultBreakerConfig())

	assert.False(t, pub.PublishSuccess(context.Background(), events.EventTypePaymentRequest, nil, "c", events.SourceMarketplace, ""))
}

func TestPublish_OpenCircuitSkipsBus(t *testing.T) {
	bus := mocks.NewMockBus(t)
	bus.EXPECT().Emit(mock.Anything, mock.Anything).Return(errors.New("broker down")).Times(2)
	pub := publisher.New(bus, logger(), publisher.BreakerConfig{ConsecutiveFailures: 2, Timeout: time.Hour})

	ctx := context.Background()
	assert.False(t, pub.PublishSuccess(ctx, events.EventTypePaymentRequest, nil, "c", events.SourceMarketplace, ""))
	assert.False(t, pub.PublishSuccess(ctx, events.EventTypePaymentRequest, nil, "c", events.SourceMarketplace, ""))
	assert.Equal(t, gobreaker.StateOpen, pub.State())

	assert.False(t, pub.PublishFailure(ctx, events.EventTypePurchaseFailed, "X", "y", "c", events.SourceMarketplace, "", nil))
}
