package eventbus

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/amirasaad/ledgercore/pkg/domain/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMemoryEventBus(t *testing.T) {
	bus := NewWithMemory(discardLogger())
	var got []string
	bus.Register(events.EventTypeTransferCompleted, func(ctx context.Context, e *events.Envelope) error {
		got = append(got, e.CorrelationID)
		return nil
	})
	bus.Register(events.EventTypeTransferCompleted, func(ctx context.Context, e *events.Envelope) error {
		return errors.New("boom")
	})

	env := events.New(events.EventTypeTransferCompleted, events.SourceCoreBanking, "corr-1", "user-1", nil)
	require.NoError(t, bus.Emit(context.Background(), env), "handler errors are not surfaced to emitters")
	require.NoError(t, bus.Emit(context.Background(), events.New(events.EventTypeBalanceResponse, events.SourceCoreBanking, "corr-2", "", nil)))

	assert.Equal(t, []string{"corr-1"}, got)
	assert.Len(t, bus.Published(), 2)
	assert.Len(t, bus.PublishedOf(events.EventTypeBalanceResponse), 1)

	bus.ClearPublished()
	assert.Empty(t, bus.Published())
}

func TestMemoryAsyncEventBus(t *testing.T) {
	bus := NewWithMemoryAsync(discardLogger(), 4)
	var handled atomic.Int32
	bus.Register(events.EventTypePaymentRequest, func(ctx context.Context, e *events.Envelope) error {
		handled.Add(1)
		return bus.Emit(ctx, events.New(events.EventTypePaymentCompleted, events.SourcePayments, e.CorrelationID, e.UserID, nil))
	})
	bus.Register(events.EventTypePaymentCompleted, func(ctx context.Context, e *events.Envelope) error {
		handled.Add(1)
		panic("recovered by the bus")
	})

	for i := 0; i < 10; i++ {
		require.NoError(t, bus.Emit(context.Background(), events.New(events.EventTypePaymentRequest, events.SourceMarketplace, "corr", "user-1", nil)))
	}
	bus.Wait()
	assert.Equal(t, int32(20), handled.Load())
	require.NoError(t, bus.Close())
}

func TestMemoryAsyncEventBus_EmitHonoursContext(t *testing.T) {
	bus := NewWithMemoryAsync(discardLogger(), 1)
	env := events.New(events.EventTypePaymentRequest, events.SourceMarketplace, "corr", "", nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, bus.Emit(ctx, env), context.Canceled)
	bus.Wait()
}
