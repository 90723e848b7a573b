package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/amirasaad/ledgercore/pkg/domain/events"
	"github.com/amirasaad/ledgercore/pkg/eventbus"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	fieldEvent    = "event"
	fieldAttempts = "attempts"
)

// RedisEventBusConfig tunes stream naming, consumer blocking and DLQ retries.
type RedisEventBusConfig struct {
	StreamPrefix     string
	Block            time.Duration
	DLQRetryInterval time.Duration
	DLQBatchSize     int64
	DLQMaxRetries    int
}

// DefaultRedisEventBusConfig returns default configuration for RedisEventBus.
func DefaultRedisEventBusConfig() *RedisEventBusConfig {
	return &RedisEventBusConfig{
		StreamPrefix:     defaultStreamPrefix,
		Block:            2 * time.Second,
		DLQRetryInterval: 5 * time.Minute,
		DLQBatchSize:     10,
		DLQMaxRetries:    3,
	}
}

// RedisEventBus implements the bus on Redis Streams, one stream and consumer
// group per event type.
type RedisEventBus struct {
	client   *redis.Client
	config   *RedisEventBusConfig
	instance string
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	handlers map[events.EventType][]eventbus.HandlerFunc
	dlqTypes map[events.EventType]struct{}
}

// NewWithRedis connects to url (e.g. "redis://localhost:6379/0") and returns
// a ready bus.
func NewWithRedis(url string, logger *slog.Logger, config *RedisEventBusConfig) (*RedisEventBus, error) {
	if url == "" {
		return nil, fmt.Errorf("redis event bus: url is required")
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis event bus: invalid URL: %w", err)
	}
	return NewWithRedisClient(redis.NewClient(opt), logger, config)
}

// NewWithRedisClient wraps an existing client.
func NewWithRedisClient(client *redis.Client, logger *slog.Logger, config *RedisEventBusConfig) (*RedisEventBus, error) {
	if config == nil {
		config = DefaultRedisEventBusConfig()
	}
	defaults := DefaultRedisEventBusConfig()
	if config.Block <= 0 {
		config.Block = defaults.Block
	}
	if config.DLQRetryInterval <= 0 {
		config.DLQRetryInterval = defaults.DLQRetryInterval
	}
	if config.DLQBatchSize <= 0 {
		config.DLQBatchSize = defaults.DLQBatchSize
	}
	if config.DLQMaxRetries <= 0 {
		config.DLQMaxRetries = defaults.DLQMaxRetries
	}
	if logger == nil {
		logger = slog.Default()
	}

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis event bus: connection failed: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	bus := &RedisEventBus{
		client:   client,
		config:   config,
		instance: uuid.NewString()[:8],
		logger:   logger.With("bus", "redis"),
		ctx:      ctx,
		cancel:   cancel,
		handlers: make(map[events.EventType][]eventbus.HandlerFunc),
		dlqTypes: make(map[events.EventType]struct{}),
	}
	bus.startDLQRetryWorker()
	bus.logger.Info("🚀 Redis event bus initialized",
		"prefix", config.StreamPrefix,
		"dlq_retry_interval", config.DLQRetryInterval,
		"dlq_batch_size", config.DLQBatchSize,
	)
	return bus, nil
}

// Close stops consumers and the DLQ worker, then closes the client.
func (b *RedisEventBus) Close() error {
	b.cancel()
	b.wg.Wait()
	return b.client.Close()
}

// Emit appends the envelope to its type's stream.
func (b *RedisEventBus) Emit(ctx context.Context, e *events.Envelope) error {
	raw, err := encodeEnvelope(e)
	if err != nil {
		return err
	}
	stream := streamNameFor(b.config.StreamPrefix, e.EventType)
	if err := b.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]any{fieldEvent: string(raw), fieldAttempts: 0},
	}).Err(); err != nil {
		b.logger.Error("failed to emit event", "error", err, "event_type", e.EventType)
		return fmt.Errorf("redis event bus: emit failed: %w", err)
	}
	b.logger.Debug("event emitted", "event_type", e.EventType, "stream", stream)
	return nil
}

// Register adds a handler. The first handler for a type starts its consumer.
func (b *RedisEventBus) Register(eventType events.EventType, handler eventbus.HandlerFunc) {
	b.mu.Lock()
	first := len(b.handlers[eventType]) == 0
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	b.dlqTypes[eventType] = struct{}{}
	b.mu.Unlock()
	if !first {
		return
	}

	stream := streamNameFor(b.config.StreamPrefix, eventType)
	group := groupNameFor(b.config.StreamPrefix, eventType)
	err := b.client.XGroupCreateMkStream(b.ctx, stream, group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		b.logger.Error("failed to create consumer group", "error", err, "stream", stream)
		return
	}

	consumer := consumerNameFor(b.config.StreamPrefix, eventType, b.instance)
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.consumeLoop(eventType, stream, group, consumer)
	}()
	b.logger.Info("handler registered", "event_type", eventType, "consumer", consumer)
}

func (b *RedisEventBus) consumeLoop(eventType events.EventType, stream, group, consumer string) {
	for {
		if b.ctx.Err() != nil {
			return
		}
		res, err := b.client.XReadGroup(b.ctx, &redis.XReadGroupArgs{
			Group:    group,
			Consumer: consumer,
			Streams:  []string{stream, ">"},
			Count:    10,
			Block:    b.config.Block,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if b.ctx.Err() != nil {
				return
			}
			b.logger.Error("error reading from stream", "error", err, "consumer", consumer)
			time.Sleep(200 * time.Millisecond)
			continue
		}

		for _, s := range res {
			for _, msg := range s.Messages {
				b.handleMessage(eventType, msg)
				if err := b.client.XAck(b.ctx, stream, group, msg.ID).Err(); err != nil {
					b.logger.Error("failed to acknowledge message", "error", err, "msg_id", msg.ID)
				}
			}
		}
	}
}

func (b *RedisEventBus) handleMessage(eventType events.EventType, msg redis.XMessage) {
	raw, ok := msg.Values[fieldEvent].(string)
	if !ok {
		b.logger.Error("message without event field", "msg_id", msg.ID)
		return
	}
	env, err := decodeEnvelope([]byte(raw))
	if err != nil {
		b.logger.Error("failed to decode envelope", "error", err, "msg_id", msg.ID)
		return
	}

	b.mu.Lock()
	handlers := append([]eventbus.HandlerFunc{}, b.handlers[eventType]...)
	b.mu.Unlock()

	failed := false
	for _, handler := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					b.logger.Error("handler panic recovered", "panic", r, "event_type", eventType)
					failed = true
				}
			}()
			if err := handler(b.ctx, env); err != nil {
				b.logger.Error("handler error", "error", err, "event_type", eventType, "correlation_id", env.CorrelationID)
				failed = true
			}
		}()
	}
	if failed {
		b.pushToDLQ(eventType, raw, attemptsOf(msg))
	}
}

func attemptsOf(msg redis.XMessage) int {
	switch v := msg.Values[fieldAttempts].(type) {
	case string:
		n, _ := strconv.Atoi(v)
		return n
	case int:
		return v
	}
	return 0
}

// pushToDLQ parks the raw envelope on the type's DLQ stream.
func (b *RedisEventBus) pushToDLQ(eventType events.EventType, raw string, attempts int) {
	dlq := dlqStreamName(b.config.StreamPrefix, eventType)
	if err := b.client.XAdd(b.ctx, &redis.XAddArgs{
		Stream: dlq,
		Values: map[string]any{fieldEvent: raw, fieldAttempts: attempts + 1},
	}).Err(); err != nil {
		b.logger.Error("failed to push to DLQ", "error", err, "stream", dlq)
		return
	}
	b.logger.Warn("event pushed to DLQ", "stream", dlq, "attempts", attempts+1)
}

func (b *RedisEventBus) startDLQRetryWorker() {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		ticker := time.NewTicker(b.config.DLQRetryInterval)
		defer ticker.Stop()
		for {
			select {
			case <-b.ctx.Done():
				return
			case <-ticker.C:
				b.processAllDLQs(b.ctx)
			}
		}
	}()
}

func (b *RedisEventBus) processAllDLQs(ctx context.Context) {
	b.mu.Lock()
	types := make([]events.EventType, 0, len(b.dlqTypes))
	for t := range b.dlqTypes {
		types = append(types, t)
	}
	b.mu.Unlock()
	for _, t := range types {
		if ctx.Err() != nil {
			return
		}
		b.retryDLQ(ctx, t)
	}
}

// retryDLQ moves up to DLQBatchSize parked messages back onto the main
// stream. Messages that exhausted DLQMaxRetries stay parked.
func (b *RedisEventBus) retryDLQ(ctx context.Context, eventType events.EventType) {
	dlq := dlqStreamName(b.config.StreamPrefix, eventType)
	msgs, err := b.client.XRangeN(ctx, dlq, "-", "+", b.config.DLQBatchSize).Result()
	if err != nil {
		b.logger.Error("failed to read DLQ", "error", err, "stream", dlq)
		return
	}
	stream := streamNameFor(b.config.StreamPrefix, eventType)
	for _, msg := range msgs {
		attempts := attemptsOf(msg)
		if attempts > b.config.DLQMaxRetries {
			continue
		}
		if err := b.client.XAdd(ctx, &redis.XAddArgs{
			Stream: stream,
			Values: map[string]any{fieldEvent: msg.Values[fieldEvent], fieldAttempts: attempts},
		}).Err(); err != nil {
			b.logger.Error("failed to republish DLQ message", "error", err, "stream", stream)
			return
		}
		if err := b.client.XDel(ctx, dlq, msg.ID).Err(); err != nil {
			b.logger.Error("failed to delete DLQ message", "error", err, "msg_id", msg.ID)
		}
	}
}

var _ eventbus.Bus = (*RedisEventBus)(nil)
