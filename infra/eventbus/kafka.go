package eventbus

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/amirasaad/ledgercore/pkg/domain/events"
	"github.com/amirasaad/ledgercore/pkg/eventbus"
	"github.com/amirasaad/ledgercore/pkg/utils"
	"github.com/segmentio/kafka-go"
)

const (
	defaultTopicPrefix = "ledger.events"

	headerEventType = "event_type"
	headerAttempts  = "x-attempts"

	kafkaPause        = 500 * time.Millisecond
	kafkaMaxBytes     = 10e6
	dlqFetchTimeout   = 500 * time.Millisecond
	dlqReaderGroupTag = "-dlq-redrive"
)

// KafkaEventBusConfig holds configuration for the Kafka event bus.
type KafkaEventBusConfig struct {
	GroupID          string
	TopicPrefix      string
	DLQRetryInterval time.Duration
	DLQBatchSize     int
	DLQMaxRetries    int
	SASLUsername     string
	SASLPassword     string
	TLSEnabled       bool
	TLSCAFile        string
	TLSCertFile      string
	TLSKeyFile       string
	TLSSkipVerify    bool
}

// DefaultKafkaEventBusConfig returns default configuration for KafkaEventBus.
func DefaultKafkaEventBusConfig() *KafkaEventBusConfig {
	return &KafkaEventBusConfig{
		GroupID:          "ledgercore",
		TopicPrefix:      defaultTopicPrefix,
		DLQRetryInterval: 5 * time.Minute,
		DLQBatchSize:     10,
		DLQMaxRetries:    3,
	}
}

func (c *KafkaEventBusConfig) withDefaults() *KafkaEventBusConfig {
	d := DefaultKafkaEventBusConfig()
	if c == nil {
		return d
	}
	out := *c
	if strings.TrimSpace(out.GroupID) == "" {
		out.GroupID = d.GroupID
	}
	if strings.TrimSpace(out.TopicPrefix) == "" {
		out.TopicPrefix = d.TopicPrefix
	}
	if out.DLQRetryInterval <= 0 {
		out.DLQRetryInterval = d.DLQRetryInterval
	}
	if out.DLQBatchSize <= 0 {
		out.DLQBatchSize = d.DLQBatchSize
	}
	if out.DLQMaxRetries <= 0 {
		out.DLQMaxRetries = d.DLQMaxRetries
	}
	return &out
}

// KafkaEventBus writes each event type to its own topic, keyed by
// correlation id so one flow stays ordered within a partition. Every
// registered type gets one group reader. Envelopes whose handlers fail are
// parked on a DLQ topic and redriven periodically until DLQMaxRetries.
type KafkaEventBus struct {
	brokers []string
	cfg     *KafkaEventBusConfig
	conn    kafkaConn
	writer  *kafka.Writer
	logger  *slog.Logger
	topics  sync.Map

	mu       sync.RWMutex
	handlers map[events.EventType][]eventbus.HandlerFunc
	readers  map[events.EventType]*kafka.Reader

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWithKafka creates a Kafka-backed bus from a comma-separated broker list.
// It fails when no broker is reachable.
func NewWithKafka(brokers string, logger *slog.Logger, config *KafkaEventBusConfig) (*KafkaEventBus, error) {
	addrs := parseBrokers(brokers)
	if len(addrs) == 0 {
		return nil, fmt.Errorf("kafka event bus: brokers are required")
	}
	cfg := config.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := newKafkaConn(cfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	b := &KafkaEventBus{
		brokers: addrs,
		cfg:     cfg,
		conn:    conn,
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(addrs...),
			AllowAutoTopicCreation: true,
			RequiredAcks:           kafka.RequireAll,
			Balancer:               &kafka.Hash{},
		},
		logger:   logger.With("bus", "kafka"),
		handlers: make(map[events.EventType][]eventbus.HandlerFunc),
		readers:  make(map[events.EventType]*kafka.Reader),
		ctx:      ctx,
		cancel:   cancel,
	}
	if conn.transport != nil {
		b.writer.Transport = conn.transport
	}

	if err := conn.ping(ctx, addrs[0]); err != nil {
		_ = b.Close()
		return nil, err
	}
	b.wg.Add(1)
	go b.redriveLoop()

	b.logger.Info("🚀 Kafka event bus initialized",
		"group_id", cfg.GroupID,
		"topic_prefix", cfg.TopicPrefix,
		"brokers", addrs,
		"tls_enabled", conn.secured(),
		"sasl_enabled", conn.authenticated(),
	)
	return b, nil
}

// Close stops the readers and the redrive worker, then flushes the writer.
func (b *KafkaEventBus) Close() error {
	if b == nil {
		return nil
	}
	b.cancel()
	b.mu.Lock()
	for _, r := range b.readers {
		_ = r.Close()
	}
	b.mu.Unlock()
	b.wg.Wait()
	return b.writer.Close()
}

// Register adds a handler and starts the type's reader on first use.
func (b *KafkaEventBus) Register(eventType events.EventType, handler eventbus.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	if _, running := b.readers[eventType]; running {
		return
	}

	topic := topicNameFor(b.cfg.TopicPrefix, eventType)
	if err := b.ensureTopic(b.ctx, topic); err != nil {
		b.logger.Error("❌ cannot subscribe", "event_type", eventType, "error", err)
		return
	}
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     b.brokers,
		GroupID:     b.cfg.GroupID,
		Topic:       topic,
		StartOffset: kafka.FirstOffset,
		MinBytes:    1,
		MaxBytes:    kafkaMaxBytes,
		MaxWait:     time.Second,
		Dialer:      b.conn.dialer,
	})
	b.readers[eventType] = r
	b.wg.Add(1)
	go b.consume(eventType, r)
}

// Emit writes the envelope to its type's topic.
func (b *KafkaEventBus) Emit(ctx context.Context, e *events.Envelope) error {
	raw, err := encodeEnvelope(e)
	if err != nil {
		return err
	}
	topic := topicNameFor(b.cfg.TopicPrefix, e.EventType)
	if err := b.ensureTopic(ctx, topic); err != nil {
		return err
	}
	msg := kafka.Message{
		Topic:   topic,
		Key:     []byte(e.CorrelationID),
		Value:   raw,
		Headers: []kafka.Header{{Key: headerEventType, Value: []byte(e.EventType)}},
		Time:    time.Now(),
	}
	if err := b.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka event bus: publish %s: %w", e.EventType, err)
	}
	return nil
}

func (b *KafkaEventBus) ensureTopic(ctx context.Context, topic string) error {
	if _, ok := b.topics.Load(topic); ok {
		return nil
	}
	if err := b.conn.createTopic(ctx, b.brokers[0], topic); err != nil {
		return err
	}
	b.topics.Store(topic, struct{}{})
	return nil
}

func (b *KafkaEventBus) handlersFor(eventType events.EventType) []eventbus.HandlerFunc {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]eventbus.HandlerFunc(nil), b.handlers[eventType]...)
}

func (b *KafkaEventBus) consume(eventType events.EventType, r *kafka.Reader) {
	defer b.wg.Done()
	log := b.logger.With("event_type", eventType)
	for {
		msg, err := r.FetchMessage(b.ctx)
		if err != nil {
			if b.ctx.Err() != nil {
				return
			}
			log.Error("❌ fetch failed", "error", err)
			if utils.Sleep(b.ctx, kafkaPause) != nil {
				return
			}
			continue
		}

		b.deliver(eventType, msg, log)
		if err := r.CommitMessages(b.ctx, msg); err != nil && b.ctx.Err() == nil {
			log.Error("❌ commit failed", "error", err, "offset", msg.Offset)
		}
	}
}

// deliver runs the handlers for one message. A failed delivery is parked on
// the DLQ before the offset is committed; undecodable payloads are dropped.
func (b *KafkaEventBus) deliver(eventType events.EventType, msg kafka.Message, log *slog.Logger) {
	env, err := decodeEnvelope(msg.Value)
	if err != nil {
		log.Error("❌ dropping undecodable message", "error", err, "offset", msg.Offset)
		return
	}
	if env.EventType != eventType {
		log.Warn("⚠️ envelope type differs from topic", "actual", env.EventType)
	}
	handlers := b.handlersFor(eventType)
	if failed := runHandlers(b.ctx, log, env, handlers); failed == 0 {
		return
	}
	for attempt := 1; b.ctx.Err() == nil; attempt++ {
		err := b.park(b.ctx, eventType, msg)
		if err == nil {
			return
		}
		log.Error("❌ dlq publish failed", "error", err, "attempt", attempt)
		if utils.Sleep(b.ctx, kafkaPause) != nil {
			return
		}
	}
}

// runHandlers calls each handler in registration order and returns how many
// failed. A panicking handler counts as failed.
func runHandlers(ctx context.Context, log *slog.Logger, env *events.Envelope, handlers []eventbus.HandlerFunc) int {
	failed := 0
	for _, h := range handlers {
		if err := callHandler(ctx, h, env); err != nil {
			failed++
			log.Error("❌ handler failed", "error", err, "correlation_id", env.CorrelationID)
		}
	}
	return failed
}

func callHandler(ctx context.Context, h eventbus.HandlerFunc, env *events.Envelope) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(ctx, env)
}

// park copies msg to the type's DLQ topic with its attempt count bumped.
func (b *KafkaEventBus) park(ctx context.Context, eventType events.EventType, msg kafka.Message) error {
	topic := dlqTopicNameFor(b.cfg.TopicPrefix, eventType)
	if err := b.ensureTopic(ctx, topic); err != nil {
		return err
	}
	attempts := attemptsHeader(msg) + 1
	err := b.writer.WriteMessages(ctx, kafka.Message{
		Topic:   topic,
		Key:     msg.Key,
		Value:   msg.Value,
		Headers: withAttempts(msg.Headers, attempts),
		Time:    time.Now(),
	})
	if err != nil {
		return err
	}
	b.logger.Warn("⚠️ event parked on DLQ", "event_type", eventType, "dlq_topic", topic, "attempts", attempts)
	return nil
}

func (b *KafkaEventBus) redriveLoop() {
	defer b.wg.Done()
	ticker := time.NewTicker(b.cfg.DLQRetryInterval)
	defer ticker.Stop()
	for {
		select {
		case <-b.ctx.Done():
			return
		case <-ticker.C:
			b.mu.RLock()
			types := make([]events.EventType, 0, len(b.handlers))
			for t := range b.handlers {
				types = append(types, t)
			}
			b.mu.RUnlock()
			for _, t := range types {
				if b.ctx.Err() != nil {
					return
				}
				b.redrive(b.ctx, t)
			}
		}
	}
}

// redrive moves up to DLQBatchSize parked messages back to the main topic.
// Messages past DLQMaxRetries are committed without being resent.
func (b *KafkaEventBus) redrive(ctx context.Context, eventType events.EventType) {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     b.brokers,
		GroupID:     b.cfg.GroupID + dlqReaderGroupTag,
		Topic:       dlqTopicNameFor(b.cfg.TopicPrefix, eventType),
		StartOffset: kafka.FirstOffset,
		MinBytes:    1,
		MaxBytes:    kafkaMaxBytes,
		MaxWait:     250 * time.Millisecond,
		Dialer:      b.conn.dialer,
	})
	defer func() { _ = r.Close() }()

	topic := topicNameFor(b.cfg.TopicPrefix, eventType)
	for range b.cfg.DLQBatchSize {
		fetchCtx, cancel := context.WithTimeout(ctx, dlqFetchTimeout)
		msg, err := r.FetchMessage(fetchCtx)
		cancel()
		if err != nil {
			return
		}
		if attempts := attemptsHeader(msg); attempts > b.cfg.DLQMaxRetries {
			b.logger.Error("❌ event exhausted DLQ retries", "event_type", eventType, "attempts", attempts)
		} else if err := b.writer.WriteMessages(ctx, kafka.Message{
			Topic:   topic,
			Key:     msg.Key,
			Value:   msg.Value,
			Headers: msg.Headers,
			Time:    time.Now(),
		}); err != nil {
			b.logger.Error("❌ redrive failed", "error", err, "topic", topic)
			return
		}
		_ = r.CommitMessages(ctx, msg)
	}
}

func attemptsHeader(msg kafka.Message) int {
	for _, h := range msg.Headers {
		if h.Key == headerAttempts {
			n, _ := strconv.Atoi(string(h.Value))
			return n
		}
	}
	return 0
}

func withAttempts(headers []kafka.Header, attempts int) []kafka.Header {
	out := make([]kafka.Header, 0, len(headers)+1)
	for _, h := range headers {
		if h.Key != headerAttempts {
			out = append(out, h)
		}
	}
	return append(out, kafka.Header{Key: headerAttempts, Value: []byte(strconv.Itoa(attempts))})
}

func parseBrokers(brokers string) []string {
	var out []string
	for _, p := range strings.Split(brokers, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func topicNameFor(prefix string, eventType events.EventType) string {
	return topicPrefix(prefix) + "." + strings.ToLower(eventType.String())
}

func dlqTopicNameFor(prefix string, eventType events.EventType) string {
	return topicPrefix(prefix) + ".dlq." + strings.ToLower(eventType.String())
}

func topicPrefix(prefix string) string {
	if prefix = strings.TrimSpace(prefix); prefix != "" {
		return prefix
	}
	return defaultTopicPrefix
}

var _ eventbus.Bus = (*KafkaEventBus)(nil)
