package eventbus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/amirasaad/ledgercore/pkg/domain/events"
	"github.com/amirasaad/ledgercore/pkg/eventbus"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopicNames(t *testing.T) {
	assert.Equal(t, "ledger.events.transfer_request", topicNameFor("", events.EventTypeTransferRequest))
	assert.Equal(t, "acme.dlq.payment_request", dlqTopicNameFor(" acme ", events.EventTypePaymentRequest))
}

func TestParseBrokers(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, parseBrokers(" a:9092, ,b:9092 "))
	assert.Empty(t, parseBrokers(""))
}

func TestNewWithKafka_RequiresBrokers(t *testing.T) {
	_, err := NewWithKafka(" , ", discardLogger(), nil)
	require.Error(t, err)
}

func TestKafkaConfigDefaults(t *testing.T) {
	in := &KafkaEventBusConfig{DLQBatchSize: 3, DLQRetryInterval: time.Minute}
	cfg := in.withDefaults()
	assert.Equal(t, "ledgercore", cfg.GroupID)
	assert.Equal(t, defaultTopicPrefix, cfg.TopicPrefix)
	assert.Equal(t, 3, cfg.DLQBatchSize)
	assert.Equal(t, time.Minute, cfg.DLQRetryInterval)
	assert.Equal(t, 3, cfg.DLQMaxRetries)
	assert.Empty(t, in.GroupID, "caller config is left untouched")

	var nilCfg *KafkaEventBusConfig
	assert.Equal(t, DefaultKafkaEventBusConfig(), nilCfg.withDefaults())
}

func TestKafkaSASL(t *testing.T) {
	m, err := kafkaSASL(&KafkaEventBusConfig{})
	require.NoError(t, err)
	assert.Nil(t, m)

	_, err = kafkaSASL(&KafkaEventBusConfig{SASLUsername: "u"})
	require.Error(t, err)

	m, err = kafkaSASL(&KafkaEventBusConfig{SASLUsername: "u", SASLPassword: "p"})
	require.NoError(t, err)
	assert.Equal(t, "PLAIN", m.Name())
}

func TestKafkaTLS(t *testing.T) {
	cfg, err := kafkaTLS(&KafkaEventBusConfig{})
	require.NoError(t, err)
	assert.Nil(t, cfg)

	_, err = kafkaTLS(&KafkaEventBusConfig{TLSEnabled: true, TLSCertFile: "cert.pem"})
	require.Error(t, err)

	_, err = kafkaTLS(&KafkaEventBusConfig{TLSEnabled: true, TLSCAFile: "/does/not/exist"})
	require.Error(t, err)

	cfg, err = kafkaTLS(&KafkaEventBusConfig{TLSEnabled: true})
	require.NoError(t, err)
	assert.NotNil(t, cfg)
}

func TestKafkaConn(t *testing.T) {
	plainConn, err := newKafkaConn(&KafkaEventBusConfig{})
	require.NoError(t, err)
	assert.Nil(t, plainConn.transport)
	assert.False(t, plainConn.secured())
	assert.False(t, plainConn.authenticated())

	secured, err := newKafkaConn(&KafkaEventBusConfig{TLSEnabled: true, SASLUsername: "u", SASLPassword: "p"})
	require.NoError(t, err)
	require.NotNil(t, secured.transport)
	assert.True(t, secured.secured())
	assert.True(t, secured.authenticated())
}

func TestTopicExists(t *testing.T) {
	assert.True(t, topicExists(kafka.TopicAlreadyExists))
	assert.True(t, topicExists(errors.New("TOPIC_ALREADY_EXISTS")))
	assert.False(t, topicExists(errors.New("broker down")))
	assert.False(t, topicExists(nil))
}

func TestAttemptsHeader(t *testing.T) {
	msg := kafka.Message{Headers: []kafka.Header{{Key: headerEventType, Value: []byte("PAYMENT_REQUEST")}}}
	assert.Equal(t, 0, attemptsHeader(msg))

	msg.Headers = withAttempts(msg.Headers, 1)
	assert.Equal(t, 1, attemptsHeader(msg))

	msg.Headers = withAttempts(msg.Headers, 2)
	assert.Equal(t, 2, attemptsHeader(msg))
	assert.Len(t, msg.Headers, 2)
}

func TestRunHandlers(t *testing.T) {
	env := events.New(events.EventTypeTransferRequest, events.SourceCoreBanking, "c", "", nil)
	var calls int
	ok := func(context.Context, *events.Envelope) error { calls++; return nil }
	bad := func(context.Context, *events.Envelope) error { return errors.New("x") }
	boom := func(context.Context, *events.Envelope) error { panic("x") }

	assert.Equal(t, 0, runHandlers(context.Background(), discardLogger(), env, []eventbus.HandlerFunc{ok, ok}))
	assert.Equal(t, 1, runHandlers(context.Background(), discardLogger(), env, []eventbus.HandlerFunc{ok, bad}))
	assert.Equal(t, 2, runHandlers(context.Background(), discardLogger(), env, []eventbus.HandlerFunc{boom, bad, ok}))
	assert.Equal(t, 4, calls)
}

func TestEnvelopeCodec(t *testing.T) {
	env := events.NewFailure(events.EventTypeTransferFailed, events.SourceCoreBanking, "c", "u", "INSUFFICIENT_FUNDS", "no", map[string]any{"request_id": "r"})
	raw, err := encodeEnvelope(env)
	require.NoError(t, err)

	got, err := decodeEnvelope(raw)
	require.NoError(t, err)
	assert.Equal(t, events.EventTypeTransferFailed, got.EventType)
	assert.Equal(t, "r", got.Data["request_id"])

	_, err = decodeEnvelope([]byte(`{"version":"1.0"}`))
	require.Error(t, err)
	_, err = encodeEnvelope(nil)
	require.Error(t, err)
}
