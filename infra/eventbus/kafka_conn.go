package eventbus

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
)

const kafkaDialTimeout = 5 * time.Second

// kafkaConn carries the dialer used by readers and admin calls and the
// transport used by the writer. Both share TLS and SASL settings.
type kafkaConn struct {
	dialer    *kafka.Dialer
	transport *kafka.Transport
}

func newKafkaConn(cfg *KafkaEventBusConfig) (kafkaConn, error) {
	tlsCfg, err := kafkaTLS(cfg)
	if err != nil {
		return kafkaConn{}, err
	}
	mechanism, err := kafkaSASL(cfg)
	if err != nil {
		return kafkaConn{}, err
	}
	c := kafkaConn{dialer: &kafka.Dialer{
		Timeout:       kafkaDialTimeout,
		TLS:           tlsCfg,
		SASLMechanism: mechanism,
	}}
	if tlsCfg != nil || mechanism != nil {
		c.transport = &kafka.Transport{TLS: tlsCfg, SASL: mechanism}
	}
	return c, nil
}

func (c kafkaConn) secured() bool { return c.dialer.TLS != nil }

func (c kafkaConn) authenticated() bool { return c.dialer.SASLMechanism != nil }

// ping opens and closes one connection to the first broker.
func (c kafkaConn) ping(ctx context.Context, broker string) error {
	conn, err := c.dialer.DialContext(ctx, "tcp", broker)
	if err != nil {
		return fmt.Errorf("kafka event bus: connection failed: %w", err)
	}
	return conn.Close()
}

// createTopic creates a single-partition topic. An existing topic is not an
// error.
func (c kafkaConn) createTopic(ctx context.Context, broker, topic string) error {
	conn, err := c.dialer.DialContext(ctx, "tcp", broker)
	if err != nil {
		return fmt.Errorf("kafka event bus: dial failed: %w", err)
	}
	defer func() { _ = conn.Close() }()

	err = conn.CreateTopics(kafka.TopicConfig{Topic: topic, NumPartitions: 1, ReplicationFactor: 1})
	if err != nil && !topicExists(err) {
		return fmt.Errorf("kafka event bus: create topic %s: %w", topic, err)
	}
	return nil
}

func topicExists(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, kafka.TopicAlreadyExists) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "topic_already_exists") || strings.Contains(msg, "already exists")
}

func kafkaTLS(cfg *KafkaEventBusConfig) (*tls.Config, error) {
	if !cfg.TLSEnabled {
		return nil, nil
	}
	out := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: cfg.TLSSkipVerify, //nolint:gosec
	}
	if path := strings.TrimSpace(cfg.TLSCAFile); path != "" {
		pem, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("kafka event bus: read ca file: %w", err)
		}
		roots := x509.NewCertPool()
		if !roots.AppendCertsFromPEM(pem) {
			return nil, errors.New("kafka event bus: ca file holds no certificates")
		}
		out.RootCAs = roots
	}

	cert, key := strings.TrimSpace(cfg.TLSCertFile), strings.TrimSpace(cfg.TLSKeyFile)
	switch {
	case cert == "" && key == "":
	case cert == "" || key == "":
		return nil, errors.New("kafka event bus: client certificate needs both cert and key files")
	default:
		pair, err := tls.LoadX509KeyPair(cert, key)
		if err != nil {
			return nil, fmt.Errorf("kafka event bus: load client certificate: %w", err)
		}
		out.Certificates = []tls.Certificate{pair}
	}
	return out, nil
}

func kafkaSASL(cfg *KafkaEventBusConfig) (sasl.Mechanism, error) {
	user, pass := strings.TrimSpace(cfg.SASLUsername), strings.TrimSpace(cfg.SASLPassword)
	switch {
	case user == "" && pass == "":
		return nil, nil
	case user == "" || pass == "":
		return nil, errors.New("kafka event bus: sasl needs both username and password")
	}
	return plain.Mechanism{Username: user, Password: pass}, nil
}
