package initializer

import (
	"fmt"
	"log/slog"
	"strings"

	infra_eventbus "github.com/amirasaad/ledgercore/infra/eventbus"
	"github.com/amirasaad/ledgercore/pkg/config"
	"github.com/amirasaad/ledgercore/pkg/eventbus"
)

const (
	driverMemory      = "memory"
	driverMemoryAsync = "memory-async"
	driverRedis       = "redis"
	driverKafka       = "kafka"
)

// initEventBus builds the bus named by EVENT_BUS_DRIVER. An empty driver
// selects memory-async. A missing redis URL or kafka broker list is an
// error; an unreachable broker degrades to memory-async with a warning.
func initEventBus(cfg *config.App, logger *slog.Logger) (eventbus.Bus, error) {
	busCfg := cfg.EventBus
	if busCfg == nil {
		busCfg = &config.EventBus{}
	}
	driver := strings.ToLower(strings.TrimSpace(busCfg.Driver))
	fallback := func(err error) eventbus.Bus {
		logger.Warn("⚠️ event bus unavailable, falling back to memory-async",
			"driver", driver, "error", err)
		return infra_eventbus.NewWithMemoryAsync(logger, busCfg.QueueSize)
	}

	switch driver {
	case "", driverMemoryAsync:
		return infra_eventbus.NewWithMemoryAsync(logger, busCfg.QueueSize), nil
	case driverMemory:
		return infra_eventbus.NewWithMemory(logger), nil
	case driverRedis:
		url := busCfg.RedisURL
		if url == "" && cfg.Redis != nil {
			url = cfg.Redis.URL
		}
		if url == "" {
			return nil, fmt.Errorf("event bus driver %q requires EVENT_BUS_REDIS_URL or REDIS_URL", driver)
		}
		bus, err := infra_eventbus.NewWithRedis(url, logger, &infra_eventbus.RedisEventBusConfig{
			StreamPrefix:     busCfg.StreamPrefix,
			DLQRetryInterval: busCfg.DLQRetryInterval,
			DLQBatchSize:     int64(busCfg.DLQBatchSize),
			DLQMaxRetries:    busCfg.DLQMaxRetries,
		})
		if err != nil {
			return fallback(err), nil
		}
		return bus, nil
	case driverKafka:
		if strings.TrimSpace(busCfg.KafkaBrokers) == "" {
			return nil, fmt.Errorf("event bus driver %q requires EVENT_BUS_KAFKA_BROKERS", driver)
		}
		kafkaCfg := &infra_eventbus.KafkaEventBusConfig{
			DLQRetryInterval: busCfg.DLQRetryInterval,
			DLQBatchSize:     busCfg.DLQBatchSize,
			DLQMaxRetries:    busCfg.DLQMaxRetries,
		}
		if k := cfg.Kafka; k != nil {
			kafkaCfg.GroupID = k.GroupID
			kafkaCfg.TopicPrefix = k.TopicPrefix
			kafkaCfg.SASLUsername = k.SASLUsername
			kafkaCfg.SASLPassword = k.SASLPassword
			kafkaCfg.TLSEnabled = k.TLSEnabled
			kafkaCfg.TLSCAFile = k.TLSCAFile
			kafkaCfg.TLSCertFile = k.TLSCertFile
			kafkaCfg.TLSKeyFile = k.TLSKeyFile
			kafkaCfg.TLSSkipVerify = k.TLSSkipVerify
		}
		bus, err := infra_eventbus.NewWithKafka(busCfg.KafkaBrokers, logger, kafkaCfg)
		if err != nil {
			return fallback(err), nil
		}
		return bus, nil
	default:
		return nil, fmt.Errorf("unsupported event bus driver %q", busCfg.Driver)
	}
}
