package config

import (
	"time"
)

type DB struct {
	URL             string        `envconfig:"URL" default:"file:ledger.db?_pragma=busy_timeout(5000)"`
	ReplicaURL      string        `envconfig:"REPLICA_URL"`
	MaxOpenConns    int           `envconfig:"MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns    int           `envconfig:"MAX_IDLE_CONNS" default:"25"`
	ConnMaxLifetime time.Duration `envconfig:"CONN_MAX_LIFETIME" default:"1h"`
	AutoMigrate     bool          `envconfig:"AUTO_MIGRATE" default:"true"`
}

// StoreRetry bounds retries of transient store failures (throttling,
// deadlocks, serialization failures).
type StoreRetry struct {
	MaxAttempts int           `envconfig:"MAX_ATTEMPTS" default:"3"`
	BaseDelay   time.Duration `envconfig:"BASE_DELAY" default:"100ms"`
	MaxDelay    time.Duration `envconfig:"MAX_DELAY" default:"2s"`
}

// Ledger tunes optimistic-concurrency retries of transfers and reservations.
type Ledger struct {
	MaxAttempts     int           `envconfig:"MAX_ATTEMPTS" default:"3"`
	RetryDelay      time.Duration `envconfig:"RETRY_DELAY" default:"100ms"`
	DefaultCurrency string        `envconfig:"DEFAULT_CURRENCY" default:"MXN"`
}

type Idempotency struct {
	Backend   string        `envconfig:"BACKEND" default:"sql"`
	TTL       time.Duration `envconfig:"TTL" default:"24h"`
	KeyPrefix string        `envconfig:"KEY_PREFIX" default:"ledger:idempotency:"`
}

type EventBus struct {
	Driver           string        `envconfig:"DRIVER" default:"memory"`
	RedisURL         string        `envconfig:"REDIS_URL"`
	KafkaBrokers     string        `envconfig:"KAFKA_BROKERS"`
	QueueSize        int           `envconfig:"QUEUE_SIZE" default:"100"`
	StreamPrefix     string        `envconfig:"STREAM_PREFIX" default:"ledger"`
	DLQRetryInterval time.Duration `envconfig:"DLQ_RETRY_INTERVAL" default:"5m"`
	DLQBatchSize     int           `envconfig:"DLQ_BATCH_SIZE" default:"10"`
	DLQMaxRetries    int           `envconfig:"DLQ_MAX_RETRIES" default:"3"`
}

type Redis struct {
	URL          string        `envconfig:"URL" default:"redis://localhost:6379/0"`
	PoolSize     int           `envconfig:"POOL_SIZE" default:"10"`
	DialTimeout  time.Duration `envconfig:"DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"3s"`
}

type Kafka struct {
	GroupID       string `envconfig:"GROUP_ID" default:"ledgercore"`
	TopicPrefix   string `envconfig:"TOPIC_PREFIX" default:"ledger.events"`
	SASLUsername  string `envconfig:"SASL_USERNAME"`
	SASLPassword  string `envconfig:"SASL_PASSWORD"`
	TLSEnabled    bool   `envconfig:"TLS_ENABLED" default:"false"`
	TLSCAFile     string `envconfig:"TLS_CA_FILE"`
	TLSCertFile   string `envconfig:"TLS_CERT_FILE"`
	TLSKeyFile    string `envconfig:"TLS_KEY_FILE"`
	TLSSkipVerify bool   `envconfig:"TLS_SKIP_VERIFY" default:"false"`
}

type Breaker struct {
	ConsecutiveFailures uint32        `envconfig:"CONSECUTIVE_FAILURES" default:"5"`
	Timeout             time.Duration `envconfig:"TIMEOUT" default:"30s"`
	MaxRequests         uint32        `envconfig:"MAX_REQUESTS" default:"1"`
}

// Payment configures the in-process settlement stand-in for the external
// payment subsystem.
type Payment struct {
	Enabled         bool   `envconfig:"ENABLED" default:"false"`
	MerchantAccount string `envconfig:"MERCHANT_ACCOUNT"`
}

type RateLimit struct {
	MaxRequests int           `envconfig:"MAX_REQUESTS" default:"100"`
	Window      time.Duration `envconfig:"WINDOW" default:"1m"`
}

type Log struct {
	Level      int    `envconfig:"LEVEL" default:"0"`
	Format     string `envconfig:"FORMAT" default:"json"`
	TimeFormat string `envconfig:"TIME_FORMAT" default:"2006-01-02 15:04:05"`
	Prefix     string `envconfig:"PREFIX" default:"[ledger]"`
	MaskPII    bool   `envconfig:"MASK_PII" default:"true"`
}

type Server struct {
	Scheme string `envconfig:"SCHEME" default:"http"`
	Host   string `envconfig:"HOST" default:"localhost"`
	Port   int    `envconfig:"PORT" default:"3000"`
}

type App struct {
	Env         string       `envconfig:"APP_ENV" default:"development"`
	Server      *Server      `envconfig:"SERVER"`
	Log         *Log         `envconfig:"LOG"`
	DB          *DB          `envconfig:"DATABASE"`
	StoreRetry  *StoreRetry  `envconfig:"STORE_RETRY"`
	Ledger      *Ledger      `envconfig:"LEDGER"`
	Idempotency *Idempotency `envconfig:"IDEMPOTENCY"`
	EventBus    *EventBus    `envconfig:"EVENT_BUS"`
	Redis       *Redis       `envconfig:"REDIS"`
	Kafka       *Kafka       `envconfig:"KAFKA"`
	Breaker     *Breaker     `envconfig:"BREAKER"`
	Payment     *Payment     `envconfig:"PAYMENT_SETTLEMENT"`
	RateLimit   *RateLimit   `envconfig:"RATE_LIMIT"`
}

// Default returns the configuration produced by an empty environment.
func Default() *App {
	cfg, err := loadFromEnv(envconfigPrefixless)
	if err != nil {
		panic(err)
	}
	return cfg
}
