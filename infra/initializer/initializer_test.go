package initializer

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/amirasaad/ledgercore/pkg/config"
	"github.com/amirasaad/ledgercore/pkg/publisher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	srv := miniredis.RunT(t)
	return srv
}

func testConfig(t *testing.T) *config.App {
	t.Helper()
	cfg := config.Default()
	cfg.Env = "test"
	cfg.DB.URL = "file:" + filepath.Join(t.TempDir(), "ledger.db")
	cfg.EventBus.Driver = "memory"
	cfg.Log.Level = int(slog.LevelError)
	return cfg
}

func TestInitializeDependencies_SQLBackend(t *testing.T) {
	cfg := testConfig(t)
	deps, cleanup, err := InitializeDependencies(cfg)
	require.NoError(t, err)
	t.Cleanup(cleanup)

	require.NotNil(t, deps.Uow)
	require.NotNil(t, deps.EventBus)
	require.NotNil(t, deps.Publisher)
	require.NotNil(t, deps.Idempotency)
	require.NotNil(t, deps.CurrencyRegistry)
	assert.Same(t, cfg, deps.Config)
	assert.Equal(t, cfg.Idempotency.TTL, deps.Idempotency.TTL())

	ctx := context.Background()
	_, err = deps.Idempotency.Run(ctx, "req-1", func(context.Context) (any, error) {
		return map[string]any{"ok": true}, nil
	})
	require.NoError(t, err)
	dup, err := deps.Idempotency.IsDuplicate(ctx, "req-1")
	require.NoError(t, err)
	assert.True(t, dup, "records persist in the relational store")
}

func TestInitializeDependencies_RedisBackend(t *testing.T) {
	srv := newMiniredis(t)
	cfg := testConfig(t)
	cfg.Redis.URL = "redis://" + srv.Addr()
	cfg.Idempotency.Backend = "redis"

	deps, cleanup, err := InitializeDependencies(cfg)
	require.NoError(t, err)
	t.Cleanup(cleanup)

	_, err = deps.Idempotency.Run(context.Background(), "req-r", func(context.Context) (any, error) {
		return "done", nil
	})
	require.NoError(t, err)
	assert.NotEmpty(t, srv.Keys(), "the record lands in redis")
}

func TestInitializeDependencies_Failures(t *testing.T) {
	t.Run("missing database url", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.DB.URL = ""
		_, _, err := InitializeDependencies(cfg)
		assert.Error(t, err)
	})
	t.Run("unknown idempotency backend", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Idempotency.Backend = "etcd"
		_, _, err := InitializeDependencies(cfg)
		assert.Error(t, err)
	})
	t.Run("unreachable redis idempotency", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Redis.URL = "redis://127.0.0.1:1"
		cfg.Redis.DialTimeout = 100 * time.Millisecond
		cfg.Idempotency.Backend = "redis"
		_, _, err := InitializeDependencies(cfg)
		assert.Error(t, err)
	})
}

func TestBreakerAndRetryDefaults(t *testing.T) {
	assert.Equal(t, publisher.DefaultBreakerConfig(), breakerConfig(nil))
	got := breakerConfig(&config.Breaker{ConsecutiveFailures: 2})
	assert.Equal(t, uint32(2), got.ConsecutiveFailures)
	assert.Equal(t, publisher.DefaultBreakerConfig().Timeout, got.Timeout)

	policy := storeRetryPolicy(&config.StoreRetry{MaxAttempts: 7})
	assert.Equal(t, 7, policy.MaxAttempts)
	assert.Positive(t, policy.BaseDelay)
}

func TestNewLogger_MasksSensitiveAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, &config.Log{Format: "json", MaskPII: true})

	logger.With("account_id", "acc-123456789").Info("transfer", "amount", "500.00", "to_account", "acc-987654321", "user_id", "user-1")

	out := buf.String()
	assert.NotContains(t, out, "500.00")
	assert.NotContains(t, out, "acc-123456789")
	assert.NotContains(t, out, "acc-987654321")
	assert.Contains(t, out, "***6789")
	assert.Contains(t, out, "***4321")
	assert.Contains(t, out, "user-1")
}

func TestNewLogger_NoMasking(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, &config.Log{Format: "json"})
	logger.Info("transfer", "amount", "500.00")
	assert.Contains(t, buf.String(), "500.00")
}
