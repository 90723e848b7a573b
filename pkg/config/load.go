package config

import (
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const envconfigPrefixless = ""

// Load reads the first environment file found among envFilePath (searched
// upward from the working directory), falling back to .env, then processes
// the environment into an App.
func Load(envFilePath ...string) (*App, error) {
	logger := slog.Default()

	for _, path := range envFilePath {
		foundPath, err := FindEnvTest(path)
		if err != nil {
			logger.Debug("Environment file not found", "path", path, "error", err)
			continue
		}
		if err := godotenv.Load(foundPath); err != nil {
			logger.Error("Failed to load environment file", "path", foundPath, "error", err)
			continue
		}
		logger.Info("Loaded environment file", "path", foundPath)
		return loadFromEnv(envconfigPrefixless)
	}

	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found in current directory")
	}
	return loadFromEnv(envconfigPrefixless)
}

func loadFromEnv(prefix string) (*App, error) {
	var cfg App
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return nil, err
	}
	if cfg.Env == "" {
		cfg.Env = "development"
	}

	slog.Default().Debug("App config loaded",
		"env", cfg.Env,
		"db", maskValue(cfg.DB.URL),
		"db_replica", maskValue(cfg.DB.ReplicaURL),
		"event_bus", cfg.EventBus.Driver,
		"idempotency_backend", cfg.Idempotency.Backend,
		"idempotency_ttl", cfg.Idempotency.TTL,
		"ledger_max_attempts", cfg.Ledger.MaxAttempts,
		"settlement_enabled", cfg.Payment.Enabled,
	)
	return &cfg, nil
}

func maskValue(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 6 {
		return "****"
	}
	return key[:2] + "****" + key[len(key)-4:]
}
