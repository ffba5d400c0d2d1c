package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/fx"

	"github.com/congrego/congrego/internal/money"
)

// Config carries the environment-driven settings for the service.
type Config struct {
	Environment string
	HTTPAddr    string
	DatabaseDSN string

	// SettleTolerance is the absolute epsilon used when deciding a balance
	// is fully paid. Defaults to 0.01.
	SettleTolerance decimal.Decimal

	AsaasBaseURL string
	AsaasAPIKey  string

	OutboxBatchSize    int
	OutboxPollInterval time.Duration
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Load reads configuration from the environment, applying defaults.
func Load() Config {
	cfg := Config{
		Environment:        getenv("ENVIRONMENT", "development"),
		HTTPAddr:           getenv("HTTP_ADDR", ":8080"),
		DatabaseDSN:        getenv("DATABASE_DSN", ""),
		SettleTolerance:    money.DefaultTolerance,
		AsaasBaseURL:       getenv("ASAAS_BASE_URL", "https://api.asaas.com/v3"),
		AsaasAPIKey:        getenv("ASAAS_API_KEY", ""),
		OutboxBatchSize:    getenvInt("OUTBOX_BATCH_SIZE", 50),
		OutboxPollInterval: getenvDuration("OUTBOX_POLL_INTERVAL", 2*time.Second),
	}

	if raw := strings.TrimSpace(os.Getenv("SETTLE_TOLERANCE")); raw != "" {
		if tol, err := decimal.NewFromString(raw); err == nil && !tol.IsNegative() {
			cfg.SettleTolerance = tol
		}
	}
	return cfg
}

func getenv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

var Module = fx.Module("config",
	fx.Provide(Load),
)
