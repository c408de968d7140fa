// Package config loads server configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the server needs at startup.
type Config struct {
	// Bind is the listen address, e.g. ":8080".
	Bind string

	// DBPath is the SQLite file for the run archive.
	DBPath string

	// BaseCurrency is the target currency for normalization.
	BaseCurrency string

	// RatesPath optionally points at a YAML exchange-rate table; empty
	// means the built-in table.
	RatesPath string

	// StrictIngest aborts normalization on the first malformed record
	// instead of skipping it.
	StrictIngest bool

	// AnomalyMultiplier is k in the mean + k*stddev anomaly threshold.
	AnomalyMultiplier float64

	// SplitwiseToken authenticates against the ledger API for live pulls.
	// Empty disables the /ingest/pull endpoint.
	SplitwiseToken string

	// SplitwiseURL overrides the ledger API base URL, for tests.
	SplitwiseURL string

	// JWTSecret signs session tokens. Required.
	JWTSecret string

	// SessionTTL is how long issued session tokens stay valid.
	SessionTTL time.Duration

	// CORSOrigins lists allowed browser origins; empty allows none.
	CORSOrigins []string
}

// Load reads configuration from the environment. A .env file in the working
// directory is merged in first if present; real environment variables win.
func Load() (*Config, error) {
	// Missing .env is the normal production case.
	_ = godotenv.Load()

	cfg := &Config{
		Bind:              getEnv("BIND", ":8080"),
		DBPath:            getEnv("DB_PATH", "./data/splitsight.db"),
		BaseCurrency:      getEnv("BASE_CURRENCY", "USD"),
		RatesPath:         os.Getenv("RATES_PATH"),
		SplitwiseToken:    os.Getenv("SPLITWISE_TOKEN"),
		SplitwiseURL:      getEnv("SPLITWISE_URL", "https://secure.splitwise.com/api/v3.0"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		SessionTTL:        24 * time.Hour,
		AnomalyMultiplier: 3,
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if v := os.Getenv("STRICT_INGEST"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid STRICT_INGEST %q: %w", v, err)
		}
		cfg.StrictIngest = b
	}
	if v := os.Getenv("ANOMALY_MULTIPLIER"); v != "" {
		k, err := strconv.ParseFloat(v, 64)
		if err != nil || k <= 0 {
			return nil, fmt.Errorf("invalid ANOMALY_MULTIPLIER %q", v)
		}
		cfg.AnomalyMultiplier = k
	}
	if v := os.Getenv("SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SESSION_TTL %q: %w", v, err)
		}
		cfg.SessionTTL = d
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
			}
		}
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
