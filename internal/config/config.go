package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds application configuration values.
type Config struct {
	Secret            string
	HTTPPort          string
	DatabaseDriver    string
	DatabaseDSN       string
	MLServiceURL      string
	PredictionTimeout time.Duration
	LowStockThreshold int64
	SalesWindowDays   int
	SeedCatalog       string
	SeedOrganization  string
	LogLevel          string
}

// Load reads configuration from the environment, after applying any .env
// file, with reasonable defaults.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("unable to read .env file")
	}

	cfg := Config{
		Secret:           getenv("SECRET", "dev_secret"),
		HTTPPort:         getenv("HTTP_PORT", "8080"),
		DatabaseDriver:   strings.ToLower(getenv("DATABASE_DRIVER", "sqlite")),
		DatabaseDSN:      getenv("DATABASE_DSN", "file:insight.db?_pragma=foreign_keys(1)"),
		MLServiceURL:     getenv("ML_SERVICE_URL", "http://localhost:8000"),
		SeedCatalog:      os.Getenv("SEED_CATALOG"),
		SeedOrganization: getenv("SEED_ORGANIZATION_ID", "85bd13de-4b92-4951-bdd3-946fa4baa8a7"),
		LogLevel:         strings.ToLower(getenv("LOG_LEVEL", "info")),
	}

	// Validate that port is numeric.
	if _, err := strconv.Atoi(cfg.HTTPPort); err != nil {
		log.Warn().Str("value", cfg.HTTPPort).Msg("invalid HTTP_PORT value, defaulting to 8080")
		cfg.HTTPPort = "8080"
	}

	cfg.PredictionTimeout = 10 * time.Second
	if raw := os.Getenv("PREDICTION_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			log.Warn().Str("value", raw).Msg("invalid PREDICTION_TIMEOUT value, defaulting to 10s")
		} else {
			cfg.PredictionTimeout = d
		}
	}

	cfg.LowStockThreshold = 50
	if raw := os.Getenv("LOW_STOCK_THRESHOLD"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			log.Warn().Str("value", raw).Msg("invalid LOW_STOCK_THRESHOLD value, defaulting to 50")
		} else {
			cfg.LowStockThreshold = n
		}
	}

	cfg.SalesWindowDays = 30
	if raw := os.Getenv("SALES_WINDOW_DAYS"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			log.Warn().Str("value", raw).Msg("invalid SALES_WINDOW_DAYS value, defaulting to 30")
		} else {
			cfg.SalesWindowDays = n
		}
	}

	return cfg
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
