package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/vinimacar/EcoFin/internal/budget"
	"github.com/vinimacar/EcoFin/internal/core"
)

type Config struct {
	// HTTP Server
	Port string

	// Backend selection
	DataBackend string

	// Database
	SQLiteDBPath string

	// Memory backend snapshot; empty disables file persistence.
	SnapshotPath string

	// Seed demo transactions into an empty memory backend.
	DemoSeed bool

	// AMQP; empty URL disables alert publishing.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets
	GoogleSpreadsheetID string
	GoogleSheetName     string

	// Budget; limit in cents, zero disables alerts.
	MonthlyBudgetLimitCents int64
	WarningThreshold        float64
	DangerThreshold         float64
	AlertCooldown           time.Duration

	// Derived-metrics response caching
	MetricsCacheSize int
	MetricsCacheTTL  time.Duration

	// Logging
	LogLevel string
}

func Load() *Config {
	cfg := &Config{
		Port: getEnv("PORT", "8080"),

		DataBackend:  getEnv("DATA_BACKEND", "memory"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/ecofin.db"),
		SnapshotPath: getEnv("SNAPSHOT_PATH", ""),
		DemoSeed:     getEnvBool("DEMO_SEED", false),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "ecofin"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "budget_alerts"),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:     getEnv("GOOGLE_SHEET_NAME", ""),

		MonthlyBudgetLimitCents: getEnvMoney("MONTHLY_BUDGET_LIMIT", 0),
		WarningThreshold:        getEnvFloat("BUDGET_WARNING_THRESHOLD", budget.DefaultWarningThreshold),
		DangerThreshold:         getEnvFloat("BUDGET_DANGER_THRESHOLD", budget.DefaultDangerThreshold),
		AlertCooldown:           getEnvDuration("ALERT_COOLDOWN", budget.DefaultCooldown),

		MetricsCacheSize: getEnvInt("METRICS_CACHE_SIZE", 128),
		MetricsCacheTTL:  getEnvDuration("METRICS_CACHE_TTL", 5*time.Minute),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validBackends := []string{"memory", "sqlite", "sheets"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if c.DataBackend == "sheets" {
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		if c.GoogleSheetName == "" {
			errors = append(errors, "Google Sheet name is required when using sheets backend")
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.MonthlyBudgetLimitCents < 0 {
		errors = append(errors, fmt.Sprintf("invalid monthly budget limit %d: must not be negative", c.MonthlyBudgetLimitCents))
	}
	if c.WarningThreshold <= 0 || c.WarningThreshold >= 1 {
		errors = append(errors, fmt.Sprintf("invalid warning threshold %v: must be between 0 and 1", c.WarningThreshold))
	}
	if c.DangerThreshold <= 0 || c.DangerThreshold > 1 {
		errors = append(errors, fmt.Sprintf("invalid danger threshold %v: must be between 0 and 1", c.DangerThreshold))
	}
	if c.WarningThreshold > 0 && c.DangerThreshold > 0 && c.DangerThreshold <= c.WarningThreshold {
		errors = append(errors, fmt.Sprintf("danger threshold %v must be greater than warning threshold %v", c.DangerThreshold, c.WarningThreshold))
	}
	if c.AlertCooldown < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid alert cooldown %v: must be at least 1 minute", c.AlertCooldown))
	} else if c.AlertCooldown > 30*24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid alert cooldown %v: must be at most 30 days", c.AlertCooldown))
	}

	if c.MetricsCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid metrics cache size %d: must be at least 1", c.MetricsCacheSize))
	}
	if c.MetricsCacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid metrics cache TTL %v: must be at least 1 second", c.MetricsCacheTTL))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn, or error", c.LogLevel))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvMoney reads a decimal amount ("1000" or "1000,50") and returns cents.
func getEnvMoney(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if cents, err := core.ParseDecimalToCents(value); err == nil {
			return cents
		}
	}
	return defaultValue
}
