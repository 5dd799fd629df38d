package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Config struct {
	// HTTP Server
	Port               string
	LogLevel           string
	RateLimitPerMinute int

	// Ledger selection
	LedgerBackend  string
	LedgerAccount  string
	LedgerSeedDemo bool
	LedgerCSVPath  string

	// Database
	SQLiteDBPath string

	// AMQP (optional, empty URL disables the audit journal)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets ledger
	GoogleSpreadsheetID      string
	GoogleLedgerRange        string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Engine
	WindowPolicy     string
	WindowDays       int
	WindowFixedMonth string
	FoodBudget       decimal.Decimal
	DefaultIncome    decimal.Decimal

	// Sessions
	SessionTTL time.Duration
	SessionMax int

	// Worker
	AuditBatchSize int
}

func Load() *Config {
	cfg := &Config{
		Port:               getEnv("PORT", "8081"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),

		LedgerBackend:  getEnv("LEDGER_BACKEND", "memory"),
		LedgerAccount:  getEnv("LEDGER_ACCOUNT", "demo"),
		LedgerSeedDemo: getEnvBool("LEDGER_SEED_DEMO", true),
		LedgerCSVPath:  getEnv("LEDGER_CSV_PATH", ""),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/fincoach.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "fincoach"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "advice_audit"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleLedgerRange:        getEnv("GOOGLE_LEDGER_RANGE", "Transactions!A:D"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),

		WindowPolicy:     getEnv("WINDOW_POLICY", "rolling"),
		WindowDays:       getEnvInt("WINDOW_DAYS", 30),
		WindowFixedMonth: getEnv("WINDOW_FIXED_MONTH", ""),
		FoodBudget:       getEnvDecimal("FOOD_BUDGET", decimal.NewFromInt(200)),
		DefaultIncome:    getEnvDecimal("DEFAULT_INCOME", decimal.NewFromInt(4000)),

		SessionTTL: getEnvDuration("SESSION_TTL", 30*time.Minute),
		SessionMax: getEnvInt("SESSION_MAX", 1000),

		AuditBatchSize: getEnvInt("AUDIT_BATCH_SIZE", 50),
	}

	return cfg
}

// AMQPEnabled reports whether the advice audit journal is configured.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate ledger backend
	validBackends := []string{"memory", "sheets", "sqlite"}
	if !oneOf(c.LedgerBackend, validBackends) {
		errors = append(errors, fmt.Sprintf("invalid ledger backend '%s': must be one of %v", c.LedgerBackend, validBackends))
	}

	if c.LedgerBackend == "memory" && c.LedgerCSVPath != "" {
		if _, err := os.Stat(c.LedgerCSVPath); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("ledger CSV file does not exist: %s", c.LedgerCSVPath))
		}
	}

	// Validate SQLite configuration if backend is sqlite
	if c.LedgerBackend == "sqlite" {
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
		if c.LedgerAccount == "" {
			errors = append(errors, "ledger account cannot be empty when using sqlite backend")
		}
	}

	// Validate AMQP URL if provided
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

	// Validate Google Sheets configuration if backend is sheets
	if c.LedgerBackend == "sheets" {
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		if c.GoogleLedgerRange == "" {
			errors = append(errors, "Google ledger range is required when using sheets backend")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	// Validate engine configuration
	validPolicies := []string{"rolling", "calendar", "fixed", "all"}
	if !oneOf(c.WindowPolicy, validPolicies) {
		errors = append(errors, fmt.Sprintf("invalid window policy '%s': must be one of %v", c.WindowPolicy, validPolicies))
	}
	if c.WindowPolicy == "rolling" && c.WindowDays < 1 {
		errors = append(errors, fmt.Sprintf("invalid window days %d: must be at least 1", c.WindowDays))
	}
	if c.WindowPolicy == "fixed" {
		if _, err := time.Parse("2006-01", c.WindowFixedMonth); err != nil {
			errors = append(errors, fmt.Sprintf("invalid window fixed month '%s': must be YYYY-MM", c.WindowFixedMonth))
		}
	}
	if !c.FoodBudget.IsPositive() {
		errors = append(errors, fmt.Sprintf("invalid food budget %s: must be positive", c.FoodBudget))
	}
	if c.DefaultIncome.IsNegative() {
		errors = append(errors, fmt.Sprintf("invalid default income %s: must not be negative", c.DefaultIncome))
	}

	// Validate sessions and rate limiting
	if c.SessionTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
	}
	if c.SessionMax < 1 {
		errors = append(errors, fmt.Sprintf("invalid session max %d: must be at least 1", c.SessionMax))
	}
	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 per minute", c.RateLimitPerMinute))
	}

	// Validate worker configuration
	if c.AuditBatchSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid audit batch size %d: must be at least 1", c.AuditBatchSize))
	} else if c.AuditBatchSize > 1000 {
		errors = append(errors, fmt.Sprintf("invalid audit batch size %d: must be at most 1000", c.AuditBatchSize))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func oneOf(value string, allowed []string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(strings.TrimSpace(value)); err == nil {
			return d
		}
	}
	return defaultValue
}
