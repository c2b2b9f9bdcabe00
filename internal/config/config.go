package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port               string
	RateLimitPerMinute int

	// Ledger backend
	LedgerBackend    string
	LedgerAPIURL     string
	LedgerAPITimeout time.Duration
	LedgerSeedFile   string

	// Audit database
	SQLiteDBPath string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets report export
	GoogleSpreadsheetID string
	ReportSheetName     string
	ReportMirrorDir     string
	ReportRetention     time.Duration

	// Views
	RefreshInterval time.Duration
	CacheTTL        time.Duration
	CacheSize       int
}

// Ledger backend kinds.
const (
	BackendREST   = "rest"
	BackendMemory = "memory"
)

func Load() *Config {
	cfg := &Config{
		Port:               getEnv("PORT", "8081"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),

		LedgerBackend:    getEnv("LEDGER_BACKEND", BackendMemory),
		LedgerAPIURL:     getEnv("LEDGER_API_URL", ""),
		LedgerAPITimeout: getEnvDuration("LEDGER_API_TIMEOUT", 15*time.Second),
		LedgerSeedFile:   getEnv("LEDGER_SEED_FILE", ""),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/tripledger.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "tripledger"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_changed"),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		ReportSheetName:     getEnv("REPORT_SHEET_NAME", "Trips"),
		ReportMirrorDir:     getEnv("REPORT_MIRROR_DIR", ""),
		ReportRetention:     getEnvDuration("REPORT_RETENTION", 30*24*time.Hour),

		RefreshInterval: getEnvDuration("REFRESH_INTERVAL", 5*time.Minute),
		CacheTTL:        getEnvDuration("CACHE_TTL", time.Minute),
		CacheSize:       getEnvInt("CACHE_SIZE", 128),
	}

	return cfg
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
	switch c.LedgerBackend {
	case BackendREST:
		if c.LedgerAPIURL == "" {
			errors = append(errors, "LEDGER_API_URL is required when using rest backend")
		} else if parsedURL, err := url.Parse(c.LedgerAPIURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid ledger API URL '%s': %v", c.LedgerAPIURL, err))
		} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			errors = append(errors, fmt.Sprintf("invalid ledger API URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
		}
		if c.LedgerAPITimeout < time.Second {
			errors = append(errors, fmt.Sprintf("invalid ledger API timeout %v: must be at least 1 second", c.LedgerAPITimeout))
		}
	case BackendMemory:
		if c.LedgerSeedFile != "" {
			if _, err := os.Stat(c.LedgerSeedFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("ledger seed file does not exist: %s", c.LedgerSeedFile))
			}
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid ledger backend '%s': must be one of %v", c.LedgerBackend, []string{BackendREST, BackendMemory}))
	}

	// The audit database is optional; an empty path disables it
	if c.SQLiteDBPath != "" {
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
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

	if c.GoogleSpreadsheetID != "" && c.ReportSheetName == "" {
		errors = append(errors, "REPORT_SHEET_NAME is required when GOOGLE_SPREADSHEET_ID is set")
	}

	if c.ReportRetention < 0 {
		errors = append(errors, fmt.Sprintf("invalid report retention %v: must not be negative", c.ReportRetention))
	}

	if c.RefreshInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid refresh interval %v: must be at least 1 second", c.RefreshInterval))
	} else if c.RefreshInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid refresh interval %v: must be at most 24 hours", c.RefreshInterval))
	}

	if c.CacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid cache size %d: must be at least 1", c.CacheSize))
	}
	if c.CacheTTL <= 0 {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must be positive", c.CacheTTL))
	}
	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	// Return combined errors
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
