package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	applog "shopledger/internal/log"
)

// Data backends.
const (
	BackendOpenSheet = "opensheet"
	BackendSheets    = "sheets"
	BackendMemory    = "memory"
)

// Spreadsheets the dashboards were built against.
const (
	DefaultBalanceSpreadsheetID      = "1lukJC1vKSq02Nus23svZ21_pp-86fz0mU1EARjalCBI"
	DefaultTransactionsSpreadsheetID = "1CfAAIdWp3TuamCkSUw5w_Vd3QQnjc7LjF4zo4u4eZv0"
	DefaultOpenSheetBaseURL          = "https://opensheet.elk.sh"
)

type Config struct {
	// HTTP Server
	Port string

	// Logging
	LogLevel  string
	LogFormat string

	// Backend selection
	DataBackend      string
	OpenSheetBaseURL string
	MemoryDataDir    string

	// Spreadsheets
	BalanceSpreadsheetID      string
	TransactionsSpreadsheetID string
	BackupIndexSpreadsheetID  string

	// Google Sheets service account
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Fetching and caching
	FetchTimeout time.Duration
	CacheTTL     time.Duration
	CacheSize    int

	// HTTP behaviour
	RateLimitRPS   float64
	RateLimitBurst int
	PageSize       int

	// AMQP; empty URL disables the refresh worker
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8081"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		DataBackend:      getEnv("DATA_BACKEND", BackendOpenSheet),
		OpenSheetBaseURL: getEnv("OPENSHEET_BASE_URL", DefaultOpenSheetBaseURL),
		MemoryDataDir:    getEnv("MEMORY_DATA_DIR", "./data"),

		BalanceSpreadsheetID:      getEnv("BALANCE_SPREADSHEET_ID", DefaultBalanceSpreadsheetID),
		TransactionsSpreadsheetID: getEnv("TRANSACTIONS_SPREADSHEET_ID", DefaultTransactionsSpreadsheetID),
		BackupIndexSpreadsheetID:  getEnv("BACKUP_INDEX_SPREADSHEET_ID", ""),

		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),

		FetchTimeout: getEnvDuration("FETCH_TIMEOUT", 15*time.Second),
		CacheTTL:     getEnvDuration("CACHE_TTL", 60*time.Second),
		CacheSize:    getEnvInt("CACHE_SIZE", 64),

		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 20),
		PageSize:       getEnvInt("PAGE_SIZE", 20),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "shopledger"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "sheet_changed"),
	}
}

// AMQPEnabled reports whether the refresh worker should run.
func (c *Config) AMQPEnabled() bool { return c.AMQPURL != "" }

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if _, err := applog.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, fmt.Sprintf("invalid LOG_LEVEL: %v", err))
	}
	if _, err := applog.ParseFormat(c.LogFormat); err != nil {
		errors = append(errors, fmt.Sprintf("invalid LOG_FORMAT: %v", err))
	}

	validBackends := []string{BackendOpenSheet, BackendSheets, BackendMemory}
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

	if strings.TrimSpace(c.BalanceSpreadsheetID) == "" {
		errors = append(errors, "BALANCE_SPREADSHEET_ID cannot be empty")
	}
	if strings.TrimSpace(c.TransactionsSpreadsheetID) == "" {
		errors = append(errors, "TRANSACTIONS_SPREADSHEET_ID cannot be empty")
	}

	switch c.DataBackend {
	case BackendOpenSheet:
		if u, err := url.Parse(c.OpenSheetBaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errors = append(errors, fmt.Sprintf("invalid OPENSHEET_BASE_URL '%s': must be an http(s) URL", c.OpenSheetBaseURL))
		}
	case BackendSheets:
		if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" && os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for sheets backend")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	case BackendMemory:
		if c.MemoryDataDir == "" {
			errors = append(errors, "MEMORY_DATA_DIR cannot be empty when using memory backend")
		}
	}

	if c.FetchTimeout < 0 {
		errors = append(errors, fmt.Sprintf("invalid fetch timeout %v: must not be negative", c.FetchTimeout))
	}
	if c.CacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must not be negative", c.CacheTTL))
	}
	if c.CacheSize < 1 || c.CacheSize > 10000 {
		errors = append(errors, fmt.Sprintf("invalid cache size %d: must be between 1 and 10000", c.CacheSize))
	}

	if c.RateLimitRPS <= 0 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %v: must be positive", c.RateLimitRPS))
	}
	if c.RateLimitBurst < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit burst %d: must be at least 1", c.RateLimitBurst))
	}
	if c.PageSize < 1 || c.PageSize > 500 {
		errors = append(errors, fmt.Sprintf("invalid page size %d: must be between 1 and 500", c.PageSize))
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
