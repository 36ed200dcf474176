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

	"pdptracker/internal/core"
)

const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"

	ProviderNone      = ""
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

type Config struct {
	// HTTP server
	Port             string
	LogLevel         string
	ShutdownTimeout  time.Duration
	TrustedProxies   []string
	RateLimit        int
	AnalyzeRateLimit int

	// Records
	DataBackend    string
	SQLiteDBPath   string
	RosterFile     string
	SeedHistorical bool

	// Pricing
	PricePrevious    string
	PriceCurrent     string
	PriceCutoverYear int

	// AMQP change events
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets mirror
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string
	MirrorResyncInterval     time.Duration

	// Assistant
	AssistantProvider  string
	AnthropicAPIKey    string
	AnthropicModel     string
	AnthropicBaseURL   string
	GeminiAPIKey       string
	GeminiModel        string
	AssistantMaxTokens int
	AssistantCacheSize int
	AssistantCacheTTL  time.Duration
}

func Load() *Config {
	return &Config{
		Port:             getEnv("PORT", "8081"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		ShutdownTimeout:  getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		TrustedProxies:   getEnvList("TRUSTED_PROXIES"),
		RateLimit:        getEnvInt("RATE_LIMIT", 120),
		AnalyzeRateLimit: getEnvInt("ANALYZE_RATE_LIMIT", 10),

		DataBackend:    getEnv("DATA_BACKEND", BackendMemory),
		SQLiteDBPath:   getEnv("SQLITE_DB_PATH", "./data/pdptracker.db"),
		RosterFile:     getEnv("ROSTER_FILE", ""),
		SeedHistorical: getEnvBool("SEED_HISTORICAL", true),

		PricePrevious:    getEnv("PRICE_PREVIOUS", core.DefaultPrices.Previous.String()),
		PriceCurrent:     getEnv("PRICE_CURRENT", core.DefaultPrices.Current.String()),
		PriceCutoverYear: getEnvInt("PRICE_CUTOVER_YEAR", core.DefaultPrices.LastPreviousYear),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "pdptracker"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "entry_changes"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Registros"),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		MirrorResyncInterval:     getEnvDuration("MIRROR_RESYNC_INTERVAL", time.Hour),

		AssistantProvider:  parseProvider(getEnv("ASSISTANT_PROVIDER", ProviderAnthropic)),
		AnthropicAPIKey:    getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicModel:     getEnv("ANTHROPIC_MODEL", ""),
		AnthropicBaseURL:   getEnv("ANTHROPIC_BASE_URL", ""),
		GeminiAPIKey:       getEnv("GEMINI_API_KEY", ""),
		GeminiModel:        getEnv("GEMINI_MODEL", ""),
		AssistantMaxTokens: getEnvInt("ASSISTANT_MAX_TOKENS", 1024),
		AssistantCacheSize: getEnvInt("ASSISTANT_CACHE_SIZE", 64),
		AssistantCacheTTL:  getEnvDuration("ASSISTANT_CACHE_TTL", 10*time.Minute),
	}
}

// MirrorEnabled reports whether entry changes are published and mirrored
// to a spreadsheet.
func (c *Config) MirrorEnabled() bool {
	return c.AMQPURL != "" && c.GoogleSpreadsheetID != ""
}

// Prices builds the price table from the configured rates.
func (c *Config) Prices() (core.PriceTable, error) {
	prev, err := decimal.NewFromString(c.PricePrevious)
	if err != nil {
		return core.PriceTable{}, fmt.Errorf("parse PRICE_PREVIOUS %q: %w", c.PricePrevious, err)
	}
	cur, err := decimal.NewFromString(c.PriceCurrent)
	if err != nil {
		return core.PriceTable{}, fmt.Errorf("parse PRICE_CURRENT %q: %w", c.PriceCurrent, err)
	}
	return core.PriceTable{Previous: prev, Current: cur, LastPreviousYear: c.PriceCutoverYear}, nil
}

// Validate checks every setting and reports all problems at once.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.DataBackend {
	case BackendMemory:
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of [memory sqlite]", c.DataBackend))
	}

	if c.RosterFile != "" {
		if _, err := os.Stat(c.RosterFile); err != nil {
			errors = append(errors, fmt.Sprintf("roster file not readable: %s", c.RosterFile))
		}
	}

	if p, err := c.Prices(); err != nil {
		errors = append(errors, err.Error())
	} else if p.Previous.IsNegative() || p.Current.IsNegative() {
		errors = append(errors, "prices must not be negative")
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

	if c.GoogleSpreadsheetID != "" {
		if c.GoogleSheetName == "" {
			errors = append(errors, "Google Sheet name is required when a spreadsheet is configured")
		}
		if c.GoogleServiceAccountFile == "" && c.GoogleServiceAccountJSON == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_JSON must be provided for the sheets mirror")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
		if c.MirrorResyncInterval < time.Minute {
			errors = append(errors, fmt.Sprintf("invalid mirror resync interval %v: must be at least 1m", c.MirrorResyncInterval))
		}
	}

	switch c.AssistantProvider {
	case ProviderNone:
	case ProviderAnthropic:
		if c.AnthropicBaseURL != "" {
			if u, err := url.Parse(c.AnthropicBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
				errors = append(errors, fmt.Sprintf("invalid ANTHROPIC_BASE_URL '%s'", c.AnthropicBaseURL))
			}
		}
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			errors = append(errors, "GEMINI_API_KEY is required when ASSISTANT_PROVIDER is gemini")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid assistant provider '%s': must be one of [anthropic gemini] or empty", c.AssistantProvider))
	}

	if c.AssistantMaxTokens < 1 || c.AssistantMaxTokens > 8192 {
		errors = append(errors, fmt.Sprintf("invalid assistant max tokens %d: must be between 1 and 8192", c.AssistantMaxTokens))
	}
	if c.AssistantCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid assistant cache TTL %v: must not be negative", c.AssistantCacheTTL))
	}
	if c.RateLimit < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1", c.RateLimit))
	}
	if c.AnalyzeRateLimit < 1 {
		errors = append(errors, fmt.Sprintf("invalid analyze rate limit %d: must be at least 1", c.AnalyzeRateLimit))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// parseProvider maps "none" and "off" to ProviderNone.
func parseProvider(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "none" || s == "off" {
		return ProviderNone
	}
	return s
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

func getEnvList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
