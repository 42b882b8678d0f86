// Package config gathers runtime settings from the environment. A .env file
// in the working directory is honored for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultModel       = "gpt-4o-mini"
	defaultOutputPath  = "reconciliation_report.csv"
	defaultMaxRetries  = 3
	defaultBackoffBase = 2 * time.Second
	defaultBackoffMax  = 30 * time.Second
	defaultCallDelay   = 100 * time.Millisecond
)

// Config carries everything the reconcile pipeline needs to run.
type Config struct {
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	SetlistAPIURL       string
	SetlistFallbackPath string
	SetlistTokenURL     string
	SetlistClientID     string
	SetlistClientSecret string

	CatalogCSVPath string
	OutputCSVPath  string
	HistoryDBPath  string

	// MaxRetries counts retries after the first generator attempt.
	MaxRetries  int
	BackoffBase time.Duration
	BackoffMax  time.Duration
	CallDelay   time.Duration

	LogLevel string
	LogFile  string
}

// Load reads a .env file when present, then the process environment.
// Unreadable numeric values fall back to their defaults.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: os.Getenv("OPENAI_BASE_URL"),
		OpenAIModel:   envOr("OPENAI_MODEL", defaultModel),

		SetlistAPIURL:       os.Getenv("SETLIST_API_URL"),
		SetlistFallbackPath: os.Getenv("SETLIST_FALLBACK_PATH"),
		SetlistTokenURL:     os.Getenv("SETLIST_TOKEN_URL"),
		SetlistClientID:     os.Getenv("SETLIST_CLIENT_ID"),
		SetlistClientSecret: os.Getenv("SETLIST_CLIENT_SECRET"),

		CatalogCSVPath: os.Getenv("CATALOG_CSV_PATH"),
		OutputCSVPath:  envOr("OUTPUT_CSV_PATH", defaultOutputPath),
		HistoryDBPath:  os.Getenv("HISTORY_DB_PATH"),

		MaxRetries:  envInt("MAX_RETRIES", defaultMaxRetries),
		BackoffBase: envSeconds("BACKOFF_BASE_SECONDS", defaultBackoffBase),
		BackoffMax:  envSeconds("BACKOFF_MAX_SECONDS", defaultBackoffMax),
		CallDelay:   envMillis("RATE_LIMIT_DELAY_MS", defaultCallDelay),

		LogLevel: envOr("LOG_LEVEL", "info"),
		LogFile:  os.Getenv("LOG_FILE"),
	}
}

// Validate reports configuration the pipeline cannot start without. A
// missing OpenAI key is not an error here; the pipeline degrades to
// deterministic-only matching.
func (c Config) Validate() error {
	if c.CatalogCSVPath == "" {
		return fmt.Errorf("config: CATALOG_CSV_PATH is required")
	}
	if c.SetlistAPIURL == "" && c.SetlistFallbackPath == "" {
		return fmt.Errorf("config: set SETLIST_API_URL or SETLIST_FALLBACK_PATH")
	}
	if c.SetlistTokenURL != "" && (c.SetlistClientID == "" || c.SetlistClientSecret == "") {
		return fmt.Errorf("config: SETLIST_TOKEN_URL needs SETLIST_CLIENT_ID and SETLIST_CLIENT_SECRET")
	}
	if c.BackoffMax < c.BackoffBase {
		return fmt.Errorf("config: BACKOFF_MAX_SECONDS %s is below BACKOFF_BASE_SECONDS %s", c.BackoffMax, c.BackoffBase)
	}
	return nil
}

// LLMEnabled reports whether fuzzy matching can run.
func (c Config) LLMEnabled() bool {
	return c.OpenAIAPIKey != ""
}

func envOr(key, fallback string) string {
	if raw := strings.TrimSpace(os.Getenv(key)); raw != "" {
		return raw
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if raw := os.Getenv(key); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			return parsed
		}
	}
	return fallback
}

func envSeconds(key string, fallback time.Duration) time.Duration {
	if raw := os.Getenv(key); raw != "" {
		if parsed, err := strconv.ParseFloat(raw, 64); err == nil && parsed > 0 {
			return time.Duration(parsed * float64(time.Second))
		}
	}
	return fallback
}

func envMillis(key string, fallback time.Duration) time.Duration {
	if raw := os.Getenv(key); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			return time.Duration(parsed) * time.Millisecond
		}
	}
	return fallback
}
