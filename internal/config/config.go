package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ContinuationInProcess = "inprocess"
	ContinuationHTTP      = "http"
)

type Config struct {
	DatabaseURL string
	Port        string

	Log      LogConfig
	Sync     SyncConfig
	Dispatch DispatchConfig
	Shopify  ShopifyConfig
	CardAPI  CardAPIConfig
	Match    MatchConfig
	Resume   ResumeConfig
	Aliases  AliasesConfig

	CardImportChunkSize int
}

type LogConfig struct {
	Level  string
	Format string
}

type SyncConfig struct {
	PageSize  int
	AutoSweep bool
}

type DispatchConfig struct {
	Workers   int
	QueueSize int
	// Mode picks how continuations are scheduled: in-process workers or a
	// POST back to PublicBaseURL.
	Mode          string
	PublicBaseURL string
	TriggerToken  string
}

type ShopifyConfig struct {
	WebhookSecret string
	APIVersion    string
}

type CardAPIConfig struct {
	BaseURL           string
	RequestsPerSecond float64
}

type MatchConfig struct {
	Workers         int
	FuzzyWords      int
	CacheCandidates int
	SweepBatchSize  int
}

type ResumeConfig struct {
	StaleAfter time.Duration
	Interval   time.Duration
}

type AliasesConfig struct {
	Dir  string
	File string
}

// Load reads an optional .env file and then the process environment. A
// missing env file is not an error.
func Load(envFilePath string) (*Config, error) {
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	cfg := &Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),
		Port:        getEnv("PORT", "8080"),
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Sync: SyncConfig{
			PageSize:  parseIntEnv("SYNC_PAGE_SIZE", 250),
			AutoSweep: parseBoolEnv("AUTO_SWEEP", true),
		},
		Dispatch: DispatchConfig{
			Workers:       parseIntEnv("DISPATCH_WORKERS", 4),
			QueueSize:     parseIntEnv("DISPATCH_QUEUE_SIZE", 256),
			Mode:          strings.ToLower(getEnv("CONTINUATION_MODE", ContinuationInProcess)),
			PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
			TriggerToken:  getEnv("TRIGGER_TOKEN", ""),
		},
		Shopify: ShopifyConfig{
			WebhookSecret: getEnv("SHOPIFY_WEBHOOK_SECRET", ""),
			APIVersion:    getEnv("SHOPIFY_API_VERSION", "2024-01"),
		},
		CardAPI: CardAPIConfig{
			BaseURL:           getEnv("CARD_API_BASE_URL", "https://db.ygoprodeck.com/api/v7/cardinfo.php"),
			RequestsPerSecond: parseFloatEnv("CARD_API_RPS", 10),
		},
		Match: MatchConfig{
			Workers:         parseIntEnv("MATCH_WORKERS", 5),
			FuzzyWords:      parseIntEnv("MATCH_FUZZY_WORDS", 3),
			CacheCandidates: parseIntEnv("MATCH_CACHE_CANDIDATES", 10),
			SweepBatchSize:  parseIntEnv("SWEEP_BATCH_SIZE", 100),
		},
		Resume: ResumeConfig{
			StaleAfter: time.Duration(parseIntEnv("STALE_JOB_AFTER_SECONDS", 300)) * time.Second,
			Interval:   time.Duration(parseIntEnv("RESUME_INTERVAL_SECONDS", 60)) * time.Second,
		},
		Aliases: AliasesConfig{
			Dir:  getEnv("ALIASES_DIR", "."),
			File: getEnv("ALIASES_FILE", ""),
		},
		CardImportChunkSize: parseIntEnv("CARD_IMPORT_CHUNK_SIZE", 100),
	}

	return cfg, nil
}

// Validate checks the settings the HTTP server cannot run without.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	switch c.Dispatch.Mode {
	case ContinuationInProcess:
	case ContinuationHTTP:
		if c.Dispatch.PublicBaseURL == "" {
			return errors.New("PUBLIC_BASE_URL is required when CONTINUATION_MODE=http")
		}
	default:
		return fmt.Errorf("unknown CONTINUATION_MODE %q", c.Dispatch.Mode)
	}
	return nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func parseIntEnv(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func parseFloatEnv(key string, fallback float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return value
}

func parseBoolEnv(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return value
}
