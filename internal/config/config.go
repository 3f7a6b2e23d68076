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

// ErrMissingCredential marks a required secret that is absent from the environment.
var ErrMissingCredential = errors.New("missing credential")

const (
	DefaultPushBaseURL   = "https://sctapi.ftqq.com"
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultFeedBaseURL   = "https://news.google.com/rss"
	DefaultTranslateURL  = "https://translate.googleapis.com/translate_a/single"
	DefaultHelperURL     = "https://translate.google.com/translate"
)

type Config struct {
	// Push (ServerChan) settings
	PushKey     string
	PushBaseURL string

	// Gemini settings
	GeminiAPIKey  string
	GeminiBaseURL string
	Summarize     bool

	// Translation settings
	OpenAIAPIKey   string
	TranslateURL   string
	HelperURL      string
	TargetLanguage string

	// Feed settings
	FeedBaseURL string
	DigestPath  string
	Digest      Digest

	// App settings
	Debug          bool
	LogFile        string
	RequestTimeout time.Duration
	Timezone       string
}

// Load reads .env (if present), the environment and the digest file, then validates.
func Load() (*Config, error) {
	// A missing .env is the normal case in CI.
	_ = godotenv.Load()

	cfg := &Config{
		PushBaseURL:    DefaultPushBaseURL,
		GeminiBaseURL:  DefaultGeminiBaseURL,
		TranslateURL:   DefaultTranslateURL,
		HelperURL:      DefaultHelperURL,
		TargetLanguage: "zh-TW",
		FeedBaseURL:    DefaultFeedBaseURL,
		DigestPath:     "configs/digest.yaml",
		RequestTimeout: 30 * time.Second,
		Timezone:       "Asia/Taipei",
	}

	cfg.PushKey = strings.TrimSpace(os.Getenv("SCKEY"))
	cfg.GeminiAPIKey = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	cfg.OpenAIAPIKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))

	cfg.PushBaseURL = getEnvOrDefault("PUSH_BASE_URL", cfg.PushBaseURL)
	cfg.GeminiBaseURL = getEnvOrDefault("GEMINI_BASE_URL", cfg.GeminiBaseURL)
	cfg.FeedBaseURL = getEnvOrDefault("FEED_BASE_URL", cfg.FeedBaseURL)
	cfg.TranslateURL = getEnvOrDefault("TRANSLATE_API_URL", cfg.TranslateURL)
	cfg.DigestPath = getEnvOrDefault("DIGEST_CONFIG", cfg.DigestPath)
	cfg.Timezone = getEnvOrDefault("REPORT_TIMEZONE", cfg.Timezone)
	cfg.LogFile = os.Getenv("LOG_FILE")

	cfg.Summarize = getEnvBool("SUMMARIZE")
	cfg.Debug = getEnvBool("DEBUG")

	if v := getEnvIntOrDefault("REQUEST_TIMEOUT_SECONDS", 0); v > 0 {
		cfg.RequestTimeout = time.Duration(v) * time.Second
	}

	digest, err := LoadDigest(cfg.DigestPath)
	if err != nil {
		return nil, err
	}
	cfg.Digest = digest
	if cfg.Digest.TargetLanguage != "" {
		cfg.TargetLanguage = cfg.Digest.TargetLanguage
	}
	if v := os.Getenv("TARGET_LANGUAGE"); v != "" {
		cfg.TargetLanguage = v
	}

	return cfg, cfg.Validate()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	return err == nil && v
}

// Validate checks the preconditions that must hold before any network I/O.
func (c *Config) Validate() error {
	if c.PushKey == "" {
		return fmt.Errorf("SCKEY is required: %w", ErrMissingCredential)
	}
	if c.Summarize && c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required when SUMMARIZE=true: %w", ErrMissingCredential)
	}
	return c.Digest.Validate()
}

// Location resolves the report timezone, falling back to UTC+8.
func (c *Config) Location() *time.Location {
	if loc, err := time.LoadLocation(c.Timezone); err == nil {
		return loc
	}
	return time.FixedZone("CST", 8*60*60)
}
