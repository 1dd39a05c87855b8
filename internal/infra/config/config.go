package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Summary   SummaryConfig   `yaml:"summary"`
	Annotator AnnotatorConfig `yaml:"annotator"`
	Auth      AuthConfig      `yaml:"auth"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string          `yaml:"address"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	WriteTimeout   time.Duration   `yaml:"writeTimeout"`
	ShutdownGrace  time.Duration   `yaml:"shutdownGrace"`
	MaxBodyBytes   int64           `yaml:"maxBodyBytes"`
	AllowedOrigins []string        `yaml:"allowedOrigins"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
	Retry          RetryConfig     `yaml:"retry"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool         `yaml:"enabled"`
	RequestsPerMinute int          `yaml:"requestsPerMinute"`
	Burst             int          `yaml:"burst"`
	Valkey            ValkeyConfig `yaml:"valkey"`
}

// ValkeyConfig contains connection information for the shared limiter store.
type ValkeyConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Addr      string `yaml:"addr"`
	KeyPrefix string `yaml:"keyPrefix"`
}

// RetryConfig configures best-effort retries for idempotent requests.
type RetryConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxAttempts int           `yaml:"maxAttempts"`
	BaseBackoff time.Duration `yaml:"baseBackoff"`
	Exclude     []string      `yaml:"exclude"`
}

// SummaryConfig defines the ranking and selection knobs of the summarizer.
type SummaryConfig struct {
	AllowedTags          []string      `yaml:"allowedTags"`
	Damping              float64       `yaml:"damping"`
	ConvergenceThreshold float64       `yaml:"convergenceThreshold"`
	MaxIterations        int           `yaml:"maxIterations"`
	Budget               int           `yaml:"budget"`
	MaxBudget            int           `yaml:"maxBudget"`
	LengthUnit           string        `yaml:"lengthUnit"`
	ScoringMode          string        `yaml:"scoringMode"`
	Separator            string        `yaml:"separator"`
	MaxKeywords          int           `yaml:"maxKeywords"`
	Workers              int           `yaml:"workers"`
	Timeout              time.Duration `yaml:"timeout"`
	Encoding             string        `yaml:"encoding"`
}

// AnnotatorConfig points at the external NLP annotation service.
type AnnotatorConfig struct {
	BaseURL string        `yaml:"baseUrl"`
	Timeout time.Duration `yaml:"timeout"`
}

// AuthConfig controls bearer token verification on the API routes.
type AuthConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Secret   string        `yaml:"secret"`
	Issuer   string        `yaml:"issuer"`
	TokenTTL time.Duration `yaml:"tokenTtl"`
}

// Load reads configuration from a YAML file, an optional .env file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	if err := loadDotEnv(os.Getenv("ENV_FILE")); err != nil {
		return nil, err
	}
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

// loadDotEnv never overrides variables already present in the environment.
func loadDotEnv(path string) error {
	if path == "" {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("HTTP_MAX_BODY_BYTES"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.HTTP.MaxBodyBytes = parsed
		}
	}
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_ENABLED"); v != "" {
		cfg.HTTP.RateLimit.Enabled = parseBool(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_RPM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.RequestsPerMinute = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_BURST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.Burst = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_VALKEY_ENABLED"); v != "" {
		cfg.HTTP.RateLimit.Valkey.Enabled = parseBool(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_VALKEY_ADDR"); v != "" {
		cfg.HTTP.RateLimit.Valkey.Addr = v
	}
	if v := os.Getenv("HTTP_RETRY_ENABLED"); v != "" {
		cfg.HTTP.Retry.Enabled = parseBool(v)
	}
	if v := os.Getenv("HTTP_RETRY_MAX_ATTEMPTS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.Retry.MaxAttempts = parsed
		}
	}
	if v := os.Getenv("HTTP_RETRY_BASE_BACKOFF"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.HTTP.Retry.BaseBackoff = parsed
		}
	}
	if v := os.Getenv("SUMMARY_ALLOWED_TAGS"); v != "" {
		cfg.Summary.AllowedTags = splitList(v)
	}
	if v := os.Getenv("SUMMARY_DAMPING"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Summary.Damping = parsed
		}
	}
	if v := os.Getenv("SUMMARY_CONVERGENCE_THRESHOLD"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Summary.ConvergenceThreshold = parsed
		}
	}
	if v := os.Getenv("SUMMARY_MAX_ITERATIONS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Summary.MaxIterations = parsed
		}
	}
	if v := os.Getenv("SUMMARY_BUDGET"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Summary.Budget = parsed
		}
	}
	if v := os.Getenv("SUMMARY_MAX_BUDGET"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Summary.MaxBudget = parsed
		}
	}
	if v := os.Getenv("SUMMARY_LENGTH_UNIT"); v != "" {
		cfg.Summary.LengthUnit = v
	}
	if v := os.Getenv("SUMMARY_SCORING_MODE"); v != "" {
		cfg.Summary.ScoringMode = v
	}
	if v, ok := os.LookupEnv("SUMMARY_SEPARATOR"); ok {
		if unquoted, err := strconv.Unquote(`"` + v + `"`); err == nil {
			v = unquoted
		}
		cfg.Summary.Separator = v
	}
	if v := os.Getenv("SUMMARY_MAX_KEYWORDS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Summary.MaxKeywords = parsed
		}
	}
	if v := os.Getenv("SUMMARY_WORKERS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Summary.Workers = parsed
		}
	}
	if v := os.Getenv("SUMMARY_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Summary.Timeout = parsed
		}
	}
	if v := os.Getenv("SUMMARY_ENCODING"); v != "" {
		cfg.Summary.Encoding = v
	}
	if v := os.Getenv("ANNOTATOR_BASE_URL"); v != "" {
		cfg.Annotator.BaseURL = v
	}
	if v := os.Getenv("ANNOTATOR_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Annotator.Timeout = parsed
		}
	}
	if v := os.Getenv("AUTH_ENABLED"); v != "" {
		cfg.Auth.Enabled = parseBool(v)
	}
	if v := os.Getenv("AUTH_SECRET"); v != "" {
		cfg.Auth.Secret = v
	}
	if v := os.Getenv("AUTH_ISSUER"); v != "" {
		cfg.Auth.Issuer = v
	}
	if v := os.Getenv("AUTH_TOKEN_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Auth.TokenTTL = parsed
		}
	}
}

func parseBool(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:        ":8080",
			ReadTimeout:    5 * time.Second,
			WriteTimeout:   15 * time.Second,
			ShutdownGrace:  10 * time.Second,
			MaxBodyBytes:   2 << 20,
			AllowedOrigins: []string{"http://localhost:3000"},
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 60,
				Burst:             20,
				Valkey: ValkeyConfig{
					KeyPrefix: "news-reducer:ratelimit",
				},
			},
			Retry: RetryConfig{
				Enabled:     true,
				MaxAttempts: 3,
				BaseBackoff: 150 * time.Millisecond,
			},
		},
		Summary: SummaryConfig{
			AllowedTags:          []string{"NOUN", "PROPN", "ADJ"},
			Damping:              0.85,
			ConvergenceThreshold: 0.001,
			MaxIterations:        100,
			Budget:               250,
			MaxBudget:            5000,
			LengthUnit:           "words",
			ScoringMode:          "weighted",
			Separator:            "\n",
			MaxKeywords:          5,
			Workers:              1,
			Timeout:              10 * time.Second,
			Encoding:             "cl100k_base",
		},
		Annotator: AnnotatorConfig{
			Timeout: 10 * time.Second,
		},
		Auth: AuthConfig{
			Issuer:   "news-reducer",
			TokenTTL: 24 * time.Hour,
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.MaxBodyBytes < 0 {
		return errors.New("http.maxBodyBytes cannot be negative")
	}
	if len(c.Summary.AllowedTags) == 0 {
		return errors.New("summary.allowedTags cannot be empty")
	}
	if c.Summary.Damping < 0 || c.Summary.Damping > 1 {
		return errors.New("summary.damping must be within [0, 1]")
	}
	if c.Summary.ConvergenceThreshold <= 0 {
		return errors.New("summary.convergenceThreshold must be positive")
	}
	if c.Summary.MaxIterations <= 0 {
		return errors.New("summary.maxIterations must be positive")
	}
	if c.Summary.Budget <= 0 {
		return errors.New("summary.budget must be positive")
	}
	if c.Summary.MaxBudget < c.Summary.Budget {
		return errors.New("summary.maxBudget cannot be below summary.budget")
	}
	switch c.Summary.LengthUnit {
	case "words", "chars", "tokens":
	default:
		return fmt.Errorf("summary.lengthUnit %q is not one of words, chars, tokens", c.Summary.LengthUnit)
	}
	switch c.Summary.ScoringMode {
	case "weighted", "unit":
	default:
		return fmt.Errorf("summary.scoringMode %q is not one of weighted, unit", c.Summary.ScoringMode)
	}
	if c.Summary.MaxKeywords < 0 {
		return errors.New("summary.maxKeywords cannot be negative")
	}
	if c.Summary.Workers <= 0 {
		return errors.New("summary.workers must be positive")
	}
	if c.Summary.Timeout < 0 {
		return errors.New("summary.timeout cannot be negative")
	}
	if c.Summary.LengthUnit == "tokens" && strings.TrimSpace(c.Summary.Encoding) == "" {
		return errors.New("summary.encoding cannot be empty when lengthUnit is tokens")
	}
	if c.Annotator.Timeout <= 0 {
		return errors.New("annotator.timeout must be positive")
	}
	if c.Auth.Enabled && strings.TrimSpace(c.Auth.Secret) == "" {
		return errors.New("auth.secret cannot be empty when auth is enabled")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
		if c.HTTP.RateLimit.Valkey.Enabled && strings.TrimSpace(c.HTTP.RateLimit.Valkey.Addr) == "" {
			return errors.New("http.rateLimit.valkey.addr cannot be empty when valkey is enabled")
		}
	}
	if c.HTTP.Retry.Enabled {
		if c.HTTP.Retry.MaxAttempts <= 0 {
			return errors.New("http.retry.maxAttempts must be positive")
		}
		if c.HTTP.Retry.BaseBackoff <= 0 {
			return errors.New("http.retry.baseBackoff must be positive")
		}
	}
	return nil
}
