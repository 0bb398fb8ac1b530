// Package config loads the lingocache command's settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	lc "github.com/unkn0wn-root/lingocache"
	"github.com/unkn0wn-root/lingocache/retry"
)

// Persistence backends for durable namespaces.
const (
	BackendMemory    = "memory"
	BackendBigcache  = "bigcache"
	BackendRistretto = "ristretto"
	BackendRedis     = "redis"
	BackendValkey    = "valkey"
)

type Config struct {
	LogFormat string `env:"LOG_FORMAT" envDefault:"slog"` // slog|zap|logrus
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`

	Gemini GeminiConfig `envPrefix:"GEMINI_"`
	OpenAI OpenAIConfig `envPrefix:"OPENAI_"`

	Cache  CacheConfig  `envPrefix:"CACHE_"`
	Redis  RemoteConfig `envPrefix:"REDIS_"`
	Valkey RemoteConfig `envPrefix:"VALKEY_"`

	Retry           RetryConfig   `envPrefix:"RETRY_"`
	AvailabilityTTL time.Duration `env:"AVAILABILITY_TTL" envDefault:"60s"`
}

type GeminiConfig struct {
	APIKey string `env:"API_KEY"`
	Model  string `env:"MODEL"`
}

type OpenAIConfig struct {
	APIKey  string `env:"API_KEY"`
	Model   string `env:"MODEL"`
	BaseURL string `env:"BASE_URL"`
}

type CacheConfig struct {
	Disabled   bool   `env:"DISABLED"`
	Backend    string `env:"BACKEND" envDefault:"memory"`
	QuotaBytes int64  `env:"QUOTA_BYTES" envDefault:"10485760"`
	Codec      string `env:"CODEC" envDefault:"json"` // json|msgpack|cbor, for vocabulary lists

	// in-process backend sizing
	MaxCostBytes int64         `env:"MAX_COST_BYTES" envDefault:"67108864"`
	LifeWindow   time.Duration `env:"LIFE_WINDOW" envDefault:"24h"`
}

type RemoteConfig struct {
	Addr     string `env:"ADDR" envDefault:"localhost:6379"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB"`
	Prefix   string `env:"GEN_PREFIX" envDefault:"lingocache:"`
}

type RetryConfig struct {
	MaxAttempts    int           `env:"MAX_ATTEMPTS" envDefault:"3"`
	BaseDelay      time.Duration `env:"BASE_DELAY" envDefault:"1s"`
	MaxDelay       time.Duration `env:"MAX_DELAY" envDefault:"10s"`
	Multiplier     float64       `env:"MULTIPLIER" envDefault:"2"`
	JitterFraction float64       `env:"JITTER" envDefault:"0.2"`
	AttemptTimeout time.Duration `env:"ATTEMPT_TIMEOUT" envDefault:"15s"`
}

// Load reads files (default ".env") into the process environment when they
// exist, then parses the environment. Variables already set win over files.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: load %s: %w", f, err)
		}
	}
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	switch strings.ToLower(c.LogFormat) {
	case "slog", "zap", "logrus":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT %q: want slog, zap or logrus", c.LogFormat))
	}
	switch c.Cache.Backend {
	case BackendMemory, BackendBigcache, BackendRistretto, BackendRedis, BackendValkey:
	default:
		errs = append(errs, fmt.Errorf("CACHE_BACKEND %q: unknown backend", c.Cache.Backend))
	}
	switch c.Cache.Codec {
	case "json", "msgpack", "cbor":
	default:
		errs = append(errs, fmt.Errorf("CACHE_CODEC %q: want json, msgpack or cbor", c.Cache.Codec))
	}
	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("RETRY_MAX_ATTEMPTS must be at least 1"))
	}
	if c.Retry.JitterFraction < 0 || c.Retry.JitterFraction > 1 {
		errs = append(errs, fmt.Errorf("RETRY_JITTER must be within [0,1]"))
	}
	if c.Retry.BaseDelay > c.Retry.MaxDelay {
		errs = append(errs, fmt.Errorf("RETRY_BASE_DELAY exceeds RETRY_MAX_DELAY"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// RetryConfig converts the retry settings. A zero jitter disables jitter.
func (c Config) RetryConfig() retry.Config {
	r := retry.Config{
		MaxRetries:     c.Retry.MaxAttempts,
		BaseDelay:      c.Retry.BaseDelay,
		MaxDelay:       c.Retry.MaxDelay,
		Multiplier:     c.Retry.Multiplier,
		JitterFraction: c.Retry.JitterFraction,
		AttemptTimeout: c.Retry.AttemptTimeout,
	}
	if r.JitterFraction == 0 {
		r.JitterFraction = -1
	}
	return r
}

// StoreOptions returns the store settings that come from the environment. A
// zero CACHE_QUOTA_BYTES means unlimited. The caller adds Provider, GenStore,
// Logger and Hooks.
func (c Config) StoreOptions() lc.Options {
	q := c.Cache.QuotaBytes
	if q == 0 {
		q = -1
	}
	return lc.Options{
		Disabled:   c.Cache.Disabled,
		QuotaBytes: q,
	}
}
