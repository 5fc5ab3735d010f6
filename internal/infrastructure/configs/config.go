package configs

import (
	"fmt"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/lingopods/roomsync/internal/infrastructure/env"
)

type Config struct {
	HTTP        HTTPConfig        `koanf:"http"`
	RateLimiter RateLimiterConfig `koanf:"rateLimiter"`
	Sweeper     SweeperConfig     `koanf:"sweeper"`
	Token       TokenConfig       `koanf:"token"`
}

type HTTPConfig struct {
	Host           string        `koanf:"host"`
	Port           uint16        `koanf:"port"`
	AllowedOrigins []string      `koanf:"allowed_origins"`
	AllowedHeaders []string      `koanf:"allowed_headers"`
	ReadTimeout    time.Duration `koanf:"read_timeout"`
	WriteTimeout   time.Duration `koanf:"write_timeout"`
}

type RateLimiterConfig struct {
	MaxRatePerSecond int           `koanf:"maxRatePerSecond"`
	MaxBurst         int           `koanf:"maxBurst"`
	CacheTTL         time.Duration `koanf:"cacheTTL"`
	SourceHeaderKey  string        `koanf:"sourceHeaderKey"`
}

// SweeperConfig controls room reclamation. GraceWindow is how long an
// archived room is retained so late events can still no-op against it;
// MaxAge is the absolute backstop for rooms whose finish event never
// arrived.
type SweeperConfig struct {
	Interval    time.Duration `koanf:"interval"`
	GraceWindow time.Duration `koanf:"grace_window"`
	MaxAge      time.Duration `koanf:"max_age"`
}

type TokenConfig struct {
	TTL time.Duration `koanf:"ttl"`
	// IdentityHeader is set by the authenticating reverse proxy in front of
	// this service. Requests without it are unauthenticated.
	IdentityHeader string `koanf:"identity_header"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Load from YAML file if one was found
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	// Apply defaults and environment variable overrides
	applyDefaults(k)
	applyEnvOverrides(k)

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(k *koanf.Koanf) {
	// HTTP defaults
	setDefault(k, "http.host", "0.0.0.0")
	setDefault(k, "http.port", 8080)
	setDefault(k, "http.read_timeout", 10*time.Second)
	setDefault(k, "http.write_timeout", 30*time.Second)
	setDefault(k, "http.allowed_origins", []string{"*"})
	setDefault(k, "http.allowed_headers", []string{"Content-Type", "Authorization", "X-User-ID"})

	// Rate limiter defaults
	setDefault(k, "rateLimiter.maxRatePerSecond", 10)
	setDefault(k, "rateLimiter.maxBurst", 20)
	setDefault(k, "rateLimiter.cacheTTL", 5*time.Minute)
	setDefault(k, "rateLimiter.sourceHeaderKey", "X-Forwarded-For")

	// Sweeper defaults: short grace for archived rooms, 24h backstop for
	// rooms that never saw a finish event.
	setDefault(k, "sweeper.interval", 5*time.Minute)
	setDefault(k, "sweeper.grace_window", 30*time.Minute)
	setDefault(k, "sweeper.max_age", 24*time.Hour)

	// Token defaults
	setDefault(k, "token.ttl", 6*time.Hour)
	setDefault(k, "token.identity_header", "X-User-ID")
}

func applyEnvOverrides(k *koanf.Koanf) {
	// HTTP config from env
	if host := env.GetString("HTTP_HOST", ""); host != "" {
		k.Set("http.host", host)
	}
	if port := env.GetInt("HTTP_PORT", 0); port > 0 {
		k.Set("http.port", port)
	}
	if readTimeout := env.GetInt("HTTP_READ_TIMEOUT_SECONDS", 0); readTimeout > 0 {
		k.Set("http.read_timeout", time.Duration(readTimeout)*time.Second)
	}
	if writeTimeout := env.GetInt("HTTP_WRITE_TIMEOUT_SECONDS", 0); writeTimeout > 0 {
		k.Set("http.write_timeout", time.Duration(writeTimeout)*time.Second)
	}

	// Rate limiter config from env
	if maxRate := env.GetInt("RATE_LIMIT_MAX_RATE_PER_SECOND", 0); maxRate > 0 {
		k.Set("rateLimiter.maxRatePerSecond", maxRate)
	}
	if maxBurst := env.GetInt("RATE_LIMIT_MAX_BURST", 0); maxBurst > 0 {
		k.Set("rateLimiter.maxBurst", maxBurst)
	}

	// Sweeper config from env
	if interval := env.GetInt("SWEEP_INTERVAL_MINUTES", 0); interval > 0 {
		k.Set("sweeper.interval", time.Duration(interval)*time.Minute)
	}
	if grace := env.GetInt("ROOM_GRACE_WINDOW_MINUTES", 0); grace > 0 {
		k.Set("sweeper.grace_window", time.Duration(grace)*time.Minute)
	}
	if maxAge := env.GetInt("ROOM_MAX_AGE_HOURS", 0); maxAge > 0 {
		k.Set("sweeper.max_age", time.Duration(maxAge)*time.Hour)
	}

	// Token config from env
	if ttl := env.GetInt("TOKEN_TTL_MINUTES", 0); ttl > 0 {
		k.Set("token.ttl", time.Duration(ttl)*time.Minute)
	}
	if header := env.GetString("TOKEN_IDENTITY_HEADER", ""); header != "" {
		k.Set("token.identity_header", header)
	}
}

// setDefault only sets the value if the key doesn't already exist
func setDefault(k *koanf.Koanf, key string, value interface{}) {
	if !k.Exists(key) {
		k.Set(key, value)
	}
}
