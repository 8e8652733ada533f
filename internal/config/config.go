// Package config builds the immutable process configuration from three
// ordered layers: hard defaults, then PODGATE_* environment variables, then
// explicit overrides passed by the caller. Resolution happens once; nothing
// re-reads the environment per request.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"github.com/podgate/podgate/internal/policy"
)

const envPrefix = "PODGATE_"

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Logging    LoggingConfig
	Auth       AuthConfig
	Classifier ClassifierConfig
	Moderation ModerationConfig
	Audit      AuditConfig
}

// AuthConfig holds the optional bearer-token settings used to record actor
// identity. Empty secret means no identity is recorded.
type AuthConfig struct {
	JWTSecret string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	HTTPAddr string
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string
}

// ClassifierConfig selects and configures the classification backend.
type ClassifierConfig struct {
	// Backend is "http", "rekognition", or "mock".
	Backend   string
	BaseURL   string
	APIUser   string
	APISecret string
	AWSRegion string
	// Timeout bounds each classification call; a timeout is treated like
	// any other classification failure (fail-open).
	Timeout time.Duration
}

// KindConfig is the per-kind policy surface: which categories run and which
// thresholds apply.
type KindConfig struct {
	Categories []string
	Thresholds map[string]float64
}

// ModerationConfig holds the decision policy settings.
type ModerationConfig struct {
	RejectMismatch bool
	TextLang       string
	Image          KindConfig
	Text           KindConfig
	Video          KindConfig
}

// AuditConfig selects and configures the audit sink.
type AuditConfig struct {
	// Backend is "file", "postgres", "redis", or "none".
	Backend  string
	FilePath string

	PGHost     string
	PGPort     int
	PGUser     string
	PGPassword string
	PGDatabase string
	PGSSLMode  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisStream   string
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"server.addr":         ":8080",
		"log.level":           "info",
		"classifier.backend":  "http",
		"classifier.url":      "https://api.sightengine.com",
		"classifier.timeout":  "10s",
		"moderation.mismatch": true,
		"moderation.lang":     "en",
		"audit.backend":       "file",
		"audit.path":          "moderation-audit.log",
		"audit.pg.host":       "localhost",
		"audit.pg.port":       5432,
		"audit.pg.user":       "postgres",
		"audit.pg.password":   "postgres",
		"audit.pg.db":         "podgate",
		"audit.pg.sslmode":    "disable",
		"audit.redis.addr":    "localhost:6379",
		"audit.redis.stream":  "podgate:audit",
	}
}

// Load resolves configuration once. Overrides, when non-nil, take priority
// over the environment, which takes priority over the defaults.
func Load(overrides map[string]interface{}) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "_", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if len(overrides) > 0 {
		if err := k.Load(confmap.Provider(overrides, "."), nil); err != nil {
			return nil, fmt.Errorf("load overrides: %w", err)
		}
	}

	timeout, err := time.ParseDuration(k.String("classifier.timeout"))
	if err != nil || timeout <= 0 {
		timeout = 10 * time.Second
	}

	cfg := &Config{
		Server:  ServerConfig{HTTPAddr: k.String("server.addr")},
		Logging: LoggingConfig{Level: k.String("log.level")},
		Auth:    AuthConfig{JWTSecret: k.String("auth.secret")},
		Classifier: ClassifierConfig{
			Backend:   k.String("classifier.backend"),
			BaseURL:   strings.TrimRight(k.String("classifier.url"), "/"),
			APIUser:   k.String("classifier.user"),
			APISecret: k.String("classifier.secret"),
			AWSRegion: k.String("classifier.region"),
			Timeout:   timeout,
		},
		Moderation: ModerationConfig{
			RejectMismatch: k.Bool("moderation.mismatch"),
			TextLang:       k.String("moderation.lang"),
			Image:          loadKind(k, "moderation.image"),
			Text:           loadKind(k, "moderation.text"),
			Video:          loadKind(k, "moderation.video"),
		},
		Audit: AuditConfig{
			Backend:       k.String("audit.backend"),
			FilePath:      k.String("audit.path"),
			PGHost:        k.String("audit.pg.host"),
			PGPort:        k.Int("audit.pg.port"),
			PGUser:        k.String("audit.pg.user"),
			PGPassword:    k.String("audit.pg.password"),
			PGDatabase:    k.String("audit.pg.db"),
			PGSSLMode:     k.String("audit.pg.sslmode"),
			RedisAddr:     k.String("audit.redis.addr"),
			RedisPassword: k.String("audit.redis.password"),
			RedisDB:       k.Int("audit.redis.db"),
			RedisStream:   k.String("audit.redis.stream"),
		},
	}

	return cfg, nil
}

// loadKind reads the category list and threshold overrides for one content
// kind. Category lists are comma-separated; thresholds are
// "category=value,..." pairs.
func loadKind(k *koanf.Koanf, prefix string) KindConfig {
	kind := KindConfig{}

	if raw := strings.TrimSpace(k.String(prefix + ".categories")); raw != "" {
		for _, c := range strings.Split(raw, ",") {
			if c = strings.TrimSpace(c); c != "" {
				kind.Categories = append(kind.Categories, c)
			}
		}
	}

	if raw := strings.TrimSpace(k.String(prefix + ".thresholds")); raw != "" {
		kind.Thresholds = map[string]float64{}
		for _, pair := range strings.Split(raw, ",") {
			name, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
			if !ok {
				continue
			}
			parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
			if err != nil || parsed < 0 || parsed > 1 {
				continue
			}
			kind.Thresholds[strings.TrimSpace(name)] = parsed
		}
	}

	return kind
}

// Policy materializes the threshold policy from the resolved configuration,
// starting at the hard-default policy and applying per-kind overrides.
func (c *Config) Policy() policy.Policy {
	pol := policy.Default()
	pol.RejectMismatch = c.Moderation.RejectMismatch
	applyKind(&pol.Image, c.Moderation.Image)
	applyKind(&pol.Text, c.Moderation.Text)
	applyKind(&pol.Video, c.Moderation.Video)
	return pol
}

func applyKind(target *policy.KindPolicy, cfg KindConfig) {
	if len(cfg.Categories) > 0 {
		target.Enabled = cfg.Categories
	}
	if len(cfg.Thresholds) > 0 {
		merged := make(map[string]float64, len(target.Thresholds)+len(cfg.Thresholds))
		for name, value := range target.Thresholds {
			merged[name] = value
		}
		for name, value := range cfg.Thresholds {
			merged[name] = value
		}
		target.Thresholds = merged
	}
}
