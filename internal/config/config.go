// Package config provides environment-driven configuration for the
// orchestrator.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
)

// Store backends selectable via SESSION_BACKEND.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// Config is the orchestrator's runtime configuration.
type Config struct {
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":8080"`
	Debug      bool   `env:"DEBUG"`

	// Sessions
	SessionTTL     time.Duration `env:"SESSION_TTL" envDefault:"60m"`
	SweepInterval  time.Duration `env:"SWEEP_INTERVAL" envDefault:"5m"`
	SessionBackend string        `env:"SESSION_BACKEND" envDefault:"memory"`
	RedisAddr      string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	DBPath         string        `env:"DB_PATH" envDefault:"data/blink.db"`

	// Matching
	FuzzyThreshold float64 `env:"FUZZY_THRESHOLD" envDefault:"0.7"`

	// Classifier
	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`
	RouterModel   string `env:"LLM_ROUTER_MODEL" envDefault:"gpt-4o-mini"`

	// Webhooks
	MenuWebhookURL      string        `env:"MENU_WEBHOOK_URL"`
	PhoneWebhookURL     string        `env:"PHONE_WEBHOOK_URL"`
	OrderWebhookURL     string        `env:"ORDER_WEBHOOK_URL"`
	AnalyticsWebhookURL string        `env:"ANALYTICS_WEBHOOK_URL"`
	POSURL              string        `env:"POS_URL"`
	WebhookTimeout      time.Duration `env:"WEBHOOK_TIMEOUT" envDefault:"20s"`

	// Replies
	RepliesPath string `env:"REPLIES_PATH"`
}

// Load parses the environment into a Config and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	switch cfg.SessionBackend {
	case BackendMemory, BackendRedis, BackendSQLite:
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.SessionBackend)
	}
	if cfg.FuzzyThreshold <= 0 || cfg.FuzzyThreshold > 1 {
		return nil, fmt.Errorf("fuzzy threshold %v outside (0,1]", cfg.FuzzyThreshold)
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("session TTL must be positive")
	}

	return cfg, nil
}
