package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Server
	Port         int    `envconfig:"PORT" default:"3000"`
	Environment  string `envconfig:"ENV" default:"development"`
	RateLimitMax int    `envconfig:"RATE_LIMIT_MAX" default:"600"`

	// Blink detection
	BlinkThreshold float64 `envconfig:"BLINK_THRESHOLD" default:"0.30"`
	BlinkFrames    int     `envconfig:"BLINK_FRAMES" default:"2"`
	VerifiedScore  int     `envconfig:"VERIFIED_SCORE" default:"30"`

	// Frames
	MaxFrameBytes int `envconfig:"MAX_FRAME_BYTES" default:"5242880"`
	FrameMaxWidth int `envconfig:"FRAME_MAX_WIDTH" default:"640"`

	// Provider
	LandmarkProvider string        `envconfig:"LANDMARK_PROVIDER" default:"facemesh"`
	FaceMeshURL      string        `envconfig:"FACEMESH_URL" default:"http://localhost:5010"`
	FaceMeshTimeout  time.Duration `envconfig:"FACEMESH_TIMEOUT" default:"10s"`
	FaceMeshRetries  int           `envconfig:"FACEMESH_RETRIES" default:"2"`
	AWSRegion        string        `envconfig:"AWS_REGION" default:"us-east-1"`
	MockEARScript    []float64     `envconfig:"MOCK_EAR_SCRIPT"`

	// Database (optional, enables the event log)
	DatabaseURL string `envconfig:"DATABASE_URL"`

	// Webhook (optional)
	WebhookURL         string   `envconfig:"WEBHOOK_URL"`
	WebhookSecret      string   `envconfig:"WEBHOOK_SECRET"`
	WebhookEvents      []string `envconfig:"WEBHOOK_EVENTS" default:"LIVENESS_VERIFIED"`
	WebhookMaxAttempts int      `envconfig:"WEBHOOK_MAX_ATTEMPTS" default:"5"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

// Validate rejects values the tracker and frame pipeline cannot run with
func (c *Config) Validate() error {
	if c.BlinkThreshold <= 0 || c.BlinkThreshold >= 1 {
		return fmt.Errorf("BLINK_THRESHOLD must be in (0, 1), got %v", c.BlinkThreshold)
	}
	if c.BlinkFrames < 1 {
		return fmt.Errorf("BLINK_FRAMES must be >= 1, got %d", c.BlinkFrames)
	}
	if c.MaxFrameBytes < 1 {
		return fmt.Errorf("MAX_FRAME_BYTES must be positive, got %d", c.MaxFrameBytes)
	}
	if c.FrameMaxWidth < 0 {
		return fmt.Errorf("FRAME_MAX_WIDTH must not be negative, got %d", c.FrameMaxWidth)
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// WebhookEnabled reports whether events are pushed to WEBHOOK_URL
func (c *Config) WebhookEnabled() bool {
	return c.WebhookURL != ""
}

// EventLogEnabled reports whether blink events are persisted
func (c *Config) EventLogEnabled() bool {
	return c.DatabaseURL != ""
}
