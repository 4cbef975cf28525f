package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultFeedURL is the public ICS feed synced when no feed URL is configured.
const DefaultFeedURL = "https://calendar.google.com/calendar/ical/kre9t9q7urd9dspgj107eoklvo%40group.calendar.google.com/public/basic.ics"

// StripeConfig holds checkout configuration. Checkout-session creation is
// disabled when SecretKey is empty.
type StripeConfig struct {
	SecretKey     string `yaml:"secret_key"`
	WebhookSecret string `yaml:"webhook_secret"`
	SuccessURL    string `yaml:"success_url"`
	CancelURL     string `yaml:"cancel_url"`
}

// S3Config holds S3-compatible media storage configuration.
type S3Config struct {
	Endpoint      string `yaml:"endpoint"`
	Bucket        string `yaml:"bucket"`
	Region        string `yaml:"region"`
	AccessKey     string `yaml:"access_key"`
	SecretKey     string `yaml:"secret_key"`
	PublicBaseURL string `yaml:"public_base_url"`
}

// PushConfig holds VAPID keys for web push. Push is disabled when either key
// is empty.
type PushConfig struct {
	VAPIDPublicKey  string `yaml:"vapid_public_key"`
	VAPIDPrivateKey string `yaml:"vapid_private_key"`
}

// EmailConfig holds the transactional email (Postmark API) configuration.
type EmailConfig struct {
	ServerToken string `yaml:"server_token"`
	FromEmail   string `yaml:"from_email"`
}

// Config is the full application configuration. Values come from an optional
// YAML file, overridden by BYKIRKEN_* environment variables; a .env file is
// loaded first when present.
type Config struct {
	Port     string `yaml:"port"`
	Env      string `yaml:"env"`
	LogLevel string `yaml:"log_level"`
	DBPath   string `yaml:"db_path"`
	BaseURL  string `yaml:"base_url"`

	// Calendar sync.
	FeedURL             string   `yaml:"feed_url"`
	CronSecret          string   `yaml:"cron_secret"`
	SyncCron            string   `yaml:"sync_cron"`
	SuppressedSummaries []string `yaml:"suppressed_summaries"`

	Stripe StripeConfig `yaml:"stripe"`
	S3     S3Config     `yaml:"s3"`
	Push   PushConfig   `yaml:"push"`
	Email  EmailConfig  `yaml:"email"`
}

// Load reads configuration from the optional YAML file at path (pass "" to
// skip), then applies environment overrides and defaults.
func Load(path string) (*Config, error) {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.Normalize()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setIfEnv(&c.Port, "BYKIRKEN_PORT")
	setIfEnv(&c.Env, "BYKIRKEN_ENV")
	setIfEnv(&c.LogLevel, "BYKIRKEN_LOG_LEVEL")
	setIfEnv(&c.DBPath, "BYKIRKEN_DB_PATH")
	setIfEnv(&c.BaseURL, "BYKIRKEN_BASE_URL")

	setIfEnv(&c.FeedURL, "BYKIRKEN_CALENDAR_ICS_URL")
	setIfEnv(&c.CronSecret, "BYKIRKEN_CRON_SECRET")
	setIfEnv(&c.SyncCron, "BYKIRKEN_SYNC_CRON")
	if v := os.Getenv("BYKIRKEN_SUPPRESSED_SUMMARIES"); v != "" {
		c.SuppressedSummaries = splitList(v)
	}

	setIfEnv(&c.Stripe.SecretKey, "BYKIRKEN_STRIPE_SECRET_KEY")
	setIfEnv(&c.Stripe.WebhookSecret, "BYKIRKEN_STRIPE_WEBHOOK_SECRET")
	setIfEnv(&c.Stripe.SuccessURL, "BYKIRKEN_STRIPE_SUCCESS_URL")
	setIfEnv(&c.Stripe.CancelURL, "BYKIRKEN_STRIPE_CANCEL_URL")

	setIfEnv(&c.S3.Endpoint, "BYKIRKEN_S3_ENDPOINT")
	setIfEnv(&c.S3.Bucket, "BYKIRKEN_S3_BUCKET")
	setIfEnv(&c.S3.Region, "BYKIRKEN_S3_REGION")
	setIfEnv(&c.S3.AccessKey, "BYKIRKEN_S3_ACCESS_KEY")
	setIfEnv(&c.S3.SecretKey, "BYKIRKEN_S3_SECRET_KEY")
	setIfEnv(&c.S3.PublicBaseURL, "BYKIRKEN_S3_PUBLIC_BASE_URL")

	setIfEnv(&c.Push.VAPIDPublicKey, "BYKIRKEN_VAPID_PUBLIC_KEY")
	setIfEnv(&c.Push.VAPIDPrivateKey, "BYKIRKEN_VAPID_PRIVATE_KEY")

	setIfEnv(&c.Email.ServerToken, "BYKIRKEN_POSTMARK_TOKEN")
	setIfEnv(&c.Email.FromEmail, "BYKIRKEN_FROM_EMAIL")
}

// Normalize fills zero values with defaults so partially-filled configs still
// behave correctly.
func (c *Config) Normalize() {
	if c.Port == "" {
		c.Port = "8080"
	}
	if c.Env == "" {
		c.Env = "development"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.DBPath == "" {
		c.DBPath = "bykirken.db"
	}
	if c.BaseURL == "" {
		c.BaseURL = "http://localhost:" + c.Port
	}
	if c.FeedURL == "" {
		c.FeedURL = DefaultFeedURL
	}
	if c.SyncCron == "" {
		c.SyncCron = "0 * * * *"
	}
	if c.SuppressedSummaries == nil {
		c.SuppressedSummaries = []string{"busy"}
	}
}

// Production reports whether this deployment should fail closed on missing
// secrets.
func (c *Config) Production() bool {
	return strings.EqualFold(c.Env, "production")
}

func setIfEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
