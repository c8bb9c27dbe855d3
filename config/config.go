// config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"gopkg.in/yaml.v3"
)

const dynamicJWKSTemplate = "https://app.dynamic.xyz/api/v0/sdk/%s/.well-known/jwks"

// Config holds every setting the API process needs. Values come from built-in
// defaults, then an optional YAML file (CONFIG_FILE), then the environment.
type Config struct {
	Port        string `yaml:"port" env:"PORT"`
	DatabaseURL string `yaml:"database_url" env:"DATABASE_URL"`

	AccessTokenSecret  string        `yaml:"access_token_secret" env:"ACCESS_TOKEN_SECRET"`
	RefreshTokenSecret string        `yaml:"refresh_token_secret" env:"REFRESH_TOKEN_SECRET"`
	AccessTokenTTL     time.Duration `yaml:"access_token_ttl" env:"ACCESS_TOKEN_TTL"`
	RefreshTokenTTL    time.Duration `yaml:"refresh_token_ttl" env:"REFRESH_TOKEN_TTL"`

	DynamicEnvironmentID string `yaml:"dynamic_environment_id" env:"DYNAMIC_ENVIRONMENT_ID"`
	DynamicJWKSURL       string `yaml:"dynamic_jwks_url" env:"DYNAMIC_JWKS_URL"`
	JWKSFetchesPerMinute int    `yaml:"jwks_fetches_per_minute" env:"JWKS_FETCHES_PER_MINUTE"`

	AllowedOrigins string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS"`

	R2AccountID       string `yaml:"r2_account_id" env:"R2_ACCOUNT_ID"`
	R2AccessKeyID     string `yaml:"r2_access_key_id" env:"R2_ACCESS_KEY_ID"`
	R2SecretAccessKey string `yaml:"r2_secret_access_key" env:"R2_SECRET_ACCESS_KEY"`
	R2BucketName      string `yaml:"r2_bucket_name" env:"R2_BUCKET_NAME"`
	CDNBaseURL        string `yaml:"cdn_base_url" env:"CDN_BASE_URL"`
	UploadMaxBytes    int64  `yaml:"upload_max_bytes" env:"UPLOAD_MAX_BYTES"`

	NotificationRetentionDays int `yaml:"notification_retention_days" env:"NOTIFICATION_RETENTION_DAYS"`

	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL"`
	LogFormat string `yaml:"log_format" env:"LOG_FORMAT"`
}

func Defaults() *Config {
	return &Config{
		Port:                      "5200",
		AccessTokenTTL:            24 * time.Hour,
		RefreshTokenTTL:           30 * 24 * time.Hour,
		JWKSFetchesPerMinute:      10,
		AllowedOrigins:            "http://localhost:3000",
		CDNBaseURL:                "https://cdn.inflection.network",
		UploadMaxBytes:            10 << 20,
		NotificationRetentionDays: 30,
		LogLevel:                  "info",
		LogFormat:                 "text",
	}
}

// Load resolves the configuration and checks that required settings are present.
func Load() (*Config, error) {
	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.mergeYAML(path); err != nil {
			return nil, err
		}
	}

	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode environment: %w", err)
	}

	cfg.derive()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeYAML(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) derive() {
	if c.DynamicJWKSURL == "" && c.DynamicEnvironmentID != "" {
		c.DynamicJWKSURL = fmt.Sprintf(dynamicJWKSTemplate, c.DynamicEnvironmentID)
	}
	c.CDNBaseURL = strings.TrimRight(c.CDNBaseURL, "/")
}

// Validate only checks presence. Object storage is optional and checked by
// StorageConfigured.
func (c *Config) Validate() error {
	var missing []string
	if c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.AccessTokenSecret == "" {
		missing = append(missing, "ACCESS_TOKEN_SECRET")
	}
	if c.RefreshTokenSecret == "" {
		missing = append(missing, "REFRESH_TOKEN_SECRET")
	}
	if c.DynamicEnvironmentID == "" {
		missing = append(missing, "DYNAMIC_ENVIRONMENT_ID")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (c *Config) StorageConfigured() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" && c.R2BucketName != ""
}

// Origins splits ALLOWED_ORIGINS the same way the CORS middleware expects it.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func (c *Config) NotificationRetention() time.Duration {
	return time.Duration(c.NotificationRetentionDays) * 24 * time.Hour
}
