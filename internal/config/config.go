package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	envStoreBackend     = "AS_STORE_BACKEND"
	envStorePath        = "AS_STORE_PATH"
	envNamespace        = "AS_NAMESPACE"
	envLogLevel         = "AS_LOG_LEVEL"
	envHealthPort       = "AS_HEALTH_PORT"
	envMetricsPort      = "AS_METRICS_PORT"
	envWebhookURL       = "AS_WEBHOOK_URL"
	envWebhookTemplate  = "AS_WEBHOOK_TEMPLATE"
	envSlackWebhookURL  = "AS_SLACK_WEBHOOK_URL"
	envDryRun           = "AS_DRY_RUN"
	envBackupInterval   = "AS_BACKUP_INTERVAL"
	envBackupRepository = "AS_BACKUP_REPOSITORY"
	envCatalogFile      = "AS_CATALOG_FILE"
)

const (
	defaultStoreBackend = "file"
	defaultStorePath    = "data/state.json"
	defaultNamespace    = "admin"
	defaultLogLevel     = "info"
)

// Config describes runtime configuration loaded from the environment.
type Config struct {
	StoreBackend     string        `env:"AS_STORE_BACKEND" envDefault:"file"`
	StorePath        string        `env:"AS_STORE_PATH" envDefault:"data/state.json"`
	Namespace        string        `env:"AS_NAMESPACE" envDefault:"admin"`
	LogLevel         string        `env:"AS_LOG_LEVEL" envDefault:"info"`
	HealthPort       int           `env:"AS_HEALTH_PORT"`
	MetricsPort      int           `env:"AS_METRICS_PORT"`
	WebhookURL       string        `env:"AS_WEBHOOK_URL"`
	WebhookTemplate  string        `env:"AS_WEBHOOK_TEMPLATE"`
	SlackWebhookURL  string        `env:"AS_SLACK_WEBHOOK_URL"`
	DryRun           bool          `env:"AS_DRY_RUN"`
	BackupInterval   time.Duration `env:"AS_BACKUP_INTERVAL"`
	BackupRepository string        `env:"AS_BACKUP_REPOSITORY"`
	CatalogFile      string        `env:"AS_CATALOG_FILE"`
}

// Load reads configuration from environment variables and a local .env file if present.
// Existing environment variables take precedence over values in .env.
func Load() (Config, error) {
	if err := loadDotEnvIfPresent(".env"); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.trim()

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) trim() {
	c.StoreBackend = strings.ToLower(strings.TrimSpace(c.StoreBackend))
	c.StorePath = strings.TrimSpace(c.StorePath)
	c.Namespace = strings.TrimSpace(c.Namespace)
	c.LogLevel = strings.TrimSpace(c.LogLevel)
	c.WebhookURL = strings.TrimSpace(c.WebhookURL)
	c.SlackWebhookURL = strings.TrimSpace(c.SlackWebhookURL)
	c.BackupRepository = strings.TrimSpace(c.BackupRepository)
	c.CatalogFile = strings.TrimSpace(c.CatalogFile)
}

func (c Config) validate() error {
	switch c.StoreBackend {
	case "file", "sqlite":
		if c.StorePath == "" {
			return fmt.Errorf("%s is required for the %s backend", envStorePath, c.StoreBackend)
		}
	case "memory":
	default:
		return fmt.Errorf("invalid %s: %q (want file, sqlite or memory)", envStoreBackend, c.StoreBackend)
	}

	if c.Namespace == "" {
		return fmt.Errorf("%s must not be empty", envNamespace)
	}
	if strings.Contains(c.Namespace, ":") {
		return fmt.Errorf("invalid %s: must not contain ':'", envNamespace)
	}

	if err := validatePort(c.HealthPort, envHealthPort); err != nil {
		return err
	}
	if err := validatePort(c.MetricsPort, envMetricsPort); err != nil {
		return err
	}

	if c.WebhookURL != "" {
		if err := validateURL(c.WebhookURL, envWebhookURL); err != nil {
			return err
		}
	}
	if c.SlackWebhookURL != "" {
		if err := validateURL(c.SlackWebhookURL, envSlackWebhookURL); err != nil {
			return err
		}
	}

	if c.BackupInterval < 0 {
		return fmt.Errorf("%s cannot be negative", envBackupInterval)
	}
	if c.BackupInterval > 0 && c.BackupRepository == "" {
		return fmt.Errorf("%s is required when %s is set", envBackupRepository, envBackupInterval)
	}

	return nil
}

func loadDotEnvIfPresent(path string) error {
	err := godotenv.Load(path)
	if err == nil {
		return nil
	}

	var pathErr *os.PathError
	if errors.As(err, &pathErr) && errors.Is(pathErr.Err, os.ErrNotExist) {
		return nil
	}

	return err
}

func validatePort(port int, name string) error {
	if port < 0 || port > 65535 {
		return fmt.Errorf("invalid %s: %d is out of range", name, port)
	}
	return nil
}

func validateURL(value, name string) error {
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("invalid %s: must include scheme and host", name)
	}
	return nil
}
