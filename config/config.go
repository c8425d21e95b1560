// ABOUTME: Configuration loading from .env, an XDG config file, and the environment
// ABOUTME: Later sources override earlier ones; defaults fill whatever is left
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
)

// Config holds every setting the service and CLI read.
type Config struct {
	NylasAPIKey        string `json:"nylas_api_key,omitempty"`
	NylasAPIURI        string `json:"nylas_api_uri,omitempty"`
	NylasWebhookSecret string `json:"nylas_webhook_secret,omitempty"`

	DBDriver string `json:"db_driver,omitempty"`
	DBDSN    string `json:"db_dsn,omitempty"`

	Timezone       string `json:"timezone,omitempty"`
	PullWindowDays int    `json:"sync_window_days,omitempty"`
	PushWindowDays int    `json:"push_window_days,omitempty"`

	Addr   string `json:"addr,omitempty"`
	AppURL string `json:"app_url,omitempty"`

	RabbitMQURL string `json:"rabbitmq_url,omitempty"`
	NotifyQueue string `json:"notify_queue,omitempty"`

	GoogleClientID     string `json:"google_client_id,omitempty"`
	GoogleClientSecret string `json:"google_client_secret,omitempty"`

	LogLevel string `json:"log_level,omitempty"`
}

const (
	defaultDriver         = "sqlite3"
	defaultAddr           = ":8080"
	defaultPullWindowDays = 30
	defaultPushWindowDays = 90
	defaultAppURL         = "http://localhost:3000"
	defaultNotifyQueue    = "shadecal.notifications"
)

// FilePath returns the XDG config file location.
func FilePath() string {
	return filepath.Join(xdg.ConfigHome, "shadecal", "config.json")
}

// DefaultDBPath returns the XDG-compliant SQLite database location.
func DefaultDBPath() string {
	return filepath.Join(xdg.DataHome, "shadecal", "shadecal.db")
}

// Load reads .env from the working directory (if present), then the config
// file at path (FilePath when empty; a missing file is fine), then the
// environment.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	if path == "" {
		path = FilePath()
	}

	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if _, err := cfg.Location(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads a JSON config file. A missing file yields an empty config.
func LoadFile(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.NylasAPIKey, "NYLAS_API_KEY")
	setString(&c.NylasAPIURI, "NYLAS_API_URI")
	setString(&c.NylasWebhookSecret, "NYLAS_WEBHOOK_SECRET")
	setString(&c.DBDriver, "SHADECAL_DB_DRIVER")
	setString(&c.DBDSN, "SHADECAL_DB_DSN")
	setString(&c.Timezone, "SHADECAL_TIMEZONE")
	setString(&c.Addr, "SHADECAL_ADDR")
	setString(&c.AppURL, "SHADECAL_APP_URL")
	setString(&c.RabbitMQURL, "RABBITMQ_URL")
	setString(&c.NotifyQueue, "SHADECAL_NOTIFY_QUEUE")
	setString(&c.GoogleClientID, "GOOGLE_CLIENT_ID")
	setString(&c.GoogleClientSecret, "GOOGLE_CLIENT_SECRET")
	setString(&c.LogLevel, "SHADECAL_LOG_LEVEL")

	if err := setInt(&c.PullWindowDays, "SHADECAL_SYNC_WINDOW_DAYS"); err != nil {
		return err
	}
	return setInt(&c.PushWindowDays, "SHADECAL_PUSH_WINDOW_DAYS")
}

func (c *Config) applyDefaults() {
	if c.DBDriver == "" {
		c.DBDriver = defaultDriver
	}
	if c.DBDSN == "" && c.DBDriver != "mysql" {
		c.DBDSN = DefaultDBPath()
	}
	if c.Addr == "" {
		c.Addr = defaultAddr
	}
	if c.PullWindowDays <= 0 {
		c.PullWindowDays = defaultPullWindowDays
	}
	if c.PushWindowDays <= 0 {
		c.PushWindowDays = defaultPushWindowDays
	}
	if c.AppURL == "" {
		c.AppURL = defaultAppURL
	}
	if c.NotifyQueue == "" {
		c.NotifyQueue = defaultNotifyQueue
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Location resolves the configured time zone, defaulting to UTC.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s must be a whole number of days: %w", key, err)
	}
	*dst = n
	return nil
}
