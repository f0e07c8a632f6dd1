// Package config loads the process-wide Config object, following an
// env-then-flags layering.
package config

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/BTreeMap/GoalForge/internal/models"
	"github.com/BTreeMap/GoalForge/internal/util"
	"github.com/joho/godotenv"
)

// Config is the process-wide configuration object, initialized once at
// startup.
type Config struct {
	ModelAdapterURL        string
	ModelTimeout           time.Duration
	ModelTemperature       float64
	StoreDSN               string
	TransportWebhookURL    string
	TransportAPIToken      string
	DefaultTimezone        string
	ResultSetTTL           time.Duration
	ResultSetCapacity      int
	NotificationRatePerSec int
	DialogStateTimeout     time.Duration
	LogLevel               string

	StateDir  string
	APIAddr   string
	OpenAIKey string

	// DefaultNotifyToggles seeds the five independent boolean notification
	// toggles for a newly created profile.
	DefaultNotifyToggles NotifyToggles
}

// NotifyToggles holds the five independent per-user notification booleans.
type NotifyToggles struct {
	EventReminder bool
	GoalDeadline  bool
	StepReminder  bool
	Motivation    bool
	Digest        bool
}

// Default values for process-wide configuration.
const (
	DefaultModelTimeoutMS       = 20000
	DefaultModelTemperature     = 0.2
	DefaultResultSetTTLSeconds  = 3600
	DefaultResultSetCapacity    = models.ResultSetCapacity
	DefaultNotificationRatePerS = 30
	DefaultDialogStateTimeoutS  = 1800
	DefaultLogLevel             = "info"
	DefaultAPIAddr              = ":8080"
	DefaultStateDir             = "/var/lib/goalforge"
)

// Load reads configuration from a .env file (if present), environment
// variables, and command-line flags, in that order of increasing
// precedence.
func Load(args []string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("config.Load: no .env file loaded", "error", err)
	}

	cfg := &Config{
		ModelAdapterURL:        os.Getenv("MODEL_ADAPTER_URL"),
		ModelTimeout:           durationMS(envInt("MODEL_TIMEOUT_MS", DefaultModelTimeoutMS)),
		ModelTemperature:       envFloat("MODEL_TEMPERATURE", DefaultModelTemperature),
		StoreDSN:               os.Getenv("STORE_DSN"),
		TransportWebhookURL:    os.Getenv("TRANSPORT_WEBHOOK_URL"),
		TransportAPIToken:      os.Getenv("TRANSPORT_API_TOKEN"),
		DefaultTimezone:        envString("DEFAULT_TIMEZONE", models.DefaultTimezone),
		ResultSetTTL:           time.Duration(envInt("RESULT_SET_TTL_S", DefaultResultSetTTLSeconds)) * time.Second,
		ResultSetCapacity:      envInt("RESULT_SET_CAPACITY", DefaultResultSetCapacity),
		NotificationRatePerSec: envInt("NOTIFICATION_RATE_PER_S", DefaultNotificationRatePerS),
		DialogStateTimeout:     time.Duration(envInt("DIALOG_STATE_TIMEOUT_S", DefaultDialogStateTimeoutS)) * time.Second,
		LogLevel:               envString("LOG_LEVEL", DefaultLogLevel),
		StateDir:               envString("STATE_DIR", DefaultStateDir),
		APIAddr:                envString("API_ADDR", DefaultAPIAddr),
		OpenAIKey:              os.Getenv("OPENAI_API_KEY"),
		DefaultNotifyToggles: NotifyToggles{
			EventReminder: util.ParseBoolEnv("NOTIFY_EVENT_REMINDER_DEFAULT", true),
			GoalDeadline:  util.ParseBoolEnv("NOTIFY_GOAL_DEADLINE_DEFAULT", true),
			StepReminder:  util.ParseBoolEnv("NOTIFY_STEP_REMINDER_DEFAULT", true),
			Motivation:    util.ParseBoolEnv("NOTIFY_MOTIVATION_DEFAULT", true),
			Digest:        util.ParseBoolEnv("NOTIFY_DIGEST_DEFAULT", false),
		},
	}

	fs := flag.NewFlagSet("goalforge", flag.ContinueOnError)
	fs.StringVar(&cfg.StoreDSN, "store-dsn", cfg.StoreDSN, "domain store DSN (sqlite file path or postgres DSN)")
	fs.StringVar(&cfg.APIAddr, "api-addr", cfg.APIAddr, "address for the /process and /callback HTTP server")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error")
	fs.StringVar(&cfg.DefaultTimezone, "default-timezone", cfg.DefaultTimezone, "IANA timezone for new user profiles")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrConfigError, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate enforces that a missing store DSN or an unparseable default
// timezone is a fatal ConfigError.
func (c *Config) Validate() error {
	if c.StoreDSN == "" {
		return fmt.Errorf("%w: store DSN is required", models.ErrConfigError)
	}
	if _, err := time.LoadLocation(c.DefaultTimezone); err != nil {
		return fmt.Errorf("%w: default timezone %q invalid: %v", models.ErrConfigError, c.DefaultTimezone, err)
	}
	if c.NotificationRatePerSec <= 0 {
		return fmt.Errorf("%w: notification rate must be positive", models.ErrConfigError)
	}
	return nil
}

func durationMS(ms int) time.Duration { return time.Duration(ms) * time.Millisecond }

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
		slog.Warn("config: invalid integer env var, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var f float64
	if _, err := fmt.Sscanf(v, "%f", &f); err != nil {
		slog.Warn("config: invalid float env var, using default", "key", key, "value", v, "default", def)
		return def
	}
	return f
}
