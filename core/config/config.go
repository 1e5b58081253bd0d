package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds Telegram bot related settings.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	AdminID int64  `yaml:"admin_id" envconfig:"TELEGRAM_ADMIN_ID"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir"`
	BotFile     string `yaml:"bot_file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

const (
	// UpdateCallback identifies callback updates for rate limit exclusions.
	UpdateCallback = "callback"
	// UpdateMessage identifies message updates for rate limit exclusions.
	UpdateMessage = "message"
	// UpdateInlineQuery identifies inline query updates for rate limit exclusions.
	UpdateInlineQuery = "inline_query"
	// UpdateMedia identifies photo and video uploads for rate limit exclusions.
	UpdateMedia = "media"
)

// RateLimitConfig holds settings for rate limiting.
// ExcludeUpdates accepts update types to bypass limiting:
// - "callback": Telegram callback button presses
// - "message": standard text messages
// - "inline_query": inline query updates
// - "media": photo and video uploads (albums arrive as rapid bursts)
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
}

// MediaConfig bounds incoming media and optionally enables on-disk storage.
type MediaConfig struct {
	// MaxFiles caps combined photo+video attachments per request.
	MaxFiles int `yaml:"max_files" envconfig:"MEDIA_MAX_FILES"`
	// MaxFileSizeMB caps a single attachment size.
	MaxFileSizeMB int `yaml:"max_file_size_mb" envconfig:"MEDIA_MAX_FILE_SIZE_MB"`
	// Dir, when set, stores downloaded media under this directory.
	Dir string `yaml:"dir" envconfig:"MEDIA_DIR"`
	// BaseURL prefixes public links to stored media.
	BaseURL string `yaml:"base_url" envconfig:"MEDIA_BASE_URL"`
}

// ReminderConfig controls nudges for abandoned requests.
type ReminderConfig struct {
	Enabled bool `yaml:"enabled" envconfig:"REMINDERS_ENABLED"`
	// Offsets lists delays counted from the start of the request, e.g. "30m,90m,24h".
	Offsets []time.Duration `yaml:"offsets" envconfig:"REMINDER_OFFSETS"`
}

// SessionConfig controls the in-memory session store lifecycle.
type SessionConfig struct {
	// IdleTTL evicts sessions untouched for this long; 0 disables eviction.
	IdleTTL time.Duration `yaml:"idle_ttl" envconfig:"SESSION_IDLE_TTL"`
	// SweepInterval is how often the janitor scans for idle sessions.
	SweepInterval time.Duration `yaml:"sweep_interval" envconfig:"SESSION_SWEEP_INTERVAL"`
}

// ServiceConfig aggregates the service-request domain settings.
type ServiceConfig struct {
	// EngineerID is the fixed recipient of completed requests.
	EngineerID int64          `yaml:"engineer_id" envconfig:"ENGINEER_TELEGRAM_ID"`
	Media      MediaConfig    `yaml:"media"`
	Reminders  ReminderConfig `yaml:"reminders"`
	Session    SessionConfig  `yaml:"session"`
}

// DatabaseConfig describes the optional postgres archive of dispatched requests.
type DatabaseConfig struct {
	Enabled        bool   `yaml:"enabled" envconfig:"DB_ENABLED"`
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
}

// Config aggregates the whole bot configuration.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Service   ServiceConfig   `yaml:"service"`
	Database  DatabaseConfig  `yaml:"database"`
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize performs basic validation of required configuration fields and adjusts defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required")
	}
	if cfg.Service.EngineerID == 0 {
		return fmt.Errorf("service.engineer_id is required")
	}

	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" {
		rm = RunModeLongpoll
	}
	if rm == "polling" { // accept alias
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			return fmt.Errorf("webhook.listen is required when telegram.run_mode is 'webhook'")
		}
		if cfg.Webhook.Port <= 0 {
			return fmt.Errorf("webhook.port must be > 0 when telegram.run_mode is 'webhook'")
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm

	allowed := map[string]struct{}{
		UpdateCallback:    {},
		UpdateMessage:     {},
		UpdateInlineQuery: {},
		UpdateMedia:       {},
	}
	for i, v := range cfg.RateLimit.ExcludeUpdates {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" {
			continue
		}
		if _, ok := allowed[key]; !ok {
			return fmt.Errorf("invalid rate_limit.exclude_updates value %q; allowed: callback, message, inline_query, media", v)
		}
		cfg.RateLimit.ExcludeUpdates[i] = key
	}

	if cfg.Service.Media.MaxFiles <= 0 {
		cfg.Service.Media.MaxFiles = 10
	}
	if cfg.Service.Media.MaxFileSizeMB <= 0 {
		cfg.Service.Media.MaxFileSizeMB = 10
	}
	if len(cfg.Service.Reminders.Offsets) == 0 {
		cfg.Service.Reminders.Offsets = []time.Duration{
			30 * time.Minute,
			90 * time.Minute,
			24 * time.Hour,
		}
	}
	for _, off := range cfg.Service.Reminders.Offsets {
		if off <= 0 {
			return fmt.Errorf("service.reminders.offsets must be positive durations")
		}
	}
	if cfg.Service.Session.IdleTTL < 0 {
		return fmt.Errorf("service.session.idle_ttl must be >= 0")
	}
	if cfg.Service.Session.SweepInterval <= 0 {
		cfg.Service.Session.SweepInterval = 10 * time.Minute
	}

	if cfg.Database.Enabled {
		if cfg.Database.Host == "" || cfg.Database.Name == "" || cfg.Database.User == "" {
			return fmt.Errorf("database.host, database.name and database.user are required when database.enabled")
		}
		if cfg.Database.SSLMode == "" {
			cfg.Database.SSLMode = "disable"
		}
		if cfg.Database.MaxConnections <= 0 {
			cfg.Database.MaxConnections = 4
		}
	}

	return nil
}
