package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DriverSQLite = "sqlite"
	DriverYDB    = "ydb"

	DefaultPath            = "lurelog.yaml"
	DefaultHTTPAddr        = ":8080"
	DefaultSQLitePath      = "lurelog.db"
	DefaultBannedWordsPath = "data/banned-words.txt"
	DefaultCookieName      = "lurelog_session"
	DefaultSessionTTL      = 30 * 24 * time.Hour
	DefaultSlowRequest     = 500 * time.Millisecond

	minSecretLength = 32
)

type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Storage StorageConfig `yaml:"storage"`
	Session SessionConfig `yaml:"session"`
	Content ContentConfig `yaml:"content"`
	Log     LogConfig     `yaml:"log"`
	Alerts  AlertsConfig  `yaml:"alerts"`
}

type HTTPConfig struct {
	Addr    string `yaml:"addr"`
	BaseURL string `yaml:"base_url"`
}

type StorageConfig struct {
	Driver     string `yaml:"driver"` // sqlite or ydb
	SQLitePath string `yaml:"sqlite_path"`
	YDBDSN     string `yaml:"ydb_dsn"`
}

type SessionConfig struct {
	Secret     string        `yaml:"secret"`
	TTL        time.Duration `yaml:"ttl"`
	CookieName string        `yaml:"cookie_name"`
	Secure     bool          `yaml:"secure"`
}

type ContentConfig struct {
	BannedWordsPath string `yaml:"banned_words_path"`
}

type LogConfig struct {
	Level       string        `yaml:"level"`
	Development bool          `yaml:"development"`
	SlowRequest time.Duration `yaml:"slow_request"`
}

// AlertsConfig enables shipping error-level logs to a developer telegram chat.
type AlertsConfig struct {
	TelegramToken   string `yaml:"telegram_token"`
	DeveloperChatID int64  `yaml:"developer_chat_id"`
}

func (a AlertsConfig) Enabled() bool {
	return a.TelegramToken != "" && a.DeveloperChatID != 0
}

// Load reads the YAML file at path, then applies defaults and environment overrides.
// A missing file at DefaultPath is not an error.
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && path == DefaultPath:
	default:
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}

	applyDefaults(&cfg)
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := validate(cfg); err != nil {
		return Config{}, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = DefaultHTTPAddr
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = DriverSQLite
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = DefaultSQLitePath
	}
	if cfg.Session.TTL == 0 {
		cfg.Session.TTL = DefaultSessionTTL
	}
	if cfg.Session.CookieName == "" {
		cfg.Session.CookieName = DefaultCookieName
	}
	if cfg.Content.BannedWordsPath == "" {
		cfg.Content.BannedWordsPath = DefaultBannedWordsPath
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.SlowRequest == 0 {
		cfg.Log.SlowRequest = DefaultSlowRequest
	}
}

func applyEnv(cfg *Config) error {
	overrides := map[string]*string{
		"LURELOG_HTTP_ADDR":      &cfg.HTTP.Addr,
		"LURELOG_BASE_URL":       &cfg.HTTP.BaseURL,
		"LURELOG_STORAGE_DRIVER": &cfg.Storage.Driver,
		"LURELOG_SQLITE_PATH":    &cfg.Storage.SQLitePath,
		"LURELOG_YDB_DSN":        &cfg.Storage.YDBDSN,
		"LURELOG_SESSION_SECRET": &cfg.Session.Secret,
		"LURELOG_BANNED_WORDS":   &cfg.Content.BannedWordsPath,
		"LURELOG_LOG_LEVEL":      &cfg.Log.Level,
		"TELEGRAM_TOKEN":         &cfg.Alerts.TelegramToken,
	}
	for key, dst := range overrides {
		if value, ok := os.LookupEnv(key); ok && value != "" {
			*dst = value
		}
	}
	if value, ok := os.LookupEnv("DEVELOPER_CHAT_ID"); ok && value != "" {
		id, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("DEVELOPER_CHAT_ID must be an integer: %w", err)
		}
		cfg.Alerts.DeveloperChatID = id
	}
	return nil
}

func validate(cfg Config) error {
	switch cfg.Storage.Driver {
	case DriverSQLite:
	case DriverYDB:
		if cfg.Storage.YDBDSN == "" {
			return fmt.Errorf("storage.ydb_dsn is required for the %q driver", DriverYDB)
		}
	default:
		return fmt.Errorf("storage.driver must be %q or %q, got %q", DriverSQLite, DriverYDB, cfg.Storage.Driver)
	}
	if len(cfg.Session.Secret) < minSecretLength {
		return fmt.Errorf("session.secret must be at least %d bytes", minSecretLength)
	}
	if cfg.Session.TTL < 0 {
		return fmt.Errorf("session.ttl must be positive, got %s", cfg.Session.TTL)
	}
	return nil
}
