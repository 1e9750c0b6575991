// Package config loads issuesync settings from config.yaml and the
// environment.
//
// Lookup order for the file: the --config flag, ./config.yaml, then
// $XDG_CONFIG_HOME/issuesync/config.yaml. Every key can be overridden by an
// ISSUESYNC_ environment variable (github.token => ISSUESYNC_GITHUB_TOKEN).
// Credentials also honor their conventional names such as GITHUB_TOKEN.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mschirtzinger/issuesync/internal/enrich"
	"github.com/mschirtzinger/issuesync/internal/schema"
)

// Store drivers.
const (
	DriverNotion = "notion"
	DriverSQLite = "sqlite"
)

// Record key policies.
const (
	KeyIssue      = "issue"
	KeyRepository = "repository"
)

// Config is the full issuesync configuration.
type Config struct {
	GitHub GitHubConfig `mapstructure:"github" yaml:"github"`
	Notion NotionConfig `mapstructure:"notion" yaml:"notion"`
	Store  StoreConfig  `mapstructure:"store" yaml:"store"`
	AI     AIConfig     `mapstructure:"ai" yaml:"ai"`
	Sync   SyncConfig   `mapstructure:"sync" yaml:"sync"`
	Server ServerConfig `mapstructure:"server" yaml:"server"`
	Log    LogConfig    `mapstructure:"log" yaml:"log"`
}

type GitHubConfig struct {
	Token    string `mapstructure:"token" yaml:"token"`
	Username string `mapstructure:"username" yaml:"username"`
	BaseURL  string `mapstructure:"base_url" yaml:"base_url,omitempty"`
	MaxPages int    `mapstructure:"max_pages" yaml:"max_pages"`
}

type NotionConfig struct {
	Token      string `mapstructure:"token" yaml:"token"`
	DatabaseID string `mapstructure:"database_id" yaml:"database_id"`
	BaseURL    string `mapstructure:"base_url" yaml:"base_url,omitempty"`
}

// StoreConfig selects where records are written.
type StoreConfig struct {
	Driver string `mapstructure:"driver" yaml:"driver"`
	Path   string `mapstructure:"path" yaml:"path"`
}

// AIConfig configures description enrichment. An empty key disables it.
type AIConfig struct {
	APIKey    string `mapstructure:"api_key" yaml:"api_key"`
	Model     string `mapstructure:"model" yaml:"model"`
	MaxTokens int64  `mapstructure:"max_tokens" yaml:"max_tokens"`
	BaseURL   string `mapstructure:"base_url" yaml:"base_url,omitempty"`
}

type SyncConfig struct {
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`
	State    string        `mapstructure:"state" yaml:"state"`
	Key      string        `mapstructure:"key" yaml:"key"`
}

// MarshalYAML writes the interval as a duration string rather than
// nanoseconds.
func (s SyncConfig) MarshalYAML() (any, error) {
	return struct {
		Interval string `yaml:"interval"`
		State    string `yaml:"state"`
		Key      string `yaml:"key"`
	}{s.Interval.String(), s.State, s.Key}, nil
}

type ServerConfig struct {
	Port          int    `mapstructure:"port" yaml:"port"`
	WebhookSecret string `mapstructure:"webhook_secret" yaml:"webhook_secret,omitempty"`
	Schedule      bool   `mapstructure:"schedule" yaml:"schedule"`
}

type LogConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	JSON       bool   `mapstructure:"json" yaml:"json"`
	File       string `mapstructure:"file" yaml:"file,omitempty"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		GitHub: GitHubConfig{MaxPages: 50},
		Store:  StoreConfig{Driver: DriverNotion, Path: ".issuesync/records.db"},
		AI:     AIConfig{Model: enrich.DefaultModel, MaxTokens: enrich.DefaultMaxTokens},
		Sync:   SyncConfig{Interval: 15 * time.Minute, State: "open", Key: KeyIssue},
		Server: ServerConfig{Port: 8080},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  50,
			MaxBackups: 7,
			MaxAgeDays: 30,
			Compress:   true,
		},
	}
}

// envAliases are the conventional variable names honored alongside the
// ISSUESYNC_ ones.
var envAliases = map[string]string{
	"github.token":       "GITHUB_TOKEN",
	"github.username":    "GITHUB_USERNAME",
	"notion.token":       "NOTION_TOKEN",
	"notion.database_id": "NOTION_DATABASE_ID",
	"ai.api_key":         "ANTHROPIC_API_KEY",
}

// Loader reads configuration and watches the file for changes.
type Loader struct {
	v    *viper.Viper
	file string
}

// NewLoader reads path, or searches the default locations when path is
// empty. A missing file is not an error; defaults and environment still
// apply.
func NewLoader(path string) (*Loader, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "issuesync"))
		}
	}

	setDefaults(v)

	v.SetEnvPrefix("ISSUESYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, alias := range envAliases {
		envKey := "ISSUESYNC_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, envKey, alias); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	l := &Loader{v: v}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: read config: %w", schema.ErrConfiguration, err)
		}
	} else {
		l.file = v.ConfigFileUsed()
	}

	return l, nil
}

// Load reads the configuration at path (see NewLoader).
func Load(path string) (*Config, error) {
	l, err := NewLoader(path)
	if err != nil {
		return nil, err
	}
	return l.Config()
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("github.token", "")
	v.SetDefault("github.username", "")
	v.SetDefault("github.base_url", "")
	v.SetDefault("github.max_pages", d.GitHub.MaxPages)
	v.SetDefault("notion.token", "")
	v.SetDefault("notion.database_id", "")
	v.SetDefault("notion.base_url", "")
	v.SetDefault("store.driver", d.Store.Driver)
	v.SetDefault("store.path", d.Store.Path)
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.model", d.AI.Model)
	v.SetDefault("ai.max_tokens", d.AI.MaxTokens)
	v.SetDefault("ai.base_url", "")
	v.SetDefault("sync.interval", d.Sync.Interval)
	v.SetDefault("sync.state", d.Sync.State)
	v.SetDefault("sync.key", d.Sync.Key)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.webhook_secret", "")
	v.SetDefault("server.schedule", d.Server.Schedule)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.json", d.Log.JSON)
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", d.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", d.Log.MaxBackups)
	v.SetDefault("log.max_age_days", d.Log.MaxAgeDays)
	v.SetDefault("log.compress", d.Log.Compress)
}

// Config decodes the current settings.
func (l *Loader) Config() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: decode config: %w", schema.ErrConfiguration, err)
	}
	cfg.Store.Driver = strings.ToLower(cfg.Store.Driver)
	return &cfg, nil
}

// ConfigFile returns the file in use, or "" when running from defaults
// and environment only.
func (l *Loader) ConfigFile() string {
	return l.file
}

// Set overrides a key for this process, as flags do.
func (l *Loader) Set(key string, value any) {
	l.v.Set(key, value)
}

// Watch calls fn with the re-read configuration whenever the config file
// changes. It returns an error when no file is in use.
func (l *Loader) Watch(logger *slog.Logger, fn func(*Config)) error {
	if l.file == "" {
		return errors.New("no config file to watch")
	}
	if logger == nil {
		logger = slog.Default()
	}

	l.v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := l.Config()
		if err != nil {
			logger.Warn("ignoring config change", "file", e.Name, "error", err)
			return
		}
		logger.Info("config reloaded", "file", e.Name, "op", e.Op.String())
		fn(cfg)
	})
	l.v.WatchConfig()
	return nil
}

// Validate reports every missing or invalid setting. Each error wraps
// schema.ErrConfiguration.
func (c *Config) Validate() error {
	return errors.Join(c.ValidateGitHub(), c.ValidateStore(), c.validateSync())
}

// ValidateGitHub checks the GitHub credentials alone.
func (c *Config) ValidateGitHub() error {
	var errs []error
	if c.GitHub.Token == "" {
		errs = append(errs, missing("github.token", "GITHUB_TOKEN"))
	}
	if c.GitHub.Username == "" {
		errs = append(errs, missing("github.username", "GITHUB_USERNAME"))
	}
	return errors.Join(errs...)
}

// ValidateStore checks the settings of the selected store driver.
func (c *Config) ValidateStore() error {
	switch c.Store.Driver {
	case DriverNotion:
		var errs []error
		if c.Notion.Token == "" {
			errs = append(errs, missing("notion.token", "NOTION_TOKEN"))
		}
		if c.Notion.DatabaseID == "" {
			errs = append(errs, missing("notion.database_id", "NOTION_DATABASE_ID"))
		}
		return errors.Join(errs...)
	case DriverSQLite:
		if c.Store.Path == "" {
			return fmt.Errorf("%w: store.path is required for the sqlite driver", schema.ErrConfiguration)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown store.driver %q (want %s or %s)",
			schema.ErrConfiguration, c.Store.Driver, DriverNotion, DriverSQLite)
	}
}

func (c *Config) validateSync() error {
	var errs []error
	switch c.Sync.State {
	case "open", "closed", "all":
	default:
		errs = append(errs, fmt.Errorf("%w: sync.state %q must be open, closed or all", schema.ErrConfiguration, c.Sync.State))
	}
	switch c.Sync.Key {
	case KeyIssue, KeyRepository:
	default:
		errs = append(errs, fmt.Errorf("%w: sync.key %q must be %s or %s", schema.ErrConfiguration, c.Sync.Key, KeyIssue, KeyRepository))
	}
	if c.Sync.Interval <= 0 {
		errs = append(errs, fmt.Errorf("%w: sync.interval must be positive", schema.ErrConfiguration))
	}
	return errors.Join(errs...)
}

func missing(key, env string) error {
	return fmt.Errorf("%w: %s is required (set it in config.yaml or %s)", schema.ErrConfiguration, key, env)
}

// DefaultPath is where setup writes the config file.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(dir, "issuesync", "config.yaml")
}

// Write saves cfg as YAML. The file holds credentials, so it is created
// readable by the owner only.
func Write(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
