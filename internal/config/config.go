package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all fintrack configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Store      StoreConfig      `toml:"store"`
	Auth       AuthConfig       `toml:"auth"`
	Appearance AppearanceConfig `toml:"appearance"`
	Log        LogConfig        `toml:"log"`
	Daemon     DaemonConfig     `toml:"daemon"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	Currency string `toml:"currency"`
	DataDir  string `toml:"data_dir,omitempty"`
}

// StoreConfig holds record store settings.
type StoreConfig struct {
	Path            string   `toml:"path,omitempty"`
	EnforceIndexes  bool     `toml:"enforce_indexes"`
	Indexes         []string `toml:"indexes,omitempty"` // "collection.field"
	WatchIntervalMS int      `toml:"watch_interval_ms"`
}

// AuthConfig holds identity provider settings.
type AuthConfig struct {
	SessionFile       string `toml:"session_file,omitempty"`
	SessionTTLHours   int    `toml:"session_ttl_hours"`
	MaxFailedAttempts int    `toml:"max_failed_attempts"`
	LockoutMinutes    int    `toml:"lockout_minutes"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
	File   string `toml:"file,omitempty"`
}

// DaemonConfig holds background publisher settings.
type DaemonConfig struct {
	Addr         string `toml:"addr"`
	EventsBuffer int    `toml:"events_buffer"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			Currency: "MVR",
		},
		Store: StoreConfig{
			EnforceIndexes: true,
			Indexes: []string{
				"expenses.date",
				"received.date",
			},
			WatchIntervalMS: 1000,
		},
		Auth: AuthConfig{
			SessionTTLHours:   24 * 30,
			MaxFailedAttempts: 5,
			LockoutMinutes:    5,
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Daemon: DaemonConfig{
			Addr:         "127.0.0.1:8787",
			EventsBuffer: 200,
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "fintrack")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "fintrack")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// DataDir returns the directory holding the database, session and log.
func (c Config) DataDir() string {
	if c.General.DataDir != "" {
		return c.General.DataDir
	}
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "fintrack")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "fintrack")
}

// StorePath returns the SQLite database path.
func (c Config) StorePath() string {
	if c.Store.Path != "" {
		return c.Store.Path
	}
	return filepath.Join(c.DataDir(), "fintrack.db")
}

// SessionPath returns the persisted session token path.
func (c Config) SessionPath() string {
	if c.Auth.SessionFile != "" {
		return c.Auth.SessionFile
	}
	return filepath.Join(c.DataDir(), "session.jwt")
}

// LogPath returns the log file path.
func (c Config) LogPath() string {
	if c.Log.File != "" {
		return c.Log.File
	}
	return filepath.Join(c.DataDir(), "fintrack.log")
}

// WatchInterval is how often the store polls for commits from other processes.
func (c Config) WatchInterval() time.Duration {
	return time.Duration(c.Store.WatchIntervalMS) * time.Millisecond
}

// SessionTTL is how long a persisted session stays valid.
func (c Config) SessionTTL() time.Duration {
	return time.Duration(c.Auth.SessionTTLHours) * time.Hour
}

// Lockout is how long an account stays locked after too many failures.
func (c Config) Lockout() time.Duration {
	return time.Duration(c.Auth.LockoutMinutes) * time.Minute
}

// Load reads the config file, returning defaults if it doesn't exist.
// Environment overrides are applied on top.
func Load() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("reading config: %w", err)
		}
	} else if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	ApplyEnv(&cfg)
	return cfg, nil
}

// ApplyEnv overrides selected settings from FINTRACK_* variables.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv("FINTRACK_DB_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("FINTRACK_SESSION_FILE"); v != "" {
		cfg.Auth.SessionFile = v
	}
	if v := os.Getenv("FINTRACK_THEME"); v != "" {
		cfg.Appearance.Theme = v
	}
	if v := os.Getenv("FINTRACK_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("FINTRACK_DAEMON_ADDR"); v != "" {
		cfg.Daemon.Addr = v
	}
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.General.Currency) == "" {
		problems = append(problems, "general.currency cannot be empty")
	}
	if c.Store.WatchIntervalMS < 50 {
		problems = append(problems, fmt.Sprintf("invalid store.watch_interval_ms %d: must be at least 50", c.Store.WatchIntervalMS))
	}
	for _, idx := range c.Store.Indexes {
		if coll, field, ok := strings.Cut(idx, "."); !ok || coll == "" || field == "" {
			problems = append(problems, fmt.Sprintf("invalid store index %q: want collection.field", idx))
		}
	}
	if c.Auth.SessionTTLHours < 1 {
		problems = append(problems, "auth.session_ttl_hours must be at least 1")
	}
	if c.Auth.MaxFailedAttempts < 1 {
		problems = append(problems, "auth.max_failed_attempts must be at least 1")
	}
	if c.Auth.LockoutMinutes < 0 {
		problems = append(problems, "auth.lockout_minutes cannot be negative")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("invalid log.level %q: must be one of debug, info, warn, error", c.Log.Level))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		problems = append(problems, fmt.Sprintf("invalid log.format %q: must be json or console", c.Log.Format))
	}
	if c.Daemon.EventsBuffer < 1 {
		problems = append(problems, "daemon.events_buffer must be at least 1")
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(ConfigPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}
