// Package config handles TOML configuration loading with environment variable substitution.
package config

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Localize LocalizeConfig `toml:"localize"`
	Servers  []PlexServer   `toml:"servers" validate:"dive"`
	Notify   NotifyConfig   `toml:"notify"`
}

type ServerConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port" validate:"min=1,max=65535"`
	LogLevel string `toml:"log_level" validate:"oneof=debug info warn error"`
	// APIKey guards the HTTP API when set, via the X-Api-Key header.
	APIKey string `toml:"api_key"`
	// RateLimit caps webhook requests per client IP per minute.
	RateLimit int `toml:"rate_limit" validate:"min=0"`
}

type DatabaseConfig struct {
	Path string `toml:"path" validate:"required"`
	// Retention bounds how long run history and events are kept.
	Retention time.Duration `toml:"retention" validate:"min=0"`
}

// LocalizeConfig holds the localization engine settings.
type LocalizeConfig struct {
	Enabled bool `toml:"enabled"`
	// Cron runs a full localization periodically. Empty disables the schedule.
	Cron string `toml:"cron"`
	// RunOnStart runs a full localization once when the daemon starts.
	RunOnStart bool `toml:"run_on_start"`
	// Notify sends a summary notification after each run.
	Notify bool `toml:"notify"`
	// Libraries selects libraries as "server.libraryKey" or "server.Library Title".
	Libraries []string `toml:"libraries"`
	// Lock marks written fields as locked on the server.
	Lock      bool `toml:"lock"`
	Workers   int  `toml:"workers" validate:"min=1,max=64"`
	BatchSize int  `toml:"batch_size" validate:"min=1,max=1000"`
	Retries   int  `toml:"retries" validate:"min=0,max=5"`
	// PostImport arms a delayed run after each import webhook.
	PostImport bool          `toml:"post_import"`
	Delay      time.Duration `toml:"delay" validate:"min=0"`
	Timeout    time.Duration `toml:"timeout" validate:"min=0"`
	// LockFile serializes runs across processes when set.
	LockFile string `toml:"lock_file"`
	// Tags is the tag dictionary: a JSON object with optional // comments.
	// Empty uses the built-in preset.
	Tags string `toml:"tags"`
}

// PlexServer is one Plex Media Server.
type PlexServer struct {
	Name  string `toml:"name" validate:"required,excludesall=."`
	URL   string `toml:"url" validate:"required,url"`
	Token string `toml:"token" validate:"required"`
	// RequestsPerSecond caps API calls to this server. Negative disables the limit.
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

type NotifyConfig struct {
	URL     string        `toml:"url" validate:"omitempty,url"`
	Topic   string        `toml:"topic"`
	Timeout time.Duration `toml:"timeout" validate:"min=0"`
}

// Defaults.
const (
	DefaultHost      = "0.0.0.0"
	DefaultPort      = 8585
	DefaultDBPath    = "./data/plexlocalize.db"
	DefaultRetention = 30 * 24 * time.Hour
	DefaultRateLimit = 60
	DefaultWorkers   = 5
	DefaultBatchSize = 100
	DefaultDelay     = 300 * time.Second
	DefaultTimeout   = 10 * time.Second
	DefaultNtfyURL   = "https://ntfy.sh"
)

// Load reads, substitutes, parses, defaults and validates the configuration file.
// Unresolved ${VAR} references and validation failures are reported together
// as a *ConfigError.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	content, missing := substituteEnvVars(string(data))

	var cfg Config
	if _, err := toml.Decode(content, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyDefaults()

	cerr := &ConfigError{Path: path, Missing: missing, Errors: cfg.Validate()}
	if cerr.HasErrors() {
		return nil, cerr
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Server.RateLimit == 0 {
		c.Server.RateLimit = DefaultRateLimit
	}
	if c.Database.Path == "" {
		c.Database.Path = DefaultDBPath
	}
	if c.Database.Retention == 0 {
		c.Database.Retention = DefaultRetention
	}
	if c.Localize.Workers == 0 {
		c.Localize.Workers = DefaultWorkers
	}
	if c.Localize.BatchSize == 0 {
		c.Localize.BatchSize = DefaultBatchSize
	}
	if c.Localize.Delay == 0 {
		c.Localize.Delay = DefaultDelay
	}
	if c.Localize.Timeout == 0 {
		c.Localize.Timeout = DefaultTimeout
	}
	if c.Notify.URL == "" {
		c.Notify.URL = DefaultNtfyURL
	}
	if c.Notify.Timeout == 0 {
		c.Notify.Timeout = DefaultTimeout
	}
}

// ServerNames returns the configured server names in file order.
func (c *Config) ServerNames() []string {
	names := make([]string, len(c.Servers))
	for i, s := range c.Servers {
		names[i] = s.Name
	}
	return names
}

// envVarPattern matches ${VAR_NAME}.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// substituteEnvVars replaces ${VAR_NAME} with environment variable values.
// References to unset variables are left in place and returned sorted.
func substituteEnvVars(content string) (string, []string) {
	seen := make(map[string]bool)
	out := envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		name := match[2 : len(match)-1]
		if value, ok := os.LookupEnv(name); ok {
			return value
		}
		seen[name] = true
		return match
	})

	var missing []string
	for name := range seen {
		missing = append(missing, name)
	}
	sort.Strings(missing)
	return out, missing
}
