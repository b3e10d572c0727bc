package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	cfg := &Config{
		Servers: []PlexServer{{Name: "home", URL: "http://plex:32400", Token: "t"}},
		Localize: LocalizeConfig{
			Enabled:   true,
			Cron:      "0 4 * * *",
			Libraries: []string{"home.1"},
		},
	}
	cfg.applyDefaults()
	return cfg
}

func TestValidate_Valid(t *testing.T) {
	assert.Empty(t, validConfig().Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"bad log level", func(c *Config) { c.Server.LogLevel = "trace" }, "server.log_level: must be one of"},
		{"no servers", func(c *Config) { c.Servers = nil }, "at least one Plex server"},
		{"missing token", func(c *Config) { c.Servers[0].Token = "" }, "servers[0].token: required"},
		{"bad url", func(c *Config) { c.Servers[0].URL = "plex" }, "servers[0].url: must be a URL"},
		{"dotted name", func(c *Config) { c.Servers[0].Name = "a.b" }, "servers[0].name"},
		{"duplicate name", func(c *Config) {
			c.Servers = append(c.Servers, PlexServer{Name: "home", URL: "http://b:32400", Token: "t"})
		}, "duplicate server name"},
		{"unknown server", func(c *Config) { c.Localize.Libraries = []string{"other.1"} }, `unknown server "other"`},
		{"malformed library", func(c *Config) { c.Localize.Libraries = []string{"home"} }, "must look like"},
		{"bad cron", func(c *Config) { c.Localize.Cron = "every day" }, "localize.cron"},
		{"enabled without libraries", func(c *Config) { c.Localize.Libraries = nil }, "at least one library"},
		{"too many workers", func(c *Config) { c.Localize.Workers = 100 }, "localize.workers: must be at most 64"},
		{"bad notify url", func(c *Config) { c.Notify.URL = "ntfy" }, "notify.url"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			errs := cfg.Validate()
			assert.NotEmpty(t, errs)
			assert.Contains(t, strings.Join(errs, "\n"), tt.want)
		})
	}
}

func TestValidate_DisabledAllowsNoLibraries(t *testing.T) {
	cfg := validConfig()
	cfg.Localize.Enabled = false
	cfg.Localize.Libraries = nil
	assert.Empty(t, cfg.Validate())
}
