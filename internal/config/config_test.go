package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, "https://news.ycombinator.com", cfg.Crawler.StartPage)
	require.Equal(t, 10, cfg.Crawler.TopStories)
	require.Equal(t, 60*time.Second, cfg.PollInterval())
	require.Equal(t, 16*time.Second, cfg.RequestTimeout())
	require.Equal(t, 256, cfg.Crawler.GlobalLimit)
	require.Equal(t, 8, cfg.Crawler.PerHostLimit)
	require.Equal(t, "news", cfg.Crawler.OutputDir)
	require.Equal(t, "http", cfg.Crawler.Engine)
	require.True(t, cfg.Server.Enabled)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	payload := []byte(`
crawler:
  top_stories: 3
  poll_interval_seconds: 5
  engine: colly
server:
  enabled: false
`)
	require.NoError(t, os.WriteFile(path, payload, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 3, cfg.Crawler.TopStories)
	require.Equal(t, 5*time.Second, cfg.PollInterval())
	require.Equal(t, "colly", cfg.Crawler.Engine)
	require.False(t, cfg.Server.Enabled)
	// Untouched keys keep their defaults.
	require.Equal(t, 256, cfg.Crawler.GlobalLimit)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid, err := Load("")
	require.NoError(t, err)

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero top stories", func(c *Config) { c.Crawler.TopStories = 0 }},
		{"zero poll interval", func(c *Config) { c.Crawler.PollIntervalSeconds = 0 }},
		{"zero timeout", func(c *Config) { c.Crawler.TimeoutSeconds = 0 }},
		{"zero global limit", func(c *Config) { c.Crawler.GlobalLimit = 0 }},
		{"per-host above global", func(c *Config) { c.Crawler.PerHostLimit = c.Crawler.GlobalLimit + 1 }},
		{"empty output dir", func(c *Config) { c.Crawler.OutputDir = "" }},
		{"unknown engine", func(c *Config) { c.Crawler.Engine = "carrier-pigeon" }},
		{"bad server port", func(c *Config) { c.Server.Port = 0 }},
		{"empty start page", func(c *Config) { c.Crawler.StartPage = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid
			tc.mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}

	require.NoError(t, valid.Validate())
}
