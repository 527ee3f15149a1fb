// Package config loads and validates crawler configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Crawler CrawlerConfig `mapstructure:"crawler"`
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// CrawlerConfig governs the poll loop and the fetch engine.
type CrawlerConfig struct {
	StartPage           string `mapstructure:"start_page"`
	TopStories          int    `mapstructure:"top_stories"`
	PollIntervalSeconds int    `mapstructure:"poll_interval_seconds"`
	TimeoutSeconds      int    `mapstructure:"timeout_seconds"`
	GlobalLimit         int    `mapstructure:"global_limit"`
	PerHostLimit        int    `mapstructure:"per_host_limit"`
	OutputDir           string `mapstructure:"output_dir"`
	UserAgent           string `mapstructure:"user_agent"`
	Engine              string `mapstructure:"engine"`
}

// ServerConfig controls the ops HTTP endpoint.
type ServerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("HNCRAWL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("crawler.start_page", "https://news.ycombinator.com")
	v.SetDefault("crawler.top_stories", 10)
	v.SetDefault("crawler.poll_interval_seconds", 60)
	v.SetDefault("crawler.timeout_seconds", 16)
	v.SetDefault("crawler.global_limit", 256)
	v.SetDefault("crawler.per_host_limit", 8)
	v.SetDefault("crawler.output_dir", "news")
	v.SetDefault("crawler.engine", "http")
	v.SetDefault("server.enabled", true)
	v.SetDefault("server.port", 9090)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Crawler.StartPage == "" {
		return fmt.Errorf("crawler.start_page must be set")
	}
	if c.Crawler.TopStories <= 0 {
		return fmt.Errorf("crawler.top_stories must be > 0")
	}
	if c.Crawler.PollIntervalSeconds <= 0 {
		return fmt.Errorf("crawler.poll_interval_seconds must be > 0")
	}
	if c.Crawler.TimeoutSeconds <= 0 {
		return fmt.Errorf("crawler.timeout_seconds must be > 0")
	}
	if c.Crawler.GlobalLimit <= 0 {
		return fmt.Errorf("crawler.global_limit must be > 0")
	}
	if c.Crawler.PerHostLimit <= 0 {
		return fmt.Errorf("crawler.per_host_limit must be > 0")
	}
	if c.Crawler.PerHostLimit > c.Crawler.GlobalLimit {
		return fmt.Errorf("crawler.per_host_limit must be <= crawler.global_limit")
	}
	if c.Crawler.OutputDir == "" {
		return fmt.Errorf("crawler.output_dir must be set")
	}
	if c.Crawler.Engine != "http" && c.Crawler.Engine != "colly" {
		return fmt.Errorf("crawler.engine must be %q or %q", "http", "colly")
	}
	if c.Server.Enabled && c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0 when the server is enabled")
	}
	return nil
}

// PollInterval returns the delay between poll cycles.
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.Crawler.PollIntervalSeconds) * time.Second
}

// RequestTimeout returns the per-request deadline.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Crawler.TimeoutSeconds) * time.Second
}
