// Package config loads linkgraph settings from defaults, an optional YAML file and
// LINKGRAPH_ environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const EnvPrefix = "LINKGRAPH"

type Config struct {
	Crawl    CrawlConfig    `mapstructure:"crawl"`
	Fetcher  FetcherConfig  `mapstructure:"fetcher"`
	Registry RegistryConfig `mapstructure:"registry"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type CrawlConfig struct {
	LinksPerPage     int           `mapstructure:"links_per_page"`
	NodeBudget       int           `mapstructure:"node_budget"`
	FetchTimeout     time.Duration `mapstructure:"fetch_timeout"`
	Concurrency      int           `mapstructure:"concurrency"`
	DefaultDepth     int           `mapstructure:"default_depth"`
	MaxDepthLimit    int           `mapstructure:"max_depth_limit"`
	LinkPolicy       string        `mapstructure:"link_policy"`
	LinkGlobs        []string      `mapstructure:"link_globs"`
	RateLimit        int           `mapstructure:"rate_limit"`
	DomainRateLimit  int           `mapstructure:"domain_rate_limit"`
	DomainRateWindow time.Duration `mapstructure:"domain_rate_window"`
}

type FetcherConfig struct {
	Backend      string `mapstructure:"backend"`
	Headless     bool   `mapstructure:"headless"`
	UserAgent    string `mapstructure:"user_agent"`
	MaxRedirects int    `mapstructure:"max_redirects"`
}

type RegistryConfig struct {
	Driver string `mapstructure:"driver"`
	// DSN defaults per driver when unset, see DefaultDSN.
	DSN string `mapstructure:"dsn"`
}

// DefaultDSN returns the location used by a registry driver when no dsn is configured.
func DefaultDSN(driver string) string {
	switch strings.ToLower(driver) {
	case "file":
		return "./data/visited.json"
	case "sqlite3", "libsql":
		return "./data/visited.db"
	default:
		return ""
	}
}

type StorageConfig struct {
	// Dir holds crawl snapshots; empty keeps them in memory.
	Dir string `mapstructure:"dir"`
}

type ServerConfig struct {
	Addr    string `mapstructure:"addr"`
	DevMode bool   `mapstructure:"dev_mode"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Backend    string `mapstructure:"backend"`
	Color      bool   `mapstructure:"color"`
	File       string `mapstructure:"file"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// Load reads configPath, or searches ./configs, . and ~/.linkgraph for config.yaml
// when configPath is empty. A missing config file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".linkgraph"))
		}
	}

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.Registry.DSN == "" {
		cfg.Registry.DSN = DefaultDSN(cfg.Registry.Driver)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns the built-in settings without consulting files or the environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	_ = v.Unmarshal(&cfg)
	cfg.Registry.DSN = DefaultDSN(cfg.Registry.Driver)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("crawl.links_per_page", 20)
	v.SetDefault("crawl.node_budget", 50)
	v.SetDefault("crawl.fetch_timeout", 3*time.Second)
	v.SetDefault("crawl.concurrency", 5)
	v.SetDefault("crawl.default_depth", 1)
	v.SetDefault("crawl.max_depth_limit", 3)
	v.SetDefault("crawl.link_policy", "all")
	v.SetDefault("crawl.link_globs", []string{})
	v.SetDefault("crawl.rate_limit", 0)
	v.SetDefault("crawl.domain_rate_limit", 0)
	v.SetDefault("crawl.domain_rate_window", time.Second)

	v.SetDefault("fetcher.backend", "chromedp")
	v.SetDefault("fetcher.headless", true)
	v.SetDefault("fetcher.user_agent", "")
	v.SetDefault("fetcher.max_redirects", 10)

	v.SetDefault("registry.driver", "memory")
	v.SetDefault("registry.dsn", "")

	v.SetDefault("storage.dir", "")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.dev_mode", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.backend", "zerolog")
	v.SetDefault("logging.color", true)
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size", 10)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age", 28)
	v.SetDefault("logging.compress", true)
}

func (c *Config) Validate() error {
	var errs []error

	if c.Crawl.LinksPerPage <= 0 {
		errs = append(errs, fmt.Errorf("crawl.links_per_page must be positive, got %d", c.Crawl.LinksPerPage))
	}
	if c.Crawl.NodeBudget <= 0 {
		errs = append(errs, fmt.Errorf("crawl.node_budget must be positive, got %d", c.Crawl.NodeBudget))
	}
	if c.Crawl.FetchTimeout <= 0 {
		errs = append(errs, fmt.Errorf("crawl.fetch_timeout must be positive, got %s", c.Crawl.FetchTimeout))
	}
	if c.Crawl.Concurrency <= 0 {
		errs = append(errs, fmt.Errorf("crawl.concurrency must be positive, got %d", c.Crawl.Concurrency))
	}
	if c.Crawl.MaxDepthLimit < 0 {
		errs = append(errs, fmt.Errorf("crawl.max_depth_limit must not be negative, got %d", c.Crawl.MaxDepthLimit))
	}
	if c.Crawl.DefaultDepth < 0 || c.Crawl.DefaultDepth > c.Crawl.MaxDepthLimit {
		errs = append(errs, fmt.Errorf("crawl.default_depth must be within [0, %d], got %d", c.Crawl.MaxDepthLimit, c.Crawl.DefaultDepth))
	}
	if c.Crawl.DomainRateLimit > 0 && c.Crawl.DomainRateWindow <= 0 {
		errs = append(errs, errors.New("crawl.domain_rate_window must be positive when domain_rate_limit is set"))
	}

	switch strings.ToLower(c.Crawl.LinkPolicy) {
	case "", "all", "none", "same-domain":
	case "glob":
		if len(c.Crawl.LinkGlobs) == 0 {
			errs = append(errs, errors.New("crawl.link_globs must not be empty with the glob policy"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown crawl.link_policy %q", c.Crawl.LinkPolicy))
	}

	switch strings.ToLower(c.Fetcher.Backend) {
	case "chromedp", "http":
	default:
		errs = append(errs, fmt.Errorf("unknown fetcher.backend %q", c.Fetcher.Backend))
	}

	switch strings.ToLower(c.Registry.Driver) {
	case "memory", "file", "sqlite3", "libsql":
	default:
		errs = append(errs, fmt.Errorf("unknown registry.driver %q", c.Registry.Driver))
	}

	switch strings.ToLower(c.Logging.Backend) {
	case "", "zerolog", "slog", "std":
	default:
		errs = append(errs, fmt.Errorf("unknown logging.backend %q", c.Logging.Backend))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
