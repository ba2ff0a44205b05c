package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	linkgraph "github.com/will-x86/linkgraph"
	"github.com/will-x86/linkgraph/fetchers"
	"github.com/will-x86/linkgraph/internal/config"
	"github.com/will-x86/linkgraph/logger"
	"github.com/will-x86/linkgraph/runner"
	"github.com/will-x86/linkgraph/storage"
)

// app holds the components built from configuration for one command run.
type app struct {
	cfg       *config.Config
	log       logger.Logger
	fetcher   linkgraph.PageFetcher
	registry  storage.Registry
	scheduler *runner.Scheduler
	closers   []func() error
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (logger.Logger, error) {
	return logger.New(logger.Options{
		Backend:    cfg.Logging.Backend,
		Level:      cfg.Logging.Level,
		UseColor:   cfg.Logging.Color,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSize,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAge,
		Compress:   cfg.Logging.Compress,
	})
}

func newFetcher(cfg *config.Config, log logger.Logger) (linkgraph.PageFetcher, func() error) {
	switch strings.ToLower(cfg.Fetcher.Backend) {
	case "http":
		return fetchers.NewHTTPFetcher(fetchers.HTTPOptions{
			Logger:       log,
			Timeout:      cfg.Crawl.FetchTimeout,
			MaxRedirects: cfg.Fetcher.MaxRedirects,
			UserAgent:    cfg.Fetcher.UserAgent,
			LinksPerPage: cfg.Crawl.LinksPerPage,
		}), nil
	default:
		f := fetchers.NewChromeDPFetcher(fetchers.ChromeDPOptions{
			Logger:       log,
			Headless:     cfg.Fetcher.Headless,
			UserAgent:    cfg.Fetcher.UserAgent,
			Timeout:      cfg.Crawl.FetchTimeout,
			LinksPerPage: cfg.Crawl.LinksPerPage,
		})
		return f, f.Close
	}
}

func newRegistry(cfg *config.Config) (storage.Registry, error) {
	switch driver := strings.ToLower(cfg.Registry.Driver); driver {
	case "memory":
		return storage.NewMemoryRegistry(), nil
	case "file":
		return storage.NewFileRegistry(cfg.Registry.DSN)
	case "sqlite3", "libsql":
		return storage.NewSQLRegistry(storage.SQLRegistryOptions{
			Driver: driver,
			DSN:    cfg.Registry.DSN,
		})
	default:
		return nil, fmt.Errorf("unknown registry driver %q", cfg.Registry.Driver)
	}
}

func newSnapshotStorage(cfg *config.Config) (storage.Storage, error) {
	if cfg.Storage.Dir == "" {
		return storage.NewMemoryStorage(), nil
	}
	return storage.NewFileStorage(cfg.Storage.Dir)
}

func schedulerOptions(cfg *config.Config, registry storage.Registry, log logger.Logger) ([]runner.Option, error) {
	policy, ok := runner.PolicyByName(cfg.Crawl.LinkPolicy, cfg.Crawl.LinkGlobs)
	if !ok {
		return nil, fmt.Errorf("unknown link policy %q", cfg.Crawl.LinkPolicy)
	}

	opts := []runner.Option{
		runner.WithLogger(log),
		runner.WithRegistry(registry),
		runner.WithConcurrency(cfg.Crawl.Concurrency),
		runner.WithNodeBudget(cfg.Crawl.NodeBudget),
		runner.WithFetchTimeout(cfg.Crawl.FetchTimeout),
		runner.WithLinkPolicy(policy),
	}
	switch {
	case cfg.Crawl.DomainRateLimit > 0:
		opts = append(opts, runner.WithDomainRateLimit(cfg.Crawl.DomainRateLimit, cfg.Crawl.DomainRateWindow))
	case cfg.Crawl.RateLimit > 0:
		opts = append(opts, runner.WithGlobalRateLimit(cfg.Crawl.RateLimit))
	}
	return opts, nil
}

// newApp wires every component a crawl needs. withFetcher is false for commands
// that only touch the registry.
func newApp(cmd *cobra.Command, withFetcher bool) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	log, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: log}

	registry, err := newRegistry(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s registry: %w", cfg.Registry.Driver, err)
	}
	a.registry = registry
	a.closers = append(a.closers, registry.Close)

	if withFetcher {
		fetcher, closeFetcher := newFetcher(cfg, log)
		a.fetcher = fetcher
		if closeFetcher != nil {
			a.closers = append(a.closers, closeFetcher)
		}
	}

	opts, err := schedulerOptions(cfg, registry, log)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.scheduler = runner.NewScheduler(a.fetcher, opts...)
	a.closers = append(a.closers, func() error {
		a.scheduler.Close()
		return nil
	})

	log.Debug("Using %s fetcher, %s registry, link policy %q",
		cfg.Fetcher.Backend, cfg.Registry.Driver, cfg.Crawl.LinkPolicy)

	return a, nil
}

// Close releases components in reverse order of creation.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
