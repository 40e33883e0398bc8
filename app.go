package main

import (
	"context"
	"errors"
	"log"

	"grabdoc/internal/browser"
	"grabdoc/internal/cache"
	"grabdoc/internal/config"
	"grabdoc/internal/events"
	"grabdoc/internal/fetch"
	"grabdoc/internal/job"
	"grabdoc/internal/render"
	"grabdoc/internal/sites/everand"
	"grabdoc/internal/sites/scribd"
	"grabdoc/internal/sites/slideshare"
	"grabdoc/internal/source"
)

// app holds the process wide services. Build it once with newApp and
// release it with Close.
type app struct {
	cfg     *config.Config
	browser *browser.Manager
	store   cache.Store
	jobs    *job.Orchestrator
	logger  *log.Logger
}

func newApp(ctx context.Context, cfg *config.Config, logger *log.Logger) *app {
	a := &app{
		cfg:     cfg,
		browser: browser.New(cfg.BrowserConfig()),
		logger:  logger,
	}

	store, err := cache.Open(ctx, cfg.Cache.Driver, cfg.Cache.DSN)
	if err != nil {
		logger.Printf("WARNING: result cache disabled: %v", err)
	} else {
		a.store = store
	}

	a.jobs = job.New(job.Options{
		Registry:  newRegistry(a.browser, cfg),
		Cache:     a.store,
		Bus:       events.NewBroadcaster(),
		Logger:    logger,
		OutputDir: cfg.Output.Dir,
	})
	return a
}

func newRegistry(opener render.Opener, cfg *config.Config) *source.Registry {
	client := fetch.New(cfg.Browser.UserAgent)
	layout := cfg.Layout()
	timing := cfg.Timing()
	return source.NewRegistry(
		scribd.NewScraper(opener, layout, timing),
		slideshare.NewScraper(opener, client, layout, timing),
		everand.NewScraper(opener, client, layout, timing),
	)
}

// Close waits for the running job, then shuts the browser and the cache.
func (a *app) Close() error {
	a.jobs.Wait()
	var errs []error
	if err := a.browser.Close(); err != nil {
		errs = append(errs, err)
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
