package main

import (
	"context"
	"log/slog"
	"time"

	"anonpipe/internal/config"
	"anonpipe/internal/logging"
	"anonpipe/internal/pipeline"
	"anonpipe/internal/quarantine"
	"anonpipe/internal/records"
	"anonpipe/internal/services/idis"
)

type app struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      *records.Store
	pipeline   *pipeline.Pipeline
	quarantine *quarantine.Quarantine
}

func newApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	store, err := records.Open(cfg.RecordsDBPath())
	if err != nil {
		return nil, err
	}

	ctpFolders := make([]quarantine.CTPFolder, 0, len(cfg.Quarantines))
	for _, q := range cfg.Quarantines {
		ctpFolders = append(ctpFolders, quarantine.NewCTPFolder(q.Path, q.Description))
	}

	return &app{
		cfg:        cfg,
		logger:     logger,
		store:      store,
		pipeline:   pipeline.New(cfg, idis.NewClient(cfg), store, logger),
		quarantine: quarantine.New(cfg.QuarantineDir(), ctpFolders, logger),
	}, nil
}

func (a *app) Close() {
	_ = a.store.Close()
}

// Run ticks the pipeline and scrapes the quarantines until ctx is done. Both
// run immediately at startup so a restart converges without waiting a full
// interval. Failures are logged and the loop carries on; every tick
// re-derives its state from disk.
func (a *app) Run(ctx context.Context) {
	a.tick(ctx)
	a.scrape()

	tickTimer := time.NewTicker(a.cfg.TickInterval())
	defer tickTimer.Stop()
	scrapeTimer := time.NewTicker(a.cfg.ScrapeInterval())
	defer scrapeTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tickTimer.C:
			a.tick(ctx)
		case <-scrapeTimer.C:
			a.scrape()
		}
	}
}

func (a *app) tick(ctx context.Context) {
	if err := a.pipeline.RunOnce(ctx); err != nil {
		a.logger.Error("pipeline tick failed", logging.Error(err))
	}
}

func (a *app) scrape() {
	if err := a.quarantine.Scrape(); err != nil {
		a.logger.Error("quarantine scrape failed", logging.Error(err))
	}
}
