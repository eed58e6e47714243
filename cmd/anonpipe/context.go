package main

import (
	"fmt"
	"log/slog"

	"anonpipe/internal/config"
	"anonpipe/internal/logging"
	"anonpipe/internal/pipeline"
	"anonpipe/internal/quarantine"
	"anonpipe/internal/records"
	"anonpipe/internal/services/idis"
)

// commandContext loads configuration once and hands commands their wired
// components. CLI commands log to stderr so tables on stdout stay parseable.
type commandContext struct {
	configFlag *string

	cfg    *config.Config
	logger *slog.Logger
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	path := ""
	if c.configFlag != nil {
		path = *c.configFlag
	}
	cfg, _, _, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	c.logger = logger
	return cfg, nil
}

func (c *commandContext) openRecords() (*records.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return records.Open(cfg.RecordsDBPath())
}

func (c *commandContext) newPipeline(store *records.Store) (*pipeline.Pipeline, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return pipeline.New(cfg, idis.NewClient(cfg), store, c.logger), nil
}

func (c *commandContext) newQuarantine() (*quarantine.Quarantine, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	ctpFolders := make([]quarantine.CTPFolder, 0, len(cfg.Quarantines))
	for _, q := range cfg.Quarantines {
		ctpFolders = append(ctpFolders, quarantine.NewCTPFolder(q.Path, q.Description))
	}
	return quarantine.New(cfg.QuarantineDir(), ctpFolders, c.logger), nil
}
