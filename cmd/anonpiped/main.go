package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/gofrs/flock"

	"anonpipe/internal/config"
	"anonpipe/internal/logging"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("ensure directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	// The stage tree and the records database assume a single writer. The
	// lock makes a second daemon refuse to start instead of corrupting the
	// flow.
	lock := flock.New(cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		log.Fatalf("acquire lock: %v", err)
	}
	if !locked {
		log.Fatalf("another anonpiped instance holds %s", cfg.LockPath())
	}
	defer lock.Unlock() //nolint:errcheck

	app, err := newApp(cfg, logger)
	if err != nil {
		logger.Error("bootstrap failed", logging.Error(err))
		return
	}
	defer app.Close()

	app.Run(ctx)
	logger.Info("anonpiped shutting down")
}
