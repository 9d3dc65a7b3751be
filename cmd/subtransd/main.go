package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"subtrans/internal/config"
	"subtrans/internal/daemon"
	"subtrans/internal/logging"
	"subtrans/internal/stats"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	if !runPreflight(ctx, cfg, logger) {
		logger.Error("preflight failed, refusing to start")
		return
	}

	store, err := stats.Open(cfg.Paths.StatsDB)
	if err != nil {
		logger.Error("open stats store", logging.Error(err))
		return
	}
	defer store.Close()

	d, err := daemon.New(cfg, store, buildCapability(cfg), logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		return
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		return
	}
	logger.Info("subtransd listening", logging.String("addr", d.Addr()))

	<-ctx.Done()
	logger.Info("subtransd shutting down")
}
