package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"dugout/internal/config"
	"dugout/internal/daemon"
	"dugout/internal/logging"
	"dugout/internal/mediastore"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.NewDaemonLogger(cfg.Logging.Level, cfg.Logging.Format, cfg.Paths.LogDir)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	store, err := mediastore.Open(cfg)
	if err != nil {
		logger.Error("open media store", "error", err)
		return
	}

	d, err := daemon.New(cfg, store, logger)
	if err != nil {
		logger.Error("create daemon", "error", err)
		_ = store.Close()
		return
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", "error", err)
		return
	}

	<-ctx.Done()
	logger.Info("dugoutd shutting down")
}
