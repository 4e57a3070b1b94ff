// Command chorusd runs the music library daemon: it serves the framed
// protocol on the configured bind address and owns the on-disk library.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os/signal"
	"syscall"

	"chorus/internal/config"
	"chorus/internal/daemon"
	"chorus/internal/logging"
	"chorus/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to config.toml (defaults to the user config dir)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, path, exists, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	if exists {
		logger.Info("configuration loaded", slog.String("path", path))
	} else {
		logger.Info("no config file found, using defaults")
	}

	d, err := daemon.New(cfg, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		return
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("start daemon", logging.Error(err))
		return
	}

	srv, err := server.New(ctx, cfg, d, logger)
	if err != nil {
		logger.Error("start server", logging.Error(err))
		return
	}
	defer srv.Close()
	srv.Serve()

	<-ctx.Done()
	logger.Info("chorusd shutting down")
}
