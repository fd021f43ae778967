package main

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"scanlog/infrastructure/audit"
	"scanlog/infrastructure/config"
	httpserver "scanlog/infrastructure/http"
	"scanlog/infrastructure/logging"
	"scanlog/infrastructure/sqlite"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("load .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("%v", err)
	}

	logSink, err := logging.Setup(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.File)
	if err != nil {
		log.Fatalf("setup logging: %v", err)
	}
	defer logSink.Close()

	db, err := sqlite.OpenDB(cfg.Database.Path)
	if err != nil {
		slog.Error("open db failed", "path", cfg.Database.Path, "err", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := sqlite.ApplyMigrations(context.Background(), db, cfg.Database.MigrationsDir); err != nil {
		slog.Error("apply migrations failed", "err", err)
		os.Exit(1)
	}

	server := httpserver.NewServer(*cfg, db, audit.NewService())
	if err := server.Start(); err != nil {
		slog.Error("start server failed", "addr", cfg.Server.Addr, "err", err)
		os.Exit(1)
	}
	slog.Info("scanlog listening", "addr", server.ListenAddr(), "config", cfg.String())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("shutting down", "signal", sig.String())

	if err := server.Stop(); err != nil {
		slog.Error("graceful shutdown error", "err", err)
	}
}
