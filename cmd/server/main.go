// Package main is the entry point for the snippet sharing server.
//
// MAIN PACKAGE IN GO:
// main is kept minimal. Its job is to:
//  1. Read configuration (defaults, optional YAML file, SNIPPETS_* env vars)
//  2. Create dependencies (logger, database store)
//  3. Start the server and wait for SIGINT/SIGTERM
//
// All actual logic lives in imported packages (internal/server,
// internal/handler, ...).
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/sakif/snippetshare/internal/config"
	"github.com/sakif/snippetshare/internal/repository/store"
	"github.com/sakif/snippetshare/internal/server"
)

func main() {
	configPath := flag.String("config", os.Getenv("SNIPPETS_CONFIG"), "path to a YAML config file")
	flag.Parse()

	// === 1. CONFIGURATION ===
	cfg, err := config.Load(*configPath)
	if err != nil {
		// The configured logger does not exist yet.
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 2. LOGGING ===
	logger := cfg.Log.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	// signal.NotifyContext cancels ctx on Ctrl+C or SIGTERM; server.Run
	// then shuts down gracefully.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// run exists so deferred Close calls execute before os.Exit.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	// === 3. DATABASE ===
	db, err := store.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Warn("closing database", slog.String("error", err.Error()))
		}
	}()

	if !cfg.Auth.GitHub.Enabled() {
		logger.Info("GitHub login disabled: auth.github.client_id/client_secret not set")
	}

	// === 4. SERVER ===
	srv, err := server.New(cfg, logger, db)
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}
