// Decoy - Phishing-awareness training through simulated scam chats.
// Copyright (c) 2025 opensource.safety
// Licensed under the Apache License 2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/opensource-safety/decoy/internal/api"
	"github.com/opensource-safety/decoy/internal/bus"
	"github.com/opensource-safety/decoy/internal/cache"
	"github.com/opensource-safety/decoy/internal/domain"
	"github.com/opensource-safety/decoy/internal/llm"
	"github.com/opensource-safety/decoy/internal/repository"
	"github.com/opensource-safety/decoy/internal/rules"
	"github.com/opensource-safety/decoy/internal/session"
	"github.com/opensource-safety/decoy/internal/throttle"
	"github.com/opensource-safety/decoy/internal/worker"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	configPath := flag.String("config", os.Getenv("DECOY_CONFIG"), "optional YAML config file")
	flag.Parse()

	// Load configuration
	cfg, err := domain.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	slog.Info("starting decoy",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)
	slog.Info("configuration loaded",
		"tier", cfg.Tier,
		"repository", cfg.Repository.Driver,
		"cache", cfg.Cache.Type,
		"eventbus", cfg.EventBus.Type,
		"generator", cfg.Generator.Provider,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Initialize Repository
	repo, err := repository.New(cfg.Repository)
	if err != nil {
		slog.Error("failed to initialize repository", "error", err)
		os.Exit(1)
	}
	defer repo.Close()
	slog.Info("repository initialized", "driver", cfg.Repository.Driver)

	// Initialize Cache
	cacheImpl, err := cache.New(cfg.Cache)
	if err != nil {
		slog.Error("failed to initialize cache", "error", err)
		os.Exit(1)
	}
	defer cacheImpl.Close()
	slog.Info("cache initialized", "type", cfg.Cache.Type)

	// Initialize EventBus
	busImpl, err := bus.New(cfg.EventBus)
	if err != nil {
		slog.Error("failed to initialize event bus", "error", err)
		os.Exit(1)
	}
	defer busImpl.Close()
	slog.Info("event bus initialized", "type", cfg.EventBus.Type)

	// Load the rule table and compile the scoring engine
	table, err := rules.LoadTable(cfg.Rules.Path)
	if err != nil {
		slog.Error("failed to load rule table", "path", cfg.Rules.Path, "error", err)
		os.Exit(1)
	}
	engine, err := rules.NewEngine(table, rules.Options{
		DedupeEvents: cfg.Rules.DedupeEvents,
		Logger:       logger,
	})
	if err != nil {
		slog.Error("failed to compile rule engine", "error", err)
		os.Exit(1)
	}
	slog.Info("rule engine initialized", "scenarios", engine.Scenarios())

	// Initialize the reply generator
	provider, err := llm.NewProvider(cfg.Generator)
	if err != nil {
		slog.Error("failed to initialize generator", "error", err)
		os.Exit(1)
	}
	slog.Info("generator initialized", "provider", cfg.Generator.Provider, "model", provider.ModelID())

	// Initialize session service
	limiter := throttle.New(cfg.Throttle, cacheImpl)
	service := session.New(session.Deps{
		Repo:      repo,
		Cache:     cacheImpl,
		Bus:       busImpl,
		Engine:    engine,
		Provider:  provider,
		Limiter:   limiter,
		Logger:    logger,
		Generator: cfg.Generator,
	})

	// Start the digest worker
	digestWorker := worker.NewWorker(busImpl, repo, logger)
	if err := digestWorker.Start(); err != nil {
		slog.Error("failed to start digest worker", "error", err)
		os.Exit(1)
	}

	// Initialize Server
	srv := api.NewServer(cfg.Server, service, engine, repo, cacheImpl, busImpl, cfg.Rules.Path, Version)

	// Start Server in goroutine
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("decoy is ready",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	printBanner(cfg, Version)

	// Wait for shutdown signal
	<-ctx.Done()
	slog.Info("shutting down...")

	// Stop the digest worker first so in-flight events land in the store
	if err := digestWorker.Stop(); err != nil {
		slog.Error("failed to stop digest worker", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("decoy shutdown complete")
}

func newLogger(cfg domain.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func printBanner(cfg *domain.Config, version string) {
	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════╗")
	fmt.Println("  ║               🎣 DECOY                    ║")
	fmt.Println("  ║     Phishing Awareness Simulator          ║")
	fmt.Println("  ║    Practice the call before it comes.     ║")
	fmt.Println("  ╚═══════════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("  Version:  %s\n", version)
	fmt.Printf("  Tier:     %s\n", cfg.Tier)
	fmt.Printf("  Server:   http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()
	fmt.Println("  Endpoints:")
	fmt.Println("    POST /rooms                 - Start a simulation session")
	fmt.Println("    POST /rooms/{id}/messages   - Send a message, get the scammer's reply")
	fmt.Println("    GET  /rooms/{id}/messages   - Full transcript")
	fmt.Println("    POST /rooms/{id}/end        - End the session, get the report")
	fmt.Println("    POST /evaluate              - Score one message without a session")
	fmt.Println("    GET  /scenarios             - List available scenarios")
	fmt.Println("    GET  /rules                 - Show the loaded rule table")
	fmt.Println("    POST /rules/reload          - Hot-reload the rule table")
	fmt.Println("    GET  /summaries             - Recent session digests")
	fmt.Println("    GET  /health                - Health check")
	fmt.Println()
}
