package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nikhilbhutani/promptbench/internal/api"
	"github.com/nikhilbhutani/promptbench/internal/config"
	"github.com/nikhilbhutani/promptbench/internal/kv"
	"github.com/nikhilbhutani/promptbench/internal/llm"
	"github.com/nikhilbhutani/promptbench/internal/prompt"
	"github.com/nikhilbhutani/promptbench/internal/runner"
	"github.com/nikhilbhutani/promptbench/internal/settings"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	store, err := kv.Open(ctx, kv.Options{
		Backend:       cfg.Storage.Backend,
		Path:          cfg.Storage.Path,
		Prefix:        cfg.Storage.Prefix,
		RedisAddr:     cfg.Redis.Addr,
		RedisPassword: cfg.Redis.Password,
		RedisDB:       cfg.Redis.DB,
		DatabaseURL:   cfg.Database.URL,
		MaxConns:      cfg.Database.MaxConns,
		MinConns:      cfg.Database.MinConns,
		Migrations:    cfg.Database.MigrationsPath,
	})
	if err != nil {
		slog.Error("failed to open storage", "backend", cfg.Storage.Backend, "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("storage ready", "backend", cfg.Storage.Backend)

	gateway, err := llm.NewGateway(cfg.LLM, &http.Client{})
	if err != nil {
		slog.Error("failed to build LLM gateway", "error", err)
		os.Exit(1)
	}

	prompts := prompt.NewService(store, prompt.NewStore())
	keys := settings.NewKeys(store, gateway)
	catalog := settings.NewCatalog(store, gateway, keys)

	router := api.NewRouter(cfg.Server, api.Services{
		Store:       store,
		Prompts:     prompts,
		Keys:        keys,
		Catalog:     catalog,
		Preferences: settings.NewPreferences(store),
		Runner:      runner.New(gateway, prompts, keys, catalog),
	})
	defer router.Close()

	srv := &http.Server{
		Addr:        cfg.Addr(),
		Handler:     router.Setup(),
		ReadTimeout: 15 * time.Second,
		// Comparisons wait on every model, so responses may take minutes.
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("starting API server", "addr", cfg.Addr(), "default_provider", cfg.LLM.DefaultProvider)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
	}
	slog.Info("server stopped")
}
