package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	githubadapter "github.com/mwarner/repodash/internal/adapter/driven/github"
	httphandler "github.com/mwarner/repodash/internal/adapter/driving/http"
	"github.com/mwarner/repodash/internal/application"
	"github.com/mwarner/repodash/internal/config"
	"github.com/mwarner/repodash/internal/domain/port/driven"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on invalid env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"fetch_concurrency", cfg.FetchConcurrency,
		"page_size", cfg.PageSize,
		"request_timeout", cfg.RequestTimeout,
		"env_token_present", cfg.GitHubToken != "",
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Wire the core: token manager, per-token client cache, aggregator.
	tokens := application.NewTokenManager(cfg.GitHubToken)

	clients := application.NewClientCache(func(token string) driven.GitHubClient {
		return githubadapter.NewClient(token, cfg.PageSize)
	})

	statusSvc := application.NewStatusService(clients, cfg.FetchConcurrency, slog.Default())

	// 4. HTTP handler with logging and recovery middleware.
	handler := httphandler.NewHandler(statusSvc, tokens, cfg.RequestTimeout, slog.Default())
	mux := httphandler.NewServeMux(handler, slog.Default())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 10*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	slog.Info("repodash started",
		"listen_addr", cfg.ListenAddr,
		"token_enabled", tokens.IsEnabled(),
	)

	// 5. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
