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

	"github.com/joho/godotenv"

	httpadapter "github.com/budala187/nexora-context-backend/internal/adapters/http"
	"github.com/budala187/nexora-context-backend/internal/bootstrap"
	"github.com/budala187/nexora-context-backend/internal/config"
	"github.com/budala187/nexora-context-backend/internal/observability/logging"
	"github.com/budala187/nexora-context-backend/internal/observability/metrics"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logging.Setup("nexora-api", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	serverMetrics := metrics.NewHTTPServerMetrics("nexora-api")
	router := httpadapter.NewRouter(
		app.RetrievalUC,
		app.IngestUC,
		app.Repo,
		serverMetrics,
		httpadapter.Options{
			ServiceName:    "nexora-api",
			APIKey:         cfg.APIKey,
			RateLimitRPS:   cfg.APIRateLimitRPS,
			RateLimitBurst: cfg.APIRateLimitBurst,
			MaxInFlight:    cfg.APIMaxInFlight,
		},
	).Handler()

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("api_listening", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("api_server_failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("api_shutdown_failed", "error", err)
	}
}
