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

	"github.com/jcmexdev/coffee-sagas/internal/config"
	"github.com/jcmexdev/coffee-sagas/internal/domain"
	"github.com/jcmexdev/coffee-sagas/internal/engine"
	"github.com/jcmexdev/coffee-sagas/internal/engine/journal"
	journalsqlite "github.com/jcmexdev/coffee-sagas/internal/engine/journal/sqlite"
	"github.com/jcmexdev/coffee-sagas/internal/gateway/httpx"
	"github.com/jcmexdev/coffee-sagas/internal/pkg/cache"
	"github.com/jcmexdev/coffee-sagas/internal/pkg/telemetry"
	"github.com/jcmexdev/coffee-sagas/internal/services"
	"github.com/jcmexdev/coffee-sagas/internal/workflow"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	telemetry.InitLogger(slog.LevelInfo)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	shutdown, err := telemetry.SetupTracer(ctx, cfg.ServiceName)
	if err != nil {
		slog.Error("failed to initialise tracer", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			slog.Error("tracer shutdown error", "error", err)
		}
	}()

	var repo journal.Repository
	if cfg.JournalPath != "" {
		sqliteRepo, err := journalsqlite.Open(cfg.JournalPath)
		if err != nil {
			slog.Error("failed to open journal", "path", cfg.JournalPath, "error", err)
			os.Exit(1)
		}
		defer sqliteRepo.Close()
		repo = sqliteRepo
	}

	var results cache.Cache
	if cfg.RedisAddr != "" {
		results = cache.NewRedisCache(cfg.RedisAddr, "gateway")
	}

	// Step executors are built once here and injected; no hidden globals.
	payments := services.NewPaymentService()
	brewer := services.NewBrewService(cfg.BrewFailureRate, time.Now().UnixNano())
	notifier := services.NewNotificationService()

	deps := workflow.Deps{
		Pricer:   domain.StandardPricing{},
		Payments: payments,
		Brewer:   brewer,
		Notifier: notifier,
	}
	opts := workflow.Options{
		Retry: engine.RetryPolicy{
			MaxAttempts:        cfg.Retry.MaxAttempts,
			InitialInterval:    cfg.Retry.InitialInterval,
			BackoffCoefficient: cfg.Retry.BackoffCoefficient,
		},
		StepTimeout: cfg.Retry.StepTimeout,
	}

	eng := engine.New(func(req domain.OrderRequest) engine.Workflow {
		return workflow.New(req, deps, opts)
	}, repo)

	if resumed, err := eng.Resume(ctx); err != nil {
		slog.Error("failed to resume unfinished orders", "error", err)
		os.Exit(1)
	} else if resumed > 0 {
		slog.Info("re-driving unfinished orders", "count", resumed)
	}

	handler := httpx.NewHandler(eng, results)
	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: httpx.NewRouter(handler),
	}

	go func() {
		slog.Info("coffee server running", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown error", "error", err)
	}
}
