package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/vinimacar/EcoFin/internal/amqp"
	"github.com/vinimacar/EcoFin/internal/backend"
	"github.com/vinimacar/EcoFin/internal/backend/memory"
	"github.com/vinimacar/EcoFin/internal/budget"
	"github.com/vinimacar/EcoFin/internal/categories"
	"github.com/vinimacar/EcoFin/internal/config"
	"github.com/vinimacar/EcoFin/internal/core"
	apphttp "github.com/vinimacar/EcoFin/internal/http"
	"github.com/vinimacar/EcoFin/internal/ledger"
	"github.com/vinimacar/EcoFin/internal/log"
	"github.com/vinimacar/EcoFin/internal/metrics"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()

	logger := log.New(log.Config{
		Level:     parseLevel(cfg.LogLevel),
		Component: log.ComponentApp,
		Handler:   slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}),
	})
	log.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := backend.New(ctx, backend.Config{
		Type:                backend.Type(cfg.DataBackend),
		SQLiteDBPath:        cfg.SQLiteDBPath,
		SnapshotPath:        cfg.SnapshotPath,
		GoogleSpreadsheetID: cfg.GoogleSpreadsheetID,
		GoogleSheetName:     cfg.GoogleSheetName,
	}, logger)
	if err != nil {
		logger.Error("failed to initialize backend", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	if result.Cleanup != nil {
		defer func() {
			if err := result.Cleanup(); err != nil {
				logger.Error("backend cleanup failed", log.FieldError, err)
			}
		}()
	}

	if cfg.DemoSeed {
		if store, ok := result.Transactions.(*memory.Store); ok {
			store.SeedDemo(time.Now())
			logger.Info("seeded demo transactions")
		} else {
			logger.Warn("demo seed requested but backend is not memory", log.FieldBackend, cfg.DataBackend)
		}
	}

	store := ledger.NewStore(ctx, result.Transactions, logger)
	registry := categories.NewRegistry(ctx, result.Categories, logger)

	limit := core.Money{Cents: cfg.MonthlyBudgetLimitCents}
	evaluator := budget.NewEvaluator(ctx, budget.Config{
		WarningThreshold: cfg.WarningThreshold,
		DangerThreshold:  cfg.DangerThreshold,
		Cooldown:         cfg.AlertCooldown,
	}, result.AlertState, logger)

	// AMQP is optional; alerts still reach the log without it.
	var alerts *amqp.Client
	if cfg.AMQPURL != "" {
		alerts, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("failed to initialize AMQP client, continuing without alert publishing", log.FieldError, err)
			alerts = nil
		} else {
			defer alerts.Close()
		}
	}

	// Every mutation re-evaluates the budget against the current month.
	subscription := store.Subscribe(func(txns []core.Transaction) {
		snapshot := metrics.Summarize(txns, metrics.CurrentMonthWindow(time.Now()))
		if sig := evaluator.Evaluate(ctx, snapshot, limit); sig != nil {
			publishAlert(ctx, logger, alerts, sig, limit)
		}
		if sig := evaluator.EvaluateSpending(ctx, txns); sig != nil {
			publishAlert(ctx, logger, alerts, sig, limit)
		}
	})
	defer subscription.Cancel()

	srv := apphttp.NewServer(apphttp.Config{
		Addr:            ":" + cfg.Port,
		MonthlyLimit:    limit,
		MetricsCacheTTL: cfg.MetricsCacheTTL,
		CacheSize:       cfg.MetricsCacheSize,
	}, store, registry, logger)
	srv.ReadTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting server", "port", cfg.Port, log.FieldBackend, cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("server stopped gracefully")
}

func publishAlert(ctx context.Context, logger *log.Logger, alerts *amqp.Client, sig *budget.AlertSignal, limit core.Money) {
	logger.Warn("budget alert",
		log.FieldSeverity, string(sig.Severity),
		log.FieldRatio, sig.Ratio,
		"message", sig.Message)

	if alerts == nil {
		return
	}
	if err := alerts.PublishAlert(ctx, amqp.NewAlertMessage(*sig, limit.Cents)); err != nil {
		logger.Error("failed to publish alert", log.FieldError, err)
	}
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
