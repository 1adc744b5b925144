// alert-worker consumes budget alerts from the queue and delivers them as
// notifications. Delivery is currently the structured log; the consumer
// ack/nack contract is already in place for a real notification channel.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/vinimacar/EcoFin/internal/amqp"
	"github.com/vinimacar/EcoFin/internal/config"
	"github.com/vinimacar/EcoFin/internal/core"
	"github.com/vinimacar/EcoFin/internal/log"
)

func main() {
	_ = godotenv.Load()

	logger := log.New(log.Config{
		Level:     slog.LevelInfo,
		Component: log.ComponentWorker,
		Handler:   slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
	})
	log.SetDefault(logger)

	cfg := config.Load()
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the alert worker")
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return client.ConsumeAlerts(gctx, func(msg *amqp.AlertMessage) error {
			logger.Warn("budget alert received",
				log.FieldSeverity, string(msg.Severity),
				log.FieldRatio, msg.Ratio,
				log.FieldAmountCents, msg.LimitCents,
				"limit", core.Money{Cents: msg.LimitCents}.Format(),
				"message", msg.Message,
				"at", msg.At)
			return nil
		})
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Error("alert consumption failed", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("alert worker stopped")
}
