package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/esgsuite/reportflow/internal/cadence"
	"github.com/esgsuite/reportflow/internal/config"
	"github.com/esgsuite/reportflow/internal/events"
	"github.com/esgsuite/reportflow/internal/mailer"
	"github.com/esgsuite/reportflow/internal/render"
	"github.com/esgsuite/reportflow/internal/scheduler"
	"github.com/esgsuite/reportflow/internal/service"
	"github.com/esgsuite/reportflow/internal/storage"
	"github.com/esgsuite/reportflow/internal/workflow"
)

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	if dir := filepath.Dir(cfg.Database.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Fatal("Failed to create data directory", zap.Error(err))
		}
	}

	store, err := storage.NewSQLiteStore(logger.Named("storage"), cfg.Database.Path)
	if err != nil {
		logger.Fatal("Failed to open store", zap.Error(err))
	}
	defer store.Close()

	// Event publishing is optional: without a NATS URL the pipeline runs
	// standalone and publishes nothing.
	var publisher *events.Publisher
	if cfg.NATS.URL != "" {
		nc, err := nats.Connect(cfg.NATS.URL,
			nats.Name(cfg.App.Name),
			nats.Timeout(5*time.Second),
			nats.MaxReconnects(-1),
			nats.ReconnectWait(2*time.Second),
			nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
				logger.Warn("NATS disconnected", zap.Error(err))
			}),
			nats.ReconnectHandler(func(nc *nats.Conn) {
				logger.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
			}),
		)
		if err != nil {
			logger.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		defer nc.Close()

		js, err := nc.JetStream()
		if err != nil {
			logger.Fatal("Failed to create JetStream context", zap.Error(err))
		}

		publisher, err = events.NewPublisher(js, logger.Named("events"))
		if err != nil {
			logger.Fatal("Failed to create event publisher", zap.Error(err))
		}
	}

	calc := cadence.NewCalculator(logger.Named("cadence"))
	renderer := render.NewFileRenderer(cfg.Reports.OutputDir, nil, logger.Named("render"))
	mail := mailer.NewSMTPMailer(mailer.Config{
		Host:     cfg.Email.Host,
		Port:     cfg.Email.Port,
		Username: cfg.Email.Username,
		Password: cfg.Email.Password,
		From:     cfg.Email.From,
	}, logger.Named("mailer"))

	runner := scheduler.NewRunner(store, store, store, renderer, mail, publisher, logger.Named("runner"))
	engine := scheduler.NewEngine(store, runner, calc, scheduler.EngineConfig{
		PollInterval: cfg.Scheduler.PollInterval,
	}, logger.Named("engine"))
	workflows := workflow.NewManager(store, store, publisher, logger.Named("workflow"))
	pipeline := service.NewPipeline(store, engine, workflows, calc, logger.Named("service"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pipeline.Start(ctx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	pipeline.Stop()
	logger.Info("Server shut down gracefully")
}
