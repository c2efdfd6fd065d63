package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"gastos/internal/amqp"
	"gastos/internal/api"
	"gastos/internal/cache"
	"gastos/internal/config"
	"gastos/internal/httpapi"
	"gastos/internal/log"
	"gastos/internal/monitor"
	"gastos/internal/services"
	"gastos/internal/storage"
	syncengine "gastos/internal/sync"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	ctx := context.Background()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.ErrorContext(ctx, "Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	store, err := storage.NewPendingStore(cfg.SQLiteDBPath)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to open pending store",
			log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer store.Close()

	client := api.NewClient(cfg.APIBaseURL, cfg.APIToken)

	// AMQP is optional: without a broker URL the queue still works, it just
	// emits no events.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to connect to AMQP", log.FieldError, err)
			os.Exit(1)
		}
		defer amqpClient.Close()
	} else {
		logger.InfoContext(ctx, "AMQP disabled, queue events will not be published")
	}

	pinger := monitor.NewPinger(client, cfg.PingInterval)

	var events syncengine.Events
	if amqpClient != nil {
		events = amqpClient
	}
	engine := syncengine.NewEngine(store, client, pinger, events)
	mon := monitor.NewMonitor(pinger, engine, store)

	var publisher services.Publisher
	if amqpClient != nil {
		publisher = amqpClient
	}
	expenseSvc := services.NewExpenseService(client, store, pinger, publisher)
	summarySvc := services.NewSummaryService(client, store)

	janitor := cache.NewJanitor(summarySvc.Caches()...)
	janitor.Start(cfg.CacheCleanupInterval)
	defer janitor.Stop()

	server := httpapi.NewServer(cfg.Port, expenseSvc, summarySvc, engine, mon, logger)

	runCtx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := pinger.Start(runCtx); err != nil {
		logger.ErrorContext(ctx, "Failed to start connectivity pinger", log.FieldError, err)
		os.Exit(1)
	}

	group, groupCtx := errgroup.WithContext(runCtx)

	group.Go(func() error {
		return server.Start()
	})

	group.Go(func() error {
		<-groupCtx.Done()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := pinger.Stop(shutdownCtx); err != nil {
			logger.WarnContext(shutdownCtx, "Pinger shutdown error", log.FieldError, err)
		}
		return server.Shutdown(shutdownCtx)
	})

	logger.InfoContext(ctx, "gastos started",
		"port", cfg.Port,
		"api_base_url", cfg.APIBaseURL,
		"db_path", cfg.SQLiteDBPath)

	if err := group.Wait(); err != nil && err != context.Canceled {
		logger.ErrorContext(ctx, "Server error", log.FieldError, err)
		os.Exit(1)
	}

	logger.InfoContext(ctx, "gastos stopped")
}
