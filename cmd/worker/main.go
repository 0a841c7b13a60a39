// Package main is the entry point for the outbox worker that publishes inventory movement events.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"bookstore/internal/infrastructure/events"
	"bookstore/internal/infrastructure/storage/postgres"
	"bookstore/pkg/config"
	"bookstore/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.App.LogLevel,
		Development: cfg.App.IsDevelopment(),
		Service:     cfg.App.Name + "-worker",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info("starting outbox worker")

	poolCfg := postgres.DefaultPoolConfig(cfg.DB.URL)
	poolCfg.ApplicationName = cfg.App.Name + "-worker"
	poolCfg.MaxConns = min(cfg.DB.MaxConns, 5)
	poolCfg.MinConns = min(cfg.DB.MinConns, poolCfg.MaxConns)

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool, cfg.Inventory.Tx)

	var handler postgres.OutboxHandler
	if cfg.Kafka.Enabled() {
		publisher, err := events.NewKafkaPublisher(cfg.Kafka, log)
		if err != nil {
			log.Fatalw("failed to create kafka publisher", "error", err)
		}
		defer func() {
			if err := publisher.Close(); err != nil {
				log.Warnw("failed to close kafka producer", "error", err)
			}
		}()
		handler = publisher
		log.Infow("publishing to kafka", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.MovementsTopic)
	} else {
		handler = events.NewLogPublisher(log)
		log.Warn("KAFKA_BROKERS not set, events are only logged")
	}

	relay := postgres.NewOutboxRelay(txManager, cfg.Outbox.BatchSize, handler, log)
	worker := NewWorker(relay, cfg.Outbox, log)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}
