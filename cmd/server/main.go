// Package main is the entry point for the bookstore admin API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookstore/internal/domain/auth"
	"bookstore/internal/domain/catalog/book"
	"bookstore/internal/domain/inventory"
	v1 "bookstore/internal/infrastructure/http/v1"
	"bookstore/internal/infrastructure/storage/postgres"
	"bookstore/internal/infrastructure/storage/postgres/book_repo"
	"bookstore/internal/infrastructure/storage/postgres/inventory_repo"
	"bookstore/pkg/config"
	"bookstore/pkg/logger"
)

const (
	version        = "0.1.0"
	devJWTSecret   = "dev-secret-change-me"
	statsLogPeriod = 5 * time.Minute
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
		Service:     cfg.App.Name,
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Infow("starting server", "app", cfg.App.Name, "env", cfg.App.Env)

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(cfg.DB.URL)
	poolCfg.ApplicationName = cfg.App.Name
	poolCfg.MaxConns = cfg.DB.MaxConns
	poolCfg.MinConns = cfg.DB.MinConns

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool, cfg.Inventory.Tx)

	// --- Inventory engine ---
	movementRepo := inventory_repo.NewMovementRepo(txManager)
	runner := inventory_repo.NewTxRunner(
		txManager,
		cfg.Inventory.Tx,
		inventory_repo.NewItemRepo(),
		movementRepo,
		postgres.NewOutboxPublisher(),
	)
	coordinator := inventory.NewCoordinator(runner, inventory.Config{MaxBulkSize: cfg.Inventory.MaxBulkSize}, log)

	// --- Catalog ---
	auditService, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to create audit service", "error", err)
	}
	bookService := book.NewService(book_repo.NewBookRepo(txManager.Querier()), coordinator, auditService)

	// --- JWT ---
	secret := cfg.JWT.Secret
	if secret == "" {
		log.Warn("JWT_SECRET not set, using development secret")
		secret = devJWTSecret
	}
	jwtConfig := auth.DefaultJWTConfig(secret)
	jwtConfig.Issuer = cfg.JWT.Issuer
	jwtService := auth.NewJWTService(jwtConfig)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Logger:       log,
		JWTValidator: jwtService,
		Pool:         pool,
		Books:        bookService,
		History:      auditService,
		Movements:    movementRepo,
		AppName:      cfg.App.Name,
		Version:      version,
		Development:  cfg.App.IsDevelopment(),
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	go func() {
		ticker := time.NewTicker(statsLogPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				pool.LogStats(ctx)
			}
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")
	cancel()

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
