// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	appctx "bookstore/internal/core/context"
	"bookstore/internal/domain/inventory"
	"bookstore/internal/infrastructure/http/v1/handlers"
	"bookstore/internal/infrastructure/http/v1/middleware"
	"bookstore/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	Pool      handlers.HealthPool
	Books     handlers.BookService
	History   handlers.HistoryReader
	Movements inventory.MovementReader

	AppName     string
	Version     string
	Development bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Development {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.Pool, cfg.AppName, cfg.Version)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	base := handlers.NewBaseHandler()
	bookHandler := handlers.NewBookHandler(base, cfg.Books, cfg.History)
	inventoryHandler := handlers.NewInventoryHandler(base, cfg.Movements, cfg.Books)

	v1 := router.Group("/api/v1")
	v1.Use(middleware.Auth(cfg.JWTValidator))
	{
		readers := middleware.RequireRole(appctx.RoleAdmin, appctx.RoleEditor, appctx.RoleViewer)
		writers := middleware.RequireRole(appctx.RoleAdmin, appctx.RoleEditor)
		admins := middleware.RequireRole(appctx.RoleAdmin)

		books := v1.Group("/books")
		books.GET("", readers, bookHandler.List)
		books.POST("", writers, bookHandler.Create)
		books.GET("/:id", readers, bookHandler.Get)
		books.PATCH("/:id/inventory", writers, bookHandler.UpdateInventory)
		books.DELETE("/:id", writers, bookHandler.Deactivate)
		books.GET("/:id/history", readers, bookHandler.History)

		inv := v1.Group("/inventory")
		inv.GET("/movements", readers, inventoryHandler.ListMovements)
		inv.GET("/movements/:id", readers, inventoryHandler.GetMovement)
		inv.POST("/bulk", admins, inventoryHandler.BulkAdjust)
	}

	return router
}
