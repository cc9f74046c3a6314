// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"stockyard/internal/core/security"
	"stockyard/internal/domain/availability"
	"stockyard/internal/domain/ledger"
	"stockyard/internal/domain/locations"
	"stockyard/internal/domain/purchasing"
	"stockyard/internal/domain/transfers"
	"stockyard/internal/infrastructure/http/v1/handlers"
	"stockyard/internal/infrastructure/http/v1/middleware"
	"stockyard/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	Pool   *pgxpool.Pool
	Logger *logger.Logger

	TokenValidator middleware.TokenValidator

	Locations    *locations.Service
	Ledger       *ledger.Service
	Availability *availability.Service
	Transfers    *transfers.Service
	Purchasing   *purchasing.Service
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Liveness)
		health.GET("/ready", healthHandler.Readiness)
	}

	api := router.Group("/api/v1")
	api.Use(middleware.Auth(cfg.TokenValidator))

	locationHandler := handlers.NewLocationHandler(cfg.Locations)
	locationGroup := api.Group("/locations")
	{
		manage := middleware.RequireCapability(security.CapManageLocations)
		locationGroup.POST("", manage, locationHandler.Create)
		locationGroup.GET("", locationHandler.List)
		locationGroup.GET("/:id", locationHandler.Get)
		locationGroup.PUT("/:id", manage, locationHandler.Update)
		locationGroup.DELETE("/:id", manage, locationHandler.Delete)
		locationGroup.GET("/:id/default-target", locationHandler.DefaultTarget)
	}

	stockHandler := handlers.NewStockHandler(cfg.Ledger, cfg.Availability)
	stockGroup := api.Group("/stock")
	{
		stockGroup.GET("", stockHandler.ListRecords)
		stockGroup.POST("/adjust", middleware.RequireCapability(security.CapAdjustStock), stockHandler.Adjust)
		stockGroup.GET("/movements", stockHandler.ListMovements)
		stockGroup.GET("/available", stockHandler.Available)
		stockGroup.GET("/alerts", stockHandler.Alerts)
	}

	transferHandler := handlers.NewTransferHandler(cfg.Transfers)
	transferGroup := api.Group("/transfers")
	{
		transferGroup.POST("", middleware.RequireCapability(security.CapCreateTransfer), transferHandler.Create)
		transferGroup.GET("", transferHandler.List)
		transferGroup.GET("/:id", transferHandler.Get)
		transferGroup.POST("/:id/sign", middleware.RequireCapability(security.CapSignTransfer), transferHandler.Sign)
		transferGroup.POST("/:id/cancel", transferHandler.Cancel)
	}
	api.GET("/inbox/transfers", transferHandler.Inbox)

	poHandler := handlers.NewPurchaseOrderHandler(cfg.Purchasing)
	poGroup := api.Group("/purchase-orders")
	{
		decide := middleware.RequireCapability(security.CapApprovePO)
		poGroup.POST("", middleware.RequireCapability(security.CapCreatePO), poHandler.Create)
		poGroup.GET("", poHandler.List)
		poGroup.GET("/:id", poHandler.Get)
		poGroup.PUT("/:id", poHandler.Update)
		poGroup.POST("/:id/approve", decide, poHandler.Approve)
		poGroup.POST("/:id/reject", decide, poHandler.Reject)
		poGroup.POST("/:id/issue", middleware.RequireCapability(security.CapIssuePO), poHandler.Issue)
		poGroup.POST("/:id/cancel", poHandler.Cancel)
	}

	draftGroup := api.Group("/po-drafts")
	{
		draftGroup.PUT("/auto", poHandler.SaveAutoDraft)
		draftGroup.POST("", poHandler.SaveDraft)
		draftGroup.GET("", poHandler.ListDrafts)
		draftGroup.DELETE("", poHandler.DeleteAllDrafts)
		draftGroup.DELETE("/:id", poHandler.DeleteDraft)
	}

	return router
}
