// Package main is the entry point for the stockyard API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stockyard/internal/config"
	"stockyard/internal/core/types"
	"stockyard/internal/domain/auth"
	"stockyard/internal/domain/availability"
	"stockyard/internal/domain/ledger"
	"stockyard/internal/domain/locations"
	"stockyard/internal/domain/purchasing"
	"stockyard/internal/domain/transfers"
	v1 "stockyard/internal/infrastructure/http/v1"
	"stockyard/internal/infrastructure/storage/postgres"
	"stockyard/internal/infrastructure/storage/postgres/catalog_repo"
	"stockyard/internal/infrastructure/storage/postgres/document_repo"
	"stockyard/internal/infrastructure/storage/postgres/register_repo"
	"stockyard/pkg/logger"
	"stockyard/pkg/numerator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.App.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting stockyard server")

	// --- Database ---
	dsn := cfg.DB.ConnectionString()

	if err := postgres.RunMigrations(ctx, dsn); err != nil {
		log.Fatalw("failed to run migrations", "error", err)
	}

	poolCfg := postgres.DefaultPoolConfig(dsn)
	poolCfg.MaxConns = cfg.DB.MaxConns
	poolCfg.MinConns = cfg.DB.MinConns

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Audit ---
	auditService, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit service", "error", err)
	}
	auditRecorder := postgres.NewAuditRecorder(auditService)

	// --- Numbering ---
	numeratorService := numerator.New(pool.Unwrap())

	// --- Repositories ---
	locationRepo := catalog_repo.NewLocationRepo(txManager)
	productRepo := catalog_repo.NewProductRepo(txManager)
	stockRepo := register_repo.NewStockRepo(txManager)
	transferRepo := document_repo.NewTransferRepo(txManager)
	poRepo := document_repo.NewPurchaseOrderRepo(txManager)
	draftRepo := document_repo.NewDraftRepo(txManager)

	// --- Services ---
	ledgerService := ledger.NewService(stockRepo, txManager)
	locationService := locations.NewService(locationRepo, txManager, ledgerService)
	availabilityService := availability.NewService(
		ledgerService,
		productRepo,
		types.Quantity(cfg.Alerts.DefaultOverstockThreshold),
	)

	transferService := transfers.NewService(transferRepo, ledgerService, numeratorService, txManager, auditRecorder)
	transferService.SetOnSigned(func(ctx context.Context, t *transfers.Transfer) error {
		log.WithContext(ctx).Infow("transfer signed",
			"transfer_id", t.ID.String(),
			"number", t.Number,
		)
		return nil
	})

	purchasingService := purchasing.NewService(
		poRepo,
		draftRepo,
		numeratorService,
		txManager,
		auditRecorder,
		cfg.Drafts.ManualCap,
	)
	purchasingService.SetOnIssued(func(ctx context.Context, po *purchasing.PurchaseOrder) error {
		log.WithContext(ctx).Infow("purchase order issued",
			"po_id", po.ID.String(),
			"number", po.Number,
			"total", po.TotalAmount.String(),
		)
		return nil
	})

	// --- JWT ---
	jwtConfig := auth.DefaultJWTConfig(cfg.JWT.Secret)
	if cfg.JWT.Issuer != "" {
		jwtConfig.Issuer = cfg.JWT.Issuer
	}
	if cfg.JWT.TTL > 0 {
		jwtConfig.AccessTokenTTL = cfg.JWT.TTL
	}
	jwtService := auth.NewJWTService(jwtConfig)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:           pool.Unwrap(),
		Logger:         log,
		TokenValidator: jwtService,
		Locations:      locationService,
		Ledger:         ledgerService,
		Availability:   availabilityService,
		Transfers:      transferService,
		Purchasing:     purchasingService,
	})

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
