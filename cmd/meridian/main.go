package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/meridian-pos/meridian-pos/internal/app"
	"github.com/meridian-pos/meridian-pos/internal/barcode"
	"github.com/meridian-pos/meridian-pos/internal/catalog"
	"github.com/meridian-pos/meridian-pos/internal/integration"
	"github.com/meridian-pos/meridian-pos/internal/labels"
	"github.com/meridian-pos/meridian-pos/internal/observability"
	"github.com/meridian-pos/meridian-pos/internal/platform/cache"
	"github.com/meridian-pos/meridian-pos/internal/platform/db"
	"github.com/meridian-pos/meridian-pos/internal/pricing"
	"github.com/meridian-pos/meridian-pos/internal/shared"
	"github.com/meridian-pos/meridian-pos/internal/sku"
	"github.com/meridian-pos/meridian-pos/jobs"
)

// usageDispatcher adapts the Asynq client to the labels handler.
type usageDispatcher struct {
	client *jobs.Client
}

func (d usageDispatcher) DispatchUsage(ctx context.Context, templateID, productID int64) error {
	_, err := d.client.EnqueueTemplateUsage(ctx, jobs.TemplateUsagePayload{
		TemplateID: templateID,
		ProductID:  productID,
	})
	return err
}

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, lookups fall back to postgres", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(pool)

	catalogRepo := catalog.NewRepository(pool)

	skuRepo := sku.NewRepository(pool)
	skuService := sku.NewService(skuRepo, catalogRepo, metrics)
	skuHandler := sku.NewHandler(logger, skuService)

	lookupCache := barcode.NewLookupCache(redisClient, cfg.LookupCacheTTL, logger)

	barcodeRepo := barcode.NewRepository(pool)
	registry := barcode.NewRegistry(barcodeRepo, auditLogger, lookupCache, logger)
	conflicts := barcode.NewConflictResolver(registry, metrics, logger)

	labelsRepo := labels.NewRepository(pool)
	resolver := barcode.NewResolver(barcodeRepo, labelsRepo, skuService, lookupCache, metrics, logger)
	barcodeHandler := barcode.NewHandler(logger, registry, conflicts, resolver)

	integrationHooks := integration.NewHooks(conflicts, logger)

	pricingRepo := pricing.NewRepository(pool)
	pricingService := pricing.NewService(pricingRepo, pricing.ServiceConfig{MaxPrice: cfg.MaxPrice}, metrics, integrationHooks, logger)
	pricingHandler := pricing.NewHandler(logger, pricingService)

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	labelsHandler := labels.NewHandler(logger, usageDispatcher{client: jobClient})

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		Metrics:        metrics,
		BarcodeHandler: barcodeHandler,
		SkuHandler:     skuHandler,
		PricingHandler: pricingHandler,
		LabelsHandler:  labelsHandler,
		JobsHandler:    jobsHandler,
		Pool:           pool,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server exit", slog.Any("error", err))
		os.Exit(1)
	}
}
