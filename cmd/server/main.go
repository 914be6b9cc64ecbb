package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fogon-pos/api/internal/catalog"
	"github.com/fogon-pos/api/internal/config"
	"github.com/fogon-pos/api/internal/orderapi"
	"github.com/fogon-pos/api/internal/pricing"
	"github.com/fogon-pos/api/internal/router"
	"github.com/fogon-pos/api/internal/submit"
	"github.com/fogon-pos/api/internal/wizard"
	"github.com/fogon-pos/api/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := newLogger(cfg)
	defer logger.Sync()

	catalogClient := catalog.NewClient(cfg.Catalog, logger)
	index := catalog.NewIndex()

	// Best-effort warm-up; handlers lazy-load on first request if the
	// catalog service is down at boot.
	warmCtx, cancelWarm := context.WithTimeout(context.Background(), 10*time.Second)
	if err := index.Refresh(warmCtx, catalogClient); err != nil {
		logger.Warn("catalog warm-up failed, will retry on first request", zap.Error(err))
	}
	cancelWarm()

	orderClient := orderapi.NewClient(cfg.OrderAPI, logger)
	calc := pricing.NewCalculator(cfg.TaxRatePercent, pricing.FlatFee{Amount: cfg.DeliveryFee})
	submitter := submit.NewSubmitter(orderClient, orderClient, logger)
	registry := wizard.NewRegistry()

	hub := ws.NewHub()
	go hub.Run()

	r := router.New(router.Deps{
		Config:    cfg,
		Logger:    logger,
		Index:     index,
		Provider:  catalogClient,
		Calc:      calc,
		Registry:  registry,
		Submitter: submitter,
		Fetcher:   orderClient,
		Hub:       hub,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server",
			zap.String("port", cfg.Port),
			zap.String("environment", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger(cfg *config.Config) *zap.Logger {
	level := zapcore.InfoLevel
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = zapcore.InfoLevel
	}

	var zcfg zap.Config
	if cfg.Environment == "production" {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zcfg.Build()
	if err != nil {
		panic(err)
	}
	return logger
}
