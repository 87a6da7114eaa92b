// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andresuchdata/demandcast/internal/api"
	"github.com/andresuchdata/demandcast/internal/cache"
	"github.com/andresuchdata/demandcast/internal/config"
	"github.com/andresuchdata/demandcast/internal/forecast"
	"github.com/andresuchdata/demandcast/internal/modelstore"
	"github.com/andresuchdata/demandcast/internal/repository"
	"github.com/andresuchdata/demandcast/internal/repository/postgres"
	"github.com/andresuchdata/demandcast/internal/service"
	"github.com/andresuchdata/demandcast/pkg/logger"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database
	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Repositories
	salesRepo := postgres.NewSalesRepository(db.DB)
	productRepo := postgres.NewProductRepository(db.DB)
	orderRepo := postgres.NewOrderRepository(db.DB)

	// Model artifact backend
	artifacts, err := newArtifactStore(cfg)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize model store backend")
	}

	// Forecasting pipeline
	history := forecast.NewHistoryAccessor(salesRepo)
	trainingSource := forecast.NewTrainingProvider(history, cfg.Forecast.LookbackDays, nil)
	store := modelstore.NewStore(artifacts, trainingSource, forecast.FeatureColumns(), modelstore.Options{
		MinHistoryDays: cfg.Forecast.MinHistoryDays,
		MaxAge:         time.Duration(cfg.Forecast.ModelMaxAgeHours) * time.Hour,
	})
	engine := forecast.NewEngine(store, history, productRepo, forecast.EngineOptions{
		LookbackDays: cfg.Forecast.LookbackDays,
	})
	analyzer := forecast.NewAnalyzer(engine, &candidateSource{sales: salesRepo, orders: orderRepo}, productRepo, forecast.AnalyzerOptions{
		LookbackDays:  cfg.Forecast.LookbackDays,
		MaxCandidates: cfg.Forecast.MaxCandidates,
		Parallelism:   cfg.Forecast.Parallelism,
	})

	portfolioCache, err := cache.NewPortfolioCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Portfolio cache unavailable, continuing without cache")
		portfolioCache = cache.NewNoopPortfolioCache()
	}

	forecastService := service.NewForecastService(engine, analyzer, store, portfolioCache, service.ForecastServiceOptions{
		MaxCandidates: cfg.Forecast.MaxCandidates,
		TopN:          cfg.Forecast.TopN,
	})

	// Initialize HTTP server
	router := api.NewRouter(&api.Services{ForecastService: forecastService}, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}

func newArtifactStore(cfg *config.Config) (modelstore.ArtifactStore, error) {
	switch cfg.ModelStore.Backend {
	case "memory":
		return modelstore.NewMemoryStore(), nil
	case "file", "":
		return modelstore.NewFileStore(cfg.ModelStore.Dir)
	case "redis":
		client, err := cache.NewClient(cfg.Cache)
		if err != nil {
			return nil, err
		}
		return modelstore.NewRedisStore(client), nil
	case "s3":
		return modelstore.NewObjectStore(modelstore.ObjectStoreConfig{
			Endpoint:  cfg.ModelStore.S3Endpoint,
			AccessKey: cfg.ModelStore.S3AccessKey,
			SecretKey: cfg.ModelStore.S3SecretKey,
			Bucket:    cfg.ModelStore.S3Bucket,
			Prefix:    cfg.ModelStore.S3Prefix,
			UseSSL:    cfg.ModelStore.S3UseSSL,
		})
	default:
		return nil, fmt.Errorf("unknown model store backend: %s", cfg.ModelStore.Backend)
	}
}

// candidateSource adapts the sales and order repositories to the portfolio
// analyzer's candidate lookup.
type candidateSource struct {
	sales  repository.SalesRepository
	orders repository.OrderRepository
}

func (c *candidateSource) ListSoldProducts(ctx context.Context, retailerID int64, since time.Time, limit int) ([]int64, error) {
	return c.sales.ListSoldProducts(ctx, retailerID, since, limit)
}

func (c *candidateSource) ListOrderedProducts(ctx context.Context, retailerID int64, limit int) ([]int64, error) {
	return c.orders.ListOrderedProducts(ctx, retailerID, limit)
}
