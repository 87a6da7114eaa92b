package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/andresuchdata/demandcast/internal/domain"
	"github.com/andresuchdata/demandcast/internal/forecast"
	"github.com/andresuchdata/demandcast/internal/modelstore"
	"github.com/andresuchdata/demandcast/internal/repository/postgres"
	"github.com/jmoiron/sqlx"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v2"
)

// runTrain trains a model for every product the retailer has sold recently,
// writing artifacts to the file store. Pairs under the minimum-history
// threshold are skipped, not failed.
func runTrain(c *cli.Context) error {
	db, err := dbFromContext(c)
	if err != nil {
		return err
	}

	retailerID := c.Int64("retailer-id")
	lookbackDays := c.Int("lookback-days")
	limit := c.Int("limit")

	sqlxDB := sqlx.NewDb(db, "pgx")
	salesRepo := postgres.NewSalesRepository(sqlxDB)

	artifacts, err := modelstore.NewFileStore(c.String("model-dir"))
	if err != nil {
		return err
	}

	history := forecast.NewHistoryAccessor(salesRepo)
	trainingSource := forecast.NewTrainingProvider(history, lookbackDays, nil)
	store := modelstore.NewStore(artifacts, trainingSource, forecast.FeatureColumns(), modelstore.Options{
		MinHistoryDays: c.Int("min-history-days"),
	})

	ctx := context.Background()
	since := time.Now().UTC().AddDate(0, 0, -lookbackDays)
	productIDs, err := salesRepo.ListSoldProducts(ctx, retailerID, since, limit)
	if err != nil {
		return fmt.Errorf("failed to list products: %w", err)
	}
	if len(productIDs) == 0 {
		log.Printf("No products with sales found for retailer %d", retailerID)
		return nil
	}

	log.Printf("Training models for %d products (retailer %d)", len(productIDs), retailerID)
	bar := progressbar.Default(int64(len(productIDs)), "training")

	trained, skipped, failed := 0, 0, 0
	for _, productID := range productIDs {
		_, err := store.Train(ctx, retailerID, productID)
		switch {
		case err == nil:
			trained++
		case errors.Is(err, domain.ErrInsufficientHistory):
			skipped++
		default:
			failed++
			log.Printf("product %d: training failed: %v", productID, err)
		}
		_ = bar.Add(1)
	}

	log.Printf("Training complete: %d trained, %d skipped (insufficient history), %d failed", trained, skipped, failed)
	if failed > 0 {
		return fmt.Errorf("%d products failed to train", failed)
	}
	return nil
}
