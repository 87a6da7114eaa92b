package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

type ctxKey string

const dbKey ctxKey = "db"

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func newRetailerFlag() *cli.Int64Flag {
	return &cli.Int64Flag{
		Name:  "retailer-id",
		Usage: "Retailer to operate on",
		Value: 1,
	}
}

func initDB(c *cli.Context) error {
	db, err := sql.Open("pgx", c.String("db-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	c.Context = context.WithValue(c.Context, dbKey, db)
	return nil
}

func closeDB(c *cli.Context) error {
	if db, ok := c.Context.Value(dbKey).(*sql.DB); ok && db != nil {
		return db.Close()
	}
	return nil
}

func dbFromContext(c *cli.Context) (*sql.DB, error) {
	db, ok := c.Context.Value(dbKey).(*sql.DB)
	if !ok || db == nil {
		return nil, fmt.Errorf("database connection not initialized")
	}
	return db, nil
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "forecastctl",
		Usage: "Seed demo sales data and train demand models",
		Commands: []*cli.Command{
			{
				Name:  "seed",
				Usage: "Generate synthetic products and daily sales for a demo retailer",
				Flags: []cli.Flag{
					newDBURLFlag(),
					newRetailerFlag(),
					&cli.IntFlag{
						Name:  "products",
						Usage: "Number of products to generate",
						Value: 20,
					},
					&cli.IntFlag{
						Name:  "days",
						Usage: "Days of sales history to generate",
						Value: 120,
					},
					&cli.Int64Flag{
						Name:  "seed",
						Usage: "Random seed for reproducible data",
						Value: 42,
					},
				},
				Before: initDB,
				After:  closeDB,
				Action: runSeed,
			},
			{
				Name:  "train",
				Usage: "Train models for every product with sales history",
				Flags: []cli.Flag{
					newDBURLFlag(),
					newRetailerFlag(),
					&cli.StringFlag{
						Name:  "model-dir",
						Usage: "Directory for model artifacts",
						Value: "./data/models",
					},
					&cli.IntFlag{
						Name:  "lookback-days",
						Usage: "History window for training features",
						Value: 90,
					},
					&cli.IntFlag{
						Name:  "min-history-days",
						Usage: "Minimum days of real history before a pair is trainable",
						Value: 14,
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum products to train",
						Value: 200,
					},
				},
				Before: initDB,
				After:  closeDB,
				Action: runTrain,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
