package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"math"
	"math/rand"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"
)

var seedCategories = []string{
	"Beverages",
	"Snacks",
	"Dairy",
	"Household",
	"Personal Care",
	"Frozen",
}

// runSeed populates products, daily_sales and a few starter orders for one
// retailer. Output is deterministic for a fixed --seed so forecasts can be
// compared across runs.
func runSeed(c *cli.Context) error {
	db, err := dbFromContext(c)
	if err != nil {
		return err
	}

	retailerID := c.Int64("retailer-id")
	numProducts := c.Int("products")
	days := c.Int("days")
	rng := rand.New(rand.NewSource(c.Int64("seed")))

	ctx := context.Background()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	log.Printf("Seeding %d products with %d days of sales for retailer %d", numProducts, days, retailerID)

	productIDs, prices, err := seedProducts(ctx, tx, rng, numProducts)
	if err != nil {
		return fmt.Errorf("failed to seed products: %w", err)
	}

	if err := seedDailySales(ctx, tx, rng, retailerID, productIDs, prices, days); err != nil {
		return fmt.Errorf("failed to seed daily sales: %w", err)
	}

	if err := seedOrders(ctx, tx, rng, retailerID, productIDs); err != nil {
		return fmt.Errorf("failed to seed orders: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Println("Seeding completed successfully!")
	return nil
}

func seedProducts(ctx context.Context, tx *sql.Tx, rng *rand.Rand, count int) ([]int64, map[int64]decimal.Decimal, error) {
	const query = `
		INSERT INTO products (name, category, price)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	ids := make([]int64, 0, count)
	prices := make(map[int64]decimal.Decimal, count)
	for i := 0; i < count; i++ {
		category := seedCategories[i%len(seedCategories)]
		name := fmt.Sprintf("Demo %s #%03d", category, i+1)
		price := decimal.NewFromFloat(math.Round((2+rng.Float64()*48)*100) / 100)

		var id int64
		if err := tx.QueryRowContext(ctx, query, name, category, price).Scan(&id); err != nil {
			return nil, nil, fmt.Errorf("failed to insert product %s: %w", name, err)
		}
		ids = append(ids, id)
		prices[id] = price
	}

	log.Printf("Seeded %d products", len(ids))
	return ids, prices, nil
}

func seedDailySales(ctx context.Context, tx *sql.Tx, rng *rand.Rand, retailerID int64, productIDs []int64, prices map[int64]decimal.Decimal, days int) error {
	const query = `
		INSERT INTO daily_sales (retailer_id, product_id, sale_date, quantity_sold, total_amount)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (retailer_id, product_id, sale_date)
		DO UPDATE SET quantity_sold = EXCLUDED.quantity_sold, total_amount = EXCLUDED.total_amount
	`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare daily sales statement: %w", err)
	}
	defer stmt.Close()

	start := time.Now().UTC().AddDate(0, 0, -days)
	bar := progressbar.Default(int64(len(productIDs)), "seeding sales")

	for _, productID := range productIDs {
		// Per-product demand shape: base level, weekend lift, mild upward
		// or downward drift over the window.
		base := 2 + rng.Float64()*10
		weekendLift := 1 + rng.Float64()
		drift := (rng.Float64() - 0.4) / float64(days)

		for d := 0; d < days; d++ {
			date := start.AddDate(0, 0, d)
			level := base * (1 + drift*float64(d))
			if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
				level *= weekendLift
			}
			qty := int64(math.Max(0, level+rng.NormFloat64()*base/4))
			if qty == 0 && rng.Float64() < 0.3 {
				// keep sparse days truly absent from the ledger
				continue
			}

			revenue := prices[productID].Mul(decimal.NewFromInt(qty))
			if _, err := stmt.ExecContext(ctx, retailerID, productID, date.Format("2006-01-02"), qty, revenue); err != nil {
				return fmt.Errorf("failed to insert sales for product %d on %s: %w", productID, date.Format("2006-01-02"), err)
			}
		}
		_ = bar.Add(1)
	}

	return nil
}

func seedOrders(ctx context.Context, tx *sql.Tx, rng *rand.Rand, retailerID int64, productIDs []int64) error {
	const orderQuery = `
		INSERT INTO orders (retailer_id, status, created_at)
		VALUES ($1, $2, NOW())
		RETURNING id
	`
	const itemQuery = `
		INSERT INTO order_items (order_id, product_id, quantity)
		VALUES ($1, $2, $3)
	`

	statuses := []string{"delivered", "delivered", "shipped", "confirmed"}
	numOrders := 3 + rng.Intn(3)

	for i := 0; i < numOrders; i++ {
		var orderID int64
		status := statuses[i%len(statuses)]
		if err := tx.QueryRowContext(ctx, orderQuery, retailerID, status).Scan(&orderID); err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}

		numItems := 1 + rng.Intn(4)
		for j := 0; j < numItems; j++ {
			productID := productIDs[rng.Intn(len(productIDs))]
			qty := 1 + rng.Intn(50)
			if _, err := tx.ExecContext(ctx, itemQuery, orderID, productID, qty); err != nil {
				return fmt.Errorf("failed to insert order item: %w", err)
			}
		}
	}

	log.Printf("Seeded %d orders", numOrders)
	return nil
}
