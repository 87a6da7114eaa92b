package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/demandcast/internal/domain"
	"github.com/andresuchdata/demandcast/internal/repository"
	"github.com/jmoiron/sqlx"
)

type salesRepository struct {
	db *sqlx.DB
}

func NewSalesRepository(db *sqlx.DB) repository.SalesRepository {
	return &salesRepository{db: db}
}

func (r *salesRepository) FetchDailySales(ctx context.Context, retailerID, productID int64, since time.Time) ([]domain.DailySalesPoint, error) {
	query := `
		SELECT
			sale_date,
			SUM(quantity_sold) AS quantity_sold,
			SUM(total_amount) AS revenue
		FROM daily_sales
		WHERE retailer_id = $1
		  AND product_id = $2
		  AND sale_date >= $3
		GROUP BY sale_date
		ORDER BY sale_date
	`

	var points []domain.DailySalesPoint
	if err := r.db.SelectContext(ctx, &points, query, retailerID, productID, since); err != nil {
		return nil, fmt.Errorf("error fetching daily sales: %w", err)
	}

	return points, nil
}

func (r *salesRepository) ListSoldProducts(ctx context.Context, retailerID int64, since time.Time, limit int) ([]int64, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT product_id
		FROM daily_sales
		WHERE retailer_id = $1
		  AND sale_date >= $2
		GROUP BY product_id
		ORDER BY SUM(quantity_sold) DESC, product_id
		LIMIT $3
	`

	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query, retailerID, since, limit); err != nil {
		return nil, fmt.Errorf("error listing sold products: %w", err)
	}

	return ids, nil
}
