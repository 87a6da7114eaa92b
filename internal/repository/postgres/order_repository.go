package postgres

import (
	"context"
	"fmt"

	"github.com/andresuchdata/demandcast/internal/repository"
	"github.com/jmoiron/sqlx"
)

type orderRepository struct {
	db *sqlx.DB
}

func NewOrderRepository(db *sqlx.DB) repository.OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) ListOrderedProducts(ctx context.Context, retailerID int64, limit int) ([]int64, error) {
	if limit <= 0 {
		limit = 50
	}

	// Cancelled orders do not count as purchase history.
	query := `
		SELECT oi.product_id
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.retailer_id = $1
		  AND o.status IN ('pending', 'confirmed', 'processing', 'shipped', 'delivered')
		GROUP BY oi.product_id
		ORDER BY SUM(oi.quantity) DESC, oi.product_id
		LIMIT $2
	`

	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query, retailerID, limit); err != nil {
		return nil, fmt.Errorf("error listing ordered products: %w", err)
	}

	return ids, nil
}
