// Package repository defines the data-access contracts of the forecasting
// service. Implementations live in subpackages (postgres).
package repository

import (
	"context"
	"time"

	"github.com/andresuchdata/demandcast/internal/domain"
)

// SalesRepository reads the per-day sales ledger.
type SalesRepository interface {
	// FetchDailySales returns day-aggregated sales for a (retailer,
	// product) pair on or after since, ascending by date. Days without
	// sales are simply absent; zero-filling is the pipeline's job.
	FetchDailySales(ctx context.Context, retailerID, productID int64, since time.Time) ([]domain.DailySalesPoint, error)

	// ListSoldProducts returns product IDs with at least one ledger row
	// for the retailer since the given date, capped at limit.
	ListSoldProducts(ctx context.Context, retailerID int64, since time.Time, limit int) ([]int64, error)
}

// ProductRepository is the catalog lookup.
type ProductRepository interface {
	GetProduct(ctx context.Context, productID int64) (*domain.Product, error)
}

// OrderRepository reads the retailer's purchase-order history, the candidate
// fallback when the sales ledger is empty.
type OrderRepository interface {
	ListOrderedProducts(ctx context.Context, retailerID int64, limit int) ([]int64, error)
}
