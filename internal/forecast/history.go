// Package forecast contains the demand-forecasting pipeline: sales history
// materialization, time-series feature engineering, the iterative forecast
// engine, and the portfolio analyzer that ranks every product a retailer
// sells.
package forecast

import (
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/demandcast/internal/domain"
)

// SalesSource is the read side of the external sales ledger.
type SalesSource interface {
	FetchDailySales(ctx context.Context, retailerID, productID int64, since time.Time) ([]domain.DailySalesPoint, error)
}

// Point is one day of a materialized series. Quantity is float because the
// forecast loop appends its own predictions as pseudo-history.
type Point struct {
	Date     time.Time
	Quantity float64
	Revenue  float64
}

// Series is a gap-free, ascending daily sales series.
type Series struct {
	Points []Point
	// ObservedDays counts calendar days from the first underlying ledger
	// record through the end of the window, zero-fill included, capped at
	// the window length. Zero when the ledger has no records at all. This
	// is the history-sufficiency signal for training.
	ObservedDays int
}

// Len returns the number of days in the series.
func (s Series) Len() int { return len(s.Points) }

// Quantities returns the quantity column.
func (s Series) Quantities() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Quantity
	}
	return out
}

// HistoryAccessor materializes zero-filled daily series from the ledger.
type HistoryAccessor struct {
	sales SalesSource
}

func NewHistoryAccessor(sales SalesSource) *HistoryAccessor {
	return &HistoryAccessor{sales: sales}
}

// DailySeries returns one point per calendar day in
// [today-lookbackDays, today], ascending, with absent ledger days synthesized
// as zero quantity/revenue. Duplicate ledger rows for a day are summed. A
// pair with no records at all yields an all-zero series (ObservedDays 0)
// rather than an error; sufficiency is the caller's decision.
func (a *HistoryAccessor) DailySeries(ctx context.Context, retailerID, productID int64, today time.Time, lookbackDays int) (Series, error) {
	today = midnightUTC(today)
	start := today.AddDate(0, 0, -lookbackDays)

	records, err := a.sales.FetchDailySales(ctx, retailerID, productID, start)
	if err != nil {
		return Series{}, fmt.Errorf("fetch daily sales r%d/p%d: %w", retailerID, productID, err)
	}

	byDay := make(map[time.Time]Point, len(records))
	var first time.Time
	for _, rec := range records {
		day := midnightUTC(rec.Date)
		if day.Before(start) || day.After(today) {
			continue
		}
		p := byDay[day]
		p.Quantity += float64(rec.QuantitySold)
		p.Revenue += rec.Revenue.InexactFloat64()
		byDay[day] = p
		if first.IsZero() || day.Before(first) {
			first = day
		}
	}

	n := lookbackDays + 1
	points := make([]Point, 0, n)
	for day := start; !day.After(today); day = day.AddDate(0, 0, 1) {
		p := byDay[day]
		p.Date = day
		points = append(points, p)
	}

	observed := 0
	if !first.IsZero() {
		observed = int(today.Sub(first).Hours()/24) + 1
		if observed > n {
			observed = n
		}
	}

	return Series{Points: points, ObservedDays: observed}, nil
}

func midnightUTC(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
