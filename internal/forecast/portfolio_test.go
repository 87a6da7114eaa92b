package forecast

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/andresuchdata/demandcast/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeForecaster struct {
	results map[int64]*domain.ForecastResult
	errs    map[int64]error
}

func (f *fakeForecaster) Predict(ctx context.Context, productID, retailerID int64, horizonDays int, forceRetrain bool) (*domain.ForecastResult, error) {
	if err, ok := f.errs[productID]; ok {
		return nil, err
	}
	r, ok := f.results[productID]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return r, nil
}

type fakeCandidates struct {
	sold    []int64
	ordered []int64
	soldErr error
}

func (f *fakeCandidates) ListSoldProducts(ctx context.Context, retailerID int64, since time.Time, limit int) ([]int64, error) {
	return f.sold, f.soldErr
}

func (f *fakeCandidates) ListOrderedProducts(ctx context.Context, retailerID int64, limit int) ([]int64, error) {
	return f.ordered, nil
}

func fixtureResult(id int64, dailyAvg float64, stock int64, conf domain.ConfidenceLevel, trend domain.TrendDirection, reorder bool, qty int64) *domain.ForecastResult {
	r := &domain.ForecastResult{
		ProductID:        id,
		ProductName:      fmt.Sprintf("Product %d", id),
		CurrentPrice:     decimal.NewFromInt(10),
		CurrentShopStock: stock,
		Summary: domain.ForecastSummary{
			PredictedTotalDemand:  dailyAvg * 30,
			PredictedDailyAverage: dailyAvg,
			ConfidenceLevel:       conf,
			Trend:                 trend,
		},
		Recommendation: domain.Recommendation{
			ShouldReorder:          reorder,
			SuggestedOrderQuantity: qty,
			ReorderUrgency:         domain.UrgencyNormal,
			RiskAssessment:         domain.RiskLow,
		},
	}
	if dailyAvg > 0 {
		d := "2026-09-15"
		r.Recommendation.EstimatedStockoutDate = &d
	}
	return r
}

func portfolioCatalog(ids ...int64) *fakeCatalog {
	products := make(map[int64]*domain.Product, len(ids))
	for _, id := range ids {
		products[id] = &domain.Product{
			ID: id, Name: fmt.Sprintf("Product %d", id), Category: "Beverages",
			Price: decimal.NewFromInt(10),
		}
	}
	return &fakeCatalog{products: products}
}

func TestDemandScore(t *testing.T) {
	cases := []struct {
		name   string
		result *domain.ForecastResult
		want   int
	}{
		{"high volume boosted", fixtureResult(1, 10, 20, domain.ConfidenceHigh, domain.TrendIncreasing, true, 280), 97},
		{"mid volume damped by confidence", fixtureResult(2, 2, 200, domain.ConfidenceMedium, domain.TrendStable, false, 0), 56},
		{"low volume", fixtureResult(3, 0.5, 50, domain.ConfidenceLow, domain.TrendStable, false, 0), 20},
		{"clamped at 100", fixtureResult(4, 100, 0, domain.ConfidenceHigh, domain.TrendIncreasing, true, 3000), 100},
		{"zero demand", fixtureResult(5, 0, 50, domain.ConfidenceLow, domain.TrendStable, false, 0), 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, demandScore(tc.result))
		})
	}
}

func TestUrgencyScore(t *testing.T) {
	assert.Equal(t, 100, urgencyScore(0))
	assert.Equal(t, 96, urgencyScore(2))
	assert.Equal(t, 70, urgencyScore(15))
	assert.Equal(t, 0, urgencyScore(50))
	assert.Equal(t, 0, urgencyScore(noStockoutDays))
}

func TestDaysUntilStockout(t *testing.T) {
	assert.Equal(t, 2, daysUntilStockout(fixtureResult(1, 10, 20, domain.ConfidenceHigh, domain.TrendStable, true, 0)))
	assert.Equal(t, 100, daysUntilStockout(fixtureResult(1, 2, 200, domain.ConfidenceHigh, domain.TrendStable, false, 0)))

	// no predicted demand means no stockout on the horizon
	assert.Equal(t, noStockoutDays, daysUntilStockout(fixtureResult(1, 0, 20, domain.ConfidenceHigh, domain.TrendStable, false, 0)))
}

func TestAnalyzeAllSkipsFailedProducts(t *testing.T) {
	forecaster := &fakeForecaster{
		results: map[int64]*domain.ForecastResult{
			1: fixtureResult(1, 10, 20, domain.ConfidenceHigh, domain.TrendIncreasing, true, 280),
			3: fixtureResult(3, 2, 200, domain.ConfidenceMedium, domain.TrendStable, false, 0),
		},
		errs: map[int64]error{2: domain.ErrInsufficientHistory},
	}
	analyzer := NewAnalyzer(forecaster, &fakeCandidates{sold: []int64{1, 2, 3}}, portfolioCatalog(1, 2, 3), AnalyzerOptions{})

	report, err := analyzer.AnalyzeAll(context.Background(), 1, 30, 10)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Summary.TotalProductsAnalyzed)
	require.Len(t, report.All, 2)
	assert.Equal(t, int64(1), report.All[0].ProductID)
	assert.Equal(t, int64(3), report.All[1].ProductID)
}

func TestAnalyzeAllBucketsAndInsights(t *testing.T) {
	forecaster := &fakeForecaster{
		results: map[int64]*domain.ForecastResult{
			1: fixtureResult(1, 10, 20, domain.ConfidenceHigh, domain.TrendIncreasing, true, 280),
			2: fixtureResult(2, 2, 200, domain.ConfidenceMedium, domain.TrendStable, false, 0),
			3: fixtureResult(3, 0.1, 50, domain.ConfidenceLow, domain.TrendStable, false, 0),
		},
	}
	analyzer := NewAnalyzer(forecaster, &fakeCandidates{sold: []int64{1, 2, 3}}, portfolioCatalog(1, 2, 3), AnalyzerOptions{})

	report, err := analyzer.AnalyzeAll(context.Background(), 7, 30, 10)
	require.NoError(t, err)

	assert.Equal(t, int64(7), report.RetailerID)
	assert.Equal(t, 30, report.ForecastDays)
	assert.Equal(t, 3, report.Summary.TotalProductsAnalyzed)
	assert.Equal(t, 2, report.Summary.HighDemandCount)
	assert.Equal(t, 1, report.Summary.ReorderCount)
	assert.Equal(t, 1, report.Summary.CriticalCount)
	assert.InDelta(t, 52.33, report.Summary.AverageDemandScore, 0.01)
	assert.True(t, report.Summary.TotalReorderValue.Equal(decimal.NewFromInt(2800)),
		"total reorder value = %s", report.Summary.TotalReorderValue)

	// top demand keeps score order, high scorer first
	require.Len(t, report.TopDemand, 2)
	assert.Equal(t, int64(1), report.TopDemand[0].ProductID)
	assert.Equal(t, 97, report.TopDemand[0].DemandScore)
	assert.Equal(t, int64(2), report.TopDemand[1].ProductID)

	require.Len(t, report.ReorderNeeded, 1)
	assert.Equal(t, int64(1), report.ReorderNeeded[0].ProductID)

	require.Len(t, report.CriticalLowStock, 1)
	assert.Equal(t, int64(1), report.CriticalLowStock[0].ProductID)
	assert.Equal(t, 2, report.CriticalLowStock[0].DaysUntilStockout)
	assert.Equal(t, 96, report.CriticalLowStock[0].UrgencyScore)

	require.NotNil(t, report.Insights.HighestDemandProduct)
	assert.Equal(t, int64(1), report.Insights.HighestDemandProduct.ProductID)
	require.NotNil(t, report.Insights.MostUrgentReorder)
	require.NotNil(t, report.Insights.MostCriticalStock)
	assert.Contains(t, report.Insights.Recommendation, "1 products are critically low")
	assert.Contains(t, report.Insights.Recommendation, "Product 1")

	assert.Equal(t, "Beverages", report.All[0].Category)
	assert.NotEmpty(t, report.All[0].Insight)
}

func TestAnalyzeAllTopNTruncation(t *testing.T) {
	results := make(map[int64]*domain.ForecastResult)
	var candidates []int64
	for id := int64(1); id <= 8; id++ {
		results[id] = fixtureResult(id, 5, 500, domain.ConfidenceHigh, domain.TrendStable, false, 0)
		candidates = append(candidates, id)
	}
	analyzer := NewAnalyzer(&fakeForecaster{results: results}, &fakeCandidates{sold: candidates}, portfolioCatalog(candidates...), AnalyzerOptions{})

	report, err := analyzer.AnalyzeAll(context.Background(), 1, 30, 3)
	require.NoError(t, err)

	assert.Len(t, report.TopDemand, 3)
	assert.Len(t, report.All, 8)
	// equal scores fall back to product ID order
	assert.Equal(t, int64(1), report.TopDemand[0].ProductID)
	assert.Equal(t, int64(3), report.TopDemand[2].ProductID)
}

func TestAnalyzeAllFallsBackToOrderHistory(t *testing.T) {
	forecaster := &fakeForecaster{results: map[int64]*domain.ForecastResult{
		5: fixtureResult(5, 3, 100, domain.ConfidenceMedium, domain.TrendStable, false, 0),
	}}
	analyzer := NewAnalyzer(forecaster, &fakeCandidates{ordered: []int64{5}}, portfolioCatalog(5), AnalyzerOptions{})

	report, err := analyzer.AnalyzeAll(context.Background(), 1, 30, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Summary.TotalProductsAnalyzed)
}

func TestAnalyzeAllNoPurchaseHistory(t *testing.T) {
	analyzer := NewAnalyzer(&fakeForecaster{}, &fakeCandidates{}, portfolioCatalog(), AnalyzerOptions{})

	_, err := analyzer.AnalyzeAll(context.Background(), 1, 30, 10)
	require.ErrorIs(t, err, domain.ErrNoPurchaseHistory)
}

func TestAnalyzeAllParallelIsDeterministic(t *testing.T) {
	results := make(map[int64]*domain.ForecastResult)
	var candidates []int64
	for id := int64(1); id <= 20; id++ {
		results[id] = fixtureResult(id, float64(id), 50, domain.ConfidenceHigh, domain.TrendStable, id%2 == 0, id*3)
		candidates = append(candidates, id)
	}

	sequential := NewAnalyzer(&fakeForecaster{results: results}, &fakeCandidates{sold: candidates}, portfolioCatalog(candidates...), AnalyzerOptions{Parallelism: 1})
	parallel := NewAnalyzer(&fakeForecaster{results: results}, &fakeCandidates{sold: candidates}, portfolioCatalog(candidates...), AnalyzerOptions{Parallelism: 8})

	a, err := sequential.AnalyzeAll(context.Background(), 1, 30, 10)
	require.NoError(t, err)
	b, err := parallel.AnalyzeAll(context.Background(), 1, 30, 10)
	require.NoError(t, err)

	b.AnalysisDate = a.AnalysisDate
	assert.Equal(t, a, b)
}
