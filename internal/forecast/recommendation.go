package forecast

import (
	"fmt"

	"github.com/andresuchdata/demandcast/internal/domain"
)

// ComposeAnalysis folds a forecast and product metadata into the ranked
// portfolio item. Scores are attached by the analyzer; the insight string is
// picked from fixed templates keyed by the forecast's enums.
func ComposeAnalysis(f *domain.ForecastResult, category string) domain.ProductAnalysis {
	return domain.ProductAnalysis{
		ProductID:             f.ProductID,
		ProductName:           f.ProductName,
		Category:              category,
		CurrentStock:          f.CurrentShopStock,
		UnitPrice:             f.CurrentPrice,
		PredictedTotalDemand:  f.Summary.PredictedTotalDemand,
		DailyAvgDemand:        f.Summary.PredictedDailyAverage,
		ConfidenceLevel:       f.Summary.ConfidenceLevel,
		ShouldReorder:         f.Recommendation.ShouldReorder,
		SuggestedOrderQty:     f.Recommendation.SuggestedOrderQuantity,
		EstimatedStockoutDate: f.Recommendation.EstimatedStockoutDate,
		ReorderUrgency:        f.Recommendation.ReorderUrgency,
		Trend:                 f.Summary.Trend,
		Insight:               insightFor(f.Recommendation.ReorderUrgency, f.Summary.Trend, f.Summary.ConfidenceLevel),
	}
}

func insightFor(urgency domain.ReorderUrgency, trend domain.TrendDirection, confidence domain.ConfidenceLevel) string {
	var base string
	switch urgency {
	case domain.UrgencyUrgent:
		base = "Stock covers less than a week of forecast demand; reorder immediately."
	case domain.UrgencySoon:
		base = "Stock covers less than two weeks of forecast demand; schedule a reorder."
	default:
		base = "Stock covers the forecast horizon; no reorder needed yet."
	}

	switch trend {
	case domain.TrendIncreasing:
		base += " Demand is trending up."
	case domain.TrendDecreasing:
		base += " Demand is trending down."
	}

	if confidence == domain.ConfidenceLow {
		base += " Forecast confidence is low; treat quantities as indicative."
	}
	return base
}

// composePortfolioRecommendation builds the report-level summary sentence
// from bucket counts and the top performer.
func composePortfolioRecommendation(criticalCount, reorderCount int, top *domain.ProductAnalysis) string {
	out := ""
	if criticalCount > 0 {
		out += fmt.Sprintf("%d products are critically low on stock and need immediate action. ", criticalCount)
	}
	if reorderCount > 0 {
		out += fmt.Sprintf("%d products need reordering to maintain inventory levels. ", reorderCount)
	}
	if top != nil {
		out += fmt.Sprintf("Top performer: %q with demand score %d/100. ", top.ProductName, top.DemandScore)
	}
	if out == "" {
		return "All products have sufficient stock; inventory levels are optimal."
	}
	return out[:len(out)-1]
}
