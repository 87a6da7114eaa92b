package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailySalesPoint is one day of unit sales for a (retailer, product) pair.
// Days without a sale are materialized as zero-quantity points before the
// series reaches the forecasting pipeline; the pipeline never mutates them.
type DailySalesPoint struct {
	Date         time.Time       `json:"date" db:"sale_date"`
	QuantitySold int64           `json:"quantity_sold" db:"quantity_sold"`
	Revenue      decimal.Decimal `json:"revenue" db:"revenue"`
}

// Product is the catalog view the forecaster needs.
type Product struct {
	ID       int64           `json:"id" db:"id"`
	Name     string          `json:"name" db:"name"`
	Category string          `json:"category" db:"category"`
	Price    decimal.Decimal `json:"price" db:"price"`
}

// DailyPrediction is a single forecast day.
type DailyPrediction struct {
	Date            string  `json:"date"`
	PredictedDemand float64 `json:"predicted_demand"`
}

// ForecastSummary aggregates a forecast horizon.
type ForecastSummary struct {
	PredictedTotalDemand  float64         `json:"predicted_total_demand"`
	PredictedDailyAverage float64         `json:"predicted_daily_average"`
	ConfidenceLevel       ConfidenceLevel `json:"confidence_level"`
	Trend                 TrendDirection  `json:"trend"`
}

// Recommendation is the reorder decision derived from a forecast.
type Recommendation struct {
	ShouldReorder          bool           `json:"should_reorder"`
	SuggestedOrderQuantity int64          `json:"suggested_order_quantity"`
	ReorderUrgency         ReorderUrgency `json:"reorder_urgency"`
	EstimatedStockoutDate  *string        `json:"estimated_stockout_date"`
	RiskAssessment         RiskLevel      `json:"risk_assessment"`
}

// ModelInfo describes the artifact backing a forecast.
type ModelInfo struct {
	Algorithm        string     `json:"algorithm"`
	TrainingDataDays int        `json:"training_data_days"`
	FeaturesUsed     int        `json:"features_used"`
	LastTrained      *time.Time `json:"last_trained"`
}

// ForecastResult is the output contract of a single-product forecast.
// Freshly built per call, never persisted.
type ForecastResult struct {
	ProductID        int64             `json:"product_id"`
	ProductName      string            `json:"product_name"`
	CurrentPrice     decimal.Decimal   `json:"current_price"`
	ForecastDays     int               `json:"forecast_period_days"`
	GeneratedAt      time.Time         `json:"generated_at"`
	Predictions      []DailyPrediction `json:"predictions"`
	Summary          ForecastSummary   `json:"forecast_summary"`
	CurrentShopStock int64             `json:"current_shop_stock"`
	AvgDailySales    float64           `json:"avg_daily_sales"`
	Recommendation   Recommendation    `json:"recommendations"`
	ModelInfo        ModelInfo         `json:"model_info"`
}

// ProductAnalysis is one ranked row of a portfolio report.
type ProductAnalysis struct {
	ProductID             int64           `json:"product_id"`
	ProductName           string          `json:"product_name"`
	Category              string          `json:"category"`
	CurrentStock          int64           `json:"current_stock"`
	UnitPrice             decimal.Decimal `json:"unit_price"`
	DemandScore           int             `json:"demand_score"`
	UrgencyScore          int             `json:"urgency_score"`
	PredictedTotalDemand  float64         `json:"predicted_total_demand"`
	DailyAvgDemand        float64         `json:"daily_avg_demand"`
	ConfidenceLevel       ConfidenceLevel `json:"confidence_level"`
	ShouldReorder         bool            `json:"should_reorder"`
	SuggestedOrderQty     int64           `json:"suggested_order_qty"`
	EstimatedStockoutDate *string         `json:"estimated_stockout_date"`
	DaysUntilStockout     int             `json:"days_until_stockout"`
	ReorderUrgency        ReorderUrgency  `json:"reorder_urgency"`
	Trend                 TrendDirection  `json:"trend"`
	Insight               string          `json:"insight"`
}

// PortfolioSummary holds the aggregate counters of a portfolio scan.
type PortfolioSummary struct {
	TotalProductsAnalyzed int             `json:"total_products_analyzed"`
	HighDemandCount       int             `json:"high_demand_products_count"`
	ReorderCount          int             `json:"products_need_reorder"`
	CriticalCount         int             `json:"critical_low_stock_count"`
	AverageDemandScore    float64         `json:"average_demand_score"`
	TotalReorderValue     decimal.Decimal `json:"total_reorder_value"`
}

// PortfolioInsights surfaces the single most notable product per bucket.
type PortfolioInsights struct {
	HighestDemandProduct *ProductAnalysis `json:"highest_demand_product"`
	MostUrgentReorder    *ProductAnalysis `json:"most_urgent_reorder"`
	MostCriticalStock    *ProductAnalysis `json:"most_critical_stock"`
	Recommendation       string           `json:"recommendation"`
}

// PortfolioReport is the output of analyzing every candidate product of a
// retailer. A product can appear in more than one bucket.
type PortfolioReport struct {
	RetailerID       int64             `json:"retailer_id"`
	AnalysisDate     time.Time         `json:"analysis_date"`
	ForecastDays     int               `json:"forecast_period_days"`
	Summary          PortfolioSummary  `json:"summary"`
	TopDemand        []ProductAnalysis `json:"top_demand_products"`
	ReorderNeeded    []ProductAnalysis `json:"reorder_recommendations"`
	CriticalLowStock []ProductAnalysis `json:"low_stock_alerts"`
	All              []ProductAnalysis `json:"all_products"`
	Insights         PortfolioInsights `json:"insights"`
}
