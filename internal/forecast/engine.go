package forecast

import (
	"context"
	"math"
	"time"

	"github.com/andresuchdata/demandcast/internal/domain"
	"github.com/andresuchdata/demandcast/internal/modelstore"
	"gonum.org/v1/gonum/stat"
)

// ProductSource is the catalog lookup the engine needs for result metadata.
type ProductSource interface {
	GetProduct(ctx context.Context, productID int64) (*domain.Product, error)
}

const (
	// DefaultLookbackDays is the history window behind every forecast.
	DefaultLookbackDays = 90
	// DefaultHorizonDays is the forecast horizon when the caller passes none.
	DefaultHorizonDays = 30

	// current stock is estimated as this many days of average daily sales.
	// A heuristic, not a ledger read; no per-retailer stock ledger exists
	// for this pipeline's inputs.
	stockCoverageDays = 20

	recentHistoryDays = 30
	validationDays    = 7

	algorithmName = "gradient_boosted_trees"
)

// TrainingProvider feeds zero-filled, feature-engineered series into the
// model store.
type TrainingProvider struct {
	history      *HistoryAccessor
	lookbackDays int
	now          func() time.Time
}

func NewTrainingProvider(history *HistoryAccessor, lookbackDays int, now func() time.Time) *TrainingProvider {
	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}
	if now == nil {
		now = time.Now
	}
	return &TrainingProvider{history: history, lookbackDays: lookbackDays, now: now}
}

func (p *TrainingProvider) TrainingData(ctx context.Context, retailerID, productID int64) (*modelstore.TrainingSet, error) {
	series, err := p.history.DailySeries(ctx, retailerID, productID, p.now(), p.lookbackDays)
	if err != nil {
		return nil, err
	}
	return &modelstore.TrainingSet{
		Columns:      FeatureColumns(),
		Features:     EngineerFeatures(series),
		Target:       series.Quantities(),
		ObservedDays: series.ObservedDays,
	}, nil
}

// Engine drives the day-by-day iterative forecast.
type Engine struct {
	store        *modelstore.Store
	history      *HistoryAccessor
	products     ProductSource
	lookbackDays int
	now          func() time.Time
}

// EngineOptions tunes an Engine; zero values take defaults.
type EngineOptions struct {
	LookbackDays int
	Now          func() time.Time
}

func NewEngine(store *modelstore.Store, history *HistoryAccessor, products ProductSource, opts EngineOptions) *Engine {
	if opts.LookbackDays <= 0 {
		opts.LookbackDays = DefaultLookbackDays
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{
		store:        store,
		history:      history,
		products:     products,
		lookbackDays: opts.LookbackDays,
		now:          opts.Now,
	}
}

// Predict forecasts demand for the pair over horizonDays. Each forecast day
// is predicted from features over all prior real and predicted days, then
// folded back into the series as pseudo-history before the next day — the
// recurrence that lets lag features see the model's own output.
func (e *Engine) Predict(ctx context.Context, productID, retailerID int64, horizonDays int, forceRetrain bool) (*domain.ForecastResult, error) {
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}

	product, err := e.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	model, err := e.store.LoadOrTrain(ctx, retailerID, productID, forceRetrain)
	if err != nil {
		return nil, err
	}

	today := midnightUTC(e.now())
	series, err := e.history.DailySeries(ctx, retailerID, productID, today, e.lookbackDays)
	if err != nil {
		return nil, err
	}

	meanPPU := MeanPricePerUnit(series)
	state := append([]Point(nil), series.Points...)
	lastDate := state[len(state)-1].Date

	predictions := make([]domain.DailyPrediction, 0, horizonDays)
	var total float64
	for d := 1; d <= horizonDays; d++ {
		var raw float64
		state, raw = forecastStep(state, lastDate.AddDate(0, 0, d), model, meanPPU)
		rounded := round2(raw)
		total += rounded
		predictions = append(predictions, domain.DailyPrediction{
			Date:            state[len(state)-1].Date.Format("2006-01-02"),
			PredictedDemand: rounded,
		})
	}

	dailyAvg := total / float64(horizonDays)

	histAvg := recentAverage(series, recentHistoryDays)
	stock := int64(math.Round(histAvg * stockCoverageDays))

	summary := domain.ForecastSummary{
		PredictedTotalDemand:  round2(total),
		PredictedDailyAverage: round2(dailyAvg),
		ConfidenceLevel:       e.confidence(model, series),
		Trend:                 classifyTrend(dailyAvg, histAvg),
	}

	lastTrained := model.TrainedAt
	return &domain.ForecastResult{
		ProductID:        productID,
		ProductName:      product.Name,
		CurrentPrice:     product.Price,
		ForecastDays:     horizonDays,
		GeneratedAt:      e.now(),
		Predictions:      predictions,
		Summary:          summary,
		CurrentShopStock: stock,
		AvgDailySales:    round2(histAvg),
		Recommendation:   buildRecommendation(total, stock, dailyAvg, today),
		ModelInfo: domain.ModelInfo{
			Algorithm:        algorithmName,
			TrainingDataDays: model.TrainingRows,
			FeaturesUsed:     len(model.Features),
			LastTrained:      &lastTrained,
		},
	}, nil
}

// forecastStep is one application of the forecast recurrence: append the next
// day, re-engineer features so its lags and rolling windows see every prior
// real and predicted value, predict, clamp to zero, and write the prediction
// back as that day's quantity with revenue synthesized from the mean
// historical price per unit.
func forecastStep(state []Point, date time.Time, model *modelstore.TrainedModel, meanPPU float64) ([]Point, float64) {
	state = append(state, Point{Date: date})
	features := EngineerFeatures(Series{Points: state})

	pred := model.Booster.Predict(features[len(features)-1])
	if pred < 0 {
		pred = 0
	}

	state[len(state)-1].Quantity = pred
	state[len(state)-1].Revenue = pred * meanPPU
	return state, pred
}

// confidence scores the model against the trailing real days of history with
// MAPE, |actual-predicted|/(actual+1): under 15% is high, under 30% medium.
func (e *Engine) confidence(model *modelstore.TrainedModel, series Series) domain.ConfidenceLevel {
	if series.ObservedDays < 14 || series.Len() < validationDays {
		return domain.ConfidenceLow
	}

	features := EngineerFeatures(series)
	quantities := series.Quantities()
	start := series.Len() - validationDays
	predicted := model.Booster.PredictBatch(features[start:])

	var mape float64
	for i, p := range predicted {
		actual := quantities[start+i]
		mape += math.Abs(actual-p) / (actual + 1)
	}
	mape /= validationDays

	switch {
	case mape < 0.15:
		return domain.ConfidenceHigh
	case mape < 0.30:
		return domain.ConfidenceMedium
	default:
		return domain.ConfidenceLow
	}
}

func classifyTrend(dailyAvg, historicalAvg float64) domain.TrendDirection {
	switch {
	case dailyAvg > historicalAvg*1.1:
		return domain.TrendIncreasing
	case dailyAvg < historicalAvg*0.9:
		return domain.TrendDecreasing
	default:
		return domain.TrendStable
	}
}

func buildRecommendation(totalPredicted float64, stock int64, dailyAvg float64, today time.Time) domain.Recommendation {
	qty := int64(totalPredicted - float64(stock))
	if qty < 0 {
		qty = 0
	}

	var urgency domain.ReorderUrgency
	switch {
	case float64(stock) < dailyAvg*7:
		urgency = domain.UrgencyUrgent
	case float64(stock) < dailyAvg*14:
		urgency = domain.UrgencySoon
	default:
		urgency = domain.UrgencyNormal
	}

	var stockout *string
	if dailyAvg > 0 {
		days := int(float64(stock) / dailyAvg)
		date := today.AddDate(0, 0, days).Format("2006-01-02")
		stockout = &date
	}

	return domain.Recommendation{
		ShouldReorder:          qty > 0,
		SuggestedOrderQuantity: qty,
		ReorderUrgency:         urgency,
		EstimatedStockoutDate:  stockout,
		RiskAssessment:         urgency.Risk(),
	}
}

// recentAverage is the mean quantity over the trailing days of real history.
func recentAverage(series Series, days int) float64 {
	if series.Len() == 0 {
		return 0
	}
	q := series.Quantities()
	if len(q) > days {
		q = q[len(q)-days:]
	}
	return stat.Mean(q, nil)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
