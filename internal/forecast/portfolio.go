package forecast

import (
	"context"
	"sort"
	"time"

	"github.com/andresuchdata/demandcast/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Forecaster is the single-product entry point the analyzer fans out over.
type Forecaster interface {
	Predict(ctx context.Context, productID, retailerID int64, horizonDays int, forceRetrain bool) (*domain.ForecastResult, error)
}

// CandidateSource resolves the product set a portfolio scan covers.
type CandidateSource interface {
	// ListSoldProducts returns product IDs with at least one sales record
	// for the retailer since the given date.
	ListSoldProducts(ctx context.Context, retailerID int64, since time.Time, limit int) ([]int64, error)
	// ListOrderedProducts is the fallback when the sales ledger is empty:
	// product IDs from the retailer's order history.
	ListOrderedProducts(ctx context.Context, retailerID int64, limit int) ([]int64, error)
}

const (
	noStockoutDays   = 365 // days-until-stockout when no stockout is predicted
	highDemandFloor  = 20  // minimum demand score for the top-demand bucket
	criticalFloor    = 70  // minimum urgency score for the critical bucket
	reorderBucketCap  = 20
	criticalBucketCap = 10
)

// AnalyzerOptions tunes a portfolio Analyzer; zero values take defaults.
type AnalyzerOptions struct {
	LookbackDays  int
	MaxCandidates int // latency control: candidate set cap
	Parallelism   int // concurrent per-product forecasts; 1 means sequential
	Now           func() time.Time
}

// Analyzer forecasts every candidate product of a retailer and ranks the
// results. Per-product failures are skips, never aborts; only failing to
// resolve the candidate set fails the whole call.
type Analyzer struct {
	forecaster    Forecaster
	candidates    CandidateSource
	categories    ProductSource
	lookbackDays  int
	maxCandidates int
	parallelism   int
	now           func() time.Time
}

func NewAnalyzer(forecaster Forecaster, candidates CandidateSource, categories ProductSource, opts AnalyzerOptions) *Analyzer {
	if opts.LookbackDays <= 0 {
		opts.LookbackDays = DefaultLookbackDays
	}
	if opts.MaxCandidates <= 0 {
		opts.MaxCandidates = 50
	}
	if opts.Parallelism <= 0 {
		opts.Parallelism = 1
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Analyzer{
		forecaster:    forecaster,
		candidates:    candidates,
		categories:    categories,
		lookbackDays:  opts.LookbackDays,
		maxCandidates: opts.MaxCandidates,
		parallelism:   opts.Parallelism,
		now:           opts.Now,
	}
}

// AnalyzeAll runs a forecast for every candidate product, scores and ranks
// the survivors, and buckets them. Deterministic for identical inputs: results
// are collected by candidate index and sorted with product ID tie-breaks.
func (a *Analyzer) AnalyzeAll(ctx context.Context, retailerID int64, horizonDays, topN int) (*domain.PortfolioReport, error) {
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}
	if topN <= 0 {
		topN = 10
	}

	now := a.now()
	candidates, err := a.resolveCandidates(ctx, retailerID, now)
	if err != nil {
		return nil, err
	}

	results := make([]*domain.ProductAnalysis, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.parallelism)
	for i, productID := range candidates {
		g.Go(func() error {
			analysis, err := a.analyzeProduct(gctx, retailerID, productID, horizonDays)
			if err != nil {
				// Per-product failures never abort the batch.
				log.Debug().Err(err).
					Int64("retailer_id", retailerID).
					Int64("product_id", productID).
					Msg("skipping product in portfolio scan")
				return nil
			}
			results[i] = analysis
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	all := make([]domain.ProductAnalysis, 0, len(results))
	for _, r := range results {
		if r != nil {
			all = append(all, *r)
		}
	}

	return a.buildReport(retailerID, horizonDays, topN, now, all), nil
}

func (a *Analyzer) resolveCandidates(ctx context.Context, retailerID int64, now time.Time) ([]int64, error) {
	since := now.AddDate(0, 0, -a.lookbackDays)
	candidates, err := a.candidates.ListSoldProducts(ctx, retailerID, since, a.maxCandidates)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		candidates, err = a.candidates.ListOrderedProducts(ctx, retailerID, a.maxCandidates)
		if err != nil {
			return nil, err
		}
	}
	if len(candidates) == 0 {
		return nil, domain.ErrNoPurchaseHistory
	}
	return candidates, nil
}

func (a *Analyzer) analyzeProduct(ctx context.Context, retailerID, productID int64, horizonDays int) (*domain.ProductAnalysis, error) {
	forecast, err := a.forecaster.Predict(ctx, productID, retailerID, horizonDays, false)
	if err != nil {
		return nil, err
	}

	category := ""
	if product, err := a.categories.GetProduct(ctx, productID); err == nil {
		category = product.Category
	}

	analysis := ComposeAnalysis(forecast, category)
	analysis.DemandScore = demandScore(forecast)
	analysis.DaysUntilStockout = daysUntilStockout(forecast)
	analysis.UrgencyScore = urgencyScore(analysis.DaysUntilStockout)
	return &analysis, nil
}

// demandScore grades a product 0-100: a volume-tiered base scaled by
// confidence weight, a 1.5x boost when a reorder is recommended, and the
// trend multiplier.
func demandScore(f *domain.ForecastResult) int {
	dailyAvg := f.Summary.PredictedDailyAverage

	var base float64
	switch {
	case dailyAvg >= 10:
		base = 50 + (dailyAvg-10)*2
	case dailyAvg >= 1:
		base = 20 + dailyAvg*30
	default:
		base = dailyAvg * 100
	}

	reorderMultiplier := 1.0
	if f.Recommendation.ShouldReorder {
		reorderMultiplier = 1.5
	}

	score := int(base * f.Summary.ConfidenceLevel.Weight() * reorderMultiplier * f.Summary.Trend.Multiplier())
	return clampScore(score)
}

func daysUntilStockout(f *domain.ForecastResult) int {
	if f.Recommendation.EstimatedStockoutDate == nil || f.Summary.PredictedDailyAverage <= 0 {
		return noStockoutDays
	}
	return int(float64(f.CurrentShopStock) / f.Summary.PredictedDailyAverage)
}

// urgencyScore is 100 at immediate stockout, loses two points per day of
// cover, and bottoms out at 0 past 50 days.
func urgencyScore(daysUntilStockout int) int {
	return clampScore(100 - daysUntilStockout*2)
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func (a *Analyzer) buildReport(retailerID int64, horizonDays, topN int, now time.Time, all []domain.ProductAnalysis) *domain.PortfolioReport {
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].DemandScore != all[j].DemandScore {
			return all[i].DemandScore > all[j].DemandScore
		}
		return all[i].ProductID < all[j].ProductID
	})

	var topDemand, reorderNeeded, critical []domain.ProductAnalysis
	var scoreSum int
	totalReorderValue := decimal.Zero
	for _, p := range all {
		scoreSum += p.DemandScore
		if p.DemandScore >= highDemandFloor {
			topDemand = append(topDemand, p)
		}
		if p.ShouldReorder {
			reorderNeeded = append(reorderNeeded, p)
			totalReorderValue = totalReorderValue.Add(p.UnitPrice.Mul(decimal.NewFromInt(p.SuggestedOrderQty)))
		}
		if p.UrgencyScore >= criticalFloor {
			critical = append(critical, p)
		}
	}

	sort.SliceStable(reorderNeeded, func(i, j int) bool {
		if reorderNeeded[i].UrgencyScore != reorderNeeded[j].UrgencyScore {
			return reorderNeeded[i].UrgencyScore > reorderNeeded[j].UrgencyScore
		}
		return reorderNeeded[i].ProductID < reorderNeeded[j].ProductID
	})
	sort.SliceStable(critical, func(i, j int) bool {
		if critical[i].DaysUntilStockout != critical[j].DaysUntilStockout {
			return critical[i].DaysUntilStockout < critical[j].DaysUntilStockout
		}
		return critical[i].ProductID < critical[j].ProductID
	})

	avgScore := 0.0
	if len(all) > 0 {
		avgScore = round2(float64(scoreSum) / float64(len(all)))
	}

	insights := domain.PortfolioInsights{
		HighestDemandProduct: firstOrNil(all),
		MostUrgentReorder:    firstOrNil(reorderNeeded),
		MostCriticalStock:    firstOrNil(critical),
	}
	insights.Recommendation = composePortfolioRecommendation(len(critical), len(reorderNeeded), firstOrNil(topDemand))

	return &domain.PortfolioReport{
		RetailerID:   retailerID,
		AnalysisDate: now,
		ForecastDays: horizonDays,
		Summary: domain.PortfolioSummary{
			TotalProductsAnalyzed: len(all),
			HighDemandCount:       len(topDemand),
			ReorderCount:          len(reorderNeeded),
			CriticalCount:         len(critical),
			AverageDemandScore:    avgScore,
			TotalReorderValue:     totalReorderValue,
		},
		TopDemand:        truncate(topDemand, topN),
		ReorderNeeded:    truncate(reorderNeeded, reorderBucketCap),
		CriticalLowStock: truncate(critical, criticalBucketCap),
		All:              all,
		Insights:         insights,
	}
}

func truncate(items []domain.ProductAnalysis, limit int) []domain.ProductAnalysis {
	if items == nil {
		return []domain.ProductAnalysis{}
	}
	if len(items) > limit {
		return items[:limit]
	}
	return items
}

func firstOrNil(items []domain.ProductAnalysis) *domain.ProductAnalysis {
	if len(items) == 0 {
		return nil
	}
	item := items[0]
	return &item
}
