package service

import (
	"context"

	"github.com/andresuchdata/demandcast/internal/cache"
	"github.com/andresuchdata/demandcast/internal/domain"
	"github.com/andresuchdata/demandcast/internal/forecast"
	"github.com/andresuchdata/demandcast/internal/modelstore"
	"github.com/rs/zerolog/log"
)

type ForecastService struct {
	engine   *forecast.Engine
	analyzer *forecast.Analyzer
	store    *modelstore.Store
	cache    cache.PortfolioCache

	maxCandidates int
	topN          int
}

type ForecastServiceOptions struct {
	MaxCandidates int
	TopN          int
}

func NewForecastService(engine *forecast.Engine, analyzer *forecast.Analyzer, store *modelstore.Store, cacheImpl cache.PortfolioCache, opts ForecastServiceOptions) *ForecastService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopPortfolioCache()
	}
	maxCandidates := opts.MaxCandidates
	if maxCandidates <= 0 {
		maxCandidates = 50
	}
	topN := opts.TopN
	if topN <= 0 {
		topN = 10
	}
	return &ForecastService{
		engine:        engine,
		analyzer:      analyzer,
		store:         store,
		cache:         cacheImpl,
		maxCandidates: maxCandidates,
		topN:          topN,
	}
}

func (s *ForecastService) Forecast(ctx context.Context, retailerID, productID int64, horizonDays int, forceRetrain bool) (*domain.ForecastResult, error) {
	return s.engine.Predict(ctx, productID, retailerID, horizonDays, forceRetrain)
}

// AnalyzePortfolio runs the full portfolio pass, serving a cached report
// when one is fresh enough.
func (s *ForecastService) AnalyzePortfolio(ctx context.Context, retailerID int64, horizonDays, topN int) (*domain.PortfolioReport, error) {
	if topN <= 0 {
		topN = s.topN
	}

	if report, ok, err := s.cache.GetReport(ctx, retailerID, s.maxCandidates, topN); err == nil && ok {
		return report, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("portfolio: cache get failed")
	}

	report, err := s.analyzer.AnalyzeAll(ctx, retailerID, horizonDays, topN)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetReport(ctx, retailerID, s.maxCandidates, topN, report); err != nil {
		log.Warn().Err(err).Msg("portfolio: cache set failed")
	}

	return report, nil
}

func (s *ForecastService) TrainModel(ctx context.Context, retailerID, productID int64) (*modelstore.TrainedModel, error) {
	model, err := s.store.Train(ctx, retailerID, productID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.InvalidateRetailer(ctx, retailerID); err != nil {
		log.Warn().Err(err).Int64("retailer_id", retailerID).Msg("portfolio: cache invalidate failed")
	}

	return model, nil
}

func (s *ForecastService) ModelImportance(ctx context.Context, retailerID, productID int64) (map[string]float64, error) {
	return s.store.Importance(ctx, retailerID, productID)
}
