package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/andresuchdata/demandcast/internal/config"
	"github.com/andresuchdata/demandcast/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	portfolioKeyPrefix     = "portfolio:report"
	portfolioScanBatchSize = 100
)

// PortfolioCache holds rendered portfolio reports keyed by retailer and
// request shape. A noop implementation backs deployments without redis.
type PortfolioCache interface {
	GetReport(ctx context.Context, retailerID int64, maxProducts, topN int) (*domain.PortfolioReport, bool, error)
	SetReport(ctx context.Context, retailerID int64, maxProducts, topN int, report *domain.PortfolioReport) error
	InvalidateRetailer(ctx context.Context, retailerID int64) error
	InvalidateAll(ctx context.Context) error
}

type redisPortfolioCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopPortfolioCache struct{}

func NewPortfolioCache(cfg config.CacheConfig) (PortfolioCache, error) {
	if !cfg.Enabled {
		return &noopPortfolioCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisPortfolioCache{
		client: client,
		ttl:    ttl,
	}, nil
}

func NewNoopPortfolioCache() PortfolioCache {
	return &noopPortfolioCache{}
}

func (c *redisPortfolioCache) GetReport(ctx context.Context, retailerID int64, maxProducts, topN int) (*domain.PortfolioReport, bool, error) {
	key := buildPortfolioKey(retailerID, maxProducts, topN)

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var report domain.PortfolioReport
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, false, fmt.Errorf("decode portfolio report cache: %w", err)
	}

	return &report, true, nil
}

func (c *redisPortfolioCache) SetReport(ctx context.Context, retailerID int64, maxProducts, topN int, report *domain.PortfolioReport) error {
	key := buildPortfolioKey(retailerID, maxProducts, topN)
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode portfolio report cache: %w", err)
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisPortfolioCache) InvalidateRetailer(ctx context.Context, retailerID int64) error {
	prefix := fmt.Sprintf("%s:%d:", portfolioKeyPrefix, retailerID)
	return deleteKeysWithPrefix(ctx, c.client, prefix, portfolioScanBatchSize)
}

func (c *redisPortfolioCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, portfolioKeyPrefix, portfolioScanBatchSize)
}

func (n *noopPortfolioCache) GetReport(ctx context.Context, retailerID int64, maxProducts, topN int) (*domain.PortfolioReport, bool, error) {
	return nil, false, nil
}

func (n *noopPortfolioCache) SetReport(ctx context.Context, retailerID int64, maxProducts, topN int, report *domain.PortfolioReport) error {
	return nil
}

func (n *noopPortfolioCache) InvalidateRetailer(ctx context.Context, retailerID int64) error {
	return nil
}

func (n *noopPortfolioCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildPortfolioKey(retailerID int64, maxProducts, topN int) string {
	return fmt.Sprintf("%s:%d:%d:%d", portfolioKeyPrefix, retailerID, maxProducts, topN)
}
