// Package modelstore trains, persists and retrieves the per-(retailer,
// product) demand models. Artifacts live behind a small keyed ArtifactStore
// interface so in-memory, file, redis and S3-compatible backends are
// interchangeable.
package modelstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/andresuchdata/demandcast/internal/domain"
	"github.com/andresuchdata/demandcast/internal/regress"
	"github.com/rs/zerolog/log"
)

// ErrNotFound is returned by ArtifactStore.Get when no artifact exists for a
// key.
var ErrNotFound = errors.New("artifact not found")

// ArtifactStore is keyed byte storage for serialized models.
type ArtifactStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
}

// Key builds the artifact key for a (retailer, product) pair.
func Key(retailerID, productID int64) string {
	return fmt.Sprintf("model_r%d_p%d", retailerID, productID)
}

// TrainingSet is the engineered matrix a model is fit on.
type TrainingSet struct {
	Columns  []string
	Features [][]float64
	Target   []float64
	// ObservedDays is the usable history behind the matrix; training fails
	// below the store's minimum even though zero-filled rows pad the
	// matrix to the full window.
	ObservedDays int
}

// TrainingSource supplies training data for a pair.
type TrainingSource interface {
	TrainingData(ctx context.Context, retailerID, productID int64) (*TrainingSet, error)
}

// TrainedModel is one persisted artifact: the booster, the feature schema it
// was fit with, and training metadata. Overwritten wholesale on retrain.
type TrainedModel struct {
	Booster      *regress.Booster `json:"model"`
	Features     []string         `json:"features"`
	TrainingRows int              `json:"training_rows"`
	TrainedAt    time.Time        `json:"trained_at"`
}

// Options tunes a Store.
type Options struct {
	Params         regress.Params
	MinHistoryDays int           // usable days required before training; default 14
	ValidationDays int           // trailing days held out for early stopping; default 7
	MaxAge         time.Duration // artifact freshness window; 0 disables expiry
	Now            func() time.Time
}

// Store owns the train-if-missing policy for model artifacts. Concurrent
// retrains of the same pair race last-write-wins; that is accepted, the store
// adds no locking of its own.
type Store struct {
	artifacts      ArtifactStore
	source         TrainingSource
	columns        []string
	params         regress.Params
	minHistoryDays int
	validationDays int
	maxAge         time.Duration
	now            func() time.Time
}

func NewStore(artifacts ArtifactStore, source TrainingSource, columns []string, opts Options) *Store {
	if opts.MinHistoryDays <= 0 {
		opts.MinHistoryDays = 14
	}
	if opts.ValidationDays <= 0 {
		opts.ValidationDays = 7
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{
		artifacts:      artifacts,
		source:         source,
		columns:        columns,
		params:         opts.Params,
		minHistoryDays: opts.MinHistoryDays,
		validationDays: opts.ValidationDays,
		maxAge:         opts.MaxAge,
		now:            opts.Now,
	}
}

// Train fits and persists a fresh model for the pair. It fails with
// domain.ErrInsufficientHistory before touching the trainer when fewer than
// the minimum usable days exist, and persists nothing on any failure.
func (s *Store) Train(ctx context.Context, retailerID, productID int64) (*TrainedModel, error) {
	set, err := s.source.TrainingData(ctx, retailerID, productID)
	if err != nil {
		return nil, err
	}

	if set.ObservedDays < s.minHistoryDays || len(set.Target) < s.minHistoryDays {
		return nil, fmt.Errorf("r%d/p%d has %d usable days, need %d: %w",
			retailerID, productID, set.ObservedDays, s.minHistoryDays, domain.ErrInsufficientHistory)
	}

	split := len(set.Target) - s.validationDays
	booster, err := regress.Fit(
		set.Features[:split], set.Target[:split],
		set.Features[split:], set.Target[split:],
		s.params,
	)
	if err != nil {
		return nil, fmt.Errorf("fit r%d/p%d: %w: %v", retailerID, productID, domain.ErrComputeFailure, err)
	}

	model := &TrainedModel{
		Booster:      booster,
		Features:     set.Columns,
		TrainingRows: len(set.Target),
		TrainedAt:    s.now(),
	}

	raw, err := json.Marshal(model)
	if err != nil {
		return nil, fmt.Errorf("encode model r%d/p%d: %w", retailerID, productID, err)
	}
	if err := s.artifacts.Put(ctx, Key(retailerID, productID), raw); err != nil {
		return nil, fmt.Errorf("persist model r%d/p%d: %w", retailerID, productID, err)
	}

	log.Debug().
		Int64("retailer_id", retailerID).
		Int64("product_id", productID).
		Int("rows", model.TrainingRows).
		Int("trees", booster.NumTrees()).
		Msg("trained demand model")

	return model, nil
}

// LoadOrTrain returns the persisted model for the pair, training a new one
// when the artifact is absent, stale, unreadable, schema-mismatched, or when
// forceRetrain is set. This is the only entry point forecast callers use.
func (s *Store) LoadOrTrain(ctx context.Context, retailerID, productID int64, forceRetrain bool) (*TrainedModel, error) {
	if forceRetrain {
		return s.Train(ctx, retailerID, productID)
	}

	model, err := s.load(ctx, retailerID, productID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return s.Train(ctx, retailerID, productID)
		}
		if errors.Is(err, domain.ErrModelArtifactCorrupt) {
			log.Warn().Err(err).
				Int64("retailer_id", retailerID).
				Int64("product_id", productID).
				Msg("discarding unusable model artifact")
			return s.Train(ctx, retailerID, productID)
		}
		return nil, err
	}

	if s.maxAge > 0 && s.now().Sub(model.TrainedAt) > s.maxAge {
		return s.Train(ctx, retailerID, productID)
	}

	return model, nil
}

// Importance maps feature names to accumulated split gain for the pair's
// persisted model. ErrNotFound when no model exists.
func (s *Store) Importance(ctx context.Context, retailerID, productID int64) (map[string]float64, error) {
	model, err := s.load(ctx, retailerID, productID)
	if err != nil {
		return nil, err
	}

	gains := model.Booster.FeatureImportance()
	out := make(map[string]float64, len(model.Features))
	for i, name := range model.Features {
		if i < len(gains) {
			out[name] = gains[i]
		}
	}
	return out, nil
}

func (s *Store) load(ctx context.Context, retailerID, productID int64) (*TrainedModel, error) {
	raw, err := s.artifacts.Get(ctx, Key(retailerID, productID))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("read model r%d/p%d: %w", retailerID, productID, err)
	}

	var model TrainedModel
	if err := json.Unmarshal(raw, &model); err != nil {
		return nil, fmt.Errorf("decode model r%d/p%d: %w: %v", retailerID, productID, domain.ErrModelArtifactCorrupt, err)
	}
	if model.Booster == nil || !schemaMatches(model.Features, s.columns) {
		return nil, fmt.Errorf("model r%d/p%d schema mismatch: %w", retailerID, productID, domain.ErrModelArtifactCorrupt)
	}

	return &model, nil
}

func schemaMatches(stored, current []string) bool {
	if len(stored) != len(current) {
		return false
	}
	for i := range stored {
		if stored[i] != current[i] {
			return false
		}
	}
	return true
}
