// Package regress implements gradient boosted regression trees with early
// stopping on a validation split. It is the training/prediction substrate
// behind the per-pair demand models: squared-error objective, depth-limited
// trees fit to residuals, deterministic for a fixed seed.
package regress

// Params controls boosting. Zero values fall back to DefaultParams.
type Params struct {
	NumRounds       int     // maximum boosting rounds
	LearningRate    float64 // shrinkage applied to each tree
	MaxDepth        int     // maximum tree depth
	MinSamplesLeaf  int     // minimum rows per leaf
	FeatureFraction float64 // fraction of features considered per tree
	EarlyStopping   int     // rounds without validation improvement before stopping
	Seed            int64   // RNG seed for feature sampling
}

// DefaultParams mirrors the tuning the service ships with.
func DefaultParams() Params {
	return Params{
		NumRounds:       100,
		LearningRate:    0.05,
		MaxDepth:        8,
		MinSamplesLeaf:  5,
		FeatureFraction: 0.9,
		EarlyStopping:   10,
		Seed:            42,
	}
}

func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.NumRounds <= 0 {
		p.NumRounds = d.NumRounds
	}
	if p.LearningRate <= 0 {
		p.LearningRate = d.LearningRate
	}
	if p.MaxDepth <= 0 {
		p.MaxDepth = d.MaxDepth
	}
	if p.MinSamplesLeaf <= 0 {
		p.MinSamplesLeaf = d.MinSamplesLeaf
	}
	if p.FeatureFraction <= 0 || p.FeatureFraction > 1 {
		p.FeatureFraction = d.FeatureFraction
	}
	if p.EarlyStopping <= 0 {
		p.EarlyStopping = d.EarlyStopping
	}
	return p
}
