package regress

import (
	"fmt"
	"math"
	"math/rand"
)

// Booster is a trained gradient boosted trees regressor. Fields are exported
// so the model store can round-trip it through JSON.
type Booster struct {
	BaseScore    float64   `json:"base_score"`
	LearningRate float64   `json:"learning_rate"`
	Trees        []*Node   `json:"trees"`
	Gain         []float64 `json:"gain"`
	BestValRMSE  float64   `json:"best_val_rmse"`
}

// Fit trains a booster on (features, target), using the validation split for
// early stopping: boosting stops once validation RMSE has not improved for
// Params.EarlyStopping rounds, and the returned booster is truncated to the
// best iteration.
func Fit(features [][]float64, target []float64, valFeatures [][]float64, valTarget []float64, params Params) (*Booster, error) {
	if len(features) == 0 || len(features) != len(target) {
		return nil, fmt.Errorf("training set has %d rows for %d targets", len(features), len(target))
	}
	if len(valFeatures) == 0 || len(valFeatures) != len(valTarget) {
		return nil, fmt.Errorf("validation set has %d rows for %d targets", len(valFeatures), len(valTarget))
	}
	params = params.withDefaults()

	numFeatures := len(features[0])
	base := mean(target)
	b := &Booster{
		BaseScore:    base,
		LearningRate: params.LearningRate,
		Gain:         make([]float64, numFeatures),
	}

	grower := &treeGrower{
		features: features,
		params:   params,
		rng:      rand.New(rand.NewSource(params.Seed)),
		gain:     b.Gain,
	}

	idx := make([]int, len(features))
	for i := range idx {
		idx[i] = i
	}

	trainPred := constSlice(len(target), base)
	valPred := constSlice(len(valTarget), base)

	residual := make([]float64, len(target))

	bestRMSE := rmse(valTarget, valPred)
	bestRound := 0
	sinceBest := 0

	for round := 1; round <= params.NumRounds; round++ {
		for i := range target {
			residual[i] = target[i] - trainPred[i]
		}

		tree := grower.grow(idx, residual, 0)
		b.Trees = append(b.Trees, tree)

		for i, x := range features {
			trainPred[i] += params.LearningRate * tree.predict(x)
		}
		for i, x := range valFeatures {
			valPred[i] += params.LearningRate * tree.predict(x)
		}

		if v := rmse(valTarget, valPred); v < bestRMSE-1e-12 {
			bestRMSE = v
			bestRound = round
			sinceBest = 0
		} else {
			sinceBest++
			if sinceBest >= params.EarlyStopping {
				break
			}
		}
	}

	b.Trees = b.Trees[:bestRound]
	b.BestValRMSE = bestRMSE
	return b, nil
}

// Predict scores a single feature vector.
func (b *Booster) Predict(x []float64) float64 {
	out := b.BaseScore
	for _, t := range b.Trees {
		out += b.LearningRate * t.predict(x)
	}
	return out
}

// PredictBatch scores each row of features.
func (b *Booster) PredictBatch(features [][]float64) []float64 {
	out := make([]float64, len(features))
	for i, x := range features {
		out[i] = b.Predict(x)
	}
	return out
}

// FeatureImportance returns the accumulated split gain per feature index.
func (b *Booster) FeatureImportance() []float64 {
	out := make([]float64, len(b.Gain))
	copy(out, b.Gain)
	return out
}

// NumTrees reports the boosting rounds kept after early stopping.
func (b *Booster) NumTrees() int {
	return len(b.Trees)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func rmse(actual, predicted []float64) float64 {
	var sum float64
	for i := range actual {
		d := actual[i] - predicted[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(actual)))
}

func constSlice(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
