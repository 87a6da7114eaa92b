package regress

import (
	"math/rand"
	"sort"
)

// Node is one node of a regression tree. Exported fields keep the tree
// JSON-serializable inside a persisted model artifact.
type Node struct {
	Leaf      bool    `json:"leaf"`
	Feature   int     `json:"feature,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
	Value     float64 `json:"value,omitempty"`
	Left      *Node   `json:"left,omitempty"`
	Right     *Node   `json:"right,omitempty"`
}

func (n *Node) predict(x []float64) float64 {
	for !n.Leaf {
		if x[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Value
}

type treeGrower struct {
	features [][]float64
	params   Params
	rng      *rand.Rand
	gain     []float64 // accumulated split gain per feature, shared with the booster
}

// grow fits a tree to target over the rows in idx.
func (g *treeGrower) grow(idx []int, target []float64, depth int) *Node {
	if depth >= g.params.MaxDepth || len(idx) < 2*g.params.MinSamplesLeaf {
		return &Node{Leaf: true, Value: meanAt(target, idx)}
	}

	feat, threshold, gain, ok := g.bestSplit(idx, target)
	if !ok {
		return &Node{Leaf: true, Value: meanAt(target, idx)}
	}
	g.gain[feat] += gain

	var left, right []int
	for _, i := range idx {
		if g.features[i][feat] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	return &Node{
		Feature:   feat,
		Threshold: threshold,
		Left:      g.grow(left, target, depth+1),
		Right:     g.grow(right, target, depth+1),
	}
}

// bestSplit scans the sampled feature subset for the split with the largest
// sum-of-squared-error reduction that leaves MinSamplesLeaf rows on each side.
func (g *treeGrower) bestSplit(idx []int, target []float64) (feature int, threshold, gain float64, ok bool) {
	numFeatures := len(g.features[0])
	sampled := g.sampleFeatures(numFeatures)

	n := float64(len(idx))
	var sumTotal float64
	for _, i := range idx {
		sumTotal += target[i]
	}
	parentScore := sumTotal * sumTotal / n

	order := make([]int, len(idx))
	bestGain := 1e-12

	for _, f := range sampled {
		copy(order, idx)
		sort.Slice(order, func(a, b int) bool {
			return g.features[order[a]][f] < g.features[order[b]][f]
		})

		var sumLeft float64
		for pos := 0; pos < len(order)-1; pos++ {
			i := order[pos]
			sumLeft += target[i]

			// cannot split between identical feature values
			cur, next := g.features[i][f], g.features[order[pos+1]][f]
			if cur == next {
				continue
			}

			nLeft := pos + 1
			nRight := len(order) - nLeft
			if nLeft < g.params.MinSamplesLeaf || nRight < g.params.MinSamplesLeaf {
				continue
			}

			sumRight := sumTotal - sumLeft
			score := sumLeft*sumLeft/float64(nLeft) + sumRight*sumRight/float64(nRight)
			if split := score - parentScore; split > bestGain {
				bestGain = split
				feature = f
				threshold = (cur + next) / 2
				ok = true
			}
		}
	}

	return feature, threshold, bestGain, ok
}

func (g *treeGrower) sampleFeatures(numFeatures int) []int {
	count := int(g.params.FeatureFraction*float64(numFeatures) + 0.5)
	if count < 1 {
		count = 1
	}
	if count >= numFeatures {
		all := make([]int, numFeatures)
		for i := range all {
			all[i] = i
		}
		return all
	}
	sampled := g.rng.Perm(numFeatures)[:count]
	sort.Ints(sampled)
	return sampled
}

func meanAt(values []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	var sum float64
	for _, i := range idx {
		sum += values[i]
	}
	return sum / float64(len(idx))
}
