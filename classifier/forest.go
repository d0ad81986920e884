package classifier

import (
	"fmt"
	"math"
	"math/rand"
)

// RandomForest is a bagged ensemble of gini decision trees with per-tree
// bootstrap sampling, sqrt-feature subsampling, and class-balanced sample
// weights.
type RandomForest struct {
	NEstimators int             `json:"n_estimators"`
	MaxDepth    int             `json:"max_depth"`
	Seed        int64           `json:"seed"`
	Classes     int             `json:"classes"`
	Trees       []*decisionTree `json:"trees,omitempty"`
}

// NewRandomForest creates an unfitted forest with the standard configuration.
func NewRandomForest(seed int64) *RandomForest {
	return &RandomForest{
		NEstimators: 100,
		MaxDepth:    10,
		Seed:        seed,
	}
}

// Name implements healthai.Classifier.
func (f *RandomForest) Name() string { return "random_forest" }

// Fit trains NEstimators trees on bootstrap resamples of (X, y).
func (f *RandomForest) Fit(X [][]float64, y []int, classes int) error {
	if err := validateFit(X, y, classes); err != nil {
		return fmt.Errorf("random_forest: %w", err)
	}
	f.Classes = classes
	f.Trees = make([]*decisionTree, 0, f.NEstimators)

	rng := rand.New(rand.NewSource(f.Seed))
	weights := balancedWeights(y, classes)
	maxFeatures := int(math.Sqrt(float64(len(X[0]))))
	if maxFeatures < 1 {
		maxFeatures = 1
	}

	n := len(X)
	for t, nEst := 0, f.NEstimators; t < nEst; t++ {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = rng.Intn(n)
		}
		tree := &decisionTree{
			MaxDepth:    f.MaxDepth,
			MinSplit:    2,
			MaxFeatures: maxFeatures,
		}
		tree.fit(X, y, weights, idx, classes, rng)
		f.Trees = append(f.Trees, tree)
	}
	return nil
}

// PredictProba averages the leaf distributions of all trees.
func (f *RandomForest) PredictProba(x []float64) ([]float64, error) {
	if len(f.Trees) == 0 {
		return nil, fmt.Errorf("random_forest is not fitted")
	}
	probs := make([]float64, f.Classes)
	for _, tree := range f.Trees {
		for c, p := range tree.predictProba(x) {
			probs[c] += p
		}
	}
	for c := range probs {
		probs[c] /= float64(len(f.Trees))
	}
	return probs, nil
}
