package classifier

import (
	"encoding/json"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharedcode/healthai"
)

// blobs builds a well-separated two-class dataset: class 0 clusters around
// the origin, class 1 around (4, 4, 4, 4).
func blobs(n int, seed int64) ([][]float64, []int) {
	rng := rand.New(rand.NewSource(seed))
	var X [][]float64
	var y []int
	for i := 0; i < n; i++ {
		label := i % 2
		center := float64(label) * 4
		row := make([]float64, 4)
		for j := range row {
			row[j] = center + rng.NormFloat64()*0.5
		}
		X = append(X, row)
		y = append(y, label)
	}
	return X, y
}

func trainAccuracy(t *testing.T, c healthai.Classifier, X [][]float64, y []int) float64 {
	t.Helper()
	correct := 0
	for i, row := range X {
		probs, err := c.PredictProba(row)
		require.NoError(t, err)
		best := 0
		for k, p := range probs {
			if p > probs[best] {
				best = k
			}
		}
		if best == y[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(X))
}

func TestClassifiersLearnSeparableData(t *testing.T) {
	X, y := blobs(80, 11)
	for _, name := range Names {
		t.Run(name, func(t *testing.T) {
			c, err := New(name, 3)
			require.NoError(t, err)
			assert.Equal(t, name, c.Name())
			require.NoError(t, c.Fit(X, y, 2))

			acc := trainAccuracy(t, c, X, y)
			assert.GreaterOrEqual(t, acc, 0.9, "%s failed to separate the blobs (accuracy %v)", name, acc)
		})
	}
}

func TestPredictProbaIsDistribution(t *testing.T) {
	X, y := blobs(60, 5)
	for _, name := range Names {
		t.Run(name, func(t *testing.T) {
			c, err := New(name, 9)
			require.NoError(t, err)
			require.NoError(t, c.Fit(X, y, 2))

			probs, err := c.PredictProba(X[0])
			require.NoError(t, err)
			require.Len(t, probs, 2)

			var sum float64
			for _, p := range probs {
				assert.GreaterOrEqual(t, p, 0.0)
				assert.LessOrEqual(t, p, 1.0)
				sum += p
			}
			assert.InDelta(t, 1.0, sum, 1e-9)
		})
	}
}

func TestFitValidation(t *testing.T) {
	for _, name := range Names {
		c, err := New(name, 1)
		require.NoError(t, err)
		assert.Error(t, c.Fit(nil, nil, 2), "%s accepted an empty dataset", name)
		assert.Error(t, c.Fit([][]float64{{1}}, []int{0, 1}, 2), "%s accepted mismatched labels", name)
		assert.Error(t, c.Fit([][]float64{{1}}, []int{0}, 0), "%s accepted zero classes", name)
	}
}

func TestJSONRoundTripPreservesPredictions(t *testing.T) {
	X, y := blobs(60, 21)
	for _, name := range Names {
		t.Run(name, func(t *testing.T) {
			c, err := New(name, 17)
			require.NoError(t, err)
			require.NoError(t, c.Fit(X, y, 2))

			raw, err := json.Marshal(c)
			require.NoError(t, err)
			restored, err := New(name, 0)
			require.NoError(t, err)
			require.NoError(t, json.Unmarshal(raw, restored))

			for i := 0; i < 10; i++ {
				want, err := c.PredictProba(X[i])
				require.NoError(t, err)
				got, err := restored.PredictProba(X[i])
				require.NoError(t, err)
				require.Len(t, got, len(want))
				for k := range want {
					assert.InDeltaf(t, want[k], got[k], 1e-9, "%s drifted after reload (sample %d class %d)", name, i, k)
				}
			}
		})
	}
}

func TestDeterministicPerSeed(t *testing.T) {
	X, y := blobs(60, 33)
	for _, name := range []string{"random_forest", "svm", "neural_network"} {
		t.Run(name, func(t *testing.T) {
			a, err := New(name, 42)
			require.NoError(t, err)
			require.NoError(t, a.Fit(X, y, 2))
			b, err := New(name, 42)
			require.NoError(t, err)
			require.NoError(t, b.Fit(X, y, 2))

			for i := 0; i < 5; i++ {
				pa, err := a.PredictProba(X[i])
				require.NoError(t, err)
				pb, err := b.PredictProba(X[i])
				require.NoError(t, err)
				assert.Equal(t, pa, pb)
			}
		})
	}
}

func TestGaussianNBVarianceSmoothing(t *testing.T) {
	// A constant feature must not blow up the likelihood.
	X := [][]float64{{1, 0}, {1, 1}, {5, 0}, {5, 1}}
	y := []int{0, 0, 1, 1}
	g := NewGaussianNB()
	require.NoError(t, g.Fit(X, y, 2))

	probs, err := g.PredictProba([]float64{1, 0.5})
	require.NoError(t, err)
	for _, p := range probs {
		assert.False(t, math.IsNaN(p) || math.IsInf(p, 0))
	}
	assert.Greater(t, probs[0], probs[1])
}

func TestDecisionTreePureNodeStopsEarly(t *testing.T) {
	X := [][]float64{{0}, {0.1}, {0.2}}
	y := []int{1, 1, 1}
	tree := &decisionTree{MaxDepth: 5, MinSplit: 2, MaxFeatures: 1}
	tree.fit(X, y, []float64{1, 1, 1}, []int{0, 1, 2}, 2, rand.New(rand.NewSource(1)))

	if len(tree.Nodes) != 1 || tree.Nodes[0].Feature != -1 {
		t.Fatalf("single-class data should produce one leaf, got %d nodes", len(tree.Nodes))
	}
	probs := tree.predictProba([]float64{0.05})
	assert.Equal(t, []float64{0, 1}, probs)
}

func TestUnknownClassifierName(t *testing.T) {
	_, err := New("boosted_llama", 1)
	assert.Error(t, err)

	defaults := Defaults(1)
	assert.Len(t, defaults, len(Names))
	for _, name := range Names {
		require.NotNil(t, defaults[name])
	}
}
