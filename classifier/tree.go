// Package classifier implements the four disease classifiers behind the
// ensemble: a random forest, an RBF-kernel SVM, a feed-forward neural
// network, and a Gaussian naive Bayes model. All state is JSON-serializable
// so fitted models round-trip through the artifact store.
package classifier

import (
	"fmt"
	"math/rand"
	"sort"
)

// treeNode is one node of a fitted decision tree, stored in a flat slice so
// the tree serializes without pointers. Feature == -1 marks a leaf.
type treeNode struct {
	Feature   int       `json:"f"`
	Threshold float64   `json:"t"`
	Left      int       `json:"l"`
	Right     int       `json:"r"`
	Probs     []float64 `json:"p,omitempty"`
}

// decisionTree is a CART-style tree split on weighted gini impurity.
// It is only used inside the random forest.
type decisionTree struct {
	MaxDepth    int        `json:"max_depth"`
	MinSplit    int        `json:"min_split"`
	MaxFeatures int        `json:"max_features"` // features tried per split; 0 = all
	Nodes       []treeNode `json:"nodes"`

	classes int
	rng     *rand.Rand
}

// fit grows the tree on the rows selected by idx, using per-sample weights.
func (t *decisionTree) fit(X [][]float64, y []int, weights []float64, idx []int, classes int, rng *rand.Rand) {
	t.classes = classes
	t.rng = rng
	t.Nodes = t.Nodes[:0]
	t.grow(X, y, weights, idx, 0)
}

// grow appends the subtree for idx and returns its node position.
func (t *decisionTree) grow(X [][]float64, y []int, weights []float64, idx []int, depth int) int {
	pos := len(t.Nodes)
	t.Nodes = append(t.Nodes, treeNode{Feature: -1})

	dist := classDistribution(y, weights, idx, t.classes)
	if depth >= t.MaxDepth || len(idx) < t.MinSplit || isPure(dist) {
		t.Nodes[pos].Probs = dist
		return pos
	}

	feature, threshold, ok := t.bestSplit(X, y, weights, idx)
	if !ok {
		t.Nodes[pos].Probs = dist
		return pos
	}

	var left, right []int
	for _, i := range idx {
		if X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		t.Nodes[pos].Probs = dist
		return pos
	}

	t.Nodes[pos].Feature = feature
	t.Nodes[pos].Threshold = threshold
	t.Nodes[pos].Left = t.grow(X, y, weights, left, depth+1)
	t.Nodes[pos].Right = t.grow(X, y, weights, right, depth+1)
	return pos
}

// bestSplit searches a random feature subset for the threshold with the
// lowest weighted gini impurity.
func (t *decisionTree) bestSplit(X [][]float64, y []int, weights []float64, idx []int) (int, float64, bool) {
	numFeatures := len(X[idx[0]])
	candidates := t.rng.Perm(numFeatures)
	if t.MaxFeatures > 0 && t.MaxFeatures < numFeatures {
		candidates = candidates[:t.MaxFeatures]
	}

	bestGini := parentGini(y, weights, idx, t.classes)
	bestFeature, bestThreshold := -1, 0.0
	found := false

	values := make([]float64, 0, len(idx))
	for _, f := range candidates {
		values = values[:0]
		for _, i := range idx {
			values = append(values, X[i][f])
		}
		sort.Float64s(values)

		for v := 1; v < len(values); v++ {
			if values[v] == values[v-1] {
				continue
			}
			threshold := (values[v] + values[v-1]) / 2
			g := splitGini(X, y, weights, idx, f, threshold, t.classes)
			if g < bestGini {
				bestGini, bestFeature, bestThreshold, found = g, f, threshold, true
			}
		}
	}
	return bestFeature, bestThreshold, found
}

// predictProba walks the tree and returns the leaf class distribution.
func (t *decisionTree) predictProba(x []float64) []float64 {
	pos := 0
	for {
		node := t.Nodes[pos]
		if node.Feature < 0 {
			return node.Probs
		}
		if x[node.Feature] <= node.Threshold {
			pos = node.Left
		} else {
			pos = node.Right
		}
	}
}

func classDistribution(y []int, weights []float64, idx []int, classes int) []float64 {
	dist := make([]float64, classes)
	var total float64
	for _, i := range idx {
		dist[y[i]] += weights[i]
		total += weights[i]
	}
	if total > 0 {
		for c := range dist {
			dist[c] /= total
		}
	}
	return dist
}

func isPure(dist []float64) bool {
	for _, p := range dist {
		if p > 0.9999 {
			return true
		}
	}
	return false
}

func giniOf(dist []float64) float64 {
	g := 1.0
	for _, p := range dist {
		g -= p * p
	}
	return g
}

func parentGini(y []int, weights []float64, idx []int, classes int) float64 {
	return giniOf(classDistribution(y, weights, idx, classes))
}

// splitGini is the weight-proportional gini of the two partitions produced by
// threshold on feature f.
func splitGini(X [][]float64, y []int, weights []float64, idx []int, f int, threshold float64, classes int) float64 {
	leftDist := make([]float64, classes)
	rightDist := make([]float64, classes)
	var leftW, rightW float64
	for _, i := range idx {
		if X[i][f] <= threshold {
			leftDist[y[i]] += weights[i]
			leftW += weights[i]
		} else {
			rightDist[y[i]] += weights[i]
			rightW += weights[i]
		}
	}
	total := leftW + rightW
	if total == 0 {
		return 1
	}
	normalize(leftDist, leftW)
	normalize(rightDist, rightW)
	return (leftW/total)*giniOf(leftDist) + (rightW/total)*giniOf(rightDist)
}

func normalize(dist []float64, total float64) {
	if total == 0 {
		return
	}
	for c := range dist {
		dist[c] /= total
	}
}

// validateFit checks the common Fit preconditions shared by all classifiers.
func validateFit(X [][]float64, y []int, classes int) error {
	if len(X) == 0 {
		return fmt.Errorf("empty training set")
	}
	if len(X) != len(y) {
		return fmt.Errorf("feature rows (%d) and labels (%d) differ in length", len(X), len(y))
	}
	if classes < 2 {
		return fmt.Errorf("need at least 2 classes, got %d", classes)
	}
	for _, label := range y {
		if label < 0 || label >= classes {
			return fmt.Errorf("label %d out of range [0, %d)", label, classes)
		}
	}
	return nil
}

// balancedWeights assigns each sample the weight n / (classes * classCount),
// so under-represented classes count as much as dominant ones.
func balancedWeights(y []int, classes int) []float64 {
	counts := make([]float64, classes)
	for _, label := range y {
		counts[label]++
	}
	weights := make([]float64, len(y))
	n := float64(len(y))
	for i, label := range y {
		weights[i] = n / (float64(classes) * counts[label])
	}
	return weights
}
