package classifier

import (
	"fmt"
	"math"
)

// GaussianNB is a Gaussian naive Bayes classifier: features are modeled as
// independent normals per class, with a variance-smoothing floor so
// zero-variance features stay numerically stable.
type GaussianNB struct {
	VarSmoothing float64     `json:"var_smoothing"`
	Priors       []float64   `json:"priors,omitempty"`
	Means        [][]float64 `json:"means,omitempty"`
	Variances    [][]float64 `json:"variances,omitempty"`
}

// NewGaussianNB creates an unfitted model with the standard smoothing factor.
func NewGaussianNB() *GaussianNB {
	return &GaussianNB{VarSmoothing: 1e-9}
}

// Name implements healthai.Classifier.
func (g *GaussianNB) Name() string { return "naive_bayes" }

// Fit estimates per-class feature means, variances, and class priors.
func (g *GaussianNB) Fit(X [][]float64, y []int, classes int) error {
	if err := validateFit(X, y, classes); err != nil {
		return fmt.Errorf("naive_bayes: %w", err)
	}
	dim := len(X[0])
	g.Priors = make([]float64, classes)
	g.Means = make([][]float64, classes)
	g.Variances = make([][]float64, classes)
	counts := make([]float64, classes)

	for c := 0; c < classes; c++ {
		g.Means[c] = make([]float64, dim)
		g.Variances[c] = make([]float64, dim)
	}
	for i, row := range X {
		c := y[i]
		counts[c]++
		for j, v := range row {
			g.Means[c][j] += v
		}
	}
	for c := 0; c < classes; c++ {
		if counts[c] == 0 {
			continue
		}
		for j := 0; j < dim; j++ {
			g.Means[c][j] /= counts[c]
		}
	}
	for i, row := range X {
		c := y[i]
		for j, v := range row {
			d := v - g.Means[c][j]
			g.Variances[c][j] += d * d
		}
	}

	// Smoothing floor proportional to the largest overall feature variance,
	// same scheme scikit-learn uses.
	maxVar := g.maxOverallVariance(X)
	eps := g.VarSmoothing * maxVar
	if eps == 0 {
		eps = g.VarSmoothing
	}
	n := float64(len(X))
	for c := 0; c < classes; c++ {
		g.Priors[c] = counts[c] / n
		for j := 0; j < dim; j++ {
			if counts[c] > 0 {
				g.Variances[c][j] = g.Variances[c][j]/counts[c] + eps
			} else {
				g.Variances[c][j] = eps
			}
		}
	}
	return nil
}

func (g *GaussianNB) maxOverallVariance(X [][]float64) float64 {
	dim := len(X[0])
	n := float64(len(X))
	maxVar := 0.0
	for j := 0; j < dim; j++ {
		var mean, sq float64
		for _, row := range X {
			mean += row[j]
		}
		mean /= n
		for _, row := range X {
			d := row[j] - mean
			sq += d * d
		}
		if v := sq / n; v > maxVar {
			maxVar = v
		}
	}
	return maxVar
}

// PredictProba computes the posterior in log space and normalizes with the
// log-sum-exp trick.
func (g *GaussianNB) PredictProba(x []float64) ([]float64, error) {
	if len(g.Means) == 0 {
		return nil, fmt.Errorf("naive_bayes is not fitted")
	}
	if len(x) != len(g.Means[0]) {
		return nil, fmt.Errorf("naive_bayes: feature length %d does not match fitted width %d", len(x), len(g.Means[0]))
	}
	classes := len(g.Priors)
	logPost := make([]float64, classes)
	for c := 0; c < classes; c++ {
		lp := math.Inf(-1)
		if g.Priors[c] > 0 {
			lp = math.Log(g.Priors[c])
		}
		for j, v := range x {
			variance := g.Variances[c][j]
			d := v - g.Means[c][j]
			lp -= 0.5 * (math.Log(2*math.Pi*variance) + d*d/variance)
		}
		logPost[c] = lp
	}

	maxLP := math.Inf(-1)
	for _, lp := range logPost {
		if lp > maxLP {
			maxLP = lp
		}
	}
	probs := make([]float64, classes)
	var sum float64
	for c, lp := range logPost {
		probs[c] = math.Exp(lp - maxLP)
		sum += probs[c]
	}
	for c := range probs {
		probs[c] /= sum
	}
	return probs, nil
}
