package classifier

import (
	"fmt"
	"math"
	"math/rand"
)

// SVM is a one-vs-rest RBF-kernel support-vector classifier. Each binary
// problem is trained with stochastic subgradient descent on the hinge loss
// over the kernel expansion, with class-balanced update weights. Decision
// values are calibrated into probabilities with a Platt-style sigmoid fitted
// per class, then normalized across classes.
type SVM struct {
	Gamma        float64 `json:"gamma"` // 0 = scale by 1/(dim * var(X))
	Lambda       float64 `json:"lambda"`
	Epochs       int     `json:"epochs"`
	LearningRate float64 `json:"learning_rate"`
	Seed         int64   `json:"seed"`
	Classes      int     `json:"classes"`

	FittedGamma float64      `json:"fitted_gamma,omitempty"`
	SupportX    [][]float64  `json:"support_x,omitempty"`
	Alphas      [][]float64  `json:"alphas,omitempty"`     // [class][support]
	Intercepts  []float64    `json:"intercepts,omitempty"` // [class]
	Platt       [][2]float64 `json:"platt,omitempty"`      // [class]{A, B}
}

// NewSVM creates an unfitted classifier with the standard configuration.
func NewSVM(seed int64) *SVM {
	return &SVM{
		Lambda:       0.001,
		Epochs:       50,
		LearningRate: 0.05,
		Seed:         seed,
	}
}

// Name implements healthai.Classifier.
func (s *SVM) Name() string { return "svm" }

// Fit trains one binary hinge-loss machine per class over a shared kernel
// matrix, then fits the per-class probability calibration.
func (s *SVM) Fit(X [][]float64, y []int, classes int) error {
	if err := validateFit(X, y, classes); err != nil {
		return fmt.Errorf("svm: %w", err)
	}
	s.Classes = classes
	s.FittedGamma = s.Gamma
	if s.FittedGamma == 0 {
		s.FittedGamma = scaleGamma(X)
	}

	n := len(X)
	K := make([][]float64, n)
	for i := range K {
		K[i] = make([]float64, n)
		for j := 0; j <= i; j++ {
			k := rbf(X[i], X[j], s.FittedGamma)
			K[i][j] = k
			K[j][i] = k
		}
	}

	rng := rand.New(rand.NewSource(s.Seed))
	weights := balancedWeights(y, classes)
	alphas := make([][]float64, classes)
	intercepts := make([]float64, classes)
	s.Platt = make([][2]float64, classes)

	for c := 0; c < classes; c++ {
		yc := make([]float64, n)
		for i, label := range y {
			if label == c {
				yc[i] = 1
			} else {
				yc[i] = -1
			}
		}

		alpha := make([]float64, n)
		b := 0.0
		for epoch := 0; epoch < s.Epochs; epoch++ {
			for _, i := range rng.Perm(n) {
				f := b
				for j, a := range alpha {
					if a != 0 {
						f += a * K[i][j]
					}
				}
				if yc[i]*f < 1 {
					step := s.LearningRate * weights[i] * yc[i]
					alpha[i] += step
					b += step
				}
			}
			// L2 shrinkage once per epoch.
			decay := 1 - s.LearningRate*s.Lambda
			for j := range alpha {
				alpha[j] *= decay
			}
		}
		alphas[c] = alpha
		intercepts[c] = b

		// Calibration targets: training decision values vs binary labels.
		decisions := make([]float64, n)
		for i := range decisions {
			f := b
			for j, a := range alpha {
				if a != 0 {
					f += a * K[i][j]
				}
			}
			decisions[i] = f
		}
		s.Platt[c] = fitPlatt(decisions, yc)
	}

	// Keep only rows that carry a non-zero coefficient for some class.
	var keep []int
	for j := 0; j < n; j++ {
		for c := 0; c < classes; c++ {
			if alphas[c][j] != 0 {
				keep = append(keep, j)
				break
			}
		}
	}
	s.SupportX = make([][]float64, len(keep))
	s.Alphas = make([][]float64, classes)
	for c := 0; c < classes; c++ {
		s.Alphas[c] = make([]float64, len(keep))
	}
	for newJ, j := range keep {
		row := make([]float64, len(X[j]))
		copy(row, X[j])
		s.SupportX[newJ] = row
		for c := 0; c < classes; c++ {
			s.Alphas[c][newJ] = alphas[c][j]
		}
	}
	s.Intercepts = intercepts
	return nil
}

// PredictProba evaluates every class machine on x and normalizes the
// calibrated sigmoid outputs into a distribution.
func (s *SVM) PredictProba(x []float64) ([]float64, error) {
	if len(s.Alphas) == 0 {
		return nil, fmt.Errorf("svm is not fitted")
	}
	if len(s.SupportX) > 0 && len(x) != len(s.SupportX[0]) {
		return nil, fmt.Errorf("svm: feature length %d does not match fitted width %d", len(x), len(s.SupportX[0]))
	}

	kernels := make([]float64, len(s.SupportX))
	for j, sv := range s.SupportX {
		kernels[j] = rbf(x, sv, s.FittedGamma)
	}

	probs := make([]float64, s.Classes)
	var sum float64
	for c := 0; c < s.Classes; c++ {
		f := s.Intercepts[c]
		for j, k := range kernels {
			f += s.Alphas[c][j] * k
		}
		probs[c] = sigmoid(s.Platt[c][0]*f + s.Platt[c][1])
		sum += probs[c]
	}
	if sum == 0 {
		for c := range probs {
			probs[c] = 1 / float64(s.Classes)
		}
		return probs, nil
	}
	for c := range probs {
		probs[c] /= sum
	}
	return probs, nil
}

// scaleGamma mirrors the "scale" heuristic: 1 / (dim * var(X)).
func scaleGamma(X [][]float64) float64 {
	dim := len(X[0])
	var mean, count float64
	for _, row := range X {
		for _, v := range row {
			mean += v
			count++
		}
	}
	mean /= count
	var variance float64
	for _, row := range X {
		for _, v := range row {
			d := v - mean
			variance += d * d
		}
	}
	variance /= count
	if variance == 0 {
		variance = 1
	}
	return 1 / (float64(dim) * variance)
}

func rbf(a, b []float64, gamma float64) float64 {
	var distSq float64
	for i := range a {
		d := a[i] - b[i]
		distSq += d * d
	}
	return math.Exp(-gamma * distSq)
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

// fitPlatt fits p = sigmoid(A*f + B) to binary targets by gradient descent
// on the log loss.
func fitPlatt(decisions, yc []float64) [2]float64 {
	a, b := 1.0, 0.0
	n := float64(len(decisions))
	const iters = 300
	const lr = 0.1
	for it := 0; it < iters; it++ {
		var gradA, gradB float64
		for i, f := range decisions {
			target := 0.0
			if yc[i] > 0 {
				target = 1
			}
			p := sigmoid(a*f + b)
			gradA += (p - target) * f
			gradB += p - target
		}
		a -= lr * gradA / n
		b -= lr * gradB / n
	}
	return [2]float64{a, b}
}
