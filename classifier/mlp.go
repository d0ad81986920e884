package classifier

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// matrix is the JSON form of a dense matrix; gonum's mat.Dense does not
// marshal directly.
type matrix struct {
	Rows int       `json:"rows"`
	Cols int       `json:"cols"`
	Data []float64 `json:"data"`
}

func fromDense(d *mat.Dense) matrix {
	raw := d.RawMatrix()
	data := make([]float64, len(raw.Data))
	copy(data, raw.Data)
	return matrix{Rows: raw.Rows, Cols: raw.Cols, Data: data}
}

func (m matrix) dense() *mat.Dense {
	return mat.NewDense(m.Rows, m.Cols, m.Data)
}

// MLP is a feed-forward neural network with ReLU hidden layers and a softmax
// output, trained by mini-batch gradient descent with momentum. Training
// holds out a validation fraction and stops early once validation loss stops
// improving.
type MLP struct {
	HiddenSizes        []int   `json:"hidden_sizes"`
	LearningRate       float64 `json:"learning_rate"`
	Momentum           float64 `json:"momentum"`
	BatchSize          int     `json:"batch_size"`
	MaxEpochs          int     `json:"max_epochs"`
	Patience           int     `json:"patience"`
	ValidationFraction float64 `json:"validation_fraction"`
	Seed               int64   `json:"seed"`
	Classes            int     `json:"classes"`

	Weights []matrix    `json:"weights,omitempty"`
	Biases  [][]float64 `json:"biases,omitempty"`
}

// NewMLP creates an unfitted network with the standard architecture.
func NewMLP(seed int64) *MLP {
	return &MLP{
		HiddenSizes:        []int{128, 64, 32},
		LearningRate:       0.01,
		Momentum:           0.9,
		BatchSize:          32,
		MaxEpochs:          1000,
		Patience:           10,
		ValidationFraction: 0.1,
		Seed:               seed,
	}
}

// Name implements healthai.Classifier.
func (m *MLP) Name() string { return "neural_network" }

// Fit trains the network on (X, y).
func (m *MLP) Fit(X [][]float64, y []int, classes int) error {
	if err := validateFit(X, y, classes); err != nil {
		return fmt.Errorf("neural_network: %w", err)
	}
	m.Classes = classes
	rng := rand.New(rand.NewSource(m.Seed))

	sizes := append([]int{len(X[0])}, m.HiddenSizes...)
	sizes = append(sizes, classes)
	weights := make([]*mat.Dense, len(sizes)-1)
	biases := make([]*mat.VecDense, len(sizes)-1)
	velW := make([]*mat.Dense, len(sizes)-1)
	velB := make([]*mat.VecDense, len(sizes)-1)
	for l := 0; l < len(sizes)-1; l++ {
		in, out := sizes[l], sizes[l+1]
		data := make([]float64, out*in)
		// He initialization for the ReLU layers.
		scale := math.Sqrt(2 / float64(in))
		for i := range data {
			data[i] = rng.NormFloat64() * scale
		}
		weights[l] = mat.NewDense(out, in, data)
		biases[l] = mat.NewVecDense(out, nil)
		velW[l] = mat.NewDense(out, in, nil)
		velB[l] = mat.NewVecDense(out, nil)
	}

	// Hold out the validation fraction for early stopping. Tiny datasets
	// train for a fixed epoch budget instead.
	perm := rng.Perm(len(X))
	nVal := int(float64(len(X)) * m.ValidationFraction)
	earlyStopping := nVal >= 1 && len(X)-nVal >= m.BatchSize
	valIdx, trainIdx := perm[:nVal], perm[nVal:]
	if !earlyStopping {
		trainIdx = perm
	}

	bestLoss := math.Inf(1)
	var bestW []*mat.Dense
	var bestB []*mat.VecDense
	sinceBest := 0

	for epoch := 0; epoch < m.MaxEpochs; epoch++ {
		rng.Shuffle(len(trainIdx), func(i, j int) { trainIdx[i], trainIdx[j] = trainIdx[j], trainIdx[i] })

		for start := 0; start < len(trainIdx); start += m.BatchSize {
			end := min(start+m.BatchSize, len(trainIdx))
			batch := trainIdx[start:end]

			gradW := make([]*mat.Dense, len(weights))
			gradB := make([]*mat.VecDense, len(weights))
			for l := range weights {
				r, c := weights[l].Dims()
				gradW[l] = mat.NewDense(r, c, nil)
				gradB[l] = mat.NewVecDense(r, nil)
			}

			for _, i := range batch {
				m.accumulateGradients(weights, biases, gradW, gradB, X[i], y[i])
			}

			scale := m.LearningRate / float64(len(batch))
			for l := range weights {
				var step mat.Dense
				step.Scale(scale, gradW[l])
				velW[l].Scale(m.Momentum, velW[l])
				velW[l].Sub(velW[l], &step)
				weights[l].Add(weights[l], velW[l])

				var stepB mat.VecDense
				stepB.ScaleVec(scale, gradB[l])
				velB[l].ScaleVec(m.Momentum, velB[l])
				velB[l].SubVec(velB[l], &stepB)
				biases[l].AddVec(biases[l], velB[l])
			}
		}

		if !earlyStopping {
			if epoch == 199 {
				break
			}
			continue
		}
		loss := m.datasetLoss(weights, biases, X, y, valIdx)
		if loss < bestLoss-1e-4 {
			bestLoss = loss
			sinceBest = 0
			bestW, bestB = cloneLayers(weights, biases)
		} else {
			sinceBest++
			if sinceBest >= m.Patience {
				break
			}
		}
	}
	if bestW != nil {
		weights, biases = bestW, bestB
	}

	m.Weights = make([]matrix, len(weights))
	m.Biases = make([][]float64, len(biases))
	for l := range weights {
		m.Weights[l] = fromDense(weights[l])
		b := make([]float64, biases[l].Len())
		copy(b, biases[l].RawVector().Data)
		m.Biases[l] = b
	}
	return nil
}

// forward runs one sample through the network, returning all pre-activations
// and activations (activations[0] is the input).
func forwardPass(weights []*mat.Dense, biases []*mat.VecDense, x []float64) (zs, activations []*mat.VecDense) {
	a := mat.NewVecDense(len(x), append([]float64(nil), x...))
	activations = append(activations, a)
	for l := range weights {
		out, _ := weights[l].Dims()
		z := mat.NewVecDense(out, nil)
		z.MulVec(weights[l], a)
		z.AddVec(z, biases[l])
		zs = append(zs, z)

		next := mat.NewVecDense(out, nil)
		if l == len(weights)-1 {
			softmaxVec(z, next)
		} else {
			reluVec(z, next)
		}
		activations = append(activations, next)
		a = next
	}
	return zs, activations
}

// accumulateGradients backpropagates one sample into the gradient buffers.
func (m *MLP) accumulateGradients(weights []*mat.Dense, biases []*mat.VecDense, gradW []*mat.Dense, gradB []*mat.VecDense, x []float64, label int) {
	zs, activations := forwardPass(weights, biases, x)

	// Output delta for softmax + cross-entropy: probs - onehot.
	last := len(weights) - 1
	delta := mat.NewVecDense(m.Classes, nil)
	delta.CopyVec(activations[len(activations)-1])
	delta.SetVec(label, delta.AtVec(label)-1)

	for l := last; l >= 0; l-- {
		var outer mat.Dense
		outer.Outer(1, delta, activations[l])
		gradW[l].Add(gradW[l], &outer)
		gradB[l].AddVec(gradB[l], delta)

		if l == 0 {
			break
		}
		prev := mat.NewVecDense(activations[l].Len(), nil)
		prev.MulVec(weights[l].T(), delta)
		// Gate by ReLU derivative of the previous layer's pre-activation.
		for i := 0; i < prev.Len(); i++ {
			if zs[l-1].AtVec(i) <= 0 {
				prev.SetVec(i, 0)
			}
		}
		delta = prev
	}
}

// datasetLoss computes mean cross-entropy over the given sample indices.
func (m *MLP) datasetLoss(weights []*mat.Dense, biases []*mat.VecDense, X [][]float64, y []int, idx []int) float64 {
	var loss float64
	for _, i := range idx {
		_, activations := forwardPass(weights, biases, X[i])
		p := activations[len(activations)-1].AtVec(y[i])
		if p < 1e-12 {
			p = 1e-12
		}
		loss -= math.Log(p)
	}
	return loss / float64(len(idx))
}

// PredictProba runs a forward pass and returns the softmax distribution.
func (m *MLP) PredictProba(x []float64) ([]float64, error) {
	if len(m.Weights) == 0 {
		return nil, fmt.Errorf("neural_network is not fitted")
	}
	if len(x) != m.Weights[0].Cols {
		return nil, fmt.Errorf("neural_network: feature length %d does not match fitted width %d", len(x), m.Weights[0].Cols)
	}
	weights := make([]*mat.Dense, len(m.Weights))
	biases := make([]*mat.VecDense, len(m.Biases))
	for l := range m.Weights {
		weights[l] = m.Weights[l].dense()
		biases[l] = mat.NewVecDense(len(m.Biases[l]), append([]float64(nil), m.Biases[l]...))
	}
	_, activations := forwardPass(weights, biases, x)
	out := activations[len(activations)-1]
	probs := make([]float64, out.Len())
	for i := range probs {
		probs[i] = out.AtVec(i)
	}
	return probs, nil
}

func reluVec(z, dst *mat.VecDense) {
	for i := 0; i < z.Len(); i++ {
		dst.SetVec(i, math.Max(0, z.AtVec(i)))
	}
}

func softmaxVec(z, dst *mat.VecDense) {
	maxV := math.Inf(-1)
	for i := 0; i < z.Len(); i++ {
		if v := z.AtVec(i); v > maxV {
			maxV = v
		}
	}
	var sum float64
	for i := 0; i < z.Len(); i++ {
		e := math.Exp(z.AtVec(i) - maxV)
		dst.SetVec(i, e)
		sum += e
	}
	for i := 0; i < z.Len(); i++ {
		dst.SetVec(i, dst.AtVec(i)/sum)
	}
}

func cloneLayers(weights []*mat.Dense, biases []*mat.VecDense) ([]*mat.Dense, []*mat.VecDense) {
	w := make([]*mat.Dense, len(weights))
	b := make([]*mat.VecDense, len(biases))
	for l := range weights {
		w[l] = mat.DenseCopyOf(weights[l])
		b[l] = mat.VecDenseCopyOf(biases[l])
	}
	return w, b
}
