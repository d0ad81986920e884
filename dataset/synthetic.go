// Package dataset manufactures the labeled training data for the disease
// classifiers. No real patient data exists, so examples are synthesized from
// the knowledge base by perturbing each disease's characteristic symptom set.
package dataset

import (
	"fmt"
	"math/rand"

	"github.com/sharedcode/healthai/knowledge"
)

// OtherLabel is the class assigned to negative samples that match no disease.
const OtherLabel = "Other"

// Generator produces synthetic labeled samples from a knowledge base.
// Randomness comes from the injected source so runs are reproducible.
type Generator struct {
	// PositivePerDisease is the number of characteristic-symptom samples
	// generated per disease.
	PositivePerDisease int
	// NegativePerDisease is the number of OtherLabel samples generated per
	// disease from unrelated symptoms.
	NegativePerDisease int

	kb  *knowledge.Base
	rng *rand.Rand
}

// NewGenerator creates a generator with the standard sample counts.
func NewGenerator(kb *knowledge.Base, seed int64) *Generator {
	return &Generator{
		PositivePerDisease: 20,
		NegativePerDisease: 5,
		kb:                 kb,
		rng:                rand.New(rand.NewSource(seed)),
	}
}

// Generate builds the dataset. Row width equals the symptom-catalog size.
// Diseases with no characteristic symptoms are skipped. Per disease:
//
//   - Positive samples: each characteristic symptom is present with 70%
//     probability at a severity drawn uniformly from [2, 4], plus up to two
//     noise symptoms at low severity in free slots.
//   - Negative samples: one to three symptoms drawn only from outside the
//     disease's characteristic set, labeled OtherLabel.
//
// Severity magnitude carries signal: true-positive symptoms skew severe,
// noise stays mild, so classifiers cannot key on presence alone.
func (g *Generator) Generate() (X [][]float64, labels []string, err error) {
	names := g.kb.SymptomNames()
	if len(names) == 0 || len(g.kb.Diseases()) == 0 {
		return nil, nil, fmt.Errorf("knowledge base has no symptoms or diseases to synthesize from")
	}

	for _, disease := range g.kb.Diseases() {
		// Resolve characteristic symptoms to catalog slots up front.
		var charIdx []int
		charSet := make(map[int]bool)
		for _, s := range disease.Symptoms {
			if idx, ok := g.kb.SymptomIndex(s); ok {
				charIdx = append(charIdx, idx)
				charSet[idx] = true
			}
		}
		if len(charIdx) == 0 {
			continue
		}

		for i, n := 0, g.PositivePerDisease; i < n; i++ {
			sample := make([]float64, len(names))
			for _, idx := range charIdx {
				if g.rng.Float64() > 0.3 {
					sample[idx] = g.uniform(2, 4)
				}
			}
			// 0-2 random noise symptoms at low severity, free slots only.
			for i, n := 0, g.rng.Intn(3); i < n; i++ {
				idx := g.rng.Intn(len(names))
				if sample[idx] == 0 {
					sample[idx] = g.uniform(1, 2)
				}
			}
			X = append(X, sample)
			labels = append(labels, disease.Name)
		}

		// Negative samples avoid every characteristic symptom of this disease.
		var available []int
		for i := range names {
			if !charSet[i] {
				available = append(available, i)
			}
		}
		for i, n := 0, g.NegativePerDisease; i < n; i++ {
			sample := make([]float64, len(names))
			if len(available) > 0 {
				count := min(1+g.rng.Intn(3), len(available))
				for _, idx := range g.sampleWithoutReplacement(available, count) {
					sample[idx] = g.uniform(1, 3)
				}
			}
			X = append(X, sample)
			labels = append(labels, OtherLabel)
		}
	}

	if len(X) == 0 {
		return nil, nil, fmt.Errorf("no disease in the catalog has usable characteristic symptoms")
	}
	return X, labels, nil
}

// uniform draws from [lo, hi).
func (g *Generator) uniform(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
}

// sampleWithoutReplacement picks count distinct values from pool.
func (g *Generator) sampleWithoutReplacement(pool []int, count int) []int {
	perm := g.rng.Perm(len(pool))
	out := make([]int, count)
	for i := 0; i < count; i++ {
		out[i] = pool[perm[i]]
	}
	return out
}
