// Package feature converts symptom reports into the fixed-length numeric
// vectors consumed by the classifiers, and owns the fitted preprocessing
// artifacts (standard scaler, label encoder).
package feature

import (
	"github.com/sharedcode/healthai"
	"github.com/sharedcode/healthai/knowledge"
)

// Vectorize maps symptom reports onto a severity vector with one slot per
// catalog symptom, in catalog order. Reports whose name has no catalog match
// contribute nothing. A fresh buffer is allocated on every call so concurrent
// inference never shares mutable state.
func Vectorize(reports []healthai.SymptomReport, kb *knowledge.Base) []float64 {
	vec := make([]float64, len(kb.Symptoms()))
	for _, r := range reports {
		if idx, ok := kb.SymptomIndex(r.SymptomName); ok {
			vec[idx] = float64(r.Severity)
		}
	}
	return vec
}
