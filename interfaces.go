package healthai

// RiskLevel is the clinical-urgency classification used throughout the engine.
type RiskLevel string

const (
	// RiskLow indicates symptoms manageable with self-care and monitoring.
	RiskLow RiskLevel = "low"
	// RiskMedium indicates a healthcare provider visit is advisable within a week.
	RiskMedium RiskLevel = "medium"
	// RiskHigh indicates a provider visit is needed within 24-48 hours.
	RiskHigh RiskLevel = "high"
	// RiskUrgent indicates immediate medical attention is required.
	RiskUrgent RiskLevel = "urgent"
)

// Valid reports whether r is one of the four defined tiers.
func (r RiskLevel) Valid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh, RiskUrgent:
		return true
	}
	return false
}

// Severity bounds for a SymptomReport (1=Mild, 2=Moderate, 3=Severe, 4=Very Severe).
const (
	SeverityMin = 1
	SeverityMax = 4
)

// SymptomReport is a single patient-reported symptom observation.
// SymptomName is matched case-insensitively against the symptom catalog;
// names with no catalog match are silently ignored by every scoring path.
type SymptomReport struct {
	SymptomName  string `json:"symptom_name"`
	Severity     int    `json:"severity"`
	DurationDays int    `json:"duration_days"`
}

// DiseaseScore is one ranked disease candidate in a Result.
// Confidence is a percentage in [0, 100].
type DiseaseScore struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Confidence  float64   `json:"confidence"`
	RiskLevel   RiskLevel `json:"risk_level"`
	Treatment   string    `json:"treatment"`
	Specialist  string    `json:"specialist"`
	Urgency     string    `json:"urgency"`
}

// Identifiers reported in Result.ModelUsed. Individual algorithm names
// (e.g. "random_forest") appear when the best-single-model policy is used.
const (
	ModelEnsemble  = "ensemble"
	ModelRuleBased = "rule_based"
	ModelFallback  = "fallback"
	ModelNone      = "none"
)

// Result is the structured verdict of one inference call.
type Result struct {
	PredictedDiseases  []DiseaseScore `json:"predicted_diseases"`
	RiskLevel          RiskLevel      `json:"risk_level"`
	Recommendations    string         `json:"recommendations"`
	SpecialistReferral string         `json:"specialist_referral"`
	MLConfidence       float64        `json:"ml_confidence"`
	ModelUsed          string         `json:"model_used"`
}

// Outcome is the discriminated result of an ML prediction attempt.
// When OK is false, Reason explains why the ML path could not produce a
// prediction and Result holds a defined zero-confidence fallback verdict,
// so callers that do not have a rule-based path still get a usable value.
type Outcome struct {
	OK     bool
	Result Result
	Reason string
}

// Available wraps a successful prediction.
func Available(r Result) Outcome {
	return Outcome{OK: true, Result: r}
}

// Unavailable marks a failed prediction attempt with an inspectable reason.
// The embedded Result is the documented fallback verdict.
func Unavailable(reason string) Outcome {
	return Outcome{
		OK:     false,
		Reason: reason,
		Result: Result{
			PredictedDiseases:  []DiseaseScore{},
			RiskLevel:          RiskMedium,
			Recommendations:    "ML models not available. Please consult a healthcare provider for proper diagnosis.",
			SpecialistReferral: "General Practitioner",
			MLConfidence:       0.0,
			ModelUsed:          ModelFallback,
		},
	}
}

// Classifier is a multi-class probabilistic classifier trained on dense
// feature rows with integer class labels in [0, classes).
type Classifier interface {
	// Name returns the algorithm identifier (e.g. "random_forest").
	Name() string
	// Fit trains the classifier. X rows all share one width; y[i] labels X[i].
	Fit(X [][]float64, y []int, classes int) error
	// PredictProba returns the class-probability distribution for one row.
	// The returned slice has length classes and sums to 1.
	PredictProba(x []float64) ([]float64, error)
}

// ModelStats records the evaluation scores of one trained classifier.
type ModelStats struct {
	TestAccuracy float64 `json:"test_accuracy"`
	CVAccuracy   float64 `json:"cv_accuracy"`
	CVStd        float64 `json:"cv_std"`
}

// ModelComparison is one row of the model-comparison report.
type ModelComparison struct {
	TestAccuracy float64 `json:"test_accuracy"`
	CVAccuracy   float64 `json:"cv_accuracy"`
	CVStd        float64 `json:"cv_std"`
	Status       string  `json:"status"` // "trained" or "failed"
}
