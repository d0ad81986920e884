// Package engine is the public facade of the inference core: it owns the
// knowledge base, the ML ensemble, and the rule-based fallback, and decides
// per call which prediction path's verdict to return.
package engine

import (
	"context"

	log "log/slog"

	"github.com/sharedcode/healthai"
	"github.com/sharedcode/healthai/ensemble"
	"github.com/sharedcode/healthai/knowledge"
	"github.com/sharedcode/healthai/rules"
)

// MLConfidenceThreshold is the minimum ensemble confidence (percent) an ML
// verdict needs before the facade accepts it over the rule-based path.
const MLConfidenceThreshold = 40.0

// Predictor is the ML prediction surface the facade depends on. Satisfied by
// *ensemble.Engine; swappable in tests.
type Predictor interface {
	Predict(reports []healthai.SymptomReport, useEnsemble bool) healthai.Outcome
	IsTrained() bool
	Train(ctx context.Context) (map[string]float64, error)
	Comparison() map[string]healthai.ModelComparison
}

// Config holds the facade's construction parameters.
type Config struct {
	// SymptomsPath and DiseasesPath locate the two catalog files.
	SymptomsPath string
	DiseasesPath string
	// ArtifactDir is the trained-model storage directory.
	ArtifactDir string
	// Seed drives all stochastic training behavior.
	Seed int64
	// BestModelOnly switches prediction from weighted ensemble voting to
	// the single historically-most-accurate model.
	BestModelOnly bool
	// AutoTrain trains the ensemble during construction when no usable
	// artifacts exist.
	AutoTrain bool
}

// Engine is the inference facade. Construct once at process start and share;
// all loaded state is read-only between explicit retrains.
type Engine struct {
	kb       *knowledge.Base
	ml       Predictor
	rules    *rules.Scorer
	bestOnly bool
}

// New builds the engine: loads the knowledge base, wires the ensemble over
// the artifact directory, and optionally trains when artifacts are missing.
func New(ctx context.Context, cfg Config) *Engine {
	kb := knowledge.Load(cfg.SymptomsPath, cfg.DiseasesPath)
	ml := ensemble.New(kb, ensemble.Config{ArtifactDir: cfg.ArtifactDir, Seed: cfg.Seed})
	e := &Engine{
		kb:       kb,
		ml:       ml,
		rules:    rules.NewScorer(kb),
		bestOnly: cfg.BestModelOnly,
	}
	if cfg.AutoTrain && !ml.IsTrained() {
		if _, err := ml.Train(ctx); err != nil {
			log.Warn("startup training failed, predictions will use the rule-based path", "error", err)
		}
	}
	return e
}

// NewWithPredictor builds an engine over an existing knowledge base and a
// custom ML predictor.
func NewWithPredictor(kb *knowledge.Base, ml Predictor) *Engine {
	return &Engine{kb: kb, ml: ml, rules: rules.NewScorer(kb)}
}

// AnalyzeSymptoms maps symptom reports to a ranked disease verdict. It never
// fails: the ML path is tried first, and any unavailable or low-confidence
// ML outcome silently routes to the rule-based scorer. Exactly one path's
// result is returned.
func (e *Engine) AnalyzeSymptoms(reports []healthai.SymptomReport) healthai.Result {
	if len(reports) == 0 {
		return healthai.Result{
			PredictedDiseases: []healthai.DiseaseScore{},
			RiskLevel:         healthai.RiskLow,
			Recommendations:   "No symptoms reported. If you have health concerns, consult a healthcare provider.",
			ModelUsed:         healthai.ModelNone,
		}
	}

	outcome := e.ml.Predict(reports, !e.bestOnly)
	if outcome.OK && outcome.Result.MLConfidence > MLConfidenceThreshold {
		return outcome.Result
	}
	if !outcome.OK {
		log.Debug("ml prediction unavailable, using rule-based path", "reason", outcome.Reason)
	}
	return e.rules.Predict(reports)
}

// SearchSymptoms finds catalog symptoms matching the query.
func (e *Engine) SearchSymptoms(query string, limit int) []knowledge.Symptom {
	return e.kb.SearchSymptoms(query, limit)
}

// SymptomByName returns the catalog entry for a symptom name.
func (e *Engine) SymptomByName(name string) (knowledge.Symptom, bool) {
	return e.kb.SymptomByName(name)
}

// DiseaseInfo returns catalog details for a disease, defaulted when unknown.
func (e *Engine) DiseaseInfo(name string) knowledge.Disease {
	return e.kb.DiseaseInfo(name)
}

// SpecializationInfo returns reference details for a medical specialization.
func (e *Engine) SpecializationInfo(name string) knowledge.Specialization {
	return knowledge.SpecializationInfo(name)
}

// KnowledgeBase exposes the loaded catalogs.
func (e *Engine) KnowledgeBase() *knowledge.Base { return e.kb }

// Train fits the ensemble unless usable artifacts already exist.
func (e *Engine) Train(ctx context.Context) (map[string]float64, error) {
	if e.ml.IsTrained() {
		return nil, nil
	}
	return e.ml.Train(ctx)
}

// ForceRetrain unconditionally refits the ensemble, replacing existing
// artifacts.
func (e *Engine) ForceRetrain(ctx context.Context) (map[string]float64, error) {
	return e.ml.Train(ctx)
}

// ModelComparison reports per-algorithm accuracies and training status.
func (e *Engine) ModelComparison() map[string]healthai.ModelComparison {
	return e.ml.Comparison()
}
