package ensemble

import (
	"math"

	log "log/slog"

	"github.com/sharedcode/healthai"
	"github.com/sharedcode/healthai/feature"
	"github.com/sharedcode/healthai/policy"
)

// unknownVote marks a model whose prediction failed; such votes carry no
// weight in the ensemble combination.
const unknownVote = "Unknown"

// vote is one model's (disease, confidence) prediction.
type vote struct {
	disease    string
	confidence float64
}

// Predict runs all loaded models on the reports and combines their votes.
// With useEnsemble false, the single historically-most-accurate model's own
// vote is used instead of the weighted combination.
//
// Failure modes never surface as errors: an untrained engine or a
// vectorization failure yields an Unavailable outcome carrying the
// documented fallback verdict.
func (e *Engine) Predict(reports []healthai.SymptomReport, useEnsemble bool) healthai.Outcome {
	e.ensureLoaded()
	e.mu.RLock()
	defer e.mu.RUnlock()

	if !e.trained {
		return healthai.Unavailable("models not trained")
	}

	if len(reports) == 0 {
		return healthai.Available(healthai.Result{
			PredictedDiseases:  []healthai.DiseaseScore{},
			RiskLevel:          healthai.RiskLow,
			Recommendations:    policy.NoSymptomsAdvice,
			SpecialistReferral: "General Practitioner",
			MLConfidence:       0.0,
			ModelUsed:          healthai.ModelNone,
		})
	}

	raw := feature.Vectorize(reports, e.kb)
	scaled, err := e.scaler.Transform(raw)
	if err != nil {
		return healthai.Unavailable("vectorization failed: " + err.Error())
	}

	// One (disease, confidence) vote per loaded model; a model that fails
	// to predict votes Unknown and is ignored by the combination.
	votes := make(map[string]vote, len(e.models))
	for name, model := range e.models {
		probs, perr := model.PredictProba(scaled)
		if perr != nil {
			log.Error("model prediction failed", "model", name, "error", perr)
			votes[name] = vote{disease: unknownVote}
			continue
		}
		best := argmax(probs)
		disease, derr := e.encoder.Decode(best)
		if derr != nil {
			log.Error("label decode failed", "model", name, "error", derr)
			votes[name] = vote{disease: unknownVote}
			continue
		}
		votes[name] = vote{disease: disease, confidence: probs[best]}
	}

	var winner string
	var confidence float64
	modelUsed := healthai.ModelEnsemble
	if useEnsemble {
		winner, confidence = e.combineVotes(votes)
	} else {
		modelUsed, winner, confidence = e.bestModelVote(votes)
	}

	info := e.kb.DiseaseInfo(winner)
	risk := policy.MLRisk(confidence, info.RiskLevel, reports)

	top := healthai.DiseaseScore{
		Name:        winner,
		Description: info.Description,
		Confidence:  round1(confidence * 100),
		RiskLevel:   info.RiskLevel,
		Treatment:   info.Treatment,
		Specialist:  info.Specialist,
		Urgency:     info.Urgency,
	}
	return healthai.Available(healthai.Result{
		PredictedDiseases:  []healthai.DiseaseScore{top},
		RiskLevel:          risk,
		Recommendations:    policy.MLRecommendations(top, risk, confidence),
		SpecialistReferral: info.Specialist,
		MLConfidence:       round1(confidence * 100),
		ModelUsed:          modelUsed,
	})
}

// combineVotes sums accuracy-weighted confidences per disease and returns
// the winner with its weight share. Unknown votes are discarded. Models with
// no recorded accuracy count at 0.5, same as an uninformative prior.
func (e *Engine) combineVotes(votes map[string]vote) (string, float64) {
	diseaseWeights := make(map[string]float64)
	var totalWeight float64

	for name, v := range votes {
		if v.disease == unknownVote {
			continue
		}
		modelAccuracy := 0.5
		if stats, ok := e.accuracies[name]; ok {
			modelAccuracy = stats.TestAccuracy
		}
		weight := modelAccuracy * v.confidence
		diseaseWeights[v.disease] += weight
		totalWeight += weight
	}

	if len(diseaseWeights) == 0 || totalWeight == 0 {
		return unknownVote, 0.0
	}
	var winner string
	var best float64
	for disease, weight := range diseaseWeights {
		if weight > best || (weight == best && (winner == "" || disease < winner)) {
			winner = disease
			best = weight
		}
	}
	return winner, best / totalWeight
}

// bestModelVote selects the vote of the model with the highest recorded test
// accuracy (the non-ensemble policy).
func (e *Engine) bestModelVote(votes map[string]vote) (string, string, float64) {
	var bestName string
	bestAccuracy := math.Inf(-1)
	for name := range e.accuracies {
		if acc := e.accuracies[name].TestAccuracy; acc > bestAccuracy {
			bestAccuracy = acc
			bestName = name
		}
	}
	v, ok := votes[bestName]
	if !ok {
		return bestName, unknownVote, 0.0
	}
	return bestName, v.disease, v.confidence
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
