// Package rules implements the deterministic, explainable disease scorer
// used whenever the ML ensemble is unavailable or insufficiently confident.
package rules

import (
	"math"
	"sort"
	"strings"

	"github.com/sharedcode/healthai"
	"github.com/sharedcode/healthai/knowledge"
	"github.com/sharedcode/healthai/policy"
)

// maxCandidates caps how many ranked diseases a prediction returns.
const maxCandidates = 5

// Scorer scores diseases by the fraction of their characteristic symptoms
// present in the report, plus a small severity bonus.
type Scorer struct {
	kb *knowledge.Base
}

// NewScorer creates a scorer over the given knowledge base.
func NewScorer(kb *knowledge.Base) *Scorer {
	return &Scorer{kb: kb}
}

// Predict runs the full rule-based path: score every disease, rank, derive
// risk and recommendations. It never fails; an empty or unmatched report
// yields an empty candidate list at low risk.
func (s *Scorer) Predict(reports []healthai.SymptomReport) healthai.Result {
	reported := make(map[string]int, len(reports))
	for _, r := range reports {
		reported[strings.ToLower(r.SymptomName)] = r.Severity
	}

	var scores []healthai.DiseaseScore
	for _, d := range s.kb.Diseases() {
		confidence := scoreDisease(d, reported)
		if confidence <= 0 {
			continue
		}
		scores = append(scores, healthai.DiseaseScore{
			Name:        d.Name,
			Description: d.Description,
			Confidence:  confidence,
			RiskLevel:   d.RiskLevel,
			Treatment:   d.Treatment,
			Specialist:  d.Specialist,
			Urgency:     d.Urgency,
		})
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].Confidence > scores[j].Confidence })

	risk := policy.RuleBasedRisk(scores, reports)
	recommendations := policy.RuleBasedRecommendations(scores, risk)
	referral := policy.Referral(scores)

	if len(scores) > maxCandidates {
		scores = scores[:maxCandidates]
	}
	if scores == nil {
		scores = []healthai.DiseaseScore{}
	}
	return healthai.Result{
		PredictedDiseases:  scores,
		RiskLevel:          risk,
		Recommendations:    recommendations,
		SpecialistReferral: referral,
		MLConfidence:       0.0,
		ModelUsed:          healthai.ModelRuleBased,
	}
}

// scoreDisease computes match-fraction percent plus a severity bonus capped
// at 10 points, rounded to one decimal. Diseases with no characteristic
// symptoms score zero.
func scoreDisease(d knowledge.Disease, reported map[string]int) float64 {
	if len(d.Symptoms) == 0 {
		return 0
	}

	var matching int
	var severityBonus float64
	for _, symptom := range d.Symptoms {
		severity, ok := reported[strings.ToLower(symptom)]
		if !ok {
			continue
		}
		matching++
		severityBonus += math.Min(float64(severity)/4.0, 1.0) * 0.1
	}
	if matching == 0 {
		return 0
	}

	confidence := float64(matching)/float64(len(d.Symptoms))*100 + severityBonus*100
	confidence = math.Min(confidence, 100)
	return math.Round(confidence*10) / 10
}
