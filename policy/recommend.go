package policy

import (
	"fmt"
	"strings"

	"github.com/sharedcode/healthai"
)

// Free-text building blocks shared by both recommendation composers.
var (
	headlines = map[healthai.RiskLevel]string{
		healthai.RiskUrgent: "URGENT: Seek immediate medical attention.",
		healthai.RiskHigh:   "HIGH PRIORITY: Schedule appointment with healthcare provider within 24-48 hours.",
		healthai.RiskMedium: "MODERATE: Consider scheduling appointment with healthcare provider within a week.",
		healthai.RiskLow:    "LOW RISK: Monitor symptoms and consider self-care measures.",
	}

	generalCare = []string{
		"Stay hydrated and get adequate rest",
		"Monitor your symptoms and their progression",
		"Contact healthcare provider if symptoms worsen",
	}
)

// NoSymptomsAdvice is the fixed response for an empty symptom report.
const NoSymptomsAdvice = "No symptoms reported. If you have health concerns, consult a healthcare provider."

// RuleBasedRecommendations composes the guidance text for the rule-based
// path. The leading candidate is only named when its match confidence is
// strong enough to be worth acting on.
func RuleBasedRecommendations(scores []healthai.DiseaseScore, risk healthai.RiskLevel) string {
	if len(scores) == 0 {
		return "No specific conditions identified. Maintain healthy lifestyle and consult healthcare provider if symptoms persist."
	}

	lines := []string{headlines[risk]}
	if top := scores[0]; top.Confidence > 60 {
		lines = append(lines,
			fmt.Sprintf("Most likely condition: %s", top.Name),
			fmt.Sprintf("Recommended treatment: %s", top.Treatment))
	}
	lines = append(lines, generalCare...)
	return strings.Join(lines, "\n")
}

// MLRecommendations composes the guidance text for the ML path. confidence
// is the ensemble vote share in [0, 1]; the confidence band is always spelled
// out so the reader knows how much to trust the prediction.
func MLRecommendations(top healthai.DiseaseScore, risk healthai.RiskLevel, confidence float64) string {
	lines := []string{headlines[risk]}

	pct := confidence * 100
	switch {
	case confidence > 0.8:
		lines = append(lines, fmt.Sprintf("AI Confidence: High (%.1f%%)", pct))
	case confidence > 0.6:
		lines = append(lines, fmt.Sprintf("AI Confidence: Medium (%.1f%%)", pct))
	default:
		lines = append(lines, fmt.Sprintf("AI Confidence: Low (%.1f%%) - Consider comprehensive evaluation", pct))
	}

	if top.Treatment != "" {
		lines = append(lines, fmt.Sprintf("Suggested approach: %s", top.Treatment))
	}
	lines = append(lines, generalCare...)
	return strings.Join(lines, "\n")
}

// Referral returns the specialist to route to: the top candidate's specialist
// when its confidence clears 50, otherwise a general practitioner.
func Referral(scores []healthai.DiseaseScore) string {
	if len(scores) > 0 && scores[0].Confidence > 50 {
		return scores[0].Specialist
	}
	return "General Practitioner"
}
