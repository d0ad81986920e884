// Package policy derives the overall risk tier, recommendation text, and
// specialist referral from ranked disease candidates and the reported
// symptoms.
//
// The rule-based and ML paths carry separate threshold tables on purpose:
// rule-based confidences are symptom-match percentages while ML confidences
// are ensemble vote shares, and the two scales are calibrated differently.
// Both tables guarantee the same hard invariants: no reported symptoms maps
// to low risk, and any severity-4 symptom forces at least high risk.
package policy

import (
	"github.com/sharedcode/healthai"
)

// topCandidates is how many leading candidates the risk rules inspect.
const topCandidates = 3

// RuleBasedRisk evaluates the rule-based threshold table. scores must be
// sorted by descending confidence (percent scale).
func RuleBasedRisk(scores []healthai.DiseaseScore, reports []healthai.SymptomReport) healthai.RiskLevel {
	if len(reports) == 0 || len(scores) == 0 {
		return healthai.RiskLow
	}

	top := scores
	if len(top) > topCandidates {
		top = top[:topCandidates]
	}
	for _, d := range top {
		if d.RiskLevel == healthai.RiskUrgent && d.Confidence > 30 {
			return healthai.RiskUrgent
		}
	}
	for _, d := range top {
		if d.RiskLevel == healthai.RiskHigh && d.Confidence > 40 {
			return healthai.RiskHigh
		}
	}

	var verySevere, severe int
	for _, r := range reports {
		if r.Severity >= 4 {
			verySevere++
		}
		if r.Severity >= 3 {
			severe++
		}
	}
	if verySevere >= 1 {
		return healthai.RiskHigh
	}
	if severe >= 2 {
		return healthai.RiskHigh
	}

	for _, d := range top {
		if (d.RiskLevel == healthai.RiskMedium || d.RiskLevel == healthai.RiskHigh) && d.Confidence > 50 {
			return healthai.RiskMedium
		}
	}
	return healthai.RiskLow
}

// MLRisk evaluates the ML-path threshold table. confidence is the ensemble
// vote share in [0, 1]; diseaseRisk is the winning disease's catalog tier.
// The severity-4 escalation is checked before the medium-confidence rule so
// a very severe symptom can never be downgraded by a medium-tier prediction.
func MLRisk(confidence float64, diseaseRisk healthai.RiskLevel, reports []healthai.SymptomReport) healthai.RiskLevel {
	if len(reports) == 0 {
		return healthai.RiskLow
	}

	if confidence > 0.8 && diseaseRisk == healthai.RiskUrgent {
		return healthai.RiskUrgent
	}
	if confidence > 0.7 && diseaseRisk == healthai.RiskHigh {
		return healthai.RiskHigh
	}

	var sum float64
	for _, r := range reports {
		if r.Severity >= 4 {
			return healthai.RiskHigh
		}
		sum += float64(r.Severity)
	}

	if confidence > 0.6 && (diseaseRisk == healthai.RiskMedium || diseaseRisk == healthai.RiskHigh) {
		return healthai.RiskMedium
	}

	avg := sum / float64(len(reports))
	if avg >= 3.5 {
		return healthai.RiskHigh
	}
	if avg >= 2.5 {
		return healthai.RiskMedium
	}
	return healthai.RiskLow
}
