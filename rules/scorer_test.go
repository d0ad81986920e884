package rules

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharedcode/healthai"
	"github.com/sharedcode/healthai/knowledge"
)

func testBase() *knowledge.Base {
	return knowledge.NewBase(
		[]knowledge.Symptom{
			{ID: 1, Name: "Fever"},
			{ID: 2, Name: "Headache"},
			{ID: 3, Name: "Fatigue"},
			{ID: 4, Name: "Runny Nose"},
			{ID: 5, Name: "Chest Pain"},
		},
		[]knowledge.Disease{
			{Name: "Flu", Description: "Viral infection", Symptoms: []string{"Fever", "Headache", "Fatigue"},
				RiskLevel: healthai.RiskMedium, Treatment: "Rest and fluids", Specialist: "General Practitioner"},
			{Name: "Cold", Description: "Mild viral infection", Symptoms: []string{"Runny Nose", "Headache"},
				RiskLevel: healthai.RiskLow, Treatment: "Self-care", Specialist: "General Practitioner"},
			{Name: "Heart Attack", Description: "Cardiac emergency", Symptoms: []string{"Chest Pain"},
				RiskLevel: healthai.RiskUrgent, Treatment: "Emergency care", Specialist: "Cardiologist"},
		},
	)
}

func TestPredictRanksByMatchFraction(t *testing.T) {
	s := NewScorer(testBase())
	result := s.Predict([]healthai.SymptomReport{
		{SymptomName: "Fever", Severity: 3},
		{SymptomName: "Headache", Severity: 2},
		{SymptomName: "Fatigue", Severity: 3},
	})

	require.Len(t, result.PredictedDiseases, 2, "unmatched diseases must be excluded")
	assert.Equal(t, "Flu", result.PredictedDiseases[0].Name)
	assert.Equal(t, "Cold", result.PredictedDiseases[1].Name)

	// Full match saturates at 100; Cold gets half credit plus the headache
	// severity bonus: 50 + min(2/4, 1)*0.1*100 = 55.
	assert.Equal(t, 100.0, result.PredictedDiseases[0].Confidence)
	assert.Equal(t, 55.0, result.PredictedDiseases[1].Confidence)

	// Two severity-3 symptoms escalate the tier.
	assert.Equal(t, healthai.RiskHigh, result.RiskLevel)
	assert.Equal(t, "General Practitioner", result.SpecialistReferral)
	assert.Contains(t, result.Recommendations, "Most likely condition: Flu")
	assert.Equal(t, healthai.ModelRuleBased, result.ModelUsed)
	assert.Zero(t, result.MLConfidence)
}

func TestPredictStableOrderOnTies(t *testing.T) {
	kb := knowledge.NewBase(
		[]knowledge.Symptom{{ID: 1, Name: "Fever"}, {ID: 2, Name: "Cough"}},
		[]knowledge.Disease{
			{Name: "A", Symptoms: []string{"Fever"}, RiskLevel: healthai.RiskLow},
			{Name: "B", Symptoms: []string{"Cough"}, RiskLevel: healthai.RiskLow},
		},
	)
	s := NewScorer(kb)
	result := s.Predict([]healthai.SymptomReport{
		{SymptomName: "Fever", Severity: 2},
		{SymptomName: "Cough", Severity: 2},
	})

	// Both are full matches, so confidence saturates identically and the
	// stable sort preserves catalog order.
	require.Len(t, result.PredictedDiseases, 2)
	assert.Equal(t, "A", result.PredictedDiseases[0].Name)
	assert.Equal(t, result.PredictedDiseases[0].Confidence, result.PredictedDiseases[1].Confidence)
}

func TestPredictNoMatches(t *testing.T) {
	s := NewScorer(testBase())
	result := s.Predict([]healthai.SymptomReport{{SymptomName: "Toe Cramp", Severity: 2}})

	require.NotNil(t, result.PredictedDiseases)
	assert.Empty(t, result.PredictedDiseases)
	assert.Equal(t, healthai.RiskLow, result.RiskLevel)
	assert.Equal(t, "General Practitioner", result.SpecialistReferral)
	assert.Contains(t, result.Recommendations, "No specific conditions identified")
}

func TestPredictUrgentCondition(t *testing.T) {
	s := NewScorer(testBase())
	result := s.Predict([]healthai.SymptomReport{{SymptomName: "Chest Pain", Severity: 4}})

	require.NotEmpty(t, result.PredictedDiseases)
	assert.Equal(t, "Heart Attack", result.PredictedDiseases[0].Name)
	assert.Equal(t, healthai.RiskUrgent, result.RiskLevel)
	assert.Equal(t, "Cardiologist", result.SpecialistReferral)
}

func TestPredictCapsCandidates(t *testing.T) {
	symptoms := []knowledge.Symptom{{ID: 1, Name: "Fever"}}
	var diseases []knowledge.Disease
	for _, name := range []string{"A", "B", "C", "D", "E", "F", "G"} {
		diseases = append(diseases, knowledge.Disease{
			Name: name, Symptoms: []string{"Fever"}, RiskLevel: healthai.RiskLow,
		})
	}
	s := NewScorer(knowledge.NewBase(symptoms, diseases))

	result := s.Predict([]healthai.SymptomReport{{SymptomName: "Fever", Severity: 2}})
	assert.Len(t, result.PredictedDiseases, 5)
	assert.True(t, sort.SliceIsSorted(result.PredictedDiseases, func(i, j int) bool {
		return result.PredictedDiseases[i].Confidence > result.PredictedDiseases[j].Confidence
	}))
}

func TestScoreDisease(t *testing.T) {
	d := knowledge.Disease{Name: "Flu", Symptoms: []string{"Fever", "Headache", "Fatigue", "Cough"}}

	// One of four matches at severity 4: 25 + 0.1*100 = 35.
	got := scoreDisease(d, map[string]int{"fever": 4})
	assert.Equal(t, 35.0, got)

	// Severity bonus is capped per symptom even for out-of-range values.
	got = scoreDisease(d, map[string]int{"fever": 9})
	assert.Equal(t, 35.0, got)

	// No characteristic symptoms means no score.
	assert.Zero(t, scoreDisease(knowledge.Disease{Name: "Empty"}, map[string]int{"fever": 4}))
	assert.Zero(t, scoreDisease(d, map[string]int{"toe cramp": 4}))
}
