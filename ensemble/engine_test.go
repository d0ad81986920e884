package ensemble

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharedcode/healthai"
	"github.com/sharedcode/healthai/classifier"
	"github.com/sharedcode/healthai/feature"
	"github.com/sharedcode/healthai/knowledge"
)

func testBase() *knowledge.Base {
	return knowledge.NewBase(
		[]knowledge.Symptom{
			{ID: 1, Name: "Fever"},
			{ID: 2, Name: "Headache"},
			{ID: 3, Name: "Fatigue"},
			{ID: 4, Name: "Cough"},
			{ID: 5, Name: "Runny Nose"},
			{ID: 6, Name: "Sneezing"},
		},
		[]knowledge.Disease{
			{Name: "Influenza", Description: "Viral infection", Symptoms: []string{"Fever", "Headache", "Fatigue"},
				RiskLevel: healthai.RiskMedium, Treatment: "Rest and fluids", Specialist: "General Practitioner"},
			{Name: "Common Cold", Description: "Mild viral infection", Symptoms: []string{"Runny Nose", "Sneezing", "Cough"},
				RiskLevel: healthai.RiskLow, Treatment: "Self-care", Specialist: "General Practitioner"},
		},
	)
}

// stubModel lets vote-combination tests dictate each model's prediction.
type stubModel struct {
	name  string
	probs []float64
	err   error
}

func (s *stubModel) Name() string { return s.name }

func (s *stubModel) Fit(X [][]float64, y []int, classes int) error { return nil }

func (s *stubModel) PredictProba(x []float64) ([]float64, error) { return s.probs, s.err }

// identityScaler builds a fitted scaler that passes vectors through unchanged.
func identityScaler(width int) *feature.StandardScaler {
	s := &feature.StandardScaler{
		Means: make([]float64, width),
		Stds:  make([]float64, width),
	}
	for i := range s.Stds {
		s.Stds[i] = 1
	}
	return s
}

// stubEngine wires an engine around canned models without training.
func stubEngine(t *testing.T, kb *knowledge.Base, models map[string]healthai.Classifier,
	accuracies map[string]healthai.ModelStats, classes []string) *Engine {
	t.Helper()
	return &Engine{
		kb:            kb,
		store:         healthai.NewArtifactStore(t.TempDir()),
		models:        models,
		accuracies:    accuracies,
		scaler:        identityScaler(len(kb.Symptoms())),
		encoder:       &feature.LabelEncoder{Classes: classes},
		trained:       true,
		loadAttempted: true,
	}
}

func TestCombineVotes(t *testing.T) {
	e := &Engine{accuracies: map[string]healthai.ModelStats{
		"random_forest": {TestAccuracy: 0.8},
		"svm":           {TestAccuracy: 0.5},
		"naive_bayes":   {TestAccuracy: 0.9},
	}}

	// Influenza: 0.8*0.9 + 0.5*0.1 = 0.77; Common Cold: 0.9*0.5 = 0.45.
	// Winner share is 0.77 / 1.22.
	winner, confidence := e.combineVotes(map[string]vote{
		"random_forest": {disease: "Influenza", confidence: 0.9},
		"svm":           {disease: "Influenza", confidence: 0.1},
		"naive_bayes":   {disease: "Common Cold", confidence: 0.5},
	})
	assert.Equal(t, "Influenza", winner)
	assert.InDelta(t, 0.77/1.22, confidence, 1e-9)
}

func TestCombineVotesDefaultAccuracy(t *testing.T) {
	e := &Engine{accuracies: map[string]healthai.ModelStats{}}

	// A model with no recorded accuracy weighs in at 0.5.
	winner, confidence := e.combineVotes(map[string]vote{
		"mystery_model": {disease: "Influenza", confidence: 0.8},
	})
	assert.Equal(t, "Influenza", winner)
	assert.InDelta(t, 1.0, confidence, 1e-9, "sole voter owns the full weight share")
}

func TestCombineVotesDiscardsUnknown(t *testing.T) {
	e := &Engine{accuracies: map[string]healthai.ModelStats{
		"random_forest": {TestAccuracy: 0.9},
		"svm":           {TestAccuracy: 0.9},
	}}

	winner, confidence := e.combineVotes(map[string]vote{
		"random_forest": {disease: unknownVote},
		"svm":           {disease: "Common Cold", confidence: 0.6},
	})
	assert.Equal(t, "Common Cold", winner)
	assert.InDelta(t, 1.0, confidence, 1e-9)

	winner, confidence = e.combineVotes(map[string]vote{
		"random_forest": {disease: unknownVote},
		"svm":           {disease: unknownVote},
	})
	assert.Equal(t, unknownVote, winner)
	assert.Zero(t, confidence)
}

func TestCombineVotesDeterministicTieBreak(t *testing.T) {
	e := &Engine{accuracies: map[string]healthai.ModelStats{
		"a": {TestAccuracy: 0.8},
		"b": {TestAccuracy: 0.8},
	}}
	votes := map[string]vote{
		"a": {disease: "Zoster", confidence: 0.5},
		"b": {disease: "Anemia", confidence: 0.5},
	}
	for i := 0; i < 20; i++ {
		winner, _ := e.combineVotes(votes)
		assert.Equal(t, "Anemia", winner, "equal weights must resolve by name, not map order")
	}
}

func TestBestModelVote(t *testing.T) {
	e := &Engine{accuracies: map[string]healthai.ModelStats{
		"random_forest": {TestAccuracy: 0.7},
		"svm":           {TestAccuracy: 0.95},
	}}
	votes := map[string]vote{
		"random_forest": {disease: "Influenza", confidence: 0.9},
		"svm":           {disease: "Common Cold", confidence: 0.6},
	}

	name, disease, confidence := e.bestModelVote(votes)
	assert.Equal(t, "svm", name)
	assert.Equal(t, "Common Cold", disease)
	assert.Equal(t, 0.6, confidence)
}

func TestPredictUntrained(t *testing.T) {
	e := New(testBase(), Config{ArtifactDir: t.TempDir(), Seed: 1})

	assert.False(t, e.IsTrained())
	outcome := e.Predict([]healthai.SymptomReport{{SymptomName: "Fever", Severity: 3}}, true)
	assert.False(t, outcome.OK)
	assert.Equal(t, "models not trained", outcome.Reason)
	assert.Equal(t, healthai.ModelFallback, outcome.Result.ModelUsed)
}

func TestPredictEmptyReports(t *testing.T) {
	kb := testBase()
	e := stubEngine(t, kb,
		map[string]healthai.Classifier{"random_forest": &stubModel{probs: []float64{1, 0}}},
		map[string]healthai.ModelStats{"random_forest": {TestAccuracy: 0.9}},
		[]string{"Influenza", "Common Cold"})

	outcome := e.Predict(nil, true)
	require.True(t, outcome.OK)
	assert.Empty(t, outcome.Result.PredictedDiseases)
	assert.Equal(t, healthai.RiskLow, outcome.Result.RiskLevel)
	assert.Equal(t, healthai.ModelNone, outcome.Result.ModelUsed)
	assert.Contains(t, outcome.Result.Recommendations, "No symptoms reported")
}

func TestPredictEnsemblePath(t *testing.T) {
	kb := testBase()
	e := stubEngine(t, kb,
		map[string]healthai.Classifier{
			"random_forest": &stubModel{probs: []float64{0.9, 0.1}},
			"naive_bayes":   &stubModel{probs: []float64{0.8, 0.2}},
		},
		map[string]healthai.ModelStats{
			"random_forest": {TestAccuracy: 0.9},
			"naive_bayes":   {TestAccuracy: 0.8},
		},
		[]string{"Influenza", "Common Cold"})

	reports := []healthai.SymptomReport{
		{SymptomName: "Fever", Severity: 3},
		{SymptomName: "Headache", Severity: 2},
	}
	outcome := e.Predict(reports, true)
	require.True(t, outcome.OK)

	result := outcome.Result
	require.Len(t, result.PredictedDiseases, 1)
	top := result.PredictedDiseases[0]
	assert.Equal(t, "Influenza", top.Name)
	// Unanimous Influenza votes: share 1.0 regardless of weights.
	assert.Equal(t, 100.0, result.MLConfidence)
	assert.Equal(t, 100.0, top.Confidence)
	assert.Equal(t, healthai.ModelEnsemble, result.ModelUsed)
	assert.Equal(t, "Rest and fluids", top.Treatment)
	assert.Equal(t, "General Practitioner", result.SpecialistReferral)
	// Confident medium-tier prediction on mild symptoms lands at medium.
	assert.Equal(t, healthai.RiskMedium, result.RiskLevel)
	assert.Contains(t, result.Recommendations, "AI Confidence: High (100.0%)")
}

func TestPredictBestModelPath(t *testing.T) {
	kb := testBase()
	e := stubEngine(t, kb,
		map[string]healthai.Classifier{
			"random_forest": &stubModel{probs: []float64{0.9, 0.1}},
			"svm":           &stubModel{probs: []float64{0.3, 0.7}},
		},
		map[string]healthai.ModelStats{
			"random_forest": {TestAccuracy: 0.6},
			"svm":           {TestAccuracy: 0.95},
		},
		[]string{"Influenza", "Common Cold"})

	outcome := e.Predict([]healthai.SymptomReport{{SymptomName: "Cough", Severity: 2}}, false)
	require.True(t, outcome.OK)
	assert.Equal(t, "svm", outcome.Result.ModelUsed)
	assert.Equal(t, "Common Cold", outcome.Result.PredictedDiseases[0].Name)
	assert.Equal(t, 70.0, outcome.Result.MLConfidence)
}

func TestPredictFailedModelVotesUnknown(t *testing.T) {
	kb := testBase()
	e := stubEngine(t, kb,
		map[string]healthai.Classifier{
			"random_forest": &stubModel{err: assert.AnError},
			"naive_bayes":   &stubModel{probs: []float64{0.2, 0.8}},
		},
		map[string]healthai.ModelStats{
			"random_forest": {TestAccuracy: 0.99},
			"naive_bayes":   {TestAccuracy: 0.7},
		},
		[]string{"Influenza", "Common Cold"})

	outcome := e.Predict([]healthai.SymptomReport{{SymptomName: "Cough", Severity: 2}}, true)
	require.True(t, outcome.OK)
	assert.Equal(t, "Common Cold", outcome.Result.PredictedDiseases[0].Name)
	assert.Equal(t, 100.0, outcome.Result.MLConfidence, "the failed model carries no weight")
}

func TestTrainAndReload(t *testing.T) {
	if testing.Short() {
		t.Skip("trains the full ensemble")
	}
	kb := testBase()
	dir := t.TempDir()
	ctx := context.Background()

	e := New(kb, Config{ArtifactDir: dir, Seed: 42})
	accuracies, err := e.Train(ctx)
	require.NoError(t, err)
	require.True(t, e.IsTrained())

	// Every registry algorithm reports an accuracy in [0, 1].
	require.Len(t, accuracies, len(classifier.Names))
	for name, acc := range accuracies {
		assert.GreaterOrEqualf(t, acc, 0.0, "%s accuracy out of range", name)
		assert.LessOrEqualf(t, acc, 1.0, "%s accuracy out of range", name)
	}

	comparison := e.Comparison()
	require.Len(t, comparison, len(classifier.Names))
	for name, row := range comparison {
		assert.Equalf(t, "trained", row.Status, "%s did not train", name)
	}

	// Predict through the freshly trained ensemble.
	flu := []healthai.SymptomReport{
		{SymptomName: "Fever", Severity: 3},
		{SymptomName: "Headache", Severity: 3},
		{SymptomName: "Fatigue", Severity: 2},
	}
	outcome := e.Predict(flu, true)
	require.True(t, outcome.OK)
	result := outcome.Result
	require.Len(t, result.PredictedDiseases, 1)
	assert.True(t, result.RiskLevel.Valid())
	assert.GreaterOrEqual(t, result.MLConfidence, 0.0)
	assert.LessOrEqual(t, result.MLConfidence, 100.0)
	assert.Equal(t, healthai.ModelEnsemble, result.ModelUsed)

	// A second engine over the same directory lazy-loads the artifacts and
	// reproduces the verdict without retraining.
	reloaded := New(kb, Config{ArtifactDir: dir, Seed: 42})
	require.True(t, reloaded.IsTrained())
	again := reloaded.Predict(flu, true)
	require.True(t, again.OK)
	assert.Equal(t, result.PredictedDiseases[0].Name, again.Result.PredictedDiseases[0].Name)
	assert.Equal(t, result.MLConfidence, again.Result.MLConfidence)
	assert.Equal(t, reloaded.Comparison(), e.Comparison())
}
