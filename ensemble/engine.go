// Package ensemble trains the four disease classifiers on synthetic data,
// persists the fitted artifacts, and combines per-model predictions with
// accuracy-and-confidence weighted voting.
package ensemble

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	log "log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/sharedcode/healthai"
	"github.com/sharedcode/healthai/classifier"
	"github.com/sharedcode/healthai/dataset"
	"github.com/sharedcode/healthai/feature"
	"github.com/sharedcode/healthai/knowledge"
)

// Artifact names within the store.
const (
	artifactScaler     = "scaler"
	artifactEncoder    = "label_encoder"
	artifactAccuracies = "model_accuracies"
	modelSuffix        = "_model"
)

const (
	testFraction = 0.2
	cvFolds      = 5
)

// Config holds the ensemble's construction parameters.
type Config struct {
	// ArtifactDir is the directory holding serialized model artifacts.
	// Its absence means "not trained".
	ArtifactDir string
	// Seed drives dataset synthesis, splits, and model initialization.
	Seed int64
}

// Engine owns the trained models and preprocessing artifacts. Loaded state
// is read-only; Train replaces it wholesale under the write lock so
// concurrent predictions never observe a half-written artifact set.
type Engine struct {
	kb    *knowledge.Base
	store *healthai.ArtifactStore
	seed  int64

	mu            sync.RWMutex
	models        map[string]healthai.Classifier
	accuracies    map[string]healthai.ModelStats
	scaler        *feature.StandardScaler
	encoder       *feature.LabelEncoder
	trained       bool
	loadAttempted bool
}

// New creates an engine over the knowledge base. Artifacts are loaded
// lazily on first use.
func New(kb *knowledge.Base, cfg Config) *Engine {
	return &Engine{
		kb:         kb,
		store:      healthai.NewArtifactStore(cfg.ArtifactDir),
		seed:       cfg.Seed,
		models:     make(map[string]healthai.Classifier),
		accuracies: make(map[string]healthai.ModelStats),
	}
}

// IsTrained reports whether at least one model plus the scaler and label
// encoder are available, attempting a lazy artifact load first.
func (e *Engine) IsTrained() bool {
	e.ensureLoaded()
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.trained
}

// accuracySummary is the persisted accuracy-table artifact.
type accuracySummary struct {
	RunID     string                         `json:"run_id"`
	TrainedAt time.Time                      `json:"trained_at"`
	Models    map[string]healthai.ModelStats `json:"models"`
}

// trainResult carries one model's training outcome between goroutines.
type trainResult struct {
	name  string
	model healthai.Classifier
	stats healthai.ModelStats
	err   error
}

// Train synthesizes the dataset, fits all classifiers in parallel, evaluates
// them, and atomically replaces the engine's artifact set. A classifier that
// fails to fit or evaluate is recorded with zero accuracy and excluded from
// voting; training only fails outright when the knowledge base cannot
// produce a dataset or no artifact can be persisted.
// Returns test accuracy per model name.
func (e *Engine) Train(ctx context.Context) (map[string]float64, error) {
	runID := uuid.NewString()
	log.Info("starting model training", "run_id", runID)

	gen := dataset.NewGenerator(e.kb, e.seed)
	X, labels, err := gen.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to build training data: %w", err)
	}

	encoder := &feature.LabelEncoder{}
	y := encoder.Fit(labels)
	classes := encoder.NumClasses()

	scaler := &feature.StandardScaler{}
	Xs, err := scaler.FitTransform(X)
	if err != nil {
		return nil, fmt.Errorf("failed to fit feature scaler: %w", err)
	}

	rng := rand.New(rand.NewSource(e.seed))
	split, err := dataset.StratifiedSplit(Xs, y, testFraction, rng)
	if err != nil {
		return nil, fmt.Errorf("failed to split dataset: %w", err)
	}

	// The four classifiers are independent; fit them concurrently.
	results := make([]trainResult, len(classifier.Names))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range classifier.Names {
		i, name := i, name
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = e.trainOne(name, split, Xs, y, classes)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	models := make(map[string]healthai.Classifier)
	accuracies := make(map[string]healthai.ModelStats)
	for _, r := range results {
		accuracies[r.name] = r.stats
		if r.err != nil {
			log.Error("model training failed", "model", r.name, "error", r.err)
			continue
		}
		models[r.name] = r.model
		log.Info("model trained", "model", r.name,
			"test_accuracy", r.stats.TestAccuracy,
			"cv_accuracy", r.stats.CVAccuracy, "cv_std", r.stats.CVStd)
	}

	if err := e.persist(ctx, runID, models, accuracies, scaler, encoder); err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.models = models
	e.accuracies = accuracies
	e.scaler = scaler
	e.encoder = encoder
	e.trained = len(models) > 0
	e.loadAttempted = true
	e.mu.Unlock()

	out := make(map[string]float64, len(accuracies))
	for name, stats := range accuracies {
		out[name] = stats.TestAccuracy
	}
	log.Info("model training completed", "run_id", runID, "trained", len(models))
	return out, nil
}

// trainOne fits and evaluates a single algorithm: held-out test accuracy on
// the stratified split plus 5-fold cross-validation over the full dataset.
func (e *Engine) trainOne(name string, split dataset.Split, Xs [][]float64, y []int, classes int) trainResult {
	model, err := classifier.New(name, e.seed)
	if err != nil {
		return trainResult{name: name, err: err}
	}
	if err := model.Fit(split.TrainX, split.TrainY, classes); err != nil {
		return trainResult{name: name, err: err}
	}

	testAcc, err := accuracy(model, split.TestX, split.TestY)
	if err != nil {
		return trainResult{name: name, err: err}
	}

	cvMean, cvStd, err := e.crossValidate(name, Xs, y, classes)
	if err != nil {
		return trainResult{name: name, err: err}
	}

	return trainResult{
		name:  name,
		model: model,
		stats: healthai.ModelStats{TestAccuracy: testAcc, CVAccuracy: cvMean, CVStd: cvStd},
	}
}

// crossValidate runs k-fold CV with a fresh model per fold and returns the
// mean and standard deviation of the fold accuracies.
func (e *Engine) crossValidate(name string, X [][]float64, y []int, classes int) (float64, float64, error) {
	rng := rand.New(rand.NewSource(e.seed))
	folds := dataset.KFolds(len(X), cvFolds, rng)

	scores := make([]float64, 0, len(folds))
	for f, holdout := range folds {
		inHoldout := make(map[int]bool, len(holdout))
		for _, i := range holdout {
			inHoldout[i] = true
		}
		var trainX, testX [][]float64
		var trainY, testY []int
		for i := range X {
			if inHoldout[i] {
				testX = append(testX, X[i])
				testY = append(testY, y[i])
			} else {
				trainX = append(trainX, X[i])
				trainY = append(trainY, y[i])
			}
		}

		model, err := classifier.New(name, e.seed+int64(f)+1)
		if err != nil {
			return 0, 0, err
		}
		if err := model.Fit(trainX, trainY, classes); err != nil {
			return 0, 0, err
		}
		score, err := accuracy(model, testX, testY)
		if err != nil {
			return 0, 0, err
		}
		scores = append(scores, score)
	}

	mean, std := stat.MeanStdDev(scores, nil)
	if len(scores) < 2 {
		std = 0
	}
	return mean, std, nil
}

// accuracy scores argmax predictions against labels.
func accuracy(model healthai.Classifier, X [][]float64, y []int) (float64, error) {
	if len(X) == 0 {
		return 0, nil
	}
	var correct int
	for i, row := range X {
		probs, err := model.PredictProba(row)
		if err != nil {
			return 0, err
		}
		if argmax(probs) == y[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(X)), nil
}

func argmax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}

// persist writes every artifact to the store. Models that failed training
// have no artifact; their zero stats live in the accuracy summary.
func (e *Engine) persist(ctx context.Context, runID string, models map[string]healthai.Classifier,
	accuracies map[string]healthai.ModelStats, scaler *feature.StandardScaler, encoder *feature.LabelEncoder) error {

	for name, model := range models {
		if err := e.store.Save(ctx, name+modelSuffix, model); err != nil {
			return fmt.Errorf("failed to persist model %q: %w", name, err)
		}
	}
	if err := e.store.Save(ctx, artifactScaler, scaler); err != nil {
		return fmt.Errorf("failed to persist scaler: %w", err)
	}
	if err := e.store.Save(ctx, artifactEncoder, encoder); err != nil {
		return fmt.Errorf("failed to persist label encoder: %w", err)
	}
	summary := accuracySummary{RunID: runID, TrainedAt: time.Now().UTC(), Models: accuracies}
	if err := e.store.Save(ctx, artifactAccuracies, &summary); err != nil {
		return fmt.Errorf("failed to persist accuracy summary: %w", err)
	}
	return nil
}

// ensureLoaded attempts the one-time lazy artifact load.
func (e *Engine) ensureLoaded() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.loadAttempted {
		return
	}
	e.loadAttempted = true

	if !e.store.Exists(artifactScaler) || !e.store.Exists(artifactEncoder) {
		return
	}
	ctx := context.Background()

	scaler := &feature.StandardScaler{}
	if err := e.store.Load(ctx, artifactScaler, scaler); err != nil {
		log.Error("failed to load scaler artifact", "error", err)
		return
	}
	encoder := &feature.LabelEncoder{}
	if err := e.store.Load(ctx, artifactEncoder, encoder); err != nil {
		log.Error("failed to load label encoder artifact", "error", err)
		return
	}

	models := make(map[string]healthai.Classifier)
	for _, name := range classifier.Names {
		if !e.store.Exists(name + modelSuffix) {
			continue
		}
		model, err := classifier.New(name, e.seed)
		if err != nil {
			continue
		}
		if err := e.store.Load(ctx, name+modelSuffix, model); err != nil {
			log.Error("failed to load model artifact", "model", name, "error", err)
			continue
		}
		models[name] = model
	}

	var summary accuracySummary
	if err := e.store.Load(ctx, artifactAccuracies, &summary); err == nil && summary.Models != nil {
		e.accuracies = summary.Models
	}

	e.models = models
	e.scaler = scaler
	e.encoder = encoder
	e.trained = len(models) > 0
	if e.trained {
		log.Info("loaded pre-trained models", "count", len(models))
	}
}

// Comparison returns the per-algorithm accuracy report.
func (e *Engine) Comparison() map[string]healthai.ModelComparison {
	e.ensureLoaded()
	e.mu.RLock()
	defer e.mu.RUnlock()

	if len(e.accuracies) == 0 {
		return map[string]healthai.ModelComparison{}
	}
	out := make(map[string]healthai.ModelComparison, len(e.accuracies))
	for name, stats := range e.accuracies {
		status := "failed"
		if _, ok := e.models[name]; ok {
			status = "trained"
		}
		out[name] = healthai.ModelComparison{
			TestAccuracy: round4(stats.TestAccuracy),
			CVAccuracy:   round4(stats.CVAccuracy),
			CVStd:        round4(stats.CVStd),
			Status:       status,
		}
	}
	return out
}
