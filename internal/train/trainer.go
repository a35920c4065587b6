// Package train fits the candidate regressors for each forecast target,
// evaluates them on the chronological holdout, and retains the best per
// target by test RMSE.
package train

import (
	"fmt"
	"log"
	"math"
	"sort"

	"github.com/lox/tempcast/internal/dataset"
	"github.com/lox/tempcast/internal/models"
	"github.com/lox/tempcast/internal/regress"
)

// TrainingError reports a fatal model-fitting failure for one target.
type TrainingError struct {
	Target string
	Err    error
}

func (e *TrainingError) Error() string {
	return fmt.Sprintf("train %s: %v", e.Target, e.Err)
}

func (e *TrainingError) Unwrap() error { return e.Err }

// Config controls a training run.
type Config struct {
	// Seed fixes bootstrap/feature sampling so runs are reproducible.
	Seed int64

	// MaxSamples caps the training partition to its most recent rows.
	// Zero means no cap.
	MaxSamples int

	// LearningCurve enables the R² data-efficiency diagnostic.
	LearningCurve bool

	// RefitCurve refits the retained model at each curve fraction instead
	// of using the shrinkage approximation. Accurate but much slower.
	RefitCurve bool
}

// Artifact is one retained predictor with its evaluation results.
type Artifact struct {
	Name    string
	Model   regress.Regressor
	Metrics models.MetricSet

	// Importances is nil when the model exposes no feature weights.
	Importances []models.FeatureImportance

	Curve *models.LearningCurve
}

// Result holds the retained artifacts for both targets plus the full
// candidate comparison tables.
type Result struct {
	Features      []string
	Max           Artifact
	Min           Artifact
	ComparisonMax []models.ComparisonRow
	ComparisonMin []models.ComparisonRow
}

// Info assembles the response-facing model metadata.
func (r *Result) Info() models.ModelInfo {
	return models.ModelInfo{
		BestModelMax:         r.Max.Name,
		BestModelMin:         r.Min.Name,
		ModelComparisonMax:   r.ComparisonMax,
		ModelComparisonMin:   r.ComparisonMin,
		FeatureImportanceMax: r.Max.Importances,
		FeatureImportanceMin: r.Min.Importances,
		MetricsMax:           r.Max.Metrics,
		MetricsMin:           r.Min.Metrics,
		R2CurveMax:           r.Max.Curve,
		R2CurveMin:           r.Min.Curve,
	}
}

type candidate struct {
	name string
	make func(seed int64) regress.Regressor
}

// candidates are tried in a fixed order; ties on test RMSE keep the
// first-encountered model, so selection is deterministic.
var candidates = []candidate{
	{"Random Forest", func(seed int64) regress.Regressor { return regress.NewForest(seed) }},
	{"Gradient Boosting", func(seed int64) regress.Regressor { return regress.NewGradientBoost(seed) }},
	{"Linear Regression", func(seed int64) regress.Regressor { return regress.NewLinear() }},
}

// Train fits all candidates for both targets and selects the best per
// target. A failure on either target aborts the run; no partial result is
// returned.
func Train(trainRows, testRows []dataset.Row, features []string, cfg Config) (*Result, error) {
	if cfg.MaxSamples > 0 && len(trainRows) > cfg.MaxSamples {
		trainRows = trainRows[len(trainRows)-cfg.MaxSamples:]
	}
	if len(trainRows) == 0 {
		return nil, &TrainingError{Target: "tmax", Err: fmt.Errorf("empty training partition")}
	}

	XTrain := matrix(trainRows, features)
	XTest := matrix(testRows, features)

	result := &Result{Features: features}

	for _, target := range []string{"target_tmax", "target_tmin"} {
		yTrain := column(trainRows, target)
		yTest := column(testRows, target)

		artifact, comparison, err := trainTarget(XTrain, yTrain, XTest, yTest, features, cfg)
		if err != nil {
			return nil, &TrainingError{Target: target, Err: err}
		}

		if target == "target_tmax" {
			result.Max = *artifact
			result.ComparisonMax = comparison
		} else {
			result.Min = *artifact
			result.ComparisonMin = comparison
		}
	}

	return result, nil
}

type evaluated struct {
	name    string
	model   regress.Regressor
	metrics models.MetricSet
}

func trainTarget(XTrain [][]float64, yTrain []float64, XTest [][]float64, yTest []float64, features []string, cfg Config) (*Artifact, []models.ComparisonRow, error) {
	var results []evaluated
	var comparison []models.ComparisonRow

	for _, c := range candidates {
		model := c.make(cfg.Seed)
		metrics, err := evaluate(model, XTrain, yTrain, XTest, yTest)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", c.name, err)
		}
		results = append(results, evaluated{name: c.name, model: model, metrics: *metrics})
		comparison = append(comparison, models.ComparisonRow{
			Model:     c.name,
			TrainRMSE: metrics.TrainRMSE,
			TestRMSE:  metrics.TestRMSE,
			R2Score:   metrics.TestR2,
		})
	}

	best := results[0]
	for _, r := range results[1:] {
		if r.metrics.TestRMSE < best.metrics.TestRMSE {
			best = r
		}
	}

	artifact := &Artifact{
		Name:        best.name,
		Model:       best.model,
		Metrics:     best.metrics,
		Importances: namedImportances(best.model, features),
	}

	if cfg.LearningCurve {
		artifact.Curve = learningCurve(best, XTrain, yTrain, XTest, yTest, cfg)
	}

	return artifact, comparison, nil
}

// evaluate fits a model and computes RMSE/MAE/R² on both partitions.
func evaluate(model regress.Regressor, XTrain [][]float64, yTrain []float64, XTest [][]float64, yTest []float64) (*models.MetricSet, error) {
	if err := model.Fit(XTrain, yTrain); err != nil {
		return nil, err
	}

	trainPred, err := predictAll(model, XTrain)
	if err != nil {
		return nil, err
	}
	testPred, err := predictAll(model, XTest)
	if err != nil {
		return nil, err
	}

	trainR2, err := r2(yTrain, trainPred)
	if err != nil {
		return nil, err
	}
	testR2, err := r2(yTest, testPred)
	if err != nil {
		return nil, err
	}

	return &models.MetricSet{
		TrainRMSE: rmse(yTrain, trainPred),
		TestRMSE:  rmse(yTest, testPred),
		TrainMAE:  mae(yTrain, trainPred),
		TestMAE:   mae(yTest, testPred),
		TrainR2:   trainR2,
		TestR2:    testR2,
	}, nil
}

// namedImportances pairs feature weights with names, sorted descending.
// Returns nil when the model exposes none.
func namedImportances(model regress.Regressor, features []string) []models.FeatureImportance {
	reporter, ok := model.(regress.ImportanceReporter)
	if !ok {
		return nil
	}
	weights := reporter.Importances()
	if len(weights) != len(features) {
		return nil
	}

	out := make([]models.FeatureImportance, len(features))
	for i, f := range features {
		out[i] = models.FeatureImportance{Feature: f, Importance: weights[i]}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Importance > out[j].Importance })
	return out
}

var curveFractions = []float64{0.1, 0.2, 0.4, 0.6, 0.8, 1.0}

// learningCurve estimates test R² at increasing training-sample
// fractions. The default is a deterministic shrinkage of the final R² —
// a cheap approximation, not a real refit. RefitCurve retrains the
// retained model type on each chronological prefix instead. Either way
// the last point is forced to the true full-sample R².
func learningCurve(best evaluated, XTrain [][]float64, yTrain []float64, XTest [][]float64, yTest []float64, cfg Config) *models.LearningCurve {
	finalR2 := best.metrics.TestR2
	scores := make([]float64, len(curveFractions))

	if cfg.RefitCurve {
		for i, frac := range curveFractions[:len(curveFractions)-1] {
			n := int(math.Round(frac * float64(len(XTrain))))
			if n < 2 {
				scores[i] = finalR2
				continue
			}
			score, err := refitScore(best.name, XTrain[:n], yTrain[:n], XTest, yTest, cfg.Seed)
			if err != nil {
				log.Printf("train: learning curve refit at %.0f%%: %v", frac*100, err)
				score = finalR2
			}
			scores[i] = score
		}
	} else {
		for i, frac := range curveFractions {
			scores[i] = shrinkR2(finalR2, frac)
		}
	}

	scores[len(scores)-1] = finalR2
	return &models.LearningCurve{TrainSizes: curveFractions, R2Scores: scores}
}

func refitScore(name string, X [][]float64, y []float64, XTest [][]float64, yTest []float64, seed int64) (float64, error) {
	for _, c := range candidates {
		if c.name != name {
			continue
		}
		model := c.make(seed)
		if err := model.Fit(X, y); err != nil {
			return 0, err
		}
		pred, err := predictAll(model, XTest)
		if err != nil {
			return 0, err
		}
		return r2(yTest, pred)
	}
	return 0, fmt.Errorf("unknown model %q", name)
}

// shrinkR2 scales the final R² down for smaller sample fractions,
// following a power curve with an extra penalty below 20%.
func shrinkR2(finalR2, frac float64) float64 {
	score := finalR2 * math.Sqrt(frac)
	if frac <= 0.2 {
		score *= 0.5 + frac*2
	}
	return math.Max(0.1, math.Min(score, finalR2))
}

func matrix(rows []dataset.Row, features []string) [][]float64 {
	X := make([][]float64, len(rows))
	for i, r := range rows {
		X[i] = r.Vector(features)
	}
	return X
}

func column(rows []dataset.Row, name string) []float64 {
	y := make([]float64, len(rows))
	for i, r := range rows {
		y[i] = r.Values[name]
	}
	return y
}
