package train

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/lox/tempcast/internal/dataset"
)

var testFeatures = []string{"a", "b"}

// makeRows builds dated feature rows with targets defined by fn.
func makeRows(t *testing.T, n int, fn func(a, b float64) (tmax, tmin float64)) []dataset.Row {
	t.Helper()
	rng := rand.New(rand.NewSource(99))
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	rows := make([]dataset.Row, n)
	for i := range rows {
		a, b := rng.Float64()*100, rng.Float64()*100
		tmax, tmin := fn(a, b)
		rows[i] = dataset.Row{
			Date: start.AddDate(0, 0, i),
			Values: map[string]float64{
				"a": a, "b": b,
				"target_tmax": tmax,
				"target_tmin": tmin,
			},
		}
	}
	return rows
}

func linearTargets(a, b float64) (float64, float64) {
	return 2*a + b, a - b
}

func TestTrainSelectsLowestTestRMSE(t *testing.T) {
	rows := makeRows(t, 200, linearTargets)
	train, test := rows[:160], rows[160:]

	result, err := Train(train, test, testFeatures, Config{Seed: 1})
	if err != nil {
		t.Fatalf("Train: %v", err)
	}

	// The targets are exactly linear, so OLS should beat both ensembles.
	if result.Max.Name != "Linear Regression" {
		t.Errorf("best max model = %q, want Linear Regression", result.Max.Name)
	}
	if result.Min.Name != "Linear Regression" {
		t.Errorf("best min model = %q, want Linear Regression", result.Min.Name)
	}

	for _, row := range result.ComparisonMax {
		if row.Model == result.Max.Name {
			continue
		}
		if row.TestRMSE < result.Max.Metrics.TestRMSE {
			t.Errorf("%s has lower test RMSE (%v) than the selected model (%v)",
				row.Model, row.TestRMSE, result.Max.Metrics.TestRMSE)
		}
	}
}

func TestTrainComparesAllCandidates(t *testing.T) {
	rows := makeRows(t, 120, linearTargets)
	result, err := Train(rows[:100], rows[100:], testFeatures, Config{Seed: 1})
	if err != nil {
		t.Fatalf("Train: %v", err)
	}

	want := []string{"Random Forest", "Gradient Boosting", "Linear Regression"}
	if len(result.ComparisonMax) != len(want) {
		t.Fatalf("got %d comparison rows, want %d", len(result.ComparisonMax), len(want))
	}
	for i, name := range want {
		if result.ComparisonMax[i].Model != name {
			t.Errorf("comparison[%d] = %q, want %q", i, result.ComparisonMax[i].Model, name)
		}
	}
}

func TestTrainImportancesOnlyForTreeModels(t *testing.T) {
	rows := makeRows(t, 200, linearTargets)
	result, err := Train(rows[:160], rows[160:], testFeatures, Config{Seed: 1})
	if err != nil {
		t.Fatalf("Train: %v", err)
	}

	// Linear wins here and exposes no importances.
	if result.Max.Name == "Linear Regression" && result.Max.Importances != nil {
		t.Errorf("linear model should not report importances, got %v", result.Max.Importances)
	}
}

func TestLearningCurveAnchoredToFinalScore(t *testing.T) {
	rows := makeRows(t, 200, linearTargets)
	result, err := Train(rows[:160], rows[160:], testFeatures, Config{Seed: 1, LearningCurve: true})
	if err != nil {
		t.Fatalf("Train: %v", err)
	}

	curve := result.Max.Curve
	if curve == nil {
		t.Fatal("expected a learning curve")
	}
	if len(curve.TrainSizes) != len(curve.R2Scores) {
		t.Fatalf("sizes/scores length mismatch: %d vs %d", len(curve.TrainSizes), len(curve.R2Scores))
	}

	last := curve.R2Scores[len(curve.R2Scores)-1]
	if last != result.Max.Metrics.TestR2 {
		t.Errorf("final curve point = %v, want test R² %v", last, result.Max.Metrics.TestR2)
	}
	for i, score := range curve.R2Scores {
		if score > result.Max.Metrics.TestR2 {
			t.Errorf("curve point %d (%v) exceeds final R² %v", i, score, result.Max.Metrics.TestR2)
		}
	}
}

func TestTrainRejectsConstantTarget(t *testing.T) {
	rows := makeRows(t, 100, func(a, b float64) (float64, float64) { return 70, 50 })

	_, err := Train(rows[:80], rows[80:], testFeatures, Config{Seed: 1})
	if err == nil {
		t.Fatal("expected error for constant targets")
	}
	var trainErr *TrainingError
	if !errors.As(err, &trainErr) {
		t.Errorf("error %v is not a TrainingError", err)
	}
}

func TestMaxSamplesUsesMostRecentRows(t *testing.T) {
	// The last 50 training rows have constant targets. Capping training
	// to those rows makes the target degenerate; the full set does not.
	rows := makeRows(t, 250, linearTargets)
	for i := 150; i < 200; i++ {
		rows[i].Values["target_tmax"] = 70
		rows[i].Values["target_tmin"] = 50
	}
	train, test := rows[:200], rows[200:]

	if _, err := Train(train, test, testFeatures, Config{Seed: 1}); err != nil {
		t.Fatalf("uncapped Train: %v", err)
	}
	if _, err := Train(train, test, testFeatures, Config{Seed: 1, MaxSamples: 50}); err == nil {
		t.Fatal("expected degenerate-target error with MaxSamples capturing constant rows")
	}
}
