// Package regress provides the small set of regression models used for
// next-day temperature prediction. Models are fit once per forecast run
// and are deterministic for a fixed seed.
package regress

import "errors"

// Regressor is a fittable point predictor over fixed-order feature vectors.
type Regressor interface {
	Name() string
	Fit(X [][]float64, y []float64) error
	Predict(x []float64) (float64, error)
}

// ImportanceReporter is implemented by models that expose per-feature
// weights. Callers must not assume every Regressor provides it.
type ImportanceReporter interface {
	Importances() []float64
}

var (
	ErrNotFitted = errors.New("model not fitted")
	ErrNoData    = errors.New("no training data")
)

func checkTrainingData(X [][]float64, y []float64) error {
	if len(X) == 0 || len(y) == 0 {
		return ErrNoData
	}
	if len(X) != len(y) {
		return errors.New("feature and target lengths differ")
	}
	return nil
}
