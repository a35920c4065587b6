package train

import (
	"errors"
	"math"

	"github.com/lox/tempcast/internal/regress"
)

var errDegenerateTarget = errors.New("degenerate target variance")

func rmse(actual, predicted []float64) float64 {
	sum := 0.0
	for i := range actual {
		d := actual[i] - predicted[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(actual)))
}

func mae(actual, predicted []float64) float64 {
	sum := 0.0
	for i := range actual {
		sum += math.Abs(actual[i] - predicted[i])
	}
	return sum / float64(len(actual))
}

// r2 is the coefficient of determination. A constant target has no
// variance to explain, which the trainer reports as a training failure.
func r2(actual, predicted []float64) (float64, error) {
	mean := 0.0
	for _, v := range actual {
		mean += v
	}
	mean /= float64(len(actual))

	ssTot, ssRes := 0.0, 0.0
	for i := range actual {
		ssTot += (actual[i] - mean) * (actual[i] - mean)
		ssRes += (actual[i] - predicted[i]) * (actual[i] - predicted[i])
	}
	if ssTot == 0 {
		return 0, errDegenerateTarget
	}
	return 1 - ssRes/ssTot, nil
}

func predictAll(model regress.Regressor, X [][]float64) ([]float64, error) {
	out := make([]float64, len(X))
	for i, x := range X {
		v, err := model.Predict(x)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
