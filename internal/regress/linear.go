package regress

import (
	"errors"
	"fmt"
	"math"
)

// Linear is an ordinary least squares baseline with an intercept term,
// solved via the normal equations.
type Linear struct {
	coef      []float64
	intercept float64
	fitted    bool
}

func NewLinear() *Linear { return &Linear{} }

func (l *Linear) Name() string { return "Linear Regression" }

func (l *Linear) Fit(X [][]float64, y []float64) error {
	if err := checkTrainingData(X, y); err != nil {
		return err
	}

	p := len(X[0]) + 1 // intercept column first

	// Accumulate XᵀX and Xᵀy.
	xtx := make([][]float64, p)
	for i := range xtx {
		xtx[i] = make([]float64, p)
	}
	xty := make([]float64, p)

	row := make([]float64, p)
	for i, x := range X {
		if len(x) != p-1 {
			return fmt.Errorf("row %d has %d features, want %d", i, len(x), p-1)
		}
		row[0] = 1
		copy(row[1:], x)
		for a := 0; a < p; a++ {
			for b := 0; b < p; b++ {
				xtx[a][b] += row[a] * row[b]
			}
			xty[a] += row[a] * y[i]
		}
	}

	// A tiny ridge term keeps near-collinear inputs solvable.
	for i := 0; i < p; i++ {
		xtx[i][i] += 1e-9
	}

	beta, err := solve(xtx, xty)
	if err != nil {
		return err
	}

	l.intercept = beta[0]
	l.coef = beta[1:]
	l.fitted = true
	return nil
}

func (l *Linear) Predict(x []float64) (float64, error) {
	if !l.fitted {
		return 0, ErrNotFitted
	}
	if len(x) != len(l.coef) {
		return 0, fmt.Errorf("got %d features, want %d", len(x), len(l.coef))
	}
	out := l.intercept
	for i, v := range x {
		out += l.coef[i] * v
	}
	if math.IsNaN(out) || math.IsInf(out, 0) {
		return 0, errors.New("non-finite prediction")
	}
	return out, nil
}

// solve performs Gaussian elimination with partial pivoting on Ax = b.
func solve(a [][]float64, b []float64) ([]float64, error) {
	n := len(a)
	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			return nil, errors.New("singular design matrix")
		}
		a[col], a[pivot] = a[pivot], a[col]
		b[col], b[pivot] = b[pivot], b[col]

		for r := col + 1; r < n; r++ {
			factor := a[r][col] / a[col][col]
			for c := col; c < n; c++ {
				a[r][c] -= factor * a[col][c]
			}
			b[r] -= factor * b[col]
		}
	}

	x := make([]float64, n)
	for r := n - 1; r >= 0; r-- {
		sum := b[r]
		for c := r + 1; c < n; c++ {
			sum -= a[r][c] * x[c]
		}
		x[r] = sum / a[r][r]
	}
	return x, nil
}
