package regress

import (
	"math/rand"
)

// Forest is a bagged ensemble of regression trees. Each tree is grown on
// a bootstrap sample with a random feature subset per split.
type Forest struct {
	NumTrees int
	MaxDepth int
	MinLeaf  int

	seed        int64
	trees       []*treeNode
	importances []float64
}

// NewForest returns a random-forest regressor with default parameters.
// The seed fixes bootstrap and feature sampling, so identical inputs
// produce identical fits.
func NewForest(seed int64) *Forest {
	return &Forest{
		NumTrees: 100,
		MaxDepth: 12,
		MinLeaf:  2,
		seed:     seed,
	}
}

func (f *Forest) Name() string { return "Random Forest" }

func (f *Forest) Fit(X [][]float64, y []float64) error {
	if err := checkTrainingData(X, y); err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(f.seed))
	nFeatures := len(X[0])
	params := treeParams{
		maxDepth:    f.MaxDepth,
		minLeaf:     f.MinLeaf,
		maxFeatures: maxInt(1, nFeatures/3),
	}

	f.trees = make([]*treeNode, 0, f.NumTrees)
	f.importances = make([]float64, nFeatures)

	n := len(X)
	for t := 0; t < f.NumTrees; t++ {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = rng.Intn(n)
		}
		f.trees = append(f.trees, buildTree(X, y, idx, 0, params, rng, f.importances))
	}

	normalize(f.importances)
	return nil
}

func (f *Forest) Predict(x []float64) (float64, error) {
	if len(f.trees) == 0 {
		return 0, ErrNotFitted
	}
	sum := 0.0
	for _, t := range f.trees {
		sum += t.predict(x)
	}
	return sum / float64(len(f.trees)), nil
}

// Importances returns normalized per-feature split gains.
func (f *Forest) Importances() []float64 {
	return f.importances
}

func normalize(v []float64) {
	total := 0.0
	for _, x := range v {
		total += x
	}
	if total == 0 {
		return
	}
	for i := range v {
		v[i] /= total
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
