package regress

import (
	"math/rand"
)

// GradientBoost fits shallow regression trees sequentially, each one on
// the residuals of the ensemble so far.
type GradientBoost struct {
	NumTrees     int
	MaxDepth     int
	MinLeaf      int
	LearningRate float64

	seed        int64
	base        float64
	trees       []*treeNode
	importances []float64
}

// NewGradientBoost returns a gradient-boosting regressor with default
// parameters and a fixed seed.
func NewGradientBoost(seed int64) *GradientBoost {
	return &GradientBoost{
		NumTrees:     100,
		MaxDepth:     3,
		MinLeaf:      2,
		LearningRate: 0.1,
		seed:         seed,
	}
}

func (g *GradientBoost) Name() string { return "Gradient Boosting" }

func (g *GradientBoost) Fit(X [][]float64, y []float64) error {
	if err := checkTrainingData(X, y); err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(g.seed))
	n := len(X)
	nFeatures := len(X[0])
	params := treeParams{maxDepth: g.MaxDepth, minLeaf: g.MinLeaf}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}

	sum := 0.0
	for _, v := range y {
		sum += v
	}
	g.base = sum / float64(n)

	pred := make([]float64, n)
	for i := range pred {
		pred[i] = g.base
	}

	residual := make([]float64, n)
	g.trees = make([]*treeNode, 0, g.NumTrees)
	g.importances = make([]float64, nFeatures)

	for t := 0; t < g.NumTrees; t++ {
		for i := range residual {
			residual[i] = y[i] - pred[i]
		}
		tree := buildTree(X, residual, idx, 0, params, rng, g.importances)
		g.trees = append(g.trees, tree)
		for i := range pred {
			pred[i] += g.LearningRate * tree.predict(X[i])
		}
	}

	normalize(g.importances)
	return nil
}

func (g *GradientBoost) Predict(x []float64) (float64, error) {
	if len(g.trees) == 0 {
		return 0, ErrNotFitted
	}
	out := g.base
	for _, t := range g.trees {
		out += g.LearningRate * t.predict(x)
	}
	return out, nil
}

// Importances returns normalized per-feature split gains.
func (g *GradientBoost) Importances() []float64 {
	return g.importances
}
