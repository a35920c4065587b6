package regress

import (
	"math"
	"math/rand"
	"sort"
)

// treeNode is one node of a regression tree. Leaves carry the mean target
// of the samples that reached them.
type treeNode struct {
	leaf      bool
	value     float64
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
}

type treeParams struct {
	maxDepth    int
	minLeaf     int
	maxFeatures int // features sampled per split; 0 means all
}

// buildTree grows a variance-reduction CART tree over the sample indices
// in idx. Split gains are accumulated into importances (indexed by
// feature) when the slice is non-nil.
func buildTree(X [][]float64, y []float64, idx []int, depth int, p treeParams, rng *rand.Rand, importances []float64) *treeNode {
	mean, sse := meanAndSSE(y, idx)

	if depth >= p.maxDepth || len(idx) < 2*p.minLeaf || sse == 0 {
		return &treeNode{leaf: true, value: mean}
	}

	feature, threshold, gain, ok := bestSplit(X, y, idx, sse, p, rng)
	if !ok {
		return &treeNode{leaf: true, value: mean}
	}
	if importances != nil {
		importances[feature] += gain
	}

	var leftIdx, rightIdx []int
	for _, i := range idx {
		if X[i][feature] <= threshold {
			leftIdx = append(leftIdx, i)
		} else {
			rightIdx = append(rightIdx, i)
		}
	}

	return &treeNode{
		feature:   feature,
		threshold: threshold,
		left:      buildTree(X, y, leftIdx, depth+1, p, rng, importances),
		right:     buildTree(X, y, rightIdx, depth+1, p, rng, importances),
	}
}

// bestSplit scans candidate features for the split with the largest SSE
// reduction. Candidate thresholds are midpoints between consecutive
// distinct values.
func bestSplit(X [][]float64, y []float64, idx []int, parentSSE float64, p treeParams, rng *rand.Rand) (feature int, threshold, gain float64, ok bool) {
	nFeatures := len(X[idx[0]])

	candidates := make([]int, nFeatures)
	for i := range candidates {
		candidates[i] = i
	}
	if p.maxFeatures > 0 && p.maxFeatures < nFeatures {
		rng.Shuffle(nFeatures, func(i, j int) {
			candidates[i], candidates[j] = candidates[j], candidates[i]
		})
		candidates = candidates[:p.maxFeatures]
		sort.Ints(candidates)
	}

	bestGain := 0.0
	sorted := make([]int, len(idx))

	for _, f := range candidates {
		copy(sorted, idx)
		sort.Slice(sorted, func(a, b int) bool { return X[sorted[a]][f] < X[sorted[b]][f] })

		// Prefix sums over the sorted order let every split position be
		// evaluated in constant time.
		var leftSum, leftSq float64
		totalSum, totalSq := 0.0, 0.0
		for _, i := range sorted {
			totalSum += y[i]
			totalSq += y[i] * y[i]
		}

		n := len(sorted)
		for pos := 0; pos < n-1; pos++ {
			i := sorted[pos]
			leftSum += y[i]
			leftSq += y[i] * y[i]

			v, next := X[i][f], X[sorted[pos+1]][f]
			if v == next || math.IsNaN(v) || math.IsNaN(next) {
				continue
			}
			nLeft, nRight := pos+1, n-pos-1
			if nLeft < p.minLeaf || nRight < p.minLeaf {
				continue
			}

			rightSum := totalSum - leftSum
			rightSq := totalSq - leftSq
			childSSE := (leftSq - leftSum*leftSum/float64(nLeft)) +
				(rightSq - rightSum*rightSum/float64(nRight))

			if g := parentSSE - childSSE; g > bestGain {
				bestGain = g
				feature = f
				threshold = (v + next) / 2
				ok = true
			}
		}
	}
	return feature, threshold, bestGain, ok
}

func (t *treeNode) predict(x []float64) float64 {
	node := t
	for !node.leaf {
		// NaN comparisons are false, sending missing values right.
		if x[node.feature] <= node.threshold {
			node = node.left
		} else {
			node = node.right
		}
	}
	return node.value
}

func meanAndSSE(y []float64, idx []int) (mean, sse float64) {
	if len(idx) == 0 {
		return 0, 0
	}
	sum, sq := 0.0, 0.0
	for _, i := range idx {
		sum += y[i]
		sq += y[i] * y[i]
	}
	n := float64(len(idx))
	mean = sum / n
	sse = sq - sum*sum/n
	if sse < 0 {
		sse = 0
	}
	return mean, sse
}
