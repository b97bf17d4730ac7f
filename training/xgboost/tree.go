package xgboost

import "sort"

// treeNode is one node of a regression tree fit to gradient statistics.
// Fields are exported so gob can serialize saved models.
type treeNode struct {
	Leaf      bool
	Feature   int
	Threshold float64 // x[Feature] <= Threshold goes left
	Weight    float64 // leaf output
	Left      *treeNode
	Right     *treeNode
}

type treeParams struct {
	maxDepth       int
	lambda         float64
	gamma          float64
	minChildWeight float64
}

// buildTree greedily grows a regression tree over the given sample indices
// using exact splits on every feature.
func buildTree(features [][]float64, grad, hess []float64, indices []int, depth int, p treeParams) *treeNode {
	var sumG, sumH float64
	for _, i := range indices {
		sumG += grad[i]
		sumH += hess[i]
	}

	leaf := &treeNode{
		Leaf:   true,
		Weight: -sumG / (sumH + p.lambda),
	}
	if depth >= p.maxDepth || len(indices) < 2 {
		return leaf
	}

	feature, threshold, gain := bestSplit(features, grad, hess, indices, sumG, sumH, p)
	if gain <= 0 {
		return leaf
	}

	var left, right []int
	for _, i := range indices {
		if features[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return leaf
	}

	return &treeNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      buildTree(features, grad, hess, left, depth+1, p),
		Right:     buildTree(features, grad, hess, right, depth+1, p),
	}
}

// bestSplit scans every feature for the split maximizing the structure
// score gain. Returns a non-positive gain when no split helps.
func bestSplit(features [][]float64, grad, hess []float64, indices []int, sumG, sumH float64, p treeParams) (int, float64, float64) {
	bestFeature := -1
	bestThreshold := 0.0
	bestGain := 0.0

	parentScore := sumG * sumG / (sumH + p.lambda)
	order := make([]int, len(indices))

	numFeatures := len(features[indices[0]])
	for f := 0; f < numFeatures; f++ {
		copy(order, indices)
		sort.Slice(order, func(a, b int) bool {
			return features[order[a]][f] < features[order[b]][f]
		})

		var gl, hl float64
		for pos := 0; pos < len(order)-1; pos++ {
			i := order[pos]
			gl += grad[i]
			hl += hess[i]

			// No valid threshold between equal values.
			if features[i][f] == features[order[pos+1]][f] {
				continue
			}

			gr := sumG - gl
			hr := sumH - hl
			if hl < p.minChildWeight || hr < p.minChildWeight {
				continue
			}

			gain := 0.5*(gl*gl/(hl+p.lambda)+gr*gr/(hr+p.lambda)-parentScore) - p.gamma
			if gain > bestGain {
				bestGain = gain
				bestFeature = f
				bestThreshold = (features[i][f] + features[order[pos+1]][f]) / 2
			}
		}
	}

	return bestFeature, bestThreshold, bestGain
}

func (n *treeNode) predict(x []float64) float64 {
	for !n.Leaf {
		if x[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Weight
}
