package surrogate

import "sort"

// treeNode is one node of a regression tree. Leaves carry the fitted value;
// internal nodes route on feature <= threshold.
type treeNode struct {
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
	value     float64
	leaf      bool
	id        int
}

// regTree is a depth-limited CART regression tree fit with squared loss.
type regTree struct {
	root     *treeNode
	maxDepth int
	minLeaf  int
	numLeaf  int
}

// fit grows the tree on X[idx] / y[idx] and returns, for every row index in
// idx, the id of the leaf it landed in. Leaf ids are dense in [0, numLeaf).
func (t *regTree) fit(X [][]float64, y []float64, idx []int) map[int]int {
	assign := make(map[int]int, len(idx))
	t.root = t.grow(X, y, idx, 0, assign)
	return assign
}

func (t *regTree) grow(X [][]float64, y []float64, idx []int, depth int, assign map[int]int) *treeNode {
	if depth >= t.maxDepth || len(idx) < 2*t.minLeaf || constant(y, idx) {
		return t.makeLeaf(y, idx, assign)
	}
	feature, threshold, ok := t.bestSplit(X, y, idx)
	if !ok {
		return t.makeLeaf(y, idx, assign)
	}
	var left, right []int
	for _, i := range idx {
		if X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) < t.minLeaf || len(right) < t.minLeaf {
		return t.makeLeaf(y, idx, assign)
	}
	return &treeNode{
		feature:   feature,
		threshold: threshold,
		left:      t.grow(X, y, left, depth+1, assign),
		right:     t.grow(X, y, right, depth+1, assign),
	}
}

func (t *regTree) makeLeaf(y []float64, idx []int, assign map[int]int) *treeNode {
	node := &treeNode{leaf: true, value: meanAt(y, idx), id: t.numLeaf}
	t.numLeaf++
	for _, i := range idx {
		assign[i] = node.id
	}
	return node
}

// bestSplit scans every feature and every boundary between distinct sorted
// values, minimizing total squared error via prefix sums. Ties keep the
// first candidate found, so refits are deterministic.
func (t *regTree) bestSplit(X [][]float64, y []float64, idx []int) (int, float64, bool) {
	n := len(idx)
	bestGain := 0.0
	bestFeature, bestThreshold := -1, 0.0

	total, totalSq := 0.0, 0.0
	for _, i := range idx {
		total += y[i]
		totalSq += y[i] * y[i]
	}
	parentSSE := totalSq - total*total/float64(n)

	order := make([]int, n)
	for f := 0; f < len(X[idx[0]]); f++ {
		copy(order, idx)
		sort.SliceStable(order, func(a, b int) bool { return X[order[a]][f] < X[order[b]][f] })

		leftSum, leftSq := 0.0, 0.0
		for pos := 0; pos < n-1; pos++ {
			i := order[pos]
			leftSum += y[i]
			leftSq += y[i] * y[i]
			if X[order[pos+1]][f] == X[i][f] {
				continue
			}
			nl := float64(pos + 1)
			nr := float64(n - pos - 1)
			if pos+1 < t.minLeaf || n-pos-1 < t.minLeaf {
				continue
			}
			rightSum := total - leftSum
			rightSq := totalSq - leftSq
			sse := (leftSq - leftSum*leftSum/nl) + (rightSq - rightSum*rightSum/nr)
			gain := parentSSE - sse
			if gain > bestGain+1e-12 {
				bestGain = gain
				bestFeature = f
				bestThreshold = (X[i][f] + X[order[pos+1]][f]) / 2
			}
		}
	}
	if bestFeature < 0 {
		return 0, 0, false
	}
	return bestFeature, bestThreshold, true
}

// predict routes one point to its leaf value.
func (t *regTree) predict(point []float64) float64 {
	node := t.root
	for !node.leaf {
		if point[node.feature] <= node.threshold {
			node = node.left
		} else {
			node = node.right
		}
	}
	return node.value
}

// setLeafValues replaces every leaf's value by id. Used by logistic
// boosting to swap mean residuals for Newton-step estimates.
func (t *regTree) setLeafValues(values map[int]float64) {
	var walk func(n *treeNode)
	walk = func(n *treeNode) {
		if n.leaf {
			if v, ok := values[n.id]; ok {
				n.value = v
			}
			return
		}
		walk(n.left)
		walk(n.right)
	}
	walk(t.root)
}

func meanAt(y []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	sum := 0.0
	for _, i := range idx {
		sum += y[i]
	}
	return sum / float64(len(idx))
}

func constant(y []float64, idx []int) bool {
	for _, i := range idx[1:] {
		if y[i] != y[idx[0]] {
			return false
		}
	}
	return true
}
