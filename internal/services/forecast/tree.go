package forecast

import "sort"

// node is a split when left >= 0, otherwise a leaf holding value.
type node struct {
	feature   int
	threshold float64
	left      int
	right     int
	value     float64
}

// Tree is a CART regression tree grown with the squared-error criterion.
type Tree struct {
	nodes []node
}

type treeParams struct {
	maxDepth int
	minSplit int
	minLeaf  int
}

// growTree fits a tree on the rows listed in sample; duplicates act as weights.
func growTree(x [][]float64, y []float64, sample []int, p treeParams) *Tree {
	t := &Tree{nodes: make([]node, 0, 64)}
	t.grow(x, y, sample, 0, p)
	return t
}

func (t *Tree) grow(x [][]float64, y []float64, idx []int, depth int, p treeParams) int {
	sum := 0.0
	for _, i := range idx {
		sum += y[i]
	}
	id := len(t.nodes)
	t.nodes = append(t.nodes, node{left: -1, right: -1, value: sum / float64(len(idx))})

	if depth >= p.maxDepth || len(idx) < p.minSplit || pure(y, idx) {
		return id
	}
	feature, threshold, ok := bestSplit(x, y, idx, sum, p.minLeaf)
	if !ok {
		return id
	}

	left := make([]int, 0, len(idx))
	right := make([]int, 0, len(idx))
	for _, i := range idx {
		if x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	l := t.grow(x, y, left, depth+1, p)
	r := t.grow(x, y, right, depth+1, p)
	t.nodes[id].feature = feature
	t.nodes[id].threshold = threshold
	t.nodes[id].left = l
	t.nodes[id].right = r
	return id
}

// bestSplit maximizes sumL²/nL + sumR²/nR, which minimizes the children's squared error.
func bestSplit(x [][]float64, y []float64, idx []int, total float64, minLeaf int) (int, float64, bool) {
	n := len(idx)
	best := total * total / float64(n)
	bestFeature, bestThreshold, found := -1, 0.0, false

	order := make([]int, n)
	for f := range x[idx[0]] {
		copy(order, idx)
		sort.SliceStable(order, func(a, b int) bool { return x[order[a]][f] < x[order[b]][f] })

		sumL := 0.0
		for k := 1; k < n; k++ {
			sumL += y[order[k-1]]
			lo, hi := x[order[k-1]][f], x[order[k]][f]
			if lo == hi || k < minLeaf || n-k < minLeaf {
				continue
			}
			sumR := total - sumL
			score := sumL*sumL/float64(k) + sumR*sumR/float64(n-k)
			if score > best {
				best = score
				bestFeature = f
				bestThreshold = lo/2 + hi/2
				if bestThreshold == hi {
					bestThreshold = lo
				}
				found = true
			}
		}
	}
	return bestFeature, bestThreshold, found
}

func pure(y []float64, idx []int) bool {
	for _, i := range idx[1:] {
		if y[i] != y[idx[0]] {
			return false
		}
	}
	return true
}

// Predict walks the tree for a standardized vector.
func (t *Tree) Predict(x []float64) float64 {
	i := 0
	for t.nodes[i].left >= 0 {
		n := t.nodes[i]
		if x[n.feature] <= n.threshold {
			i = n.left
		} else {
			i = n.right
		}
	}
	return t.nodes[i].value
}

// Depth is the longest root-to-leaf path.
func (t *Tree) Depth() int {
	var walk func(i int) int
	walk = func(i int) int {
		n := t.nodes[i]
		if n.left < 0 {
			return 0
		}
		return 1 + max(walk(n.left), walk(n.right))
	}
	return walk(0)
}
