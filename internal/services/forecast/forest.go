package forecast

import "math/rand"

// ForestConfig holds the ensemble hyperparameters.
type ForestConfig struct {
	Trees    int
	MaxDepth int
	MinSplit int
	MinLeaf  int
	Seed     int64
}

// DefaultForestConfig is 50 bootstrapped trees of depth 10 with seed 42.
func DefaultForestConfig() ForestConfig {
	return ForestConfig{Trees: 50, MaxDepth: 10, MinSplit: 2, MinLeaf: 1, Seed: 42}
}

// Forest is a bagged ensemble of regression trees. Every tree sees all
// features at every split; diversity comes from bootstrap sampling only.
type Forest struct {
	trees []*Tree
}

// FitForest trains the ensemble. The same rows, targets and seed always
// produce the same trees.
func FitForest(x [][]float64, y []float64, cfg ForestConfig) *Forest {
	rng := rand.New(rand.NewSource(cfg.Seed))
	p := treeParams{maxDepth: cfg.MaxDepth, minSplit: cfg.MinSplit, minLeaf: cfg.MinLeaf}
	n := len(x)

	f := &Forest{trees: make([]*Tree, 0, cfg.Trees)}
	sample := make([]int, n)
	for t := 0; t < cfg.Trees; t++ {
		for i := range sample {
			sample[i] = rng.Intn(n)
		}
		f.trees = append(f.trees, growTree(x, y, sample, p))
	}
	return f
}

// Predict averages the tree predictions.
func (f *Forest) Predict(x []float64) float64 {
	if len(f.trees) == 0 {
		return 0
	}
	sum := 0.0
	for _, t := range f.trees {
		sum += t.Predict(x)
	}
	return sum / float64(len(f.trees))
}

// Agreement is the percentage of trees whose prediction has the sign of the mean.
func (f *Forest) Agreement(x []float64) float64 {
	if len(f.trees) == 0 {
		return 0
	}
	want := sign(f.Predict(x))
	agree := 0
	for _, t := range f.trees {
		if sign(t.Predict(x)) == want {
			agree++
		}
	}
	return float64(agree) / float64(len(f.trees)) * 100
}

func (f *Forest) Size() int { return len(f.trees) }

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
