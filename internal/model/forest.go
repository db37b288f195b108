package model

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"
)

// ForestConfig fixes the ensemble shape. The defaults mirror the
// deployed training setup: 100 bagged trees with a depth cap of 10.
type ForestConfig struct {
	Trees    int
	MaxDepth int
	Seed     int64
}

// DefaultForestConfig returns the fixed production ensemble settings.
func DefaultForestConfig(seed int64) ForestConfig {
	return ForestConfig{Trees: 100, MaxDepth: 10, Seed: seed}
}

// Node is one decision-tree node. Leaves carry per-class sample
// counts from the bootstrap sample that reached them.
type Node struct {
	Feature   int
	Threshold float64
	Left      *Node
	Right     *Node
	Counts    [NumClasses]float64
	Leaf      bool
}

// Forest is a bagged ensemble of CART trees over the grip feature
// vector. Class probabilities are the mean of per-tree leaf class
// fractions.
type Forest struct {
	Trees       []*Node
	NumFeatures int
}

// TrainForest fits the ensemble on the given feature matrix and
// labels. Trees train concurrently, but each tree draws from its own
// seed derived from cfg.Seed, so the result is identical to
// sequential training.
func TrainForest(x [][]float64, y []int, cfg ForestConfig) (*Forest, error) {
	if len(x) == 0 || len(x) != len(y) {
		return nil, fmt.Errorf("forest: bad training shape: %d samples, %d labels", len(x), len(y))
	}
	if cfg.Trees <= 0 || cfg.MaxDepth <= 0 {
		return nil, fmt.Errorf("forest: invalid config %+v", cfg)
	}

	f := &Forest{
		Trees:       make([]*Node, cfg.Trees),
		NumFeatures: len(x[0]),
	}

	var wg sync.WaitGroup
	for t := 0; t < cfg.Trees; t++ {
		wg.Add(1)
		go func(t int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(cfg.Seed + int64(t)))
			idx := make([]int, len(x))
			for i := range idx {
				idx[i] = rng.Intn(len(x))
			}
			f.Trees[t] = growTree(x, y, idx, 0, cfg.MaxDepth, rng)
		}(t)
	}
	wg.Wait()

	return f, nil
}

func growTree(x [][]float64, y, idx []int, depth, maxDepth int, rng *rand.Rand) *Node {
	n := &Node{}
	for _, i := range idx {
		n.Counts[y[i]]++
	}

	if depth >= maxDepth || len(idx) < 2 || pure(n.Counts) {
		n.Leaf = true
		return n
	}

	feature, threshold, ok := bestSplit(x, y, idx, rng)
	if !ok {
		n.Leaf = true
		return n
	}

	var left, right []int
	for _, i := range idx {
		if x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		n.Leaf = true
		return n
	}

	n.Feature = feature
	n.Threshold = threshold
	n.Left = growTree(x, y, left, depth+1, maxDepth, rng)
	n.Right = growTree(x, y, right, depth+1, maxDepth, rng)
	return n
}

func pure(counts [NumClasses]float64) bool {
	seen := 0
	for _, c := range counts {
		if c > 0 {
			seen++
		}
	}
	return seen <= 1
}

// bestSplit scans a random sqrt-sized feature subset and returns the
// split with the lowest weighted Gini impurity.
func bestSplit(x [][]float64, y, idx []int, rng *rand.Rand) (feature int, threshold float64, ok bool) {
	numFeatures := len(x[idx[0]])
	subset := rng.Perm(numFeatures)[:maxInt(1, int(math.Sqrt(float64(numFeatures))))]

	bestGini := math.Inf(1)

	pairs := make([]splitPair, len(idx))

	for _, f := range subset {
		for i, s := range idx {
			pairs[i] = splitPair{v: x[s][f], label: y[s]}
		}
		sort.Slice(pairs, func(a, b int) bool {
			if pairs[a].v != pairs[b].v {
				return pairs[a].v < pairs[b].v
			}
			return pairs[a].label < pairs[b].label
		})

		var leftCounts, rightCounts [NumClasses]float64
		for _, p := range pairs {
			rightCounts[p.label]++
		}
		total := float64(len(pairs))

		for i := 0; i < len(pairs)-1; i++ {
			leftCounts[pairs[i].label]++
			rightCounts[pairs[i].label]--
			if pairs[i].v == pairs[i+1].v {
				continue
			}
			nl := float64(i + 1)
			nr := total - nl
			g := nl/total*gini(leftCounts, nl) + nr/total*gini(rightCounts, nr)
			if g < bestGini {
				bestGini = g
				feature = f
				threshold = (pairs[i].v + pairs[i+1].v) / 2
				ok = true
			}
		}
	}
	return feature, threshold, ok
}

func gini(counts [NumClasses]float64, n float64) float64 {
	g := 1.0
	for _, c := range counts {
		p := c / n
		g -= p * p
	}
	return g
}

type splitPair struct {
	v     float64
	label int
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Predict returns the majority-vote class for one feature vector.
func (f *Forest) Predict(features []float64) int {
	proba := f.PredictProba(features)
	best := 0
	for c := 1; c < len(proba); c++ {
		if proba[c] > proba[best] {
			best = c
		}
	}
	return best
}

// PredictProba averages leaf class fractions across the ensemble.
func (f *Forest) PredictProba(features []float64) []float64 {
	proba := make([]float64, NumClasses)
	for _, root := range f.Trees {
		leaf := root
		for !leaf.Leaf {
			if features[leaf.Feature] <= leaf.Threshold {
				leaf = leaf.Left
			} else {
				leaf = leaf.Right
			}
		}
		var total float64
		for _, c := range leaf.Counts {
			total += c
		}
		if total == 0 {
			continue
		}
		for c := range proba {
			proba[c] += leaf.Counts[c] / total
		}
	}
	for c := range proba {
		proba[c] /= float64(len(f.Trees))
	}
	return proba
}
