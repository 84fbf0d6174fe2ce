package classifier

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
)

// ForestParams configures random forest training.
type ForestParams struct {
	Trees           int
	MaxFeatures     int // 0 means floor(sqrt(features))
	MinSamplesSplit int
	Seed            uint64
}

// DefaultForestParams returns 220 trees with sqrt feature sampling and seed 42.
func DefaultForestParams() ForestParams {
	return ForestParams{Trees: 220, MinSamplesSplit: 2, Seed: 42}
}

// Forest is a bagged ensemble of CART trees whose leaf distributions are
// averaged at prediction time.
type Forest struct {
	Classes  int    `json:"classes"`
	Features int    `json:"features"`
	Trees    []Tree `json:"trees"`
}

// FitForest trains a forest on x (rows of encoded features) and y (class
// indices in [0, classes)). Each tree sees a bootstrap sample. Training is
// fully determined by p.Seed.
func FitForest(x [][]float64, y []int, classes int, p ForestParams) (*Forest, error) {
	if len(x) == 0 {
		return nil, errors.New("fit forest: no samples")
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("fit forest: %d rows but %d labels", len(x), len(y))
	}
	if p.Trees <= 0 {
		return nil, fmt.Errorf("fit forest: tree count %d", p.Trees)
	}
	width := len(x[0])
	for i, row := range x {
		if len(row) != width {
			return nil, fmt.Errorf("fit forest: row %d has %d features, want %d", i, len(row), width)
		}
	}
	for i, c := range y {
		if c < 0 || c >= classes {
			return nil, fmt.Errorf("fit forest: label %d at row %d out of range", c, i)
		}
	}

	maxFeatures := p.MaxFeatures
	if maxFeatures <= 0 {
		maxFeatures = max(1, int(math.Sqrt(float64(width))))
	}
	minSplit := max(2, p.MinSamplesSplit)

	seeds := rand.New(rand.NewPCG(p.Seed, p.Seed^0x9e3779b97f4a7c15))
	f := &Forest{Classes: classes, Features: width, Trees: make([]Tree, 0, p.Trees)}
	for range p.Trees {
		rng := rand.New(rand.NewPCG(seeds.Uint64(), seeds.Uint64()))
		sample := make([]int, len(x))
		for i := range sample {
			sample[i] = rng.IntN(len(x))
		}
		f.Trees = append(f.Trees, growTree(x, y, sample, classes, maxFeatures, minSplit, rng))
	}
	return f, nil
}

// Proba averages the leaf distributions of every tree.
func (f *Forest) Proba(x []float64) []float64 {
	out := make([]float64, f.Classes)
	for i := range f.Trees {
		for c, p := range f.Trees[i].Proba(x) {
			out[c] += p
		}
	}
	for c := range out {
		out[c] /= float64(len(f.Trees))
	}
	return out
}

// Predict returns the most probable class; ties go to the lowest index.
func (f *Forest) Predict(x []float64) int {
	proba := f.Proba(x)
	best := 0
	for c := 1; c < len(proba); c++ {
		if proba[c] > proba[best] {
			best = c
		}
	}
	return best
}

// check verifies that a decoded forest is traversable.
func (f *Forest) check() error {
	if f.Classes <= 0 || f.Features <= 0 {
		return fmt.Errorf("forest has %d classes and %d features", f.Classes, f.Features)
	}
	if len(f.Trees) == 0 {
		return errors.New("forest has no trees")
	}
	for ti, t := range f.Trees {
		if len(t.Nodes) == 0 {
			return fmt.Errorf("tree %d is empty", ti)
		}
		for ni, n := range t.Nodes {
			if n.Feature == leaf {
				if len(n.Dist) != f.Classes {
					return fmt.Errorf("tree %d node %d: distribution has %d classes", ti, ni, len(n.Dist))
				}
				continue
			}
			if n.Feature < 0 || n.Feature >= f.Features {
				return fmt.Errorf("tree %d node %d: feature %d out of range", ti, ni, n.Feature)
			}
			// children always follow their parent in pre-order
			if n.Left <= ni || n.Right <= ni || n.Left >= len(t.Nodes) || n.Right >= len(t.Nodes) {
				return fmt.Errorf("tree %d node %d: bad child index", ti, ni)
			}
		}
	}
	return nil
}
