package classifier

import (
	"cmp"
	"math/rand/v2"
	"slices"
)

const leaf = -1

// Node is one node of a flattened decision tree. Leaves have Feature -1 and
// carry the class distribution of their training samples.
type Node struct {
	Feature   int       `json:"f"`
	Threshold float64   `json:"t,omitempty"`
	Left      int       `json:"l,omitempty"`
	Right     int       `json:"r,omitempty"`
	Dist      []float64 `json:"d,omitempty"`
}

// Tree is a CART classification tree stored in pre-order; node 0 is the root.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Proba returns the class distribution of the leaf x falls into.
func (t *Tree) Proba(x []float64) []float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Feature == leaf {
			return n.Dist
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

type treeBuilder struct {
	x               [][]float64
	y               []int
	classes         int
	maxFeatures     int
	minSamplesSplit int
	rng             *rand.Rand
	nodes           []Node
}

// growTree fits a tree on the samples in idx, which may repeat.
func growTree(x [][]float64, y []int, idx []int, classes, maxFeatures, minSamplesSplit int, rng *rand.Rand) Tree {
	b := &treeBuilder{
		x:               x,
		y:               y,
		classes:         classes,
		maxFeatures:     maxFeatures,
		minSamplesSplit: minSamplesSplit,
		rng:             rng,
	}
	b.build(idx)
	return Tree{Nodes: b.nodes}
}

func (b *treeBuilder) build(idx []int) int {
	counts := b.counts(idx)
	id := len(b.nodes)
	b.nodes = append(b.nodes, Node{Feature: leaf})

	if len(idx) < b.minSamplesSplit || gini(counts, len(idx)) == 0 {
		b.nodes[id].Dist = normalize(counts, len(idx))
		return id
	}
	feature, threshold, ok := b.bestSplit(idx, counts)
	if !ok {
		b.nodes[id].Dist = normalize(counts, len(idx))
		return id
	}

	var left, right []int
	for _, i := range idx {
		if b.x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		b.nodes[id].Dist = normalize(counts, len(idx))
		return id
	}
	l := b.build(left)
	r := b.build(right)
	b.nodes[id] = Node{Feature: feature, Threshold: threshold, Left: l, Right: r}
	return id
}

// bestSplit searches a random subset of maxFeatures features for the
// threshold with the lowest weighted gini impurity. When none of them can
// separate the samples, the remaining features are tried in turn.
func (b *treeBuilder) bestSplit(idx []int, counts []int) (int, float64, bool) {
	order := b.rng.Perm(len(b.x[0]))
	bestFeature, bestThreshold, bestImpurity := -1, 0.0, 0.0
	sorted := make([]int, len(idx))
	left := make([]int, b.classes)
	right := make([]int, b.classes)

	for tried, f := range order {
		if tried >= b.maxFeatures && bestFeature >= 0 {
			break
		}
		copy(sorted, idx)
		slices.SortStableFunc(sorted, func(a, c int) int { return cmp.Compare(b.x[a][f], b.x[c][f]) })
		clear(left)
		copy(right, counts)

		n := len(sorted)
		for pos := 0; pos < n-1; pos++ {
			cls := b.y[sorted[pos]]
			left[cls]++
			right[cls]--
			v, next := b.x[sorted[pos]][f], b.x[sorted[pos+1]][f]
			if v == next {
				continue
			}
			nl, nr := pos+1, n-pos-1
			impurity := (float64(nl)*gini(left, nl) + float64(nr)*gini(right, nr)) / float64(n)
			if bestFeature < 0 || impurity < bestImpurity {
				bestFeature, bestThreshold, bestImpurity = f, midpoint(v, next), impurity
			}
		}
	}
	return bestFeature, bestThreshold, bestFeature >= 0
}

// midpoint returns a threshold t with v <= t < next. Between adjacent
// floats the halfway point rounds up to next, so v is used instead.
func midpoint(v, next float64) float64 {
	t := v + (next-v)/2
	if t >= next {
		return v
	}
	return t
}

func (b *treeBuilder) counts(idx []int) []int {
	c := make([]int, b.classes)
	for _, i := range idx {
		c[b.y[i]]++
	}
	return c
}

func gini(counts []int, n int) float64 {
	if n == 0 {
		return 0
	}
	g := 1.0
	for _, c := range counts {
		p := float64(c) / float64(n)
		g -= p * p
	}
	return g
}

func normalize(counts []int, n int) []float64 {
	d := make([]float64, len(counts))
	if n == 0 {
		return d
	}
	for i, c := range counts {
		d[i] = float64(c) / float64(n)
	}
	return d
}
