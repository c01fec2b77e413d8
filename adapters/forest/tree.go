package forest

import (
	"math/rand"
	"sort"
)

// node is one decision point. Internal nodes route rows by threshold;
// leaves carry Feature == -1 and a normalized class distribution. Fields
// stay exported so gob can persist the tree.
type node struct {
	Feature   int
	Threshold float64
	Left      *node
	Right     *node
	Dist      []float64
}

// tree is a single Gini-split classifier grown on a bootstrap sample.
type tree struct {
	Root *node
}

func (t *tree) distribution(row []float64) []float64 {
	n := t.Root
	for n.Feature >= 0 {
		if row[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Dist
}

// treeBuilder grows one tree. Row indices point into the shared matrix;
// the builder never copies feature data.
type treeBuilder struct {
	x           [][]float64
	y           []int
	classWeight []float64
	classes     int
	features    int
	mtry        int
	cfg         Config
	rng         *rand.Rand
	importance  []float64
	rootWeight  float64
}

type split struct {
	feature     int
	threshold   float64
	decrease    float64
	leftCounts  []float64
	rightCounts []float64
}

func (b *treeBuilder) build(rows []int) *tree {
	counts := b.weightedCounts(rows)
	b.rootWeight = sum(counts)
	return &tree{Root: b.grow(rows, counts, 0)}
}

func (b *treeBuilder) grow(rows []int, counts []float64, depth int) *node {
	if len(rows) < b.cfg.MinSplit || depth >= b.cfg.MaxDepth || isPure(counts) {
		return b.leaf(counts)
	}

	best, ok := b.bestSplit(rows, counts)
	if !ok {
		return b.leaf(counts)
	}

	b.importance[best.feature] += best.decrease / b.rootWeight

	left, right := b.partition(rows, best.feature, best.threshold)
	return &node{
		Feature:   best.feature,
		Threshold: best.threshold,
		Left:      b.grow(left, best.leftCounts, depth+1),
		Right:     b.grow(right, best.rightCounts, depth+1),
	}
}

// bestSplit evaluates a random subset of features and keeps the split with
// the largest weighted impurity decrease.
func (b *treeBuilder) bestSplit(rows []int, counts []float64) (split, bool) {
	parent := sum(counts) * gini(counts)

	order := b.rng.Perm(b.features)
	best := split{feature: -1}
	for _, f := range order[:b.mtry] {
		s, ok := b.scanFeature(rows, counts, f, parent)
		if ok && (best.feature < 0 || s.decrease > best.decrease) {
			best = s
		}
	}
	if best.feature < 0 || best.decrease <= 1e-12 {
		return split{}, false
	}
	return best, true
}

// scanFeature sorts the node's rows by one feature and walks the boundary
// between distinct values, tracking weighted class counts incrementally.
func (b *treeBuilder) scanFeature(rows []int, counts []float64, feature int, parent float64) (split, bool) {
	sorted := make([]int, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool {
		return b.x[sorted[i]][feature] < b.x[sorted[j]][feature]
	})

	leftCounts := make([]float64, b.classes)
	rightCounts := make([]float64, b.classes)
	copy(rightCounts, counts)
	leftRaw := 0

	best := split{feature: -1}
	for i := 0; i < len(sorted)-1; i++ {
		r := sorted[i]
		w := b.classWeight[b.y[r]]
		leftCounts[b.y[r]] += w
		rightCounts[b.y[r]] -= w
		leftRaw++

		v, next := b.x[r][feature], b.x[sorted[i+1]][feature]
		if v == next {
			continue
		}
		if leftRaw < b.cfg.MinLeaf || len(sorted)-leftRaw < b.cfg.MinLeaf {
			continue
		}

		decrease := parent - sum(leftCounts)*gini(leftCounts) - sum(rightCounts)*gini(rightCounts)
		if best.feature < 0 || decrease > best.decrease {
			best = split{
				feature:     feature,
				threshold:   (v + next) / 2,
				decrease:    decrease,
				leftCounts:  append([]float64(nil), leftCounts...),
				rightCounts: append([]float64(nil), rightCounts...),
			}
		}
	}
	return best, best.feature >= 0
}

func (b *treeBuilder) partition(rows []int, feature int, threshold float64) ([]int, []int) {
	var left, right []int
	for _, r := range rows {
		if b.x[r][feature] <= threshold {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}
	return left, right
}

func (b *treeBuilder) leaf(counts []float64) *node {
	total := sum(counts)
	dist := make([]float64, len(counts))
	if total > 0 {
		for i, c := range counts {
			dist[i] = c / total
		}
	}
	return &node{Feature: -1, Dist: dist}
}

func (b *treeBuilder) weightedCounts(rows []int) []float64 {
	counts := make([]float64, b.classes)
	for _, r := range rows {
		counts[b.y[r]] += b.classWeight[b.y[r]]
	}
	return counts
}

func gini(counts []float64) float64 {
	total := sum(counts)
	if total == 0 {
		return 0
	}
	impurity := 1.0
	for _, c := range counts {
		p := c / total
		impurity -= p * p
	}
	return impurity
}

func sum(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s
}

func isPure(counts []float64) bool {
	seen := false
	for _, c := range counts {
		if c > 0 {
			if seen {
				return false
			}
			seen = true
		}
	}
	return true
}
