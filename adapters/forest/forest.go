// Package forest implements the bundled classifier: a random forest of
// Gini-split trees with bootstrap sampling, sqrt feature subsetting and
// balanced class weights, grown concurrently one goroutine per tree.
package forest

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"

	"transitvet/domain/core"
	"transitvet/domain/table"
)

// Config fixes the forest's shape. Identical config, seed and input always
// grow the identical ensemble.
type Config struct {
	Trees    int
	MaxDepth int
	MinSplit int
	MinLeaf  int
	Seed     int64
}

// DefaultConfig matches the reference model the disposition thresholds
// were tuned against.
func DefaultConfig() Config {
	return Config{Trees: 200, MaxDepth: 15, MinSplit: 5, MinLeaf: 2, Seed: 42}
}

// Forest is the ensemble. Exported fields persist through gob.
type Forest struct {
	Cfg        Config
	Classes    int
	Features   []string
	Trees      []*tree
	Importance []float64
}

// New returns an untrained forest with the given configuration.
func New(cfg Config) *Forest {
	return &Forest{Cfg: cfg}
}

// Train implements ports.Classifier. Tree i derives its private RNG from
// Seed+i, so the ensemble is reproducible no matter how the goroutines
// interleave.
func (f *Forest) Train(ctx context.Context, m table.Matrix, labels []int, classes int) error {
	if m.Len() == 0 {
		return fmt.Errorf("cannot train on an empty matrix")
	}
	if m.Len() != len(labels) {
		return fmt.Errorf("matrix rows and labels differ: %d vs %d", m.Len(), len(labels))
	}
	if classes < 2 {
		return fmt.Errorf("need at least 2 classes, got %d", classes)
	}
	for i, label := range labels {
		if label < 0 || label >= classes {
			return fmt.Errorf("label %d at row %d outside [0, %d)", label, i, classes)
		}
	}
	if f.Cfg.Trees < 1 {
		return fmt.Errorf("need at least 1 tree, got %d", f.Cfg.Trees)
	}

	d := len(m.X[0])
	mtry := int(math.Sqrt(float64(d)))
	if mtry < 1 {
		mtry = 1
	}
	weights := balancedWeights(labels, classes)

	trees := make([]*tree, f.Cfg.Trees)
	importances := make([][]float64, f.Cfg.Trees)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range trees {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewSource(f.Cfg.Seed + int64(i)))
			rows := make([]int, m.Len())
			for j := range rows {
				rows[j] = rng.Intn(m.Len())
			}
			b := &treeBuilder{
				x:           m.X,
				y:           labels,
				classWeight: weights,
				classes:     classes,
				features:    d,
				mtry:        mtry,
				cfg:         f.Cfg,
				rng:         rng,
				importance:  make([]float64, d),
			}
			trees[i] = b.build(rows)
			importances[i] = b.importance
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	f.Classes = classes
	f.Features = append([]string(nil), m.Features...)
	f.Trees = trees
	f.Importance = averageImportances(importances, d)
	return nil
}

// Proba implements ports.Classifier.
func (f *Forest) Proba(ctx context.Context, m table.Matrix) ([][]float64, error) {
	if err := f.ready(m); err != nil {
		return nil, err
	}
	out := make([][]float64, m.Len())
	for i, row := range m.X {
		probs := make([]float64, f.Classes)
		for _, t := range f.Trees {
			for c, p := range t.distribution(row) {
				probs[c] += p
			}
		}
		for c := range probs {
			probs[c] /= float64(len(f.Trees))
		}
		out[i] = probs
	}
	return out, nil
}

// Predict implements ports.Classifier. Ties resolve to the lowest class
// index.
func (f *Forest) Predict(ctx context.Context, m table.Matrix) ([]int, error) {
	probs, err := f.Proba(ctx, m)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(probs))
	for i, p := range probs {
		out[i] = argmax(p)
	}
	return out, nil
}

// Importances implements ports.Classifier: mean impurity decrease per
// feature, normalized per tree and averaged across the ensemble.
func (f *Forest) Importances() ([]float64, error) {
	if len(f.Trees) == 0 {
		return nil, fmt.Errorf("model is not trained")
	}
	return append([]float64(nil), f.Importance...), nil
}

func (f *Forest) ready(m table.Matrix) error {
	if len(f.Trees) == 0 {
		return fmt.Errorf("model is not trained")
	}
	if len(f.Features) == 0 || len(m.Features) == 0 {
		return nil
	}
	if len(m.Features) != len(f.Features) {
		return fmt.Errorf("%w: model expects %d features, matrix has %d",
			core.ErrArtifactMismatch, len(f.Features), len(m.Features))
	}
	for i, name := range f.Features {
		if m.Features[i] != name {
			return fmt.Errorf("%w: feature %d is %s, model expects %s",
				core.ErrArtifactMismatch, i, m.Features[i], name)
		}
	}
	return nil
}

// balancedWeights gives class c the weight n/(k*count_c) over the k classes
// actually present, so rare dispositions count as much as common ones in
// every impurity calculation.
func balancedWeights(labels []int, classes int) []float64 {
	counts := make([]int, classes)
	for _, label := range labels {
		counts[label]++
	}
	present := 0
	for _, cnt := range counts {
		if cnt > 0 {
			present++
		}
	}
	weights := make([]float64, classes)
	n := float64(len(labels))
	k := float64(present)
	for c, cnt := range counts {
		if cnt > 0 {
			weights[c] = n / (k * float64(cnt))
		}
	}
	return weights
}

func averageImportances(perTree [][]float64, d int) []float64 {
	avg := make([]float64, d)
	used := 0
	for _, imp := range perTree {
		total := sum(imp)
		if total <= 0 {
			continue
		}
		for j, v := range imp {
			avg[j] += v / total
		}
		used++
	}
	if used == 0 {
		return avg
	}
	total := 0.0
	for j := range avg {
		avg[j] /= float64(used)
		total += avg[j]
	}
	if total > 0 {
		for j := range avg {
			avg[j] /= total
		}
	}
	return avg
}

func argmax(xs []float64) int {
	best := 0
	for i, x := range xs {
		if x > xs[best] {
			best = i
		}
	}
	return best
}
