// Package sampling rebalances training matrices before model fitting.
package sampling

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sort"

	"transitvet/domain/table"
	"transitvet/ports"
)

// Oversampler evens out class frequencies by duplicating minority-class
// rows with replacement until every class matches the majority count, then
// shuffling the combined set. A fixed seed makes the resample reproducible.
type Oversampler struct {
	seed int64
}

// NewOversampler returns a seeded random oversampler.
func NewOversampler(seed int64) ports.Rebalancer {
	return &Oversampler{seed: seed}
}

// Rebalance implements ports.Rebalancer.
func (o *Oversampler) Rebalance(ctx context.Context, m table.Matrix, labels []int) (table.Matrix, []int, error) {
	if m.Len() != len(labels) {
		return table.Matrix{}, nil, fmt.Errorf("matrix rows and labels differ: %d vs %d", m.Len(), len(labels))
	}
	if m.Len() == 0 {
		return m, labels, nil
	}

	strata := make(map[int][]int)
	for i, label := range labels {
		strata[label] = append(strata[label], i)
	}
	classes := make([]int, 0, len(strata))
	majority := 0
	for label, idx := range strata {
		classes = append(classes, label)
		if len(idx) > majority {
			majority = len(idx)
		}
	}
	sort.Ints(classes)

	rng := rand.New(rand.NewSource(o.seed))

	var picks []int
	var outLabels []int
	for _, label := range classes {
		idx := strata[label]
		picks = append(picks, idx...)
		for n := len(idx); n < majority; n++ {
			picks = append(picks, idx[rng.Intn(len(idx))])
		}
		for n := 0; n < majority; n++ {
			outLabels = append(outLabels, label)
		}
	}

	rng.Shuffle(len(picks), func(i, j int) {
		picks[i], picks[j] = picks[j], picks[i]
		outLabels[i], outLabels[j] = outLabels[j], outLabels[i]
	})

	out := table.Matrix{
		Features: m.Features,
		X:        make([][]float64, len(picks)),
	}
	keepRefs := len(m.Refs) == m.Len()
	if keepRefs {
		out.Refs = make([]table.Ref, len(picks))
	}
	for i, p := range picks {
		out.X[i] = m.X[p]
		if keepRefs {
			out.Refs[i] = m.Refs[p]
		}
	}

	if len(picks) > m.Len() {
		log.Printf("[Sampler] balanced %d classes to %d rows each (%d -> %d total)",
			len(classes), majority, m.Len(), len(picks))
	}
	return out, outLabels, nil
}
