package split

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// Config controls the train/holdout partition.
type Config struct {
	HoldoutFraction float64
	Seed            int64
}

// DefaultConfig holds out one fifth of the rows under a fixed seed so
// repeated fits of the same catalog see the same partition.
func DefaultConfig() Config {
	return Config{HoldoutFraction: 0.2, Seed: 42}
}

// Partition is a stratified train/holdout division of a feature matrix.
type Partition struct {
	TrainX [][]float64
	TrainY []int
	HoldX  [][]float64
	HoldY  []int
}

// Stratified divides rows into train and holdout sets while preserving the
// class mix. Every class with at least two members contributes at least one
// row to each side; singleton classes stay in the training set.
func Stratified(x [][]float64, y []int, cfg Config) (Partition, error) {
	if len(x) != len(y) {
		return Partition{}, fmt.Errorf("feature rows and labels differ: %d vs %d", len(x), len(y))
	}
	if len(x) == 0 {
		return Partition{}, fmt.Errorf("cannot partition an empty dataset")
	}
	if cfg.HoldoutFraction <= 0 || cfg.HoldoutFraction >= 1 {
		return Partition{}, fmt.Errorf("holdout fraction %g outside (0, 1)", cfg.HoldoutFraction)
	}

	strata := make(map[int][]int)
	for i, label := range y {
		strata[label] = append(strata[label], i)
	}

	// Map order would make the shuffle sequence run-dependent, so classes
	// are visited in sorted order.
	classes := make([]int, 0, len(strata))
	for label := range strata {
		classes = append(classes, label)
	}
	sort.Ints(classes)

	rng := rand.New(rand.NewSource(cfg.Seed))

	var p Partition
	for _, label := range classes {
		rows := make([]int, len(strata[label]))
		copy(rows, strata[label])
		rng.Shuffle(len(rows), func(i, j int) {
			rows[i], rows[j] = rows[j], rows[i]
		})

		hold := int(math.Round(float64(len(rows)) * cfg.HoldoutFraction))
		if len(rows) < 2 {
			hold = 0
		} else if hold < 1 {
			hold = 1
		} else if hold >= len(rows) {
			hold = len(rows) - 1
		}

		for _, r := range rows[:hold] {
			p.HoldX = append(p.HoldX, x[r])
			p.HoldY = append(p.HoldY, label)
		}
		for _, r := range rows[hold:] {
			p.TrainX = append(p.TrainX, x[r])
			p.TrainY = append(p.TrainY, label)
		}
	}
	return p, nil
}
