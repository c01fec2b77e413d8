package ports

import (
	"context"

	"transitvet/domain/table"
)

// Classifier is the model boundary. It consumes feature matrices with
// columns in the contract order and in the units the pipeline produces,
// and speaks integer class indices from the frozen label map; decoding
// indices to disposition strings happens outside it.
type Classifier interface {
	// Train fits the model on a matrix and its aligned class indices.
	// classes is the total number of classes, which may exceed the number
	// present in labels.
	Train(ctx context.Context, m table.Matrix, labels []int, classes int) error

	// Predict returns one class index per matrix row
	Predict(ctx context.Context, m table.Matrix) ([]int, error)

	// Proba returns one probability row per matrix row, indexed by class
	Proba(ctx context.Context, m table.Matrix) ([][]float64, error)

	// Importances returns per-feature importances in matrix column order.
	// Only valid after Train or Load.
	Importances() ([]float64, error)
}

// Rebalancer evens out class frequencies in a training matrix before the
// classifier sees it. Implementations must be deterministic under a fixed
// seed.
type Rebalancer interface {
	Rebalance(ctx context.Context, m table.Matrix, labels []int) (table.Matrix, []int, error)
}
