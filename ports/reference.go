package ports

import (
	"context"

	"transitvet/domain/reference"
)

// StatisticsStore loads and persists the frozen statistics artifact that
// accompanies a trained model.
type StatisticsStore interface {
	// Load reads and validates the artifact at path. The returned
	// statistics are fully initialized; a partial or structurally broken
	// document is a bad-artifact error, never a half-filled value.
	Load(ctx context.Context, path string) (reference.Statistics, error)

	// Save writes the artifact atomically, so a concurrent Load never
	// observes a partially written document.
	Save(ctx context.Context, path string, stats reference.Statistics) error
}
