package ports

import (
	"context"

	"transitvet/models"
)

// ModelStore persists a trained classifier together with the metadata
// pairing it to its statistics artifact. Implementations own the wire
// layout; callers only ever see the Classifier interface back.
type ModelStore interface {
	// Save writes the classifier and its metadata to path atomically
	Save(ctx context.Context, path string, c Classifier, meta models.BundleMeta) error

	// Load restores a classifier and its metadata from path
	Load(ctx context.Context, path string) (Classifier, models.BundleMeta, error)
}
