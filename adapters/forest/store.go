package forest

import (
	"context"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"transitvet/domain/core"
	"transitvet/models"
	"transitvet/ports"
)

// bundle is the on-disk model format: the forest plus the metadata that
// pairs it with its statistics artifact.
type bundle struct {
	Meta   models.BundleMeta
	Forest *Forest
}

// Store persists trained forests with encoding/gob. Writes go through a
// temp file and rename so a crash never leaves a half-written model.
type Store struct{}

// NewStore returns a gob-backed model store.
func NewStore() ports.ModelStore {
	return &Store{}
}

// Save implements ports.ModelStore.
func (s *Store) Save(ctx context.Context, path string, c ports.Classifier, meta models.BundleMeta) error {
	f, ok := c.(*Forest)
	if !ok {
		return fmt.Errorf("model store holds forests only, got %T", c)
	}
	if len(f.Trees) == 0 {
		return fmt.Errorf("refusing to save an untrained model")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".model-*.gob")
	if err != nil {
		return fmt.Errorf("failed to create temp model file: %w", err)
	}
	if err := gob.NewEncoder(tmp).Encode(bundle{Meta: meta, Forest: f}); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to encode model: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp model file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to move model into place: %w", err)
	}
	return nil
}

// Load implements ports.ModelStore.
func (s *Store) Load(ctx context.Context, path string) (ports.Classifier, models.BundleMeta, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, models.BundleMeta{}, fmt.Errorf("%w: %s", core.ErrModelNotFound, path)
		}
		return nil, models.BundleMeta{}, core.NewBadArtifactError(path, err)
	}
	defer file.Close()

	var b bundle
	if err := gob.NewDecoder(file).Decode(&b); err != nil {
		return nil, models.BundleMeta{}, core.NewBadArtifactError(path, err)
	}
	if b.Forest == nil || len(b.Forest.Trees) == 0 {
		return nil, models.BundleMeta{}, core.NewBadArtifactError(path, fmt.Errorf("bundle holds no trained forest"))
	}
	return b.Forest, b.Meta, nil
}
