// Package refstats persists the frozen reference statistics artifact as a
// JSON document. Writes go through a temp file and rename, so a reader
// loading concurrently sees either the old artifact or the new one, never
// a torn page.
package refstats

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"transitvet/domain/core"
	"transitvet/domain/reference"
	"transitvet/ports"
)

// Store reads and writes statistics artifacts on the local filesystem
type Store struct{}

// NewStore creates a filesystem statistics store
func NewStore() ports.StatisticsStore {
	return &Store{}
}

// Load reads and validates the artifact at path
func (s *Store) Load(_ context.Context, path string) (reference.Statistics, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return reference.Statistics{}, fmt.Errorf("%w: %s", core.ErrStatsNotFound, path)
		}
		return reference.Statistics{}, core.NewBadArtifactError(path, err)
	}

	var stats reference.Statistics
	if err := json.Unmarshal(data, &stats); err != nil {
		return reference.Statistics{}, core.NewBadArtifactError(path, err)
	}
	if err := stats.Validate(); err != nil {
		return reference.Statistics{}, err
	}
	return stats, nil
}

// Save writes the artifact atomically
func (s *Store) Save(_ context.Context, path string, stats reference.Statistics) error {
	if err := stats.Validate(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal statistics: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".stats-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp artifact: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to publish artifact: %w", err)
	}
	return nil
}
