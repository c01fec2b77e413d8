package models

import (
	"errors"
	"testing"

	"transitvet/domain/core"
)

func TestBundleMetaPairsWith(t *testing.T) {
	meta := BundleMeta{Version: "run-a"}

	if err := meta.PairsWith("run-a"); err != nil {
		t.Errorf("Expected matching versions to pair, got %v", err)
	}

	err := meta.PairsWith("run-b")
	if !errors.Is(err, core.ErrArtifactMismatch) {
		t.Errorf("Expected an artifact mismatch error, got %v", err)
	}
}

func TestBundleMetaPairsWithLegacyArtifacts(t *testing.T) {
	// artifacts from before versioning carry no version; pairing trusts
	// the operator rather than rejecting every old model
	if err := (BundleMeta{}).PairsWith("run-a"); err != nil {
		t.Errorf("Expected an unversioned bundle to pair, got %v", err)
	}
	if err := (BundleMeta{Version: "run-a"}).PairsWith(""); err != nil {
		t.Errorf("Expected an unversioned artifact to pair, got %v", err)
	}
}
