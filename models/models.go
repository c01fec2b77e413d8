// Package models holds the records shared across the serving surfaces:
// model bundle metadata, prediction DTOs, evaluation metrics, and the run
// audit row. Everything here is plain data; behavior lives in the domain
// and app layers.
package models

import (
	"fmt"

	"transitvet/domain/core"
	"transitvet/domain/pipeline"
)

// BundleMeta describes a persisted model bundle. Version pairs the bundle
// with the statistics artifact frozen in the same training run; the two
// files are one logical unit and must never be mixed across runs.
type BundleMeta struct {
	Version      string         `json:"version"`
	CreatedAt    core.Timestamp `json:"created_at"`
	FeatureNames []string       `json:"feature_names"`
	ClassNames   []string       `json:"class_names"`
	TrainingRows int            `json:"training_rows"`
}

// PairsWith rejects a statistics artifact frozen in a different run than
// this bundle. Either side missing a version (artifacts from older runs)
// passes, trusting the operator.
func (m BundleMeta) PairsWith(statsVersion string) error {
	if m.Version == "" || statsVersion == "" {
		return nil
	}
	if m.Version != statsVersion {
		return fmt.Errorf("%w: model %s, statistics %s",
			core.ErrArtifactMismatch, m.Version, statsVersion)
	}
	return nil
}

// Prediction is one scored candidate. Row is the stable load-time index
// of the input row; Label is the disposition string decoded through the
// frozen class map.
type Prediction struct {
	Row           int                `json:"row_index"`
	ClassIndex    int                `json:"class_index"`
	Label         string             `json:"label"`
	Probabilities map[string]float64 `json:"probabilities,omitempty"`
}

// BatchPrediction is the bulk scoring response: the pipeline's own result
// record, the predictions for every surviving row, and any rows the
// pipeline kept but the scorer had to skip.
type BatchPrediction struct {
	Result       pipeline.Result     `json:"result"`
	Predictions  []Prediction        `json:"predictions"`
	Skipped      []pipeline.RowError `json:"skipped,omitempty"`
	ModelVersion string              `json:"model_version,omitempty"`
}

// Metrics is the holdout evaluation summary of a training run
type Metrics struct {
	Accuracy       float64 `json:"accuracy"`
	F1Macro        float64 `json:"f1_macro"`
	F1Weighted     float64 `json:"f1_weighted"`
	PrecisionMacro float64 `json:"precision_macro"`
	RecallMacro    float64 `json:"recall_macro"`
}

// TrainingSummary is everything a finished training run reports
type TrainingSummary struct {
	Version      string             `json:"version"`
	Result       pipeline.Result    `json:"result"`
	Metrics      Metrics            `json:"metrics"`
	ClassCounts  map[string]int     `json:"class_counts"`
	Importances  map[string]float64 `json:"importances,omitempty"`
	ModelPath    string             `json:"model_path"`
	StatsPath    string             `json:"stats_path"`
	TrainingRows int                `json:"training_rows"`
	HoldoutRows  int                `json:"holdout_rows"`
}

// RunRecord is the audit row persisted for one pipeline invocation
type RunRecord struct {
	ID        core.RunID      `json:"id" db:"id"`
	Kind      string          `json:"kind" db:"kind"` // 'train', 'preprocess', 'predict'
	Source    string          `json:"source" db:"source"`
	Success   bool            `json:"success" db:"success"`
	Original  int             `json:"original_row_count" db:"original_rows"`
	Processed int             `json:"processed_row_count" db:"processed_rows"`
	Removed   int             `json:"removed_row_count" db:"removed_rows"`
	Detail    pipeline.Result `json:"detail" db:"-"`
	CreatedAt core.Timestamp  `json:"created_at" db:"created_at"`
}

// Run kinds
const (
	RunKindTrain      = "train"
	RunKindPreprocess = "preprocess"
	RunKindPredict    = "predict"
)
