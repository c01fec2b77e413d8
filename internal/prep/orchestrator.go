// Package prep is the preprocessing engine: the individual cleaning stages
// and the two orchestrations that sequence them. Apply is the serving path
// and runs against a frozen statistics snapshot; Fit is the training path
// and freezes those statistics as it goes. Stages are pure functions over
// tables with every input passed explicitly, so tests can drive any stage
// with a synthetic snapshot and no ambient state.
package prep

import (
	"fmt"

	"transitvet/domain/catalog"
	"transitvet/domain/core"
	"transitvet/domain/pipeline"
	"transitvet/domain/reference"
	"transitvet/domain/table"
	"transitvet/internal"
)

// Orchestrator sequences the cleaning stages in their fixed order. One
// orchestrator is safe for concurrent use; the snapshot it holds is
// read-only.
type Orchestrator struct {
	snap   *reference.Snapshot
	logger *internal.Logger
}

// New creates an orchestrator over a frozen snapshot
func New(snap *reference.Snapshot, logger *internal.Logger) *Orchestrator {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Orchestrator{snap: snap, logger: logger}
}

// Apply runs the serving pipeline over one batch:
// normalize, detect, and either the full cleaning sequence or the
// already-transformed short circuit. The returned table is the model-ready
// feature matrix, nil when the run failed structurally. The result carries
// row accounting and the ordered diagnostics either way; per-row faults
// never abort the run.
func (o *Orchestrator) Apply(tbl *table.Table) (*table.Table, *pipeline.Result) {
	res := pipeline.NewResult()
	if tbl == nil || tbl.RowCount() == 0 {
		res.Fail(core.ErrEmptyTable)
		return nil, res
	}
	res.OriginalRowCount = tbl.RowCount()

	t := NormalizeColumns(tbl)
	t = CoerceNumeric(t, o.snap.Spec.All(), res)

	if DetectLogScaled(t, o.snap.LogFeatures, o.snap.Detector) {
		o.logger.Info("input already log-transformed, cleaning skipped (%d rows)", t.RowCount())
		res.AddWarning("input detected as already log-transformed; cleaning and transform stages skipped")
		t = RetagLogScaled(t, o.snap.LogFeatures)
		t = t.Select(o.snap.Spec.All())
		res.Complete(t.RowCount())
		return t, res
	}

	if missing := t.MissingColumns(o.snap.Spec.Required); len(missing) > 0 {
		res.Fail(core.NewMissingColumnsError(missing))
		return nil, res
	}

	t = RemoveLeakage(t, catalog.LeakageFeatures())
	t = ResolveDuplicates(t, catalog.ColIdentity, catalog.ColModelSNR, res)
	t = ValidateRanges(t, catalog.RangeOrder(), o.snap.Ranges, o.snap.Constraint, res)
	t = DropMissingRequired(t, o.snap.Spec.Required, res)
	t = ImputeOptional(t, o.snap.Spec.Optional, o.snap.Medians)

	t, err := TransformMagnitude(t, o.snap.LogFeatures)
	if err != nil {
		res.Fail(err)
		return nil, res
	}

	t = SuppressOutliers(t, o.snap.Critical, catalog.OutlierIQRMultiplier, res)
	t = t.Select(o.snap.Spec.All())

	o.logger.Debug("pipeline kept %d of %d rows", t.RowCount(), res.OriginalRowCount)
	res.Complete(t.RowCount())
	return t, res
}

// FitOutput is what the training orchestration hands the trainer: the
// model-ready feature table, the encoded labels aligned with its rows, and
// the snapshot now carrying the medians frozen from this table.
type FitOutput struct {
	Features *table.Table
	Labels   []int
	Snapshot *reference.Snapshot
}

// Fit runs the training pipeline: the serving stages plus label filtering,
// median freezing, and label encoding. Medians are frozen from the rows
// that survive cleaning, before the magnitude transform, and are used to
// impute this very table so training sees exactly what serving will
// produce later.
func (o *Orchestrator) Fit(tbl *table.Table) (*FitOutput, *pipeline.Result) {
	res := pipeline.NewResult()
	if tbl == nil || tbl.RowCount() == 0 {
		res.Fail(core.ErrEmptyTable)
		return nil, res
	}
	res.OriginalRowCount = tbl.RowCount()

	t := NormalizeColumns(tbl)
	t = CoerceNumeric(t, o.snap.Spec.All(), res)

	want := make([]string, 0, len(o.snap.Spec.Required)+1)
	want = append(want, o.snap.Spec.Required...)
	want = append(want, catalog.ColLabel)
	if missing := t.MissingColumns(want); len(missing) > 0 {
		res.Fail(core.NewMissingColumnsError(missing))
		return nil, res
	}

	t = FilterLabels(t, catalog.ColLabel, o.snap.Labels, res)
	if t.RowCount() == 0 {
		res.Fail(fmt.Errorf("no rows with a trainable %s", catalog.ColLabel))
		return nil, res
	}

	t = RemoveLeakage(t, catalog.LeakageFeatures())
	t = ResolveDuplicates(t, catalog.ColIdentity, catalog.ColModelSNR, res)
	t = ValidateRanges(t, catalog.RangeOrder(), o.snap.Ranges, o.snap.Constraint, res)
	t = DropMissingRequired(t, o.snap.Spec.Required, res)

	medians := FreezeMedians(t, o.snap.Spec.All())
	t = ImputeOptional(t, o.snap.Spec.Optional, medians)

	t, err := TransformMagnitude(t, o.snap.LogFeatures)
	if err != nil {
		res.Fail(err)
		return nil, res
	}

	t = SuppressOutliers(t, o.snap.Critical, catalog.OutlierIQRMultiplier, res)

	labels := make([]int, 0, t.RowCount())
	for _, row := range t.Rows {
		idx, err := o.snap.Labels.Index(row.Value(catalog.ColLabel).AsText())
		if err != nil {
			res.Fail(err)
			return nil, res
		}
		labels = append(labels, idx)
	}

	features := t.Select(o.snap.Spec.All())
	o.logger.Info("fit kept %d of %d rows, froze %d medians",
		features.RowCount(), res.OriginalRowCount, len(medians))
	res.Complete(features.RowCount())

	return &FitOutput{
		Features: features,
		Labels:   labels,
		Snapshot: o.snap.WithMedians(medians),
	}, res
}
