package app

import (
	"context"
	"fmt"
	"sort"

	"transitvet/domain/catalog"
	"transitvet/domain/core"
	"transitvet/domain/reference"
	"transitvet/domain/table"
	"transitvet/internal"
	"transitvet/internal/metrics"
	"transitvet/internal/prep"
	"transitvet/internal/quality"
	"transitvet/internal/split"
	"transitvet/models"
	"transitvet/ports"
)

// TrainingService owns the fit path end to end: quality diagnostics,
// pipeline fit, stratified split, rebalance, classifier training, holdout
// evaluation, and the paired artifact save.
type TrainingService struct {
	reader     ports.TableReader
	stats      ports.StatisticsStore
	modelStore ports.ModelStore
	rebalancer ports.Rebalancer
	runs       ports.RunRepository
	logger     *internal.Logger
	splitCfg   split.Config
}

func NewTrainingService(
	reader ports.TableReader,
	stats ports.StatisticsStore,
	modelStore ports.ModelStore,
	rebalancer ports.Rebalancer,
	runs ports.RunRepository,
	logger *internal.Logger,
) *TrainingService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &TrainingService{
		reader:     reader,
		stats:      stats,
		modelStore: modelStore,
		rebalancer: rebalancer,
		runs:       runs,
		logger:     logger,
		splitCfg:   split.DefaultConfig(),
	}
}

// TrainRequest names the input and the artifacts one training run
// produces. An empty ReportPath skips the quality report.
type TrainRequest struct {
	InputPath  string
	ModelPath  string
	StatsPath  string
	ReportPath string
}

// Train fits the classifier on the labeled catalog at InputPath and
// persists the model bundle and the statistics artifact under one shared
// version. Unlike preprocessing, a structural pipeline fault here is an
// error: there is nothing to hand back from a training run that produced
// no artifacts.
func (s *TrainingService) Train(ctx context.Context, c ports.Classifier, req TrainRequest) (*models.TrainingSummary, error) {
	tbl, err := s.reader.Read(ctx, req.InputPath)
	if err != nil {
		return nil, err
	}

	snap := reference.FitSnapshot()
	if req.ReportPath != "" {
		s.writeQualityReport(tbl, snap, req.ReportPath)
	}

	out, res := prep.New(snap, s.logger).Fit(tbl)
	defer recordRun(ctx, s.runs, s.logger, models.RunKindTrain, req.InputPath, res)
	if !res.Success {
		return nil, fmt.Errorf("pipeline fit failed: %s", failMessage(res))
	}

	m, skipped := out.Features.ToMatrix(out.Snapshot.Spec.All())
	if len(skipped) > 0 {
		s.logger.Warn("%d cleaned rows had no numeric value for some feature and were skipped", len(skipped))
	}
	y := alignLabels(out, m)

	part, err := split.Stratified(m.X, y, s.splitCfg)
	if err != nil {
		return nil, err
	}

	trainM := table.Matrix{Features: m.Features, X: part.TrainX}
	balanced, balancedY, err := s.rebalancer.Rebalance(ctx, trainM, part.TrainY)
	if err != nil {
		return nil, fmt.Errorf("failed to rebalance training rows: %w", err)
	}

	classes := out.Snapshot.Labels.Count()
	if err := c.Train(ctx, balanced, balancedY, classes); err != nil {
		return nil, fmt.Errorf("failed to train classifier: %w", err)
	}

	holdM := table.Matrix{Features: m.Features, X: part.HoldX}
	preds, err := c.Predict(ctx, holdM)
	if err != nil {
		return nil, fmt.Errorf("failed to score the holdout: %w", err)
	}
	conf, err := metrics.NewConfusion(part.HoldY, preds, classes)
	if err != nil {
		return nil, err
	}
	s.logHoldout(conf, out.Snapshot.Labels)

	version := core.NewArtifactVersion().String()
	now := core.Now()

	artifact := out.Snapshot.Statistics()
	artifact.Version = version
	artifact.CreatedAt = &now
	artifact.TrainingRows = res.ProcessedRowCount
	if err := s.stats.Save(ctx, req.StatsPath, artifact); err != nil {
		return nil, fmt.Errorf("failed to save statistics: %w", err)
	}

	meta := models.BundleMeta{
		Version:      version,
		CreatedAt:    now,
		FeatureNames: m.Features,
		ClassNames:   out.Snapshot.Labels.Names(),
		TrainingRows: len(balancedY),
	}
	if err := s.modelStore.Save(ctx, req.ModelPath, c, meta); err != nil {
		return nil, fmt.Errorf("failed to save model: %w", err)
	}

	summary := &models.TrainingSummary{
		Version:      version,
		Result:       *res,
		Metrics:      conf.Metrics(),
		ClassCounts:  classCounts(y, out.Snapshot.Labels),
		Importances:  s.rankImportances(c, m.Features),
		ModelPath:    req.ModelPath,
		StatsPath:    req.StatsPath,
		TrainingRows: len(balancedY),
		HoldoutRows:  len(part.HoldY),
	}
	s.logger.Info("training run %s: accuracy %.4f, f1_macro %.4f over %d holdout rows",
		version, summary.Metrics.Accuracy, summary.Metrics.F1Macro, summary.HoldoutRows)
	return summary, nil
}

// writeQualityReport profiles the raw table before cleaning. Report
// problems are logged, never fatal.
func (s *TrainingService) writeQualityReport(tbl *table.Table, snap *reference.Snapshot, path string) {
	report := quality.Profile(prep.NormalizeColumns(tbl), snap.Spec)
	if err := report.Save(path); err != nil {
		s.logger.Warn("quality report not written: %v", err)
		return
	}
	s.logger.Info("quality report: %d rows, %d duplicate identities, %d leakage columns -> %s",
		report.Rows, report.DuplicateIDs, len(report.LeakagePresent), path)
}

func (s *TrainingService) logHoldout(conf metrics.Confusion, labels catalog.Labels) {
	for _, cr := range conf.PerClass() {
		name, err := labels.Name(cr.Class)
		if err != nil {
			name = fmt.Sprintf("class %d", cr.Class)
		}
		s.logger.Info("holdout %-15s precision=%.3f recall=%.3f f1=%.3f support=%d",
			name, cr.Precision, cr.Recall, cr.F1, cr.Support)
	}
}

// rankImportances logs features by decreasing importance and returns the
// name-keyed map the summary carries.
func (s *TrainingService) rankImportances(c ports.Classifier, features []string) map[string]float64 {
	imp, err := c.Importances()
	if err != nil || len(imp) != len(features) {
		return nil
	}
	out := make(map[string]float64, len(features))
	order := make([]int, len(features))
	for i := range order {
		order[i] = i
		out[features[i]] = imp[i]
	}
	sort.Slice(order, func(a, b int) bool { return imp[order[a]] > imp[order[b]] })
	for _, i := range order {
		s.logger.Debug("importance %-15s %.4f", features[i], imp[i])
	}
	return out
}

// alignLabels rejoins encoded labels to the matrix rows by Ref, since the
// matrix may exclude rows the cleaning kept.
func alignLabels(out *prep.FitOutput, m table.Matrix) []int {
	byRef := make(map[table.Ref]int, len(out.Labels))
	for i, row := range out.Features.Rows {
		byRef[row.Ref] = out.Labels[i]
	}
	y := make([]int, m.Len())
	for i, ref := range m.Refs {
		y[i] = byRef[ref]
	}
	return y
}

func classCounts(y []int, labels catalog.Labels) map[string]int {
	counts := make(map[string]int)
	for _, label := range y {
		name, err := labels.Name(label)
		if err != nil {
			continue
		}
		counts[name]++
	}
	return counts
}
