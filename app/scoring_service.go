package app

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"transitvet/domain/core"
	"transitvet/domain/pipeline"
	"transitvet/domain/reference"
	"transitvet/domain/table"
	"transitvet/internal"
	"transitvet/internal/prep"
	"transitvet/models"
	"transitvet/ports"
)

// Batches larger than this are scored in parallel chunks
const scoreChunk = 256

// ScoringService serves predictions from one loaded model. Load is called
// once before serving; everything it sets is read-only afterwards, so
// concurrent ScoreTable calls share the state without locking.
type ScoringService struct {
	reader     ports.TableReader
	stats      ports.StatisticsStore
	modelStore ports.ModelStore
	runs       ports.RunRepository
	logger     *internal.Logger

	classifier ports.Classifier
	meta       models.BundleMeta
	snap       *reference.Snapshot
	pipe       *prep.Orchestrator
	classNames []string
}

func NewScoringService(
	reader ports.TableReader,
	stats ports.StatisticsStore,
	modelStore ports.ModelStore,
	runs ports.RunRepository,
	logger *internal.Logger,
) *ScoringService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &ScoringService{
		reader:     reader,
		stats:      stats,
		modelStore: modelStore,
		runs:       runs,
		logger:     logger,
	}
}

// Load restores the model bundle and its statistics artifact, rejecting a
// pair frozen in different training runs.
func (s *ScoringService) Load(ctx context.Context, modelPath, statsPath string) error {
	stats, err := s.stats.Load(ctx, statsPath)
	if err != nil {
		return fmt.Errorf("failed to load statistics: %w", err)
	}
	snap, err := reference.NewSnapshot(stats)
	if err != nil {
		return err
	}
	c, meta, err := s.modelStore.Load(ctx, modelPath)
	if err != nil {
		return fmt.Errorf("failed to load model: %w", err)
	}
	if err := meta.PairsWith(stats.Version); err != nil {
		return err
	}

	s.classifier = c
	s.meta = meta
	s.snap = snap
	s.pipe = prep.New(snap, s.logger)
	s.classNames = meta.ClassNames
	if len(s.classNames) == 0 {
		s.classNames = snap.Labels.Names()
	}
	s.logger.Info("model %s loaded: %d features, %d classes, trained on %d rows",
		displayVersion(meta.Version), len(meta.FeatureNames), len(s.classNames), meta.TrainingRows)
	return nil
}

// Loaded reports whether a model is ready to score
func (s *ScoringService) Loaded() bool { return s.classifier != nil }

// ModelVersion returns the loaded bundle's version, empty when unloaded
func (s *ScoringService) ModelVersion() string { return s.meta.Version }

// Meta returns the loaded bundle's metadata
func (s *ScoringService) Meta() models.BundleMeta { return s.meta }

// Reference returns the frozen snapshot serving runs against, nil when
// unloaded
func (s *ScoringService) Reference() *reference.Snapshot { return s.snap }

// ScoreFile scores every candidate in the file at path
func (s *ScoringService) ScoreFile(ctx context.Context, path string) (*models.BatchPrediction, error) {
	if !s.Loaded() {
		return nil, fmt.Errorf("%w: load a model before scoring", core.ErrModelNotFound)
	}
	tbl, err := s.reader.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	return s.ScoreTable(ctx, tbl, path)
}

// ScoreTable cleans the table against the loaded statistics and scores
// every surviving row. A structural pipeline fault comes back inside the
// batch, not as an error; source labels the run in the audit trail.
func (s *ScoringService) ScoreTable(ctx context.Context, tbl *table.Table, source string) (*models.BatchPrediction, error) {
	if !s.Loaded() {
		return nil, fmt.Errorf("%w: load a model before scoring", core.ErrModelNotFound)
	}

	processed, res := s.pipe.Apply(tbl)
	defer recordRun(ctx, s.runs, s.logger, models.RunKindPredict, source, res)

	batch := &models.BatchPrediction{Result: *res, ModelVersion: s.meta.Version}
	if !res.Success {
		s.logger.Error("scoring of %s failed: %s", source, failMessage(res))
		return batch, nil
	}

	features := s.meta.FeatureNames
	if len(features) == 0 {
		features = s.snap.Spec.All()
	}
	m, skipped := processed.ToMatrix(features)
	for _, sk := range skipped {
		batch.Skipped = append(batch.Skipped, pipeline.RowError{Row: int(sk.Ref), Message: sk.Reason})
	}
	if m.Len() == 0 {
		return batch, nil
	}

	preds, probas, err := s.score(ctx, m)
	if err != nil {
		return nil, fmt.Errorf("failed to score %d rows: %w", m.Len(), err)
	}

	batch.Predictions = make([]models.Prediction, m.Len())
	for i, ref := range m.Refs {
		if preds[i] < 0 || preds[i] >= len(s.classNames) {
			return nil, fmt.Errorf("%w: class index %d outside the %d-class label map",
				core.ErrBadArtifact, preds[i], len(s.classNames))
		}
		probs := make(map[string]float64, len(probas[i]))
		for j, p := range probas[i] {
			if j < len(s.classNames) {
				probs[s.classNames[j]] = p
			}
		}
		batch.Predictions[i] = models.Prediction{
			Row:           int(ref),
			ClassIndex:    preds[i],
			Label:         s.classNames[preds[i]],
			Probabilities: probs,
		}
	}
	s.logger.Info("scored %s: %d predictions from %d input rows", source, m.Len(), res.OriginalRowCount)
	return batch, nil
}

// ScoreOne scores a single candidate given as a feature map. A candidate
// the pipeline rejects comes back as a nil prediction with the result
// explaining why.
func (s *ScoringService) ScoreOne(ctx context.Context, features map[string]float64) (*models.Prediction, *pipeline.Result, error) {
	cols := make([]string, 0, len(features))
	for name := range features {
		cols = append(cols, name)
	}
	sort.Strings(cols)

	tbl := table.New(cols...)
	cells := make(map[string]table.Value, len(features))
	for name, v := range features {
		cells[name] = table.NewNumericValue(v)
	}
	tbl.AppendRow(table.NewRow(0, cells))

	batch, err := s.ScoreTable(ctx, tbl, "adhoc")
	if err != nil {
		return nil, nil, err
	}
	if len(batch.Predictions) == 0 {
		return nil, &batch.Result, nil
	}
	return &batch.Predictions[0], &batch.Result, nil
}

// score runs Predict and Proba over the matrix, fanning large batches out
// across chunks. Results land by index, so the output order never depends
// on the schedule.
func (s *ScoringService) score(ctx context.Context, m table.Matrix) ([]int, [][]float64, error) {
	if m.Len() <= scoreChunk {
		return s.scoreChunkOf(ctx, m)
	}

	preds := make([]int, m.Len())
	probas := make([][]float64, m.Len())
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for start := 0; start < m.Len(); start += scoreChunk {
		end := start + scoreChunk
		if end > m.Len() {
			end = m.Len()
		}
		g.Go(func() error {
			sub := table.Matrix{Features: m.Features, X: m.X[start:end]}
			p, pr, err := s.scoreChunkOf(ctx, sub)
			if err != nil {
				return err
			}
			copy(preds[start:end], p)
			copy(probas[start:end], pr)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return preds, probas, nil
}

func (s *ScoringService) scoreChunkOf(ctx context.Context, m table.Matrix) ([]int, [][]float64, error) {
	preds, err := s.classifier.Predict(ctx, m)
	if err != nil {
		return nil, nil, err
	}
	probas, err := s.classifier.Proba(ctx, m)
	if err != nil {
		return nil, nil, err
	}
	return preds, probas, nil
}

// displayVersion shortens a version string for log lines
func displayVersion(v string) string {
	if len(v) > 8 {
		return v[:8]
	}
	if v == "" {
		return "unversioned"
	}
	return v
}
