package app

import (
	"context"
	"fmt"

	"transitvet/domain/pipeline"
	"transitvet/domain/reference"
	"transitvet/internal"
	"transitvet/internal/prep"
	"transitvet/models"
	"transitvet/ports"
)

// PreprocessService runs the serving pipeline file to file: load the
// frozen statistics, clean one table against them, persist the
// model-ready output.
type PreprocessService struct {
	reader ports.TableReader
	writer ports.TableWriter
	stats  ports.StatisticsStore
	runs   ports.RunRepository
	logger *internal.Logger
}

func NewPreprocessService(
	reader ports.TableReader,
	writer ports.TableWriter,
	stats ports.StatisticsStore,
	runs ports.RunRepository,
	logger *internal.Logger,
) *PreprocessService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &PreprocessService{
		reader: reader,
		writer: writer,
		stats:  stats,
		runs:   runs,
		logger: logger,
	}
}

// Run cleans the table at inPath against the artifact at statsPath and
// writes the processed table to outPath. A structural pipeline fault is
// reported through the result, not the error; the error is reserved for
// artifact and I/O problems around the pipeline.
func (s *PreprocessService) Run(ctx context.Context, inPath, outPath, statsPath string) (*pipeline.Result, error) {
	stats, err := s.stats.Load(ctx, statsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load statistics: %w", err)
	}
	snap, err := reference.NewSnapshot(stats)
	if err != nil {
		return nil, err
	}

	tbl, err := s.reader.Read(ctx, inPath)
	if err != nil {
		return nil, err
	}

	processed, res := prep.New(snap, s.logger).Apply(tbl)
	defer recordRun(ctx, s.runs, s.logger, models.RunKindPreprocess, inPath, res)
	if !res.Success {
		s.logger.Error("preprocess of %s failed: %s", inPath, failMessage(res))
		return res, nil
	}

	if err := s.writer.Write(ctx, outPath, processed); err != nil {
		return res, fmt.Errorf("failed to write processed table: %w", err)
	}
	s.logger.Info("preprocessed %s: kept %d of %d rows -> %s",
		inPath, res.ProcessedRowCount, res.OriginalRowCount, outPath)
	return res, nil
}
