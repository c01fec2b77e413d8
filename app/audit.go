// Package app wires the pipeline engine, artifact stores, and classifier
// into the three operations the serving surfaces expose: preprocess,
// train, and score.
package app

import (
	"context"

	"transitvet/domain/core"
	"transitvet/domain/pipeline"
	"transitvet/internal"
	"transitvet/models"
	"transitvet/ports"
)

// recordRun persists a best-effort audit row. Failures are logged and
// swallowed; accounting must never fail the run it describes.
func recordRun(ctx context.Context, repo ports.RunRepository, logger *internal.Logger, kind, source string, res *pipeline.Result) {
	if repo == nil || res == nil {
		return
	}
	rec := models.RunRecord{
		ID:        core.NewRunID(),
		Kind:      kind,
		Source:    source,
		Success:   res.Success,
		Original:  res.OriginalRowCount,
		Processed: res.ProcessedRowCount,
		Removed:   res.RemovedRowCount,
		Detail:    *res,
		CreatedAt: core.Now(),
	}
	if err := repo.SaveRun(ctx, rec); err != nil {
		logger.Warn("run audit not recorded: %v", err)
	}
}

// failMessage digs the table-level fault out of a failed result.
func failMessage(res *pipeline.Result) string {
	for _, e := range res.Errors {
		if e.Row == pipeline.TableRow {
			return e.Message
		}
	}
	return "pipeline failed"
}
