package ports

import (
	"context"

	"transitvet/domain/core"
	"transitvet/models"
)

// RunFilters narrows a run listing. Zero values mean no filter; Limit 0
// falls back to the implementation default.
type RunFilters struct {
	Kind  string
	Since *core.Timestamp
	Limit int
}

// RunRepository is the optional audit trail of pipeline invocations.
// Deployments without a database wire a no-op implementation; recording
// failures must never fail the run they describe.
type RunRepository interface {
	// SaveRun persists one audit row
	SaveRun(ctx context.Context, rec models.RunRecord) error

	// GetRun retrieves an audit row by ID
	GetRun(ctx context.Context, id core.RunID) (*models.RunRecord, error)

	// ListRuns returns audit rows newest first, narrowed by filters
	ListRuns(ctx context.Context, filters RunFilters) ([]*models.RunRecord, error)
}
