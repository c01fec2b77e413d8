package postgres

import (
	"context"

	"transitvet/domain/core"
	"transitvet/models"
	"transitvet/ports"
)

// NopRunRepository discards audit rows. It stands in when no database is
// configured, so the services never have to care whether auditing is on.
type NopRunRepository struct{}

// NewNopRunRepository creates a repository that records nothing
func NewNopRunRepository() ports.RunRepository {
	return &NopRunRepository{}
}

func (r *NopRunRepository) SaveRun(context.Context, models.RunRecord) error { return nil }

func (r *NopRunRepository) GetRun(_ context.Context, id core.RunID) (*models.RunRecord, error) {
	return nil, core.ErrRunNotFound
}

func (r *NopRunRepository) ListRuns(context.Context, ports.RunFilters) ([]*models.RunRecord, error) {
	return []*models.RunRecord{}, nil
}
