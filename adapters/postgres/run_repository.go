// Package postgres persists the pipeline run audit trail. The database is
// optional infrastructure: deployments without one wire the no-op
// repository instead and lose nothing but history.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"transitvet/domain/core"
	"transitvet/domain/pipeline"
	"transitvet/models"
	"transitvet/ports"
)

const defaultListLimit = 50

// RunRepositoryImpl implements RunRepository for PostgreSQL
type RunRepositoryImpl struct {
	db *sqlx.DB
}

// NewRunRepository creates a new PostgreSQL run repository
func NewRunRepository(db *sqlx.DB) ports.RunRepository {
	return &RunRepositoryImpl{db: db}
}

// SaveRun persists one audit row. The full pipeline result travels as a
// JSONB document next to the flat accounting columns.
func (r *RunRepositoryImpl) SaveRun(ctx context.Context, rec models.RunRecord) error {
	detail, err := json.Marshal(rec.Detail)
	if err != nil {
		return fmt.Errorf("failed to marshal run detail: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO pipeline_runs (
			id, kind, source, success,
			original_rows, processed_rows, removed_rows,
			detail, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, rec.ID.String(), rec.Kind, rec.Source, rec.Success,
		rec.Original, rec.Processed, rec.Removed,
		detail, rec.CreatedAt.Time())
	return err
}

// GetRun retrieves an audit row by ID
func (r *RunRepositoryImpl) GetRun(ctx context.Context, id core.RunID) (*models.RunRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, kind, source, success,
		       original_rows, processed_rows, removed_rows,
		       detail, created_at
		FROM pipeline_runs
		WHERE id = $1
	`, id.String())

	rec, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", core.ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ListRuns returns audit rows newest first, narrowed by filters
func (r *RunRepositoryImpl) ListRuns(ctx context.Context, filters ports.RunFilters) ([]*models.RunRecord, error) {
	query := `
		SELECT id, kind, source, success,
		       original_rows, processed_rows, removed_rows,
		       detail, created_at
		FROM pipeline_runs
	`

	var where []string
	var args []interface{}
	if filters.Kind != "" {
		args = append(args, filters.Kind)
		where = append(where, fmt.Sprintf("kind = $%d", len(args)))
	}
	if filters.Since != nil {
		args = append(args, filters.Since.Time())
		where = append(where, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	for i, cond := range where {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*models.RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*models.RunRecord, error) {
	var (
		rec     models.RunRecord
		id      string
		detail  []byte
		created time.Time
	)
	err := row.Scan(
		&id, &rec.Kind, &rec.Source, &rec.Success,
		&rec.Original, &rec.Processed, &rec.Removed,
		&detail, &created,
	)
	if err != nil {
		return nil, err
	}
	rec.ID = core.RunID(id)
	rec.CreatedAt = core.NewTimestamp(created)
	rec.Detail = *pipeline.NewResult()
	if len(detail) > 0 {
		if err := json.Unmarshal(detail, &rec.Detail); err != nil {
			return nil, fmt.Errorf("failed to unmarshal run detail: %w", err)
		}
	}
	return &rec, nil
}
