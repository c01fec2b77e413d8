package core

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound      = errors.New("resource not found")
	ErrRunNotFound   = fmt.Errorf("%w: run", ErrNotFound)
	ErrModelNotFound = fmt.Errorf("%w: model bundle", ErrNotFound)
	ErrStatsNotFound = fmt.Errorf("%w: reference statistics", ErrNotFound)

	// Table-level faults (fatal for a pipeline run)
	ErrEmptyTable     = errors.New("input table is empty")
	ErrMissingColumns = errors.New("input table missing required columns")
	ErrUnreadableIn   = errors.New("input table unreadable")
	ErrBadArtifact    = errors.New("reference statistics artifact unreadable or invalid")

	// Unit errors
	ErrAlreadyLogScaled = errors.New("value already log-scaled")
	ErrNotLogScaled     = errors.New("value not log-scaled")

	// Label errors
	ErrUnknownLabel = errors.New("unknown disposition label")
	ErrUnknownClass = errors.New("unknown class index")

	// Artifact pairing errors
	ErrArtifactMismatch = errors.New("model and statistics artifacts are from different runs")
)

// Error constructors with context
func NewMissingColumnsError(missing []string) error {
	return fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
}

func NewBadArtifactError(path string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrBadArtifact, path, err)
}

func NewUnknownLabelError(label string) error {
	return fmt.Errorf("%w: %q", ErrUnknownLabel, label)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsTableFault reports whether err is a table-level structural fault,
// the kind that aborts a whole pipeline run rather than a single row.
func IsTableFault(err error) bool {
	return errors.Is(err, ErrEmptyTable) ||
		errors.Is(err, ErrMissingColumns) ||
		errors.Is(err, ErrUnreadableIn) ||
		errors.Is(err, ErrBadArtifact)
}

func IsUnitError(err error) bool {
	return errors.Is(err, ErrAlreadyLogScaled) ||
		errors.Is(err, ErrNotLogScaled)
}
