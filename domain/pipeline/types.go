// Package pipeline defines the result contract every pipeline invocation
// produces: the success flag, row accounting, and the ordered per-row
// diagnostics. This record is the sole surface the CLI and HTTP layers
// consume.
package pipeline

import (
	"fmt"

	"transitvet/domain/table"
)

// StageName identifies one pipeline stage
type StageName string

const (
	StageLoad            StageName = "load"
	StageNormalize       StageName = "normalize"
	StageDetectFormat    StageName = "detect_format"
	StageValidateColumns StageName = "validate_columns"
	StageFilterLabels    StageName = "filter_labels"
	StageRemoveLeakage   StageName = "remove_leakage"
	StageDeduplicate     StageName = "remove_duplicates"
	StageValidateRanges  StageName = "validate_ranges"
	StageImpute          StageName = "impute"
	StageTransform       StageName = "transform_magnitude"
	StageSuppressOutlier StageName = "suppress_outliers"
	StageSelectFeatures  StageName = "select_features"
	StageSave            StageName = "save"
)

// TableRow is the sentinel row index for table-level faults: structural
// failures that abort the whole run rather than reject a single row.
const TableRow = -1

// RowError is one ordered diagnostic entry. Row carries the stable
// load-time identifier of the offending row, or TableRow for fatal
// table-level faults.
type RowError struct {
	Row     int    `json:"row_index"`
	Message string `json:"message"`
}

// Result is constructed fresh for every pipeline invocation and never
// reused. When Success is true, RemovedRowCount equals OriginalRowCount
// minus ProcessedRowCount.
type Result struct {
	Success           bool       `json:"success"`
	OriginalRowCount  int        `json:"original_row_count"`
	ProcessedRowCount int        `json:"processed_row_count"`
	RemovedRowCount   int        `json:"removed_row_count"`
	Errors            []RowError `json:"errors"`
	Warnings          []string   `json:"warnings"`
}

// NewResult returns an empty result with non-nil diagnostic slices so the
// JSON form always carries arrays
func NewResult() *Result {
	return &Result{Errors: []RowError{}, Warnings: []string{}}
}

// AddRowError appends a per-row diagnostic. Row-level faults are local:
// they never flip Success.
func (r *Result) AddRowError(ref table.Ref, message string) {
	r.Errors = append(r.Errors, RowError{Row: int(ref), Message: message})
}

// AddWarning appends an informational note. Warnings never affect Success
// or row counts beyond what they describe.
func (r *Result) AddWarning(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Fail records a table-level fault at the sentinel index and marks the
// run unsuccessful. No partial output accompanies a failed result.
func (r *Result) Fail(err error) {
	r.Success = false
	r.Errors = append(r.Errors, RowError{Row: TableRow, Message: err.Error()})
}

// Complete finalizes the row accounting for a successful run
func (r *Result) Complete(processed int) {
	r.ProcessedRowCount = processed
	r.RemovedRowCount = r.OriginalRowCount - processed
	r.Success = true
}
