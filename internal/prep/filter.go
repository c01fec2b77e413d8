package prep

import (
	"fmt"
	"math"

	"transitvet/domain/catalog"
	"transitvet/domain/pipeline"
	"transitvet/domain/table"
)

// RemoveLeakage drops columns that encode the ground-truth disposition by
// proxy. Columns not present are ignored.
func RemoveLeakage(tbl *table.Table, leakage []string) *table.Table {
	return tbl.DropColumns(leakage...)
}

// ResolveDuplicates collapses rows that describe the same object down to
// the one with the strongest signal-to-noise measurement. A missing SNR
// ranks below any present value; ties keep the earliest row. Rows without
// an identity value stay untouched, each its own unknown object. When the
// identity column is absent entirely the table passes through with a
// warning, since serving-time batches often omit it.
func ResolveDuplicates(tbl *table.Table, identityCol, snrCol string, res *pipeline.Result) *table.Table {
	if !tbl.HasColumn(identityCol) {
		res.AddWarning("column %s not found, duplicate resolution skipped", identityCol)
		return tbl
	}

	type winner struct {
		ref table.Ref
		snr float64
	}
	best := make(map[string]winner)
	for _, row := range tbl.Rows {
		id := row.Value(identityCol).AsText()
		if id == "" {
			continue
		}
		snr := math.Inf(-1)
		if v := row.Value(snrCol); v.IsNumeric() {
			snr = v.Num
		}
		cur, seen := best[id]
		if !seen || snr > cur.snr {
			best[id] = winner{ref: row.Ref, snr: snr}
		}
	}

	out := tbl.Filter(func(r table.Row) bool {
		id := r.Value(identityCol).AsText()
		if id == "" {
			return true
		}
		if best[id].ref == r.Ref {
			return true
		}
		res.AddRowError(r.Ref, fmt.Sprintf("duplicate %s %q dropped (lower %s)", identityCol, id, snrCol))
		return false
	})
	if removed := tbl.RowCount() - out.RowCount(); removed > 0 {
		res.AddWarning("Removed %d duplicate %s entries", removed, identityCol)
	}
	return out
}

// FilterLabels keeps rows whose disposition is one of the trainable
// classes. Other dispositions are expected archive content rather than bad
// data, so they are counted in a warning instead of errored per row.
func FilterLabels(tbl *table.Table, labelCol string, labels catalog.Labels, res *pipeline.Result) *table.Table {
	out := tbl.Filter(func(r table.Row) bool {
		return labels.Contains(r.Value(labelCol).AsText())
	})
	if dropped := tbl.RowCount() - out.RowCount(); dropped > 0 {
		res.AddWarning("dropped %d rows with a non-trainable %s", dropped, labelCol)
	}
	return out
}
