package prep

import (
	"fmt"

	"github.com/montanaflynn/stats"

	"transitvet/domain/pipeline"
	"transitvet/domain/table"
)

// DropMissingRequired records an error for every required feature a row
// lacks and drops those rows. A prediction without them would be a guess,
// so there is no fallback.
func DropMissingRequired(tbl *table.Table, required []string, res *pipeline.Result) *table.Table {
	bad := make(map[table.Ref]bool)
	for _, feat := range required {
		if !tbl.HasColumn(feat) {
			continue
		}
		for _, row := range tbl.Rows {
			if row.Value(feat).IsMissing() {
				res.AddRowError(row.Ref, fmt.Sprintf("Required feature %s is missing", feat))
				bad[row.Ref] = true
			}
		}
	}
	if len(bad) == 0 {
		return tbl
	}
	return tbl.Filter(func(r table.Row) bool { return !bad[r.Ref] })
}

// ImputeOptional fills missing optional values with the frozen training
// medians, never with anything computed from the current batch. A feature
// without a frozen median is left untouched; so is a feature column the
// table does not carry.
func ImputeOptional(tbl *table.Table, optional []string, medians map[string]float64) *table.Table {
	out := tbl.Clone()
	for _, feat := range optional {
		if !out.HasColumn(feat) {
			continue
		}
		med, ok := medians[feat]
		if !ok {
			continue
		}
		fill := table.NewNumericValue(med)
		for i := range out.Rows {
			if out.Rows[i].Value(feat).IsMissing() {
				out.Rows[i].Cells[feat] = fill
			}
		}
	}
	return out
}

// FreezeMedians computes per-feature medians over the rows that survived
// cleaning, before the magnitude transform. These are the values the
// imputer works from at fit time and at every serve after. Features with
// no numeric values get no median, which later makes the imputer leave
// them alone rather than invent a fill.
func FreezeMedians(tbl *table.Table, features []string) map[string]float64 {
	medians := make(map[string]float64, len(features))
	for _, feat := range features {
		if !tbl.HasColumn(feat) {
			continue
		}
		med, err := stats.Median(tbl.ColumnFloats(feat))
		if err != nil {
			continue
		}
		medians[feat] = med
	}
	return medians
}
