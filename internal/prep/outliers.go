package prep

import (
	"fmt"

	"github.com/montanaflynn/stats"

	"transitvet/domain/pipeline"
	"transitvet/domain/table"
)

// SuppressOutliers rejects rows whose critical values sit outside a widened
// interquartile window computed from the batch itself. Quartiles come from
// each feature's non-missing values in the current table, never from the
// frozen statistics: this stage hunts data-entry-scale errors relative to
// the batch at hand. Features absent from the table or with too few usable
// values are skipped. Like the range checks, every feature is evaluated
// against the full incoming table before the union of offenders is dropped.
func SuppressOutliers(tbl *table.Table, critical []string, multiplier float64, res *pipeline.Result) *table.Table {
	bad := make(map[table.Ref]bool)
	for _, feat := range critical {
		if !tbl.HasColumn(feat) {
			continue
		}
		vals := tbl.ColumnFloats(feat)
		if len(vals) == 0 {
			continue
		}
		q1, err := stats.Percentile(vals, 25)
		if err != nil {
			continue
		}
		q3, err := stats.Percentile(vals, 75)
		if err != nil {
			continue
		}
		iqr := q3 - q1
		lo := q1 - multiplier*iqr
		hi := q3 + multiplier*iqr
		for _, row := range tbl.Rows {
			v := row.Value(feat)
			if !v.IsNumeric() {
				continue
			}
			if v.Num < lo || v.Num > hi {
				res.AddRowError(row.Ref, fmt.Sprintf("%s is extreme outlier (%g*IQR)", feat, multiplier))
				bad[row.Ref] = true
			}
		}
	}
	if len(bad) == 0 {
		return tbl
	}
	return tbl.Filter(func(r table.Row) bool { return !bad[r.Ref] })
}
