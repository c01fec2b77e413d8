package prep

import (
	"transitvet/domain/catalog"
	"transitvet/domain/table"
)

// DetectLogScaled reports whether a table already carries log10-magnitude
// values for the given features. Each feature that is present, has at least
// one numeric value, and has a calibrated window gets a vote: the vote is
// "transformed" when the column's observed min and max both fall inside the
// window. The table is treated as transformed when at least half of the
// voting features say so. With no voting features at all the table is raw.
func DetectLogScaled(tbl *table.Table, logFeatures []string, bounds map[string]catalog.DetectorBound) bool {
	participants := 0
	votes := 0
	for _, feat := range logFeatures {
		bound, ok := bounds[feat]
		if !ok || !tbl.HasColumn(feat) {
			continue
		}
		vals := tbl.ColumnFloats(feat)
		if len(vals) == 0 {
			continue
		}
		participants++
		lo, hi := vals[0], vals[0]
		for _, v := range vals[1:] {
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		if bound.Inside(lo, hi) {
			votes++
		}
	}
	if participants == 0 {
		return false
	}
	return 2*votes >= participants
}
