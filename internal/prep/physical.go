package prep

import (
	"sort"

	"transitvet/domain/catalog"
	"transitvet/domain/pipeline"
	"transitvet/domain/table"
)

// ValidateRanges rejects rows whose values fall outside the physical
// plausibility windows, plus rows violating the planet/star radius
// constraint. Every check runs against the full incoming table, so one row
// can collect several reasons before the union of offenders is dropped.
// Missing values pass: absence is the imputer's concern, not implausibility.
func ValidateRanges(tbl *table.Table, order []string, ranges map[string]catalog.PhysicalRange, constraint catalog.RadiusConstraint, res *pipeline.Result) *table.Table {
	bad := make(map[table.Ref]bool)

	for _, feat := range rangeOrder(order, ranges) {
		if !tbl.HasColumn(feat) {
			continue
		}
		rng := ranges[feat]
		for _, row := range tbl.Rows {
			v := row.Value(feat)
			if !v.IsNumeric() {
				continue
			}
			if !rng.Contains(v.Num) {
				res.AddRowError(row.Ref, rng.Reason(feat))
				bad[row.Ref] = true
			}
		}
	}

	if tbl.HasColumn(constraint.Planet) && tbl.HasColumn(constraint.Star) {
		for _, row := range tbl.Rows {
			p := row.Value(constraint.Planet)
			s := row.Value(constraint.Star)
			if !p.IsNumeric() || !s.IsNumeric() {
				continue
			}
			if !constraint.Holds(p.Num, s.Num) {
				res.AddRowError(row.Ref, constraint.Reason())
				bad[row.Ref] = true
			}
		}
	}

	if len(bad) == 0 {
		return tbl
	}
	return tbl.Filter(func(r table.Row) bool { return !bad[r.Ref] })
}

// rangeOrder returns the configured check sequence followed by any ranged
// features outside it, sorted by name so diagnostics stay stable.
func rangeOrder(order []string, ranges map[string]catalog.PhysicalRange) []string {
	seen := make(map[string]bool, len(order))
	out := make([]string, 0, len(ranges))
	for _, feat := range order {
		if _, ok := ranges[feat]; ok && !seen[feat] {
			out = append(out, feat)
			seen[feat] = true
		}
	}
	var extra []string
	for feat := range ranges {
		if !seen[feat] {
			extra = append(extra, feat)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}
