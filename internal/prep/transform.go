package prep

import (
	"transitvet/domain/table"
)

// TransformMagnitude replaces each magnitude-scaled feature with its
// base-10 logarithm, in place by column name. Non-positive values become
// missing for that feature rather than zero or an error. A column with no
// strictly positive values at all is left untouched. The unit tag on every
// transformed cell flips to log10, so a second application surfaces as an
// error instead of silently warping the distribution.
func TransformMagnitude(tbl *table.Table, logFeatures []string) (*table.Table, error) {
	out := tbl.Clone()
	for _, feat := range logFeatures {
		if !out.HasColumn(feat) {
			continue
		}
		positive := false
		for _, row := range out.Rows {
			if v := row.Value(feat); v.IsNumeric() && v.Num > 0 {
				positive = true
				break
			}
		}
		if !positive {
			continue
		}
		for i := range out.Rows {
			scaled, err := out.Rows[i].Value(feat).LogScale()
			if err != nil {
				return nil, err
			}
			out.Rows[i].Cells[feat] = scaled
		}
	}
	return out, nil
}

// RetagLogScaled marks magnitude features as already log-scaled without
// touching the numbers. Used when the detector recognizes an incoming
// table as pre-transformed, so the unit bookkeeping matches the data.
func RetagLogScaled(tbl *table.Table, logFeatures []string) *table.Table {
	out := tbl.Clone()
	for _, feat := range logFeatures {
		if !out.HasColumn(feat) {
			continue
		}
		for i := range out.Rows {
			v := out.Rows[i].Value(feat)
			if v.IsNumeric() && v.Unit == table.UnitNatural {
				v.Unit = table.UnitLog10
				out.Rows[i].Cells[feat] = v
			}
		}
	}
	return out
}
