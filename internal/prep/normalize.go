package prep

import (
	"fmt"
	"strings"

	"transitvet/domain/pipeline"
	"transitvet/domain/table"
)

// NormalizeColumns canonicalizes header names by trimming surrounding
// whitespace and lowercasing, so every later stage can address catalog
// columns by exact name. Cell values are untouched.
func NormalizeColumns(tbl *table.Table) *table.Table {
	return tbl.RenameColumns(func(name string) string {
		return strings.ToLower(strings.TrimSpace(name))
	})
}

// CoerceNumeric rejects rows carrying unparseable text in any of the given
// numeric columns. The reader already typed every cell, so anything still
// text in a feature column is garbage like "N/A" or a unit annotation.
// One error per offending cell; a row with several bad cells collects them
// all before it is dropped.
func CoerceNumeric(tbl *table.Table, features []string, res *pipeline.Result) *table.Table {
	bad := make(map[table.Ref]bool)
	for _, feat := range features {
		if !tbl.HasColumn(feat) {
			continue
		}
		for _, row := range tbl.Rows {
			if v := row.Value(feat); v.IsText() {
				res.AddRowError(row.Ref, fmt.Sprintf("%s is not numeric: %q", feat, v.Text))
				bad[row.Ref] = true
			}
		}
	}
	if len(bad) == 0 {
		return tbl
	}
	return tbl.Filter(func(r table.Row) bool { return !bad[r.Ref] })
}
