package table

import "fmt"

// Matrix is the classifier-facing view of a processed table: dense float
// rows over an ordered feature list, with the stable row Refs alongside so
// predictions can be joined back to input positions.
type Matrix struct {
	Features []string
	Refs     []Ref
	X        [][]float64
}

// Len returns the number of rows in the matrix
func (m Matrix) Len() int { return len(m.X) }

// ToMatrix converts a table to a dense matrix over the given feature
// columns. Rows with a missing or non-numeric cell in any requested column
// are excluded and reported, one reason per offending cell.
func (t *Table) ToMatrix(features []string) (Matrix, []SkippedRow) {
	m := Matrix{Features: make([]string, len(features))}
	copy(m.Features, features)

	var skipped []SkippedRow
	for _, r := range t.Rows {
		row := make([]float64, len(features))
		ok := true
		for i, f := range features {
			v := r.Value(f)
			if !v.IsNumeric() {
				skipped = append(skipped, SkippedRow{
					Ref:    r.Ref,
					Reason: fmt.Sprintf("%s has no numeric value after preprocessing", f),
				})
				ok = false
				continue
			}
			row[i] = v.Num
		}
		if ok {
			m.Refs = append(m.Refs, r.Ref)
			m.X = append(m.X, row)
		}
	}
	return m, skipped
}

// SkippedRow records a row excluded from a matrix and why
type SkippedRow struct {
	Ref    Ref
	Reason string
}
