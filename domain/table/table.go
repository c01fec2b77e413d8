// Package table is the tabular data model the pipeline operates on.
// A Table is an ordered set of named columns over rows of typed cells;
// every row carries the Ref it was assigned at load time, so diagnostics
// cite original input positions no matter how many intermediate rows
// later stages remove.
package table

import (
	"sort"
)

// Ref is the stable row identifier assigned once at load time (the row's
// ordinal position in the input, before any filtering).
type Ref int

// Row is one candidate observation. Rows are treated as immutable once
// emitted from a stage; stages that change cells work on clones.
type Row struct {
	Ref   Ref              `json:"ref"`
	Cells map[string]Value `json:"cells"`
}

// NewRow creates a row with the given stable identifier
func NewRow(ref Ref, cells map[string]Value) Row {
	if cells == nil {
		cells = make(map[string]Value)
	}
	return Row{Ref: ref, Cells: cells}
}

// Value returns the cell for col, or a missing value when the column is absent
func (r Row) Value(col string) Value {
	if v, ok := r.Cells[col]; ok {
		return v
	}
	return NewMissingValue()
}

// Clone returns a deep copy of the row
func (r Row) Clone() Row {
	cells := make(map[string]Value, len(r.Cells))
	for k, v := range r.Cells {
		cells[k] = v
	}
	return Row{Ref: r.Ref, Cells: cells}
}

// Table is an ordered collection of columns over rows
type Table struct {
	Cols []string
	Rows []Row
}

// New creates an empty table with the given column order
func New(cols ...string) *Table {
	c := make([]string, len(cols))
	copy(c, cols)
	return &Table{Cols: c}
}

// AppendRow adds a row, preserving its Ref
func (t *Table) AppendRow(r Row) {
	t.Rows = append(t.Rows, r)
}

// RowCount returns the number of rows
func (t *Table) RowCount() int { return len(t.Rows) }

// HasColumn reports whether the named column exists
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Cols {
		if c == name {
			return true
		}
	}
	return false
}

// Columns returns a copy of the ordered column names
func (t *Table) Columns() []string {
	out := make([]string, len(t.Cols))
	copy(out, t.Cols)
	return out
}

// MissingColumns returns the subset of want absent from the table, in want order
func (t *Table) MissingColumns(want []string) []string {
	var missing []string
	for _, w := range want {
		if !t.HasColumn(w) {
			missing = append(missing, w)
		}
	}
	return missing
}

// RenameColumns returns a table with every column name passed through f.
// When two names collapse to the same canonical form the first column keeps
// its position and later cells win only where the earlier cell is missing.
func (t *Table) RenameColumns(f func(string) string) *Table {
	out := &Table{}
	seen := make(map[string]bool)
	mapped := make(map[string]string, len(t.Cols))
	for _, c := range t.Cols {
		n := f(c)
		mapped[c] = n
		if !seen[n] {
			seen[n] = true
			out.Cols = append(out.Cols, n)
		}
	}
	for _, r := range t.Rows {
		cells := make(map[string]Value, len(r.Cells))
		for _, c := range t.Cols {
			v, ok := r.Cells[c]
			if !ok {
				continue
			}
			n := mapped[c]
			if prev, ok := cells[n]; ok && !prev.IsMissing() {
				continue
			}
			cells[n] = v
		}
		out.Rows = append(out.Rows, Row{Ref: r.Ref, Cells: cells})
	}
	return out
}

// DropColumns returns a table without the named columns
func (t *Table) DropColumns(names ...string) *Table {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	out := &Table{}
	for _, c := range t.Cols {
		if !drop[c] {
			out.Cols = append(out.Cols, c)
		}
	}
	for _, r := range t.Rows {
		cells := make(map[string]Value, len(r.Cells))
		for k, v := range r.Cells {
			if !drop[k] {
				cells[k] = v
			}
		}
		out.Rows = append(out.Rows, Row{Ref: r.Ref, Cells: cells})
	}
	return out
}

// Select returns a table restricted to the given columns in the given order.
// Absent columns are skipped.
func (t *Table) Select(cols []string) *Table {
	out := &Table{}
	for _, c := range cols {
		if t.HasColumn(c) {
			out.Cols = append(out.Cols, c)
		}
	}
	for _, r := range t.Rows {
		cells := make(map[string]Value, len(out.Cols))
		for _, c := range out.Cols {
			if v, ok := r.Cells[c]; ok {
				cells[c] = v
			}
		}
		out.Rows = append(out.Rows, Row{Ref: r.Ref, Cells: cells})
	}
	return out
}

// Filter returns a table keeping only rows for which keep returns true
func (t *Table) Filter(keep func(Row) bool) *Table {
	out := &Table{Cols: t.Columns()}
	for _, r := range t.Rows {
		if keep(r) {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}

// Column returns the cells of one column, row order preserved
func (t *Table) Column(name string) []Value {
	out := make([]Value, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Value(name)
	}
	return out
}

// ColumnFloats returns the non-missing numeric values of one column,
// row order preserved. Text and missing cells are skipped.
func (t *Table) ColumnFloats(name string) []float64 {
	var out []float64
	for _, r := range t.Rows {
		if v := r.Value(name); v.IsNumeric() {
			out = append(out, v.Num)
		}
	}
	return out
}

// SortRowsStable sorts rows in place with a stable order
func (t *Table) SortRowsStable(less func(a, b Row) bool) {
	sort.SliceStable(t.Rows, func(i, j int) bool {
		return less(t.Rows[i], t.Rows[j])
	})
}

// Clone returns a deep copy of the table
func (t *Table) Clone() *Table {
	out := &Table{Cols: t.Columns()}
	out.Rows = make([]Row, len(t.Rows))
	for i, r := range t.Rows {
		out.Rows[i] = r.Clone()
	}
	return out
}
