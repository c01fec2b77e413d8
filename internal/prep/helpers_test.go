package prep

import (
	"math"
	"testing"

	"transitvet/domain/catalog"
	"transitvet/domain/reference"
	"transitvet/domain/table"
)

func num(v float64) table.Value { return table.NewNumericValue(v) }
func txt(s string) table.Value  { return table.NewTextValue(s) }
func gap() table.Value          { return table.NewMissingValue() }

// buildTable assembles a table with refs numbered from zero
func buildTable(cols []string, rows ...map[string]table.Value) *table.Table {
	t := table.New(cols...)
	for i, cells := range rows {
		t.AppendRow(table.NewRow(table.Ref(i), cells))
	}
	return t
}

// koiCols is the feature contract plus any extra columns
func koiCols(extra ...string) []string {
	cols := catalog.DefaultFeatureSpec().All()
	return append(cols, extra...)
}

// koiRow builds a fully populated plausible candidate row, with overrides.
// The defaults sit safely inside every physical range and, as natural
// units, lose the detector vote when mixed with the wide-spanning values
// other rows contribute.
func koiRow(over map[string]table.Value) map[string]table.Value {
	cells := map[string]table.Value{
		catalog.ColPeriod:   num(10),
		catalog.ColDepth:    num(1000),
		catalog.ColDuration: num(5),
		catalog.ColPrad:     num(2),
		catalog.ColTeq:      num(500),
		catalog.ColInsol:    num(100),
		catalog.ColSteff:    num(5500),
		catalog.ColSlogg:    num(4.4),
		catalog.ColSrad:     num(0.9),
		catalog.ColModelSNR: num(25),
		catalog.ColImpact:   num(0.5),
	}
	for k, v := range over {
		cells[k] = v
	}
	return cells
}

// testStats is a statistics artifact frozen from a fictitious training run
func testStats() reference.Statistics {
	return reference.Statistics{
		Medians: map[string]float64{
			catalog.ColTeq:      550,
			catalog.ColInsol:    120,
			catalog.ColSteff:    5600,
			catalog.ColSlogg:    4.4,
			catalog.ColSrad:     0.9,
			catalog.ColModelSNR: 20,
			catalog.ColImpact:   0.5,
		},
		ValidRanges: map[string][2]float64{
			catalog.ColPeriod: {0.2, 730},
			catalog.ColPrad:   {0.5, 30},
			catalog.ColDepth:  {10, 100000},
			catalog.ColTeq:    {100, 3000},
		},
		LogFeatures: catalog.LogTransformFeatures(),
	}
}

// testSnapshot builds the serving snapshot tests run against
func testSnapshot(t *testing.T) *reference.Snapshot {
	t.Helper()
	snap, err := reference.NewSnapshot(testStats())
	if err != nil {
		t.Fatalf("building snapshot: %v", err)
	}
	return snap
}

// refsOf extracts the stable row identifiers of a table in order
func refsOf(tbl *table.Table) []table.Ref {
	out := make([]table.Ref, 0, tbl.RowCount())
	for _, r := range tbl.Rows {
		out = append(out, r.Ref)
	}
	return out
}

// sameRefs compares two ref sequences
func sameRefs(a, b []table.Ref) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// closeTo compares floats with a small absolute tolerance
func closeTo(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
