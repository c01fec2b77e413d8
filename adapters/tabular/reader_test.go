package tabular

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"transitvet/domain/core"
	"transitvet/domain/table"
	"transitvet/ports"
)

const archiveCSV = `# This file was produced by the cumulative KOI table export
# kepoi_name: KOI identifier
kepoi_name,koi_period,koi_depth,koi_disposition
K00001.01,2.47,1000.5,CONFIRMED
K00002.01,,520,CANDIDATE
K00003.01,not_a_number,NaN,FALSE POSITIVE
`

// TestReader_ArchiveCSV verifies comment lines are skipped, cells are
// typed, the NaN spelling lands as missing, and refs follow load order.
func TestReader_ArchiveCSV(t *testing.T) {
	tbl, err := NewReader().ReadFrom(context.Background(), strings.NewReader(archiveCSV), ports.FormatCSV)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	if tbl.RowCount() != 3 {
		t.Fatalf("Expected 3 rows, got %d", tbl.RowCount())
	}
	if len(tbl.Cols) != 4 {
		t.Fatalf("Expected 4 columns, got %v", tbl.Cols)
	}

	if got := tbl.Rows[0].Value("koi_period"); !got.IsNumeric() || got.Num != 2.47 {
		t.Errorf("Expected numeric 2.47, got %+v", got)
	}
	if got := tbl.Rows[0].Value("kepoi_name"); !got.IsText() || got.Text != "K00001.01" {
		t.Errorf("Expected text identity, got %+v", got)
	}
	if !tbl.Rows[1].Value("koi_period").IsMissing() {
		t.Error("Expected empty cell to be missing")
	}
	if got := tbl.Rows[2].Value("koi_period"); !got.IsText() {
		t.Errorf("Expected unparseable cell kept as text, got %+v", got)
	}
	if !tbl.Rows[2].Value("koi_depth").IsMissing() {
		t.Error("Expected NaN spelling to land as missing")
	}

	for i, row := range tbl.Rows {
		if int(row.Ref) != i {
			t.Errorf("Expected ref %d at position %d, got %d", i, i, row.Ref)
		}
	}
}

// TestReader_RaggedRowPadsMissing verifies short rows fill the remaining
// columns with missing values instead of erroring.
func TestReader_RaggedRowPadsMissing(t *testing.T) {
	src := "a,b,c\n1,2\n"
	tbl, err := NewReader().ReadFrom(context.Background(), strings.NewReader(src), ports.FormatCSV)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !tbl.Rows[0].Value("c").IsMissing() {
		t.Error("Expected the absent tail cell to be missing")
	}
}

// TestReader_EmptyInputIsUnreadable verifies a dataset without a header
// row is a table fault.
func TestReader_EmptyInputIsUnreadable(t *testing.T) {
	_, err := NewReader().ReadFrom(context.Background(), strings.NewReader(""), ports.FormatCSV)
	if !errors.Is(err, core.ErrUnreadableIn) {
		t.Errorf("Expected ErrUnreadableIn, got %v", err)
	}
}

// TestReader_MissingFile verifies a path error comes back as unreadable
// input rather than a bare OS error.
func TestReader_MissingFile(t *testing.T) {
	_, err := NewReader().Read(context.Background(), "/definitely/not/here.csv")
	if !errors.Is(err, core.ErrUnreadableIn) {
		t.Errorf("Expected ErrUnreadableIn, got %v", err)
	}
}

// TestWriterReader_CSVRoundTrip verifies a processed table survives the
// trip to CSV and back: numbers as numbers, gaps as gaps.
func TestWriterReader_CSVRoundTrip(t *testing.T) {
	tbl := table.New("koi_period", "koi_depth", "note")
	tbl.AppendRow(table.NewRow(0, map[string]table.Value{
		"koi_period": table.NewNumericValue(1.3010299956639813),
		"koi_depth":  table.NewMissingValue(),
		"note":       table.NewTextValue("kept"),
	}))

	var buf bytes.Buffer
	if err := NewWriter().WriteTo(context.Background(), &buf, ports.FormatCSV, tbl); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	back, err := NewReader().ReadFrom(context.Background(), &buf, ports.FormatCSV)
	if err != nil {
		t.Fatalf("read back failed: %v", err)
	}
	if got := back.Rows[0].Value("koi_period"); !got.IsNumeric() || got.Num != 1.3010299956639813 {
		t.Errorf("Expected the full-precision value back, got %+v", got)
	}
	if !back.Rows[0].Value("koi_depth").IsMissing() {
		t.Error("Expected the gap preserved through the round trip")
	}
	if got := back.Rows[0].Value("note"); got.AsText() != "kept" {
		t.Errorf("Expected text preserved, got %+v", got)
	}
}

// TestWriterReader_WorkbookRoundTrip verifies the XLSX path end to end in
// memory.
func TestWriterReader_WorkbookRoundTrip(t *testing.T) {
	tbl := table.New("koi_period", "kepoi_name")
	tbl.AppendRow(table.NewRow(0, map[string]table.Value{
		"koi_period": table.NewNumericValue(42.5),
		"kepoi_name": table.NewTextValue("K00042.01"),
	}))

	var buf bytes.Buffer
	if err := NewWriter().WriteTo(context.Background(), &buf, ports.FormatXLSX, tbl); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	back, err := NewReader().ReadFrom(context.Background(), bytes.NewReader(buf.Bytes()), ports.FormatXLSX)
	if err != nil {
		t.Fatalf("read back failed: %v", err)
	}
	if back.RowCount() != 1 {
		t.Fatalf("Expected 1 row, got %d", back.RowCount())
	}
	if got := back.Rows[0].Value("koi_period"); !got.IsNumeric() || got.Num != 42.5 {
		t.Errorf("Expected numeric 42.5 back, got %+v", got)
	}
	if got := back.Rows[0].Value("kepoi_name"); got.AsText() != "K00042.01" {
		t.Errorf("Expected the identity back, got %+v", got)
	}
}

// TestFormatForPath verifies extension mapping defaults to CSV
func TestFormatForPath(t *testing.T) {
	cases := map[string]ports.TableFormat{
		"data/koi.csv":       ports.FormatCSV,
		"data/koi.XLSX":      ports.FormatXLSX,
		"data/koi.xls":       ports.FormatXLSX,
		"data/koi.txt":       ports.FormatCSV,
		"data/extensionless": ports.FormatCSV,
	}
	for path, want := range cases {
		if got := ports.FormatForPath(path); got != want {
			t.Errorf("Expected %s for %s, got %s", want, path, got)
		}
	}
}
