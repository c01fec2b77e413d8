package tabular

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"

	"transitvet/domain/table"
	"transitvet/ports"
)

// Writer persists processed tables as CSV or XLSX
type Writer struct{}

// NewWriter creates a table writer for both supported formats
func NewWriter() ports.TableWriter {
	return &Writer{}
}

// Write stores the table at path, inferring the format from the extension
func (w *Writer) Write(ctx context.Context, path string, tbl *table.Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := w.WriteTo(ctx, f, ports.FormatForPath(path), tbl); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteTo streams the table in the given format
func (w *Writer) WriteTo(_ context.Context, dst io.Writer, format ports.TableFormat, tbl *table.Table) error {
	if format == ports.FormatXLSX {
		return writeWorkbook(dst, tbl)
	}
	return writeCSV(dst, tbl)
}

func writeCSV(dst io.Writer, tbl *table.Table) error {
	cw := csv.NewWriter(dst)
	if err := cw.Write(tbl.Cols); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	record := make([]string, len(tbl.Cols))
	for _, row := range tbl.Rows {
		for i, col := range tbl.Cols {
			record[i] = formatCell(row.Value(col))
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeWorkbook(dst io.Writer, tbl *table.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	header := make([]interface{}, len(tbl.Cols))
	for i, col := range tbl.Cols {
		header[i] = col
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, row := range tbl.Rows {
		cells := make([]interface{}, len(tbl.Cols))
		for j, col := range tbl.Cols {
			v := row.Value(col)
			if v.IsNumeric() {
				cells[j] = v.Num
			} else if v.IsText() {
				cells[j] = v.Text
			} else {
				cells[j] = nil
			}
		}
		ref, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to address row %d: %w", i, err)
		}
		if err := f.SetSheetRow(sheet, ref, &cells); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	if _, err := f.WriteTo(dst); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// formatCell renders a cell for CSV output. Missing becomes the empty
// string; numbers use the shortest round-trip form.
func formatCell(v table.Value) string {
	switch {
	case v.IsNumeric():
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	case v.IsText():
		return v.Text
	default:
		return ""
	}
}
