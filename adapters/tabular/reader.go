// Package tabular reads and writes the candidate tables the pipeline
// consumes: CSV as published by the archive (comment lines included) and
// XLSX workbooks. Cells are typed on the way in; every row gets its stable
// load-time Ref here and nowhere else.
package tabular

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"transitvet/domain/core"
	"transitvet/domain/table"
	"transitvet/ports"
)

// Reader loads CSV and XLSX datasets into typed tables
type Reader struct{}

// NewReader creates a table reader for both supported formats
func NewReader() ports.TableReader {
	return &Reader{}
}

// Read parses the dataset at path, inferring the format from the extension
func (r *Reader) Read(ctx context.Context, path string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrUnreadableIn, err)
	}
	defer f.Close()
	return r.ReadFrom(ctx, f, ports.FormatForPath(path))
}

// ReadFrom parses a dataset from a stream in the given format
func (r *Reader) ReadFrom(_ context.Context, src io.Reader, format ports.TableFormat) (*table.Table, error) {
	var (
		records [][]string
		err     error
	)
	switch format {
	case ports.FormatXLSX:
		records, err = readWorkbook(src)
	default:
		records, err = readCSV(src)
	}
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: dataset has no header row", core.ErrUnreadableIn)
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.TrimSpace(h)
	}

	tbl := table.New(headers...)
	for i, record := range records[1:] {
		cells := make(map[string]table.Value, len(headers))
		for j, name := range headers {
			if j < len(record) {
				cells[name] = parseCell(record[j])
			} else {
				cells[name] = table.NewMissingValue()
			}
		}
		tbl.AppendRow(table.NewRow(table.Ref(i), cells))
	}

	log.Printf("[Tabular] read %d rows, %d columns", tbl.RowCount(), len(headers))
	return tbl, nil
}

// readCSV parses archive-style CSV: '#' opens a comment line, rows may be
// ragged at the tail.
func readCSV(src io.Reader) ([][]string, error) {
	cr := csv.NewReader(src)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrUnreadableIn, err)
	}
	return records, nil
}

// readWorkbook parses the first sheet of an XLSX workbook
func readWorkbook(src io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrUnreadableIn, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", core.ErrUnreadableIn)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrUnreadableIn, err)
	}
	return rows, nil
}

// parseCell types one raw cell. Empty means missing; anything ParseFloat
// accepts is numeric (including the NaN spelling, which lands as missing);
// the rest stays text for later stages to judge.
func parseCell(raw string) table.Value {
	s := strings.TrimSpace(raw)
	if s == "" {
		return table.NewMissingValue()
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return table.NewNumericValue(n)
	}
	return table.NewTextValue(s)
}
