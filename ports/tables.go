package ports

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"transitvet/domain/table"
)

// TableFormat identifies a tabular file encoding
type TableFormat string

const (
	FormatCSV  TableFormat = "csv"
	FormatXLSX TableFormat = "xlsx"
)

// FormatForPath infers the encoding from a file extension, defaulting to
// CSV for anything unrecognized
func FormatForPath(path string) TableFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xls":
		return FormatXLSX
	default:
		return FormatCSV
	}
}

// TableReader loads a tabular dataset. Implementations assign every row
// its stable load-time Ref (ordinal position in the source, before any
// filtering) and type each cell as numeric, text, or missing.
type TableReader interface {
	// Read parses the dataset at path, inferring the format from the extension
	Read(ctx context.Context, path string) (*table.Table, error)

	// ReadFrom parses a dataset from a stream in the given format
	ReadFrom(ctx context.Context, r io.Reader, format TableFormat) (*table.Table, error)
}

// TableWriter persists a processed table
type TableWriter interface {
	// Write stores the table at path, inferring the format from the extension
	Write(ctx context.Context, path string, tbl *table.Table) error

	// WriteTo streams the table in the given format
	WriteTo(ctx context.Context, w io.Writer, format TableFormat, tbl *table.Table) error
}
