package app

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"transitvet/adapters/refstats"
	"transitvet/domain/catalog"
	"transitvet/domain/core"
	"transitvet/domain/reference"
	"transitvet/models"
)

// savedStats writes a plausible statistics artifact and returns its path
func savedStats(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stats.json")
	stats := reference.Statistics{
		Medians: map[string]float64{
			catalog.ColTeq:   700,
			catalog.ColSteff: 5400,
			catalog.ColSlogg: 4.4,
		},
		ValidRanges: map[string][2]float64{
			catalog.ColPeriod: {0.2, 730},
			catalog.ColPrad:   {0.5, 30},
			catalog.ColDepth:  {10, 100000},
			catalog.ColTeq:    {100, 3000},
		},
		LogFeatures: catalog.LogTransformFeatures(),
		Version:     "stats-for-preprocess",
	}
	if err := refstats.NewStore().Save(context.Background(), path, stats); err != nil {
		t.Fatalf("Expected to save the statistics fixture, got %v", err)
	}
	return path
}

func TestPreprocessService_CleansAndWrites(t *testing.T) {
	statsPath := savedStats(t)
	writer := &memWriter{}
	runs := &memRuns{}
	svc := NewPreprocessService(memReader{tbl: rawCatalog(10, 8, 6)}, writer, refstats.NewStore(), runs, quietLogger())

	res, err := svc.Run(context.Background(), "raw.csv", "clean.csv", statsPath)
	if err != nil {
		t.Fatalf("Expected preprocessing to succeed, got %v", err)
	}
	if !res.Success {
		t.Fatalf("Expected a successful result, got errors %v", res.Errors)
	}
	if res.OriginalRowCount != 24 || res.ProcessedRowCount != 24 {
		t.Errorf("Expected all 24 rows kept, got %d of %d",
			res.ProcessedRowCount, res.OriginalRowCount)
	}

	if writer.path != "clean.csv" || writer.tbl == nil {
		t.Fatalf("Expected the processed table written to clean.csv, got %q", writer.path)
	}
	want := catalog.DefaultFeatureSpec().All()
	if !reflect.DeepEqual(writer.tbl.Columns(), want) {
		t.Errorf("Expected output columns in contract order %v, got %v", want, writer.tbl.Columns())
	}
	if writer.tbl.RowCount() != 24 {
		t.Errorf("Expected 24 output rows, got %d", writer.tbl.RowCount())
	}

	if len(runs.recs) != 1 || runs.recs[0].Kind != models.RunKindPreprocess {
		t.Fatalf("Expected 1 preprocess audit row, got %+v", runs.recs)
	}
}

func TestPreprocessService_StructuralFaultSkipsWrite(t *testing.T) {
	statsPath := savedStats(t)
	writer := &memWriter{}
	runs := &memRuns{}
	tbl := rawCatalog(5, 4, 3).DropColumns(catalog.ColDuration)
	svc := NewPreprocessService(memReader{tbl: tbl}, writer, refstats.NewStore(), runs, quietLogger())

	res, err := svc.Run(context.Background(), "raw.csv", "clean.csv", statsPath)
	if err != nil {
		t.Fatalf("Expected the fault inside the result, got error %v", err)
	}
	if res.Success {
		t.Fatal("Expected a failed result for a missing required column")
	}
	if writer.tbl != nil {
		t.Error("Expected no output written after a structural fault")
	}
	if len(runs.recs) != 1 || runs.recs[0].Success {
		t.Errorf("Expected 1 failed audit row, got %+v", runs.recs)
	}
}

func TestPreprocessService_MissingStatsIsAnError(t *testing.T) {
	svc := NewPreprocessService(
		memReader{tbl: rawCatalog(2, 2, 2)},
		&memWriter{},
		refstats.NewStore(),
		&memRuns{},
		quietLogger(),
	)

	missing := filepath.Join(t.TempDir(), "absent.json")
	_, err := svc.Run(context.Background(), "raw.csv", "clean.csv", missing)
	if err == nil {
		t.Fatal("Expected an error for a missing statistics artifact")
	}
	if !core.IsNotFoundError(err) {
		t.Errorf("Expected a not-found error, got %v", err)
	}
}
