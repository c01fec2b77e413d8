package prep

import (
	"math"
	"strings"
	"testing"

	"transitvet/domain/catalog"
	"transitvet/domain/pipeline"
	"transitvet/domain/table"
)

// TestApply_EndToEnd runs the full serving pipeline over a five-row batch:
// one row out of physical range, one missing a required feature, one losing
// a duplicate resolution, two clean. Exactly the three bad rows are removed
// and each carries exactly one diagnostic.
func TestApply_EndToEnd(t *testing.T) {
	tbl := buildTable(koiCols(catalog.ColIdentity),
		koiRow(map[string]table.Value{catalog.ColIdentity: txt("K00001.01"), catalog.ColModelSNR: num(25)}),
		koiRow(map[string]table.Value{catalog.ColIdentity: txt("K00011.01"), catalog.ColPeriod: num(-1)}),
		koiRow(map[string]table.Value{catalog.ColIdentity: txt("K00012.01"), catalog.ColDuration: gap()}),
		koiRow(map[string]table.Value{catalog.ColIdentity: txt("K00001.01"), catalog.ColModelSNR: num(10)}),
		koiRow(map[string]table.Value{
			catalog.ColIdentity: txt("K00002.01"),
			catalog.ColPeriod:   num(50),
			catalog.ColDepth:    num(5000),
			catalog.ColPrad:     num(8),
			catalog.ColInsol:    num(900),
			catalog.ColSrad:     num(20),
			catalog.ColModelSNR: num(80),
		}),
	)

	out, res := New(testSnapshot(t), nil).Apply(tbl)

	if !res.Success {
		t.Fatalf("Expected success, got failure: %v", res.Errors)
	}
	if res.OriginalRowCount != 5 || res.ProcessedRowCount != 2 || res.RemovedRowCount != 3 {
		t.Errorf("Expected counts 5/2/3, got %d/%d/%d",
			res.OriginalRowCount, res.ProcessedRowCount, res.RemovedRowCount)
	}
	if len(res.Errors) != 3 {
		t.Fatalf("Expected exactly 3 errors, got %d: %v", len(res.Errors), res.Errors)
	}
	wantRows := []int{3, 1, 2}
	for i, want := range wantRows {
		if res.Errors[i].Row != want {
			t.Errorf("Expected error %d on row %d, got %d (%s)",
				i, want, res.Errors[i].Row, res.Errors[i].Message)
		}
	}
	if !sameRefs(refsOf(out), []table.Ref{0, 4}) {
		t.Errorf("Expected rows [0 4] in the output, got %v", refsOf(out))
	}
	if out.HasColumn(catalog.ColIdentity) {
		t.Error("Expected the identity column excluded from the feature matrix")
	}
	if got := len(out.Cols); got != 11 {
		t.Errorf("Expected the 11-feature contract, got %d columns", got)
	}
}

// TestApply_RowConservation verifies processed plus removed equals
// original and every removed row left at least one diagnostic behind.
func TestApply_RowConservation(t *testing.T) {
	tbl := buildTable(koiCols(catalog.ColIdentity),
		koiRow(map[string]table.Value{catalog.ColIdentity: txt("K00005.01")}),
		koiRow(map[string]table.Value{catalog.ColIdentity: txt("K00005.01")}),
		koiRow(map[string]table.Value{catalog.ColIdentity: txt("K00006.01"), catalog.ColTeq: num(50)}),
		koiRow(map[string]table.Value{catalog.ColIdentity: txt("K00007.01"), catalog.ColPrad: gap()}),
	)

	out, res := New(testSnapshot(t), nil).Apply(tbl)

	if res.ProcessedRowCount+res.RemovedRowCount != res.OriginalRowCount {
		t.Errorf("Row accounting broken: %d + %d != %d",
			res.ProcessedRowCount, res.RemovedRowCount, res.OriginalRowCount)
	}
	kept := make(map[int]bool)
	for _, r := range out.Rows {
		kept[int(r.Ref)] = true
	}
	blamed := make(map[int]bool)
	for _, e := range res.Errors {
		blamed[e.Row] = true
	}
	for i := 0; i < res.OriginalRowCount; i++ {
		if !kept[i] && !blamed[i] {
			t.Errorf("Row %d was removed without a diagnostic", i)
		}
	}
}

// TestApply_TransformedInputShortCircuits verifies the detector branch:
// a pre-transformed table skips cleaning entirely, keeps every row, warns,
// and comes out tagged log10.
func TestApply_TransformedInputShortCircuits(t *testing.T) {
	logged := func(cells map[string]table.Value) map[string]table.Value {
		for _, feat := range catalog.LogTransformFeatures() {
			cells[feat] = num(math.Log10(cells[feat].Num))
		}
		return cells
	}
	// The period of the first row is log10(0.1), below the raw-path lower
	// bound after exponentiation; it must survive because the cleaning
	// stages are skipped for transformed input.
	tbl := buildTable(koiCols(),
		logged(koiRow(map[string]table.Value{catalog.ColPeriod: num(0.1)})),
		logged(koiRow(map[string]table.Value{
			catalog.ColPeriod:   num(50),
			catalog.ColDepth:    num(5000),
			catalog.ColPrad:     num(8),
			catalog.ColInsol:    num(900),
			catalog.ColSrad:     num(20),
			catalog.ColModelSNR: num(80),
		})),
	)

	out, res := New(testSnapshot(t), nil).Apply(tbl)

	if !res.Success {
		t.Fatalf("Expected success, got failure: %v", res.Errors)
	}
	if res.ProcessedRowCount != 2 || res.RemovedRowCount != 0 {
		t.Errorf("Expected 2 processed and 0 removed, got %d/%d",
			res.ProcessedRowCount, res.RemovedRowCount)
	}
	found := false
	for _, w := range res.Warnings {
		if strings.Contains(w, "already log-transformed") {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected an already-transformed warning, got %v", res.Warnings)
	}
	if got := out.Rows[0].Value(catalog.ColPeriod); got.Unit != table.UnitLog10 {
		t.Errorf("Expected magnitude columns tagged log10, got %q", got.Unit)
	}
}

// TestApply_DetectTransformIdempotence verifies the headline property: a
// natural-unit table and its pre-logged equivalent produce the same
// feature matrix, one via the transform and one via the short circuit.
func TestApply_DetectTransformIdempotence(t *testing.T) {
	wide := map[string]table.Value{
		catalog.ColPeriod:   num(50),
		catalog.ColDepth:    num(5000),
		catalog.ColPrad:     num(8),
		catalog.ColInsol:    num(900),
		catalog.ColSrad:     num(20),
		catalog.ColModelSNR: num(80),
	}
	natural := buildTable(koiCols(), koiRow(nil), koiRow(wide))

	logged := func(cells map[string]table.Value) map[string]table.Value {
		for _, feat := range catalog.LogTransformFeatures() {
			cells[feat] = num(math.Log10(cells[feat].Num))
		}
		return cells
	}
	pre := buildTable(koiCols(), logged(koiRow(nil)), logged(koiRow(wide)))

	snap := testSnapshot(t)
	outNat, resNat := New(snap, nil).Apply(natural)
	outPre, resPre := New(snap, nil).Apply(pre)

	if !resNat.Success || !resPre.Success {
		t.Fatalf("Expected both runs to succeed: %v / %v", resNat.Errors, resPre.Errors)
	}
	if !sameRefs(refsOf(outNat), refsOf(outPre)) {
		t.Fatalf("Expected identical surviving rows, got %v vs %v", refsOf(outNat), refsOf(outPre))
	}
	if len(outNat.Cols) != len(outPre.Cols) {
		t.Fatalf("Expected identical columns, got %v vs %v", outNat.Cols, outPre.Cols)
	}
	for i, row := range outNat.Rows {
		for _, col := range outNat.Cols {
			a := row.Value(col)
			b := outPre.Rows[i].Value(col)
			if a.IsMissing() != b.IsMissing() {
				t.Errorf("Row %d %s: missing disagreement", i, col)
				continue
			}
			if a.IsNumeric() && !closeTo(a.Num, b.Num) {
				t.Errorf("Row %d %s: %v != %v", i, col, a.Num, b.Num)
			}
		}
	}
}

// TestApply_EmptyTableFails verifies the structural precondition: empty
// input fails at the sentinel index with no partial output.
func TestApply_EmptyTableFails(t *testing.T) {
	out, res := New(testSnapshot(t), nil).Apply(table.New(koiCols()...))

	if res.Success {
		t.Error("Expected failure on empty input")
	}
	if out != nil {
		t.Error("Expected no output table on failure")
	}
	if len(res.Errors) != 1 || res.Errors[0].Row != pipeline.TableRow {
		t.Errorf("Expected one sentinel-row error, got %v", res.Errors)
	}
}

// TestApply_MissingRequiredColumnFails verifies a table lacking a required
// column is a table-level fault naming the column.
func TestApply_MissingRequiredColumnFails(t *testing.T) {
	cols := []string{catalog.ColPeriod, catalog.ColDepth, catalog.ColPrad, catalog.ColTeq}
	tbl := buildTable(cols, map[string]table.Value{
		catalog.ColPeriod: num(10),
		catalog.ColDepth:  num(1000),
		catalog.ColPrad:   num(2),
		catalog.ColTeq:    num(500),
	})

	out, res := New(testSnapshot(t), nil).Apply(tbl)

	if res.Success {
		t.Error("Expected failure when koi_duration is absent")
	}
	if out != nil {
		t.Error("Expected no output table on failure")
	}
	if len(res.Errors) != 1 || res.Errors[0].Row != pipeline.TableRow {
		t.Fatalf("Expected one sentinel-row error, got %v", res.Errors)
	}
	if !strings.Contains(res.Errors[0].Message, catalog.ColDuration) {
		t.Errorf("Expected the fault to name koi_duration, got %q", res.Errors[0].Message)
	}
}

// TestApply_UnparseableTextDropsRow verifies garbage in a numeric column
// is a row-level fault, not a crash and not a table-level one.
func TestApply_UnparseableTextDropsRow(t *testing.T) {
	tbl := buildTable(koiCols(),
		koiRow(nil),
		koiRow(map[string]table.Value{catalog.ColDepth: txt("N/A ppm")}),
		koiRow(map[string]table.Value{
			catalog.ColPeriod:   num(50),
			catalog.ColDepth:    num(5000),
			catalog.ColPrad:     num(8),
			catalog.ColInsol:    num(900),
			catalog.ColSrad:     num(20),
			catalog.ColModelSNR: num(80),
		}),
	)

	out, res := New(testSnapshot(t), nil).Apply(tbl)

	if !res.Success {
		t.Fatalf("Expected success with one row dropped, got %v", res.Errors)
	}
	if !sameRefs(refsOf(out), []table.Ref{0, 2}) {
		t.Errorf("Expected rows [0 2] kept, got %v", refsOf(out))
	}
	if len(res.Errors) != 1 || res.Errors[0].Row != 1 {
		t.Fatalf("Expected one error on row 1, got %v", res.Errors)
	}
	if !strings.Contains(res.Errors[0].Message, "not numeric") {
		t.Errorf("Expected a parse diagnostic, got %q", res.Errors[0].Message)
	}
}

// TestFit_FreezesPreTransformMedians verifies the training path: medians
// come from the cleaned natural-unit table, labels are encoded through the
// frozen map, and the label column never reaches the feature matrix.
func TestFit_FreezesPreTransformMedians(t *testing.T) {
	tbl := buildTable(koiCols(catalog.ColIdentity, catalog.ColLabel),
		koiRow(map[string]table.Value{
			catalog.ColIdentity: txt("K00001.01"),
			catalog.ColLabel:    txt(catalog.DispositionConfirmed),
			catalog.ColTeq:      num(400),
		}),
		koiRow(map[string]table.Value{
			catalog.ColIdentity: txt("K00002.01"),
			catalog.ColLabel:    txt(catalog.DispositionCandidate),
			catalog.ColTeq:      num(600),
			catalog.ColPeriod:   num(50),
			catalog.ColDepth:    num(5000),
			catalog.ColPrad:     num(8),
			catalog.ColInsol:    num(900),
			catalog.ColSrad:     num(20),
			catalog.ColModelSNR: num(80),
		}),
		koiRow(map[string]table.Value{
			catalog.ColIdentity: txt("K00003.01"),
			catalog.ColLabel:    txt(catalog.DispositionFalsePositive),
			catalog.ColTeq:      num(800),
			catalog.ColPeriod:   num(120),
		}),
		koiRow(map[string]table.Value{
			catalog.ColIdentity: txt("K00004.01"),
			catalog.ColLabel:    txt("NOT DISPOSITIONED"),
		}),
	)

	fit, res := New(testSnapshot(t), nil).Fit(tbl)

	if !res.Success {
		t.Fatalf("Expected success, got %v", res.Errors)
	}
	if res.ProcessedRowCount != 3 {
		t.Errorf("Expected 3 trainable rows, got %d", res.ProcessedRowCount)
	}

	// Median of the natural-unit koi_teq values 400/600/800, frozen before
	// any transform could touch the scale.
	if got := fit.Snapshot.Medians[catalog.ColTeq]; !closeTo(got, 600) {
		t.Errorf("Expected frozen koi_teq median 600, got %v", got)
	}
	// koi_period is magnitude-transformed downstream; its frozen median
	// must still be in days, not log-days.
	if got := fit.Snapshot.Medians[catalog.ColPeriod]; !closeTo(got, 50) {
		t.Errorf("Expected frozen koi_period median 50 (natural units), got %v", got)
	}

	wantLabels := []int{0, 1, 2}
	if len(fit.Labels) != len(wantLabels) {
		t.Fatalf("Expected %d labels, got %d", len(wantLabels), len(fit.Labels))
	}
	for i, want := range wantLabels {
		if fit.Labels[i] != want {
			t.Errorf("Expected label %d to encode as %d, got %d", i, want, fit.Labels[i])
		}
	}

	if fit.Features.HasColumn(catalog.ColLabel) || fit.Features.HasColumn(catalog.ColIdentity) {
		t.Error("Expected label and identity columns excluded from the feature matrix")
	}
	if got := fit.Features.Rows[0].Value(catalog.ColPeriod); got.Unit != table.UnitLog10 {
		t.Errorf("Expected transformed features in the fit output, got unit %q", got.Unit)
	}
}

// TestFit_ImputesWithJustFrozenMedians verifies a gap in the training
// table itself is filled from the medians frozen in the same run.
func TestFit_ImputesWithJustFrozenMedians(t *testing.T) {
	tbl := buildTable(koiCols(catalog.ColLabel),
		koiRow(map[string]table.Value{catalog.ColLabel: txt(catalog.DispositionConfirmed), catalog.ColTeq: num(400)}),
		koiRow(map[string]table.Value{catalog.ColLabel: txt(catalog.DispositionCandidate), catalog.ColTeq: num(800),
			catalog.ColPeriod: num(50), catalog.ColDepth: num(5000), catalog.ColPrad: num(8),
			catalog.ColInsol: num(900), catalog.ColSrad: num(20), catalog.ColModelSNR: num(80)}),
		koiRow(map[string]table.Value{catalog.ColLabel: txt(catalog.DispositionFalsePositive), catalog.ColTeq: gap()}),
	)

	fit, res := New(testSnapshot(t), nil).Fit(tbl)

	if !res.Success {
		t.Fatalf("Expected success, got %v", res.Errors)
	}
	frozen := fit.Snapshot.Medians[catalog.ColTeq]
	if !closeTo(frozen, 600) {
		t.Fatalf("Expected frozen median 600 from the two measured rows, got %v", frozen)
	}
	got := fit.Features.Rows[2].Value(catalog.ColTeq)
	if !got.IsNumeric() || !closeTo(got.Num, frozen) {
		t.Errorf("Expected the gap filled with the frozen median, got %+v", got)
	}
}

// TestFit_MissingLabelColumnFails verifies training cannot proceed
// without the disposition column.
func TestFit_MissingLabelColumnFails(t *testing.T) {
	tbl := buildTable(koiCols(), koiRow(nil))

	fit, res := New(testSnapshot(t), nil).Fit(tbl)

	if res.Success || fit != nil {
		t.Error("Expected failure without a disposition column")
	}
	if len(res.Errors) != 1 || !strings.Contains(res.Errors[0].Message, catalog.ColLabel) {
		t.Errorf("Expected the fault to name %s, got %v", catalog.ColLabel, res.Errors)
	}
}
