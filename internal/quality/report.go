// Package quality profiles a labeled catalog before cleaning: per-feature
// missingness and shape, duplicate identities, leakage column presence.
// The report is training-time diagnostics only; nothing downstream keys
// off it.
package quality

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"

	"transitvet/domain/catalog"
	"transitvet/domain/core"
	"transitvet/domain/table"
)

// FeatureProfile is one feature's pre-clean summary. Quartiles and
// skewness cover the parseable numeric values only.
type FeatureProfile struct {
	Feature    string  `json:"feature"`
	Present    int     `json:"present"`
	Missing    int     `json:"missing"`
	MissingPct float64 `json:"missing_pct"`
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
	Q1         float64 `json:"q1"`
	Median     float64 `json:"median"`
	Q3         float64 `json:"q3"`
	Skewness   float64 `json:"skewness"`
	Outliers   int     `json:"outliers_iqr"`
}

// Report is the dataset-level quality summary persisted next to the
// training artifacts.
type Report struct {
	Rows           int              `json:"rows"`
	DuplicateIDs   int              `json:"duplicate_identities"`
	LeakagePresent []string         `json:"leakage_columns_present,omitempty"`
	AbsentFeatures []string         `json:"absent_features,omitempty"`
	Features       []FeatureProfile `json:"features"`
	GeneratedAt    core.Timestamp   `json:"generated_at"`
}

// Profile analyzes the raw table against the feature contract.
func Profile(tbl *table.Table, spec catalog.FeatureSpec) *Report {
	r := &Report{
		Rows:        tbl.RowCount(),
		GeneratedAt: core.Now(),
	}

	for _, name := range catalog.LeakageFeatures() {
		if tbl.HasColumn(name) {
			r.LeakagePresent = append(r.LeakagePresent, name)
		}
	}
	r.DuplicateIDs = duplicateIdentities(tbl)

	for _, feature := range spec.All() {
		if !tbl.HasColumn(feature) {
			r.AbsentFeatures = append(r.AbsentFeatures, feature)
			continue
		}
		r.Features = append(r.Features, profileFeature(tbl, feature))
	}
	return r
}

func profileFeature(tbl *table.Table, feature string) FeatureProfile {
	data := tbl.ColumnFloats(feature)
	p := FeatureProfile{
		Feature: feature,
		Present: len(data),
		Missing: tbl.RowCount() - len(data),
	}
	if tbl.RowCount() > 0 {
		p.MissingPct = 100 * float64(p.Missing) / float64(tbl.RowCount())
	}
	if len(data) == 0 {
		return p
	}

	p.Min, _ = stats.Min(data)
	p.Max, _ = stats.Max(data)
	p.Median, _ = stats.Median(data)
	p.Q1, _ = stats.Percentile(data, 25)
	p.Q3, _ = stats.Percentile(data, 75)

	if len(data) >= 3 && stat.StdDev(data, nil) > 0 {
		p.Skewness = stat.Skew(data, nil)
	}

	iqr := p.Q3 - p.Q1
	lower := p.Q1 - 1.5*iqr
	upper := p.Q3 + 1.5*iqr
	for _, v := range data {
		if v < lower || v > upper {
			p.Outliers++
		}
	}
	return p
}

// duplicateIdentities counts rows beyond the first occurrence of each
// identity, mirroring how the dedupe stage will collapse them.
func duplicateIdentities(tbl *table.Table) int {
	if !tbl.HasColumn(catalog.ColIdentity) {
		return 0
	}
	seen := make(map[string]bool)
	duplicates := 0
	for _, row := range tbl.Rows {
		id := row.Value(catalog.ColIdentity).AsText()
		if id == "" {
			continue
		}
		if seen[id] {
			duplicates++
		}
		seen[id] = true
	}
	return duplicates
}

// Save writes the report as indented JSON.
func (r *Report) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal quality report: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write quality report: %w", err)
	}
	return nil
}
