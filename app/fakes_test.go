package app

import (
	"context"
	"fmt"
	"io"

	"transitvet/domain/catalog"
	"transitvet/domain/core"
	"transitvet/domain/table"
	"transitvet/models"
	"transitvet/ports"
)

// memReader serves one canned table regardless of path
type memReader struct {
	tbl *table.Table
	err error
}

func (r memReader) Read(context.Context, string) (*table.Table, error) {
	return r.tbl, r.err
}

func (r memReader) ReadFrom(context.Context, io.Reader, ports.TableFormat) (*table.Table, error) {
	return r.tbl, r.err
}

// memWriter captures the last written table
type memWriter struct {
	path string
	tbl  *table.Table
}

func (w *memWriter) Write(_ context.Context, path string, tbl *table.Table) error {
	w.path, w.tbl = path, tbl
	return nil
}

func (w *memWriter) WriteTo(_ context.Context, _ io.Writer, _ ports.TableFormat, tbl *table.Table) error {
	w.tbl = tbl
	return nil
}

// memRuns collects audit rows in memory
type memRuns struct {
	recs []models.RunRecord
}

func (m *memRuns) SaveRun(_ context.Context, rec models.RunRecord) error {
	m.recs = append(m.recs, rec)
	return nil
}

func (m *memRuns) GetRun(_ context.Context, id core.RunID) (*models.RunRecord, error) {
	for i := range m.recs {
		if m.recs[i].ID == id {
			return &m.recs[i], nil
		}
	}
	return nil, core.ErrRunNotFound
}

func (m *memRuns) ListRuns(context.Context, ports.RunFilters) ([]*models.RunRecord, error) {
	out := make([]*models.RunRecord, 0, len(m.recs))
	for i := len(m.recs) - 1; i >= 0; i-- {
		out = append(out, &m.recs[i])
	}
	return out, nil
}

// rawCatalog builds a well-formed labeled catalog with the given number
// of confirmed, candidate, and false-positive rows. Values sit inside
// every physical bound, clear of the outlier fences, and spread widely
// enough that the format detector reads them as natural units.
func rawCatalog(confirmed, candidate, falsePositive int) *table.Table {
	cols := append([]string{catalog.ColIdentity, catalog.ColLabel}, catalog.DefaultFeatureSpec().All()...)
	tbl := table.New(cols...)

	classes := []struct {
		label string
		count int
		base  map[string]float64
	}{
		{catalog.DispositionConfirmed, confirmed, map[string]float64{
			catalog.ColPeriod: 3, catalog.ColDepth: 200, catalog.ColDuration: 2.5,
			catalog.ColPrad: 1.1, catalog.ColTeq: 350, catalog.ColInsol: 40,
			catalog.ColSteff: 4600, catalog.ColSlogg: 4.3, catalog.ColSrad: 0.8,
			catalog.ColModelSNR: 18, catalog.ColImpact: 0.2,
		}},
		{catalog.DispositionCandidate, candidate, map[string]float64{
			catalog.ColPeriod: 12, catalog.ColDepth: 800, catalog.ColDuration: 4,
			catalog.ColPrad: 2.4, catalog.ColTeq: 800, catalog.ColInsol: 200,
			catalog.ColSteff: 5400, catalog.ColSlogg: 4.4, catalog.ColSrad: 0.95,
			catalog.ColModelSNR: 45, catalog.ColImpact: 0.5,
		}},
		{catalog.DispositionFalsePositive, falsePositive, map[string]float64{
			catalog.ColPeriod: 45, catalog.ColDepth: 2500, catalog.ColDuration: 6,
			catalog.ColPrad: 8, catalog.ColTeq: 1500, catalog.ColInsol: 700,
			catalog.ColSteff: 6100, catalog.ColSlogg: 4.5, catalog.ColSrad: 1.15,
			catalog.ColModelSNR: 90, catalog.ColImpact: 0.7,
		}},
	}

	ref := 0
	for _, c := range classes {
		for i := 0; i < c.count; i++ {
			jitter := float64(i%10) / 10
			cells := map[string]table.Value{
				catalog.ColIdentity: table.NewTextValue(fmt.Sprintf("K%05d.01", ref)),
				catalog.ColLabel:    table.NewTextValue(c.label),
			}
			for feat, base := range c.base {
				cells[feat] = table.NewNumericValue(base * (1 + jitter/20))
			}
			tbl.AppendRow(table.NewRow(table.Ref(ref), cells))
			ref++
		}
	}
	return tbl
}
