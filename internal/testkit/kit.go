// Package testkit builds the fixtures integration-level tests share: a
// deterministic synthetic KOI catalog and a Kit holding a small forest
// trained on it, loaded into a ready-to-serve scoring service.
package testkit

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"

	"transitvet/adapters/forest"
	"transitvet/adapters/refstats"
	"transitvet/adapters/sampling"
	"transitvet/adapters/tabular"
	"transitvet/app"
	"transitvet/domain/catalog"
	"transitvet/domain/core"
	"transitvet/domain/table"
	"transitvet/internal"
	"transitvet/models"
	"transitvet/ports"
)

// Kit bundles the paired training artifacts produced from the synthetic
// catalog and a scoring service with them already loaded.
type Kit struct {
	ModelPath string
	StatsPath string
	Version   string
	Scoring   *app.ScoringService
	Runs      *MemRuns
}

// New trains a small forest on the synthetic catalog inside dir and
// returns the loaded kit. Training goes through the real CSV reader, the
// real artifact stores and the real pipeline, so the kit exercises the
// same seams production does, just on twenty trees instead of two hundred.
func New(dir string) (*Kit, error) {
	ctx := context.Background()
	logger := internal.NewLogger(internal.LogLevelError)
	runs := &MemRuns{}

	catalogPath := filepath.Join(dir, "catalog.csv")
	writer := tabular.NewWriter()
	if err := writer.Write(ctx, catalogPath, Catalog(40, 30, 20)); err != nil {
		return nil, fmt.Errorf("failed to write fixture catalog: %w", err)
	}

	kit := &Kit{
		ModelPath: filepath.Join(dir, "model.gob"),
		StatsPath: filepath.Join(dir, "stats.json"),
		Runs:      runs,
	}

	trainer := app.NewTrainingService(
		tabular.NewReader(), refstats.NewStore(), forest.NewStore(),
		sampling.NewOversampler(42), runs, logger,
	)
	clf := forest.New(forest.Config{Trees: 20, MaxDepth: 10, MinSplit: 5, MinLeaf: 2, Seed: 42})
	summary, err := trainer.Train(ctx, clf, app.TrainRequest{
		InputPath: catalogPath,
		ModelPath: kit.ModelPath,
		StatsPath: kit.StatsPath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to train the fixture model: %w", err)
	}
	kit.Version = summary.Version

	scoring := app.NewScoringService(
		tabular.NewReader(), refstats.NewStore(), forest.NewStore(), runs, logger,
	)
	if err := scoring.Load(ctx, kit.ModelPath, kit.StatsPath); err != nil {
		return nil, fmt.Errorf("failed to load the fixture model: %w", err)
	}
	kit.Scoring = scoring
	return kit, nil
}

// Catalog builds a labeled synthetic catalog with the given class counts.
// Every value sits inside the physical bounds and clear of the outlier
// fences, spread widely enough that the format detector reads natural
// units; identities are unique so deduplication keeps every row.
func Catalog(confirmed, candidate, falsePositive int) *table.Table {
	cols := append([]string{catalog.ColIdentity, catalog.ColLabel}, catalog.DefaultFeatureSpec().All()...)
	tbl := table.New(cols...)

	classes := []struct {
		label string
		count int
		base  map[string]float64
	}{
		{catalog.DispositionConfirmed, confirmed, map[string]float64{
			catalog.ColPeriod: 3.5, catalog.ColDepth: 220, catalog.ColDuration: 2.6,
			catalog.ColPrad: 1.2, catalog.ColTeq: 360, catalog.ColInsol: 45,
			catalog.ColSteff: 4650, catalog.ColSlogg: 4.3, catalog.ColSrad: 0.82,
			catalog.ColModelSNR: 19, catalog.ColImpact: 0.25,
		}},
		{catalog.DispositionCandidate, candidate, map[string]float64{
			catalog.ColPeriod: 14, catalog.ColDepth: 850, catalog.ColDuration: 4.1,
			catalog.ColPrad: 2.5, catalog.ColTeq: 820, catalog.ColInsol: 210,
			catalog.ColSteff: 5450, catalog.ColSlogg: 4.4, catalog.ColSrad: 0.96,
			catalog.ColModelSNR: 48, catalog.ColImpact: 0.5,
		}},
		{catalog.DispositionFalsePositive, falsePositive, map[string]float64{
			catalog.ColPeriod: 50, catalog.ColDepth: 2600, catalog.ColDuration: 6.2,
			catalog.ColPrad: 8.5, catalog.ColTeq: 1550, catalog.ColInsol: 720,
			catalog.ColSteff: 6150, catalog.ColSlogg: 4.5, catalog.ColSrad: 1.2,
			catalog.ColModelSNR: 95, catalog.ColImpact: 0.7,
		}},
	}

	rng := newLCG(7)
	ref := 0
	for _, c := range classes {
		for i := 0; i < c.count; i++ {
			cells := map[string]table.Value{
				catalog.ColIdentity: table.NewTextValue(fmt.Sprintf("K%05d.01", ref)),
				catalog.ColLabel:    table.NewTextValue(c.label),
			}
			for feat, base := range c.base {
				cells[feat] = table.NewNumericValue(base * (1 + 0.08*rng.unit()))
			}
			tbl.AppendRow(table.NewRow(table.Ref(ref), cells))
			ref++
		}
	}
	return tbl
}

// CatalogCSV renders the synthetic catalog as CSV bytes, for upload and
// reader tests.
func CatalogCSV(confirmed, candidate, falsePositive int) ([]byte, error) {
	var buf bytes.Buffer
	writer := tabular.NewWriter()
	if err := writer.WriteTo(context.Background(), &buf, ports.FormatCSV, Catalog(confirmed, candidate, falsePositive)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// lcg is a tiny deterministic generator so fixtures never depend on
// math/rand's global state
type lcg struct{ state uint64 }

func newLCG(seed uint64) *lcg { return &lcg{state: seed} }

// unit returns a value in [0, 1)
func (l *lcg) unit() float64 {
	l.state = l.state*6364136223846793005 + 1442695040888963407
	return float64(l.state>>11) / float64(1<<53)
}

// MemRuns is an in-memory ports.RunRepository for tests
type MemRuns struct {
	Records []models.RunRecord
}

func (m *MemRuns) SaveRun(_ context.Context, rec models.RunRecord) error {
	m.Records = append(m.Records, rec)
	return nil
}

func (m *MemRuns) GetRun(_ context.Context, id core.RunID) (*models.RunRecord, error) {
	for i := range m.Records {
		if m.Records[i].ID == id {
			return &m.Records[i], nil
		}
	}
	return nil, core.ErrRunNotFound
}

// ListRuns returns records newest first
func (m *MemRuns) ListRuns(_ context.Context, filters ports.RunFilters) ([]*models.RunRecord, error) {
	out := make([]*models.RunRecord, 0, len(m.Records))
	for i := len(m.Records) - 1; i >= 0; i-- {
		if filters.Kind != "" && m.Records[i].Kind != filters.Kind {
			continue
		}
		if filters.Limit > 0 && len(out) == filters.Limit {
			break
		}
		out = append(out, &m.Records[i])
	}
	return out, nil
}
