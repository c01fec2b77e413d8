// Package reference holds the frozen training-time facts every pipeline
// run depends on: the statistics artifact persisted next to the model and
// the in-memory snapshot threaded explicitly through every stage. The
// snapshot is constructed once at process start and shared read-only;
// nothing looks statistics up through ambient state.
package reference

import (
	"fmt"

	"transitvet/domain/catalog"
	"transitvet/domain/core"
)

// Statistics is the persisted artifact. It must come from the same
// training run as the model it accompanies; the two are one logical unit.
type Statistics struct {
	Medians     map[string]float64    `json:"medians_pretransform"`
	ValidRanges map[string][2]float64 `json:"valid_ranges"`
	LogFeatures []string              `json:"log_transform_features"`

	// Provenance fields, absent from artifacts produced by older runs.
	Version      string          `json:"artifact_version,omitempty"`
	CreatedAt    *core.Timestamp `json:"created_at,omitempty"`
	TrainingRows int             `json:"training_rows,omitempty"`
}

// Validate rejects structurally broken artifacts. An artifact may
// legitimately lack a median for some feature (the imputer fails open on
// metadata gaps), but an artifact with nothing in it, or with an inverted
// range, cannot drive a run.
func (s Statistics) Validate() error {
	if len(s.Medians) == 0 && len(s.ValidRanges) == 0 && len(s.LogFeatures) == 0 {
		return fmt.Errorf("%w: artifact carries no statistics", core.ErrBadArtifact)
	}
	for feat, pair := range s.ValidRanges {
		if pair[0] > pair[1] {
			return fmt.Errorf("%w: inverted range for %s [%g, %g]", core.ErrBadArtifact, feat, pair[0], pair[1])
		}
	}
	return nil
}

// Snapshot is the immutable bundle of training-time facts the pipeline
// stages take as an explicit argument. Treat it as read-only after
// construction; concurrent runs share one snapshot without locking.
type Snapshot struct {
	Spec        catalog.FeatureSpec
	Labels      catalog.Labels
	Medians     map[string]float64
	Ranges      map[string]catalog.PhysicalRange
	Constraint  catalog.RadiusConstraint
	LogFeatures []string
	Detector    map[string]catalog.DetectorBound
	// Critical is the outlier suppressor's feature set. Both the fit and
	// the apply orchestrations read the same set so the two paths cannot
	// drift apart.
	Critical []string
	Version  string
}

// NewSnapshot builds the inference-time snapshot: catalog policy (bound
// exclusivity, diagnostic units, detector calibration) merged with the
// numeric facts frozen in the artifact. Artifact values win wherever both
// speak, so serving never disagrees with the run the model came from.
func NewSnapshot(stats Statistics) (*Snapshot, error) {
	if err := stats.Validate(); err != nil {
		return nil, err
	}
	snap := FitSnapshot()
	snap.Version = stats.Version

	snap.Medians = make(map[string]float64, len(stats.Medians))
	for k, v := range stats.Medians {
		snap.Medians[k] = v
	}

	for feat, pair := range stats.ValidRanges {
		r, ok := snap.Ranges[feat]
		if !ok {
			r = catalog.PhysicalRange{}
		}
		r.Min, r.Max = pair[0], pair[1]
		snap.Ranges[feat] = r
	}

	if len(stats.LogFeatures) > 0 {
		snap.LogFeatures = make([]string, len(stats.LogFeatures))
		copy(snap.LogFeatures, stats.LogFeatures)
	}
	return snap, nil
}

// FitSnapshot builds the training-time snapshot from catalog defaults
// alone. Medians start empty; the fit orchestration freezes them from the
// training table and they become part of the exported Statistics.
func FitSnapshot() *Snapshot {
	spec := catalog.DefaultFeatureSpec()
	return &Snapshot{
		Spec:        spec,
		Labels:      catalog.DefaultLabels(),
		Medians:     make(map[string]float64),
		Ranges:      catalog.DefaultRanges(),
		Constraint:  catalog.DefaultRadiusConstraint(),
		LogFeatures: catalog.LogTransformFeatures(),
		Detector:    catalog.DefaultDetectorBounds(),
		Critical:    spec.All(),
	}
}

// WithMedians returns a copy of the snapshot carrying the given frozen
// medians. The receiver is not modified.
func (s *Snapshot) WithMedians(medians map[string]float64) *Snapshot {
	out := *s
	out.Medians = make(map[string]float64, len(medians))
	for k, v := range medians {
		out.Medians[k] = v
	}
	return &out
}

// Statistics exports the snapshot's frozen facts as a persistable
// artifact (the inverse of NewSnapshot for the numeric parts).
func (s *Snapshot) Statistics() Statistics {
	stats := Statistics{
		Medians:     make(map[string]float64, len(s.Medians)),
		ValidRanges: make(map[string][2]float64, len(s.Ranges)),
		LogFeatures: make([]string, len(s.LogFeatures)),
		Version:     s.Version,
	}
	for k, v := range s.Medians {
		stats.Medians[k] = v
	}
	for feat, r := range s.Ranges {
		stats.ValidRanges[feat] = [2]float64{r.Min, r.Max}
	}
	copy(stats.LogFeatures, s.LogFeatures)
	return stats
}
