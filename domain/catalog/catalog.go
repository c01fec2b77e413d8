// Package catalog fixes the Kepler Objects of Interest vocabulary the
// pipeline is built around: canonical column names, the required/optional
// feature split, physical plausibility bounds, the log-transform set, and
// the calibrated windows the format detector votes with. Values here are
// training-time defaults; at inference the frozen statistics artifact
// overrides the numeric bounds so serving and training never disagree.
package catalog

import "fmt"

// Canonical column names
const (
	ColPeriod       = "koi_period"
	ColDepth        = "koi_depth"
	ColDuration     = "koi_duration"
	ColPrad         = "koi_prad"
	ColTeq          = "koi_teq"
	ColInsol        = "koi_insol"
	ColSteff        = "koi_steff"
	ColSlogg        = "koi_slogg"
	ColSrad         = "koi_srad"
	ColModelSNR     = "koi_model_snr"
	ColImpact       = "koi_impact"
	ColScore        = "koi_score"
	ColPdisposition = "koi_pdisposition"
	ColIdentity     = "kepoi_name"
	ColLabel        = "koi_disposition"
)

// SunEarthRadiusRatio converts solar radii to Earth radii.
const SunEarthRadiusRatio = 109.1

// OutlierIQRMultiplier is deliberately far looser than the boxplot 1.5:
// the suppressor exists to catch data-entry-scale errors and transform
// artifacts, not to do statistical outlier removal.
const OutlierIQRMultiplier = 5.0

// FeatureSpec fixes the ordered required and optional feature sets.
// A row missing any required feature is rejected; missing optional
// features are imputed. The final output column order is required
// followed by optional, filtered to columns actually present.
type FeatureSpec struct {
	Required []string `json:"required"`
	Optional []string `json:"optional"`
}

// DefaultFeatureSpec returns the model's eleven-feature contract
func DefaultFeatureSpec() FeatureSpec {
	return FeatureSpec{
		Required: []string{ColPeriod, ColDepth, ColDuration, ColPrad},
		Optional: []string{ColTeq, ColInsol, ColSteff, ColSlogg, ColSrad, ColModelSNR, ColImpact},
	}
}

// All returns required followed by optional, in contract order
func (s FeatureSpec) All() []string {
	out := make([]string, 0, len(s.Required)+len(s.Optional))
	out = append(out, s.Required...)
	return append(out, s.Optional...)
}

// Validate checks the required/optional disjointness invariant
func (s FeatureSpec) Validate() error {
	seen := make(map[string]bool, len(s.Required))
	for _, f := range s.Required {
		if seen[f] {
			return fmt.Errorf("feature %s listed twice in required set", f)
		}
		seen[f] = true
	}
	for _, f := range s.Optional {
		if seen[f] {
			return fmt.Errorf("feature %s in both required and optional sets", f)
		}
		seen[f] = true
	}
	return nil
}

// LeakageFeatures are columns that encode the ground-truth label by proxy
// and must never reach the model. koi_score is the archive's disposition
// confidence; koi_pdisposition is the preliminary disposition itself.
func LeakageFeatures() []string {
	return []string{ColScore, ColPdisposition}
}

// LogTransformFeatures is the ordered set of heavy-tailed features that
// get the log10 magnitude transform.
func LogTransformFeatures() []string {
	return []string{ColPeriod, ColDepth, ColPrad, ColInsol, ColSrad, ColModelSNR}
}

// PhysicalRange is a per-feature plausibility bound. MinExclusive selects
// a strict lower comparison (the period bound is open at the Roche limit);
// uppers are always inclusive. Suffix is the unit shown in row diagnostics.
type PhysicalRange struct {
	Min          float64
	Max          float64
	MinExclusive bool
	Suffix       string
}

// Contains reports whether v is physically plausible for this range
func (r PhysicalRange) Contains(v float64) bool {
	if r.MinExclusive {
		if v <= r.Min {
			return false
		}
	} else if v < r.Min {
		return false
	}
	return v <= r.Max
}

// Reason builds the row diagnostic for a value outside this range
func (r PhysicalRange) Reason(feature string) string {
	msg := fmt.Sprintf("%s out of range [%g, %g]", feature, r.Min, r.Max)
	if r.Suffix != "" {
		msg += " " + r.Suffix
	}
	return msg
}

// DefaultRanges returns the mission-derived plausibility bounds:
// period (0.2, 730] days (Roche limit to twice the mission design window),
// planet radius [0.5, 30] Earth radii, transit depth [10, 100000] ppm,
// equilibrium temperature [100, 3000] K.
func DefaultRanges() map[string]PhysicalRange {
	return map[string]PhysicalRange{
		ColPeriod: {Min: 0.2, Max: 730, MinExclusive: true},
		ColPrad:   {Min: 0.5, Max: 30, Suffix: "R_earth"},
		ColDepth:  {Min: 10, Max: 100000, Suffix: "ppm"},
		ColTeq:    {Min: 100, Max: 3000, Suffix: "K"},
	}
}

// RangeOrder fixes the sequence range checks run in, so the diagnostics
// a rejected batch produces are stable across runs. Ranged features not
// listed here are checked after these, in name order.
func RangeOrder() []string {
	return []string{ColPeriod, ColPrad, ColDepth, ColTeq}
}

// RadiusConstraint is the one cross-feature check: a planet cannot be
// larger than its star. Evaluated only when both columns hold values;
// absence of either skips the check rather than failing it.
type RadiusConstraint struct {
	Planet string
	Star   string
	Ratio  float64
}

// DefaultRadiusConstraint returns koi_prad <= koi_srad * 109.1
func DefaultRadiusConstraint() RadiusConstraint {
	return RadiusConstraint{Planet: ColPrad, Star: ColSrad, Ratio: SunEarthRadiusRatio}
}

// Holds reports whether the constraint is satisfied for the given values
func (c RadiusConstraint) Holds(planet, star float64) bool {
	return planet <= star*c.Ratio
}

// Reason is the row diagnostic for a violated radius constraint
func (c RadiusConstraint) Reason() string {
	return fmt.Sprintf("%s > %s (planet larger than star)", c.Planet, c.Star)
}

// DetectorBound is the calibrated log-scale window for one feature. The
// windows are intentionally wider than the true log ranges so marginal
// natural-unit values never false-positive as transformed; a feature votes
// "transformed" only when its observed min and max both fall inside.
type DetectorBound struct {
	Min float64
	Max float64
}

// Inside reports whether the observed [min,max] falls within the window
func (b DetectorBound) Inside(min, max float64) bool {
	return min >= b.Min && max <= b.Max
}

// DefaultDetectorBounds returns the calibrated windows per log feature.
// True log10 spans for reference: period [-0.7, 2.86], depth [1, 5],
// prad [-0.3, 1.48], insol [-1.5, 3], srad [-0.5, 0.48], snr [-1, 4].
func DefaultDetectorBounds() map[string]DetectorBound {
	return map[string]DetectorBound{
		ColPeriod:   {Min: -1.5, Max: 3.5},
		ColDepth:    {Min: 0.0, Max: 6.0},
		ColPrad:     {Min: -1.0, Max: 2.5},
		ColInsol:    {Min: -2.0, Max: 4.0},
		ColSrad:     {Min: -1.0, Max: 1.5},
		ColModelSNR: {Min: -2.0, Max: 5.0},
	}
}
