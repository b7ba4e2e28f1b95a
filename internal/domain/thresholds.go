package domain

import "fmt"

// Thresholds holds the tunable parameters of the classification engine.
// The zero value is not usable; start from DefaultThresholds.
type Thresholds struct {
	// GaleKmh is the sustained-wind floor for gale force, the lower
	// bound of a Signal 8 condition.
	GaleKmh float64 `json:"gale_kmh" yaml:"gale_kmh"`
	// HurricaneKmh is the sustained-wind floor for hurricane force,
	// the lower bound of a Signal 10 condition.
	HurricaneKmh float64 `json:"hurricane_kmh" yaml:"hurricane_kmh"`
	// MinStationCount is the reference-station coverage needed for an
	// interval to count toward verification.
	MinStationCount int `json:"min_station_count" yaml:"min_station_count"`
	// MinRunIntervals is the shortest qualifying run accepted as
	// sustained persistence.
	MinRunIntervals int `json:"min_run_intervals" yaml:"min_run_intervals"`
	// MinLullIntervals is the shortest gap accepted between the two
	// meets of an eyewall-style pattern.
	MinLullIntervals int `json:"min_lull_intervals" yaml:"min_lull_intervals"`
	// CalmKmh marks an interval as low wind when its area mean falls
	// below it, used by the escalation transparency report.
	CalmKmh float64 `json:"calm_kmh" yaml:"calm_kmh"`
	// AreaPercentile is the upper percentile reported alongside the
	// area mean, in [0, 1].
	AreaPercentile float64 `json:"area_percentile" yaml:"area_percentile"`
}

// DefaultThresholds returns the operational parameters: gale 63 km/h,
// hurricane 118 km/h, 4-of-8 station coverage, 3-interval (~30 min)
// runs, 2-interval lulls, 22 km/h calm floor, 90th percentile.
func DefaultThresholds() Thresholds {
	return Thresholds{
		GaleKmh:          63,
		HurricaneKmh:     118,
		MinStationCount:  4,
		MinRunIntervals:  3,
		MinLullIntervals: 2,
		CalmKmh:          22,
		AreaPercentile:   0.90,
	}
}

// Validate rejects parameter sets that would make classification
// meaningless.
func (t Thresholds) Validate() error {
	if t.GaleKmh <= 0 {
		return fmt.Errorf("gale threshold must be positive, got %.1f", t.GaleKmh)
	}
	if t.HurricaneKmh <= t.GaleKmh {
		return fmt.Errorf("hurricane threshold %.1f must exceed gale threshold %.1f", t.HurricaneKmh, t.GaleKmh)
	}
	if t.CalmKmh < 0 || t.CalmKmh >= t.GaleKmh {
		return fmt.Errorf("calm threshold %.1f must be in [0, %.1f)", t.CalmKmh, t.GaleKmh)
	}
	if t.MinStationCount < 1 {
		return fmt.Errorf("min station count must be at least 1, got %d", t.MinStationCount)
	}
	if t.MinRunIntervals < 1 {
		return fmt.Errorf("min run length must be at least 1, got %d", t.MinRunIntervals)
	}
	if t.MinLullIntervals < 1 {
		return fmt.Errorf("min lull length must be at least 1, got %d", t.MinLullIntervals)
	}
	if t.AreaPercentile <= 0 || t.AreaPercentile > 1 {
		return fmt.Errorf("area percentile must be in (0, 1], got %.2f", t.AreaPercentile)
	}
	return nil
}
