package domain

import "time"

// EscalationDetail is the per-interval breakdown of the hurricane
// escalation window.
type EscalationDetail struct {
	Timestamp      time.Time `json:"timestamp"`
	CountGale      int       `json:"count_ge_gale"`
	CountHurricane int       `json:"count_ge_hurricane"`
	LowWind        bool      `json:"low_wind"`
}

// EscalationTransparency accounts for every interval excluded from tier
// classification by the hurricane window, so escalated periods remain
// auditable. GaleCoverage plus the residual always equals Intervals.
type EscalationTransparency struct {
	Intervals         int                `json:"intervals"`
	GaleCoverage      int                `json:"gale_coverage_intervals"`
	HurricaneCoverage int                `json:"hurricane_coverage_intervals"`
	LowWind           int                `json:"low_wind_intervals"`
	First             time.Time          `json:"first_interval"`
	Last              time.Time          `json:"last_interval"`
	Details           []EscalationDetail `json:"details"`
}

// ReportEscalation summarizes the intervals inside the hurricane window.
// Returns nil when the series has none. Low wind means the area mean is
// present and below the calm threshold.
func ReportEscalation(series []Interval, th Thresholds) *EscalationTransparency {
	var rep *EscalationTransparency
	for i := range series {
		iv := &series[i]
		if !iv.InHurricaneWindow {
			continue
		}
		if rep == nil {
			rep = &EscalationTransparency{First: iv.Timestamp}
		}
		rep.Intervals++
		rep.Last = iv.Timestamp
		if iv.CountGale >= th.MinStationCount {
			rep.GaleCoverage++
		}
		if iv.CountHurricane >= th.MinStationCount {
			rep.HurricaneCoverage++
		}
		low := iv.AreaMeanKmh != nil && *iv.AreaMeanKmh < th.CalmKmh
		if low {
			rep.LowWind++
		}
		rep.Details = append(rep.Details, EscalationDetail{
			Timestamp:      iv.Timestamp,
			CountGale:      iv.CountGale,
			CountHurricane: iv.CountHurricane,
			LowWind:        low,
		})
	}
	return rep
}
