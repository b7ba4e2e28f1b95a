package domain

import (
	"math"
	"sort"
	"time"
)

// IntervalCadence is the native spacing of the observation series.
const IntervalCadence = 10 * time.Minute

// Recommended signal labels, derived from reference-network coverage.
// They are presentational only; tier classification works from the raw
// coverage counts.
const (
	SignalBelowGale = "below_gale"
	SignalGale      = "gale"
	SignalHurricane = "hurricane"
)

// StationSpeed is one valid reference-station speed within an interval.
type StationSpeed struct {
	Station string  `json:"station"`
	MeanKmh float64 `json:"mean_kmh"`
}

// Interval is one 10-minute slot of the aggregated event series.
// Stations lists the valid reference-network readings sorted by name;
// the area statistics cover all valid readings regardless of network
// membership and are nil when the slot has none.
type Interval struct {
	Timestamp         time.Time      `json:"timestamp"`
	Stations          []StationSpeed `json:"stations"`
	ValidReadings     int            `json:"valid_readings"`
	CountGale         int            `json:"count_ge_gale"`
	CountHurricane    int            `json:"count_ge_hurricane"`
	AreaMeanKmh       *float64       `json:"area_mean_kmh"`
	AreaPercentileKmh *float64       `json:"area_percentile_kmh"`
	RecommendedSignal string         `json:"recommended_signal"`

	// Window annotation, set by AnnotateWindows.
	InGaleWindow      bool `json:"in_gale_window"`
	InHurricaneWindow bool `json:"in_hurricane_window"`

	// Persistence derivation, set by DetectPersistence.
	Qualifying bool `json:"qualifying"`
	RunLength  int  `json:"run_length"`
}

// AggregateReadings folds raw station readings into a chronologically
// ordered interval series. Readings without a usable mean speed do not
// contribute; coverage counts consider only stations in network while
// the area statistics take every valid reading. The output is
// deterministic for any input ordering.
func AggregateReadings(readings []StationReading, network []Station, th Thresholds) []Interval {
	inNetwork := make(map[string]bool, len(network))
	for _, s := range network {
		inNetwork[s.Name] = true
	}

	byTime := make(map[time.Time][]StationReading)
	for _, r := range readings {
		byTime[r.Timestamp] = append(byTime[r.Timestamp], r)
	}

	stamps := make([]time.Time, 0, len(byTime))
	for ts := range byTime {
		stamps = append(stamps, ts)
	}
	sort.Slice(stamps, func(i, j int) bool { return stamps[i].Before(stamps[j]) })

	series := make([]Interval, 0, len(stamps))
	for _, ts := range stamps {
		iv := Interval{Timestamp: ts}
		all := make([]float64, 0, len(byTime[ts]))
		for _, r := range byTime[ts] {
			if r.MeanKmh == nil {
				continue
			}
			speed := *r.MeanKmh
			all = append(all, speed)
			if !inNetwork[r.Station] {
				continue
			}
			iv.Stations = append(iv.Stations, StationSpeed{Station: r.Station, MeanKmh: speed})
			if speed >= th.GaleKmh {
				iv.CountGale++
			}
			if speed >= th.HurricaneKmh {
				iv.CountHurricane++
			}
		}
		sort.Slice(iv.Stations, func(i, j int) bool { return iv.Stations[i].Station < iv.Stations[j].Station })

		iv.ValidReadings = len(all)
		if len(all) > 0 {
			sort.Float64s(all)
			mean := meanOf(all)
			pct := percentile(all, th.AreaPercentile)
			iv.AreaMeanKmh = &mean
			iv.AreaPercentileKmh = &pct
		}
		iv.RecommendedSignal = recommendSignal(iv.CountGale, iv.CountHurricane, th.MinStationCount)
		series = append(series, iv)
	}
	return series
}

// recommendSignal labels an interval with the highest signal whose
// coverage requirement its counts satisfy.
func recommendSignal(countGale, countHurricane, minStations int) string {
	switch {
	case countHurricane >= minStations:
		return SignalHurricane
	case countGale >= minStations:
		return SignalGale
	default:
		return SignalBelowGale
	}
}

func meanOf(vals []float64) float64 {
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// percentile interpolates linearly between closest ranks over an
// ascending-sorted slice. p is a fraction in (0, 1].
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
