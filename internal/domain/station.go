package domain

import (
	"sort"
	"time"
)

// Station describes one anemometer site in the reference network.
type Station struct {
	Name       string  `json:"name" yaml:"name"`
	Latitude   float64 `json:"latitude" yaml:"latitude"`
	Longitude  float64 `json:"longitude" yaml:"longitude"`
	ElevationM float64 `json:"elevation_m" yaml:"elevation_m"`
}

// StationReading is a single 10-minute observation from one station.
// MeanKmh is nil when the station reported no usable speed for the
// interval; such readings are excluded from aggregation.
type StationReading struct {
	Station   string    `json:"station"`
	Timestamp time.Time `json:"timestamp"`
	MeanKmh   *float64  `json:"mean_kmh"`
	GustKmh   *float64  `json:"gust_kmh,omitempty"`
}

// DefaultReferenceNetwork returns the eight reference anemometer stations
// used by the Hong Kong Observatory for tropical cyclone warning signals
// since 2007.
func DefaultReferenceNetwork() []Station {
	return []Station{
		{Name: "Chek Lap Kok", Latitude: 22.3094, Longitude: 113.9219, ElevationM: 14},
		{Name: "Cheung Chau", Latitude: 22.2011, Longitude: 114.0267, ElevationM: 72},
		{Name: "Kai Tak", Latitude: 22.3097, Longitude: 114.2127, ElevationM: 16},
		{Name: "Lau Fau Shan", Latitude: 22.4689, Longitude: 113.9836, ElevationM: 31},
		{Name: "Sai Kung", Latitude: 22.3756, Longitude: 114.2744, ElevationM: 4},
		{Name: "Sha Tin", Latitude: 22.4025, Longitude: 114.2100, ElevationM: 6},
		{Name: "Ta Kwu Ling", Latitude: 22.5286, Longitude: 114.1567, ElevationM: 15},
		{Name: "Tsing Yi", Latitude: 22.3441, Longitude: 114.1100, ElevationM: 26},
	}
}

// StationSummary aggregates one station's readings across a whole event.
type StationSummary struct {
	Station      string  `json:"station"`
	Observations int     `json:"observations"`
	MeanKmh      float64 `json:"mean_kmh"`
	P90Kmh       float64 `json:"p90_kmh"`
	MaxKmh       float64 `json:"max_kmh"`
	MaxGustKmh   float64 `json:"max_gust_kmh,omitempty"`
}

// SummarizeStations computes per-station wind statistics over all valid
// readings, sorted by descending mean speed with name as tiebreak.
func SummarizeStations(readings []StationReading) []StationSummary {
	speeds := make(map[string][]float64)
	gusts := make(map[string]float64)
	for _, r := range readings {
		if r.MeanKmh == nil {
			continue
		}
		speeds[r.Station] = append(speeds[r.Station], *r.MeanKmh)
		if r.GustKmh != nil && *r.GustKmh > gusts[r.Station] {
			gusts[r.Station] = *r.GustKmh
		}
	}

	out := make([]StationSummary, 0, len(speeds))
	for name, vals := range speeds {
		sort.Float64s(vals)
		var sum float64
		for _, v := range vals {
			sum += v
		}
		out = append(out, StationSummary{
			Station:      name,
			Observations: len(vals),
			MeanKmh:      sum / float64(len(vals)),
			P90Kmh:       percentile(vals, 0.90),
			MaxKmh:       vals[len(vals)-1],
			MaxGustKmh:   gusts[name],
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MeanKmh != out[j].MeanKmh {
			return out[i].MeanKmh > out[j].MeanKmh
		}
		return out[i].Station < out[j].Station
	})
	return out
}
