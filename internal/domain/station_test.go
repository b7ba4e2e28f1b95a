package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultReferenceNetwork(t *testing.T) {
	network := DefaultReferenceNetwork()
	require.Len(t, network, 8)

	seen := make(map[string]bool)
	for _, s := range network {
		assert.False(t, seen[s.Name], "duplicate station %s", s.Name)
		seen[s.Name] = true
		assert.InDelta(t, 22.37, s.Latitude, 0.2)
		assert.InDelta(t, 114.1, s.Longitude, 0.25)
	}
	assert.True(t, seen["Cheung Chau"])
	assert.True(t, seen["Ta Kwu Ling"])
}

func TestSummarizeStations(t *testing.T) {
	gust := func(station string, n int, mean, g float64) StationReading {
		r := reading(station, n, mean)
		r.GustKmh = kmh(g)
		return r
	}
	readings := []StationReading{
		gust("Cheung Chau", 0, 80, 110),
		gust("Cheung Chau", 1, 100, 130),
		reading("Kai Tak", 0, 60),
		reading("Kai Tak", 1, 60),
		{Station: "Sha Tin", Timestamp: slot(0), MeanKmh: nil},
	}

	out := SummarizeStations(readings)
	require.Len(t, out, 2, "stations without valid readings are omitted")

	assert.Equal(t, "Cheung Chau", out[0].Station, "sorted by descending mean")
	assert.Equal(t, 2, out[0].Observations)
	assert.InDelta(t, 90, out[0].MeanKmh, 1e-9)
	assert.InDelta(t, 100, out[0].MaxKmh, 1e-9)
	assert.InDelta(t, 130, out[0].MaxGustKmh, 1e-9)

	assert.Equal(t, "Kai Tak", out[1].Station)
	assert.Zero(t, out[1].MaxGustKmh)
}

func TestThresholdsValidate(t *testing.T) {
	mutate := func(f func(*Thresholds)) Thresholds {
		th := DefaultThresholds()
		f(&th)
		return th
	}
	cases := []struct {
		name string
		th   Thresholds
		ok   bool
	}{
		{"defaults", DefaultThresholds(), true},
		{"zero gale", mutate(func(t *Thresholds) { t.GaleKmh = 0 }), false},
		{"hurricane below gale", mutate(func(t *Thresholds) { t.HurricaneKmh = 60 }), false},
		{"calm above gale", mutate(func(t *Thresholds) { t.CalmKmh = 70 }), false},
		{"zero stations", mutate(func(t *Thresholds) { t.MinStationCount = 0 }), false},
		{"zero run", mutate(func(t *Thresholds) { t.MinRunIntervals = 0 }), false},
		{"zero lull", mutate(func(t *Thresholds) { t.MinLullIntervals = 0 }), false},
		{"percentile over one", mutate(func(t *Thresholds) { t.AreaPercentile = 1.5 }), false},
		{"percentile exactly one", mutate(func(t *Thresholds) { t.AreaPercentile = 1 }), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.th.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
