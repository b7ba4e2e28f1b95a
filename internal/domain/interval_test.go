package domain

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, 9, 23, 14, 0, 0, 0, time.UTC)

func slot(n int) time.Time { return base.Add(time.Duration(n) * IntervalCadence) }

func kmh(v float64) *float64 { return &v }

func reading(station string, n int, mean float64) StationReading {
	return StationReading{Station: station, Timestamp: slot(n), MeanKmh: kmh(mean)}
}

func TestAggregateReadings(t *testing.T) {
	th := DefaultThresholds()
	network := DefaultReferenceNetwork()

	t.Run("counts coverage over reference stations only", func(t *testing.T) {
		readings := []StationReading{
			reading("Cheung Chau", 0, 85),
			reading("Tsing Yi", 0, 70),
			reading("Kai Tak", 0, 63),
			reading("Waglan Island", 0, 120), // not in the reference network
			reading("Sha Tin", 0, 40),
		}
		series := AggregateReadings(readings, network, th)
		require.Len(t, series, 1)

		iv := series[0]
		assert.Equal(t, 3, iv.CountGale)
		assert.Equal(t, 0, iv.CountHurricane)
		assert.Equal(t, 5, iv.ValidReadings)
		assert.Len(t, iv.Stations, 4)
	})

	t.Run("area statistics include off-network stations", func(t *testing.T) {
		readings := []StationReading{
			reading("Cheung Chau", 0, 60),
			reading("Waglan Island", 0, 100),
		}
		series := AggregateReadings(readings, network, th)
		require.Len(t, series, 1)
		require.NotNil(t, series[0].AreaMeanKmh)
		assert.InDelta(t, 80.0, *series[0].AreaMeanKmh, 1e-9)
	})

	t.Run("threshold boundary is inclusive", func(t *testing.T) {
		readings := []StationReading{
			reading("Cheung Chau", 0, 63),
			reading("Kai Tak", 0, 62.9),
			reading("Tsing Yi", 0, 118),
		}
		series := AggregateReadings(readings, network, th)
		require.Len(t, series, 1)
		assert.Equal(t, 2, series[0].CountGale)
		assert.Equal(t, 1, series[0].CountHurricane)
	})

	t.Run("drops readings without a speed", func(t *testing.T) {
		readings := []StationReading{
			{Station: "Cheung Chau", Timestamp: slot(0), MeanKmh: nil},
			reading("Kai Tak", 0, 50),
		}
		series := AggregateReadings(readings, network, th)
		require.Len(t, series, 1)
		assert.Equal(t, 1, series[0].ValidReadings)
		assert.Len(t, series[0].Stations, 1)
	})

	t.Run("interval with no valid readings has nil area stats", func(t *testing.T) {
		readings := []StationReading{
			{Station: "Cheung Chau", Timestamp: slot(0), MeanKmh: nil},
		}
		series := AggregateReadings(readings, network, th)
		require.Len(t, series, 1)
		assert.Zero(t, series[0].ValidReadings)
		assert.Nil(t, series[0].AreaMeanKmh)
		assert.Nil(t, series[0].AreaPercentileKmh)
		assert.Equal(t, SignalBelowGale, series[0].RecommendedSignal)
	})

	t.Run("output is chronological and independent of input order", func(t *testing.T) {
		ordered := []StationReading{
			reading("Cheung Chau", 0, 70),
			reading("Kai Tak", 0, 65),
			reading("Cheung Chau", 1, 72),
			reading("Kai Tak", 1, 66),
		}
		shuffled := []StationReading{ordered[3], ordered[0], ordered[2], ordered[1]}

		a := AggregateReadings(ordered, network, th)
		b := AggregateReadings(shuffled, network, th)
		require.Len(t, a, 2)
		assert.True(t, a[0].Timestamp.Before(a[1].Timestamp))
		assert.Empty(t, cmp.Diff(a, b))
	})

	t.Run("recommended signal follows coverage", func(t *testing.T) {
		mk := func(n int, speed float64) []StationReading {
			names := []string{"Cheung Chau", "Kai Tak", "Tsing Yi", "Sha Tin", "Sai Kung"}
			var out []StationReading
			for _, name := range names[:n] {
				out = append(out, reading(name, 0, speed))
			}
			return out
		}

		cases := []struct {
			name string
			in   []StationReading
			want string
		}{
			{"four stations at gale", mk(4, 70), SignalGale},
			{"three stations at gale", mk(3, 70), SignalBelowGale},
			{"four stations at hurricane", mk(4, 120), SignalHurricane},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				series := AggregateReadings(tc.in, network, th)
				require.Len(t, series, 1)
				assert.Equal(t, tc.want, series[0].RecommendedSignal)
			})
		}
	})
}

func TestPercentile(t *testing.T) {
	cases := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"single value", []float64{42}, 0.90, 42},
		{"exact rank", []float64{10, 20, 30}, 0.50, 20},
		{"interpolated", []float64{10, 20}, 0.90, 19},
		{"p90 of ten", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.90, 9.1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, percentile(tc.sorted, tc.p), 1e-9)
		})
	}
}
