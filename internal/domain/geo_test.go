package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	naples  = Coordinate{Latitude: 40.8394, Longitude: 14.2520}
	salerno = Coordinate{Latitude: 40.6741, Longitude: 14.7697}
)

func TestLookupPort(t *testing.T) {
	c, ok := LookupPort(" NAPLES ")
	require.True(t, ok)
	assert.Equal(t, naples, c)

	_, ok = LookupPort("Atlantis")
	assert.False(t, ok)
}

func TestPortBoundingBox(t *testing.T) {
	box := PortBoundingBox(naples, 50)

	nm := 50 / 1.852
	assert.InDelta(t, naples.Latitude+nm/60, box.LatMax, 1e-9)
	assert.InDelta(t, naples.Latitude-nm/60, box.LatMin, 1e-9)
	assert.InDelta(t, box.LatMax-naples.Latitude, naples.Latitude-box.LatMin, 1e-9)
	assert.Greater(t, box.LonMax-box.LonMin, box.LatMax-box.LatMin)
	assert.Less(t, box.LonMin, naples.Longitude)
	assert.Greater(t, box.LonMax, naples.Longitude)

	north := Coordinate{Latitude: box.LatMax, Longitude: naples.Longitude}
	assert.InDelta(t, 50, DistanceKm(naples, north), 0.5, "half-height matches the radius in kilometres")
}

func TestPortBoundingBox_Edges(t *testing.T) {
	t.Run("non-positive radius uses one kilometer", func(t *testing.T) {
		assert.Equal(t, PortBoundingBox(naples, 1), PortBoundingBox(naples, 0))
	})

	t.Run("pole stays finite", func(t *testing.T) {
		box := PortBoundingBox(Coordinate{Latitude: 90, Longitude: 0}, 50)
		assert.False(t, math.IsInf(box.LonMax, 0))
		assert.False(t, math.IsNaN(box.LonMin))
	})
}

func TestDistanceKm(t *testing.T) {
	assert.InDelta(t, 0, DistanceKm(naples, naples), 1e-9)
	assert.InDelta(t, 47.3, DistanceKm(naples, salerno), 0.1)
	assert.InDelta(t, DistanceKm(naples, salerno), DistanceKm(salerno, naples), 1e-9)
}

func TestComputeStatistics(t *testing.T) {
	vessels := []Vessel{
		{MMSI: 1, ShipType: "Cargo", Latitude: naples.Latitude, Longitude: naples.Longitude, ETA: etaIn(2 * time.Hour)},
		{MMSI: 2, ShipType: "Cargo", Latitude: salerno.Latitude, Longitude: salerno.Longitude, ETA: etaIn(4 * time.Hour)},
		{MMSI: 3, ShipType: "Tanker", ETA: etaIn(-3 * time.Hour)},
		{MMSI: 4, ShipType: "Tanker"},
	}

	t.Run("known port", func(t *testing.T) {
		stats := ComputeStatistics(vessels, "Naples", 40, testNow)

		assert.Equal(t, 4, stats.CurrentVessels)
		assert.Equal(t, map[string]int{"Cargo": 2, "Tanker": 2}, stats.VesselTypes)
		assert.Equal(t, 3.0, stats.AverageETAHours)
		assert.InDelta(t, 23.66, stats.AverageDistanceKm, 0.05)
		assert.Equal(t, 1, stats.WithinRadius)
	})

	t.Run("wider radius", func(t *testing.T) {
		stats := ComputeStatistics(vessels, "naples", 50, testNow)
		assert.Equal(t, 2, stats.WithinRadius)
	})

	t.Run("unknown port has no distances", func(t *testing.T) {
		stats := ComputeStatistics(vessels, "Atlantis", 50, testNow)

		assert.Equal(t, 4, stats.CurrentVessels)
		assert.Zero(t, stats.AverageDistanceKm)
		assert.Zero(t, stats.WithinRadius)
	})

	t.Run("empty", func(t *testing.T) {
		stats := ComputeStatistics(nil, "Naples", 50, testNow)

		assert.Zero(t, stats.CurrentVessels)
		assert.Empty(t, stats.VesselTypes)
		assert.Zero(t, stats.AverageETAHours)
	})
}
