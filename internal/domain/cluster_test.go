package domain

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSizeClass(t *testing.T) {
	tests := []struct {
		length int
		want   string
	}{
		{0, SizeSmall},
		{149, SizeSmall},
		{150, SizeMedium},
		{250, SizeMedium},
		{251, SizeLarge},
		{400, SizeLarge},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SizeClass(tt.length), "length %d", tt.length)
	}
}

func TestClusterByType(t *testing.T) {
	vessels := []Vessel{
		{MMSI: 1, ShipType: "Cargo"},
		{MMSI: 2, ShipType: "Tanker"},
		{MMSI: 3, ShipType: "Cargo"},
		{MMSI: 4},
	}

	got := ClusterByType(vessels)

	assert.Len(t, got, 3)
	assert.Len(t, got["Cargo"], 2)
	assert.Len(t, got["Tanker"], 1)
	assert.Len(t, got[unknown], 1)
}

func TestClusterBySize(t *testing.T) {
	t.Run("all classes present when empty", func(t *testing.T) {
		got := ClusterBySize(nil)

		assert.Len(t, got, 3)
		for _, class := range []string{SizeSmall, SizeMedium, SizeLarge} {
			assert.Contains(t, got, class)
			assert.Empty(t, got[class])
		}
	})

	t.Run("partitions by length", func(t *testing.T) {
		got := ClusterBySize([]Vessel{
			{MMSI: 1, LengthMeters: 90},
			{MMSI: 2, LengthMeters: 200},
			{MMSI: 3, LengthMeters: 300},
			{MMSI: 4, LengthMeters: 320},
		})

		assert.Len(t, got[SizeSmall], 1)
		assert.Len(t, got[SizeMedium], 1)
		assert.Len(t, got[SizeLarge], 2)
	})
}

func TestClusterByArrivalWindow(t *testing.T) {
	vessels := []Vessel{
		{MMSI: 1, ETA: etaIn(13 * time.Hour)},
		{MMSI: 2, ETA: etaIn(1 * time.Hour)},
		{MMSI: 3, ETA: etaIn(5 * time.Hour)},
		{MMSI: 4, ETA: etaIn(7 * time.Hour)},
		{MMSI: 5, ETA: etaIn(-1 * time.Hour)},
		{MMSI: 6},
	}

	clusters, err := ClusterByArrivalWindow(vessels, 6, testNow)
	require.NoError(t, err)

	labels := make([]string, 0, len(clusters))
	for _, c := range clusters {
		labels = append(labels, c.Label)
	}
	assert.Equal(t, []string{"0-6h", "6-12h", "12-18h"}, labels)
	assert.Len(t, clusters[0].Vessels, 2)
	assert.Equal(t, 6, clusters[1].StartHour)
	assert.Equal(t, 12, clusters[1].EndHour)
	assert.Equal(t, int64(1), clusters[2].Vessels[0].MMSI)
}

func TestClusterByArrivalWindow_InvalidWidth(t *testing.T) {
	_, err := ClusterByArrivalWindow(nil, 0, testNow)
	assert.ErrorIs(t, err, ErrInvalidParameters)
}

func TestEstimateOperationalTimes(t *testing.T) {
	vessels := []Vessel{
		{MMSI: 1, Name: "BOX", ShipType: "Container Ship", LengthMeters: 300},
		{MMSI: 2, Name: "FERRY", ShipType: "Passenger Ship", LengthMeters: 100},
		{MMSI: 3, Name: "TRAWLER", ShipType: "Fishing", LengthMeters: 200},
		{MMSI: 4, Name: "ORE", ShipType: "Bulk Carrier", LengthMeters: 200},
		{MMSI: 5, Name: "OIL", ShipType: "Oil Tanker", LengthMeters: 140},
		{MMSI: 6, Name: "GENERAL", ShipType: "Cargo", LengthMeters: 180},
	}

	got := EstimateOperationalTimes(vessels)

	wantHours := []float64{31.2, 6.4, 16, 22, 16, 18}
	wantDays := []float64{1.3, 0.3, 0.7, 0.9, 0.7, 0.8}
	require.Len(t, got, len(vessels))
	for i, e := range got {
		assert.Equal(t, vessels[i].MMSI, e.MMSI)
		assert.Equal(t, vessels[i].Name, e.VesselName)
		assert.InDelta(t, wantHours[i], e.Hours, 1e-9, e.ShipType)
		assert.InDelta(t, wantDays[i], e.Days, 1e-9, e.ShipType)
		assert.Equal(t, 0.75, e.Confidence)
		assert.Equal(t, vessels[i].LengthMeters, e.Length)
	}
}

func TestSummarizeClusters(t *testing.T) {
	vessels := []Vessel{
		{MMSI: 1, ShipType: "Cargo", LengthMeters: 120, ETA: etaIn(2 * time.Hour)},
		{MMSI: 2, ShipType: "Cargo", LengthMeters: 200, ETA: etaIn(8 * time.Hour)},
		{MMSI: 3, ShipType: "Tanker", LengthMeters: 280, ETA: etaIn(3 * time.Hour)},
	}

	got := SummarizeClusters(vessels, testNow)

	assert.Equal(t, 3, got.TotalVessels)
	if diff := cmp.Diff(map[string]int{"Cargo": 2, "Tanker": 1}, got.ByType); diff != "" {
		t.Errorf("by type mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]int{SizeSmall: 1, SizeMedium: 1, SizeLarge: 1}, got.BySize); diff != "" {
		t.Errorf("by size mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]int{"0-6h": 2, "6-12h": 1}, got.ByArrivalWindow); diff != "" {
		t.Errorf("by arrival window mismatch (-want +got):\n%s", diff)
	}
	assert.Len(t, got.OperationalEstimates, 3)
}
