package pipeline_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/port-traffic-monitor/internal/adapter/filecache"
	"github.com/couchcryptid/port-traffic-monitor/internal/domain"
	"github.com/couchcryptid/port-traffic-monitor/internal/observability"
	"github.com/couchcryptid/port-traffic-monitor/internal/pipeline"
	"github.com/couchcryptid/port-traffic-monitor/internal/provider"
	"github.com/couchcryptid/port-traffic-monitor/internal/resilience"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMonitor_WithMockAISFile runs the fixture export through the file
// provider, the resilience client and the monitor, then removes the file to
// check that the next run is served from the cache.
func TestMonitor_WithMockAISFile(t *testing.T) {
	withFixedClock(t)

	dataFile := copyFixture(t, "naples_ais.json")
	files, err := provider.NewOpenFile(provider.OpenFileConfig{Path: dataFile})
	require.NoError(t, err)

	cache := filecache.New(t.TempDir(), 5*time.Minute, filecache.WithClock(clockwork.NewFakeClockAt(testNow)))
	client := resilience.New(
		resilience.WithPrimary(files),
		resilience.WithSimulated(provider.NewSimulated(provider.SimulatedConfig{Seed: 1})),
		resilience.WithCache(cache),
	)

	opts := testOptions("Naples")
	opts.SeriesProjections = true
	m, err := pipeline.New(client, nil, opts, discardLogger(), observability.NewMetricsForTesting())
	require.NoError(t, err)

	run := m.MonitorAll(context.Background())
	require.Len(t, run.Ports, 1)
	report := run.Ports[0].Report
	require.NotNil(t, report, run.Ports[0].Error)

	assert.Equal(t, "provider", report.Source)
	require.Len(t, report.Vessels, 5, "the record without an MMSI is dropped")

	byName := make(map[string]domain.Vessel, len(report.Vessels))
	for _, v := range report.Vessels {
		byName[v.Name] = v
	}

	express := byName["TYRRHENIAN EXPRESS"]
	assert.Equal(t, "NAPLES", express.Destination)
	assert.Equal(t, 294, express.LengthMeters)
	assert.Equal(t, 40, express.WidthMeters)
	require.NotNil(t, express.ETA)
	assert.Equal(t, time.Date(2024, 4, 30, 14, 0, 0, 0, time.UTC), *express.ETA)

	queen := byName["ADRIATIC QUEEN"]
	assert.Equal(t, "Naples", queen.Destination)
	assert.Equal(t, 1, queen.CourseDegrees)

	assert.Equal(t, 350, byName["BLUE WAVE"].CourseDegrees)
	assert.Equal(t, 12.0, byName["BLUE WAVE"].SpeedKnots)
	assert.Nil(t, byName["SEA SPIRIT"].ETA)

	assert.Equal(t, map[string]int{"small": 2, "medium": 2, "large": 1}, report.ClusterSummary.BySize)
	assert.Equal(t, 1, report.Statistics.VesselTypes["Tanker"])
	require.NotNil(t, report.SeriesProjection)

	// SEA SPIRIT has no declared ETA: 24h default, moored and stationary.
	for _, p := range report.Predictions {
		if p.VesselName == "SEA SPIRIT" {
			assert.InDelta(t, 1.45, p.CorrectionFactor, 1e-9)
			assert.InDelta(t, 34.8, p.HoursToArrival, 1e-9)
		}
	}

	require.NoError(t, os.Remove(dataFile))

	second := m.MonitorAll(context.Background())
	require.NotNil(t, second.Ports[0].Report)
	assert.Equal(t, "cache", second.Ports[0].Report.Source)
	assert.Len(t, second.Ports[0].Report.Vessels, 5)
	assert.NotEqual(t, run.ID, second.ID)
}

func copyFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}
