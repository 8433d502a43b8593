package filecache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/couchcryptid/port-traffic-monitor/internal/domain"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 4, 30, 9, 0, 0, 0, time.UTC)

func testVessels() []domain.Vessel {
	eta := testNow.Add(6 * time.Hour)
	return []domain.Vessel{
		{MMSI: 247000001, Name: "ALPHA", ShipType: "Cargo", Destination: "Naples", ETA: &eta, SpeedKnots: 12.5},
		{MMSI: 247000002, Name: "BRAVO", ShipType: "Tanker", Destination: "Naples"},
	}
}

func TestStore_SaveThenLoad(t *testing.T) {
	clock := clockwork.NewFakeClockAt(testNow)
	s := New(t.TempDir(), 5*time.Minute, WithClock(clock))

	require.NoError(t, s.Save("aishub", "Naples", 50, testVessels()))

	got, err := s.Load("aishub", "Naples", 50)
	require.NoError(t, err)
	assert.Equal(t, testVessels(), got)

	_, err = s.Load("aishub", "Naples", 25)
	require.ErrorIs(t, err, ErrUnavailable)
	_, err = s.Load("open_file", "Naples", 50)
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestStore_FileShape(t *testing.T) {
	clock := clockwork.NewFakeClockAt(testNow)
	s := New(t.TempDir(), 0, WithClock(clock))
	require.NoError(t, s.Save("aishub", "Naples", 50, testVessels()))

	path := s.Path("aishub", "Naples", 50)
	assert.Equal(t, "aishub__Naples__50.json", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "aishub", raw["provider"])
	assert.Equal(t, "Naples", raw["port"])
	assert.EqualValues(t, 50, raw["radius"])
	assert.Equal(t, "2024-04-30T09:00:00Z", raw["timestamp"])
	assert.Len(t, raw["vessels"], 2)
}

func TestStore_Expiry(t *testing.T) {
	clock := clockwork.NewFakeClockAt(testNow)
	s := New(t.TempDir(), 5*time.Minute, WithClock(clock))
	require.NoError(t, s.Save("aishub", "Naples", 50, testVessels()))

	clock.Advance(5 * time.Minute)
	_, err := s.Load("aishub", "Naples", 50)
	require.NoError(t, err, "an entry exactly TTL old is still fresh")

	clock.Advance(time.Second)
	_, err = s.Load("aishub", "Naples", 50)
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestStore_LoadSeesFileChangesAfterSave(t *testing.T) {
	tests := []struct {
		name   string
		damage func(t *testing.T, path string)
	}{
		{"overwritten with garbage", func(t *testing.T, path string) {
			require.NoError(t, os.WriteFile(path, []byte("{corrupt"), 0o600))
		}},
		{"deleted", func(t *testing.T, path string) {
			require.NoError(t, os.Remove(path))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(t.TempDir(), time.Minute, WithClock(clockwork.NewFakeClockAt(testNow)))
			require.NoError(t, s.Save("aishub", "Naples", 50, testVessels()))
			_, err := s.Load("aishub", "Naples", 50)
			require.NoError(t, err)

			tt.damage(t, s.Path("aishub", "Naples", 50))

			got, err := s.Load("aishub", "Naples", 50)
			require.ErrorIs(t, err, ErrUnavailable)
			assert.Nil(t, got)
		})
	}
}

func TestStore_UnusableFiles(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"corrupt", `{"vessels": [`},
		{"no timestamp", `{"provider": "aishub", "vessels": []}`},
		{"bad timestamp", `{"timestamp": "yesterday", "vessels": []}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			s := New(dir, time.Hour, WithClock(clockwork.NewFakeClockAt(testNow)))
			require.NoError(t, os.WriteFile(s.Path("aishub", "Naples", 50), []byte(tt.content), 0o600))

			_, err := s.Load("aishub", "Naples", 50)
			require.ErrorIs(t, err, ErrUnavailable)
		})
	}
}

func TestStore_ReadsEntriesWrittenByAnotherProcess(t *testing.T) {
	dir := t.TempDir()
	clock := clockwork.NewFakeClockAt(testNow)
	content := `{"provider": "aishub", "port": "Naples", "radius": 50,
		"timestamp": "2024-04-30T08:58:00Z", "vessels": [{"mmsi": 247000009, "ship_name": "DELTA"}]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "aishub__Naples__50.json"), []byte(content), 0o600))

	got, err := New(dir, 5*time.Minute, WithClock(clock)).Load("aishub", "Naples", 50)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "DELTA", got[0].Name)
}

func TestStore_SanitizesKeys(t *testing.T) {
	s := New(t.TempDir(), time.Minute, WithClock(clockwork.NewFakeClockAt(testNow)))
	require.NoError(t, s.Save("open/http", `Porto\Torres`, 10, nil))

	assert.Equal(t, "open_http__Porto_Torres__10.json", filepath.Base(s.Path("open/http", `Porto\Torres`, 10)))
	got, err := s.Load("open/http", `Porto\Torres`, 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_LastWriterWins(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, time.Minute, WithClock(clockwork.NewFakeClockAt(testNow)))

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Save("aishub", "Naples", 50, []domain.Vessel{{MMSI: int64(i + 1)}}))
		}()
	}
	wg.Wait()

	fresh := New(dir, time.Minute, WithClock(clockwork.NewFakeClockAt(testNow)))
	got, err := fresh.Load("aishub", "Naples", 50)
	require.NoError(t, err)
	require.Len(t, got, 1)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestStore_LoadReturnsCopy(t *testing.T) {
	s := New(t.TempDir(), time.Minute, WithClock(clockwork.NewFakeClockAt(testNow)))
	require.NoError(t, s.Save("aishub", "Naples", 50, testVessels()))

	first, err := s.Load("aishub", "Naples", 50)
	require.NoError(t, err)
	first[0].Name = "CHANGED"

	second, err := s.Load("aishub", "Naples", 50)
	require.NoError(t, err)
	assert.Equal(t, "ALPHA", second[0].Name)
}
