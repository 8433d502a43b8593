// Command validate checks AIS data files the way the open_file provider reads
// them. Each file is parsed raw and through the normalizer, and the two are
// compared: dropped records, coordinate and course ranges, ETA parsing, and
// consistency across files describing the same port.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -port Naples \
//	  data/mock/naples_ais.json data/mock/naples_ais.geojson data/mock/naples_ais.csv
package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/couchcryptid/port-traffic-monitor/internal/domain"
	"github.com/couchcryptid/port-traffic-monitor/internal/provider"
	"github.com/jonboulle/clockwork"
)

// Matches genmock so relative ETAs resolve identically.
var baseTime = time.Date(2024, time.April, 30, 9, 0, 0, 0, time.UTC)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// dataset is one file read both raw and normalized.
type dataset struct {
	path    string
	raw     int
	vessels []domain.Vessel
}

func main() {
	port := flag.String("port", "Naples", "port the files describe")
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*port, flag.Args()); code != 0 {
		os.Exit(code)
	}
}

func run(port string, paths []string) int {
	domain.SetClock(clockwork.NewFakeClockAt(baseTime))
	defer domain.SetClock(nil)

	fmt.Println("=== AIS Data Validation ===")
	fmt.Println()

	sets := make([]dataset, 0, len(paths))
	for _, path := range paths {
		ds, err := load(path, port)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: %s: %v\n", path, err)
			return 1
		}
		fmt.Printf("  %-42s %d raw, %d normalized\n", filepath.Base(path), ds.raw, len(ds.vessels))
		sets = append(sets, ds)
	}

	phases := []*phase{
		validateCompleteness(sets),
		validateRanges(sets),
		validateETAs(sets),
		validateConsistency(sets),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Data loading ──

func load(path, port string) (dataset, error) {
	raw, err := countRaw(path)
	if err != nil {
		return dataset{}, err
	}
	p, err := provider.NewOpenFile(provider.OpenFileConfig{Path: path})
	if err != nil {
		return dataset{}, err
	}
	vessels, err := p.FetchVessels(context.Background(), port, 50)
	if err != nil {
		return dataset{}, err
	}
	return dataset{path: path, raw: raw, vessels: vessels}, nil
}

// countRaw counts the records in a file without normalizing them.
func countRaw(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		r := csv.NewReader(bytes.NewReader(data))
		r.FieldsPerRecord = -1
		rows, err := r.ReadAll()
		if err != nil {
			return 0, err
		}
		return max(len(rows)-1, 0), nil
	case ".json", ".geojson":
		var payload any
		if err := json.Unmarshal(data, &payload); err != nil {
			return 0, err
		}
		switch t := payload.(type) {
		case []any:
			return len(t), nil
		case map[string]any:
			for _, key := range []string{"features", "data"} {
				if list, ok := t[key].([]any); ok {
					return len(list), nil
				}
			}
		}
		return 0, errors.New("expected a list, a feature collection or a data object")
	default:
		return 0, fmt.Errorf("unsupported extension %q", filepath.Ext(path))
	}
}

// ── Phases ──

func validateCompleteness(sets []dataset) *phase {
	p := &phase{name: "Phase 1: Record Completeness"}
	for _, ds := range sets {
		if len(ds.vessels) != ds.raw {
			p.errorf("%s: %d of %d records dropped by normalization", ds.path, ds.raw-len(ds.vessels), ds.raw)
		}
		seen := make(map[int64]bool, len(ds.vessels))
		for _, v := range ds.vessels {
			if seen[v.MMSI] {
				p.errorf("%s: duplicate MMSI %d", ds.path, v.MMSI)
			}
			seen[v.MMSI] = true
			if v.Name == "" || v.ShipType == "" || v.Destination == "" {
				p.errorf("%s: MMSI %d has empty descriptive fields", ds.path, v.MMSI)
			}
		}
	}
	return p
}

func validateRanges(sets []dataset) *phase {
	p := &phase{name: "Phase 2: Value Ranges"}
	for _, ds := range sets {
		for _, v := range ds.vessels {
			if v.Latitude < -90 || v.Latitude > 90 || v.Longitude < -180 || v.Longitude > 180 {
				p.errorf("%s: MMSI %d position out of range (%g, %g)", ds.path, v.MMSI, v.Latitude, v.Longitude)
			}
			if v.CourseDegrees < 0 || v.CourseDegrees >= 360 {
				p.errorf("%s: MMSI %d course %d outside [0,360)", ds.path, v.MMSI, v.CourseDegrees)
			}
			if v.SpeedKnots < 0 {
				p.errorf("%s: MMSI %d negative speed %g", ds.path, v.MMSI, v.SpeedKnots)
			}
			if v.LengthMeters < 0 || v.WidthMeters < 0 || v.DraughtMeters < 0 {
				p.errorf("%s: MMSI %d negative dimensions", ds.path, v.MMSI)
			}
		}
	}
	return p
}

func validateETAs(sets []dataset) *phase {
	p := &phase{name: "Phase 3: ETA Parsing"}
	now := domain.Now()
	for _, ds := range sets {
		for _, v := range ds.vessels {
			if v.ETA == nil {
				continue
			}
			if v.ETA.Before(now.AddDate(0, 0, -30)) || v.ETA.After(now.AddDate(0, 0, 60)) {
				p.errorf("%s: MMSI %d ETA %s implausibly far from %s",
					ds.path, v.MMSI, v.ETA.Format(time.RFC3339), now.Format(time.RFC3339))
			}
		}
	}
	return p
}

// validateConsistency compares every file against the first one by MMSI.
func validateConsistency(sets []dataset) *phase {
	p := &phase{name: "Phase 4: Cross-File Consistency"}
	if len(sets) < 2 {
		return p
	}

	ref := index(sets[0].vessels)
	refKeys := sortedKeys(ref)
	for _, ds := range sets[1:] {
		other := index(ds.vessels)
		if !slices.Equal(refKeys, sortedKeys(other)) {
			p.errorf("%s: MMSI set differs from %s", ds.path, sets[0].path)
			continue
		}
		for _, mmsi := range refKeys {
			a, b := ref[mmsi], other[mmsi]
			if a.Name != b.Name || a.ShipType != b.ShipType || a.LengthMeters != b.LengthMeters {
				p.errorf("%s: MMSI %d differs from %s", ds.path, mmsi, sets[0].path)
			}
			if (a.ETA == nil) != (b.ETA == nil) || (a.ETA != nil && a.ETA.Sub(*b.ETA).Abs() >= time.Minute) {
				p.errorf("%s: MMSI %d ETA differs from %s", ds.path, mmsi, sets[0].path)
			}
		}
	}
	return p
}

func index(vessels []domain.Vessel) map[int64]domain.Vessel {
	out := make(map[int64]domain.Vessel, len(vessels))
	for _, v := range vessels {
		out[v.MMSI] = v
	}
	return out
}

func sortedKeys(m map[int64]domain.Vessel) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
