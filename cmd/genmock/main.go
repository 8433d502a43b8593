// Command genmock generates AIS fixture files from the simulated provider.
// A fixed clock and seed make the output reproducible, so the fixtures can
// back provider and pipeline tests as well as offline runs via
// AIS_OPEN_DATA_FILE.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -ports Naples,Salerno \
//	  -seed 42 \
//	  -out-dir data/mock
//
// For each port it writes <port>_ais.json, <port>_ais.geojson and
// <port>_ais.csv.
package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/port-traffic-monitor/internal/domain"
	"github.com/couchcryptid/port-traffic-monitor/internal/provider"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/jonboulle/clockwork"
)

var baseTime = time.Date(2024, time.April, 30, 9, 0, 0, 0, time.UTC)

var csvHeader = []string{
	"MMSI", "IMO", "SHIPNAME", "SHIPTYPE", "DESTINATION", "ETA",
	"SOG", "COG", "LAT", "LON", "DRAUGHT", "LENGTH", "WIDTH", "STATUS",
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	ports := flag.String("ports", "Naples,Salerno,Civitavecchia", "comma-separated target ports")
	seed := flag.Uint64("seed", 42, "simulated provider seed")
	outDir := flag.String("out-dir", "", "output directory for the fixtures")
	flag.Parse()

	if *outDir == "" || *seed == 0 {
		flag.Usage()
		return fmt.Errorf("missing required flags: -out-dir and a non-zero -seed")
	}

	// Fixed clock for reproducible ETAs.
	domain.SetClock(clockwork.NewFakeClockAt(baseTime))
	defer domain.SetClock(nil)

	sim := provider.NewSimulated(provider.SimulatedConfig{Seed: *seed})

	var all []domain.Vessel
	for _, port := range sharedcfg.ParseBrokers(*ports) {
		vessels, err := sim.FetchVessels(context.Background(), port, 50)
		if err != nil {
			return fmt.Errorf("generate %s: %w", port, err)
		}
		if len(vessels) == 0 {
			log.Printf("%s: unknown port, skipped", port)
			continue
		}

		base := filepath.Join(*outDir, strings.ToLower(port)+"_ais")
		if err := writeJSON(base+".json", vessels); err != nil {
			return fmt.Errorf("writing JSON fixture: %w", err)
		}
		if err := writeJSON(base+".geojson", featureCollection(vessels)); err != nil {
			return fmt.Errorf("writing GeoJSON fixture: %w", err)
		}
		if err := writeCSV(base+".csv", vessels); err != nil {
			return fmt.Errorf("writing CSV fixture: %w", err)
		}
		log.Printf("%s: %d vessels -> %s.{json,geojson,csv}", port, len(vessels), base)
		all = append(all, vessels...)
	}

	printStats(all)
	return nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

type feature struct {
	Type       string         `json:"type"`
	Geometry   map[string]any `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

// featureCollection places each vessel as a Point; properties repeat the
// vessel fields except the coordinates.
func featureCollection(vessels []domain.Vessel) map[string]any {
	features := make([]feature, 0, len(vessels))
	for _, v := range vessels {
		props := map[string]any{
			"mmsi":        v.MMSI,
			"ship_name":   v.Name,
			"ship_type":   v.ShipType,
			"destination": v.Destination,
			"speed":       v.SpeedKnots,
			"course":      v.CourseDegrees,
			"draught":     v.DraughtMeters,
			"length":      v.LengthMeters,
			"width":       v.WidthMeters,
			"status":      v.NavStatus,
		}
		if v.IMO != 0 {
			props["imo"] = v.IMO
		}
		if v.ETA != nil {
			props["eta"] = v.ETA.Format(time.RFC3339)
		}
		features = append(features, feature{
			Type:       "Feature",
			Geometry:   map[string]any{"type": "Point", "coordinates": []float64{v.Longitude, v.Latitude}},
			Properties: props,
		})
	}
	return map[string]any{"type": "FeatureCollection", "features": features}
}

func writeCSV(path string, vessels []domain.Vessel) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, v := range vessels {
		eta := ""
		if v.ETA != nil {
			eta = v.ETA.Format("2006-01-02 15:04")
		}
		imo := ""
		if v.IMO != 0 {
			imo = strconv.FormatInt(v.IMO, 10)
		}
		row := []string{
			strconv.FormatInt(v.MMSI, 10), imo, v.Name, v.ShipType, v.Destination, eta,
			formatFloat(v.SpeedKnots), strconv.Itoa(v.CourseDegrees),
			formatFloat(v.Latitude), formatFloat(v.Longitude), formatFloat(v.DraughtMeters),
			strconv.Itoa(v.LengthMeters), strconv.Itoa(v.WidthMeters), v.NavStatus,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

type typeCount struct {
	name  string
	count int
}

func printStats(vessels []domain.Vessel) {
	now := domain.Now()
	byType := map[string]int{}
	bySize := map[string]int{}
	for _, v := range vessels {
		byType[v.ShipType]++
		bySize[domain.SizeClass(v.LengthMeters)]++
	}

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Total: %d\n", len(vessels))

	tc := make([]typeCount, 0, len(byType))
	for t, c := range byType {
		tc = append(tc, typeCount{t, c})
	}
	sort.Slice(tc, func(i, j int) bool {
		if tc[i].count != tc[j].count {
			return tc[i].count > tc[j].count
		}
		return tc[i].name < tc[j].name
	})
	fmt.Printf("Types (%d):", len(tc))
	for _, t := range tc {
		fmt.Printf(" %s=%d", t.name, t.count)
	}
	fmt.Println()
	fmt.Printf("By size: small=%d, medium=%d, large=%d\n", bySize["small"], bySize["medium"], bySize["large"])

	priority := 0
	for _, p := range domain.PredictBulk(vessels, now) {
		if p.HoursToArrival <= 12 {
			priority++
		}
	}
	fmt.Printf("Arriving within 12h: %d\n", priority)
}
