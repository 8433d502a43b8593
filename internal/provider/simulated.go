package provider

import (
	"context"
	"math"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/couchcryptid/port-traffic-monitor/internal/domain"
)

var (
	simulatedTypes = []string{"Cargo", "Tanker", "Container Ship", "Bulk Carrier", "Passenger Ship"}
	simulatedNames = []string{
		"MEDITERRANEAN STAR", "OCEAN VOYAGER", "TYRRHENIAN EXPRESS", "ATLANTIC HORIZON",
		"NEPTUNE CARRIER", "POSEIDON TRADER", "ADRIATIC QUEEN", "ITALIA MARINE",
		"BLUE WAVE", "SEA SPIRIT",
	}
	simulatedStatuses = []string{"Under way using engine", "At anchor", "Moored"}
)

// Simulated generates plausible synthetic traffic. It never fails, which makes
// it the last resort of the resilience chain and a handy offline source.
type Simulated struct {
	source
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulated creates a generator. The same non-zero seed yields the same
// sequence of vessel lists.
func NewSimulated(cfg SimulatedConfig, opts ...Option) *Simulated {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &Simulated{
		source: newSource(cfg.ProviderName(), 0, buildOptions(opts)),
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

func simulatedFromSettings(s Settings, opts ...Option) (Provider, error) {
	mode := strings.ToLower(s.Get(KeyProviderMode))
	if s.Get(KeySimulatedSeed) == "" && mode != "simulated" && mode != "sample" {
		return nil, nil
	}
	return NewSimulated(SimulatedConfig{Seed: uint64(max(s.Int(KeySimulatedSeed, 0), 0))}, opts...), nil
}

// FetchVessels returns 5 to 12 vessels bound for port, positioned within
// ±0.6° of its coordinates and arriving within the next 48 hours.
func (p *Simulated) FetchVessels(_ context.Context, port string, _ int) ([]domain.Vessel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	center, ok := domain.LookupPort(port)
	if !ok {
		center = domain.DefaultCoordinate
	}
	now := domain.Now()

	n := 5 + p.rng.IntN(8)
	vessels := make([]domain.Vessel, 0, n)
	for i := range n {
		eta := now.Add(time.Duration(1+p.rng.IntN(48)) * time.Hour)
		vessels = append(vessels, domain.Vessel{
			MMSI:          int64(200_000_000 + (1_000+p.rng.IntN(9_000))*100 + i),
			IMO:           int64(9_000_000 + 100_000 + p.rng.IntN(900_000)),
			Name:          pick(p.rng, simulatedNames),
			ShipType:      pick(p.rng, simulatedTypes),
			Destination:   port,
			ETA:           &eta,
			SpeedKnots:    round1(p.uniform(8, 18)),
			CourseDegrees: p.rng.IntN(360),
			Latitude:      center.Latitude + p.uniform(-0.6, 0.6),
			Longitude:     center.Longitude + p.uniform(-0.6, 0.6),
			DraughtMeters: round1(p.uniform(6, 14)),
			LengthMeters:  120 + p.rng.IntN(231),
			WidthMeters:   22 + p.rng.IntN(29),
			NavStatus:     pick(p.rng, simulatedStatuses),
		})
	}
	return vessels, nil
}

func (p *Simulated) uniform(lo, hi float64) float64 {
	return lo + p.rng.Float64()*(hi-lo)
}

func pick(rng *rand.Rand, values []string) string {
	return values[rng.IntN(len(values))]
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
