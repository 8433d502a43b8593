package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Size classes by hull length.
const (
	SizeSmall  = "small"  // < 150m
	SizeMedium = "medium" // 150-250m
	SizeLarge  = "large"  // > 250m
)

// DefaultClusterWindowHours is the window width used for cluster summaries.
const DefaultClusterWindowHours = 6

// SizeClass classifies a hull length in meters.
func SizeClass(lengthMeters int) string {
	switch {
	case lengthMeters < 150:
		return SizeSmall
	case lengthMeters <= 250:
		return SizeMedium
	default:
		return SizeLarge
	}
}

// ClusterByType partitions vessels by ship type.
func ClusterByType(vessels []Vessel) map[string][]Vessel {
	out := make(map[string][]Vessel)
	for _, v := range vessels {
		t := v.ShipType
		if t == "" {
			t = unknown
		}
		out[t] = append(out[t], v)
	}
	return out
}

// ClusterBySize partitions vessels into the three size classes. All three
// keys are always present.
func ClusterBySize(vessels []Vessel) map[string][]Vessel {
	out := map[string][]Vessel{
		SizeSmall:  {},
		SizeMedium: {},
		SizeLarge:  {},
	}
	for _, v := range vessels {
		c := SizeClass(v.LengthMeters)
		out[c] = append(out[c], v)
	}
	return out
}

// ClusterByArrivalWindow groups vessels by hours until their declared ETA in
// windows of windowHours, labeled "<start>-<end>h" and ordered by start.
// Vessels without an ETA or with an ETA before now are left out.
func ClusterByArrivalWindow(vessels []Vessel, windowHours int, now time.Time) ([]ArrivalCluster, error) {
	if windowHours <= 0 {
		return nil, fmt.Errorf("cluster window of %d hours: %w", windowHours, ErrInvalidParameters)
	}

	byIndex := make(map[int]*ArrivalCluster)
	for _, v := range vessels {
		if v.ETA == nil {
			continue
		}
		hours := v.ETA.Sub(now).Hours()
		if hours < 0 {
			continue
		}
		idx := int(hours / float64(windowHours))
		c, ok := byIndex[idx]
		if !ok {
			start, end := idx*windowHours, (idx+1)*windowHours
			c = &ArrivalCluster{
				Label:     fmt.Sprintf("%d-%dh", start, end),
				StartHour: start,
				EndHour:   end,
			}
			byIndex[idx] = c
		}
		c.Vessels = append(c.Vessels, v)
	}

	clusters := make([]ArrivalCluster, 0, len(byIndex))
	for _, c := range byIndex {
		clusters = append(clusters, *c)
	}
	sort.Slice(clusters, func(i, j int) bool {
		return clusters[i].StartHour < clusters[j].StartHour
	})
	return clusters, nil
}

// baseOperationalHours maps ship type keywords to typical hours alongside.
// Order matters: "Container Cargo" is a container ship.
var baseOperationalHours = []struct {
	keyword string
	hours   float64
}{
	{"container", 24},
	{"bulk", 22},
	{"tanker", 20},
	{"passenger", 8},
	{"cargo", 18},
}

const (
	defaultOperationalHours = 16.0
	operationalConfidence   = 0.75
)

var sizeFactors = map[string]float64{
	SizeSmall:  0.8,
	SizeMedium: 1.0,
	SizeLarge:  1.3,
}

// EstimateOperationalTimes estimates how long each vessel will occupy a berth.
func EstimateOperationalTimes(vessels []Vessel) []OperationalEstimate {
	out := make([]OperationalEstimate, 0, len(vessels))
	for _, v := range vessels {
		hours := operationalHours(v.ShipType) * sizeFactors[SizeClass(v.LengthMeters)]
		out = append(out, OperationalEstimate{
			MMSI:       v.MMSI,
			VesselName: v.Name,
			ShipType:   v.ShipType,
			Hours:      round1(hours),
			Days:       round1(hours / 24),
			Length:     v.LengthMeters,
			Confidence: operationalConfidence,
		})
	}
	return out
}

func operationalHours(shipType string) float64 {
	t := strings.ToLower(shipType)
	for _, b := range baseOperationalHours {
		if strings.Contains(t, b.keyword) {
			return b.hours
		}
	}
	return defaultOperationalHours
}

// SummarizeClusters condenses the type, size and arrival-window partitions
// into counts alongside the operational estimates.
func SummarizeClusters(vessels []Vessel, now time.Time) ClusterSummary {
	summary := ClusterSummary{
		TotalVessels:         len(vessels),
		ByType:               make(map[string]int),
		BySize:               make(map[string]int),
		ByArrivalWindow:      make(map[string]int),
		OperationalEstimates: EstimateOperationalTimes(vessels),
	}
	for t, group := range ClusterByType(vessels) {
		summary.ByType[t] = len(group)
	}
	for s, group := range ClusterBySize(vessels) {
		summary.BySize[s] = len(group)
	}
	// The window width is a positive constant, so the error is always nil.
	clusters, _ := ClusterByArrivalWindow(vessels, DefaultClusterWindowHours, now)
	for _, c := range clusters {
		summary.ByArrivalWindow[c.Label] = len(c.Vessels)
	}
	return summary
}

// countTypes tallies vessels by ship type.
func countTypes(vessels []Vessel) map[string]int {
	out := make(map[string]int)
	for _, v := range vessels {
		t := v.ShipType
		if t == "" {
			t = unknown
		}
		out[t]++
	}
	return out
}
