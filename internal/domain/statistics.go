package domain

import "time"

// ComputeStatistics summarizes the traffic currently reported around port.
// Distance figures are only filled for ports with known coordinates and
// ignore vessels without a position fix.
func ComputeStatistics(vessels []Vessel, port string, radiusKm int, now time.Time) PortStatistics {
	stats := PortStatistics{
		CurrentVessels: len(vessels),
		VesselTypes:    countTypes(vessels),
	}

	var etaSum float64
	etaCount := 0
	for _, v := range vessels {
		if v.ETA == nil {
			continue
		}
		if h := v.ETA.Sub(now).Hours(); h > 0 {
			etaSum += h
			etaCount++
		}
	}
	if etaCount > 0 {
		stats.AverageETAHours = round2(etaSum / float64(etaCount))
	}

	center, ok := LookupPort(port)
	if !ok {
		return stats
	}
	var distSum float64
	fixes := 0
	for _, v := range vessels {
		if v.Latitude == 0 && v.Longitude == 0 {
			continue
		}
		d := DistanceKm(center, Coordinate{Latitude: v.Latitude, Longitude: v.Longitude})
		distSum += d
		fixes++
		if d <= float64(radiusKm) {
			stats.WithinRadius++
		}
	}
	if fixes > 0 {
		stats.AverageDistanceKm = round2(distSum / float64(fixes))
	}
	return stats
}
