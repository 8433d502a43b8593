package domain

import (
	"fmt"
	"math"
	"time"
)

// CapacityWindowHours is the arrival window width used for berth utilization.
const CapacityWindowHours = 12

// AnalyzePortCapacity compares arrivals per 12-hour window against the number
// of berths. A window is congested when more vessels arrive than berths exist;
// the report is congested when any window is.
func AnalyzePortCapacity(vessels []Vessel, maxBerths int, now time.Time) (CapacityReport, error) {
	if maxBerths <= 0 {
		return CapacityReport{}, fmt.Errorf("max berths %d: %w", maxBerths, ErrInvalidParameters)
	}

	clusters, err := ClusterByArrivalWindow(vessels, CapacityWindowHours, now)
	if err != nil {
		return CapacityReport{}, err
	}

	report := CapacityReport{
		MaxBerths: maxBerths,
		Windows:   make([]CapacityWindow, 0, len(clusters)),
	}
	if len(clusters) == 0 {
		return report, nil
	}

	utilizations := make([]float64, 0, len(clusters))
	for _, c := range clusters {
		n := len(c.Vessels)
		util := float64(n) / float64(maxBerths) * 100
		congested := n > maxBerths

		report.Windows = append(report.Windows, CapacityWindow{
			Window:             c.Label,
			StartHour:          c.StartHour,
			ArrivingVessels:    n,
			UtilizationPercent: round1(util),
			IsCongested:        congested,
			VesselTypes:        countTypes(c.Vessels),
		})
		utilizations = append(utilizations, util)
		report.PotentialCongestion = report.PotentialCongestion || congested
	}

	mean, stdDev, peak := describe(utilizations)
	report.OverallUtilization = round1(mean)
	report.UtilizationStdDev = round1(stdDev)
	report.PeakUtilization = round1(peak)
	return report, nil
}

// describe returns the mean, population standard deviation and maximum of a
// non-empty sample.
func describe(xs []float64) (mean, stdDev, peak float64) {
	peak = math.Inf(-1)
	for _, x := range xs {
		mean += x
		peak = math.Max(peak, x)
	}
	mean /= float64(len(xs))

	var sq float64
	for _, x := range xs {
		d := x - mean
		sq += d * d
	}
	stdDev = math.Sqrt(sq / float64(len(xs)))
	return mean, stdDev, peak
}
