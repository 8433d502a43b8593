package domain

import (
	"fmt"
	"math"
	"time"
)

// ProjectArrivals counts expected arrivals in contiguous interval-hour buckets
// starting at now and covering horizon hours. When at least two buckets exist
// and any of them is non-empty, a least-squares line over bucket index vs.
// count is attached along with a per-bucket estimate.
func ProjectArrivals(preds []Prediction, horizonHours, intervalHours int, now time.Time) (Projection, error) {
	if horizonHours <= 0 || intervalHours <= 0 {
		return Projection{}, fmt.Errorf("projection horizon %dh interval %dh: %w",
			horizonHours, intervalHours, ErrInvalidParameters)
	}

	arrivals := make([]time.Time, 0, len(preds))
	for _, p := range preds {
		eta := p.PredictedETA
		if eta.IsZero() {
			if p.DeclaredETA == nil {
				continue
			}
			eta = *p.DeclaredETA
		}
		if eta.Before(now) {
			continue
		}
		arrivals = append(arrivals, eta)
	}

	bucketCount := int(math.Ceil(float64(horizonHours) / float64(intervalHours)))
	bucketCount = max(1, bucketCount)
	interval := time.Duration(intervalHours) * time.Hour

	buckets := make([]ProjectionBucket, bucketCount)
	counts := make([]float64, bucketCount)
	cumulative := 0
	nonZero := false
	for i := range buckets {
		start := now.Add(time.Duration(i) * interval)
		end := start.Add(interval)
		n := 0
		for _, eta := range arrivals {
			if !eta.Before(start) && eta.Before(end) {
				n++
			}
		}
		cumulative += n
		counts[i] = float64(n)
		nonZero = nonZero || n > 0
		buckets[i] = ProjectionBucket{
			WindowStart:        start,
			WindowEnd:          end,
			ExpectedArrivals:   n,
			CumulativeExpected: cumulative,
		}
	}

	proj := Projection{
		GeneratedAt:   now,
		HorizonHours:  horizonHours,
		IntervalHours: intervalHours,
		Buckets:       buckets,
	}
	if bucketCount < 2 || !nonZero {
		return proj, nil
	}

	slope, intercept := fitLine(counts)
	for i := range proj.Buckets {
		estimate := math.Max(intercept+slope*float64(i), 0)
		proj.Buckets[i].TrendEstimate = &estimate
	}
	proj.Trend = &TrendLine{
		Slope:       slope,
		Intercept:   intercept,
		Description: describeSlope(slope),
	}
	return proj, nil
}

// fitLine returns the ordinary least-squares slope and intercept of ys over
// x = 0, 1, ..., len(ys)-1. ys must hold at least two values.
func fitLine(ys []float64) (slope, intercept float64) {
	n := float64(len(ys))
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range ys {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	slope = (n*sumXY - sumX*sumY) / (n*sumXX - sumX*sumX)
	intercept = (sumY - slope*sumX) / n
	return slope, intercept
}

// slopeEpsilon absorbs floating-point noise around a flat fit.
const slopeEpsilon = 1e-9

func describeSlope(slope float64) string {
	switch {
	case slope > slopeEpsilon:
		return "increasing"
	case slope < -slopeEpsilon:
		return "decreasing"
	default:
		return "stable"
	}
}
