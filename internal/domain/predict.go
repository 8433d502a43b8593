package domain

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// DefaultPriorityHours is the usual look-ahead for PriorityArrivals.
const DefaultPriorityHours = 12.0

const (
	defaultETAOffset = 24 * time.Hour
	baseFactor       = 1.0
	baseConfidence   = 0.85
	slowSpeedKnots   = 5.0
	fastSpeedKnots   = 15.0
	windowKeyLayout  = "2006-01-02 15:00"
)

// PredictArrival corrects a vessel's declared ETA using its navigation status
// and speed. Vessels without a declared ETA are assumed 24 hours out.
//
//	status contains "anchor": factor +0.15, confidence -0.10
//	else contains "moored":   factor +0.25, confidence -0.15
//	speed < 5 kn:             factor +0.20, confidence -0.15
//	else speed > 15 kn:       factor -0.05, confidence +0.05
//
// The predicted ETA is never earlier than now. Offsets past the Duration
// range are capped at roughly 285 years.
func PredictArrival(v Vessel, now time.Time) Prediction {
	declared := now.Add(defaultETAOffset)
	if v.ETA != nil {
		declared = *v.ETA
	}

	factor := baseFactor
	confidence := baseConfidence

	status := strings.ToLower(v.NavStatus)
	switch {
	case strings.Contains(status, "anchor"):
		factor += 0.15
		confidence -= 0.10
	case strings.Contains(status, "moored"):
		factor += 0.25
		confidence -= 0.15
	}

	switch {
	case v.SpeedKnots < slowSpeedKnots:
		factor += 0.20
		confidence -= 0.15
	case v.SpeedKnots > fastSpeedKnots:
		factor -= 0.05
		confidence += 0.05
	}

	hours := math.Max(0, declared.Sub(now).Hours()*factor)
	offset, ok := hoursOffset(hours)
	if !ok {
		offset = maxOffset
	}
	predicted := now.Add(offset)

	return Prediction{
		VesselName:       v.Name,
		MMSI:             v.MMSI,
		ShipType:         v.ShipType,
		DeclaredETA:      v.ETA,
		PredictedETA:     predicted,
		Confidence:       round2(clamp(confidence, 0, 1)),
		HoursToArrival:   round1(predicted.Sub(now).Hours()),
		CurrentSpeed:     v.SpeedKnots,
		Status:           v.NavStatus,
		CorrectionFactor: round2(factor),
	}
}

// PredictBulk predicts every vessel against the same reference time and
// returns the predictions ordered by predicted ETA.
func PredictBulk(vessels []Vessel, now time.Time) []Prediction {
	preds := make([]Prediction, 0, len(vessels))
	for _, v := range vessels {
		preds = append(preds, PredictArrival(v, now))
	}
	sort.SliceStable(preds, func(i, j int) bool {
		return preds[i].PredictedETA.Before(preds[j].PredictedETA)
	})
	return preds
}

// ArrivalWindows buckets predictions into blocks of the given width aligned to
// hour-of-day multiples (6h blocks start at 00, 06, 12, 18). Windows are
// returned in chronological order.
func ArrivalWindows(preds []Prediction, hours int) ([]ArrivalWindow, error) {
	if hours <= 0 {
		return nil, fmt.Errorf("arrival window of %d hours: %w", hours, ErrInvalidParameters)
	}

	byKey := make(map[string]*ArrivalWindow)
	for _, p := range preds {
		if p.PredictedETA.IsZero() {
			continue
		}
		eta := p.PredictedETA
		start := time.Date(eta.Year(), eta.Month(), eta.Day(), eta.Hour(), 0, 0, 0, eta.Location())
		start = start.Add(-time.Duration(start.Hour()%hours) * time.Hour)

		key := start.Format(windowKeyLayout)
		w, ok := byKey[key]
		if !ok {
			w = &ArrivalWindow{
				Key:   key,
				Start: start,
				End:   start.Add(time.Duration(hours) * time.Hour),
			}
			byKey[key] = w
		}
		w.Vessels = append(w.Vessels, WindowVessel{
			Name:       p.VesselName,
			Type:       p.ShipType,
			ETA:        p.PredictedETA,
			Confidence: p.Confidence,
		})
	}

	windows := make([]ArrivalWindow, 0, len(byKey))
	for _, w := range byKey {
		windows = append(windows, *w)
	}
	sort.Slice(windows, func(i, j int) bool {
		return windows[i].Start.Before(windows[j].Start)
	})
	return windows, nil
}

// PriorityArrivals keeps predictions arriving within threshold hours.
func PriorityArrivals(preds []Prediction, threshold float64) []Prediction {
	out := make([]Prediction, 0, len(preds))
	for _, p := range preds {
		if p.HoursToArrival >= 0 && p.HoursToArrival <= threshold {
			out = append(out, p)
		}
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
