package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// etaLayouts are tried in order for string ETAs. Layouts without a zone are
// interpreted in the location of the reference time.
var etaLayouts = []struct {
	layout   string
	yearless bool
}{
	{layout: time.RFC3339Nano},
	{layout: "2006-01-02T15:04:05.999999999"},
	{layout: "2006-01-02T15:04:05"},
	{layout: "2006-01-02 15:04:05"},
	{layout: "2006-01-02 15:04"},
	{layout: "02/01/2006 15:04"},
	{layout: "01-02 15:04", yearless: true},
	{layout: "02-01 15:04", yearless: true},
}

// Null timestamps emitted by AIS transponders that never set an ETA.
var etaSentinels = map[string]bool{
	"0000-00-00 00:00":    true,
	"0000-00-00T00:00:00": true,
	"00-00 00:00":         true,
}

// ParseETA interprets an ETA value relative to now. It returns nil when the
// value is empty, a null sentinel, or in no recognized encoding.
func ParseETA(v any, now time.Time) *time.Time {
	return parseETA(v, now)
}

func parseETA(v any, now time.Time) *time.Time {
	switch t := v.(type) {
	case nil:
		return nil
	case time.Time:
		if t.IsZero() {
			return nil
		}
		return &t
	case *time.Time:
		if t == nil || t.IsZero() {
			return nil
		}
		eta := *t
		return &eta
	case float64, float32, int, int64, json.Number:
		offset, ok := hoursOffset(parseFloatOr(t, math.NaN()))
		if !ok {
			return nil
		}
		eta := now.Add(offset)
		return &eta
	case string:
		return parseETAString(strings.TrimSpace(t), now)
	default:
		return nil
	}
}

// maxOffset is the largest hour offset converted to a time.Duration, kept a
// little under the int64 nanosecond limit so float rounding cannot overflow.
const maxOffset = time.Duration(9e18)

// hoursOffset converts h hours to a Duration. ok is false for NaN and for
// offsets beyond maxOffset in either direction.
func hoursOffset(h float64) (time.Duration, bool) {
	ns := h * float64(time.Hour)
	if math.IsNaN(ns) || math.Abs(ns) > float64(maxOffset) {
		return 0, false
	}
	return time.Duration(ns), true
}

func parseETAString(s string, now time.Time) *time.Time {
	if s == "" || etaSentinels[s] {
		return nil
	}

	for _, l := range etaLayouts {
		parsed, err := time.ParseInLocation(l.layout, s, now.Location())
		if err != nil {
			continue
		}
		if l.yearless {
			parsed = time.Date(now.Year(), parsed.Month(), parsed.Day(),
				parsed.Hour(), parsed.Minute(), 0, 0, now.Location())
		}
		return &parsed
	}

	return parseClockDigits(s, now)
}

// parseClockDigits reads "HHMM" or "HMM" as today at that time, rolling to
// tomorrow when the time has already passed.
func parseClockDigits(s string, now time.Time) *time.Time {
	if len(s) != 3 && len(s) != 4 {
		return nil
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return nil
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	hour, minute := n/100, n%100
	if hour > 23 || minute > 59 {
		return nil
	}

	eta := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if eta.Before(now) {
		eta = eta.AddDate(0, 0, 1)
	}
	return &eta
}
