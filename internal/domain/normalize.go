package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// field identifies a canonical Vessel attribute in the alias table.
type field int

const (
	fieldMMSI field = iota
	fieldIMO
	fieldName
	fieldShipType
	fieldDestination
	fieldETA
	fieldSpeed
	fieldCourse
	fieldLatitude
	fieldLongitude
	fieldDraught
	fieldLength
	fieldWidth
	fieldStatus
	fieldDimBow
	fieldDimStern
	fieldDimPort
	fieldDimStarboard
)

// fieldAliases lists, per canonical field, the source keys tried in order.
// The first non-empty value wins.
var fieldAliases = map[field][]string{
	fieldMMSI:         {"mmsi", "MMSI"},
	fieldIMO:          {"imo", "IMO"},
	fieldName:         {"ship_name", "SHIPNAME", "name"},
	fieldShipType:     {"ship_type", "SHIPTYPE", "type"},
	fieldDestination:  {"destination", "DESTINATION"},
	fieldETA:          {"eta", "ETA"},
	fieldSpeed:        {"speed", "SOG", "sog"},
	fieldCourse:       {"course", "COG", "cog"},
	fieldLatitude:     {"latitude", "LAT", "lat"},
	fieldLongitude:    {"longitude", "LON", "lon"},
	fieldDraught:      {"draught", "DRAUGHT", "draught_m"},
	fieldLength:       {"length", "LENGTH", "length_m"},
	fieldWidth:        {"width", "WIDTH", "width_m"},
	fieldStatus:       {"status", "STATUS", "nav_status"},
	fieldDimBow:       {"dim_a", "DIM_A", "A"},
	fieldDimStern:     {"dim_b", "DIM_B", "B"},
	fieldDimPort:      {"dim_c", "DIM_C", "C"},
	fieldDimStarboard: {"dim_d", "DIM_D", "D"},
}

const unknown = "Unknown"

// Normalize maps a raw provider record to the canonical Vessel schema.
// Only the MMSI is mandatory; every other field falls back to a default when
// missing or malformed. defaultDestination is used when the record names none.
func Normalize(raw RawRecord, defaultDestination string) (Vessel, error) {
	raw = flattenFeature(raw)

	mmsi := parseIntOrZero(lookupMMSI(raw))
	if mmsi <= 0 {
		return Vessel{}, ErrMissingIdentifier
	}

	dimBow := parseFloatOr(lookup(raw, fieldDimBow), 0)
	dimStern := parseFloatOr(lookup(raw, fieldDimStern), 0)
	dimPort := parseFloatOr(lookup(raw, fieldDimPort), 0)
	dimStarboard := parseFloatOr(lookup(raw, fieldDimStarboard), 0)

	return Vessel{
		MMSI:          mmsi,
		IMO:           parseIntOrZero(lookup(raw, fieldIMO)),
		Name:          stringOr(lookup(raw, fieldName), unknown),
		ShipType:      stringOr(lookup(raw, fieldShipType), unknown),
		Destination:   stringOr(lookup(raw, fieldDestination), defaultDestination),
		ETA:           parseETA(lookup(raw, fieldETA), clock.Now()),
		SpeedKnots:    round1(math.Max(parseFloatOr(lookup(raw, fieldSpeed), 0), 0)),
		CourseDegrees: normalizeCourse(parseFloatOr(lookup(raw, fieldCourse), 0)),
		Latitude:      parseFloatOr(lookup(raw, fieldLatitude), 0),
		Longitude:     parseFloatOr(lookup(raw, fieldLongitude), 0),
		DraughtMeters: round1(parseFloatOr(lookup(raw, fieldDraught), 0)),
		LengthMeters:  int(math.Round(parseFloatOr(lookup(raw, fieldLength), dimBow+dimStern))),
		WidthMeters:   int(math.Round(parseFloatOr(lookup(raw, fieldWidth), dimPort+dimStarboard))),
		NavStatus:     stringOr(lookup(raw, fieldStatus), unknown),
	}, nil
}

// NormalizeBatch normalizes every record, dropping the ones that fail.
// It returns the surviving vessels and the number of skipped records.
func NormalizeBatch(records []RawRecord, defaultDestination string) ([]Vessel, int) {
	vessels := make([]Vessel, 0, len(records))
	skipped := 0
	for _, rec := range records {
		v, err := Normalize(rec, defaultDestination)
		if err != nil {
			skipped++
			continue
		}
		vessels = append(vessels, v)
	}
	return vessels, skipped
}

// flattenFeature turns a GeoJSON Feature into its properties, filling
// latitude/longitude from geometry.coordinates ([lon, lat]) when the
// properties carry none. Plain records only get the geometry fallback.
func flattenFeature(raw RawRecord) RawRecord {
	props, isFeature := raw["properties"].(map[string]any)
	geometry, hasGeometry := raw["geometry"].(map[string]any)
	if !isFeature && !hasGeometry {
		return raw
	}

	out := make(RawRecord, len(raw)+len(props)+2)
	if isFeature {
		for k, v := range props {
			out[k] = v
		}
	} else {
		for k, v := range raw {
			out[k] = v
		}
	}

	if !hasGeometry {
		return out
	}
	coords, ok := geometry["coordinates"].([]any)
	if !ok || len(coords) < 2 {
		return out
	}
	if lookup(out, fieldLongitude) == nil {
		out["longitude"] = coords[0]
	}
	if lookup(out, fieldLatitude) == nil {
		out["latitude"] = coords[1]
	}
	return out
}

// lookup returns the first non-empty value among the field's aliases.
func lookup(raw RawRecord, f field) any {
	for _, key := range fieldAliases[f] {
		if v, ok := raw[key]; ok && !isEmpty(v) {
			return v
		}
	}
	return nil
}

// lookupMMSI resolves the identifier through the alias table first, then any
// key spelled "mmsi" in another casing.
func lookupMMSI(raw RawRecord) any {
	if v := lookup(raw, fieldMMSI); v != nil {
		return v
	}
	for k, v := range raw {
		if strings.EqualFold(k, "mmsi") && !isEmpty(v) {
			return v
		}
	}
	return nil
}

// isEmpty reports whether v carries no information: nil, blank strings,
// numeric zero, and false.
func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case float64:
		return t == 0
	case int:
		return t == 0
	case int64:
		return t == 0
	case json.Number:
		return t == "" || t == "0"
	case bool:
		return !t
	default:
		return false
	}
}

// parseFloatOr converts v to float64, returning def on failure or non-finite values.
func parseFloatOr(v any, def float64) float64 {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return def
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return def
		}
		f = parsed
	default:
		return def
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return def
	}
	return f
}

// parseIntOrZero converts v to an integer, truncating fractional values.
func parseIntOrZero(v any) int64 {
	f := parseFloatOr(v, 0)
	if f > math.MaxInt64 || f < math.MinInt64 {
		return 0
	}
	return int64(f)
}

// stringOr renders v as a trimmed string, returning def when it is empty.
func stringOr(v any, def string) string {
	var s string
	switch t := v.(type) {
	case nil:
		return def
	case string:
		s = t
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	default:
		s = fmt.Sprint(t)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	return s
}

// normalizeCourse rounds a heading and wraps it into [0, 360).
func normalizeCourse(deg float64) int {
	c := int(math.Round(deg)) % 360
	if c < 0 {
		c += 360
	}
	return c
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
