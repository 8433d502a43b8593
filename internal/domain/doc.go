// Package domain models AIS (Automatic Identification System) vessel reports
// for monitored ports and the analyses derived from them.
//
// # Data Sources
//
// Vessel reports come from interchangeable providers (simulated, local
// open-data files, generic HTTP endpoints, the AISHub aggregator, and the
// MarineTraffic commercial API). Each source names its fields differently, so
// every record passes through [Normalize] before any analysis runs.
//
// # Field Conventions
//
// Identifier:
//
//	MMSI (Maritime Mobile Service Identity) is the only required field.
//	Accepted as "mmsi" or "MMSI" (any casing), numeric or numeric string.
//	Records without a usable MMSI are rejected with [ErrMissingIdentifier].
//
// Keys by source:
//
//	AISHub / MarineTraffic: MMSI, SHIPNAME, SHIPTYPE, SOG, COG, LAT, LON, ETA, A/B/C/D
//	Open data / internal:   mmsi, ship_name, ship_type, speed, course, latitude, longitude, eta
//	GeoJSON features:       properties + geometry.coordinates as [lon, lat]
//
// Hull dimensions:
//
//	When no explicit length/width is present, length = bow offset + stern
//	offset (dim_a + dim_b) and width = port + starboard (dim_c + dim_d).
//
// ETA encodings:
//
//	Numeric:   hours from now, e.g. 6 → now + 6h.
//	Timestamp: "2024-05-01T12:00:00", "2024-05-01 12:00", "01/05/2024 12:00",
//	           year-less "05-01 12:00" (current year assumed).
//	Digits:    "HHMM" or "HMM", today at that time, tomorrow if already past.
//	Sentinels: "0000-00-00 00:00" and empty values mean unknown.
//
// # Analyses
//
// Predictions apply fixed heuristic multipliers to the declared ETA based on
// navigation status and speed (see [PredictArrival]). Clustering groups
// vessels by type, size class and arrival window, and capacity analysis
// compares 12-hour arrival windows against the port's berth count.
//
//	Size classes:  <150m small | 150–250m medium | >250m large
//	Hours in port: container 24 | bulk 22 | tanker 20 | cargo 18 | passenger 8 | other 16
//	Size factor:   small ×0.8 | medium ×1.0 | large ×1.3
package domain
