package domain

import (
	"strings"
	"time"
)

// RawRecord is a loosely-typed AIS record as decoded from a provider payload.
// Keys and value types vary by source.
type RawRecord map[string]any

// Vessel is the canonical representation of a normalized AIS record.
type Vessel struct {
	MMSI          int64      `json:"mmsi"`
	IMO           int64      `json:"imo"`
	Name          string     `json:"ship_name"`
	ShipType      string     `json:"ship_type"`
	Destination   string     `json:"destination"`
	ETA           *time.Time `json:"eta,omitempty"`
	SpeedKnots    float64    `json:"speed"`
	CourseDegrees int        `json:"course"`
	Latitude      float64    `json:"latitude"`
	Longitude     float64    `json:"longitude"`
	DraughtMeters float64    `json:"draught"`
	LengthMeters  int        `json:"length"`
	WidthMeters   int        `json:"width"`
	NavStatus     string     `json:"status"`
}

// Prediction is the corrected arrival estimate for one vessel.
type Prediction struct {
	VesselName       string     `json:"vessel_name"`
	MMSI             int64      `json:"mmsi"`
	ShipType         string     `json:"ship_type"`
	DeclaredETA      *time.Time `json:"declared_eta,omitempty"`
	PredictedETA     time.Time  `json:"predicted_eta"`
	Confidence       float64    `json:"confidence"`
	HoursToArrival   float64    `json:"hours_to_arrival"`
	CurrentSpeed     float64    `json:"current_speed"`
	Status           string     `json:"status"`
	CorrectionFactor float64    `json:"correction_factor"`
}

// WindowVessel is the compact vessel entry listed inside an ArrivalWindow.
type WindowVessel struct {
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	ETA        time.Time `json:"eta"`
	Confidence float64   `json:"confidence"`
}

// ArrivalWindow groups predictions falling into one aligned hour block.
type ArrivalWindow struct {
	Key     string         `json:"key"` // block start, "2006-01-02 15:00"
	Start   time.Time      `json:"start"`
	End     time.Time      `json:"end"`
	Vessels []WindowVessel `json:"vessels"`
}

// ProjectionBucket is one fixed-width slice of the arrival projection.
type ProjectionBucket struct {
	WindowStart        time.Time `json:"window_start"`
	WindowEnd          time.Time `json:"window_end"`
	ExpectedArrivals   int       `json:"expected_arrivals"`
	CumulativeExpected int       `json:"cumulative_expected"`
	TrendEstimate      *float64  `json:"trend_estimate,omitempty"`
}

// TrendLine is a first-degree least-squares fit of bucket index vs. count.
type TrendLine struct {
	Slope       float64 `json:"slope"`
	Intercept   float64 `json:"intercept"`
	Description string  `json:"description"` // "increasing", "decreasing", "stable"
}

// Projection is the time-series arrival projection over a horizon.
type Projection struct {
	GeneratedAt   time.Time          `json:"generated_at"`
	HorizonHours  int                `json:"horizon_hours"`
	IntervalHours int                `json:"interval_hours"`
	Buckets       []ProjectionBucket `json:"buckets"`
	Trend         *TrendLine         `json:"trendline,omitempty"`
}

// ArrivalCluster holds the vessels arriving within one relative hour range.
type ArrivalCluster struct {
	Label     string   `json:"label"` // e.g. "0-6h"
	StartHour int      `json:"start_hour"`
	EndHour   int      `json:"end_hour"`
	Vessels   []Vessel `json:"vessels"`
}

// OperationalEstimate is the expected time a vessel spends in port.
type OperationalEstimate struct {
	MMSI       int64   `json:"mmsi"`
	VesselName string  `json:"vessel_name"`
	ShipType   string  `json:"ship_type"`
	Hours      float64 `json:"estimated_operational_hours"`
	Days       float64 `json:"estimated_operational_days"`
	Length     int     `json:"length"`
	Confidence float64 `json:"confidence"`
}

// CapacityWindow is the berth utilization for one 12-hour arrival window.
type CapacityWindow struct {
	Window             string         `json:"window"`
	StartHour          int            `json:"start_hour"`
	ArrivingVessels    int            `json:"arriving_vessels"`
	UtilizationPercent float64        `json:"utilization_percent"`
	IsCongested        bool           `json:"is_congested"`
	VesselTypes        map[string]int `json:"vessel_types"`
}

// CapacityReport aggregates berth utilization across arrival windows.
type CapacityReport struct {
	MaxBerths           int              `json:"max_berths"`
	Windows             []CapacityWindow `json:"time_windows"`
	OverallUtilization  float64          `json:"overall_utilization"`
	UtilizationStdDev   float64          `json:"utilization_std_dev"`
	PeakUtilization     float64          `json:"peak_utilization"`
	PotentialCongestion bool             `json:"potential_congestion"`
}

// ClusterSummary condenses the three clustering axes into counts.
type ClusterSummary struct {
	TotalVessels         int                   `json:"total_vessels"`
	ByType               map[string]int        `json:"by_type"`
	BySize               map[string]int        `json:"by_size"`
	ByArrivalWindow      map[string]int        `json:"by_arrival_time"`
	OperationalEstimates []OperationalEstimate `json:"operational_estimates"`
}

// PortStatistics summarizes current traffic around a port.
type PortStatistics struct {
	CurrentVessels    int            `json:"current_vessels"`
	VesselTypes       map[string]int `json:"vessel_types"`
	AverageETAHours   float64        `json:"average_eta_hours"`
	AverageDistanceKm float64        `json:"average_distance_km,omitempty"`
	WithinRadius      int            `json:"within_radius,omitempty"`
}

// PortReport is the complete analysis of one port for downstream consumers.
type PortReport struct {
	Port             string          `json:"port"`
	Timestamp        time.Time       `json:"timestamp"`
	Source           string          `json:"source"`
	Vessels          []Vessel        `json:"vessels"`
	Predictions      []Prediction    `json:"predictions"`
	ArrivalWindows   []ArrivalWindow `json:"arrival_windows"`
	PriorityArrivals []Prediction    `json:"priority_arrivals"`
	ClusterSummary   ClusterSummary  `json:"cluster_summary"`
	CapacityAnalysis CapacityReport  `json:"capacity_analysis"`
	Statistics       PortStatistics  `json:"statistics"`
	SeriesProjection *Projection     `json:"series_projection,omitempty"`
}

// PortOutcome is either a report or the error that prevented one.
type PortOutcome struct {
	Port   string      `json:"port"`
	Report *PortReport `json:"report,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// MonitoringRun is the aggregate result of monitoring every target port once.
type MonitoringRun struct {
	ID         string        `json:"id"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Ports      []PortOutcome `json:"ports"`
}

// Outcome returns the outcome recorded for port, matched case-insensitively.
func (r MonitoringRun) Outcome(port string) (PortOutcome, bool) {
	for _, o := range r.Ports {
		if strings.EqualFold(o.Port, port) {
			return o, true
		}
	}
	return PortOutcome{}, false
}
