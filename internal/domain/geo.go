package domain

import (
	"math"
	"strings"

	"github.com/golang/geo/s2"
)

const (
	earthRadiusKm = 6371.0088
	kmPerNM       = 1.852
	nmPerDegree   = 60.0
)

// Coordinate is a WGS84 position in decimal degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// BoundingBox is a lat/lon rectangle used to scope geographic queries.
type BoundingBox struct {
	LatMin float64 `json:"latmin"`
	LatMax float64 `json:"latmax"`
	LonMin float64 `json:"lonmin"`
	LonMax float64 `json:"lonmax"`
}

// DefaultCoordinate is used for ports missing from the coordinate table.
var DefaultCoordinate = Coordinate{Latitude: 40.5, Longitude: 14.0}

var portCoordinates = map[string]Coordinate{
	"naples":        {Latitude: 40.8394, Longitude: 14.2520},
	"salerno":       {Latitude: 40.6741, Longitude: 14.7697},
	"civitavecchia": {Latitude: 42.0942, Longitude: 11.7961},
	"gaeta":         {Latitude: 41.2131, Longitude: 13.5722},
}

// LookupPort returns the coordinates of a known port, matched case-insensitively.
func LookupPort(port string) (Coordinate, bool) {
	c, ok := portCoordinates[strings.ToLower(strings.TrimSpace(port))]
	return c, ok
}

// PortBoundingBox derives a query box of radiusKm around center.
// One degree of latitude is 60 nautical miles; the longitude span widens by
// 1/cos(latitude), floored to stay finite near the poles.
func PortBoundingBox(center Coordinate, radiusKm int) BoundingBox {
	nm := math.Max(float64(radiusKm), 1) / kmPerNM
	dLat := nm / nmPerDegree
	cosLat := math.Max(math.Cos(center.Latitude*math.Pi/180), 1e-4)
	dLon := nm / (nmPerDegree * cosLat)
	return BoundingBox{
		LatMin: center.Latitude - dLat,
		LatMax: center.Latitude + dLat,
		LonMin: center.Longitude - dLon,
		LonMax: center.Longitude + dLon,
	}
}

// DistanceKm returns the great-circle distance between two coordinates.
func DistanceKm(a, b Coordinate) float64 {
	p1 := s2.LatLngFromDegrees(a.Latitude, a.Longitude)
	p2 := s2.LatLngFromDegrees(b.Latitude, b.Longitude)
	return p1.Distance(p2).Radians() * earthRadiusKm
}
