// Package geo validates and parses geographic coordinates received from
// clients and upstream services.
//
// Parsing never fails loudly: malformed input is reported as absent so that
// callers can map it to their own error codes.
package geo

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the point lies within latitude and longitude ranges.
func (p Point) Valid() bool {
	return ValidateCoordinates(p.Lat, p.Lon)
}

// NamedPoint is a point with an optional human-readable name.
// An empty Name means the point has no name.
type NamedPoint struct {
	Name  string `json:"name,omitempty"`
	Point Point  `json:"point"`
}

// ValidateCoordinates reports whether lat is in [-90, 90] and lon in [-180, 180].
// NaN values are never valid.
func ValidateCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// RawPoint is a coordinate object as sent by a client. Values keep their
// decoded JSON form; a value that is not a JSON object decodes into a
// RawPoint for which IsObject returns false instead of failing the body.
type RawPoint struct {
	Lat  any
	Lon  any
	Name any

	object bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *RawPoint) UnmarshalJSON(data []byte) error {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		*p = RawPoint{}
		return nil
	}

	*p = RawPoint{
		Lat:    fields["lat"],
		Lon:    fields["lon"],
		Name:   fields["name"],
		object: true,
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (p RawPoint) MarshalJSON() ([]byte, error) {
	if !p.object {
		return []byte("null"), nil
	}
	fields := map[string]any{"lat": p.Lat, "lon": p.Lon}
	if p.Name != nil {
		fields["name"] = p.Name
	}
	return json.Marshal(fields)
}

// NewRawPoint builds an object-shaped RawPoint from numeric coordinates.
func NewRawPoint(lat, lon float64) *RawPoint {
	return &RawPoint{Lat: lat, Lon: lon, object: true}
}

// IsObject reports whether the raw value was a JSON object.
func (p *RawPoint) IsObject() bool {
	return p != nil && p.object
}

// NameString returns the trimmed name if it was sent as a string.
func (p *RawPoint) NameString() string {
	if p == nil {
		return ""
	}
	if s, ok := p.Name.(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// ParsePoint converts a raw point into a validated Point.
// It returns false for nil input, non-object input, missing or non-numeric
// fields and out-of-range values.
func ParsePoint(raw *RawPoint) (Point, bool) {
	if !raw.IsObject() {
		return Point{}, false
	}

	lat, ok := ParseFloat(raw.Lat)
	if !ok {
		return Point{}, false
	}
	lon, ok := ParseFloat(raw.Lon)
	if !ok {
		return Point{}, false
	}
	if !ValidateCoordinates(lat, lon) {
		return Point{}, false
	}

	return Point{Lat: lat, Lon: lon}, true
}

// ParseCoordinatePair parses an origin and destination. Both must be valid.
func ParseCoordinatePair(origin, destination *RawPoint) (Point, Point, bool) {
	o, ok := ParsePoint(origin)
	if !ok {
		return Point{}, Point{}, false
	}
	d, ok := ParsePoint(destination)
	if !ok {
		return Point{}, Point{}, false
	}
	return o, d, true
}

// ParseQueryPoint parses coordinates passed as query-string values.
// Empty strings and the literal "null" count as absent.
func ParseQueryPoint(latRaw, lonRaw string) (Point, bool) {
	if isAbsent(latRaw) || isAbsent(lonRaw) {
		return Point{}, false
	}
	return ParsePoint(&RawPoint{Lat: latRaw, Lon: lonRaw, object: true})
}

// ParseCurrentLocation resolves the caller's current location from the body
// first and the query-string channel second. An invalid body value does not
// prevent the query-string values from being used.
func ParseCurrentLocation(body *RawPoint, latRaw, lonRaw string) (Point, bool) {
	if p, ok := ParsePoint(body); ok {
		return p, true
	}
	return ParseQueryPoint(latRaw, lonRaw)
}

// ParseFloat converts a decoded JSON value into a float. Strings are
// accepted when they hold a number; NaN is rejected.
func ParseFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n)
	case float32:
		return float64(n), !math.IsNaN(float64(n))
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil && !math.IsNaN(f)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil && !math.IsNaN(f)
	default:
		return 0, false
	}
}

func isAbsent(raw string) bool {
	raw = strings.TrimSpace(raw)
	return raw == "" || strings.EqualFold(raw, "null")
}
