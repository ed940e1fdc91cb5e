package models

import (
	"github.com/wslny/wslny/internal/geo"
	"github.com/wslny/wslny/internal/location"
	"github.com/wslny/wslny/internal/routing"
)

// RouteRequest is the body of the route and validate endpoints. Fields keep
// their raw JSON form so that validation can tell absent from malformed.
type RouteRequest struct {
	Text            any           `json:"text,omitempty"`
	Origin          *geo.RawPoint `json:"origin,omitempty"`
	Destination     *geo.RawPoint `json:"destination,omitempty"`
	CurrentLocation *geo.RawPoint `json:"current_location,omitempty"`
	Filter          any           `json:"filter,omitempty"`
}

// Location converts the body and the current-location query channel.
func (r RouteRequest) Location(currentLat, currentLon string) location.Request {
	return location.Request{
		Text:             textField(r.Text),
		Origin:           r.Origin,
		Destination:      r.Destination,
		CurrentLocation:  r.CurrentLocation,
		CurrentLatitude:  currentLat,
		CurrentLongitude: currentLon,
		Filter:           r.Filter,
	}
}

// SearchRequest is the body of the search endpoint.
type SearchRequest struct {
	DestinationText any           `json:"destination_text,omitempty"`
	CurrentLocation *geo.RawPoint `json:"current_location,omitempty"`
	Filter          any           `json:"filter,omitempty"`
}

// Location converts the body and the current-location query channel.
func (r SearchRequest) Location(currentLat, currentLon string) location.SearchRequest {
	return location.SearchRequest{
		DestinationText:  textField(r.DestinationText),
		CurrentLocation:  r.CurrentLocation,
		CurrentLatitude:  currentLat,
		CurrentLongitude: currentLon,
		Filter:           r.Filter,
	}
}

// ConfirmRequest is the body of the search confirmation endpoint.
type ConfirmRequest struct {
	CurrentLocation *geo.RawPoint `json:"current_location,omitempty"`
	Destination     *geo.RawPoint `json:"destination,omitempty"`
	Filter          any           `json:"filter,omitempty"`
}

// Location converts the body and the current-location query channel.
func (r ConfirmRequest) Location(currentLat, currentLon string) location.ConfirmRequest {
	return location.ConfirmRequest{
		CurrentLocation:  r.CurrentLocation,
		CurrentLatitude:  currentLat,
		CurrentLongitude: currentLon,
		Destination:      r.Destination,
		Filter:           r.Filter,
	}
}

// textField keeps string values only; any other JSON type counts as absent.
func textField(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	return &s
}

// RouteResponse is a successful orchestration.
type RouteResponse struct {
	RequestID string         `json:"request_id"`
	Source    string         `json:"source"`
	Intent    string         `json:"intent"`
	Filter    int            `json:"filter"`
	FromName  *string        `json:"from_name"`
	ToName    *string        `json:"to_name"`
	Query     map[string]any `json:"query"`
	Route     *RouteOption   `json:"route"`
}

// ConfirmationResponse asks the caller to confirm a suggested destination.
type ConfirmationResponse struct {
	RequestID            string               `json:"request_id"`
	Status               string               `json:"status"`
	Message              string               `json:"message"`
	SuggestedDestination SuggestedDestination `json:"suggested_destination"`
}

// SuggestedDestination is a past destination similar to the searched text.
type SuggestedDestination struct {
	Name       string  `json:"name"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	Confidence float64 `json:"confidence"`
}

// ErrorResponse is the orchestration error envelope.
type ErrorResponse struct {
	RequestID string      `json:"request_id"`
	Error     ErrorDetail `json:"error"`
}

// ErrorDetail carries the wire error code and message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RouteOption is a selected route.
type RouteOption struct {
	Type                   string         `json:"type"`
	Found                  bool           `json:"found"`
	TotalDurationSeconds   int            `json:"totalDurationSeconds"`
	TotalDurationFormatted string         `json:"totalDurationFormatted"`
	TotalSegments          int            `json:"totalSegments"`
	TotalDistanceMeters    float64        `json:"totalDistanceMeters"`
	Segments               []RouteSegment `json:"segments"`
	EstimatedFare          *float64       `json:"estimatedFare,omitempty"`
	WalkDistanceMeters     *float64       `json:"walkDistanceMeters,omitempty"`
	TransportSegments      *int           `json:"transportSegments,omitempty"`
}

// RouteSegment is one leg of a route.
type RouteSegment struct {
	StartLocation   SegmentLocation `json:"startLocation"`
	EndLocation     SegmentLocation `json:"endLocation"`
	Method          string          `json:"method"`
	NumStops        int             `json:"numStops"`
	DistanceMeters  float64         `json:"distanceMeters"`
	DurationSeconds float64         `json:"durationSeconds"`
}

// SegmentLocation is a named segment endpoint.
type SegmentLocation struct {
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	Name string  `json:"name"`
}

// NewRouteOption converts a domain route option. Cost fields are omitted
// until the option has been priced.
func NewRouteOption(opt *routing.Option) *RouteOption {
	if opt == nil {
		return nil
	}

	out := &RouteOption{
		Type:                   opt.Type,
		Found:                  opt.Found,
		TotalDurationSeconds:   opt.TotalDurationSeconds,
		TotalDurationFormatted: opt.TotalDurationFormatted,
		TotalSegments:          opt.TotalSegments,
		TotalDistanceMeters:    opt.TotalDistanceMeters,
		Segments:               make([]RouteSegment, 0, len(opt.Segments)),
	}

	for _, s := range opt.Segments {
		out.Segments = append(out.Segments, RouteSegment{
			StartLocation:   segmentLocation(s.Start),
			EndLocation:     segmentLocation(s.End),
			Method:          string(s.Method),
			NumStops:        s.NumStops,
			DistanceMeters:  s.DistanceMeters,
			DurationSeconds: s.DurationSeconds,
		})
	}

	if opt.Cost != nil {
		fare := opt.Cost.EstimatedFare
		walk := opt.Cost.WalkDistanceMeters
		transport := opt.Cost.TransportSegments
		out.EstimatedFare = &fare
		out.WalkDistanceMeters = &walk
		out.TransportSegments = &transport
	}

	return out
}

func segmentLocation(p geo.NamedPoint) SegmentLocation {
	return SegmentLocation{Lat: p.Point.Lat, Lon: p.Point.Lon, Name: p.Name}
}

// ValidateResponse is the result of strict request validation.
type ValidateResponse struct {
	Valid       bool   `json:"valid"`
	Source      string `json:"source"`
	Filter      int    `json:"filter"`
	FilterName  string `json:"filter_name"`
	Text        string `json:"text,omitempty"`
	Origin      *Point `json:"origin,omitempty"`
	Destination *Point `json:"destination,omitempty"`
}
