package engine

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"

	"github.com/wslny/wslny/internal/geo"
	"github.com/wslny/wslny/internal/routing"
)

// routeRequest is the routing service request body.
type routeRequest struct {
	Origin      wirePoint `json:"origin"`
	Destination wirePoint `json:"destination"`
	Mode        string    `json:"mode"`
}

type wirePoint struct {
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	Name string  `json:"name,omitempty"`
}

func (p *wirePoint) named() geo.NamedPoint {
	if p == nil {
		return geo.NamedPoint{}
	}
	return geo.NamedPoint{Name: p.Name, Point: geo.Point{Lat: p.Lat, Lon: p.Lon}}
}

// errMalformedResponse marks a body that carries neither response shape.
var errMalformedResponse = errors.New("malformed routing response")

// routeResponse covers both response shapes. Routes and Options stay raw so
// that a present null or empty list can be told apart from a missing field;
// the legacy fields are pointers for the same reason.
type routeResponse struct {
	Query   map[string]any  `json:"query,omitempty"`
	Routes  json.RawMessage `json:"routes,omitempty"`
	Options json.RawMessage `json:"options,omitempty"`

	// Legacy single-route shape.
	TotalDistanceMeters  *float64   `json:"total_distance_meters"`
	TotalDurationSeconds *float64   `json:"total_duration_seconds"`
	Steps                []wireStep `json:"steps,omitempty"`
}

type wireOption struct {
	Type                   string        `json:"type"`
	Found                  bool          `json:"found"`
	TotalDurationSeconds   float64       `json:"total_duration_seconds"`
	TotalDurationFormatted string        `json:"total_duration_formatted"`
	TotalSegments          int           `json:"total_segments"`
	TotalDistanceMeters    float64       `json:"total_distance_meters"`
	Segments               []wireSegment `json:"segments"`
}

type wireSegment struct {
	StartLocation   *wirePoint `json:"start_location"`
	EndLocation     *wirePoint `json:"end_location"`
	Method          string     `json:"method"`
	NumStops        int        `json:"num_stops"`
	DistanceMeters  float64    `json:"distance_meters"`
	DurationSeconds float64    `json:"duration_seconds"`
}

type wireStep struct {
	Instruction     string     `json:"instruction"`
	DistanceMeters  float64    `json:"distance_meters"`
	DurationSeconds float64    `json:"duration_seconds"`
	Type            string     `json:"type"`
	LineName        string     `json:"line_name"`
	StartLocation   *wirePoint `json:"start_location"`
	EndLocation     *wirePoint `json:"end_location"`
}

// toResult converts the wire response to the domain model. Routes wins
// over Options when both are present, and a null list is an empty one. A
// body without either list must carry the legacy totals or steps.
func (r *routeResponse) toResult() (*routing.Result, error) {
	raw := r.Routes
	if len(raw) == 0 {
		raw = r.Options
	}

	if len(raw) > 0 {
		var wire []wireOption
		if !bytes.Equal(raw, []byte("null")) {
			if err := json.Unmarshal(raw, &wire); err != nil {
				return nil, errMalformedResponse
			}
		}
		options := make([]routing.Option, 0, len(wire))
		for i := range wire {
			options = append(options, wire[i].toOption())
		}
		return routing.NewMultiResult(r.Query, options), nil
	}

	if len(r.Steps) == 0 && r.TotalDurationSeconds == nil && r.TotalDistanceMeters == nil {
		return nil, errMalformedResponse
	}

	steps := make([]routing.Step, 0, len(r.Steps))
	for i := range r.Steps {
		steps = append(steps, r.Steps[i].toStep())
	}
	return routing.NewLegacyResult(deref(r.TotalDistanceMeters), roundSeconds(deref(r.TotalDurationSeconds)), steps), nil
}

func (o *wireOption) toOption() routing.Option {
	segments := make([]routing.Segment, 0, len(o.Segments))
	for i := range o.Segments {
		s := &o.Segments[i]
		segments = append(segments, routing.Segment{
			Start:           s.StartLocation.named(),
			End:             s.EndLocation.named(),
			Method:          routing.Method(s.Method).Normalize(),
			NumStops:        s.NumStops,
			DistanceMeters:  s.DistanceMeters,
			DurationSeconds: s.DurationSeconds,
		})
	}

	return routing.Option{
		Type:                   o.Type,
		Found:                  o.Found,
		TotalDurationSeconds:   roundSeconds(o.TotalDurationSeconds),
		TotalDurationFormatted: o.TotalDurationFormatted,
		TotalDistanceMeters:    o.TotalDistanceMeters,
		TotalSegments:          o.TotalSegments,
		Segments:               segments,
	}
}

func (s *wireStep) toStep() routing.Step {
	step := routing.Step{
		Instruction:     s.Instruction,
		DistanceMeters:  s.DistanceMeters,
		DurationSeconds: s.DurationSeconds,
		Type:            s.Type,
		LineName:        s.LineName,
	}
	if s.StartLocation != nil {
		start := s.StartLocation.named()
		step.Start = &start
	}
	if s.EndLocation != nil {
		end := s.EndLocation.named()
		step.End = &end
	}
	return step
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func roundSeconds(v float64) int {
	return int(math.Round(v))
}
