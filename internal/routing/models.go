// Package routing defines the route-finding domain: candidate route options,
// their segments, and the two result shapes returned by the routing service.
package routing

import (
	"context"
	"strings"

	"github.com/wslny/wslny/internal/geo"
	"github.com/wslny/wslny/internal/preference"
)

// Method is the transport method of a segment.
type Method string

// Transport methods.
const (
	MethodWalking  Method = "walking"
	MethodBus      Method = "bus"
	MethodMicrobus Method = "microbus"
	MethodMetro    Method = "metro"
)

// Methods returns every known transport method.
func Methods() []Method {
	return []Method{MethodWalking, MethodBus, MethodMicrobus, MethodMetro}
}

// Normalize lowercases and trims the method.
func (m Method) Normalize() Method {
	return Method(strings.ToLower(strings.TrimSpace(string(m))))
}

// Segment is one leg of a route option.
type Segment struct {
	Start           geo.NamedPoint
	End             geo.NamedPoint
	Method          Method
	NumStops        int
	DistanceMeters  float64
	DurationSeconds float64
}

// Cost holds the values derived by fare estimation.
type Cost struct {
	// EstimatedFare is the total fare in the table currency.
	EstimatedFare float64

	// WalkDistanceMeters is the summed distance of walking segments.
	WalkDistanceMeters float64

	// TransportSegments counts non-walking segments.
	TransportSegments int
}

// Option is one candidate route returned by the routing service.
type Option struct {
	Type                   string
	Found                  bool
	TotalDurationSeconds   int
	TotalDurationFormatted string
	TotalDistanceMeters    float64
	TotalSegments          int
	Segments               []Segment

	// Cost is nil until the option has been priced.
	Cost *Cost
}

// Step is one instruction of a legacy single-route result.
type Step struct {
	Instruction     string
	DistanceMeters  float64
	DurationSeconds float64
	Type            string
	LineName        string
	Start           *geo.NamedPoint
	End             *geo.NamedPoint
}

// Result is a routing service response in either shape.
//
// The multi-candidate shape carries Options (possibly empty). The legacy
// shape carries totals and Steps.
type Result struct {
	Query   map[string]any
	Options []Option

	TotalDistanceMeters  float64
	TotalDurationSeconds int
	Steps                []Step

	hasOptions bool
}

// NewMultiResult returns a multi-candidate result.
func NewMultiResult(query map[string]any, options []Option) *Result {
	return &Result{Query: query, Options: options, hasOptions: true}
}

// NewLegacyResult returns a legacy single-route result.
func NewLegacyResult(distanceMeters float64, durationSeconds int, steps []Step) *Result {
	return &Result{
		TotalDistanceMeters:  distanceMeters,
		TotalDurationSeconds: durationSeconds,
		Steps:                steps,
	}
}

// Multi reports whether the response carried an options or routes field.
func (r *Result) Multi() bool {
	return r != nil && r.hasOptions
}

// Candidates returns the options to price and select from. A legacy result
// yields its implicit option.
func (r *Result) Candidates() []Option {
	if r == nil {
		return nil
	}
	if r.Multi() {
		out := make([]Option, len(r.Options))
		copy(out, r.Options)
		return out
	}
	return []Option{r.ImplicitOption()}
}

// ImplicitOption converts a legacy result into a single found optimal option.
// Segment methods come from step types; names are empty and stop counts zero.
func (r *Result) ImplicitOption() Option {
	segments := make([]Segment, 0, len(r.Steps))
	for _, step := range r.Steps {
		seg := Segment{
			Method:          Method(step.Type).Normalize(),
			DistanceMeters:  step.DistanceMeters,
			DurationSeconds: step.DurationSeconds,
		}
		if step.Start != nil {
			seg.Start.Point = step.Start.Point
		}
		if step.End != nil {
			seg.End.Point = step.End.Point
		}
		segments = append(segments, seg)
	}

	return Option{
		Type:                 preference.Optimal.String(),
		Found:                true,
		TotalDurationSeconds: r.TotalDurationSeconds,
		TotalDistanceMeters:  r.TotalDistanceMeters,
		TotalSegments:        len(r.Steps),
		Segments:             segments,
	}
}

// Gateway computes routes between two points.
type Gateway interface {
	// GetRoute returns the routing result for the given mode.
	// Failures are returned as *provider.Error.
	GetRoute(ctx context.Context, origin, destination geo.Point, mode preference.Filter) (*Result, error)
}

// Provider is a routing service backend.
type Provider interface {
	Gateway

	// Name returns the provider identifier for logging and metrics.
	Name() string
}
