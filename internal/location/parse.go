// Package location resolves the origin and destination of a route request
// from map coordinates, free-form text or a confirmed suggestion.
package location

import (
	"strings"

	"github.com/wslny/wslny/internal/apperr"
	"github.com/wslny/wslny/internal/geo"
	"github.com/wslny/wslny/internal/history"
	"github.com/wslny/wslny/internal/preference"
)

// Request is a route request as received from the caller.
type Request struct {
	Text            *string
	Origin          *geo.RawPoint
	Destination     *geo.RawPoint
	CurrentLocation *geo.RawPoint

	// CurrentLatitude and CurrentLongitude are the query-string channel for
	// the current location.
	CurrentLatitude  string
	CurrentLongitude string

	Filter any
}

// Source reports the input mode implied by the request's fields: map when
// both coordinates are given without text, text otherwise.
func (r Request) Source() history.Source {
	if r.Origin != nil && r.Destination != nil && r.trimmedText() == "" {
		return history.SourceMap
	}
	return history.SourceText
}

func (r Request) trimmedText() string {
	if r.Text == nil {
		return ""
	}
	return strings.TrimSpace(*r.Text)
}

// Parsed is a validated route request. On a validation error it still
// carries whatever could be read, for the history record.
type Parsed struct {
	Source history.Source
	Filter preference.Filter

	// Text is the trimmed text query in text mode.
	Text string

	// Origin and Destination are set in map mode.
	Origin      geo.Point
	Destination geo.Point

	// CurrentLocation is the caller's location, if supplied and valid.
	CurrentLocation *geo.Point
}

// Parse validates req with lenient filter parsing.
func Parse(req Request) (Parsed, error) {
	p := Parsed{
		Source: history.SourceText,
		Filter: preference.Parse(req.Filter),
	}
	return parse(req, p)
}

// ParseStrict validates req and rejects unrecognized filters.
func ParseStrict(req Request) (Parsed, error) {
	p := Parsed{Source: history.SourceText, Filter: preference.Optimal}

	filter, err := preference.ParseStrict(req.Filter)
	if err != nil {
		if req.Text != nil {
			p.Text = strings.TrimSpace(*req.Text)
		}
		return p, apperr.InvalidFilter(req.Filter)
	}
	p.Filter = filter

	return parse(req, p)
}

func parse(req Request, p Parsed) (Parsed, error) {
	if current, ok := geo.ParseCurrentLocation(req.CurrentLocation, req.CurrentLatitude, req.CurrentLongitude); ok {
		p.CurrentLocation = &current
	}

	text := req.trimmedText()
	hasText := text != ""
	hasCoordinates := req.Origin != nil && req.Destination != nil

	switch {
	case hasText && hasCoordinates:
		p.Text = text
		return p, apperr.InvalidRequestMode()

	case hasCoordinates:
		p.Source = history.SourceMap
		origin, destination, ok := geo.ParseCoordinatePair(req.Origin, req.Destination)
		if !ok {
			return p, apperr.InvalidCoordinates()
		}
		p.Origin = origin
		p.Destination = destination
		return p, nil

	case hasText:
		p.Text = text
		return p, nil

	default:
		if req.Text != nil {
			p.Text = *req.Text
		}
		return p, apperr.InvalidRequestBody()
	}
}

// IsValidationError reports whether err came from request parsing.
func IsValidationError(err error) bool {
	e, ok := apperr.As(err)
	if !ok {
		return false
	}
	switch e.Kind {
	case apperr.KindInvalidRequestMode, apperr.KindInvalidCoordinates,
		apperr.KindInvalidRequestBody, apperr.KindInvalidFilter:
		return true
	default:
		return false
	}
}
