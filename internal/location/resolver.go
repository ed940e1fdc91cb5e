package location

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/wslny/wslny/internal/apperr"
	"github.com/wslny/wslny/internal/extraction"
	"github.com/wslny/wslny/internal/geo"
	"github.com/wslny/wslny/internal/history"
	"github.com/wslny/wslny/internal/provider"
)

const (
	// CurrentLocationName names an origin taken from the caller's location.
	CurrentLocationName = "current_location"

	// DefaultDestinationName names a confirmed destination sent without a name.
	DefaultDestinationName = "Destination"

	intentDirect  = "direct_coordinates"
	intentUnknown = "unknown"
	intentSearch  = "standard"
	intentConfirm = "confirm_destination"
)

// Extractor turns free-form text into route endpoints.
type Extractor interface {
	ExtractRoute(ctx context.Context, text string) (*extraction.Result, error)
}

// SearchRequest is a destination-only text search.
type SearchRequest struct {
	DestinationText  *string
	CurrentLocation  *geo.RawPoint
	CurrentLatitude  string
	CurrentLongitude string
	Filter           any
}

// ConfirmRequest confirms a destination returned by a search.
type ConfirmRequest struct {
	CurrentLocation  *geo.RawPoint
	CurrentLatitude  string
	CurrentLongitude string
	Destination      *geo.RawPoint
	Filter           any
}

// Resolution is a resolved pair of endpoints. On failure it still carries
// whatever was resolved, for the history record.
type Resolution struct {
	Source history.Source
	Intent string

	// Text is the text the caller sent, if any.
	Text string

	From *geo.NamedPoint
	To   *geo.NamedPoint

	// ExtractionLatency is set when the extraction service was called.
	ExtractionLatency *time.Duration

	// Suggestion is set when a search found no destination but a similar
	// past destination exists. From and To are set to the current location
	// and the suggested destination.
	Suggestion *Suggestion
}

// ResolverConfig holds configuration for the resolver.
type ResolverConfig struct {
	// Extractor resolves text queries (required for text and search).
	Extractor Extractor

	// Suggester proposes past destinations when search finds none (optional).
	Suggester *Suggester

	// Logger for resolver operations.
	Logger zerolog.Logger
}

// Resolver resolves request endpoints.
type Resolver struct {
	extractor Extractor
	suggester *Suggester
	logger    zerolog.Logger
}

// NewResolver creates a new resolver.
func NewResolver(cfg ResolverConfig) *Resolver {
	return &Resolver{
		extractor: cfg.Extractor,
		suggester: cfg.Suggester,
		logger:    cfg.Logger,
	}
}

// Resolve resolves the endpoints of a parsed route request.
func (r *Resolver) Resolve(ctx context.Context, p Parsed) (Resolution, error) {
	if p.Source == history.SourceMap {
		return Resolution{
			Source: history.SourceMap,
			Intent: intentDirect,
			From:   &geo.NamedPoint{Point: p.Origin},
			To:     &geo.NamedPoint{Point: p.Destination},
		}, nil
	}

	res := Resolution{Source: history.SourceText, Intent: intentUnknown, Text: p.Text}

	result, latency, err := r.extract(ctx, p.Text)
	res.ExtractionLatency = &latency
	if err != nil {
		return res, upstreamError(err)
	}
	if result.Intent != "" {
		res.Intent = result.Intent
	}

	if !result.HasDestination() {
		return res, apperr.ExtractionEmpty()
	}

	switch {
	case result.HasOrigin():
		res.From = &geo.NamedPoint{Name: result.FromLocation, Point: *result.FromCoords}
	case p.CurrentLocation != nil:
		res.From = &geo.NamedPoint{Name: CurrentLocationName, Point: *p.CurrentLocation}
	default:
		return res, apperr.SourceRequired()
	}
	res.To = &geo.NamedPoint{Name: result.ToLocation, Point: *result.ToCoords}

	return res, nil
}

// ResolveSearch resolves a destination from text, routing from the caller's
// current location. When extraction finds nothing it falls back to the
// closest past destination, returned as a Suggestion.
func (r *Resolver) ResolveSearch(ctx context.Context, req SearchRequest) (Resolution, error) {
	res := Resolution{Source: history.SourceText, Intent: intentSearch}

	if req.DestinationText != nil {
		res.Text = strings.TrimSpace(*req.DestinationText)
	}
	if res.Text == "" {
		return res, apperr.DestinationTextRequired()
	}

	current, ok := geo.ParseCurrentLocation(req.CurrentLocation, req.CurrentLatitude, req.CurrentLongitude)
	if !ok {
		return res, apperr.CurrentLocationRequired()
	}
	res.From = &geo.NamedPoint{Name: CurrentLocationName, Point: current}

	result, latency, err := r.extract(ctx, res.Text)
	res.ExtractionLatency = &latency
	if err != nil {
		switch provider.CodeOf(err) {
		case provider.CodeInvalidArgument, provider.CodeNotFound:
			result = nil
		default:
			return res, upstreamError(err)
		}
	}

	if result.HasDestination() {
		if result.Intent != "" {
			res.Intent = result.Intent
		}
		name := result.ToLocation
		if name == "" {
			name = res.Text
		}
		res.To = &geo.NamedPoint{Name: name, Point: *result.ToCoords}
		return res, nil
	}

	suggestion := r.suggest(ctx, res.Text)
	if suggestion == nil {
		return res, apperr.DestinationNotFound()
	}

	res.Suggestion = suggestion
	res.To = &geo.NamedPoint{Name: suggestion.Name, Point: suggestion.Point}
	return res, nil
}

// ResolveConfirm resolves a confirmed destination, routing from the caller's
// current location.
func (r *Resolver) ResolveConfirm(_ context.Context, req ConfirmRequest) (Resolution, error) {
	res := Resolution{Source: history.SourceMap, Intent: intentConfirm}

	current, ok := geo.ParseCurrentLocation(req.CurrentLocation, req.CurrentLatitude, req.CurrentLongitude)
	if !ok {
		return res, apperr.CurrentLocationRequired()
	}
	res.From = &geo.NamedPoint{Name: CurrentLocationName, Point: current}

	if !req.Destination.IsObject() {
		return res, apperr.DestinationRequired()
	}

	destination, ok := geo.ParsePoint(req.Destination)
	if !ok {
		return res, apperr.InvalidDestinationCoordinates()
	}

	name := req.Destination.NameString()
	if name == "" {
		name = DefaultDestinationName
	}
	res.Text = name
	res.To = &geo.NamedPoint{Name: name, Point: destination}

	return res, nil
}

func (r *Resolver) extract(ctx context.Context, text string) (*extraction.Result, time.Duration, error) {
	if r.extractor == nil {
		return nil, 0, apperr.ServiceConfiguration(nil)
	}

	start := time.Now()
	result, err := r.extractor.ExtractRoute(ctx, text)
	return result, time.Since(start), err
}

func upstreamError(err error) error {
	if e, ok := apperr.As(err); ok {
		return e
	}
	return apperr.FromExtraction(err)
}

func (r *Resolver) suggest(ctx context.Context, text string) *Suggestion {
	if r.suggester == nil {
		return nil
	}

	suggestion, err := r.suggester.Suggest(ctx, text)
	if err != nil {
		r.logger.Warn().Err(err).Msg("destination suggestion failed")
		return nil
	}
	return suggestion
}
