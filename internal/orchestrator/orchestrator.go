// Package orchestrator sequences a route request through location
// resolution, routing, pricing and selection, and records every attempt.
package orchestrator

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wslny/wslny/internal/apperr"
	"github.com/wslny/wslny/internal/fare"
	"github.com/wslny/wslny/internal/geo"
	"github.com/wslny/wslny/internal/history"
	"github.com/wslny/wslny/internal/location"
	"github.com/wslny/wslny/internal/preference"
	"github.com/wslny/wslny/internal/routing"
	"github.com/wslny/wslny/internal/selector"
	"github.com/wslny/wslny/internal/telemetry"
)

const tracerName = "github.com/wslny/wslny/internal/orchestrator"

// Resolver resolves request endpoints.
type Resolver interface {
	Resolve(ctx context.Context, p location.Parsed) (location.Resolution, error)
	ResolveSearch(ctx context.Context, req location.SearchRequest) (location.Resolution, error)
	ResolveConfirm(ctx context.Context, req location.ConfirmRequest) (location.Resolution, error)
}

// HistoryRecorder accepts history records. Record must not block.
type HistoryRecorder interface {
	Record(rec *history.Record)
}

// Config holds the orchestrator's collaborators.
type Config struct {
	// Resolver resolves endpoints (required).
	Resolver Resolver

	// Router calls the routing service (required).
	Router routing.Gateway

	// Estimator prices route options (default: built-in fare table).
	Estimator *fare.Estimator

	// History receives one record per request (optional).
	History HistoryRecorder

	// BootError is set when an upstream client failed to construct. Every
	// request then fails with a service configuration error.
	BootError error

	// Tracer for stage spans (default: global tracer).
	Tracer trace.Tracer

	// Logger for orchestration outcomes.
	Logger zerolog.Logger

	// Now and NewRequestID are overridable for tests.
	Now          func() time.Time
	NewRequestID func() string
}

// Orchestrator runs route requests.
type Orchestrator struct {
	resolver     Resolver
	router       routing.Gateway
	estimator    *fare.Estimator
	history      HistoryRecorder
	bootErr      error
	tracer       trace.Tracer
	logger       zerolog.Logger
	now          func() time.Time
	newRequestID func() string
}

// New creates a new orchestrator.
func New(cfg Config) *Orchestrator {
	estimator := cfg.Estimator
	if estimator == nil {
		estimator = fare.NewEstimator(fare.DefaultTable())
	}

	tracer := cfg.Tracer
	if tracer == nil {
		tracer = telemetry.Tracer(tracerName)
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	newRequestID := cfg.NewRequestID
	if newRequestID == nil {
		newRequestID = uuid.NewString
	}

	return &Orchestrator{
		resolver:     cfg.Resolver,
		router:       cfg.Router,
		estimator:    estimator,
		history:      cfg.History,
		bootErr:      cfg.BootError,
		tracer:       tracer,
		logger:       cfg.Logger,
		now:          now,
		newRequestID: newRequestID,
	}
}

// Route resolves and routes a text or map request.
//
// The returned Outcome is never nil and always carries the request id. The
// error, if any, is an *apperr.Error.
func (o *Orchestrator) Route(ctx context.Context, userID string, req location.Request) (*Outcome, error) {
	r := o.begin(userID, req.Source(), preference.Optimal)

	if err := o.ready(); err != nil {
		if req.Text != nil {
			r.text = *req.Text
		}
		return o.fail(r, err)
	}

	parsed, err := location.Parse(req)
	r.source = parsed.Source
	r.filter = parsed.Filter
	r.text = parsed.Text
	if err != nil {
		return o.fail(r, err)
	}

	if _, err := o.resolve(ctx, r, func(ctx context.Context) (location.Resolution, error) {
		return o.resolver.Resolve(ctx, parsed)
	}); err != nil {
		return o.fail(r, err)
	}

	return o.routeAndSelect(ctx, r)
}

// Search routes from the caller's current location to a destination named in
// text. When the destination cannot be found but a similar past destination
// exists, the Outcome carries a Suggestion and no route.
func (o *Orchestrator) Search(ctx context.Context, userID string, req location.SearchRequest) (*Outcome, error) {
	r := o.begin(userID, history.SourceText, preference.Parse(req.Filter))

	if err := o.ready(); err != nil {
		return o.fail(r, err)
	}

	res, err := o.resolve(ctx, r, func(ctx context.Context) (location.Resolution, error) {
		return o.resolver.ResolveSearch(ctx, req)
	})
	if err != nil {
		return o.fail(r, err)
	}

	if res.Suggestion != nil {
		return o.confirmationRequired(r, res.Suggestion)
	}

	return o.routeAndSelect(ctx, r)
}

// Confirm routes from the caller's current location to a destination the
// caller confirmed.
func (o *Orchestrator) Confirm(ctx context.Context, userID string, req location.ConfirmRequest) (*Outcome, error) {
	r := o.begin(userID, history.SourceMap, preference.Parse(req.Filter))

	if err := o.ready(); err != nil {
		return o.fail(r, err)
	}

	if _, err := o.resolve(ctx, r, func(ctx context.Context) (location.Resolution, error) {
		return o.resolver.ResolveConfirm(ctx, req)
	}); err != nil {
		return o.fail(r, err)
	}

	return o.routeAndSelect(ctx, r)
}

// Validate checks a route request with strict filter parsing. It makes no
// upstream calls and records no history.
func (o *Orchestrator) Validate(req location.Request) (location.Parsed, error) {
	parsed, err := location.ParseStrict(req)
	if err != nil {
		o.logger.Debug().Err(err).Msg("route request failed validation")
	}
	return parsed, err
}

func (o *Orchestrator) ready() error {
	if o.bootErr != nil {
		return apperr.ServiceConfiguration(o.bootErr)
	}
	if o.resolver == nil || o.router == nil {
		return apperr.ServiceConfiguration(nil)
	}
	return nil
}

func (o *Orchestrator) begin(userID string, source history.Source, filter preference.Filter) *run {
	return &run{
		id:     o.newRequestID(),
		userID: userID,
		start:  o.now(),
		source: source,
		filter: filter,
	}
}

func (o *Orchestrator) resolve(ctx context.Context, r *run, fn func(context.Context) (location.Resolution, error)) (location.Resolution, error) {
	ctx, span := o.tracer.Start(ctx, "resolve", trace.WithAttributes(
		attribute.String("request.id", r.id),
		attribute.String("route.source", string(r.source)),
	))
	defer span.End()

	res, err := fn(ctx)
	r.apply(res)
	if err != nil {
		if _, ok := apperr.As(err); !ok {
			err = apperr.FromExtraction(err)
		}
		telemetry.Fail(span, err, "resolve failed")
	}
	return res, err
}

func (o *Orchestrator) routeAndSelect(ctx context.Context, r *run) (*Outcome, error) {
	start := o.now()

	routeCtx, span := o.tracer.Start(ctx, "routing", trace.WithAttributes(
		attribute.String("request.id", r.id),
		attribute.String("route.filter", r.filter.String()),
	))
	result, err := o.router.GetRoute(routeCtx, r.from.Point, r.to.Point, r.filter)
	if err != nil {
		telemetry.Fail(span, err, "routing failed")
		span.End()
		r.setRouting(o.now().Sub(start))
		return o.fail(r, apperr.FromRouting(err))
	}
	span.End()

	_, span = o.tracer.Start(ctx, "select")
	candidates := o.estimator.Annotate(result.Candidates())
	selected, ok := selector.Select(candidates, r.filter)
	span.SetAttributes(
		attribute.Int("route.candidates", len(candidates)),
		attribute.Bool("route.matched", ok),
	)
	span.End()

	r.setRouting(o.now().Sub(start))
	if !ok {
		return o.fail(r, apperr.NoMatchingFilter(r.filter))
	}
	r.selected = &selected

	route := selected
	route.Type = r.filter.String()

	out := r.outcome()
	out.Route = &route
	out.Query = buildQuery(result, r.from.Point, r.to.Point)

	rec := o.newRecord(r, history.StatusSuccess)
	o.record(rec)

	o.logger.Info().
		Str("request_id", r.id).
		Str("source", string(r.source)).
		Str("filter", r.filter.String()).
		Str("selected_type", selected.Type).
		Int("candidates", len(candidates)).
		Dur("total_latency", o.now().Sub(r.start)).
		Msg("route selected")

	return out, nil
}

func (o *Orchestrator) confirmationRequired(r *run, s *location.Suggestion) (*Outcome, error) {
	rec := o.newRecord(r, history.StatusFailed)
	rec.ErrorCode = ConfirmationRequiredCode
	rec.ErrorMessage = "Closest destination suggestion returned."
	rec.UnresolvedReason = "destination_confirmation_required"
	o.record(rec)

	o.logger.Info().
		Str("request_id", r.id).
		Str("suggestion", s.Name).
		Float64("confidence", s.Confidence).
		Msg("destination confirmation required")

	out := r.outcome()
	out.Suggestion = s
	return out, nil
}

func (o *Orchestrator) fail(r *run, err error) (*Outcome, error) {
	e, ok := apperr.As(err)
	if !ok {
		e = apperr.ServiceConfiguration(err)
	}

	rec := o.newRecord(r, history.StatusFailed)
	rec.ErrorCode = e.Code
	rec.ErrorMessage = e.Message
	rec.UnresolvedReason = e.Reason
	o.record(rec)

	event := o.logger.Warn().
		Str("request_id", r.id).
		Str("source", string(r.source)).
		Str("filter", r.filter.String()).
		Str("error_code", e.Code).
		Dur("total_latency", o.now().Sub(r.start))
	if r.extraction != nil {
		event = event.Dur("extraction_latency", *r.extraction)
	}
	if r.routing != nil {
		event = event.Dur("routing_latency", *r.routing)
	}
	if e.Cause != nil {
		event = event.AnErr("cause", e.Cause)
	}
	event.Msg("route request failed")

	return r.outcome(), e
}

func (o *Orchestrator) newRecord(r *run, status history.Status) *history.Record {
	now := o.now()

	rec := &history.Record{
		RequestID:      r.id,
		UserID:         r.userID,
		SourceType:     r.source,
		InputText:      r.text,
		Preference:     r.filter.String(),
		Status:         status,
		TotalLatencyMS: millis(now.Sub(r.start)),
		CreatedAt:      now.UTC(),
	}

	if r.from != nil {
		rec.OriginName = r.from.Name
		rec.OriginLat = ptr(r.from.Point.Lat)
		rec.OriginLon = ptr(r.from.Point.Lon)
	}
	if r.to != nil {
		rec.DestinationName = r.to.Name
		rec.DestinationLat = ptr(r.to.Point.Lat)
		rec.DestinationLon = ptr(r.to.Point.Lon)
	}
	if r.extraction != nil {
		rec.ExtractionLatencyMS = millis(*r.extraction)
	}
	if r.routing != nil {
		rec.RoutingLatencyMS = millis(*r.routing)
	}

	if sel := r.selected; sel != nil {
		rec.SelectedRouteType = sel.Type
		rec.TotalDistanceMeters = ptr(sel.TotalDistanceMeters)
		rec.TotalDurationSeconds = ptr(float64(sel.TotalDurationSeconds))
		rec.StepCount = ptr(sel.TotalSegments)
		rec.HasResult = sel.Found
		if sel.Cost != nil {
			rec.EstimatedFare = ptr(sel.Cost.EstimatedFare)
			rec.WalkDistanceMeters = ptr(sel.Cost.WalkDistanceMeters)
		}
	}

	return rec
}

func (o *Orchestrator) record(rec *history.Record) {
	if o.history == nil {
		return
	}
	o.history.Record(rec)
}

func buildQuery(result *routing.Result, from, to geo.Point) map[string]any {
	if result.Multi() && result.Query != nil {
		return result.Query
	}
	return map[string]any{
		"origin":      map[string]any{"lat": from.Lat, "lon": from.Lon},
		"destination": map[string]any{"lat": to.Lat, "lon": to.Lon},
	}
}

func ptr[T any](v T) *T {
	return &v
}

func millis(d time.Duration) *int64 {
	ms := d.Milliseconds()
	return &ms
}
