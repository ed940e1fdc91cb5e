package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wslny/wslny/internal/api/middleware"
	"github.com/wslny/wslny/internal/api/models"
	"github.com/wslny/wslny/internal/api/response"
	"github.com/wslny/wslny/internal/apperr"
	"github.com/wslny/wslny/internal/history"
	"github.com/wslny/wslny/internal/location"
	"github.com/wslny/wslny/internal/orchestrator"
)

const maxBodyBytes = 1 << 20

// Orchestrator runs route requests.
type Orchestrator interface {
	Route(ctx context.Context, userID string, req location.Request) (*orchestrator.Outcome, error)
	Search(ctx context.Context, userID string, req location.SearchRequest) (*orchestrator.Outcome, error)
	Confirm(ctx context.Context, userID string, req location.ConfirmRequest) (*orchestrator.Outcome, error)
	Validate(req location.Request) (location.Parsed, error)
}

var _ Orchestrator = (*orchestrator.Orchestrator)(nil)

// RouteHandler handles the route orchestration endpoints.
type RouteHandler struct {
	orchestrator Orchestrator
	logger       zerolog.Logger
}

// NewRouteHandler creates a new RouteHandler.
func NewRouteHandler(o Orchestrator, logger zerolog.Logger) *RouteHandler {
	return &RouteHandler{
		orchestrator: o,
		logger:       logger,
	}
}

// Route handles POST /api/route - resolve, route and select.
func (h *RouteHandler) Route(w http.ResponseWriter, r *http.Request) {
	var input models.RouteRequest
	h.decode(w, r, &input)

	lat, lon := currentLocationQuery(r)
	out, err := h.orchestrator.Route(r.Context(), middleware.GetUserID(r.Context()), input.Location(lat, lon))
	writeOutcome(w, out, err)
}

// Search handles POST /api/routes/search - route to a destination described
// in text, or suggest a past destination to confirm.
func (h *RouteHandler) Search(w http.ResponseWriter, r *http.Request) {
	var input models.SearchRequest
	h.decode(w, r, &input)

	lat, lon := currentLocationQuery(r)
	out, err := h.orchestrator.Search(r.Context(), middleware.GetUserID(r.Context()), input.Location(lat, lon))
	writeOutcome(w, out, err)
}

// Confirm handles POST /api/routes/search/confirm - route to a confirmed
// destination.
func (h *RouteHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var input models.ConfirmRequest
	h.decode(w, r, &input)

	lat, lon := currentLocationQuery(r)
	out, err := h.orchestrator.Confirm(r.Context(), middleware.GetUserID(r.Context()), input.Location(lat, lon))
	writeOutcome(w, out, err)
}

// Validate handles POST /api/routes/validate - strict request validation
// without upstream calls.
func (h *RouteHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var input models.RouteRequest
	h.decode(w, r, &input)

	lat, lon := currentLocationQuery(r)
	parsed, err := h.orchestrator.Validate(input.Location(lat, lon))
	if err != nil {
		response.AppError(w, uuid.NewString(), asAppError(err))
		return
	}

	resp := models.ValidateResponse{
		Valid:      true,
		Source:     string(parsed.Source),
		Filter:     parsed.Filter.Enum(),
		FilterName: parsed.Filter.String(),
	}
	if parsed.Source == history.SourceMap {
		resp.Origin = &models.Point{Lat: parsed.Origin.Lat, Lon: parsed.Origin.Lon}
		resp.Destination = &models.Point{Lat: parsed.Destination.Lat, Lon: parsed.Destination.Lon}
	} else {
		resp.Text = parsed.Text
	}

	response.JSON(w, r, http.StatusOK, resp)
}

// decode reads the JSON body into v. A missing or malformed body leaves v
// empty so that the orchestrator reports it as an invalid request body and
// records the attempt.
func (h *RouteHandler) decode(w http.ResponseWriter, r *http.Request, v interface{}) {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Debug().
			Err(err).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Msg("ignoring malformed request body")
	}
}

func currentLocationQuery(r *http.Request) (string, string) {
	q := r.URL.Query()
	return q.Get("current_latitude"), q.Get("current_longitude")
}

func writeOutcome(w http.ResponseWriter, out *orchestrator.Outcome, err error) {
	if err != nil {
		response.AppError(w, out.RequestID, asAppError(err))
		return
	}

	if out.ConfirmationRequired() {
		s := out.Suggestion
		response.Envelope(w, out.RequestID, http.StatusOK, models.ConfirmationResponse{
			RequestID: out.RequestID,
			Status:    "confirmation_required",
			Message:   fmt.Sprintf("Do you mean '%s'?", s.Name),
			SuggestedDestination: models.SuggestedDestination{
				Name:       s.Name,
				Lat:        s.Point.Lat,
				Lon:        s.Point.Lon,
				Confidence: s.Confidence,
			},
		})
		return
	}

	resp := models.RouteResponse{
		RequestID: out.RequestID,
		Source:    string(out.Source),
		Intent:    out.Intent,
		Filter:    out.Filter.Enum(),
		Query:     out.Query,
		Route:     models.NewRouteOption(out.Route),
	}
	if out.From != nil && out.From.Name != "" {
		resp.FromName = &out.From.Name
	}
	if out.To != nil && out.To.Name != "" {
		resp.ToName = &out.To.Name
	}

	response.Envelope(w, out.RequestID, http.StatusOK, resp)
}

func asAppError(err error) *apperr.Error {
	if e, ok := apperr.As(err); ok {
		return e
	}
	return apperr.ServiceConfiguration(err)
}
