package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/wslny/wslny/internal/api/middleware"
	"github.com/wslny/wslny/internal/api/models"
	"github.com/wslny/wslny/internal/api/response"
	"github.com/wslny/wslny/internal/history"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 100
)

// HistoryHandler handles the caller's route history.
type HistoryHandler struct {
	store    history.Store
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(store history.Store, logger zerolog.Logger) *HistoryHandler {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})

	return &HistoryHandler{
		store:    store,
		validate: validate,
		logger:   logger,
	}
}

// List handles GET /api/route/history - the caller's records, newest first.
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	records, err := h.store.ListByUser(r.Context(), userID, historyLimit(r.URL.Query().Get("limit")))
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Msg("failed to list route history")
		response.ServiceUnavailable(w, r, "route history is unavailable")
		return
	}

	items := make([]models.HistoryItem, 0, len(records))
	for _, rec := range records {
		items = append(items, models.NewHistoryItem(rec))
	}

	response.JSON(w, r, http.StatusOK, models.HistoryResponse{Items: items})
}

// RecordSelection handles POST /api/route/history/{requestId}/selection -
// record the route option the caller picked.
func (h *HistoryHandler) RecordSelection(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "requestId")

	var input models.SelectionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	if err := h.validate.Struct(input); err != nil {
		response.BadRequest(w, r, "validation error", fieldErrors(err))
		return
	}

	err := h.store.RecordSelection(r.Context(), requestID, middleware.GetUserID(r.Context()), input.SelectedRouteType)
	switch {
	case errors.Is(err, history.ErrRecordNotFound):
		response.NotFound(w, r, "route request not found")
	case err != nil:
		h.logger.Error().
			Err(err).
			Str("route_request_id", requestID).
			Msg("failed to record route selection")
		response.ServiceUnavailable(w, r, "route history is unavailable")
	default:
		response.NoContent(w, r)
	}
}

// historyLimit parses the limit query parameter, clamped to 1..100.
func historyLimit(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return defaultHistoryLimit
	}
	if n < 1 {
		return 1
	}
	if n > maxHistoryLimit {
		return maxHistoryLimit
	}
	return n
}

func fieldErrors(err error) []models.FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []models.FieldError{{Message: err.Error()}}
	}

	out := make([]models.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, models.FieldError{
			Field:   fe.Field(),
			Message: "failed on the '" + fe.Tag() + "' rule",
			Code:    fe.Tag(),
		})
	}
	return out
}
