package handler

import (
	"net/http"

	"github.com/wslny/wslny/internal/api/models"
	"github.com/wslny/wslny/internal/api/response"
	"github.com/wslny/wslny/internal/history"
	"github.com/wslny/wslny/internal/preference"
	"github.com/wslny/wslny/internal/routing"
)

// MetadataHandler handles metadata endpoints.
type MetadataHandler struct {
	metadata models.Metadata
}

// NewMetadataHandler creates a new MetadataHandler.
func NewMetadataHandler() *MetadataHandler {
	filters := make([]models.FilterInfo, 0, len(preference.All()))
	for _, f := range preference.All() {
		filters = append(filters, models.FilterInfo{Value: f.Enum(), Name: f.String()})
	}

	methods := make([]string, 0, len(routing.Methods()))
	for _, m := range routing.Methods() {
		methods = append(methods, string(m))
	}

	return &MetadataHandler{
		metadata: models.Metadata{
			Filters:      filters,
			RequestModes: []string{string(history.SourceText), string(history.SourceMap)},
			QueryParams: []models.QueryParam{
				{Name: "current_latitude", Type: "float", Required: false, Nullable: true},
				{Name: "current_longitude", Type: "float", Required: false, Nullable: true},
			},
			CoordinateBounds: models.CoordinateBounds{
				Latitude:  models.Range{Min: -90, Max: 90},
				Longitude: models.Range{Min: -180, Max: 180},
			},
			TransportMethods: methods,
		},
	}
}

// GetMetadata handles GET /api/routes/metadata - accepted filters, request
// modes and coordinate bounds.
func (h *MetadataHandler) GetMetadata(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=3600")
	response.JSON(w, r, http.StatusOK, h.metadata)
}
