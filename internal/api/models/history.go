package models

import (
	"github.com/wslny/wslny/internal/history"
)

// HistoryItem is one past route request of the caller.
type HistoryItem struct {
	RequestID            string    `json:"request_id"`
	SourceType           string    `json:"source_type"`
	InputText            *string   `json:"input_text"`
	Filter               string    `json:"filter"`
	SelectedRouteType    *string   `json:"selected_route_type"`
	OriginName           *string   `json:"origin_name"`
	DestinationName      *string   `json:"destination_name"`
	Status               string    `json:"status"`
	ErrorCode            *string   `json:"error_code"`
	TotalDistanceMeters  *float64  `json:"total_distance_meters"`
	TotalDurationSeconds *float64  `json:"total_duration_seconds"`
	EstimatedFare        *float64  `json:"estimated_fare"`
	WalkDistanceMeters   *float64  `json:"walk_distance_meters"`
	CreatedAt            Timestamp `json:"created_at"`
}

// NewHistoryItem converts a history record.
func NewHistoryItem(rec *history.Record) HistoryItem {
	return HistoryItem{
		RequestID:            rec.RequestID,
		SourceType:           string(rec.SourceType),
		InputText:            optional(rec.InputText),
		Filter:               rec.Preference,
		SelectedRouteType:    optional(rec.SelectedRouteType),
		OriginName:           optional(rec.OriginName),
		DestinationName:      optional(rec.DestinationName),
		Status:               string(rec.Status),
		ErrorCode:            optional(rec.ErrorCode),
		TotalDistanceMeters:  rec.TotalDistanceMeters,
		TotalDurationSeconds: rec.TotalDurationSeconds,
		EstimatedFare:        rec.EstimatedFare,
		WalkDistanceMeters:   rec.WalkDistanceMeters,
		CreatedAt:            Timestamp(rec.CreatedAt),
	}
}

// SelectionRequest records the route option the caller picked.
type SelectionRequest struct {
	SelectedRouteType string `json:"selected_route_type" validate:"required,max=64,printascii"`
}

// optional maps "" to nil so that unset columns render as null.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// HistoryResponse lists the caller's route history.
type HistoryResponse struct {
	Items []HistoryItem `json:"items"`
}
