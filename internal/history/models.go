// Package history records every route orchestration attempt.
//
// Records are append-only. The only later change is recording which route
// option the rider picked, keyed by request id.
package history

import (
	"context"
	"errors"
	"time"
)

// Source is how the request described its endpoints.
type Source string

// Request sources.
const (
	SourceText Source = "text"
	SourceMap  Source = "map"
)

// Status is the terminal status of an attempt.
type Status string

// Attempt statuses.
const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// ErrRecordNotFound is returned when no record matches.
var ErrRecordNotFound = errors.New("history record not found")

// Record is one orchestration attempt.
type Record struct {
	ID        string `json:"id"`
	RequestID string `json:"request_id"`
	UserID    string `json:"user_id,omitempty"`

	SourceType        Source `json:"source_type"`
	InputText         string `json:"input_text,omitempty"`
	Preference        string `json:"preference"`
	SelectedRouteType string `json:"selected_route_type,omitempty"`

	OriginName      string   `json:"origin_name,omitempty"`
	DestinationName string   `json:"destination_name,omitempty"`
	OriginLat       *float64 `json:"origin_lat,omitempty"`
	OriginLon       *float64 `json:"origin_lon,omitempty"`
	DestinationLat  *float64 `json:"destination_lat,omitempty"`
	DestinationLon  *float64 `json:"destination_lon,omitempty"`

	Status           Status `json:"status"`
	ErrorCode        string `json:"error_code,omitempty"`
	ErrorMessage     string `json:"error_message,omitempty"`
	UnresolvedReason string `json:"unresolved_reason,omitempty"`

	TotalDistanceMeters  *float64 `json:"total_distance_meters,omitempty"`
	TotalDurationSeconds *float64 `json:"total_duration_seconds,omitempty"`
	StepCount            *int     `json:"step_count,omitempty"`
	EstimatedFare        *float64 `json:"estimated_fare,omitempty"`
	WalkDistanceMeters   *float64 `json:"walk_distance_meters,omitempty"`
	HasResult            bool     `json:"has_result"`

	ExtractionLatencyMS *int64 `json:"extraction_latency_ms,omitempty"`
	RoutingLatencyMS    *int64 `json:"routing_latency_ms,omitempty"`
	TotalLatencyMS      *int64 `json:"total_latency_ms,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Destination is a previously requested destination.
type Destination struct {
	Name string
	Lat  float64
	Lon  float64
}

// Writer persists records.
type Writer interface {
	// Create stores a record. A record whose request id already exists is
	// ignored.
	Create(ctx context.Context, rec *Record) error
}

// DestinationSource reads recent destinations for suggestions.
type DestinationSource interface {
	// QueryRecentDestinations returns up to limit named destinations with
	// coordinates, most recent first.
	QueryRecentDestinations(ctx context.Context, limit int) ([]Destination, error)
}

// Store is the full history persistence interface.
type Store interface {
	Writer
	DestinationSource

	// RecordSelection sets the selected route type on the caller's record.
	// Returns ErrRecordNotFound if no record matches requestID and userID.
	RecordSelection(ctx context.Context, requestID, userID, routeType string) error

	// ListByUser returns up to limit of the user's records, newest first.
	ListByUser(ctx context.Context, userID string, limit int) ([]*Record, error)

	// Ping checks the store is reachable.
	Ping(ctx context.Context) error
}
