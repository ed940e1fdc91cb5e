// Package apperr defines the closed set of orchestration failures and their
// wire codes, HTTP statuses and history reasons.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/wslny/wslny/internal/preference"
	"github.com/wslny/wslny/internal/provider"
)

// Kind is the failure category.
type Kind string

// Failure kinds.
const (
	KindServiceConfiguration          Kind = "service_configuration"
	KindInvalidRequestMode            Kind = "invalid_request_mode"
	KindInvalidCoordinates            Kind = "invalid_coordinates"
	KindInvalidDestinationCoordinates Kind = "invalid_destination_coordinates"
	KindSourceRequired                Kind = "source_required"
	KindExtractionUpstream            Kind = "extraction_upstream"
	KindExtractionEmpty               Kind = "extraction_empty"
	KindRoutingUpstream               Kind = "routing_upstream"
	KindNoMatchingFilter              Kind = "no_matching_filter"
	KindInvalidRequestBody            Kind = "invalid_request_body"
	KindInvalidFilter                 Kind = "invalid_filter"
	KindDestinationTextRequired       Kind = "destination_text_required"
	KindCurrentLocationRequired       Kind = "current_location_required"
	KindDestinationRequired           Kind = "destination_required"
	KindDestinationNotFound           Kind = "destination_not_found"
)

// Error is an orchestration failure.
type Error struct {
	Kind Kind

	// Code is the wire error code.
	Code string

	// Message is safe to show to the caller.
	Message string

	// Status is the HTTP status for the failure.
	Status int

	// Reason is the short history reason, distinct from Code.
	Reason string

	// Cause is the upstream error, if any.
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// As returns the *Error in err's chain, if any.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func newError(kind Kind, code string, status int, reason, message string) *Error {
	return &Error{Kind: kind, Code: code, Status: status, Reason: reason, Message: message}
}

// ServiceConfiguration reports upstream clients that failed to construct.
func ServiceConfiguration(cause error) *Error {
	message := "Routing services are not configured."
	if cause != nil {
		message = cause.Error()
	}
	e := newError(KindServiceConfiguration, "SERVICE_CONFIGURATION_ERROR", http.StatusServiceUnavailable,
		"api_boot_error", message)
	e.Cause = cause
	return e
}

// InvalidRequestMode reports text and coordinates sent together.
func InvalidRequestMode() *Error {
	return newError(KindInvalidRequestMode, "INVALID_REQUEST_MODE", http.StatusBadRequest,
		"invalid_request_mode", "Provide either text or origin/destination, not both.")
}

// InvalidCoordinates reports a malformed or out-of-range coordinate pair.
func InvalidCoordinates() *Error {
	return newError(KindInvalidCoordinates, "INVALID_COORDINATES", http.StatusBadRequest,
		"invalid_coordinates", "Invalid coordinate format.")
}

// InvalidDestinationCoordinates reports an out-of-range confirmed destination.
func InvalidDestinationCoordinates() *Error {
	return newError(KindInvalidDestinationCoordinates, "INVALID_DESTINATION_COORDINATES", http.StatusBadRequest,
		"invalid_destination_coordinates", "Destination coordinates are invalid.")
}

// SourceRequired reports a destination-only text without a current location.
func SourceRequired() *Error {
	return newError(KindSourceRequired, "SOURCE_REQUIRED_OR_CURRENT_LOCATION", http.StatusBadRequest,
		"missing_source", "Source location is missing. Provide current_location.")
}

// ExtractionEmpty reports an extraction that found no usable destination.
func ExtractionEmpty() *Error {
	return newError(KindExtractionEmpty, "EXTRACTION_EMPTY_RESULT", http.StatusUnprocessableEntity,
		"extraction_empty", "Extraction service returned no coordinates.")
}

// NoMatchingFilter reports that no found option satisfies filter.
func NoMatchingFilter(filter preference.Filter) *Error {
	return newError(KindNoMatchingFilter, "ROUTING_NO_MATCHING_FILTER", http.StatusNotFound,
		"routing_no_matching_filter", fmt.Sprintf("No route found for filter '%s'.", filter))
}

// InvalidRequestBody reports a body with neither text nor coordinates.
func InvalidRequestBody() *Error {
	return newError(KindInvalidRequestBody, "INVALID_REQUEST_BODY", http.StatusBadRequest,
		"invalid_body", "Provide either 'text' or both 'origin' and 'destination'.")
}

// InvalidFilter reports an unrecognized filter on the strict endpoint.
func InvalidFilter(raw any) *Error {
	return newError(KindInvalidFilter, "INVALID_FILTER", http.StatusBadRequest,
		"invalid_filter", fmt.Sprintf("Unknown filter %v; use 1-6 or a filter name.", raw))
}

// DestinationTextRequired reports a search without destination text.
func DestinationTextRequired() *Error {
	return newError(KindDestinationTextRequired, "DESTINATION_TEXT_REQUIRED", http.StatusBadRequest,
		"destination_text_required", "destination_text is required.")
}

// CurrentLocationRequired reports a search or confirm without a current location.
func CurrentLocationRequired() *Error {
	return newError(KindCurrentLocationRequired, "CURRENT_LOCATION_REQUIRED", http.StatusBadRequest,
		"current_location_required", "Provide current_location or current_latitude/current_longitude.")
}

// DestinationRequired reports a confirm without a destination object.
func DestinationRequired() *Error {
	return newError(KindDestinationRequired, "DESTINATION_REQUIRED", http.StatusBadRequest,
		"destination_required", "destination with lat/lon is required.")
}

// DestinationNotFound reports a search with no usable destination or suggestion.
func DestinationNotFound() *Error {
	return newError(KindDestinationNotFound, "DESTINATION_NOT_FOUND", http.StatusNotFound,
		"destination_not_found", "Destination not found from input text.")
}

// FromExtraction maps an extraction service failure.
func FromExtraction(err error) *Error {
	return fromUpstream(KindExtractionUpstream, "EXTRACTION", "extraction_error", err, upstreamTable{
		invalid:  upstreamEntry{"INVALID_INPUT", http.StatusBadRequest, "The text could not be understood."},
		notFound: upstreamEntry{"LOCATION_NOT_FOUND", http.StatusUnprocessableEntity, "A place in the text could not be located."},
	})
}

// FromRouting maps a routing service failure.
func FromRouting(err error) *Error {
	return fromUpstream(KindRoutingUpstream, "ROUTING", "routing_error", err, upstreamTable{
		invalid:  upstreamEntry{"INVALID_INPUT", http.StatusBadRequest, "The routing service rejected the request."},
		notFound: upstreamEntry{"NO_PATH", http.StatusNotFound, "No route exists between these points."},
	})
}

type upstreamEntry struct {
	suffix  string
	status  int
	message string
}

type upstreamTable struct {
	invalid  upstreamEntry
	notFound upstreamEntry
}

func fromUpstream(kind Kind, prefix, reason string, err error, table upstreamTable) *Error {
	var entry upstreamEntry
	switch provider.CodeOf(err) {
	case provider.CodeInvalidArgument:
		entry = table.invalid
	case provider.CodeNotFound:
		entry = table.notFound
	case provider.CodeDeadlineExceeded:
		entry = upstreamEntry{"TIMEOUT", http.StatusGatewayTimeout, "The upstream service timed out."}
	case provider.CodeUnavailable:
		entry = upstreamEntry{"UNAVAILABLE", http.StatusServiceUnavailable, "The upstream service is unavailable."}
	default:
		entry = upstreamEntry{"UPSTREAM_ERROR", http.StatusBadGateway, "The upstream service failed."}
	}

	message := entry.message
	if details := provider.DetailsOf(err); details != "" {
		message = details
	}

	e := newError(kind, prefix+"_"+entry.suffix, entry.status, reason, message)
	e.Cause = err
	return e
}
