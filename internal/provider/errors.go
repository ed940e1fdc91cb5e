// Package provider defines the failure vocabulary shared by the clients of
// upstream services (text extraction and route finding).
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/wslny/wslny/internal/provider/resilience"
)

// Code classifies an upstream failure.
type Code string

// Failure kinds reported by upstream services.
const (
	CodeInvalidArgument  Code = "INVALID_ARGUMENT"
	CodeNotFound         Code = "NOT_FOUND"
	CodeDeadlineExceeded Code = "DEADLINE_EXCEEDED"
	CodeUnavailable      Code = "UNAVAILABLE"
	CodeUnknown          Code = "UNKNOWN"
)

// Sentinel errors, one per Code.
var (
	ErrInvalidArgument  = errors.New("upstream rejected the input")
	ErrNotFound         = errors.New("upstream found no result")
	ErrDeadlineExceeded = errors.New("upstream deadline exceeded")
	ErrUnavailable      = errors.New("upstream unavailable")
	ErrUnknown          = errors.New("upstream error")
)

// Recorder receives per-call latency and outcome for upstream requests.
type Recorder interface {
	RecordRequest(provider, operation string, duration time.Duration, err error)
}

// Error is an upstream failure. Transport-native errors never escape the
// client packages; they are classified into an Error instead.
type Error struct {
	// Provider is the upstream that failed.
	Provider string

	// Code is the failure kind.
	Code Code

	// Details is a human-readable message, usually from the upstream.
	Details string

	// Err is the sentinel matching Code.
	Err error

	// cause is a resilience-layer error kept for errors.Is, such as an open
	// circuit.
	cause error
}

func (e *Error) Error() string {
	if e.Details == "" {
		return fmt.Sprintf("%s: %s", e.Provider, e.Code)
	}
	return fmt.Sprintf("%s: %s: %s", e.Provider, e.Code, e.Details)
}

func (e *Error) Unwrap() []error {
	if e.cause != nil {
		return []error{e.Err, e.cause}
	}
	return []error{e.Err}
}

// NewError creates an Error with the sentinel for code.
func NewError(providerName string, code Code, details string) *Error {
	return &Error{
		Provider: providerName,
		Code:     code,
		Details:  details,
		Err:      sentinel(code),
	}
}

// CodeOf returns the failure kind of err. Context deadlines count as
// DEADLINE_EXCEEDED; anything unclassified is UNKNOWN.
func CodeOf(err error) Code {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return CodeDeadlineExceeded
	}
	return CodeUnknown
}

// DetailsOf returns the upstream message carried by err, if any.
func DetailsOf(err error) string {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Details
	}
	return ""
}

// ParseCode maps a wire code to a Code.
func ParseCode(s string) (Code, bool) {
	switch c := Code(strings.ToUpper(strings.TrimSpace(s))); c {
	case CodeInvalidArgument, CodeNotFound, CodeDeadlineExceeded, CodeUnavailable, CodeUnknown:
		return c, true
	default:
		return "", false
	}
}

// CodeFromStatus maps an HTTP status from an upstream to a Code.
func CodeFromStatus(status int) Code {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return CodeInvalidArgument
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusGatewayTimeout, http.StatusRequestTimeout:
		return CodeDeadlineExceeded
	case http.StatusBadGateway, http.StatusServiceUnavailable:
		return CodeUnavailable
	default:
		return CodeUnknown
	}
}

// errorBody is the error envelope upstream services return on failure.
type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// FromResponse classifies a non-2xx upstream response. An explicit code in
// the body wins over the HTTP status.
func FromResponse(providerName string, status int, body []byte) *Error {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		if code, ok := ParseCode(eb.Error.Code); ok {
			return NewError(providerName, code, eb.Error.Message)
		}
		if eb.Error.Message != "" {
			return NewError(providerName, CodeFromStatus(status), eb.Error.Message)
		}
	}
	return NewError(providerName, CodeFromStatus(status), fmt.Sprintf("upstream returned status %d", status))
}

// FromTransport classifies an error returned before any response was read.
func FromTransport(providerName string, err error) *Error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return NewError(providerName, CodeDeadlineExceeded, "request timed out")
	case errors.As(err, &netErr) && netErr.Timeout():
		return NewError(providerName, CodeDeadlineExceeded, "request timed out")
	case errors.Is(err, resilience.ErrCircuitOpen):
		e := NewError(providerName, CodeUnavailable, "circuit breaker is open")
		e.cause = resilience.ErrCircuitOpen
		return e
	case errors.Is(err, context.Canceled):
		return NewError(providerName, CodeUnavailable, "request cancelled")
	default:
		return NewError(providerName, CodeUnavailable, "failed to reach upstream")
	}
}

// Normalize makes sure err is an *Error. Expiry of ctx's deadline is
// reported as DEADLINE_EXCEEDED whatever the transport made of it.
func Normalize(ctx context.Context, providerName string, err error) *Error {
	deadline := errors.Is(ctx.Err(), context.DeadlineExceeded)

	var pe *Error
	if errors.As(err, &pe) {
		if deadline && pe.Code != CodeDeadlineExceeded {
			return NewError(providerName, CodeDeadlineExceeded, "request timed out")
		}
		return pe
	}
	if deadline {
		return NewError(providerName, CodeDeadlineExceeded, "request timed out")
	}
	return FromTransport(providerName, err)
}

func sentinel(code Code) error {
	switch code {
	case CodeInvalidArgument:
		return ErrInvalidArgument
	case CodeNotFound:
		return ErrNotFound
	case CodeDeadlineExceeded:
		return ErrDeadlineExceeded
	case CodeUnavailable:
		return ErrUnavailable
	default:
		return ErrUnknown
	}
}
