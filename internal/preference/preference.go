// Package preference maps rider route preferences between their integer
// wire form (1-6) and their names.
package preference

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Filter is a route selection preference.
type Filter string

// Supported filters. Their order defines the integer mapping 1-6.
const (
	Optimal      Filter = "optimal"
	Fastest      Filter = "fastest"
	Cheapest     Filter = "cheapest"
	BusOnly      Filter = "bus_only"
	MicrobusOnly Filter = "microbus_only"
	MetroOnly    Filter = "metro_only"
)

// ErrInvalidFilter is returned by ParseStrict for unrecognized input.
var ErrInvalidFilter = errors.New("invalid route filter")

var ordered = []Filter{Optimal, Fastest, Cheapest, BusOnly, MicrobusOnly, MetroOnly}

// All returns every filter in integer order.
func All() []Filter {
	out := make([]Filter, len(ordered))
	copy(out, ordered)
	return out
}

// String returns the filter name.
func (f Filter) String() string {
	return string(f)
}

// Valid reports whether f is one of the supported filters.
func (f Filter) Valid() bool {
	for _, known := range ordered {
		if f == known {
			return true
		}
	}
	return false
}

// Enum returns the integer form of f. Unknown names map to 1.
func (f Filter) Enum() int {
	for i, known := range ordered {
		if f == known {
			return i + 1
		}
	}
	return 1
}

// ModeOnly reports whether f restricts selection to routes of its own type.
func (f Filter) ModeOnly() bool {
	return f == BusOnly || f == MicrobusOnly || f == MetroOnly
}

// FromEnum returns the filter for n in 1..6.
func FromEnum(n int) (Filter, bool) {
	if n < 1 || n > len(ordered) {
		return "", false
	}
	return ordered[n-1], true
}

// Parse normalizes a raw filter value. Absent, empty, out-of-range and
// unrecognized input all resolve to Optimal.
func Parse(raw any) Filter {
	f, err := parse(raw)
	if err != nil || f == "" {
		return Optimal
	}
	return f
}

// ParseStrict normalizes a raw filter value and rejects anything that is
// not an integer 1..6, a digit string in that range, or a known name.
// An absent value (nil) resolves to Optimal.
func ParseStrict(raw any) (Filter, error) {
	if raw == nil {
		return Optimal, nil
	}
	f, err := parse(raw)
	if err != nil {
		return "", err
	}
	if f == "" {
		return "", fmt.Errorf("%w: %v", ErrInvalidFilter, raw)
	}
	return f, nil
}

// parse returns "" with a nil error for absent input.
func parse(raw any) (Filter, error) {
	switch v := raw.(type) {
	case nil:
		return "", nil
	case Filter:
		return parseString(string(v))
	case string:
		return parseString(v)
	case int:
		return fromInt(v)
	case int64:
		return fromInt(int(v))
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return "", fmt.Errorf("%w: %v", ErrInvalidFilter, v)
		}
		return fromInt(int(v))
	default:
		return "", fmt.Errorf("%w: unsupported type %T", ErrInvalidFilter, raw)
	}
}

func parseString(s string) (Filter, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidFilter)
	}
	if isDigits(s) {
		n, err := strconv.Atoi(s)
		if err != nil {
			return "", fmt.Errorf("%w: %s", ErrInvalidFilter, s)
		}
		return fromInt(n)
	}
	if f := Filter(s); f.Valid() {
		return f, nil
	}
	return "", fmt.Errorf("%w: %s", ErrInvalidFilter, s)
}

func fromInt(n int) (Filter, error) {
	f, ok := FromEnum(n)
	if !ok {
		return "", fmt.Errorf("%w: %d out of range", ErrInvalidFilter, n)
	}
	return f, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
