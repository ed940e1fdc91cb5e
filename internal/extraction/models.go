// Package extraction calls the natural-language extraction service that turns
// a rider's free-form text into named endpoints and, when it can, coordinates.
package extraction

import (
	"context"

	"github.com/wslny/wslny/internal/geo"
)

// Result is what the extraction service understood from a text query.
type Result struct {
	// FromLocation is the origin name, if the text named one.
	FromLocation string

	// ToLocation is the destination name.
	ToLocation string

	// Intent is the classified intent of the text.
	Intent string

	// FromCoords is set when the origin could be geocoded.
	FromCoords *geo.Point

	// ToCoords is set when the destination could be geocoded.
	ToCoords *geo.Point
}

// HasDestination reports whether the result carries usable destination coordinates.
func (r *Result) HasDestination() bool {
	return r != nil && r.ToCoords != nil
}

// HasOrigin reports whether the result carries usable origin coordinates.
func (r *Result) HasOrigin() bool {
	return r != nil && r.FromCoords != nil
}

// Provider is an extraction service backend.
type Provider interface {
	// Name returns the provider identifier.
	Name() string

	// ExtractRoute extracts route endpoints from text.
	// Failures are returned as *provider.Error.
	ExtractRoute(ctx context.Context, text string) (*Result, error)
}
