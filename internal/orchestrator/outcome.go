package orchestrator

import (
	"time"

	"github.com/wslny/wslny/internal/geo"
	"github.com/wslny/wslny/internal/history"
	"github.com/wslny/wslny/internal/location"
	"github.com/wslny/wslny/internal/preference"
	"github.com/wslny/wslny/internal/routing"
)

// ConfirmationRequiredCode is recorded when a search answers with a
// suggestion instead of a route.
const ConfirmationRequiredCode = "DESTINATION_CONFIRMATION_REQUIRED"

// Outcome is the result of one orchestration.
type Outcome struct {
	RequestID string
	Source    history.Source
	Intent    string
	Filter    preference.Filter

	// From and To are the resolved endpoints, when known.
	From *geo.NamedPoint
	To   *geo.NamedPoint

	// Query echoes the routing query: the routing service's own query for
	// multi-option results, the resolved endpoints otherwise.
	Query map[string]any

	// Route is the selected option, with Type set to the filter name.
	Route *routing.Option

	// Suggestion is set instead of Route when a search needs the caller to
	// confirm a destination.
	Suggestion *location.Suggestion
}

// ConfirmationRequired reports whether the outcome asks the caller to
// confirm a suggested destination.
func (o *Outcome) ConfirmationRequired() bool {
	return o != nil && o.Suggestion != nil
}

// run is the per-request state collected for the outcome and history record.
type run struct {
	id     string
	userID string
	start  time.Time

	source history.Source
	filter preference.Filter
	intent string
	text   string

	from *geo.NamedPoint
	to   *geo.NamedPoint

	extraction *time.Duration
	routing    *time.Duration

	// selected is the option as chosen, before its type is overwritten.
	selected *routing.Option
}

func (r *run) apply(res location.Resolution) {
	if res.Source != "" {
		r.source = res.Source
	}
	if res.Text != "" {
		r.text = res.Text
	}
	r.intent = res.Intent
	r.from = res.From
	r.to = res.To
	r.extraction = res.ExtractionLatency
}

func (r *run) setRouting(d time.Duration) {
	r.routing = &d
}

func (r *run) outcome() *Outcome {
	return &Outcome{
		RequestID: r.id,
		Source:    r.source,
		Intent:    r.intent,
		Filter:    r.filter,
		From:      r.from,
		To:        r.to,
	}
}
