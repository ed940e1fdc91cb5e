// Package selector picks one route option under a preference filter.
package selector

import (
	"github.com/wslny/wslny/internal/preference"
	"github.com/wslny/wslny/internal/routing"
)

// unpriced ranks options without a cost after every priced option.
const unpriced = 1e9

// untimed ranks options without a positive duration after every timed option.
const untimed = 1_000_000_000

// Select returns the option preferred under filter among found options.
// It reports false when no found option qualifies.
//
// Options are scanned in order and replaced only by a strictly better one,
// so ties on every key keep the earliest option.
func Select(options []routing.Option, filter preference.Filter) (routing.Option, bool) {
	if filter.ModeOnly() {
		for _, opt := range options {
			if opt.Found && opt.Type == filter.String() {
				return opt, true
			}
		}
		return routing.Option{}, false
	}

	var less func(a, b routing.Option) bool
	switch filter {
	case preference.Fastest:
		less = fasterThan
	case preference.Cheapest:
		less = cheaperThan
	default:
		less = simplerThan
	}

	var (
		best  routing.Option
		found bool
	)
	for _, opt := range options {
		if !opt.Found {
			continue
		}
		if !found || less(opt, best) {
			best = opt
			found = true
		}
	}
	return best, found
}

func fasterThan(a, b routing.Option) bool {
	return duration(a) < duration(b)
}

// cheaperThan orders by (fare, duration).
func cheaperThan(a, b routing.Option) bool {
	fa, fb := fare(a), fare(b)
	if fa != fb {
		return fa < fb
	}
	return duration(a) < duration(b)
}

// simplerThan orders by (transport segments, duration).
func simplerThan(a, b routing.Option) bool {
	sa, sb := transfers(a), transfers(b)
	if sa != sb {
		return sa < sb
	}
	return duration(a) < duration(b)
}

func duration(o routing.Option) int {
	if o.TotalDurationSeconds <= 0 {
		return untimed
	}
	return o.TotalDurationSeconds
}

func fare(o routing.Option) float64 {
	if o.Cost == nil {
		return unpriced
	}
	return o.Cost.EstimatedFare
}

func transfers(o routing.Option) float64 {
	if o.Cost == nil {
		return unpriced
	}
	return float64(o.Cost.TransportSegments)
}
