package fare

import (
	"github.com/wslny/wslny/internal/routing"
)

// Estimator prices route options against a fare table.
type Estimator struct {
	table Table
}

// NewEstimator creates an estimator for table.
func NewEstimator(table Table) *Estimator {
	return &Estimator{table: table}
}

// Table returns the fare table in use.
func (e *Estimator) Table() Table {
	return e.table
}

// Estimate computes the cost of one option.
//
// Walking segments only add to the walk distance. Every other segment counts
// as a transport segment; metro stops are summed and priced once by tier,
// while bus and microbus segments are priced per ride.
func (e *Estimator) Estimate(opt routing.Option) routing.Cost {
	var (
		cost          routing.Cost
		metroStops    int
		busRides      int
		microbusRides int
	)

	for _, seg := range opt.Segments {
		switch seg.Method.Normalize() {
		case routing.MethodWalking:
			cost.WalkDistanceMeters += seg.DistanceMeters
			continue
		case routing.MethodMetro:
			metroStops += seg.NumStops
		case routing.MethodBus:
			busRides++
		case routing.MethodMicrobus:
			microbusRides++
		}
		cost.TransportSegments++
	}

	if metroStops > 0 {
		cost.EstimatedFare += e.table.MetroFare(metroStops)
	}
	cost.EstimatedFare += float64(busRides) * e.table.BusFarePerRide
	cost.EstimatedFare += float64(microbusRides) * e.table.MicrobusFarePerRide

	return cost
}

// Annotate returns a copy of options with Cost set on each.
func (e *Estimator) Annotate(options []routing.Option) []routing.Option {
	out := make([]routing.Option, len(options))
	for i, opt := range options {
		cost := e.Estimate(opt)
		opt.Cost = &cost
		out[i] = opt
	}
	return out
}
