package fare

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wslny/wslny/internal/routing"
)

func seg(method routing.Method, stops int, distance float64) routing.Segment {
	return routing.Segment{Method: method, NumStops: stops, DistanceMeters: distance}
}

func TestTable_MetroFare(t *testing.T) {
	table := DefaultTable()

	tests := []struct {
		stops int
		want  float64
	}{
		{1, 8},
		{9, 8},
		{10, 10},
		{16, 10},
		{23, 15},
		{39, 20},
		{60, 20},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, table.MetroFare(tt.stops), "stops=%d", tt.stops)
	}

	assert.Equal(t, 0.0, Table{}.MetroFare(5))
}

func TestTable_MetroFareIsMonotonic(t *testing.T) {
	table := DefaultTable()
	prev := table.MetroFare(1)
	for stops := 2; stops <= 80; stops++ {
		got := table.MetroFare(stops)
		assert.GreaterOrEqual(t, got, prev, "stops=%d", stops)
		prev = got
	}
}

func TestEstimator_Estimate(t *testing.T) {
	e := NewEstimator(DefaultTable())

	tests := []struct {
		name          string
		segments      []routing.Segment
		wantFare      float64
		wantWalk      float64
		wantTransport int
	}{
		{
			name:     "walking only is free",
			segments: []routing.Segment{seg(routing.MethodWalking, 0, 450)},
			wantFare: 0,
			wantWalk: 450,
		},
		{
			name:     "no segments",
			wantFare: 0,
		},
		{
			name: "metro stops summed across segments",
			segments: []routing.Segment{
				seg(routing.MethodWalking, 0, 200),
				seg(routing.MethodMetro, 6, 5000),
				seg(routing.MethodMetro, 5, 4000),
				seg(routing.MethodWalking, 0, 100),
			},
			wantFare:      10,
			wantWalk:      300,
			wantTransport: 2,
		},
		{
			name: "bus and microbus per ride",
			segments: []routing.Segment{
				seg(routing.MethodBus, 12, 3000),
				seg(routing.MethodMicrobus, 0, 2000),
				seg(routing.MethodMicrobus, 0, 1500),
			},
			wantFare:      8 + 5 + 5,
			wantTransport: 3,
		},
		{
			name: "mixed with method casing",
			segments: []routing.Segment{
				seg(" Metro", 3, 2500),
				seg("BUS", 0, 1000),
				seg("Walking", 0, 50),
			},
			wantFare:      8 + 8,
			wantWalk:      50,
			wantTransport: 2,
		},
		{
			name: "metro with zero stops is unpriced",
			segments: []routing.Segment{
				seg(routing.MethodMetro, 0, 800),
			},
			wantFare:      0,
			wantTransport: 1,
		},
		{
			name: "unknown method counts as transport without fare",
			segments: []routing.Segment{
				seg("tram", 4, 900),
			},
			wantFare:      0,
			wantTransport: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cost := e.Estimate(routing.Option{Segments: tt.segments})
			assert.InDelta(t, tt.wantFare, cost.EstimatedFare, 1e-9)
			assert.InDelta(t, tt.wantWalk, cost.WalkDistanceMeters, 1e-9)
			assert.Equal(t, tt.wantTransport, cost.TransportSegments)
		})
	}
}

func TestEstimator_Annotate(t *testing.T) {
	e := NewEstimator(DefaultTable())
	options := []routing.Option{
		{Type: "fastest", Found: true, Segments: []routing.Segment{seg(routing.MethodBus, 0, 100)}},
		{Type: "cheapest", Found: false},
	}

	annotated := e.Annotate(options)

	require.Len(t, annotated, 2)
	require.NotNil(t, annotated[0].Cost)
	require.NotNil(t, annotated[1].Cost)
	assert.InDelta(t, 8.0, annotated[0].Cost.EstimatedFare, 1e-9)
	assert.Equal(t, 0.0, annotated[1].Cost.EstimatedFare, "no priced segments is zero, not absent")
	assert.Nil(t, options[0].Cost, "input options must not be mutated")
}

func TestLoadTable(t *testing.T) {
	table, err := LoadTable(filepath.Join("testdata", "alexandria.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "EGP", table.Currency)
	assert.Equal(t, 6.0, table.BusFarePerRide)
	assert.Equal(t, 4.5, table.MicrobusFarePerRide)
	require.Len(t, table.MetroTiers, 2)
	assert.Equal(t, 7.0, table.MetroFare(30))
}

func TestLoadTable_Invalid(t *testing.T) {
	_, err := LoadTable(filepath.Join("testdata", "unordered.yaml"))
	assert.ErrorIs(t, err, ErrTiersNotAscending)

	_, err = LoadTable(filepath.Join("testdata", "negative.yaml"))
	assert.Error(t, err)

	_, err = LoadTable(filepath.Join("testdata", "missing.yaml"))
	assert.Error(t, err)
}

func TestDefaultTable_Valid(t *testing.T) {
	assert.NoError(t, DefaultTable().Validate())
}
