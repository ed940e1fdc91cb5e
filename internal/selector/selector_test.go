package selector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wslny/wslny/internal/preference"
	"github.com/wslny/wslny/internal/routing"
)

func option(typ string, found bool, duration int, fare float64, transport int) routing.Option {
	return routing.Option{
		Type:                 typ,
		Found:                found,
		TotalDurationSeconds: duration,
		Cost:                 &routing.Cost{EstimatedFare: fare, TransportSegments: transport},
	}
}

func TestSelect_CheapestPicksLowestFare(t *testing.T) {
	options := []routing.Option{
		option("fastest", true, 600, 12.0, 1),
		option("cheapest", true, 900, 8.0, 2),
	}

	got, ok := Select(options, preference.Cheapest)
	require.True(t, ok)
	assert.Equal(t, "cheapest", got.Type)
	assert.Equal(t, 8.0, got.Cost.EstimatedFare)
}

func TestSelect_CheapestTieBrokenByDuration(t *testing.T) {
	options := []routing.Option{
		option("a", true, 900, 8.0, 1),
		option("b", true, 700, 8.0, 3),
	}

	got, ok := Select(options, preference.Cheapest)
	require.True(t, ok)
	assert.Equal(t, "b", got.Type)
}

func TestSelect_CheapestIgnoresNotFound(t *testing.T) {
	options := []routing.Option{
		option("ghost", false, 100, 1.0, 1),
		option("real", true, 900, 20.0, 1),
	}

	got, ok := Select(options, preference.Cheapest)
	require.True(t, ok)
	assert.Equal(t, "real", got.Type)
}

func TestSelect_CheapestRanksUnpricedLast(t *testing.T) {
	unpriced := routing.Option{Type: "unpriced", Found: true, TotalDurationSeconds: 10}
	options := []routing.Option{unpriced, option("priced", true, 5000, 500, 4)}

	got, ok := Select(options, preference.Cheapest)
	require.True(t, ok)
	assert.Equal(t, "priced", got.Type)
}

func TestSelect_CheapestZeroFareIsARealValue(t *testing.T) {
	options := []routing.Option{
		option("bus", true, 900, 8.0, 1),
		option("walk", true, 2400, 0, 0),
	}

	got, ok := Select(options, preference.Cheapest)
	require.True(t, ok)
	assert.Equal(t, "walk", got.Type)
}

func TestSelect_Fastest(t *testing.T) {
	options := []routing.Option{
		option("a", true, 900, 1, 1),
		option("b", true, 600, 9, 3),
		option("c", false, 100, 1, 1),
	}

	got, ok := Select(options, preference.Fastest)
	require.True(t, ok)
	assert.Equal(t, "b", got.Type)
}

func TestSelect_ZeroDurationRanksLast(t *testing.T) {
	options := []routing.Option{
		option("untimed", true, 0, 8, 2),
		option("timed", true, 1800, 8, 2),
	}

	for _, filter := range []preference.Filter{preference.Optimal, preference.Fastest, preference.Cheapest} {
		got, ok := Select(options, filter)
		require.True(t, ok, filter.String())
		assert.Equal(t, "timed", got.Type, filter.String())
	}

	got, ok := Select(options[:1], preference.Fastest)
	require.True(t, ok, "an untimed option is still selectable on its own")
	assert.Equal(t, "untimed", got.Type)
}

func TestSelect_OptimalFewestTransportSegments(t *testing.T) {
	options := []routing.Option{
		option("a", true, 600, 10, 3),
		option("b", true, 1200, 10, 1),
	}

	got, ok := Select(options, preference.Optimal)
	require.True(t, ok)
	assert.Equal(t, "b", got.Type)
}

func TestSelect_OptimalTieBrokenByDuration(t *testing.T) {
	options := []routing.Option{
		option("slow", true, 1500, 8, 2),
		option("quick", true, 1100, 15, 2),
	}

	got, ok := Select(options, preference.Optimal)
	require.True(t, ok)
	assert.Equal(t, "quick", got.Type)
}

func TestSelect_ModeOnly(t *testing.T) {
	options := []routing.Option{
		option("metro_only", false, 100, 1, 1),
		option("bus_only", true, 900, 8, 1),
		option("metro_only", true, 1200, 10, 1),
		option("metro_only", true, 800, 10, 1),
	}

	got, ok := Select(options, preference.MetroOnly)
	require.True(t, ok)
	assert.Equal(t, 1200, got.TotalDurationSeconds, "first found match wins")

	got, ok = Select(options, preference.BusOnly)
	require.True(t, ok)
	assert.Equal(t, "bus_only", got.Type)
}

func TestSelect_ModeOnlyNoMatch(t *testing.T) {
	options := []routing.Option{
		option("fastest", true, 600, 8, 1),
		option("microbus_only", false, 700, 5, 1),
	}

	_, ok := Select(options, preference.MicrobusOnly)
	assert.False(t, ok)
}

func TestSelect_NoFoundOptions(t *testing.T) {
	for _, filter := range preference.All() {
		_, ok := Select([]routing.Option{option(filter.String(), false, 1, 1, 1)}, filter)
		assert.False(t, ok, filter.String())

		_, ok = Select(nil, filter)
		assert.False(t, ok, filter.String())
	}
}

func TestSelect_Deterministic(t *testing.T) {
	options := []routing.Option{
		option("a", true, 900, 8, 2),
		option("b", true, 900, 8, 2),
		option("c", true, 900, 8, 2),
	}

	for _, filter := range []preference.Filter{preference.Optimal, preference.Fastest, preference.Cheapest} {
		first, ok := Select(options, filter)
		require.True(t, ok)
		for i := 0; i < 10; i++ {
			again, _ := Select(options, filter)
			assert.Equal(t, first, again)
		}
		assert.Equal(t, "a", first.Type, "complete ties keep the earliest option")
	}
}
