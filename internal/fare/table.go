// Package fare prices route options from their segments.
package fare

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Tier is one step of the metro fare table: trips of up to MaxStops stops
// cost Fare.
type Tier struct {
	MaxStops int     `yaml:"max_stops" validate:"gt=0"`
	Fare     float64 `yaml:"fare" validate:"gte=0"`
}

// Table holds the fare policy.
type Table struct {
	// MetroTiers must be ascending by MaxStops. The last tier caps every
	// higher stop count.
	MetroTiers []Tier `yaml:"metro_tiers" validate:"required,min=1,dive"`

	BusFarePerRide      float64 `yaml:"bus_fare_per_ride" validate:"gte=0"`
	MicrobusFarePerRide float64 `yaml:"microbus_fare_per_ride" validate:"gte=0"`
	Currency            string  `yaml:"currency" validate:"required,len=3"`
}

// ErrTiersNotAscending is returned when metro tiers are out of order.
var ErrTiersNotAscending = errors.New("metro tiers must be strictly ascending by max_stops")

// DefaultTable returns the built-in Cairo fare table.
func DefaultTable() Table {
	return Table{
		MetroTiers: []Tier{
			{MaxStops: 9, Fare: 8},
			{MaxStops: 16, Fare: 10},
			{MaxStops: 23, Fare: 15},
			{MaxStops: 39, Fare: 20},
		},
		BusFarePerRide:      8.0,
		MicrobusFarePerRide: 5.0,
		Currency:            "EGP",
	}
}

// LoadTable reads a YAML fare table from path. Fields missing from the file
// keep their default values.
func LoadTable(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("reading fare table: %w", err)
	}

	table := DefaultTable()
	table.MetroTiers = nil
	if err := yaml.Unmarshal(data, &table); err != nil {
		return Table{}, fmt.Errorf("parsing fare table: %w", err)
	}
	if len(table.MetroTiers) == 0 {
		table.MetroTiers = DefaultTable().MetroTiers
	}

	if err := table.Validate(); err != nil {
		return Table{}, err
	}
	return table, nil
}

// Validate checks field constraints and tier ordering.
func (t Table) Validate() error {
	if err := validator.New().Struct(t); err != nil {
		return fmt.Errorf("invalid fare table: %w", err)
	}
	for i := 1; i < len(t.MetroTiers); i++ {
		if t.MetroTiers[i].MaxStops <= t.MetroTiers[i-1].MaxStops {
			return ErrTiersNotAscending
		}
	}
	return nil
}

// MetroFare returns the fare for a metro trip of stops stops: the first tier
// whose ceiling covers the count, else the last tier.
func (t Table) MetroFare(stops int) float64 {
	if len(t.MetroTiers) == 0 {
		return 0
	}
	for _, tier := range t.MetroTiers {
		if stops <= tier.MaxStops {
			return tier.Fare
		}
	}
	return t.MetroTiers[len(t.MetroTiers)-1].Fare
}
