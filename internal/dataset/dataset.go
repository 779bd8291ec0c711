// Package dataset holds the immutable population series the race is drawn from.
package dataset

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
)

// StartYear is the year at index 0 of every population series.
const StartYear = 1950

// CountrySeries is one country's population, one value per year.
type CountrySeries struct {
	Country    string    `json:"country"`
	Population []float64 `json:"population"`
	Color      string    `json:"color"`
	Icon       string    `json:"icon,omitempty"`
}

// RegionEntry is a legend label and the color shared by its countries.
type RegionEntry struct {
	Key   string `json:"key"`
	Color string `json:"color"`
}

// Raw is the undecorated `data` payload of the population endpoint.
type Raw struct {
	DataGraph []CountrySeries `json:"dataGraph"`
	Region    []RegionEntry   `json:"region"`
}

// Dataset is constructed once by Load and never mutated afterwards.
type Dataset struct {
	series  []CountrySeries
	regions []RegionEntry
	steps   int
}

// Decode reads a Raw payload from r.
func Decode(r io.Reader) (Raw, error) {
	var raw Raw
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return Raw{}, fmt.Errorf("decode dataset: %w", err)
	}
	return raw, nil
}

// Load validates raw and copies it into a Dataset. Series keep their
// enumeration order, which the frame selector uses to break ties.
func Load(raw Raw) (*Dataset, error) {
	if len(raw.DataGraph) == 0 {
		return nil, &MalformedDatasetError{Reason: ReasonEmpty, Index: -1}
	}

	steps := len(raw.DataGraph[0].Population)
	seen := make(map[string]struct{}, len(raw.DataGraph))
	series := make([]CountrySeries, len(raw.DataGraph))
	for i, s := range raw.DataGraph {
		if s.Country == "" {
			return nil, &MalformedDatasetError{Reason: ReasonMissingCountry, Index: i}
		}
		if _, ok := seen[s.Country]; ok {
			return nil, &MalformedDatasetError{Reason: ReasonDuplicateCountry, Country: s.Country, Index: i}
		}
		seen[s.Country] = struct{}{}
		if len(s.Population) != steps {
			return nil, &MalformedDatasetError{
				Reason:  ReasonLengthMismatch,
				Country: s.Country,
				Index:   i,
				Want:    steps,
				Got:     len(s.Population),
			}
		}
		if steps == 0 {
			return nil, &MalformedDatasetError{Reason: ReasonEmptySeries, Country: s.Country, Index: i}
		}
		for _, v := range s.Population {
			if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, &MalformedDatasetError{Reason: ReasonBadValue, Country: s.Country, Index: i}
			}
		}
		s.Population = append([]float64(nil), s.Population...)
		series[i] = s
	}

	return &Dataset{
		series:  series,
		regions: append([]RegionEntry(nil), raw.Region...),
		steps:   steps,
	}, nil
}

// Len is the number of country series.
func (d *Dataset) Len() int { return len(d.series) }

// Steps is the shared series length L.
func (d *Dataset) Steps() int { return d.steps }

// Series returns a copy of the i-th series.
func (d *Dataset) Series(i int) CountrySeries {
	s := d.series[i]
	s.Population = append([]float64(nil), s.Population...)
	return s
}

// Value is the population of series i at the given time index.
func (d *Dataset) Value(i, index int) float64 {
	return d.series[i].Population[index]
}

// Meta returns the presentation attributes of series i without copying its values.
func (d *Dataset) Meta(i int) (country, color, icon string) {
	s := &d.series[i]
	return s.Country, s.Color, s.Icon
}

// Index returns the enumeration position of country, or -1.
func (d *Dataset) Index(country string) int {
	for i := range d.series {
		if d.series[i].Country == country {
			return i
		}
	}
	return -1
}

// Regions returns a copy of the region legend.
func (d *Dataset) Regions() []RegionEntry {
	return append([]RegionEntry(nil), d.regions...)
}

// Year maps a time index to its calendar year.
func (d *Dataset) Year(index int) int { return StartYear + index }

// LastYear is the year of the final index.
func (d *Dataset) LastYear() int { return StartYear + d.steps - 1 }
