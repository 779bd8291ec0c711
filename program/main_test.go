package main

import (
	"testing"

	"github.com/keilerkonzept/population-race/internal/dataset"
	"github.com/stretchr/testify/require"
)

// scenario is three countries over three years. With K=2 the displayed
// totals are 18, 35 and 33.
func scenario(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.Load(dataset.Raw{
		DataGraph: []dataset.CountrySeries{
			{Country: "A", Population: []float64{10, 20, 30}, Color: "#e41a1c"},
			{Country: "B", Population: []float64{5, 15, 3}, Color: "#377eb8"},
			{Country: "C", Population: []float64{8, 1, 2}, Color: "#4daf4a"},
		},
		Region: []dataset.RegionEntry{{Key: "Asia", Color: "#e41a1c"}, {Key: "Europe", Color: "#377eb8"}},
	})
	require.NoError(t, err)
	return ds
}
