package main

import (
	styles "github.com/charmbracelet/lipgloss"
	plot "github.com/chriskim06/drawille-go"
	"github.com/keilerkonzept/population-race/internal/dataset"
	"github.com/keilerkonzept/population-race/internal/frame"
)

// historyLines is how many of the current leaders get a trajectory.
const historyLines = 5

// history plots the population of the current leaders from the first year
// up to the current index. The leader is highlighted.
type history struct {
	width, height int
	canvas        *plot.Canvas
	data          [][]float64
	empty         bool
}

func newHistory(width, height int) *history {
	h := &history{empty: true}
	h.resize(width, height)
	return h
}

func (h *history) resize(width, height int) {
	h.width, h.height = max(1, width), max(1, height)
	c := plot.NewCanvas(h.width, h.height)
	c.ShowAxis = false
	if h.canvas != nil {
		c.NumDataPoints = h.canvas.NumDataPoints
		c.LineColors = h.canvas.LineColors
	}
	h.canvas = &c
	if !h.empty {
		h.canvas.Fill(h.data)
	}
}

func (h *history) update(ds *dataset.Dataset, f frame.Frame) {
	n := min(historyLines, len(f.Entries))
	if n == 0 {
		h.empty = true
		return
	}
	points := max(2, f.Index+1)

	var highlight, dim plot.Color
	if styles.DefaultRenderer().HasDarkBackground() {
		highlight, dim = plot.Red, plot.DimGray
	} else {
		highlight, dim = plot.Black, plot.LightGray
	}

	// drawille draws later lines over earlier ones, so the leader goes last.
	data := make([][]float64, n)
	colors := make([]plot.Color, n)
	for i := 0; i < n; i++ {
		e := f.Entries[n-1-i]
		series := make([]float64, points)
		idx := ds.Index(e.Country)
		for j := range series {
			series[j] = ds.Value(idx, min(j, f.Index))
		}
		data[i] = series
		colors[i] = dim
	}
	colors[n-1] = highlight

	h.canvas.NumDataPoints = points
	h.canvas.LineColors = colors
	h.canvas.Fill(data)
	h.data = data
	h.empty = false
}

func (h *history) View() string {
	if h.empty {
		return styles.Place(h.width, h.height, styles.Center, styles.Center, borderFg.Render("no data"))
	}
	return h.canvas.String()
}
