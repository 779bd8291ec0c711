package render

import (
	"testing"
	"time"

	"github.com/keilerkonzept/population-race/internal/dataset"
	"github.com/keilerkonzept/population-race/internal/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenario(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.Load(dataset.Raw{DataGraph: []dataset.CountrySeries{
		{Country: "A", Population: []float64{10, 20, 5}, Color: "red"},
		{Country: "B", Population: []float64{5, 15, 25}, Color: "green"},
		{Country: "C", Population: []float64{8, 8, 8}, Color: "blue"},
	}})
	require.NoError(t, err)
	return ds
}

func selectFrame(t *testing.T, ds *dataset.Dataset, index int) frame.Frame {
	t.Helper()
	f, err := frame.Select(ds, index, 2)
	require.NoError(t, err)
	return f
}

func TestLinearScale(t *testing.T) {
	s := LinearScale{Domain: [2]float64{0, 10}, Range: [2]float64{100, 200}}
	assert.Equal(t, 100.0, s.Map(0))
	assert.Equal(t, 150.0, s.Map(5))
	assert.Equal(t, 200.0, s.Map(10))

	flat := LinearScale{Domain: [2]float64{0, 0}, Range: [2]float64{100, 200}}
	assert.Equal(t, 100.0, flat.Map(0))
}

func TestTicks(t *testing.T) {
	testCases := []struct {
		name   string
		domain [2]float64
		count  int
		want   []float64
	}{
		{"unit steps", [2]float64{0, 10}, 8, []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10}},
		{"population", [2]float64{0, 1.4e9}, 8, []float64{0, 2e8, 4e8, 6e8, 8e8, 1e9, 1.2e9, 1.4e9}},
		{"fives", [2]float64{0, 100}, 3, []float64{0, 50, 100}},
		{"twos", [2]float64{0, 7}, 4, []float64{0, 2, 4, 6}},
		{"degenerate", [2]float64{0, 0}, 5, []float64{0}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := LinearScale{Domain: tc.domain, Range: [2]float64{0, 1}}
			assert.Equal(t, tc.want, s.Ticks(tc.count))
		})
	}
}

func TestBandScale(t *testing.T) {
	s := BandScale{Domain: []string{"A", "C"}, Range: [2]float64{50, 470}, Padding: 0.1}
	assert.InDelta(t, 180, s.Bandwidth(), 1e-9)
	assert.InDelta(t, 70, s.At(0), 1e-9)
	y, ok := s.Map("C")
	assert.True(t, ok)
	assert.InDelta(t, 270, y, 1e-9)
	_, ok = s.Map("B")
	assert.False(t, ok)
}

func TestRenderScenarioReconciliation(t *testing.T) {
	ds := scenario(t)
	a := NewAdapter(DefaultLayout)

	first := a.Render(selectFrame(t, ds, 0))
	assert.Equal(t, 0, first.Index)
	assert.Equal(t, [2]float64{0, 10}, first.ValueScale.Domain)
	assert.Equal(t, []string{"A", "C"}, first.CategoryScale.Domain)
	assert.Equal(t, "1950", first.Overlay.YearLabel)
	assert.Equal(t, "18", first.Overlay.TotalLabel)
	assert.Equal(t, DefaultTransition, first.Transition)
	assert.Empty(t, first.Exits)
	require.Len(t, first.Bars, 2)
	for _, b := range first.Bars {
		assert.Equal(t, OpEnter, b.Op)
		assert.Equal(t, b.To, b.From)
	}
	assert.InDelta(t, 670, first.Bars[0].To.Width, 1e-9)
	assert.InDelta(t, 536, first.Bars[1].To.Width, 1e-9)
	assert.InDelta(t, 270, first.Bars[1].To.Y, 1e-9)

	second := a.Render(selectFrame(t, ds, 1))
	assert.Equal(t, [2]float64{0, 20}, second.ValueScale.Domain)
	assert.Equal(t, "1951", second.Overlay.YearLabel)
	assert.Equal(t, 35.0, second.Overlay.Total)
	require.Len(t, second.Bars, 2)
	assert.Equal(t, "A", second.Bars[0].Key)
	assert.Equal(t, OpUpdate, second.Bars[0].Op)
	assert.Equal(t, first.Bars[0].To, second.Bars[0].From)
	assert.Equal(t, "B", second.Bars[1].Key)
	assert.Equal(t, OpEnter, second.Bars[1].Op)
	require.Len(t, second.Exits, 1)
	assert.Equal(t, "C", second.Exits[0].Key)
	assert.Equal(t, OpExit, second.Exits[0].Op)

	third := a.Render(selectFrame(t, ds, 2))
	require.Len(t, third.Bars, 2)
	// B moves from rank 1 to rank 0: same key, new position.
	assert.Equal(t, "B", third.Bars[0].Key)
	assert.Equal(t, OpUpdate, third.Bars[0].Op)
	assert.InDelta(t, 270, third.Bars[0].From.Y, 1e-9)
	assert.InDelta(t, 70, third.Bars[0].To.Y, 1e-9)
	assert.Equal(t, "C", third.Bars[1].Key)
	assert.Equal(t, OpEnter, third.Bars[1].Op)
	require.Len(t, third.Exits, 1)
	assert.Equal(t, "A", third.Exits[0].Key)
	assert.Equal(t, "33", third.Overlay.TotalLabel)
}

func TestRenderSameFrameTwiceIsStable(t *testing.T) {
	ds := scenario(t)
	a := NewAdapter(DefaultLayout)
	a.Render(selectFrame(t, ds, 1))
	again := a.Render(selectFrame(t, ds, 1))
	for _, b := range again.Bars {
		assert.Equal(t, OpUpdate, b.Op)
		assert.Equal(t, b.From, b.To)
	}
	assert.Empty(t, again.Exits)
}

func TestSetLayoutResetsReconciliation(t *testing.T) {
	ds := scenario(t)
	a := NewAdapter(DefaultLayout, WithTransition(time.Second))
	a.Render(selectFrame(t, ds, 0))

	a.SetLayout(Layout{Width: 60, Height: 12, Left: 10, Right: 10})
	cmds := a.Render(selectFrame(t, ds, 0))
	assert.Equal(t, time.Second, cmds.Transition)
	assert.Empty(t, cmds.Exits)
	for _, b := range cmds.Bars {
		assert.Equal(t, OpEnter, b.Op)
	}
	assert.Equal(t, 60.0, a.Layout().Width)
}

func TestAxis(t *testing.T) {
	a := NewAdapter(Layout{Width: 440, Height: 100, Left: 0, Right: 40}, WithTickSpacing(50))
	f := frame.Frame{Entries: []frame.Entry{{Country: "X", Value: 1.4e9}}, Total: 1.4e9}
	cmds := a.Render(f)
	require.Len(t, cmds.Axis, 8)
	assert.Equal(t, "0", cmds.Axis[0].Label)
	assert.Equal(t, "1.4G", cmds.Axis[7].Label)
	assert.InDelta(t, 400, cmds.Axis[7].X, 1e-6)
}

func TestInterpolate(t *testing.T) {
	from := Rect{X: 0, Y: 10, Width: 100, Height: 4}
	to := Rect{X: 0, Y: 30, Width: 50, Height: 4}
	assert.Equal(t, from, Interpolate(from, to, -1))
	assert.Equal(t, to, Interpolate(from, to, 2))
	assert.Equal(t, Rect{X: 0, Y: 20, Width: 75, Height: 4}, Interpolate(from, to, 0.5))
	assert.Equal(t, to, Bar{From: from, To: to}.At(1))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "1,234,567", FormatCount(1234567.4))
	assert.Equal(t, "0", FormatSI(0))
	assert.Equal(t, "200M", FormatSI(2e8))
	assert.Equal(t, "5k", FormatSI(5000))
	assert.Equal(t, "update", OpUpdate.String())
}
