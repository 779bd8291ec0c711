package main

import (
	"strings"
	"testing"

	"github.com/keilerkonzept/population-race/internal/dataset"
	"github.com/keilerkonzept/population-race/internal/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlocks(t *testing.T) {
	tests := []struct {
		width float64
		want  string
	}{
		{0, ""},
		{-3, ""},
		{1, "█"},
		{2.5, "██▌"},
		{0.125, "▏"},
		{3.99, "████"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, blocks(tt.width), "width %v", tt.width)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "China", truncate("China", 10))
	assert.Equal(t, "United St…", truncate("United States", 10))
	assert.Equal(t, "U", truncate("United States", 1))
}

func TestDrawBarsOneRowPerRank(t *testing.T) {
	adapter := render.NewAdapter(chartLayout(80, 2))
	cmds := renderAt(t, adapter, 0)

	lines := drawBars(settled(cmds), 2)
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], strings.Repeat(" ", labelCols-2)+"A "), lines[0])
	assert.True(t, strings.HasSuffix(lines[0], " 10"), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], strings.Repeat(" ", labelCols-2)+"C "), lines[1])
	assert.True(t, strings.HasSuffix(lines[1], " 8"), lines[1])
}

func TestDrawBarIconMarker(t *testing.T) {
	bar := func(key, icon string) placedBar {
		return placedBar{Bar: render.Bar{Key: key, Icon: icon, Label: "7"}, Rect: render.Rect{Width: 2}}
	}
	assert.True(t, strings.HasSuffix(drawBar(bar("India", "")), "██ 7"))
	assert.True(t, strings.HasSuffix(drawBar(bar("India", "https://flags.example/in.svg")), "██ I 7"))
	assert.True(t, strings.HasSuffix(drawBar(bar("brazil", "br.png")), "██ B 7"))
	assert.True(t, strings.HasSuffix(drawBar(bar("Japan", "🇯🇵")), "██ 🇯🇵 7"))
	assert.True(t, strings.HasPrefix(drawBar(bar("Japan", "🇯🇵")), strings.Repeat(" ", labelCols-6)+"Japan "))
}

func TestIconMarker(t *testing.T) {
	assert.Equal(t, "", iconMarker("", "China"))
	assert.Equal(t, "C", iconMarker("/img/cn.png", "China"))
	assert.Equal(t, "★", iconMarker("★", "China"))
	assert.Equal(t, "●", iconMarker("http://x/y.png", ""))
}

func TestDrawBarsBetterRankWinsSharedRow(t *testing.T) {
	bars := []placedBar{
		{Bar: render.Bar{Key: "first", Label: "2"}, Rect: render.Rect{Y: 0.2, Height: 0.5, Width: 3}},
		{Bar: render.Bar{Key: "second", Label: "1"}, Rect: render.Rect{Y: 0.3, Height: 0.5, Width: 2}},
	}
	lines := drawBars(bars, 2)
	assert.Contains(t, lines[0], "first")
	assert.Empty(t, lines[1])
}

func TestDrawAxisSkipsOverlappingLabels(t *testing.T) {
	ticks := []render.AxisTick{
		{X: 2, Label: "0"},
		{X: 3, Label: "100M"},
		{X: 12, Label: "200M"},
	}
	axis := drawAxis(ticks, 20)
	assert.Contains(t, axis, "0")
	assert.NotContains(t, axis, "100M")
	assert.Contains(t, axis, "200M")
}

func TestDrawYearStrip(t *testing.T) {
	strip := drawYearStrip(0, 72, 40)
	assert.True(t, strings.HasPrefix(strip, "1950"), strip)
	assert.True(t, strings.HasSuffix(strip, "2021"), strip)
	assert.Contains(t, strip, "●")

	assert.Equal(t, "1950 1950", drawYearStrip(0, 1, 8))
}

func TestDrawLegend(t *testing.T) {
	assert.Empty(t, drawLegend(nil))
	legend := drawLegend([]dataset.RegionEntry{{Key: "Asia", Color: "#e41a1c"}, {Key: "Europe"}})
	assert.True(t, strings.HasPrefix(legend, "Region: "))
	assert.Contains(t, legend, "Asia")
	assert.Contains(t, legend, "Europe")
}
