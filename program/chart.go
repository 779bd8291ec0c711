package main

import (
	"fmt"
	"math"
	"path"
	"strings"
	"unicode"

	styles "github.com/charmbracelet/lipgloss"
	"github.com/keilerkonzept/population-race/internal/dataset"
	"github.com/keilerkonzept/population-race/internal/render"
)

const (
	// columns reserved left of the bars for country names
	labelCols = 16
	// columns reserved right of the longest bar for its value
	valueCols = 18
	// approximate columns between two axis labels
	tickCols = 12
)

var partialBlocks = []string{"", "▏", "▎", "▍", "▌", "▋", "▊", "▉"}

var (
	axisFg    = styles.NewStyle().Foreground(borderColor)
	yearStyle = styles.NewStyle().Bold(true).Foreground(styles.AdaptiveColor{Light: "#777", Dark: "#999"})
	totalFg   = styles.NewStyle().Foreground(styles.AdaptiveColor{Light: "#777", Dark: "#999"})
)

// chartLayout maps the chart onto a terminal grid: one unit is one column
// horizontally and one row vertically.
func chartLayout(width, rows int) render.Layout {
	width = max(width, labelCols+valueCols+1)
	rows = max(rows, 1)
	return render.Layout{
		Width:  float64(width),
		Height: float64(rows),
		Left:   labelCols,
		Right:  valueCols,
	}
}

// drawAxis places the tick labels at their columns, skipping any that would
// overlap the previous label.
func drawAxis(ticks []render.AxisTick, width int) string {
	line := []rune(strings.Repeat(" ", max(width, 1)))
	next := 0
	for _, t := range ticks {
		label := []rune(t.Label)
		col := int(math.Round(t.X)) - len(label)/2
		if col < next || col < 0 || col+len(label) > len(line) {
			continue
		}
		copy(line[col:], label)
		next = col + len(label) + 1
	}
	return axisFg.Render(strings.TrimRight(string(line), " "))
}

// drawBars draws one row per band. When two bars cross the same row during
// a transition the better-ranked one wins.
func drawBars(bars []placedBar, rows int) []string {
	rows = max(rows, 1)
	lines := make([]string, rows)
	taken := make([]bool, rows)
	for _, b := range bars {
		row := int(b.Rect.Y + b.Rect.Height/2)
		row = max(0, min(rows-1, row))
		if taken[row] {
			continue
		}
		taken[row] = true
		lines[row] = drawBar(b)
	}
	return lines
}

func drawBar(b placedBar) string {
	label := fmt.Sprintf("%*s ", labelCols-1, truncate(b.Key, labelCols-1))

	fill := styles.NewStyle()
	if b.Color != "" {
		fill = fill.Foreground(styles.Color(b.Color))
	}
	end := " "
	if marker := iconMarker(b.Icon, b.Key); marker != "" {
		end = " " + fill.Render(marker) + " "
	}
	return label + fill.Render(blocks(b.Rect.Width)) + end + b.Label
}

// iconMarker is the glyph drawn at the end of a bar. Icons that point at an
// image cannot be shown in a terminal and fall back to the country's initial.
func iconMarker(icon, country string) string {
	if icon == "" {
		return ""
	}
	if !strings.ContainsAny(icon, "/:") && path.Ext(icon) == "" {
		return truncate(icon, 2)
	}
	for _, r := range country {
		return string(unicode.ToUpper(r))
	}
	return "●"
}

// blocks renders a horizontal bar in eighths of a column.
func blocks(width float64) string {
	if width <= 0 || math.IsNaN(width) {
		return ""
	}
	eighths := int(math.Round(width * 8))
	return strings.Repeat("█", eighths/8) + partialBlocks[eighths%8]
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

// drawYearStrip is a progress line from the first to the last year with a
// marker at the current index.
func drawYearStrip(index, steps, width int) string {
	first := fmt.Sprint(dataset.StartYear)
	last := fmt.Sprint(dataset.StartYear + steps - 1)
	inner := width - len(first) - len(last) - 2
	if inner < 2 || steps < 1 {
		return first + " " + last
	}
	pos := 0
	if steps > 1 {
		pos = index * (inner - 1) / (steps - 1)
	}
	pos = max(0, min(inner-1, pos))
	done := strings.Repeat("━", pos)
	rest := strings.Repeat("─", inner-1-pos)
	return axisFg.Render(first) + " " + selectedFg.Render(done+"●") + axisFg.Render(rest) + " " + axisFg.Render(last)
}

func drawLegend(regions []dataset.RegionEntry) string {
	if len(regions) == 0 {
		return ""
	}
	parts := make([]string, 0, len(regions))
	for _, r := range regions {
		dot := styles.NewStyle()
		if r.Color != "" {
			dot = dot.Foreground(styles.Color(r.Color))
		}
		parts = append(parts, dot.Render("●")+" "+r.Key)
	}
	return "Region: " + strings.Join(parts, "  ")
}

func drawOverlay(o render.Overlay) string {
	return yearStyle.Render(o.YearLabel) + "  " + totalFg.Render("Total: "+o.TotalLabel)
}

// drawChart composes the axis and the bar rows for one set of placed bars.
func drawChart(cmds render.DrawCommands, bars []placedBar, width, rows int) string {
	var sb strings.Builder
	sb.WriteString(drawAxis(cmds.Axis, width))
	for _, line := range drawBars(bars, rows) {
		sb.WriteByte('\n')
		sb.WriteString(line)
	}
	return sb.String()
}

// settled places every bar at its target geometry.
func settled(cmds render.DrawCommands) []placedBar {
	out := make([]placedBar, len(cmds.Bars))
	for i, b := range cmds.Bars {
		out[i] = placedBar{Bar: b, Rect: b.To}
	}
	return out
}
