package main

import (
	"fmt"
	"strings"
	"time"

	styles "github.com/charmbracelet/lipgloss"
	"github.com/keilerkonzept/population-race/internal/dataset"
)

// statsLines is the height of the perf stats block: title + 5 metric lines.
const statsLines = 6

var (
	selectedColor = styles.AdaptiveColor{Light: "0", Dark: "9"}
	borderColor   = styles.AdaptiveColor{Light: "#555", Dark: "#555"}
	errColor      = styles.AdaptiveColor{Light: "1", Dark: "9"}
	selectedFg    = styles.NewStyle().Foreground(selectedColor)
	borderFg      = styles.NewStyle().Foreground(borderColor)
	titleStyle    = styles.NewStyle().Bold(true)
	plotStyle     = styles.NewStyle().
			BorderStyle(styles.NormalBorder()).
			Foreground(borderColor).
			BorderForeground(borderColor)
)

func (m *model) View() string {
	switch m.phase {
	case phaseLoading:
		return styles.JoinVertical(styles.Left,
			m.spinner.View()+" Loading population data...",
			m.help.View(keys))
	case phaseFailed:
		errStyle := styles.NewStyle().Foreground(errColor)
		return styles.JoinVertical(styles.Left,
			titleStyle.Render(chartTitle(m.ds)),
			errStyle.Render("ERROR: "+m.err.Error()),
			m.help.View(keys))
	}

	chart := drawChart(m.cmds, m.anim.placed(), m.leftPaneWidth, m.chartRows)
	left := styles.NewStyle().Width(m.leftPaneWidth).Render(styles.JoinVertical(styles.Left,
		titleStyle.Render(chartTitle(m.ds)),
		drawLegend(m.ds.Regions()),
		chart,
		drawYearStrip(m.state.CurrentIndex, m.ds.Steps(), m.leftPaneWidth),
		drawOverlay(m.cmds.Overlay),
	))

	right := plotStyle.Render(styles.JoinVertical(styles.Left,
		m.listStyle.Render(m.list.View()),
		m.history.View(),
	))
	view := styles.JoinHorizontal(styles.Top, left, right)

	blocks := []string{view, m.status()}
	if m.cfg.StatsEnabled {
		statsStyle := styles.NewStyle().Foreground(errColor)
		blocks = append(blocks, statsStyle.Render(strings.Join(m.statsBlock(), "\n")))
	}
	blocks = append(blocks, m.help.View(keys))
	return styles.JoinVertical(styles.Left, blocks...)
}

func chartTitle(ds *dataset.Dataset) string {
	if ds == nil {
		return "Population growth per country"
	}
	return fmt.Sprintf("Population growth per country, %d to %d", dataset.StartYear, ds.LastYear())
}

// status shows the playback state and the label of the toggle control.
func (m *model) status() string {
	state := borderFg.Render("■ stopped")
	if m.state.Playing {
		state = selectedFg.Render("▶ playing")
	}
	control := "[space] " + m.state.Label()
	return fmt.Sprintf("%s  %s  %s", state, borderFg.Render(fmt.Sprintf("%d/%d", m.state.CurrentIndex+1, m.ds.Steps())), control)
}

func (m *model) statsBlock() []string {
	snap := m.stats.snapshot()
	title := "PERF STATS (STOPPED)"
	if m.state.Playing {
		title = "PERF STATS (PLAYING)"
	}
	leader := "-"
	if len(m.frame.Entries) > 0 {
		leader = fmt.Sprintf("%s (%s)", m.frame.Entries[0].Country, m.cmds.Bars[0].Label)
	}
	return []string{
		title,
		fmt.Sprintf("ticks: %d, frames: %d (%.1f/s)", snap.ticks, snap.frames, snap.framesPerSec),
		fmt.Sprintf("frame latency: last %s mean %s p95 %s max %s",
			formatMetricDuration(snap.frameLatency.last),
			formatMetricDuration(snap.frameLatency.mean),
			formatMetricDuration(snap.frameLatency.p95),
			formatMetricDuration(snap.frameLatency.max)),
		fmt.Sprintf("animation frames: %d", snap.animFrames),
		fmt.Sprintf("tick interval: %s, transition: %s", m.ctrl.Interval(), m.cfg.Transition),
		fmt.Sprintf("top-1: %s", leader),
	}
}

func formatMetricDuration(d time.Duration) string {
	if d <= 0 {
		return "0.000ms"
	}
	return fmt.Sprintf("%.3fms", float64(d)/float64(time.Millisecond))
}

// minPaneWidth is the narrowest either pane gets once the terminal can fit
// two of them side by side.
const minPaneWidth = 18

// computePaneWidths splits totalWidth between the chart and the side panel.
func computePaneWidths(totalWidth int, splitPercent int) (left, right int) {
	if totalWidth <= 1 {
		return 1, 1
	}
	left = min(max(totalWidth*splitPercent/100, 1), totalWidth-1)
	if totalWidth >= 2*minPaneWidth {
		left = min(max(left, minPaneWidth), totalWidth-minPaneWidth)
	}
	return left, totalWidth - left
}
