package main

import (
	"slices"
	"sync/atomic"
	"time"
)

// latencyWindow keeps the most recent frame latencies, overwriting the
// oldest sample once full.
type latencyWindow struct {
	samples []time.Duration
	next    int
	full    bool
}

func newLatencyWindow(size int) *latencyWindow {
	return &latencyWindow{samples: make([]time.Duration, max(1, size))}
}

func (w *latencyWindow) observe(d time.Duration) {
	w.samples[w.next] = d
	w.next = (w.next + 1) % len(w.samples)
	if w.next == 0 {
		w.full = true
	}
}

func (w *latencyWindow) recent() []time.Duration {
	if w.full {
		return w.samples
	}
	return w.samples[:w.next]
}

type latencySummary struct {
	count int
	last  time.Duration
	mean  time.Duration
	p95   time.Duration
	max   time.Duration
}

func (w *latencyWindow) summary() latencySummary {
	recent := w.recent()
	if len(recent) == 0 {
		return latencySummary{}
	}
	sorted := slices.Clone(recent)
	slices.Sort(sorted)

	var sum time.Duration
	for _, d := range sorted {
		sum += d
	}
	lastAt := (w.next - 1 + len(w.samples)) % len(w.samples)
	return latencySummary{
		count: len(sorted),
		last:  w.samples[lastAt],
		mean:  sum / time.Duration(len(sorted)),
		p95:   sorted[(len(sorted)*95+99)/100-1],
		max:   sorted[len(sorted)-1],
	}
}

// pipelineStats tracks tick and frame timings for the perf panel. The ring
// is only touched from the UI goroutine; counters may be read anywhere.
type pipelineStats struct {
	enabled atomic.Bool

	startedNs    atomic.Int64
	ticks        atomic.Uint64
	frames       atomic.Uint64
	firstFrameNs atomic.Int64
	lastFrameNs  atomic.Int64

	frameLatency *latencyWindow
	animFrames   atomic.Uint64
}

func newPipelineStats(window int) *pipelineStats {
	s := &pipelineStats{
		frameLatency: newLatencyWindow(window),
	}
	s.startedNs.Store(time.Now().UnixNano())
	return s
}

func (s *pipelineStats) setEnabled(v bool) { s.enabled.Store(v) }
func (s *pipelineStats) isEnabled() bool   { return s.enabled.Load() }

func (s *pipelineStats) observeTick() {
	if !s.isEnabled() {
		return
	}
	s.ticks.Add(1)
}

func (s *pipelineStats) observeFrame(now time.Time, d time.Duration) {
	if !s.isEnabled() {
		return
	}
	nowNs := now.UnixNano()
	s.firstFrameNs.CompareAndSwap(0, nowNs)
	s.lastFrameNs.Store(nowNs)
	s.frames.Add(1)
	s.frameLatency.observe(d)
}

func (s *pipelineStats) observeAnimFrame() {
	if !s.isEnabled() {
		return
	}
	s.animFrames.Add(1)
}

type statsSnapshot struct {
	started      time.Time
	ticks        uint64
	frames       uint64
	animFrames   uint64
	framesPerSec float64
	frameLatency latencySummary
}

func (s *pipelineStats) snapshot() statsSnapshot {
	if !s.isEnabled() {
		return statsSnapshot{}
	}
	started := time.Time{}
	if ns := s.startedNs.Load(); ns != 0 {
		started = time.Unix(0, ns)
	}
	frames := s.frames.Load()

	fps := 0.0
	first, last := s.firstFrameNs.Load(), s.lastFrameNs.Load()
	if first != 0 && last > first && frames > 1 {
		fps = float64(frames-1) / time.Duration(last-first).Seconds()
	}
	return statsSnapshot{
		started:      started,
		ticks:        s.ticks.Load(),
		frames:       frames,
		animFrames:   s.animFrames.Load(),
		framesPerSec: fps,
		frameLatency: s.frameLatency.summary(),
	}
}
