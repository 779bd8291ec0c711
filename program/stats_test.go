package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLatencyWindow(t *testing.T) {
	w := newLatencyWindow(3)
	assert.Equal(t, latencySummary{}, w.summary())

	w.observe(1 * time.Millisecond)
	w.observe(5 * time.Millisecond)
	w.observe(3 * time.Millisecond)
	w.observe(2 * time.Millisecond) // overwrites the first sample

	s := w.summary()
	assert.Equal(t, 3, s.count)
	assert.Equal(t, 2*time.Millisecond, s.last)
	assert.Equal(t, 5*time.Millisecond, s.max)
	assert.Equal(t, 5*time.Millisecond, s.p95)
	assert.Equal(t, 10*time.Millisecond/3, s.mean)
}

func TestLatencyWindowPercentile(t *testing.T) {
	w := newLatencyWindow(32)
	for i := 20; i >= 1; i-- {
		w.observe(time.Duration(i) * time.Millisecond)
	}
	s := w.summary()
	assert.Equal(t, 20, s.count)
	assert.Equal(t, 1*time.Millisecond, s.last)
	assert.Equal(t, 19*time.Millisecond, s.p95)
	assert.Equal(t, 20*time.Millisecond, s.max)
}

func TestPipelineStatsDisabled(t *testing.T) {
	s := newPipelineStats(16)
	s.observeTick()
	s.observeFrame(time.Now(), time.Millisecond)
	assert.Equal(t, statsSnapshot{}, s.snapshot())
}

func TestPipelineStats(t *testing.T) {
	s := newPipelineStats(16)
	s.setEnabled(true)

	t0 := time.Unix(100, 0)
	s.observeTick()
	s.observeTick()
	s.observeFrame(t0, time.Millisecond)
	s.observeFrame(t0.Add(time.Second), 3*time.Millisecond)
	s.observeFrame(t0.Add(2*time.Second), 2*time.Millisecond)
	s.observeAnimFrame()

	snap := s.snapshot()
	assert.EqualValues(t, 2, snap.ticks)
	assert.EqualValues(t, 3, snap.frames)
	assert.EqualValues(t, 1, snap.animFrames)
	assert.InDelta(t, 1.0, snap.framesPerSec, 1e-9)
	assert.Equal(t, 3*time.Millisecond, snap.frameLatency.max)
	assert.Equal(t, 2*time.Millisecond, snap.frameLatency.last)
	assert.Equal(t, "2.000ms", formatMetricDuration(snap.frameLatency.mean))
}
