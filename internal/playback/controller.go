// Package playback advances the race's time index at a fixed cadence.
//
// A Controller is either stopped or playing. While playing it keeps exactly
// one pending tick; every tick moves the index forward by one and publishes
// the new state to subscribers. Reaching the last index stops playback.
//
//	c, _ := playback.New(ds.Steps(), playback.WithInterval(200*time.Millisecond))
//	defer c.Close()
//	c.Subscribe(func(s playback.State) { redraw(s.CurrentIndex) })
//	c.Toggle()
package playback

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// DefaultInterval is the time between two ticks.
const DefaultInterval = 200 * time.Millisecond

// ErrClosed is returned by operations on a closed controller.
var ErrClosed = errors.New("playback controller is closed")

// State is a snapshot of the playback position.
type State struct {
	CurrentIndex int
	Playing      bool
}

// Label is the affordance a toggle control should show for this state.
func (s State) Label() string {
	if s.Playing {
		return "Stop"
	}
	return "Start"
}

// Timer is a pending scheduled call. *time.Timer satisfies it.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

type Option func(*Controller)

// WithInterval sets the tick interval. Non-positive values keep the default.
func WithInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithScheduler replaces time.AfterFunc as the scheduling primitive.
func WithScheduler(s Scheduler) Option {
	return func(c *Controller) {
		if s != nil {
			c.sched = s
		}
	}
}

// Controller owns the PlaybackState of one visualization session.
type Controller struct {
	steps    int
	interval time.Duration
	sched    Scheduler

	mu     sync.Mutex
	state  State
	timer  Timer
	gen    uint64
	ticks  uint64
	closed bool
	subs   []func(State)
}

// New creates a stopped controller at index 0 for a series of the given length.
func New(steps int, opts ...Option) (*Controller, error) {
	if steps < 1 {
		return nil, fmt.Errorf("playback: steps must be >= 1, got %d", steps)
	}
	c := &Controller{
		steps:    steps,
		interval: DefaultInterval,
		sched:    realScheduler{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Subscribe registers fn to receive the state after every tick, Reset and Seek.
// Callbacks run outside the controller's lock, on the tick goroutine or on
// the caller of Reset/Seek, and must not block for long.
func (c *Controller) Subscribe(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.subs = append(c.subs, fn)
}

// State returns the current playback state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Steps is the series length the controller was created for.
func (c *Controller) Steps() int { return c.steps }

// Interval is the time between two ticks.
func (c *Controller) Interval() time.Duration { return c.interval }

// Ticks counts the ticks processed so far.
func (c *Controller) Ticks() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ticks
}

// Toggle starts playback when stopped and stops it when playing.
// It is a no-op on a closed controller.
func (c *Controller) Toggle() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return c.state
	}
	if c.state.Playing {
		c.stopLocked()
	} else {
		c.state.Playing = true
		c.scheduleLocked()
	}
	return c.state
}

// Reset stops playback and rewinds to index 0.
func (c *Controller) Reset() error {
	return c.Seek(0, true)
}

// Seek moves to index, optionally stopping playback first. A playing
// controller keeps its pending tick.
func (c *Controller) Seek(index int, stop bool) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if index < 0 || index >= c.steps {
		c.mu.Unlock()
		return fmt.Errorf("playback: seek to %d outside [0, %d)", index, c.steps)
	}
	if stop {
		c.stopLocked()
	}
	c.state.CurrentIndex = index
	st, subs := c.state, c.subs
	c.mu.Unlock()

	publish(st, subs)
	return nil
}

// Close cancels any pending tick. Nothing is published after Close returns,
// except by a subscriber call already in progress.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.stopLocked()
	c.closed = true
	c.subs = nil
}

func (c *Controller) stopLocked() {
	c.gen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.state.Playing = false
}

func (c *Controller) scheduleLocked() {
	c.gen++
	gen := c.gen
	c.timer = c.sched.AfterFunc(c.interval, func() { c.tick(gen) })
}

func (c *Controller) tick(gen uint64) {
	c.mu.Lock()
	// A timer that fired concurrently with Toggle/Close sees a newer generation.
	if c.closed || !c.state.Playing || gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	c.ticks++

	next := c.state.CurrentIndex + 1
	last := c.steps - 1
	if next >= last {
		next = last
		c.state.Playing = false
		c.gen++
	}
	c.state.CurrentIndex = next
	st, subs := c.state, c.subs
	c.mu.Unlock()

	publish(st, subs)

	if !st.Playing {
		return
	}
	// The next tick is scheduled only after this one was delivered, so
	// subscribers never see two ticks at once.
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || !c.state.Playing || gen != c.gen {
		return
	}
	c.scheduleLocked()
}

func publish(st State, subs []func(State)) {
	for _, fn := range subs {
		fn(st)
	}
}
