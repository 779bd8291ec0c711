package main

import (
	"time"

	"github.com/charmbracelet/harmonica"
	"github.com/keilerkonzept/population-race/internal/render"
)

// settle is how many spring time constants fit in one transition; at 6 a
// critically damped spring is within 2% of its target.
const settle = 6.0

type axisState struct{ pos, vel float64 }

// placedBar is a bar at its current on-screen geometry.
type placedBar struct {
	render.Bar
	Rect render.Rect
}

type barMotion struct {
	bar                 render.Bar
	x, y, width, height axisState
}

func (b *barMotion) rect() render.Rect {
	return render.Rect{X: b.x.pos, Y: b.y.pos, Width: b.width.pos, Height: b.height.pos}
}

func (b *barMotion) snap() {
	to := b.bar.To
	b.x = axisState{pos: to.X}
	b.y = axisState{pos: to.Y}
	b.width = axisState{pos: to.Width}
	b.height = axisState{pos: to.Height}
}

// animator moves bars toward their latest targets with harmonica springs.
// A retarget mid-flight continues from the current position and velocity.
// Once the transition duration has elapsed every bar snaps to its target.
type animator struct {
	fps      int
	duration time.Duration
	spring   harmonica.Spring

	bars   []*barMotion
	byKey  map[string]*barMotion
	start  time.Time
	active bool
}

func newAnimator(fps int, duration time.Duration) *animator {
	if fps < 1 {
		fps = 30
	}
	a := &animator{fps: fps, duration: duration, byKey: map[string]*barMotion{}}
	if duration > 0 {
		a.spring = harmonica.NewSpring(harmonica.FPS(fps), settle/duration.Seconds(), 1.0)
	}
	return a
}

func (a *animator) frameInterval() time.Duration { return time.Second / time.Duration(a.fps) }

// retarget installs the bars of a new frame. Exits are dropped at once.
func (a *animator) retarget(cmds render.DrawCommands, now time.Time) {
	next := make(map[string]*barMotion, len(cmds.Bars))
	bars := make([]*barMotion, 0, len(cmds.Bars))
	for _, b := range cmds.Bars {
		m, ok := a.byKey[b.Key]
		if !ok || b.Op == render.OpEnter {
			m = &barMotion{bar: b}
			m.snap()
		}
		m.bar = b
		next[b.Key] = m
		bars = append(bars, m)
	}
	a.bars, a.byKey = bars, next
	a.start = now

	if a.duration <= 0 {
		a.snapAll()
		return
	}
	a.active = false
	for _, m := range a.bars {
		if m.rect() != m.bar.To {
			a.active = true
			break
		}
	}
}

// step advances every bar by one animation frame.
func (a *animator) step(now time.Time) {
	if !a.active {
		return
	}
	if now.Sub(a.start) >= a.duration {
		a.snapAll()
		return
	}
	for _, m := range a.bars {
		to := m.bar.To
		m.x.pos, m.x.vel = a.spring.Update(m.x.pos, m.x.vel, to.X)
		m.y.pos, m.y.vel = a.spring.Update(m.y.pos, m.y.vel, to.Y)
		m.width.pos, m.width.vel = a.spring.Update(m.width.pos, m.width.vel, to.Width)
		m.height.pos, m.height.vel = a.spring.Update(m.height.pos, m.height.vel, to.Height)
	}
}

func (a *animator) snapAll() {
	for _, m := range a.bars {
		m.snap()
	}
	a.active = false
}

func (a *animator) isActive() bool { return a.active }

// placed returns the bars at their current geometry, in rank order.
func (a *animator) placed() []placedBar {
	out := make([]placedBar, len(a.bars))
	for i, m := range a.bars {
		out[i] = placedBar{Bar: m.bar, Rect: m.rect()}
	}
	return out
}
