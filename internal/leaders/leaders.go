// Package leaders keeps a sliding-window leaderboard of the countries that
// spent the most years near the top of the race.
package leaders

import (
	"sort"

	"github.com/keilerkonzept/population-race/internal/frame"
	"github.com/keilerkonzept/topk/heap"
	"github.com/keilerkonzept/topk/sliding"
)

const (
	DefaultWindow = 10
	DefaultDepth  = 3

	sketchWidth = 4096
	sketchDepth = 3
)

// Tracker counts, per country, the years within the last Window years in
// which it ranked inside the top Depth. One observed frame is one year.
type Tracker struct {
	k      int
	window int
	depth  int

	sketch *sliding.Sketch
	last   int
}

func New(k, window, depth int) *Tracker {
	if k < 1 {
		k = frame.DefaultK
	}
	if window < 1 {
		window = DefaultWindow
	}
	if depth < 1 {
		depth = DefaultDepth
	}
	t := &Tracker{k: k, window: window, depth: depth}
	t.Reset()
	return t
}

// Reset forgets every observation.
func (t *Tracker) Reset() {
	t.sketch = sliding.New(t.k, t.window,
		sliding.WithWidth(sketchWidth),
		sliding.WithDepth(sketchDepth),
	)
	t.last = -1
}

// Last is the index of the most recent observed frame, -1 if none.
func (t *Tracker) Last() int { return t.last }

func (t *Tracker) Window() int { return t.window }
func (t *Tracker) Depth() int  { return t.depth }

// Observe records f. Frames must arrive in increasing index order; a frame
// at or before Last is ignored, skipped indices count as empty years.
func (t *Tracker) Observe(f frame.Frame) {
	if f.Index <= t.last {
		return
	}
	if t.last >= 0 {
		t.sketch.Ticks(f.Index - t.last)
	}
	t.last = f.Index
	for _, e := range f.Entries {
		if e.Rank >= t.depth {
			break
		}
		t.sketch.Incr(e.Country)
	}
}

// Count is the number of years country spent in the top Depth within the window.
func (t *Tracker) Count(country string) uint32 {
	return t.sketch.Count(country)
}

// Top lists tracked countries with a non-zero count, highest first.
// Equal counts are ordered by country name.
func (t *Tracker) Top() []heap.Item {
	items := t.sketch.SortedSlice()
	out := make([]heap.Item, 0, len(items))
	for _, item := range items {
		item.Count = t.sketch.Count(item.Item)
		if item.Count > 0 {
			out = append(out, item)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		li, lj := out[i], out[j]
		if li.Count != lj.Count {
			return li.Count > lj.Count
		}
		return li.Item < lj.Item
	})
	return out
}
