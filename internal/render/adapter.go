// Package render turns ranked frames into draw commands for a presentation
// surface. Bars are keyed by country, so a surface can move an existing bar
// to its new rank instead of recreating it.
package render

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/keilerkonzept/population-race/internal/dataset"
	"github.com/keilerkonzept/population-race/internal/frame"
)

const (
	DefaultTransition  = 500 * time.Millisecond
	DefaultTickSpacing = 80
	BandPadding        = 0.1
)

// Layout is the drawing area and its margins, in surface units.
type Layout struct {
	Width, Height            float64
	Top, Right, Bottom, Left float64
}

// DefaultLayout is an 800x500 canvas with room for labels on the left.
var DefaultLayout = Layout{Width: 800, Height: 500, Top: 50, Right: 30, Bottom: 30, Left: 100}

type Op int

const (
	OpEnter Op = iota
	OpUpdate
	OpExit
)

func (o Op) String() string {
	switch o {
	case OpEnter:
		return "enter"
	case OpUpdate:
		return "update"
	case OpExit:
		return "exit"
	}
	return "op(" + strconv.Itoa(int(o)) + ")"
}

type Rect struct {
	X, Y, Width, Height float64
}

// Bar is the draw primitive for one country. A surface tweens from From to
// To over the transition duration.
type Bar struct {
	Key   string
	Op    Op
	Rank  int
	Value float64
	Label string
	Color string
	Icon  string
	From  Rect
	To    Rect
}

// At is the bar's geometry at progress t in [0, 1].
func (b Bar) At(t float64) Rect { return Interpolate(b.From, b.To, t) }

// AxisTick is a labeled mark on the value axis.
type AxisTick struct {
	Value float64
	X     float64
	Label string
}

// Overlay is the text drawn over the chart.
type Overlay struct {
	Year       int
	YearLabel  string
	Total      float64
	TotalLabel string
}

// DrawCommands is everything a surface needs to draw one frame.
type DrawCommands struct {
	Index         int
	ValueScale    LinearScale
	CategoryScale BandScale
	Axis          []AxisTick
	Bars          []Bar
	// Exits are bars that left the top-K; they are removed, not animated.
	Exits      []Bar
	Overlay    Overlay
	Transition time.Duration
}

type Option func(*Adapter)

func WithTransition(d time.Duration) Option {
	return func(a *Adapter) {
		if d >= 0 {
			a.transition = d
		}
	}
}

// WithTickSpacing sets the approximate surface distance between axis ticks.
func WithTickSpacing(units float64) Option {
	return func(a *Adapter) {
		if units > 0 {
			a.tickSpacing = units
		}
	}
}

// Adapter renders frames and remembers the previous bars for reconciliation.
// It is not safe for concurrent use.
type Adapter struct {
	layout      Layout
	transition  time.Duration
	tickSpacing float64
	prev        map[string]Bar
}

func NewAdapter(layout Layout, opts ...Option) *Adapter {
	a := &Adapter{
		layout:      layout,
		transition:  DefaultTransition,
		tickSpacing: DefaultTickSpacing,
		prev:        map[string]Bar{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Adapter) Layout() Layout { return a.layout }

// SetLayout changes the drawing area. Previous geometry is meaningless in
// the new area, so every bar of the next render enters fresh.
func (a *Adapter) SetLayout(l Layout) {
	a.layout = l
	a.Reset()
}

// Reset forgets the previously rendered bars.
func (a *Adapter) Reset() {
	a.prev = map[string]Bar{}
}

// Render computes scales, keyed bars and overlay text for f.
func (a *Adapter) Render(f frame.Frame) DrawCommands {
	l := a.layout
	x := LinearScale{
		Domain: [2]float64{0, f.Max()},
		Range:  [2]float64{l.Left, l.Width - l.Right},
	}
	y := BandScale{
		Domain:  f.Countries(),
		Range:   [2]float64{l.Top, l.Height - l.Bottom},
		Padding: BandPadding,
	}

	cmds := DrawCommands{
		Index:         f.Index,
		ValueScale:    x,
		CategoryScale: y,
		Axis:          a.axis(x),
		Bars:          make([]Bar, 0, len(f.Entries)),
		Overlay: Overlay{
			Year:       dataset.StartYear + f.Index,
			YearLabel:  strconv.Itoa(dataset.StartYear + f.Index),
			Total:      f.Total,
			TotalLabel: FormatCount(f.Total),
		},
		Transition: a.transition,
	}

	next := make(map[string]Bar, len(f.Entries))
	x0 := x.Map(0)
	bw := y.Bandwidth()
	for i, e := range f.Entries {
		to := Rect{X: x0, Y: y.At(i), Width: x.Map(e.Value) - x0, Height: bw}
		b := Bar{
			Key:   e.Country,
			Op:    OpEnter,
			Rank:  e.Rank,
			Value: e.Value,
			Label: FormatCount(e.Value),
			Color: e.Color,
			Icon:  e.Icon,
			From:  to,
			To:    to,
		}
		if p, ok := a.prev[e.Country]; ok {
			b.Op = OpUpdate
			b.From = p.To
		}
		cmds.Bars = append(cmds.Bars, b)
		next[e.Country] = b
	}
	for key, p := range a.prev {
		if _, ok := next[key]; ok {
			continue
		}
		p.Op = OpExit
		p.From = p.To
		cmds.Exits = append(cmds.Exits, p)
	}
	sort.Slice(cmds.Exits, func(i, j int) bool { return cmds.Exits[i].Key < cmds.Exits[j].Key })
	a.prev = next
	return cmds
}

func (a *Adapter) axis(x LinearScale) []AxisTick {
	width := x.Range[1] - x.Range[0]
	count := int(width / a.tickSpacing)
	if count < 1 {
		count = 1
	}
	values := x.Ticks(count)
	ticks := make([]AxisTick, len(values))
	for i, v := range values {
		ticks[i] = AxisTick{Value: v, X: x.Map(v), Label: FormatSI(v)}
	}
	return ticks
}

// Interpolate blends two rectangles linearly; t is clamped to [0, 1].
func Interpolate(from, to Rect, t float64) Rect {
	t = math.Max(0, math.Min(1, t))
	lerp := func(a, b float64) float64 { return a + (b-a)*t }
	return Rect{
		X:      lerp(from.X, to.X),
		Y:      lerp(from.Y, to.Y),
		Width:  lerp(from.Width, to.Width),
		Height: lerp(from.Height, to.Height),
	}
}

// FormatCount renders a population with thousands separators.
func FormatCount(v float64) string {
	return humanize.Comma(int64(math.Round(v)))
}

// FormatSI renders an axis value with an SI prefix, e.g. "1.4G".
func FormatSI(v float64) string {
	if v == 0 {
		return "0"
	}
	return strings.ReplaceAll(humanize.SIWithDigits(v, 1, ""), " ", "")
}

