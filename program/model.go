package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tui "github.com/charmbracelet/bubbletea"
	styles "github.com/charmbracelet/lipgloss"
	"github.com/keilerkonzept/population-race/internal/config"
	"github.com/keilerkonzept/population-race/internal/dataset"
	"github.com/keilerkonzept/population-race/internal/fetch"
	"github.com/keilerkonzept/population-race/internal/frame"
	"github.com/keilerkonzept/population-race/internal/leaders"
	"github.com/keilerkonzept/population-race/internal/observability"
	"github.com/keilerkonzept/population-race/internal/playback"
	"github.com/keilerkonzept/population-race/internal/render"
	"github.com/keilerkonzept/topk/heap"
)

type loader func(ctx context.Context) (*dataset.Dataset, error)

type phase int

const (
	phaseLoading phase = iota
	phaseReady
	phaseFailed
)

type (
	errMsg       struct{ err error }
	datasetMsg   struct{ ds *dataset.Dataset }
	animFrameMsg time.Time
)

// stateMsg is one published playback state. ticks is the controller's tick
// count at publish time; it grows by one for every tick and stays put for
// Reset and Seek.
type stateMsg struct {
	playback.State
	ticks uint64
}

type model struct {
	cfg     config.Config
	load    loader
	log     *slog.Logger
	metrics *observability.Collector
	stats   *pipelineStats

	width, height  int
	leftPaneWidth  int
	rightPaneWidth int
	chartRows      int

	phase phase
	err   error

	spinner   spinner.Model
	help      help.Model
	list      list.Model
	listStyle styles.Style
	history   *history

	ds        *dataset.Dataset
	ctrl      *playback.Controller
	states    *stateQueue
	state     playback.State
	ticksSeen uint64
	frame     frame.Frame
	cmds      render.DrawCommands
	adapter   *render.Adapter
	anim      *animator
	leaders   *leaders.Tracker
	animating bool
}

func newModel(cfg config.Config, load loader, log *slog.Logger, metrics *observability.Collector) *model {
	const (
		defaultWidth  = 80
		defaultHeight = 20
	)

	d := list.NewDefaultDelegate()
	d.Styles.NormalTitle = d.Styles.NormalTitle.Padding(0, 0, 0, 1)
	d.Styles.NormalDesc = d.Styles.NormalDesc.Padding(0, 0, 0, 1)
	d.Styles.SelectedTitle = d.Styles.NormalTitle.Foreground(selectedColor)
	d.Styles.SelectedDesc = d.Styles.NormalDesc
	d.ShowDescription = true

	l := list.New(make([]list.Item, 0), d, defaultWidth/3, defaultHeight/2)
	l.Title = fmt.Sprintf("Top %d, last %d years", cfg.LeadersDepth, cfg.LeadersWindow)
	l.Styles.Title = styles.NewStyle().Bold(true)
	l.Styles.NoItems = l.Styles.NoItems.Padding(0, 1)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetShowPagination(false)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = selectedFg

	stats := newPipelineStats(cfg.StatsWindow)
	stats.setEnabled(cfg.StatsEnabled)

	m := &model{
		cfg:       cfg,
		load:      load,
		log:       log,
		metrics:   metrics,
		stats:     stats,
		spinner:   s,
		help:      help.New(),
		list:      l,
		listStyle: styles.NewStyle(),
		history:   newHistory(defaultWidth/3, defaultHeight/2),
		states:    newStateQueue(),
		adapter: render.NewAdapter(chartLayout(defaultWidth, 1),
			render.WithTransition(cfg.Transition),
			render.WithTickSpacing(tickCols)),
		anim:    newAnimator(cfg.AnimFPS, cfg.Transition),
		leaders: leaders.New(cfg.TopK, cfg.LeadersWindow, cfg.LeadersDepth),
	}
	m.leftPaneWidth, m.rightPaneWidth = computePaneWidths(defaultWidth, cfg.ViewSplit)
	return m
}

func (m *model) Init() tui.Cmd {
	return tui.Batch(m.spinner.Tick, m.loadCmd())
}

func (m *model) loadCmd() tui.Cmd {
	return func() tui.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.cfg.Timeout)
		defer cancel()
		ds, err := m.load(ctx)
		if err != nil {
			return errMsg{err}
		}
		return datasetMsg{ds}
	}
}

func (m *model) Update(msg tui.Msg) (tui.Model, tui.Cmd) {
	switch msg := msg.(type) {
	case errMsg:
		m.fail(msg.err)
		return m, nil
	case datasetMsg:
		return m, m.start(msg.ds)
	case stateMsg:
		return m, tui.Batch(m.onState(msg), m.states.wait())
	case animFrameMsg:
		m.anim.step(time.Time(msg))
		m.stats.observeAnimFrame()
		if m.anim.isActive() {
			return m, m.animFrame()
		}
		m.animating = false
		return m, nil
	case spinner.TickMsg:
		if m.phase != phaseLoading {
			return m, nil
		}
		var cmd tui.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tui.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil
	case tui.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.close()
			return m, tui.Quit
		case key.Matches(msg, keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			m.resize(m.width, m.height)
			return m, nil
		case key.Matches(msg, keys.Toggle):
			m.toggle()
			return m, nil
		case key.Matches(msg, keys.Reset):
			if m.ctrl != nil {
				if err := m.ctrl.Reset(); err != nil {
					m.log.Warn("rewind failed", "err", err)
				}
			}
			return m, nil
		}
	}
	return m, nil
}

// start installs a freshly loaded dataset and draws its first frame.
func (m *model) start(ds *dataset.Dataset) tui.Cmd {
	ctrl, err := playback.New(ds.Steps(), playback.WithInterval(m.cfg.TickInterval))
	if err != nil {
		m.fail(err)
		return nil
	}
	m.ds = ds
	m.ctrl = ctrl
	m.chartRows = min(m.cfg.TopK, ds.Len())
	m.adapter.SetLayout(chartLayout(m.leftPaneWidth, m.chartRows))
	m.resize(m.width, m.height)
	m.phase = phaseReady
	ctrl.Subscribe(func(st playback.State) {
		m.states.push(stateMsg{State: st, ticks: ctrl.Ticks()})
	})

	m.log.Info("dataset ready", "series", ds.Len(), "steps", ds.Steps(), "last_year", ds.LastYear())
	cmd := m.onState(stateMsg{State: ctrl.State()})
	if m.cfg.Autoplay {
		m.toggle()
	}
	return tui.Batch(cmd, m.states.wait())
}

func (m *model) toggle() {
	if m.ctrl == nil {
		return
	}
	st := m.ctrl.Toggle()
	m.state = st
	m.metrics.ObservePlaying(st.Playing)
	m.log.Debug("playback toggled", "playing", st.Playing, "index", st.CurrentIndex)
}

// onState moves the view to a new playback state.
func (m *model) onState(msg stateMsg) tui.Cmd {
	if m.ctrl == nil {
		return nil
	}
	st := msg.State
	wasPlaying := m.state.Playing
	m.state = st
	if wasPlaying && !st.Playing {
		m.metrics.SetPlaying(false)
	}
	if msg.ticks > m.ticksSeen {
		m.ticksSeen = msg.ticks
		m.stats.observeTick()
		m.metrics.ObserveTick(st.CurrentIndex)
	}

	began := time.Now()
	f, err := frame.Select(m.ds, st.CurrentIndex, m.cfg.TopK)
	if err != nil {
		m.fail(err)
		return nil
	}
	m.frame = f
	m.cmds = m.adapter.Render(f)
	m.anim.retarget(m.cmds, began)
	m.observeLeaders(st.CurrentIndex)
	m.history.update(m.ds, f)

	d := time.Since(began)
	m.stats.observeFrame(time.Now(), d)
	m.metrics.ObserveFrame(d)

	if m.anim.isActive() && !m.animating {
		m.animating = true
		return m.animFrame()
	}
	return nil
}

// observeLeaders feeds every year up to index into the tracker, starting
// over when playback went backwards.
func (m *model) observeLeaders(index int) {
	if index < m.leaders.Last() {
		m.leaders.Reset()
	}
	for i := m.leaders.Last() + 1; i <= index; i++ {
		f, err := frame.Select(m.ds, i, m.cfg.TopK)
		if err != nil {
			m.log.Warn("leaders skipped a year", "index", i, "err", err)
			continue
		}
		m.leaders.Observe(f)
	}
	top := m.leaders.Top()
	items := make([]list.Item, len(top))
	for i, it := range top {
		items[i] = listItem{Rank: i + 1, Item: it}
	}
	m.list.SetItems(items)
}

func (m *model) animFrame() tui.Cmd {
	return tui.Tick(m.anim.frameInterval(), func(t time.Time) tui.Msg { return animFrameMsg(t) })
}

func (m *model) fail(err error) {
	m.err = err
	m.phase = phaseFailed
	m.metrics.ObserveLoadFailure(failureKind(err))
	m.log.Error("race failed", "err", err)
	if m.ctrl != nil {
		m.ctrl.Close()
	}
	m.states.close()
}

func (m *model) close() {
	if m.ctrl != nil {
		m.ctrl.Close()
	}
	m.states.close()
}

func (m *model) resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	m.width, m.height = width, height
	m.leftPaneWidth, m.rightPaneWidth = computePaneWidths(width, m.cfg.ViewSplit)

	if m.chartRows > 0 {
		m.adapter.SetLayout(chartLayout(m.leftPaneWidth, m.chartRows))
		if m.phase == phaseReady {
			m.cmds = m.adapter.Render(m.frame)
			m.anim.retarget(m.cmds, time.Now())
			m.anim.snapAll()
		}
	}

	rightW := max(1, m.rightPaneWidth-2)
	available := max(4, height-m.chromeLines())
	listH := max(2, available/2)
	m.list.SetSize(rightW, listH)
	m.listStyle = styles.NewStyle().Width(rightW).Height(listH)
	m.history.resize(rightW, max(1, available-listH-2))
}

// chromeLines counts the rows around the chart: title, legend, axis, year
// strip, overlay, status, stats and help.
func (m *model) chromeLines() int {
	lines := 6 + 1
	if m.help.ShowAll {
		lines++
	}
	if m.cfg.StatsEnabled {
		lines += statsLines
	}
	return lines
}

// failureKind labels an error for the load failure metric.
func failureKind(err error) string {
	var malformed *dataset.MalformedDatasetError
	var loadErr *fetch.LoadError
	var outOfRange *frame.IndexOutOfRangeError
	switch {
	case errors.As(err, &malformed):
		return "malformed"
	case errors.As(err, &outOfRange):
		return "index"
	case errors.As(err, &loadErr) && loadErr.Status != 0:
		return "status"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "transport"
	}
}

// stateQueue hands playback states to the UI loop in publish order. It
// never drops a state, so every tick reaches Update as its own message.
type stateQueue struct {
	mu     sync.Mutex
	items  []stateMsg
	closed bool
	ready  chan struct{}
	done   chan struct{}
}

func newStateQueue() *stateQueue {
	return &stateQueue{ready: make(chan struct{}, 1), done: make(chan struct{})}
}

func (q *stateQueue) push(msg stateMsg) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.items = append(q.items, msg)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// wait delivers the oldest queued state. Only one wait may be pending.
func (q *stateQueue) wait() tui.Cmd {
	return func() tui.Msg {
		for {
			q.mu.Lock()
			if q.closed {
				q.mu.Unlock()
				return nil
			}
			if len(q.items) > 0 {
				msg := q.items[0]
				q.items[0] = stateMsg{}
				q.items = q.items[1:]
				q.mu.Unlock()
				return msg
			}
			q.mu.Unlock()

			select {
			case <-q.ready:
			case <-q.done:
				return nil
			}
		}
	}
}

func (q *stateQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.items = nil
	close(q.done)
}

type listItem struct {
	Rank int
	heap.Item
}

func (i listItem) Title() string { return fmt.Sprintf("#%-2d %s", i.Rank, i.Item.Item) }
func (i listItem) Description() string {
	if i.Count == 1 {
		return "    1 year"
	}
	return fmt.Sprintf("    %d years", i.Count)
}
func (i listItem) FilterValue() string { return i.Item.Item }
