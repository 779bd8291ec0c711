package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/keilerkonzept/population-race/internal/config"
	"github.com/keilerkonzept/population-race/internal/dataset"
	"github.com/keilerkonzept/population-race/internal/frame"
	"github.com/keilerkonzept/population-race/internal/observability"
	"github.com/keilerkonzept/population-race/internal/playback"
	"github.com/keilerkonzept/population-race/internal/render"
)

// headlessWidth is the chart width used when stdout is not a terminal.
const headlessWidth = 100

// printer writes every frame of the race as text. It is the render surface
// used without a terminal, e.g. when output is piped.
type printer struct {
	out     io.Writer
	ds      *dataset.Dataset
	k       int
	adapter *render.Adapter
	log     *slog.Logger
	metrics *observability.Collector

	mu      sync.Mutex
	printed int
	err     error
	done    chan struct{}
	once    sync.Once
}

func newPrinter(out io.Writer, ds *dataset.Dataset, k int, log *slog.Logger, metrics *observability.Collector) *printer {
	rows := min(max(k, 1), ds.Len())
	return &printer{
		out:     out,
		ds:      ds,
		k:       k,
		adapter: render.NewAdapter(chartLayout(headlessWidth, rows), render.WithTickSpacing(tickCols)),
		log:     log,
		metrics: metrics,
		done:    make(chan struct{}),
	}
}

// onState prints the frame for st and signals completion once playback
// has stopped at the last index.
func (p *printer) onState(st playback.State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return
	}
	if err := p.print(st.CurrentIndex); err != nil {
		p.err = err
		p.finish()
		return
	}
	if !st.Playing && st.CurrentIndex == p.ds.Steps()-1 {
		p.finish()
	}
}

func (p *printer) print(index int) error {
	began := time.Now()
	f, err := frame.Select(p.ds, index, p.k)
	if err != nil {
		return err
	}
	cmds := p.adapter.Render(f)
	rows := int(p.adapter.Layout().Height)
	_, err = fmt.Fprintf(p.out, "%s\n%s\n\n",
		drawOverlay(cmds.Overlay),
		drawChart(cmds, settled(cmds), headlessWidth, rows))
	p.metrics.ObserveFrame(time.Since(began))
	p.printed++
	p.log.Debug("frame printed", "index", index, "year", cmds.Overlay.Year, "bars", len(cmds.Bars), "exits", len(cmds.Exits))
	return err
}

func (p *printer) finish() { p.once.Do(func() { close(p.done) }) }

// runHeadless plays the whole race once, printing each frame to out.
func runHeadless(ctx context.Context, cfg config.Config, ds *dataset.Dataset, out io.Writer, log *slog.Logger, metrics *observability.Collector, opts ...playback.Option) error {
	opts = append([]playback.Option{playback.WithInterval(cfg.TickInterval)}, opts...)
	ctrl, err := playback.New(ds.Steps(), opts...)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	p := newPrinter(out, ds, cfg.TopK, log, metrics)
	p.onState(ctrl.State())
	ctrl.Subscribe(func(st playback.State) {
		metrics.ObserveTick(st.CurrentIndex)
		p.onState(st)
	})

	st := ctrl.Toggle()
	metrics.ObservePlaying(st.Playing)
	log.Info("headless playback started", "steps", ds.Steps(), "interval", ctrl.Interval())

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.done:
	}
	metrics.SetPlaying(false)

	p.mu.Lock()
	defer p.mu.Unlock()
	log.Info("headless playback finished", "frames", p.printed, "ticks", ctrl.Ticks())
	return p.err
}
