package observability

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the race's Prometheus metrics. All methods are safe on
// a nil *Collector, so callers can run without metrics.
type Collector struct {
	gatherer prometheus.Gatherer

	Ticks          prometheus.Counter
	Toggles        *prometheus.CounterVec
	Playing        prometheus.Gauge
	CurrentIndex   prometheus.Gauge
	FrameDurations prometheus.Histogram
	LoadFailures   *prometheus.CounterVec
	Requests       *prometheus.CounterVec
}

// NewCollector registers the metrics against reg, defaulting to the global
// Prometheus registry when nil. Registering twice returns the existing metrics.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	ticks, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "race_ticks_total",
		Help: "Playback ticks processed.",
	}), "race_ticks_total")
	if err != nil {
		return nil, err
	}
	toggles, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "race_toggles_total",
		Help: "Play/pause toggles, labeled by the resulting state.",
	}, []string{"state"}), "race_toggles_total")
	if err != nil {
		return nil, err
	}
	playing, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "race_playing",
		Help: "1 while playback is running.",
	}), "race_playing")
	if err != nil {
		return nil, err
	}
	index, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "race_current_index",
		Help: "Current playback time index.",
	}), "race_current_index")
	if err != nil {
		return nil, err
	}
	frames, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "race_frame_duration_seconds",
		Help:    "Time to select and render one frame.",
		Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05},
	}), "race_frame_duration_seconds")
	if err != nil {
		return nil, err
	}
	failures, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "race_load_failures_total",
		Help: "Dataset load failures, labeled by kind.",
	}, []string{"kind"}), "race_load_failures_total")
	if err != nil {
		return nil, err
	}
	requests, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "population_requests_total",
		Help: "Population endpoint requests served, labeled by HTTP status code.",
	}, []string{"code"}), "population_requests_total")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:       gatherer,
		Ticks:          ticks,
		Toggles:        toggles,
		Playing:        playing,
		CurrentIndex:   index,
		FrameDurations: frames,
		LoadFailures:   failures,
		Requests:       requests,
	}, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func (c *Collector) ObserveTick(index int) {
	if c == nil {
		return
	}
	c.Ticks.Inc()
	c.CurrentIndex.Set(float64(index))
}

func (c *Collector) ObservePlaying(playing bool) {
	if c == nil {
		return
	}
	state := "stopped"
	v := 0.0
	if playing {
		state, v = "playing", 1
	}
	c.Toggles.WithLabelValues(state).Inc()
	c.Playing.Set(v)
}

// SetPlaying updates the gauge without counting a toggle, e.g. on auto-stop.
func (c *Collector) SetPlaying(playing bool) {
	if c == nil {
		return
	}
	if playing {
		c.Playing.Set(1)
		return
	}
	c.Playing.Set(0)
}

func (c *Collector) ObserveFrame(d time.Duration) {
	if c == nil {
		return
	}
	c.FrameDurations.Observe(d.Seconds())
}

func (c *Collector) ObserveLoadFailure(kind string) {
	if c == nil {
		return
	}
	c.LoadFailures.WithLabelValues(kind).Inc()
}

func (c *Collector) ObserveRequest(code int) {
	if c == nil {
		return
	}
	c.Requests.WithLabelValues(strconv.Itoa(code)).Inc()
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T, name string) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			var zero T
			return zero, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		var zero T
		return zero, err
	}
	return c, nil
}
