package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"
)

type Config struct {
	// race
	TopK         int
	TickInterval time.Duration
	Transition   time.Duration

	// input
	URL       string
	InputPath string
	Timeout   time.Duration

	// render
	Headless      bool
	AltScreen     bool
	Autoplay      bool
	ViewSplit     int
	AnimFPS       int
	LeadersWindow int
	LeadersDepth  int

	StatsEnabled bool
	StatsWindow  int

	// ops
	MetricsAddr string
	LogFile     string
	LogLevel    string
	LogFormat   string

	ConfigPath string
}

// Default returns the configuration used when no flag or file overrides it.
func Default() Config {
	return Config{
		TopK:         12,
		TickInterval: 200 * time.Millisecond,
		Transition:   500 * time.Millisecond,

		URL:     "http://localhost:3000/api/getPopulation",
		Timeout: 10 * time.Second,

		AltScreen:     true,
		ViewSplit:     65,
		AnimFPS:       30,
		LeadersWindow: 10,
		LeadersDepth:  3,

		StatsEnabled: false,
		StatsWindow:  256,

		LogLevel:  "info",
		LogFormat: "text",
	}
}

// File is the JSON configuration file. Absent keys keep their defaults.
type File struct {
	TopK                 *int `json:"topK"`
	TickIntervalMs       *int `json:"tickIntervalMs"`
	TransitionDurationMs *int `json:"transitionDurationMs"`
}

func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	fs.IntVarP(&c.TopK, "top-k", "k", c.TopK, "Number of bars per frame")
	fs.DurationVar(&c.TickInterval, "tick-interval", c.TickInterval, "Time between two years while playing")
	fs.DurationVar(&c.Transition, "transition", c.Transition, "Bar transition duration")

	fs.StringVarP(&c.URL, "url", "u", c.URL, "Population endpoint")
	fs.StringVar(&c.InputPath, "in", c.InputPath, "Read the endpoint response from this file instead of fetching it")
	fs.DurationVar(&c.Timeout, "timeout", c.Timeout, "Fetch timeout")

	fs.BoolVar(&c.Headless, "headless", c.Headless, "Print frames as text instead of running the interactive view")
	fs.BoolVar(&c.AltScreen, "alt-screen", c.AltScreen, "Use the terminal alternate screen buffer")
	fs.BoolVar(&c.Autoplay, "autoplay", c.Autoplay, "Start playing as soon as the dataset is loaded")
	fs.IntVar(&c.ViewSplit, "view-split", c.ViewSplit, "Split the view at this % of the total screen width [20,80]")
	fs.IntVar(&c.AnimFPS, "anim-fps", c.AnimFPS, "Bar animation frames per second")
	fs.IntVar(&c.LeadersWindow, "leaders-window", c.LeadersWindow, "Years counted by the leaders panel")
	fs.IntVar(&c.LeadersDepth, "leaders-depth", c.LeadersDepth, "Ranks counted as leading by the leaders panel")

	fs.BoolVar(&c.StatsEnabled, "stats", c.StatsEnabled, "Show runtime performance stats")
	fs.IntVar(&c.StatsWindow, "stats-window", c.StatsWindow, "Number of recent samples kept per metric")

	fs.StringVar(&c.MetricsAddr, "metrics-addr", c.MetricsAddr, "Serve Prometheus metrics on this address (empty disables)")
	fs.StringVar(&c.LogFile, "log-file", c.LogFile, "Write logs to this file (interactive mode discards logs otherwise)")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level: debug, info, warn, error")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "Log format: text or json")

	fs.StringVarP(&c.ConfigPath, "config", "c", c.ConfigPath, "JSON config file with topK, tickIntervalMs, transitionDurationMs")
}

// Load parses args over the defaults, applies the config file for every
// option not set on the command line, and validates the result.
func Load(args []string) (Config, error) {
	c := Default()
	fs := pflag.NewFlagSet("race", pflag.ContinueOnError)
	c.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if c.ConfigPath != "" {
		f, err := ReadFile(c.ConfigPath)
		if err != nil {
			return Config{}, err
		}
		c.apply(f, fs.Changed)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// ReadFile decodes a JSON config file.
func ReadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read config: %w", err)
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return f, nil
}

func (c *Config) apply(f File, changed func(string) bool) {
	if f.TopK != nil && !changed("top-k") {
		c.TopK = *f.TopK
	}
	if f.TickIntervalMs != nil && !changed("tick-interval") {
		c.TickInterval = time.Duration(*f.TickIntervalMs) * time.Millisecond
	}
	if f.TransitionDurationMs != nil && !changed("transition") {
		c.Transition = time.Duration(*f.TransitionDurationMs) * time.Millisecond
	}
}

// Validate rejects unusable values and clamps cosmetic ones into range.
func (c *Config) Validate() error {
	if c.TopK < 1 {
		return fmt.Errorf("--top-k must be >= 1")
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("--tick-interval must be > 0")
	}
	if c.Transition < 0 {
		return fmt.Errorf("--transition must be >= 0")
	}
	if c.URL == "" && c.InputPath == "" {
		return fmt.Errorf("one of --url or --in is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("--timeout must be > 0")
	}
	if c.AnimFPS < 1 {
		return fmt.Errorf("--anim-fps must be >= 1")
	}
	if c.LeadersWindow < 1 {
		return fmt.Errorf("--leaders-window must be >= 1")
	}
	if c.LeadersDepth < 1 {
		return fmt.Errorf("--leaders-depth must be >= 1")
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("--log-format must be text or json")
	}

	c.ViewSplit = max(20, c.ViewSplit)
	c.ViewSplit = min(80, c.ViewSplit)
	if c.StatsWindow < 16 {
		c.StatsWindow = 16
	}
	return nil
}
