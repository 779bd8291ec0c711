package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

// Serve configures the fixture backend.
type Serve struct {
	Addr      string
	DataPath  string
	CacheTTL  time.Duration
	LogLevel  string
	LogFormat string
}

func DefaultServe() Serve {
	return Serve{
		Addr:      "localhost:3000",
		CacheTTL:  time.Minute,
		LogLevel:  "info",
		LogFormat: "json",
	}
}

func LoadServe(args []string) (Serve, error) {
	s := DefaultServe()
	fs := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	fs.StringVarP(&s.Addr, "addr", "a", s.Addr, "Address to listen on")
	fs.StringVarP(&s.DataPath, "data", "d", s.DataPath, "JSON file with the dataGraph/region payload (required)")
	fs.DurationVar(&s.CacheTTL, "cache-ttl", s.CacheTTL, "How long a parsed payload is served before the file is read again")
	fs.StringVar(&s.LogLevel, "log-level", s.LogLevel, "Log level: debug, info, warn, error")
	fs.StringVar(&s.LogFormat, "log-format", s.LogFormat, "Log format: text or json")
	if err := fs.Parse(args); err != nil {
		return Serve{}, err
	}
	if s.DataPath == "" {
		return Serve{}, fmt.Errorf("--data is required")
	}
	if s.Addr == "" {
		return Serve{}, fmt.Errorf("--addr must not be empty")
	}
	if s.CacheTTL <= 0 {
		return Serve{}, fmt.Errorf("--cache-ttl must be > 0")
	}
	return s, nil
}
