// Package fetch loads the population payload from the backend endpoint or
// from a saved response file.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/keilerkonzept/population-race/internal/dataset"
)

// Response is the endpoint's envelope.
type Response struct {
	Status int         `json:"status"`
	Data   dataset.Raw `json:"data"`
}

// LoadError is the single failure kind reported to the caller: transport,
// non-200 status, or an undecodable body.
type LoadError struct {
	Source string
	// Status is the envelope or HTTP status, 0 when none was received.
	Status int
	Err    error
}

func (e *LoadError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("load %s: status %d", e.Source, e.Status)
	}
	if e.Status != 0 {
		return fmt.Sprintf("load %s: status %d: %v", e.Source, e.Status, e.Err)
	}
	return fmt.Sprintf("load %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

type Client struct {
	url  string
	path string
	http *http.Client
	log  *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) {
		if l != nil {
			cl.log = l
		}
	}
}

// WithFile reads the response envelope from path instead of the network.
func WithFile(path string) Option {
	return func(cl *Client) { cl.path = path }
}

func New(url string, opts ...Option) *Client {
	c := &Client{
		url:  url,
		http: &http.Client{Timeout: 10 * time.Second},
		log:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Source names where the payload comes from.
func (c *Client) Source() string {
	if c.path != "" {
		return c.path
	}
	return c.url
}

// Fetch returns the `data` payload once the envelope reports status 200.
func (c *Client) Fetch(ctx context.Context) (dataset.Raw, error) {
	start := time.Now()
	body, err := c.open(ctx)
	if err != nil {
		return dataset.Raw{}, err
	}
	defer body.Close()

	var resp Response
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return dataset.Raw{}, &LoadError{Source: c.Source(), Err: fmt.Errorf("decode response: %w", err)}
	}
	if resp.Status != http.StatusOK {
		return dataset.Raw{}, &LoadError{Source: c.Source(), Status: resp.Status}
	}
	c.log.Info("fetched population dataset",
		"source", c.Source(),
		"series", len(resp.Data.DataGraph),
		"regions", len(resp.Data.Region),
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return resp.Data, nil
}

// Load fetches and validates the dataset.
func (c *Client) Load(ctx context.Context) (*dataset.Dataset, error) {
	raw, err := c.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return dataset.Load(raw)
}

func (c *Client) open(ctx context.Context) (io.ReadCloser, error) {
	if c.path != "" {
		f, err := os.Open(c.path)
		if err != nil {
			return nil, &LoadError{Source: c.path, Err: err}
		}
		return f, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, &LoadError{Source: c.url, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &LoadError{Source: c.url, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &LoadError{Source: c.url, Status: resp.StatusCode}
	}
	return resp.Body, nil
}
