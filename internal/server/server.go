// Package server is a small backend that serves the population payload the
// race fetches, read from a JSON file on disk.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/keilerkonzept/population-race/internal/dataset"
	"github.com/keilerkonzept/population-race/internal/fetch"
	"github.com/keilerkonzept/population-race/internal/observability"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/patrickmn/go-cache"
)

const (
	PopulationPath = "/api/getPopulation"
	payloadKey     = "payload"
)

// Error is returned to clients in the same envelope as a successful response.
type Error struct {
	Status  int    `json:"status"`
	Message string `json:"error"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("Error %d: %s", e.Status, e.Message)
}

type Server struct {
	e        *echo.Echo
	dataPath string
	payloads *cache.Cache
	log      *slog.Logger
	metrics  *observability.Collector
}

// New builds the server. Parsed payloads are reused for ttl before the file
// is read again, so edits to the file show up without a restart.
func New(dataPath string, ttl time.Duration, log *slog.Logger, metrics *observability.Collector) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		e:        echo.New(),
		dataPath: dataPath,
		payloads: cache.New(ttl, 2*ttl),
		log:      log,
		metrics:  metrics,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	e := s.e
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.handleError
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet},
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogMethod:   true,
		LogError:    true,
		LogRemoteIP: true,
		LogLatency:  true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.metrics.ObserveRequest(v.Status)
			if v.Error == nil {
				s.log.LogAttrs(context.Background(), slog.LevelInfo, "REQUEST",
					slog.String("method", v.Method),
					slog.String("uri", v.URI),
					slog.Int("status", v.Status),
					slog.Int64("latency_ms", v.Latency.Milliseconds()),
					slog.String("remote_ip", v.RemoteIP),
				)
			} else {
				s.log.LogAttrs(context.Background(), slog.LevelError, "REQUEST_ERROR",
					slog.String("method", v.Method),
					slog.String("uri", v.URI),
					slog.Int("status", v.Status),
					slog.String("err", v.Error.Error()),
					slog.String("remote_ip", v.RemoteIP),
				)
			}
			return nil
		},
	}))

	e.GET(PopulationPath, s.getPopulation)
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
}

func (s *Server) Handler() http.Handler { return s.e }

func (s *Server) Start(addr string) error {
	s.log.Info("serving population endpoint", "addr", addr, "path", PopulationPath, "data", s.dataPath)
	if err := s.e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error { return s.e.Shutdown(ctx) }

func (s *Server) getPopulation(c echo.Context) error {
	raw, err := s.payload()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, fetch.Response{Status: http.StatusOK, Data: raw})
}

// payload returns the cached payload, reading and validating the file on a miss.
func (s *Server) payload() (dataset.Raw, error) {
	if v, ok := s.payloads.Get(payloadKey); ok {
		return v.(dataset.Raw), nil
	}

	f, err := os.Open(s.dataPath)
	if err != nil {
		s.log.Error("failed to open population data", "path", s.dataPath, "err", err)
		return dataset.Raw{}, &Error{Status: http.StatusInternalServerError, Message: "population data unavailable"}
	}
	defer f.Close()

	raw, err := dataset.Decode(f)
	if err != nil {
		s.log.Error("failed to decode population data", "path", s.dataPath, "err", err)
		return dataset.Raw{}, &Error{Status: http.StatusInternalServerError, Message: "population data unreadable"}
	}
	if _, err := dataset.Load(raw); err != nil {
		s.log.Error("refusing to serve malformed population data", "path", s.dataPath, "err", err)
		return dataset.Raw{}, &Error{Status: http.StatusInternalServerError, Message: err.Error()}
	}

	s.payloads.Set(payloadKey, raw, cache.DefaultExpiration)
	return raw, nil
}

func (s *Server) handleError(err error, c echo.Context) {
	code := http.StatusInternalServerError
	msg := http.StatusText(code)

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if he.Message != nil {
			msg = fmt.Sprintf("%v", he.Message)
		}
	}
	var se *Error
	if errors.As(err, &se) {
		code = se.Status
		msg = se.Message
	}

	if !c.Response().Committed {
		if err := c.JSON(code, Error{Status: code, Message: msg}); err != nil {
			s.log.Error("failed to write error response", "err", err)
		}
	}
}
