/*
Copyright 2025.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package server hosts the MCP endpoint over streamable HTTP alongside a
// separate health and metrics listener.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/inkeep/inkeep-mcp-go/internal/httputil"
)

const (
	// MCPPath is the streamable HTTP endpoint, relative to the base path.
	MCPPath = "/mcp"

	shutdownTimeout   = 30 * time.Second
	readHeaderTimeout = 10 * time.Second
	idleTimeout       = 120 * time.Second
	healthTimeout     = 10 * time.Second
)

// Readiness describes what the server exposes, reported by /readyz.
type Readiness struct {
	Product    string   `json:"product"`
	Tools      []string `json:"tools"`
	Configured bool     `json:"configured"`
}

// Config configures the HTTP listeners.
type Config struct {
	Port       int
	HealthPort int
	BasePath   string

	// MaxDuration bounds a single MCP request.
	MaxDuration time.Duration

	Readiness      Readiness
	Gatherer       prometheus.Gatherer
	TracerProvider trace.TracerProvider
	ErrorLog       *log.Logger
}

// Server runs the MCP and health listeners.
type Server struct {
	cfg Config
	log logr.Logger

	mcpSrv    *http.Server
	healthSrv *http.Server

	shuttingDown atomic.Bool
}

// New creates a Server serving mcpServer. A nil Gatherer means the default
// Prometheus registry; a nil TracerProvider disables HTTP spans.
func New(cfg Config, mcpServer *mcp.Server, log logr.Logger) *Server {
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}
	if cfg.TracerProvider == nil {
		cfg.TracerProvider = noop.NewTracerProvider()
	}
	cfg.BasePath = normalizeBasePath(cfg.BasePath)

	s := &Server{cfg: cfg, log: log.WithName("server")}
	s.mcpSrv = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.mcpHandler(mcpServer),
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
		ErrorLog:          cfg.ErrorLog,
	}
	s.healthSrv = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HealthPort),
		Handler:           s.healthHandler(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       healthTimeout,
		WriteTimeout:      healthTimeout,
		ErrorLog:          cfg.ErrorLog,
	}
	return s
}

// MCPEndpoint returns the path the MCP handler is mounted on.
func (s *Server) MCPEndpoint() string {
	return s.cfg.BasePath + MCPPath
}

func (s *Server) mcpHandler(mcpServer *mcp.Server) http.Handler {
	streamable := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return mcpServer
	}, &mcp.StreamableHTTPOptions{Stateless: true})

	var h http.Handler = streamable
	h = withDeadline(h, s.cfg.MaxDuration)
	h = withRequestID(h, s.log)
	h = otelhttp.NewHandler(h, "mcp", otelhttp.WithTracerProvider(s.cfg.TracerProvider))

	mux := http.NewServeMux()
	mux.Handle(s.MCPEndpoint(), h)
	return mux
}

func (s *Server) healthHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, _ *http.Request) {
		if s.shuttingDown.Load() {
			_ = httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "shutting down"})
			return
		}
		_ = httputil.WriteJSON(w, http.StatusOK, struct {
			Status string `json:"status"`
			Readiness
		}{Status: "ready", Readiness: s.cfg.Readiness})
	})
	opts := promhttp.HandlerOpts{}
	if s.cfg.ErrorLog != nil {
		opts.ErrorLog = s.cfg.ErrorLog
	}
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.cfg.Gatherer, opts))
	return mux
}

// Run serves until ctx is cancelled or a listener fails, then shuts both
// listeners down.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 2)
	s.start("mcp", s.mcpSrv, errCh)
	s.start("health", s.healthSrv, errCh)
	s.log.Info("server ready", "mcp", s.mcpSrv.Addr+s.MCPEndpoint(), "health", s.healthSrv.Addr)

	var runErr error
	select {
	case <-ctx.Done():
		s.log.Info("shutting down")
	case runErr = <-errCh:
		s.log.Error(runErr, "server error")
	}

	shutCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return errors.Join(runErr, s.Shutdown(shutCtx))
}

func (s *Server) start(name string, srv *http.Server, errCh chan<- error) {
	go func() {
		s.log.Info("starting server", "server", name, "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("%s server: %w", name, err)
		}
	}()
}

// Shutdown marks the server not ready, drains in-flight MCP requests and
// stops both listeners.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shuttingDown.Store(true)

	var errs []error
	for _, srv := range []struct {
		name string
		srv  *http.Server
	}{
		{"mcp", s.mcpSrv},
		{"health", s.healthSrv},
	} {
		if err := srv.srv.Shutdown(ctx); err != nil {
			s.log.Error(err, "server shutdown error", "server", srv.name)
			errs = append(errs, fmt.Errorf("%s server: %w", srv.name, err))
		}
	}
	return errors.Join(errs...)
}

// normalizeBasePath returns "" or a path with a leading and no trailing slash.
func normalizeBasePath(p string) string {
	p = strings.TrimRight(strings.TrimSpace(p), "/")
	if p == "" {
		return ""
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}
