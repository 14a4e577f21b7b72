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

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/inkeep/inkeep-mcp-go/internal/analytics"
	"github.com/inkeep/inkeep-mcp-go/internal/config"
	"github.com/inkeep/inkeep-mcp-go/internal/server"
	"github.com/inkeep/inkeep-mcp-go/internal/tools"
	"github.com/inkeep/inkeep-mcp-go/internal/tracing"
	"github.com/inkeep/inkeep-mcp-go/internal/upstream"
	"github.com/inkeep/inkeep-mcp-go/pkg/logging"
	"github.com/inkeep/inkeep-mcp-go/pkg/metrics"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const (
	shutdownTimeout = 30 * time.Second
	upstreamTimeout = 5 * time.Minute
)

type flags struct {
	transport   string
	showVersion bool
}

func parseFlags() *flags {
	f := &flags{}
	flag.StringVar(&f.transport, "transport", "", "MCP transport (http or stdio); overrides "+config.EnvTransport)
	flag.BoolVar(&f.showVersion, "version", false, "Print the version and exit")
	flag.Parse()
	return f
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	f := parseFlags()
	if f.showVersion {
		fmt.Println(version)
		return nil
	}

	// --- Logger ---
	log, zapLog, syncLog, err := logging.NewLogger()
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer syncLog()
	slog.SetDefault(logging.SlogFromZap(zapLog))

	// --- Config ---
	if f.transport != "" {
		if err := os.Setenv(config.EnvTransport, f.transport); err != nil {
			return fmt.Errorf("setting transport: %w", err)
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if !cfg.HasCredential() {
		log.Info("upstream credential not set, tools will return empty results", "env", config.EnvAPIKey)
	}

	// --- Signal context ---
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// --- Tracing ---
	tp, err := tracing.NewProvider(ctx, tracing.Config{
		Enabled:        cfg.TracingEnabled,
		Endpoint:       cfg.TracingEndpoint,
		ServiceName:    "inkeep-mcp",
		ServiceVersion: version,
		SampleRate:     cfg.TracingSampleRate,
		Insecure:       cfg.TracingInsecure,
	})
	if err != nil {
		return fmt.Errorf("creating tracing provider: %w", err)
	}
	defer shutdownTracing(tp, log)

	// --- Metrics ---
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	toolMetrics := metrics.NewToolMetrics(metrics.ToolMetricsConfig{ProductSlug: cfg.ProductSlug}, registry)

	// --- Tools ---
	adapter := newAdapter(cfg, tp, toolMetrics, log)
	mcpServer := tools.NewMCPServer(adapter, version, log)

	log.Info("starting inkeep mcp server",
		"version", version,
		"transport", cfg.Transport,
		"product", cfg.ProductSlug,
		"qaModel", cfg.QAModel,
		"ragModel", cfg.RAGModel,
		"analytics", cfg.AnalyticsEnabled && cfg.HasCredential(),
		"tracing", cfg.TracingEnabled,
	)

	var serveErr error
	switch cfg.Transport {
	case config.TransportStdio:
		serveErr = serveStdio(ctx, mcpServer)
	default:
		serveErr = serveHTTP(ctx, cfg, mcpServer, adapter, registry, tp, zapLog, log)
	}

	drainAnalytics(adapter, log)
	log.Info("shutdown complete")
	return serveErr
}

func newAdapter(cfg *config.Config, tp *tracing.Provider, m metrics.Recorder, log logr.Logger) *tools.Adapter {
	httpClient := instrumentedHTTPClient(tp, upstreamTimeout)

	opts := []tools.Option{
		tools.WithLogger(log),
		tools.WithMetrics(m),
		tools.WithTracing(tp),
	}
	if cfg.AnalyticsEnabled && cfg.HasCredential() {
		sink := analytics.NewClient(cfg.AnalyticsBaseURL, cfg.APIKey, log,
			analytics.WithHTTPClient(instrumentedHTTPClient(tp, analytics.DefaultHTTPTimeout)))
		opts = append(opts, tools.WithAnalytics(sink))
	}

	return tools.New(tools.Config{
		Product:  tools.Product{Slug: cfg.ProductSlug, Name: cfg.ProductName},
		QAModel:  cfg.QAModel,
		RAGModel: cfg.RAGModel,
		APIKey:   cfg.APIKey,
		Upstream: upstream.NewFactory(upstream.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			HTTPClient: httpClient,
		}),
	}, opts...)
}

// instrumentedHTTPClient creates an HTTP client whose requests produce
// client spans under the tool span.
func instrumentedHTTPClient(tp *tracing.Provider, timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithTracerProvider(tp.TracerProvider())),
	}
}

func serveStdio(ctx context.Context, mcpServer *mcp.Server) error {
	err := mcpServer.Run(ctx, &mcp.StdioTransport{})
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio server: %w", err)
	}
	return nil
}

func serveHTTP(
	ctx context.Context,
	cfg *config.Config,
	mcpServer *mcp.Server,
	adapter *tools.Adapter,
	registry *prometheus.Registry,
	tp *tracing.Provider,
	zapLog *zap.Logger,
	log logr.Logger,
) error {
	p := adapter.Product()
	srv := server.New(server.Config{
		Port:        cfg.Port,
		HealthPort:  cfg.HealthPort,
		BasePath:    cfg.BasePath,
		MaxDuration: cfg.MaxDuration,
		Readiness: server.Readiness{
			Product:    p.Slug,
			Tools:      []string{p.QAToolName(), p.SearchToolName()},
			Configured: adapter.Configured(),
		},
		Gatherer:       registry,
		TracerProvider: tp.TracerProvider(),
		ErrorLog:       logging.StdErrorLog(zapLog),
	}, mcpServer, log)
	return srv.Run(ctx)
}

// drainAnalytics stops new analytics calls and waits for detached ones so
// in-flight exchanges are not lost on shutdown.
func drainAnalytics(adapter *tools.Adapter, log logr.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := adapter.Shutdown(ctx); err != nil {
		log.Error(err, "analytics calls still pending at shutdown")
	}
}

func shutdownTracing(tp *tracing.Provider, log logr.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := tp.Shutdown(ctx); err != nil {
		log.Error(err, "error shutting down tracing provider")
	}
}
