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

// Package tools implements the two MCP tools backed by the hosted completion
// API: question answering and documentation search.
//
// Every failure (missing credential, upstream error, malformed payload)
// produces an empty, non-error tool result, so an assistant client treats it
// the same as "nothing relevant found". Causes are only visible in logs,
// metrics and spans.
package tools

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/inkeep/inkeep-mcp-go/internal/analytics"
	"github.com/inkeep/inkeep-mcp-go/internal/tracing"
	"github.com/inkeep/inkeep-mcp-go/internal/upstream"
	"github.com/inkeep/inkeep-mcp-go/pkg/logctx"
	"github.com/inkeep/inkeep-mcp-go/pkg/metrics"
)

// DefaultAnalyticsTimeout bounds a detached analytics log call.
const DefaultAnalyticsTimeout = 10 * time.Second

// Question is the input of the question-answering tool.
type Question struct {
	Question string `json:"question"`
}

// SearchQuery is the input of the documentation search tool.
type SearchQuery struct {
	Query string `json:"query"`
}

// Config configures the adapter.
type Config struct {
	Product  Product
	QAModel  string
	RAGModel string

	// APIKey is the upstream credential. When empty every invocation
	// returns an empty result without building an upstream client.
	APIKey string

	// Upstream builds a completion client per invocation.
	Upstream upstream.Factory
}

// Option is a functional option for configuring the Adapter.
type Option func(*Adapter)

// WithLogger sets the logger.
func WithLogger(log logr.Logger) Option {
	return func(a *Adapter) {
		a.log = log
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m metrics.Recorder) Option {
	return func(a *Adapter) {
		a.metrics = m
	}
}

// WithTracing sets the tracing provider.
func WithTracing(p *tracing.Provider) Option {
	return func(a *Adapter) {
		a.tracing = p
	}
}

// WithAnalytics sets the analytics sink for question-answer exchanges.
func WithAnalytics(l analytics.Logger) Option {
	return func(a *Adapter) {
		a.analytics = l
	}
}

// WithAnalyticsTimeout bounds each detached analytics call.
func WithAnalyticsTimeout(d time.Duration) Option {
	return func(a *Adapter) {
		a.analyticsTimeout = d
	}
}

// Adapter serves the QA and search tools. It keeps no per-request state; the
// only shared state is the set of in-flight analytics goroutines.
type Adapter struct {
	cfg Config

	log              logr.Logger
	metrics          metrics.Recorder
	tracing          *tracing.Provider
	analytics        analytics.Logger
	analyticsTimeout time.Duration

	mu      sync.Mutex
	closing bool
	pending sync.WaitGroup
}

// New creates an Adapter.
func New(cfg Config, opts ...Option) *Adapter {
	a := &Adapter{
		cfg:              cfg,
		log:              logr.Discard(),
		metrics:          metrics.NoOpToolMetrics{},
		tracing:          tracing.Disabled(),
		analyticsTimeout: DefaultAnalyticsTimeout,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.log = a.log.WithName("tools")
	return a
}

// Product returns the product the tools are registered for.
func (a *Adapter) Product() Product {
	return a.cfg.Product
}

// Configured reports whether the upstream credential is present.
func (a *Adapter) Configured() bool {
	return a.cfg.APIKey != "" && a.cfg.Upstream != nil
}

// Register adds both tools to server. Tools are registered even when the
// adapter is not configured.
func (a *Adapter) Register(server *mcp.Server) {
	openWorld := true
	p := a.cfg.Product

	mcp.AddTool(server, &mcp.Tool{
		Name:        p.QAToolName(),
		Description: p.qaDescription(),
		InputSchema: stringInputSchema("question", questionParamDescription),
		Annotations: &mcp.ToolAnnotations{
			Title:         p.qaTitle(),
			ReadOnlyHint:  true,
			OpenWorldHint: &openWorld,
		},
	}, a.handleQuestion)

	mcp.AddTool(server, &mcp.Tool{
		Name:        p.SearchToolName(),
		Description: p.searchDescription(),
		InputSchema: stringInputSchema("query", queryParamDescription),
		Annotations: &mcp.ToolAnnotations{
			Title:         p.searchTitle(),
			ReadOnlyHint:  true,
			OpenWorldHint: &openWorld,
		},
	}, a.handleSearch)

	a.log.Info("tools registered",
		"qaTool", p.QAToolName(),
		"searchTool", p.SearchToolName(),
		"configured", a.Configured())
}

// stringInputSchema is an object with one required, non-empty string field.
func stringInputSchema(field, description string) *jsonschema.Schema {
	minLength := 1
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			field: {
				Type:        "string",
				Description: description,
				MinLength:   &minLength,
			},
		},
		Required: []string{field},
	}
}

func (a *Adapter) handleQuestion(ctx context.Context, _ *mcp.CallToolRequest, in Question) (*mcp.CallToolResult, any, error) {
	return a.Ask(ctx, in.Question), nil, nil
}

func (a *Adapter) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, in SearchQuery) (*mcp.CallToolResult, any, error) {
	return a.Search(ctx, in.Query), nil, nil
}

// toolFunc produces the text of a successful result.
type toolFunc func(ctx context.Context, client upstream.Completer, log logr.Logger) (string, error)

// invoke runs fn with the shared guard, logging, metrics and tracing. It
// always returns a result; errors and panics become the empty result.
func (a *Adapter) invoke(ctx context.Context, tool string, fn toolFunc) (result *mcp.CallToolResult) {
	start := time.Now()
	ctx = logctx.WithTool(ctx, tool)
	ctx, span := a.tracing.StartToolSpan(ctx, tool)
	log := logctx.LoggerWithContext(a.log, ctx)

	status := metrics.StatusError
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("tool panic: %v", r)
			log.Error(err, "tool call panicked")
			tracing.RecordError(span, err)
			status = metrics.StatusError
			result = emptyResult()
		}
		tracing.SetToolStatus(span, status)
		span.End()
		a.metrics.RecordToolCall(metrics.ToolCallMetrics{
			ToolName:        tool,
			Status:          status,
			DurationSeconds: time.Since(start).Seconds(),
		})
	}()

	if !a.Configured() {
		status = metrics.StatusUnconfigured
		log.V(1).Info("upstream credential not configured, returning empty result")
		return emptyResult()
	}

	text, err := fn(ctx, a.cfg.Upstream(), log)
	switch {
	case errors.Is(err, upstream.ErrEmptyResponse):
		status = metrics.StatusEmpty
		log.Info("no result", "reason", err.Error())
		return emptyResult()
	case err != nil:
		log.Error(err, "tool call failed")
		tracing.RecordError(span, err)
		return emptyResult()
	case text == "":
		status = metrics.StatusEmpty
		return emptyResult()
	}

	status = metrics.StatusSuccess
	tracing.SetSuccess(span)
	log.V(1).Info("tool call succeeded", "duration", time.Since(start), "resultLength", len(text))
	return textResult(text)
}

// complete performs one upstream call, with its own span and metrics.
func (a *Adapter) complete(ctx context.Context, client upstream.Completer, model, prompt string, format *upstream.JSONSchemaFormat) (*upstream.Completion, error) {
	ctx = logctx.WithModel(ctx, model)
	ctx, span := a.tracing.StartLLMSpan(ctx, model)
	defer span.End()

	start := time.Now()
	var (
		c   *upstream.Completion
		err error
	)
	if format != nil {
		c, err = client.CompleteStructured(ctx, model, prompt, *format)
	} else {
		c, err = client.Complete(ctx, model, prompt)
	}
	a.metrics.RecordUpstream(metrics.UpstreamMetrics{
		Model:           model,
		DurationSeconds: time.Since(start).Seconds(),
		Success:         err == nil,
	})

	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}
	tracing.AddUsage(span, c.InputTokens, c.OutputTokens)
	tracing.AddFinishReason(span, c.FinishReason)
	if c.Model != "" {
		tracing.AddResponseModel(span, c.Model)
	}
	tracing.AddLengths(span, len(prompt), len(c.Content))
	tracing.SetSuccess(span)
	return c, nil
}

// trackPending registers one analytics goroutine. It reports false once
// Shutdown has started.
func (a *Adapter) trackPending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closing {
		return false
	}
	a.pending.Add(1)
	return true
}

// Shutdown stops new analytics calls from starting, then waits like Wait.
// Tool calls that finish afterwards still return their results.
func (a *Adapter) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	a.closing = true
	a.mu.Unlock()
	return a.Wait(ctx)
}

// Wait blocks until pending analytics calls finish or ctx is done.
func (a *Adapter) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		a.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
