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

package tracing

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// newTestProvider creates a Provider backed by an in-memory span exporter so
// that tests can inspect the attributes that are actually recorded on spans.
func newTestProvider(t *testing.T) (*Provider, *tracetest.InMemoryExporter) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return NewTestProvider(tp), exporter
}

func findAttr(span tracetest.SpanStub, key string) (attribute.Value, bool) {
	for _, a := range span.Attributes {
		if string(a.Key) == key {
			return a.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestNewProvider_Disabled(t *testing.T) {
	provider, err := NewProvider(context.Background(), Config{Enabled: false})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider.Tracer() == nil {
		t.Fatal("expected non-nil tracer")
	}
	if provider.TracerProvider() == nil {
		t.Fatal("expected global tracer provider")
	}
	if err := provider.Shutdown(context.Background()); err != nil {
		t.Errorf("shutdown of disabled provider should not fail: %v", err)
	}
}

func TestSamplerFor(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{1.0, "AlwaysOnSampler"},
		{2.0, "AlwaysOnSampler"},
		{0, "AlwaysOffSampler"},
		{-1, "AlwaysOffSampler"},
	}
	for _, tt := range tests {
		if got := samplerFor(tt.rate).Description(); got != tt.want {
			t.Errorf("samplerFor(%v) = %q, want %q", tt.rate, got, tt.want)
		}
	}
	if got := samplerFor(0.5).Description(); got == "AlwaysOnSampler" || got == "AlwaysOffSampler" {
		t.Errorf("fractional rate should use a ratio sampler, got %q", got)
	}
}

func TestStartToolSpan(t *testing.T) {
	provider, exporter := newTestProvider(t)

	_, span := provider.StartToolSpan(context.Background(), "search-inkeep-docs")
	SetToolStatus(span, "empty")
	span.End()

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	s := spans[0]
	if s.Name != "tool search-inkeep-docs" {
		t.Errorf("unexpected span name %q", s.Name)
	}
	if s.SpanKind != trace.SpanKindServer {
		t.Errorf("expected server span, got %v", s.SpanKind)
	}
	if v, ok := findAttr(s, AttrToolName); !ok || v.AsString() != "search-inkeep-docs" {
		t.Errorf("tool name attribute missing or wrong: %v", v)
	}
	if v, ok := findAttr(s, AttrToolStatus); !ok || v.AsString() != "empty" {
		t.Errorf("tool status attribute missing or wrong: %v", v)
	}
}

func TestStartLLMSpan(t *testing.T) {
	provider, exporter := newTestProvider(t)

	_, span := provider.StartLLMSpan(context.Background(), "inkeep-qa-expert")
	AddUsage(span, 12, 34)
	AddResponseModel(span, "inkeep-qa-expert-2")
	AddFinishReason(span, "stop")
	AddLengths(span, 27, 44)
	SetSuccess(span)
	span.End()

	s := exporter.GetSpans()[0]
	if s.Name != "chat inkeep-qa-expert" {
		t.Errorf("unexpected span name %q", s.Name)
	}
	if s.SpanKind != trace.SpanKindClient {
		t.Errorf("expected client span, got %v", s.SpanKind)
	}
	checks := map[string]attribute.Value{
		AttrGenAISystem:            attribute.StringValue(GenAISystem),
		AttrGenAIRequestModel:      attribute.StringValue("inkeep-qa-expert"),
		AttrGenAIResponseModel:     attribute.StringValue("inkeep-qa-expert-2"),
		AttrGenAIUsageInputTokens:  attribute.Int64Value(12),
		AttrGenAIUsageOutputTokens: attribute.Int64Value(34),
		AttrGenAIPromptLength:      attribute.IntValue(27),
		AttrGenAIResponseLength:    attribute.IntValue(44),
	}
	for key, want := range checks {
		got, ok := findAttr(s, key)
		if !ok {
			t.Errorf("missing attribute %s", key)
			continue
		}
		if got != want {
			t.Errorf("attribute %s = %v, want %v", key, got.Emit(), want.Emit())
		}
	}
	if v, ok := findAttr(s, AttrGenAIResponseFinish); !ok || v.AsStringSlice()[0] != "stop" {
		t.Errorf("finish reason missing or wrong")
	}
	if s.Status.Code != codes.Ok {
		t.Errorf("expected OK status, got %v", s.Status.Code)
	}
}

func TestAddFinishReason_EmptyIsSkipped(t *testing.T) {
	provider, exporter := newTestProvider(t)

	_, span := provider.StartLLMSpan(context.Background(), "inkeep-rag")
	AddFinishReason(span, "")
	span.End()

	if _, ok := findAttr(exporter.GetSpans()[0], AttrGenAIResponseFinish); ok {
		t.Error("empty finish reason should not be recorded")
	}
}

func TestRecordError(t *testing.T) {
	provider, exporter := newTestProvider(t)

	_, span := provider.StartLLMSpan(context.Background(), "inkeep-rag")
	RecordError(span, nil)
	RecordError(span, errors.New("upstream unavailable"))
	span.End()

	s := exporter.GetSpans()[0]
	if s.Status.Code != codes.Error {
		t.Errorf("expected error status, got %v", s.Status.Code)
	}
	if s.Status.Description != "upstream unavailable" {
		t.Errorf("unexpected status description %q", s.Status.Description)
	}
	if len(s.Events) != 1 {
		t.Errorf("expected 1 exception event, got %d", len(s.Events))
	}
}
