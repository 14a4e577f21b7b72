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

// Package logctx provides structured logging context management.
// It stores common logging fields on context.Context so that the MCP
// middleware, tool handlers and upstream clients log with the same keys.
package logctx

import (
	"context"

	"github.com/go-logr/logr"
)

// contextKey is a private type for context keys to avoid collisions.
type contextKey string

// Context keys for common logging fields.
const (
	// ContextKeyRequestID identifies the individual HTTP or JSON-RPC request.
	ContextKeyRequestID contextKey = "request_id"

	// ContextKeySessionID identifies the MCP session, when the transport has one.
	ContextKeySessionID contextKey = "session_id"

	// ContextKeyMethod is the MCP method being served (e.g. "tools/call").
	ContextKeyMethod contextKey = "method"

	// ContextKeyTool identifies the tool being called.
	ContextKeyTool contextKey = "tool"

	// ContextKeyModel identifies the upstream model.
	ContextKeyModel contextKey = "model"
)

var allContextKeys = []contextKey{
	ContextKeyRequestID,
	ContextKeySessionID,
	ContextKeyMethod,
	ContextKeyTool,
	ContextKeyModel,
}

// WithRequestID returns a new context with the request ID set.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// WithSessionID returns a new context with the MCP session ID set.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, ContextKeySessionID, sessionID)
}

// WithMethod returns a new context with the MCP method set.
func WithMethod(ctx context.Context, method string) context.Context {
	return context.WithValue(ctx, ContextKeyMethod, method)
}

// WithTool returns a new context with the tool name set.
func WithTool(ctx context.Context, tool string) context.Context {
	return context.WithValue(ctx, ContextKeyTool, tool)
}

// WithModel returns a new context with the model name set.
func WithModel(ctx context.Context, model string) context.Context {
	return context.WithValue(ctx, ContextKeyModel, model)
}

// LogrValues extracts context values as key-value pairs suitable for
// logr.Logger.WithValues. Only non-empty values are included.
func LogrValues(ctx context.Context) []any {
	var values []any
	for _, key := range allContextKeys {
		if s := stringValue(ctx, key); s != "" {
			values = append(values, string(key), s)
		}
	}
	return values
}

// LoggerWithContext returns a logger enriched with all context values.
func LoggerWithContext(log logr.Logger, ctx context.Context) logr.Logger {
	values := LogrValues(ctx)
	if len(values) == 0 {
		return log
	}
	return log.WithValues(values...)
}

// RequestID extracts the request ID from the context.
func RequestID(ctx context.Context) string {
	return stringValue(ctx, ContextKeyRequestID)
}

// Tool extracts the tool name from the context.
func Tool(ctx context.Context) string {
	return stringValue(ctx, ContextKeyTool)
}

func stringValue(ctx context.Context, key contextKey) string {
	if v := ctx.Value(key); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
