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

package logctx

import (
	"context"
	"testing"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/stretchr/testify/assert"
)

func TestLogrValues_OnlyNonEmpty(t *testing.T) {
	ctx := context.Background()
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithTool(ctx, "ask-question-about-inkeep")
	ctx = WithModel(ctx, "")

	values := LogrValues(ctx)
	assert.Equal(t, []any{"request_id", "req-1", "tool", "ask-question-about-inkeep"}, values)
}

func TestLogrValues_Empty(t *testing.T) {
	assert.Empty(t, LogrValues(context.Background()))
}

func TestAccessors(t *testing.T) {
	ctx := WithSessionID(WithMethod(context.Background(), "tools/call"), "sess-9")
	ctx = WithRequestID(ctx, "req-2")
	ctx = WithTool(ctx, "search-inkeep-docs")

	assert.Equal(t, "req-2", RequestID(ctx))
	assert.Equal(t, "search-inkeep-docs", Tool(ctx))
	assert.Empty(t, RequestID(context.Background()))
	assert.Empty(t, Tool(context.Background()))
}

func TestLoggerWithContext(t *testing.T) {
	var lines []string
	log := funcr.New(func(prefix, args string) {
		lines = append(lines, args)
	}, funcr.Options{})

	ctx := WithModel(WithTool(context.Background(), "search-inkeep-docs"), "inkeep-rag")
	LoggerWithContext(log, ctx).Info("calling upstream")

	if assert.Len(t, lines, 1) {
		assert.Contains(t, lines[0], `"tool"="search-inkeep-docs"`)
		assert.Contains(t, lines[0], `"model"="inkeep-rag"`)
	}
}

func TestLoggerWithContext_NoValues(t *testing.T) {
	log := logr.Discard()
	assert.Equal(t, log, LoggerWithContext(log, context.Background()))
}
