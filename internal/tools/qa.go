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

package tools

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/inkeep/inkeep-mcp-go/internal/analytics"
	"github.com/inkeep/inkeep-mcp-go/internal/upstream"
)

// Ask answers a question with the QA model. A non-empty answer is returned
// as a single text item and logged to analytics without waiting for the log.
func (a *Adapter) Ask(ctx context.Context, question string) *mcp.CallToolResult {
	tool := a.cfg.Product.QAToolName()
	return a.invoke(ctx, tool, func(ctx context.Context, client upstream.Completer, log logr.Logger) (string, error) {
		c, err := a.complete(ctx, client, a.cfg.QAModel, question, nil)
		if err != nil {
			return "", fmt.Errorf("get QA response: %w", err)
		}
		if c.Content == "" {
			return "", upstream.ErrEmptyResponse
		}

		a.logExchange(ctx, log, tool, question, c.Content)
		return c.Content, nil
	})
}

// logExchange records the question and answer in a detached goroutine. Its
// outcome never reaches the caller.
func (a *Adapter) logExchange(ctx context.Context, log logr.Logger, tool, question, answer string) {
	if a.analytics == nil {
		return
	}

	entry := analytics.LogEntry{
		Messages: []analytics.Message{
			{Role: analytics.RoleUser, Content: question},
			{Role: analytics.RoleAssistant, Content: answer},
		},
		Properties: map[string]any{
			"tool":    tool,
			"product": a.cfg.Product.Slug,
			"model":   a.cfg.QAModel,
			"source":  "mcp",
		},
	}

	// The request context ends when the tool returns.
	detached := context.WithoutCancel(ctx)

	if !a.trackPending() {
		log.V(1).Info("shutting down, conversation not logged")
		return
	}
	go func() {
		defer a.pending.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Error(fmt.Errorf("analytics panic: %v", r), "failed to log conversation")
			}
		}()

		logCtx, cancel := context.WithTimeout(detached, a.analyticsTimeout)
		defer cancel()

		err := a.analytics.Log(logCtx, entry)
		a.metrics.RecordAnalyticsLog(err == nil)
		if err != nil {
			log.Error(err, "failed to log conversation")
		}
	}()
}
