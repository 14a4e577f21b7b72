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

// Package analytics records conversations to the hosted analytics API.
package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/inkeep/inkeep-mcp-go/internal/httputil"
)

// DefaultHTTPTimeout bounds a single log request.
const DefaultHTTPTimeout = 10 * time.Second

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// conversationTypeOpenAI marks the message list as OpenAI chat format.
const conversationTypeOpenAI = "openai"

// Message is one conversation turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// LogEntry is a conversation to record.
type LogEntry struct {
	Messages       []Message      `json:"messages"`
	Properties     map[string]any `json:"properties,omitempty"`
	UserProperties map[string]any `json:"userProperties,omitempty"`
}

// Logger records conversations.
type Logger interface {
	Log(ctx context.Context, entry LogEntry) error
}

// ClientOption is a functional option for configuring the analytics client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithIDGenerator overrides how conversation IDs are generated.
func WithIDGenerator(gen func() string) ClientOption {
	return func(cl *Client) {
		cl.newID = gen
	}
}

// Client implements Logger against POST {baseURL}/conversations.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	newID      func() string
	log        logr.Logger
}

// NewClient creates an analytics client authenticated with apiKey.
func NewClient(baseURL, apiKey string, log logr.Logger, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: DefaultHTTPTimeout},
		newID:      func() string { return uuid.New().String() },
		log:        log.WithName("analytics"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// conversationRequest mirrors the analytics API conversation payload.
type conversationRequest struct {
	ID             string         `json:"id"`
	Type           string         `json:"type"`
	Messages       []Message      `json:"messages"`
	Properties     map[string]any `json:"properties,omitempty"`
	UserProperties map[string]any `json:"userProperties,omitempty"`
}

// Log records one conversation. Any non-2xx status is an error.
func (c *Client) Log(ctx context.Context, entry LogEntry) error {
	if len(entry.Messages) == 0 {
		return fmt.Errorf("log conversation: no messages")
	}

	reqBody := conversationRequest{
		ID:             c.newID(),
		Type:           conversationTypeOpenAI,
		Messages:       entry.Messages,
		Properties:     entry.Properties,
		UserProperties: entry.UserProperties,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(reqBody); err != nil {
		return fmt.Errorf("encode conversation: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/conversations", &buf)
	if err != nil {
		return fmt.Errorf("log conversation: %w", err)
	}
	httputil.SetJSONAuth(req, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("log conversation: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if !httputil.IsSuccess(resp.StatusCode) {
		return fmt.Errorf("log conversation: %w", httputil.ReadStatusError(resp))
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	c.log.V(1).Info("conversation logged", "conversationID", reqBody.ID, "messages", len(reqBody.Messages))
	return nil
}
