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

// Package upstream wraps the hosted OpenAI-compatible completion API.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// ErrEmptyResponse is returned when the upstream answers without any usable
// message content.
var ErrEmptyResponse = errors.New("upstream returned no message content")

// ErrRefusal is returned when the upstream model refuses to answer.
var ErrRefusal = errors.New("upstream model refused")

// Completion is the part of a chat completion the tools care about.
type Completion struct {
	Content      string
	Model        string
	FinishReason string
	InputTokens  int64
	OutputTokens int64
}

// JSONSchemaFormat asks the upstream to shape its answer as JSON matching
// Schema.
type JSONSchemaFormat struct {
	Name   string
	Schema map[string]any
}

// Completer issues single-turn chat completions.
type Completer interface {
	// Complete sends one user message and returns the assistant message.
	Complete(ctx context.Context, model, prompt string) (*Completion, error)
	// CompleteStructured is Complete with a JSON schema response format.
	CompleteStructured(ctx context.Context, model, prompt string, format JSONSchemaFormat) (*Completion, error)
}

// Factory builds a Completer for one invocation.
type Factory func() Completer

// Config configures the OpenAI-compatible client.
type Config struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// OpenAIClient implements Completer with the OpenAI Go SDK.
type OpenAIClient struct {
	client openai.Client
}

// NewOpenAIClient creates a client for the configured endpoint. SDK retries
// are disabled: each call makes at most one upstream attempt.
func NewOpenAIClient(cfg Config) *OpenAIClient {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(normalizeBaseURL(cfg.BaseURL)))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	return &OpenAIClient{client: openai.NewClient(opts...)}
}

// NewFactory returns a Factory that builds a fresh OpenAIClient per call.
func NewFactory(cfg Config) Factory {
	return func() Completer {
		return NewOpenAIClient(cfg)
	}
}

// Complete implements Completer.
func (c *OpenAIClient) Complete(ctx context.Context, model, prompt string) (*Completion, error) {
	return c.create(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
	})
}

// CompleteStructured implements Completer.
func (c *OpenAIClient) CompleteStructured(ctx context.Context, model, prompt string, format JSONSchemaFormat) (*Completion, error) {
	return c.create(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   format.Name,
					Schema: format.Schema,
					// Passthrough fields are incompatible with strict mode.
					Strict: openai.Bool(false),
				},
			},
		},
	})
}

func (c *OpenAIClient) create(ctx context.Context, params openai.ChatCompletionNewParams) (*Completion, error) {
	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, describeError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	// Content wins over a refusal set alongside it.
	choice := resp.Choices[0]
	if choice.Message.Content == "" {
		if choice.Message.Refusal != "" {
			return nil, fmt.Errorf("%w: %s", ErrRefusal, choice.Message.Refusal)
		}
		return nil, ErrEmptyResponse
	}

	return &Completion{
		Content:      choice.Message.Content,
		Model:        resp.Model,
		FinishReason: string(choice.FinishReason),
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}, nil
}

// StatusCode returns the HTTP status of an upstream API error, or 0.
func StatusCode(err error) int {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

func describeError(err error) error {
	if code := StatusCode(err); code != 0 {
		return fmt.Errorf("upstream API error (status %d): %w", code, err)
	}
	return fmt.Errorf("upstream request failed: %w", err)
}

func normalizeBaseURL(u string) string {
	if !strings.HasSuffix(u, "/") {
		return u + "/"
	}
	return u
}
