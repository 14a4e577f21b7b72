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
	"encoding/json"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/inkeep/inkeep-mcp-go/internal/rag"
	"github.com/inkeep/inkeep-mcp-go/internal/upstream"
)

var ragFormat = upstream.JSONSchemaFormat{
	Name:   rag.SchemaName,
	Schema: rag.Schema(),
}

// Search runs a semantic documentation search with the RAG model. The
// validated response, including any fields the upstream added, is returned
// JSON-encoded as a single text item.
func (a *Adapter) Search(ctx context.Context, query string) *mcp.CallToolResult {
	return a.invoke(ctx, a.cfg.Product.SearchToolName(), func(ctx context.Context, client upstream.Completer, log logr.Logger) (string, error) {
		format := ragFormat
		c, err := a.complete(ctx, client, a.cfg.RAGModel, query, &format)
		if err != nil {
			return "", fmt.Errorf("retrieve product docs: %w", err)
		}

		resp, err := rag.Parse([]byte(c.Content))
		if err != nil {
			return "", fmt.Errorf("parse rag response: %w", err)
		}

		out, err := json.Marshal(resp)
		if err != nil {
			return "", fmt.Errorf("encode rag response: %w", err)
		}
		log.V(1).Info("documents retrieved", "documents", len(resp.Content))
		return string(out), nil
	})
}
