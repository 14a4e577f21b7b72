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
	"time"

	"github.com/go-logr/logr"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/inkeep/inkeep-mcp-go/pkg/logctx"
)

// ServerName is the MCP implementation name announced during initialize.
const ServerName = "inkeep-mcp-server"

// NewMCPServer builds an MCP server with both tools of adapter registered.
func NewMCPServer(adapter *Adapter, version string, log logr.Logger) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    ServerName,
		Title:   adapter.Product().Name + " MCP Server",
		Version: version,
	}, nil)
	server.AddReceivingMiddleware(loggingMiddleware(log.WithName("mcp")))
	adapter.Register(server)
	return server
}

// loggingMiddleware tags the context with the MCP method and logs each
// request at debug verbosity.
func loggingMiddleware(log logr.Logger) mcp.Middleware {
	return func(next mcp.MethodHandler) mcp.MethodHandler {
		return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
			ctx = logctx.WithMethod(ctx, method)
			start := time.Now()
			result, err := next(ctx, method, req)

			reqLog := logctx.LoggerWithContext(log, ctx)
			if err != nil {
				reqLog.V(1).Info("mcp request failed", "error", err.Error(), "duration", time.Since(start))
				return result, err
			}
			reqLog.V(1).Info("mcp request handled", "duration", time.Since(start))
			return result, nil
		}
	}
}
