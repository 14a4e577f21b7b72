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

package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/inkeep/inkeep-mcp-go/pkg/logctx"
)

// HeaderRequestID carries the request correlation ID.
const HeaderRequestID = "X-Request-ID"

const headerMCPSessionID = "Mcp-Session-Id"

// withRequestID reuses or assigns a request ID, echoes it in the response and
// attaches it to the request context for logging.
func withRequestID(next http.Handler, log logr.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)

		ctx := logctx.WithRequestID(r.Context(), id)
		if sid := r.Header.Get(headerMCPSessionID); sid != "" {
			ctx = logctx.WithSessionID(ctx, sid)
		}

		start := time.Now()
		next.ServeHTTP(w, r.WithContext(ctx))
		logctx.LoggerWithContext(log, ctx).V(1).Info("mcp http request",
			"httpMethod", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start))
	})
}

// withDeadline bounds each request by d. A non-positive d leaves the request
// unbounded.
func withDeadline(next http.Handler, d time.Duration) http.Handler {
	if d <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), d)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
