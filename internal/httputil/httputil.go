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

// Package httputil provides shared HTTP constants and helpers for the MCP
// listeners and the outbound API clients.
package httputil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Common HTTP header names and content types.
const (
	HeaderContentType   = "Content-Type"
	HeaderAuthorization = "Authorization"
	ContentTypeJSON     = "application/json"

	bearerPrefix = "Bearer "
)

// maxErrorBody caps how much of an error response body is read.
const maxErrorBody = 64 << 10

// WriteJSON serialises v as JSON and writes it to w with the given status code.
// The Content-Type header is set to application/json.
func WriteJSON(w http.ResponseWriter, statusCode int, v any) error {
	w.Header().Set(HeaderContentType, ContentTypeJSON)
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(v)
}

// SetJSONAuth sets the JSON content type and a bearer token on req.
func SetJSONAuth(req *http.Request, token string) {
	req.Header.Set(HeaderContentType, ContentTypeJSON)
	req.Header.Set(HeaderAuthorization, bearerPrefix+token)
}

// IsSuccess reports whether code is a 2xx status.
func IsSuccess(code int) bool {
	return code >= 200 && code <= 299
}

// StatusError is a non-2xx response from a remote API.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// errorBody is the common JSON error shape of the hosted APIs.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ReadStatusError builds a StatusError from resp, taking the message from a
// JSON {"error"} or {"message"} body when there is one.
func ReadStatusError(resp *http.Response) *StatusError {
	se := &StatusError{StatusCode: resp.StatusCode}

	var body errorBody
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxErrorBody)).Decode(&body); err != nil {
		return se
	}
	se.Message = body.Error
	if se.Message == "" {
		se.Message = body.Message
	}
	return se
}
