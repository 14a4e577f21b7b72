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

// Package rag defines the retrieval-augmented search response returned by
// the upstream RAG model. Both record types are open: fields the upstream adds
// beyond the known ones survive a decode/encode round trip unchanged.
package rag

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Known JSON field names.
const (
	fieldContent    = "content"
	fieldType       = "type"
	fieldSource     = "source"
	fieldTitle      = "title"
	fieldContext    = "context"
	fieldRecordType = "record_type"
	fieldURL        = "url"
)

// ErrMissingField is returned when a required field is absent or null.
var ErrMissingField = errors.New("missing required field")

// Document is a single source document cited by the RAG model.
type Document struct {
	Type   string
	Source map[string]any

	Title      *string
	Context    *string
	RecordType *string
	URL        *string

	// Extra holds every field not listed above, verbatim.
	Extra map[string]json.RawMessage
}

// Response is the structured answer of the RAG model.
type Response struct {
	Content []Document

	// Extra holds every top-level field other than content, verbatim.
	Extra map[string]json.RawMessage
}

// UnmarshalJSON decodes a document, keeping unknown fields in Extra.
func (d *Document) UnmarshalJSON(data []byte) error {
	fields, err := decodeObject(data)
	if err != nil {
		return fmt.Errorf("document: %w", err)
	}

	var doc Document
	if err := takeRequired(fields, fieldType, &doc.Type); err != nil {
		return fmt.Errorf("document: %w", err)
	}
	if err := takeRequired(fields, fieldSource, &doc.Source); err != nil {
		return fmt.Errorf("document: %w", err)
	}
	if doc.Source == nil {
		return fmt.Errorf("document: %w: %s", ErrMissingField, fieldSource)
	}
	for name, dst := range map[string]**string{
		fieldTitle:      &doc.Title,
		fieldContext:    &doc.Context,
		fieldRecordType: &doc.RecordType,
		fieldURL:        &doc.URL,
	} {
		if err := takeOptional(fields, name, dst); err != nil {
			return fmt.Errorf("document: %w", err)
		}
	}
	if len(fields) > 0 {
		doc.Extra = fields
	}

	*d = doc
	return nil
}

// MarshalJSON encodes the document with its extra fields merged back in.
// Known fields win over an extra field of the same name.
func (d Document) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.Extra)+6)
	for k, v := range d.Extra {
		out[k] = v
	}
	out[fieldType] = d.Type
	source := d.Source
	if source == nil {
		source = map[string]any{}
	}
	out[fieldSource] = source
	putOptional(out, fieldTitle, d.Title)
	putOptional(out, fieldContext, d.Context)
	putOptional(out, fieldRecordType, d.RecordType)
	putOptional(out, fieldURL, d.URL)
	return json.Marshal(out)
}

// UnmarshalJSON decodes a response, keeping unknown fields in Extra.
func (r *Response) UnmarshalJSON(data []byte) error {
	fields, err := decodeObject(data)
	if err != nil {
		return fmt.Errorf("response: %w", err)
	}

	var resp Response
	if err := takeRequired(fields, fieldContent, &resp.Content); err != nil {
		return fmt.Errorf("response: %w", err)
	}
	if resp.Content == nil {
		return fmt.Errorf("response: %w: %s", ErrMissingField, fieldContent)
	}
	if len(fields) > 0 {
		resp.Extra = fields
	}

	*r = resp
	return nil
}

// MarshalJSON encodes the response with its extra fields merged back in.
func (r Response) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Extra)+1)
	for k, v := range r.Extra {
		out[k] = v
	}
	content := r.Content
	if content == nil {
		content = []Document{}
	}
	out[fieldContent] = content
	return json.Marshal(out)
}

// Decode parses a RAG response from raw JSON.
func Decode(data []byte) (*Response, error) {
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func decodeObject(data []byte) (map[string]json.RawMessage, error) {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil, errors.New("expected object, got null")
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// takeRequired decodes fields[name] into dst and removes it from fields.
// Numbers decode as json.Number so nested values keep their literal form.
func takeRequired(fields map[string]json.RawMessage, name string, dst any) error {
	raw, ok := fields[name]
	if !ok || isNull(raw) {
		return fmt.Errorf("%w: %s", ErrMissingField, name)
	}
	delete(fields, name)
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("field %s: %w", name, err)
	}
	return nil
}

// takeOptional decodes fields[name] into dst when present and removes it.
// An explicit null is kept in fields so it round-trips as null.
func takeOptional(fields map[string]json.RawMessage, name string, dst **string) error {
	raw, ok := fields[name]
	if !ok || isNull(raw) {
		return nil
	}
	delete(fields, name)
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return fmt.Errorf("field %s: %w", name, err)
	}
	*dst = &s
	return nil
}

func putOptional(out map[string]any, name string, v *string) {
	if v != nil {
		out[name] = *v
	}
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
