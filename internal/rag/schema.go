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

package rag

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// SchemaName is the response_format name sent to the upstream RAG model.
const SchemaName = "InkeepRAGResponseSchema"

// ErrSchemaValidation is returned when a payload does not match the RAG schema.
var ErrSchemaValidation = errors.New("rag response does not match schema")

// Schema returns the JSON schema of Response. Both objects allow additional
// properties, so the upstream may attach fields of its own.
func Schema() map[string]any {
	optionalString := map[string]any{"type": "string"}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			fieldContent: map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						fieldType:       map[string]any{"type": "string"},
						fieldSource:     map[string]any{"type": "object", "additionalProperties": true},
						fieldTitle:      optionalString,
						fieldContext:    optionalString,
						fieldRecordType: optionalString,
						fieldURL:        optionalString,
					},
					"required":             []any{fieldType, fieldSource},
					"additionalProperties": true,
				},
			},
		},
		"required":             []any{fieldContent},
		"additionalProperties": true,
	}
}

var (
	compiledOnce sync.Once
	compiled     *gojsonschema.Schema
	compileErr   error
)

func compiledSchema() (*gojsonschema.Schema, error) {
	compiledOnce.Do(func() {
		compiled, compileErr = gojsonschema.NewSchema(gojsonschema.NewGoLoader(Schema()))
	})
	return compiled, compileErr
}

// Validate checks raw JSON against the RAG schema.
func Validate(data []byte) error {
	schema, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile rag schema: %w", err)
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaValidation, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%w: %s", ErrSchemaValidation, strings.Join(msgs, "; "))
	}
	return nil
}

// Parse validates raw JSON against the schema and decodes it.
func Parse(data []byte) (*Response, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}
	return Decode(data)
}
