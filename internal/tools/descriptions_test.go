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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProduct_ToolNames(t *testing.T) {
	tests := []struct {
		slug       string
		wantQA     string
		wantSearch string
	}{
		{"inkeep", "ask-question-about-inkeep", "search-inkeep-docs"},
		{"acme-cloud", "ask-question-about-acme-cloud", "search-acme-cloud-docs"},
	}
	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			p := Product{Slug: tt.slug, Name: "Acme"}
			assert.Equal(t, tt.wantQA, p.QAToolName())
			assert.Equal(t, tt.wantSearch, p.SearchToolName())
		})
	}
}

func TestProduct_DescriptionsUseName(t *testing.T) {
	p := Product{Slug: "acme", Name: "Acme Cloud"}

	assert.Equal(t, "Ask AI about Acme Cloud", p.qaTitle())
	assert.Equal(t, "Search Acme Cloud Documentation", p.searchTitle())
	assert.Contains(t, p.qaDescription(), "ask a question about Acme Cloud to an AI Support Agent")
	assert.Contains(t, p.searchDescription(), "reference content related to Acme Cloud")
}

func TestStringInputSchema(t *testing.T) {
	s := stringInputSchema("query", queryParamDescription)

	assert.Equal(t, "object", s.Type)
	assert.Equal(t, []string{"query"}, s.Required)
	prop := s.Properties["query"]
	if assert.NotNil(t, prop) {
		assert.Equal(t, "string", prop.Type)
		assert.Equal(t, queryParamDescription, prop.Description)
		if assert.NotNil(t, prop.MinLength) {
			assert.Equal(t, 1, *prop.MinLength)
		}
	}
}
