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

import "fmt"

// Product identifies the documented product in tool names and descriptions.
type Product struct {
	Slug string
	Name string
}

// QAToolName is the name of the question-answering tool.
func (p Product) QAToolName() string {
	return fmt.Sprintf("ask-question-about-%s", p.Slug)
}

// SearchToolName is the name of the documentation search tool.
func (p Product) SearchToolName() string {
	return fmt.Sprintf("search-%s-docs", p.Slug)
}

func (p Product) qaTitle() string {
	return fmt.Sprintf("Ask AI about %s", p.Name)
}

func (p Product) searchTitle() string {
	return fmt.Sprintf("Search %s Documentation", p.Name)
}

func (p Product) qaDescription() string {
	return fmt.Sprintf("Use this tool to ask a question about %[1]s to an AI Support Agent that is "+
		"knowledgeable about %[1]s. Use this tool to ask specific troubleshooting, feature capability, "+
		"or conceptual questions. Be specific and provide the minimum context needed to address your "+
		"question in full", p.Name)
}

func (p Product) searchDescription() string {
	return fmt.Sprintf("Use this tool to do a semantic search for reference content related to %s. "+
		"The results provided will be extracts from documentation sites and other public sources like "+
		"GitHub. The content may not fully answer your question -- be circumspect when reviewing and "+
		"interpreting these extracts before using them in your response.", p.Name)
}

const (
	questionParamDescription = "Question about the product"
	queryParamDescription    = "The search query to find relevant documentation"
)
