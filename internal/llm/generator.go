// Package llm wraps the text-generation collaborator. The engine treats it
// as an opaque function from prompts to text.
package llm

import "context"

// Generator is the minimal interface the pipelines use to obtain content.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
