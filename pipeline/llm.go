package pipeline

import "context"

// LLMClient abstracts the stage model so it can be swapped or mocked.
type LLMClient interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

// Prompt is one system/user message pair sent to the stage model.
type Prompt struct {
	System string
	User   string
}

// LLMSettings carries the base configuration for concrete implementations.
type LLMSettings struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}
