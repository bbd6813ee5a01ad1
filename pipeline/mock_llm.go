package pipeline

import (
	"context"
	"strings"
)

// MockLLM is a placeholder for local runs without a model endpoint. It keys
// off the system prompt to hand each stage something plausible.
type MockLLM struct{}

func (m MockLLM) Complete(_ context.Context, prompt Prompt) (string, error) {
	switch {
	case strings.Contains(prompt.System, "headline"):
		return "Git Basics: 5 Commands to Know", nil
	case strings.Contains(prompt.System, "outline"):
		var sb strings.Builder
		sb.WriteString("## Introduction\n")
		sb.WriteString("## Why it matters\n")
		sb.WriteString("## Walkthrough\n")
		sb.WriteString("### Setup\n")
		sb.WriteString("### First steps\n")
		sb.WriteString("## Conclusion\n")
		return sb.String(), nil
	default:
		return "## Notes\n\n" + prompt.User + "\n", nil
	}
}
