// Package llm wraps the supported model provider SDKs behind one client
// interface and classifies their failures.
package llm

import (
	"context"
	"strings"
	"time"
)

// requestTimeout bounds a single model call. Complex prompts can take a
// couple of minutes before the first byte arrives.
const requestTimeout = 10 * time.Minute

// Response is a normalized model completion. Stop reasons follow the
// Anthropic convention; other providers are mapped onto it.
type Response struct {
	Content      string `json:"content"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
	Model        string `json:"model"`
	StopReason   string `json:"stop_reason"`
}

// Client is a single-turn completion client.
type Client interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (*Response, error)
	GenerateWithRetry(ctx context.Context, systemPrompt, userPrompt string, validationErrors []string) (*Response, error)
}

// retryPrompt appends validation feedback to the original user prompt.
func retryPrompt(userPrompt string, validationErrors []string) string {
	var b strings.Builder
	b.WriteString(userPrompt)
	b.WriteString("\n\nYour previous response had validation errors. Please fix these issues:\n")
	for i, e := range validationErrors {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("- ")
		b.WriteString(e)
	}
	b.WriteString("\n\nOutput only the corrected block markup, nothing else.")
	return b.String()
}
