package llm

import (
	"context"
	"errors"
	"net/http"

	"github.com/sashabaranov/go-openai"
)

// OpenAIClient calls the OpenAI Chat Completions API.
type OpenAIClient struct {
	client    *openai.Client
	model     string
	maxTokens int
}

func NewOpenAIClient(apiKey, model string, maxTokens int) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, NewError(KindConfig, "OpenAI API key is not configured.")
	}
	cfg := openai.DefaultConfig(apiKey)
	cfg.HTTPClient = &http.Client{Timeout: requestTimeout}
	return &OpenAIClient{
		client:    openai.NewClientWithConfig(cfg),
		model:     model,
		maxTokens: maxTokens,
	}, nil
}

func (c *OpenAIClient) Generate(ctx context.Context, systemPrompt, userPrompt string) (*Response, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.HTTPStatusCode {
			case http.StatusUnauthorized:
				return nil, &Error{Kind: KindAuth, Message: "Invalid API key: " + apiErr.Message, Err: err}
			case http.StatusTooManyRequests:
				return nil, &Error{Kind: KindProvider, Message: "OpenAI rate limit reached. Please wait and try again.", Err: err}
			}
		}
		return nil, &Error{Kind: KindProvider, Message: "OpenAI API error: " + err.Error(), Err: err}
	}

	content := ""
	finishReason := openai.FinishReasonStop
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
		finishReason = resp.Choices[0].FinishReason
	}

	// Normalize the stop reason to the Anthropic convention.
	stopReason := string(finishReason)
	switch finishReason {
	case openai.FinishReasonStop:
		stopReason = "end_turn"
	case openai.FinishReasonLength:
		stopReason = "max_tokens"
	}

	return &Response{
		Content:      content,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
		Model:        resp.Model,
		StopReason:   stopReason,
	}, nil
}

func (c *OpenAIClient) GenerateWithRetry(ctx context.Context, systemPrompt, userPrompt string, validationErrors []string) (*Response, error) {
	return c.Generate(ctx, systemPrompt, retryPrompt(userPrompt, validationErrors))
}
