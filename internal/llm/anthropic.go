package llm

import (
	"context"
	"errors"
	"net/http"

	"github.com/liushuangls/go-anthropic/v2"
)

// AnthropicClient calls the Anthropic Messages API.
type AnthropicClient struct {
	client    *anthropic.Client
	model     string
	maxTokens int
}

func NewAnthropicClient(apiKey, model string, maxTokens int) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, NewError(KindConfig, "Anthropic API key is not configured.")
	}
	return &AnthropicClient{
		client: anthropic.NewClient(apiKey,
			anthropic.WithHTTPClient(&http.Client{Timeout: requestTimeout}),
		),
		model:     model,
		maxTokens: maxTokens,
	}, nil
}

func (c *AnthropicClient) Generate(ctx context.Context, systemPrompt, userPrompt string) (*Response, error) {
	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		System:    systemPrompt,
		Messages: []anthropic.Message{
			anthropic.NewUserTextMessage(userPrompt),
		},
	})
	if err != nil {
		var apiErr *anthropic.APIError
		if errors.As(err, &apiErr) {
			switch {
			case apiErr.IsAuthenticationErr():
				return nil, &Error{Kind: KindAuth, Message: "Invalid API key: " + apiErr.Message, Err: err}
			case apiErr.IsRateLimitErr():
				return nil, &Error{Kind: KindProvider, Message: "Anthropic rate limit reached. Please wait and try again.", Err: err}
			}
		}
		return nil, &Error{Kind: KindProvider, Message: "Claude API error: " + err.Error(), Err: err}
	}

	stopReason := ""
	if resp.StopReason != "" {
		stopReason = string(resp.StopReason)
	}

	return &Response{
		Content:      resp.GetFirstContentText(),
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
		Model:        string(resp.Model),
		StopReason:   stopReason,
	}, nil
}

func (c *AnthropicClient) GenerateWithRetry(ctx context.Context, systemPrompt, userPrompt string, validationErrors []string) (*Response, error) {
	return c.Generate(ctx, systemPrompt, retryPrompt(userPrompt, validationErrors))
}
