package llm

import (
	"context"
	"errors"
	"net/http"

	"google.golang.org/genai"
)

// GeminiClient calls the Gemini API.
type GeminiClient struct {
	apiKey    string
	model     string
	maxTokens int
}

func NewGeminiClient(apiKey, model string, maxTokens int) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, NewError(KindConfig, "Gemini API key is not configured.")
	}
	return &GeminiClient{apiKey: apiKey, model: model, maxTokens: maxTokens}, nil
}

func (c *GeminiClient) Generate(ctx context.Context, systemPrompt, userPrompt string) (*Response, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  c.apiKey,
		Backend: genai.BackendGeminiAPI,
		HTTPClient: &http.Client{
			Timeout: requestTimeout,
		},
	})
	if err != nil {
		return nil, &Error{Kind: KindProvider, Message: "Gemini client error: " + err.Error(), Err: err}
	}

	resp, err := client.Models.GenerateContent(ctx, c.model, genai.Text(userPrompt), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		MaxOutputTokens:   int32(c.maxTokens),
	})
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.Code {
			case http.StatusUnauthorized, http.StatusForbidden:
				return nil, &Error{Kind: KindAuth, Message: "Invalid API key: " + apiErr.Message, Err: err}
			case http.StatusTooManyRequests:
				return nil, &Error{Kind: KindProvider, Message: "Gemini rate limit reached. Please wait and try again.", Err: err}
			}
		}
		return nil, &Error{Kind: KindProvider, Message: "Gemini API error: " + err.Error(), Err: err}
	}

	out := &Response{
		Content: resp.Text(),
		Model:   c.model,
	}
	if resp.UsageMetadata != nil {
		out.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		out.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	if len(resp.Candidates) > 0 {
		switch resp.Candidates[0].FinishReason {
		case genai.FinishReasonStop:
			out.StopReason = "end_turn"
		case genai.FinishReasonMaxTokens:
			out.StopReason = "max_tokens"
		default:
			out.StopReason = string(resp.Candidates[0].FinishReason)
		}
	}
	return out, nil
}

func (c *GeminiClient) GenerateWithRetry(ctx context.Context, systemPrompt, userPrompt string, validationErrors []string) (*Response, error) {
	return c.Generate(ctx, systemPrompt, retryPrompt(userPrompt, validationErrors))
}
