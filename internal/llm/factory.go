package llm

import (
	"fmt"
	"strings"

	"github.com/timberland/blocksmith/internal/config"
)

// Provider identifies a model provider.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
	ProviderGemini    Provider = "gemini"
	ProviderUnknown   Provider = "unknown"
)

var (
	anthropicPrefixes = []string{"claude-"}
	openaiPrefixes    = []string{"gpt-", "o1-", "o3-", "o4-"}
	geminiPrefixes    = []string{"gemini-"}
)

// DetectProvider infers the provider from a model name.
func DetectProvider(model string) Provider {
	for _, p := range anthropicPrefixes {
		if strings.HasPrefix(model, p) {
			return ProviderAnthropic
		}
	}
	for _, p := range openaiPrefixes {
		if strings.HasPrefix(model, p) {
			return ProviderOpenAI
		}
	}
	for _, p := range geminiPrefixes {
		if strings.HasPrefix(model, p) {
			return ProviderGemini
		}
	}
	return ProviderUnknown
}

// ClientProvider hands out clients by model name. Factory is the production
// implementation.
type ClientProvider interface {
	Client(model string) (Client, error)
	CheapClient() (Client, error)
}

// Factory builds clients from provider configuration.
type Factory struct {
	providers config.ProvidersConfig
}

func NewFactory(providers config.ProvidersConfig) *Factory {
	return &Factory{providers: providers}
}

// Client returns a client for the given model. An empty model selects the
// configured default.
func (f *Factory) Client(model string) (Client, error) {
	if model == "" {
		model = f.providers.DefaultModel
	}

	switch DetectProvider(model) {
	case ProviderAnthropic:
		return NewAnthropicClient(f.providers.Anthropic.Key(), model, f.providers.MaxTokens)
	case ProviderOpenAI:
		return NewOpenAIClient(f.providers.OpenAI.Key(), model, f.providers.MaxTokens)
	case ProviderGemini:
		return NewGeminiClient(f.providers.Gemini.Key(), model, f.providers.MaxTokens)
	default:
		return nil, NewError(KindConfig, fmt.Sprintf("Unknown model provider for model: %s", model))
	}
}

// CheapClient returns a client for the configured low-cost model, used by
// auxiliary calls like prompt decomposition.
func (f *Factory) CheapClient() (Client, error) {
	model := f.providers.CheapModel
	if model == "" {
		model = f.providers.DefaultModel
	}
	return f.Client(model)
}
