package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timberland/blocksmith/internal/config"
)

func TestDetectProvider(t *testing.T) {
	t.Parallel()

	cases := []struct {
		model string
		want  Provider
	}{
		{"claude-sonnet-4-5-20250929", ProviderAnthropic},
		{"claude-haiku-4-5-20251001", ProviderAnthropic},
		{"gpt-4o", ProviderOpenAI},
		{"o1-preview", ProviderOpenAI},
		{"o3-mini", ProviderOpenAI},
		{"o4-mini", ProviderOpenAI},
		{"gemini-2.0-flash", ProviderGemini},
		{"llama-3-70b", ProviderUnknown},
		{"", ProviderUnknown},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, DetectProvider(tc.model), tc.model)
	}
}

func TestFactoryUnknownModel(t *testing.T) {
	t.Parallel()

	f := NewFactory(config.ProvidersConfig{DefaultModel: "claude-sonnet-4-5-20250929"})
	_, err := f.Client("mystery-model-9000")

	require.Error(t, err)
	assert.Equal(t, KindConfig, KindOf(err))
	assert.Contains(t, err.Error(), "mystery-model-9000")
}

func TestFactoryMissingKey(t *testing.T) {
	t.Parallel()

	f := NewFactory(config.ProvidersConfig{MaxTokens: 8192})
	_, err := f.Client("claude-sonnet-4-5-20250929")

	require.Error(t, err)
	assert.Equal(t, KindConfig, KindOf(err))
}

func TestFactoryDefaultsModel(t *testing.T) {
	t.Parallel()

	f := NewFactory(config.ProvidersConfig{
		DefaultModel: "claude-sonnet-4-5-20250929",
		MaxTokens:    8192,
		Anthropic:    config.ProviderConfig{APIKey: "sk-test"},
	})
	c, err := f.Client("")

	require.NoError(t, err)
	require.IsType(t, &AnthropicClient{}, c)
	assert.Equal(t, "claude-sonnet-4-5-20250929", c.(*AnthropicClient).model)
}

func TestRetryPromptFormat(t *testing.T) {
	t.Parallel()

	got := retryPrompt("Build a hero", []string{"err one", "err two"})

	assert.Contains(t, got, "Build a hero")
	assert.Contains(t, got, "Your previous response had validation errors. Please fix these issues:\n- err one\n- err two")
	assert.Contains(t, got, "Output only the corrected block markup, nothing else.")
}
