package generate

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timberland/blocksmith/internal/assembler"
	"github.com/timberland/blocksmith/internal/config"
	"github.com/timberland/blocksmith/internal/llm"
	"github.com/timberland/blocksmith/internal/manifest"
	"github.com/timberland/blocksmith/internal/markup"
	"github.com/timberland/blocksmith/internal/ratelimit"
	"github.com/timberland/blocksmith/internal/schema"
)

type fakeClient struct {
	responses  []*llm.Response
	retryResp  *llm.Response
	retryErr   error
	calls      int
	retryCalls int
	feedback   []string
}

func (f *fakeClient) Generate(_ context.Context, _, _ string) (*llm.Response, error) {
	i := f.calls
	f.calls++
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return &llm.Response{Content: ""}, nil
}

func (f *fakeClient) GenerateWithRetry(_ context.Context, _, _ string, validationErrors []string) (*llm.Response, error) {
	f.retryCalls++
	f.feedback = validationErrors
	if f.retryErr != nil {
		return nil, f.retryErr
	}
	return f.retryResp, nil
}

type fakeProvider struct {
	client llm.Client
	err    error
}

func (p fakeProvider) Client(string) (llm.Client, error) { return p.client, p.err }
func (p fakeProvider) CheapClient() (llm.Client, error)  { return p.client, p.err }

const (
	validCard = `<!-- wp:acf/card {"name":"acf/card","data":{"title":"Hello","_title":"field_1"},"mode":"preview"} /-->`

	// title present but its companion key is missing
	invalidCard = `<!-- wp:acf/card {"name":"acf/card","data":{"title":"Hello"},"mode":"preview"} /-->`

	mediaCardPattern = `<!-- wp:acf/media-card {"name":"acf/media-card","data":{"heading":"Hero","_heading":"field_5","image":42,"_image":"field_2","image_type":"file","_image_type":"field_3","image_url":"","_image_url":"field_4"},"mode":"preview"} /-->`
)

func pipelineManifest() *manifest.Manifest {
	card := schema.NewBlockSchema()
	card.Add("title", "field_1", schema.TypeText)

	mediaCard := schema.NewBlockSchema()
	mediaCard.Add("heading", "field_5", schema.TypeText)
	mediaCard.Add("image", "field_2", schema.TypeImage)
	mediaCard.Add("image_type", "field_3", schema.TypeSelect)
	mediaCard.Add("image_url", "field_4", schema.TypeURL)

	return &manifest.Manifest{
		Version:     "test",
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Blocks: map[string]*manifest.Block{
			"acf/card":       {Name: "acf/card", Title: "Card", Schema: card},
			"acf/media-card": {Name: "acf/media-card", Title: "Media Card", Schema: mediaCard},
		},
		Patterns: []manifest.Pattern{
			{ID: 7, Title: "Home Hero", Content: mediaCardPattern},
		},
	}
}

func testStore(t *testing.T, m *manifest.Manifest) *manifest.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "manifest.json")
	content, err := json.Marshal(m)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return manifest.NewStore(manifest.NewBuilder("test", nil, nil, false, false), path, time.Hour)
}

func newTestGenerator(t *testing.T, client llm.Client) *Generator {
	t.Helper()
	cfg := config.Default()
	return New(cfg, "test", testStore(t, pipelineManifest()), ratelimit.New(cfg.RateLimit), fakeProvider{client: client}, nil, nil)
}

func editorRequest(prompt string) Request {
	return Request{Caller: "alice", CallerRoles: []string{"editor"}, Prompt: prompt}
}

// firstIsland decodes the data object of the first custom block in markup.
func firstIsland(t *testing.T, m string) map[string]any {
	t.Helper()
	match := markup.CustomBlockRe.FindStringSubmatch(m)
	require.NotNil(t, match)
	var attrs struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(match[2]), &attrs))
	return attrs.Data
}

func TestGenerateFirstAttemptValid(t *testing.T) {
	t.Parallel()

	client := &fakeClient{responses: []*llm.Response{{
		Content:      "```html\n" + validCard + "\n```",
		InputTokens:  100,
		OutputTokens: 50,
		Model:        "claude-sonnet-4-5-20250929",
		StopReason:   "end_turn",
	}}}
	g := newTestGenerator(t, client)

	res, err := g.Generate(context.Background(), editorRequest("A card that says hello"))
	require.NoError(t, err)

	assert.Equal(t, 0, client.retryCalls)
	assert.True(t, res.Validation.Valid)
	assert.Equal(t, 1, res.Validation.BlockCount)
	assert.NotContains(t, res.Markup, "```")
	assert.Equal(t, 100, res.InputTokens)
	assert.Equal(t, 50, res.OutputTokens)
	assert.Equal(t, "end_turn", res.StopReason)

	data := firstIsland(t, res.Markup)
	assert.Equal(t, "field_1", data["_title"])
}

func TestGenerateRetryKeptWhenBetter(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		responses: []*llm.Response{{Content: invalidCard, InputTokens: 100, OutputTokens: 50}},
		retryResp: &llm.Response{Content: validCard, InputTokens: 120, OutputTokens: 60},
	}
	g := newTestGenerator(t, client)

	res, err := g.Generate(context.Background(), editorRequest("A card"))
	require.NoError(t, err)

	assert.Equal(t, 1, client.retryCalls)
	require.Len(t, client.feedback, 1)
	assert.Equal(t,
		"Block `acf/card`: field `title` is missing its `_title` field key companion. Expected value: `field_1`.",
		client.feedback[0])

	assert.True(t, res.Validation.Valid)
	assert.Equal(t, 220, res.InputTokens)
	assert.Equal(t, 110, res.OutputTokens)
}

func TestGenerateRetryDiscardedWhenNoBetter(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		responses: []*llm.Response{{Content: invalidCard, InputTokens: 100, OutputTokens: 50}},
		retryResp: &llm.Response{Content: invalidCard, InputTokens: 120, OutputTokens: 60},
	}
	g := newTestGenerator(t, client)

	res, err := g.Generate(context.Background(), editorRequest("A card"))
	require.NoError(t, err)

	assert.Equal(t, 1, client.retryCalls)
	assert.Equal(t, 100, res.InputTokens)
	assert.Equal(t, 50, res.OutputTokens)

	// The repair pass writes the authoritative companion, so the kept
	// attempt still validates clean in the end.
	assert.True(t, res.Validation.Valid)
	data := firstIsland(t, res.Markup)
	assert.Equal(t, "field_1", data["_title"])
}

func TestGenerateRetryCallFailureKeepsFirst(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		responses: []*llm.Response{{Content: invalidCard, InputTokens: 100, OutputTokens: 50}},
		retryErr:  llm.NewError(llm.KindProvider, "Claude API error: boom"),
	}
	g := newTestGenerator(t, client)

	res, err := g.Generate(context.Background(), editorRequest("A card"))
	require.NoError(t, err)
	assert.Equal(t, 100, res.InputTokens)
	assert.NotEmpty(t, res.Markup)
}

func TestGenerateHourlyQuota(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.RateLimit.PerHour = 1
	limiter := ratelimit.New(cfg.RateLimit)
	limiter.Record("alice")

	client := &fakeClient{}
	g := New(cfg, "test", testStore(t, pipelineManifest()), limiter, fakeProvider{client: client}, nil, nil)

	_, err := g.Generate(context.Background(), editorRequest("A card"))
	require.Error(t, err)
	assert.Equal(t, llm.KindQuota, llm.KindOf(err))
	assert.Equal(t, "Hourly rate limit reached (1/hour). Please wait and try again.", err.Error())
	assert.Equal(t, 0, client.calls)
}

func TestGenerateAccessDenied(t *testing.T) {
	t.Parallel()

	client := &fakeClient{}
	g := newTestGenerator(t, client)

	req := editorRequest("A card")
	req.CallerRoles = []string{"subscriber"}

	_, err := g.Generate(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, llm.KindAccess, llm.KindOf(err))
	assert.Equal(t, "You do not have permission to generate content.", err.Error())
	assert.Equal(t, 0, client.calls)
}

func TestGenerateRestoresPatternImages(t *testing.T) {
	t.Parallel()

	emptied := `<!-- wp:acf/media-card {"name":"acf/media-card","data":{"heading":"New Hero","_heading":"field_5","image":"","_image":"field_2","image_type":"file","_image_type":"field_3","image_url":"","_image_url":"field_4"},"mode":"preview"} /-->`
	client := &fakeClient{responses: []*llm.Response{{Content: emptied}}}
	g := newTestGenerator(t, client)

	req := editorRequest("Update the hero copy for the spring launch")
	req.UsePatterns = []string{"pattern_7"}

	res, err := g.Generate(context.Background(), req)
	require.NoError(t, err)

	data := firstIsland(t, res.Markup)
	assert.Equal(t, float64(42), data["image"])
	assert.Equal(t, "file", data["image_type"])
	assert.Equal(t, "New Hero", data["heading"])
}

func TestGenerateKeepsEmptyImageWhenPromptAsksForOne(t *testing.T) {
	t.Parallel()

	emptied := `<!-- wp:acf/media-card {"name":"acf/media-card","data":{"heading":"New Hero","_heading":"field_5","image":"","_image":"field_2","image_type":"file","_image_type":"field_3","image_url":"","_image_url":"field_4"},"mode":"preview"} /-->`
	client := &fakeClient{responses: []*llm.Response{{Content: emptied}}}
	g := newTestGenerator(t, client)

	req := editorRequest("Rebuild the hero with a new photo")
	req.UsePatterns = []string{"pattern_7"}

	res, err := g.Generate(context.Background(), req)
	require.NoError(t, err)

	data := firstIsland(t, res.Markup)
	assert.Equal(t, "", data["image"])
}

func TestGenerateStructure(t *testing.T) {
	t.Parallel()

	plan := `{"sections":[{"intent":"hero","pattern_hint":"Home Hero","pattern_id":"pattern_7"}],"overall_intent":"a home page","suggested_pattern_ids":["pattern_7"]}`
	tree := `{"blocks":[{"block":"acf/card","data":{"title":"Hi"}}]}`
	client := &fakeClient{responses: []*llm.Response{
		{Content: plan},
		{Content: tree, InputTokens: 200, OutputTokens: 80, Model: "claude-sonnet-4-5-20250929"},
	}}
	g := newTestGenerator(t, client)

	res, err := g.GenerateStructure(context.Background(), editorRequest("A home page"))
	require.NoError(t, err)

	assert.Equal(t, 2, client.calls)
	require.Len(t, res.Tree.Blocks, 1)
	assert.Equal(t, "acf/card", res.Tree.Blocks[0].Block)
	assert.Equal(t, []string{"pattern_7"}, res.UsePatterns)
	require.Len(t, res.Decomposition.Sections, 1)
	assert.Equal(t, "hero", res.Decomposition.Sections[0].Intent)
	assert.Equal(t, 200, res.InputTokens)
}

func TestGenerateStructureRetriesOnParseError(t *testing.T) {
	t.Parallel()

	tree := `{"blocks":[{"block":"acf/card","data":{"title":"Hi"}}]}`
	client := &fakeClient{
		responses: []*llm.Response{
			{Content: `{"sections":[],"suggested_pattern_ids":[]}`},
			{Content: "sorry, here is some prose instead", InputTokens: 100, OutputTokens: 40},
		},
		retryResp: &llm.Response{Content: tree, InputTokens: 120, OutputTokens: 50},
	}
	g := newTestGenerator(t, client)

	res, err := g.GenerateStructure(context.Background(), editorRequest("A home page"))
	require.NoError(t, err)

	assert.Equal(t, 1, client.retryCalls)
	require.Len(t, res.Tree.Blocks, 1)
	assert.Equal(t, 220, res.InputTokens)
	assert.Equal(t, 90, res.OutputTokens)
}

func TestAssembleTree(t *testing.T) {
	t.Parallel()

	g := newTestGenerator(t, &fakeClient{})

	tree := &assembler.Tree{Blocks: []assembler.Node{
		{Block: "core/paragraph", Content: "Hello world"},
		{Block: "acf/card", Data: map[string]any{"title": "Hi"}},
	}}

	res, err := g.AssembleTree(context.Background(), tree)
	require.NoError(t, err)

	assert.Contains(t, res.Markup, "<!-- wp:paragraph -->")
	assert.Contains(t, res.Markup, "wp:acf/card")
	assert.True(t, res.Validation.Valid)
	assert.Equal(t, 2, res.Validation.BlockCount)
}
