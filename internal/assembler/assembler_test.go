package assembler

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timberland/blocksmith/internal/manifest"
	"github.com/timberland/blocksmith/internal/markup"
	"github.com/timberland/blocksmith/internal/schema"
)

type stubResolver map[string]int64

func (s stubResolver) Resolve(_ context.Context, value string) (int64, bool) {
	id, ok := s[value]
	return id, ok
}

func testManifest(t *testing.T) *manifest.Manifest {
	t.Helper()

	card := schema.NewBlockSchema()
	card.Add("card_style", "field_10", schema.TypeClone)
	card.Add("title", "field_1", schema.TypeText)
	card.Add("count", "field_5", schema.TypeNumber)
	card.Add("image", "field_2", schema.TypeImage)
	card.Add("image_type", "field_3", schema.TypeSelect)
	card.Add("image_url", "field_4", schema.TypeURL)

	section := schema.NewBlockSchema()
	section.Add("width", "field_20", schema.TypeSelect)

	return &manifest.Manifest{
		Version: "1.0.0",
		Blocks: map[string]*manifest.Block{
			"acf/card":    {Name: "acf/card", Title: "Card", Schema: card},
			"acf/section": {Name: "acf/section", Title: "Section", Schema: section, IsContainer: true},
		},
	}
}

// blockData extracts the data object from the first custom block island.
func blockData(t *testing.T, m string) map[string]any {
	t.Helper()

	match := markup.CustomBlockRe.FindStringSubmatch(m)
	require.NotNil(t, match, "no custom block in markup: %s", m)

	var attrs struct {
		Name string         `json:"name"`
		Data map[string]any `json:"data"`
		Mode string         `json:"mode"`
	}
	require.NoError(t, json.Unmarshal([]byte(match[2]), &attrs))
	assert.Equal(t, "preview", attrs.Mode)
	return attrs.Data
}

func TestParseTree(t *testing.T) {
	t.Parallel()

	tree, err := ParseTree(`{"blocks":[{"block":"core/paragraph","content":"Hi"}]}`)
	require.NoError(t, err)
	require.Len(t, tree.Blocks, 1)
	assert.Equal(t, "core/paragraph", tree.Blocks[0].Block)
}

func TestParseTreeStripsFences(t *testing.T) {
	t.Parallel()

	raw := "Here you go:\n```json\n{\"blocks\":[{\"block\":\"acf/card\",\"data\":{\"title\":\"A\"}}]}\n```"
	tree, err := ParseTree(raw)
	require.NoError(t, err)
	require.Len(t, tree.Blocks, 1)
	assert.Equal(t, "A", tree.Blocks[0].Data["title"])
}

func TestParseTreeRejectsMissingBlockName(t *testing.T) {
	t.Parallel()

	_, err := ParseTree(`{"blocks":[{"data":{"title":"A"}}]}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid block tree")
}

func TestParseTreeRejectsEmpty(t *testing.T) {
	t.Parallel()

	_, err := ParseTree("   ")
	require.Error(t, err)
}

func TestAssembleCoreBlocks(t *testing.T) {
	t.Parallel()

	a := New(testManifest(t), nil)
	ctx := context.Background()

	out, err := a.Assemble(ctx, &Tree{Blocks: []Node{
		{Block: "core/heading", Level: float64(3), Content: "Welcome"},
		{Block: "core/paragraph", Content: "Hello there."},
		{Block: "core/list", Items: []string{"one", "two"}},
		{Block: "core/button", Text: "Go"},
	}})
	require.NoError(t, err)

	assert.Contains(t, out, "<!-- wp:heading {\"level\":3} -->\n<h3>Welcome</h3>\n<!-- /wp:heading -->")
	assert.Contains(t, out, "<!-- wp:paragraph -->\n<p>Hello there.</p>\n<!-- /wp:paragraph -->")
	assert.Contains(t, out, "<ul><li>one</li><li>two</li></ul>")
	assert.Contains(t, out, "href=\"#\"")
}

func TestAssembleHeadingDefaultLevelHasNoAttrs(t *testing.T) {
	t.Parallel()

	a := New(testManifest(t), nil)
	out, err := a.Assemble(context.Background(), &Tree{Blocks: []Node{
		{Block: "core/heading", Content: "Plain"},
	}})
	require.NoError(t, err)
	assert.Contains(t, out, "<!-- wp:heading -->\n<h2>Plain</h2>")
}

func TestAssembleLeafIsSelfClosing(t *testing.T) {
	t.Parallel()

	a := New(testManifest(t), nil)
	out, err := a.Assemble(context.Background(), &Tree{Blocks: []Node{
		{Block: "acf/card", Data: map[string]any{"title": "A"}},
	}})
	require.NoError(t, err)

	assert.Contains(t, out, "<!-- wp:acf/card ")
	assert.Contains(t, out, " /-->")
	assert.NotContains(t, out, "<!-- /wp:acf/card -->")
}

func TestAssembleContainerWrapsChildren(t *testing.T) {
	t.Parallel()

	a := New(testManifest(t), nil)
	out, err := a.Assemble(context.Background(), &Tree{Blocks: []Node{
		{
			Block: "acf/section",
			Data:  map[string]any{"width": "wide"},
			Children: []Node{
				{Block: "core/paragraph", Content: "Inside"},
			},
		},
	}})
	require.NoError(t, err)

	assert.Contains(t, out, "<!-- wp:acf/section ")
	assert.Contains(t, out, "<!-- /wp:acf/section -->")
	assert.Contains(t, out, "<p>Inside</p>")
}

func TestAssembleUnknownBlockDropped(t *testing.T) {
	t.Parallel()

	a := New(testManifest(t), nil)
	out, err := a.Assemble(context.Background(), &Tree{Blocks: []Node{
		{Block: "acf/mystery", Data: map[string]any{"x": "y"}},
		{Block: "core/paragraph", Content: "Survivor"},
	}})
	require.NoError(t, err)

	assert.NotContains(t, out, "mystery")
	assert.Contains(t, out, "Survivor")
}

func TestCompanionKeysAuthoritative(t *testing.T) {
	t.Parallel()

	a := New(testManifest(t), nil)
	out, err := a.Assemble(context.Background(), &Tree{Blocks: []Node{
		{Block: "acf/card", Data: map[string]any{
			"title":  "Hi",
			"_title": "field_bogus",
		}},
	}})
	require.NoError(t, err)

	data := blockData(t, out)
	assert.Equal(t, "Hi", data["title"])
	assert.Equal(t, "field_1", data["_title"], "model-supplied companion must be overwritten")
}

func TestCloneParentSeeded(t *testing.T) {
	t.Parallel()

	a := New(testManifest(t), nil)
	out, err := a.Assemble(context.Background(), &Tree{Blocks: []Node{
		{Block: "acf/card", Data: map[string]any{"title": "Hi"}},
	}})
	require.NoError(t, err)

	data := blockData(t, out)
	assert.Equal(t, "", data["card_style"])
	assert.Equal(t, "field_10", data["_card_style"])
}

func TestNumberCoercion(t *testing.T) {
	t.Parallel()

	a := New(testManifest(t), nil)
	out, err := a.Assemble(context.Background(), &Tree{Blocks: []Node{
		{Block: "acf/card", Data: map[string]any{"title": "Hi", "count": "7"}},
	}})
	require.NoError(t, err)

	data := blockData(t, out)
	assert.Equal(t, float64(7), data["count"])
}

func TestImageTriadNumericID(t *testing.T) {
	t.Parallel()

	a := New(testManifest(t), nil)
	out, err := a.Assemble(context.Background(), &Tree{Blocks: []Node{
		{Block: "acf/card", Data: map[string]any{"image": "123"}},
	}})
	require.NoError(t, err)

	data := blockData(t, out)
	assert.Equal(t, float64(123), data["image"])
	assert.Equal(t, "file", data["image_type"])
	assert.Equal(t, "", data["image_url"])
	assert.Equal(t, "field_2", data["_image"])
	assert.Equal(t, "field_3", data["_image_type"])
	assert.Equal(t, "field_4", data["_image_url"])
}

func TestImageTriadUnresolvedURLFallsBackToURLMode(t *testing.T) {
	t.Parallel()

	a := New(testManifest(t), stubResolver{})
	out, err := a.Assemble(context.Background(), &Tree{Blocks: []Node{
		{Block: "acf/card", Data: map[string]any{"image": "https://example.com/pic.jpg"}},
	}})
	require.NoError(t, err)

	data := blockData(t, out)
	assert.Equal(t, "url", data["image_type"])
	assert.Equal(t, "https://example.com/pic.jpg", data["image_url"])
	assert.Equal(t, "", data["image"])
}

func TestImageTriadResolvedReference(t *testing.T) {
	t.Parallel()

	a := New(testManifest(t), stubResolver{"team.jpg": 55})
	out, err := a.Assemble(context.Background(), &Tree{Blocks: []Node{
		{Block: "acf/card", Data: map[string]any{"image": "team.jpg"}},
	}})
	require.NoError(t, err)

	data := blockData(t, out)
	assert.Equal(t, float64(55), data["image"])
	assert.Equal(t, "file", data["image_type"])
}

func TestImageTriadUnresolvedTextCleared(t *testing.T) {
	t.Parallel()

	a := New(testManifest(t), stubResolver{})
	out, err := a.Assemble(context.Background(), &Tree{Blocks: []Node{
		{Block: "acf/card", Data: map[string]any{"image": "a smiling golden retriever"}},
	}})
	require.NoError(t, err)

	data := blockData(t, out)
	assert.Equal(t, "", data["image"])
	assert.Equal(t, "file", data["image_type"])
}

func TestImageTriadKeepSentinel(t *testing.T) {
	t.Parallel()

	a := New(testManifest(t), stubResolver{"keep": 999})
	out, err := a.Assemble(context.Background(), &Tree{Blocks: []Node{
		{Block: "acf/card", Data: map[string]any{"image": "keep"}},
	}})
	require.NoError(t, err)

	data := blockData(t, out)
	assert.Equal(t, "file", data["image_type"])
	assert.Equal(t, "", data["image"])
	assert.Equal(t, "", data["image_url"])
}

func TestAssembleValidatesCleanly(t *testing.T) {
	t.Parallel()

	a := New(testManifest(t), nil)
	out, err := a.Assemble(context.Background(), &Tree{Blocks: []Node{
		{
			Block: "acf/section",
			Data:  map[string]any{"width": "full"},
			Children: []Node{
				{Block: "core/heading", Content: "Our Team"},
				{Block: "acf/card", Data: map[string]any{"title": "Jane", "image": "456"}},
			},
		},
	}})
	require.NoError(t, err)

	// Every non-companion field in every island must carry its companion.
	for _, match := range markup.CustomBlockRe.FindAllStringSubmatch(out, -1) {
		var attrs struct {
			Data map[string]any `json:"data"`
		}
		require.NoError(t, json.Unmarshal([]byte(match[2]), &attrs))
		for key := range attrs.Data {
			if key[0] == '_' {
				continue
			}
			assert.Contains(t, attrs.Data, "_"+key, "field %s missing companion", key)
		}
	}
	assert.Equal(t, 3, markup.CountBlocks(out))
}
