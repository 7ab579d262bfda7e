package manifest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCatalog = `
blocks:
  - name: acf/section
    title: Section
    container: true
  - name: acf/card
    title: Card
    description: A content card
    keywords: [teaser, grid]
    parent: [acf/section]
reference:
  layouts:
    - key: hero_telco
      name: Telco Hero
      type: hero
      keywords: [telecom]
      content: "<!-- wp:acf/card {} /-->"
  patterns:
    - id: 7
      title: Home Cards
      categories: [marketing]
      content: "<!-- wp:acf/card {} /-->"
`

const testGroup = `{
	"key": "group_card",
	"title": "Block: Card",
	"location": [[{"param": "block", "operator": "==", "value": "acf\/card"}]],
	"fields": [{"key": "field_1", "name": "title", "type": "text"}]
}`

func testSources(t *testing.T) (groupDir, catalogDir string) {
	t.Helper()
	groupDir = t.TempDir()
	catalogDir = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(groupDir, "group_card.json"), []byte(testGroup), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(catalogDir, "blocks.yaml"), []byte(testCatalog), 0o644))
	return groupDir, catalogDir
}

func TestBuilderBuild(t *testing.T) {
	t.Parallel()

	groupDir, catalogDir := testSources(t)
	m := NewBuilder("1.0.0", []string{groupDir}, []string{catalogDir}, true, true).Build()

	assert.Equal(t, "1.0.0", m.Version)
	assert.NotEmpty(t, m.GeneratedAt)
	require.Len(t, m.Blocks, 2)

	card := m.Block("acf/card")
	require.NotNil(t, card)
	assert.Equal(t, "Card", card.Title)
	assert.False(t, card.IsContainer)
	key, ok := card.Schema.KeyFor("title")
	require.True(t, ok)
	assert.Equal(t, "field_1", key)

	section := m.Block("acf/section")
	require.NotNil(t, section)
	assert.True(t, section.IsContainer)
	// no field group targets the section; it still gets an empty schema
	assert.Equal(t, 0, section.Schema.Len())

	assert.Equal(t, []string{"acf/section"}, m.Nesting.Containers)
	assert.Equal(t, []string{"acf/card"}, m.Nesting.LeafBlocks)
	assert.Equal(t, []string{"acf/card"}, m.Nesting.ChildrenOf["acf/section"])

	require.Len(t, m.Layouts, 1)
	assert.Equal(t, "Telco Hero", m.Layouts[0].Name)
	require.Len(t, m.Patterns, 1)
	assert.Equal(t, int64(7), m.Patterns[0].ID)

	assert.True(t, m.HasFieldTypes())
}

func TestBuilderExcludesReferenceContent(t *testing.T) {
	t.Parallel()

	groupDir, catalogDir := testSources(t)
	m := NewBuilder("1.0.0", []string{groupDir}, []string{catalogDir}, false, false).Build()

	assert.Empty(t, m.Layouts)
	assert.Empty(t, m.Patterns)
	assert.Len(t, m.Blocks, 2)
}

func TestResolveReferenceContent(t *testing.T) {
	t.Parallel()

	groupDir, catalogDir := testSources(t)
	m := NewBuilder("1.0.0", []string{groupDir}, []string{catalogDir}, true, true).Build()

	content, title, ok := m.ResolveReferenceContent("pattern_7")
	require.True(t, ok)
	assert.Equal(t, "Home Cards", title)
	assert.Contains(t, content, "wp:acf/card")

	content, title, ok = m.ResolveReferenceContent("layout_0")
	require.True(t, ok)
	assert.Equal(t, "Telco Hero", title)
	assert.NotEmpty(t, content)

	_, _, ok = m.ResolveReferenceContent("pattern_99")
	assert.False(t, ok)
	_, _, ok = m.ResolveReferenceContent("layout_5")
	assert.False(t, ok)
	_, _, ok = m.ResolveReferenceContent("bogus")
	assert.False(t, ok)
}

func TestStoreRoundTrip(t *testing.T) {
	t.Parallel()

	groupDir, catalogDir := testSources(t)
	builder := NewBuilder("1.0.0", []string{groupDir}, []string{catalogDir}, true, true)
	path := filepath.Join(t.TempDir(), "manifest.json")

	store := NewStore(builder, path, time.Hour)
	m, err := store.Regenerate()
	require.NoError(t, err)
	require.FileExists(t, path)

	// a fresh store with the same path loads the persisted snapshot
	again := NewStore(builder, path, time.Hour)
	loaded, err := again.Get()
	require.NoError(t, err)
	assert.Equal(t, m.Version, loaded.Version)
	assert.Len(t, loaded.Blocks, 2)

	key, ok := loaded.Block("acf/card").Schema.KeyFor("title")
	require.True(t, ok)
	assert.Equal(t, "field_1", key)
	assert.True(t, loaded.HasFieldTypes())
}

func TestStoreIgnoresCorruptSnapshot(t *testing.T) {
	t.Parallel()

	groupDir, catalogDir := testSources(t)
	builder := NewBuilder("1.0.0", []string{groupDir}, []string{catalogDir}, true, true)
	path := filepath.Join(t.TempDir(), "manifest.json")
	require.NoError(t, os.WriteFile(path, []byte("{corrupt"), 0o644))

	store := NewStore(builder, path, time.Hour)
	m, err := store.Get()
	require.NoError(t, err)
	assert.Len(t, m.Blocks, 2)
}

func TestStoreClearCache(t *testing.T) {
	t.Parallel()

	groupDir, catalogDir := testSources(t)
	builder := NewBuilder("1.0.0", []string{groupDir}, []string{catalogDir}, true, true)
	path := filepath.Join(t.TempDir(), "manifest.json")

	store := NewStore(builder, path, time.Hour)
	_, err := store.Get()
	require.NoError(t, err)

	store.ClearCache()
	m, err := store.Get()
	require.NoError(t, err)
	assert.Len(t, m.Blocks, 2)
}

func TestManifestStats(t *testing.T) {
	t.Parallel()

	groupDir, catalogDir := testSources(t)
	m := NewBuilder("1.0.0", []string{groupDir}, []string{catalogDir}, true, true).Build()

	stats := m.Stats()
	assert.Equal(t, 2, stats.BlockCount)
	assert.Equal(t, 1, stats.LayoutCount)
	assert.Equal(t, 1, stats.PatternCount)
	assert.Equal(t, 1, stats.FieldMappings)
}
