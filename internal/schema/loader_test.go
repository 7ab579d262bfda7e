package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeGroup(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadGroups(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	writeGroup(t, dir, "group_card.json", `{
		"key": "group_card",
		"title": "Block: Card",
		"location": [[{"param": "block", "operator": "==", "value": "acf\/card"}]],
		"fields": [
			{"key": "field_1", "name": "title", "type": "text"},
			{"key": "field_2", "name": "style", "type": "clone", "clone": ["group_util"], "prefix_name": 1}
		]
	}`)

	groups := LoadGroups([]string{dir})
	require.Len(t, groups, 1)

	g := groups[0]
	assert.Equal(t, "group_card", g.Key)
	require.Len(t, g.Fields, 2)
	// integer prefix_name decodes weakly to bool
	assert.True(t, g.Fields[1].PrefixName)
	require.Len(t, g.Location, 1)
	assert.Equal(t, "block", g.Location[0][0].Param)
}

func TestLoadGroupsSkipsMalformed(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	writeGroup(t, dir, "group_bad.json", `{not json`)
	writeGroup(t, dir, "group_anon.json", `{"fields": []}`)
	writeGroup(t, dir, "group_ok.json", `{"key": "group_ok", "title": "Block: OK", "fields": []}`)
	writeGroup(t, dir, "other.json", `{"key": "group_other", "title": "Block: Other", "fields": []}`)

	groups := LoadGroups([]string{dir})
	require.Len(t, groups, 1)
	assert.Equal(t, "group_ok", groups[0].Key)
}

func TestLoadGroupsMissingDir(t *testing.T) {
	t.Parallel()
	assert.Empty(t, LoadGroups([]string{"/nonexistent/path"}))
}
