package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blockLocation(name string) [][]RawLocationRule {
	return [][]RawLocationRule{{{Param: "block", Operator: "==", Value: name}}}
}

func TestResolveBasicFields(t *testing.T) {
	t.Parallel()

	groups := []RawGroup{{
		Key:      "group_1",
		Title:    "Block: Card",
		Location: blockLocation(`acf\/card`),
		Fields: []RawField{
			{Key: "field_1", Name: "title", Type: "text"},
			{Key: "field_2", Name: "count", Type: "number"},
		},
	}}

	s := Resolve(groups)
	bs := s.Block("acf/card")
	require.NotNil(t, bs)

	key, ok := bs.KeyFor("title")
	require.True(t, ok)
	assert.Equal(t, "field_1", key)

	typ, ok := bs.TypeFor("count")
	require.True(t, ok)
	assert.Equal(t, TypeNumber, typ)
}

func TestResolveSkipsIrrelevantGroups(t *testing.T) {
	t.Parallel()

	groups := []RawGroup{{
		Key:      "group_1",
		Title:    "Page Settings",
		Location: blockLocation("acf/card"),
		Fields:   []RawField{{Key: "field_1", Name: "title", Type: "text"}},
	}}

	s := Resolve(groups)
	assert.Nil(t, s.Block("acf/card"))
}

func TestResolveSkipsUIOnlyFields(t *testing.T) {
	t.Parallel()

	groups := []RawGroup{{
		Key:      "group_1",
		Title:    "Block: Card",
		Location: blockLocation("acf/card"),
		Fields: []RawField{
			{Key: "field_1", Name: "layout_tab", Type: "tab"},
			{Key: "field_2", Name: "title", Type: "text"},
		},
	}}

	bs := Resolve(groups).Block("acf/card")
	require.NotNil(t, bs)
	assert.False(t, bs.Has("layout_tab"))
	assert.True(t, bs.Has("title"))
}

func TestResolveGroupClone(t *testing.T) {
	t.Parallel()

	groups := []RawGroup{
		{
			Key:   "group_util",
			Title: "Module: Spacing",
			Fields: []RawField{
				{Key: "field_m1", Name: "margin_top", Type: "select"},
				{Key: "field_m2", Name: "margin_bottom", Type: "select"},
			},
		},
		{
			Key:      "group_card",
			Title:    "Block: Card",
			Location: blockLocation("acf/card"),
			Fields: []RawField{
				{Key: "field_1", Name: "title", Type: "text"},
				{Key: "field_c1", Name: "spacing", Type: "clone", Clone: []string{"group_util"}},
			},
		},
	}

	bs := Resolve(groups).Block("acf/card")
	require.NotNil(t, bs)

	// the clone field itself keeps an entry
	typ, ok := bs.TypeFor("spacing")
	require.True(t, ok)
	assert.Equal(t, TypeClone, typ)

	// cloned fields land under the parent prefix (none here)
	key, ok := bs.KeyFor("margin_top")
	require.True(t, ok)
	assert.Equal(t, "field_m1", key)
}

func TestResolveClonePrefixName(t *testing.T) {
	t.Parallel()

	groups := []RawGroup{
		{
			Key:   "group_util",
			Title: "Module: Spacing",
			Fields: []RawField{
				{Key: "field_m1", Name: "margin_top", Type: "select"},
			},
		},
		{
			Key:      "group_card",
			Title:    "Block: Card",
			Location: blockLocation("acf/card"),
			Fields: []RawField{
				{Key: "field_c1", Name: "style", Type: "clone", Clone: []string{"group_util"}, PrefixName: true},
			},
		},
	}

	bs := Resolve(groups).Block("acf/card")
	require.NotNil(t, bs)

	key, ok := bs.KeyFor("style_margin_top")
	require.True(t, ok)
	assert.Equal(t, "field_m1", key)
	assert.False(t, bs.Has("margin_top"))
}

func TestResolveFieldCloneUnderParentPrefix(t *testing.T) {
	t.Parallel()

	groups := []RawGroup{
		{
			Key:   "group_util",
			Title: "Module: Media",
			Fields: []RawField{
				{Key: "field_9", Name: "image", Type: "image"},
			},
		},
		{
			Key:      "group_card",
			Title:    "Block: Card",
			Location: blockLocation("acf/card"),
			Fields: []RawField{
				{Key: "field_g", Name: "card", Type: "group", SubFields: []RawField{
					{Key: "field_c1", Name: "hero", Type: "clone", Clone: []string{"field_9"}, PrefixName: true},
				}},
			},
		},
	}

	bs := Resolve(groups).Block("acf/card")
	require.NotNil(t, bs)

	// cloned field lands under both the group and clone prefixes
	key, ok := bs.KeyFor("card_hero_image")
	require.True(t, ok)
	assert.Equal(t, "field_9", key)

	// the clone parent itself keeps an entry under the group prefix
	key, ok = bs.KeyFor("card_hero")
	require.True(t, ok)
	assert.Equal(t, "field_c1", key)
}

func TestResolveFieldClone(t *testing.T) {
	t.Parallel()

	groups := []RawGroup{
		{
			Key:   "group_util",
			Title: "Module: Media",
			Fields: []RawField{
				{Key: "field_img", Name: "image", Type: "image"},
			},
		},
		{
			Key:      "group_card",
			Title:    "Block: Card",
			Location: blockLocation("acf/card"),
			Fields: []RawField{
				{Key: "field_c1", Name: "media", Type: "clone", Clone: []string{"field_img"}},
			},
		},
	}

	bs := Resolve(groups).Block("acf/card")
	require.NotNil(t, bs)

	key, ok := bs.KeyFor("image")
	require.True(t, ok)
	assert.Equal(t, "field_img", key)
	typ, _ := bs.TypeFor("image")
	assert.Equal(t, TypeImage, typ)
}

func TestResolveGroupAndRepeaterDescent(t *testing.T) {
	t.Parallel()

	groups := []RawGroup{{
		Key:      "group_1",
		Title:    "Block: Hero",
		Location: blockLocation("acf/hero"),
		Fields: []RawField{
			{Key: "field_g", Name: "cta", Type: "group", SubFields: []RawField{
				{Key: "field_g1", Name: "label", Type: "text"},
				{Key: "field_g2", Name: "url", Type: "url"},
			}},
		},
	}}

	bs := Resolve(groups).Block("acf/hero")
	require.NotNil(t, bs)

	typ, _ := bs.TypeFor("cta")
	assert.Equal(t, TypeGroup, typ)

	key, ok := bs.KeyFor("cta_label")
	require.True(t, ok)
	assert.Equal(t, "field_g1", key)
	assert.True(t, bs.Has("cta_url"))
}

func TestResolveCloneCycleTruncates(t *testing.T) {
	t.Parallel()

	groups := []RawGroup{
		{
			Key:      "group_a",
			Title:    "Module: A",
			Location: blockLocation("acf/loop"),
			Fields: []RawField{
				{Key: "field_a1", Name: "a", Type: "text"},
				{Key: "field_ac", Name: "to_b", Type: "clone", Clone: []string{"group_b"}},
			},
		},
		{
			Key:   "group_b",
			Title: "Module: B",
			Fields: []RawField{
				{Key: "field_b1", Name: "b", Type: "text"},
				{Key: "field_bc", Name: "to_a", Type: "clone", Clone: []string{"group_a"}},
			},
		},
	}

	bs := Resolve(groups).Block("acf/loop")
	require.NotNil(t, bs)
	assert.True(t, bs.Has("a"))
	assert.True(t, bs.Has("b"))
}

func TestResolveIdempotent(t *testing.T) {
	t.Parallel()

	groups := []RawGroup{{
		Key:      "group_1",
		Title:    "Block: Card",
		Location: blockLocation("acf/card"),
		Fields: []RawField{
			{Key: "field_1", Name: "title", Type: "text"},
			{Key: "field_2", Name: "image", Type: "image"},
		},
	}}

	first := Resolve(groups).Block("acf/card")
	second := Resolve(groups).Block("acf/card")
	assert.Equal(t, first.Entries(), second.Entries())
}

func TestResolveMultipleBlockTargets(t *testing.T) {
	t.Parallel()

	groups := []RawGroup{{
		Key:   "group_1",
		Title: "Block: Shared",
		Location: [][]RawLocationRule{
			{{Param: "block", Operator: "==", Value: "acf/card"}},
			{{Param: "block", Operator: "==", Value: "acf/hero"}},
		},
		Fields: []RawField{{Key: "field_1", Name: "title", Type: "text"}},
	}}

	s := Resolve(groups)
	assert.True(t, s.Block("acf/card").Has("title"))
	assert.True(t, s.Block("acf/hero").Has("title"))
}

func TestImageGroups(t *testing.T) {
	t.Parallel()

	bs := NewBlockSchema()
	bs.Add("image", "field_1", TypeImage)
	bs.Add("image_type", "field_2", TypeSelect)
	bs.Add("image_url", "field_3", TypeURL)
	bs.Add("portrait", "field_4", TypeImage)

	groups := bs.ImageGroups()
	require.Len(t, groups, 1)
	assert.Equal(t, "image", groups[0].FileField)
	assert.Equal(t, "image_type", groups[0].TypeField)
	assert.Equal(t, "image_url", groups[0].URLField)
}
