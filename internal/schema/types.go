// Package schema resolves raw nested field-group definitions into flat,
// authoritative per-block field maps. Every field value emitted into block
// markup must carry a companion entry referencing the field key from these
// maps, or the renderer silently drops the value.
package schema

import (
	"encoding/json"
	"strings"
)

// FieldType classifies a field definition for the compiler.
type FieldType string

const (
	TypeClone    FieldType = "clone"
	TypeImage    FieldType = "image"
	TypeURL      FieldType = "url"
	TypeSelect   FieldType = "select"
	TypeNumber   FieldType = "number"
	TypeGroup    FieldType = "group"
	TypeRepeater FieldType = "repeater"
	TypeText     FieldType = "text"

	// UI-only types carry no data and never enter a block schema.
	TypeAccordion FieldType = "accordion"
	TypeTab       FieldType = "tab"
	TypeMessage   FieldType = "message"
)

// UIOnly reports whether the field stores no data.
func (t FieldType) UIOnly() bool {
	switch t {
	case TypeAccordion, TypeTab, TypeMessage:
		return true
	}
	return false
}

// RawLocationRule is a single location predicate on a field group.
type RawLocationRule struct {
	Param    string `json:"param"    mapstructure:"param"`
	Operator string `json:"operator" mapstructure:"operator"`
	Value    string `json:"value"    mapstructure:"value"`
}

// RawField is one field definition inside a raw field group.
type RawField struct {
	Key        string     `json:"key"                   mapstructure:"key"`
	Name       string     `json:"name"                  mapstructure:"name"`
	Type       string     `json:"type"                  mapstructure:"type"`
	SubFields  []RawField `json:"sub_fields,omitempty"  mapstructure:"sub_fields"`
	Clone      []string   `json:"clone,omitempty"       mapstructure:"clone"`
	PrefixName bool       `json:"prefix_name,omitempty" mapstructure:"prefix_name"`
}

// RawGroup is a raw field-group definition as exported by the field editor.
type RawGroup struct {
	Key      string              `json:"key"      mapstructure:"key"`
	Title    string              `json:"title"    mapstructure:"title"`
	Fields   []RawField          `json:"fields"   mapstructure:"fields"`
	Location [][]RawLocationRule `json:"location" mapstructure:"location"`
}

// FieldEntry is one resolved field: name, authoritative key, and type.
type FieldEntry struct {
	Name string    `json:"name"`
	Key  string    `json:"key"`
	Type FieldType `json:"type"`
}

// ImageGroup is the triad of fields describing one logical image: a
// source-mode selector, a file reference, and an external URL.
type ImageGroup struct {
	TypeField string
	FileField string
	URLField  string
}

// BlockSchema is the ordered flat field map for one block. Insertion order
// is declaration order; re-adding an existing name keeps its position and
// overwrites key and type.
type BlockSchema struct {
	entries []FieldEntry
	index   map[string]int
}

// NewBlockSchema returns an empty block schema.
func NewBlockSchema() *BlockSchema {
	return &BlockSchema{index: make(map[string]int)}
}

// Add inserts or overwrites a field entry.
func (b *BlockSchema) Add(name, key string, typ FieldType) {
	if b.index == nil {
		b.index = make(map[string]int)
	}
	if i, ok := b.index[name]; ok {
		b.entries[i].Key = key
		b.entries[i].Type = typ
		return
	}
	b.index[name] = len(b.entries)
	b.entries = append(b.entries, FieldEntry{Name: name, Key: key, Type: typ})
}

// KeyFor returns the authoritative field key for a field name.
func (b *BlockSchema) KeyFor(name string) (string, bool) {
	if b == nil || b.index == nil {
		return "", false
	}
	i, ok := b.index[name]
	if !ok {
		return "", false
	}
	return b.entries[i].Key, true
}

// TypeFor returns the field type for a field name.
func (b *BlockSchema) TypeFor(name string) (FieldType, bool) {
	if b == nil || b.index == nil {
		return "", false
	}
	i, ok := b.index[name]
	if !ok {
		return "", false
	}
	return b.entries[i].Type, true
}

// Has reports whether the schema knows the field name.
func (b *BlockSchema) Has(name string) bool {
	_, ok := b.KeyFor(name)
	return ok
}

// Entries returns the fields in declaration order.
func (b *BlockSchema) Entries() []FieldEntry {
	if b == nil {
		return nil
	}
	return b.entries
}

// Len returns the number of resolved fields.
func (b *BlockSchema) Len() int {
	if b == nil {
		return 0
	}
	return len(b.entries)
}

// ImageGroups detects image field triads: an image-typed field N whose
// schema also declares N_type and/or N_url siblings.
func (b *BlockSchema) ImageGroups() []ImageGroup {
	if b == nil {
		return nil
	}
	var groups []ImageGroup
	seen := make(map[string]bool)
	for _, e := range b.entries {
		if e.Type != TypeImage || seen[e.Name] {
			continue
		}
		typeField := e.Name + "_type"
		urlField := e.Name + "_url"
		if b.Has(typeField) || b.Has(urlField) {
			seen[e.Name] = true
			groups = append(groups, ImageGroup{
				TypeField: typeField,
				FileField: e.Name,
				URLField:  urlField,
			})
		}
	}
	return groups
}

// MarshalJSON encodes the schema as an ordered entry list.
func (b *BlockSchema) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Fields []FieldEntry `json:"fields"`
	}{Fields: b.entries})
}

// UnmarshalJSON decodes the ordered entry list and rebuilds the index.
func (b *BlockSchema) UnmarshalJSON(data []byte) error {
	var wire struct {
		Fields []FieldEntry `json:"fields"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	b.entries = nil
	b.index = make(map[string]int)
	for _, e := range wire.Fields {
		b.Add(e.Name, e.Key, e.Type)
	}
	return nil
}

// Schema maps block names to their resolved block schemas.
type Schema map[string]*BlockSchema

// Block returns the block schema for a name, which may be nil.
func (s Schema) Block(name string) *BlockSchema {
	return s[name]
}

// relevantPrefixes select the field groups worth loading: block-targeted
// groups and the utility groups they clone.
var relevantPrefixes = []string{"Block: ", "Module: "}

func isRelevantTitle(title string) bool {
	for _, p := range relevantPrefixes {
		if strings.HasPrefix(title, p) {
			return true
		}
	}
	return false
}
