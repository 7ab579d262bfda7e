// Package manifest builds and caches the site manifest: the block catalog,
// resolved field schemas, nesting rules, and reference content the
// generation pipeline works from.
package manifest

import (
	"strconv"
	"strings"

	"github.com/timberland/blocksmith/internal/schema"
)

// Block describes one registered block and its resolved field schema.
type Block struct {
	Name        string              `json:"name"`
	Title       string              `json:"title"`
	Description string              `json:"description,omitempty"`
	Category    string              `json:"category,omitempty"`
	Keywords    []string            `json:"keywords,omitempty"`
	IsContainer bool                `json:"is_container"`
	Parent      []string            `json:"parent,omitempty"`
	Schema      *schema.BlockSchema `json:"schema,omitempty"`
	UsageNotes  string              `json:"usage_notes,omitempty"`
}

// Layout is a prebuilt layout example available as reference content.
type Layout struct {
	Key        string   `json:"key"`
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	Collection string   `json:"collection,omitempty"`
	Keywords   []string `json:"keywords,omitempty"`
	Content    string   `json:"content"`
	UsageNotes string   `json:"usage_notes,omitempty"`
}

// Pattern is an editor-saved pattern available as reference content.
type Pattern struct {
	ID         int64    `json:"id"`
	Title      string   `json:"title"`
	Categories []string `json:"categories,omitempty"`
	Content    string   `json:"content"`
	UsageNotes string   `json:"usage_notes,omitempty"`
}

// NestingRules summarize which blocks accept children and who may nest where.
type NestingRules struct {
	Containers []string            `json:"containers"`
	LeafBlocks []string            `json:"leaf_blocks"`
	ChildrenOf map[string][]string `json:"children_of,omitempty"`
}

// Manifest is a point-in-time snapshot of everything the pipeline needs.
// Snapshots are immutable once built; a rebuild produces a new snapshot.
type Manifest struct {
	Version     string            `json:"version"`
	GeneratedAt string            `json:"generated_at"`
	Blocks      map[string]*Block `json:"blocks"`
	Layouts     []Layout          `json:"layouts,omitempty"`
	Patterns    []Pattern         `json:"patterns,omitempty"`
	Nesting     NestingRules      `json:"nesting_rules"`
}

// Block returns the definition for a block name, or nil.
func (m *Manifest) Block(name string) *Block {
	if m == nil {
		return nil
	}
	return m.Blocks[name]
}

// BlockSchema returns the resolved field schema for a block, or nil.
func (m *Manifest) BlockSchema(name string) *schema.BlockSchema {
	b := m.Block(name)
	if b == nil {
		return nil
	}
	return b.Schema
}

// HasFieldTypes reports whether any block carries field-type information.
// A manifest without it predates type-aware resolution and must be rebuilt.
func (m *Manifest) HasFieldTypes() bool {
	for _, b := range m.Blocks {
		for _, e := range b.Schema.Entries() {
			if e.Type != "" {
				return true
			}
		}
	}
	return false
}

// ResolveReferenceContent resolves a pattern_<id> or layout_<index> reference
// to its markup content.
func (m *Manifest) ResolveReferenceContent(ref string) (content, title string, ok bool) {
	switch {
	case strings.HasPrefix(ref, "pattern_"):
		id, err := strconv.ParseInt(strings.TrimPrefix(ref, "pattern_"), 10, 64)
		if err != nil {
			return "", "", false
		}
		for _, p := range m.Patterns {
			if p.ID == id {
				return p.Content, p.Title, true
			}
		}
	case strings.HasPrefix(ref, "layout_"):
		idx, err := strconv.Atoi(strings.TrimPrefix(ref, "layout_"))
		if err != nil || idx < 0 || idx >= len(m.Layouts) {
			return "", "", false
		}
		return m.Layouts[idx].Content, m.Layouts[idx].Name, true
	}
	return "", "", false
}

// Stats summarizes a manifest for diagnostics.
type Stats struct {
	Version       string `json:"version"`
	GeneratedAt   string `json:"generated_at"`
	BlockCount    int    `json:"block_count"`
	LayoutCount   int    `json:"layout_count"`
	PatternCount  int    `json:"pattern_count"`
	FieldMappings int    `json:"total_field_mappings"`
}

// Stats returns diagnostic counts for the manifest.
func (m *Manifest) Stats() Stats {
	s := Stats{
		Version:      m.Version,
		GeneratedAt:  m.GeneratedAt,
		BlockCount:   len(m.Blocks),
		LayoutCount:  len(m.Layouts),
		PatternCount: len(m.Patterns),
	}
	for _, b := range m.Blocks {
		s.FieldMappings += b.Schema.Len()
	}
	return s
}
