package prompt

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/timberland/blocksmith/internal/manifest"
	"github.com/timberland/blocksmith/internal/markup"
	"github.com/timberland/blocksmith/internal/schema"
)

// StructureBuilder assembles the system prompt for the structure step.
// Unlike Builder, it asks only for a JSON block tree with human-readable
// field names; the assembler handles all serialization afterwards.
type StructureBuilder struct {
	manifest *manifest.Manifest
}

func NewStructureBuilder(m *manifest.Manifest) *StructureBuilder {
	return &StructureBuilder{manifest: m}
}

// Build produces the structure system prompt from a confirmed layout plan.
func (b *StructureBuilder) Build(userPrompt string, dec *Decomposition, usePatterns []string) string {
	var hints []string
	if dec != nil {
		for _, s := range dec.Sections {
			hints = append(hints, s.PatternHint)
		}
	}
	blocks := filterBlocks(b.manifest, userPrompt, hints)

	sections := []string{
		structureRules,
		b.catalogSection(blocks),
		nestingSection(b.manifest.Nesting),
		layoutPlanSection(dec),
	}
	if len(usePatterns) > 0 {
		sections = append(sections, b.patternReferenceSection(usePatterns))
	}

	return joinSections(sections)
}

// catalogSection lists blocks with field names and types only. Field keys
// stay out of the structure prompt entirely.
func (b *StructureBuilder) catalogSection(blocks []*manifest.Block) string {
	var out strings.Builder
	out.WriteString("# AVAILABLE BLOCKS\n\n")

	for _, block := range blocks {
		kind := "leaf"
		if block.IsContainer {
			kind = "container"
		}
		fmt.Fprintf(&out, "## %s (`%s`) — %s\n", block.Title, block.Name, kind)

		if block.Description != "" {
			out.WriteString(block.Description + "\n")
		}
		if len(block.Parent) > 0 {
			out.WriteString("Parent restriction: " + strings.Join(block.Parent, ", ") + "\n")
		}
		if block.UsageNotes != "" {
			out.WriteString("Notes: " + block.UsageNotes + "\n")
		}

		if block.Schema.Len() > 0 {
			out.WriteString("\nFields:\n")
			for _, e := range block.Schema.Entries() {
				if e.Type == schema.TypeClone {
					continue
				}
				typ := string(e.Type)
				if typ == "" {
					typ = "text"
				}
				fmt.Fprintf(&out, "  - `%s` (%s)%s\n", e.Name, typ, fieldAnnotation(e))
			}
		}

		out.WriteString("\n")
	}

	return out.String()
}

func fieldAnnotation(e schema.FieldEntry) string {
	switch {
	case e.Type == schema.TypeImage:
		return " — attachment ID or filename"
	case e.Type == schema.TypeSelect && strings.HasSuffix(e.Name, "_image_type"):
		return ` — "file" or "url"`
	case e.Type == schema.TypeURL && strings.HasSuffix(e.Name, "_image_url"):
		return " — full URL string"
	}
	return ""
}

func layoutPlanSection(dec *Decomposition) string {
	if dec == nil || len(dec.Sections) == 0 {
		return ""
	}

	var out strings.Builder
	out.WriteString("# CONFIRMED LAYOUT PLAN\n\n")

	if dec.OverallIntent != "" {
		out.WriteString("Overall intent: " + dec.OverallIntent + "\n\n")
	}

	for i, s := range dec.Sections {
		fmt.Fprintf(&out, "## Section %d: %s\n", i+1, s.Intent)
		if s.PatternHint != "" {
			out.WriteString("Pattern reference: " + s.PatternHint + "\n")
		}
		for _, key := range sortedContentKeys(s.Content) {
			if v := contentString(s.Content[key]); v != "" {
				fmt.Fprintf(&out, "  %s: %s\n", key, v)
			}
		}
		out.WriteString("\n")
	}

	return out.String()
}

func (b *StructureBuilder) patternReferenceSection(refs []string) string {
	var out strings.Builder
	out.WriteString("# PATTERN REFERENCES\n\n")
	out.WriteString("Use these patterns as structural templates. Adapt content to match the layout plan.\n\n")

	n := 0
	for _, ref := range refs {
		content, title, ok := b.manifest.ResolveReferenceContent(ref)
		if !ok || content == "" {
			continue
		}
		n++
		fmt.Fprintf(&out, "## Pattern %d: %s\n", n, title)
		if structure := describePatternStructure(content); structure != "" {
			out.WriteString(structure + "\n")
		}
		out.WriteString("\n")
	}

	if n == 0 {
		return ""
	}
	return out.String()
}

var coreContentRe = regexp.MustCompile(`(?s)<!-- wp:(heading|paragraph|button|list).*?-->(.*?)<!-- /wp:(heading|paragraph|button|list) -->`)

var htmlTagRe = regexp.MustCompile(`<[^>]*>`)

// describePatternStructure renders a pattern as a flat list of block names
// with their meaningful data values, instead of raw markup. The structure
// model only needs to know what goes where, not the serialization.
func describePatternStructure(content string) string {
	var lines []string

	for _, match := range markup.CustomBlockRe.FindAllStringSubmatch(content, -1) {
		blockName := "acf/" + match[1]

		var attrs struct {
			Data map[string]any `json:"data"`
		}
		_ = json.Unmarshal([]byte(match[2]), &attrs)

		line := fmt.Sprintf("- `%s`", blockName)
		var pairs []string
		for _, key := range sortedContentKeys(attrs.Data) {
			if strings.HasPrefix(key, "_") {
				continue
			}
			if key == "mode" || key == "alignText" || key == "alignContent" {
				continue
			}
			v := attrs.Data[key]
			if v == nil || v == "" {
				continue
			}
			switch v.(type) {
			case map[string]any, []any:
				continue
			}
			display := contentString(v)
			if len(display) > 60 {
				display = display[:57] + "..."
			}
			enc, err := markup.EncodeJSON(display)
			if err != nil {
				continue
			}
			pairs = append(pairs, fmt.Sprintf("%s: %s", key, enc))
		}
		if len(pairs) > 0 {
			line += " — " + strings.Join(pairs, ", ")
		}
		lines = append(lines, line)
	}

	for _, match := range coreContentRe.FindAllStringSubmatch(content, -1) {
		text := strings.TrimSpace(htmlTagRe.ReplaceAllString(match[2], ""))
		if text == "" {
			continue
		}
		if len(text) > 60 {
			text = text[:57] + "..."
		}
		lines = append(lines, fmt.Sprintf("- `core/%s`: %q", match[1], text))
	}

	return strings.Join(lines, "\n")
}

func contentString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", s)
	}
}

func sortedContentKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
