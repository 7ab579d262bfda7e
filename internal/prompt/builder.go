// Package prompt assembles system prompts for the generation pipeline and
// scores reference content for relevance.
package prompt

import (
	"fmt"
	"sort"
	"strings"

	"github.com/timberland/blocksmith/internal/manifest"
	"github.com/timberland/blocksmith/internal/schema"
)

// coreBlocks are layout scaffolding, always included in the catalog.
var coreBlocks = []string{"acf/section", "acf/row", "acf/column"}

// commonBlocks are the fallback when relevance scoring matches nothing.
var commonBlocks = []string{
	"acf/card", "acf/card-grid", "acf/button", "acf/jumbotron",
	"acf/hero-unit", "acf/feature", "acf/promo", "acf/text-block",
}

const sectionSeparator = "\n\n---\n\n"

// Builder assembles the system prompt for single-shot markup generation.
type Builder struct {
	manifest           *manifest.Manifest
	customInstructions string
}

func NewBuilder(m *manifest.Manifest, customInstructions string) *Builder {
	return &Builder{manifest: m, customInstructions: customInstructions}
}

// Build produces the full system prompt. usePatterns names pattern/layout
// references to use as a base; when empty, relevance-scored reference
// sections are included instead.
func (b *Builder) Build(userPrompt, postType string, usePatterns []string) string {
	blocks := filterBlocks(b.manifest, userPrompt, nil)

	sections := []string{
		markupRules,
		b.blocksSection(blocks),
		nestingSection(b.manifest.Nesting),
		postTypeSection(postType),
	}

	if len(usePatterns) > 0 {
		sections = append(sections, b.selectedPatternsSection(usePatterns))
	} else {
		sections = append(sections, b.layoutsSection(userPrompt), b.patternsSection(userPrompt))
	}

	if custom := strings.TrimSpace(b.customInstructions); custom != "" {
		sections = append(sections, "# SITE-SPECIFIC INSTRUCTIONS\n\n"+custom)
	}

	return joinSections(sections)
}

func joinSections(sections []string) string {
	var kept []string
	for _, s := range sections {
		if s != "" {
			kept = append(kept, s)
		}
	}
	return strings.Join(kept, sectionSeparator)
}

// filterBlocks selects blocks worth including: scaffolding first, then
// blocks referenced by decomposition hints, then relevance-scored matches,
// with a common-block fallback when nothing scores.
func filterBlocks(m *manifest.Manifest, userPrompt string, hints []string) []*manifest.Block {
	promptLower := strings.ToLower(userPrompt)
	words := promptWords(userPrompt)

	var selected []*manifest.Block
	seen := make(map[string]bool)

	add := func(name string) {
		if b := m.Block(name); b != nil && !seen[name] {
			seen[name] = true
			selected = append(selected, b)
		}
	}

	for _, name := range coreBlocks {
		add(name)
	}

	names := make([]string, 0, len(m.Blocks))
	for name := range m.Blocks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, hint := range hints {
		hint = strings.ToLower(hint)
		if hint == "" {
			continue
		}
		for _, name := range names {
			if seen[name] {
				continue
			}
			block := m.Blocks[name]
			short := strings.TrimPrefix(name, "acf/")
			if strings.Contains(hint, short) || strings.Contains(hint, strings.ToLower(block.Title)) {
				add(name)
			}
		}
	}

	for _, name := range names {
		if seen[name] {
			continue
		}
		if scoreBlock(m.Blocks[name], words, promptLower) > 0 {
			add(name)
		}
	}

	if len(selected) <= len(coreBlocks) {
		for _, name := range commonBlocks {
			add(name)
		}
	}

	return selected
}

func (b *Builder) blocksSection(blocks []*manifest.Block) string {
	var out strings.Builder
	out.WriteString("# AVAILABLE BLOCKS\n\n")

	for _, block := range blocks {
		fmt.Fprintf(&out, "## %s (`%s`)\n", block.Title, block.Name)

		if block.Description != "" {
			out.WriteString(block.Description + "\n")
		}

		kind := "leaf"
		if block.IsContainer {
			kind = "container (jsx)"
		}
		out.WriteString("- Type: " + kind + "\n")

		if len(block.Keywords) > 0 {
			out.WriteString("- Keywords: " + strings.Join(block.Keywords, ", ") + "\n")
		}
		if len(block.Parent) > 0 {
			out.WriteString("- Parent restriction: " + strings.Join(block.Parent, ", ") + "\n")
		}
		if block.UsageNotes != "" {
			out.WriteString("- Usage notes: " + block.UsageNotes + "\n")
		}

		// Clone fields are scaffolding the compiler seeds on its own;
		// showing them would only invite the model to fill them.
		if block.Schema.Len() > 0 {
			out.WriteString("\nField key map:\n```\n")
			for _, e := range block.Schema.Entries() {
				if e.Type == schema.TypeClone {
					continue
				}
				fmt.Fprintf(&out, "  %q => %q%s\n", e.Name, e.Key, imageAnnotation(e))
			}
			out.WriteString("```\n")
		}

		out.WriteString("\n")
	}

	return out.String()
}

func imageAnnotation(e schema.FieldEntry) string {
	switch {
	case e.Type == schema.TypeImage:
		return `  [IMAGE_FILE: integer attachment ID]`
	case e.Type == schema.TypeSelect && strings.HasSuffix(e.Name, "_image_type"):
		return `  [IMAGE_TYPE: "file" or "url"]`
	case e.Type == schema.TypeURL && strings.HasSuffix(e.Name, "_image_url"):
		return `  [IMAGE_URL: full URL string]`
	}
	return ""
}

func nestingSection(rules manifest.NestingRules) string {
	if len(rules.Containers) == 0 && len(rules.LeafBlocks) == 0 {
		return ""
	}

	var out strings.Builder
	out.WriteString("# NESTING RULES\n\n")
	out.WriteString("Container blocks (accept InnerBlocks): " + strings.Join(rules.Containers, ", ") + "\n\n")
	out.WriteString("Leaf blocks (self-closing, no children): " + strings.Join(rules.LeafBlocks, ", ") + "\n\n")

	if len(rules.ChildrenOf) > 0 {
		out.WriteString("Parent → allowed children:\n")
		parents := make([]string, 0, len(rules.ChildrenOf))
		for p := range rules.ChildrenOf {
			parents = append(parents, p)
		}
		sort.Strings(parents)
		for _, p := range parents {
			fmt.Fprintf(&out, "- `%s` → %s\n", p, strings.Join(rules.ChildrenOf[p], ", "))
		}
	}

	return out.String()
}

func postTypeSection(postType string) string {
	if postType == "" {
		return ""
	}
	return fmt.Sprintf("# POST TYPE CONTEXT\n\nCurrent post type: `%s`\n", postType)
}

func (b *Builder) layoutsSection(userPrompt string) string {
	scored := ScoreLayouts(b.manifest.Layouts, userPrompt)
	if len(scored) > 2 {
		scored = scored[:2]
	}
	if len(scored) == 0 {
		return ""
	}

	var out strings.Builder
	out.WriteString("# REFERENCE LAYOUTS\n\n")
	out.WriteString("These are existing layouts on the site. Use them as structural templates — adapt the content to match the user's request. WARNING: The field keys in these examples may be outdated. ALWAYS replace them with the correct keys from the AVAILABLE BLOCKS field key maps above.\n\n")
	out.WriteString("When the user references a layout by name, use the matching layout as the base and modify as requested.\n\n")

	for _, s := range scored {
		fmt.Fprintf(&out, "## %s (%s)\n", s.Layout.Name, s.Layout.Type)
		if s.Layout.Collection != "" {
			out.WriteString("Collection: " + s.Layout.Collection + "\n")
		}
		if s.Layout.UsageNotes != "" {
			out.WriteString("Notes: " + s.Layout.UsageNotes + "\n")
		}
		out.WriteString("```\n" + stripFieldKeys(s.Layout.Content) + "\n```\n\n")
	}

	return out.String()
}

func (b *Builder) patternsSection(userPrompt string) string {
	scored := ScorePatterns(b.manifest.Patterns, userPrompt)
	if len(scored) > 2 {
		scored = scored[:2]
	}
	if len(scored) == 0 {
		return ""
	}

	var out strings.Builder
	out.WriteString("# REFERENCE PATTERNS\n\n")
	out.WriteString("These are saved editor patterns. Use them as structural templates. WARNING: Replace all field keys with the correct keys from the AVAILABLE BLOCKS field key maps above.\n\n")
	out.WriteString("When the user references a pattern by name, use the matching pattern as the base and modify as requested.\n\n")

	for _, s := range scored {
		fmt.Fprintf(&out, "## %s\n", s.Pattern.Title)
		if len(s.Pattern.Categories) > 0 {
			out.WriteString("Categories: " + strings.Join(s.Pattern.Categories, ", ") + "\n")
		}
		if s.Pattern.UsageNotes != "" {
			out.WriteString("Notes: " + s.Pattern.UsageNotes + "\n")
		}
		out.WriteString("```\n" + stripFieldKeys(s.Pattern.Content) + "\n```\n\n")
	}

	return out.String()
}

func (b *Builder) selectedPatternsSection(refs []string) string {
	if len(refs) == 1 {
		return b.selectedPatternSection(refs[0])
	}

	var out strings.Builder
	out.WriteString("# BASE PATTERNS\n\n")
	fmt.Fprintf(&out, "The user selected %d patterns as starting points. ", len(refs))
	out.WriteString("You MUST use ALL of these patterns, combining them in the order listed. ")
	out.WriteString("Each pattern contributes a distinct section of the page. ")
	out.WriteString("Adapt the content (titles, text, etc.) according to the user's prompt, but preserve each pattern's block structure.\n\n")
	out.WriteString("IMPORTANT: All field keys in these patterns have been replaced with `" + keyPlaceholder + "`. You MUST look up the correct field keys from the AVAILABLE BLOCKS field key maps above.\n\n")
	out.WriteString("IMPORTANT: Preserve ALL image field values (image_type, image attachment IDs, image_url) EXACTLY as they appear unless the user explicitly asks to change an image.\n\n")

	n := 0
	for _, ref := range refs {
		content, title, ok := b.manifest.ResolveReferenceContent(ref)
		if !ok || content == "" {
			continue
		}
		n++

		fmt.Fprintf(&out, "## BASE PATTERN %d: %s\n\n", n, title)
		if notes := analyzeInnerBlocks(content); len(notes) > 0 {
			out.WriteString("### CONTENT LOCATION NOTES\n")
			for _, note := range notes {
				fmt.Fprintf(&out, "- **%s**: %s\n", note.Block, note.Instruction)
			}
			out.WriteString("\n")
		}
		out.WriteString("```\n" + stripFieldKeys(content) + "\n```\n\n")
	}

	return out.String()
}

func (b *Builder) selectedPatternSection(ref string) string {
	content, title, ok := b.manifest.ResolveReferenceContent(ref)
	if !ok || content == "" {
		return ""
	}

	var out strings.Builder
	fmt.Fprintf(&out, "# BASE PATTERN: %s\n\n", title)
	out.WriteString("The user selected this pattern as the starting point. You MUST use this pattern's structure as your base. Adapt the content (titles, text, etc.) according to the user's prompt, but preserve the block structure.\n\n")
	out.WriteString("IMPORTANT: All field keys in this pattern have been replaced with `" + keyPlaceholder + "`. You MUST look up the correct field keys from the AVAILABLE BLOCKS field key maps above.\n\n")
	out.WriteString("IMPORTANT: Preserve ALL image field values (image_type, image attachment IDs, image_url) EXACTLY as they appear in this pattern unless the user explicitly asks to change an image. Integer values for image fields are attachment IDs — do NOT change them.\n\n")

	if notes := analyzeInnerBlocks(content); len(notes) > 0 {
		out.WriteString("## CONTENT LOCATION NOTES\n")
		out.WriteString("The following blocks in this pattern have specific content locations. Follow these instructions carefully:\n\n")
		for _, note := range notes {
			fmt.Fprintf(&out, "- **%s**: %s\n", note.Block, note.Instruction)
		}
		out.WriteString("\n")
	}

	out.WriteString("```\n" + stripFieldKeys(content) + "\n```\n")
	return out.String()
}
