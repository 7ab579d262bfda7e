package prompt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/timberland/blocksmith/internal/llm"
	"github.com/timberland/blocksmith/internal/manifest"
	"github.com/timberland/blocksmith/internal/markup"
)

// Section is one planned page section from prompt decomposition.
type Section struct {
	Intent      string         `json:"intent"`
	PatternHint string         `json:"pattern_hint"`
	PatternID   string         `json:"pattern_id"`
	Content     map[string]any `json:"content,omitempty"`
}

// Decomposition is a structured layout plan derived from a free-text prompt.
type Decomposition struct {
	Sections            []Section `json:"sections"`
	OverallIntent       string    `json:"overall_intent"`
	SuggestedPatternIDs []string  `json:"suggested_pattern_ids"`
}

// Decomposer splits free-text prompts into discrete layout sections using
// a low-cost model call, so reference patterns can be matched per section.
type Decomposer struct {
	factory llm.ClientProvider
}

func NewDecomposer(factory llm.ClientProvider) *Decomposer {
	return &Decomposer{factory: factory}
}

const decomposerRules = `Respond with ONLY valid JSON in this exact structure:
{
  "sections": [
    {
      "intent": "brief description of this section's purpose",
      "pattern_hint": "name of the closest matching pattern/layout, or empty string if none match",
      "pattern_id": "the pattern/layout ID (e.g. pattern_123 or layout_5), or empty string if none match",
      "content": {
        "title": "extracted title text if mentioned",
        "subtitle": "extracted subtitle if mentioned",
        "body": "extracted body/description text if mentioned"
      }
    }
  ],
  "overall_intent": "one-sentence summary of the full page",
  "suggested_pattern_ids": ["pattern_123", "layout_5"]
}

Rules:
- Extract as many discrete sections as the user describes
- Map each section to the closest available pattern/layout if possible
- Extract specific content values the user mentions (titles, descriptions, etc.)
- If the user doesn't specify content for a field, omit it from the content object
- Only suggest patterns that are a genuine match — do not force matches
- suggested_pattern_ids should contain every unique pattern_id from the sections array
- If the user describes structural elements like sections/rows/columns without mentioning a specific component, still create a section entry describing the structure but leave pattern_hint and pattern_id empty`

// Decompose plans a page from the user prompt. A model failure degrades to
// an empty plan rather than failing the pipeline.
func (d *Decomposer) Decompose(ctx context.Context, userPrompt string, m *manifest.Manifest) *Decomposition {
	system := fmt.Sprintf(
		"You are a layout planning assistant. Given a user's description of a web page layout, decompose it into discrete sections/components.\n\nAvailable patterns and layouts:\n%s\n\n%s",
		patternList(m), decomposerRules)

	client, err := d.factory.CheapClient()
	if err != nil {
		log.Warn().Err(err).Msg("decomposer: no client available")
		return &Decomposition{Sections: []Section{}, SuggestedPatternIDs: []string{}}
	}

	resp, err := client.Generate(ctx, system, userPrompt)
	if err != nil {
		log.Warn().Err(err).Msg("decomposer: model call failed")
		return &Decomposition{Sections: []Section{}, SuggestedPatternIDs: []string{}}
	}

	return ParseDecomposition(resp.Content)
}

// patternList renders a compact index of reference content for the planner.
func patternList(m *manifest.Manifest) string {
	var lines []string
	for _, p := range m.Patterns {
		line := fmt.Sprintf("- pattern_%d: %s", p.ID, p.Title)
		if len(p.Categories) > 0 {
			line += " [" + strings.Join(p.Categories, ", ") + "]"
		}
		lines = append(lines, line)
	}
	for i, l := range m.Layouts {
		lines = append(lines, fmt.Sprintf("- layout_%d: %s (%s)", i, l.Name, l.Type))
	}
	return strings.Join(lines, "\n")
}

// ParseDecomposition decodes a planner response defensively. Anything that
// does not parse yields an empty plan.
func ParseDecomposition(raw string) *Decomposition {
	empty := &Decomposition{Sections: []Section{}, SuggestedPatternIDs: []string{}}

	var dec Decomposition
	if err := json.Unmarshal([]byte(markup.StripJSONFences(raw)), &dec); err != nil {
		log.Debug().Err(err).Msg("decomposer: unparseable response")
		return empty
	}
	if dec.Sections == nil {
		return empty
	}

	if len(dec.SuggestedPatternIDs) == 0 {
		seen := make(map[string]bool)
		ids := []string{}
		for _, s := range dec.Sections {
			if s.PatternID != "" && !seen[s.PatternID] {
				seen[s.PatternID] = true
				ids = append(ids, s.PatternID)
			}
		}
		dec.SuggestedPatternIDs = ids
	}

	return &dec
}
