package prompt

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// ContentNote tells the model where a container block keeps its visible
// content: data fields, InnerBlocks, or both.
type ContentNote struct {
	Block       string `json:"block"`
	Instruction string `json:"instruction"`
}

var containerOpenRe = regexp.MustCompile(`(?s)<!-- wp:acf/([a-z0-9-]+) (\{.*?\}) -->`)

// analyzeInnerBlocks inspects a pattern's container blocks and produces
// per-block instructions about where content lives. Hero units get
// type-specific guidance because their templates render data fields and
// InnerBlocks differently per type.
func analyzeInnerBlocks(markup string) []ContentNote {
	var notes []ContentNote

	for _, idx := range containerOpenRe.FindAllStringSubmatchIndex(markup, -1) {
		slug := markup[idx[2]:idx[3]]
		jsonStr := markup[idx[4]:idx[5]]
		openEnd := idx[1]

		closeTag := fmt.Sprintf("<!-- /wp:acf/%s -->", slug)
		closePos := strings.Index(markup[openEnd:], closeTag)
		if closePos < 0 {
			continue
		}
		inner := markup[openEnd : openEnd+closePos]

		blockName := "acf/" + slug
		hasHeading := strings.Contains(inner, "<!-- wp:heading")
		hasParagraph := strings.Contains(inner, "<!-- wp:paragraph")

		if slug == "hero-unit" {
			var attrs struct {
				Data map[string]any `json:"data"`
			}
			_ = json.Unmarshal([]byte(jsonStr), &attrs)
			heroType, _ := attrs.Data["hero_type"].(string)

			switch heroType {
			case "section":
				notes = append(notes, ContentNote{
					Block:       blockName,
					Instruction: "This hero uses type \"section\" — ALL visible text content (titles, descriptions) is rendered from InnerBlocks ONLY. Data fields like `title` and `text` are NOT displayed. To change the title or description, modify the `wp:heading` and `wp:paragraph` blocks inside this hero, NOT the data fields.",
				})
			case "feature", "jumbotron":
				if hasHeading || hasParagraph {
					notes = append(notes, ContentNote{
						Block:       blockName,
						Instruction: fmt.Sprintf("This hero uses type %q with InnerBlocks content. The data fields `title`, `subtitle`, and `text` ARE rendered by the template. The InnerBlocks content is placed in the `innerblocks_location` area. Update the data fields for the main title/description. Only modify InnerBlocks if the user specifically asks about the content in that area.", heroType),
					})
				} else {
					notes = append(notes, ContentNote{
						Block:       blockName,
						Instruction: fmt.Sprintf("This hero uses type %q. The title, subtitle, and description are rendered from data fields (`title`, `subtitle`, `text`). Modify those data fields to change the content.", heroType),
					})
				}
			}
			continue
		}

		if hasHeading || hasParagraph {
			var kinds []string
			if hasHeading {
				kinds = append(kinds, "headings")
			}
			if hasParagraph {
				kinds = append(kinds, "paragraphs")
			}
			notes = append(notes, ContentNote{
				Block:       blockName,
				Instruction: fmt.Sprintf("This block has %s in its InnerBlocks. To change text content, modify those inner blocks rather than duplicating into data fields.", strings.Join(kinds, " and ")),
			})
		}
	}

	return notes
}
