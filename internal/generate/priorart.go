package generate

import (
	"encoding/json"

	"github.com/timberland/blocksmith/internal/manifest"
	"github.com/timberland/blocksmith/internal/markup"
)

// priorImages maps block name to the image triad values a reference
// pattern carried, captured before generation so a repair pass can restore
// them if the model mangles or drops them.
type priorImages map[string]map[string]any

// extractImageData pulls image triad values out of pattern markup, keyed
// by block name. Only triads with an actual file or URL value are kept.
func extractImageData(m *manifest.Manifest, content string) priorImages {
	out := make(priorImages)

	for _, match := range markup.CustomBlockRe.FindAllStringSubmatch(content, -1) {
		blockName := "acf/" + match[1]

		var attrs struct {
			Data map[string]any `json:"data"`
		}
		if err := json.Unmarshal([]byte(match[2]), &attrs); err != nil || attrs.Data == nil {
			continue
		}

		bs := m.BlockSchema(blockName)
		groups := bs.ImageGroups()
		if len(groups) == 0 {
			continue
		}

		images := make(map[string]any)
		for _, g := range groups {
			fileVal := attrs.Data[g.FileField]
			urlVal := attrs.Data[g.URLField]
			if isEmptyValue(fileVal) && isEmptyValue(urlVal) {
				continue
			}
			images[g.TypeField] = attrs.Data[g.TypeField]
			images[g.FileField] = fileVal
			images[g.URLField] = urlVal
		}
		if len(images) == 0 {
			continue
		}

		if existing, ok := out[blockName]; ok {
			for k, v := range images {
				existing[k] = v
			}
		} else {
			out[blockName] = images
		}
	}

	return out
}

// collectPriorImages gathers image data from every selected reference.
func collectPriorImages(m *manifest.Manifest, refs []string) priorImages {
	merged := make(priorImages)
	for _, ref := range refs {
		content, _, ok := m.ResolveReferenceContent(ref)
		if !ok || content == "" {
			continue
		}
		for block, images := range extractImageData(m, content) {
			if existing, ok := merged[block]; ok {
				for k, v := range images {
					existing[k] = v
				}
			} else {
				merged[block] = images
			}
		}
	}
	return merged
}

func isEmptyValue(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case float64:
		return x == 0
	case int:
		return x == 0
	case bool:
		return !x
	}
	return false
}
