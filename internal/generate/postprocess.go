package generate

import (
	"context"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/timberland/blocksmith/internal/manifest"
	"github.com/timberland/blocksmith/internal/markup"
	"github.com/timberland/blocksmith/internal/media"
	"github.com/timberland/blocksmith/internal/schema"
)

// repairer is the deterministic post-generation pass. It rewrites every
// custom-block JSON island in place: image triads reconciled, clone
// parents seeded, and every companion key unconditionally overwritten from
// the authoritative schema. Block structure is never touched.
type repairer struct {
	manifest *manifest.Manifest
	media    media.Resolver
	prior    priorImages

	// userWantsImage gates prior-art restoration: when the user asked for
	// imagery, an empty image field is taken as intentional replacement,
	// not model breakage.
	userWantsImage bool
}

func newRepairer(m *manifest.Manifest, res media.Resolver, prior priorImages, userPrompt string, imageryKeywords []string) *repairer {
	if res == nil {
		res = media.Nop{}
	}
	return &repairer{
		manifest:       m,
		media:          res,
		prior:          prior,
		userWantsImage: mentionsImagery(userPrompt, imageryKeywords),
	}
}

func mentionsImagery(prompt string, keywords []string) bool {
	if len(keywords) == 0 {
		return false
	}
	quoted := make([]string, len(keywords))
	for i, k := range keywords {
		quoted[i] = regexp.QuoteMeta(strings.ToLower(k))
	}
	re, err := regexp.Compile(`(?i)\b(` + strings.Join(quoted, "|") + `)\b`)
	if err != nil {
		log.Warn().Err(err).Msg("repair: bad imagery keyword set")
		return false
	}
	return re.MatchString(prompt)
}

// Repair rewrites the JSON attributes of every custom block in the markup.
// Blocks that fail to decode or are unknown to the manifest pass through
// unchanged.
func (r *repairer) Repair(ctx context.Context, raw string) string {
	return markup.CustomBlockRe.ReplaceAllStringFunc(raw, func(whole string) string {
		match := markup.CustomBlockRe.FindStringSubmatch(whole)
		if match == nil {
			return whole
		}
		slug, jsonStr, selfClosing := match[1], match[2], match[3]
		blockName := "acf/" + slug

		var attrs map[string]any
		if err := json.Unmarshal([]byte(jsonStr), &attrs); err != nil {
			return whole
		}
		data, ok := attrs["data"].(map[string]any)
		if !ok {
			return whole
		}

		block := r.manifest.Block(blockName)
		if block == nil {
			return whole
		}
		bs := block.Schema

		original := r.prior[blockName]
		for _, group := range bs.ImageGroups() {
			r.fixImageGroup(ctx, data, group, original)
		}

		for _, e := range bs.Entries() {
			if e.Type == schema.TypeClone {
				if _, ok := data[e.Name]; !ok {
					data[e.Name] = ""
				}
			}
		}

		// The model may emit keys that look valid but are stale. Always
		// replace with the authoritative ones.
		for _, e := range bs.Entries() {
			if _, ok := data[e.Name]; ok {
				data["_"+e.Name] = e.Key
			}
		}

		attrs["data"] = data
		newJSON, err := markup.EncodeJSON(attrs)
		if err != nil {
			log.Warn().Err(err).Str("block", blockName).Msg("repair: re-encode failed")
			return whole
		}
		return "<!-- wp:acf/" + slug + " " + newJSON + " " + selfClosing + "-->"
	})
}

func (r *repairer) fixImageGroup(ctx context.Context, data map[string]any, group schema.ImageGroup, original map[string]any) {
	currentType, _ := data[group.TypeField].(string)
	fileValue := data[group.FileField]
	urlValue := data[group.URLField]

	fileStr, fileIsStr := fileValue.(string)
	urlStr, urlIsStr := urlValue.(string)

	switch {
	case fileIsStr && media.IsURL(fileStr):
		if id, ok := r.media.Resolve(ctx, fileStr); ok {
			data[group.FileField] = int(id)
			data[group.TypeField] = "file"
		} else {
			data[group.TypeField] = "url"
			data[group.URLField] = fileStr
			data[group.FileField] = ""
		}

	case urlIsStr && urlStr != "" && media.IsURL(urlStr) && currentType != "url":
		data[group.TypeField] = "url"

	case isPositiveNumber(fileValue):
		n, _ := toInt(fileValue)
		data[group.FileField] = n
		if currentType != "file" {
			data[group.TypeField] = "file"
		}

	case fileIsStr && fileStr != "":
		if id, ok := r.media.Resolve(ctx, fileStr); ok {
			data[group.FileField] = int(id)
			data[group.TypeField] = "file"
		} else if original != nil && !isEmptyValue(original[group.FileField]) {
			data[group.TypeField] = originalOr(original, group.TypeField, "file")
			data[group.FileField] = original[group.FileField]
			data[group.URLField] = originalOr(original, group.URLField, "")
		} else {
			data[group.FileField] = ""
		}

	case (currentType == "file" || currentType == "") && isEmptyValue(fileValue) && isEmptyValue(urlValue):
		if !r.userWantsImage && original != nil && !isEmptyValue(original[group.FileField]) {
			data[group.TypeField] = originalOr(original, group.TypeField, "file")
			data[group.FileField] = original[group.FileField]
			data[group.URLField] = originalOr(original, group.URLField, "")
		}
	}

	if _, ok := data[group.TypeField]; !ok {
		data[group.TypeField] = originalOr(original, group.TypeField, "file")
	}
	if _, ok := data[group.FileField]; !ok {
		data[group.FileField] = originalOr(original, group.FileField, "")
	}
	if _, ok := data[group.URLField]; !ok {
		data[group.URLField] = originalOr(original, group.URLField, "")
	}
}

func originalOr(original map[string]any, key string, def any) any {
	if original != nil && !isEmptyValue(original[key]) {
		return original[key]
	}
	return def
}

func isPositiveNumber(v any) bool {
	n, ok := toInt(v)
	return ok && n > 0
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return int(f), true
		}
	}
	return 0, false
}
