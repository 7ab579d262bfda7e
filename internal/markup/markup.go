// Package markup holds the block-comment grammar primitives shared by the
// assembler, validator, and repair pass.
package markup

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
)

// BlockOpenerRe matches any block opening comment, paired or self-closing.
var BlockOpenerRe = regexp.MustCompile(`(?s)<!-- wp:([a-z][a-z0-9-]*/)?[a-z][a-z0-9-]*[\s{]`)

// CustomBlockRe extracts custom-block JSON attribute islands. Group 1 is the
// block slug, group 2 the JSON payload, group 3 the self-closing slash (if
// any). The JSON islands are bounded and decoded independently; there is
// deliberately no recursive structural parse here.
var CustomBlockRe = regexp.MustCompile(`(?s)<!-- wp:acf/([a-z0-9-]+) (\{.*?\}) (/)?-->`)

var (
	fenceOpenRe  = regexp.MustCompile("(?im)^```(?:html|xml|php|json|plaintext)?[ \t]*\n?")
	fenceCloseRe = regexp.MustCompile("(?m)\n?```[ \t]*$")
)

// StripFences removes markdown code fences and any explanatory prose a
// model wrapped around block markup, keeping only the block comment span.
func StripFences(s string) string {
	s = fenceOpenRe.ReplaceAllString(s, "")
	s = fenceCloseRe.ReplaceAllString(s, "")

	if first := strings.Index(s, "<!-- wp:"); first > 0 {
		s = s[first:]
	}
	if last := strings.LastIndex(s, "-->"); last != -1 {
		s = s[:last+3]
	}

	return strings.TrimSpace(s)
}

// StripJSONFences removes markdown code fences from model output expected
// to contain a JSON document, then narrows to the outermost object.
func StripJSONFences(s string) string {
	s = fenceOpenRe.ReplaceAllString(s, "")
	s = fenceCloseRe.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)

	first := strings.Index(s, "{")
	last := strings.LastIndex(s, "}")
	if first != -1 && last > first {
		s = s[first : last+1]
	}
	return s
}

// EncodeJSON marshals v without HTML escaping, matching the target
// platform's attribute encoding.
func EncodeJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// CountBlocks counts block opening comments.
func CountBlocks(s string) int {
	return len(BlockOpenerRe.FindAllStringIndex(s, -1))
}
