package assembler

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/timberland/blocksmith/internal/markup"
)

// Node is one block in a structure tree. Data carries custom-block field
// values; the remaining fields are payloads for core block types.
type Node struct {
	Block       string         `json:"block"`
	Data        map[string]any `json:"data,omitempty"`
	Children    []Node         `json:"children,omitempty"`
	InnerBlocks []Node         `json:"inner_blocks,omitempty"`

	Level   any      `json:"level,omitempty"`
	Content string   `json:"content,omitempty"`
	Items   []string `json:"items,omitempty"`
	Text    string   `json:"text,omitempty"`
	URL     string   `json:"url,omitempty"`
	Alt     string   `json:"alt,omitempty"`
	ID      any      `json:"id,omitempty"`
}

// Tree is a full block structure document.
type Tree struct {
	Blocks []Node `json:"blocks"`
}

//go:embed tree_schema.json
var treeSchemaJSON string

var treeSchema = gojsonschema.NewStringLoader(treeSchemaJSON)

// ParseTree decodes and validates a structure tree from model output.
// Fences and surrounding prose are tolerated; shape violations are not.
func ParseTree(raw string) (*Tree, error) {
	s := markup.StripJSONFences(raw)
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("empty block tree")
	}

	res, err := gojsonschema.Validate(treeSchema, gojsonschema.NewStringLoader(s))
	if err != nil {
		return nil, fmt.Errorf("parse block tree: %w", err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("invalid block tree: %s", strings.Join(msgs, "; "))
	}

	var tree Tree
	if err := json.Unmarshal([]byte(s), &tree); err != nil {
		return nil, fmt.Errorf("decode block tree: %w", err)
	}
	return &tree, nil
}

// intValue coerces a loosely typed numeric payload.
func intValue(v any, def int) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i)
		}
	case string:
		var i int
		if _, err := fmt.Sscanf(n, "%d", &i); err == nil {
			return i
		}
	}
	return def
}
