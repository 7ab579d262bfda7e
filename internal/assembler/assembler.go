// Package assembler compiles validated block structure trees into block
// markup. It owns every mechanical concern the structure step leaves out:
// field key companions, clone parent scaffolding, image triad
// normalization, numeric coercion, and block comment syntax.
package assembler

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/timberland/blocksmith/internal/manifest"
	"github.com/timberland/blocksmith/internal/markup"
	"github.com/timberland/blocksmith/internal/media"
	"github.com/timberland/blocksmith/internal/schema"
)

// blockAttrs is the JSON attribute object on a custom block comment.
// Field order is part of the output format.
type blockAttrs struct {
	Name         string         `json:"name"`
	Data         map[string]any `json:"data"`
	Mode         string         `json:"mode"`
	AlignText    string         `json:"alignText"`
	AlignContent string         `json:"alignContent"`
}

// Assembler compiles trees against a manifest. No model call happens here;
// compilation is a pure transformation plus optional attachment lookups.
type Assembler struct {
	manifest *manifest.Manifest
	media    media.Resolver
}

func New(m *manifest.Manifest, res media.Resolver) *Assembler {
	if res == nil {
		res = media.Nop{}
	}
	return &Assembler{manifest: m, media: res}
}

// Assemble compiles a tree into block markup. Nodes that produce no markup
// are dropped without affecting their siblings.
func (a *Assembler) Assemble(ctx context.Context, tree *Tree) (string, error) {
	if tree == nil {
		return "", nil
	}
	var parts []string
	for _, node := range tree.Blocks {
		s, err := a.assembleNode(ctx, node)
		if err != nil {
			return "", err
		}
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n"), nil
}

func (a *Assembler) assembleNode(ctx context.Context, node Node) (string, error) {
	if node.Block == "" {
		return "", nil
	}
	if strings.HasPrefix(node.Block, "core/") {
		return a.assembleCore(ctx, node)
	}
	return a.assembleCustom(ctx, node)
}

func (a *Assembler) assembleCore(ctx context.Context, node Node) (string, error) {
	typ := strings.TrimPrefix(node.Block, "core/")

	switch typ {
	case "heading":
		level := intValue(node.Level, 2)
		attrs := ""
		if level != 2 {
			enc, err := markup.EncodeJSON(map[string]any{"level": level})
			if err != nil {
				return "", err
			}
			attrs = " " + enc
		}
		return fmt.Sprintf("<!-- wp:heading%s -->\n<h%d>%s</h%d>\n<!-- /wp:heading -->",
			attrs, level, node.Content, level), nil

	case "paragraph":
		return fmt.Sprintf("<!-- wp:paragraph -->\n<p>%s</p>\n<!-- /wp:paragraph -->", node.Content), nil

	case "list":
		var items strings.Builder
		for _, item := range node.Items {
			items.WriteString("<li>" + item + "</li>")
		}
		return fmt.Sprintf("<!-- wp:list -->\n<ul>%s</ul>\n<!-- /wp:list -->", items.String()), nil

	case "button":
		url := node.URL
		if url == "" {
			url = "#"
		}
		return fmt.Sprintf("<!-- wp:button -->\n<div class=\"wp-block-button\"><a class=\"wp-block-button__link\" href=\"%s\">%s</a></div>\n<!-- /wp:button -->",
			url, node.Text), nil

	case "buttons":
		children := node.Children
		if children == nil {
			children = node.InnerBlocks
		}
		var parts []string
		for _, child := range children {
			s, err := a.assembleNode(ctx, child)
			if err != nil {
				return "", err
			}
			if s != "" {
				parts = append(parts, s)
			}
		}
		return fmt.Sprintf("<!-- wp:buttons -->\n%s\n<!-- /wp:buttons -->", strings.Join(parts, "\n\n")), nil

	case "image":
		attrs := ""
		if id := intValue(node.ID, 0); id > 0 {
			enc, err := markup.EncodeJSON(map[string]any{"id": id})
			if err != nil {
				return "", err
			}
			attrs = " " + enc
		}
		return fmt.Sprintf("<!-- wp:image%s -->\n<figure class=\"wp-block-image\"><img src=\"%s\" alt=\"%s\"/></figure>\n<!-- /wp:image -->",
			attrs, node.URL, node.Alt), nil

	default:
		return fmt.Sprintf("<!-- wp:%s -->\n%s\n<!-- /wp:%s -->", typ, node.Content, typ), nil
	}
}

func (a *Assembler) assembleCustom(ctx context.Context, node Node) (string, error) {
	block := a.manifest.Block(node.Block)
	if block == nil {
		log.Warn().Str("block", node.Block).Msg("assembler: unknown block dropped")
		return "", nil
	}

	data, err := a.buildDataObject(ctx, node.Data, block.Schema)
	if err != nil {
		return "", err
	}

	attrs := blockAttrs{
		Name:         node.Block,
		Data:         data,
		Mode:         "preview",
		AlignText:    "left",
		AlignContent: "top",
	}
	attrJSON, err := markup.EncodeJSON(attrs)
	if err != nil {
		return "", fmt.Errorf("encode block attrs for %s: %w", node.Block, err)
	}

	var inner []string
	for _, child := range node.Children {
		s, err := a.assembleNode(ctx, child)
		if err != nil {
			return "", err
		}
		if s != "" {
			inner = append(inner, s)
		}
	}
	for _, ib := range node.InnerBlocks {
		s, err := a.assembleNode(ctx, ib)
		if err != nil {
			return "", err
		}
		if s != "" {
			inner = append(inner, s)
		}
	}

	slug := strings.TrimPrefix(node.Block, "acf/")
	if block.IsContainer || len(inner) > 0 {
		return fmt.Sprintf("<!-- wp:acf/%s %s -->\n%s\n<!-- /wp:acf/%s -->",
			slug, attrJSON, strings.Join(inner, "\n\n"), slug), nil
	}
	return fmt.Sprintf("<!-- wp:acf/%s %s /-->", slug, attrJSON), nil
}

// buildDataObject produces the complete data object for a custom block:
// clone parents seeded, field values coerced, image triads normalized, and
// a key companion for every field present.
func (a *Assembler) buildDataObject(ctx context.Context, input map[string]any, bs *schema.BlockSchema) (map[string]any, error) {
	data := make(map[string]any)

	// Clone parent fields must exist even when empty or the renderer
	// refuses the whole group.
	for _, e := range bs.Entries() {
		if e.Type == schema.TypeClone {
			data[e.Name] = ""
		}
	}

	for name, value := range input {
		// Companion keys from the model are dropped; authoritative ones
		// are written below.
		if strings.HasPrefix(name, "_") {
			continue
		}
		typ, _ := bs.TypeFor(name)
		switch typ {
		case schema.TypeImage, schema.TypeNumber:
			if n, ok := numericValue(value); ok {
				data[name] = n
				continue
			}
			data[name] = value
		default:
			data[name] = value
		}
	}

	for _, group := range bs.ImageGroups() {
		a.normalizeImageGroup(ctx, data, group)
	}

	for _, e := range bs.Entries() {
		if _, ok := data[e.Name]; ok {
			data["_"+e.Name] = e.Key
		}
	}

	return data, nil
}

// normalizeImageGroup reconciles one type/file/url triad in place.
func (a *Assembler) normalizeImageGroup(ctx context.Context, data map[string]any, group schema.ImageGroup) {
	fileValue := data[group.FileField]
	urlValue := data[group.URLField]
	typeValue := data[group.TypeField]

	// The keep sentinel means the caller wants the existing image left
	// alone; emit an empty file triad so nothing downstream overwrites it.
	if fileValue == "keep" || urlValue == "keep" || typeValue == "keep" {
		data[group.TypeField] = "file"
		data[group.FileField] = ""
		data[group.URLField] = ""
		return
	}

	if s, ok := fileValue.(string); ok && s != "" && !isNumericString(s) {
		if media.IsURL(s) {
			if id, ok := a.media.Resolve(ctx, s); ok {
				data[group.FileField] = int(id)
				data[group.TypeField] = "file"
			} else {
				data[group.TypeField] = "url"
				data[group.URLField] = s
				data[group.FileField] = ""
			}
		} else {
			if id, ok := a.media.Resolve(ctx, s); ok {
				data[group.FileField] = int(id)
				data[group.TypeField] = "file"
			} else {
				data[group.FileField] = ""
			}
		}
	} else if n, ok := numericValue(fileValue); ok && n > 0 {
		data[group.FileField] = n
		if typeValue == nil || typeValue == "" {
			data[group.TypeField] = "file"
		}
	}

	// The triad must be complete in the output.
	if _, ok := data[group.TypeField]; !ok {
		data[group.TypeField] = "file"
	}
	if _, ok := data[group.FileField]; !ok {
		data[group.FileField] = ""
	}
	if _, ok := data[group.URLField]; !ok {
		data[group.URLField] = ""
	}
}

// numericValue reports whether v is a number or numeric string and returns
// it as an int.
func numericValue(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return int(f), true
		}
	}
	return 0, false
}

func isNumericString(s string) bool {
	_, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return err == nil
}
