// Package validator checks generated block markup before it is handed to
// the editor.
//
// It parses with regular expressions instead of a structural block parser.
// Structural parsers duplicate innerHTML for every node, which blows up
// memory on large generated layouts; here each custom-block JSON island is
// decoded independently and the rest of the markup is never materialized.
package validator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/timberland/blocksmith/internal/manifest"
	"github.com/timberland/blocksmith/internal/markup"
)

// Result is the outcome of a validation pass.
type Result struct {
	Valid      bool     `json:"valid"`
	Errors     []string `json:"errors"`
	Warnings   []string `json:"warnings"`
	BlockCount int      `json:"block_count"`
}

// Validator validates markup against a block manifest.
type Validator struct {
	manifest *manifest.Manifest
}

func New(m *manifest.Manifest) *Validator {
	return &Validator{manifest: m}
}

// Validate runs a full validation pass: fence stripping, block counting,
// and per-block attribute checks.
func (v *Validator) Validate(raw string) Result {
	m := markup.StripFences(raw)

	if strings.TrimSpace(m) == "" {
		return Result{
			Valid:    false,
			Errors:   []string{"Empty markup"},
			Warnings: []string{},
		}
	}

	count := markup.CountBlocks(m)
	if count == 0 {
		return Result{
			Valid:    false,
			Errors:   []string{"No valid blocks found in markup."},
			Warnings: []string{},
		}
	}

	errs, warns := v.checkBlocks(m)
	return Result{
		Valid:      len(errs) == 0,
		Errors:     errs,
		Warnings:   warns,
		BlockCount: count,
	}
}

// ValidateAttributes re-checks custom-block attributes without recounting
// blocks. Use after a repair pass, which only rewrites JSON attributes and
// leaves block structure unchanged; blockCount comes from the prior full
// validation.
func (v *Validator) ValidateAttributes(raw string, blockCount int) Result {
	m := markup.StripFences(raw)

	errs, warns := v.checkBlocks(m)
	return Result{
		Valid:      len(errs) == 0,
		Errors:     errs,
		Warnings:   warns,
		BlockCount: blockCount,
	}
}

func (v *Validator) checkBlocks(m string) (errs, warns []string) {
	errs = []string{}
	warns = []string{}

	for _, match := range markup.CustomBlockRe.FindAllStringSubmatch(m, -1) {
		name := "acf/" + match[1]

		var attrs map[string]any
		if err := json.Unmarshal([]byte(match[2]), &attrs); err != nil || len(attrs) == 0 {
			continue
		}
		v.checkBlock(name, attrs, &errs, &warns)
	}
	return errs, warns
}

func (v *Validator) checkBlock(name string, attrs map[string]any, errs, warns *[]string) {
	block := v.manifest.Block(name)
	if block == nil {
		*warns = append(*warns, fmt.Sprintf("Block `%s` not found in manifest. It may still be valid if registered.", name))
		return
	}

	data, _ := attrs["data"].(map[string]any)
	if len(data) == 0 {
		*warns = append(*warns, fmt.Sprintf("Block `%s` has no data object.", name))
		return
	}

	bs := block.Schema
	if bs == nil || bs.Len() == 0 {
		return
	}

	// Every field value must carry its underscore-prefixed key companion.
	for key := range data {
		if strings.HasPrefix(key, "_") {
			continue
		}

		companion := "_" + key
		got, ok := data[companion]
		if !ok {
			if fieldKey, known := bs.KeyFor(key); known {
				*errs = append(*errs, fmt.Sprintf("Block `%s`: field `%s` is missing its `%s` field key companion. Expected value: `%s`.", name, key, companion, fieldKey))
			} else {
				*warns = append(*warns, fmt.Sprintf("Block `%s`: field `%s` has no `%s` companion and is not in the field key map.", name, key, companion))
			}
			continue
		}

		if fieldKey, known := bs.KeyFor(key); known && got != fieldKey {
			*errs = append(*errs, fmt.Sprintf("Block `%s`: field `%s` has wrong field key `%v`. Expected `%s`.", name, key, got, fieldKey))
		}
	}
}
