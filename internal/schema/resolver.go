package schema

import (
	"strings"

	"github.com/rs/zerolog/log"
)

// maxCloneDepth bounds recursive clone/group resolution. Exceeding it yields
// an empty contribution for the offending subtree rather than failing the
// whole resolve; the truncation is logged so a configuration cycle is visible.
const maxCloneDepth = 10

// Resolver flattens raw field groups into per-block schemas.
type Resolver struct {
	groups map[string]RawGroup
	fields map[string]RawField
}

// Resolve builds the full schema from raw field-group definitions.
//
// Only groups whose title carries a recognized component prefix are loaded.
// Each group targeting a block contributes its flattened field list to that
// block's schema; a block with no matching groups simply has no entry.
func Resolve(rawGroups []RawGroup) Schema {
	r := &Resolver{
		groups: make(map[string]RawGroup),
		fields: make(map[string]RawField),
	}

	for _, group := range rawGroups {
		if !isRelevantTitle(group.Title) {
			continue
		}
		r.groups[group.Key] = group
		r.indexFields(group.Fields)
	}

	schema := make(Schema)
	for _, group := range r.groups {
		for _, blockName := range blockTargets(group) {
			bs := schema[blockName]
			if bs == nil {
				bs = NewBlockSchema()
				schema[blockName] = bs
			}
			r.flatten(group.Fields, "", 0, bs)
		}
	}

	return schema
}

// indexFields registers every field by key for individual-field clone lookups.
func (r *Resolver) indexFields(fields []RawField) {
	for _, f := range fields {
		if f.Key != "" {
			r.fields[f.Key] = f
		}
		if len(f.SubFields) > 0 {
			r.indexFields(f.SubFields)
		}
	}
}

// blockTargets extracts block names from a group's location rules.
func blockTargets(group RawGroup) []string {
	var names []string
	seen := make(map[string]bool)

	for _, ruleGroup := range group.Location {
		for _, rule := range ruleGroup {
			if rule.Param != "block" || rule.Operator != "==" || rule.Value == "" {
				continue
			}
			name := strings.ReplaceAll(rule.Value, `\/`, "/")
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}

	return names
}

// flatten walks a field list, contributing name→key and name→type entries
// under the given prefix.
func (r *Resolver) flatten(fields []RawField, prefix string, depth int, bs *BlockSchema) {
	if depth > maxCloneDepth {
		log.Warn().Str("prefix", prefix).Msg("schema: clone depth cap exceeded, truncating subtree")
		return
	}

	for _, f := range fields {
		typ := FieldType(f.Type)
		if typ.UIOnly() {
			continue
		}
		if f.Name == "" || f.Key == "" {
			continue
		}

		fullName := prefix + f.Name

		switch {
		case typ == TypeClone:
			// The clone field itself stays in the map: the renderer needs the
			// clone parent entry to reconstruct nested structures from the
			// flat prefixed names.
			bs.Add(fullName, f.Key, typ)
			r.resolveClone(f, prefix, depth, bs)
		case len(f.SubFields) > 0:
			// Group or repeater: map the parent, then descend with an
			// extended prefix.
			bs.Add(fullName, f.Key, typ)
			r.flatten(f.SubFields, fullName+"_", depth+1, bs)
		default:
			bs.Add(fullName, f.Key, typ)
		}
	}
}

// resolveClone inlines a clone field's reference set. References are either
// whole groups (group_*) or individual fields (field_*). With prefix_name
// set, cloned field names gain the clone's own name as a prefix.
func (r *Resolver) resolveClone(clone RawField, parentPrefix string, depth int, bs *BlockSchema) {
	clonePrefix := parentPrefix
	if clone.PrefixName && clone.Name != "" {
		clonePrefix += clone.Name + "_"
	}

	for _, ref := range clone.Clone {
		switch {
		case strings.HasPrefix(ref, "group_"):
			group, ok := r.groups[ref]
			if !ok || len(group.Fields) == 0 {
				continue
			}
			r.flatten(group.Fields, clonePrefix, depth+1, bs)
		case strings.HasPrefix(ref, "field_"):
			field, ok := r.fields[ref]
			if !ok || field.Name == "" {
				continue
			}
			fullName := clonePrefix + field.Name
			bs.Add(fullName, field.Key, FieldType(field.Type))
			if len(field.SubFields) > 0 {
				r.flatten(field.SubFields, fullName+"_", depth+1, bs)
			}
		}
	}
}
