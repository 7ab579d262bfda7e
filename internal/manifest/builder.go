package manifest

import (
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/timberland/blocksmith/internal/schema"
)

// catalogFile is the on-disk block catalog format (blocks.yaml).
type catalogFile struct {
	Blocks []catalogBlock `yaml:"blocks"`
	Reference struct {
		Layouts  []catalogLayout  `yaml:"layouts"`
		Patterns []catalogPattern `yaml:"patterns"`
	} `yaml:"reference"`
}

type catalogBlock struct {
	Name        string   `yaml:"name"`
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Category    string   `yaml:"category"`
	Keywords    []string `yaml:"keywords"`
	Container   bool     `yaml:"container"`
	Parent      []string `yaml:"parent"`
	UsageNotes  string   `yaml:"usage_notes"`
}

type catalogLayout struct {
	Key        string   `yaml:"key"`
	Name       string   `yaml:"name"`
	Type       string   `yaml:"type"`
	Collection string   `yaml:"collection"`
	Keywords   []string `yaml:"keywords"`
	Content    string   `yaml:"content"`
	UsageNotes string   `yaml:"usage_notes"`
}

type catalogPattern struct {
	ID         int64    `yaml:"id"`
	Title      string   `yaml:"title"`
	Categories []string `yaml:"categories"`
	Content    string   `yaml:"content"`
	UsageNotes string   `yaml:"usage_notes"`
}

// Builder assembles manifests from field-group and catalog sources.
type Builder struct {
	version         string
	groupDirs       []string
	catalogDirs     []string
	includeLayouts  bool
	includePatterns bool
}

// NewBuilder creates a manifest builder.
func NewBuilder(version string, groupDirs, catalogDirs []string, includeLayouts, includePatterns bool) *Builder {
	return &Builder{
		version:         version,
		groupDirs:       groupDirs,
		catalogDirs:     catalogDirs,
		includeLayouts:  includeLayouts,
		includePatterns: includePatterns,
	}
}

// Build produces a fresh manifest snapshot.
func (b *Builder) Build() *Manifest {
	resolved := schema.Resolve(schema.LoadGroups(b.groupDirs))

	m := &Manifest{
		Version:     b.version,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Blocks:      make(map[string]*Block),
	}

	for _, dir := range b.catalogDirs {
		cat, ok := loadCatalog(dir)
		if !ok {
			continue
		}
		for _, cb := range cat.Blocks {
			if cb.Name == "" {
				continue
			}
			bs := resolved.Block(cb.Name)
			if bs == nil {
				bs = schema.NewBlockSchema()
			}
			m.Blocks[cb.Name] = &Block{
				Name:        cb.Name,
				Title:       cb.Title,
				Description: cb.Description,
				Category:    cb.Category,
				Keywords:    cb.Keywords,
				IsContainer: cb.Container,
				Parent:      cb.Parent,
				Schema:      bs,
				UsageNotes:  cb.UsageNotes,
			}
		}
		if b.includeLayouts {
			for _, cl := range cat.Reference.Layouts {
				m.Layouts = append(m.Layouts, Layout(cl))
			}
		}
		if b.includePatterns {
			for _, cp := range cat.Reference.Patterns {
				m.Patterns = append(m.Patterns, Pattern(cp))
			}
		}
	}

	m.Nesting = deriveNestingRules(m.Blocks)
	return m
}

func loadCatalog(dir string) (catalogFile, bool) {
	var cat catalogFile
	content, err := os.ReadFile(filepath.Join(dir, "blocks.yaml"))
	if err != nil {
		log.Debug().Err(err).Str("dir", dir).Msg("manifest: skipping catalog dir")
		return cat, false
	}
	if err := yaml.Unmarshal(content, &cat); err != nil {
		log.Debug().Err(err).Str("dir", dir).Msg("manifest: skipping malformed catalog")
		return cat, false
	}
	return cat, true
}

// deriveNestingRules splits blocks into containers and leaves and inverts
// parent restrictions into a parent→children map.
func deriveNestingRules(blocks map[string]*Block) NestingRules {
	rules := NestingRules{ChildrenOf: make(map[string][]string)}

	names := make([]string, 0, len(blocks))
	for name := range blocks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		block := blocks[name]
		if block.IsContainer {
			rules.Containers = append(rules.Containers, name)
		} else {
			rules.LeafBlocks = append(rules.LeafBlocks, name)
		}
		for _, parent := range block.Parent {
			rules.ChildrenOf[parent] = append(rules.ChildrenOf[parent], name)
		}
	}

	return rules
}
