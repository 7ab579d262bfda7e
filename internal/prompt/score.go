package prompt

import (
	"regexp"
	"sort"
	"strings"

	"github.com/timberland/blocksmith/internal/manifest"
)

var (
	promptSplitRe = regexp.MustCompile(`[\s,.\-/]+`)
	nameSplitRe   = regexp.MustCompile(`[\-_]+`)
	titleSplitRe  = regexp.MustCompile(`[\s\-_]+`)

	fieldKeyRe = regexp.MustCompile(`"(_[a-z][a-z0-9_]*)"\s*:\s*"(field_[a-f0-9]+(?:_field_[a-f0-9]+)*)"`)
)

// keyPlaceholder replaces field keys in reference markup so the model is
// forced to look keys up from the block catalog instead of copying stale
// values out of examples.
const keyPlaceholder = "USE_FIELD_KEY_MAP"

var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "is": true, "are": true, "was": true,
	"were": true, "with": true, "and": true, "or": true, "for": true,
	"to": true, "in": true, "on": true, "at": true, "of": true, "that": true,
	"this": true, "it": true, "me": true, "my": true, "i": true, "we": true,
	"our": true, "make": true, "create": true, "add": true, "build": true,
	"generate": true, "page": true, "post": true,
}

func promptWords(prompt string) []string {
	var words []string
	for _, w := range promptSplitRe.Split(strings.ToLower(prompt), -1) {
		if w != "" {
			words = append(words, w)
		}
	}
	return words
}

func containsWord(words []string, w string) bool {
	for _, x := range words {
		if x == w {
			return true
		}
	}
	return false
}

// scoreBlock rates a block's relevance to a prompt. Name-part hits weigh
// most, then title words and keywords, then description overlap.
func scoreBlock(b *manifest.Block, words []string, promptLower string) int {
	score := 0

	short := strings.TrimPrefix(b.Name, "acf/")
	for _, part := range nameSplitRe.Split(short, -1) {
		if part != "" && containsWord(words, part) {
			score += 3
		}
	}

	for _, word := range titleSplitRe.Split(strings.ToLower(b.Title), -1) {
		if word != "" && containsWord(words, word) {
			score += 2
		}
	}

	for _, kw := range b.Keywords {
		if strings.Contains(promptLower, strings.ToLower(kw)) {
			score += 2
		}
	}

	if b.Description != "" && textOverlaps(promptLower, strings.ToLower(b.Description)) {
		score++
	}

	return score
}

func textOverlaps(promptLower, text string) bool {
	for _, w := range promptWords(promptLower) {
		if len(w) > 2 && !stopWords[w] && strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// ScoredLayout is a layout with its relevance score.
type ScoredLayout struct {
	Layout manifest.Layout `json:"layout"`
	Score  int             `json:"score"`
}

// ScoredPattern is a pattern with its relevance score.
type ScoredPattern struct {
	Pattern manifest.Pattern `json:"pattern"`
	Score   int              `json:"score"`
}

// ScoreLayouts rates layouts against a prompt and returns matches sorted
// by descending score.
func ScoreLayouts(layouts []manifest.Layout, userPrompt string) []ScoredLayout {
	promptLower := strings.ToLower(userPrompt)
	words := promptWords(userPrompt)

	var scored []ScoredLayout
	for _, l := range layouts {
		score := 0
		for _, kw := range l.Keywords {
			if strings.Contains(promptLower, strings.ToLower(kw)) {
				score += 2
			}
		}
		for _, w := range titleSplitRe.Split(strings.ToLower(l.Name), -1) {
			if w != "" && containsWord(words, w) {
				score += 3
			}
		}
		if score > 0 {
			scored = append(scored, ScoredLayout{Layout: l, Score: score})
		}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	return scored
}

// ScorePatterns rates patterns against a prompt by title and category.
func ScorePatterns(patterns []manifest.Pattern, userPrompt string) []ScoredPattern {
	promptLower := strings.ToLower(userPrompt)
	words := promptWords(userPrompt)

	var scored []ScoredPattern
	for _, p := range patterns {
		score := 0
		for _, w := range titleSplitRe.Split(strings.ToLower(p.Title), -1) {
			if w != "" && containsWord(words, w) {
				score += 3
			}
		}
		for _, cat := range p.Categories {
			if strings.Contains(promptLower, strings.ToLower(cat)) {
				score += 2
			}
		}
		if score > 0 {
			scored = append(scored, ScoredPattern{Pattern: p, Score: score})
		}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	return scored
}

// stripFieldKeys replaces companion key values in reference markup with a
// placeholder.
func stripFieldKeys(markup string) string {
	return fieldKeyRe.ReplaceAllString(markup, `"$1":"`+keyPlaceholder+`"`)
}
