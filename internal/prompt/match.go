package prompt

import "github.com/timberland/blocksmith/internal/manifest"

// MatchResult holds reference content scored against a prompt.
type MatchResult struct {
	Layouts  []ScoredLayout  `json:"layouts"`
	Patterns []ScoredPattern `json:"patterns"`
}

// Match scores all reference content against a prompt. Useful for
// previewing which patterns and layouts a generation would draw on.
func Match(m *manifest.Manifest, userPrompt string) MatchResult {
	return MatchResult{
		Layouts:  ScoreLayouts(m.Layouts, userPrompt),
		Patterns: ScorePatterns(m.Patterns, userPrompt),
	}
}
