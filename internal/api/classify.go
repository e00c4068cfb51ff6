package api

import (
	"strings"

	"github.com/rubrical-studios/gh-gfi/internal/defaults"
)

// LabelRules derive a difficulty tier and an effort estimate from issue
// labels for sources that do not provide them (GitHub search results).
type LabelRules struct {
	// Difficulty maps a lower-case label to a tier name (BEGINNER, EASY, ...)
	Difficulty map[string]string
	// Effort maps a lower-case label to an estimate in minutes
	Effort map[string]float64

	DefaultDifficulty Difficulty
	DefaultMinutes    float64
}

// DefaultLabelRules covers the labels commonly used for newcomer issues
func DefaultLabelRules() LabelRules {
	defs := defaults.MustLoad()

	rules := LabelRules{
		Difficulty:        make(map[string]string, len(defs.Difficulty)),
		Effort:            make(map[string]float64, len(defs.EffortMinutes)),
		DefaultDifficulty: DifficultyEasy,
		DefaultMinutes:    defs.DefaultEffortMinutes,
	}
	for label, tier := range defs.Difficulty {
		rules.Difficulty[strings.ToLower(label)] = tier
	}
	for label, minutes := range defs.EffortMinutes {
		rules.Effort[strings.ToLower(label)] = minutes
	}
	if d, ok := ParseDifficulty(defs.DefaultDifficulty); ok {
		rules.DefaultDifficulty = d
	}
	return rules
}

// Classify returns the hardest tier and the largest estimate any label
// maps to, falling back to the defaults when no label matches.
func (r LabelRules) Classify(labels []string) (Difficulty, float64) {
	difficulty := DifficultyUnknown
	minutes := -1.0

	for _, label := range labels {
		key := strings.ToLower(strings.TrimSpace(label))
		if name, ok := r.Difficulty[key]; ok {
			if d, ok := ParseDifficulty(name); ok && (difficulty == DifficultyUnknown || d > difficulty) {
				difficulty = d
			}
		}
		if m, ok := r.Effort[key]; ok && m > minutes {
			minutes = m
		}
	}

	if difficulty == DifficultyUnknown {
		difficulty = r.DefaultDifficulty
	}
	if minutes < 0 {
		minutes = r.DefaultMinutes
	}
	return difficulty, minutes
}
