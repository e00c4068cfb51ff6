// Package defaults provides the embedded label classification for gh-gfi.
package defaults

import (
	_ "embed"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed labels.yml
var labelsYAML []byte

// Labels maps issue labels to a difficulty tier and an effort estimate
type Labels struct {
	Difficulty           map[string]string  `yaml:"difficulty"`
	EffortMinutes        map[string]float64 `yaml:"effort_minutes"`
	DefaultDifficulty    string             `yaml:"default_difficulty"`
	DefaultEffortMinutes float64            `yaml:"default_effort_minutes"`
}

// Load parses and returns the embedded label table.
func Load() (*Labels, error) {
	var l Labels
	if err := yaml.Unmarshal(labelsYAML, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// MustLoad parses and returns the embedded label table, panicking on error.
func MustLoad() *Labels {
	l, err := Load()
	if err != nil {
		panic("failed to load embedded label defaults: " + err.Error())
	}
	return l
}

// DifficultyLabels returns the labels that carry a tier, sorted
func (l *Labels) DifficultyLabels() []string {
	names := make([]string, 0, len(l.Difficulty))
	for name := range l.Difficulty {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
