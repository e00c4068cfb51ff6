package api

import (
	"strings"
	"time"
)

// Difficulty is the ordered difficulty tier of an issue
type Difficulty int

const (
	// DifficultyUnknown is used for tiers the client does not recognize.
	// It ranks after every known tier.
	DifficultyUnknown Difficulty = iota
	DifficultyBeginner
	DifficultyEasy
	DifficultyMedium
	DifficultyHard
	DifficultyExpert
)

// Difficulties lists the known tiers in ascending order
var Difficulties = []Difficulty{
	DifficultyBeginner,
	DifficultyEasy,
	DifficultyMedium,
	DifficultyHard,
	DifficultyExpert,
}

// String returns the wire value (BEGINNER, EASY, ...)
func (d Difficulty) String() string {
	switch d {
	case DifficultyBeginner:
		return "BEGINNER"
	case DifficultyEasy:
		return "EASY"
	case DifficultyMedium:
		return "MEDIUM"
	case DifficultyHard:
		return "HARD"
	case DifficultyExpert:
		return "EXPERT"
	default:
		return "UNKNOWN"
	}
}

// Rank returns the sort position of the tier. Unknown sorts last.
func (d Difficulty) Rank() int {
	if d == DifficultyUnknown {
		return len(Difficulties) + 1
	}
	return int(d)
}

// ParseDifficulty converts a wire or user value to a Difficulty.
// The second return value is false for unrecognized input.
func ParseDifficulty(s string) (Difficulty, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BEGINNER":
		return DifficultyBeginner, true
	case "EASY":
		return DifficultyEasy, true
	case "MEDIUM":
		return DifficultyMedium, true
	case "HARD":
		return DifficultyHard, true
	case "EXPERT":
		return DifficultyExpert, true
	}
	return DifficultyUnknown, false
}

// Repository identifies the project owning an issue
type Repository struct {
	Owner string
	Name  string
}

// FullName returns "owner/name"
func (r Repository) FullName() string {
	return r.Owner + "/" + r.Name
}

// Issue is a catalog entry. Values are treated as immutable once received.
type Issue struct {
	ID               string
	GitHubID         string
	Repository       Repository
	Title            string
	Difficulty       Difficulty
	EstimatedMinutes float64 // canonical effort unit
	Labels           []string
	Language         string // primary language of the repository, may be empty
	State            string
	CreatedAt        time.Time
	FetchedAt        time.Time
	URL              string
}

// PageInfo is the pagination metadata returned with a page.
// It is only meaningful for the filter that produced it.
type PageInfo struct {
	TotalElements int
	TotalPages    int
	Number        int
	Size          int
	First         bool
	Last          bool
}

// Page is one server-returned batch of issues
type Page struct {
	Issues []Issue
	Info   PageInfo
}

// Stats summarizes the catalog
type Stats struct {
	TotalIssues            int
	LastUpdated            time.Time
	LanguageDistribution   map[string]int
	DifficultyDistribution map[string]int
}

// IssueFilters is the server-side subset of a filter specification.
// Empty fields mean "no constraint" and are not transmitted.
type IssueFilters struct {
	Difficulties []string // wire values, e.g. "EASY"
	Languages    []string
	MaxMinutes   *float64
}

// IsEmpty reports whether no constraint is set
func (f IssueFilters) IsEmpty() bool {
	return len(f.Difficulties) == 0 && len(f.Languages) == 0 && f.MaxMinutes == nil
}
