// Package filter builds immutable filter specifications and evaluates them
// against in-memory issue collections.
package filter

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/rubrical-studios/gh-gfi/internal/api"
)

// SortKey selects the result ordering
type SortKey string

const (
	SortNatural    SortKey = ""
	SortNewest     SortKey = "newest"
	SortOldest     SortKey = "oldest"
	SortDifficulty SortKey = "difficulty"
	SortPopularity SortKey = "popularity"
)

// ParseSortKey accepts the sort names used on the command line.
// "natural" and the empty string both select arrival order.
func ParseSortKey(s string) (SortKey, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "natural", "none":
		return SortNatural, true
	case "newest", "created":
		return SortNewest, true
	case "oldest":
		return SortOldest, true
	case "difficulty":
		return SortDifficulty, true
	case "popularity", "popular":
		return SortPopularity, true
	}
	return SortNatural, false
}

var (
	languagesMu    sync.RWMutex
	knownLanguages = defaultLanguages
)

// defaultLanguages supplies canonical casing for common languages
var defaultLanguages = []string{
	"JavaScript",
	"TypeScript",
	"Python",
	"Java",
	"Go",
	"Rust",
	"C++",
	"Ruby",
	"PHP",
	"Swift",
}

// KnownLanguages returns the vocabulary used for canonical language casing
func KnownLanguages() []string {
	languagesMu.RLock()
	defer languagesMu.RUnlock()
	return slices.Clone(knownLanguages)
}

// RegisterLanguages adds names to the known vocabulary. Names already known
// (ignoring case) keep their existing casing.
func RegisterLanguages(names ...string) {
	languagesMu.Lock()
	defer languagesMu.Unlock()
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || strings.Contains(name, ",") {
			continue
		}
		if _, ok := lookupLanguageLocked(name); !ok {
			knownLanguages = append(slices.Clip(knownLanguages), name)
		}
	}
}

// lookupLanguage returns the canonical casing of a known language
func lookupLanguage(name string) (string, bool) {
	languagesMu.RLock()
	defer languagesMu.RUnlock()
	return lookupLanguageLocked(name)
}

func lookupLanguageLocked(name string) (string, bool) {
	for _, known := range knownLanguages {
		if strings.EqualFold(known, name) {
			return known, true
		}
	}
	return "", false
}

// Spec is an immutable description of the active query.
// The zero value matches every issue and keeps arrival order.
//
// Multi-valued fields are stored sorted and deduplicated so that two specs
// built from the same selections in a different toggle order are Equal.
type Spec struct {
	difficulties []api.Difficulty
	languages    []string
	buckets      []Bucket
	query        string
	sort         SortKey
}

// Difficulties returns the accepted tiers in ascending order
func (s Spec) Difficulties() []api.Difficulty { return slices.Clone(s.difficulties) }

// Languages returns the accepted languages in canonical form
func (s Spec) Languages() []string { return slices.Clone(s.languages) }

// Buckets returns the selected effort buckets in ascending order
func (s Spec) Buckets() []Bucket { return slices.Clone(s.buckets) }

// Query returns the free-text query, empty when absent
func (s Spec) Query() string { return s.query }

// Sort returns the sort key
func (s Spec) Sort() SortKey { return s.sort }

// HasConstraints reports whether any filter field is set
func (s Spec) HasConstraints() bool {
	return len(s.difficulties) > 0 || len(s.languages) > 0 || len(s.buckets) > 0 || s.query != ""
}

// IsEmpty reports whether the spec has no constraint and natural order
func (s Spec) IsEmpty() bool {
	return !s.HasConstraints() && s.sort == SortNatural
}

// Equal reports structural equality
func (s Spec) Equal(other Spec) bool {
	return slices.Equal(s.difficulties, other.difficulties) &&
		slices.EqualFunc(s.languages, other.languages, strings.EqualFold) &&
		slices.Equal(s.buckets, other.buckets) &&
		s.query == other.query &&
		s.sort == other.sort
}

// Key returns a canonical single-line encoding, equal for Equal specs
func (s Spec) Key() string {
	var parts []string
	if len(s.difficulties) > 0 {
		names := make([]string, 0, len(s.difficulties))
		for _, d := range s.difficulties {
			names = append(names, d.String())
		}
		parts = append(parts, "difficulty="+strings.Join(names, ","))
	}
	if len(s.languages) > 0 {
		parts = append(parts, "language="+languageKey(strings.Join(s.languages, ",")))
	}
	if len(s.buckets) > 0 {
		ids := make([]string, 0, len(s.buckets))
		for _, b := range s.buckets {
			ids = append(ids, b.String())
		}
		parts = append(parts, "time="+strings.Join(ids, ","))
	}
	if s.query != "" {
		parts = append(parts, "q="+strconv.Quote(s.query))
	}
	if s.sort != SortNatural {
		parts = append(parts, "sort="+string(s.sort))
	}
	if len(parts) == 0 {
		return "{}"
	}
	return "{" + strings.Join(parts, " ") + "}"
}

// String implements fmt.Stringer
func (s Spec) String() string { return s.Key() }

// MaxMinutes returns the largest finite upper bound among the selected
// buckets. It reports false when no bucket is selected or when the
// unbounded bucket is selected, since the bound would then exclude issues
// the user asked for.
func (s Spec) MaxMinutes() (float64, bool) {
	if len(s.buckets) == 0 {
		return 0, false
	}
	var bound float64
	for _, b := range s.buckets {
		upper, ok := b.UpperMinutes()
		if !ok {
			return 0, false
		}
		if upper > bound {
			bound = upper
		}
	}
	return bound, true
}

// Filters returns the server-side subset of the spec
func (s Spec) Filters() api.IssueFilters {
	var f api.IssueFilters
	for _, d := range s.difficulties {
		f.Difficulties = append(f.Difficulties, d.String())
	}
	f.Languages = slices.Clone(s.languages)
	if m, ok := s.MaxMinutes(); ok {
		f.MaxMinutes = &m
	}
	return f
}

// ToggleDifficulty returns a copy with d added or removed
func (s Spec) ToggleDifficulty(d api.Difficulty) Spec {
	if d == api.DifficultyUnknown {
		return s
	}
	out := s.clone()
	out.difficulties = toggle(out.difficulties, d)
	return out
}

// ToggleLanguage returns a copy with lang added or removed.
// Invalid language names leave the spec unchanged.
func (s Spec) ToggleLanguage(lang string) Spec {
	canonical, err := normalizeLanguage(lang)
	if err != nil {
		return s
	}
	out := s.clone()
	out.languages = toggleLanguage(out.languages, canonical)
	return out
}

// ToggleBucket returns a copy with b added or removed
func (s Spec) ToggleBucket(b Bucket) Spec {
	if _, ok := bucketBounds[b]; !ok {
		return s
	}
	out := s.clone()
	out.buckets = toggle(out.buckets, b)
	return out
}

// WithQuery returns a copy with the free-text query replaced
func (s Spec) WithQuery(q string) Spec {
	out := s.clone()
	out.query = strings.TrimSpace(q)
	return out
}

// WithSort returns a copy with the sort key replaced
func (s Spec) WithSort(k SortKey) Spec {
	if !validSort(k) {
		return s
	}
	out := s.clone()
	out.sort = k
	return out
}

// Cleared returns a spec with every constraint removed. The sort key is kept.
func (s Spec) Cleared() Spec {
	return Spec{sort: s.sort}
}

func (s Spec) clone() Spec {
	return Spec{
		difficulties: slices.Clone(s.difficulties),
		languages:    slices.Clone(s.languages),
		buckets:      slices.Clone(s.buckets),
		query:        s.query,
		sort:         s.sort,
	}
}

func validSort(k SortKey) bool {
	switch k {
	case SortNatural, SortNewest, SortOldest, SortDifficulty, SortPopularity:
		return true
	}
	return false
}

// toggle adds v to a sorted set or removes it, returning a sorted set
func toggle[T cmp.Ordered](set []T, v T) []T {
	i, found := slices.BinarySearch(set, v)
	if found {
		return slices.Delete(set, i, i+1)
	}
	return slices.Insert(set, i, v)
}

// languageKey orders and compares languages case-insensitively
func languageKey(lang string) string {
	return strings.ToLower(lang)
}

// toggleLanguage is toggle for language names, which compare without case
func toggleLanguage(set []string, lang string) []string {
	key := languageKey(lang)
	i, found := slices.BinarySearchFunc(set, key, func(e, k string) int {
		return strings.Compare(languageKey(e), k)
	})
	if found {
		return slices.Delete(set, i, i+1)
	}
	return slices.Insert(set, i, lang)
}

// normalizeLanguage trims, rejects names that cannot be sent as one element
// of a comma-joined list, and applies canonical casing for known languages.
func normalizeLanguage(lang string) (string, error) {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return "", fmt.Errorf("empty language")
	}
	if strings.Contains(lang, ",") {
		return "", fmt.Errorf("language must not contain a comma")
	}
	if known, ok := lookupLanguage(lang); ok {
		return known, nil
	}
	return lang, nil
}
