package filter

import (
	"cmp"
	"iter"
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"github.com/rubrical-studios/gh-gfi/internal/api"
)

// Evaluate returns the issues matching spec, in the order spec asks for.
//
// The sequence is restartable: every range over it recomputes the result
// from issues and spec, so repeated iteration yields identical output.
// With natural ordering the matches are produced lazily.
func Evaluate(spec Spec, issues []api.Issue) iter.Seq[api.Issue] {
	return func(yield func(api.Issue) bool) {
		m := newMatcher(spec)

		if spec.sort == SortNatural {
			for _, issue := range issues {
				if m.match(issue) && !yield(issue) {
					return
				}
			}
			return
		}

		var matched []api.Issue
		for _, issue := range issues {
			if m.match(issue) {
				matched = append(matched, issue)
			}
		}
		sortIssues(matched, spec.sort)
		for _, issue := range matched {
			if !yield(issue) {
				return
			}
		}
	}
}

// EvaluateSlice collects Evaluate into a new slice
func EvaluateSlice(spec Spec, issues []api.Issue) []api.Issue {
	return slices.Collect(Evaluate(spec, issues))
}

// Count returns the number of issues matching spec
func Count(spec Spec, issues []api.Issue) int {
	m := newMatcher(spec)
	n := 0
	for _, issue := range issues {
		if m.match(issue) {
			n++
		}
	}
	return n
}

// matcher holds the per-evaluation state derived from a spec.
// A cases.Caser is not safe for concurrent use, so each evaluation owns one.
type matcher struct {
	folder       cases.Caser
	query        string
	difficulties []api.Difficulty
	languages    []string
	buckets      []Bucket
}

func newMatcher(spec Spec) *matcher {
	m := &matcher{
		folder:       cases.Fold(),
		difficulties: spec.difficulties,
		buckets:      spec.buckets,
	}
	if spec.query != "" {
		m.query = m.folder.String(spec.query)
	}
	for _, lang := range spec.languages {
		m.languages = append(m.languages, m.folder.String(lang))
	}
	return m
}

func (m *matcher) match(issue api.Issue) bool {
	return m.matchText(issue) &&
		m.matchDifficulty(issue) &&
		m.matchLanguage(issue) &&
		m.matchTime(issue)
}

// matchText is a case-insensitive substring match against the title,
// project name and project owner
func (m *matcher) matchText(issue api.Issue) bool {
	if m.query == "" {
		return true
	}
	for _, field := range []string{issue.Title, issue.Repository.Name, issue.Repository.Owner} {
		if strings.Contains(m.folder.String(field), m.query) {
			return true
		}
	}
	return false
}

func (m *matcher) matchDifficulty(issue api.Issue) bool {
	if len(m.difficulties) == 0 {
		return true
	}
	return slices.Contains(m.difficulties, issue.Difficulty)
}

// matchLanguage rejects issues of unknown language once a language is selected
func (m *matcher) matchLanguage(issue api.Issue) bool {
	if len(m.languages) == 0 {
		return true
	}
	if issue.Language == "" {
		return false
	}
	return slices.Contains(m.languages, m.folder.String(issue.Language))
}

func (m *matcher) matchTime(issue api.Issue) bool {
	if len(m.buckets) == 0 {
		return true
	}
	for _, b := range m.buckets {
		if b.Contains(issue.EstimatedMinutes) {
			return true
		}
	}
	return false
}

// sortIssues sorts in place. The sort is stable so ties keep input order.
func sortIssues(issues []api.Issue, key SortKey) {
	switch key {
	case SortNewest:
		slices.SortStableFunc(issues, func(a, b api.Issue) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		})
	case SortOldest:
		slices.SortStableFunc(issues, func(a, b api.Issue) int {
			return a.CreatedAt.Compare(b.CreatedAt)
		})
	case SortDifficulty:
		slices.SortStableFunc(issues, func(a, b api.Issue) int {
			return cmp.Compare(a.Difficulty.Rank(), b.Difficulty.Rank())
		})
	case SortPopularity:
		slices.SortStableFunc(issues, func(a, b api.Issue) int {
			return cmp.Compare(len(b.Labels), len(a.Labels))
		})
	}
}
