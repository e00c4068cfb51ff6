package filter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rubrical-studios/gh-gfi/internal/api"
)

// ValidationError describes a raw selection that normalization dropped.
// It is recovered locally and never shown to the user.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("ignored %s %q: %s", e.Field, e.Value, e.Reason)
}

// Selection holds raw UI selections: toggled chips, bucket ids or minute
// bounds, a text field and a sort name.
type Selection struct {
	Difficulties []string
	Languages    []string
	Buckets      []string
	Query        string
	Sort         string
}

// New builds a Spec from raw selections. It never fails; unusable values
// are dropped.
func New(sel Selection) Spec {
	spec, _ := Normalize(sel)
	return spec
}

// Normalize builds a Spec from raw selections and reports every value it
// dropped. Duplicate selections collapse silently.
func Normalize(sel Selection) (Spec, []*ValidationError) {
	var spec Spec
	var problems []*ValidationError

	for _, raw := range splitAll(sel.Difficulties) {
		d, ok := api.ParseDifficulty(raw)
		if !ok {
			problems = append(problems, &ValidationError{Field: "difficulty", Value: raw, Reason: "unknown difficulty"})
			continue
		}
		if !containsValue(spec.difficulties, d) {
			spec.difficulties = toggle(spec.difficulties, d)
		}
	}

	for _, raw := range splitAll(sel.Languages) {
		lang, err := normalizeLanguage(raw)
		if err != nil {
			problems = append(problems, &ValidationError{Field: "language", Value: raw, Reason: err.Error()})
			continue
		}
		if !containsLanguage(spec.languages, lang) {
			spec.languages = toggleLanguage(spec.languages, lang)
		}
	}

	for _, raw := range splitAll(sel.Buckets) {
		b, ok := parseBucketOrBound(raw)
		if !ok {
			problems = append(problems, &ValidationError{Field: "time", Value: raw, Reason: "unknown time range"})
			continue
		}
		if !containsValue(spec.buckets, b) {
			spec.buckets = toggle(spec.buckets, b)
		}
	}

	spec.query = strings.TrimSpace(sel.Query)

	sort, ok := ParseSortKey(sel.Sort)
	if !ok {
		problems = append(problems, &ValidationError{Field: "sort", Value: sel.Sort, Reason: "unknown sort order"})
	}
	spec.sort = sort

	return spec, problems
}

// parseBucketOrBound accepts a bucket id or any positive minute bound,
// which selects the smallest bucket whose upper bound covers it.
func parseBucketOrBound(raw string) (Bucket, bool) {
	if b, ok := ParseBucket(raw); ok {
		return b, true
	}
	minutes, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || minutes <= 0 {
		return 0, false
	}
	for _, b := range Buckets {
		if b.Contains(minutes) {
			return b, true
		}
	}
	return 0, false
}

// splitAll expands comma-separated entries and drops blanks
func splitAll(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func containsValue[T comparable](set []T, v T) bool {
	for _, e := range set {
		if e == v {
			return true
		}
	}
	return false
}

func containsLanguage(set []string, lang string) bool {
	for _, e := range set {
		if strings.EqualFold(e, lang) {
			return true
		}
	}
	return false
}
