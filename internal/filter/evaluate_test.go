package filter

import (
	"reflect"
	"testing"
	"time"

	"github.com/rubrical-studios/gh-gfi/internal/api"
)

var day = 24 * time.Hour

var baseTime = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

// fiveIssues is EASY, MEDIUM, BEGINNER, HARD, EASY. Issues 1 and 5 share a
// timestamp.
func fiveIssues() []api.Issue {
	return []api.Issue{
		{ID: "1", Title: "Fix typo in documentation", Repository: api.Repository{Owner: "facebook", Name: "react"},
			Difficulty: api.DifficultyEasy, EstimatedMinutes: 30, Labels: []string{"documentation", "good first issue"},
			Language: "JavaScript", CreatedAt: baseTime},
		{ID: "2", Title: "Add missing unit tests", Repository: api.Repository{Owner: "vuejs", Name: "vue"},
			Difficulty: api.DifficultyMedium, EstimatedMinutes: 120, Labels: []string{"testing"},
			Language: "TypeScript", CreatedAt: baseTime.Add(-1 * day)},
		{ID: "3", Title: "Improve error message clarity", Repository: api.Repository{Owner: "nodejs", Name: "node"},
			Difficulty: api.DifficultyBeginner, EstimatedMinutes: 60, Labels: []string{"error-handling", "good first issue", "help wanted"},
			Language: "JavaScript", CreatedAt: baseTime.Add(-2 * day)},
		{ID: "4", Title: "Implement dark mode toggle", Repository: api.Repository{Owner: "tailwindlabs", Name: "tailwindcss"},
			Difficulty: api.DifficultyHard, EstimatedMinutes: 480, Labels: []string{"feature", "ui"},
			CreatedAt: baseTime.Add(-3 * day)},
		{ID: "5", Title: "Update README", Repository: api.Repository{Owner: "webpack", Name: "webpack"},
			Difficulty: api.DifficultyEasy, EstimatedMinutes: 180, Labels: []string{"documentation", "help wanted"},
			Language: "Go", CreatedAt: baseTime},
	}
}

func ids(issues []api.Issue) []string {
	out := make([]string, 0, len(issues))
	for _, issue := range issues {
		out = append(out, issue.ID)
	}
	return out
}

func TestEvaluate_EmptySpecKeepsArrivalOrder(t *testing.T) {
	issues := fiveIssues()
	got := ids(EvaluateSlice(Spec{}, issues))
	want := []string{"1", "2", "3", "4", "5"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestEvaluate_SortByDifficultyIsStable(t *testing.T) {
	spec := Spec{}.WithSort(SortDifficulty)
	got := EvaluateSlice(spec, fiveIssues())

	var tiers []api.Difficulty
	for _, issue := range got {
		tiers = append(tiers, issue.Difficulty)
	}
	wantTiers := []api.Difficulty{
		api.DifficultyBeginner, api.DifficultyEasy, api.DifficultyEasy, api.DifficultyMedium, api.DifficultyHard,
	}
	if !reflect.DeepEqual(tiers, wantTiers) {
		t.Errorf("Expected %v, got %v", wantTiers, tiers)
	}

	// The two EASY issues keep their relative order
	if !reflect.DeepEqual(ids(got), []string{"3", "1", "5", "2", "4"}) {
		t.Errorf("Expected [3 1 5 2 4], got %v", ids(got))
	}
}

func TestEvaluate_DifficultyFilterWithNewestSort(t *testing.T) {
	spec := Spec{}.ToggleDifficulty(api.DifficultyEasy).WithSort(SortNewest)
	got := ids(EvaluateSlice(spec, fiveIssues()))
	if !reflect.DeepEqual(got, []string{"1", "5"}) {
		t.Errorf("Expected [1 5], got %v", got)
	}
}

func TestEvaluate_DateSorts(t *testing.T) {
	newest := ids(EvaluateSlice(Spec{}.WithSort(SortNewest), fiveIssues()))
	if !reflect.DeepEqual(newest, []string{"1", "5", "2", "3", "4"}) {
		t.Errorf("Expected newest [1 5 2 3 4], got %v", newest)
	}

	oldest := ids(EvaluateSlice(Spec{}.WithSort(SortOldest), fiveIssues()))
	if !reflect.DeepEqual(oldest, []string{"4", "3", "2", "1", "5"}) {
		t.Errorf("Expected oldest [4 3 2 1 5], got %v", oldest)
	}
}

func TestEvaluate_PopularitySortsByLabelCount(t *testing.T) {
	got := ids(EvaluateSlice(Spec{}.WithSort(SortPopularity), fiveIssues()))
	// 3 has three labels; 1, 4 and 5 have two; 2 has one
	if !reflect.DeepEqual(got, []string{"3", "1", "4", "5", "2"}) {
		t.Errorf("Expected [3 1 4 5 2], got %v", got)
	}
}

func TestEvaluate_TextMatchesTitleProjectAndOwner(t *testing.T) {
	tests := []struct {
		query string
		want  []string
	}{
		{"TYPO", []string{"1"}},
		{"tailwind", []string{"4"}},
		{"NodeJS", []string{"3"}},
		{"webpack", []string{"5"}},
		{"nothing matches this", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := ids(EvaluateSlice(Spec{}.WithQuery(tt.query), fiveIssues()))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestEvaluate_TextMatchUsesCaseFolding(t *testing.T) {
	issues := []api.Issue{{ID: "x", Title: "Straße renaming"}}
	got := EvaluateSlice(Spec{}.WithQuery("STRASSE"), issues)
	if len(got) != 1 {
		t.Errorf("Expected folded match, got %d results", len(got))
	}
}

func TestEvaluate_LanguageFilter(t *testing.T) {
	spec := Spec{}.ToggleLanguage("javascript").ToggleLanguage("go")
	got := ids(EvaluateSlice(spec, fiveIssues()))
	// Issue 4 has no language and is excluded
	if !reflect.DeepEqual(got, []string{"1", "3", "5"}) {
		t.Errorf("Expected [1 3 5], got %v", got)
	}
}

func TestEvaluate_TimeBucketBoundaries(t *testing.T) {
	issues := []api.Issue{
		{ID: "m0", EstimatedMinutes: 0},
		{ID: "m60", EstimatedMinutes: 60},
		{ID: "m61", EstimatedMinutes: 61},
		{ID: "m180", EstimatedMinutes: 180},
		{ID: "m181", EstimatedMinutes: 181},
		{ID: "m480", EstimatedMinutes: 480},
		{ID: "m481", EstimatedMinutes: 481},
	}

	tests := []struct {
		bucket Bucket
		want   []string
	}{
		{BucketUnderHour, []string{"m0", "m60"}},
		{BucketOneToThree, []string{"m61", "m180"}},
		{BucketThreeToEight, []string{"m181", "m480"}},
		{BucketOverEight, []string{"m481"}},
	}

	for _, tt := range tests {
		t.Run(tt.bucket.String(), func(t *testing.T) {
			got := ids(EvaluateSlice(Spec{}.ToggleBucket(tt.bucket), issues))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestEvaluate_MultipleBucketsAreUnion(t *testing.T) {
	spec := Spec{}.ToggleBucket(BucketUnderHour).ToggleBucket(BucketThreeToEight)
	got := ids(EvaluateSlice(spec, fiveIssues()))
	if !reflect.DeepEqual(got, []string{"1", "3", "4"}) {
		t.Errorf("Expected [1 3 4], got %v", got)
	}
}

func TestEvaluate_SubsetDeterministicIdempotent(t *testing.T) {
	issues := fiveIssues()
	specs := []Spec{
		{},
		Spec{}.WithSort(SortNewest),
		Spec{}.ToggleDifficulty(api.DifficultyEasy).WithSort(SortPopularity),
		Spec{}.ToggleBucket(BucketOneToThree).WithQuery("e").WithSort(SortDifficulty),
		Spec{}.ToggleLanguage("Go").WithSort(SortOldest),
	}

	known := make(map[string]bool)
	for _, issue := range issues {
		known[issue.ID] = true
	}

	for _, spec := range specs {
		t.Run(spec.Key(), func(t *testing.T) {
			seq := Evaluate(spec, issues)

			var first, second []string
			for issue := range seq {
				first = append(first, issue.ID)
			}
			for issue := range seq {
				second = append(second, issue.ID)
			}

			if !reflect.DeepEqual(first, second) {
				t.Errorf("Expected restartable sequence, got %v then %v", first, second)
			}
			if again := ids(EvaluateSlice(spec, issues)); len(first) > 0 && !reflect.DeepEqual(first, again) {
				t.Errorf("Expected deterministic output, got %v then %v", first, again)
			}
			for _, id := range first {
				if !known[id] {
					t.Errorf("Result %s is not in the input", id)
				}
			}
			if len(first) != Count(spec, issues) {
				t.Errorf("Count = %d, sequence length %d", Count(spec, issues), len(first))
			}
		})
	}
}

func TestEvaluate_DoesNotReorderInput(t *testing.T) {
	issues := fiveIssues()
	_ = EvaluateSlice(Spec{}.WithSort(SortDifficulty), issues)
	if !reflect.DeepEqual(ids(issues), []string{"1", "2", "3", "4", "5"}) {
		t.Errorf("Expected input order preserved, got %v", ids(issues))
	}
}

func TestEvaluate_EarlyBreak(t *testing.T) {
	n := 0
	for range Evaluate(Spec{}, fiveIssues()) {
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Errorf("Expected to stop after 2 items, got %d", n)
	}
}

func TestCount(t *testing.T) {
	issues := fiveIssues()
	if n := Count(Spec{}.ToggleDifficulty(api.DifficultyEasy), issues); n != 2 {
		t.Errorf("Expected 2 EASY issues, got %d", n)
	}
	if n := Count(Spec{}, issues); n != len(issues) {
		t.Errorf("Expected the empty filter to count all %d issues, got %d", len(issues), n)
	}
}
