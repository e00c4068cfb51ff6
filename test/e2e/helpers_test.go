//go:build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

// CommandResult holds the result of running a command
type CommandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// runGFI executes the local binary with the given arguments.
// The command runs in workDir with GH_GFI_ENDPOINT pointing at endpoint
// (when set) and stdin as its standard input.
func runGFI(t *testing.T, workDir, endpoint, stdin string, args ...string) *CommandResult {
	t.Helper()

	cmd := exec.Command(binaryPath, args...)
	cmd.Dir = workDir
	cmd.Env = append(os.Environ(), "GH_GFI_LOG_LEVEL=disabled")
	if endpoint != "" {
		cmd.Env = append(cmd.Env, "GH_GFI_ENDPOINT="+endpoint)
	}
	cmd.Stdin = strings.NewReader(stdin)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	result := &CommandResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: 0,
	}

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = 1
		}
		// Log stderr on command failure for debugging
		if result.Stderr != "" {
			t.Logf("Command stderr: %s", result.Stderr)
		}
	}

	return result
}

// assertContains checks that the output contains the expected substring.
// Fails the test if the substring is not found.
func assertContains(t *testing.T, output, expected string) {
	t.Helper()

	if !strings.Contains(output, expected) {
		t.Errorf("Expected output to contain %q\nGot: %s", expected, output)
	}
}

// assertNotContains checks that the output does not contain the substring.
// Fails the test if the substring is found.
func assertNotContains(t *testing.T, output, notExpected string) {
	t.Helper()

	if strings.Contains(output, notExpected) {
		t.Errorf("Expected output to NOT contain %q\nGot: %s", notExpected, output)
	}
}

// assertExitCode checks that the command result has the expected exit code.
func assertExitCode(t *testing.T, result *CommandResult, expected int) {
	t.Helper()

	if result.ExitCode != expected {
		t.Errorf("Expected exit code %d, got %d\nStdout: %s\nStderr: %s",
			expected, result.ExitCode, result.Stdout, result.Stderr)
	}
}

// catalogIssue is the wire shape served by the fake catalog
type catalogIssue struct {
	ID               int      `json:"id"`
	ProjectOwner     string   `json:"projectOwner"`
	ProjectName      string   `json:"projectName"`
	Title            string   `json:"title"`
	HTMLURL          string   `json:"htmlUrl"`
	Difficulty       string   `json:"difficulty"`
	EstimatedMinutes float64  `json:"estimatedMinutes"`
	Labels           []string `json:"labels"`
	Language         string   `json:"language"`
	CreatedAt        string   `json:"createdAt"`
}

// fakeCatalog is a chi router serving a fixed issue list with the catalog's
// paging and difficulty filtering
type fakeCatalog struct {
	issues []catalogIssue
}

func newCatalogIssue(id int, difficulty, language string, minutes float64) catalogIssue {
	name := "project-" + strconv.Itoa(id)
	return catalogIssue{
		ID:               id,
		ProjectOwner:     "e2e",
		ProjectName:      name,
		Title:            "[E2E] issue " + strconv.Itoa(id),
		HTMLURL:          "https://github.com/e2e/" + name + "/issues/" + strconv.Itoa(id),
		Difficulty:       difficulty,
		EstimatedMinutes: minutes,
		Labels:           []string{"good first issue"},
		Language:         language,
		CreatedAt:        "2024-01-0" + strconv.Itoa(id%9+1) + "T00:00:00Z",
	}
}

// startCatalog serves the fake catalog until the test ends and returns its
// base URL (ending in /api)
func startCatalog(t *testing.T, issues []catalogIssue) string {
	t.Helper()

	c := &fakeCatalog{issues: issues}
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Get("/issues", c.listIssues)
		r.Get("/issues/stats", c.stats)
		r.Post("/issues/refresh", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"message": "Issues refreshed successfully"})
		})
		r.Get("/languages", c.languages)
		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "UP"})
		})
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv.URL + "/api"
}

func (c *fakeCatalog) listIssues(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("size"))
	if size <= 0 {
		size = 20
	}

	var wanted []string
	if d := q.Get("difficulty"); d != "" {
		wanted = strings.Split(d, ",")
	}

	var matched []catalogIssue
	for _, issue := range c.issues {
		if len(wanted) == 0 || contains(wanted, issue.Difficulty) {
			matched = append(matched, issue)
		}
	}

	start := min(page*size, len(matched))
	end := min(start+size, len(matched))
	totalPages := (len(matched) + size - 1) / size

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"content":       matched[start:end],
		"totalElements": len(matched),
		"totalPages":    totalPages,
		"number":        page,
		"size":          size,
		"first":         page == 0,
		"last":          page >= totalPages-1,
	})
}

func (c *fakeCatalog) stats(w http.ResponseWriter, _ *http.Request) {
	byLanguage := map[string]int{}
	byDifficulty := map[string]int{}
	for _, issue := range c.issues {
		byLanguage[issue.Language]++
		byDifficulty[issue.Difficulty]++
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"totalIssues":            len(c.issues),
		"lastUpdated":            "2024-06-01T10:00:00",
		"languageDistribution":   byLanguage,
		"difficultyDistribution": byDifficulty,
	})
}

func (c *fakeCatalog) languages(w http.ResponseWriter, _ *http.Request) {
	seen := map[string]bool{}
	var langs []string
	for _, issue := range c.issues {
		if !seen[issue.Language] {
			seen[issue.Language] = true
			langs = append(langs, issue.Language)
		}
	}
	writeJSON(w, http.StatusOK, langs)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
