package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/rubrical-studios/gh-gfi/internal/api"
)

// mockStatsClient implements statsClient for testing
type mockStatsClient struct {
	stats     *api.Stats
	languages []string
	status    string

	// Error injection
	statsErr     error
	languagesErr error
	healthErr    error
}

func newMockStatsClient() *mockStatsClient {
	return &mockStatsClient{
		stats: &api.Stats{
			TotalIssues:            42,
			LastUpdated:            time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
			LanguageDistribution:   map[string]int{"Go": 30, "Rust": 12},
			DifficultyDistribution: map[string]int{"EASY": 25, "MEDIUM": 17},
		},
		languages: []string{"Go", "Rust"},
		status:    "UP",
	}
}

func (m *mockStatsClient) Stats(ctx context.Context) (*api.Stats, error) {
	if m.statsErr != nil {
		return nil, m.statsErr
	}
	return m.stats, nil
}

func (m *mockStatsClient) Languages(ctx context.Context) ([]string, error) {
	if m.languagesErr != nil {
		return nil, m.languagesErr
	}
	return m.languages, nil
}

func (m *mockStatsClient) Health(ctx context.Context) (string, error) {
	if m.healthErr != nil {
		return "", m.healthErr
	}
	return m.status, nil
}

func TestRunStatsWithDeps_Text(t *testing.T) {
	cmd, stdout, _ := newTestCommand()

	if err := runStatsWithDeps(cmd, &statsOptions{}, newMockStatsClient(), zerolog.Nop()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	output := stdout.String()
	for _, want := range []string{
		"Status:       UP",
		"Total issues: 42",
		"Last updated: 2024-05-01T12:00:00Z",
		"Languages:    Go, Rust",
		"By difficulty\nEASY\t25\nMEDIUM\t17",
		"By language\nGo\t30\nRust\t12",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, output)
		}
	}
}

func TestRunStatsWithDeps_JSON(t *testing.T) {
	cmd, stdout, _ := newTestCommand()

	if err := runStatsWithDeps(cmd, &statsOptions{json: true}, newMockStatsClient(), zerolog.Nop()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	var result statsOutput
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		t.Fatalf("Failed to parse JSON output: %v", err)
	}
	if result.TotalIssues != 42 || result.Status != "UP" {
		t.Errorf("Unexpected result: %+v", result)
	}
	if result.LanguageDistribution["Go"] != 30 {
		t.Errorf("Expected Go=30, got %v", result.LanguageDistribution)
	}
}

func TestRunStatsWithDeps_OptionalCallsMayFail(t *testing.T) {
	mock := newMockStatsClient()
	mock.languagesErr = errors.New("boom")
	mock.healthErr = &api.NetworkError{Operation: "check health", Err: errors.New("timeout")}

	cmd, stdout, _ := newTestCommand()
	if err := runStatsWithDeps(cmd, &statsOptions{}, mock, zerolog.Nop()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	output := stdout.String()
	if !strings.Contains(output, "Status:       UNKNOWN") {
		t.Errorf("Expected unknown status, got:\n%s", output)
	}
	if strings.Contains(output, "Languages:") {
		t.Errorf("Expected no languages line, got:\n%s", output)
	}
}

func TestRunStatsWithDeps_StatsError(t *testing.T) {
	mock := newMockStatsClient()
	mock.statsErr = &api.ServerError{Operation: "fetch stats", StatusCode: 503}

	cmd, _, _ := newTestCommand()
	err := runStatsWithDeps(cmd, &statsOptions{}, mock, zerolog.Nop())
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !api.IsServerError(err) {
		t.Errorf("Expected server error in chain, got %v", err)
	}
}
