package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rubrical-studios/gh-gfi/internal/api"
	"github.com/rubrical-studios/gh-gfi/internal/config"
)

// chdir switches the working directory for the duration of the test
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func commandWithGlobalFlags() *cobra.Command {
	root := NewRootCommand()
	sub, _, _ := root.Find([]string{"stats"})
	return sub
}

func TestLoadConfig_DefaultsWithoutFile(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv(config.EnvEndpoint, "")
	t.Setenv(config.EnvLogLevel, "")

	cfg, err := loadConfig(&cobra.Command{})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if cfg.Endpoint.BaseURL != config.DefaultBaseURL {
		t.Errorf("Expected default endpoint, got %s", cfg.Endpoint.BaseURL)
	}
}

func TestLoadConfig_Precedence(t *testing.T) {
	// ARRANGE
	dir := t.TempDir()
	content := "endpoint:\n  base_url: http://file.example.com/api\nlog:\n  level: error\n"
	if err := os.WriteFile(filepath.Join(dir, config.ConfigFileName), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	chdir(t, dir)
	t.Setenv(config.EnvEndpoint, "http://env.example.com/api")
	t.Setenv(config.EnvLogLevel, "info")

	cmd := commandWithGlobalFlags()
	if err := cmd.InheritedFlags().Set("log-level", "DEBUG"); err != nil {
		t.Fatalf("Failed to set flag: %v", err)
	}

	// ACT
	cfg, err := loadConfig(cmd)

	// ASSERT
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if cfg.Endpoint.BaseURL != "http://env.example.com/api" {
		t.Errorf("Expected env endpoint to override file, got %s", cfg.Endpoint.BaseURL)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Expected flag log level to override env, got %s", cfg.Log.Level)
	}
}

func TestLoadConfig_InvalidEndpoint(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv(config.EnvEndpoint, "")

	cmd := commandWithGlobalFlags()
	if err := cmd.InheritedFlags().Set("endpoint", "ftp://catalog"); err != nil {
		t.Fatalf("Failed to set flag: %v", err)
	}

	_, err := loadConfig(cmd)
	if err == nil || !strings.Contains(err.Error(), "endpoint.base_url") {
		t.Errorf("Expected endpoint validation error, got %v", err)
	}
}

func TestFlagString_Missing(t *testing.T) {
	if got := flagString(&cobra.Command{}, "endpoint"); got != "" {
		t.Errorf("Expected empty value for missing flag, got %q", got)
	}
}

func TestFilterFlags_BuildSpecDropsInvalid(t *testing.T) {
	f := &filterFlags{
		difficulties: []string{"easy", "legendary"},
		times:        []string{"0-1", "forever"},
		sort:         "sideways",
	}

	var logs bytes.Buffer
	log := zerolog.New(&logs).Level(zerolog.DebugLevel)

	spec := f.buildSpec(log)
	if spec.Key() != "{difficulty=EASY time=0-1}" {
		t.Errorf("Unexpected spec: %s", spec.Key())
	}
	for _, want := range []string{"legendary", "forever", "sideways"} {
		if !strings.Contains(logs.String(), want) {
			t.Errorf("Expected dropped value %q to be logged, got: %s", want, logs.String())
		}
	}
}

func TestOutputIssuesJSON_EmptyIsArray(t *testing.T) {
	var buf bytes.Buffer
	if err := outputIssuesJSON(&buf, nil); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("Expected empty JSON array, got %q", buf.String())
	}
}

func TestOutputIssuesJSON_BothEffortUnits(t *testing.T) {
	var buf bytes.Buffer
	issue := testIssue("1", api.DifficultyEasy, 90, "Go", "A")
	if err := outputIssuesJSON(&buf, []api.Issue{issue}); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	var records []api.IssueRecord
	if err := json.Unmarshal(buf.Bytes(), &records); err != nil {
		t.Fatalf("Failed to parse JSON: %v", err)
	}
	if records[0].EstimatedMinutes != 90 || records[0].EstimatedHours != 1.5 {
		t.Errorf("Expected 90 minutes / 1.5 hours, got %+v", records[0])
	}
}

func TestCatalogError(t *testing.T) {
	cmd, _, stderr := newTestCommand()

	plain := catalogError(cmd, "fetch stats", errors.New("bad"))
	if plain.Error() != "failed to fetch stats: bad" || stderr.Len() != 0 {
		t.Errorf("Unexpected result: %v / %q", plain, stderr.String())
	}

	netErr := &api.NetworkError{Operation: "fetch stats", Err: errors.New("refused")}
	wrapped := catalogError(cmd, "fetch stats", netErr)
	if !errors.Is(wrapped, netErr) {
		t.Error("Expected network error to stay in the chain")
	}
	if !strings.Contains(stderr.String(), "--retries") {
		t.Errorf("Expected retry hint, got %q", stderr.String())
	}
}

func TestCatalogError_BusyServerHint(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantHint bool
	}{
		{"unavailable", 503, true},
		{"rate limited", 429, true},
		{"bad request", 400, false},
		{"internal error", 500, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, _, stderr := newTestCommand()
			_ = catalogError(cmd, "fetch issues", &api.ServerError{Operation: "fetch issues", StatusCode: tt.status})

			if got := strings.Contains(stderr.String(), "Hint:"); got != tt.wantHint {
				t.Errorf("Expected hint=%v, got %q", tt.wantHint, stderr.String())
			}
		})
	}
}
