package cmd

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rubrical-studios/gh-gfi/internal/api"
)

// mockRefreshClient implements refreshClient for testing
type mockRefreshClient struct {
	message string
	err     error
	calls   int
}

func (m *mockRefreshClient) Refresh(ctx context.Context) (string, error) {
	m.calls++
	return m.message, m.err
}

func TestRunRefreshWithDeps(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    string
	}{
		{"server message", "Issues refreshed successfully", "Issues refreshed successfully\n"},
		{"empty message", "", "Refresh requested\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockRefreshClient{message: tt.message}
			cmd, stdout, _ := newTestCommand()

			if err := runRefreshWithDeps(cmd, mock); err != nil {
				t.Fatalf("Expected no error, got: %v", err)
			}
			if stdout.String() != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, stdout.String())
			}
			if mock.calls != 1 {
				t.Errorf("Expected 1 call, got %d", mock.calls)
			}
		})
	}
}

func TestRunRefreshWithDeps_Error(t *testing.T) {
	mock := &mockRefreshClient{err: &api.NetworkError{Operation: "refresh issues", Err: errors.New("refused")}}
	cmd, _, stderr := newTestCommand()

	err := runRefreshWithDeps(cmd, mock)
	if err == nil || !strings.Contains(err.Error(), "failed to refresh issues") {
		t.Errorf("Expected wrapped refresh error, got %v", err)
	}
	if !strings.Contains(stderr.String(), "Hint:") {
		t.Errorf("Expected network hint, got: %s", stderr.String())
	}
}
