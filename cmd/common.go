package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rubrical-studios/gh-gfi/internal/api"
	"github.com/rubrical-studios/gh-gfi/internal/config"
	"github.com/rubrical-studios/gh-gfi/internal/filter"
	"github.com/rubrical-studios/gh-gfi/internal/logger"
)

// filterFlags are the selection flags shared by browse and search
type filterFlags struct {
	difficulties []string
	languages    []string
	times        []string
	query        string
	sort         string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&f.difficulties, "difficulty", "d", nil, "Filter by difficulty (beginner, easy, medium, hard, expert)")
	cmd.Flags().StringSliceVarP(&f.languages, "language", "l", nil, "Filter by repository language (e.g., Go, Python)")
	cmd.Flags().StringSliceVarP(&f.times, "time", "t", nil, "Filter by estimated time (0-1, 1-3, 3-8, 8+, or a bound in minutes)")
	cmd.Flags().StringVarP(&f.query, "query", "q", "", "Match text in the title or repository")
	cmd.Flags().StringVarP(&f.sort, "sort", "s", "", "Sort by newest, oldest, difficulty or popularity")
}

func (f *filterFlags) selection() filter.Selection {
	return filter.Selection{
		Difficulties: f.difficulties,
		Languages:    f.languages,
		Buckets:      f.times,
		Query:        f.query,
		Sort:         f.sort,
	}
}

// buildSpec normalizes the flags, logging anything that was dropped
func (f *filterFlags) buildSpec(log zerolog.Logger) filter.Spec {
	spec, problems := filter.Normalize(f.selection())
	for _, p := range problems {
		log.Debug().Str("field", p.Field).Str("value", p.Value).Msg(p.Reason)
	}
	return spec
}

// loadConfig reads .gh-gfi.yml (or defaults), then applies environment and
// flag overrides before validating
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}

	cfg, _, err := config.LoadOrDefault(cwd)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	cfg.ApplyEnvOverrides()
	if endpoint := flagString(cmd, "endpoint"); endpoint != "" {
		cfg.Endpoint.BaseURL = endpoint
	}
	if level := flagString(cmd, "log-level"); level != "" {
		cfg.Log.Level = strings.ToLower(level)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	filter.RegisterLanguages(cfg.Languages...)
	return cfg, nil
}

// flagString returns a flag value, including inherited persistent flags.
// Missing flags read as empty.
func flagString(cmd *cobra.Command, name string) string {
	if f := cmd.Flags().Lookup(name); f != nil {
		return f.Value.String()
	}
	if f := cmd.InheritedFlags().Lookup(name); f != nil {
		return f.Value.String()
	}
	return ""
}

func newLogger(cmd *cobra.Command, cfg *config.Config) zerolog.Logger {
	return logger.New(logger.Options{
		Level:     cfg.Log.Level,
		Format:    cfg.Log.Format,
		Component: cmd.Name(),
		Writer:    cmd.ErrOrStderr(),
	})
}

func newFetcher(cfg *config.Config, log zerolog.Logger) (*api.Fetcher, error) {
	fetchLog := logger.Named(log, "fetcher")
	return api.NewFetcher(cfg.Endpoint.BaseURL, api.FetcherOptions{
		Timeout:   cfg.Endpoint.Timeout,
		TimeUnit:  cfg.EffortUnit(),
		UserAgent: "gh-gfi/" + getVersion(),
		Logger:    &fetchLog,
	})
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// catalogError wraps a catalog failure. Transient failures also get a hint
// on stderr.
func catalogError(cmd *cobra.Command, action string, err error) error {
	switch {
	case api.IsNetworkError(err):
		fmt.Fprintf(cmd.ErrOrStderr(), "Hint: %s (or pass --retries)\n", api.UserMessage(err))
	case api.IsServerError(err) && api.IsRetryable(err):
		fmt.Fprintln(cmd.ErrOrStderr(), "Hint: the issue catalog is busy, try again shortly (or pass --retries)")
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}

func outputIssuesJSON(w io.Writer, issues []api.Issue) error {
	records := make([]api.IssueRecord, 0, len(issues))
	for _, issue := range issues {
		records = append(records, api.NewIssueRecord(issue))
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(records)
}
