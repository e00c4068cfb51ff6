package cmd

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rubrical-studios/gh-gfi/internal/api"
	"github.com/rubrical-studios/gh-gfi/internal/config"
	"github.com/rubrical-studios/gh-gfi/internal/filter"
	"github.com/rubrical-studios/gh-gfi/internal/ui"
)

// openBrowser is replaced in tests
var openBrowser = ui.OpenInBrowser

// searchClient defines the GitHub method used by search --github
type searchClient interface {
	SearchIssues(opts api.SearchOptions) ([]api.Issue, error)
}

type searchOptions struct {
	filterFlags
	file        string
	github      bool
	githubQuery string
	limit       int
	json        bool
	web         bool
}

func newSearchCommand() *cobra.Command {
	opts := &searchOptions{}

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Filter a fixed set of issues locally",
		Long: `Filter a fixed working set of issues in memory.

The working set is read from --file, from stdin, or from a GitHub search
(--github) using your gh credentials. Issue JSON may be an array of issue
records or a catalog page response; effort may be given in minutes or hours.

Examples:
  gh gfi search --file issues.json -d beginner -t 0-1
  curl -s localhost:8080/api/issues?size=100 | gh gfi search -l Go --sort newest
  gh gfi search --github -l Rust -q parser --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, opts)
		},
	}

	opts.filterFlags.register(cmd)
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Read issue JSON from a file (- for stdin)")
	cmd.Flags().BoolVar(&opts.github, "github", false, "Search GitHub for the working set")
	cmd.Flags().StringVar(&opts.githubQuery, "github-query", "", "GitHub search query (default from config)")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Limit number of results (0 for no limit)")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Output in JSON format")
	cmd.Flags().BoolVarP(&opts.web, "web", "w", false, "Open the GitHub search in the browser")
	cmd.MarkFlagsMutuallyExclusive("file", "github")

	return cmd
}

func runSearch(cmd *cobra.Command, opts *searchOptions) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	var client searchClient
	if opts.github {
		client = api.NewClient()
	}

	return runSearchWithDeps(cmd, opts, cfg, client, newLogger(cmd, cfg))
}

// runSearchWithDeps is the testable implementation of runSearch
func runSearchWithDeps(cmd *cobra.Command, opts *searchOptions, cfg *config.Config, client searchClient, log zerolog.Logger) error {
	if opts.limit < 0 {
		return fmt.Errorf("invalid --limit value: must not be negative, got %d", opts.limit)
	}

	spec := opts.buildSpec(log)

	if opts.web {
		return openBrowser(githubSearchURL(resolveGitHubQuery(opts, cfg), spec))
	}

	issues, err := loadWorkingSet(cmd, opts, cfg, client)
	if err != nil {
		return err
	}
	log.Debug().Int("issues", len(issues)).Str("filter", spec.Key()).Msg("working set loaded")

	total := filter.Count(spec, issues)
	matched := make([]api.Issue, 0, total)
	for issue := range filter.Evaluate(spec, issues) {
		if opts.limit > 0 && len(matched) == opts.limit {
			break
		}
		matched = append(matched, issue)
	}

	if opts.json {
		return outputIssuesJSON(cmd.OutOrStdout(), matched)
	}

	if len(matched) == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), "No issues match the current filters.")
		return nil
	}

	out := ui.DetectOutput(cmd.OutOrStdout())
	if err := ui.RenderIssues(out, matched, 1); err != nil {
		return fmt.Errorf("failed to render issues: %w", err)
	}
	if out.TTY {
		fmt.Fprintln(out.W)
		fmt.Fprintln(out.W, ui.Muted(fmt.Sprintf("%d of %d issues match (showing %d)", total, len(issues), len(matched)), out.Color))
	}
	return nil
}

// loadWorkingSet reads the issues to filter from GitHub, a file, or stdin
func loadWorkingSet(cmd *cobra.Command, opts *searchOptions, cfg *config.Config, client searchClient) ([]api.Issue, error) {
	if opts.github {
		if client == nil {
			return nil, fmt.Errorf("GitHub client not available")
		}
		issues, err := client.SearchIssues(api.SearchOptions{
			Query: resolveGitHubQuery(opts, cfg),
			Limit: cfg.Catalog.Limit,
			Rules: cfg.LabelRules(),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to search GitHub: %w", err)
		}
		return issues, nil
	}

	var data []byte
	var err error
	switch opts.file {
	case "", "-":
		if f, ok := cmd.InOrStdin().(*os.File); ok && opts.file == "" {
			if stat, statErr := f.Stat(); statErr == nil && stat.Mode()&os.ModeCharDevice != 0 {
				return nil, fmt.Errorf("no input provided - use --file, --github, or pipe issue JSON")
			}
		}
		data, err = io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
	default:
		data, err = os.ReadFile(opts.file)
		if err != nil {
			return nil, fmt.Errorf("failed to read issues file: %w", err)
		}
	}

	issues, err := api.DecodeIssues(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse issue JSON: %w", err)
	}
	return issues, nil
}

func resolveGitHubQuery(opts *searchOptions, cfg *config.Config) string {
	if q := strings.TrimSpace(opts.githubQuery); q != "" {
		return q
	}
	if cfg != nil && strings.TrimSpace(cfg.Catalog.Query) != "" {
		return cfg.Catalog.Query
	}
	return api.DefaultSearchQuery
}

// githubSearchURL builds a github.com issue search for query plus the
// spec's language and text constraints
func githubSearchURL(query string, spec filter.Spec) string {
	terms := []string{query}
	for _, lang := range spec.Languages() {
		terms = append(terms, "language:"+quoteTerm(lang))
	}
	if q := spec.Query(); q != "" {
		terms = append(terms, q)
	}

	v := url.Values{}
	v.Set("q", strings.Join(terms, " "))
	v.Set("type", "issues")
	return "https://github.com/search?" + v.Encode()
}

func quoteTerm(s string) string {
	if strings.ContainsAny(s, " \t") {
		return `"` + s + `"`
	}
	return s
}
