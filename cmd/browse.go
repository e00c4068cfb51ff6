package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rubrical-studios/gh-gfi/internal/api"
	"github.com/rubrical-studios/gh-gfi/internal/config"
	"github.com/rubrical-studios/gh-gfi/internal/feed"
	"github.com/rubrical-studios/gh-gfi/internal/filter"
	"github.com/rubrical-studios/gh-gfi/internal/logger"
	"github.com/rubrical-studios/gh-gfi/internal/ui"
)

// browseClient defines the catalog method used by browse.
// This allows for easier testing with mock implementations.
type browseClient interface {
	FetchPage(ctx context.Context, filters api.IssueFilters, page, size int) (*api.Page, error)
}

type browseOptions struct {
	filterFlags
	pages       int
	pageSize    int
	retries     int
	json        bool
	interactive bool
}

func newBrowseCommand() *cobra.Command {
	opts := &browseOptions{}

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse the remote issue catalog",
		Long: `Browse the paginated issue catalog.

Difficulty, language and time filters are sent to the catalog. Text and
sort are applied to each page as it arrives, so page order is preserved.

With --interactive, filters are changed one command at a time and the
catalog is queried once they have been stable for the quiet window
(feed.quiet_window, default 500ms).

Examples:
  gh gfi browse -d easy -l Go
  gh gfi browse -t 0-1 -t 1-3 --pages 3 --json
  gh gfi browse -i`,
		Aliases: []string{"b"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBrowse(cmd, opts)
		},
	}

	opts.filterFlags.register(cmd)
	cmd.Flags().IntVarP(&opts.pages, "pages", "p", 1, "Number of pages to load")
	cmd.Flags().IntVar(&opts.pageSize, "page-size", 0, "Issues per page (default from config)")
	cmd.Flags().IntVar(&opts.retries, "retries", 0, "Retry transient failures up to N times")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Output in JSON format")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "Change filters interactively")
	cmd.MarkFlagsMutuallyExclusive("json", "interactive")

	return cmd
}

func runBrowse(cmd *cobra.Command, opts *browseOptions) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log := newLogger(cmd, cfg)
	fetcher, err := newFetcher(cfg, log)
	if err != nil {
		return err
	}

	if opts.interactive {
		return runBrowseSession(cmd, opts, cfg, fetcher, log)
	}
	return runBrowseWithDeps(cmd, opts, cfg, fetcher, log)
}

// runBrowseWithDeps is the testable implementation of runBrowse
func runBrowseWithDeps(cmd *cobra.Command, opts *browseOptions, cfg *config.Config, client browseClient, log zerolog.Logger) error {
	if opts.pages < 1 {
		return fmt.Errorf("invalid --pages value: must be at least 1, got %d", opts.pages)
	}
	if opts.retries < 0 {
		return fmt.Errorf("invalid --retries value: must not be negative, got %d", opts.retries)
	}

	spec := opts.buildSpec(log)
	pageSize := resolvePageSize(opts.pageSize, cfg)
	ctx := commandContext(cmd)

	acc := feed.NewAccumulator()
	acc.Reset(spec)

	// Text and sort are local, so each page is evaluated on its own
	var shown []api.Issue
	for page := 0; page < opts.pages; page++ {
		if page > 0 && !acc.CanLoadMore() {
			break
		}

		var result *api.Page
		err := api.WithRetry(ctx, func() error {
			var fetchErr error
			result, fetchErr = client.FetchPage(ctx, spec.Filters(), page, pageSize)
			return fetchErr
		}, opts.retries, cmd.ErrOrStderr())
		if err != nil {
			return catalogError(cmd, "fetch issues", err)
		}

		if result == nil {
			break
		}
		if err := acc.AppendPage(result, spec); err != nil {
			return err
		}
		shown = append(shown, filter.EvaluateSlice(spec, result.Issues)...)
		log.Debug().Int("page", page).Int("received", len(result.Issues)).Msg("page loaded")
	}

	if opts.json {
		return outputIssuesJSON(cmd.OutOrStdout(), shown)
	}

	out := ui.DetectOutput(cmd.OutOrStdout())
	if len(shown) == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), "No issues match the current filters.")
		return nil
	}
	if err := ui.RenderIssues(out, shown, 1); err != nil {
		return fmt.Errorf("failed to render issues: %w", err)
	}

	if info, ok := acc.PageInfo(); ok && out.TTY {
		fmt.Fprintln(out.W)
		fmt.Fprintln(out.W, ui.Muted(pageSummary(len(shown), info), out.Color))
	}
	return nil
}

func resolvePageSize(flag int, cfg *config.Config) int {
	if flag > 0 {
		return min(flag, api.MaxPageSize)
	}
	if cfg != nil && cfg.Feed.PageSize > 0 {
		return cfg.Feed.PageSize
	}
	return api.DefaultPageSize
}

func pageSummary(shown int, info api.PageInfo) string {
	summary := fmt.Sprintf("Showing %d issues, page %d of %d (%d in catalog)",
		shown, info.Number+1, max(info.TotalPages, 1), info.TotalElements)
	if !info.Last {
		summary += " - use --pages to load more"
	}
	return summary
}

// runBrowseSession drives the debounced controller from line commands on stdin
func runBrowseSession(cmd *cobra.Command, opts *browseOptions, cfg *config.Config, client browseClient, log zerolog.Logger) error {
	spec := opts.buildSpec(log)
	changes := newChangeSignal()
	errs := make(chan error, 8)

	ctrlLog := logger.Named(log, "controller")
	ctrl := feed.NewController(client, feed.Options{
		PageSize:    resolvePageSize(opts.pageSize, cfg),
		QuietWindow: cfg.Feed.QuietWindow,
		Logger:      &ctrlLog,
		OnChange:    changes.notify,
		OnError: func(err error) {
			select {
			case errs <- err:
			default:
				ctrlLog.Warn().Err(err).Msg("dropping fetch error, session is not keeping up")
			}
		},
	})
	defer ctrl.Stop()

	s := newSession(ctrl, spec, ui.DetectOutput(cmd.OutOrStdout()), cmd.ErrOrStderr(), openBrowser)
	if stdinIsTerminal(cmd) {
		s.printHelp()
	}
	ctrl.Submit(spec)

	return s.run(commandContext(cmd), cmd.InOrStdin(), changes.c, errs)
}

func stdinIsTerminal(cmd *cobra.Command) bool {
	f, ok := cmd.InOrStdin().(*os.File)
	if !ok {
		return false
	}
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return stat.Mode()&os.ModeCharDevice != 0
}
