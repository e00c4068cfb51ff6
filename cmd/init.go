package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rubrical-studios/gh-gfi/internal/api"
	"github.com/rubrical-studios/gh-gfi/internal/config"
)

// initOptions holds the command-line options for init
type initOptions struct {
	timeUnit  string
	pageSize  int
	query     string
	languages []string
	force     bool
}

func newInitCommand() *cobra.Command {
	opts := &initOptions{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a .gh-gfi.yml configuration file",
		Long: `Create a .gh-gfi.yml file in the current directory.

The file records the catalog endpoint (--endpoint), the unit the endpoint
expects for the time filter, paging, and the GitHub search used by
'gh gfi search --github'. Unset values use the built-in defaults.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get current directory: %w", err)
			}
			return runInitWithDeps(cmd, opts, cwd)
		},
	}

	cmd.Flags().StringVar(&opts.timeUnit, "time-unit", "", "Unit the endpoint expects for the time filter (minutes or hours)")
	cmd.Flags().IntVar(&opts.pageSize, "page-size", 0, "Issues per page")
	cmd.Flags().StringVar(&opts.query, "query", "", "GitHub search query for --github")
	cmd.Flags().StringSliceVar(&opts.languages, "languages", nil, "Languages offered for filtering")
	cmd.Flags().BoolVar(&opts.force, "force", false, "Overwrite an existing configuration file")

	return cmd
}

// runInitWithDeps writes the configuration into dir
func runInitWithDeps(cmd *cobra.Command, opts *initOptions, dir string) error {
	path := filepath.Join(dir, config.ConfigFileName)

	if _, err := os.Stat(path); err == nil && !opts.force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to check config file: %w", err)
	}

	cfg := config.Default()
	if endpoint := flagString(cmd, "endpoint"); endpoint != "" {
		cfg.Endpoint.BaseURL = strings.TrimRight(endpoint, "/")
	}
	if opts.timeUnit != "" {
		unit, err := api.ParseEffortUnit(opts.timeUnit)
		if err != nil {
			return fmt.Errorf("invalid --time-unit value: %w", err)
		}
		cfg.Endpoint.TimeUnit = string(unit)
	}
	if opts.pageSize != 0 {
		cfg.Feed.PageSize = opts.pageSize
	}
	if opts.query != "" {
		cfg.Catalog.Query = opts.query
	}
	cfg.Languages = opts.languages

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := cfg.Save(path); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
	fmt.Fprintf(cmd.OutOrStdout(), "  endpoint:  %s\n", cfg.Endpoint.BaseURL)
	fmt.Fprintf(cmd.OutOrStdout(), "  time unit: %s\n", cfg.Endpoint.TimeUnit)
	return nil
}
