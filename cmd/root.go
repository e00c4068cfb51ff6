package cmd

import (
	"github.com/rubrical-studios/gh-gfi/internal/config"
	pkgversion "github.com/rubrical-studios/gh-gfi/internal/version"
	"github.com/spf13/cobra"
)

// version is set by ldflags during goreleaser builds.
// When empty (default), falls back to the source constant in internal/version.
var version = ""

func getVersion() string {
	if version != "" {
		return version
	}
	return pkgversion.Version
}

func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gh gfi",
		Short: "Find good first issues to work on",
		Long: `gh gfi helps newcomers find "good first issue" issues.

Browse a paginated issue catalog with filters for difficulty, language,
estimated time and free text, or filter a fixed set of issues locally
(from a JSON file, stdin, or a GitHub search).

Settings are read from .gh-gfi.yml in the current directory or any parent.
Run 'gh gfi init' to create one.

Use 'gh gfi <command> --help' for more information about a command.`,
		Version: getVersion(),
	}

	cmd.PersistentFlags().String("endpoint", "", "Issue catalog base URL (overrides config and "+config.EnvEndpoint+")")
	cmd.PersistentFlags().String("log-level", "", "Log level: trace, debug, info, warn, error, disabled")

	cmd.AddCommand(newBrowseCommand())
	cmd.AddCommand(newSearchCommand())
	cmd.AddCommand(newStatsCommand())
	cmd.AddCommand(newRefreshCommand())
	cmd.AddCommand(newInitCommand())

	return cmd
}

func Execute() error {
	return NewRootCommand().Execute()
}
