package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// refreshClient defines the catalog method used by refresh
type refreshClient interface {
	Refresh(ctx context.Context) (string, error)
}

func newRefreshCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Ask the catalog to re-import issues from GitHub",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRefresh(cmd)
		},
	}

	return cmd
}

func runRefresh(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	fetcher, err := newFetcher(cfg, newLogger(cmd, cfg))
	if err != nil {
		return err
	}

	return runRefreshWithDeps(cmd, fetcher)
}

// runRefreshWithDeps is the testable implementation of runRefresh
func runRefreshWithDeps(cmd *cobra.Command, client refreshClient) error {
	message, err := client.Refresh(commandContext(cmd))
	if err != nil {
		return catalogError(cmd, "refresh issues", err)
	}

	if message == "" {
		message = "Refresh requested"
	}
	fmt.Fprintln(cmd.OutOrStdout(), message)
	return nil
}
