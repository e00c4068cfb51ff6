package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rubrical-studios/gh-gfi/internal/api"
	"github.com/rubrical-studios/gh-gfi/internal/ui"
)

// statsClient defines the catalog methods used by stats
type statsClient interface {
	Stats(ctx context.Context) (*api.Stats, error)
	Languages(ctx context.Context) ([]string, error)
	Health(ctx context.Context) (string, error)
}

type statsOptions struct {
	json bool
}

// statsOutput is the JSON shape of stats --json
type statsOutput struct {
	Status                 string         `json:"status,omitempty"`
	TotalIssues            int            `json:"totalIssues"`
	LastUpdated            string         `json:"lastUpdated,omitempty"`
	Languages              []string       `json:"languages,omitempty"`
	LanguageDistribution   map[string]int `json:"languageDistribution,omitempty"`
	DifficultyDistribution map[string]int `json:"difficultyDistribution,omitempty"`
}

func newStatsCommand() *cobra.Command {
	opts := &statsOptions{}

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show catalog statistics",
		Long: `Show the issue catalog's size, last update time, health, and its
distribution of issues by language and difficulty.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.json, "json", false, "Output in JSON format")

	return cmd
}

func runStats(cmd *cobra.Command, opts *statsOptions) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log := newLogger(cmd, cfg)
	fetcher, err := newFetcher(cfg, log)
	if err != nil {
		return err
	}

	return runStatsWithDeps(cmd, opts, fetcher, log)
}

// runStatsWithDeps is the testable implementation of runStats.
// Only the stats call is required; languages and health are best effort.
func runStatsWithDeps(cmd *cobra.Command, opts *statsOptions, client statsClient, log zerolog.Logger) error {
	ctx := commandContext(cmd)

	stats, err := client.Stats(ctx)
	if err != nil {
		return catalogError(cmd, "fetch stats", err)
	}

	languages, err := client.Languages(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("could not fetch languages")
	}

	status, err := client.Health(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("could not check catalog health")
		status = "UNKNOWN"
	}

	result := statsOutput{
		Status:                 status,
		TotalIssues:            stats.TotalIssues,
		Languages:              languages,
		LanguageDistribution:   stats.LanguageDistribution,
		DifficultyDistribution: stats.DifficultyDistribution,
	}
	if !stats.LastUpdated.IsZero() {
		result.LastUpdated = stats.LastUpdated.Format(time.RFC3339)
	}

	if opts.json {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	}

	out := ui.DetectOutput(cmd.OutOrStdout())
	fmt.Fprintf(out.W, "Status:       %s\n", result.Status)
	fmt.Fprintf(out.W, "Total issues: %d\n", result.TotalIssues)
	if result.LastUpdated != "" {
		fmt.Fprintf(out.W, "Last updated: %s\n", result.LastUpdated)
	}
	if len(languages) > 0 {
		fmt.Fprintf(out.W, "Languages:    %s\n", strings.Join(languages, ", "))
	}

	if len(result.DifficultyDistribution) > 0 {
		fmt.Fprintln(out.W)
		if err := ui.RenderDistribution(out, "By difficulty", result.DifficultyDistribution); err != nil {
			return fmt.Errorf("failed to render stats: %w", err)
		}
	}
	if len(result.LanguageDistribution) > 0 {
		fmt.Fprintln(out.W)
		if err := ui.RenderDistribution(out, "By language", result.LanguageDistribution); err != nil {
			return fmt.Errorf("failed to render stats: %w", err)
		}
	}
	return nil
}
