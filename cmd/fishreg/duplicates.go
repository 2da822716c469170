package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

type duplicatesFlags struct {
	minScore float64
	stats    bool
	format   string
}

func newDuplicatesCmd() *cobra.Command {
	var flags duplicatesFlags

	cmd := &cobra.Command{
		Use:   "duplicates",
		Short: "Find likely duplicate contacts",
		Long:  "Groups contacts that probably denote the same person so they can be reviewed and merged.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDuplicates(cmd, flags)
		},
	}

	cmd.Flags().Float64Var(&flags.minScore, "min-score", 0, "Minimum score between 0 and 1 (default from config)")
	cmd.Flags().BoolVar(&flags.stats, "stats", false, "Show duplicate statistics instead of clusters")
	cmd.Flags().StringVarP(&flags.format, "format", "f", "table", "Output format (table, json)")

	return cmd
}

func runDuplicates(cmd *cobra.Command, flags duplicatesFlags) error {
	if flags.format != "table" && flags.format != "json" {
		return fmt.Errorf("invalid format %q, valid formats: [table json]", flags.format)
	}
	if flags.minScore < 0 || flags.minScore > 1 {
		return fmt.Errorf("--min-score must be between 0 and 1, got %.2f", flags.minScore)
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	return withDeps(ctx, func(d *Deps) error {
		if flags.stats {
			stats, err := d.Duplicates.Statistics(ctx)
			if err != nil {
				return err
			}
			if flags.format == "json" {
				return writeJSON(out, stats)
			}
			formatStatistics(out, stats)
			return nil
		}

		report, err := d.Duplicates.FindClusters(ctx, flags.minScore)
		if err != nil {
			return err
		}
		if flags.format == "json" {
			return writeJSON(out, report)
		}
		formatClusters(out, report.Clusters)
		return nil
	})
}
