package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMergeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "merge <primary-id> <duplicate-id>...",
		Short: "Merge duplicate contacts into a primary contact",
		Long: "Repoints the duplicates' comments to the primary, sums engagement counters, " +
			"fills the primary's empty fields and deletes the duplicates in one transaction.",
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			return withDeps(ctx, func(d *Deps) error {
				result, err := d.Merge.MergeContacts(ctx, args[0], args[1:])
				if err != nil {
					return err
				}
				if result.MergedCount == 0 {
					fmt.Fprintln(out, "Nothing to merge.")
					return nil
				}
				fmt.Fprintf(out, "Merged %d contact(s) into %s (%s)\n",
					result.MergedCount, result.Primary.ID, result.Primary.DisplayName())
				fmt.Fprintf(out, "Comments repointed: %d\n", result.ReferencesUpdated)
				fmt.Fprintf(out, "Total comments: %d, total meetings: %d\n",
					result.Primary.TotalComments, result.Primary.TotalMeetings)
				return nil
			})
		},
	}
}
