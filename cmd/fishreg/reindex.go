package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ersonp/fishreg/internal/domain/services"
)

func newReindexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the name index",
		Long:  "Drops the Qdrant name index and reloads every contact, organization and action name into it.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			return withDeps(ctx, func(d *Deps) error {
				stats, err := d.Reindex.Handle(ctx)
				if errors.Is(err, services.ErrNameIndexDisabled) {
					return fmt.Errorf("%w (set name_index.enabled in .fishreg/config.yaml)", err)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d contacts, %d organizations, %d actions\n",
					stats.Contacts, stats.Organizations, stats.Actions)
				return nil
			})
		},
	}
}
