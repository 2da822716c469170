package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ersonp/fishreg/internal/application/handlers"
)

type importFlags struct {
	format    string
	sourceTag string
	verbose   bool
}

func newImportCmd() *cobra.Command {
	var flags importFlags

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import records from JSON or CSV",
		Long:  "Resolves every record in a structured file, creating contacts, organizations, actions and comments as needed.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.format, "format", "f", "auto", "File format (json, csv, auto)")
	cmd.Flags().StringVar(&flags.sourceTag, "source", "", "Source tag for records that carry none")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "Print the outcome of every record")

	return cmd
}

func runImport(cmd *cobra.Command, filePath string, flags importFlags) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	return withDeps(ctx, func(d *Deps) error {
		fmt.Fprintf(out, "Importing %s...\n", filePath)

		result, err := d.Import.Handle(ctx, filePath, handlers.ImportOptions{
			Format:    flags.format,
			SourceTag: flags.sourceTag,
		})
		if err != nil {
			return fmt.Errorf("importing file: %w", err)
		}

		if flags.verbose {
			for _, o := range result.Outcomes {
				switch {
				case o.Skipped != "":
					fmt.Fprintf(out, "  line %d: %s skipped (%s)\n", o.Line, o.Kind, o.Skipped)
				case o.Created:
					fmt.Fprintf(out, "  line %d: created %s %s\n", o.Line, o.Kind, o.EntityID)
				default:
					fmt.Fprintf(out, "  line %d: matched %s %s\n", o.Line, o.Kind, o.EntityID)
				}
			}
		}

		if len(result.Errors) > 0 {
			fmt.Fprintf(out, "\nValidation errors (%d):\n", len(result.Errors))
			for _, e := range result.Errors {
				fmt.Fprintf(out, "  %s\n", e.Error())
			}
		}

		fmt.Fprintf(out, "\nCreated: %d, matched: %d, skipped: %d", result.Created, result.Matched, result.Skipped)
		if len(result.Errors) > 0 {
			fmt.Fprintf(out, ", %d invalid", len(result.Errors))
		}
		fmt.Fprintln(out)
		return nil
	})
}
