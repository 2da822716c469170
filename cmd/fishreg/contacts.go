package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
)

type contactsFlags struct {
	limit  int
	offset int
	format string
	output string
}

func newContactsCmd() *cobra.Command {
	var flags contactsFlags

	cmd := &cobra.Command{
		Use:   "contacts",
		Short: "List contacts",
		Long:  "Lists contacts oldest first, or exports them as JSON or CSV.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runContacts(cmd, flags)
		},
	}

	cmd.Flags().IntVarP(&flags.limit, "limit", "l", DefaultListLimit, "Maximum number of contacts (0 for all)")
	cmd.Flags().IntVar(&flags.offset, "offset", 0, "Number of contacts to skip")
	cmd.Flags().StringVarP(&flags.format, "format", "f", "table", "Output format (table, json, csv)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Output file (default: stdout)")

	cmd.AddCommand(newContactShowCmd())
	return cmd
}

func runContacts(cmd *cobra.Command, flags contactsFlags) error {
	if !contains(validFormats, flags.format) {
		return fmt.Errorf("invalid format %q, valid formats: %v", flags.format, validFormats)
	}

	ctx := cmd.Context()

	return withDeps(ctx, func(d *Deps) (err error) {
		result, err := d.Contacts.HandleList(ctx, flags.limit, flags.offset)
		if err != nil {
			return err
		}

		var w io.Writer = cmd.OutOrStdout()
		if flags.output != "" {
			f, err := os.OpenFile(flags.output, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
			if err != nil {
				return fmt.Errorf("creating file: %w", err)
			}
			defer func() {
				if cerr := f.Close(); cerr != nil && err == nil {
					err = fmt.Errorf("closing file: %w", cerr)
				}
			}()
			w = f
		}

		if flags.format == "table" && len(result.Contacts) == 0 {
			fmt.Fprintln(w, "No contacts found.")
			return nil
		}
		if err := formatContacts(w, flags.format, result.Contacts); err != nil {
			return fmt.Errorf("formatting output: %w", err)
		}
		if flags.format == "table" {
			fmt.Fprintf(w, "\nShowing %d of %d contacts\n", len(result.Contacts), result.Total)
		}
		if flags.output != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d contacts to %s\n", len(result.Contacts), flags.output)
		}
		return nil
	})
}

func newContactShowCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a contact with its comments and history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			return withDeps(ctx, func(d *Deps) error {
				detail, err := d.Contacts.HandleGet(ctx, args[0])
				if err != nil {
					return err
				}
				if format == "json" {
					return writeJSON(out, detail)
				}
				formatContactDetail(out, detail.Contact, detail.Comments, detail.History, time.Now())
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format (table, json)")
	return cmd
}
