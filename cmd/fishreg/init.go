package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ersonp/fishreg/internal/application/handlers"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a new fishreg project",
		Long:  "Creates a .fishreg directory with default configuration and the database schema.",
		RunE:  runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	result, err := handlers.NewInitHandler(openDatabase).Handle(cmd.Context(), cwd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created %s\n", result.ConfigPath)
	if result.Database != "" {
		fmt.Fprintf(out, "Created %s database: %s\n", result.Driver, result.Database)
	} else {
		fmt.Fprintf(out, "Created %s schema\n", result.Driver)
	}
	fmt.Fprintln(out, "fishreg initialized successfully!")
	return nil
}
