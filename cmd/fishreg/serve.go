package main

import (
	"github.com/spf13/cobra"

	"github.com/ersonp/fishreg/internal/httpapi"
)

func newServeCmd() *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the REST API",
		Long:  "Starts the HTTP API for resolution, duplicate review and merging. Stops on SIGINT or SIGTERM.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			return withDeps(ctx, func(d *Deps) error {
				opts := httpapi.Options{
					Host:            d.Config.HTTP.Host,
					Port:            d.Config.HTTP.Port,
					ReadTimeout:     d.Config.HTTP.ReadTimeout,
					WriteTimeout:    d.Config.HTTP.WriteTimeout,
					ShutdownTimeout: d.Config.HTTP.ShutdownTimeout,
				}
				if cmd.Flags().Changed("host") {
					opts.Host = host
				}
				if cmd.Flags().Changed("port") {
					opts.Port = port
				}

				server := httpapi.NewServer(httpapi.Handlers{
					Resolution: d.Resolution,
					Duplicates: d.Duplicates,
					Merge:      d.Merge,
					Contacts:   d.Contacts,
					Reindex:    d.Reindex,
				}, d.Logger, opts)
				return server.Start(ctx)
			})
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Listen host (default from config)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Listen port (default from config)")
	return cmd
}
