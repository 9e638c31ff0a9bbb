package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"plexshelf/internal/api"
	"plexshelf/internal/httpapi"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the review API over HTTP until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if bind != "" {
				cfg.API.Bind = bind
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			return ctx.withService(cmd, func(c context.Context, svc *api.Service) error {
				srv, err := httpapi.New(cfg, svc, logger)
				if err != nil {
					return err
				}
				if err := srv.Start(c); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Listening on http://%s\n", srv.Addr())
				<-c.Done()
				srv.Stop()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "Override api.bind")
	return cmd
}
