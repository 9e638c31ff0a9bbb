package main

import (
	"context"

	"github.com/spf13/cobra"

	"plexshelf/internal/api"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Read the Plex audiobook library into the local catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd, func(c context.Context, svc *api.Service) error {
				result, err := svc.Scan(c)
				if err != nil {
					return err
				}
				p := newPrinter(cmd, asJSON)
				if p.json {
					return p.emitJSON(result)
				}
				p.line("Scanned %d audiobooks", result.Items)
				for _, rej := range result.Rejected {
					p.line("  skipped %s: %s", rej.ItemID, rej.Reason)
				}
				for _, warning := range result.Warnings {
					p.warn("  warning: %s", warning)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}
