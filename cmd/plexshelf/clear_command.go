package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"plexshelf/internal/api"
)

func newClearCommand(ctx *commandContext) *cobra.Command {
	var confirmed bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the scanned catalog, series, and matches so the next scan starts fresh",
		Long: "Delete every scanned book, series, match, and collection record from the local database.\n" +
			"Run history is kept. Collections already created in Plex are not touched.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmed {
				return errors.New("clear deletes all review decisions; pass --yes to confirm")
			}
			return ctx.withService(cmd, func(c context.Context, svc *api.Service) error {
				result, err := svc.Clear(c)
				if err != nil {
					return err
				}
				p := newPrinter(cmd, asJSON)
				if p.json {
					return p.emitJSON(result)
				}
				p.line("Cleared %d books, %d series, %d matches, %d collections", result.Items, result.Series, result.Matches, result.Collections)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&confirmed, "yes", "y", false, "Confirm deleting local state")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}
