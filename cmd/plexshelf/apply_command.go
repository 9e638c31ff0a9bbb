package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"plexshelf/internal/api"
)

func newApplyCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Create Plex collections and sort titles for approved matches",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd, func(c context.Context, svc *api.Service) error {
				result, err := svc.Apply(c)
				if err != nil {
					return err
				}
				p := newPrinter(cmd, asJSON)
				if p.json {
					return p.emitJSON(result)
				}
				p.line("Applied %d collections (%d books, %d sort titles)", result.Collections, result.ItemsApplied, result.SortTitles)
				if result.SortFailures > 0 {
					p.warn("%d sort titles could not be set", result.SortFailures)
				}
				if result.MissingItems > 0 {
					p.warn("%d approved matches skipped: books no longer in the catalog", result.MissingItems)
				}
				for _, f := range result.Failures {
					p.fail("  %s: %s", f.Collection, f.Reason)
				}
				if len(result.Failures) > 0 {
					return fmt.Errorf("%d collections failed; rerun apply to retry", len(result.Failures))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}
