package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"plexshelf/internal/api"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show library, review queue, and run status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd, func(c context.Context, svc *api.Service) error {
				status, err := svc.Status(c)
				if err != nil {
					return err
				}
				p := newPrinter(cmd, asJSON)
				if p.json {
					return p.emitJSON(status)
				}
				p.section("Library")
				p.summary("Database", status.DatabasePath)
				p.summary("Items", strconv.Itoa(status.Stats.Items))
				p.summary("Series", strconv.Itoa(status.Stats.Series))
				p.summary("Collections", strconv.Itoa(status.Stats.Collections))
				p.summary("Enrichment", status.Enrichment)
				p.section("Review")
				pending := strconv.Itoa(status.Stats.Pending)
				if status.Stats.Pending > 0 {
					pending = p.paint(pending, statusColors("pending"))
				}
				p.summary("Pending", pending)
				p.summary("Approved", strconv.Itoa(status.Stats.Approved))
				p.summary("Rejected", strconv.Itoa(status.Stats.Rejected))
				p.summary("Applied", strconv.Itoa(status.Stats.Applied))
				p.section("Runs")
				if status.ActiveRun != nil {
					p.summary("Active", status.ActiveRun.RunID+" since "+status.ActiveRun.StartedAt)
				}
				if status.LastRun == nil {
					p.summary("Last run", "never")
					return nil
				}
				last := status.LastRun
				p.summary("Last run", fmt.Sprintf("%s (%s, %s)", last.ID, last.Outcome, last.StartedAt))
				if last.ErrorMessage != "" {
					p.summary("Error", p.paint(last.ErrorMessage, statusColors("rejected")))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}
