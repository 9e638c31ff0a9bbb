package main

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"plexshelf/internal/api"
)

func newSeriesCommand(ctx *commandContext) *cobra.Command {
	seriesCmd := &cobra.Command{
		Use:   "series",
		Short: "Inspect known series",
	}
	seriesCmd.AddCommand(newSeriesListCommand(ctx))
	return seriesCmd
}

func newSeriesListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List series with member counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd, func(c context.Context, svc *api.Service) error {
				series, err := svc.ListSeries(c)
				if err != nil {
					return err
				}
				p := newPrinter(cmd, asJSON)
				if p.json {
					return p.emitJSON(series)
				}
				if len(series) == 0 {
					p.line("No series")
					return nil
				}
				rows := make([][]string, 0, len(series))
				for _, s := range series {
					rows = append(rows, []string{
						strconv.FormatInt(s.ID, 10),
						s.Name,
						truncate(s.Author, 24),
						strconv.Itoa(s.Pending),
						strconv.Itoa(s.Approved),
						strconv.Itoa(s.Applied),
					})
				}
				p.table(seriesColumns, rows)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}
