package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"plexshelf/internal/api"
)

func newMatchCommand(ctx *commandContext) *cobra.Command {
	var opts api.MatchOptions
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Run series matching over the scanned catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd, func(c context.Context, svc *api.Service) error {
				summary, err := svc.RunMatching(c, opts)
				if err != nil {
					return err
				}
				p := newPrinter(cmd, asJSON)
				if p.json {
					return p.emitJSON(summary)
				}
				p.line("Run %s matched %d items", summary.RunID, summary.Items)
				rows := [][]string{
					{"Candidates", strconv.Itoa(summary.Candidates)},
					{"Created", strconv.Itoa(summary.Created)},
					{"Updated", strconv.Itoa(summary.Updated)},
					{"Auto-approved", strconv.Itoa(summary.AutoApproved)},
					{"Below threshold", strconv.Itoa(summary.BelowThreshold)},
					{"Unmatched", strconv.Itoa(summary.Unmatched)},
					{"Skipped", strconv.Itoa(summary.Skipped)},
					{"Enrichment calls", strconv.Itoa(summary.EnrichmentCalls)},
				}
				p.table([]column{{title: "Result"}, {title: "Count", right: true}}, rows)
				for _, f := range summary.Failures {
					p.fail("  %s %s: %s", f.Kind, f.ItemID, f.Reason)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&opts.DisableFuzzy, "no-fuzzy", false, "Skip fuzzy title clustering")
	cmd.Flags().BoolVar(&opts.DisableEnrichment, "no-enrichment", false, "Skip external series lookups")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newMatchesCommand(ctx *commandContext) *cobra.Command {
	matchesCmd := &cobra.Command{
		Use:   "matches",
		Short: "Review proposed series matches",
	}

	matchesCmd.AddCommand(newMatchesListCommand(ctx))
	matchesCmd.AddCommand(newMatchTransitionCommand(ctx, "approve", "Approve matches", (*api.Service).Approve))
	matchesCmd.AddCommand(newMatchTransitionCommand(ctx, "reject", "Reject matches", (*api.Service).Reject))
	matchesCmd.AddCommand(newMatchTransitionCommand(ctx, "reopen", "Return matches to pending review", (*api.Service).Reopen))
	matchesCmd.AddCommand(newMatchBulkCommand(ctx, "approve-all", "Approve every pending match", (*api.Service).ApproveAll))
	matchesCmd.AddCommand(newMatchBulkCommand(ctx, "reject-all", "Reject every pending match", (*api.Service).RejectAll))

	return matchesCmd
}

func newMatchesListCommand(ctx *commandContext) *cobra.Command {
	var status string
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List matches, optionally filtered by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd, func(c context.Context, svc *api.Service) error {
				matches, err := svc.ListMatches(c, strings.TrimSpace(status))
				if err != nil {
					return err
				}
				p := newPrinter(cmd, asJSON)
				if p.json {
					return p.emitJSON(matches)
				}
				if len(matches) == 0 {
					p.line("No matches")
					return nil
				}
				p.table(matchColumns, matchRows(matches))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&status, "status", "s", "", "Filter by status (pending, approved, rejected)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

type transitionFunc func(*api.Service, context.Context, int64) (api.Match, error)

func newMatchTransitionCommand(ctx *commandContext, use, short string, fn transitionFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseMatchIDs(args)
			if err != nil {
				return err
			}
			return ctx.withService(cmd, func(c context.Context, svc *api.Service) error {
				p := newPrinter(cmd, false)
				var errs []error
				for _, id := range ids {
					match, err := fn(svc, c, id)
					if err != nil {
						p.fail("Match %d: %v", id, err)
						errs = append(errs, err)
						continue
					}
					p.line("Match %d (%s -> %s) is now %s", match.ID, match.ItemTitle, match.SeriesName, p.paint(match.Status, statusColors(match.Status)))
				}
				if len(errs) > 0 {
					return fmt.Errorf("%d of %d matches not updated: %w", len(errs), len(ids), errors.Join(errs...))
				}
				return nil
			})
		},
	}
}

type bulkFunc func(*api.Service, context.Context, api.BulkOptions) (api.BulkResult, error)

func newMatchBulkCommand(ctx *commandContext, use, short string, fn bulkFunc) *cobra.Command {
	var opts api.BulkOptions
	var asJSON bool
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd, func(c context.Context, svc *api.Service) error {
				result, err := fn(svc, c, opts)
				if err != nil {
					return err
				}
				p := newPrinter(cmd, asJSON)
				if p.json {
					return p.emitJSON(result)
				}
				p.line("%d matches updated, %d skipped", result.Changed, result.Skipped)
				for _, f := range result.Failures {
					p.fail("  %s %s: %s", f.Kind, f.ItemID, f.Reason)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&opts.MinConfidence, "min-confidence", 0, "Only update pending matches scored at or above this confidence (0-100)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func parseMatchIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid match id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
