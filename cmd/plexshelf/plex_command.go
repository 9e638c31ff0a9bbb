package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPlexCommand(ctx *commandContext) *cobra.Command {
	plexCmd := &cobra.Command{
		Use:   "plex",
		Short: "Plex connection utilities",
	}
	plexCmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Verify the Plex URL, token, and audiobook library",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.plexClient()
			if err != nil {
				return err
			}
			info, err := client.TestConnection(cmd.Context())
			if err != nil {
				return err
			}
			key, err := client.SectionKey(cmd.Context())
			if err != nil {
				return err
			}
			p := newPrinter(cmd, false)
			p.summary("Server", fmt.Sprintf("%s (%s)", info.FriendlyName, info.Version))
			p.summary("Library", "section "+key)
			return nil
		},
	})
	return plexCmd
}
