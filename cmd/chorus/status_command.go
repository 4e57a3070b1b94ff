package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"chorus/internal/deps"
	"chorus/internal/library"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon and library status",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			c := ctx.client()

			if err := c.Ping(cmd.Context()); err != nil {
				fmt.Fprintf(out, "Daemon:  not reachable at %s (%v)\n", c.Addr(), err)
				return nil
			}
			fmt.Fprintf(out, "Daemon:  running at %s\n", c.Addr())

			id, err := c.LibraryID(cmd.Context())
			if err != nil {
				return err
			}
			rev, snapshot, err := c.FetchLibrary(cmd.Context())
			if err != nil {
				return err
			}
			lib, err := library.FromSnapshot(snapshot, nil)
			if err != nil {
				return fmt.Errorf("parse library snapshot: %w", err)
			}
			fmt.Fprintf(out, "Library: %s at revision %d\n", id, rev)
			fmt.Fprintf(out, "Content: %d artists, %d albums, %d songs, %d tags\n",
				lib.NumArtists(), lib.NumAlbums(), lib.NumSongs(), lib.NumTags())

			active, err := c.ActiveDownloads(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Jobs:    %d download(s) in flight\n", len(active))

			if cfg, err := ctx.ensureConfig(); err == nil {
				fmt.Fprintln(out, "Tools:")
				for _, status := range deps.CheckBinaries(deps.Requirements(cfg)) {
					fmt.Fprintf(out, "  %-11s available=%s", status.Name, yesNo(status.Available))
					if status.Detail != "" {
						fmt.Fprintf(out, " (%s)", status.Detail)
					}
					fmt.Fprintln(out)
				}
			}
			return nil
		},
	}
}
