package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"chorus/internal/wire"
)

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	var sourceType string
	var artistID uint32
	var artistName string
	var albumName string

	cmd := &cobra.Command{
		Use:   "download <url>",
		Short: "Start an asynchronous download job on the daemon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := wire.DownloadSource(sourceType)
			if !source.Known() {
				return fmt.Errorf("unknown source type %q (use %s, %s or %s)",
					sourceType, wire.DownloadBandcampAlbum, wire.DownloadYoutubeVideo, wire.DownloadYoutubePlaylist)
			}
			if artistID == 0 && artistName == "" {
				return fmt.Errorf("either --artist-id or --artist is required")
			}

			c := ctx.client()
			revision, _, err := c.FetchLibrary(cmd.Context())
			if err != nil {
				return err
			}
			jobID, err := c.StartDownload(cmd.Context(), wire.DownloadRequest{
				RequestType:     source,
				URL:             args[0],
				ArtistID:        artistID,
				ArtistName:      artistName,
				AlbumName:       albumName,
				CurrentRevision: revision,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "download job %d started\n", jobID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&sourceType, "type", "t", string(wire.DownloadYoutubeVideo), "Source type")
	cmd.Flags().Uint32Var(&artistID, "artist-id", 0, "Existing artist to file the album under")
	cmd.Flags().StringVar(&artistName, "artist", "", "Artist name (created or reused when --artist-id is unset)")
	cmd.Flags().StringVar(&albumName, "album", "", "Album name (taken from source metadata when empty)")
	return cmd
}
