package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"chorus/internal/wire"
)

func newUploadCommand(ctx *commandContext) *cobra.Command {
	var title string
	var artist string
	var album string
	var position uint32
	var duration uint32

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a local media file as a new song",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(artist) == "" {
				return fmt.Errorf("--artist is required")
			}
			payload, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read media file: %w", err)
			}

			base := filepath.Base(args[0])
			ending := filepath.Ext(base)
			if title == "" {
				title = strings.TrimSuffix(base, ending)
			}

			songID, err := ctx.client().UploadSong(cmd.Context(), wire.UploadSongRequest{
				Title:      title,
				ArtistName: artist,
				AlbumName:  album,
				Position:   position,
				Duration:   duration,
				FileEnding: ending,
				FileSize:   uint64(len(payload)),
			}, payload)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "uploaded %s as song %d\n", base, songID)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Song title (defaults to the file name)")
	cmd.Flags().StringVar(&artist, "artist", "", "Artist name (created or reused)")
	cmd.Flags().StringVar(&album, "album", "", "Album name (created under the artist when missing)")
	cmd.Flags().Uint32Var(&position, "position", 0, "Track position (appended when zero)")
	cmd.Flags().Uint32Var(&duration, "duration", 0, "Song length in seconds")
	return cmd
}
