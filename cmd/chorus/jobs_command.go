package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"chorus/internal/download"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	var history bool

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List download jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			active, err := ctx.client().ActiveDownloads(cmd.Context())
			if err != nil {
				return err
			}
			if len(active) == 0 {
				fmt.Fprintln(out, "no downloads in flight")
			} else {
				rows := make([][]string, 0, len(active))
				for _, job := range active {
					rows = append(rows, []string{
						strconv.FormatUint(uint64(job.ID), 10),
						string(job.Request.RequestType),
						job.Request.ArtistName,
						job.Request.AlbumName,
						job.Request.URL,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Job", "Type", "Artist", "Album", "URL"}, rows, 0))
			}

			if !history {
				return nil
			}

			// Job history lives in the daemon's local database; this
			// command assumes it runs on the daemon host.
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := download.OpenHistory(cfg.HistoryDBPath())
			if err != nil {
				return fmt.Errorf("open job history: %w", err)
			}
			defer store.Close()

			records, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(out, "no recorded jobs")
				return nil
			}
			rows := make([][]string, 0, len(records))
			for _, rec := range records {
				detail := rec.Error
				if rec.Status == download.StatusCompleted {
					detail = fmt.Sprintf("album %d, %d songs", rec.AlbumID, rec.Songs)
				}
				rows = append(rows, []string{
					strconv.FormatInt(rec.JobID, 10),
					rec.Status,
					rec.ArtistName,
					rec.AlbumName,
					detail,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Job", "Status", "Artist", "Album", "Detail"}, rows, 0))
			return nil
		},
	}

	cmd.Flags().BoolVar(&history, "history", false, "Include finished jobs from the daemon's history database")
	return cmd
}
