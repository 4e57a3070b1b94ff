package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newChangesCommand(ctx *commandContext) *cobra.Command {
	var since uint32

	cmd := &cobra.Command{
		Use:   "changes",
		Short: "List committed changes from the daemon's log",
		RunE: func(cmd *cobra.Command, args []string) error {
			from := since
			if from == 0 {
				from = 1
			}
			changes, err := ctx.client().ChangesSince(cmd.Context(), from)
			if err != nil {
				return err
			}
			if len(changes) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no changes at revision %d or later\n", from)
				return nil
			}

			rows := make([][]string, 0, len(changes))
			for _, change := range changes {
				rows = append(rows, []string{
					strconv.FormatUint(uint64(change.CommittedRevision), 10),
					string(change.Request.Type),
					strconv.FormatUint(uint64(change.Request.TargetID), 10),
					strconv.FormatUint(uint64(change.Request.Detail), 10),
					change.Request.Name,
					strconv.FormatUint(uint64(change.CreatedID), 10),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Rev", "Change", "Target", "Detail", "Name", "Created"},
				rows, 0, 2, 3, 5))
			return nil
		},
	}

	cmd.Flags().Uint32Var(&since, "since", 1, "First revision to list")
	return cmd
}
