package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"chorus/internal/library"
)

func newPushCommand(ctx *commandContext) *cobra.Command {
	var targetID uint32
	var detail uint32
	var name string

	cmd := &cobra.Command{
		Use:   "push <change-type>",
		Short: "Commit a single change to the shared library",
		Long: `Commit a single change, e.g.:

  chorus push ArtistAdd --name "Boards of Canada"
  chorus push AlbumAdd --target 1 --name Geogaddi
  chorus push SongSetLength --target 3 --detail 320
  chorus push TagSetParent --target 4 --detail 2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			changeType := library.ChangeType(args[0])
			if !changeType.Known() {
				return fmt.Errorf("unknown change type %q", args[0])
			}

			committed, err := ctx.client().ApplyChanges(cmd.Context(), []library.ChangeRequest{{
				Type:     changeType,
				TargetID: targetID,
				Detail:   detail,
				Name:     name,
			}})
			if err != nil {
				return err
			}
			if len(committed) == 0 {
				return fmt.Errorf("change %s was rejected by the daemon", changeType)
			}
			change := committed[0]
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "committed %s at revision %d", change.Request.Type, change.CommittedRevision)
			if change.CreatedID != 0 {
				fmt.Fprintf(out, " (id %d)", change.CreatedID)
			}
			fmt.Fprintln(out)
			return nil
		},
	}

	cmd.Flags().Uint32Var(&targetID, "target", 0, "Entity the change applies to")
	cmd.Flags().Uint32Var(&detail, "detail", 0, "Numeric argument (length, position, parent tag, ...)")
	cmd.Flags().StringVar(&name, "name", "", "String argument (entity name, file ending, ...)")
	return cmd
}
