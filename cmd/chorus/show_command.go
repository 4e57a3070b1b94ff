package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"chorus/internal/library"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the library as an indented tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, snapshot, err := ctx.client().FetchLibrary(cmd.Context())
			if err != nil {
				return err
			}
			lib, err := library.FromSnapshot(snapshot, nil)
			if err != nil {
				return fmt.Errorf("parse library snapshot: %w", err)
			}
			out := cmd.OutOrStdout()
			for _, line := range lib.Dump() {
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
}
