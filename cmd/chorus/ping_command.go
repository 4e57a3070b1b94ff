package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newPingCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the daemon answers",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := ctx.client()
			start := time.Now()
			if err := c.Ping(cmd.Context()); err != nil {
				return fmt.Errorf("ping %s: %w", c.Addr(), err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pong from %s in %s\n", c.Addr(), time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
}
