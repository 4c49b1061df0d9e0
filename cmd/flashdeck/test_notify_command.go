package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"flashdeck/internal/daemon"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			sent, message, err := daemon.TestNotification(runContext(cmd), cfg)
			if message != "" {
				fmt.Fprintln(cmd.OutOrStdout(), message)
			} else if sent {
				fmt.Fprintln(cmd.OutOrStdout(), "Test notification sent")
			}
			return err
		},
	}
}
