package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

func PingCmd(newLogger func() *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the execution service is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, cfg, err := newServiceClient(newLogger())
			if err != nil {
				return err
			}
			if err := client.Ping(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is up\n", cfg.Service.BaseURL)
			return nil
		},
	}
}
