package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"confmatch/pkg/api"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Probe the platform health endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := api.New(cfg.API, sess)
		if err := client.Health(cmd.Context()); err != nil {
			return fmt.Errorf("platform unreachable: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "ok: %s\n", cfg.API.BaseURL)
		return nil
	},
}
