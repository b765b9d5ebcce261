package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ffqueue/internal/deps"
	"ffqueue/internal/services"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check external tools and writable directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out, cfg.Console.Color)

			results := deps.CheckSystem(cfg)
			for _, line := range renderSectionHeader("Dependencies", colorize) {
				fmt.Fprintln(out, line)
			}
			for _, status := range results {
				kind, message := statusOK, status.Resolved
				if message == "" {
					message = status.Detail
				}
				if !status.Available {
					message = status.Detail
					kind = statusError
					if status.Optional {
						kind = statusWarn
					}
					if status.Description != "" {
						message += " - " + status.Description
					}
				}
				fmt.Fprintln(out, renderStatusLine(status.Name, kind, message, colorize))
			}

			if missing := deps.MissingRequired(results); len(missing) > 0 {
				return services.Wrap(services.ErrConfiguration, "cli", "deps",
					fmt.Sprintf("%d required dependency check(s) failed", len(missing)), nil)
			}
			return nil
		},
	}
}
