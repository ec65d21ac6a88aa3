package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newPluginsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "plugins",
		Short: "Probe and report provider plugin availability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			orch, _, err := buildOrchestrator(cfg)
			if err != nil {
				return err
			}
			defer orch.Close()
			orch.Initialize(cmd.Context())

			status := orch.GetSystemStatus()
			rows := make([][]string, 0, len(status.Plugins))
			for _, plugin := range status.Plugins {
				state := "enabled"
				if !plugin.Enabled {
					state = "disabled: " + plugin.DisabledReason
				}
				rows = append(rows, []string{
					plugin.Name,
					plugin.Category,
					plugin.Provider,
					strconv.Itoa(plugin.Priority),
					state,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Plugin", "Category", "Provider", "Priority", "State"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}
}
