package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show system status and processing metrics",
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
			out := cmd.OutOrStdout()

			rows := [][]string{
				{"Initialized", strconv.FormatBool(status.Initialized)},
				{"Active jobs", strconv.Itoa(status.ActiveJobs)},
				{"Cache entries", strconv.Itoa(status.CacheSize)},
				{"Total processed", strconv.FormatInt(status.Metrics.TotalProcessed, 10)},
				{"Succeeded", strconv.FormatInt(status.Metrics.SuccessCount, 10)},
				{"Failed", strconv.FormatInt(status.Metrics.ErrorCount, 10)},
				{"Average time", fmt.Sprintf("%dms", status.Metrics.AverageTimeMS)},
			}
			fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, rows, nil))

			categories := make([]string, 0, len(status.Categories))
			for category := range status.Categories {
				categories = append(categories, category)
			}
			sort.Strings(categories)
			categoryRows := make([][]string, 0, len(categories))
			for _, category := range categories {
				availability := "unavailable"
				if status.Categories[category] {
					availability = "available"
				}
				categoryRows = append(categoryRows, []string{category, availability})
			}
			fmt.Fprintln(out, renderTable([]string{"Capability", "Status"}, categoryRows, nil))
			return nil
		},
	}
}
